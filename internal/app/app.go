// Package app assembles repositories, gateways and use cases from the configuration.
package app

import (
	"context"
	"fmt"
	"log"

	"mecanica_oficina/internal/adapter/persistence/memory"
	"mecanica_oficina/internal/adapter/persistence/repository"
	"mecanica_oficina/internal/config"
	"mecanica_oficina/internal/infrastructure/database"
	"mecanica_oficina/internal/infrastructure/payments"
	"mecanica_oficina/internal/infrastructure/pdf"
	"mecanica_oficina/internal/usecase"
	"mecanica_oficina/internal/usecase/interfaces"
)

type repositories struct {
	clients   interfaces.IClientRepository
	vehicles  interfaces.IVehicleRepository
	orders    interfaces.IWorkOrderRepository
	invoices  interfaces.IInvoiceRepository
	payments  interfaces.IInvoicePaymentRepository
	allocator interfaces.ISequenceAllocator
}

// App holds the use cases served by the API and the ops CLI.
type App struct {
	WorkOrders *usecase.WorkOrderUseCase
	Invoices   *usecase.InvoiceUseCase
	Payments   *usecase.InvoicePaymentUseCase
	Catalog    *usecase.CatalogUseCase
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repos, err := newRepositories(ctx, cfg.StoreDriver)
	if err != nil {
		return nil, err
	}

	var gateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken)
	if err != nil {
		log.Printf("[app] mercado pago gateway not configured: %v", err)
	} else {
		gateway = mpGateway
	}

	opts := []usecase.Option{
		usecase.WithStoreTimeout(cfg.StoreTimeout),
		usecase.WithMaxAttempts(cfg.MaxWriteAttempts),
	}

	catalog, err := usecase.NewCatalogUseCase(repos.clients, repos.vehicles, opts...)
	if err != nil {
		return nil, err
	}
	workOrders, err := usecase.NewWorkOrderUseCase(repos.orders, repos.clients, repos.vehicles, repos.allocator, opts...)
	if err != nil {
		return nil, err
	}
	invoices, err := usecase.NewInvoiceUseCase(repos.invoices, repos.orders, repos.clients, repos.vehicles, repos.allocator,
		pdf.NewInvoiceRenderer(cfg.InvoiceIssuer), opts...)
	if err != nil {
		return nil, err
	}
	invoicePayments, err := usecase.NewInvoicePaymentUseCase(repos.payments, invoices, gateway, opts...)
	if err != nil {
		return nil, err
	}

	return &App{
		WorkOrders: workOrders,
		Invoices:   invoices,
		Payments:   invoicePayments,
		Catalog:    catalog,
	}, nil
}

func newRepositories(ctx context.Context, driver string) (repositories, error) {
	switch driver {
	case config.StoreDriverMemory:
		log.Printf("[app] using in-memory store")
		s := memory.NewStore()
		return repositories{
			clients:   s.Clients(),
			vehicles:  s.Vehicles(),
			orders:    s.WorkOrders(),
			invoices:  s.Invoices(),
			payments:  s.Payments(),
			allocator: s.Sequences(),
		}, nil
	case config.StoreDriverDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx)
		if err != nil {
			return repositories{}, err
		}
		tables := repository.TablesFromEnv()
		return repositories{
			clients:   repository.NewClientDynamoRepository(ddb, tables),
			vehicles:  repository.NewVehicleDynamoRepository(ddb, tables),
			orders:    repository.NewWorkOrderDynamoRepository(ddb, tables),
			invoices:  repository.NewInvoiceDynamoRepository(ddb, tables),
			payments:  repository.NewInvoicePaymentDynamoRepository(ddb, tables),
			allocator: repository.NewSequenceDynamoAllocator(ddb, tables),
		}, nil
	}
	return repositories{}, fmt.Errorf("unsupported store driver %q", driver)
}
