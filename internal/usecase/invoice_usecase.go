package usecase

//go:generate mockgen -source=invoice_usecase.go -destination=../adapter/http/handlers/mocks/invoice_usecase_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Scanned  int
	Repaired int
	Failed   int
}

// IInvoiceUseCase issues invoices from completed work orders and tracks their status.
type IInvoiceUseCase interface {
	Emit(ctx context.Context, workOrderID, emittedByID string) (entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	GetByNumber(ctx context.Context, number string) (entities.Invoice, error)
	GetByWorkOrderID(ctx context.Context, workOrderID string) (entities.Invoice, error)
	MarkPaid(ctx context.Context, id string) (entities.Invoice, error)
	Cancel(ctx context.Context, id string) (entities.Invoice, error)
	RenderPDF(ctx context.Context, id string, out io.Writer) (entities.Invoice, error)
	Reconcile(ctx context.Context, limit int) (ReconcileReport, error)
}

type InvoiceUseCase struct {
	invoices  interfaces.IInvoiceRepository
	orders    workOrderWriter
	clients   interfaces.IClientRepository
	vehicles  interfaces.IVehicleRepository
	allocator interfaces.ISequenceAllocator
	renderer  interfaces.IInvoiceRenderer
	settings
}

var _ IInvoiceUseCase = (*InvoiceUseCase)(nil)

// NewInvoiceUseCase wires the invoice flow. renderer may be nil, which disables RenderPDF.
func NewInvoiceUseCase(
	invoices interfaces.IInvoiceRepository,
	orders interfaces.IWorkOrderRepository,
	clients interfaces.IClientRepository,
	vehicles interfaces.IVehicleRepository,
	allocator interfaces.ISequenceAllocator,
	renderer interfaces.IInvoiceRenderer,
	opts ...Option,
) (*InvoiceUseCase, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &InvoiceUseCase{
		invoices:  invoices,
		orders:    workOrderWriter{repo: orders, settings: s},
		clients:   clients,
		vehicles:  vehicles,
		allocator: allocator,
		renderer:  renderer,
		settings:  s,
	}, nil
}

// Emit freezes a Completed work order into an invoice and moves the order to Invoiced.
//
// The invoice insert and the work order transition are two writes. When the second one
// fails the invoice stands, and the error is *entities.ReconciliationRequiredError naming
// both documents; Reconcile finishes the transition later.
func (u *InvoiceUseCase) Emit(ctx context.Context, workOrderID, emittedByID string) (entities.Invoice, error) {
	emittedByID = strings.TrimSpace(emittedByID)
	log.Printf("[invoice][usecase] emit start work_order_id=%s", workOrderID)
	wo, err := u.orders.load(ctx, workOrderID)
	if err != nil {
		return entities.Invoice{}, err
	}

	existing, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Invoice, error) {
		return u.invoices.GetByWorkOrderID(ctx, wo.ID)
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if existing.ID != "" {
		log.Printf("[invoice][usecase] emit rejected work_order_id=%s existing_number=%s", wo.ID, existing.Number)
		return entities.Invoice{}, fmt.Errorf("work order %s has invoice %s: %w", wo.Number, existing.Number, entities.ErrDuplicateInvoice)
	}
	if err := wo.Can(entities.TransitionInvoice); err != nil {
		return entities.Invoice{}, err
	}

	client, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Client, error) {
		return u.clients.GetByID(ctx, wo.ClientID)
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if client.ID == "" {
		return entities.Invoice{}, ErrClientNotFound
	}
	vehicle, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Vehicle, error) {
		return u.vehicles.GetByID(ctx, wo.VehicleID)
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if vehicle.ID == "" {
		return entities.Invoice{}, ErrVehicleNotFound
	}

	var inv entities.Invoice
	err = u.retry(ctx, "[invoice][usecase] emit", func() error {
		now := u.now()
		number, err := storeCall(ctx, u.settings, func(ctx context.Context) (string, error) {
			return u.allocator.Next(ctx, entities.SequenceInvoice, now.Year())
		})
		if err != nil {
			return err
		}
		snapshot, err := entities.NewInvoiceSnapshot(entities.InvoiceSnapshotParams{
			ID:          u.newID(),
			Number:      number,
			EmittedByID: emittedByID,
			WorkOrder:   wo,
			Client:      client,
			Vehicle:     vehicle,
		}, now)
		if err != nil {
			return err
		}
		inv, err = storeCall(ctx, u.settings, func(ctx context.Context) (entities.Invoice, error) {
			return u.invoices.Create(ctx, snapshot)
		})
		return err
	})
	if err != nil {
		log.Printf("[invoice][usecase] emit failed work_order_id=%s err=%v", wo.ID, err)
		return entities.Invoice{}, err
	}
	log.Printf("[invoice][usecase] invoice written id=%s number=%s work_order_id=%s", inv.ID, inv.Number, wo.ID)

	if _, err := u.linkWorkOrder(ctx, wo.ID, inv.ID); err != nil {
		log.Printf("[invoice][usecase] work order not marked invoiced work_order_id=%s invoice_id=%s err=%v", wo.ID, inv.ID, err)
		return inv, &entities.ReconciliationRequiredError{WorkOrderID: wo.ID, InvoiceID: inv.ID, Err: err}
	}
	log.Printf("[invoice][usecase] emit success id=%s number=%s", inv.ID, inv.Number)
	return inv, nil
}

func (u *InvoiceUseCase) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	return u.find(ctx, id, u.invoices.GetByID)
}

func (u *InvoiceUseCase) GetByNumber(ctx context.Context, number string) (entities.Invoice, error) {
	return u.find(ctx, number, u.invoices.GetByNumber)
}

func (u *InvoiceUseCase) GetByWorkOrderID(ctx context.Context, workOrderID string) (entities.Invoice, error) {
	return u.find(ctx, workOrderID, u.invoices.GetByWorkOrderID)
}

func (u *InvoiceUseCase) find(ctx context.Context, key string, get func(context.Context, string) (entities.Invoice, error)) (entities.Invoice, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return entities.Invoice{}, ErrInvalidID
	}
	inv, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Invoice, error) {
		return get(ctx, key)
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if inv.ID == "" {
		return entities.Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (u *InvoiceUseCase) MarkPaid(ctx context.Context, id string) (entities.Invoice, error) {
	return u.changeStatus(ctx, id, "pay", (*entities.Invoice).MarkPaid)
}

func (u *InvoiceUseCase) Cancel(ctx context.Context, id string) (entities.Invoice, error) {
	return u.changeStatus(ctx, id, "cancel", (*entities.Invoice).Cancel)
}

func (u *InvoiceUseCase) changeStatus(ctx context.Context, id, op string, fn func(*entities.Invoice, time.Time) error) (entities.Invoice, error) {
	var saved entities.Invoice
	err := u.retry(ctx, "[invoice][usecase] "+op, func() error {
		current, err := u.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next := current.Clone()
		if err := fn(&next, u.now()); err != nil {
			return err
		}
		saved, err = storeCall(ctx, u.settings, func(ctx context.Context) (entities.Invoice, error) {
			return u.invoices.UpdateStatus(ctx, next, current.Status)
		})
		return err
	})
	if err != nil {
		log.Printf("[invoice][usecase] %s failed id=%s err=%v", op, id, err)
		return entities.Invoice{}, err
	}
	log.Printf("[invoice][usecase] %s success id=%s status=%s", op, saved.ID, saved.Status)
	return saved, nil
}

// RenderPDF writes the printable invoice to out and returns the rendered invoice.
func (u *InvoiceUseCase) RenderPDF(ctx context.Context, id string, out io.Writer) (entities.Invoice, error) {
	if u.renderer == nil {
		return entities.Invoice{}, ErrRendererNotEnabled
	}
	inv, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Invoice{}, err
	}
	if err := u.renderer.Render(out, inv); err != nil {
		log.Printf("[invoice][usecase] render failed id=%s err=%v", inv.ID, err)
		return entities.Invoice{}, err
	}
	return inv, nil
}

// Reconcile finishes the Invoiced transition of work orders whose invoice was written but
// never linked. It works through at most limit pending invoices, oldest first, and keeps
// going past individual failures.
func (u *InvoiceUseCase) Reconcile(ctx context.Context, limit int) (ReconcileReport, error) {
	var report ReconcileReport
	pending, err := storeCall(ctx, u.settings, func(ctx context.Context) ([]entities.Invoice, error) {
		return u.invoices.ListPendingLink(ctx, limit)
	})
	if err != nil {
		return report, err
	}
	for _, inv := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		repaired, err := u.linkWorkOrder(ctx, inv.WorkOrderID, inv.ID)
		switch {
		case err == nil && repaired:
			report.Repaired++
			log.Printf("[invoice][reconcile] repaired work_order_id=%s invoice_id=%s", inv.WorkOrderID, inv.ID)
		case err == nil:
			// linked by Emit after the invoice was listed
		case errors.Is(err, ErrWorkOrderNotFound):
			report.Failed++
			log.Printf("[invoice][reconcile] dropping invoice of missing work order work_order_id=%s invoice_id=%s", inv.WorkOrderID, inv.ID)
			u.clearPendingLink(ctx, inv.ID)
		default:
			report.Failed++
			log.Printf("[invoice][reconcile] repair failed work_order_id=%s invoice_id=%s err=%v", inv.WorkOrderID, inv.ID, err)
		}
	}
	return report, nil
}

// linkWorkOrder moves the order of invoice invoiceID to Invoiced and takes the invoice off
// the pending link index. repaired is false when the order had already moved past
// Completed; the invoice work order marker makes invoiceID its only invoice.
func (u *InvoiceUseCase) linkWorkOrder(ctx context.Context, workOrderID, invoiceID string) (repaired bool, err error) {
	_, err = u.orders.mutate(ctx, workOrderID, entities.TransitionInvoice, (*entities.WorkOrder).MarkInvoiced)
	repaired = err == nil
	if errors.Is(err, entities.ErrInvalidTransition) {
		current, loadErr := u.orders.load(ctx, workOrderID)
		if loadErr == nil && invoicedStatus(current.Status) {
			err = nil
		}
	}
	if err != nil {
		return false, err
	}
	u.clearPendingLink(ctx, invoiceID)
	return repaired, nil
}

// clearPendingLink is best effort: a leftover entry is dropped by the next Reconcile pass.
func (u *InvoiceUseCase) clearPendingLink(ctx context.Context, invoiceID string) {
	_, err := storeCall(ctx, u.settings, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, u.invoices.ClearPendingLink(ctx, invoiceID)
	})
	if err != nil {
		log.Printf("[invoice][usecase] pending link not cleared invoice_id=%s err=%v", invoiceID, err)
	}
}

func invoicedStatus(s entities.WorkOrderStatus) bool {
	return s == entities.WorkOrderStatusInvoiced || s == entities.WorkOrderStatusDelivered
}
