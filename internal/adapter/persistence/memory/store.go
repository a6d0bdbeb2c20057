// Package memory is a process-local store with the same atomicity and uniqueness rules as
// the DynamoDB repositories. It backs STORE_DRIVER=memory and the use case tests.
package memory

import (
	"context"
	"sync"

	"mecanica_oficina/internal/domain/entities"
)

// Store holds every collection under one mutex, so a multi-document write (an order plus its
// markers, an invoice plus its markers) is observed entirely or not at all.
type Store struct {
	mu sync.RWMutex

	clients   map[string]entities.Client
	clientNIF map[string]string

	vehicles     map[string]entities.Vehicle
	vehiclePlate map[string]string
	vehicleVIN   map[string]string

	workOrders      map[string]entities.WorkOrder
	workOrderNumber map[string]string
	activeVehicle   map[string]string

	invoices         map[string]entities.Invoice
	invoiceWorkOrder map[string]string
	invoiceNumber    map[string]string
	invoicePending   map[string]struct{}

	payments      map[string]entities.InvoicePayment
	paymentClaims map[string]entities.PaymentClaim

	sequences map[string]int64
}

func NewStore() *Store {
	return &Store{
		clients:          make(map[string]entities.Client),
		clientNIF:        make(map[string]string),
		vehicles:         make(map[string]entities.Vehicle),
		vehiclePlate:     make(map[string]string),
		vehicleVIN:       make(map[string]string),
		workOrders:       make(map[string]entities.WorkOrder),
		workOrderNumber:  make(map[string]string),
		activeVehicle:    make(map[string]string),
		invoices:         make(map[string]entities.Invoice),
		invoiceWorkOrder: make(map[string]string),
		invoiceNumber:    make(map[string]string),
		invoicePending:   make(map[string]struct{}),
		payments:         make(map[string]entities.InvoicePayment),
		paymentClaims:    make(map[string]entities.PaymentClaim),
		sequences:        make(map[string]int64),
	}
}

func (s *Store) Clients() *ClientRepository { return &ClientRepository{s: s} }
func (s *Store) Vehicles() *VehicleRepository { return &VehicleRepository{s: s} }
func (s *Store) WorkOrders() *WorkOrderRepository { return &WorkOrderRepository{s: s} }
func (s *Store) Invoices() *InvoiceRepository { return &InvoiceRepository{s: s} }
func (s *Store) Payments() *InvoicePaymentRepository { return &InvoicePaymentRepository{s: s} }
func (s *Store) Sequences() *SequenceAllocator { return &SequenceAllocator{s: s} }

// alive reports a cancelled or expired context before the store is touched.
func alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
