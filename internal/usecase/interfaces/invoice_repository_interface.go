package interfaces

//go:generate mockgen -source=invoice_repository_interface.go -destination=mocks/invoice_repository_interface_mock.go -package=mock_interfaces

import (
	"context"

	"mecanica_oficina/internal/domain/entities"
)

// IInvoiceRepository abstracts persistence for issued invoices.
//
// Create fails with entities.ErrDuplicateInvoice when the work order already has an
// invoice, and with entities.ErrAllocationConflict when the number is taken. UpdateStatus
// writes the status fields of inv only if the stored status still equals from
// (entities.ErrStaleWrite otherwise); nothing else of an invoice is ever rewritten.
//
// Create also records the invoice as pending link: its work order may not be Invoiced yet.
// ListPendingLink returns those invoices, oldest first, until ClearPendingLink drops them.
type IInvoiceRepository interface {
	Create(ctx context.Context, inv entities.Invoice) (entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	GetByNumber(ctx context.Context, number string) (entities.Invoice, error)
	GetByWorkOrderID(ctx context.Context, workOrderID string) (entities.Invoice, error)
	UpdateStatus(ctx context.Context, inv entities.Invoice, from entities.InvoiceStatus) (entities.Invoice, error)
	ListPendingLink(ctx context.Context, limit int) ([]entities.Invoice, error)
	ClearPendingLink(ctx context.Context, id string) error
}
