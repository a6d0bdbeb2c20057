package interfaces

//go:generate mockgen -source=invoice_payment_repository_interface.go -destination=mocks/invoice_payment_repository_interface_mock.go -package=mock_interfaces

import (
	"context"

	"mecanica_oficina/internal/domain/entities"
)

// IInvoicePaymentRepository abstracts DynamoDB persistence for InvoicePayment.
//
// Claim reserves an invoice for a single payment attempt. It fails with
// entities.ErrPaymentInProgress while another owner holds an unexpired claim. ReleaseClaim
// drops the claim only when ownerID still holds it.
type IInvoicePaymentRepository interface {
	Create(ctx context.Context, p entities.InvoicePayment) (entities.InvoicePayment, error)
	GetByID(ctx context.Context, id string) (entities.InvoicePayment, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.InvoicePayment, error)
	Claim(ctx context.Context, c entities.PaymentClaim) error
	ReleaseClaim(ctx context.Context, invoiceID, ownerID string) error
}
