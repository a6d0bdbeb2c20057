package response

import (
	"time"

	"mecanica_oficina/internal/domain/entities"
)

type InvoicePaymentResponse struct {
	PaymentID   string    `json:"payment_id"`
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	PaymentDate time.Time `json:"payment_date"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Amount      string    `json:"amount"`

	MPPayloadRaw string                 `json:"mp_payload_raw,omitempty"`
	MPPayload    map[string]interface{} `json:"mp_payload,omitempty"`
}

func FromInvoicePayment(p entities.InvoicePayment) InvoicePaymentResponse {
	return InvoicePaymentResponse{
		PaymentID:    p.ID,
		ID:           p.ID,
		InvoiceID:    p.InvoiceID,
		PaymentDate:  p.Date,
		Date:         p.Date,
		Status:       string(p.Status),
		Amount:       p.Amount.String(),
		MPPayloadRaw: string(p.ProviderPayloadRaw),
		MPPayload:    p.ProviderPayload,
	}
}

func FromInvoicePayments(ps []entities.InvoicePayment) []InvoicePaymentResponse {
	out := make([]InvoicePaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromInvoicePayment(p))
	}
	return out
}

// PayInvoiceResponse is the outcome of a payment attempt: the stored payment and the
// invoice as it stands afterwards.
type PayInvoiceResponse struct {
	Payment InvoicePaymentResponse `json:"payment"`
	Invoice InvoiceResponse        `json:"invoice"`
}
