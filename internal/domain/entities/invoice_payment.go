package entities

import (
	"encoding/json"
	"time"

	"mecanica_oficina/internal/domain/money"
)

// PaymentStatus represents the payment processing outcome.
type PaymentStatus string

const (
	PaymentStatusPendente PaymentStatus = "pendente"
	PaymentStatusAprovado PaymentStatus = "aprovado"
	PaymentStatusNegado   PaymentStatus = "negado"
)

// InvoicePayment is a provider payment settling an invoice.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (invoice_id-index): invoice_id
//
// MercadoPago payload:
//   - ProviderPayloadRaw keeps the original body (JSON) for traceability/audit.
//   - ProviderPayload is an optional parsed representation, useful for querying/debugging.
type InvoicePayment struct {
	ID        string        `json:"id"`
	InvoiceID string        `json:"invoice_id"`
	Date      time.Time     `json:"date"`
	Status    PaymentStatus `json:"status"`
	Amount    money.Money   `json:"amount"`

	ProviderPayloadRaw json.RawMessage        `json:"provider_payload_raw,omitempty"`
	ProviderPayload    map[string]interface{} `json:"provider_payload,omitempty"`
}

// PaymentClaim reserves an invoice for one payment attempt. A claim past ExpiresAt may be
// taken over by another attempt.
type PaymentClaim struct {
	InvoiceID string
	OwnerID   string
	ClaimedAt time.Time
	ExpiresAt time.Time
}
