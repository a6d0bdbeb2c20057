package request

import "encoding/json"

// InvoicePaymentCreateRequest is the payload of the invoice payment route.
//
// `mp_payload` is forwarded to Mercado Pago and stored as-is (raw JSON) to support varying
// provider schemas. The amount and external reference are always set from the invoice.
type InvoicePaymentCreateRequest struct {
	MPPayload json.RawMessage `json:"mp_payload"`
}
