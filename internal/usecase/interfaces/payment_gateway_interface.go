package interfaces

//go:generate mockgen -source=payment_gateway_interface.go -destination=mocks/payment_gateway_interface_mock.go -package=mock_interfaces

import (
	"context"
	"encoding/json"
)

// IPaymentGateway abstracts external payment providers (e.g. Mercado Pago).
//
// The invoice payment flow uses it to charge the invoice total and keeps the provider
// response payload for traceability. Requests sent with the same idempotencyKey are charged
// at most once by the provider.
type IPaymentGateway interface {
	CreatePayment(ctx context.Context, idempotencyKey string, requestPayload json.RawMessage) (providerPaymentID string, providerStatus string, providerResponse json.RawMessage, err error)
}
