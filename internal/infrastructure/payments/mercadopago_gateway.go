package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/requester"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")

// paymentCreator is the part of the Mercado Pago payment client the gateway calls.
type paymentCreator interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
}

// MercadoPagoGateway charges invoices through the Mercado Pago payments API.
type MercadoPagoGateway struct {
	client paymentCreator
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		log.Printf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := config.New(accessToken, config.WithHTTPClient(idempotentRequester{next: &http.Client{Timeout: 10 * time.Second}}))
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg)}, nil
}

// CreatePayment sends the invoice payment request as built by the use case and returns the
// provider id, status and the full provider response. idempotencyKey is sent as the
// X-Idempotency-Key header, so a repeated request returns the first charge.
func (g *MercadoPagoGateway) CreatePayment(ctx context.Context, idempotencyKey string, requestPayload json.RawMessage) (string, string, json.RawMessage, error) {
	if g == nil || g.client == nil {
		log.Printf("[payment][gateway] gateway not configured")
		return "", "", nil, ErrMercadoPagoGatewayNotConfigured
	}

	var req payment.Request
	if err := json.Unmarshal(requestPayload, &req); err != nil {
		log.Printf("[payment][gateway] payload unmarshal failed err=%v", err)
		return "", "", nil, fmt.Errorf("invalid payment request: %w", err)
	}
	log.Printf("[payment][gateway] create start external_reference=%s amount=%.2f", req.ExternalReference, req.TransactionAmount)

	resp, err := g.client.Create(withIdempotencyKey(ctx, idempotencyKey), req)
	if err != nil {
		log.Printf("[payment][gateway] sdk create failed external_reference=%s err=%v", req.ExternalReference, err)
		return "", "", nil, err
	}

	b, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] response marshal failed err=%v", err)
		return "", "", nil, err
	}
	id := fmt.Sprintf("%d", resp.ID)
	log.Printf("[payment][gateway] create success provider_payment_id=%s provider_status=%s", id, resp.Status)

	return id, resp.Status, b, nil
}

type idempotencyKeyCtx struct{}

func withIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// idempotentRequester replaces the random X-Idempotency-Key the SDK puts on every write with
// the key carried by the request context.
type idempotentRequester struct {
	next requester.Requester
}

func (r idempotentRequester) Do(req *http.Request) (*http.Response, error) {
	if key, ok := req.Context().Value(idempotencyKeyCtx{}).(string); ok && req.Method != http.MethodGet {
		req.Header.Set("X-Idempotency-Key", key)
	}
	return r.next.Do(req)
}
