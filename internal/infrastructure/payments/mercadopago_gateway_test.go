package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/mercadopago/sdk-go/pkg/payment"
)

type fakeCreator struct {
	got    payment.Request
	gotKey string
	resp   *payment.Response
	err    error
}

func (f *fakeCreator) Create(ctx context.Context, req payment.Request) (*payment.Response, error) {
	f.got = req
	f.gotKey, _ = ctx.Value(idempotencyKeyCtx{}).(string)
	return f.resp, f.err
}

func TestNewMercadoPagoGateway_MissingToken(t *testing.T) {
	g, err := NewMercadoPagoGateway("")
	if !errors.Is(err, ErrMissingMercadoPagoAccessToken) {
		t.Fatalf("expected ErrMissingMercadoPagoAccessToken, got %v", err)
	}
	if g != nil {
		t.Fatalf("expected nil gateway")
	}
}

func TestMercadoPagoGateway_CreatePayment(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		var g *MercadoPagoGateway
		_, _, _, err := g.CreatePayment(context.Background(), "invoice-inv-1-1", json.RawMessage(`{}`))
		if !errors.Is(err, ErrMercadoPagoGatewayNotConfigured) {
			t.Fatalf("expected ErrMercadoPagoGatewayNotConfigured, got %v", err)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		g := &MercadoPagoGateway{client: &fakeCreator{}}
		if _, _, _, err := g.CreatePayment(context.Background(), "invoice-inv-1-1", json.RawMessage(`{`)); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("sdk error", func(t *testing.T) {
		boom := errors.New("401 unauthorized")
		g := &MercadoPagoGateway{client: &fakeCreator{err: boom}}
		_, _, _, err := g.CreatePayment(context.Background(), "invoice-inv-1-1", json.RawMessage(`{"transaction_amount":10}`))
		if !errors.Is(err, boom) {
			t.Fatalf("expected sdk error, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		fake := &fakeCreator{resp: &payment.Response{ID: 987, Status: "approved"}}
		g := &MercadoPagoGateway{client: fake}
		payload := json.RawMessage(`{"transaction_amount":86.10,"external_reference":"inv-1","payment_method_id":"pix","payer":{"email":"a@b.com"}}`)

		id, status, raw, err := g.CreatePayment(context.Background(), "invoice-inv-1-1", payload)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if id != "987" || status != "approved" {
			t.Fatalf("unexpected id/status %s/%s", id, status)
		}
		if fake.got.ExternalReference != "inv-1" || fake.got.TransactionAmount != 86.10 {
			t.Fatalf("unexpected request %+v", fake.got)
		}
		if fake.gotKey != "invoice-inv-1-1" {
			t.Fatalf("expected idempotency key on context, got %q", fake.gotKey)
		}
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("provider response is not json: %v", err)
		}
		if decoded["status"] != "approved" {
			t.Fatalf("unexpected provider response %s", raw)
		}
	})
}

type recordingRequester struct {
	header http.Header
}

func (r *recordingRequester) Do(req *http.Request) (*http.Response, error) {
	r.header = req.Header.Clone()
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Header: http.Header{}}, nil
}

func TestIdempotentRequester(t *testing.T) {
	t.Run("key from context replaces the random one", func(t *testing.T) {
		next := &recordingRequester{}
		req, _ := http.NewRequestWithContext(withIdempotencyKey(context.Background(), "invoice-inv-9-2"), http.MethodPost, "https://api.mercadopago.com/v1/payments", nil)
		req.Header.Set("X-Idempotency-Key", "random")

		if _, err := (idempotentRequester{next: next}).Do(req); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if got := next.header.Get("X-Idempotency-Key"); got != "invoice-inv-9-2" {
			t.Fatalf("expected invoice key, got %q", got)
		}
	})

	t.Run("no key leaves the header alone", func(t *testing.T) {
		next := &recordingRequester{}
		req, _ := http.NewRequest(http.MethodPost, "https://api.mercadopago.com/v1/payments", nil)
		req.Header.Set("X-Idempotency-Key", "random")

		if _, err := (idempotentRequester{next: next}).Do(req); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if got := next.header.Get("X-Idempotency-Key"); got != "random" {
			t.Fatalf("expected untouched header, got %q", got)
		}
	})
}
