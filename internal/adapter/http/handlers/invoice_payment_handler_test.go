package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mecanica_oficina/internal/adapter/http/handlers/mocks"
	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"
	"mecanica_oficina/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

type failingReadCloser struct{}

func (failingReadCloser) Read(_ []byte) (int, error) { return 0, errors.New("read error") }
func (failingReadCloser) Close() error               { return nil }

func newPaymentRouter(t *testing.T) (*gin.Engine, *mocks.MockIInvoicePaymentUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("PAYMENT_GATEWAY_MOCK", "")
	t.Setenv("MERCADOPAGO_MOCK", "")
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIInvoicePaymentUseCase(ctrl)
	h := NewInvoicePaymentHandler(uc)

	r := gin.New()
	r.POST("/v1/invoices/:id/payments", h.Pay)
	r.GET("/v1/invoices/:id/payments", h.List)
	r.GET("/v1/payments/:id", h.GetByID)
	return r, uc
}

func TestInvoicePaymentHandler_Pay(t *testing.T) {
	t.Run("invalid payload", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		if w := serve(r, http.MethodPost, "/v1/invoices/inv-1/payments", "{", nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("null wrapped payload", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		if w := serve(r, http.MethodPost, "/v1/invoices/inv-1/payments", `{"mp_payload":null}`, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid payload in mock mode falls back to empty", func(t *testing.T) {
		r, uc := newPaymentRouter(t)
		t.Setenv("PAYMENT_GATEWAY_MOCK", "true")
		uc.EXPECT().Pay(gomock.Any(), "inv-1", json.RawMessage("{}")).Return(entities.InvoicePayment{ID: "pay-1"}, entities.Invoice{ID: "inv-1"}, nil)

		if w := serve(r, http.MethodPost, "/v1/invoices/inv-1/payments", "{", nil); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("read error", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/invoices/inv-1/payments", nil)
		req.Body = failingReadCloser{}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invoice not payable", func(t *testing.T) {
		r, uc := newPaymentRouter(t)
		uc.EXPECT().Pay(gomock.Any(), "inv-1", gomock.Any()).Return(entities.InvoicePayment{}, entities.Invoice{}, usecase.ErrInvoiceNotPayable)

		w := serve(r, http.MethodPost, "/v1/invoices/inv-1/payments", `{"payment_method_id":"pix","payer":{"email":"x@test.com"}}`, nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("success unwraps mp_payload", func(t *testing.T) {
		r, uc := newPaymentRouter(t)
		now := time.Now().UTC()
		uc.EXPECT().Pay(gomock.Any(), "inv-1", json.RawMessage(`{"payment_method_id":"pix","payer":{"email":"x@test.com"}}`)).Return(
			entities.InvoicePayment{ID: "pay-1", InvoiceID: "inv-1", Date: now, Status: entities.PaymentStatusAprovado, Amount: money.MustParse("86.10")},
			entities.Invoice{ID: "inv-1", Status: entities.InvoiceStatusPaid},
			nil,
		)

		w := serve(r, http.MethodPost, "/v1/invoices/inv-1/payments", `{"mp_payload":{"payment_method_id":"pix","payer":{"email":"x@test.com"}}}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
		}
		body := decode(t, w)
		payment := body["payment"].(map[string]any)
		invoice := body["invoice"].(map[string]any)
		if payment["payment_id"] != "pay-1" || payment["amount"] != "86.10" || invoice["status"] != "Paid" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestInvoicePaymentHandler_Reads(t *testing.T) {
	r, uc := newPaymentRouter(t)
	uc.EXPECT().ListByInvoiceID(gomock.Any(), "inv-1").Return([]entities.InvoicePayment{{ID: "pay-1"}, {ID: "pay-2"}}, nil)
	uc.EXPECT().ListByInvoiceID(gomock.Any(), " ").Return(nil, usecase.ErrInvalidID)
	uc.EXPECT().GetByID(gomock.Any(), "missing").Return(entities.InvoicePayment{}, usecase.ErrInvoicePaymentNotFound)

	w := serve(r, http.MethodGet, "/v1/invoices/inv-1/payments", "", nil)
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("unexpected list %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodGet, "/v1/invoices/%20/payments", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/v1/payments/missing", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
