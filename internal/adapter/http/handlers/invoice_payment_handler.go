package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	response "mecanica_oficina/internal/adapter/http/dto/response"
	"mecanica_oficina/internal/usecase"

	"github.com/gin-gonic/gin"
)

// InvoicePaymentHandler handles HTTP requests for invoice payments.
type InvoicePaymentHandler struct {
	usecase usecase.IInvoicePaymentUseCase
}

func NewInvoicePaymentHandler(uc usecase.IInvoicePaymentUseCase) *InvoicePaymentHandler {
	return &InvoicePaymentHandler{usecase: uc}
}

// Pay godoc
// @Summary      Pay an invoice through Mercado Pago
// @Description  Accepts the Mercado Pago payload either bare or wrapped in mp_payload. Amount and reference come from the invoice.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id    path      string                               true  "Invoice id"
// @Param        body  body      request.InvoicePaymentCreateRequest  true  "Payment"
// @Success      200   {object}  response.PayInvoiceResponse
// @Failure      400   {object}  pkg.HTTPError
// @Failure      409   {object}  pkg.HTTPError
// @Router       /invoices/{id}/payments [post]
func (h *InvoicePaymentHandler) Pay(c *gin.Context) {
	invoiceID := c.Param("id")
	log.Printf("[payment][handler] pay start invoice_id=%s", invoiceID)
	mockMode := isPaymentGatewayMockEnabled()
	mpPayload, err := readMPPayload(c)
	if err != nil {
		if mockMode {
			log.Printf("[payment][handler] payload invalid in mock mode; fallback to empty payload invoice_id=%s err=%v", invoiceID, err)
			mpPayload = json.RawMessage("{}")
		} else {
			log.Printf("[payment][handler] invalid payload invoice_id=%s err=%v", invoiceID, err)
			respondError(c, errInvalidRequest)
			return
		}
	}

	payment, inv, err := h.usecase.Pay(c.Request.Context(), invoiceID, mpPayload)
	if err != nil {
		log.Printf("[payment][handler] pay failed invoice_id=%s err=%v", invoiceID, err)
		respondError(c, mapError(err))
		return
	}
	log.Printf("[payment][handler] pay success invoice_id=%s payment_id=%s status=%s", invoiceID, payment.ID, payment.Status)

	c.JSON(http.StatusOK, response.PayInvoiceResponse{
		Payment: response.FromInvoicePayment(payment),
		Invoice: response.FromInvoice(inv),
	})
}

// List godoc
// @Summary  List the payments of an invoice
// @Tags     payments
// @Produce  json
// @Param    id   path     string  true  "Invoice id"
// @Success  200  {array}  response.InvoicePaymentResponse
// @Router   /invoices/{id}/payments [get]
func (h *InvoicePaymentHandler) List(c *gin.Context) {
	invoiceID := c.Param("id")
	payments, err := h.usecase.ListByInvoiceID(c.Request.Context(), invoiceID)
	if err != nil {
		log.Printf("[payment][handler] list failed invoice_id=%s err=%v", invoiceID, err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromInvoicePayments(payments))
}

// GetByID godoc
// @Summary  Get a payment
// @Tags     payments
// @Produce  json
// @Param    id   path      string  true  "Payment id"
// @Success  200  {object}  response.InvoicePaymentResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /payments/{id} [get]
func (h *InvoicePaymentHandler) GetByID(c *gin.Context) {
	p, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromInvoicePayment(p))
}

func readMPPayload(c *gin.Context) (json.RawMessage, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("request body is not valid json")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if wrapped, ok := envelope["mp_payload"]; ok {
			if len(strings.TrimSpace(string(wrapped))) == 0 || strings.TrimSpace(string(wrapped)) == "null" {
				return nil, errors.New("mp_payload cannot be empty")
			}
			return wrapped, nil
		}
	}

	return json.RawMessage(raw), nil
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
