package usecase

//go:generate mockgen -source=invoice_payment_usecase.go -destination=../adapter/http/handlers/mocks/invoice_payment_usecase_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

var (
	ErrInvoicePaymentNotFound         = errors.New("invoice payment not found")
	ErrInvalidMPPayload               = errors.New("invalid mercado pago payload")
	ErrInvoiceNotPayable              = errors.New("invoice is not awaiting payment")
	ErrPaymentGatewayNotConfigured    = errors.New("payment gateway not configured")
	ErrPaymentGatewayBadRequest       = errors.New("payment gateway bad request")
	ErrPaymentGatewayUnauthorized     = errors.New("payment gateway unauthorized")
	ErrPaymentGatewayInvalidUsers     = errors.New("payment gateway invalid users involved")
	ErrPaymentGatewayCustomerNotFound = errors.New("payment gateway customer not found")
)

// IInvoicePaymentUseCase charges an Emitted invoice through the payment provider.
//
// The amount always comes from the stored invoice total; an approved payment moves the
// invoice to Paid.
type IInvoicePaymentUseCase interface {
	Pay(ctx context.Context, invoiceID string, mpPayload json.RawMessage) (entities.InvoicePayment, entities.Invoice, error)
	GetByID(ctx context.Context, id string) (entities.InvoicePayment, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.InvoicePayment, error)
}

// invoiceSettler is the part of the invoice flow a payment drives.
type invoiceSettler interface {
	GetByID(ctx context.Context, id string) (entities.Invoice, error)
	MarkPaid(ctx context.Context, id string) (entities.Invoice, error)
}

// paymentClaimTTL bounds how long a crashed attempt keeps an invoice from being paid.
const paymentClaimTTL = 10 * time.Minute

type InvoicePaymentUseCase struct {
	repo     interfaces.IInvoicePaymentRepository
	invoices invoiceSettler
	gateway  interfaces.IPaymentGateway
	settings
}

var _ IInvoicePaymentUseCase = (*InvoicePaymentUseCase)(nil)

func NewInvoicePaymentUseCase(repo interfaces.IInvoicePaymentRepository, invoices invoiceSettler, gateway interfaces.IPaymentGateway, opts ...Option) (*InvoicePaymentUseCase, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &InvoicePaymentUseCase{repo: repo, invoices: invoices, gateway: gateway, settings: s}, nil
}

func (u *InvoicePaymentUseCase) Pay(ctx context.Context, invoiceID string, mpPayload json.RawMessage) (entities.InvoicePayment, entities.Invoice, error) {
	log.Printf("[payment][usecase] pay start raw_invoice_id=%q payload_len=%d", invoiceID, len(mpPayload))
	mockMode := isPaymentGatewayMockEnabled()
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return entities.InvoicePayment{}, entities.Invoice{}, ErrInvalidID
	}
	if len(mpPayload) == 0 || !json.Valid(mpPayload) {
		if !mockMode {
			log.Printf("[payment][usecase] invalid payload invoice_id=%s", invoiceID)
			return entities.InvoicePayment{}, entities.Invoice{}, ErrInvalidMPPayload
		}
		mpPayload = json.RawMessage("{}")
	}
	if u.gateway == nil && !mockMode {
		log.Printf("[payment][usecase] gateway not configured invoice_id=%s", invoiceID)
		return entities.InvoicePayment{}, entities.Invoice{}, ErrPaymentGatewayNotConfigured
	}

	inv, err := u.payableInvoice(ctx, invoiceID)
	if err != nil {
		return entities.InvoicePayment{}, entities.Invoice{}, err
	}
	amount := inv.Totals.WithTax
	log.Printf("[payment][usecase] invoice loaded invoice_id=%s number=%s amount=%s", inv.ID, inv.Number, amount)

	var reqMap map[string]any
	if err := json.Unmarshal(mpPayload, &reqMap); err != nil || reqMap == nil {
		if !mockMode {
			return entities.InvoicePayment{}, entities.Invoice{}, ErrInvalidMPPayload
		}
		reqMap = map[string]any{}
	}
	if !mockMode {
		if !hasNonEmptyString(reqMap, "payment_method_id") {
			log.Printf("[payment][usecase] missing payment_method_id invoice_id=%s", inv.ID)
			return entities.InvoicePayment{}, entities.Invoice{}, ErrInvalidMPPayload
		}
		normalizeSandboxPayerFromUserID(reqMap)
		ensurePayerDefaults(reqMap)
		if !hasPayer(reqMap) {
			log.Printf("[payment][usecase] missing/invalid payer invoice_id=%s", inv.ID)
			return entities.InvoicePayment{}, entities.Invoice{}, ErrInvalidMPPayload
		}
	}
	if _, ok := reqMap["external_reference"]; !ok {
		reqMap["external_reference"] = inv.ID
	}
	if _, ok := reqMap["description"]; !ok {
		reqMap["description"] = fmt.Sprintf("Fatura %s", inv.Number)
	}
	// The invoice total is the only source of the amount; a json.Number keeps it exact.
	reqMap["transaction_amount"] = json.Number(amount.String())
	enriched, err := json.Marshal(reqMap)
	if err != nil {
		return entities.InvoicePayment{}, entities.Invoice{}, err
	}

	// Only the claim holder may charge. It is kept once money may have moved, so a second
	// caller cannot charge the invoice again while it is still Emitted.
	claim := entities.PaymentClaim{InvoiceID: inv.ID, OwnerID: u.newID(), ClaimedAt: u.now()}
	claim.ExpiresAt = claim.ClaimedAt.Add(paymentClaimTTL)
	if err := u.repo.Claim(ctx, claim); err != nil {
		log.Printf("[payment][usecase] claim refused invoice_id=%s err=%v", inv.ID, err)
		return entities.InvoicePayment{}, entities.Invoice{}, err
	}
	release := func() {
		if err := u.repo.ReleaseClaim(context.WithoutCancel(ctx), claim.InvoiceID, claim.OwnerID); err != nil {
			log.Printf("[payment][usecase] claim release failed invoice_id=%s err=%v", claim.InvoiceID, err)
		}
	}
	// The invoice may have been paid between the first read and the claim.
	if _, err := u.payableInvoice(ctx, inv.ID); err != nil {
		release()
		return entities.InvoicePayment{}, entities.Invoice{}, err
	}
	prior, err := storeCall(ctx, u.settings, func(ctx context.Context) ([]entities.InvoicePayment, error) {
		return u.repo.ListByInvoiceID(ctx, inv.ID)
	})
	if err != nil {
		release()
		return entities.InvoicePayment{}, entities.Invoice{}, err
	}
	key := paymentIdempotencyKey(inv.ID, len(prior)+1)

	var providerPaymentID, providerStatus string
	var providerResp json.RawMessage
	if mockMode {
		log.Printf("[payment][usecase] mock mode enabled; skipping external payment gateway invoice_id=%s", inv.ID)
		providerPaymentID, providerStatus, providerResp, err = mockProviderResponse(reqMap, u.now())
		if err != nil {
			release()
			return entities.InvoicePayment{}, entities.Invoice{}, err
		}
	} else {
		log.Printf("[payment][usecase] calling payment gateway invoice_id=%s idempotency_key=%s", inv.ID, key)
		providerPaymentID, providerStatus, providerResp, err = u.gateway.CreatePayment(ctx, key, enriched)
		if err != nil {
			// A repeated attempt reuses key, so a charge that did go through is not repeated.
			release()
			log.Printf("[payment][usecase] payment gateway failed invoice_id=%s err=%v", inv.ID, err)
			return entities.InvoicePayment{}, entities.Invoice{}, mapGatewayError(err)
		}
	}
	log.Printf("[payment][usecase] payment gateway answered invoice_id=%s provider_payment_id=%s provider_status=%s", inv.ID, providerPaymentID, providerStatus)

	var parsed map[string]interface{}
	if err := json.Unmarshal(providerResp, &parsed); err != nil {
		log.Printf("[payment][usecase] provider response unmarshal failed invoice_id=%s err=%v", inv.ID, err)
	}
	if strings.TrimSpace(providerPaymentID) == "" {
		providerPaymentID = u.newID()
	}
	p := entities.InvoicePayment{
		ID:                 providerPaymentID,
		InvoiceID:          inv.ID,
		Date:               u.now(),
		Status:             paymentStatusFromProvider(providerStatus),
		Amount:             amount,
		ProviderPayloadRaw: providerResp,
		ProviderPayload:    parsed,
	}
	created, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.InvoicePayment, error) {
		return u.repo.Create(ctx, p)
	})
	if err != nil {
		log.Printf("[payment][usecase] payment repository create failed invoice_id=%s payment_id=%s err=%v", inv.ID, p.ID, err)
		return entities.InvoicePayment{}, entities.Invoice{}, err
	}

	switch created.Status {
	case entities.PaymentStatusNegado:
		release()
		log.Printf("[payment][usecase] pay refused invoice_id=%s payment_id=%s", inv.ID, created.ID)
		return created, inv, nil
	case entities.PaymentStatusPendente:
		log.Printf("[payment][usecase] pay pending invoice_id=%s payment_id=%s", inv.ID, created.ID)
		return created, inv, nil
	}
	paid, err := u.invoices.MarkPaid(ctx, inv.ID)
	if err != nil {
		log.Printf("[payment][usecase] invoice not marked paid invoice_id=%s payment_id=%s err=%v", inv.ID, created.ID, err)
		return created, inv, err
	}
	log.Printf("[payment][usecase] pay success invoice_id=%s payment_id=%s", paid.ID, created.ID)
	return created, paid, nil
}

// payableInvoice loads the invoice and requires it to be Emitted.
func (u *InvoicePaymentUseCase) payableInvoice(ctx context.Context, id string) (entities.Invoice, error) {
	inv, err := u.invoices.GetByID(ctx, id)
	if err != nil {
		log.Printf("[payment][usecase] failed loading invoice invoice_id=%s err=%v", id, err)
		return entities.Invoice{}, err
	}
	if inv.Status != entities.InvoiceStatusEmitted {
		log.Printf("[payment][usecase] invoice not payable invoice_id=%s status=%s", inv.ID, inv.Status)
		return entities.Invoice{}, ErrInvoiceNotPayable
	}
	return inv, nil
}

// paymentIdempotencyKey names the attempt-th charge of an invoice. Attempts are counted
// from the stored payments, so a retry after a lost answer sends the same key.
func paymentIdempotencyKey(invoiceID string, attempt int) string {
	return fmt.Sprintf("invoice-%s-%d", invoiceID, attempt)
}

func (u *InvoicePaymentUseCase) GetByID(ctx context.Context, id string) (entities.InvoicePayment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.InvoicePayment{}, ErrInvalidID
	}
	p, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.InvoicePayment, error) {
		return u.repo.GetByID(ctx, id)
	})
	if err != nil {
		return entities.InvoicePayment{}, err
	}
	if p.ID == "" {
		return entities.InvoicePayment{}, ErrInvoicePaymentNotFound
	}
	return p, nil
}

func (u *InvoicePaymentUseCase) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.InvoicePayment, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, ErrInvalidID
	}
	return storeCall(ctx, u.settings, func(ctx context.Context) ([]entities.InvoicePayment, error) {
		return u.repo.ListByInvoiceID(ctx, invoiceID)
	})
}

func paymentStatusFromProvider(status string) entities.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved", "authorized":
		return entities.PaymentStatusAprovado
	case "rejected", "cancelled", "refunded", "charged_back":
		return entities.PaymentStatusNegado
	}
	return entities.PaymentStatusPendente
}

func mockProviderResponse(req map[string]any, now time.Time) (string, string, json.RawMessage, error) {
	id := strconv.FormatInt(now.UnixNano(), 10)
	stamp := now.Format(time.RFC3339Nano)
	resp := make(map[string]any, len(req)+5)
	for k, v := range req {
		resp[k] = v
	}
	resp["id"] = id
	resp["status"] = "approved"
	resp["status_detail"] = "accredited"
	resp["date_created"] = stamp
	resp["date_approved"] = stamp
	b, err := json.Marshal(resp)
	if err != nil {
		return "", "", nil, err
	}
	return id, "approved", b, nil
}

func mapGatewayError(err error) error {
	switch {
	case isGatewayCustomerNotFound(err):
		return ErrPaymentGatewayCustomerNotFound
	case isGatewayInvalidUsers(err):
		return ErrPaymentGatewayInvalidUsers
	case isGatewayUnauthorized(err):
		return ErrPaymentGatewayUnauthorized
	case isGatewayBadRequest(err):
		return ErrPaymentGatewayBadRequest
	}
	return err
}

func hasNonEmptyString(m map[string]any, key string) bool {
	s, ok := m[key].(string)
	return ok && strings.TrimSpace(s) != ""
}

func hasPayer(m map[string]any) bool {
	payer, ok := m["payer"].(map[string]any)
	if !ok {
		return false
	}
	return hasNonEmptyString(payer, "email") || hasPayerID(payer)
}

func hasPayerID(payer map[string]any) bool {
	v, ok := payer["id"]
	if !ok || v == nil {
		return false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	return s != "" && s != "<nil>"
}

func ensurePayerDefaults(m map[string]any) {
	if v, ok := m["payer"]; !ok || v == nil {
		m["payer"] = map[string]any{}
	}
	payer, ok := m["payer"].(map[string]any)
	if !ok {
		return
	}
	if _, ok := payer["type"]; !ok {
		payer["type"] = "customer"
	}
	// In sandbox either payer.id or payer.email may be used; fill email only when both are missing.
	if !hasPayerID(payer) && !hasNonEmptyString(payer, "email") {
		if email := strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_EMAIL")); email != "" {
			payer["email"] = email
		} else if strings.HasPrefix(strings.TrimSpace(os.Getenv("MERCADOPAGO_ACCESS_TOKEN")), "TEST-") {
			payer["email"] = "test_user_br@testuser.com"
		}
	}
}

// normalizeSandboxPayerFromUserID swaps the configured sandbox payer user id for its email,
// which is what the sandbox accepts.
func normalizeSandboxPayerFromUserID(m map[string]any) {
	payer, ok := m["payer"].(map[string]any)
	if !ok || !hasPayerID(payer) || hasNonEmptyString(payer, "email") {
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(os.Getenv("MERCADOPAGO_ACCESS_TOKEN")), "TEST-") {
		return
	}
	configuredUserID := strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_USER_ID"))
	configuredEmail := strings.TrimSpace(os.Getenv("MERCADOPAGO_TEST_PAYER_EMAIL"))
	if configuredUserID == "" || configuredEmail == "" {
		return
	}
	if strings.TrimSpace(fmt.Sprintf("%v", payer["id"])) != configuredUserID {
		return
	}
	payer["email"] = configuredEmail
	delete(payer, "id")
	log.Printf("[payment][usecase] mapped sandbox payer user_id to payer.email")
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

func gatewayErrorContains(err error, needles ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}

func isGatewayBadRequest(err error) bool {
	return gatewayErrorContains(err, `"error":"bad_request"`, `"status":400`)
}

func isGatewayUnauthorized(err error) bool {
	return gatewayErrorContains(err, `"error":"unauthorized"`, `"status":401`)
}

func isGatewayInvalidUsers(err error) bool {
	return gatewayErrorContains(err, "invalid users involved", `"code":2034`)
}

func isGatewayCustomerNotFound(err error) bool {
	return gatewayErrorContains(err, "customer not found", `"code":2002`)
}
