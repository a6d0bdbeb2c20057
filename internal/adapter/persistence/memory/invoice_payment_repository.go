package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

type InvoicePaymentRepository struct {
	s *Store
}

var _ interfaces.IInvoicePaymentRepository = (*InvoicePaymentRepository)(nil)

func (r *InvoicePaymentRepository) Create(ctx context.Context, p entities.InvoicePayment) (entities.InvoicePayment, error) {
	if err := alive(ctx); err != nil {
		return entities.InvoicePayment{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.ID]; ok {
		return entities.InvoicePayment{}, fmt.Errorf("payment %s already exists", p.ID)
	}
	r.s.payments[p.ID] = clonePayment(p)
	return p, nil
}

func (r *InvoicePaymentRepository) GetByID(ctx context.Context, id string) (entities.InvoicePayment, error) {
	if err := alive(ctx); err != nil {
		return entities.InvoicePayment{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return entities.InvoicePayment{}, nil
	}
	return clonePayment(p), nil
}

func (r *InvoicePaymentRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.InvoicePayment, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entities.InvoicePayment, 0)
	for _, p := range r.s.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *InvoicePaymentRepository) Claim(ctx context.Context, c entities.PaymentClaim) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if held, ok := r.s.paymentClaims[c.InvoiceID]; ok && held.OwnerID != c.OwnerID && held.ExpiresAt.After(c.ClaimedAt) {
		return fmt.Errorf("invoice %s claimed by %s: %w", c.InvoiceID, held.OwnerID, entities.ErrPaymentInProgress)
	}
	r.s.paymentClaims[c.InvoiceID] = c
	return nil
}

func (r *InvoicePaymentRepository) ReleaseClaim(ctx context.Context, invoiceID, ownerID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if held, ok := r.s.paymentClaims[invoiceID]; ok && held.OwnerID == ownerID {
		delete(r.s.paymentClaims, invoiceID)
	}
	return nil
}

// clonePayment copies the raw payload; the parsed map is rebuilt from it.
func clonePayment(p entities.InvoicePayment) entities.InvoicePayment {
	if p.ProviderPayloadRaw != nil {
		p.ProviderPayloadRaw = append(json.RawMessage(nil), p.ProviderPayloadRaw...)
		var parsed map[string]interface{}
		if err := json.Unmarshal(p.ProviderPayloadRaw, &parsed); err == nil {
			p.ProviderPayload = parsed
		}
	}
	return p
}
