package memory

import (
	"context"
	"fmt"
	"sort"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

type InvoiceRepository struct {
	s *Store
}

var _ interfaces.IInvoiceRepository = (*InvoiceRepository)(nil)

func (r *InvoiceRepository) Create(ctx context.Context, inv entities.Invoice) (entities.Invoice, error) {
	if err := alive(ctx); err != nil {
		return entities.Invoice{}, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.invoiceWorkOrder[inv.WorkOrderID]; ok {
		return entities.Invoice{}, fmt.Errorf("work order %s has invoice %s: %w", inv.WorkOrderID, existing, entities.ErrDuplicateInvoice)
	}
	if _, ok := s.invoiceNumber[inv.Number]; ok {
		return entities.Invoice{}, fmt.Errorf("invoice number %s already taken: %w", inv.Number, entities.ErrAllocationConflict)
	}
	if _, ok := s.invoices[inv.ID]; ok {
		return entities.Invoice{}, fmt.Errorf("invoice %s already exists: %w", inv.ID, entities.ErrDuplicateInvoice)
	}
	s.invoices[inv.ID] = inv.Clone()
	s.invoiceWorkOrder[inv.WorkOrderID] = inv.ID
	s.invoiceNumber[inv.Number] = inv.ID
	s.invoicePending[inv.ID] = struct{}{}
	return inv, nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	if err := alive(ctx); err != nil {
		return entities.Invoice{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.get(id), nil
}

func (r *InvoiceRepository) GetByNumber(ctx context.Context, number string) (entities.Invoice, error) {
	if err := alive(ctx); err != nil {
		return entities.Invoice{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.get(r.s.invoiceNumber[number]), nil
}

func (r *InvoiceRepository) GetByWorkOrderID(ctx context.Context, workOrderID string) (entities.Invoice, error) {
	if err := alive(ctx); err != nil {
		return entities.Invoice{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.get(r.s.invoiceWorkOrder[workOrderID]), nil
}

func (r *InvoiceRepository) get(id string) entities.Invoice {
	inv, ok := r.s.invoices[id]
	if !ok {
		return entities.Invoice{}
	}
	return inv.Clone()
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, inv entities.Invoice, from entities.InvoiceStatus) (entities.Invoice, error) {
	if err := alive(ctx); err != nil {
		return entities.Invoice{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.invoices[inv.ID]
	if !ok || stored.Status != from {
		return entities.Invoice{}, fmt.Errorf("invoice %s not in status %s: %w", inv.ID, from, entities.ErrStaleWrite)
	}
	stored.Status = inv.Status
	stored.PaidAt = inv.PaidAt
	stored.CanceledAt = inv.CanceledAt
	stored.UpdatedAt = inv.UpdatedAt
	stored = stored.Clone()
	r.s.invoices[inv.ID] = stored
	return stored.Clone(), nil
}

func (r *InvoiceRepository) ListPendingLink(ctx context.Context, limit int) ([]entities.Invoice, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entities.Invoice, 0, len(r.s.invoicePending))
	for id := range r.s.invoicePending {
		out = append(out, r.get(id))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InvoiceRepository) ClearPendingLink(ctx context.Context, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.invoicePending, id)
	return nil
}
