package memory

import (
	"context"
	"fmt"
	"sort"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

type WorkOrderRepository struct {
	s *Store
}

var _ interfaces.IWorkOrderRepository = (*WorkOrderRepository)(nil)

func (r *WorkOrderRepository) Create(ctx context.Context, w entities.WorkOrder) (entities.WorkOrder, error) {
	if err := alive(ctx); err != nil {
		return entities.WorkOrder{}, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workOrders[w.ID]; ok {
		return entities.WorkOrder{}, fmt.Errorf("work order %s already exists", w.ID)
	}
	if _, ok := s.workOrderNumber[w.Number]; ok {
		return entities.WorkOrder{}, fmt.Errorf("work order number %s already taken: %w", w.Number, entities.ErrAllocationConflict)
	}
	if w.IsActive {
		if ownerID, ok := s.activeVehicle[w.VehicleID]; ok {
			return entities.WorkOrder{}, &entities.ActiveWorkOrderConflictError{
				VehicleID:               w.VehicleID,
				ExistingWorkOrderID:     ownerID,
				ExistingWorkOrderNumber: s.workOrders[ownerID].Number,
			}
		}
		s.activeVehicle[w.VehicleID] = w.ID
	}
	w.Version = 1
	s.workOrders[w.ID] = w.Clone()
	s.workOrderNumber[w.Number] = w.ID
	return w, nil
}

func (r *WorkOrderRepository) GetByID(ctx context.Context, id string) (entities.WorkOrder, error) {
	if err := alive(ctx); err != nil {
		return entities.WorkOrder{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.workOrders[id]
	if !ok {
		return entities.WorkOrder{}, nil
	}
	return w.Clone(), nil
}

func (r *WorkOrderRepository) GetByNumber(ctx context.Context, number string) (entities.WorkOrder, error) {
	if err := alive(ctx); err != nil {
		return entities.WorkOrder{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.workOrderNumber[number]
	if !ok {
		return entities.WorkOrder{}, nil
	}
	return r.s.workOrders[id].Clone(), nil
}

func (r *WorkOrderRepository) ListByVehicleID(ctx context.Context, vehicleID string) ([]entities.WorkOrder, error) {
	return r.list(ctx, 0, func(w entities.WorkOrder) bool { return w.VehicleID == vehicleID })
}

func (r *WorkOrderRepository) ListByStatus(ctx context.Context, status entities.WorkOrderStatus, limit int) ([]entities.WorkOrder, error) {
	return r.list(ctx, limit, func(w entities.WorkOrder) bool { return w.Status == status })
}

// list returns the matching orders oldest entry first, as the status index orders them.
func (r *WorkOrderRepository) list(ctx context.Context, limit int, match func(entities.WorkOrder) bool) ([]entities.WorkOrder, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entities.WorkOrder, 0)
	for _, w := range r.s.workOrders {
		if match(w) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timeline.EntryDate.Equal(out[j].Timeline.EntryDate) {
			return out[i].Timeline.EntryDate.Before(out[j].Timeline.EntryDate)
		}
		return out[i].Number < out[j].Number
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *WorkOrderRepository) Update(ctx context.Context, w entities.WorkOrder, expectedVersion int64, releaseVehicle bool) (entities.WorkOrder, error) {
	if err := alive(ctx); err != nil {
		return entities.WorkOrder{}, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.workOrders[w.ID]
	if !ok || stored.Version != expectedVersion {
		return entities.WorkOrder{}, fmt.Errorf("work order %s at version %d: %w", w.ID, expectedVersion, entities.ErrStaleWrite)
	}
	if releaseVehicle {
		if ownerID, held := s.activeVehicle[w.VehicleID]; held && ownerID != w.ID {
			return entities.WorkOrder{}, fmt.Errorf("active marker of vehicle %s is held by %s: %w", w.VehicleID, ownerID, entities.ErrStaleWrite)
		}
		delete(s.activeVehicle, w.VehicleID)
	}
	w.Version = expectedVersion + 1
	s.workOrders[w.ID] = w.Clone()
	return w, nil
}
