package usecase

//go:generate mockgen -source=work_order_usecase.go -destination=../adapter/http/handlers/mocks/work_order_usecase_mock.go -package=mocks

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

// CreateWorkOrderInput is a vehicle check-in.
type CreateWorkOrderInput struct {
	ClientID           string
	VehicleID          string
	CreatedByID        string
	ClientObservations string
	MechanicIDs        []string
}

// IWorkOrderUseCase exposes the work order lifecycle.
//
// Every mutation is a read, a domain transition and a versioned write. A concurrent writer
// makes the write stale; the whole cycle is then repeated against the fresh copy.
type IWorkOrderUseCase interface {
	Create(ctx context.Context, in CreateWorkOrderInput) (entities.WorkOrder, error)
	GetByID(ctx context.Context, id string) (entities.WorkOrder, error)
	GetByNumber(ctx context.Context, number string) (entities.WorkOrder, error)
	ListByVehicleID(ctx context.Context, vehicleID string) ([]entities.WorkOrder, error)
	ListByStatus(ctx context.Context, status entities.WorkOrderStatus, limit int) ([]entities.WorkOrder, error)

	RegisterDiagnostic(ctx context.Context, id, diagnostic string) (entities.WorkOrder, error)
	ApproveQuote(ctx context.Context, id string) (entities.WorkOrder, error)
	DeclineQuote(ctx context.Context, id string) (entities.WorkOrder, error)
	BeginExecution(ctx context.Context, id string) (entities.WorkOrder, error)
	MarkAwaitingParts(ctx context.Context, id string) (entities.WorkOrder, error)
	Complete(ctx context.Context, id string) (entities.WorkOrder, error)
	Cancel(ctx context.Context, id string) (entities.WorkOrder, error)
	Deliver(ctx context.Context, id string) (entities.WorkOrder, error)

	UpdateQuoteObservations(ctx context.Context, id, observations string) (entities.WorkOrder, error)
	AssignMechanics(ctx context.Context, id string, mechanicIDs []string) (entities.WorkOrder, error)
	AddItem(ctx context.Context, id string, in entities.LineItemInput) (entities.WorkOrder, error)
	UpdateItem(ctx context.Context, id string, index int, in entities.LineItemInput) (entities.WorkOrder, error)
	RemoveItem(ctx context.Context, id string, index int) (entities.WorkOrder, error)
}

type WorkOrderUseCase struct {
	writer    workOrderWriter
	clients   interfaces.IClientRepository
	vehicles  interfaces.IVehicleRepository
	allocator interfaces.ISequenceAllocator
	settings
}

var _ IWorkOrderUseCase = (*WorkOrderUseCase)(nil)

func NewWorkOrderUseCase(
	repo interfaces.IWorkOrderRepository,
	clients interfaces.IClientRepository,
	vehicles interfaces.IVehicleRepository,
	allocator interfaces.ISequenceAllocator,
	opts ...Option,
) (*WorkOrderUseCase, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &WorkOrderUseCase{
		writer:    workOrderWriter{repo: repo, settings: s},
		clients:   clients,
		vehicles:  vehicles,
		allocator: allocator,
		settings:  s,
	}, nil
}

func (u *WorkOrderUseCase) Create(ctx context.Context, in CreateWorkOrderInput) (entities.WorkOrder, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	in.CreatedByID = strings.TrimSpace(in.CreatedByID)
	log.Printf("[workorder][usecase] create start client_id=%s vehicle_id=%s", in.ClientID, in.VehicleID)
	for _, f := range []struct{ field, value string }{
		{"clientId", in.ClientID},
		{"vehicleId", in.VehicleID},
		{"createdById", in.CreatedByID},
	} {
		if f.value == "" {
			return entities.WorkOrder{}, &entities.ValidationError{Field: f.field, Reason: "must not be empty"}
		}
	}

	client, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Client, error) {
		return u.clients.GetByID(ctx, in.ClientID)
	})
	if err != nil {
		return entities.WorkOrder{}, err
	}
	if client.ID == "" {
		return entities.WorkOrder{}, ErrClientNotFound
	}
	vehicle, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Vehicle, error) {
		return u.vehicles.GetByID(ctx, in.VehicleID)
	})
	if err != nil {
		return entities.WorkOrder{}, err
	}
	if vehicle.ID == "" {
		return entities.WorkOrder{}, ErrVehicleNotFound
	}
	if vehicle.ClientID != client.ID {
		return entities.WorkOrder{}, ErrVehicleNotOwned
	}

	var created entities.WorkOrder
	err = u.retry(ctx, "[workorder][usecase] create", func() error {
		now := u.now()
		number, err := storeCall(ctx, u.settings, func(ctx context.Context) (string, error) {
			return u.allocator.Next(ctx, entities.SequenceWorkOrder, now.Year())
		})
		if err != nil {
			return err
		}
		w, err := entities.NewWorkOrder(entities.NewWorkOrderParams{
			ID:                 u.newID(),
			Number:             number,
			ClientID:           client.ID,
			VehicleID:          vehicle.ID,
			CreatedByID:        in.CreatedByID,
			ClientObservations: in.ClientObservations,
			MechanicIDs:        in.MechanicIDs,
		}, now)
		if err != nil {
			return err
		}
		created, err = storeCall(ctx, u.settings, func(ctx context.Context) (entities.WorkOrder, error) {
			return u.writer.repo.Create(ctx, w)
		})
		return err
	})
	if err != nil {
		var conflict *entities.ActiveWorkOrderConflictError
		if errors.As(err, &conflict) {
			log.Printf("[workorder][usecase] create rejected vehicle_id=%s active_number=%s", conflict.VehicleID, conflict.ExistingWorkOrderNumber)
		} else {
			log.Printf("[workorder][usecase] create failed vehicle_id=%s err=%v", in.VehicleID, err)
		}
		return entities.WorkOrder{}, err
	}
	log.Printf("[workorder][usecase] create success id=%s number=%s", created.ID, created.Number)
	return created, nil
}

func (u *WorkOrderUseCase) GetByID(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.load(ctx, id)
}

func (u *WorkOrderUseCase) GetByNumber(ctx context.Context, number string) (entities.WorkOrder, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return entities.WorkOrder{}, ErrInvalidID
	}
	w, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.WorkOrder, error) {
		return u.writer.repo.GetByNumber(ctx, number)
	})
	if err != nil {
		return entities.WorkOrder{}, err
	}
	if w.ID == "" {
		return entities.WorkOrder{}, ErrWorkOrderNotFound
	}
	return w, nil
}

func (u *WorkOrderUseCase) ListByVehicleID(ctx context.Context, vehicleID string) ([]entities.WorkOrder, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return nil, ErrInvalidID
	}
	return storeCall(ctx, u.settings, func(ctx context.Context) ([]entities.WorkOrder, error) {
		return u.writer.repo.ListByVehicleID(ctx, vehicleID)
	})
}

// ListByStatus returns up to limit orders in status, oldest entry first. limit <= 0 lists all.
func (u *WorkOrderUseCase) ListByStatus(ctx context.Context, status entities.WorkOrderStatus, limit int) ([]entities.WorkOrder, error) {
	if !status.Valid() {
		return nil, &entities.ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	return storeCall(ctx, u.settings, func(ctx context.Context) ([]entities.WorkOrder, error) {
		return u.writer.repo.ListByStatus(ctx, status, limit)
	})
}

func (u *WorkOrderUseCase) RegisterDiagnostic(ctx context.Context, id, diagnostic string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionRegisterDiagnostic, func(w *entities.WorkOrder, now time.Time) error {
		return w.RegisterDiagnostic(diagnostic, now)
	})
}

func (u *WorkOrderUseCase) ApproveQuote(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionApproveQuote, (*entities.WorkOrder).ApproveQuote)
}

func (u *WorkOrderUseCase) DeclineQuote(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionDeclineQuote, (*entities.WorkOrder).DeclineQuote)
}

func (u *WorkOrderUseCase) BeginExecution(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionBeginExecution, (*entities.WorkOrder).BeginExecution)
}

func (u *WorkOrderUseCase) MarkAwaitingParts(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionMarkAwaitingParts, (*entities.WorkOrder).MarkAwaitingParts)
}

func (u *WorkOrderUseCase) Complete(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionComplete, (*entities.WorkOrder).Complete)
}

func (u *WorkOrderUseCase) Cancel(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionCancel, (*entities.WorkOrder).Cancel)
}

func (u *WorkOrderUseCase) Deliver(ctx context.Context, id string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionDeliver, (*entities.WorkOrder).Deliver)
}

func (u *WorkOrderUseCase) UpdateQuoteObservations(ctx context.Context, id, observations string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionEditQuote, func(w *entities.WorkOrder, now time.Time) error {
		return w.UpdateQuoteObservations(observations, now)
	})
}

func (u *WorkOrderUseCase) AssignMechanics(ctx context.Context, id string, mechanicIDs []string) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionAssignMechanics, func(w *entities.WorkOrder, now time.Time) error {
		return w.AssignMechanics(mechanicIDs, now)
	})
}

func (u *WorkOrderUseCase) AddItem(ctx context.Context, id string, in entities.LineItemInput) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionEditItems, func(w *entities.WorkOrder, now time.Time) error {
		return w.AddItem(in, now)
	})
}

func (u *WorkOrderUseCase) UpdateItem(ctx context.Context, id string, index int, in entities.LineItemInput) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionEditItems, func(w *entities.WorkOrder, now time.Time) error {
		return w.UpdateItem(index, in, now)
	})
}

func (u *WorkOrderUseCase) RemoveItem(ctx context.Context, id string, index int) (entities.WorkOrder, error) {
	return u.writer.mutate(ctx, id, entities.TransitionEditItems, func(w *entities.WorkOrder, now time.Time) error {
		return w.RemoveItem(index, now)
	})
}

// workOrderWriter is the versioned read-modify-write loop shared by the work order and
// invoice use cases.
type workOrderWriter struct {
	repo interfaces.IWorkOrderRepository
	settings
}

func (w workOrderWriter) load(ctx context.Context, id string) (entities.WorkOrder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.WorkOrder{}, ErrInvalidID
	}
	wo, err := storeCall(ctx, w.settings, func(ctx context.Context) (entities.WorkOrder, error) {
		return w.repo.GetByID(ctx, id)
	})
	if err != nil {
		return entities.WorkOrder{}, err
	}
	if wo.ID == "" {
		return entities.WorkOrder{}, ErrWorkOrderNotFound
	}
	return wo, nil
}

// mutate applies fn to a fresh copy of the order and writes it back if nobody wrote in
// between. The vehicle's active marker is released in the same write when fn moves the order
// out of the active statuses.
func (w workOrderWriter) mutate(ctx context.Context, id string, t entities.Transition, fn func(*entities.WorkOrder, time.Time) error) (entities.WorkOrder, error) {
	var saved entities.WorkOrder
	err := w.retry(ctx, "[workorder][usecase] "+string(t), func() error {
		current, err := w.load(ctx, id)
		if err != nil {
			return err
		}
		next := current.Clone()
		if err := fn(&next, w.now()); err != nil {
			return err
		}
		release := current.IsActive && !next.IsActive
		saved, err = storeCall(ctx, w.settings, func(ctx context.Context) (entities.WorkOrder, error) {
			return w.repo.Update(ctx, next, current.Version, release)
		})
		return err
	})
	if err != nil {
		log.Printf("[workorder][usecase] %s failed id=%s err=%v", t, id, err)
		return entities.WorkOrder{}, err
	}
	log.Printf("[workorder][usecase] %s success id=%s status=%s version=%d", t, saved.ID, saved.Status, saved.Version)
	return saved, nil
}
