package interfaces

//go:generate mockgen -source=work_order_repository_interface.go -destination=mocks/work_order_repository_interface_mock.go -package=mock_interfaces

import (
	"context"

	"mecanica_oficina/internal/domain/entities"
)

// IWorkOrderRepository abstracts persistence for the WorkOrder aggregate.
//
// The store owns the cross-document rules:
//   - Create inserts the order, its number marker and, while the order is active, the
//     vehicle's active marker in one atomic write. A held marker fails the whole write with
//     *entities.ActiveWorkOrderConflictError.
//   - Update is a check-and-set on Version: it succeeds only when the stored version equals
//     expectedVersion and stores expectedVersion+1. Any mismatch is entities.ErrStaleWrite.
//     releaseVehicle drops the vehicle's active marker in the same write; callers set it
//     only when the order leaves the active statuses.
//
// Lookups return a zero value when nothing matches.
type IWorkOrderRepository interface {
	Create(ctx context.Context, w entities.WorkOrder) (entities.WorkOrder, error)
	GetByID(ctx context.Context, id string) (entities.WorkOrder, error)
	GetByNumber(ctx context.Context, number string) (entities.WorkOrder, error)
	ListByVehicleID(ctx context.Context, vehicleID string) ([]entities.WorkOrder, error)
	ListByStatus(ctx context.Context, status entities.WorkOrderStatus, limit int) ([]entities.WorkOrder, error)
	Update(ctx context.Context, w entities.WorkOrder, expectedVersion int64, releaseVehicle bool) (entities.WorkOrder, error)
}
