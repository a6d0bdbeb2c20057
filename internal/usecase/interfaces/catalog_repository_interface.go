package interfaces

//go:generate mockgen -source=catalog_repository_interface.go -destination=mocks/catalog_repository_interface_mock.go -package=mock_interfaces

import (
	"context"

	"mecanica_oficina/internal/domain/entities"
)

// IClientRepository persists clients. Create fails with entities.ErrDuplicateClient on a
// taken NIF.
type IClientRepository interface {
	Create(ctx context.Context, c entities.Client) (entities.Client, error)
	GetByID(ctx context.Context, id string) (entities.Client, error)
	Update(ctx context.Context, c entities.Client) (entities.Client, error)
}

// IVehicleRepository persists vehicles. Create fails with entities.ErrDuplicateVehicle on a
// taken license plate or VIN.
type IVehicleRepository interface {
	Create(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error)
	GetByID(ctx context.Context, id string) (entities.Vehicle, error)
	ListByClientID(ctx context.Context, clientID string) ([]entities.Vehicle, error)
	Update(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error)
}
