package usecase

//go:generate mockgen -source=catalog_usecase.go -destination=../adapter/http/handlers/mocks/catalog_usecase_mock.go -package=mocks

import (
	"context"
	"log"
	"strings"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

// ClientChanges lists the editable client fields; nil leaves a field as is.
type ClientChanges struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *entities.Address
}

// ICatalogUseCase manages the clients and vehicles that work orders refer to.
type ICatalogUseCase interface {
	CreateClient(ctx context.Context, c entities.Client) (entities.Client, error)
	GetClient(ctx context.Context, id string) (entities.Client, error)
	UpdateClient(ctx context.Context, id string, changes ClientChanges) (entities.Client, error)
	CreateVehicle(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (entities.Vehicle, error)
	ListVehiclesByClient(ctx context.Context, clientID string) ([]entities.Vehicle, error)
	UpdateVehicleKilometers(ctx context.Context, id string, kilometers int) (entities.Vehicle, error)
}

type CatalogUseCase struct {
	clients  interfaces.IClientRepository
	vehicles interfaces.IVehicleRepository
	settings
}

var _ ICatalogUseCase = (*CatalogUseCase)(nil)

func NewCatalogUseCase(clients interfaces.IClientRepository, vehicles interfaces.IVehicleRepository, opts ...Option) (*CatalogUseCase, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &CatalogUseCase{clients: clients, vehicles: vehicles, settings: s}, nil
}

func (u *CatalogUseCase) CreateClient(ctx context.Context, c entities.Client) (entities.Client, error) {
	if err := c.Validate(); err != nil {
		return entities.Client{}, err
	}
	now := u.now()
	c.ID = u.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	created, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Client, error) {
		return u.clients.Create(ctx, c)
	})
	if err != nil {
		log.Printf("[catalog][usecase] create client failed nif=%s err=%v", c.NIF, err)
		return entities.Client{}, err
	}
	log.Printf("[catalog][usecase] create client success id=%s", created.ID)
	return created, nil
}

func (u *CatalogUseCase) GetClient(ctx context.Context, id string) (entities.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Client{}, ErrInvalidID
	}
	c, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Client, error) {
		return u.clients.GetByID(ctx, id)
	})
	if err != nil {
		return entities.Client{}, err
	}
	if c.ID == "" {
		return entities.Client{}, ErrClientNotFound
	}
	return c, nil
}

// UpdateClient edits the live client. Issued invoices keep the details they were emitted with.
func (u *CatalogUseCase) UpdateClient(ctx context.Context, id string, changes ClientChanges) (entities.Client, error) {
	c, err := u.GetClient(ctx, id)
	if err != nil {
		return entities.Client{}, err
	}
	if changes.Name != nil {
		c.Name = *changes.Name
	}
	if changes.Phone != nil {
		c.Phone = *changes.Phone
	}
	if changes.Email != nil {
		c.Email = *changes.Email
	}
	if changes.Address != nil {
		a := *changes.Address
		c.Address = &a
	}
	if err := c.Validate(); err != nil {
		return entities.Client{}, err
	}
	c.UpdatedAt = u.now()
	updated, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Client, error) {
		return u.clients.Update(ctx, c)
	})
	if err != nil {
		return entities.Client{}, err
	}
	if updated.ID == "" {
		return entities.Client{}, ErrClientNotFound
	}
	return updated, nil
}

func (u *CatalogUseCase) CreateVehicle(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return entities.Vehicle{}, err
	}
	if _, err := u.GetClient(ctx, v.ClientID); err != nil {
		return entities.Vehicle{}, err
	}
	now := u.now()
	v.ID = u.newID()
	v.CreatedAt, v.UpdatedAt = now, now
	created, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Vehicle, error) {
		return u.vehicles.Create(ctx, v)
	})
	if err != nil {
		log.Printf("[catalog][usecase] create vehicle failed plate=%s err=%v", v.LicensePlate, err)
		return entities.Vehicle{}, err
	}
	log.Printf("[catalog][usecase] create vehicle success id=%s client_id=%s", created.ID, created.ClientID)
	return created, nil
}

func (u *CatalogUseCase) GetVehicle(ctx context.Context, id string) (entities.Vehicle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Vehicle{}, ErrInvalidID
	}
	v, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Vehicle, error) {
		return u.vehicles.GetByID(ctx, id)
	})
	if err != nil {
		return entities.Vehicle{}, err
	}
	if v.ID == "" {
		return entities.Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

func (u *CatalogUseCase) ListVehiclesByClient(ctx context.Context, clientID string) ([]entities.Vehicle, error) {
	if _, err := u.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return storeCall(ctx, u.settings, func(ctx context.Context) ([]entities.Vehicle, error) {
		return u.vehicles.ListByClientID(ctx, strings.TrimSpace(clientID))
	})
}

// UpdateVehicleKilometers records a new odometer reading. Readings never go down.
func (u *CatalogUseCase) UpdateVehicleKilometers(ctx context.Context, id string, kilometers int) (entities.Vehicle, error) {
	v, err := u.GetVehicle(ctx, id)
	if err != nil {
		return entities.Vehicle{}, err
	}
	if kilometers < v.Kilometers {
		return entities.Vehicle{}, &entities.ValidationError{Field: "kilometers", Reason: "must not be lower than the current reading"}
	}
	v.Kilometers = kilometers
	v.UpdatedAt = u.now()
	updated, err := storeCall(ctx, u.settings, func(ctx context.Context) (entities.Vehicle, error) {
		return u.vehicles.Update(ctx, v)
	})
	if err != nil {
		return entities.Vehicle{}, err
	}
	if updated.ID == "" {
		return entities.Vehicle{}, ErrVehicleNotFound
	}
	return updated, nil
}
