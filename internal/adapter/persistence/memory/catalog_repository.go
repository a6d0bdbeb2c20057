package memory

import (
	"context"
	"fmt"
	"sort"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

type ClientRepository struct {
	s *Store
}

var _ interfaces.IClientRepository = (*ClientRepository)(nil)

func (r *ClientRepository) Create(ctx context.Context, c entities.Client) (entities.Client, error) {
	if err := alive(ctx); err != nil {
		return entities.Client{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clientNIF[c.NIF]; ok {
		return entities.Client{}, fmt.Errorf("nif %s: %w", c.NIF, entities.ErrDuplicateClient)
	}
	if _, ok := r.s.clients[c.ID]; ok {
		return entities.Client{}, fmt.Errorf("client %s already exists", c.ID)
	}
	r.s.clients[c.ID] = cloneClient(c)
	r.s.clientNIF[c.NIF] = c.ID
	return c, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (entities.Client, error) {
	if err := alive(ctx); err != nil {
		return entities.Client{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clients[id]
	if !ok {
		return entities.Client{}, nil
	}
	return cloneClient(c), nil
}

// Update rewrites an existing client. The NIF is part of the identity and is kept.
func (r *ClientRepository) Update(ctx context.Context, c entities.Client) (entities.Client, error) {
	if err := alive(ctx); err != nil {
		return entities.Client{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.clients[c.ID]
	if !ok {
		return entities.Client{}, nil
	}
	c.NIF = stored.NIF
	c.CreatedAt = stored.CreatedAt
	r.s.clients[c.ID] = cloneClient(c)
	return c, nil
}

func cloneClient(c entities.Client) entities.Client {
	if c.Address != nil {
		a := *c.Address
		c.Address = &a
	}
	return c
}

type VehicleRepository struct {
	s *Store
}

var _ interfaces.IVehicleRepository = (*VehicleRepository)(nil)

func (r *VehicleRepository) Create(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error) {
	if err := alive(ctx); err != nil {
		return entities.Vehicle{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.vehiclePlate[v.LicensePlate]; ok {
		return entities.Vehicle{}, fmt.Errorf("license plate %s: %w", v.LicensePlate, entities.ErrDuplicateVehicle)
	}
	if _, ok := r.s.vehicleVIN[v.VIN]; ok {
		return entities.Vehicle{}, fmt.Errorf("vin %s: %w", v.VIN, entities.ErrDuplicateVehicle)
	}
	if _, ok := r.s.vehicles[v.ID]; ok {
		return entities.Vehicle{}, fmt.Errorf("vehicle %s already exists", v.ID)
	}
	r.s.vehicles[v.ID] = v
	r.s.vehiclePlate[v.LicensePlate] = v.ID
	r.s.vehicleVIN[v.VIN] = v.ID
	return v, nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (entities.Vehicle, error) {
	if err := alive(ctx); err != nil {
		return entities.Vehicle{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.vehicles[id], nil
}

func (r *VehicleRepository) ListByClientID(ctx context.Context, clientID string) ([]entities.Vehicle, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entities.Vehicle, 0)
	for _, v := range r.s.vehicles {
		if v.ClientID == clientID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LicensePlate < out[j].LicensePlate })
	return out, nil
}

// Update rewrites an existing vehicle. Owner, plate and VIN are kept.
func (r *VehicleRepository) Update(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error) {
	if err := alive(ctx); err != nil {
		return entities.Vehicle{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.vehicles[v.ID]
	if !ok {
		return entities.Vehicle{}, nil
	}
	v.ClientID = stored.ClientID
	v.LicensePlate = stored.LicensePlate
	v.VIN = stored.VIN
	v.CreatedAt = stored.CreatedAt
	r.s.vehicles[v.ID] = v
	return v, nil
}
