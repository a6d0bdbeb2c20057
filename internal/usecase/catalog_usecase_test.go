package usecase

import (
	"context"
	"testing"

	"mecanica_oficina/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUseCase_Clients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateClient(ctx, entities.Client{Name: "Other", NIF: " 123456789 ", Phone: "1"})
	assert.ErrorIs(t, err, entities.ErrDuplicateClient)

	_, err = f.catalog.CreateClient(ctx, entities.Client{Name: "  ", NIF: "1", Phone: "1"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	phone := "+351 220 000 000"
	updated, err := f.catalog.UpdateClient(ctx, f.client.ID, ClientChanges{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, f.client.Name, updated.Name)
	assert.Equal(t, f.client.NIF, updated.NIF)

	blank := ""
	_, err = f.catalog.UpdateClient(ctx, f.client.ID, ClientChanges{Name: &blank})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = f.catalog.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = f.catalog.UpdateClient(ctx, "missing", ClientChanges{Phone: &phone})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestCatalogUseCase_Vehicles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateVehicle(ctx, entities.Vehicle{
		ClientID: "missing", LicensePlate: "11-AA-22", Brand: "Fiat", Model: "Punto", VIN: "ZFA18800000000001",
	})
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.catalog.CreateVehicle(ctx, entities.Vehicle{
		ClientID: f.client.ID, LicensePlate: "AA-00-BB", Brand: "Fiat", Model: "Punto", VIN: "ZFA18800000000001",
	})
	assert.ErrorIs(t, err, entities.ErrDuplicateVehicle)

	_, err = f.catalog.CreateVehicle(ctx, entities.Vehicle{
		ClientID: f.client.ID, LicensePlate: "11-AA-22", Brand: "Fiat", Model: "Punto", VIN: "short",
	})
	assert.ErrorIs(t, err, entities.ErrValidation)

	second, err := f.catalog.CreateVehicle(ctx, entities.Vehicle{
		ClientID: f.client.ID, LicensePlate: "11-aa-22", Brand: "Fiat", Model: "Punto", VIN: "zfa18800000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, "11-AA-22", second.LicensePlate)
	assert.Equal(t, "ZFA18800000000001", second.VIN)

	list, err := f.catalog.ListVehiclesByClient(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "11-AA-22", list[0].LicensePlate)

	v, err := f.catalog.UpdateVehicleKilometers(ctx, f.vehicle.ID, 125000)
	require.NoError(t, err)
	assert.Equal(t, 125000, v.Kilometers)

	_, err = f.catalog.UpdateVehicleKilometers(ctx, f.vehicle.ID, 1000)
	assert.ErrorIs(t, err, entities.ErrValidation)

	got, err := f.catalog.GetVehicle(ctx, f.vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 125000, got.Kilometers)

	_, err = f.catalog.GetVehicle(ctx, "missing")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}
