package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotParams(t *testing.T, wo WorkOrder) InvoiceSnapshotParams {
	t.Helper()
	return InvoiceSnapshotParams{
		ID:          "inv-1",
		Number:      "FT 2025/1",
		EmittedByID: "user-2",
		WorkOrder:   wo,
		Client: Client{
			ID:      wo.ClientID,
			Name:    "Ana Silva",
			NIF:     "123456789",
			Address: &Address{Street: "Rua A 1", City: "Lisboa", ZipCode: "1000-001"},
		},
		Vehicle: Vehicle{ID: wo.VehicleID, LicensePlate: "AA-00-BB", Brand: "Seat", Model: "Ibiza"},
	}
}

func TestNewInvoiceSnapshot(t *testing.T) {
	wo := orderIn(t, WorkOrderStatusCompleted)
	at := t0.Add(24 * time.Hour)

	inv, err := NewInvoiceSnapshot(snapshotParams(t, wo), at)
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusEmitted, inv.Status)
	assert.Equal(t, at, inv.InvoiceDate)
	assert.Equal(t, wo.ID, inv.WorkOrderID)
	assert.Equal(t, wo.Number, inv.WorkOrderNumber)
	assert.Equal(t, "Ana Silva", inv.ClientDetails.Name)
	assert.Equal(t, "Lisboa", inv.ClientDetails.Address.City)
	assert.Equal(t, "AA-00-BB", inv.VehicleDetails.LicensePlate)
	assert.Equal(t, wo.Totals, inv.Totals)
	require.Len(t, inv.Items, len(wo.Items))
}

func TestNewInvoiceSnapshot_IsIndependentOfSources(t *testing.T) {
	wo := orderIn(t, WorkOrderStatusCompleted)
	p := snapshotParams(t, wo)
	inv, err := NewInvoiceSnapshot(p, t0.Add(24*time.Hour))
	require.NoError(t, err)

	p.Client.Name = "Renamed"
	p.Client.Address.City = "Porto"
	p.Vehicle.LicensePlate = "ZZ-99-ZZ"
	wo.Items[0].Description = "edited"

	assert.Equal(t, "Ana Silva", inv.ClientDetails.Name)
	assert.Equal(t, "Lisboa", inv.ClientDetails.Address.City)
	assert.Equal(t, "AA-00-BB", inv.VehicleDetails.LicensePlate)
	assert.Equal(t, "Pastilhas", inv.Items[0].Description)
}

func TestNewInvoiceSnapshot_Preconditions(t *testing.T) {
	t.Run("work order not completed", func(t *testing.T) {
		wo := orderIn(t, WorkOrderStatusInProgress)
		_, err := NewInvoiceSnapshot(snapshotParams(t, wo), t0)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("already invoiced", func(t *testing.T) {
		wo := orderIn(t, WorkOrderStatusInvoiced)
		_, err := NewInvoiceSnapshot(snapshotParams(t, wo), t0)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("client of another order", func(t *testing.T) {
		wo := orderIn(t, WorkOrderStatusCompleted)
		p := snapshotParams(t, wo)
		p.Client.ID = "someone-else"
		_, err := NewInvoiceSnapshot(p, t0)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing issuer", func(t *testing.T) {
		wo := orderIn(t, WorkOrderStatusCompleted)
		p := snapshotParams(t, wo)
		p.EmittedByID = " "
		_, err := NewInvoiceSnapshot(p, t0)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestInvoice_StatusChanges(t *testing.T) {
	wo := orderIn(t, WorkOrderStatusCompleted)
	inv, err := NewInvoiceSnapshot(snapshotParams(t, wo), t0)
	require.NoError(t, err)

	paid := inv.Clone()
	require.NoError(t, paid.MarkPaid(t0.Add(time.Hour)))
	assert.Equal(t, InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.ErrorIs(t, paid.Cancel(t0.Add(2*time.Hour)), ErrInvalidTransition)
	assert.Equal(t, InvoiceStatusEmitted, inv.Status)

	canceled := inv.Clone()
	require.NoError(t, canceled.Cancel(t0.Add(time.Hour)))
	assert.Equal(t, InvoiceStatusCanceled, canceled.Status)
	require.ErrorIs(t, canceled.MarkPaid(t0.Add(2*time.Hour)), ErrInvalidTransition)
}

func TestSequenceKind_Format(t *testing.T) {
	assert.Equal(t, "2025-0007", SequenceWorkOrder.Format(2025, 7))
	assert.Equal(t, "2025-12345", SequenceWorkOrder.Format(2025, 12345))
	assert.Equal(t, "FT 2025/7", SequenceInvoice.Format(2025, 7))
	assert.Equal(t, "invoice#2025", SequenceInvoice.Key(2025))
}
