package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mecanica_oficina/internal/adapter/persistence/memory"
	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// steppingClock advances one second per reading.
func steppingClock(start time.Time) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

type fixture struct {
	store    *memory.Store
	client   entities.Client
	vehicle  entities.Vehicle
	catalog  *CatalogUseCase
	orders   *WorkOrderUseCase
	invoices *InvoiceUseCase
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newWrappedFixture(t, nil, opts...)
}

// newWrappedFixture builds the use cases over a memory store. wrap, when set, decorates the
// work order repository seen by both use cases.
func newWrappedFixture(t *testing.T, wrap func(interfaces.IWorkOrderRepository) interfaces.IWorkOrderRepository, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	var orders interfaces.IWorkOrderRepository = store.WorkOrders()
	if wrap != nil {
		orders = wrap(orders)
	}
	opts = append([]Option{WithClock(steppingClock(t0))}, opts...)

	catalog, err := NewCatalogUseCase(store.Clients(), store.Vehicles(), opts...)
	require.NoError(t, err)
	wo, err := NewWorkOrderUseCase(orders, store.Clients(), store.Vehicles(), store.Sequences(), opts...)
	require.NoError(t, err)
	inv, err := NewInvoiceUseCase(store.Invoices(), orders, store.Clients(), store.Vehicles(), store.Sequences(), nil, opts...)
	require.NoError(t, err)

	ctx := context.Background()
	client, err := catalog.CreateClient(ctx, entities.Client{
		Name:    "Ana Ferreira",
		NIF:     "123456789",
		Phone:   "+351910000000",
		Address: &entities.Address{Street: "Rua Direita 1", City: "Porto", ZipCode: "4000-001"},
	})
	require.NoError(t, err)
	vehicle, err := catalog.CreateVehicle(ctx, entities.Vehicle{
		ClientID:     client.ID,
		LicensePlate: "aa-00-bb",
		Brand:        "Renault",
		Model:        "Clio",
		Kilometers:   120000,
		VIN:          "VF1RFB00000000001",
	})
	require.NoError(t, err)

	return &fixture{store: store, client: client, vehicle: vehicle, catalog: catalog, orders: wo, invoices: inv}
}

func (f *fixture) checkIn(t *testing.T) entities.WorkOrder {
	t.Helper()
	w, err := f.orders.Create(context.Background(), CreateWorkOrderInput{
		ClientID:           f.client.ID,
		VehicleID:          f.vehicle.ID,
		CreatedByID:        "attendant-1",
		ClientObservations: "noise when braking",
	})
	require.NoError(t, err)
	return w
}

// completed drives a new order to Completed with a part and a labor line.
func (f *fixture) completed(t *testing.T) entities.WorkOrder {
	t.Helper()
	ctx := context.Background()
	w := f.checkIn(t)
	steps := []func() (entities.WorkOrder, error){
		func() (entities.WorkOrder, error) {
			return f.orders.RegisterDiagnostic(ctx, w.ID, "worn brake pads")
		},
		func() (entities.WorkOrder, error) {
			return f.orders.AddItem(ctx, w.ID, lineInput(entities.LineItemTypePart, "2", "10.00"))
		},
		func() (entities.WorkOrder, error) {
			return f.orders.AddItem(ctx, w.ID, lineInput(entities.LineItemTypeLabor, "1", "50.00"))
		},
		func() (entities.WorkOrder, error) { return f.orders.ApproveQuote(ctx, w.ID) },
		func() (entities.WorkOrder, error) { return f.orders.BeginExecution(ctx, w.ID) },
		func() (entities.WorkOrder, error) { return f.orders.Complete(ctx, w.ID) },
	}
	for _, step := range steps {
		var err error
		w, err = step()
		require.NoError(t, err)
	}
	return w
}

func lineInput(typ entities.LineItemType, qty, price string) entities.LineItemInput {
	return entities.LineItemInput{
		Type:                typ,
		Description:         string(typ) + " line",
		Quantity:            decimal.RequireFromString(qty),
		UnitPriceWithoutTax: money.MustParse(price),
		TaxRate:             decimal.RequireFromString("0.23"),
	}
}

// flakyWorkOrders fails Update with updateErr for the next failUpdates calls; a negative
// count fails every call.
type flakyWorkOrders struct {
	interfaces.IWorkOrderRepository
	mu          sync.Mutex
	failUpdates int
	updateErr   error
	updates     int
}

func (f *flakyWorkOrders) Update(ctx context.Context, w entities.WorkOrder, expectedVersion int64, releaseVehicle bool) (entities.WorkOrder, error) {
	f.mu.Lock()
	f.updates++
	if f.failUpdates != 0 {
		if f.failUpdates > 0 {
			f.failUpdates--
		}
		f.mu.Unlock()
		return entities.WorkOrder{}, f.updateErr
	}
	f.mu.Unlock()
	return f.IWorkOrderRepository.Update(ctx, w, expectedVersion, releaseVehicle)
}

// interleavedWorkOrders runs an armed hook once, ahead of the next Update it sees. The hook
// may itself write through the repository.
type interleavedWorkOrders struct {
	interfaces.IWorkOrderRepository
	mu     sync.Mutex
	before func()
}

func (r *interleavedWorkOrders) arm(fn func()) {
	r.mu.Lock()
	r.before = fn
	r.mu.Unlock()
}

func (r *interleavedWorkOrders) Update(ctx context.Context, w entities.WorkOrder, expectedVersion int64, releaseVehicle bool) (entities.WorkOrder, error) {
	r.mu.Lock()
	fn := r.before
	r.before = nil
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
	return r.IWorkOrderRepository.Update(ctx, w, expectedVersion, releaseVehicle)
}

// hangingWorkOrders never answers GetByID before the call deadline.
type hangingWorkOrders struct {
	interfaces.IWorkOrderRepository
}

func (hangingWorkOrders) GetByID(ctx context.Context, _ string) (entities.WorkOrder, error) {
	<-ctx.Done()
	return entities.WorkOrder{}, ctx.Err()
}
