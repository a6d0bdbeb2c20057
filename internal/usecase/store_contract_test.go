package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mecanica_oficina/internal/domain/entities"
	mock_interfaces "mecanica_oficina/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

type mockedStore struct {
	clients   *mock_interfaces.MockIClientRepository
	vehicles  *mock_interfaces.MockIVehicleRepository
	orders    *mock_interfaces.MockIWorkOrderRepository
	invoices  *mock_interfaces.MockIInvoiceRepository
	allocator *mock_interfaces.MockISequenceAllocator
}

func newMockedStore(t *testing.T) mockedStore {
	ctrl := gomock.NewController(t)
	return mockedStore{
		clients:   mock_interfaces.NewMockIClientRepository(ctrl),
		vehicles:  mock_interfaces.NewMockIVehicleRepository(ctrl),
		orders:    mock_interfaces.NewMockIWorkOrderRepository(ctrl),
		invoices:  mock_interfaces.NewMockIInvoiceRepository(ctrl),
		allocator: mock_interfaces.NewMockISequenceAllocator(ctrl),
	}
}

func openOrder(t *testing.T) entities.WorkOrder {
	t.Helper()
	w, err := entities.NewWorkOrder(entities.NewWorkOrderParams{
		ID:          "wo-1",
		Number:      "2025-0001",
		ClientID:    "c-1",
		VehicleID:   "v-1",
		CreatedByID: "clerk-1",
	}, t0)
	if err != nil {
		t.Fatalf("new work order: %v", err)
	}
	return w
}

func TestWorkOrderUseCase_Create_RetriesAllocationConflict(t *testing.T) {
	m := newMockedStore(t)
	uc, err := NewWorkOrderUseCase(m.orders, m.clients, m.vehicles, m.allocator, WithClock(steppingClock(t0)))
	if err != nil {
		t.Fatalf("new use case: %v", err)
	}

	m.clients.EXPECT().GetByID(gomock.Any(), "c-1").Return(entities.Client{ID: "c-1"}, nil)
	m.vehicles.EXPECT().GetByID(gomock.Any(), "v-1").Return(entities.Vehicle{ID: "v-1", ClientID: "c-1"}, nil)
	gomock.InOrder(
		m.allocator.EXPECT().Next(gomock.Any(), entities.SequenceWorkOrder, 2025).Return("2025-0001", nil),
		m.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.WorkOrder{}, fmt.Errorf("number taken: %w", entities.ErrAllocationConflict)),
		m.allocator.EXPECT().Next(gomock.Any(), entities.SequenceWorkOrder, 2025).Return("2025-0002", nil),
		m.orders.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, w entities.WorkOrder) (entities.WorkOrder, error) {
			return w, nil
		}),
	)

	w, err := uc.Create(context.Background(), CreateWorkOrderInput{ClientID: "c-1", VehicleID: "v-1", CreatedByID: "clerk-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Number != "2025-0002" {
		t.Fatalf("expected the second number, got %s", w.Number)
	}
}

func TestWorkOrderUseCase_Create_ActiveConflictIsNotRetried(t *testing.T) {
	m := newMockedStore(t)
	uc, _ := NewWorkOrderUseCase(m.orders, m.clients, m.vehicles, m.allocator, WithClock(steppingClock(t0)))

	m.clients.EXPECT().GetByID(gomock.Any(), "c-1").Return(entities.Client{ID: "c-1"}, nil)
	m.vehicles.EXPECT().GetByID(gomock.Any(), "v-1").Return(entities.Vehicle{ID: "v-1", ClientID: "c-1"}, nil)
	m.allocator.EXPECT().Next(gomock.Any(), gomock.Any(), gomock.Any()).Return("2025-0001", nil).Times(1)
	m.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.WorkOrder{}, &entities.ActiveWorkOrderConflictError{
		VehicleID: "v-1", ExistingWorkOrderNumber: "2024-0042",
	}).Times(1)

	_, err := uc.Create(context.Background(), CreateWorkOrderInput{ClientID: "c-1", VehicleID: "v-1", CreatedByID: "clerk-1"})
	if !errors.Is(err, entities.ErrVehicleAlreadyHasActiveWorkOrder) {
		t.Fatalf("expected active work order conflict, got %v", err)
	}
}

func TestWorkOrderUseCase_Mutate_StaleWriteExhaustsAttempts(t *testing.T) {
	m := newMockedStore(t)
	uc, _ := NewWorkOrderUseCase(m.orders, m.clients, m.vehicles, m.allocator, WithClock(steppingClock(t0)), WithMaxAttempts(2))
	w := openOrder(t)

	m.orders.EXPECT().GetByID(gomock.Any(), "wo-1").Return(w, nil).Times(2)
	m.orders.EXPECT().Update(gomock.Any(), gomock.Any(), w.Version, true).Return(entities.WorkOrder{}, entities.ErrStaleWrite).Times(2)

	_, err := uc.Cancel(context.Background(), "wo-1")
	if !errors.Is(err, entities.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
}

func TestWorkOrderUseCase_StoreTimeoutIsNotRetried(t *testing.T) {
	m := newMockedStore(t)
	uc, _ := NewWorkOrderUseCase(m.orders, m.clients, m.vehicles, m.allocator, WithStoreTimeout(10*time.Millisecond))

	m.orders.EXPECT().GetByID(gomock.Any(), "wo-1").DoAndReturn(func(ctx context.Context, _ string) (entities.WorkOrder, error) {
		<-ctx.Done()
		return entities.WorkOrder{}, ctx.Err()
	}).Times(1)

	_, err := uc.Cancel(context.Background(), "wo-1")
	if !errors.Is(err, entities.ErrStoreTimeout) {
		t.Fatalf("expected ErrStoreTimeout, got %v", err)
	}
	if !entities.IsRetryable(err) {
		t.Fatalf("store timeouts are reported as retryable")
	}
}

func TestInvoiceUseCase_Emit_ExistingInvoice(t *testing.T) {
	m := newMockedStore(t)
	uc, _ := NewInvoiceUseCase(m.invoices, m.orders, m.clients, m.vehicles, m.allocator, nil)
	w := openOrder(t)

	m.orders.EXPECT().GetByID(gomock.Any(), "wo-1").Return(w, nil)
	m.invoices.EXPECT().GetByWorkOrderID(gomock.Any(), "wo-1").Return(entities.Invoice{ID: "inv-1", Number: "FT 2025/1"}, nil)

	_, err := uc.Emit(context.Background(), "wo-1", "clerk-1")
	if !errors.Is(err, entities.ErrDuplicateInvoice) {
		t.Fatalf("expected ErrDuplicateInvoice, got %v", err)
	}
}
