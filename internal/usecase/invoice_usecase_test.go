package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
	mock_interfaces "mecanica_oficina/internal/usecase/interfaces/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestInvoiceUseCase_Emit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.completed(t)

	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)
	assert.Equal(t, "FT 2025/1", inv.Number)
	assert.Equal(t, entities.InvoiceStatusEmitted, inv.Status)
	assert.Equal(t, w.ID, inv.WorkOrderID)
	assert.Equal(t, w.Number, inv.WorkOrderNumber)
	assert.Equal(t, "86.10", inv.Totals.WithTax.String())
	assert.Equal(t, w.Items, inv.Items)
	assert.Equal(t, "123456789", inv.ClientDetails.NIF)
	assert.Equal(t, "Porto", inv.ClientDetails.Address.City)
	assert.Equal(t, "AA-00-BB", inv.VehicleDetails.LicensePlate)

	order, err := f.orders.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusInvoiced, order.Status)
	require.NotNil(t, order.Timeline.InvoicedAt)

	for _, lookup := range []func() (entities.Invoice, error){
		func() (entities.Invoice, error) { return f.invoices.GetByID(ctx, inv.ID) },
		func() (entities.Invoice, error) { return f.invoices.GetByNumber(ctx, inv.Number) },
		func() (entities.Invoice, error) { return f.invoices.GetByWorkOrderID(ctx, w.ID) },
	} {
		got, err := lookup()
		require.NoError(t, err)
		assert.Equal(t, inv, got)
	}

	delivered, err := f.orders.Deliver(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusDelivered, delivered.Status)
}

func TestInvoiceUseCase_EmitPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.checkIn(t)
	_, err := f.invoices.Emit(ctx, open.ID, "clerk-1")
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)

	_, err = f.invoices.Emit(ctx, "missing", "clerk-1")
	assert.ErrorIs(t, err, ErrWorkOrderNotFound)

	_, err = f.orders.Cancel(ctx, open.ID)
	require.NoError(t, err)
	w := f.completed(t)

	_, err = f.invoices.Emit(ctx, w.ID, " ")
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)
	_, err = f.invoices.Emit(ctx, w.ID, "clerk-1")
	assert.ErrorIs(t, err, entities.ErrDuplicateInvoice)
}

func TestInvoiceUseCase_EmitRetriesTakenNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.completed(t)

	// A number already held by another invoice, as after a counter reset.
	_, err := f.store.Invoices().Create(ctx, entities.Invoice{ID: "inv-old", Number: "FT 2025/1", WorkOrderID: "wo-old", Status: entities.InvoiceStatusEmitted})
	require.NoError(t, err)

	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)
	assert.Equal(t, "FT 2025/2", inv.Number)
	assert.Equal(t, w.ID, inv.WorkOrderID)
}

func TestInvoiceUseCase_ConcurrentEmitYieldsOneInvoice(t *testing.T) {
	f := newFixture(t)
	w := f.completed(t)
	const n = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  []entities.Invoice
		rejects int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			inv, err := f.invoices.Emit(context.Background(), w.ID, "clerk-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued = append(issued, inv)
			case errors.Is(err, entities.ErrDuplicateInvoice):
				rejects++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, issued, 1)
	assert.Equal(t, n-1, rejects)

	got, err := f.invoices.GetByWorkOrderID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, issued[0].ID, got.ID)
}

func TestInvoiceUseCase_SnapshotIgnoresLaterCatalogEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.completed(t)
	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)

	name := "Ana F. Silva"
	_, err = f.catalog.UpdateClient(ctx, f.client.ID, ClientChanges{
		Name:    &name,
		Address: &entities.Address{Street: "Av. da Liberdade 10", City: "Lisboa", ZipCode: "1250-001"},
	})
	require.NoError(t, err)

	got, err := f.invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ferreira", got.ClientDetails.Name)
	assert.Equal(t, "Porto", got.ClientDetails.Address.City)
	assert.Equal(t, inv, got)
}

func TestInvoiceUseCase_ReconcileFinishesInterruptedEmit(t *testing.T) {
	boom := errors.New("connection reset")
	var flaky *flakyWorkOrders
	f := newWrappedFixture(t, func(r interfaces.IWorkOrderRepository) interfaces.IWorkOrderRepository {
		flaky = &flakyWorkOrders{IWorkOrderRepository: r, updateErr: boom}
		return flaky
	})
	ctx := context.Background()
	w := f.completed(t)

	flaky.mu.Lock()
	flaky.failUpdates = -1
	flaky.mu.Unlock()

	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.ErrorIs(t, err, entities.ErrReconciliationRequired)
	var rre *entities.ReconciliationRequiredError
	require.ErrorAs(t, err, &rre)
	assert.Equal(t, w.ID, rre.WorkOrderID)
	assert.Equal(t, inv.ID, rre.InvoiceID)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, inv.Number)

	order, err := f.orders.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusCompleted, order.Status)

	report, err := f.invoices.Reconcile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Failed: 1}, report)

	flaky.mu.Lock()
	flaky.failUpdates = 0
	flaky.mu.Unlock()

	report, err = f.invoices.Reconcile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Repaired: 1}, report)

	order, err = f.orders.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusInvoiced, order.Status)

	report, err = f.invoices.Reconcile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, report)
}

func TestInvoiceUseCase_ReconcileIgnoresOrdersWithoutInvoice(t *testing.T) {
	f := newFixture(t)
	w := f.completed(t)

	report, err := f.invoices.Reconcile(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, report)

	order, err := f.orders.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusCompleted, order.Status)
}

func TestInvoiceUseCase_ReconcileReachesInvoiceBehindUninvoicedBacklog(t *testing.T) {
	boom := errors.New("connection reset")
	var flaky *flakyWorkOrders
	f := newWrappedFixture(t, func(r interfaces.IWorkOrderRepository) interfaces.IWorkOrderRepository {
		flaky = &flakyWorkOrders{IWorkOrderRepository: r, updateErr: boom}
		return flaky
	})
	ctx := context.Background()
	const limit = 2

	// Older Completed orders nobody has invoiced yet.
	for i := 0; i < limit+1; i++ {
		_ = f.completed(t)
	}
	w := f.completed(t)

	flaky.mu.Lock()
	flaky.failUpdates = 1
	flaky.mu.Unlock()
	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.ErrorIs(t, err, entities.ErrReconciliationRequired)

	report, err := f.invoices.Reconcile(ctx, limit)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Repaired: 1}, report)

	order, err := f.orders.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusInvoiced, order.Status)
	got, err := f.invoices.GetByWorkOrderID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	pending, err := f.store.Invoices().ListPendingLink(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestInvoiceUseCase_EmitAcceptsOrderInvoicedByReconcile(t *testing.T) {
	var racing *interleavedWorkOrders
	f := newWrappedFixture(t, func(r interfaces.IWorkOrderRepository) interfaces.IWorkOrderRepository {
		racing = &interleavedWorkOrders{IWorkOrderRepository: r}
		return racing
	})
	ctx := context.Background()
	w := f.completed(t)

	var report ReconcileReport
	var reconcileErr error
	racing.arm(func() {
		report, reconcileErr = f.invoices.Reconcile(ctx, 10)
	})

	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)
	require.NoError(t, reconcileErr)
	assert.Equal(t, ReconcileReport{Scanned: 1, Repaired: 1}, report)

	order, err := f.orders.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.WorkOrderStatusInvoiced, order.Status)
	got, err := f.invoices.GetByWorkOrderID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	report, err = f.invoices.Reconcile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, report)
}

func TestInvoiceUseCase_ReconcileDropsInvoiceOfMissingOrder(t *testing.T) {
	m := newMockedStore(t)
	uc, _ := NewInvoiceUseCase(m.invoices, m.orders, m.clients, m.vehicles, m.allocator, nil)

	m.invoices.EXPECT().ListPendingLink(gomock.Any(), 5).Return([]entities.Invoice{{ID: "inv-1", WorkOrderID: "wo-gone"}}, nil)
	m.orders.EXPECT().GetByID(gomock.Any(), "wo-gone").Return(entities.WorkOrder{}, nil)
	m.invoices.EXPECT().ClearPendingLink(gomock.Any(), "inv-1").Return(nil)

	report, err := uc.Reconcile(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Failed: 1}, report)
}

func TestInvoiceUseCase_StatusChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.completed(t)
	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)

	paid, err := f.invoices.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, inv.Totals, paid.Totals)
	assert.Equal(t, inv.Items, paid.Items)

	_, err = f.invoices.Cancel(ctx, inv.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)
	_, err = f.invoices.MarkPaid(ctx, inv.ID)
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)

	_, err = f.invoices.MarkPaid(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestInvoiceUseCase_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.completed(t)
	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)

	canceled, err := f.invoices.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvoiceStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)
}

func TestInvoiceUseCase_RenderPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.completed(t)
	inv, err := f.invoices.Emit(ctx, w.ID, "clerk-1")
	require.NoError(t, err)

	_, err = f.invoices.RenderPDF(ctx, inv.ID, io.Discard)
	assert.ErrorIs(t, err, ErrRendererNotEnabled)

	ctrl := gomock.NewController(t)
	renderer := mock_interfaces.NewMockIInvoiceRenderer(ctrl)
	uc, err := NewInvoiceUseCase(f.store.Invoices(), f.store.WorkOrders(), f.store.Clients(), f.store.Vehicles(), f.store.Sequences(), renderer)
	require.NoError(t, err)

	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(w io.Writer, got entities.Invoice) error {
		assert.Equal(t, inv.ID, got.ID)
		_, err := w.Write([]byte("%PDF-1.3"))
		return err
	})
	var buf bytes.Buffer
	got, err := uc.RenderPDF(ctx, inv.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
	assert.Equal(t, "%PDF-1.3", buf.String())

	renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(errors.New("font missing"))
	_, err = uc.RenderPDF(ctx, inv.ID, &buf)
	assert.EqualError(t, err, "font missing")

	_, err = uc.RenderPDF(ctx, "missing", &buf)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
