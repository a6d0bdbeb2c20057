package entities

import (
	"slices"
	"strings"
	"time"
)

// WorkOrderStatus is the lifecycle position of a work order (ordem de serviço).
type WorkOrderStatus string

const (
	WorkOrderStatusDraft              WorkOrderStatus = "Draft"
	WorkOrderStatusAwaitingDiagnostic WorkOrderStatus = "AwaitingDiagnostic"
	WorkOrderStatusAwaitingApproval   WorkOrderStatus = "AwaitingApproval"
	WorkOrderStatusApproved           WorkOrderStatus = "Approved"
	WorkOrderStatusDeclined           WorkOrderStatus = "Declined"
	WorkOrderStatusAwaitingParts      WorkOrderStatus = "AwaitingParts"
	WorkOrderStatusInProgress         WorkOrderStatus = "InProgress"
	WorkOrderStatusCompleted          WorkOrderStatus = "Completed"
	WorkOrderStatusInvoiced           WorkOrderStatus = "Invoiced"
	WorkOrderStatusDelivered          WorkOrderStatus = "Delivered"
	WorkOrderStatusCancelled          WorkOrderStatus = "Cancelled"
)

// Active reports whether a work order in status s holds its vehicle's active slot.
// Completed already frees the slot; invoicing is gated by the status, not by activity.
func (s WorkOrderStatus) Active() bool {
	switch s {
	case WorkOrderStatusDraft,
		WorkOrderStatusAwaitingDiagnostic,
		WorkOrderStatusAwaitingApproval,
		WorkOrderStatusApproved,
		WorkOrderStatusAwaitingParts,
		WorkOrderStatusInProgress:
		return true
	}
	return false
}

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderStatusDraft, WorkOrderStatusAwaitingDiagnostic, WorkOrderStatusAwaitingApproval,
		WorkOrderStatusApproved, WorkOrderStatusDeclined, WorkOrderStatusAwaitingParts,
		WorkOrderStatusInProgress, WorkOrderStatusCompleted, WorkOrderStatusInvoiced,
		WorkOrderStatusDelivered, WorkOrderStatusCancelled:
		return true
	}
	return false
}

// Quote is the diagnostic and estimate the client must approve before execution.
type Quote struct {
	ClientObservations string `json:"clientObservations"`
	Diagnostic         string `json:"diagnostic"`
	IsApproved         bool   `json:"isApproved"`
}

// Timeline holds the lifecycle stamps. Each is set at most once.
type Timeline struct {
	EntryDate             time.Time  `json:"entryDate"`
	DiagnosisRegisteredAt *time.Time `json:"diagnosisRegisteredAt,omitempty"`
	QuoteApprovedAt       *time.Time `json:"quoteApprovedAt,omitempty"`
	ExecutionStartedAt    *time.Time `json:"executionStartedAt,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	InvoicedAt            *time.Time `json:"invoicedAt,omitempty"`
	DeliveredAt           *time.Time `json:"deliveredAt,omitempty"`
}

func (t Timeline) latest() time.Time {
	latest := t.EntryDate
	for _, ts := range []*time.Time{t.DiagnosisRegisteredAt, t.QuoteApprovedAt, t.ExecutionStartedAt, t.CompletedAt, t.InvoicedAt, t.DeliveredAt} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}

// WorkOrder is the aggregate root of a repair job on one vehicle.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI vehicle_id-index: vehicle_id
//   - GSI status-index: status, entry_date
//   - uniques: work_order_number#<number>, active_vehicle#<vehicle_id> while active
//
// Status and IsActive only change together through the transition methods; Version is the
// optimistic concurrency counter checked by every update.
type WorkOrder struct {
	ID          string          `json:"id"`
	Number      string          `json:"workOrderNumber"`
	ClientID    string          `json:"clientId"`
	VehicleID   string          `json:"vehicleId"`
	MechanicIDs []string        `json:"mechanicIds"`
	CreatedByID string          `json:"createdById"`
	Status      WorkOrderStatus `json:"status"`
	IsActive    bool            `json:"isActive"`
	Quote       Quote           `json:"quote"`
	Items       []LineItem      `json:"items"`
	Totals      Totals          `json:"totals"`
	Timeline    Timeline        `json:"timeline"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewWorkOrderParams are the inputs of a vehicle check-in.
type NewWorkOrderParams struct {
	ID                 string
	Number             string
	ClientID           string
	VehicleID          string
	CreatedByID        string
	ClientObservations string
	MechanicIDs        []string
}

// NewWorkOrder registers a check-in: the order starts as Draft and is opened to
// AwaitingDiagnostic with its entry date.
func NewWorkOrder(p NewWorkOrderParams, now time.Time) (WorkOrder, error) {
	required := []struct{ field, value string }{
		{"id", p.ID},
		{"number", p.Number},
		{"clientId", p.ClientID},
		{"vehicleId", p.VehicleID},
		{"createdById", p.CreatedByID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return WorkOrder{}, invalid(r.field, "must not be empty")
		}
	}
	now = now.UTC()
	w := WorkOrder{
		ID:          p.ID,
		Number:      p.Number,
		ClientID:    strings.TrimSpace(p.ClientID),
		VehicleID:   strings.TrimSpace(p.VehicleID),
		MechanicIDs: normalizeIDs(p.MechanicIDs),
		CreatedByID: strings.TrimSpace(p.CreatedByID),
		Quote:       Quote{ClientObservations: strings.TrimSpace(p.ClientObservations)},
		Items:       []LineItem{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.setStatus(WorkOrderStatusDraft)
	if err := w.apply(TransitionCreate, now, func(w *WorkOrder, at time.Time) {
		w.Timeline.EntryDate = at
		w.setStatus(WorkOrderStatusAwaitingDiagnostic)
	}); err != nil {
		return WorkOrder{}, err
	}
	return w, nil
}

// setStatus is the only writer of Status and IsActive.
func (w *WorkOrder) setStatus(s WorkOrderStatus) {
	w.Status = s
	w.IsActive = s.Active()
}

// Clone returns a copy sharing no slices or pointers with w.
func (w WorkOrder) Clone() WorkOrder {
	c := w
	c.MechanicIDs = slices.Clone(w.MechanicIDs)
	c.Items = CloneLineItems(w.Items)
	c.Timeline = w.Timeline.clone()
	return c
}

func (t Timeline) clone() Timeline {
	c := t
	for _, p := range []**time.Time{&c.DiagnosisRegisteredAt, &c.QuoteApprovedAt, &c.ExecutionStartedAt, &c.CompletedAt, &c.InvoicedAt, &c.DeliveredAt} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return c
}

func (w *WorkOrder) recomputeTotals() {
	w.Totals = ComputeTotals(w.Items)
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
