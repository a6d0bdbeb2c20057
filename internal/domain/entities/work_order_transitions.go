package entities

import (
	"strings"
	"time"
)

// Transition names a state-machine operation on a work order.
type Transition string

const (
	TransitionCreate             Transition = "create"
	TransitionRegisterDiagnostic Transition = "registerDiagnostic"
	TransitionApproveQuote       Transition = "approveQuote"
	TransitionDeclineQuote       Transition = "declineQuote"
	TransitionBeginExecution     Transition = "beginExecution"
	TransitionMarkAwaitingParts  Transition = "markAwaitingParts"
	TransitionComplete           Transition = "complete"
	TransitionCancel             Transition = "cancel"
	TransitionInvoice            Transition = "invoice"
	TransitionDeliver            Transition = "deliver"

	// Non-status mutations guarded the same way.
	TransitionEditItems       Transition = "editItems"
	TransitionEditQuote       Transition = "editQuote"
	TransitionAssignMechanics Transition = "assignMechanics"
)

var openStatuses = []WorkOrderStatus{
	WorkOrderStatusAwaitingDiagnostic,
	WorkOrderStatusAwaitingApproval,
	WorkOrderStatusApproved,
	WorkOrderStatusAwaitingParts,
	WorkOrderStatusInProgress,
}

// transitionRules lists the statuses each transition may start from.
var transitionRules = map[Transition][]WorkOrderStatus{
	TransitionCreate:             {WorkOrderStatusDraft},
	TransitionRegisterDiagnostic: {WorkOrderStatusAwaitingDiagnostic},
	TransitionApproveQuote:       {WorkOrderStatusAwaitingApproval},
	TransitionDeclineQuote:       {WorkOrderStatusAwaitingApproval},
	TransitionBeginExecution:     {WorkOrderStatusApproved, WorkOrderStatusAwaitingParts},
	TransitionMarkAwaitingParts:  {WorkOrderStatusInProgress},
	TransitionComplete:           {WorkOrderStatusInProgress},
	TransitionCancel:             append([]WorkOrderStatus{WorkOrderStatusDraft}, openStatuses...),
	TransitionInvoice:            {WorkOrderStatusCompleted},
	TransitionDeliver:            {WorkOrderStatusInvoiced},
	TransitionEditItems:          openStatuses,
	TransitionEditQuote:          {WorkOrderStatusAwaitingDiagnostic, WorkOrderStatusAwaitingApproval},
	TransitionAssignMechanics:    openStatuses,
}

// Can reports whether t is allowed from the current status.
func (w WorkOrder) Can(t Transition) error {
	for _, s := range transitionRules[t] {
		if s == w.Status {
			return nil
		}
	}
	return w.transitionError(t, "")
}

func (w WorkOrder) transitionError(t Transition, reason string) error {
	allowed := transitionRules[t]
	required := make([]string, 0, len(allowed))
	for _, s := range allowed {
		required = append(required, string(s))
	}
	return &InvalidTransitionError{
		Current:    string(w.Status),
		Transition: string(t),
		Required:   required,
		Reason:     reason,
	}
}

// stamp returns now, clamped so lifecycle stamps never go backwards when clocks of
// different instances disagree.
func (w WorkOrder) stamp(now time.Time) time.Time {
	now = now.UTC()
	if latest := w.Timeline.latest(); now.Before(latest) {
		return latest
	}
	return now
}

// apply checks t and then runs fn. Every precondition is checked before fn runs, so a
// rejected transition leaves w untouched.
func (w *WorkOrder) apply(t Transition, now time.Time, fn func(w *WorkOrder, at time.Time)) error {
	if err := w.Can(t); err != nil {
		return err
	}
	at := w.stamp(now)
	fn(w, at)
	if at.After(w.UpdatedAt) {
		w.UpdatedAt = at
	}
	return nil
}

func stampOnce(slot **time.Time, at time.Time) {
	if *slot == nil {
		v := at
		*slot = &v
	}
}

func (w *WorkOrder) RegisterDiagnostic(diagnostic string, now time.Time) error {
	if err := w.Can(TransitionRegisterDiagnostic); err != nil {
		return err
	}
	diagnostic = strings.TrimSpace(diagnostic)
	if diagnostic == "" {
		return invalid("diagnostic", "must not be empty")
	}
	return w.apply(TransitionRegisterDiagnostic, now, func(w *WorkOrder, at time.Time) {
		w.Quote.Diagnostic = diagnostic
		stampOnce(&w.Timeline.DiagnosisRegisteredAt, at)
		w.setStatus(WorkOrderStatusAwaitingApproval)
	})
}

func (w *WorkOrder) ApproveQuote(now time.Time) error {
	if err := w.Can(TransitionApproveQuote); err != nil {
		return err
	}
	if w.Quote.IsApproved {
		return w.transitionError(TransitionApproveQuote, "quote already approved")
	}
	return w.apply(TransitionApproveQuote, now, func(w *WorkOrder, at time.Time) {
		w.Quote.IsApproved = true
		stampOnce(&w.Timeline.QuoteApprovedAt, at)
		w.setStatus(WorkOrderStatusApproved)
	})
}

func (w *WorkOrder) DeclineQuote(now time.Time) error {
	return w.apply(TransitionDeclineQuote, now, func(w *WorkOrder, _ time.Time) {
		w.setStatus(WorkOrderStatusDeclined)
	})
}

// BeginExecution starts or resumes the work. The execution stamp keeps its first value.
func (w *WorkOrder) BeginExecution(now time.Time) error {
	return w.apply(TransitionBeginExecution, now, func(w *WorkOrder, at time.Time) {
		stampOnce(&w.Timeline.ExecutionStartedAt, at)
		w.setStatus(WorkOrderStatusInProgress)
	})
}

func (w *WorkOrder) MarkAwaitingParts(now time.Time) error {
	return w.apply(TransitionMarkAwaitingParts, now, func(w *WorkOrder, _ time.Time) {
		w.setStatus(WorkOrderStatusAwaitingParts)
	})
}

// Complete freezes the totals and releases the vehicle's active slot.
func (w *WorkOrder) Complete(now time.Time) error {
	if err := w.Can(TransitionComplete); err != nil {
		return err
	}
	if len(w.Items) == 0 {
		return w.transitionError(TransitionComplete, "work order has no items")
	}
	return w.apply(TransitionComplete, now, func(w *WorkOrder, at time.Time) {
		w.recomputeTotals()
		stampOnce(&w.Timeline.CompletedAt, at)
		w.setStatus(WorkOrderStatusCompleted)
	})
}

func (w *WorkOrder) Cancel(now time.Time) error {
	return w.apply(TransitionCancel, now, func(w *WorkOrder, _ time.Time) {
		w.setStatus(WorkOrderStatusCancelled)
	})
}

// MarkInvoiced records that the invoice snapshot of this order exists.
func (w *WorkOrder) MarkInvoiced(now time.Time) error {
	return w.apply(TransitionInvoice, now, func(w *WorkOrder, at time.Time) {
		stampOnce(&w.Timeline.InvoicedAt, at)
		w.setStatus(WorkOrderStatusInvoiced)
	})
}

func (w *WorkOrder) Deliver(now time.Time) error {
	return w.apply(TransitionDeliver, now, func(w *WorkOrder, at time.Time) {
		stampOnce(&w.Timeline.DeliveredAt, at)
		w.setStatus(WorkOrderStatusDelivered)
	})
}

func (w *WorkOrder) AddItem(in LineItemInput, now time.Time) error {
	if err := w.Can(TransitionEditItems); err != nil {
		return err
	}
	item, err := NewLineItem(in)
	if err != nil {
		return err
	}
	return w.apply(TransitionEditItems, now, func(w *WorkOrder, _ time.Time) {
		w.Items = append(CloneLineItems(w.Items), item)
		w.recomputeTotals()
	})
}

func (w *WorkOrder) UpdateItem(index int, in LineItemInput, now time.Time) error {
	if err := w.Can(TransitionEditItems); err != nil {
		return err
	}
	if index < 0 || index >= len(w.Items) {
		return invalid("index", "no item at this position")
	}
	item, err := NewLineItem(in)
	if err != nil {
		return err
	}
	return w.apply(TransitionEditItems, now, func(w *WorkOrder, _ time.Time) {
		items := CloneLineItems(w.Items)
		items[index] = item
		w.Items = items
		w.recomputeTotals()
	})
}

func (w *WorkOrder) RemoveItem(index int, now time.Time) error {
	if err := w.Can(TransitionEditItems); err != nil {
		return err
	}
	if index < 0 || index >= len(w.Items) {
		return invalid("index", "no item at this position")
	}
	return w.apply(TransitionEditItems, now, func(w *WorkOrder, _ time.Time) {
		items := make([]LineItem, 0, len(w.Items)-1)
		items = append(items, w.Items[:index]...)
		w.Items = append(items, w.Items[index+1:]...)
		w.recomputeTotals()
	})
}

// UpdateQuoteObservations edits the client's complaint while the quote is still open.
func (w *WorkOrder) UpdateQuoteObservations(observations string, now time.Time) error {
	if err := w.Can(TransitionEditQuote); err != nil {
		return err
	}
	if w.Quote.IsApproved {
		return w.transitionError(TransitionEditQuote, "quote already approved")
	}
	return w.apply(TransitionEditQuote, now, func(w *WorkOrder, _ time.Time) {
		w.Quote.ClientObservations = strings.TrimSpace(observations)
	})
}

// AssignMechanics replaces the set of mechanics working on the order.
func (w *WorkOrder) AssignMechanics(ids []string, now time.Time) error {
	return w.apply(TransitionAssignMechanics, now, func(w *WorkOrder, _ time.Time) {
		w.MechanicIDs = normalizeIDs(ids)
	})
}
