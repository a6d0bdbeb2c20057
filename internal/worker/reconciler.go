package worker

import (
	"context"
	"log"
	"time"

	"mecanica_oficina/internal/usecase"
)

// reconcileRunner is the part of the invoice use case the worker drives.
type reconcileRunner interface {
	Reconcile(ctx context.Context, limit int) (usecase.ReconcileReport, error)
}

// Reconciler periodically finishes invoicing for work orders whose invoice was written but
// whose status update was not.
type Reconciler struct {
	invoices reconcileRunner
	interval time.Duration
	batch    int
}

func NewReconciler(invoices reconcileRunner, interval time.Duration, batch int) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &Reconciler{invoices: invoices, interval: interval, batch: batch}
}

// Start runs a pass right away and then one per interval until ctx is done. Blocking call.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	log.Printf("[reconciler][worker] started interval=%s batch=%d", r.interval, r.batch)

	for {
		r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			log.Printf("[reconciler][worker] stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single reconciliation pass and logs its outcome.
func (r *Reconciler) RunOnce(ctx context.Context) (usecase.ReconcileReport, error) {
	report, err := r.invoices.Reconcile(ctx, r.batch)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[reconciler][worker] pass failed err=%v", err)
		}
		return report, err
	}
	if report.Scanned > 0 {
		log.Printf("[reconciler][worker] pass done scanned=%d repaired=%d failed=%d", report.Scanned, report.Repaired, report.Failed)
	}
	return report, nil
}
