package entities

import "fmt"

// SequenceKind selects an independent per-year counter.
type SequenceKind string

const (
	SequenceWorkOrder SequenceKind = "workorder"
	SequenceInvoice   SequenceKind = "invoice"
)

// Key is the counter key of kind for year.
func (k SequenceKind) Key(year int) string {
	return fmt.Sprintf("%s#%d", k, year)
}

// Format renders the n-th number of year: work orders as "2025-0001", invoices as "FT 2025/1".
func (k SequenceKind) Format(year int, n int64) string {
	if k == SequenceInvoice {
		return fmt.Sprintf("FT %d/%d", year, n)
	}
	return fmt.Sprintf("%d-%04d", year, n)
}
