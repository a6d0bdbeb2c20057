package entities

import (
	"strings"
	"time"
)

type InvoiceStatus string

const (
	InvoiceStatusEmitted  InvoiceStatus = "Emitted"
	InvoiceStatusPaid     InvoiceStatus = "Paid"
	InvoiceStatusCanceled InvoiceStatus = "Canceled"
)

// AddressSnapshot, ClientSnapshot and VehicleSnapshot are owned copies frozen on the
// invoice. Unlike Client and Vehicle they are never looked up again, so later catalog
// edits cannot reach an issued invoice.
type AddressSnapshot struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

type ClientSnapshot struct {
	Name    string          `json:"name"`
	NIF     string          `json:"nif"`
	Address AddressSnapshot `json:"address"`
}

type VehicleSnapshot struct {
	LicensePlate string `json:"licensePlate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
}

// SnapshotClient copies the fiscal identity of c.
func SnapshotClient(c Client) ClientSnapshot {
	s := ClientSnapshot{Name: c.Name, NIF: c.NIF}
	if c.Address != nil {
		s.Address = AddressSnapshot{Street: c.Address.Street, City: c.Address.City, ZipCode: c.Address.ZipCode}
	}
	return s
}

func SnapshotVehicle(v Vehicle) VehicleSnapshot {
	return VehicleSnapshot{LicensePlate: v.LicensePlate, Brand: v.Brand, Model: v.Model}
}

// Invoice is the immutable fiscal record of a completed work order.
// Only Status (with its stamp and UpdatedAt) changes after emission.
//
// Storage model (DynamoDB):
//   - PK: id
//   - uniques: invoice_work_order#<work_order_id>, invoice_number#<number>
type Invoice struct {
	ID              string          `json:"id"`
	Number          string          `json:"invoiceNumber"`
	InvoiceDate     time.Time       `json:"invoiceDate"`
	Status          InvoiceStatus   `json:"status"`
	WorkOrderID     string          `json:"workOrderId"`
	WorkOrderNumber string          `json:"workOrderNumber"`
	ClientID        string          `json:"clientId"`
	EmittedByID     string          `json:"emittedById"`
	ClientDetails   ClientSnapshot  `json:"clientDetails"`
	VehicleDetails  VehicleSnapshot `json:"vehicleDetails"`
	Items           []LineItem      `json:"items"`
	Totals          Totals          `json:"totals"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	CanceledAt      *time.Time      `json:"canceledAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// InvoiceSnapshotParams carries everything frozen into a new invoice.
type InvoiceSnapshotParams struct {
	ID          string
	Number      string
	EmittedByID string
	WorkOrder   WorkOrder
	Client      Client
	Vehicle     Vehicle
}

// NewInvoiceSnapshot builds the invoice of a Completed work order. Items, totals and the
// client/vehicle details are copied by value.
func NewInvoiceSnapshot(p InvoiceSnapshotParams, now time.Time) (Invoice, error) {
	wo := p.WorkOrder
	if err := wo.Can(TransitionInvoice); err != nil {
		return Invoice{}, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return Invoice{}, invalid("id", "must not be empty")
	}
	if strings.TrimSpace(p.Number) == "" {
		return Invoice{}, invalid("invoiceNumber", "must not be empty")
	}
	emittedBy := strings.TrimSpace(p.EmittedByID)
	if emittedBy == "" {
		return Invoice{}, invalid("emittedById", "must not be empty")
	}
	if p.Client.ID != wo.ClientID {
		return Invoice{}, invalid("clientId", "client does not match the work order")
	}
	if p.Vehicle.ID != wo.VehicleID {
		return Invoice{}, invalid("vehicleId", "vehicle does not match the work order")
	}
	now = now.UTC()
	return Invoice{
		ID:              p.ID,
		Number:          p.Number,
		InvoiceDate:     now,
		Status:          InvoiceStatusEmitted,
		WorkOrderID:     wo.ID,
		WorkOrderNumber: wo.Number,
		ClientID:        wo.ClientID,
		EmittedByID:     emittedBy,
		ClientDetails:   SnapshotClient(p.Client),
		VehicleDetails:  SnapshotVehicle(p.Vehicle),
		Items:           CloneLineItems(wo.Items),
		Totals:          wo.Totals,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (inv Invoice) Clone() Invoice {
	c := inv
	c.Items = CloneLineItems(inv.Items)
	if inv.PaidAt != nil {
		v := *inv.PaidAt
		c.PaidAt = &v
	}
	if inv.CanceledAt != nil {
		v := *inv.CanceledAt
		c.CanceledAt = &v
	}
	return c
}

func (inv Invoice) statusError(transition string) error {
	return &InvalidTransitionError{
		Current:    string(inv.Status),
		Transition: transition,
		Required:   []string{string(InvoiceStatusEmitted)},
	}
}

func (inv *Invoice) MarkPaid(now time.Time) error {
	if inv.Status != InvoiceStatusEmitted {
		return inv.statusError("pay")
	}
	now = now.UTC()
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &now
	inv.UpdatedAt = now
	return nil
}

func (inv *Invoice) Cancel(now time.Time) error {
	if inv.Status != InvoiceStatusEmitted {
		return inv.statusError("cancel")
	}
	now = now.UTC()
	inv.Status = InvoiceStatusCanceled
	inv.CanceledAt = &now
	inv.UpdatedAt = now
	return nil
}
