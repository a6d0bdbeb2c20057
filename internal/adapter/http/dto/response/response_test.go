package response

import (
	"encoding/json"
	"testing"
	"time"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"

	"github.com/shopspring/decimal"
)

func items() []entities.LineItem {
	return []entities.LineItem{
		{Type: entities.LineItemTypePart, Description: "Filtro", Quantity: decimal.NewFromInt(2), UnitPriceWithoutTax: money.MustParse("10.00"), TaxRate: decimal.RequireFromString("0.23")},
		{Type: entities.LineItemTypeLabor, Description: "Mão de obra", Quantity: decimal.NewFromInt(1), UnitPriceWithoutTax: money.MustParse("50.00"), TaxRate: decimal.RequireFromString("0.23")},
	}
}

func TestFromWorkOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	w := entities.WorkOrder{
		ID:       "wo-1",
		Number:   "2025-0001",
		Status:   entities.WorkOrderStatusCompleted,
		Items:    items(),
		Totals:   entities.ComputeTotals(items()),
		Timeline: entities.Timeline{EntryDate: now, CompletedAt: &now},
		Version:  7,
	}

	res := FromWorkOrder(w)
	if res.WorkOrderNumber != "2025-0001" || res.Status != "Completed" || res.Version != 7 {
		t.Fatalf("unexpected fields: %+v", res)
	}
	if res.MechanicIDs == nil {
		t.Fatalf("mechanicIds must encode as an empty list")
	}
	if res.TotalWithoutTax != "70.00" || res.TotalTax != "16.10" || res.TotalWithTax != "86.10" {
		t.Fatalf("unexpected totals: %+v", res.TotalsResponse)
	}
	if res.Items[0].LineTotalWithTax != "24.60" || res.Items[1].Index != 1 {
		t.Fatalf("unexpected items: %+v", res.Items)
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	_ = json.Unmarshal(b, &body)
	if body["totalWithTax"] != "86.10" {
		t.Fatalf("totals must be flattened strings: %s", b)
	}
	timeline := body["timeline"].(map[string]any)
	if _, ok := timeline["deliveredAt"]; ok {
		t.Fatalf("unset stamps must be omitted: %s", b)
	}
}

func TestFromInvoice(t *testing.T) {
	paid := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	inv := entities.Invoice{
		ID:             "inv-1",
		Number:         "FT 2025/1",
		Status:         entities.InvoiceStatusPaid,
		ClientDetails:  entities.ClientSnapshot{Name: "Ana", NIF: "123456789", Address: entities.AddressSnapshot{City: "Porto"}},
		VehicleDetails: entities.VehicleSnapshot{LicensePlate: "AA-00-BB"},
		Items:          items(),
		Totals:         entities.ComputeTotals(items()),
		PaidAt:         &paid,
	}

	res := FromInvoice(inv)
	if res.InvoiceNumber != "FT 2025/1" || res.Status != "Paid" || res.TotalWithTax != "86.10" {
		t.Fatalf("unexpected fields: %+v", res)
	}
	if res.ClientDetails.Address.City != "Porto" || res.VehicleDetails.LicensePlate != "AA-00-BB" {
		t.Fatalf("unexpected snapshot: %+v", res)
	}
	if res.PaidAt == nil || !res.PaidAt.Equal(paid) {
		t.Fatalf("unexpected paidAt: %v", res.PaidAt)
	}
}

func TestFromInvoicePayment(t *testing.T) {
	now := time.Now().UTC()
	payload := map[string]interface{}{"a": "b"}
	raw := json.RawMessage(`{"id":123}`)

	p := entities.InvoicePayment{
		ID:                 "pay-1",
		InvoiceID:          "inv-1",
		Date:               now,
		Status:             entities.PaymentStatusAprovado,
		Amount:             money.MustParse("86.1"),
		ProviderPayloadRaw: raw,
		ProviderPayload:    payload,
	}

	res := FromInvoicePayment(p)
	if res.ID != "pay-1" || res.PaymentID != "pay-1" {
		t.Fatalf("unexpected ids: %+v", res)
	}
	if res.InvoiceID != "inv-1" || res.Status != "aprovado" || res.Amount != "86.10" {
		t.Fatalf("unexpected fields: %+v", res)
	}
	if !res.Date.Equal(now) || !res.PaymentDate.Equal(now) {
		t.Fatalf("unexpected dates: %+v", res)
	}
	if res.MPPayloadRaw != string(raw) {
		t.Fatalf("unexpected raw payload: %s", res.MPPayloadRaw)
	}
	if res.MPPayload["a"] != "b" {
		t.Fatalf("unexpected parsed payload: %+v", res.MPPayload)
	}
	if got := FromInvoicePayments(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestFromClientAndVehicle(t *testing.T) {
	c := FromClient(entities.Client{ID: "c-1", Name: "Ana"})
	if c.Address != nil {
		t.Fatalf("expected no address")
	}
	c = FromClient(entities.Client{ID: "c-1", Address: &entities.Address{City: "Porto"}})
	if c.Address == nil || c.Address.City != "Porto" {
		t.Fatalf("unexpected address: %+v", c.Address)
	}

	vs := FromVehicles([]entities.Vehicle{{ID: "v-1", LicensePlate: "AA-00-BB", Kilometers: 1000}})
	if len(vs) != 1 || vs[0].LicensePlate != "AA-00-BB" || vs[0].Kilometers != 1000 {
		t.Fatalf("unexpected vehicles: %+v", vs)
	}
}
