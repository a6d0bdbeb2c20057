package pdf

import (
	"bytes"
	"testing"
	"time"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRenderer_Render(t *testing.T) {
	items := []entities.LineItem{
		{
			Type:                entities.LineItemTypePart,
			Description:         "Pastilhas de travão",
			Reference:           "PT-01",
			Quantity:            decimal.NewFromInt(2),
			UnitPriceWithoutTax: money.MustParse("10.00"),
			TaxRate:             decimal.RequireFromString("0.23"),
		},
		{
			Type:                entities.LineItemTypeLabor,
			Description:         "Mão de obra",
			Quantity:            decimal.NewFromInt(1),
			UnitPriceWithoutTax: money.MustParse("50.00"),
			TaxRate:             decimal.RequireFromString("0.23"),
		},
	}
	inv := entities.Invoice{
		ID:              "inv-1",
		Number:          "FT 2025/1",
		InvoiceDate:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:          entities.InvoiceStatusEmitted,
		WorkOrderNumber: "2025-0001",
		ClientDetails: entities.ClientSnapshot{
			Name:    "Ana Ferreira",
			NIF:     "123456789",
			Address: entities.AddressSnapshot{Street: "Rua das Flores 10", City: "Porto", ZipCode: "4000-001"},
		},
		VehicleDetails: entities.VehicleSnapshot{LicensePlate: "AA-00-BB", Brand: "Renault", Model: "Clio"},
		Items:          items,
		Totals:         entities.ComputeTotals(items),
	}

	var buf bytes.Buffer
	require.NoError(t, NewInvoiceRenderer("Oficina Central").Render(&buf, inv))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestInvoiceRenderer_EmptyInvoice(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewInvoiceRenderer("").Render(&buf, entities.Invoice{Number: "FT 2025/2"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "Renault Clio", joinNonEmpty("Renault", "Clio"))
	assert.Equal(t, "Clio", joinNonEmpty("", "Clio"))
	assert.Equal(t, "Renault", joinNonEmpty("Renault", ""))
}
