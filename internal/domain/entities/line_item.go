package entities

import (
	"slices"
	"strings"

	"mecanica_oficina/internal/domain/money"

	"github.com/shopspring/decimal"
)

type LineItemType string

const (
	LineItemTypePart  LineItemType = "Part"
	LineItemTypeLabor LineItemType = "Labor"
)

func (t LineItemType) Valid() bool {
	return t == LineItemTypePart || t == LineItemTypeLabor
}

// LineItemInput is the caller-provided part of a line item.
type LineItemInput struct {
	Type                LineItemType
	Description         string
	Reference           string
	Quantity            decimal.Decimal
	UnitPriceWithoutTax money.Money
	TaxRate             decimal.Decimal
}

// LineItem is a part or labor entry owned by a single work order or invoice.
// Its amounts are derived from quantity, unit price and tax rate and cannot be set.
type LineItem struct {
	Type                LineItemType    `json:"type"`
	Description         string          `json:"description"`
	Reference           string          `json:"reference"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitPriceWithoutTax money.Money     `json:"unitPriceWithoutTax"`
	TaxRate             decimal.Decimal `json:"taxRate"`
}

var one = decimal.NewFromInt(1)

// NewLineItem validates in and builds the line item.
func NewLineItem(in LineItemInput) (LineItem, error) {
	if !in.Type.Valid() {
		return LineItem{}, invalid("type", "must be Part or Labor")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return LineItem{}, invalid("description", "must not be empty")
	}
	if in.Quantity.IsNegative() {
		return LineItem{}, invalid("quantity", "must be >= 0")
	}
	if in.UnitPriceWithoutTax.IsNegative() {
		return LineItem{}, invalid("unitPriceWithoutTax", "must be >= 0")
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(one) {
		return LineItem{}, invalid("taxRate", "must be between 0 and 1")
	}
	return LineItem{
		Type:                in.Type,
		Description:         description,
		Reference:           strings.TrimSpace(in.Reference),
		Quantity:            in.Quantity,
		UnitPriceWithoutTax: in.UnitPriceWithoutTax,
		TaxRate:             in.TaxRate,
	}, nil
}

func (li LineItem) base() money.Money {
	return li.UnitPriceWithoutTax.Mul(li.Quantity)
}

// NetAmount is round(quantity × unitPrice).
func (li LineItem) NetAmount() money.Money {
	return li.base().Round()
}

// TaxAmount is round(quantity × unitPrice × taxRate).
func (li LineItem) TaxAmount() money.Money {
	return li.base().Mul(li.TaxRate).Round()
}

// TotalWithTax is round(quantity × unitPrice × (1 + taxRate)).
func (li LineItem) TotalWithTax() money.Money {
	return li.base().Mul(one.Add(li.TaxRate)).Round()
}

// Totals are the three final amounts of a work order or invoice.
type Totals struct {
	WithoutTax money.Money `json:"withoutTax"`
	Tax        money.Money `json:"tax"`
	WithTax    money.Money `json:"withTax"`
}

// ComputeTotals rounds every line before summing, so the total of a list is the sum of
// what each line shows. WithTax is WithoutTax + Tax, not the sum of line totals.
func ComputeTotals(items []LineItem) Totals {
	net, tax := money.Zero, money.Zero
	for _, li := range items {
		net = net.Add(li.NetAmount())
		tax = tax.Add(li.TaxAmount())
	}
	return Totals{WithoutTax: net, Tax: tax, WithTax: net.Add(tax)}
}

// CloneLineItems returns an independent copy of items.
func CloneLineItems(items []LineItem) []LineItem {
	return slices.Clone(items)
}
