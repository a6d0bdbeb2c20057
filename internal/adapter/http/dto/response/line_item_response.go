package response

import "mecanica_oficina/internal/domain/entities"

// LineItemResponse carries every amount as a 2-place decimal string except the inputs,
// which keep their full precision.
type LineItemResponse struct {
	Index               int    `json:"index"`
	Type                string `json:"type"`
	Description         string `json:"description"`
	Reference           string `json:"reference,omitempty"`
	Quantity            string `json:"quantity"`
	UnitPriceWithoutTax string `json:"unitPriceWithoutTax"`
	TaxRate             string `json:"taxRate"`
	LineTotalWithoutTax string `json:"lineTotalWithoutTax"`
	LineTax             string `json:"lineTax"`
	LineTotalWithTax    string `json:"lineTotalWithTax"`
}

type TotalsResponse struct {
	TotalWithoutTax string `json:"totalWithoutTax"`
	TotalTax        string `json:"totalTax"`
	TotalWithTax    string `json:"totalWithTax"`
}

func fromLineItems(items []entities.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for i, li := range items {
		out = append(out, LineItemResponse{
			Index:               i,
			Type:                string(li.Type),
			Description:         li.Description,
			Reference:           li.Reference,
			Quantity:            li.Quantity.String(),
			UnitPriceWithoutTax: li.UnitPriceWithoutTax.Exact(),
			TaxRate:             li.TaxRate.String(),
			LineTotalWithoutTax: li.NetAmount().String(),
			LineTax:             li.TaxAmount().String(),
			LineTotalWithTax:    li.TotalWithTax().String(),
		})
	}
	return out
}

func fromTotals(t entities.Totals) TotalsResponse {
	return TotalsResponse{
		TotalWithoutTax: t.WithoutTax.String(),
		TotalTax:        t.Tax.String(),
		TotalWithTax:    t.WithTax.String(),
	}
}
