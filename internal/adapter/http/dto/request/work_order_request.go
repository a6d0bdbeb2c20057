package request

import (
	"strings"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"
	"mecanica_oficina/internal/usecase"

	"github.com/shopspring/decimal"
)

type CreateWorkOrderRequest struct {
	ClientID           string   `json:"clientId" binding:"required"`
	VehicleID          string   `json:"vehicleId" binding:"required"`
	ClientObservations string   `json:"clientObservations"`
	MechanicIDs        []string `json:"mechanicIds" binding:"omitempty,dive,required"`
}

func (r CreateWorkOrderRequest) ToInput(createdByID string) usecase.CreateWorkOrderInput {
	return usecase.CreateWorkOrderInput{
		ClientID:           r.ClientID,
		VehicleID:          r.VehicleID,
		CreatedByID:        createdByID,
		ClientObservations: r.ClientObservations,
		MechanicIDs:        r.MechanicIDs,
	}
}

type DiagnosticRequest struct {
	Diagnostic string `json:"diagnostic" binding:"required"`
}

type ObservationsRequest struct {
	ClientObservations string `json:"clientObservations" binding:"required"`
}

type MechanicsRequest struct {
	MechanicIDs []string `json:"mechanicIds" binding:"required,dive,required"`
}

// LineItemRequest carries amounts as decimal strings so no precision is lost in transit.
type LineItemRequest struct {
	Type                string `json:"type" binding:"required,oneof=Part Labor"`
	Description         string `json:"description" binding:"required"`
	Reference           string `json:"reference"`
	Quantity            string `json:"quantity" binding:"required,decimal_gte0"`
	UnitPriceWithoutTax string `json:"unitPriceWithoutTax" binding:"required,decimal_gte0"`
	TaxRate             string `json:"taxRate" binding:"required,rate"`
}

func (r LineItemRequest) ToInput() (entities.LineItemInput, error) {
	qty, err := decimal.NewFromString(strings.TrimSpace(r.Quantity))
	if err != nil {
		return entities.LineItemInput{}, &entities.ValidationError{Field: "quantity", Reason: "must be a decimal number"}
	}
	price, err := money.Parse(strings.TrimSpace(r.UnitPriceWithoutTax))
	if err != nil {
		return entities.LineItemInput{}, &entities.ValidationError{Field: "unitPriceWithoutTax", Reason: "must be a decimal number"}
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(r.TaxRate))
	if err != nil {
		return entities.LineItemInput{}, &entities.ValidationError{Field: "taxRate", Reason: "must be a decimal number"}
	}
	return entities.LineItemInput{
		Type:                entities.LineItemType(r.Type),
		Description:         r.Description,
		Reference:           r.Reference,
		Quantity:            qty,
		UnitPriceWithoutTax: price,
		TaxRate:             rate,
	}, nil
}
