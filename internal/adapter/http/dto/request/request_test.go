package request

import (
	"errors"
	"testing"

	"mecanica_oficina/internal/domain/entities"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func validItem() LineItemRequest {
	return LineItemRequest{
		Type:                "Part",
		Description:         "Filtro de óleo",
		Quantity:            "2",
		UnitPriceWithoutTax: "10.005",
		TaxRate:             "0.23",
	}
}

func failedFields(err error) map[string]bool {
	out := map[string]bool{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = true
		}
	}
	return out
}

func TestLineItemRequest_Validation(t *testing.T) {
	RegisterValidators()

	tests := []struct {
		name  string
		edit  func(*LineItemRequest)
		field string
	}{
		{"valid", func(*LineItemRequest) {}, ""},
		{"unknown type", func(r *LineItemRequest) { r.Type = "Fee" }, "Type"},
		{"negative quantity", func(r *LineItemRequest) { r.Quantity = "-1" }, "Quantity"},
		{"price not a number", func(r *LineItemRequest) { r.UnitPriceWithoutTax = "10,50" }, "UnitPriceWithoutTax"},
		{"rate above one", func(r *LineItemRequest) { r.TaxRate = "23" }, "TaxRate"},
		{"rate missing", func(r *LineItemRequest) { r.TaxRate = "" }, "TaxRate"},
		{"zero rate allowed", func(r *LineItemRequest) { r.TaxRate = "0" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validItem()
			tt.edit(&req)
			err := binding.Validator.ValidateStruct(req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				return
			}
			if !failedFields(err)[tt.field] {
				t.Fatalf("expected %s to fail, got %v", tt.field, err)
			}
		})
	}
}

func TestLineItemRequest_ToInput(t *testing.T) {
	in, err := validItem().ToInput()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if in.Type != entities.LineItemTypePart || in.UnitPriceWithoutTax.Exact() != "10.005" || in.Quantity.String() != "2" {
		t.Fatalf("unexpected input: %+v", in)
	}

	bad := validItem()
	bad.Quantity = "two"
	_, err = bad.ToInput()
	if !errors.Is(err, entities.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateClientRequest_Validation(t *testing.T) {
	RegisterValidators()

	req := CreateClientRequest{Name: "Ana", NIF: "123456789", Phone: "912345678"}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if req.ToEntity().Address != nil {
		t.Fatalf("expected no address")
	}

	req.NIF = "12345"
	req.Email = "not-an-email"
	fields := failedFields(binding.Validator.ValidateStruct(req))
	if !fields["NIF"] || !fields["Email"] {
		t.Fatalf("expected NIF and Email to fail, got %v", fields)
	}
}

func TestUpdateClientRequest_ToChanges(t *testing.T) {
	name := "Ana Ferreira"
	changes := UpdateClientRequest{
		Name:    &name,
		Address: &AddressRequest{Street: "Rua Nova 1", City: "Braga", ZipCode: "4700-001"},
	}.ToChanges()
	if changes.Name == nil || *changes.Name != name || changes.Phone != nil {
		t.Fatalf("unexpected changes: %+v", changes)
	}
	if changes.Address == nil || changes.Address.City != "Braga" {
		t.Fatalf("unexpected address: %+v", changes.Address)
	}
}

func TestCreateVehicleRequest_Validation(t *testing.T) {
	RegisterValidators()

	req := CreateVehicleRequest{ClientID: "c-1", LicensePlate: "AA-00-BB", Brand: "Renault", Model: "Clio", VIN: "VF1RFB00000000001"}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	req.VIN = "short"
	req.Kilometers = -1
	fields := failedFields(binding.Validator.ValidateStruct(req))
	if !fields["VIN"] || !fields["Kilometers"] {
		t.Fatalf("expected VIN and Kilometers to fail, got %v", fields)
	}
}

func TestUpdateVehicleKilometersRequest_RequiresValue(t *testing.T) {
	RegisterValidators()

	if err := binding.Validator.ValidateStruct(UpdateVehicleKilometersRequest{}); !failedFields(err)["Kilometers"] {
		t.Fatalf("expected Kilometers to be required, got %v", err)
	}
	zero := 0
	if err := binding.Validator.ValidateStruct(UpdateVehicleKilometersRequest{Kilometers: &zero}); err != nil {
		t.Fatalf("zero kilometers should be accepted: %v", err)
	}
}
