package request

import (
	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase"
)

type AddressRequest struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	ZipCode string `json:"zipCode" binding:"required"`
}

func (a *AddressRequest) toEntity() *entities.Address {
	if a == nil {
		return nil
	}
	return &entities.Address{Street: a.Street, City: a.City, ZipCode: a.ZipCode}
}

type CreateClientRequest struct {
	Name    string          `json:"name" binding:"required"`
	NIF     string          `json:"nif" binding:"required,numeric,len=9"`
	Phone   string          `json:"phone" binding:"required"`
	Email   string          `json:"email" binding:"omitempty,email"`
	Address *AddressRequest `json:"address" binding:"omitempty"`
}

func (r CreateClientRequest) ToEntity() entities.Client {
	return entities.Client{
		Name:    r.Name,
		NIF:     r.NIF,
		Phone:   r.Phone,
		Email:   r.Email,
		Address: r.Address.toEntity(),
	}
}

// UpdateClientRequest only touches the fields present in the body. The NIF cannot change.
type UpdateClientRequest struct {
	Name    *string         `json:"name" binding:"omitempty,min=1"`
	Phone   *string         `json:"phone" binding:"omitempty,min=1"`
	Email   *string         `json:"email" binding:"omitempty,email"`
	Address *AddressRequest `json:"address" binding:"omitempty"`
}

func (r UpdateClientRequest) ToChanges() usecase.ClientChanges {
	return usecase.ClientChanges{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Address: r.Address.toEntity(),
	}
}

type CreateVehicleRequest struct {
	ClientID     string `json:"clientId" binding:"required"`
	LicensePlate string `json:"licensePlate" binding:"required"`
	Brand        string `json:"brand" binding:"required"`
	Model        string `json:"model" binding:"required"`
	Kilometers   int    `json:"kilometers" binding:"gte=0"`
	VIN          string `json:"vin" binding:"required,len=17,alphanum"`
}

func (r CreateVehicleRequest) ToEntity() entities.Vehicle {
	return entities.Vehicle{
		ClientID:     r.ClientID,
		LicensePlate: r.LicensePlate,
		Brand:        r.Brand,
		Model:        r.Model,
		Kilometers:   r.Kilometers,
		VIN:          r.VIN,
	}
}

type UpdateVehicleKilometersRequest struct {
	Kilometers *int `json:"kilometers" binding:"required,gte=0"`
}
