package response

import (
	"time"

	"mecanica_oficina/internal/domain/entities"
)

type ClientResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	NIF       string           `json:"nif"`
	Phone     string           `json:"phone"`
	Email     string           `json:"email,omitempty"`
	Address   *AddressResponse `json:"address,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func FromClient(c entities.Client) ClientResponse {
	res := ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		NIF:       c.NIF,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Address != nil {
		res.Address = &AddressResponse{Street: c.Address.Street, City: c.Address.City, ZipCode: c.Address.ZipCode}
	}
	return res
}

type VehicleResponse struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"clientId"`
	LicensePlate string    `json:"licensePlate"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Kilometers   int       `json:"kilometers"`
	VIN          string    `json:"vin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func FromVehicle(v entities.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID,
		ClientID:     v.ClientID,
		LicensePlate: v.LicensePlate,
		Brand:        v.Brand,
		Model:        v.Model,
		Kilometers:   v.Kilometers,
		VIN:          v.VIN,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func FromVehicles(vs []entities.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromVehicle(v))
	}
	return out
}
