package response

import (
	"time"

	"mecanica_oficina/internal/domain/entities"
)

type AddressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

type ClientDetailsResponse struct {
	Name    string          `json:"name"`
	NIF     string          `json:"nif"`
	Address AddressResponse `json:"address"`
}

type VehicleDetailsResponse struct {
	LicensePlate string `json:"licensePlate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
}

type InvoiceResponse struct {
	ID              string                 `json:"id"`
	InvoiceNumber   string                 `json:"invoiceNumber"`
	InvoiceDate     time.Time              `json:"invoiceDate"`
	Status          string                 `json:"status"`
	WorkOrderID     string                 `json:"workOrderId"`
	WorkOrderNumber string                 `json:"workOrderNumber"`
	ClientID        string                 `json:"clientId"`
	EmittedByID     string                 `json:"emittedById"`
	ClientDetails   ClientDetailsResponse  `json:"clientDetails"`
	VehicleDetails  VehicleDetailsResponse `json:"vehicleDetails"`
	Items           []LineItemResponse     `json:"items"`
	TotalsResponse
	PaidAt     *time.Time `json:"paidAt,omitempty"`
	CanceledAt *time.Time `json:"canceledAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func FromInvoice(inv entities.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.Number,
		InvoiceDate:     inv.InvoiceDate,
		Status:          string(inv.Status),
		WorkOrderID:     inv.WorkOrderID,
		WorkOrderNumber: inv.WorkOrderNumber,
		ClientID:        inv.ClientID,
		EmittedByID:     inv.EmittedByID,
		ClientDetails: ClientDetailsResponse{
			Name: inv.ClientDetails.Name,
			NIF:  inv.ClientDetails.NIF,
			Address: AddressResponse{
				Street:  inv.ClientDetails.Address.Street,
				City:    inv.ClientDetails.Address.City,
				ZipCode: inv.ClientDetails.Address.ZipCode,
			},
		},
		VehicleDetails: VehicleDetailsResponse{
			LicensePlate: inv.VehicleDetails.LicensePlate,
			Brand:        inv.VehicleDetails.Brand,
			Model:        inv.VehicleDetails.Model,
		},
		Items:          fromLineItems(inv.Items),
		TotalsResponse: fromTotals(inv.Totals),
		PaidAt:         inv.PaidAt,
		CanceledAt:     inv.CanceledAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}
