package entities

import (
	"strings"
	"time"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

// Client is the live operational record of a workshop customer.
//
// Storage model (DynamoDB):
//   - PK: id
//   - uniques: client_nif#<nif>
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NIF       string    `json:"nif"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate trims c in place and checks the required fields.
func (c *Client) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.NIF = strings.TrimSpace(c.NIF)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	switch {
	case c.Name == "":
		return invalid("name", "must not be empty")
	case c.NIF == "":
		return invalid("nif", "must not be empty")
	case c.Phone == "":
		return invalid("phone", "must not be empty")
	}
	return nil
}

// VINLength is the fixed length of a vehicle identification number.
const VINLength = 17

// Vehicle belongs to one client and may have many work orders over time.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI client_id-index: client_id
//   - uniques: vehicle_plate#<license_plate>, vehicle_vin#<vin>
type Vehicle struct {
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

func (v *Vehicle) Validate() error {
	v.ClientID = strings.TrimSpace(v.ClientID)
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(v.LicensePlate))
	v.Brand = strings.TrimSpace(v.Brand)
	v.Model = strings.TrimSpace(v.Model)
	v.VIN = strings.ToUpper(strings.TrimSpace(v.VIN))
	switch {
	case v.ClientID == "":
		return invalid("clientId", "must not be empty")
	case v.LicensePlate == "":
		return invalid("licensePlate", "must not be empty")
	case v.Brand == "":
		return invalid("brand", "must not be empty")
	case v.Model == "":
		return invalid("model", "must not be empty")
	case v.Kilometers < 0:
		return invalid("kilometers", "must be >= 0")
	case len(v.VIN) != VINLength:
		return invalid("vin", "must have 17 characters")
	}
	return nil
}
