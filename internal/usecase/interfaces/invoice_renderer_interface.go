package interfaces

//go:generate mockgen -source=invoice_renderer_interface.go -destination=mocks/invoice_renderer_interface_mock.go -package=mock_interfaces

import (
	"io"

	"mecanica_oficina/internal/domain/entities"
)

// IInvoiceRenderer writes a printable document of an issued invoice.
type IInvoiceRenderer interface {
	Render(w io.Writer, inv entities.Invoice) error
}
