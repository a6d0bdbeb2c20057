package pdf

import (
	"fmt"
	"io"
	"log"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceRenderer prints an issued invoice as an A4 PDF. Everything printed comes from the
// invoice snapshot, so a re-render always matches the fiscal document.
type InvoiceRenderer struct {
	// Issuer is printed in the header, e.g. the workshop's trade name.
	Issuer string
}

var _ interfaces.IInvoiceRenderer = (*InvoiceRenderer)(nil)

func NewInvoiceRenderer(issuer string) *InvoiceRenderer {
	return &InvoiceRenderer{Issuer: issuer}
}

func (r *InvoiceRenderer) Render(w io.Writer, inv entities.Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(inv.Number, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(120, 10, tr(fmt.Sprintf("Fatura %s", inv.Number)))
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(70, 10, tr(r.Issuer), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, tr("Data: "+inv.InvoiceDate.Format("2006-01-02")))
	pdf.CellFormat(95, 6, tr("Estado: "+string(inv.Status)), "", 1, "R", false, 0, "")
	pdf.Cell(95, 6, tr("Ordem de serviço: "+inv.WorkOrderNumber))
	pdf.Ln(10)

	// Client on the left, vehicle on the right.
	top := pdf.GetY()
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, "Cliente")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{
		inv.ClientDetails.Name,
		"NIF: " + inv.ClientDetails.NIF,
		inv.ClientDetails.Address.Street,
		joinNonEmpty(inv.ClientDetails.Address.ZipCode, inv.ClientDetails.Address.City),
	} {
		if line == "" {
			continue
		}
		pdf.Cell(95, 5, tr(line))
		pdf.Ln(5)
	}
	bottom := pdf.GetY()

	pdf.SetXY(105, top)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, tr("Veículo"))
	pdf.SetXY(105, top+6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 5, tr("Matrícula: "+inv.VehicleDetails.LicensePlate))
	pdf.SetXY(105, top+11)
	pdf.Cell(95, 5, tr(joinNonEmpty(inv.VehicleDetails.Brand, inv.VehicleDetails.Model)))

	pdf.SetXY(10, max(bottom, top+16)+6)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(18, 8, "Tipo", "1", 0, "C", false, 0, "")
	pdf.CellFormat(72, 8, tr("Descrição"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 8, "Qtd", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 8, tr("Preço unit."), "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "IVA", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, li := range inv.Items {
		description := li.Description
		if li.Reference != "" {
			description = fmt.Sprintf("%s (%s)", li.Description, li.Reference)
		}
		pdf.CellFormat(18, 7, tr(itemTypeLabel(li.Type)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(72, 7, tr(description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 7, li.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 7, li.UnitPriceWithoutTax.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 7, li.TaxRate.Shift(2).String()+"%", "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, li.TotalWithTax().String(), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(155, 7, "Total sem IVA:")
	pdf.CellFormat(35, 7, inv.Totals.WithoutTax.String(), "", 1, "R", false, 0, "")
	pdf.Cell(155, 7, "IVA:")
	pdf.CellFormat(35, 7, inv.Totals.Tax.String(), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(155, 9, "Total:")
	pdf.CellFormat(35, 9, tr(inv.Totals.WithTax.String()+" €"), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		log.Printf("[invoice][pdf] render failed invoice_id=%s err=%v", inv.ID, err)
		return err
	}
	return nil
}

func itemTypeLabel(t entities.LineItemType) string {
	if t == entities.LineItemTypeLabor {
		return "Serviço"
	}
	return "Peça"
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
