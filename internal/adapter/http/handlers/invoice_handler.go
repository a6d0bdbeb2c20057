package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"

	response "mecanica_oficina/internal/adapter/http/dto/response"
	"mecanica_oficina/internal/usecase"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles HTTP requests for invoices (faturas).
type InvoiceHandler struct {
	usecase usecase.IInvoiceUseCase
}

func NewInvoiceHandler(uc usecase.IInvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{usecase: uc}
}

// Emit godoc
// @Summary      Invoice a completed work order
// @Description  Snapshots client, vehicle and items into an immutable invoice and moves the order to Invoiced.
// @Tags         invoices
// @Produce      json
// @Param        X-User-ID  header    string  true  "Acting user"
// @Param        id         path      string  true  "Work order id"
// @Success      201        {object}  response.InvoiceResponse
// @Failure      409        {object}  pkg.HTTPError
// @Failure      422        {object}  pkg.HTTPError
// @Router       /work-orders/{id}/invoice [post]
func (h *InvoiceHandler) Emit(c *gin.Context) {
	emittedBy, ok := userID(c)
	if !ok {
		return
	}
	workOrderID := c.Param("id")
	log.Printf("[invoice][handler] emit start work_order_id=%s", workOrderID)

	inv, err := h.usecase.Emit(c.Request.Context(), workOrderID, emittedBy)
	if err != nil {
		log.Printf("[invoice][handler] emit failed work_order_id=%s err=%v", workOrderID, err)
		respondError(c, mapError(err))
		return
	}
	log.Printf("[invoice][handler] emit success work_order_id=%s invoice_id=%s number=%s", workOrderID, inv.ID, inv.Number)
	c.JSON(http.StatusCreated, response.FromInvoice(inv))
}

// GetByID godoc
// @Summary  Get an invoice
// @Tags     invoices
// @Produce  json
// @Param    id   path      string  true  "Invoice id"
// @Success  200  {object}  response.InvoiceResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	inv, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromInvoice(inv))
}

// GetByNumber godoc
// @Summary  Get an invoice by its number
// @Tags     invoices
// @Produce  json
// @Param    number  path      string  true  "Invoice number, URL-encoded (FT%202025%2F1)"
// @Success  200     {object}  response.InvoiceResponse
// @Router   /invoices/number/{number} [get]
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number := strings.TrimPrefix(c.Param("number"), "/")
	inv, err := h.usecase.GetByNumber(c.Request.Context(), number)
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromInvoice(inv))
}

// MarkPaid godoc
// @Summary  Mark an emitted invoice as paid
// @Tags     invoices
// @Produce  json
// @Param    id   path      string  true  "Invoice id"
// @Success  200  {object}  response.InvoiceResponse
// @Failure  422  {object}  pkg.HTTPError
// @Router   /invoices/{id}/pay [patch]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	inv, err := h.usecase.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("[invoice][handler] pay failed id=%s err=%v", c.Param("id"), err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromInvoice(inv))
}

// Cancel godoc
// @Summary  Cancel an emitted invoice
// @Tags     invoices
// @Produce  json
// @Param    id   path      string  true  "Invoice id"
// @Success  200  {object}  response.InvoiceResponse
// @Failure  422  {object}  pkg.HTTPError
// @Router   /invoices/{id}/cancel [patch]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	inv, err := h.usecase.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("[invoice][handler] cancel failed id=%s err=%v", c.Param("id"), err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromInvoice(inv))
}

// PDF godoc
// @Summary  Download the invoice as PDF
// @Tags     invoices
// @Produce  application/pdf
// @Param    id   path  string  true  "Invoice id"
// @Success  200  {file}  binary
// @Failure  404  {object}  pkg.HTTPError
// @Router   /invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	var buf bytes.Buffer
	inv, err := h.usecase.RenderPDF(c.Request.Context(), c.Param("id"), &buf)
	if err != nil {
		log.Printf("[invoice][handler] pdf failed id=%s err=%v", c.Param("id"), err)
		respondError(c, mapError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, pdfFileName(inv.Number)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// pdfFileName turns "FT 2025/1" into "FT-2025-1".
func pdfFileName(number string) string {
	return strings.NewReplacer(" ", "-", "/", "-").Replace(number)
}
