package routes

import (
	"mecanica_oficina/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathInvoices = "/invoices"
	PathPayments = "/payments"
)

func addInvoiceRoutes(rg *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler, paymentHandler *handlers.InvoicePaymentHandler) {
	rg.POST(PathWorkOrders+"/:id/invoice", invoiceHandler.Emit)

	invoices := rg.Group(PathInvoices)
	{
		invoices.GET("/:id", invoiceHandler.GetByID)
		// Invoice numbers carry a slash (FT 2025/1), so the number is a catch-all.
		invoices.GET("/number/*number", invoiceHandler.GetByNumber)
		invoices.PATCH("/:id/pay", invoiceHandler.MarkPaid)
		invoices.PATCH("/:id/cancel", invoiceHandler.Cancel)
		invoices.GET("/:id/pdf", invoiceHandler.PDF)

		invoices.POST("/:id/payments", paymentHandler.Pay)
		invoices.GET("/:id/payments", paymentHandler.List)
	}

	rg.GET(PathPayments+"/:id", paymentHandler.GetByID)
}
