package routes

import (
	"mecanica_oficina/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const PathWorkOrders = "/work-orders"

func addWorkOrderRoutes(rg *gin.RouterGroup, h *handlers.WorkOrderHandler) {
	rg.GET(PathVehicles+"/:id"+PathWorkOrders, h.ListByVehicle)

	orders := rg.Group(PathWorkOrders)
	{
		orders.POST("", h.Create)
		orders.GET("", h.ListByStatus)
		orders.GET("/:id", h.GetByID)
		orders.GET("/number/:number", h.GetByNumber)

		orders.PATCH("/:id/diagnostic", h.RegisterDiagnostic)
		orders.PATCH("/:id/observations", h.UpdateObservations)
		orders.PATCH("/:id/mechanics", h.AssignMechanics)

		orders.PATCH("/:id/approve", h.Approve)
		orders.PATCH("/:id/decline", h.Decline)
		orders.PATCH("/:id/start", h.Start)
		orders.PATCH("/:id/awaiting-parts", h.AwaitingParts)
		orders.PATCH("/:id/complete", h.Complete)
		orders.PATCH("/:id/cancel", h.Cancel)
		orders.PATCH("/:id/deliver", h.Deliver)

		orders.POST("/:id/items", h.AddItem)
		orders.PUT("/:id/items/:index", h.UpdateItem)
		orders.DELETE("/:id/items/:index", h.RemoveItem)
	}
}
