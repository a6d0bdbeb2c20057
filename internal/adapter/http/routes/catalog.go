package routes

import (
	"mecanica_oficina/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathClients  = "/clients"
	PathVehicles = "/vehicles"
)

func addCatalogRoutes(rg *gin.RouterGroup, h *handlers.CatalogHandler) {
	clients := rg.Group(PathClients)
	{
		clients.POST("", h.CreateClient)
		clients.GET("/:id", h.GetClient)
		clients.PATCH("/:id", h.UpdateClient)
		clients.GET("/:id/vehicles", h.ListClientVehicles)
	}

	vehicles := rg.Group(PathVehicles)
	{
		vehicles.POST("", h.CreateVehicle)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PATCH("/:id", h.UpdateVehicle)
	}
}
