package handlers

import (
	"log"
	"net/http"

	request "mecanica_oficina/internal/adapter/http/dto/request"
	response "mecanica_oficina/internal/adapter/http/dto/response"
	"mecanica_oficina/internal/usecase"

	"github.com/gin-gonic/gin"
)

// CatalogHandler handles HTTP requests for clients and vehicles.
type CatalogHandler struct {
	usecase usecase.ICatalogUseCase
}

func NewCatalogHandler(uc usecase.ICatalogUseCase) *CatalogHandler {
	return &CatalogHandler{usecase: uc}
}

// CreateClient godoc
// @Summary  Register a client
// @Tags     clients
// @Accept   json
// @Produce  json
// @Param    body  body      request.CreateClientRequest  true  "Client"
// @Success  201   {object}  response.ClientResponse
// @Failure  409   {object}  pkg.HTTPError
// @Router   /clients [post]
func (h *CatalogHandler) CreateClient(c *gin.Context) {
	var payload request.CreateClientRequest
	if !bindJSON(c, &payload) {
		return
	}
	client, err := h.usecase.CreateClient(c.Request.Context(), payload.ToEntity())
	if err != nil {
		log.Printf("[catalog][handler] create-client failed err=%v", err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromClient(client))
}

// GetClient godoc
// @Summary  Get a client
// @Tags     clients
// @Produce  json
// @Param    id   path      string  true  "Client id"
// @Success  200  {object}  response.ClientResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /clients/{id} [get]
func (h *CatalogHandler) GetClient(c *gin.Context) {
	client, err := h.usecase.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromClient(client))
}

// UpdateClient godoc
// @Summary  Update a client's contact data
// @Tags     clients
// @Accept   json
// @Produce  json
// @Param    id    path      string                       true  "Client id"
// @Param    body  body      request.UpdateClientRequest  true  "Changes"
// @Success  200   {object}  response.ClientResponse
// @Router   /clients/{id} [patch]
func (h *CatalogHandler) UpdateClient(c *gin.Context) {
	var payload request.UpdateClientRequest
	if !bindJSON(c, &payload) {
		return
	}
	client, err := h.usecase.UpdateClient(c.Request.Context(), c.Param("id"), payload.ToChanges())
	if err != nil {
		log.Printf("[catalog][handler] update-client failed id=%s err=%v", c.Param("id"), err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromClient(client))
}

// ListClientVehicles godoc
// @Summary  List the vehicles of a client
// @Tags     clients
// @Produce  json
// @Param    id   path     string  true  "Client id"
// @Success  200  {array}  response.VehicleResponse
// @Router   /clients/{id}/vehicles [get]
func (h *CatalogHandler) ListClientVehicles(c *gin.Context) {
	vehicles, err := h.usecase.ListVehiclesByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromVehicles(vehicles))
}

// CreateVehicle godoc
// @Summary  Register a vehicle
// @Tags     vehicles
// @Accept   json
// @Produce  json
// @Param    body  body      request.CreateVehicleRequest  true  "Vehicle"
// @Success  201   {object}  response.VehicleResponse
// @Failure  409   {object}  pkg.HTTPError
// @Router   /vehicles [post]
func (h *CatalogHandler) CreateVehicle(c *gin.Context) {
	var payload request.CreateVehicleRequest
	if !bindJSON(c, &payload) {
		return
	}
	vehicle, err := h.usecase.CreateVehicle(c.Request.Context(), payload.ToEntity())
	if err != nil {
		log.Printf("[catalog][handler] create-vehicle failed client_id=%s err=%v", payload.ClientID, err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromVehicle(vehicle))
}

// GetVehicle godoc
// @Summary  Get a vehicle
// @Tags     vehicles
// @Produce  json
// @Param    id   path      string  true  "Vehicle id"
// @Success  200  {object}  response.VehicleResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /vehicles/{id} [get]
func (h *CatalogHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.usecase.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromVehicle(vehicle))
}

// UpdateVehicle godoc
// @Summary  Record a new odometer reading
// @Tags     vehicles
// @Accept   json
// @Produce  json
// @Param    id    path      string                                  true  "Vehicle id"
// @Param    body  body      request.UpdateVehicleKilometersRequest  true  "Kilometers"
// @Success  200   {object}  response.VehicleResponse
// @Router   /vehicles/{id} [patch]
func (h *CatalogHandler) UpdateVehicle(c *gin.Context) {
	var payload request.UpdateVehicleKilometersRequest
	if !bindJSON(c, &payload) {
		return
	}
	vehicle, err := h.usecase.UpdateVehicleKilometers(c.Request.Context(), c.Param("id"), *payload.Kilometers)
	if err != nil {
		log.Printf("[catalog][handler] update-vehicle failed id=%s err=%v", c.Param("id"), err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromVehicle(vehicle))
}
