package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	request "mecanica_oficina/internal/adapter/http/dto/request"
	response "mecanica_oficina/internal/adapter/http/dto/response"
	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase"

	"github.com/gin-gonic/gin"
)

// WorkOrderHandler handles HTTP requests for work orders (ordens de serviço).
type WorkOrderHandler struct {
	usecase usecase.IWorkOrderUseCase
}

func NewWorkOrderHandler(uc usecase.IWorkOrderUseCase) *WorkOrderHandler {
	return &WorkOrderHandler{usecase: uc}
}

// Create godoc
// @Summary      Check in a vehicle
// @Description  Opens a work order for the vehicle. Fails with 409 while another order is active.
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                          true  "Acting user"
// @Param        body       body    request.CreateWorkOrderRequest  true  "Check-in"
// @Success      201  {object}  response.WorkOrderResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      409  {object}  pkg.HTTPError
// @Router       /work-orders [post]
func (h *WorkOrderHandler) Create(c *gin.Context) {
	createdBy, ok := userID(c)
	if !ok {
		return
	}
	var payload request.CreateWorkOrderRequest
	if !bindJSON(c, &payload) {
		return
	}

	wo, err := h.usecase.Create(c.Request.Context(), payload.ToInput(createdBy))
	if err != nil {
		log.Printf("[workorder][handler] create failed vehicle_id=%s err=%v", payload.VehicleID, err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromWorkOrder(wo))
}

// GetByID godoc
// @Summary  Get a work order
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /work-orders/{id} [get]
func (h *WorkOrderHandler) GetByID(c *gin.Context) {
	wo, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromWorkOrder(wo))
}

// GetByNumber godoc
// @Summary  Get a work order by its number
// @Tags     work-orders
// @Produce  json
// @Param    number  path      string  true  "Work order number, e.g. 2025-0001"
// @Success  200     {object}  response.WorkOrderResponse
// @Failure  404     {object}  pkg.HTTPError
// @Router   /work-orders/number/{number} [get]
func (h *WorkOrderHandler) GetByNumber(c *gin.Context) {
	wo, err := h.usecase.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromWorkOrder(wo))
}

// ListByVehicle godoc
// @Summary  List the work orders of a vehicle
// @Tags     work-orders
// @Produce  json
// @Param    id   path     string  true  "Vehicle id"
// @Success  200  {array}  response.WorkOrderResponse
// @Router   /vehicles/{id}/work-orders [get]
func (h *WorkOrderHandler) ListByVehicle(c *gin.Context) {
	wos, err := h.usecase.ListByVehicleID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromWorkOrders(wos))
}

// ListByStatus godoc
// @Summary  List work orders in a status, oldest first
// @Tags     work-orders
// @Produce  json
// @Param    status  query    string  true   "Work order status, e.g. Completed"
// @Param    limit   query    int     false  "Maximum number of orders"
// @Success  200     {array}  response.WorkOrderResponse
// @Failure  400     {object}  pkg.HTTPError
// @Router   /work-orders [get]
func (h *WorkOrderHandler) ListByStatus(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, errInvalidRequest.WithDetails("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	wos, err := h.usecase.ListByStatus(c.Request.Context(), entities.WorkOrderStatus(c.Query("status")), limit)
	if err != nil {
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromWorkOrders(wos))
}

// RegisterDiagnostic godoc
// @Summary  Register the diagnostic
// @Tags     work-orders
// @Accept   json
// @Produce  json
// @Param    id    path      string                     true  "Work order id"
// @Param    body  body      request.DiagnosticRequest  true  "Diagnostic"
// @Success  200   {object}  response.WorkOrderResponse
// @Failure  422   {object}  pkg.HTTPError
// @Router   /work-orders/{id}/diagnostic [patch]
func (h *WorkOrderHandler) RegisterDiagnostic(c *gin.Context) {
	var payload request.DiagnosticRequest
	if !bindJSON(c, &payload) {
		return
	}
	h.respond(c, "diagnostic")(h.usecase.RegisterDiagnostic(c.Request.Context(), c.Param("id"), payload.Diagnostic))
}

// UpdateObservations godoc
// @Summary  Update the client observations of the quote
// @Tags     work-orders
// @Accept   json
// @Produce  json
// @Param    id    path      string                       true  "Work order id"
// @Param    body  body      request.ObservationsRequest  true  "Observations"
// @Success  200   {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/observations [patch]
func (h *WorkOrderHandler) UpdateObservations(c *gin.Context) {
	var payload request.ObservationsRequest
	if !bindJSON(c, &payload) {
		return
	}
	h.respond(c, "observations")(h.usecase.UpdateQuoteObservations(c.Request.Context(), c.Param("id"), payload.ClientObservations))
}

// AssignMechanics godoc
// @Summary  Replace the assigned mechanics
// @Tags     work-orders
// @Accept   json
// @Produce  json
// @Param    id    path      string                    true  "Work order id"
// @Param    body  body      request.MechanicsRequest  true  "Mechanics"
// @Success  200   {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/mechanics [patch]
func (h *WorkOrderHandler) AssignMechanics(c *gin.Context) {
	var payload request.MechanicsRequest
	if !bindJSON(c, &payload) {
		return
	}
	h.respond(c, "mechanics")(h.usecase.AssignMechanics(c.Request.Context(), c.Param("id"), payload.MechanicIDs))
}

// Approve godoc
// @Summary  Approve the quote
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Failure  422  {object}  pkg.HTTPError
// @Router   /work-orders/{id}/approve [patch]
func (h *WorkOrderHandler) Approve(c *gin.Context) {
	h.transition(c, "approve", h.usecase.ApproveQuote)
}

// Decline godoc
// @Summary  Decline the quote
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/decline [patch]
func (h *WorkOrderHandler) Decline(c *gin.Context) {
	h.transition(c, "decline", h.usecase.DeclineQuote)
}

// Start godoc
// @Summary  Begin execution
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/start [patch]
func (h *WorkOrderHandler) Start(c *gin.Context) {
	h.transition(c, "start", h.usecase.BeginExecution)
}

// AwaitingParts godoc
// @Summary  Pause execution while parts arrive
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/awaiting-parts [patch]
func (h *WorkOrderHandler) AwaitingParts(c *gin.Context) {
	h.transition(c, "awaiting-parts", h.usecase.MarkAwaitingParts)
}

// Complete godoc
// @Summary  Complete the work
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/complete [patch]
func (h *WorkOrderHandler) Complete(c *gin.Context) {
	h.transition(c, "complete", h.usecase.Complete)
}

// Cancel godoc
// @Summary  Cancel the work order
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/cancel [patch]
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.usecase.Cancel)
}

// Deliver godoc
// @Summary  Deliver the vehicle
// @Tags     work-orders
// @Produce  json
// @Param    id   path      string  true  "Work order id"
// @Success  200  {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/deliver [patch]
func (h *WorkOrderHandler) Deliver(c *gin.Context) {
	h.transition(c, "deliver", h.usecase.Deliver)
}

// AddItem godoc
// @Summary  Add a part or labor line
// @Tags     work-orders
// @Accept   json
// @Produce  json
// @Param    id    path      string                   true  "Work order id"
// @Param    body  body      request.LineItemRequest  true  "Line item"
// @Success  201   {object}  response.WorkOrderResponse
// @Failure  400   {object}  pkg.HTTPError
// @Router   /work-orders/{id}/items [post]
func (h *WorkOrderHandler) AddItem(c *gin.Context) {
	in, ok := bindLineItem(c)
	if !ok {
		return
	}
	wo, err := h.usecase.AddItem(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		log.Printf("[workorder][handler] add-item failed id=%s err=%v", c.Param("id"), err)
		respondError(c, mapError(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromWorkOrder(wo))
}

// UpdateItem godoc
// @Summary  Replace a line item
// @Tags     work-orders
// @Accept   json
// @Produce  json
// @Param    id     path      string                   true  "Work order id"
// @Param    index  path      int                      true  "Line index"
// @Param    body   body      request.LineItemRequest  true  "Line item"
// @Success  200    {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/items/{index} [put]
func (h *WorkOrderHandler) UpdateItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	in, ok := bindLineItem(c)
	if !ok {
		return
	}
	h.respond(c, "update-item")(h.usecase.UpdateItem(c.Request.Context(), c.Param("id"), index, in))
}

// RemoveItem godoc
// @Summary  Remove a line item
// @Tags     work-orders
// @Produce  json
// @Param    id     path      string  true  "Work order id"
// @Param    index  path      int     true  "Line index"
// @Success  200    {object}  response.WorkOrderResponse
// @Router   /work-orders/{id}/items/{index} [delete]
func (h *WorkOrderHandler) RemoveItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	h.respond(c, "remove-item")(h.usecase.RemoveItem(c.Request.Context(), c.Param("id"), index))
}

func (h *WorkOrderHandler) transition(
	c *gin.Context,
	name string,
	apply func(ctx context.Context, id string) (entities.WorkOrder, error),
) {
	h.respond(c, name)(apply(c.Request.Context(), c.Param("id")))
}

// respond writes the outcome of a work order mutation.
func (h *WorkOrderHandler) respond(c *gin.Context, op string) func(entities.WorkOrder, error) {
	return func(wo entities.WorkOrder, err error) {
		if err != nil {
			log.Printf("[workorder][handler] %s failed id=%s err=%v", op, c.Param("id"), err)
			respondError(c, mapError(err))
			return
		}
		c.JSON(http.StatusOK, response.FromWorkOrder(wo))
	}
}

func bindLineItem(c *gin.Context) (entities.LineItemInput, bool) {
	var payload request.LineItemRequest
	if !bindJSON(c, &payload) {
		return entities.LineItemInput{}, false
	}
	in, err := payload.ToInput()
	if err != nil {
		respondError(c, mapError(err))
		return entities.LineItemInput{}, false
	}
	return in, true
}

func itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, errInvalidRequest.WithDetails("index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
