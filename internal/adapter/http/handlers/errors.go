package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase"
	"mecanica_oficina/pkg"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HeaderUserID carries the opaque id of the acting user, resolved by the identity service.
const HeaderUserID = "X-User-ID"

var (
	errInvalidRequest = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	errMissingUserID  = pkg.NewDomainErrorSimple("MISSING_USER_ID", "X-User-ID header is required", http.StatusBadRequest)
)

func respondError(c *gin.Context, appErr *pkg.AppError) {
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}

// bindJSON binds the body into req and answers 400 with the failing fields when it does not
// validate.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		respondError(c, errInvalidRequest.WithDetails(strings.Join(fields, ", ")))
		return false
	}
	respondError(c, errInvalidRequest.WithDetails(err.Error()))
	return false
}

func userID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if id == "" {
		respondError(c, errMissingUserID)
		return "", false
	}
	return id, true
}

// mapError translates domain and use case errors into the HTTP error shape.
func mapError(err error) *pkg.AppError {
	var (
		verr     *entities.ValidationError
		itErr    *entities.InvalidTransitionError
		conflict *entities.ActiveWorkOrderConflictError
		recErr   *entities.ReconciliationRequiredError
	)
	switch {
	// Whatever stopped the work order update, the invoice already exists.
	case errors.As(err, &recErr):
		log.Printf("[http][error] reconciliation required work_order_id=%s invoice_id=%s err=%v", recErr.WorkOrderID, recErr.InvoiceID, recErr.Err)
		return pkg.NewDomainError("RECONCILIATION_REQUIRED", "Invoice issued; work order update pending", err, http.StatusInternalServerError).
			WithDetails(recErr.InvoiceID)
	case errors.As(err, &verr):
		return pkg.NewDomainErrorSimple("VALIDATION_FAILED", "Invalid input", http.StatusBadRequest).WithDetails(verr.Error())
	case errors.Is(err, usecase.ErrInvalidID), errors.Is(err, usecase.ErrInvalidMPPayload), errors.Is(err, usecase.ErrPaymentGatewayBadRequest):
		return errInvalidRequest
	case errors.Is(err, usecase.ErrVehicleNotOwned):
		return pkg.NewDomainErrorSimple("VEHICLE_NOT_OWNED", "Vehicle does not belong to the client", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayCustomerNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_CUSTOMER_NOT_FOUND", "Payer not found for this Mercado Pago test context", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayInvalidUsers):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_INVALID_USERS", "Invalid users involved between seller token and payer test user", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayUnauthorized):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAUTHORIZED", "Payment provider unauthorized", http.StatusUnauthorized)

	case errors.Is(err, usecase.ErrWorkOrderNotFound):
		return pkg.NewDomainErrorSimple("WORK_ORDER_NOT_FOUND", "Work order not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvoiceNotFound):
		return pkg.NewDomainErrorSimple("INVOICE_NOT_FOUND", "Invoice not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvoicePaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrClientNotFound):
		return pkg.NewDomainErrorSimple("CLIENT_NOT_FOUND", "Client not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrVehicleNotFound):
		return pkg.NewDomainErrorSimple("VEHICLE_NOT_FOUND", "Vehicle not found", http.StatusNotFound)

	case errors.As(err, &conflict):
		return pkg.NewDomainErrorSimple("VEHICLE_HAS_ACTIVE_WORK_ORDER", "Vehicle already has an active work order", http.StatusConflict).
			WithDetails(conflict.ExistingWorkOrderNumber)
	case errors.Is(err, entities.ErrDuplicateInvoice):
		return pkg.NewDomainErrorSimple("DUPLICATE_INVOICE", "Work order already invoiced", http.StatusConflict)
	case errors.Is(err, entities.ErrDuplicateClient):
		return pkg.NewDomainErrorSimple("DUPLICATE_CLIENT", "A client with this NIF already exists", http.StatusConflict)
	case errors.Is(err, entities.ErrDuplicateVehicle):
		return pkg.NewDomainErrorSimple("DUPLICATE_VEHICLE", "A vehicle with this license plate or VIN already exists", http.StatusConflict)
	case errors.Is(err, usecase.ErrInvoiceNotPayable):
		return pkg.NewDomainErrorSimple("INVOICE_NOT_PAYABLE", "Invoice is not awaiting payment", http.StatusConflict)
	case errors.Is(err, entities.ErrPaymentInProgress):
		return pkg.NewDomainErrorSimple("PAYMENT_IN_PROGRESS", "Another payment of this invoice is in progress", http.StatusConflict)

	case errors.As(err, &itErr):
		return pkg.NewDomainErrorSimple("INVALID_TRANSITION", "Operation not allowed in the current status", http.StatusUnprocessableEntity).
			WithDetails(itErr.Error())

	case entities.IsRetryable(err):
		return pkg.NewDomainError("TRY_AGAIN", "Concurrent update, please retry", err, http.StatusServiceUnavailable)
	case errors.Is(err, usecase.ErrRendererNotEnabled), errors.Is(err, usecase.ErrPaymentGatewayNotConfigured):
		return pkg.NewDomainError("NOT_CONFIGURED", "Feature not configured", err, http.StatusServiceUnavailable)
	default:
		log.Printf("[http][error] internal err=%v", err)
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
