package usecase

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrWorkOrderNotFound  = errors.New("work order not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrVehicleNotOwned    = errors.New("vehicle does not belong to the client")
	ErrRendererNotEnabled = errors.New("invoice renderer not configured")
)
