package response

import (
	"time"

	"mecanica_oficina/internal/domain/entities"
)

type QuoteResponse struct {
	ClientObservations string `json:"clientObservations"`
	Diagnostic         string `json:"diagnostic"`
	IsApproved         bool   `json:"isApproved"`
}

type TimelineResponse struct {
	EntryDate             time.Time  `json:"entryDate"`
	DiagnosisRegisteredAt *time.Time `json:"diagnosisRegisteredAt,omitempty"`
	QuoteApprovedAt       *time.Time `json:"quoteApprovedAt,omitempty"`
	ExecutionStartedAt    *time.Time `json:"executionStartedAt,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	InvoicedAt            *time.Time `json:"invoicedAt,omitempty"`
	DeliveredAt           *time.Time `json:"deliveredAt,omitempty"`
}

type WorkOrderResponse struct {
	ID              string             `json:"id"`
	WorkOrderNumber string             `json:"workOrderNumber"`
	ClientID        string             `json:"clientId"`
	VehicleID       string             `json:"vehicleId"`
	MechanicIDs     []string           `json:"mechanicIds"`
	CreatedByID     string             `json:"createdById"`
	Status          string             `json:"status"`
	IsActive        bool               `json:"isActive"`
	Quote           QuoteResponse      `json:"quote"`
	Items           []LineItemResponse `json:"items"`
	TotalsResponse
	Timeline  TimelineResponse `json:"timeline"`
	Version   int64            `json:"version"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func FromWorkOrder(w entities.WorkOrder) WorkOrderResponse {
	mechanics := w.MechanicIDs
	if mechanics == nil {
		mechanics = []string{}
	}
	return WorkOrderResponse{
		ID:              w.ID,
		WorkOrderNumber: w.Number,
		ClientID:        w.ClientID,
		VehicleID:       w.VehicleID,
		MechanicIDs:     mechanics,
		CreatedByID:     w.CreatedByID,
		Status:          string(w.Status),
		IsActive:        w.IsActive,
		Quote: QuoteResponse{
			ClientObservations: w.Quote.ClientObservations,
			Diagnostic:         w.Quote.Diagnostic,
			IsApproved:         w.Quote.IsApproved,
		},
		Items:          fromLineItems(w.Items),
		TotalsResponse: fromTotals(w.Totals),
		Timeline: TimelineResponse{
			EntryDate:             w.Timeline.EntryDate,
			DiagnosisRegisteredAt: w.Timeline.DiagnosisRegisteredAt,
			QuoteApprovedAt:       w.Timeline.QuoteApprovedAt,
			ExecutionStartedAt:    w.Timeline.ExecutionStartedAt,
			CompletedAt:           w.Timeline.CompletedAt,
			InvoicedAt:            w.Timeline.InvoicedAt,
			DeliveredAt:           w.Timeline.DeliveredAt,
		},
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func FromWorkOrders(ws []entities.WorkOrder) []WorkOrderResponse {
	out := make([]WorkOrderResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, FromWorkOrder(w))
	}
	return out
}
