package repository

import (
	"context"
	"fmt"
	"log"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Money, quantities and rates are stored as decimal strings so no amount goes through a float.
type lineItemItem struct {
	Type        string `dynamodbav:"type"`
	Description string `dynamodbav:"description"`
	Reference   string `dynamodbav:"reference,omitempty"`
	Quantity    string `dynamodbav:"quantity"`
	UnitPrice   string `dynamodbav:"unit_price_without_tax"`
	TaxRate     string `dynamodbav:"tax_rate"`
}

type totalsItem struct {
	WithoutTax string `dynamodbav:"without_tax"`
	Tax        string `dynamodbav:"tax"`
	WithTax    string `dynamodbav:"with_tax"`
}

type quoteItem struct {
	ClientObservations string `dynamodbav:"client_observations"`
	Diagnostic         string `dynamodbav:"diagnostic"`
	IsApproved         bool   `dynamodbav:"is_approved"`
}

type timelineItem struct {
	DiagnosisRegisteredAt string `dynamodbav:"diagnosis_registered_at,omitempty"`
	QuoteApprovedAt       string `dynamodbav:"quote_approved_at,omitempty"`
	ExecutionStartedAt    string `dynamodbav:"execution_started_at,omitempty"`
	CompletedAt           string `dynamodbav:"completed_at,omitempty"`
	InvoicedAt            string `dynamodbav:"invoiced_at,omitempty"`
	DeliveredAt           string `dynamodbav:"delivered_at,omitempty"`
}

type workOrderItem struct {
	ID          string         `dynamodbav:"id"`
	Number      string         `dynamodbav:"number"`
	ClientID    string         `dynamodbav:"client_id"`
	VehicleID   string         `dynamodbav:"vehicle_id"`
	MechanicIDs []string       `dynamodbav:"mechanic_ids"`
	CreatedByID string         `dynamodbav:"created_by_id"`
	Status      string         `dynamodbav:"status"`
	IsActive    bool           `dynamodbav:"is_active"`
	Quote       quoteItem      `dynamodbav:"quote"`
	Items       []lineItemItem `dynamodbav:"items"`
	Totals      totalsItem     `dynamodbav:"totals"`
	EntryDate   string         `dynamodbav:"entry_date"`
	Timeline    timelineItem   `dynamodbav:"timeline"`
	Version     int64          `dynamodbav:"version"`
	CreatedAt   string         `dynamodbav:"created_at"`
	UpdatedAt   string         `dynamodbav:"updated_at"`
}

// WorkOrderDynamoRepository persists WorkOrder aggregates in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: vehicle_id-index (PK: vehicle_id, SK: entry_date)
//   - GSI: status-index (PK: status, SK: entry_date)
//
// The order number and the vehicle's active slot are markers in the uniques table, written in
// the same transaction as the order itself.
type WorkOrderDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
	uniques   uniques
}

var _ interfaces.IWorkOrderRepository = (*WorkOrderDynamoRepository)(nil)

func NewWorkOrderDynamoRepository(ddb *dynamodb.Client, t Tables) *WorkOrderDynamoRepository {
	return &WorkOrderDynamoRepository{
		ddb:       ddb,
		tableName: t.WorkOrders,
		uniques:   uniques{ddb: ddb, tableName: t.Uniques},
	}
}

func (r *WorkOrderDynamoRepository) Create(ctx context.Context, w entities.WorkOrder) (entities.WorkOrder, error) {
	w.Version = 1
	tx, err := r.createTransaction(w)
	if err != nil {
		return entities.WorkOrder{}, err
	}
	if _, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: tx}); err != nil {
		err = workOrderCreateError(err, w)
		log.Printf("[workorder][dynamodb] create failed id=%s number=%s err=%v", w.ID, w.Number, err)
		return entities.WorkOrder{}, err
	}
	return w, nil
}

// createTransaction writes the order, its number marker and, while active, the vehicle marker.
// The vehicle marker is always the last item.
func (r *WorkOrderDynamoRepository) createTransaction(w entities.WorkOrder) ([]types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(toWorkOrderItem(w))
	if err != nil {
		return nil, err
	}
	now := formatTime(w.CreatedAt)
	number, err := r.uniques.put(markerItem{Key: markerWorkOrderNumber + w.Number, OwnerID: w.ID, CreatedAt: now})
	if err != nil {
		return nil, err
	}
	tx := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     av,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		}},
		number,
	}
	if w.IsActive {
		active, err := r.uniques.put(markerItem{
			Key:             markerActiveVehicle + w.VehicleID,
			OwnerID:         w.ID,
			WorkOrderNumber: w.Number,
			CreatedAt:       now,
		})
		if err != nil {
			return nil, err
		}
		tx = append(tx, active)
	}
	return tx, nil
}

// workOrderCreateError turns a cancelled create transaction into the domain error. A held
// vehicle marker names the order that holds it; any other clash or a concurrent transaction
// is an allocation conflict the caller may retry with a fresh number.
func workOrderCreateError(err error, w entities.WorkOrder) error {
	reasons := cancellationReasons(err)
	if reasons == nil {
		return wrapContention(err, entities.ErrAllocationConflict)
	}
	if w.IsActive && len(reasons) == 3 && reasonCode(reasons[2]) == reasonConditionalCheckFailed {
		held := markerFromReason(reasons[2])
		return &entities.ActiveWorkOrderConflictError{
			VehicleID:               w.VehicleID,
			ExistingWorkOrderID:     held.OwnerID,
			ExistingWorkOrderNumber: held.WorkOrderNumber,
		}
	}
	for _, rs := range reasons {
		switch reasonCode(rs) {
		case reasonConditionalCheckFailed, reasonTransactionConflict:
			return fmt.Errorf("%w: %v", entities.ErrAllocationConflict, err)
		}
	}
	return err
}

func (r *WorkOrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.WorkOrder, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.WorkOrder{}, err
	}
	if len(out.Item) == 0 {
		return entities.WorkOrder{}, nil
	}
	var it workOrderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.WorkOrder{}, err
	}
	return fromWorkOrderItem(it), nil
}

func (r *WorkOrderDynamoRepository) GetByNumber(ctx context.Context, number string) (entities.WorkOrder, error) {
	id, err := r.uniques.owner(ctx, markerWorkOrderNumber+number)
	if err != nil || id == "" {
		return entities.WorkOrder{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *WorkOrderDynamoRepository) ListByVehicleID(ctx context.Context, vehicleID string) ([]entities.WorkOrder, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(workOrdersVehicleIDIndex),
		KeyConditionExpression: aws.String("vehicle_id = :vid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":vid": &types.AttributeValueMemberS{Value: vehicleID},
		},
	}, 0)
}

func (r *WorkOrderDynamoRepository) ListByStatus(ctx context.Context, status entities.WorkOrderStatus, limit int) ([]entities.WorkOrder, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(workOrdersStatusIndex),
		KeyConditionExpression:   aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	}, limit)
}

// query pages through in until limit orders are read; limit <= 0 reads everything.
func (r *WorkOrderDynamoRepository) query(ctx context.Context, in *dynamodb.QueryInput, limit int) ([]entities.WorkOrder, error) {
	out := []entities.WorkOrder{}
	p := dynamodb.NewQueryPaginator(r.ddb, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it workOrderItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			out = append(out, fromWorkOrderItem(it))
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (r *WorkOrderDynamoRepository) Update(ctx context.Context, w entities.WorkOrder, expectedVersion int64, releaseVehicle bool) (entities.WorkOrder, error) {
	w.Version = expectedVersion + 1
	av, err := attributevalue.MarshalMap(toWorkOrderItem(w))
	if err != nil {
		return entities.WorkOrder{}, err
	}
	tx := []types.TransactWriteItem{{Put: &types.Put{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      aws.String("#version = :expected"),
		ExpressionAttributeNames: map[string]string{"#version": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
	}}}
	if releaseVehicle {
		tx = append(tx, r.uniques.release(markerActiveVehicle+w.VehicleID, w.ID))
	}
	if _, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: tx}); err != nil {
		err = workOrderUpdateError(err)
		log.Printf("[workorder][dynamodb] update failed id=%s expected_version=%d err=%v", w.ID, expectedVersion, err)
		return entities.WorkOrder{}, err
	}
	return w, nil
}

// workOrderUpdateError reports every failed condition or competing transaction as a stale
// write: the caller re-reads and decides again.
func workOrderUpdateError(err error) error {
	reasons := cancellationReasons(err)
	if reasons == nil {
		return wrapContention(err, entities.ErrStaleWrite)
	}
	for _, rs := range reasons {
		switch reasonCode(rs) {
		case reasonConditionalCheckFailed, reasonTransactionConflict:
			return fmt.Errorf("%w: %v", entities.ErrStaleWrite, err)
		}
	}
	return err
}

func toLineItemItems(items []entities.LineItem) []lineItemItem {
	out := make([]lineItemItem, 0, len(items))
	for _, li := range items {
		out = append(out, lineItemItem{
			Type:        string(li.Type),
			Description: li.Description,
			Reference:   li.Reference,
			Quantity:    li.Quantity.String(),
			UnitPrice:   li.UnitPriceWithoutTax.Exact(),
			TaxRate:     li.TaxRate.String(),
		})
	}
	return out
}

func fromLineItemItems(items []lineItemItem) []entities.LineItem {
	out := make([]entities.LineItem, 0, len(items))
	for _, it := range items {
		qty, _ := decimal.NewFromString(it.Quantity)
		price, _ := money.Parse(it.UnitPrice)
		rate, _ := decimal.NewFromString(it.TaxRate)
		out = append(out, entities.LineItem{
			Type:                entities.LineItemType(it.Type),
			Description:         it.Description,
			Reference:           it.Reference,
			Quantity:            qty,
			UnitPriceWithoutTax: price,
			TaxRate:             rate,
		})
	}
	return out
}

func toTotalsItem(t entities.Totals) totalsItem {
	return totalsItem{WithoutTax: t.WithoutTax.Exact(), Tax: t.Tax.Exact(), WithTax: t.WithTax.Exact()}
}

func fromTotalsItem(it totalsItem) entities.Totals {
	net, _ := money.Parse(it.WithoutTax)
	tax, _ := money.Parse(it.Tax)
	gross, _ := money.Parse(it.WithTax)
	return entities.Totals{WithoutTax: net, Tax: tax, WithTax: gross}
}

func toWorkOrderItem(w entities.WorkOrder) workOrderItem {
	return workOrderItem{
		ID:          w.ID,
		Number:      w.Number,
		ClientID:    w.ClientID,
		VehicleID:   w.VehicleID,
		MechanicIDs: append([]string{}, w.MechanicIDs...),
		CreatedByID: w.CreatedByID,
		Status:      string(w.Status),
		IsActive:    w.IsActive,
		Quote: quoteItem{
			ClientObservations: w.Quote.ClientObservations,
			Diagnostic:         w.Quote.Diagnostic,
			IsApproved:         w.Quote.IsApproved,
		},
		Items:     toLineItemItems(w.Items),
		Totals:    toTotalsItem(w.Totals),
		EntryDate: formatTime(w.Timeline.EntryDate),
		Timeline: timelineItem{
			DiagnosisRegisteredAt: formatTimePtr(w.Timeline.DiagnosisRegisteredAt),
			QuoteApprovedAt:       formatTimePtr(w.Timeline.QuoteApprovedAt),
			ExecutionStartedAt:    formatTimePtr(w.Timeline.ExecutionStartedAt),
			CompletedAt:           formatTimePtr(w.Timeline.CompletedAt),
			InvoicedAt:            formatTimePtr(w.Timeline.InvoicedAt),
			DeliveredAt:           formatTimePtr(w.Timeline.DeliveredAt),
		},
		Version:   w.Version,
		CreatedAt: formatTime(w.CreatedAt),
		UpdatedAt: formatTime(w.UpdatedAt),
	}
}

func fromWorkOrderItem(it workOrderItem) entities.WorkOrder {
	return entities.WorkOrder{
		ID:          it.ID,
		Number:      it.Number,
		ClientID:    it.ClientID,
		VehicleID:   it.VehicleID,
		MechanicIDs: append([]string{}, it.MechanicIDs...),
		CreatedByID: it.CreatedByID,
		Status:      entities.WorkOrderStatus(it.Status),
		IsActive:    it.IsActive,
		Quote: entities.Quote{
			ClientObservations: it.Quote.ClientObservations,
			Diagnostic:         it.Quote.Diagnostic,
			IsApproved:         it.Quote.IsApproved,
		},
		Items:  fromLineItemItems(it.Items),
		Totals: fromTotalsItem(it.Totals),
		Timeline: entities.Timeline{
			EntryDate:             parseTime(it.EntryDate),
			DiagnosisRegisteredAt: parseTimePtr(it.Timeline.DiagnosisRegisteredAt),
			QuoteApprovedAt:       parseTimePtr(it.Timeline.QuoteApprovedAt),
			ExecutionStartedAt:    parseTimePtr(it.Timeline.ExecutionStartedAt),
			CompletedAt:           parseTimePtr(it.Timeline.CompletedAt),
			InvoicedAt:            parseTimePtr(it.Timeline.InvoicedAt),
			DeliveredAt:           parseTimePtr(it.Timeline.DeliveredAt),
		},
		Version:   it.Version,
		CreatedAt: parseTime(it.CreatedAt),
		UpdatedAt: parseTime(it.UpdatedAt),
	}
}
