package repository

import (
	"context"
	"fmt"
	"log"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type addressSnapshotItem struct {
	Street  string `dynamodbav:"street"`
	City    string `dynamodbav:"city"`
	ZipCode string `dynamodbav:"zip_code"`
}

type clientSnapshotItem struct {
	Name    string              `dynamodbav:"name"`
	NIF     string              `dynamodbav:"nif"`
	Address addressSnapshotItem `dynamodbav:"address"`
}

type vehicleSnapshotItem struct {
	LicensePlate string `dynamodbav:"license_plate"`
	Brand        string `dynamodbav:"brand"`
	Model        string `dynamodbav:"model"`
}

type invoiceItem struct {
	ID              string              `dynamodbav:"id"`
	Number          string              `dynamodbav:"number"`
	InvoiceDate     string              `dynamodbav:"invoice_date"`
	Status          string              `dynamodbav:"status"`
	WorkOrderID     string              `dynamodbav:"work_order_id"`
	WorkOrderNumber string              `dynamodbav:"work_order_number"`
	ClientID        string              `dynamodbav:"client_id"`
	EmittedByID     string              `dynamodbav:"emitted_by_id"`
	ClientDetails   clientSnapshotItem  `dynamodbav:"client_details"`
	VehicleDetails  vehicleSnapshotItem `dynamodbav:"vehicle_details"`
	Items           []lineItemItem      `dynamodbav:"items"`
	Totals          totalsItem          `dynamodbav:"totals"`
	PaidAt          string              `dynamodbav:"paid_at,omitempty"`
	CanceledAt      string              `dynamodbav:"canceled_at,omitempty"`
	CreatedAt       string              `dynamodbav:"created_at"`
	UpdatedAt       string              `dynamodbav:"updated_at"`
	PendingLink     string              `dynamodbav:"pending_link,omitempty"`
}

// pendingLinkValue marks an invoice whose work order may still be Completed. The attribute
// is removed once the order is Invoiced, so invoicesPendingLinkIndex only holds open repairs.
const pendingLinkValue = "pending"

// Positions of the invoice Create transaction items, as reported in cancellation reasons.
const (
	invoiceItemIndex = iota
	invoiceWorkOrderMarkerIndex
	invoiceNumberMarkerIndex
)

// InvoiceDynamoRepository persists issued invoices in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI pending_link-index: pending_link, created_at (sparse)
//
// Lookups by work order and by number go through the invoice_work_order# and
// invoice_number# markers, which also make both unique.
type InvoiceDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
	uniques   uniques
}

var _ interfaces.IInvoiceRepository = (*InvoiceDynamoRepository)(nil)

func NewInvoiceDynamoRepository(ddb *dynamodb.Client, t Tables) *InvoiceDynamoRepository {
	return &InvoiceDynamoRepository{
		ddb:       ddb,
		tableName: t.Invoices,
		uniques:   uniques{ddb: ddb, tableName: t.Uniques},
	}
}

func (r *InvoiceDynamoRepository) Create(ctx context.Context, inv entities.Invoice) (entities.Invoice, error) {
	it := toInvoiceItem(inv)
	it.PendingLink = pendingLinkValue
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Invoice{}, err
	}
	now := formatTime(inv.CreatedAt)
	byWorkOrder, err := r.uniques.put(markerItem{Key: markerInvoiceWorkOrder + inv.WorkOrderID, OwnerID: inv.ID, CreatedAt: now})
	if err != nil {
		return entities.Invoice{}, err
	}
	byNumber, err := r.uniques.put(markerItem{Key: markerInvoiceNumber + inv.Number, OwnerID: inv.ID, CreatedAt: now})
	if err != nil {
		return entities.Invoice{}, err
	}
	tx := make([]types.TransactWriteItem, 3)
	tx[invoiceItemIndex] = types.TransactWriteItem{Put: &types.Put{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	}}
	tx[invoiceWorkOrderMarkerIndex] = byWorkOrder
	tx[invoiceNumberMarkerIndex] = byNumber
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: tx})
	if err != nil {
		err = invoiceCreateError(err)
		log.Printf("[invoice][dynamodb] create failed id=%s work_order_id=%s err=%v", inv.ID, inv.WorkOrderID, err)
		return entities.Invoice{}, err
	}
	return inv, nil
}

// invoiceCreateError reports a taken work order marker as a duplicate. A taken number
// marker or a competing transaction is an allocation conflict, which the caller retries
// with a fresh number.
func invoiceCreateError(err error) error {
	reasons := cancellationReasons(err)
	if reasons == nil {
		return wrapContention(err, entities.ErrAllocationConflict)
	}
	conflict := false
	for i, rs := range reasons {
		switch reasonCode(rs) {
		case reasonConditionalCheckFailed:
			if i == invoiceNumberMarkerIndex {
				return fmt.Errorf("%w: invoice number taken: %v", entities.ErrAllocationConflict, err)
			}
			return fmt.Errorf("%w: %v", entities.ErrDuplicateInvoice, err)
		case reasonTransactionConflict:
			conflict = true
		}
	}
	if conflict {
		return fmt.Errorf("%w: %v", entities.ErrAllocationConflict, err)
	}
	return err
}

func (r *InvoiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.Invoice, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Invoice{}, err
	}
	if len(out.Item) == 0 {
		return entities.Invoice{}, nil
	}
	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Invoice{}, err
	}
	return fromInvoiceItem(it), nil
}

func (r *InvoiceDynamoRepository) GetByNumber(ctx context.Context, number string) (entities.Invoice, error) {
	return r.byMarker(ctx, markerInvoiceNumber+number)
}

func (r *InvoiceDynamoRepository) GetByWorkOrderID(ctx context.Context, workOrderID string) (entities.Invoice, error) {
	return r.byMarker(ctx, markerInvoiceWorkOrder+workOrderID)
}

func (r *InvoiceDynamoRepository) byMarker(ctx context.Context, key string) (entities.Invoice, error) {
	id, err := r.uniques.owner(ctx, key)
	if err != nil || id == "" {
		return entities.Invoice{}, err
	}
	return r.GetByID(ctx, id)
}

// UpdateStatus rewrites only the status fields, and only while the stored status is from.
func (r *InvoiceDynamoRepository) UpdateStatus(ctx context.Context, inv entities.Invoice, from entities.InvoiceStatus) (entities.Invoice, error) {
	expr := "SET #status = :status, #updated_at = :updated_at"
	vals := map[string]types.AttributeValue{
		":status":     &types.AttributeValueMemberS{Value: string(inv.Status)},
		":updated_at": &types.AttributeValueMemberS{Value: formatTime(inv.UpdatedAt)},
		":from":       &types.AttributeValueMemberS{Value: string(from)},
	}
	names := map[string]string{
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	if inv.PaidAt != nil {
		expr += ", #paid_at = :paid_at"
		vals[":paid_at"] = &types.AttributeValueMemberS{Value: formatTime(*inv.PaidAt)}
		names["#paid_at"] = "paid_at"
	}
	if inv.CanceledAt != nil {
		expr += ", #canceled_at = :canceled_at"
		vals[":canceled_at"] = &types.AttributeValueMemberS{Value: formatTime(*inv.CanceledAt)}
		names["#canceled_at"] = "canceled_at"
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       stringKey("id", inv.ID),
		ConditionExpression:       aws.String("attribute_exists(#id) AND #status = :from"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: vals,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Invoice{}, fmt.Errorf("%w: invoice %s is no longer %s", entities.ErrStaleWrite, inv.ID, from)
		}
		return entities.Invoice{}, wrapContention(err, entities.ErrStaleWrite)
	}
	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Invoice{}, err
	}
	return fromInvoiceItem(it), nil
}

// ListPendingLink reads the sparse pending_link index, oldest invoice first.
func (r *InvoiceDynamoRepository) ListPendingLink(ctx context.Context, limit int) ([]entities.Invoice, error) {
	out := []entities.Invoice{}
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(invoicesPendingLinkIndex),
		KeyConditionExpression:   aws.String("#pending = :pending"),
		ExpressionAttributeNames: map[string]string{"#pending": "pending_link"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: pendingLinkValue},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it invoiceItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			out = append(out, fromInvoiceItem(it))
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// ClearPendingLink removes the invoice from the pending_link index. A missing invoice is a no-op.
func (r *InvoiceDynamoRepository) ClearPendingLink(ctx context.Context, id string) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      stringKey("id", id),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		UpdateExpression:         aws.String("REMOVE #pending"),
		ExpressionAttributeNames: map[string]string{"#id": "id", "#pending": "pending_link"},
	})
	if err != nil && !isConditionalCheckFailed(err) {
		return err
	}
	return nil
}

func toInvoiceItem(inv entities.Invoice) invoiceItem {
	return invoiceItem{
		ID:              inv.ID,
		Number:          inv.Number,
		InvoiceDate:     formatTime(inv.InvoiceDate),
		Status:          string(inv.Status),
		WorkOrderID:     inv.WorkOrderID,
		WorkOrderNumber: inv.WorkOrderNumber,
		ClientID:        inv.ClientID,
		EmittedByID:     inv.EmittedByID,
		ClientDetails: clientSnapshotItem{
			Name: inv.ClientDetails.Name,
			NIF:  inv.ClientDetails.NIF,
			Address: addressSnapshotItem{
				Street:  inv.ClientDetails.Address.Street,
				City:    inv.ClientDetails.Address.City,
				ZipCode: inv.ClientDetails.Address.ZipCode,
			},
		},
		VehicleDetails: vehicleSnapshotItem{
			LicensePlate: inv.VehicleDetails.LicensePlate,
			Brand:        inv.VehicleDetails.Brand,
			Model:        inv.VehicleDetails.Model,
		},
		Items:      toLineItemItems(inv.Items),
		Totals:     toTotalsItem(inv.Totals),
		PaidAt:     formatTimePtr(inv.PaidAt),
		CanceledAt: formatTimePtr(inv.CanceledAt),
		CreatedAt:  formatTime(inv.CreatedAt),
		UpdatedAt:  formatTime(inv.UpdatedAt),
	}
}

func fromInvoiceItem(it invoiceItem) entities.Invoice {
	return entities.Invoice{
		ID:              it.ID,
		Number:          it.Number,
		InvoiceDate:     parseTime(it.InvoiceDate),
		Status:          entities.InvoiceStatus(it.Status),
		WorkOrderID:     it.WorkOrderID,
		WorkOrderNumber: it.WorkOrderNumber,
		ClientID:        it.ClientID,
		EmittedByID:     it.EmittedByID,
		ClientDetails: entities.ClientSnapshot{
			Name: it.ClientDetails.Name,
			NIF:  it.ClientDetails.NIF,
			Address: entities.AddressSnapshot{
				Street:  it.ClientDetails.Address.Street,
				City:    it.ClientDetails.Address.City,
				ZipCode: it.ClientDetails.Address.ZipCode,
			},
		},
		VehicleDetails: entities.VehicleSnapshot{
			LicensePlate: it.VehicleDetails.LicensePlate,
			Brand:        it.VehicleDetails.Brand,
			Model:        it.VehicleDetails.Model,
		},
		Items:      fromLineItemItems(it.Items),
		Totals:     fromTotalsItem(it.Totals),
		PaidAt:     parseTimePtr(it.PaidAt),
		CanceledAt: parseTimePtr(it.CanceledAt),
		CreatedAt:  parseTime(it.CreatedAt),
		UpdatedAt:  parseTime(it.UpdatedAt),
	}
}
