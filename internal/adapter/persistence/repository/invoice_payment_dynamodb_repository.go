package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type invoicePaymentItem struct {
	ID           string                 `dynamodbav:"id"`
	InvoiceID    string                 `dynamodbav:"invoice_id"`
	Date         string                 `dynamodbav:"date"`
	Status       string                 `dynamodbav:"status"`
	Amount       string                 `dynamodbav:"amount"`
	MPPayload    map[string]interface{} `dynamodbav:"mp_payload,omitempty"`
	MPPayloadRaw string                 `dynamodbav:"mp_payload_raw,omitempty"`
}

// InvoicePaymentDynamoRepository persists InvoicePayment entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: invoice_id-index (PK: invoice_id, SK: date)
//
// Payment claims are payment_invoice# leases in the uniques table.
type InvoicePaymentDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
	uniques   uniques
}

var _ interfaces.IInvoicePaymentRepository = (*InvoicePaymentDynamoRepository)(nil)

func NewInvoicePaymentDynamoRepository(ddb *dynamodb.Client, t Tables) *InvoicePaymentDynamoRepository {
	return &InvoicePaymentDynamoRepository{
		ddb:       ddb,
		tableName: t.Payments,
		uniques:   uniques{ddb: ddb, tableName: t.Uniques},
	}
}

func (r *InvoicePaymentDynamoRepository) Claim(ctx context.Context, c entities.PaymentClaim) error {
	ok, err := r.uniques.lease(ctx, paymentClaimMarker(c), c.ClaimedAt.Unix())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invoice %s: %w", c.InvoiceID, entities.ErrPaymentInProgress)
	}
	return nil
}

func (r *InvoicePaymentDynamoRepository) ReleaseClaim(ctx context.Context, invoiceID, ownerID string) error {
	return r.uniques.unlease(ctx, markerPaymentInvoice+invoiceID, ownerID)
}

func paymentClaimMarker(c entities.PaymentClaim) markerItem {
	return markerItem{
		Key:       markerPaymentInvoice + c.InvoiceID,
		OwnerID:   c.OwnerID,
		CreatedAt: formatTime(c.ClaimedAt),
		ExpiresAt: c.ExpiresAt.Unix(),
	}
}

func (r *InvoicePaymentDynamoRepository) Create(ctx context.Context, p entities.InvoicePayment) (entities.InvoicePayment, error) {
	av, err := attributevalue.MarshalMap(toInvoicePaymentItem(p))
	if err != nil {
		return entities.InvoicePayment{}, err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.InvoicePayment{}, err
	}
	return p, nil
}

func (r *InvoicePaymentDynamoRepository) GetByID(ctx context.Context, id string) (entities.InvoicePayment, error) {
	var it invoicePaymentItem
	found, err := getItem(ctx, r.ddb, r.tableName, id, &it)
	if err != nil || !found {
		return entities.InvoicePayment{}, err
	}
	return fromInvoicePaymentItem(it), nil
}

func (r *InvoicePaymentDynamoRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]entities.InvoicePayment, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentsInvoiceIDIndex),
		KeyConditionExpression: aws.String("invoice_id = :iid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":iid": &types.AttributeValueMemberS{Value: invoiceID},
		},
	})
	items := []entities.InvoicePayment{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it invoicePaymentItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			items = append(items, fromInvoicePaymentItem(it))
		}
	}
	return items, nil
}

func toInvoicePaymentItem(p entities.InvoicePayment) invoicePaymentItem {
	return invoicePaymentItem{
		ID:           p.ID,
		InvoiceID:    p.InvoiceID,
		Date:         formatTime(p.Date),
		Status:       string(p.Status),
		Amount:       p.Amount.Exact(),
		MPPayload:    p.ProviderPayload,
		MPPayloadRaw: string(p.ProviderPayloadRaw),
	}
}

func fromInvoicePaymentItem(it invoicePaymentItem) entities.InvoicePayment {
	amount, _ := money.Parse(it.Amount)
	var raw json.RawMessage
	if it.MPPayloadRaw != "" {
		raw = json.RawMessage(it.MPPayloadRaw)
	}
	return entities.InvoicePayment{
		ID:                 it.ID,
		InvoiceID:          it.InvoiceID,
		Date:               parseTime(it.Date),
		Status:             entities.PaymentStatus(it.Status),
		Amount:             amount,
		ProviderPayload:    it.MPPayload,
		ProviderPayloadRaw: raw,
	}
}
