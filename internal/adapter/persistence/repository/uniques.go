package repository

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Marker prefixes of the uniques table. A marker exists while its value is taken and names
// the document that took it.
const (
	markerActiveVehicle    = "active_vehicle#"
	markerWorkOrderNumber  = "work_order_number#"
	markerInvoiceWorkOrder = "invoice_work_order#"
	markerInvoiceNumber    = "invoice_number#"
	markerClientNIF        = "client_nif#"
	markerVehiclePlate     = "vehicle_plate#"
	markerVehicleVIN       = "vehicle_vin#"
	markerPaymentInvoice   = "payment_invoice#"
)

type markerItem struct {
	Key             string `dynamodbav:"unique_key"`
	OwnerID         string `dynamodbav:"owner_id"`
	WorkOrderNumber string `dynamodbav:"work_order_number,omitempty"`
	CreatedAt       string `dynamodbav:"created_at"`
	ExpiresAt       int64  `dynamodbav:"expires_at,omitempty"` // leases only, unix seconds
}

type uniques struct {
	ddb       *dynamodb.Client
	tableName string
}

// put claims key for ownerID inside a transaction. The old marker is returned in the
// cancellation reason when the key is already taken.
func (u uniques) put(m markerItem) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(m)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                           aws.String(u.tableName),
		Item:                                av,
		ConditionExpression:                 aws.String("attribute_not_exists(#uk)"),
		ExpressionAttributeNames:            map[string]string{"#uk": uniquesKeyAttribute},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}}, nil
}

// release drops key when it is free or held by ownerID.
func (u uniques) release(key, ownerID string) types.TransactWriteItem {
	return types.TransactWriteItem{Delete: &types.Delete{
		TableName:                aws.String(u.tableName),
		Key:                      stringKey(uniquesKeyAttribute, key),
		ConditionExpression:      aws.String("attribute_not_exists(#uk) OR #owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#uk": uniquesKeyAttribute, "#owner": "owner_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	}}
}

// owner resolves a marker to the id of the document holding it; "" when the key is free.
func (u uniques) owner(ctx context.Context, key string) (string, error) {
	out, err := u.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(u.tableName),
		Key:            stringKey(uniquesKeyAttribute, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if len(out.Item) == 0 {
		return "", nil
	}
	var m markerItem
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return "", err
	}
	return m.OwnerID, nil
}

func markerFromReason(r types.CancellationReason) markerItem {
	var m markerItem
	if len(r.Item) > 0 {
		_ = attributevalue.UnmarshalMap(r.Item, &m)
	}
	return m
}

// lease takes key for m.OwnerID outside a transaction. It succeeds when the key is free,
// already held by the same owner, or held by a lease that expired at or before now.
func (u uniques) lease(ctx context.Context, m markerItem, now int64) (bool, error) {
	av, err := attributevalue.MarshalMap(m)
	if err != nil {
		return false, err
	}
	_, err = u.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(u.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#uk) OR #owner = :owner OR #expires_at <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#uk":         uniquesKeyAttribute,
			"#owner":      "owner_id",
			"#expires_at": "expires_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: m.OwnerID},
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// unlease deletes key while ownerID holds it. Someone else's lease is left in place.
func (u uniques) unlease(ctx context.Context, key, ownerID string) error {
	_, err := u.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(u.tableName),
		Key:                      stringKey(uniquesKeyAttribute, key),
		ConditionExpression:      aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#owner": "owner_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil && !isConditionalCheckFailed(err) {
		return err
	}
	return nil
}
