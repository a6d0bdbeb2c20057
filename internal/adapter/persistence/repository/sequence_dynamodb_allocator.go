package repository

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SequenceDynamoAllocator hands out numbers from atomic counters keyed by <kind>#<year>.
// DynamoDB applies ADD atomically, so concurrent callers never read the same value.
type SequenceDynamoAllocator struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.ISequenceAllocator = (*SequenceDynamoAllocator)(nil)

func NewSequenceDynamoAllocator(ddb *dynamodb.Client, t Tables) *SequenceDynamoAllocator {
	return &SequenceDynamoAllocator{ddb: ddb, tableName: t.Sequences}
}

func (a *SequenceDynamoAllocator) Next(ctx context.Context, kind entities.SequenceKind, year int) (string, error) {
	key := kind.Key(year)
	out, err := a.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(a.tableName),
		Key:                      stringKey(sequencesKeyAttribute, key),
		UpdateExpression:         aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{"#seq": sequencesCounterAttribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		err = wrapContention(err, entities.ErrAllocationConflict)
		log.Printf("[sequence][dynamodb] next failed key=%s err=%v", key, err)
		return "", err
	}
	n, err := counterValue(out.Attributes)
	if err != nil {
		return "", fmt.Errorf("sequence %s: %w", key, err)
	}
	return kind.Format(year, n), nil
}

func counterValue(attrs map[string]types.AttributeValue) (int64, error) {
	v, ok := attrs[sequencesCounterAttribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("missing %q in update result", sequencesCounterAttribute)
	}
	return strconv.ParseInt(v.Value, 10, 64)
}
