package repository

import (
	"context"
	"errors"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultClientsTableName    = "clients"
	defaultVehiclesTableName   = "vehicles"
	defaultWorkOrdersTableName = "work_orders"
	defaultInvoicesTableName   = "invoices"
	defaultPaymentsTableName   = "invoice_payments"
	defaultSequencesTableName  = "sequences"
	defaultUniquesTableName    = "uniques"

	vehiclesClientIDIndex     = "client_id-index"
	workOrdersVehicleIDIndex  = "vehicle_id-index"
	workOrdersStatusIndex     = "status-index"
	paymentsInvoiceIDIndex    = "invoice_id-index"
	invoicesPendingLinkIndex  = "pending_link-index"
	uniquesKeyAttribute       = "unique_key"
	sequencesKeyAttribute     = "seq_key"
	sequencesCounterAttribute = "seq"
)

// Tables holds the DynamoDB table names. Each one can be overridden by its *_TABLE variable.
type Tables struct {
	Clients    string
	Vehicles   string
	WorkOrders string
	Invoices   string
	Payments   string
	Sequences  string
	Uniques    string
}

func TablesFromEnv() Tables {
	return Tables{
		Clients:    getenvDefault("CLIENTS_TABLE", defaultClientsTableName),
		Vehicles:   getenvDefault("VEHICLES_TABLE", defaultVehiclesTableName),
		WorkOrders: getenvDefault("WORK_ORDERS_TABLE", defaultWorkOrdersTableName),
		Invoices:   getenvDefault("INVOICES_TABLE", defaultInvoicesTableName),
		Payments:   getenvDefault("PAYMENTS_TABLE", defaultPaymentsTableName),
		Sequences:  getenvDefault("SEQUENCES_TABLE", defaultSequencesTableName),
		Uniques:    getenvDefault("UNIQUES_TABLE", defaultUniquesTableName),
	}
}

// TableDefinitions describes every table the repositories need, with on-demand billing.
func (t Tables) TableDefinitions() []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		hashTable(t.Clients, "id"),
		withIndexes(hashTable(t.Vehicles, "id"), gsi(vehiclesClientIDIndex, "client_id", "")),
		withIndexes(hashTable(t.WorkOrders, "id"),
			gsi(workOrdersVehicleIDIndex, "vehicle_id", "entry_date"),
			gsi(workOrdersStatusIndex, "status", "entry_date"),
		),
		withIndexes(hashTable(t.Invoices, "id"), gsi(invoicesPendingLinkIndex, "pending_link", "created_at")),
		withIndexes(hashTable(t.Payments, "id"), gsi(paymentsInvoiceIDIndex, "invoice_id", "date")),
		hashTable(t.Sequences, sequencesKeyAttribute),
		hashTable(t.Uniques, uniquesKeyAttribute),
	}
}

// CreateTables creates the missing tables. Tables that already exist are left as they are.
func CreateTables(ctx context.Context, ddb *dynamodb.Client, t Tables) error {
	for _, in := range t.TableDefinitions() {
		name := aws.ToString(in.TableName)
		_, err := ddb.CreateTable(ctx, in)
		var inUse *types.ResourceInUseException
		switch {
		case errors.As(err, &inUse):
			log.Printf("[dynamodb][tables] exists table=%s", name)
			continue
		case err != nil:
			log.Printf("[dynamodb][tables] create failed table=%s err=%v", name, err)
			return err
		}
		log.Printf("[dynamodb][tables] created table=%s", name)
	}
	return nil
}

func hashTable(name, key string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(key), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(key), KeyType: types.KeyTypeHash},
		},
	}
}

func gsi(name, hash, sort string) types.GlobalSecondaryIndex {
	idx := types.GlobalSecondaryIndex{
		IndexName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
	if sort != "" {
		idx.KeySchema = append(idx.KeySchema, types.KeySchemaElement{AttributeName: aws.String(sort), KeyType: types.KeyTypeRange})
	}
	return idx
}

func withIndexes(in *dynamodb.CreateTableInput, indexes ...types.GlobalSecondaryIndex) *dynamodb.CreateTableInput {
	defined := map[string]bool{}
	for _, a := range in.AttributeDefinitions {
		defined[aws.ToString(a.AttributeName)] = true
	}
	for _, idx := range indexes {
		for _, k := range idx.KeySchema {
			name := aws.ToString(k.AttributeName)
			if defined[name] {
				continue
			}
			defined[name] = true
			in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
				AttributeName: aws.String(name),
				AttributeType: types.ScalarAttributeTypeS,
			})
		}
	}
	in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, indexes...)
	return in
}
