package repository

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/domain/money"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func sampleItems() []entities.LineItem {
	return []entities.LineItem{
		{
			Type:                entities.LineItemTypePart,
			Description:         "Filtro de óleo",
			Reference:           "FO-123",
			Quantity:            decimal.RequireFromString("2"),
			UnitPriceWithoutTax: money.MustParse("10.005"),
			TaxRate:             decimal.RequireFromString("0.23"),
		},
		{
			Type:                entities.LineItemTypeLabor,
			Description:         "Mão de obra",
			Quantity:            decimal.RequireFromString("1.5"),
			UnitPriceWithoutTax: money.MustParse("40"),
			TaxRate:             decimal.RequireFromString("0.23"),
		},
	}
}

func TestWorkOrderItemRoundTrip(t *testing.T) {
	items := sampleItems()
	w := entities.WorkOrder{
		ID:          "wo-1",
		Number:      "2025-0001",
		ClientID:    "c-1",
		VehicleID:   "v-1",
		MechanicIDs: []string{"m-1", "m-2"},
		CreatedByID: "u-1",
		Status:      entities.WorkOrderStatusInProgress,
		IsActive:    true,
		Quote:       entities.Quote{ClientObservations: "ruído", Diagnostic: "filtro", IsApproved: true},
		Items:       items,
		Totals:      entities.ComputeTotals(items),
		Timeline: entities.Timeline{
			EntryDate:             t0,
			DiagnosisRegisteredAt: ptr(t0.Add(time.Hour)),
			QuoteApprovedAt:       ptr(t0.Add(2 * time.Hour)),
			ExecutionStartedAt:    ptr(t0.Add(3 * time.Hour)),
		},
		Version:   4,
		CreatedAt: t0,
		UpdatedAt: t0.Add(3 * time.Hour),
	}

	av, err := attributevalue.MarshalMap(toWorkOrderItem(w))
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberS{Value: t0.Format(time.RFC3339Nano)}, av["entry_date"])

	var it workOrderItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &it))
	got := fromWorkOrderItem(it)

	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.Number, got.Number)
	assert.Equal(t, w.MechanicIDs, got.MechanicIDs)
	assert.Equal(t, w.Status, got.Status)
	assert.True(t, got.IsActive)
	assert.Equal(t, w.Quote, got.Quote)
	assert.Equal(t, int64(4), got.Version)
	assert.True(t, got.Timeline.EntryDate.Equal(t0))
	require.NotNil(t, got.Timeline.ExecutionStartedAt)
	assert.Nil(t, got.Timeline.CompletedAt)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "10.005", got.Items[0].UnitPriceWithoutTax.Exact())
	assert.True(t, got.Items[1].Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, w.Totals.WithTax.String(), got.Totals.WithTax.String())
}

func TestInvoiceItemRoundTrip(t *testing.T) {
	items := sampleItems()
	inv := entities.Invoice{
		ID:              "inv-1",
		Number:          "FT 2025/1",
		InvoiceDate:     t0,
		Status:          entities.InvoiceStatusPaid,
		WorkOrderID:     "wo-1",
		WorkOrderNumber: "2025-0001",
		ClientID:        "c-1",
		EmittedByID:     "u-1",
		ClientDetails: entities.ClientSnapshot{
			Name: "Ana Ferreira",
			NIF:  "123456789",
			Address: entities.AddressSnapshot{
				Street:  "Rua das Flores 10",
				City:    "Porto",
				ZipCode: "4000-001",
			},
		},
		VehicleDetails: entities.VehicleSnapshot{LicensePlate: "AA-00-BB", Brand: "Renault", Model: "Clio"},
		Items:          items,
		Totals:         entities.ComputeTotals(items),
		PaidAt:         ptr(t0.Add(time.Hour)),
		CreatedAt:      t0,
		UpdatedAt:      t0.Add(time.Hour),
	}

	av, err := attributevalue.MarshalMap(toInvoiceItem(inv))
	require.NoError(t, err)
	_, hasCanceled := av["canceled_at"]
	assert.False(t, hasCanceled)

	var it invoiceItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &it))
	got := fromInvoiceItem(it)

	assert.Equal(t, inv.Number, got.Number)
	assert.Equal(t, inv.ClientDetails, got.ClientDetails)
	assert.Equal(t, inv.VehicleDetails, got.VehicleDetails)
	assert.Equal(t, inv.Status, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(*inv.PaidAt))
	assert.Nil(t, got.CanceledAt)
	assert.Equal(t, inv.Totals.Tax.String(), got.Totals.Tax.String())
}

func TestInvoicePaymentItemRoundTrip(t *testing.T) {
	p := entities.InvoicePayment{
		ID:                 "123",
		InvoiceID:          "inv-1",
		Date:               t0,
		Status:             entities.PaymentStatusAprovado,
		Amount:             money.MustParse("86.10"),
		ProviderPayloadRaw: json.RawMessage(`{"id":123,"status":"approved"}`),
		ProviderPayload:    map[string]interface{}{"status": "approved"},
	}

	av, err := attributevalue.MarshalMap(toInvoicePaymentItem(p))
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "86.1"}, av["amount"])

	var it invoicePaymentItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &it))
	got := fromInvoicePaymentItem(it)

	assert.Equal(t, "86.10", got.Amount.String())
	assert.Equal(t, p.Status, got.Status)
	assert.JSONEq(t, string(p.ProviderPayloadRaw), string(got.ProviderPayloadRaw))
	assert.Equal(t, "approved", got.ProviderPayload["status"])
}

func TestCatalogItemRoundTrip(t *testing.T) {
	c := entities.Client{
		ID:        "c-1",
		Name:      "Ana Ferreira",
		NIF:       "123456789",
		Phone:     "912345678",
		Email:     "ana@example.com",
		Address:   &entities.Address{Street: "Rua das Flores 10", City: "Porto", ZipCode: "4000-001"},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	gotClient := fromClientItem(toClientItem(c))
	assert.Equal(t, c.Address, gotClient.Address)
	assert.Equal(t, c.NIF, gotClient.NIF)

	c.Address = nil
	assert.Nil(t, fromClientItem(toClientItem(c)).Address)

	v := entities.Vehicle{
		ID:           "v-1",
		ClientID:     "c-1",
		LicensePlate: "AA-00-BB",
		VIN:          "VF1RFB00000000001",
		Brand:        "Renault",
		Model:        "Clio",
		Kilometers:   120000,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	gotVehicle := fromVehicleItem(toVehicleItem(v))
	assert.Equal(t, v.LicensePlate, gotVehicle.LicensePlate)
	assert.Equal(t, v.VIN, gotVehicle.VIN)
	assert.Equal(t, v.Kilometers, gotVehicle.Kilometers)
	assert.True(t, gotVehicle.CreatedAt.Equal(t0))
}

func canceled(reasons ...types.CancellationReason) error {
	return &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled"),
		CancellationReasons: reasons,
	}
}

func reason(code string) types.CancellationReason {
	return types.CancellationReason{Code: aws.String(code)}
}

func TestWorkOrderCreateError(t *testing.T) {
	w := entities.WorkOrder{ID: "wo-2", VehicleID: "v-1", Number: "2025-0002", IsActive: true}

	t.Run("held vehicle marker names the active order", func(t *testing.T) {
		held := reason(reasonConditionalCheckFailed)
		held.Item = map[string]types.AttributeValue{
			"unique_key":        &types.AttributeValueMemberS{Value: markerActiveVehicle + "v-1"},
			"owner_id":          &types.AttributeValueMemberS{Value: "wo-1"},
			"work_order_number": &types.AttributeValueMemberS{Value: "2025-0001"},
		}
		err := workOrderCreateError(canceled(reason("None"), reason("None"), held), w)

		var conflict *entities.ActiveWorkOrderConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "wo-1", conflict.ExistingWorkOrderID)
		assert.Equal(t, "2025-0001", conflict.ExistingWorkOrderNumber)
		assert.ErrorIs(t, err, entities.ErrVehicleAlreadyHasActiveWorkOrder)
	})

	t.Run("taken number is an allocation conflict", func(t *testing.T) {
		err := workOrderCreateError(canceled(reason("None"), reason(reasonConditionalCheckFailed), reason("None")), w)
		assert.ErrorIs(t, err, entities.ErrAllocationConflict)
	})

	t.Run("concurrent transaction is an allocation conflict", func(t *testing.T) {
		err := workOrderCreateError(canceled(reason(reasonTransactionConflict), reason("None"), reason("None")), w)
		assert.ErrorIs(t, err, entities.ErrAllocationConflict)
	})

	t.Run("throttling is an allocation conflict", func(t *testing.T) {
		err := workOrderCreateError(&smithy.GenericAPIError{Code: "ThrottlingException"}, w)
		assert.ErrorIs(t, err, entities.ErrAllocationConflict)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		assert.Equal(t, boom, workOrderCreateError(boom, w))
	})
}

func TestWorkOrderUpdateError(t *testing.T) {
	assert.ErrorIs(t, workOrderUpdateError(canceled(reason(reasonConditionalCheckFailed))), entities.ErrStaleWrite)
	assert.ErrorIs(t, workOrderUpdateError(canceled(reason(reasonTransactionConflict))), entities.ErrStaleWrite)
	assert.ErrorIs(t, workOrderUpdateError(&smithy.GenericAPIError{Code: "TransactionConflictException"}), entities.ErrStaleWrite)

	boom := errors.New("boom")
	assert.Equal(t, boom, workOrderUpdateError(boom))
}

func TestInvoiceCreateError(t *testing.T) {
	assert.ErrorIs(t, invoiceCreateError(canceled(reason("None"), reason(reasonConditionalCheckFailed), reason("None"))), entities.ErrDuplicateInvoice)
	assert.ErrorIs(t, invoiceCreateError(canceled(reason(reasonConditionalCheckFailed), reason("None"), reason("None"))), entities.ErrDuplicateInvoice)

	numberTaken := invoiceCreateError(canceled(reason("None"), reason("None"), reason(reasonConditionalCheckFailed)))
	assert.ErrorIs(t, numberTaken, entities.ErrAllocationConflict)
	assert.False(t, errors.Is(numberTaken, entities.ErrDuplicateInvoice))
	assert.ErrorIs(t, invoiceCreateError(canceled(reason(reasonTransactionConflict), reason("None"), reason("None"))), entities.ErrAllocationConflict)
	assert.ErrorIs(t, invoiceCreateError(&smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}), entities.ErrAllocationConflict)

	err := invoiceCreateError(&smithy.GenericAPIError{Code: "ValidationException"})
	assert.False(t, errors.Is(err, entities.ErrAllocationConflict))
}

func TestDuplicateOn(t *testing.T) {
	err := duplicateOn(canceled(reason("None"), reason(reasonConditionalCheckFailed)), entities.ErrDuplicateClient)
	assert.ErrorIs(t, err, entities.ErrDuplicateClient)

	boom := errors.New("boom")
	assert.Equal(t, boom, duplicateOn(boom, entities.ErrDuplicateClient))
}

func TestCounterValue(t *testing.T) {
	n, err := counterValue(map[string]types.AttributeValue{
		sequencesCounterAttribute: &types.AttributeValueMemberN{Value: "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = counterValue(map[string]types.AttributeValue{})
	assert.Error(t, err)
}

func TestTablesFromEnv(t *testing.T) {
	t.Setenv("WORK_ORDERS_TABLE", "oficina-work-orders")
	tables := TablesFromEnv()
	assert.Equal(t, "oficina-work-orders", tables.WorkOrders)
	assert.Equal(t, defaultUniquesTableName, tables.Uniques)
}

func TestTableDefinitions(t *testing.T) {
	defs := TablesFromEnv().TableDefinitions()
	require.Len(t, defs, 7)

	byName := map[string]int{}
	for i, d := range defs {
		byName[aws.ToString(d.TableName)] = i
		assert.Equal(t, types.BillingModePayPerRequest, d.BillingMode)
	}

	wo := defs[byName[defaultWorkOrdersTableName]]
	require.Len(t, wo.GlobalSecondaryIndexes, 2)
	attrs := []string{}
	for _, a := range wo.AttributeDefinitions {
		attrs = append(attrs, aws.ToString(a.AttributeName))
	}
	assert.ElementsMatch(t, []string{"id", "vehicle_id", "entry_date", "status"}, attrs)

	inv := defs[byName[defaultInvoicesTableName]]
	require.Len(t, inv.GlobalSecondaryIndexes, 1)
	assert.Equal(t, invoicesPendingLinkIndex, aws.ToString(inv.GlobalSecondaryIndexes[0].IndexName))

	uniq := defs[byName[defaultUniquesTableName]]
	assert.Equal(t, uniquesKeyAttribute, aws.ToString(uniq.KeySchema[0].AttributeName))
	assert.Empty(t, uniq.GlobalSecondaryIndexes)
}

func TestPaymentClaimMarker(t *testing.T) {
	at := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)
	m := paymentClaimMarker(entities.PaymentClaim{InvoiceID: "inv-1", OwnerID: "owner-1", ClaimedAt: at, ExpiresAt: at.Add(10 * time.Minute)})
	assert.Equal(t, markerPaymentInvoice+"inv-1", m.Key)
	assert.Equal(t, "owner-1", m.OwnerID)
	assert.Equal(t, at.Add(10*time.Minute).Unix(), m.ExpiresAt)
}
