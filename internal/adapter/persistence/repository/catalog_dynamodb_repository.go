package repository

import (
	"context"
	"fmt"
	"log"
	"sort"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type clientItem struct {
	ID        string               `dynamodbav:"id"`
	Name      string               `dynamodbav:"name"`
	NIF       string               `dynamodbav:"nif"`
	Phone     string               `dynamodbav:"phone"`
	Email     string               `dynamodbav:"email,omitempty"`
	Address   *addressSnapshotItem `dynamodbav:"address,omitempty"`
	CreatedAt string               `dynamodbav:"created_at"`
	UpdatedAt string               `dynamodbav:"updated_at"`
}

type vehicleItem struct {
	ID           string `dynamodbav:"id"`
	ClientID     string `dynamodbav:"client_id"`
	LicensePlate string `dynamodbav:"license_plate"`
	Brand        string `dynamodbav:"brand"`
	Model        string `dynamodbav:"model"`
	Kilometers   int    `dynamodbav:"kilometers"`
	VIN          string `dynamodbav:"vin"`
	CreatedAt    string `dynamodbav:"created_at"`
	UpdatedAt    string `dynamodbav:"updated_at"`
}

// ClientDynamoRepository persists clients. The NIF is unique through a client_nif# marker.
type ClientDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
	uniques   uniques
}

var _ interfaces.IClientRepository = (*ClientDynamoRepository)(nil)

func NewClientDynamoRepository(ddb *dynamodb.Client, t Tables) *ClientDynamoRepository {
	return &ClientDynamoRepository{ddb: ddb, tableName: t.Clients, uniques: uniques{ddb: ddb, tableName: t.Uniques}}
}

func (r *ClientDynamoRepository) Create(ctx context.Context, c entities.Client) (entities.Client, error) {
	av, err := attributevalue.MarshalMap(toClientItem(c))
	if err != nil {
		return entities.Client{}, err
	}
	nif, err := r.uniques.put(markerItem{Key: markerClientNIF + c.NIF, OwnerID: c.ID, CreatedAt: formatTime(c.CreatedAt)})
	if err != nil {
		return entities.Client{}, err
	}
	if err := r.transact(ctx, putNew(r.tableName, av), nif); err != nil {
		err = duplicateOn(err, entities.ErrDuplicateClient)
		log.Printf("[catalog][dynamodb] create client failed id=%s err=%v", c.ID, err)
		return entities.Client{}, err
	}
	return c, nil
}

func (r *ClientDynamoRepository) GetByID(ctx context.Context, id string) (entities.Client, error) {
	var it clientItem
	found, err := getItem(ctx, r.ddb, r.tableName, id, &it)
	if err != nil || !found {
		return entities.Client{}, err
	}
	return fromClientItem(it), nil
}

// Update rewrites the editable contact fields. NIF and CreatedAt are never touched.
func (r *ClientDynamoRepository) Update(ctx context.Context, c entities.Client) (entities.Client, error) {
	expr := "SET #name = :name, #phone = :phone, #email = :email, #updated_at = :updated_at"
	vals := map[string]types.AttributeValue{
		":name":       &types.AttributeValueMemberS{Value: c.Name},
		":phone":      &types.AttributeValueMemberS{Value: c.Phone},
		":email":      &types.AttributeValueMemberS{Value: c.Email},
		":updated_at": &types.AttributeValueMemberS{Value: formatTime(c.UpdatedAt)},
	}
	names := map[string]string{"#name": "name", "#phone": "phone", "#email": "email", "#updated_at": "updated_at"}
	if c.Address != nil {
		addr, err := attributevalue.Marshal(addressSnapshotItem{Street: c.Address.Street, City: c.Address.City, ZipCode: c.Address.ZipCode})
		if err != nil {
			return entities.Client{}, err
		}
		expr += ", #address = :address"
		vals[":address"] = addr
		names["#address"] = "address"
	}
	var it clientItem
	found, err := updateItem(ctx, r.ddb, r.tableName, c.ID, expr, vals, names, &it)
	if err != nil || !found {
		return entities.Client{}, err
	}
	return fromClientItem(it), nil
}

func (r *ClientDynamoRepository) transact(ctx context.Context, items ...types.TransactWriteItem) error {
	_, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

// VehicleDynamoRepository persists vehicles.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: client_id-index (PK: client_id)
//
// License plate and VIN are unique through vehicle_plate# and vehicle_vin# markers.
type VehicleDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
	uniques   uniques
}

var _ interfaces.IVehicleRepository = (*VehicleDynamoRepository)(nil)

func NewVehicleDynamoRepository(ddb *dynamodb.Client, t Tables) *VehicleDynamoRepository {
	return &VehicleDynamoRepository{ddb: ddb, tableName: t.Vehicles, uniques: uniques{ddb: ddb, tableName: t.Uniques}}
}

func (r *VehicleDynamoRepository) Create(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error) {
	av, err := attributevalue.MarshalMap(toVehicleItem(v))
	if err != nil {
		return entities.Vehicle{}, err
	}
	now := formatTime(v.CreatedAt)
	plate, err := r.uniques.put(markerItem{Key: markerVehiclePlate + v.LicensePlate, OwnerID: v.ID, CreatedAt: now})
	if err != nil {
		return entities.Vehicle{}, err
	}
	vin, err := r.uniques.put(markerItem{Key: markerVehicleVIN + v.VIN, OwnerID: v.ID, CreatedAt: now})
	if err != nil {
		return entities.Vehicle{}, err
	}
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{putNew(r.tableName, av), plate, vin},
	})
	if err != nil {
		err = duplicateOn(err, entities.ErrDuplicateVehicle)
		log.Printf("[catalog][dynamodb] create vehicle failed id=%s err=%v", v.ID, err)
		return entities.Vehicle{}, err
	}
	return v, nil
}

func (r *VehicleDynamoRepository) GetByID(ctx context.Context, id string) (entities.Vehicle, error) {
	var it vehicleItem
	found, err := getItem(ctx, r.ddb, r.tableName, id, &it)
	if err != nil || !found {
		return entities.Vehicle{}, err
	}
	return fromVehicleItem(it), nil
}

func (r *VehicleDynamoRepository) ListByClientID(ctx context.Context, clientID string) ([]entities.Vehicle, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(vehiclesClientIDIndex),
		KeyConditionExpression: aws.String("client_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: clientID},
		},
	})
	out := []entities.Vehicle{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it vehicleItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			out = append(out, fromVehicleItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LicensePlate < out[j].LicensePlate })
	return out, nil
}

// Update rewrites the mutable vehicle fields. Owner, plate and VIN stay as registered.
func (r *VehicleDynamoRepository) Update(ctx context.Context, v entities.Vehicle) (entities.Vehicle, error) {
	expr := "SET #brand = :brand, #model = :model, #km = :km, #updated_at = :updated_at"
	vals := map[string]types.AttributeValue{
		":brand":      &types.AttributeValueMemberS{Value: v.Brand},
		":model":      &types.AttributeValueMemberS{Value: v.Model},
		":km":         &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", v.Kilometers)},
		":updated_at": &types.AttributeValueMemberS{Value: formatTime(v.UpdatedAt)},
	}
	names := map[string]string{"#brand": "brand", "#model": "model", "#km": "kilometers", "#updated_at": "updated_at"}
	var it vehicleItem
	found, err := updateItem(ctx, r.ddb, r.tableName, v.ID, expr, vals, names, &it)
	if err != nil || !found {
		return entities.Vehicle{}, err
	}
	return fromVehicleItem(it), nil
}

func putNew(table string, av map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                aws.String(table),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	}}
}

// duplicateOn reports a failed uniqueness condition as dup.
func duplicateOn(err error, dup error) error {
	for _, rs := range cancellationReasons(err) {
		if reasonCode(rs) == reasonConditionalCheckFailed {
			return fmt.Errorf("%w: %v", dup, err)
		}
	}
	return err
}

func getItem(ctx context.Context, ddb *dynamodb.Client, table, id string, into any) (bool, error) {
	out, err := ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	if len(out.Item) == 0 {
		return false, nil
	}
	return true, attributevalue.UnmarshalMap(out.Item, into)
}

// updateItem applies expr to an existing item and decodes the new image into into. A missing
// item is reported as not found, not as an error.
func updateItem(
	ctx context.Context,
	ddb *dynamodb.Client,
	table, id, expr string,
	values map[string]types.AttributeValue,
	names map[string]string,
	into any,
) (bool, error) {
	out, err := ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       stringKey("id", id),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return false, nil
		}
		return false, err
	}
	if len(out.Attributes) == 0 {
		return false, nil
	}
	return true, attributevalue.UnmarshalMap(out.Attributes, into)
}

func toClientItem(c entities.Client) clientItem {
	it := clientItem{
		ID:        c.ID,
		Name:      c.Name,
		NIF:       c.NIF,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
	if c.Address != nil {
		it.Address = &addressSnapshotItem{Street: c.Address.Street, City: c.Address.City, ZipCode: c.Address.ZipCode}
	}
	return it
}

func fromClientItem(it clientItem) entities.Client {
	c := entities.Client{
		ID:        it.ID,
		Name:      it.Name,
		NIF:       it.NIF,
		Phone:     it.Phone,
		Email:     it.Email,
		CreatedAt: parseTime(it.CreatedAt),
		UpdatedAt: parseTime(it.UpdatedAt),
	}
	if it.Address != nil {
		c.Address = &entities.Address{Street: it.Address.Street, City: it.Address.City, ZipCode: it.Address.ZipCode}
	}
	return c
}

func toVehicleItem(v entities.Vehicle) vehicleItem {
	return vehicleItem{
		ID:           v.ID,
		ClientID:     v.ClientID,
		LicensePlate: v.LicensePlate,
		Brand:        v.Brand,
		Model:        v.Model,
		Kilometers:   v.Kilometers,
		VIN:          v.VIN,
		CreatedAt:    formatTime(v.CreatedAt),
		UpdatedAt:    formatTime(v.UpdatedAt),
	}
}

func fromVehicleItem(it vehicleItem) entities.Vehicle {
	return entities.Vehicle{
		ID:           it.ID,
		ClientID:     it.ClientID,
		LicensePlate: it.LicensePlate,
		Brand:        it.Brand,
		Model:        it.Model,
		Kilometers:   it.Kilometers,
		VIN:          it.VIN,
		CreatedAt:    parseTime(it.CreatedAt),
		UpdatedAt:    parseTime(it.UpdatedAt),
	}
}
