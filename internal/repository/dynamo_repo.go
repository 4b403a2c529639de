package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client the repository calls.
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// bookingItem is the table's record shape. Older records may hold rooms as a native list
// and guestName as a list, and may carry the guest count under "guests".
type bookingItem struct {
	BookingID      string      `dynamodbav:"bookingId"`
	GuestName      guestField  `dynamodbav:"guestName"`
	GuestNames     []string    `dynamodbav:"guestNames,omitempty"`
	NumberOfGuests int         `dynamodbav:"numberOfGuests,omitempty"`
	Guests         int         `dynamodbav:"guests,omitempty"`
	Rooms          dynamoRooms `dynamodbav:"rooms"`
	TotalPrice     int         `dynamodbav:"totalPrice"`
	CreatedAt      string      `dynamodbav:"createdAt"`
}

type dynamoRooms models.Rooms

func (r dynamoRooms) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	s, err := models.Rooms(r).Encode()
	if err != nil {
		return nil, err
	}
	return &types.AttributeValueMemberS{Value: s}, nil
}

func (r *dynamoRooms) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		rooms, err := models.ParseRooms([]byte(v.Value))
		if err != nil {
			return err
		}
		*r = dynamoRooms(rooms)
	case *types.AttributeValueMemberL:
		var rooms []models.Room
		err := attributevalue.UnmarshalWithOptions(v, &rooms, func(o *attributevalue.DecoderOptions) {
			o.TagKey = "json"
		})
		if err != nil {
			return fmt.Errorf("decode rooms list: %w", err)
		}
		*r = dynamoRooms(rooms)
	case *types.AttributeValueMemberNULL:
		*r = dynamoRooms{}
	default:
		return fmt.Errorf("rooms attribute %T: %w", av, models.ErrRoomsEncoding)
	}
	return nil
}

type guestField struct {
	Name   string
	Roster []string
}

func (g guestField) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: g.Name}, nil
}

func (g *guestField) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		g.Name = v.Value
	case *types.AttributeValueMemberL:
		if err := attributevalue.Unmarshal(v, &g.Roster); err != nil {
			return fmt.Errorf("decode guest roster: %w", err)
		}
		if len(g.Roster) > 0 {
			g.Name = g.Roster[0]
		}
	case *types.AttributeValueMemberNULL:
	default:
		return fmt.Errorf("guestName attribute %T is not a string or list", av)
	}
	return nil
}

func toItem(b *models.Booking) bookingItem {
	return bookingItem{
		BookingID:      b.BookingID,
		GuestName:      guestField{Name: b.GuestName},
		GuestNames:     b.GuestNames,
		NumberOfGuests: b.NumberOfGuests,
		Rooms:          dynamoRooms(b.Rooms),
		TotalPrice:     b.TotalPrice,
		CreatedAt:      b.CreatedAt,
	}
}

func (it bookingItem) toModel() models.Booking {
	b := models.Booking{
		BookingID:      it.BookingID,
		GuestName:      it.GuestName.Name,
		GuestNames:     it.GuestNames,
		NumberOfGuests: it.NumberOfGuests,
		Rooms:          models.Rooms(it.Rooms),
		TotalPrice:     it.TotalPrice,
		CreatedAt:      it.CreatedAt,
	}
	if b.GuestNames == nil && it.GuestName.Roster != nil {
		b.GuestNames = it.GuestName.Roster
	}
	if b.NumberOfGuests == 0 {
		b.NumberOfGuests = it.Guests
	}
	if b.Rooms == nil {
		b.Rooms = models.Rooms{}
	}
	return b
}

func decodeBooking(item map[string]types.AttributeValue) (*models.Booking, error) {
	var it bookingItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return nil, fmt.Errorf("decode booking item: %w", err)
	}
	b := it.toModel()
	return &b, nil
}

type dynamoRepository struct {
	client DynamoAPI
	opts   Options
}

func NewDynamoRepository(client DynamoAPI, opts Options) BookingRepository {
	if opts.Table == "" {
		opts.Table = "bookings-table"
	}
	if opts.InventoryTable == "" {
		opts.InventoryTable = "inventory-table"
	}
	return &dynamoRepository{client: client, opts: opts}
}

func (r *dynamoRepository) bookingKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"bookingId": &types.AttributeValueMemberS{Value: id}}
}

func (r *dynamoRepository) counterKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: models.HotelCounterID}}
}

func number(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
}

func (r *dynamoRepository) Scan(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking

	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.opts.Table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.opts.Table, err)
		}
		for _, item := range page.Items {
			b, err := decodeBooking(item)
			if err != nil {
				return nil, err
			}
			bookings = append(bookings, *b)
		}
	}

	return bookings, nil
}

func (r *dynamoRepository) getItem(ctx context.Context, id string) (map[string]types.AttributeValue, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.opts.Table),
		Key:            r.bookingKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return out.Item, nil
}

func (r *dynamoRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	item, err := r.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeBooking(item)
}

func (r *dynamoRepository) Put(ctx context.Context, booking *models.Booking) error {
	item, err := attributevalue.MarshalMap(toItem(booking))
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}

	if !r.opts.guarded() {
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.opts.Table), Item: item})
		return err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			r.counterUpdate(roomCount(booking.Rooms)),
			{Put: &types.Put{
				TableName:           aws.String(r.opts.Table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(bookingId)"),
			}},
		},
	})
	return transactErr(err)
}

// counterUpdate adds delta to the counter item. Growth is conditional on staying within
// capacity; DynamoDB conditions cannot do arithmetic, so the bound is precomputed.
func (r *dynamoRepository) counterUpdate(delta int) types.TransactWriteItem {
	update := &types.Update{
		TableName:                aws.String(r.opts.InventoryTable),
		Key:                      r.counterKey(),
		UpdateExpression:         aws.String("SET #b = if_not_exists(#b, :zero) + :delta, #c = :cap"),
		ExpressionAttributeNames: map[string]string{"#b": "booked", "#c": "capacity"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  number(0),
			":delta": number(delta),
			":cap":   number(r.opts.Capacity),
		},
	}
	if delta > 0 {
		update.ConditionExpression = aws.String("attribute_not_exists(#b) OR #b <= :limit")
		update.ExpressionAttributeValues[":limit"] = number(r.opts.Capacity - delta)
	}
	return types.TransactWriteItem{Update: update}
}

// transactErr maps a cancelled transaction to the condition that failed. The counter
// update is always the first transact item.
func transactErr(err error) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return err
	}
	for i, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) != "ConditionalCheckFailed" {
			continue
		}
		if i == 0 {
			return ErrInventoryExhausted
		}
		return ErrConflict
	}
	return err
}

func (r *dynamoRepository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	rooms, err := dynamoRooms(booking.Rooms).MarshalDynamoDBAttributeValue()
	if err != nil {
		return nil, err
	}
	names, err := attributevalue.Marshal(booking.GuestNames)
	if err != nil {
		return nil, fmt.Errorf("encode guest names: %w", err)
	}

	attrNames := map[string]string{
		"#gn": "guestName", "#gns": "guestNames", "#n": "numberOfGuests",
		"#r": "rooms", "#p": "totalPrice", "#c": "createdAt",
	}
	values := map[string]types.AttributeValue{
		":gn":  &types.AttributeValueMemberS{Value: booking.GuestName},
		":gns": names,
		":n":   number(booking.NumberOfGuests),
		":r":   rooms,
		":p":   number(booking.TotalPrice),
		":c":   &types.AttributeValueMemberS{Value: booking.CreatedAt},
	}
	expr := "SET #gn = :gn, #gns = :gns, #n = :n, #r = :r, #p = :p, #c = if_not_exists(#c, :c)"

	if !r.opts.guarded() {
		out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.opts.Table),
			Key:                       r.bookingKey(booking.BookingID),
			UpdateExpression:          aws.String(expr),
			ExpressionAttributeNames:  attrNames,
			ExpressionAttributeValues: values,
			ReturnValues:              types.ReturnValueAllNew,
		})
		if err != nil {
			return nil, fmt.Errorf("update booking %s: %w", booking.BookingID, err)
		}
		return decodeBooking(out.Attributes)
	}

	old, err := r.getItem(ctx, booking.BookingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	delta := roomCount(booking.Rooms)
	update := &types.Update{
		TableName:                 aws.String(r.opts.Table),
		Key:                       r.bookingKey(booking.BookingID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  attrNames,
		ExpressionAttributeValues: values,
	}
	result := *booking
	if old == nil {
		update.ConditionExpression = aws.String("attribute_not_exists(bookingId)")
	} else {
		previous, err := decodeBooking(old)
		if err != nil {
			return nil, err
		}
		delta -= roomCount(previous.Rooms)
		if previous.CreatedAt != "" {
			result.CreatedAt = previous.CreatedAt
		}
		// the rooms we computed the delta from must still be the stored ones
		update.ConditionExpression = aws.String("#r = :oldRooms")
		update.ExpressionAttributeValues[":oldRooms"] = old["rooms"]
	}

	items := []types.TransactWriteItem{{Update: update}}
	if delta != 0 {
		items = append([]types.TransactWriteItem{r.counterUpdate(delta)}, items...)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err = transactErr(err); err != nil {
		if delta == 0 && errors.Is(err, ErrInventoryExhausted) {
			err = ErrConflict
		}
		return nil, err
	}
	return &result, nil
}

func (r *dynamoRepository) Delete(ctx context.Context, id string) (*models.Booking, error) {
	if !r.opts.guarded() {
		out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:    aws.String(r.opts.Table),
			Key:          r.bookingKey(id),
			ReturnValues: types.ReturnValueAllOld,
		})
		if err != nil {
			return nil, fmt.Errorf("delete booking %s: %w", id, err)
		}
		if len(out.Attributes) == 0 {
			return nil, nil
		}
		return decodeBooking(out.Attributes)
	}

	old, err := r.getItem(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	previous, err := decodeBooking(old)
	if err != nil {
		return nil, err
	}

	items := []types.TransactWriteItem{{Delete: &types.Delete{
		TableName:                 aws.String(r.opts.Table),
		Key:                       r.bookingKey(id),
		ConditionExpression:       aws.String("#r = :oldRooms"),
		ExpressionAttributeNames:  map[string]string{"#r": "rooms"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":oldRooms": old["rooms"]},
	}}}
	if n := roomCount(previous.Rooms); n > 0 {
		items = append([]types.TransactWriteItem{r.counterUpdate(-n)}, items...)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err = transactErr(err); err != nil {
		if errors.Is(err, ErrInventoryExhausted) {
			err = ErrConflict
		}
		return nil, err
	}
	return previous, nil
}

func (r *dynamoRepository) Reconcile(ctx context.Context) (int, error) {
	bookings, err := r.Scan(ctx)
	if err != nil {
		return 0, err
	}
	total := sumRooms(bookings)

	if !r.opts.guarded() {
		return total, nil
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.opts.InventoryTable),
		Item:      r.counterItem(total),
	})
	if err != nil {
		return 0, fmt.Errorf("store inventory counter: %w", err)
	}
	return total, nil
}

func (r *dynamoRepository) counterItem(booked int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":       &types.AttributeValueMemberS{Value: models.HotelCounterID},
		"capacity": number(r.opts.Capacity),
		"booked":   number(booked),
	}
}

func (r *dynamoRepository) EnsureCounter(ctx context.Context) (bool, error) {
	if !r.opts.guarded() {
		return false, nil
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.opts.InventoryTable),
		Key:            r.counterKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("read inventory counter: %w", err)
	}
	if len(out.Item) > 0 {
		return false, nil
	}

	// guarded writes fail while the counter is missing, so the scan cannot miss one
	bookings, err := r.Scan(ctx)
	if err != nil {
		return false, err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.opts.InventoryTable),
		Item:                r.counterItem(sumRooms(bookings)),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	var exists *types.ConditionalCheckFailedException
	if errors.As(err, &exists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create inventory counter: %w", err)
	}
	return true, nil
}
