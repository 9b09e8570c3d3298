package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/slices"
	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var _ events.Repository = &DB{}

type eventDynamo struct {
	PK          string
	SK          string
	ID          string
	Version     int
	OrganizerID string
	Name        string
	Location    string
	StartTime   time.Time
	State       events.State
	Capacity    *int `dynamodbav:",omitempty"`
	NumCounted  int
	PaymentInfo *string `dynamodbav:",omitempty"`
}

type categoryDynamo struct {
	PK          string
	SK          string
	GSI1PK      string
	GSI1SK      string
	ID          string
	EventID     string
	Version     int
	Name        string
	Capacity    *int `dynamodbav:",omitempty"`
	AgeMin      int
	AgeMax      int
	Gender      participant.Gender
	FeeAmount   *int64  `dynamodbav:",omitempty"`
	FeeCurrency *string `dynamodbav:",omitempty"`
	NumCounted  int
}

const (
	eventEntityName    = "EVENT"
	categoryEntityName = "CATEGORY"
)

func eventPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", eventEntityName, id)
}

func eventSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", eventEntityName, id)
}

func categoryPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", categoryEntityName, id)
}

func categorySK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", categoryEntityName, id)
}

func newEventDynamo(event events.Event) eventDynamo {
	return eventDynamo{
		PK:          eventPK(event.ID),
		SK:          eventSK(event.ID),
		ID:          event.ID.String(),
		Version:     event.Version,
		OrganizerID: event.OrganizerID.String(),
		Name:        event.Name,
		Location:    event.Location,
		StartTime:   event.StartTime,
		State:       event.State,
		Capacity:    event.Capacity,
		NumCounted:  event.NumCounted,
		PaymentInfo: event.PaymentInfo,
	}
}

func eventFromEventDynamo(event eventDynamo) events.Event {
	return events.Event{
		ID:          uuid.MustParse(event.ID),
		Version:     event.Version,
		OrganizerID: uuid.MustParse(event.OrganizerID),
		Name:        event.Name,
		Location:    event.Location,
		StartTime:   event.StartTime,
		State:       event.State,
		Capacity:    event.Capacity,
		NumCounted:  event.NumCounted,
		PaymentInfo: event.PaymentInfo,
	}
}

func newCategoryDynamo(category events.Category) categoryDynamo {
	item := categoryDynamo{
		PK:         categoryPK(category.ID),
		SK:         categorySK(category.ID),
		GSI1PK:     eventPK(category.EventID),
		GSI1SK:     categorySK(category.ID),
		ID:         category.ID.String(),
		EventID:    category.EventID.String(),
		Version:    category.Version,
		Name:       category.Name,
		Capacity:   category.Capacity,
		AgeMin:     category.AgeRange.Min,
		AgeMax:     category.AgeRange.Max,
		Gender:     category.Gender,
		NumCounted: category.NumCounted,
	}
	if category.Fee != nil {
		amount := category.Fee.Amount()
		currency := category.Fee.Currency().Code
		item.FeeAmount = &amount
		item.FeeCurrency = &currency
	}
	return item
}

func categoryFromCategoryDynamo(category categoryDynamo) events.Category {
	result := events.Category{
		ID:         uuid.MustParse(category.ID),
		EventID:    uuid.MustParse(category.EventID),
		Version:    category.Version,
		Name:       category.Name,
		Capacity:   category.Capacity,
		AgeRange:   events.Range{Min: category.AgeMin, Max: category.AgeMax},
		Gender:     category.Gender,
		NumCounted: category.NumCounted,
	}
	if category.FeeAmount != nil && category.FeeCurrency != nil {
		result.Fee = money.New(*category.FeeAmount, *category.FeeCurrency)
	}
	return result
}

func (d *DB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: eventPK(id)},
			"SK": &types.AttributeValueMemberS{Value: eventSK(id)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return events.Event{}, events.NewTimeoutError("GetEvent timed out")
		}
		return events.Event{}, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return events.Event{}, events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", id), nil)
	}

	var event eventDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &event)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal event from DB: %s", err))
	}
	return eventFromEventDynamo(event), nil
}

func (d *DB) CreateEvent(ctx context.Context, event events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem := newEventDynamo(event)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return events.NewFailedToTranslateToDBModelError("Failed to convert Event to eventDynamo", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityVersionConditional(dynamoItem.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return events.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q already exists", event.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("CreateEvent timed out")
		} else {
			return events.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}

func (d *DB) GetCategory(ctx context.Context, id uuid.UUID) (events.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: categoryPK(id)},
			"SK": &types.AttributeValueMemberS{Value: categorySK(id)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return events.Category{}, events.NewTimeoutError("GetCategory timed out")
		}
		return events.Category{}, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch category with ID %q", id), err)
	}

	if len(resp.Item) == 0 {
		return events.Category{}, events.NewCategoryDoesNotExistsError(fmt.Sprintf("Category with ID %q not found", id), nil)
	}

	var category categoryDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &category)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal category from DB: %s", err))
	}
	return categoryFromCategoryDynamo(category), nil
}

func (d *DB) GetCategoriesForEvent(ctx context.Context, eventID uuid.UUID) ([]events.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(eventPK(eventID))).
		And(expression.Key("GSI1SK").BeginsWith(categoryEntityName))
	expr := exprMustBuild(expression.NewBuilder().WithKeyCondition(keyCond))

	paginator := dynamodb.NewQueryPaginator(d.dynamoClient, &dynamodb.QueryInput{
		IndexName:                 aws.String(gsi1),
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var dynamoItems []categoryDynamo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, events.NewTimeoutError("GetCategoriesForEvent timed out")
			}
			return nil, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch categories for event %q", eventID), err)
		}

		var pageItems []categoryDynamo
		err = attributevalue.UnmarshalListOfMaps(page.Items, &pageItems)
		if err != nil {
			panic(fmt.Sprintf("failed to unmarshal dynamo categories: %s", err))
		}
		dynamoItems = append(dynamoItems, pageItems...)
	}

	return slices.Map(dynamoItems, categoryFromCategoryDynamo), nil
}

// CreateCategory writes the category only if its parent event exists.
func (d *DB) CreateCategory(ctx context.Context, category events.Category) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem := newCategoryDynamo(category)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return events.NewFailedToTranslateToDBModelError("Failed to convert Category to categoryDynamo", err)
	}

	categoryExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityVersionConditional(dynamoItem.Version)))
	eventExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists()))

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:                 aws.String(d.tableName),
					Item:                      item,
					ConditionExpression:       categoryExpr.Condition(),
					ExpressionAttributeNames:  categoryExpr.Names(),
					ExpressionAttributeValues: categoryExpr.Values(),
				},
			},
			{
				ConditionCheck: &types.ConditionCheck{
					TableName: aws.String(d.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: eventPK(category.EventID)},
						"SK": &types.AttributeValueMemberS{Value: eventSK(category.EventID)},
					},
					ConditionExpression:      eventExpr.Condition(),
					ExpressionAttributeNames: eventExpr.Names(),
				},
			},
		},
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			if cancelledByCondition(transactionFailedErr, 1) {
				return events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", category.EventID), err)
			}
			return events.NewCategoryAlreadyExistsError(fmt.Sprintf("Category with ID %q already exists", category.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("CreateCategory timed out")
		} else {
			return events.NewFailedToWriteError("Failed TransactWriteItems call", err)
		}
	}

	return nil
}

func (d *DB) UpdateCategory(ctx context.Context, category events.Category) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoItem := newCategoryDynamo(category)

	item, err := attributevalue.MarshalMap(dynamoItem)
	if err != nil {
		return events.NewFailedToTranslateToDBModelError("Failed to convert Category to categoryDynamo", err)
	}

	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(existingEntityVersionConditional(dynamoItem.Version)))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return events.NewVersionConflictError(fmt.Sprintf("Category with ID %q changed or does not exist", category.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("UpdateCategory timed out")
		} else {
			return events.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}
