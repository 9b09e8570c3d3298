package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/Estebaan93/RunnConnectAPI/slices"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var _ registration.Repository = &DB{}

type registrationDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string
	GSI2PK string
	GSI2SK string

	ID              string
	Version         int
	ParticipantID   string
	ParticipantName string
	// ParticipantNameKey is ParticipantName folded for contains filters.
	ParticipantNameKey string
	CategoryID         string
	EventID            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Status             registration.PaymentStatus
	ShirtSize          *registration.ShirtSize `dynamodbav:",omitempty"`
	WaiverAccepted     bool
	PaymentProofRef    *string `dynamodbav:",omitempty"`
	StatusReason       *string `dynamodbav:",omitempty"`
}

// activeRegistrationDynamo marks the participant's active registration in an event.
// It lives in the event partition so the uniqueness check is a single key condition.
type activeRegistrationDynamo struct {
	PK             string
	SK             string
	ParticipantID  string
	RegistrationID string
}

const (
	registrationEntityName       = "REGISTRATION"
	activeRegistrationEntityName = "ACTIVE_REGISTRATION"
	participantEntityName        = "PARTICIPANT"

	// Fixed width so GSI sort keys order by creation time.
	sortableTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

func registrationPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, id)
}

func registrationSK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, id)
}

func registrationSortKey(createdAt time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s#%s#%s", registrationEntityName, createdAt.UTC().Format(sortableTimeLayout), id)
}

func participantPK(id uuid.UUID) string {
	return fmt.Sprintf("%s#%s", participantEntityName, id)
}

func activeRegistrationSK(participantID uuid.UUID) string {
	return fmt.Sprintf("%s#%s", activeRegistrationEntityName, participantID)
}

func activeRegistrationKey(eventID, participantID uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: eventPK(eventID)},
		"SK": &types.AttributeValueMemberS{Value: activeRegistrationSK(participantID)},
	}
}

func registrationToDynamo(reg registration.Registration) registrationDynamo {
	return registrationDynamo{
		PK:                 registrationPK(reg.ID),
		SK:                 registrationSK(reg.ID),
		GSI1PK:             eventPK(reg.EventID),
		GSI1SK:             registrationSortKey(reg.CreatedAt, reg.ID),
		GSI2PK:             participantPK(reg.ParticipantID),
		GSI2SK:             registrationSortKey(reg.CreatedAt, reg.ID),
		ID:                 reg.ID.String(),
		Version:            reg.Version,
		ParticipantID:      reg.ParticipantID.String(),
		ParticipantName:    reg.ParticipantName,
		ParticipantNameKey: registration.NameSearchKey(reg.ParticipantName),
		CategoryID:         reg.CategoryID.String(),
		EventID:            reg.EventID.String(),
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
		Status:             reg.Status,
		ShirtSize:          reg.ShirtSize,
		WaiverAccepted:     reg.WaiverAccepted,
		PaymentProofRef:    reg.PaymentProofRef,
		StatusReason:       reg.StatusReason,
	}
}

func dynamoToRegistration(dynReg registrationDynamo) registration.Registration {
	return registration.Registration{
		ID:              uuid.MustParse(dynReg.ID),
		Version:         dynReg.Version,
		ParticipantID:   uuid.MustParse(dynReg.ParticipantID),
		ParticipantName: dynReg.ParticipantName,
		CategoryID:      uuid.MustParse(dynReg.CategoryID),
		EventID:         uuid.MustParse(dynReg.EventID),
		CreatedAt:       dynReg.CreatedAt,
		UpdatedAt:       dynReg.UpdatedAt,
		Status:          dynReg.Status,
		ShirtSize:       dynReg.ShirtSize,
		WaiverAccepted:  dynReg.WaiverAccepted,
		PaymentProofRef: dynReg.PaymentProofRef,
		StatusReason:    dynReg.StatusReason,
	}
}

func eventKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: eventPK(id)},
		"SK": &types.AttributeValueMemberS{Value: eventSK(id)},
	}
}

func categoryKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: categoryPK(id)},
		"SK": &types.AttributeValueMemberS{Value: categorySK(id)},
	}
}

// counterUpdate adds delta to the NumCounted of the item at key and bumps its Version.
// A positive delta only applies while the item has capacity left.
func (d *DB) counterUpdate(key map[string]types.AttributeValue, delta int) types.TransactWriteItem {
	cond := expression.Name("PK").AttributeExists()
	if delta > 0 {
		cond = cond.And(expression.Or(
			expression.Name("Capacity").AttributeNotExists(),
			expression.Name("NumCounted").LessThan(expression.Name("Capacity")),
		))
	}
	expr := exprMustBuild(expression.NewBuilder().
		WithCondition(cond).
		WithUpdate(expression.
			Add(expression.Name("NumCounted"), expression.Value(delta)).
			Add(expression.Name("Version"), expression.Value(1))))

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(d.tableName),
			Key:                       key,
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}
}

func (d *DB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoReg := registrationToDynamo(reg)

	regItem, err := attributevalue.MarshalMap(dynamoReg)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate registration to dynamo model", err)
	}
	regExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(newEntityVersionConditional(dynamoReg.Version)))

	lockItem, err := attributevalue.MarshalMap(activeRegistrationDynamo{
		PK:             eventPK(reg.EventID),
		SK:             activeRegistrationSK(reg.ParticipantID),
		ParticipantID:  reg.ParticipantID.String(),
		RegistrationID: reg.ID.String(),
	})
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate active registration to dynamo model", err)
	}
	lockExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()))

	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:                 aws.String(d.tableName),
				Item:                      regItem,
				ConditionExpression:       regExpr.Condition(),
				ExpressionAttributeNames:  regExpr.Names(),
				ExpressionAttributeValues: regExpr.Values(),
			},
		},
		{
			Put: &types.Put{
				TableName:                aws.String(d.tableName),
				Item:                     lockItem,
				ConditionExpression:      lockExpr.Condition(),
				ExpressionAttributeNames: lockExpr.Names(),
			},
		},
		d.counterUpdate(categoryKey(reg.CategoryID), 1),
		d.counterUpdate(eventKey(reg.EventID), 1),
	}

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			switch {
			case cancelledByCondition(transactionFailedErr, 1):
				return registration.NewDuplicateRegistrationError(fmt.Sprintf("Participant %q already has an active registration for event %q", reg.ParticipantID, reg.EventID), err)
			case cancelledByCondition(transactionFailedErr, 0):
				return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q already exists", reg.ID), err)
			case cancelledByCondition(transactionFailedErr, 2):
				return registration.NewCategoryFullError(fmt.Sprintf("Category %q has no slots left", reg.CategoryID))
			case cancelledByCondition(transactionFailedErr, 3):
				return registration.NewEventFullError(fmt.Sprintf("Event %q has no slots left", reg.EventID))
			default:
				// TransactionConflict: another transaction held one of the items.
				return registration.NewVersionConflictError("Concurrent write during admission", err)
			}
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("CreateRegistration timed out")
		} else {
			return registration.NewFailedToWriteError("Failed TransactWriteItems call", err)
		}
	}

	return nil
}

func (d *DB) UpdateRegistration(ctx context.Context, reg registration.Registration, releaseSlot bool) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	dynamoReg := registrationToDynamo(reg)

	regItem, err := attributevalue.MarshalMap(dynamoReg)
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate registration to dynamo model", err)
	}
	regExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(existingEntityVersionConditional(dynamoReg.Version)))

	if !releaseSlot {
		_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(d.tableName),
			Item:                      regItem,
			ConditionExpression:       regExpr.Condition(),
			ExpressionAttributeNames:  regExpr.Names(),
			ExpressionAttributeValues: regExpr.Values(),
		})
		if err != nil {
			var condCheckFailedErr *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailedErr) {
				return registration.NewVersionConflictError(fmt.Sprintf("Registration %q changed or does not exist", reg.ID), err)
			} else if errors.Is(err, context.DeadlineExceeded) {
				return registration.NewTimeoutError("UpdateRegistration timed out")
			} else {
				return registration.NewFailedToWriteError("Failed PutItem call", err)
			}
		}
		return nil
	}

	lockExpr := exprMustBuild(expression.NewBuilder().
		WithCondition(expression.Name("RegistrationID").Equal(expression.Value(reg.ID.String()))))

	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:                 aws.String(d.tableName),
				Item:                      regItem,
				ConditionExpression:       regExpr.Condition(),
				ExpressionAttributeNames:  regExpr.Names(),
				ExpressionAttributeValues: regExpr.Values(),
			},
		},
		{
			Delete: &types.Delete{
				TableName:                 aws.String(d.tableName),
				Key:                       activeRegistrationKey(reg.EventID, reg.ParticipantID),
				ConditionExpression:       lockExpr.Condition(),
				ExpressionAttributeNames:  lockExpr.Names(),
				ExpressionAttributeValues: lockExpr.Values(),
			},
		},
		d.counterUpdate(categoryKey(reg.CategoryID), -1),
		d.counterUpdate(eventKey(reg.EventID), -1),
	}

	_, err = d.dynamoClient.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var transactionFailedErr *types.TransactionCanceledException
		if errors.As(err, &transactionFailedErr) {
			return registration.NewVersionConflictError(fmt.Sprintf("Registration %q changed or does not exist", reg.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("UpdateRegistration timed out")
		} else {
			return registration.NewFailedToWriteError("Failed TransactWriteItems call", err)
		}
	}

	return nil
}

func (d *DB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: registrationPK(id)},
			"SK": &types.AttributeValueMemberS{Value: registrationSK(id)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistration timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration with id %q", id), err)
	}

	if len(resp.Item) == 0 {
		return registration.Registration{}, registration.NewNotFoundError(fmt.Sprintf("Registration with id %q not found", id), nil)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

func (d *DB) HasActiveRegistrationForEvent(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            activeRegistrationKey(eventID, participantID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, registration.NewTimeoutError("HasActiveRegistrationForEvent timed out")
		}
		return false, registration.NewFailedToFetchError(fmt.Sprintf("Failed to check active registration of %q in event %q", participantID, eventID), err)
	}

	return len(resp.Item) > 0, nil
}

func (d *DB) GetRegistrationsForParticipant(ctx context.Context, participantID uuid.UUID) ([]registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	keyCond := expression.Key("GSI2PK").Equal(expression.Value(participantPK(participantID))).
		And(expression.Key("GSI2SK").BeginsWith(registrationEntityName))
	expr := exprMustBuild(expression.NewBuilder().WithKeyCondition(keyCond))

	paginator := dynamodb.NewQueryPaginator(d.dynamoClient, &dynamodb.QueryInput{
		IndexName:                 aws.String(gsi2),
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	result := []registration.Registration{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, registration.NewTimeoutError("GetRegistrationsForParticipant timed out")
			}
			return nil, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registrations of participant %q", participantID), err)
		}

		var dynamoItems []registrationDynamo
		err = attributevalue.UnmarshalListOfMaps(page.Items, &dynamoItems)
		if err != nil {
			panic(fmt.Sprintf("failed to unmarshal dynamo registrations: %s", err))
		}
		result = append(result, slices.Map(dynamoItems, dynamoToRegistration)...)
	}

	return result, nil
}

func eventRegistrationsKeyCondition(eventID uuid.UUID) expression.KeyConditionBuilder {
	return expression.Key("GSI1PK").Equal(expression.Value(eventPK(eventID))).
		And(expression.Key("GSI1SK").BeginsWith(registrationEntityName))
}

func (d *DB) GetRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, filter registration.EventRegistrationsFilter, limit int32, cursor *string) (registration.GetAllRegistrationsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	builder := expression.NewBuilder().WithKeyCondition(eventRegistrationsKeyCondition(eventID))
	var conds []expression.ConditionBuilder
	if filter.CategoryID != nil {
		conds = append(conds, expression.Name("CategoryID").Equal(expression.Value(filter.CategoryID.String())))
	}
	if filter.Status != nil {
		conds = append(conds, expression.Name("Status").Equal(expression.Value(*filter.Status)))
	}
	if filter.ParticipantName != nil {
		conds = append(conds, expression.Name("ParticipantNameKey").Contains(registration.NameSearchKey(*filter.ParticipantName)))
	}
	switch len(conds) {
	case 0:
	case 1:
		builder = builder.WithFilter(conds[0])
	default:
		builder = builder.WithFilter(expression.And(conds[0], conds[1], conds[2:]...))
	}
	expr := exprMustBuild(builder)

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		var err error
		startKey, err = cursorToLastEval(*cursor)
		if err != nil {
			return registration.GetAllRegistrationsResponse{}, registration.NewInvalidCursorError("Invalid cursor", err)
		}
	}

	// Filters apply after Limit, so keep querying until there is one more item
	// than asked for or the index is exhausted.
	var items []map[string]types.AttributeValue
	for {
		result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
			IndexName:                 aws.String(gsi1),
			TableName:                 aws.String(d.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			// Newest registration first
			ScanIndexForward: aws.Bool(false),
			// Fetch 1 more than limit to check if there is another page or not
			Limit:             aws.Int32(limit + 1),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return registration.GetAllRegistrationsResponse{}, registration.NewTimeoutError("GetRegistrationsForEvent timed out")
			}
			return registration.GetAllRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to fetch registrations from dynamo", err)
		}

		items = append(items, result.Items...)
		if len(items) > int(limit) || len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	hasNextPage := len(items) > int(limit)
	items = items[:min(int(limit), len(items))]

	var dynamoItems []registrationDynamo
	err := attributevalue.UnmarshalListOfMaps(items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo registrations: %s", err))
	}

	var newCursor *string
	if hasNextPage {
		// Resume after the last item handed out, not after the extra one
		c, err := lastEvalKeyToCursor(keyOf(items[len(items)-1], gsi1KeyAttributes))
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor from item key: %s", err))
		}
		newCursor = &c
	}

	return registration.GetAllRegistrationsResponse{
		Data:        slices.Map(dynamoItems, dynamoToRegistration),
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}

type registrationCountDynamo struct {
	Status     registration.PaymentStatus
	CategoryID string
}

// eachRegistrationOfEvent streams the status and category of every registration in an event.
func (d *DB) eachRegistrationOfEvent(ctx context.Context, eventID uuid.UUID, fn func(registrationCountDynamo)) error {
	expr := exprMustBuild(expression.NewBuilder().
		WithKeyCondition(eventRegistrationsKeyCondition(eventID)).
		WithProjection(expression.NamesList(expression.Name("Status"), expression.Name("CategoryID"))))

	paginator := dynamodb.NewQueryPaginator(d.dynamoClient, &dynamodb.QueryInput{
		IndexName:                 aws.String(gsi1),
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return registration.NewTimeoutError("Counting registrations timed out")
			}
			return registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registrations of event %q", eventID), err)
		}

		var pageItems []registrationCountDynamo
		err = attributevalue.UnmarshalListOfMaps(page.Items, &pageItems)
		if err != nil {
			panic(fmt.Sprintf("failed to unmarshal dynamo registration counts: %s", err))
		}
		for _, item := range pageItems {
			fn(item)
		}
	}

	return nil
}

func (d *DB) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[registration.PaymentStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	counts := map[registration.PaymentStatus]int{}
	err := d.eachRegistrationOfEvent(ctx, eventID, func(item registrationCountDynamo) {
		counts[item.Status]++
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (d *DB) CountCountedRegistrations(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count := 0
	err := d.eachRegistrationOfEvent(ctx, eventID, func(item registrationCountDynamo) {
		if categoryID != nil && item.CategoryID != categoryID.String() {
			return
		}
		if item.Status.IsCounted() {
			count++
		}
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
