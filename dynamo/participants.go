package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var _ participant.Repository = &DB{}

type profileDynamo struct {
	PK                    string
	SK                    string
	ParticipantID         string
	FirstName             string
	LastName              string
	BirthDate             *time.Time `dynamodbav:",omitempty"`
	Gender                participant.Gender
	NationalID            string
	Locality              string
	EmergencyContactName  string
	EmergencyContactPhone string
	Phone                 string
}

const profileEntityName = "PROFILE"

func profileKey(participantID uuid.UUID) map[string]types.AttributeValue {
	key := fmt.Sprintf("%s#%s", profileEntityName, participantID)
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: key},
		"SK": &types.AttributeValueMemberS{Value: key},
	}
}

func (d *DB) GetProfile(ctx context.Context, participantID uuid.UUID) (participant.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       profileKey(participantID),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return participant.Profile{}, participant.NewTimeoutError("GetProfile timed out")
		}
		return participant.Profile{}, participant.NewFailedToFetchError(fmt.Sprintf("Failed to fetch profile of %q", participantID), err)
	}

	if len(resp.Item) == 0 {
		return participant.Profile{}, participant.NewProfileDoesNotExistError(fmt.Sprintf("Profile of %q not found", participantID), nil)
	}

	var item profileDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &item)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal profile from DB: %s", err))
	}

	return participant.Profile{
		ParticipantID:         uuid.MustParse(item.ParticipantID),
		FirstName:             item.FirstName,
		LastName:              item.LastName,
		BirthDate:             item.BirthDate,
		Gender:                item.Gender,
		NationalID:            item.NationalID,
		Locality:              item.Locality,
		EmergencyContactName:  item.EmergencyContactName,
		EmergencyContactPhone: item.EmergencyContactPhone,
		Phone:                 item.Phone,
	}, nil
}

func (d *DB) SaveProfile(ctx context.Context, profile participant.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	key := profileKey(profile.ParticipantID)
	item, err := attributevalue.MarshalMap(profileDynamo{
		PK:                    key["PK"].(*types.AttributeValueMemberS).Value,
		SK:                    key["SK"].(*types.AttributeValueMemberS).Value,
		ParticipantID:         profile.ParticipantID.String(),
		FirstName:             profile.FirstName,
		LastName:              profile.LastName,
		BirthDate:             profile.BirthDate,
		Gender:                profile.Gender,
		NationalID:            profile.NationalID,
		Locality:              profile.Locality,
		EmergencyContactName:  profile.EmergencyContactName,
		EmergencyContactPhone: profile.EmergencyContactPhone,
		Phone:                 profile.Phone,
	})
	if err != nil {
		return participant.NewFailedToTranslateToDBModelError("Failed to convert Profile to profileDynamo", err)
	}

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return participant.NewTimeoutError("SaveProfile timed out")
		}
		return participant.NewFailedToWriteError("Failed PutItem call", err)
	}

	return nil
}
