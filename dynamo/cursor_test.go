package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/require"
)

type dynamoTestItem struct {
	PK    string
	SK    string
	Name  string
	Time  time.Time
	Count int
}

func TestCursorEncodeAndDecode(t *testing.T) {
	item := dynamoTestItem{
		PK:    "abc",
		SK:    "def",
		Name:  "Hello World",
		Time:  time.Now(),
		Count: 152,
	}

	key, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)

	cursor, err := lastEvalKeyToCursor(key)
	require.NoError(t, err)

	keyBack, err := cursorToLastEval(cursor)
	require.NoError(t, err)

	require.Equal(t, key, keyBack)
}

func TestKeyOf(t *testing.T) {
	item, err := attributevalue.MarshalMap(map[string]string{
		"PK":     "REGISTRATION#1",
		"SK":     "REGISTRATION#1",
		"GSI1PK": "EVENT#2",
		"GSI1SK": "REGISTRATION#2026-01-01T00:00:00.000000000Z#1",
		"Status": "pending",
	})
	require.NoError(t, err)

	key := keyOf(item, gsi1KeyAttributes)

	require.Len(t, key, 4)
	require.NotContains(t, key, "Status")
	require.Equal(t, item["GSI1SK"], key["GSI1SK"])
}
