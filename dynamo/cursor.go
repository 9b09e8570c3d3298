package dynamo

import (
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var gsi1KeyAttributes = []string{"PK", "SK", "GSI1PK", "GSI1SK"}

func lastEvalKeyToCursor(lastEvalKey map[string]types.AttributeValue) (string, error) {
	bytesJSON, err := attributevalue.MarshalMapJSON(lastEvalKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode to JSON: %w", err)
	}

	return base64.StdEncoding.EncodeToString(bytesJSON), nil
}

func cursorToLastEval(cursor string) (map[string]types.AttributeValue, error) {
	bytesJSON, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to b64 decode: %w", err)
	}

	outputJSON, err := attributevalue.UnmarshalMapJSON(bytesJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to json decode: %w", err)
	}

	return outputJSON, nil
}

// keyOf picks the key attributes out of a full item, so a page can resume after
// an item that was not the last one DynamoDB evaluated.
func keyOf(item map[string]types.AttributeValue, attributes []string) map[string]types.AttributeValue {
	result := map[string]types.AttributeValue{}
	for _, k := range attributes {
		if v, ok := item[k]; ok {
			result[k] = v
		}
	}
	return result
}
