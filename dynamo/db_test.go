package dynamo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	container "github.com/testcontainers/testcontainers-go/modules/dynamodb"
)

var dynamodbTestContainer *container.DynamoDBContainer
var dynamoClient *dynamodb.Client
var db *DB

const (
	tableName = "RaceRegistration-Test"
	// ciEndpoint is the dynamodb-local service provisioned by the CI job.
	ciEndpoint = "localhost:8000"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	err := setupDynamo(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	code := m.Run()
	shutdownDynamo(context.Background())
	os.Exit(code)
}

func setupDynamo(ctx context.Context) error {
	endpoint := ciEndpoint
	if _, ok := os.LookupEnv("TEST_IN_CI"); !ok {
		var err error
		dynamodbTestContainer, err = container.Run(ctx, "amazon/dynamodb-local")
		if err != nil {
			return fmt.Errorf("error starting dynamo testcontainer: %w", err)
		}

		endpoint, err = dynamodbTestContainer.Endpoint(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to get endpoint: %w", err)
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("localhost"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
	)
	if err != nil {
		return fmt.Errorf("aws config error: %w", err)
	}

	dynamoClient = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String("http://" + endpoint)
	})
	db = NewDB(dynamoClient, tableName)

	return db.CreateTable(ctx)
}

// resetTable drops every item by recreating the table.
func resetTable(ctx context.Context) {
	_, err := dynamoClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		fmt.Printf("failed to delete table: %s", err)
	}

	if err := db.CreateTable(ctx); err != nil {
		fmt.Printf("failed to remake table: %s", err)
	}
}

func shutdownDynamo(ctx context.Context) {
	if dynamodbTestContainer == nil {
		return
	}

	err := dynamodbTestContainer.Terminate(ctx)
	if err != nil {
		fmt.Printf("error terminating dynamo testcontainer: %s\n", err)
	}
}
