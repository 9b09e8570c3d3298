package main

import (
	"context"
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/config"
	"github.com/Estebaan93/RunnConnectAPI/dynamo"
	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/memory"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/postgres"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

// store is one backend serving every repository.
type store interface {
	events.Repository
	registration.Repository
	participant.Repository
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.DynamoEndpoint != "" {
		// dynamodb-local accepts any credentials.
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)
	return awsCfg, nil
}

func newDynamoDB(ctx context.Context) (*dynamo.DB, error) {
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})
	return dynamo.NewDB(client, cfg.DynamoTableName), nil
}

// openStore returns the configured backend and a func releasing its resources.
func openStore(ctx context.Context) (store, func(), error) {
	switch cfg.Store {
	case config.STORE_DYNAMO:
		db, err := newDynamoDB(ctx)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {}, nil
	case config.STORE_POSTGRES:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewDB(pool), pool.Close, nil
	default:
		return memory.NewStore(), func() {}, nil
	}
}

func resolveSecrets(ctx context.Context) error {
	var client config.SSMClient
	if cfg.JWTSecretSSMParam != "" {
		awsCfg, err := loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		client = ssm.NewFromConfig(awsCfg)
	}
	return config.ResolveSecrets(ctx, &cfg, client)
}
