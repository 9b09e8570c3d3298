package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// localJWTSecret signs tokens when running locally without a configured secret.
const localJWTSecret = "local-development-secret"

// ResolveSecrets fills cfg.JWTSecret from SSM when JWT_SECRET_SSM_PARAM is set.
func ResolveSecrets(ctx context.Context, cfg *Config, client SSMClient) error {
	if cfg.JWTSecretSSMParam != "" {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(cfg.JWTSecretSSMParam),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("failed to get parameter %q: %w", cfg.JWTSecretSSMParam, err)
		}
		if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
			return fmt.Errorf("parameter %q is empty", cfg.JWTSecretSSMParam)
		}
		cfg.JWTSecret = aws.ToString(out.Parameter.Value)
	}

	if cfg.JWTSecret == "" && cfg.IsLocal() {
		cfg.JWTSecret = localJWTSecret
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("no JWT secret configured")
	}

	return nil
}
