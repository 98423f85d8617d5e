package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// resolveAWSSecretsManager fetches a string secret by name or ARN using the
// default AWS credential chain.
func resolveAWSSecretsManager(ref string) (string, error) {
	ctx := context.Background()
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("loading AWS config: %w", err)
	}

	out, err := secretsmanager.NewFromConfig(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return "", fmt.Errorf("getting secret %q: %w", ref, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %q has no string value", ref)
	}
	return *out.SecretString, nil
}
