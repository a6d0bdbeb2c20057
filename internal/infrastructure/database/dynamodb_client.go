package database

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Settings are the DynamoDB connection parameters.
//
// Supported env vars (local-friendly):
//   - AWS_REGION (default: us-east-1)
//   - AWS_ACCESS_KEY_ID (default: local)
//   - AWS_SECRET_ACCESS_KEY (default: local)
//   - DYNAMODB_ENDPOINT (optional; e.g. http://dynamodb:8000)
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

func SettingsFromEnv() Settings {
	return Settings{
		Region:          getenvDefault("AWS_REGION", "us-east-1"),
		AccessKeyID:     getenvDefault("AWS_ACCESS_KEY_ID", "local"),
		SecretAccessKey: getenvDefault("AWS_SECRET_ACCESS_KEY", "local"),
		Endpoint:        os.Getenv("DYNAMODB_ENDPOINT"),
	}
}

// ConnectDynamoDB creates a DynamoDB client from the environment.
func ConnectDynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	s := SettingsFromEnv()
	cfg, err := NewAWSConfig(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamodb config: %w", err)
	}
	if s.Endpoint != "" {
		log.Printf("[dynamodb] using endpoint=%s region=%s", s.Endpoint, s.Region)
	}
	return NewClient(cfg, s), nil
}

func NewAWSConfig(ctx context.Context, s Settings) (aws.Config, error) {
	// Local DynamoDB does not validate credentials, but the AWS SDK requires them.
	creds := credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, "")
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(creds),
	)
}

// NewClient builds the client, pointing it at s.Endpoint when one is set.
func NewClient(cfg aws.Config, s Settings) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	})
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
