package database

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("AWS_REGION", "")
		t.Setenv("AWS_ACCESS_KEY_ID", "")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "")
		t.Setenv("DYNAMODB_ENDPOINT", "")

		s := SettingsFromEnv()
		assert.Equal(t, Settings{Region: "us-east-1", AccessKeyID: "local", SecretAccessKey: "local"}, s)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("AWS_REGION", "eu-west-1")
		t.Setenv("DYNAMODB_ENDPOINT", "http://dynamodb:8000")

		s := SettingsFromEnv()
		assert.Equal(t, "eu-west-1", s.Region)
		assert.Equal(t, "http://dynamodb:8000", s.Endpoint)
	})
}

func TestNewClientUsesEndpoint(t *testing.T) {
	s := Settings{Region: "eu-west-1", AccessKeyID: "local", SecretAccessKey: "local", Endpoint: "http://localhost:8000"}
	cfg, err := NewAWSConfig(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", creds.AccessKeyID)

	opts := NewClient(cfg, s).Options()
	assert.Equal(t, "http://localhost:8000", aws.ToString(opts.BaseEndpoint))
}
