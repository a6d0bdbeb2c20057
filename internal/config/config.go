package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        int
	StoreDriver string
	// StoreTimeout bounds every single store call.
	StoreTimeout time.Duration
	// MaxWriteAttempts bounds the re-read and reapply loop after a stale or conflicting write.
	MaxWriteAttempts  int
	ReconcileInterval time.Duration
	ReconcileBatch    int

	MercadoPagoAccessToken string
	// InvoiceIssuer is printed in the header of every invoice PDF.
	InvoiceIssuer string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := getEnvDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	attempts, err := getEnvInt("MAX_WRITE_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	interval, err := getEnvDuration("RECONCILE_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	batch, err := getEnvInt("RECONCILE_BATCH", 50)
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverDynamoDB))
	if driver != StoreDriverDynamoDB && driver != StoreDriverMemory {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}
	if attempts < 1 {
		return nil, fmt.Errorf("MAX_WRITE_ATTEMPTS must be >= 1, got %d", attempts)
	}
	if storeTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive, got %s", storeTimeout)
	}

	return &Config{
		Port:                   port,
		StoreDriver:            driver,
		StoreTimeout:           storeTimeout,
		MaxWriteAttempts:       attempts,
		ReconcileInterval:      interval,
		ReconcileBatch:         batch,
		MercadoPagoAccessToken: os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		InvoiceIssuer:          getEnv("INVOICE_ISSUER", "Mecânica Oficina"),
	}, nil
}

func (c *Config) Dump() {
	fmt.Printf("Port: %d\n", c.Port)
	fmt.Printf("Store Driver: %s\n", c.StoreDriver)
	fmt.Printf("Store Timeout: %s\n", c.StoreTimeout)
	fmt.Printf("Max Write Attempts: %d\n", c.MaxWriteAttempts)
	fmt.Printf("Reconcile Interval: %s\n", c.ReconcileInterval)
	fmt.Printf("Mercado Pago configured: %t\n", c.MercadoPagoAccessToken != "")
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
