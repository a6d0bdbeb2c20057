package config

import (
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{"PORT", "STORE_DRIVER", "STORE_TIMEOUT", "MAX_WRITE_ATTEMPTS", "RECONCILE_INTERVAL", "RECONCILE_BATCH"} {
			t.Setenv(k, "")
		}
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 8080 || cfg.StoreDriver != StoreDriverDynamoDB {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.StoreTimeout != 5*time.Second || cfg.MaxWriteAttempts != 5 || cfg.ReconcileBatch != 50 {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("STORE_DRIVER", "Memory")
		t.Setenv("STORE_TIMEOUT", "250ms")
		t.Setenv("MAX_WRITE_ATTEMPTS", "3")
		t.Setenv("RECONCILE_INTERVAL", "30s")
		t.Setenv("INVOICE_ISSUER", "Auto Reparações Lda")
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 9090 || cfg.StoreDriver != StoreDriverMemory {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.StoreTimeout != 250*time.Millisecond || cfg.MaxWriteAttempts != 3 || cfg.ReconcileInterval != 30*time.Second {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.InvoiceIssuer != "Auto Reparações Lda" {
			t.Fatalf("unexpected issuer: %s", cfg.InvoiceIssuer)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := map[string]string{
			"PORT":               "eighty",
			"STORE_DRIVER":       "mongo",
			"STORE_TIMEOUT":      "soon",
			"MAX_WRITE_ATTEMPTS": "0",
		}
		for key, value := range cases {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				if _, err := FromEnv(); err == nil {
					t.Fatalf("expected error for %s=%s", key, value)
				}
			})
		}
	})
}
