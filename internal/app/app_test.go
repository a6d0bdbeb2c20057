package app

import (
	"context"
	"testing"
	"time"

	"mecanica_oficina/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryStore(t *testing.T) {
	cfg := &config.Config{
		StoreDriver:      config.StoreDriverMemory,
		StoreTimeout:     time.Second,
		MaxWriteAttempts: 3,
		InvoiceIssuer:    "Oficina Teste",
	}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, a.WorkOrders)
	assert.NotNil(t, a.Invoices)
	assert.NotNil(t, a.Payments)
	assert.NotNil(t, a.Catalog)

	report, err := a.Invoices.Reconcile(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreDriver: "postgres", StoreTimeout: time.Second, MaxWriteAttempts: 1})
	assert.Error(t, err)
}
