package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCmd_MemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"reconcile", "--batch", "5"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "scanned=0 repaired=0 failed=0", strings.TrimSpace(out.String()))
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"tables", "extra"})
	assert.Error(t, root.Execute())
}
