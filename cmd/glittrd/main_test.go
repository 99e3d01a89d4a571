package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunDryRunSucceeds(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	code := run([]string{"--dry-run", "--datadir", filepath.Join(dir, "data")}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "glittrd:")
}

func TestRunRejectsBadAPIBind(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	code := run([]string{"--dry-run", "--datadir", dir, "--api-bind", "not-an-address"}, &out, &errOut)
	require.Equal(t, 2, code)
	require.Contains(t, errOut.String(), "invalid config")
}

func TestRunRejectsBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	code := run([]string{"--dry-run", "--datadir", dir, "--log-level", "verbose"}, &out, &errOut)
	require.Equal(t, 2, code)
}
