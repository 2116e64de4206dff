package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

func TestCallExporterExportToCSV(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCallStore(db, nil)
	store.ObserveCall("getbalance", nil, json.RawMessage(`{}`), nil, 3*time.Millisecond)
	time.Sleep(10 * time.Millisecond) // keep created_at ordering deterministic
	nodeErr := &rpcclient.NodeError{Code: rpcclient.CodeWalletNotFound, Message: "not found"}
	store.ObserveCall("loadwallet", []any{"ghost"}, nil, nodeErr, time.Millisecond)

	var buf bytes.Buffer
	exporter := NewCallExporter(store)
	err := exporter.ExportToCSV(context.Background(), &buf, ExportOptions{})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 records

	assert.Equal(t, []string{"ID", "Method", "Params", "NodeErrorCode", "ErrorMessage", "DurationMS", "CreatedAt"}, rows[0])

	// Newest first.
	assert.Equal(t, "loadwallet", rows[1][1])
	assert.Equal(t, "-18", rows[1][3])
	assert.Equal(t, "getbalance", rows[2][1])
	assert.Equal(t, "", rows[2][3])
}

func TestCallExporterFilterByMethod(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCallStore(db, nil)
	store.ObserveCall("getbalance", nil, json.RawMessage(`{}`), nil, 0)
	store.ObserveCall("sendtoaddress", []any{"a", 1.0}, json.RawMessage(`"tx"`), nil, 0)

	var buf bytes.Buffer
	exporter := NewCallExporter(store)
	err := exporter.ExportToCSV(context.Background(), &buf, ExportOptions{Method: "sendtoaddress"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sendtoaddress", rows[1][1])
}

func TestCallExporterExportsBeyondOnePage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCallStore(db, nil)
	const total = MaxLimit + 50
	for i := 0; i < total; i++ {
		store.ObserveCall("getbalance", nil, json.RawMessage(`{}`), nil, 0)
	}

	var buf bytes.Buffer
	exporter := NewCallExporter(store)
	err := exporter.ExportToCSV(context.Background(), &buf, ExportOptions{})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, total+1) // header + every record

	// No record appears twice across page boundaries.
	seen := make(map[string]struct{}, total)
	for _, row := range rows[1:] {
		_, dup := seen[row[0]]
		assert.False(t, dup, "record %s exported twice", row[0])
		seen[row[0]] = struct{}{}
	}
}

func TestCallExporterExportToFile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCallStore(db, nil)
	store.ObserveCall("getbalance", nil, json.RawMessage(`{}`), nil, 0)

	outputDir := filepath.Join(t.TempDir(), "exports")
	exporter := NewCallExporter(store)
	fileName, err := exporter.ExportToFile(context.Background(), ExportOptions{OutputDir: outputDir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "calls_all.csv"), fileName)

	raw, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "getbalance")
}
