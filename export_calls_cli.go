package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apilatam/liquidnode/pkg/log"
)

// ExportOptions contains options for exporting journaled RPC calls.
type ExportOptions struct {
	Method    string
	OutputDir string
}

// CallExporter handles exporting the call journal to CSV.
type CallExporter struct {
	store *CallStore
}

// NewCallExporter creates a new call exporter.
func NewCallExporter(store *CallStore) *CallExporter {
	return &CallExporter{store: store}
}

// ExportToCSV writes the journaled calls to CSV format. The store is paged
// through in MaxLimit-sized batches so the export covers the whole journal,
// not just the first page.
func (e *CallExporter) ExportToCSV(ctx context.Context, writer io.Writer, options ExportOptions) error {
	var method *string
	if options.Method != "" {
		method = &options.Method
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	header := []string{"ID", "Method", "Params", "NodeErrorCode", "ErrorMessage", "DurationMS", "CreatedAt"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	for offset := uint32(0); ; offset += MaxLimit {
		records, err := e.store.List(ctx, method, &ListOptions{Offset: offset, Limit: MaxLimit})
		if err != nil {
			return fmt.Errorf("failed to get call records: %w", err)
		}

		for _, rec := range records {
			nodeErrCode := ""
			if rec.NodeErrorCode != nil {
				nodeErrCode = strconv.Itoa(*rec.NodeErrorCode)
			}
			row := []string{
				strconv.FormatUint(uint64(rec.ID), 10),
				rec.Method,
				strings.Join(rec.Params, " "),
				nodeErrCode,
				rec.ErrorMessage,
				strconv.FormatInt(rec.DurationMS, 10),
				rec.CreatedAt.Format(time.RFC3339),
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write row to CSV: %w", err)
			}
		}

		if len(records) < MaxLimit {
			return nil
		}
	}
}

// ExportToFile writes the journaled calls to a CSV file in OutputDir.
func (e *CallExporter) ExportToFile(ctx context.Context, options ExportOptions) (string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", options.OutputDir, err)
	}

	suffix := options.Method
	if suffix == "" {
		suffix = "all"
	}
	fileName := filepath.Join(options.OutputDir, fmt.Sprintf("calls_%s.csv", suffix))
	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", fileName, err)
	}
	defer file.Close()

	if err := e.ExportToCSV(ctx, file, options); err != nil {
		return "", fmt.Errorf("failed to export to CSV: %w", err)
	}

	return fileName, nil
}

func runExportCallsCli(logger log.Logger) {
	logger = logger.WithName("export-calls")
	if len(os.Args) > 3 {
		logger.Fatal("Usage: liquidnode export-calls [method]")
	}

	var method string
	if len(os.Args) > 2 {
		method = os.Args[2]
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		logger.Fatal("Failed to setup database", "error", err)
	}

	exporter := NewCallExporter(NewCallStore(db, logger))
	options := ExportOptions{
		Method:    method,
		OutputDir: "csv_export",
	}

	fileName, err := exporter.ExportToFile(context.Background(), options)
	if err != nil {
		logger.Fatal("Failed to export calls", "error", err)
	}
	logger.Info("Successfully exported calls", "file", fileName)
}
