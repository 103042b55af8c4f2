package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/config"
	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/dataprocessing"
	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/infrastructure"
)

func main() {
	inDir := flag.String("in", "", "raw data directory with ledger exports (defaults to raw_data relative to executable)")
	outDir := flag.String("out", "", "output directory for period reports (defaults to processed_reports relative to executable)")
	refFile := flag.String("ref", "", "path to the MMP reclass reference workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// Command line flags win over configuration
	if *inDir != "" {
		cfg.Paths.RawDataDir = *inDir
	}
	if *outDir != "" {
		cfg.Paths.ProcessedDir = *outDir
	}
	if *refFile != "" {
		cfg.Paths.ReferenceFile = *refFile
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Anchor the log file in the resolved logs directory
	cfg.Logging.FilePath = paths.GetLogPath(filepath.Base(cfg.Logging.FilePath))

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	runID := uuid.New().String()
	ctx := infrastructure.WithRunID(context.Background(), runID)

	logger.InfoContext(ctx, "Starting invoice accrual report run",
		slog.String("raw_data_dir", paths.RawDataDir),
		slog.String("processed_dir", paths.ProcessedDir),
		slog.String("reference_file", paths.ReferenceFile))

	processor := dataprocessing.NewProcessor(cfg, paths, logger)
	result, err := processor.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Pipeline run failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Period:            %s\n", result.Period)
	fmt.Printf("Source file:       %s\n", result.SourceFile)
	fmt.Printf("Rows processed:    %d\n", result.RowCount)
	fmt.Printf("Rows flagged:      %d\n", result.FlagCount)
	fmt.Printf("Main report:       %s\n", result.MainReportPath)
	if result.AllocationApplied {
		fmt.Printf("Allocation report: %s\n", result.AllocationReportPath)
	} else {
		fmt.Println("Allocation report: skipped")
	}
	fmt.Printf("Data snapshot:     %s\n", result.SnapshotPath)
}
