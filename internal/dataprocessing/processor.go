package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/config"
	apperrors "github.com/Mitchell-Turner/invoice-accrual-automation/internal/errors"
	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/exporter"
	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/files"
	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/infrastructure"
	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/validation"
	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

// Processor runs the full monthly pipeline: discover the latest ledger
// export, load and classify its rows, aggregate and flag them, compute the
// MMP reclass allocation, and write the period reports.
type Processor struct {
	logger     *slog.Logger
	paths      *config.Paths
	loader     *Loader
	classifier *Classifier
	aggregator *Aggregator
	allocation *AllocationEngine
	validator  *validation.FileValidator
	discovery  *files.Discovery
	assembler  *exporter.Assembler
	excel      *exporter.ExcelWriter
	csv        *exporter.CSVWriter
}

// NewProcessor wires a pipeline from configuration and resolved paths.
func NewProcessor(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Processor{
		logger:     logger,
		paths:      paths,
		loader:     NewLoader(logger, cfg.Pipeline),
		classifier: NewClassifier(logger),
		aggregator: NewAggregator(logger, cfg.Pipeline.OutlierPercentile),
		allocation: NewAllocationEngine(logger),
		validator:  validation.NewFileValidator(logger),
		discovery:  files.NewDiscovery(paths.BaseDir),
		assembler:  exporter.NewAssembler(logger),
		excel:      exporter.NewExcelWriter(logger),
		csv:        exporter.NewCSVWriter(),
	}
}

// Result summarizes one pipeline run.
type Result struct {
	Period               string
	SourceFile           string
	RowCount             int
	FlagCount            int
	AllocationApplied    bool
	MainReportPath       string
	AllocationReportPath string
	SnapshotPath         string
}

// Run executes the pipeline end to end and returns the run result. The
// allocation report is only written when the allocation preconditions hold;
// the main report and snapshot are written on every successful run.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	if err := p.paths.EnsureDirectories(); err != nil {
		return nil, apperrors.NewStorageError("failed to prepare directories", err)
	}
	if err := p.validator.ValidateInputDirectory(p.paths.RawDataDir); err != nil {
		return nil, err
	}
	if err := p.validator.ValidateOutputDirectory(p.paths.ProcessedDir); err != nil {
		return nil, err
	}

	source, found, err := p.discovery.LatestExcelFile(p.paths.RawDataDir)
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to scan raw data directory", err).
			WithContext("directory", p.paths.RawDataDir)
	}
	if !found {
		return nil, apperrors.NewDataSourceError(
			fmt.Sprintf("no Excel exports found in %s", p.paths.RawDataDir), nil)
	}
	if err := p.validator.ValidateExcelFile(source.Path); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "processing latest export",
		slog.String("file", source.Name),
		slog.Time("modified", source.ModTime))

	batch, err := p.loader.LoadInvoiceBatch(ctx, source.Path)
	if err != nil {
		return nil, err
	}

	rows := p.classifier.Classify(ctx, batch.Rows)
	summary := p.aggregator.Summarize(ctx, rows)
	flags := p.aggregator.Flags(ctx, rows)

	allocation, err := p.runAllocation(ctx, summary)
	if err != nil {
		return nil, err
	}
	summary = allocation.Summary

	periodToken := batch.PeriodToken()
	periodDir := p.paths.PeriodDir(periodToken)

	result := &Result{
		Period:            periodToken,
		SourceFile:        source.Path,
		RowCount:          len(rows),
		FlagCount:         len(flags),
		AllocationApplied: allocation.Applied,
	}

	mainPath, err := p.excel.WriteBundle(ctx, periodDir,
		p.assembler.MainReport(periodToken, summary, rows, flags))
	if err != nil {
		return nil, err
	}
	result.MainReportPath = mainPath

	if allocation.Applied {
		allocPath, err := p.excel.WriteBundle(ctx, periodDir,
			p.assembler.AllocationReport(periodToken, allocation.Reference))
		if err != nil {
			return nil, err
		}
		result.AllocationReportPath = allocPath
	}

	snapshotPath := filepath.Join(periodDir, fmt.Sprintf(config.DataSnapshotPattern, periodToken))
	headers, records := p.assembler.SnapshotRecords(rows)
	if err := p.csv.WriteSimpleCSV(snapshotPath, headers, records); err != nil {
		return nil, apperrors.NewStorageError("failed to write data snapshot", err).
			WithContext("path", snapshotPath)
	}
	result.SnapshotPath = snapshotPath

	if err := p.appendRunHistory(result); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.String("period", result.Period),
		slog.Int("rows", result.RowCount),
		slog.Int("flags", result.FlagCount),
		slog.Bool("allocation_applied", result.AllocationApplied))

	return result, nil
}

var runHistoryHeaders = []string{
	"Run Time", "Period", "Source File", "Rows", "Flags", "Allocation Applied",
}

// appendRunHistory records one line per completed run in a cumulative CSV
// at the root of the processed directory.
func (p *Processor) appendRunHistory(result *Result) error {
	path := filepath.Join(p.paths.ProcessedDir, config.RunHistoryFile)
	record := []string{
		time.Now().Format(time.RFC3339),
		result.Period,
		filepath.Base(result.SourceFile),
		strconv.Itoa(result.RowCount),
		strconv.Itoa(result.FlagCount),
		strconv.FormatBool(result.AllocationApplied),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := p.csv.WriteSimpleCSV(path, runHistoryHeaders, [][]string{record}); err != nil {
			return apperrors.NewStorageError("failed to write run history", err).
				WithContext("path", path)
		}
		return nil
	}
	if err := p.csv.AppendToCSV(path, [][]string{record}); err != nil {
		return apperrors.NewStorageError("failed to append run history", err).
			WithContext("path", path)
	}
	return nil
}

// runAllocation loads the reference table and computes the MMP reclass
// allocation. The reference workbook is only opened when the summary
// actually carries a Charts & Coding total; the soft skip cases never touch
// the file.
func (p *Processor) runAllocation(ctx context.Context, summary []domain.SummaryRow) (AllocationResult, error) {
	if _, found := domain.FindSummary(summary, domain.LabelChartsCoding); !found {
		return p.allocation.Allocate(ctx, summary, nil)
	}

	reference, err := p.loader.LoadReferenceTable(ctx, p.paths.ReferenceFile)
	if err != nil {
		return AllocationResult{}, err
	}
	return p.allocation.Allocate(ctx, summary, reference)
}
