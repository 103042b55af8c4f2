package dataprocessing

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/config"
	apperrors "github.com/Mitchell-Turner/invoice-accrual-automation/internal/errors"
	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

var invoiceTestHeaders = []interface{}{
	"Journal Date", "Contract", "Line Descr", "Source", "Amount", "AP Amount", "Invoice",
}

// writeInvoiceWorkbook creates an export-shaped workbook: one metadata row,
// one header row, then data.
func writeInvoiceWorkbook(t *testing.T, headers []interface{}, dataRows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Ledger Export 2025-03-31 04:00"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &headers))
	for i, row := range dataRows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeReferenceWorkbook(t *testing.T, dataRows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []interface{}{"Contract", "State", "% of Payments"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headers))
	for i, row := range dataRows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "reference.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		RequiredContracts:    config.DefaultRequiredContracts(),
		ExcludedDescriptions: config.DefaultExcludedDescriptions(),
		OutlierPercentile:    config.DefaultOutlierPercentile,
	}
}

func TestLoader_LoadInvoiceBatch(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	path := writeInvoiceWorkbook(t, invoiceTestHeaders, [][]interface{}{
		{"2025-03-14", 1111, "Chart review", "AP2", 75.0, 200.0, "INV-001"},
		{"2025-03-15", 2222, "Coding batch", "COR", -50.0, 0.0, "INV-002"},
		{"2025-03-16", 3333, "Other contract", "AP2", 10.0, 10.0, "INV-003"},
		{"2025-03-17", 1111, "MSG Chart Expense", "AP2", 99.0, 99.0, "INV-004"},
	})

	batch, err := loader.LoadInvoiceBatch(ctx, path)
	require.NoError(t, err)

	// Contract 3333 and the excluded description are filtered out
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "2025_03", batch.PeriodToken())
	assert.Equal(t, path, batch.SourceFile)

	first := batch.Rows[0]
	assert.Equal(t, 1111, first.Contract)
	assert.Equal(t, "Chart review", first.LineDescription)
	assert.Equal(t, domain.SourceAP2, first.Source)
	assert.Equal(t, 75.0, first.Amount)
	assert.Equal(t, 200.0, first.APAmount)
	assert.Equal(t, "INV-001", first.InvoiceID)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), first.JournalDate)

	second := batch.Rows[1]
	assert.Equal(t, 2222, second.Contract)
	assert.Equal(t, -50.0, second.Amount)
}

func TestLoader_LoadInvoiceBatchShuffledColumns(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	// Column lookup is by header name, not position
	headers := []interface{}{
		"Invoice", "Source", "Journal Date", "AP Amount", "Contract", "Line Description", "Amount",
	}
	path := writeInvoiceWorkbook(t, headers, [][]interface{}{
		{"INV-9", "AP2", "2025-01-05", 500.0, 1111, "Chart review", 80.0},
	})

	batch, err := loader.LoadInvoiceBatch(ctx, path)
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	assert.Equal(t, "INV-9", batch.Rows[0].InvoiceID)
	assert.Equal(t, 500.0, batch.Rows[0].APAmount)
	assert.Equal(t, "2025_01", batch.PeriodToken())
}

func TestLoader_LoadInvoiceBatchMissingColumn(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	headers := []interface{}{"Journal Date", "Contract", "Line Descr", "Source", "Amount", "AP Amount"}
	path := writeInvoiceWorkbook(t, headers, [][]interface{}{
		{"2025-03-14", 1111, "Chart review", "AP2", 75.0, 200.0},
	})

	_, err := loader.LoadInvoiceBatch(ctx, path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataSource))
}

func TestLoader_LoadInvoiceBatchMalformedFirstDate(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	path := writeInvoiceWorkbook(t, invoiceTestHeaders, [][]interface{}{
		{"not a date", 1111, "Chart review", "AP2", 75.0, 200.0, "INV-001"},
	})

	_, err := loader.LoadInvoiceBatch(ctx, path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedDate))
}

func TestLoader_LoadInvoiceBatchNoDataRows(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	path := writeInvoiceWorkbook(t, invoiceTestHeaders, nil)

	_, err := loader.LoadInvoiceBatch(ctx, path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedDate))
}

func TestLoader_LoadInvoiceBatchAllRowsFiltered(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	path := writeInvoiceWorkbook(t, invoiceTestHeaders, [][]interface{}{
		{"2025-03-14", 9999, "Chart review", "AP2", 75.0, 200.0, "INV-001"},
		{"2025-03-15", 1111, "MSG Misc Chart Expense", "AP2", 10.0, 10.0, "INV-002"},
	})

	_, err := loader.LoadInvoiceBatch(ctx, path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyBatch))
}

func TestLoader_LoadInvoiceBatchMissingFile(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	_, err := loader.LoadInvoiceBatch(ctx, filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataSource))
}

func TestLoader_LoadReferenceTable(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	path := writeReferenceWorkbook(t, [][]interface{}{
		{"5555", "Total", 0.60},
		{"6666", "Total", "40%"},
		{"Subset", "", "0.15"},
	})

	rows, err := loader.LoadReferenceTable(ctx, path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "5555", rows[0].Contract)
	assert.Equal(t, domain.StateTotal, rows[0].State)
	assert.InDelta(t, 0.60, rows[0].PercentOfPayments, 1e-9)

	// Percent spelling is coerced to a fraction
	assert.InDelta(t, 0.40, rows[1].PercentOfPayments, 1e-9)
	assert.Equal(t, domain.ContractSubset, rows[2].Contract)
	assert.InDelta(t, 0.15, rows[2].PercentOfPayments, 1e-9)
}

func TestLoader_LoadReferenceTableMissingColumn(t *testing.T) {
	ctx := context.Background()
	loader := NewLoader(slog.Default(), testPipelineConfig())

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []interface{}{"Contract", "State"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headers))
	path := filepath.Join(t.TempDir(), "reference.xlsx")
	require.NoError(t, f.SaveAs(path))
	f.Close()

	_, err := loader.LoadReferenceTable(ctx, path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataSource))
}

func TestParseJournalDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "iso date", value: "2025-03-14", want: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "slash date", value: "3/14/25", want: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "excel serial", value: "45730", want: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "soon", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJournalDate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 1234.5, parseNumber("1,234.50"))
	assert.Equal(t, -42.0, parseNumber(" -42 "))
	assert.Equal(t, 0.0, parseNumber("n/a"))
}

func TestParsePercent(t *testing.T) {
	assert.InDelta(t, 0.15, parsePercent("0.15"), 1e-9)
	assert.InDelta(t, 0.15, parsePercent("15%"), 1e-9)
	assert.InDelta(t, 0.155, parsePercent(" 15.5% "), 1e-9)
	assert.InDelta(t, 0.0, parsePercent(""), 1e-9)
}
