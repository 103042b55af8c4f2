package exporter

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

func sampleRows() []domain.InvoiceRow {
	return []domain.InvoiceRow{
		{
			JournalDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			Contract:        1111,
			LineDescription: "Chart review",
			Source:          domain.SourceAP2,
			Amount:          75,
			APAmount:        200,
			InvoiceID:       "INV-001",
			Label:           domain.LabelChartsCoding,
			ValueUsed:       200,
		},
		{
			JournalDate:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			Contract:        2222,
			LineDescription: "Coding batch",
			Source:          domain.SourceCOR,
			Amount:          -50,
			APAmount:        0,
			InvoiceID:       "INV-002",
			Label:           domain.Label2222Reversal,
			ValueUsed:       -50,
		},
	}
}

func TestExcelWriter_WriteBundleMainReport(t *testing.T) {
	ctx := context.Background()
	assembler := NewAssembler(slog.Default())
	writer := NewExcelWriter(slog.Default())

	rows := sampleRows()
	summary := []domain.SummaryRow{
		{Label: domain.Label2222Reversal, Total: -50},
		{Label: domain.LabelChartsCoding, Total: 200},
	}
	flags := rows[:1]

	bundle := assembler.MainReport("2025_03", summary, rows, flags)
	require.Equal(t, "Invoice_Report_2025_03.xlsx", bundle.FileName)

	dir := t.TempDir()
	path, err := writer.WriteBundle(ctx, dir, bundle)
	require.NoError(t, err)
	assert.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Full Data", "Flags"}, f.GetSheetList())

	summarySheet, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summarySheet, 3)
	assert.Equal(t, "Label", summarySheet[0][0])
	assert.Equal(t, domain.LabelChartsCoding, summarySheet[2][0])

	dataSheet, err := f.GetRows("Full Data")
	require.NoError(t, err)
	require.Len(t, dataSheet, 3)
	assert.Equal(t, "2025-03-14", dataSheet[1][0])
	assert.Equal(t, "INV-002", dataSheet[2][6])

	flagSheet, err := f.GetRows("Flags")
	require.NoError(t, err)
	require.Len(t, flagSheet, 2)
	assert.Equal(t, "INV-001", flagSheet[1][6])
}

func TestExcelWriter_WriteBundleAllocationReport(t *testing.T) {
	ctx := context.Background()
	assembler := NewAssembler(slog.Default())
	writer := NewExcelWriter(slog.Default())

	reference := []domain.ReferenceRow{
		{Contract: "5555", State: domain.StateTotal, PercentOfPayments: 0.60, PaymentAllocation: 120},
		{Contract: domain.ContractSubset, State: "", PercentOfPayments: 0.15, PaymentAllocation: 30},
	}

	bundle := assembler.AllocationReport("2025_03", reference)
	require.Equal(t, "MMP_Reclass_Allocations_2025_03.xlsx", bundle.FileName)
	require.Len(t, bundle.Sheets, 1)

	sheet := bundle.Sheets[0]
	assert.Equal(t, []int{3}, sheet.CurrencyCols)
	assert.Equal(t, []int{2}, sheet.PercentCols)
	require.Len(t, sheet.Highlights, 2)
	assert.Equal(t, 0, sheet.Highlights[0].Row)
	assert.Equal(t, 1, sheet.Highlights[1].Row)

	path, err := writer.WriteBundle(ctx, t.TempDir(), bundle)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("MMP Allocation")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Subset", rows[2][0])
}

func TestExcelWriter_WriteBundleCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	writer := NewExcelWriter(slog.Default())

	bundle := ReportBundle{
		FileName: "report.xlsx",
		Sheets: []Sheet{
			{Name: "Data", Headers: []string{"A"}, Rows: [][]interface{}{{1}}},
		},
	}

	dir := t.TempDir() + "/nested/period"
	path, err := writer.WriteBundle(ctx, dir, bundle)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestAssembler_SnapshotRecords(t *testing.T) {
	assembler := NewAssembler(slog.Default())

	headers, records := assembler.SnapshotRecords(sampleRows())
	assert.Equal(t, "Journal Date", headers[0])
	assert.Equal(t, "Value Used", headers[len(headers)-1])

	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"2025-03-14", "1111", "Chart review", "AP2",
		"75.00", "200.00", "INV-001", domain.LabelChartsCoding, "200.00",
	}, records[0])
	assert.Equal(t, "-50.00", records[1][8])
}
