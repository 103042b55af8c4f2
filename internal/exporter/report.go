package exporter

import (
	"fmt"
	"log/slog"

	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/config"
	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

// Header and highlight fill colors carried as styling metadata on sheets.
// The renderer maps them to cell styles; nothing below the assembler knows
// about cells.
const (
	fillSummaryHeader    = "FFD1DC" // pastel pink
	fillDataHeader       = "CCFFCC" // pastel green
	fillFlagsHeader      = "FFFFCC" // pastel yellow
	fillAllocationHeader = "E6E6FA" // pastel lavender
	fillTotalRow         = "D9D9D9" // gray
	fillSubsetRow        = "FFFACD" // pastel yellow
)

// RowHighlight marks a zero-based data row for a background fill.
type RowHighlight struct {
	Row  int
	Fill string
}

// Sheet is one named table plus its styling intent: which columns carry
// currency or percentage values and which rows are highlighted.
type Sheet struct {
	Name         string
	Headers      []string
	Rows         [][]interface{}
	HeaderFill   string
	CurrencyCols []int
	PercentCols  []int
	Highlights   []RowHighlight
}

// ReportBundle is a named output workbook assembled from one or more
// sheets.
type ReportBundle struct {
	FileName string
	Sheets   []Sheet
}

// Assembler packages pipeline outputs into report bundles.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates a report assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

var invoiceHeaders = []string{
	"Journal Date", "Contract", "Line Descr", "Source",
	"Amount", "AP Amount", "Invoice", "Label", "Value Used",
}

// invoiceCurrencyCols are the monetary columns of the invoice table layout.
var invoiceCurrencyCols = []int{4, 5, 8}

// MainReport assembles the Summary, Full Data and Flags sheets for one
// batch.
func (a *Assembler) MainReport(periodToken string, summary []domain.SummaryRow, rows, flags []domain.InvoiceRow) ReportBundle {
	return ReportBundle{
		FileName: fmt.Sprintf(config.MainReportPattern, periodToken),
		Sheets: []Sheet{
			{
				Name:         "Summary",
				Headers:      []string{"Label", "Total"},
				Rows:         summaryRows(summary),
				HeaderFill:   fillSummaryHeader,
				CurrencyCols: []int{1},
			},
			{
				Name:         "Full Data",
				Headers:      invoiceHeaders,
				Rows:         invoiceRows(rows),
				HeaderFill:   fillDataHeader,
				CurrencyCols: invoiceCurrencyCols,
			},
			{
				Name:         "Flags",
				Headers:      invoiceHeaders,
				Rows:         invoiceRows(flags),
				HeaderFill:   fillFlagsHeader,
				CurrencyCols: invoiceCurrencyCols,
			},
		},
	}
}

// AllocationReport assembles the MMP Allocation sheet. Rows with the Total
// state are highlighted gray, rows with the Subset contract yellow.
func (a *Assembler) AllocationReport(periodToken string, reference []domain.ReferenceRow) ReportBundle {
	rows := make([][]interface{}, len(reference))
	var highlights []RowHighlight
	for i, row := range reference {
		rows[i] = []interface{}{row.Contract, row.State, row.PercentOfPayments, row.PaymentAllocation}
		if row.State == domain.StateTotal {
			highlights = append(highlights, RowHighlight{Row: i, Fill: fillTotalRow})
		}
		if row.Contract == domain.ContractSubset {
			highlights = append(highlights, RowHighlight{Row: i, Fill: fillSubsetRow})
		}
	}

	return ReportBundle{
		FileName: fmt.Sprintf(config.AllocationReportPattern, periodToken),
		Sheets: []Sheet{
			{
				Name:         "MMP Allocation",
				Headers:      []string{"Contract", "State", "% of Payments", "Payment Allocation"},
				Rows:         rows,
				HeaderFill:   fillAllocationHeader,
				CurrencyCols: []int{3},
				PercentCols:  []int{2},
				Highlights:   highlights,
			},
		},
	}
}

// SnapshotRecords renders the classified invoice table as CSV records for
// the period data snapshot.
func (a *Assembler) SnapshotRecords(rows []domain.InvoiceRow) ([]string, [][]string) {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = []string{
			row.JournalDate.Format("2006-01-02"),
			fmt.Sprintf("%d", row.Contract),
			row.LineDescription,
			row.Source,
			fmt.Sprintf("%.2f", row.Amount),
			fmt.Sprintf("%.2f", row.APAmount),
			row.InvoiceID,
			row.Label,
			fmt.Sprintf("%.2f", row.ValueUsed),
		}
	}
	return invoiceHeaders, records
}

func summaryRows(summary []domain.SummaryRow) [][]interface{} {
	rows := make([][]interface{}, len(summary))
	for i, row := range summary {
		rows[i] = []interface{}{row.Label, row.Total}
	}
	return rows
}

func invoiceRows(invoice []domain.InvoiceRow) [][]interface{} {
	rows := make([][]interface{}, len(invoice))
	for i, row := range invoice {
		rows[i] = []interface{}{
			row.JournalDate.Format("2006-01-02"),
			row.Contract,
			row.LineDescription,
			row.Source,
			row.Amount,
			row.APAmount,
			row.InvoiceID,
			row.Label,
			row.ValueUsed,
		}
	}
	return rows
}
