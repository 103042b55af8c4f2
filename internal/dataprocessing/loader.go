package dataprocessing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Mitchell-Turner/invoice-accrual-automation/internal/config"
	apperrors "github.com/Mitchell-Turner/invoice-accrual-automation/internal/errors"
	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

// invoiceHeaderRows is the number of leading rows before invoice data: one
// export metadata row plus the column header row.
const invoiceHeaderRows = 2

// journalDateFormats are tried in order when parsing journal date cells.
// Excelize renders date cells differently depending on the cell's number
// format, so several spellings of the same date must be accepted.
var journalDateFormats = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// Loader reads the raw invoice export and the MMP reference workbook into
// in-memory tables. Filtering happens at load time so every downstream
// stage sees only rows for required contracts with allowed descriptions.
type Loader struct {
	logger *slog.Logger
	rules  config.PipelineConfig
}

// NewLoader creates a loader with the given business rule configuration.
func NewLoader(logger *slog.Logger, rules config.PipelineConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, rules: rules}
}

// LoadInvoiceBatch reads an invoice export workbook. The first row of the
// sheet is export metadata and is skipped; the second row carries the
// column headers. The reporting period is derived from the journal date of
// the first data row and pinned on the returned batch.
func (l *Loader) LoadInvoiceBatch(ctx context.Context, filePath string) (*domain.InvoiceBatch, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to open invoice file", err).
			WithContext("file", filePath)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to read invoice sheet", err).
			WithContext("file", filePath)
	}

	if len(rows) < invoiceHeaderRows {
		return nil, apperrors.NewDataSourceError("invoice sheet has no header row", nil).
			WithContext("file", filePath)
	}

	columnMap, err := mapInvoiceColumns(rows[1])
	if err != nil {
		return nil, err
	}

	dataRows := rows[invoiceHeaderRows:]
	if len(dataRows) == 0 {
		return nil, apperrors.NewMalformedDateError(
			"invoice table is empty, cannot derive reporting period", nil).
			WithContext("file", filePath)
	}

	period, err := parseJournalDate(cellAt(dataRows[0], columnMap["journal_date"]))
	if err != nil {
		return nil, apperrors.NewMalformedDateError(
			"failed to parse journal date of first row", err).
			WithContext("file", filePath)
	}

	var kept, dropped int
	var invoiceRows []domain.InvoiceRow
	for i, row := range dataRows {
		if isEmptyRow(row) {
			continue
		}

		invoiceRow := domain.InvoiceRow{
			Contract:        int(parseNumber(cellAt(row, columnMap["contract"]))),
			LineDescription: strings.TrimSpace(cellAt(row, columnMap["line_descr"])),
			Source:          strings.TrimSpace(cellAt(row, columnMap["source"])),
			Amount:          parseNumber(cellAt(row, columnMap["amount"])),
			APAmount:        parseNumber(cellAt(row, columnMap["ap_amount"])),
			InvoiceID:       strings.TrimSpace(cellAt(row, columnMap["invoice"])),
		}

		if date, err := parseJournalDate(cellAt(row, columnMap["journal_date"])); err == nil {
			invoiceRow.JournalDate = date
		} else {
			l.logger.Debug("could not parse journal date",
				slog.Int("row", i+invoiceHeaderRows+1),
				slog.String("value", cellAt(row, columnMap["journal_date"])))
		}

		if !l.rules.ContractRequired(invoiceRow.Contract) ||
			l.rules.DescriptionExcluded(invoiceRow.LineDescription) {
			dropped++
			continue
		}

		invoiceRows = append(invoiceRows, invoiceRow)
		kept++
	}

	l.logger.InfoContext(ctx, "loaded invoice data",
		slog.String("file", filePath),
		slog.String("period", period.Format("2006_01")),
		slog.Int("rows_kept", kept),
		slog.Int("rows_filtered", dropped))

	if len(invoiceRows) == 0 {
		return nil, apperrors.NewEmptyBatchError(
			"no invoice rows remain after contract and description filtering").
			WithContext("file", filePath)
	}

	return &domain.InvoiceBatch{
		Rows:       invoiceRows,
		Period:     period,
		SourceFile: filePath,
	}, nil
}

// LoadReferenceTable reads the MMP reclass reference workbook. Headers are
// in the first row. The percent column is coerced to a float64 fraction;
// both "0.15" and "15%" spellings are accepted.
func (l *Loader) LoadReferenceTable(ctx context.Context, filePath string) ([]domain.ReferenceRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to open MMP reference file", err).
			WithContext("file", filePath)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to read MMP reference sheet", err).
			WithContext("file", filePath)
	}

	if len(rows) == 0 {
		return nil, apperrors.NewDataSourceError("MMP reference sheet is empty", nil).
			WithContext("file", filePath)
	}

	columnMap := make(map[string]int)
	for j, header := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "contract":
			columnMap["contract"] = j
		case "state":
			columnMap["state"] = j
		case "% of payments":
			columnMap["percent"] = j
		}
	}
	for _, col := range []string{"contract", "state", "percent"} {
		if _, exists := columnMap[col]; !exists {
			return nil, apperrors.NewDataSourceError("MMP reference sheet is missing required column", nil).
				WithContext("column", col).
				WithContext("file", filePath)
		}
	}

	var refRows []domain.ReferenceRow
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		refRows = append(refRows, domain.ReferenceRow{
			Contract:          strings.TrimSpace(cellAt(row, columnMap["contract"])),
			State:             strings.TrimSpace(cellAt(row, columnMap["state"])),
			PercentOfPayments: parsePercent(cellAt(row, columnMap["percent"])),
		})
	}

	l.logger.InfoContext(ctx, "loaded MMP reference data",
		slog.String("file", filePath),
		slog.Int("rows", len(refRows)))

	return refRows, nil
}

// mapInvoiceColumns maps required invoice columns to their positions in the
// header row.
func mapInvoiceColumns(headerRow []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for j, header := range headerRow {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "journal date":
			columnMap["journal_date"] = j
		case "contract":
			columnMap["contract"] = j
		case "line descr", "line description":
			columnMap["line_descr"] = j
		case "source":
			columnMap["source"] = j
		case "amount":
			columnMap["amount"] = j
		case "ap amount":
			columnMap["ap_amount"] = j
		case "invoice":
			columnMap["invoice"] = j
		}
	}

	required := []string{"journal_date", "contract", "line_descr", "source", "amount", "ap_amount", "invoice"}
	for _, col := range required {
		if _, exists := columnMap[col]; !exists {
			return nil, apperrors.NewDataSourceError("invoice sheet is missing required column", nil).
				WithContext("column", col)
		}
	}

	return columnMap, nil
}

// parseJournalDate parses a journal date cell. Numeric cells are treated as
// Excel serial dates.
func parseJournalDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}

	var lastErr error
	for _, format := range journalDateFormats {
		date, err := time.Parse(format, value)
		if err == nil {
			return date, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseNumber parses a numeric cell, tolerating thousands separators.
// Unparseable cells yield zero, matching how absent amounts behave.
func parseNumber(value string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	n, _ := strconv.ParseFloat(cleaned, 64)
	return n
}

// parsePercent parses a percent cell to a fraction.
func parsePercent(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if strings.HasSuffix(cleaned, "%") {
		return parseNumber(strings.TrimSuffix(cleaned, "%")) / 100
	}
	return parseNumber(cleaned)
}

// cellAt returns the cell at index idx, or "" when the row is short.
// Excelize trims trailing empty cells from rows.
func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
