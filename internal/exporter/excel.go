package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Mitchell-Turner/invoice-accrual-automation/internal/errors"
)

// Number formats applied by the renderer.
const (
	numFmtCurrency = "$#,##0.00"
	numFmtPercent  = "0.00%"
)

// maxColumnWidth caps auto-fitted column widths so long descriptions do not
// blow up the layout.
const maxColumnWidth = 50

// ExcelWriter renders report bundles to .xlsx workbooks. It is the external
// rendering collaborator: everything it needs arrives as sheet data plus
// styling metadata.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates an Excel renderer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteBundle renders a bundle into dir and returns the written file path.
func (w *ExcelWriter) WriteBundle(ctx context.Context, dir string, bundle ReportBundle) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create report directory", err).
			WithContext("directory", dir)
	}

	f := excelize.NewFile()
	defer f.Close()

	styles := newStyleCache(f)

	for i, sheet := range bundle.Sheets {
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet.Name)
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return "", apperrors.NewStorageError("failed to create sheet", err).
					WithContext("sheet", sheet.Name)
			}
		}

		if err := w.renderSheet(f, styles, sheet); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, bundle.FileName)
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("failed to save workbook", err).
			WithContext("path", path)
	}

	w.logger.InfoContext(ctx, "saved report workbook",
		slog.String("path", path),
		slog.Int("sheets", len(bundle.Sheets)))

	return path, nil
}

func (w *ExcelWriter) renderSheet(f *excelize.File, styles *styleCache, sheet Sheet) error {
	currency := make(map[int]bool, len(sheet.CurrencyCols))
	for _, col := range sheet.CurrencyCols {
		currency[col] = true
	}
	percent := make(map[int]bool, len(sheet.PercentCols))
	for _, col := range sheet.PercentCols {
		percent[col] = true
	}
	highlight := make(map[int]string, len(sheet.Highlights))
	for _, h := range sheet.Highlights {
		highlight[h.Row] = h.Fill
	}

	headerStyle, err := styles.header(sheet.HeaderFill)
	if err != nil {
		return err
	}
	for col, name := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return apperrors.NewStorageError("invalid header cell coordinates", err)
		}
		if err := f.SetCellValue(sheet.Name, cell, name); err != nil {
			return apperrors.NewStorageError("failed to write header cell", err)
		}
		if err := f.SetCellStyle(sheet.Name, cell, cell, headerStyle); err != nil {
			return apperrors.NewStorageError("failed to style header cell", err)
		}
	}

	for rowIdx, row := range sheet.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return apperrors.NewStorageError("invalid cell coordinates", err)
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return apperrors.NewStorageError("failed to write cell", err)
			}

			numFmt := ""
			switch {
			case currency[col]:
				numFmt = numFmtCurrency
			case percent[col]:
				numFmt = numFmtPercent
			}
			fill := highlight[rowIdx]
			if numFmt == "" && fill == "" {
				continue
			}
			styleID, err := styles.cell(numFmt, fill)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet.Name, cell, cell, styleID); err != nil {
				return apperrors.NewStorageError("failed to style cell", err)
			}
		}
	}

	return w.fitColumns(f, sheet)
}

// fitColumns widens each column to its longest rendered value, capped at
// maxColumnWidth.
func (w *ExcelWriter) fitColumns(f *excelize.File, sheet Sheet) error {
	for col, name := range sheet.Headers {
		width := float64(len(name))
		for _, row := range sheet.Rows {
			if col < len(row) {
				if l := float64(len(fmt.Sprint(row[col]))); l > width {
					width = l
				}
			}
		}
		width += 2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}

		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return apperrors.NewStorageError("invalid column number", err)
		}
		if err := f.SetColWidth(sheet.Name, colName, colName, width); err != nil {
			return apperrors.NewStorageError("failed to set column width", err)
		}
	}
	return nil
}

// styleCache creates styles on demand and reuses them; excelize allocates a
// new style ID per NewStyle call.
type styleCache struct {
	file  *excelize.File
	byKey map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{file: f, byKey: make(map[string]int)}
}

func (c *styleCache) header(fill string) (int, error) {
	key := "header:" + fill
	if id, ok := c.byKey[key]; ok {
		return id, nil
	}

	style := &excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1}
	}

	id, err := c.file.NewStyle(style)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to create header style", err)
	}
	c.byKey[key] = id
	return id, nil
}

func (c *styleCache) cell(numFmt, fill string) (int, error) {
	key := numFmt + ":" + fill
	if id, ok := c.byKey[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if numFmt != "" {
		fmtCopy := numFmt
		style.CustomNumFmt = &fmtCopy
	}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1}
	}

	id, err := c.file.NewStyle(style)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to create cell style", err)
	}
	c.byKey[key] = id
	return id, nil
}
