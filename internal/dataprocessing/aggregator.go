package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

// Aggregator produces category totals and anomaly flags from a classified
// batch.
type Aggregator struct {
	logger            *slog.Logger
	outlierPercentile float64
}

// NewAggregator creates an aggregator. outlierPercentile is the quantile of
// |value used| above which rows are flagged; values outside (0,1) fall back
// to 0.99.
func NewAggregator(logger *slog.Logger, outlierPercentile float64) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if outlierPercentile <= 0 || outlierPercentile >= 1 {
		outlierPercentile = 0.99
	}
	return &Aggregator{
		logger:            logger,
		outlierPercentile: outlierPercentile,
	}
}

// Summarize groups rows by label and sums the value used per group.
// Output is sorted by label so repeated runs over identical input produce
// identical tables; downstream consumers look up rows by label, not
// position.
func (a *Aggregator) Summarize(ctx context.Context, rows []domain.InvoiceRow) []domain.SummaryRow {
	totals := make(map[string]float64)
	for _, row := range rows {
		totals[row.Label] += row.ValueUsed
	}

	summary := make([]domain.SummaryRow, 0, len(totals))
	for label, total := range totals {
		summary = append(summary, domain.SummaryRow{Label: label, Total: total})
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Label < summary[j].Label
	})

	for _, row := range summary {
		a.logger.InfoContext(ctx, "category total",
			slog.String("label", row.Label),
			slog.Float64("total", row.Total))
	}

	return summary
}

// Flags returns the rows that warrant review: every member of a duplicate
// invoice-ID group, and every row whose |value used| exceeds the outlier
// threshold. Rows satisfying both conditions appear once.
func (a *Aggregator) Flags(ctx context.Context, rows []domain.InvoiceRow) []domain.InvoiceRow {
	flagged := make([]bool, len(rows))

	duplicates := a.markDuplicates(rows, flagged)
	outliers, threshold := a.markOutliers(rows, flagged)

	var flags []domain.InvoiceRow
	for i, isFlagged := range flagged {
		if isFlagged {
			flags = append(flags, rows[i])
		}
	}

	a.logger.InfoContext(ctx, "flagged items",
		slog.Int("duplicates", duplicates),
		slog.Int("outliers", outliers),
		slog.Float64("outlier_threshold", threshold),
		slog.Int("total_flagged", len(flags)))

	return flags
}

// markDuplicates flags every row whose invoice ID appears more than once in
// the batch and returns the number of such rows. Detection is batch-wide:
// a group of three duplicates flags all three rows.
func (a *Aggregator) markDuplicates(rows []domain.InvoiceRow, flagged []bool) int {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.InvoiceID]++
	}

	duplicates := 0
	for i, row := range rows {
		if counts[row.InvoiceID] > 1 {
			flagged[i] = true
			duplicates++
		}
	}
	return duplicates
}

// markOutliers flags rows whose |value used| strictly exceeds the
// configured quantile of |value used| over the batch. An empty batch
// contributes no outliers.
func (a *Aggregator) markOutliers(rows []domain.InvoiceRow, flagged []bool) (int, float64) {
	if len(rows) == 0 {
		return 0, 0
	}

	absValues := make([]float64, len(rows))
	for i, row := range rows {
		absValues[i] = math.Abs(row.ValueUsed)
	}
	sort.Float64s(absValues)

	threshold := percentileValue(absValues, a.outlierPercentile)

	outliers := 0
	for i, row := range rows {
		if math.Abs(row.ValueUsed) > threshold {
			flagged[i] = true
			outliers++
		}
	}
	return outliers, threshold
}

// percentileValue returns the value at the given quantile of a sorted
// slice, with linear interpolation between order statistics.
func percentileValue(sorted []float64, percentile float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 1 {
		return sorted[n-1]
	}

	index := percentile * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
