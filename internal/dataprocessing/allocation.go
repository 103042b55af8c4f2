package dataprocessing

import (
	"context"
	"log/slog"

	apperrors "github.com/Mitchell-Turner/invoice-accrual-automation/internal/errors"
	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

// AllocationEngine computes MMP reclass payment allocations from the
// category summary and the percentage reference table.
type AllocationEngine struct {
	logger *slog.Logger
}

// NewAllocationEngine creates an allocation engine.
func NewAllocationEngine(logger *slog.Logger) *AllocationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &AllocationEngine{logger: logger}
}

// AllocationResult holds the outputs of an allocation pass. When the soft
// preconditions fail, Applied is false and Summary/Reference carry the
// inputs unchanged.
type AllocationResult struct {
	Summary            []domain.SummaryRow
	Reference          []domain.ReferenceRow
	Applied            bool
	ChartsTotal        float64
	SubsetAllocation   float64
	TotalAllocation    float64
	AdjustedAllocation float64
}

// Allocate distributes the "Charts & Coding" total across the reference
// table percentages and appends the synthetic reclass row to the summary.
// An empty summary or a summary without the Charts & Coding category is a
// recoverable no-op, logged at warning level. A reference table without
// the Subset sentinel row is a fatal error. Inputs are not mutated; the
// result carries fresh slices.
func (e *AllocationEngine) Allocate(ctx context.Context, summary []domain.SummaryRow, reference []domain.ReferenceRow) (AllocationResult, error) {
	skipped := AllocationResult{Summary: summary, Reference: reference}

	if len(summary) == 0 {
		e.logger.WarnContext(ctx, "no data available for MMP allocation, summary is empty")
		return skipped, nil
	}

	charts, found := domain.FindSummary(summary, domain.LabelChartsCoding)
	if !found {
		e.logger.WarnContext(ctx, "no Charts & Coding category found in summary, skipping MMP allocation")
		return skipped, nil
	}

	allocated := make([]domain.ReferenceRow, len(reference))
	subsetFound := false
	var subsetAllocation, totalAllocation float64
	for i, row := range reference {
		row.PaymentAllocation = row.PercentOfPayments * charts.Total
		if row.Contract == domain.ContractSubset && !subsetFound {
			subsetAllocation = row.PaymentAllocation
			subsetFound = true
		}
		if row.State == domain.StateTotal {
			totalAllocation += row.PaymentAllocation
		}
		allocated[i] = row
	}

	if !subsetFound {
		return skipped, apperrors.NewReferenceDataError(
			"MMP reference table has no Subset row")
	}

	adjusted := totalAllocation - subsetAllocation
	for i := range allocated {
		if allocated[i].State == domain.StateAdjusted {
			allocated[i].PaymentAllocation = adjusted
		}
	}

	newSummary := make([]domain.SummaryRow, len(summary), len(summary)+1)
	copy(newSummary, summary)
	newSummary = append(newSummary, domain.SummaryRow{
		Label: domain.LabelTotalReclass,
		Total: subsetAllocation,
	})

	e.logger.InfoContext(ctx, "MMP reclass allocation computed",
		slog.Float64("charts_total", charts.Total),
		slog.Float64("subset_allocation", subsetAllocation),
		slog.Float64("total_allocation", totalAllocation),
		slog.Float64("adjusted_allocation", adjusted))

	return AllocationResult{
		Summary:            newSummary,
		Reference:          allocated,
		Applied:            true,
		ChartsTotal:        charts.Total,
		SubsetAllocation:   subsetAllocation,
		TotalAllocation:    totalAllocation,
		AdjustedAllocation: adjusted,
	}, nil
}
