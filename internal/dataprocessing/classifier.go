package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

// labelRule pairs a predicate with the category it assigns. Rules are
// evaluated in order and the first match wins; the ordering is a semantic
// contract because the predicates are not mutually exclusive.
type labelRule struct {
	match func(domain.InvoiceRow) bool
	label string
}

// Classifier assigns a category label and the monetary value used for
// aggregation to every invoice row. Classification is a pure function of
// the row; the classifier holds no mutable state.
type Classifier struct {
	logger *slog.Logger
	rules  []labelRule
}

// NewClassifier creates a classifier with the production rule set.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		logger: logger,
		rules:  defaultLabelRules(),
	}
}

func defaultLabelRules() []labelRule {
	return []labelRule{
		{
			match: func(r domain.InvoiceRow) bool {
				return r.Source == domain.SourceAP2 && r.Contract == 1111
			},
			label: domain.LabelChartsCoding,
		},
		{
			match: func(r domain.InvoiceRow) bool {
				return r.Source == domain.SourceAP2 && r.Contract == 2222
			},
			label: domain.LabelMiscExpense,
		},
		{
			match: func(r domain.InvoiceRow) bool {
				return r.Source == domain.SourceCOR && r.Contract == 1111 && r.Amount < 0
			},
			label: domain.Label1111Reversal,
		},
		{
			match: func(r domain.InvoiceRow) bool {
				return r.Source == domain.SourceCOR && r.Contract == 1111 && r.Amount > 0
			},
			label: domain.Label1111Pending,
		},
		{
			match: func(r domain.InvoiceRow) bool {
				return r.Source == domain.SourceCOR && r.Contract == 2222 && r.Amount < 0
			},
			label: domain.Label2222Reversal,
		},
		{
			match: func(r domain.InvoiceRow) bool {
				return r.Source == domain.SourceCOR && r.Contract == 2222 && r.Amount > 0
			},
			label: domain.Label2222Pending,
		},
	}
}

// Label returns the category for a single row. Rows matching no rule get
// the Unlabeled fallback, so every row receives exactly one label.
func (c *Classifier) Label(row domain.InvoiceRow) string {
	for _, rule := range c.rules {
		if rule.match(row) {
			return rule.label
		}
	}
	return domain.LabelUnlabeled
}

// ValueUsed selects the monetary amount used for aggregation: the ledger
// amount for COR rows, the accounts-payable amount otherwise. Independent
// of which label matched.
func ValueUsed(row domain.InvoiceRow) float64 {
	if row.Source == domain.SourceCOR {
		return row.Amount
	}
	return row.APAmount
}

// Classify labels every row and fills in the value used. The input slice
// is not modified; a new slice is returned.
func (c *Classifier) Classify(ctx context.Context, rows []domain.InvoiceRow) []domain.InvoiceRow {
	classified := make([]domain.InvoiceRow, len(rows))
	counts := make(map[string]int)

	for i, row := range rows {
		row.Label = c.Label(row)
		row.ValueUsed = ValueUsed(row)
		classified[i] = row
		counts[row.Label]++
	}

	// Log category counts in label order
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		c.logger.InfoContext(ctx, "invoice category",
			slog.String("label", label),
			slog.Int("count", counts[label]))
	}

	return classified
}
