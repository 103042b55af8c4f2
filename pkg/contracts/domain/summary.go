package domain

// SummaryRow represents the aggregated total for one category label.
// The allocation engine appends exactly one synthetic row with
// Label == LabelTotalReclass.
type SummaryRow struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// FindSummary returns the first row with the given label, or false when no
// such row exists. Summary labels are unique within a run.
func FindSummary(rows []SummaryRow, label string) (SummaryRow, bool) {
	for _, r := range rows {
		if r.Label == label {
			return r, true
		}
	}
	return SummaryRow{}, false
}
