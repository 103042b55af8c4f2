package config

// DefaultOutlierPercentile is the quantile of |value used| above which a
// row is flagged as an outlier.
const DefaultOutlierPercentile = 0.99

// DefaultRequiredContracts returns the contracts a row must belong to in
// order to survive filtering.
func DefaultRequiredContracts() []int {
	return []int{1111, 2222}
}

// DefaultExcludedDescriptions returns the line descriptions dropped before
// classification.
func DefaultExcludedDescriptions() []string {
	return []string{"MSG Chart Expense", "MSG Misc Chart Expense"}
}

// Output file name patterns, keyed by the YYYY_MM period token.
const (
	MainReportPattern       = "Invoice_Report_%s.xlsx"
	AllocationReportPattern = "MMP_Reclass_Allocations_%s.xlsx"
	DataSnapshotPattern     = "invoice_data_%s.csv"
)

// RunHistoryFile is the cumulative per-run log kept at the root of the
// processed directory, one appended record per completed run.
const RunHistoryFile = "run_history.csv"
