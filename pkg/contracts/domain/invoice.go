package domain

import (
	"time"
)

// InvoiceRow represents a single line of a PeopleSoft invoice ledger export.
// Label and ValueUsed are derived during classification and are zero-valued
// on freshly loaded rows.
type InvoiceRow struct {
	Contract        int       `json:"contract"`
	LineDescription string    `json:"line_description"`
	Source          string    `json:"source"`
	Amount          float64   `json:"amount"`
	APAmount        float64   `json:"ap_amount"`
	InvoiceID       string    `json:"invoice_id"`
	JournalDate     time.Time `json:"journal_date"`
	Label           string    `json:"label,omitempty"`
	ValueUsed       float64   `json:"value_used,omitempty"`
}

// Source tokens observed in the ledger export.
const (
	SourceAP2 = "AP2"
	SourceCOR = "COR"
)

// Category labels assigned by the classifier.
const (
	LabelChartsCoding = "Charts & Coding"
	LabelMiscExpense  = "Misc. exp."
	Label1111Reversal = "1111 Coupa Reversal"
	Label1111Pending  = "1111 Coupa Pending"
	Label2222Reversal = "2222 Coupa Reversal"
	Label2222Pending  = "2222 Coupa Pending"
	LabelUnlabeled    = "Unlabeled"
	LabelTotalReclass = "Total MMP Reclass"
)

// InvoiceBatch holds the rows of one loaded ledger export together with the
// reporting period derived from the first row's journal date. The period is
// fixed at load time and does not change for the lifetime of the batch.
type InvoiceBatch struct {
	Rows       []InvoiceRow `json:"rows"`
	Period     time.Time    `json:"period"`
	SourceFile string       `json:"source_file"`
}

// PeriodToken returns the batch period formatted as the YYYY_MM token used
// for output directories and file names.
func (b *InvoiceBatch) PeriodToken() string {
	return b.Period.Format("2006_01")
}
