package domain

// ReferenceRow represents one line of the MMP reclass reference table.
// Contract and State carry sentinel tokens that drive the allocation
// arithmetic, not literal business values.
type ReferenceRow struct {
	Contract          string  `json:"contract"`
	State             string  `json:"state"`
	PercentOfPayments float64 `json:"percent_of_payments"`
	PaymentAllocation float64 `json:"payment_allocation"`
}

// Sentinel tokens in the reference table.
const (
	ContractSubset = "Subset"
	StateTotal     = "Total"
	StateAdjusted  = "Adjusted"
)
