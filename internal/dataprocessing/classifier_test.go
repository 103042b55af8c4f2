package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mitchell-Turner/invoice-accrual-automation/pkg/contracts/domain"
)

func TestClassifier_Label(t *testing.T) {
	classifier := NewClassifier(slog.Default())

	tests := []struct {
		name string
		row  domain.InvoiceRow
		want string
	}{
		{
			name: "AP2 contract 1111 is charts and coding",
			row:  domain.InvoiceRow{Source: domain.SourceAP2, Contract: 1111, APAmount: 500},
			want: domain.LabelChartsCoding,
		},
		{
			name: "AP2 contract 2222 is misc expense",
			row:  domain.InvoiceRow{Source: domain.SourceAP2, Contract: 2222, APAmount: 200},
			want: domain.LabelMiscExpense,
		},
		{
			name: "COR contract 1111 negative amount is reversal",
			row:  domain.InvoiceRow{Source: domain.SourceCOR, Contract: 1111, Amount: -50},
			want: domain.Label1111Reversal,
		},
		{
			name: "COR contract 1111 positive amount is pending",
			row:  domain.InvoiceRow{Source: domain.SourceCOR, Contract: 1111, Amount: 120},
			want: domain.Label1111Pending,
		},
		{
			name: "COR contract 2222 negative amount is reversal",
			row:  domain.InvoiceRow{Source: domain.SourceCOR, Contract: 2222, Amount: -10},
			want: domain.Label2222Reversal,
		},
		{
			name: "COR contract 2222 positive amount is pending",
			row:  domain.InvoiceRow{Source: domain.SourceCOR, Contract: 2222, Amount: 10},
			want: domain.Label2222Pending,
		},
		{
			name: "COR with zero amount matches no rule",
			row:  domain.InvoiceRow{Source: domain.SourceCOR, Contract: 1111, Amount: 0},
			want: domain.LabelUnlabeled,
		},
		{
			name: "unknown source falls through to unlabeled",
			row:  domain.InvoiceRow{Source: "GL", Contract: 1111, Amount: 100},
			want: domain.LabelUnlabeled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Label(tt.row))
		})
	}
}

func TestValueUsed(t *testing.T) {
	tests := []struct {
		name string
		row  domain.InvoiceRow
		want float64
	}{
		{
			name: "COR rows use the ledger amount",
			row:  domain.InvoiceRow{Source: domain.SourceCOR, Amount: -50, APAmount: 999},
			want: -50,
		},
		{
			name: "AP2 rows use the AP amount",
			row:  domain.InvoiceRow{Source: domain.SourceAP2, Amount: 75, APAmount: 200},
			want: 200,
		},
		{
			name: "unknown source defaults to the AP amount",
			row:  domain.InvoiceRow{Source: "GL", Amount: 10, APAmount: 20},
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueUsed(tt.row))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()
	classifier := NewClassifier(slog.Default())

	rows := []domain.InvoiceRow{
		{Source: domain.SourceAP2, Contract: 2222, Amount: 75, APAmount: 200, InvoiceID: "INV-1"},
		{Source: domain.SourceCOR, Contract: 1111, Amount: -50, APAmount: 0, InvoiceID: "INV-2"},
	}

	classified := classifier.Classify(ctx, rows)
	require.Len(t, classified, 2)

	assert.Equal(t, domain.LabelMiscExpense, classified[0].Label)
	assert.Equal(t, 200.0, classified[0].ValueUsed)
	assert.Equal(t, domain.Label1111Reversal, classified[1].Label)
	assert.Equal(t, -50.0, classified[1].ValueUsed)

	// Input rows must stay untouched
	assert.Empty(t, rows[0].Label)
	assert.Zero(t, rows[0].ValueUsed)
}

func TestClassifier_EveryRowGetsExactlyOneLabel(t *testing.T) {
	ctx := context.Background()
	classifier := NewClassifier(slog.Default())

	var rows []domain.InvoiceRow
	for _, source := range []string{domain.SourceAP2, domain.SourceCOR, "GL", ""} {
		for _, contract := range []int{1111, 2222, 3333} {
			for _, amount := range []float64{-100, 0, 100} {
				rows = append(rows, domain.InvoiceRow{
					Source:   source,
					Contract: contract,
					Amount:   amount,
					APAmount: amount * 2,
				})
			}
		}
	}

	classified := classifier.Classify(ctx, rows)
	require.Len(t, classified, len(rows))
	for _, row := range classified {
		assert.NotEmpty(t, row.Label)
	}
}
