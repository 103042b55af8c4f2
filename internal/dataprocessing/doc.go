// Package dataprocessing implements the invoice accrual pipeline: loading
// ledger exports, classifying rows into accrual categories, aggregating
// category totals, flagging duplicates and outliers, and computing MMP
// reclass allocations. The Processor type ties the stages together.
//
// Stages pass data by value and never mutate their inputs, so a run over
// the same export always produces identical reports.
package dataprocessing
