// Package exporter assembles and renders the monthly report outputs.
//
// The Assembler turns processed batch data into ReportBundle values, which
// pair sheet contents with styling metadata (header fills, currency and
// percent columns, row highlights). ExcelWriter renders a bundle into an
// .xlsx workbook and CSVWriter writes the plain-data snapshot that
// accompanies each run.
package exporter
