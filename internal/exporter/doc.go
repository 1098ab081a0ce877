// Package exporter writes analyses and sample holdings files.
//
// CSV output optionally starts with a UTF-8 BOM so spreadsheet programs
// detect the encoding. Workbooks are written with excelize.
//
//	err := exporter.WriteFile("out/holdings.csv", func(w io.Writer) error {
//	    return exporter.WriteHoldingsCSV(w, analysis, exporter.WriteOptions{BOMPrefix: true})
//	})
package exporter
