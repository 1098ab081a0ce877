// Package dataprocessing turns broker-exported holdings files of unknown
// layout into a portfolio analysis.
//
// # Architecture
//
// The pipeline runs strictly in sequence:
//
//  1. ReadTables decodes an xlsx workbook (excelize) or delimited text
//     (encoding/csv) with no header assumed.
//  2. Parser asks a HeaderStrategy for the header row. Title, blank and
//     summary rows above it are skipped. When no row qualifies the first
//     row is used. Delimited text always uses its first row.
//  3. Normalizer maps broker column titles to the canonical schema
//     {symbol, quantity, purchase_price, current_price?} and coerces
//     numbers to exact decimals.
//  4. Analyze computes invested value, allocation, and, when current
//     prices exist, valuation and profit/loss.
//
// # Usage
//
//	p := dataprocessing.NewHoldingsProcessor(dataprocessing.DefaultOptions(), logger)
//	res, err := p.Process(bytes.NewReader(data), dataprocessing.KindSpreadsheet)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Analysis.Summary.TotalInvested)
//
// # Error Handling
//
// Errors are *errors.AppError values matching ErrUnsupportedFormat,
// ErrParse, ErrMissingRequiredColumns or ErrEmptyOrZeroInvested through
// errors.Is. Rows with an empty symbol or an unreadable number are not
// errors; they are excluded and counted in Analysis.Dropped.
package dataprocessing
