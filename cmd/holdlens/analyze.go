package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"holdlens/internal/chart"
	"holdlens/internal/config"
	"holdlens/internal/dataprocessing"
	"holdlens/internal/exporter"
	"holdlens/internal/infrastructure"
	"holdlens/internal/insights"
	"holdlens/internal/services"
	"holdlens/internal/validation"
	"holdlens/pkg/contracts/domain"
)

type analyzeOptions struct {
	*rootOptions
	asJSON       bool
	strictHeader bool
	withInsights bool
	currency     string
	style        string
	concurrency  int
	csvOut       string
	xlsxOut      string
	chartOut     string
	chartWidth   int
	chartHeight  int
	maxBytes     int64
}

// fileResult is the outcome of analyzing one input file.
type fileResult struct {
	Path     string                   `json:"file"`
	Report   *services.AnalysisReport `json:"analysis,omitempty"`
	Error    string                   `json:"error,omitempty"`
	analysis *domain.Analysis
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "analyze FILE|DIR...",
		Short: "Analyze one or more holdings files",
		Long:  "Analyze holdings files. A directory argument stands for every .xlsx, .xlsm, .xls and .csv file directly inside it.",
		Example: `  holdlens analyze holdings.xlsx
  holdlens analyze --json broker-a.csv broker-b.xlsx
  holdlens analyze exports/
  holdlens analyze --csv out/holdings.csv --chart out/allocation.png holdings.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.asJSON, "json", false, "print the analysis as JSON")
	flags.BoolVar(&opts.strictHeader, "strict-header", false, "require a numeric data row under the detected header")
	flags.BoolVar(&opts.withInsights, "insights", false, "generate AI insights (needs an API key)")
	flags.StringVar(&opts.currency, "currency", config.DefaultCurrency, "ISO currency code for amounts")
	flags.StringVar(&opts.style, "style", "auto", "insights rendering style (auto, dark, light, notty)")
	flags.IntVar(&opts.concurrency, "concurrency", 4, "files analyzed in parallel")
	flags.StringVar(&opts.csvOut, "csv", "", "write the holdings table as CSV to this path")
	flags.StringVar(&opts.xlsxOut, "xlsx", "", "write the holdings and summary as an xlsx workbook to this path")
	flags.StringVar(&opts.chartOut, "chart", "", "write the allocation pie chart as PNG to this path")
	flags.IntVar(&opts.chartWidth, "chart-width", 800, "chart width in pixels")
	flags.IntVar(&opts.chartHeight, "chart-height", 600, "chart height in pixels")
	flags.Int64Var(&opts.maxBytes, "max-bytes", config.DefaultMaxUploadBytes, "largest input file accepted, in bytes")

	return cmd
}

func runAnalyze(ctx context.Context, opts *analyzeOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	validator := validation.NewFileValidator(opts.logger, opts.maxBytes)
	paths, err := validator.ExpandInputs(args)
	if err != nil {
		return err
	}

	artifacts := []string{opts.csvOut, opts.xlsxOut, opts.chartOut}
	for _, out := range artifacts {
		if out == "" {
			continue
		}
		if len(paths) != 1 {
			return errors.New("--csv, --xlsx and --chart need exactly one input file")
		}
		if err := validator.ValidateOutputFile(out); err != nil {
			return err
		}
	}

	var insighter *insights.Insighter
	if opts.withInsights {
		if insighter, err = opts.buildInsighter(ctx); err != nil {
			return err
		}
	}

	results, err := analyzeFiles(ctx, opts, validator, paths, insighter)
	if err != nil {
		return err
	}

	if opts.asJSON {
		if err := writeJSON(opts.out, results); err != nil {
			return err
		}
	} else {
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(opts.out)
			}
			if err := opts.printResult(res); err != nil {
				return err
			}
		}
	}

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be analyzed", failed, len(results))
	}

	if len(results) == 1 {
		return opts.writeArtifacts(results[0].analysis)
	}
	return nil
}

func (opts *analyzeOptions) buildInsighter(ctx context.Context) (*insights.Insighter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	generator, err := opts.newGenerator(ctx, cfg.AI, opts.logger)
	if err != nil {
		return nil, err
	}
	return insights.NewInsighter(generator, insights.Options{
		Currency:       opts.currency,
		Timeout:        cfg.AI.Timeout,
		MaxPromptChars: cfg.AI.MaxPromptChars,
		Logger:         opts.logger,
	}), nil
}

// analyzeFiles processes every path concurrently. A file that fails is
// reported in its result; only context cancellation aborts the run.
func analyzeFiles(ctx context.Context, opts *analyzeOptions, validator *validation.FileValidator, paths []string, insighter *insights.Insighter) ([]fileResult, error) {
	processor := dataprocessing.NewHoldingsProcessor(dataprocessing.ProcessingOptions{
		StrictHeader:  opts.strictHeader,
		MaxUnzipBytes: dataprocessing.UnzipLimit(opts.maxBytes),
	}, opts.logger)

	limit := opts.concurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeFile(ctx, processor, validator, insighter, path, opts.logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeFile(ctx context.Context, processor dataprocessing.Processor, validator *validation.FileValidator, insighter *insights.Insighter, path string, logger *slog.Logger) fileResult {
	res := fileResult{Path: path}
	ctx = infrastructure.EnsureTraceID(ctx)

	fail := func(err error) fileResult {
		logger.WarnContext(ctx, "file not analyzed", slog.String("file", path), slog.String("error", err.Error()))
		res.Error = err.Error()
		return res
	}

	kind, err := validator.ValidateHoldingsFile(path)
	if err != nil {
		return fail(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	out, err := processor.Process(bytes.NewReader(data), kind)
	if err != nil {
		return fail(err)
	}

	res.analysis = out.Analysis
	res.Report = &services.AnalysisReport{
		Analysis: out.Analysis,
		Filename: filepath.Base(path),
	}
	if insighter.Enabled() {
		res.Report.AIInsights = insighter.Insights(ctx, out.Analysis)
	}
	return res
}

func writeJSON(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 && results[0].Error == "" {
		return enc.Encode(results[0].Report)
	}
	return enc.Encode(results)
}

func (opts *analyzeOptions) printResult(res fileResult) error {
	if res.Error != "" {
		fmt.Fprintf(opts.out, "%s: %s\n", res.Path, res.Error)
		return nil
	}

	renderHoldings(opts.out, res.Report.Filename, res.analysis, opts.currency)

	dropped := res.analysis.Dropped
	if dropped.Total() > 0 {
		fmt.Fprintf(opts.out, "%d rows skipped (empty symbol: %d, unreadable number: %d)\n",
			dropped.Total(), dropped.EmptySymbol, dropped.InvalidNumber)
	}

	if md := res.Report.AIInsights; md != "" {
		rendered, err := renderMarkdown("## AI insights\n\n"+md, opts.style)
		if err != nil {
			return err
		}
		fmt.Fprint(opts.out, rendered)
	}
	return nil
}

// renderHoldings prints the per-holding table with a totals footer.
func renderHoldings(w io.Writer, title string, a *domain.Analysis, currency string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(title)

	header := table.Row{"SYMBOL", "QTY", "AVG PRICE", "INVESTED", "ALLOC %"}
	if a.HasValuation() {
		header = append(header, "PRICE", "VALUE", "P&L", "P&L %")
	}
	tw.AppendHeader(header)

	for _, h := range a.Holdings {
		row := table.Row{
			h.Symbol,
			h.Quantity.String(),
			insights.FormatMoney(h.PurchasePrice, currency, 2),
			insights.FormatMoney(h.InvestedValue, currency, 2),
			h.AllocationPct.StringFixed(2),
		}
		if v := h.Valuation; v != nil {
			row = append(row,
				insights.FormatMoney(v.CurrentPrice, currency, 2),
				insights.FormatMoney(v.CurrentValue, currency, 2),
				insights.FormatMoney(v.ProfitLoss, currency, 2),
				insights.SignedPercent(v.ProfitLossPct))
		}
		tw.AppendRow(row)
	}

	footer := table.Row{
		fmt.Sprintf("%d STOCKS", a.Summary.TotalStocks), "", "",
		insights.FormatMoney(a.Summary.TotalInvested, currency, 2), "100.00",
	}
	if p := a.Summary.Performance; p != nil {
		footer = append(footer, "",
			insights.FormatMoney(p.TotalCurrentValue, currency, 2),
			insights.FormatMoney(p.TotalProfitLoss, currency, 2),
			insights.SignedPercent(p.TotalReturnPct))
	}
	tw.AppendFooter(footer)

	configs := make([]table.ColumnConfig, 0, len(header))
	for i := 2; i <= len(header); i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

func renderMarkdown(md, style string) (string, error) {
	styleOpt := glamour.WithStandardStyle(style)
	if style == "" || strings.EqualFold(style, "auto") {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(100))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}

// writeArtifacts writes the optional CSV, workbook and chart outputs.
func (opts *analyzeOptions) writeArtifacts(a *domain.Analysis) error {
	if opts.csvOut != "" {
		if err := exporter.WriteFile(opts.csvOut, func(w io.Writer) error {
			return exporter.WriteHoldingsCSV(w, a, exporter.WriteOptions{})
		}); err != nil {
			return fmt.Errorf("write %s: %w", opts.csvOut, err)
		}
		fmt.Fprintf(opts.out, "holdings written to %s\n", opts.csvOut)
	}

	if opts.xlsxOut != "" {
		if err := exporter.WriteFile(opts.xlsxOut, func(w io.Writer) error {
			return exporter.WriteAnalysisWorkbook(w, a)
		}); err != nil {
			return fmt.Errorf("write %s: %w", opts.xlsxOut, err)
		}
		fmt.Fprintf(opts.out, "workbook written to %s\n", opts.xlsxOut)
	}

	if opts.chartOut != "" {
		png, err := chart.RenderAllocationPie(a.Summary.PieChartData, opts.chartWidth, opts.chartHeight)
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		if err := exporter.WriteFile(opts.chartOut, func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}); err != nil {
			return fmt.Errorf("write %s: %w", opts.chartOut, err)
		}
		fmt.Fprintf(opts.out, "chart written to %s\n", opts.chartOut)
	}
	return nil
}
