package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdlens/internal/config"
	"holdlens/internal/insights"
	"holdlens/internal/shared/testutil"
)

type stubGenerator struct{ text string }

func (g stubGenerator) Generate(context.Context, string) (string, error) { return g.text, nil }

var holdingsCSV = [][]string{
	{"symbol", "quantity", "purchase_price", "current_price"},
	{"AAPL", "10", "150", "175"},
	{"GOOGL", "5", "2800", "2950"},
}

func writeHoldings(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testutil.CSVBytes(t, holdingsCSV), 0o644))
	return path
}

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, generator insights.Generator, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	opts := &rootOptions{
		out:    &out,
		errOut: &errOut,
		newGenerator: func(context.Context, config.AIConfig, *slog.Logger) (insights.Generator, error) {
			return generator, nil
		},
	}
	if generator == nil {
		opts.newGenerator = geminiGenerator
	}

	cmd := newRootCmdWithOptions(opts)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeTable(t *testing.T) {
	path := writeHoldings(t, t.TempDir(), "holdings.csv")

	out, err := execute(t, nil, "analyze", "--currency", "USD", path)
	require.NoError(t, err)

	assert.Contains(t, out, "holdings.csv")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "GOOGL")
	assert.Contains(t, out, "$1,500.00")
	assert.Contains(t, out, "$15,500.00")
	assert.Contains(t, out, "+16.67%")
	assert.NotContains(t, out, "rows skipped")
}

func TestAnalyzeJSON(t *testing.T) {
	path := writeHoldings(t, t.TempDir(), "holdings.csv")

	out, err := execute(t, nil, "analyze", "--json", path)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(15500), summary["total_invested"])
	assert.Equal(t, "holdings.csv", body["filename"])
	assert.NotContains(t, body, "ai_insights")
}

func TestAnalyzeReportsDroppedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messy.csv")
	require.NoError(t, os.WriteFile(path, testutil.CSVBytes(t, [][]string{
		{"Symbol", "Qty", "Avg. price"},
		{"INFY", "20", "1500"},
		{"", "3", "100"},
		{"TCS", "n/a", "3500"},
	}), 0o644))

	out, err := execute(t, nil, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows skipped (empty symbol: 1, unreadable number: 1)")
}

func TestAnalyzeBrokerWorkbook(t *testing.T) {
	path := testutil.WriteWorkbook(t, t.TempDir(), "statement.xlsx",
		testutil.Sheet{Name: "Holdings", Rows: testutil.BrokerExportRows()})

	out, err := execute(t, nil, "analyze", "--json", path)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	assert.Equal(t, float64(38005), body["summary"].(map[string]any)["total_invested"])
	assert.Equal(t, float64(1), body["dropped_rows"])
}

func TestAnalyzeMultipleFilesWithFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeHoldings(t, dir, "good.csv")
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, testutil.CSVBytes(t, [][]string{
		{"name", "count"},
		{"AAPL", "10"},
	}), 0o644))

	out, err := execute(t, nil, "analyze", "--json", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files could not be analyzed")

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 2)
	assert.Equal(t, good, results[0]["file"])
	assert.NotNil(t, results[0]["analysis"])
	assert.Equal(t, bad, results[1]["file"])
	assert.NotEmpty(t, results[1]["error"])
}

func TestAnalyzeDirectory(t *testing.T) {
	dir := t.TempDir()
	writeHoldings(t, dir, "a.csv")
	writeHoldings(t, dir, "b.csv")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644))

	out, err := execute(t, nil, "analyze", "--json", dir)
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "a.csv"), results[0]["file"])
	assert.Equal(t, filepath.Join(dir, "b.csv"), results[1]["file"])
}

func TestAnalyzeRejectsOversizedFile(t *testing.T) {
	path := writeHoldings(t, t.TempDir(), "holdings.csv")

	out, err := execute(t, nil, "analyze", "--max-bytes", "16", path)
	require.Error(t, err)
	assert.Contains(t, out, "the limit is 16")
}

func TestAnalyzeUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	out, err := execute(t, nil, "analyze", path)
	require.Error(t, err)
	assert.Contains(t, out, "notes.txt")
}

func TestAnalyzeWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeHoldings(t, dir, "holdings.csv")
	csvOut := filepath.Join(dir, "out", "holdings.csv")
	xlsxOut := filepath.Join(dir, "out", "holdings.xlsx")
	chartOut := filepath.Join(dir, "out", "allocation.png")

	_, err := execute(t, nil, "analyze", "--csv", csvOut, "--xlsx", xlsxOut, "--chart", chartOut, path)
	require.NoError(t, err)

	exported, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "AAPL,10,150.00,1500.00,9.68,175.00,1750.00,250.00,16.67")

	workbook, err := os.Stat(xlsxOut)
	require.NoError(t, err)
	assert.Positive(t, workbook.Size())

	png, err := os.ReadFile(chartOut)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestAnalyzeArtifactsNeedSingleFile(t *testing.T) {
	dir := t.TempDir()
	a := writeHoldings(t, dir, "a.csv")
	b := writeHoldings(t, dir, "b.csv")

	_, err := execute(t, nil, "analyze", "--csv", filepath.Join(dir, "out.csv"), a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one input file")
}

func TestAnalyzeWithInsights(t *testing.T) {
	path := writeHoldings(t, t.TempDir(), "holdings.csv")

	out, err := execute(t, stubGenerator{text: "Heavy in GOOGL."}, "analyze", "--insights", "--style", "notty", path)
	require.NoError(t, err)
	assert.Contains(t, out, "AI insights")
	assert.Contains(t, out, "Heavy in GOOGL.")

	out, err = execute(t, stubGenerator{text: "Heavy in GOOGL."}, "analyze", "--insights", "--json", path)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	assert.Equal(t, "Heavy in GOOGL.", body["ai_insights"])
}

func TestAnalyzeInsightsNeedAPIKey(t *testing.T) {
	t.Setenv(config.EnvPrefix+"_AI_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	path := writeHoldings(t, t.TempDir(), "holdings.csv")

	_, err := execute(t, nil, "analyze", "--insights", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestSampleCommand(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "sample.csv")
	out, err := execute(t, nil, "sample", "--out", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "sample with 10 holdings")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("symbol,quantity,purchase_price,current_price")), string(data))

	xlsxPath := filepath.Join(dir, "sample.xlsx")
	_, err = execute(t, nil, "sample", "-o", xlsxPath)
	require.NoError(t, err)

	// The written sample must analyze cleanly.
	out, err = execute(t, nil, "analyze", "--json", xlsxPath)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	assert.Equal(t, float64(77050), body["summary"].(map[string]any)["total_invested"])

	_, err = execute(t, nil, "sample", "--out", filepath.Join(dir, "sample.txt"))
	require.Error(t, err)
}

func TestSampleDescribe(t *testing.T) {
	out, err := execute(t, nil, "sample", "--describe")
	require.NoError(t, err)

	var format map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &format), out)
	assert.Equal(t, []any{"symbol", "quantity", "purchase_price"}, format["required_columns"])
}
