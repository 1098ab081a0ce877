package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"holdlens/internal/exporter"
	"holdlens/internal/services"
)

func newSampleCmd(root *rootOptions) *cobra.Command {
	var (
		outPath  string
		describe bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a sample holdings file or describe the accepted format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if describe {
				enc := json.NewEncoder(root.out)
				enc.SetIndent("", "  ")
				return enc.Encode(services.SampleFormat())
			}
			return writeSample(root.out, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "sample_portfolio.xlsx", "output path; .csv writes delimited text, .xlsx a workbook")
	cmd.Flags().BoolVar(&describe, "describe", false, "print the accepted columns and aliases as JSON instead")

	return cmd
}

func writeSample(out io.Writer, path string) error {
	holdings := services.SamplePortfolio()

	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = func(w io.Writer) error {
			return exporter.WriteSampleCSV(w, holdings, exporter.WriteOptions{})
		}
	case ".xlsx":
		write = func(w io.Writer) error {
			return exporter.WriteSampleWorkbook(w, holdings)
		}
	default:
		return fmt.Errorf("unsupported sample format %q: use .xlsx or .csv", filepath.Ext(path))
	}

	if err := exporter.WriteFile(path, write); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(out, "sample with %d holdings written to %s\n", len(holdings), path)
	return nil
}
