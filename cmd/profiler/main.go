// Command profiler profiles a CSV file from the command line, producing the
// same report the web service serves, written to a file or stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"datalens/internal/dataset"
	"datalens/internal/exporter"
	"datalens/internal/profile"
)

func main() {
	var (
		inPath      = flag.String("in", "", "path to the CSV file to profile (required)")
		outPath     = flag.String("out", "", "output path (default: stdout)")
		format      = flag.String("format", "csv", "output format: csv, xlsx or json")
		matrixRows  = flag.Int("matrix-rows", 500, "maximum rows in the missing-value matrix")
		noCorr      = flag.Bool("no-correlations", false, "skip the correlation matrix")
		bom         = flag.Bool("bom", false, "prefix CSV output with a UTF-8 BOM for Excel")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("profiler 1.0.0")
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *inPath == "" {
		logger.Error("missing required flag", "flag", "-in")
		flag.Usage()
		os.Exit(1)
	}

	outFormat, err := exporter.ParseFormat(*format)
	if err != nil {
		logger.Error("invalid format", "format", *format, "error", err)
		os.Exit(1)
	}

	if err := run(logger, *inPath, *outPath, outFormat, *matrixRows, *noCorr, *bom); err != nil {
		logger.Error("profiling failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, inPath, outPath string, format exporter.Format, matrixRows int, noCorr, bom bool) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}

	start := time.Now()
	ds, err := dataset.ParseCSV(f, filepath.Base(inPath), info.Size())
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", inPath, err)
	}

	logger.Info("dataset parsed",
		"file", inPath,
		"rows", ds.Rows(),
		"columns", ds.Cols(),
		"duration", time.Since(start).String())

	report, err := profile.BuildReport(context.Background(), ds, profile.Options{
		MaxMatrixRows:    matrixRows,
		SkipCorrelations: noCorr,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	logger.Info("report computed",
		"numeric_columns", len(report.Numeric),
		"duration", report.ComputeDur.String())

	var out io.Writer = os.Stdout
	if outPath != "" {
		dst, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer dst.Close()
		out = dst
	}

	switch format {
	case exporter.FormatXLSX:
		err = exporter.WriteReportXLSX(out, report)
	case exporter.FormatJSON:
		err = exporter.WriteReportJSON(out, report)
	default:
		err = exporter.WriteReportCSV(out, report, exporter.CSVOptions{BOMPrefix: bom})
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if outPath != "" {
		logger.Info("report written", "path", outPath, "format", string(format))
	}
	return nil
}
