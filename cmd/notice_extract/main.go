package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-notice-extractor/internal/config"
	"github.com/a3tai/mcp-notice-extractor/internal/export"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf"
	"github.com/a3tai/mcp-notice-extractor/internal/pdf/extraction"
	"github.com/a3tai/mcp-notice-extractor/internal/textract"
)

// options holds the command line settings
type options struct {
	format      string
	xlsx        string
	concurrency int
	region      string
	endpoint    string
	vocabulary  string
	maxFileSize int64
	verbose     bool
}

// newAnalyzer creates the analysis backend; tests replace it
var newAnalyzer = func(ctx context.Context, opts textract.Options) (extraction.Analyzer, error) {
	client, err := textract.NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseArgs(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}

	fs := pflag.NewFlagSet("notice_extract", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.StringVar(&opts.xlsx, "xlsx", "", "Also write an XLSX report to this file")
	fs.IntVar(&opts.concurrency, "concurrency", 4, "Documents analyzed in parallel")
	fs.StringVar(&opts.region, "region", regionFromEnv(), "AWS region for document analysis")
	fs.StringVar(&opts.endpoint, "endpoint", "", "Custom analysis endpoint URL")
	fs.StringVar(&opts.vocabulary, "vocabulary", "", "JSON vocabulary file (default: built-in notice fields)")
	fs.Int64Var(&opts.maxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum PDF size in bytes")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log analysis passes to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Notice Extract - extract meeting notice fields from single-page PDF forms\n\n")
		fmt.Fprintf(stderr, "USAGE:\n  notice_extract [OPTIONS] <pdf_file>...\n\nOPTIONS:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if opts.format != "text" && opts.format != "json" {
		return nil, nil, fmt.Errorf("unsupported output format: %s", opts.format)
	}
	if opts.concurrency < 1 {
		return nil, nil, fmt.Errorf("concurrency must be at least 1")
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, nil, errors.New("PDF file path required")
	}

	return opts, fs.Args(), nil
}

func regionFromEnv() string {
	for _, key := range []string{"NOTICE_REGION", "AWS_REGION", "AWS_DEFAULT_REGION"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return config.DefaultRegion
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, files, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := newLogger(opts.verbose)
	defer func() { _ = logger.Sync() }()

	vocabulary, err := config.LoadVocabulary(opts.vocabulary)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	analyzer, err := newAnalyzer(ctx, textract.Options{
		Region:   opts.region,
		Endpoint: opts.endpoint,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	rows := extractAll(ctx, extraction.NewExtractor(analyzer, logger), vocabulary,
		pdf.NewValidator(opts.maxFileSize), files, opts.concurrency)

	switch opts.format {
	case "json":
		err = writeJSON(stdout, rows)
	default:
		writeText(stdout, rows)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing results: %v\n", err)
		return 1
	}

	if opts.xlsx != "" {
		if err := writeXLSX(opts.xlsx, vocabulary.FieldNames(), rows); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	for _, row := range rows {
		if row.Err != nil {
			return 1
		}
	}
	return 0
}

// extractAll analyzes files concurrently. A failed document is recorded in
// its row and does not stop the others; rows keep the input order.
func extractAll(ctx context.Context, extractor *extraction.Extractor, vocabulary *extraction.Vocabulary,
	validator *pdf.Validator, files []string, concurrency int,
) []export.Row {
	rows := make([]export.Row, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, file := range files {
		g.Go(func() error {
			rows[i] = export.Row{File: file}

			data, _, err := validator.ReadFile(file)
			if err != nil {
				rows[i].Err = err
				return nil
			}

			result, err := extractor.Extract(gctx, data, vocabulary)
			if err != nil {
				rows[i].Err = err
				return nil
			}
			rows[i].Result = result
			return nil
		})
	}

	_ = g.Wait()
	return rows
}

func writeText(w io.Writer, rows []export.Row) {
	for i, row := range rows {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", filepath.Base(row.File))

		switch {
		case row.Err != nil:
			fmt.Fprintf(w, "  %s\n", describeError(row.Err))
		case row.Result.IsEmpty():
			fmt.Fprintln(w, "  No content was detected in the document.")
		default:
			table := tablewriter.NewWriter(w)
			table.SetHeader([]string{"Field", "Value"})
			table.SetAutoWrapText(false)
			for _, f := range row.Result.Fields {
				table.Append([]string{f.Name, f.Value})
			}
			table.Render()
		}
	}
}

func describeError(err error) string {
	var ae *textract.AnalysisError
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return "invalid document: " + err.Error()
}

type jsonError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type jsonRow struct {
	File   string             `json:"file"`
	Result *extraction.Result `json:"result,omitempty"`
	Error  *jsonError         `json:"error,omitempty"`
}

func writeJSON(w io.Writer, rows []export.Row) error {
	out := make([]jsonRow, len(rows))
	for i, row := range rows {
		out[i] = jsonRow{File: row.File, Result: row.Result}
		if row.Err != nil {
			out[i].Error = &jsonError{Kind: row.Status(), Message: row.Err.Error()}
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func writeXLSX(path string, fields []string, rows []export.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.WriteWorkbook(f, fields, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
