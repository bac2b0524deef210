// Command impositioner rearranges the pages of a PDF for booklet printing:
// print the output double sided, fold every sheet and stack the signatures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/observability"
	"github.com/wudi/pdfimpose/pdfdoc"
	"github.com/wudi/pdfimpose/plan"
	"github.com/wudi/pdfimpose/preview"
	"github.com/wudi/pdfimpose/report"
)

var version = "0.3.0"

type options struct {
	input   string
	output  string
	preview string
	report  string
	verbose bool
	booklet imposition.Options

	listFormats bool
	showVersion bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 2 for usage and configuration errors,
// 1 when imposing fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "impositioner: %v\n", err)
		return 2
	}
	switch {
	case opts.showVersion:
		fmt.Fprintf(stdout, "impositioner %s\n", version)
		return 0
	case opts.listFormats:
		for _, f := range imposition.Formats() {
			fmt.Fprintf(stdout, "%-10s %4g x %4g pt\n", f.DisplayName(), f.Width, f.Height)
		}
		return 0
	}

	if err := impose(ctx, opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "impositioner: %v\n", err)
		if errors.Is(err, imposition.ErrConfiguration) {
			return 2
		}
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("impositioner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: impositioner [flags] <pdf>\n")
		fs.PrintDefaults()
	}
	nup := fs.Int("n", 2, "Pages per sheet side, a power of two")
	format := fs.String("f", "", "Output paper format: a standard format (A4, letter, ...) or WIDTHxHEIGHT (default: no resize)")
	unit := fs.String("u", "mm", "Unit of a custom -f format: mm, cm or inch")
	binding := fs.String("b", "left", "Side of binding: left, top, right or bottom")
	center := fs.Bool("c", false, "Center each page when resizing (requires -f)")
	signature := fs.Int("s", -1, "Signature length, a multiple of 4. 0 disables signatures (default: auto)")
	divider := fs.Bool("d", false, "Insert blank sheets between signatures")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.StringVar(&opts.output, "o", "", "Output file (default: booklet.<name> next to the input)")
	fs.StringVar(&opts.preview, "preview", "", "Write a PNG sheet map to this file")
	fs.StringVar(&opts.report, "report", "", "Write a report to this file, HTML when it ends in .html")
	fs.BoolVar(&opts.listFormats, "formats", false, "List standard paper formats and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.listFormats || opts.showVersion {
		return opts, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("expected exactly one pdf file")
	}
	opts.input = fs.Arg(0)
	if opts.output == "" {
		opts.output = outputName(opts.input)
	}

	u, err := imposition.ParseUnit(*unit)
	if err != nil {
		return opts, err
	}
	paper, err := imposition.ParsePaperSize(*format, u)
	if err != nil {
		return opts, err
	}
	edge, err := imposition.ParseEdge(*binding)
	if err != nil {
		return opts, err
	}
	opts.booklet = imposition.Options{
		PagesPerSheet:   *nup,
		PaperSize:       paper,
		CenterSubPage:   *center,
		Edge:            edge,
		SignatureLength: signatureLength(*signature),
		Divider:         *divider,
	}
	if opts.booklet.CenterSubPage && paper == nil {
		// -c without -f has nothing to center on
		opts.booklet.CenterSubPage = false
	}
	return opts, opts.booklet.Validate()
}

// signatureLength maps the -s flag, where 0 disables signatures and a
// negative value asks for the automatic length, to imposition.Options.
func signatureLength(flagValue int) int {
	switch {
	case flagValue == 0:
		return -1
	case flagValue < 0:
		return 0
	}
	return flagValue
}

func outputName(input string) string {
	return filepath.Join(filepath.Dir(input), "booklet."+filepath.Base(input))
}

func impose(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewSlogLogger(stderr, level)
	opts.booklet.Logger = logger

	doc, err := pdfdoc.OpenFile(ctx, opts.input, pdfdoc.OpenOptions{Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.input, err)
	}
	res, err := imposition.Booklet(ctx, doc.ImpositionPages(), opts.booklet, pdfdoc.Composer{})
	if err != nil {
		return err
	}
	err = writeFile(opts.output, func(w io.Writer) error {
		return pdfdoc.Write(ctx, w, res.Sheets, pdfdoc.WriteOptions{Info: doc.Info(), Logger: logger})
	})
	if err != nil {
		return err
	}

	if opts.preview != "" || opts.report != "" {
		quiet := opts.booklet
		quiet.Logger = observability.NopLogger{}
		planned, err := imposition.Booklet(ctx, plan.Numbered(doc.ImpositionPages()), quiet, plan.Composer{})
		if err != nil {
			return err
		}
		if err := writeExtras(opts, planned); err != nil {
			return err
		}
	}

	if opts.verbose {
		printSummary(stdout, res)
	}
	fmt.Fprintf(stdout, "Imposed PDF file saved to %s\n", opts.output)
	return nil
}

func writeExtras(opts options, planned imposition.Result) error {
	if opts.preview != "" {
		err := writeFile(opts.preview, func(w io.Writer) error {
			return preview.WritePNG(w, planned.Sheets, preview.Options{})
		})
		if err != nil {
			return err
		}
	}
	if opts.report == "" {
		return nil
	}
	r := report.New(planned, planned.Sheets, opts.booklet)
	r.Source = filepath.Base(opts.input)
	r.Output = filepath.Base(opts.output)
	out := r.Markdown()
	if strings.EqualFold(filepath.Ext(opts.report), ".html") {
		html, err := r.HTML()
		if err != nil {
			return err
		}
		out = html
	}
	return writeFile(opts.report, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	})
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printSummary(w io.Writer, res imposition.Result) {
	for _, line := range wrap("Standard paper formats: "+strings.Join(imposition.FormatNames(), ", "), 80) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Total input page:  %3d\n", res.InputPages)
	fmt.Fprintf(w, "Total output page: %3d\n", len(res.Sheets))
	fmt.Fprintf(w, "Input size:        %gx%g\n", res.InputSize.Width, res.InputSize.Height)
	fmt.Fprintf(w, "Output size:       %gx%g\n", res.OutputSize.Width, res.OutputSize.Height)
	fmt.Fprintf(w, "Signature length:  %3d\n", res.SignatureLength)
	fmt.Fprintf(w, "Signature count:   %3d\n", res.SignatureCount)
	fmt.Fprintf(w, "Divider pages:     %3d\n", res.DividerPages)
}

// wrap breaks text at spaces into lines of at most width runes.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
