// Command pdfsampler writes a sample PDF with numbered pages of a standard
// paper format, handy for checking imposed output by eye.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/pdfdoc"
)

type options struct {
	pages     int
	format    imposition.PaperFormat
	landscape bool
	bbox      bool
	dir       string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "pdfsampler: %v\n", err)
		return 2
	}
	path, err := writeSample(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "pdfsampler: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Created %s\n", path)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfsampler", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfsampler [flags] <pages> <format>\n")
		fs.PrintDefaults()
	}
	fs.BoolVar(&opts.landscape, "l", false, "Landscape pages (default: portrait)")
	fs.BoolVar(&opts.bbox, "b", false, "Outline every page")
	fs.StringVar(&opts.dir, "o", ".", "Output directory")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return opts, errors.New("expected page count and paper format")
	}
	n, err := strconv.Atoi(fs.Arg(0))
	if err != nil || n <= 0 {
		return opts, fmt.Errorf("page count %q must be a positive number", fs.Arg(0))
	}
	opts.pages = n
	f, ok := imposition.LookupFormat(fs.Arg(1))
	if !ok {
		return opts, fmt.Errorf("unknown paper format %q, must be one of %s",
			fs.Arg(1), strings.Join(imposition.FormatNames(), ", "))
	}
	opts.format = f
	return opts, nil
}

// fileName follows the <format>_<pages>_<P|L>.pdf pattern.
func fileName(opts options) string {
	orientation := "P"
	if opts.landscape {
		orientation = "L"
	}
	return fmt.Sprintf("%s_%d_%s.pdf", opts.format.Name, opts.pages, orientation)
}

func writeSample(ctx context.Context, opts options) (string, error) {
	size := opts.format.Size()
	if opts.landscape {
		size = size.Swap()
	}
	path := filepath.Join(opts.dir, fileName(opts))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = pdfdoc.Sample(ctx, f, pdfdoc.SampleOptions{
		Pages: opts.pages,
		Size:  size,
		Label: opts.format.Name,
		BBox:  opts.bbox,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
