package imposition

import (
	"context"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/observability"
)

// Options configure a booklet run.
type Options struct {
	// PagesPerSheet is the number of pages on one side of a sheet, a power
	// of two from 2 upwards. Zero means 2.
	PagesPerSheet int
	// PaperSize resizes the output sheets when set.
	PaperSize *coords.Size
	// CenterSubPage scales every page to its share of PaperSize before
	// folding instead of scaling the folded sheets only.
	CenterSubPage bool
	Edge          Edge
	// SignatureLength is the number of pages per signature. Zero picks one
	// automatically, a negative value puts all pages in one signature.
	SignatureLength int
	// Divider inserts two blank pages between signature stacks.
	Divider bool

	Logger observability.Logger
	Tracer observability.Tracer
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.PagesPerSheet == 0 {
		o.PagesPerSheet = 2
	}
	if err := ValidatePagesPerSheet(o.PagesPerSheet); err != nil {
		return err
	}
	if _, err := ValidateSignatureLength(o.SignatureLength); err != nil {
		return err
	}
	if o.Edge < EdgeLeft || o.Edge > EdgeBottom {
		return configf("options", "unknown binding edge %d", int(o.Edge))
	}
	if o.PaperSize != nil && (o.PaperSize.Width <= 0 || o.PaperSize.Height <= 0) {
		return configf("options", "paper size %gx%g must be positive", o.PaperSize.Width, o.PaperSize.Height)
	}
	if o.CenterSubPage && o.PaperSize == nil {
		return configf("options", "centering sub pages needs a paper size")
	}
	if o.Logger == nil {
		o.Logger = observability.NopLogger{}
	}
	if o.Tracer == nil {
		o.Tracer = observability.NopTracer()
	}
	return nil
}

// Result is the imposed output and the numbers behind it.
type Result struct {
	Sheets          []Page
	InputPages      int
	SignatureLength int
	SignatureCount  int
	// BlankPages counts the pages added to fill the last signature.
	BlankPages   int
	DividerPages int
	// Sizes are as displayed, after page rotation.
	InputSize  coords.Size
	OutputSize coords.Size
}

// Booklet imposes pages for booklet printing. Pages are padded to whole
// signatures, each signature is folded into sheets, and the sheets are
// optionally separated by dividers and resized to the paper size.
func Booklet(ctx context.Context, pages []Page, opts Options, c Composer) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	_, span := opts.Tracer.StartSpan(ctx, observability.SpanImpose)
	defer span.Finish()

	res, err := booklet(pages, opts, c)
	if err != nil {
		span.SetError(err)
		return Result{}, err
	}
	span.SetTag("signatures", res.SignatureCount)
	span.SetTag("sheets", len(res.Sheets))
	return res, nil
}

func booklet(pages []Page, opts Options, c Composer) (Result, error) {
	if len(pages) == 0 {
		return Result{}, preconditionf("booklet", "document has no pages")
	}
	log := opts.Logger
	res := Result{InputPages: len(pages), InputSize: VisibleSize(pages[0])}

	res.SignatureLength = signatureLengthFor(len(pages), opts.SignatureLength)
	res.SignatureCount = (len(pages) + res.SignatureLength - 1) / res.SignatureLength
	res.BlankPages = res.SignatureLength*res.SignatureCount - len(pages)

	padded := make([]Page, 0, len(pages)+res.BlankPages)
	padded = append(padded, pages...)
	if res.BlankPages > 0 {
		padded = appendCopies(padded, c.BlankCopy(pages[0]), res.BlankPages)
	}

	var subPage coords.Size
	if opts.CenterSubPage {
		var err error
		if subPage, err = ScaledSubPageSize(opts.PagesPerSheet, *opts.PaperSize); err != nil {
			return Result{}, err
		}
	}

	signatures, err := CutInSignatures(padded, res.SignatureLength)
	if err != nil {
		return Result{}, err
	}
	var out []Page
	for i, sig := range signatures {
		sig = AddBlanks(ReverseSecondHalf(sig), opts.PagesPerSheet, c)
		if opts.CenterSubPage {
			if sig, err = Resize(sig, subPage, c); err != nil {
				return Result{}, err
			}
		}
		sheets, err := Impose(sig, opts.PagesPerSheet, opts.Edge, c)
		if err != nil {
			return Result{}, err
		}
		log.Debug("signature imposed",
			observability.Int("signature", i+1),
			observability.Int("pages", len(sig)),
			observability.Int("sheets", len(sheets)))
		out = append(out, sheets...)
		if opts.Divider && i < len(signatures)-1 {
			out = append(out, dividerPair(out[0], c)...)
			res.DividerPages += 2
		}
	}

	if opts.PaperSize != nil {
		if out, err = Resize(out, *opts.PaperSize, c); err != nil {
			return Result{}, err
		}
	}
	res.Sheets = out
	if len(out) > 0 {
		res.OutputSize = VisibleSize(out[0])
	}
	log.Info("booklet imposed",
		observability.Int("input_pages", res.InputPages),
		observability.Int("output_pages", len(out)),
		observability.Int("signature_length", res.SignatureLength),
		observability.Int("signatures", res.SignatureCount))
	return res, nil
}

// signatureLengthFor resolves the configured signature length for a
// document of pageCount pages.
func signatureLengthFor(pageCount, configured int) int {
	switch {
	case configured > 0:
		return configured
	case configured < 0:
		pad, _ := ReverseRemainder(pageCount, 4)
		return pageCount + pad
	}
	return SignatureLength(pageCount)
}
