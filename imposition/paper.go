package imposition

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wudi/pdfimpose/coords"
)

// PaperFormat is a named sheet size in points, portrait.
type PaperFormat struct {
	Name   string
	Width  float64 // in `pt` (1" = 72pts)
	Height float64 // in `pt`
}

func (f PaperFormat) Size() coords.Size { return coords.Size{Width: f.Width, Height: f.Height} }

// DisplayName is the name as printed in listings, e.g. "A4" or "Letter".
func (f PaperFormat) DisplayName() string {
	return cases.Title(language.English).String(f.Name)
}

var paperFormats = map[string]PaperFormat{
	"a0":        {Name: "a0", Width: 2384, Height: 3371},
	"a1":        {Name: "a1", Width: 1685, Height: 2384},
	"a2":        {Name: "a2", Width: 1190, Height: 1684},
	"a3":        {Name: "a3", Width: 842, Height: 1190},
	"a4":        {Name: "a4", Width: 595, Height: 842},
	"a5":        {Name: "a5", Width: 420, Height: 595},
	"a6":        {Name: "a6", Width: 298, Height: 420},
	"a7":        {Name: "a7", Width: 210, Height: 298},
	"a8":        {Name: "a8", Width: 148, Height: 210},
	"b4":        {Name: "b4", Width: 729, Height: 1032},
	"b5":        {Name: "b5", Width: 516, Height: 729},
	"letter":    {Name: "letter", Width: 612, Height: 792},
	"legal":     {Name: "legal", Width: 612, Height: 1008},
	"ledger":    {Name: "ledger", Width: 1224, Height: 792},
	"tabloid":   {Name: "tabloid", Width: 792, Height: 1224},
	"executive": {Name: "executive", Width: 540, Height: 720},
}

// LookupFormat finds a named format, ignoring case.
func LookupFormat(name string) (PaperFormat, bool) {
	f, ok := paperFormats[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Formats returns all named formats sorted by name.
func Formats() []PaperFormat {
	out := make([]PaperFormat, 0, len(paperFormats))
	for _, f := range paperFormats {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b PaperFormat) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// FormatNames returns the sorted lower case format names.
func FormatNames() []string {
	formats := Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	return names
}

// Unit is a length unit for custom paper sizes.
type Unit int

const (
	Millimeter Unit = iota
	Centimeter
	Inch
)

var units = [...]struct {
	name   string
	points float64
}{
	Millimeter: {"mm", 2.834},
	Centimeter: {"cm", 28.34},
	Inch:       {"inch", 72},
}

func (u Unit) String() string {
	if u < 0 || int(u) >= len(units) {
		return "unknown"
	}
	return units[u].name
}

// Points is the number of points in one unit.
func (u Unit) Points() float64 {
	if u < 0 || int(u) >= len(units) {
		return 0
	}
	return units[u].points
}

// ParseUnit accepts mm, cm and inch.
func ParseUnit(s string) (Unit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, u := range units {
		if u.name == name {
			return Unit(i), nil
		}
	}
	return 0, configf("unit", "unknown unit %q, want mm, cm or inch", s)
}

var customSize = regexp.MustCompile(`(?i)^([0-9]*\.?[0-9]+)x([0-9]*\.?[0-9]+)$`)

// ParsePaperSize turns a format name or a WIDTHxHEIGHT expression in unit
// into a size in whole points. An empty expression yields nil, meaning the
// output is not resized.
func ParsePaperSize(expr string, unit Unit) (*coords.Size, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	if f, ok := LookupFormat(expr); ok {
		s := f.Size()
		return &s, nil
	}
	m := customSize.FindStringSubmatch(expr)
	if m == nil {
		return nil, configf("paper size", "unknown paper format %q, must be WIDTHxHEIGHT (e.g. 4.3x11) or one of %s",
			expr, strings.Join(FormatNames(), ", "))
	}
	factor := unit.Points()
	if factor == 0 {
		return nil, configf("paper size", "unknown unit %d", int(unit))
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, configf("paper size", "width %q: %v", m[1], err)
	}
	h, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, configf("paper size", "height %q: %v", m[2], err)
	}
	s := coords.Size{Width: math.RoundToEven(factor * w), Height: math.RoundToEven(factor * h)}
	if s.Width == 0 || s.Height == 0 {
		return nil, configf("paper size", "%q is smaller than a point", expr)
	}
	return &s, nil
}
