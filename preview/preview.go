// Package preview draws a sheet map of an imposed booklet as a PNG: every
// output side with the page numbers it carries.
package preview

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/imposition"
	"github.com/wudi/pdfimpose/plan"
)

// Options control the rendering.
type Options struct {
	// SheetHeight is the pixel height of every sheet. Zero means 240.
	SheetHeight int
	// Columns is the number of sides per row. Zero means 2, so front and
	// back of a sheet share a row.
	Columns int
}

const (
	defaultSheetHeight = 240
	gap                = 16
	markerSize         = 4
)

var (
	background = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	paper      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	outline    = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	blankFill  = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	marker     = color.RGBA{R: 0xd0, G: 0x20, B: 0xd0, A: 0xff}
)

// Render draws the sheets produced with plan.Composer.
func Render(sheets []imposition.Page, opts Options) (*image.RGBA, error) {
	if len(sheets) == 0 {
		return nil, errors.New("preview: no sheets")
	}
	height := opts.SheetHeight
	if height <= 0 {
		height = defaultSheetHeight
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = 2
	}
	cols = min(cols, len(sheets))

	scale, width := sheetScale(sheets, float64(height))
	rows := (len(sheets) + cols - 1) / cols
	img := image.NewRGBA(image.Rect(0, 0, gap+cols*(width+gap), gap+rows*(height+gap)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	for i, s := range sheets {
		origin := image.Pt(gap+(i%cols)*(width+gap), gap+(i/cols)*(height+gap))
		drawSheet(img, s, origin, scale, height)
	}
	return img, nil
}

// WritePNG renders the sheets and encodes them as PNG.
func WritePNG(w io.Writer, sheets []imposition.Page, opts Options) error {
	img, err := Render(sheets, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// sheetScale fits the tallest sheet into height pixels and returns the cell
// width needed for the widest one.
func sheetScale(sheets []imposition.Page, height float64) (float64, int) {
	var maxW, maxH float64
	for _, s := range sheets {
		d := plan.DisplaySize(s)
		maxW, maxH = math.Max(maxW, d.Width), math.Max(maxH, d.Height)
	}
	if maxH == 0 {
		return 1, int(height)
	}
	scale := height / maxH
	return scale, int(math.Ceil(maxW * scale))
}

func drawSheet(img *image.RGBA, sheet imposition.Page, origin image.Point, scale float64, height int) {
	d := plan.DisplaySize(sheet)
	toPixels := func(r coords.Rect) image.Rectangle {
		// PDF space grows upwards, image space downwards
		return image.Rect(
			origin.X+int(math.Round(r.LLX*scale)),
			origin.Y+height-int(math.Round(r.URY*scale)),
			origin.X+int(math.Round(r.URX*scale)),
			origin.Y+height-int(math.Round(r.LLY*scale)),
		)
	}
	toPoint := func(p coords.Point) image.Point {
		return image.Pt(origin.X+int(math.Round(p.X*scale)), origin.Y+height-int(math.Round(p.Y*scale)))
	}

	sheetRect := toPixels(coords.RectOf(d))
	draw.Draw(img, sheetRect, &image.Uniform{C: paper}, image.Point{}, draw.Src)
	for _, leaf := range plan.Leaves(sheet) {
		r := toPixels(leaf.Bounds).Intersect(sheetRect)
		if leaf.Number == 0 {
			draw.Draw(img, r.Inset(1), &image.Uniform{C: blankFill}, image.Point{}, draw.Src)
		}
		strokeRect(img, r, outline)
		top := toPoint(leaf.Top)
		m := image.Rect(top.X-markerSize, top.Y-markerSize, top.X+markerSize, top.Y+markerSize).Intersect(r)
		draw.Draw(img, m, &image.Uniform{C: marker}, image.Point{}, draw.Src)
		if leaf.Number > 0 {
			drawLabel(img, strconv.Itoa(leaf.Number), r)
		}
	}
	strokeRect(img, sheetRect, outline)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawLabel centers text in r.
func drawLabel(img *image.RGBA, text string, r image.Rectangle) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	w := d.MeasureString(text).Ceil()
	center := r.Min.Add(r.Max).Div(2)
	d.Dot = fixed.P(center.X-w/2, center.Y+face.Ascent/2)
	d.DrawString(text)
}
