package imposition

import (
	"math"

	"github.com/wudi/pdfimpose/coords"
)

// MediaBoxSize returns the visible size of the first page with its box
// dimensions truncated to whole points. The rotation is only recorded on the
// page at this stage, so 90 and 270 degrees swap the dimensions.
func MediaBoxSize(pages []Page) (coords.Size, error) {
	if len(pages) == 0 {
		return coords.Size{}, preconditionf("media box size", "no pages")
	}
	s := pages[0].Size()
	s = coords.Size{Width: math.Trunc(s.Width), Height: math.Trunc(s.Height)}
	return coords.Rotated(s, pages[0].Rotation()), nil
}

// Margins returns the uniform scale fitting current into target and the
// margins that center the scaled content. Margins are rounded half to even.
func Margins(target, current coords.Size) (scale, dx, dy float64, err error) {
	if current.Width == 0 || current.Height == 0 {
		return 0, 0, 0, arithf("margins", "current size %gx%g has a zero dimension", current.Width, current.Height)
	}
	scale = math.Min(target.Width/current.Width, target.Height/current.Height)
	dx = math.RoundToEven(0.5 * (target.Width - scale*current.Width))
	dy = math.RoundToEven(0.5 * (target.Height - scale*current.Height))
	return scale, dx, dy, nil
}

// Resize scales every page uniformly onto a page of the target size and
// centers it. The size of the first page decides the scale for all. When
// target and pages disagree in orientation, target is turned to match.
func Resize(pages []Page, target coords.Size, c Composer) ([]Page, error) {
	if target.Width == 0 || target.Height == 0 {
		return nil, arithf("resize", "target size %gx%g has a zero dimension", target.Width, target.Height)
	}
	if len(pages) == 0 {
		return pages, nil
	}
	current, err := MediaBoxSize(pages)
	if err != nil {
		return nil, err
	}
	if current.Width == 0 || current.Height == 0 {
		return nil, arithf("resize", "page size %gx%g has a zero dimension", current.Width, current.Height)
	}
	if (target.Width/target.Height > 1) != (current.Width/current.Height > 1) {
		target = target.Swap()
	}
	scale, dx, dy, err := Margins(target, current)
	if err != nil {
		return nil, err
	}
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = c.Transform(p, scale, dx, dy, target)
	}
	return out, nil
}

// ScaledSubPageSize returns the size each input page must have so that the
// folded sheet of pagesPerSheet pages exactly fills paper.
func ScaledSubPageSize(pagesPerSheet int, paper coords.Size) (coords.Size, error) {
	if err := ValidatePagesPerSheet(pagesPerSheet); err != nil {
		return coords.Size{}, err
	}
	if pagesPerSheet == 2 {
		return coords.Size{
			Width:  math.RoundToEven(paper.Height / 2),
			Height: math.RoundToEven(paper.Width),
		}, nil
	}
	square := math.Sqrt(float64(pagesPerSheet))
	if square == math.Trunc(square) {
		return coords.Size{
			Width:  math.RoundToEven(paper.Width / square),
			Height: math.RoundToEven(paper.Height / square),
		}, nil
	}
	columns := math.Floor(square)
	columns -= math.Mod(columns, 2)
	rows := float64(pagesPerSheet) / columns
	return coords.Size{
		Width:  math.RoundToEven(paper.Width / columns),
		Height: math.RoundToEven(paper.Height / rows),
	}, nil
}
