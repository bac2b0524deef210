package filters

import (
	"errors"
	"fmt"

	"github.com/wudi/pdfimpose/ir/raw"
)

// applyPredictor undoes the /Predictor transform described by params.
// Predictor 2 is the TIFF horizontal predictor; 10 and above are PNG row filters.
func applyPredictor(data []byte, params *raw.DictObj) ([]byte, error) {
	predictor, ok := params.Int("Predictor")
	if !ok || predictor <= 1 {
		return data, nil
	}
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)
	columns := intParam(params, "Columns", 1)
	if colors < 1 || bpc < 1 || columns < 1 {
		return nil, errors.New("invalid predictor parameters")
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8

	switch {
	case predictor == 2:
		return tiffPredict(data, rowLen, bpp, bpc)
	case predictor >= 10:
		return pngPredict(data, rowLen, bpp)
	}
	return nil, fmt.Errorf("unsupported predictor %d", predictor)
}

func intParam(d *raw.DictObj, key string, def int) int {
	if v, ok := d.Int(key); ok {
		return int(v)
	}
	return def
}

func pngPredict(data []byte, rowLen, bpp int) ([]byte, error) {
	stride := rowLen + 1
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		row := data[r*stride : (r+1)*stride]
		ft, cur := row[0], make([]byte, rowLen)
		copy(cur, row[1:])
		for i := 0; i < rowLen; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch ft {
			case 0:
			case 1:
				cur[i] += left
			case 2:
				cur[i] += up
			case 3:
				cur[i] += byte((int(left) + int(up)) / 2)
			case 4:
				cur[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown png filter type %d", ft)
			}
		}
		out = append(out, cur...)
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func tiffPredict(data []byte, rowLen, bpp, bpc int) ([]byte, error) {
	if bpc != 8 {
		return nil, fmt.Errorf("tiff predictor with %d bits per component", bpc)
	}
	out := append([]byte(nil), data...)
	for start := 0; start+rowLen <= len(out); start += rowLen {
		row := out[start : start+rowLen]
		for i := bpp; i < rowLen; i++ {
			row[i] += row[i-bpp]
		}
	}
	return out, nil
}
