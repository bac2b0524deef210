package imposition

// Impose folds pages into sheets holding pagesPerSheet pages each. Every
// level of the fold merges pairs of pages into sheets and halves the pages
// per sheet until one remains. len(pages) must be a multiple of
// 2*pagesPerSheet, which AddBlanks guarantees.
func Impose(pages []Page, pagesPerSheet int, edge Edge, c Composer) ([]Page, error) {
	if pagesPerSheet < 1 || !isPowerOfTwo(pagesPerSheet) {
		return nil, configf("impose", "pages per sheet must be a power of 2, is %d", pagesPerSheet)
	}
	if pagesPerSheet > 1 && len(pages)%(2*pagesPerSheet) != 0 {
		return nil, preconditionf("impose", "%d pages cannot be folded %d per sheet", len(pages), pagesPerSheet)
	}
	for ; pagesPerSheet > 1; pagesPerSheet /= 2 {
		rotation := 270
		if foldLevel(pagesPerSheet)%2 == 1 {
			rotation = 90
		}
		sheets, err := foldOnce(pages, rotation, edge, c)
		if err != nil {
			return nil, err
		}
		pages = sheets
	}
	return pages, nil
}

// foldOnce pairs the first half of pages with the second half. The second
// half is expected in reverse reading order.
func foldOnce(pages []Page, rotation int, edge Edge, c Composer) ([]Page, error) {
	half := len(pages) / 2
	back := (rotation + 180) % 360
	sheets := make([]Page, 0, half)
	for i := 0; i < half; i += 2 {
		front, err := merge(pages[half+i], pages[i], rotation, edge, c)
		if err != nil {
			return nil, err
		}
		rear, err := merge(pages[i+1], pages[half+i+1], back, edge, c)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, front, rear)
	}
	return sheets, nil
}

func merge(first, second Page, rotation int, edge Edge, c Composer) (Page, error) {
	pl, err := Place(first, second, rotation, edge)
	if err != nil {
		return nil, err
	}
	return c.Merge(first, second, pl), nil
}
