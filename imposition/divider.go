package imposition

// AddDivider inserts two blank copies of the first sheet at every multiple
// of signatureLength/2 in the output sequence, never at its start or end.
// Positions count the blanks already inserted, so with signatureLength 10
// the blanks land at 5, 6, 10, 11, 15, 16 and so on.
// Booklet does not use it: past the first stack these positions fall inside
// a signature, so Booklet places its dividers after each signature instead.
// AddDivider is kept for callers that want the positional layout.
func AddDivider(sheets []Page, signatureLength int, c Composer) ([]Page, error) {
	step := signatureLength / 2
	if step <= 0 {
		return nil, configf("add divider", "signature length must be at least 2, is %d", signatureLength)
	}
	if len(sheets) == 0 {
		return sheets, nil
	}
	blank := c.BlankCopy(sheets[0])
	out := make([]Page, 0, len(sheets)+2*(len(sheets)/step))
	taken := 0
	for pos := step; ; pos += step {
		// copy real sheets until the output reaches pos
		n := min(pos-len(out), len(sheets)-taken)
		if n <= 0 {
			continue
		}
		out = append(out, sheets[taken:taken+n]...)
		taken += n
		if taken == len(sheets) {
			return out, nil
		}
		out = appendCopies(out, blank, 2)
	}
}

// dividerPair returns the two blanks placed between signature stacks.
func dividerPair(reference Page, c Composer) []Page {
	blank := c.BlankCopy(reference)
	return []Page{blank, blank}
}
