package imposition

// CutInSignatures splits items into consecutive chunks of length. The last
// chunk is shorter when len(items) is not a multiple of length.
func CutInSignatures[T any](items []T, length int) ([][]T, error) {
	if length <= 0 {
		return nil, configf("cut in signatures", "length must be positive, is %d", length)
	}
	out := make([][]T, 0, (len(items)+length-1)/length)
	for i := 0; i < len(items); i += length {
		end := min(i+length, len(items))
		chunk := make([]T, end-i)
		copy(chunk, items[i:end])
		out = append(out, chunk)
	}
	return out, nil
}

// ReverseSecondHalf returns a copy of sig whose second half is reversed.
// For odd lengths the middle item belongs to the second half.
func ReverseSecondHalf[T any](sig []T) []T {
	out := make([]T, len(sig))
	copy(out, sig)
	half := len(out) / 2
	for i, j := half, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// AddBlanks pads sig to a multiple of 2*pagesPerSheet. Half of the blanks
// go to the middle and half to the end so front and back sides stay
// paired. The blanks are copies of the first page.
func AddBlanks(sig []Page, pagesPerSheet int, c Composer) []Page {
	if len(sig) == 0 || pagesPerSheet <= 0 {
		return sig
	}
	rem := len(sig) % (2 * pagesPerSheet)
	if rem == 0 {
		return sig
	}
	each := (2*pagesPerSheet - rem) / 2
	blank := c.BlankCopy(sig[0])
	half := len(sig) / 2

	out := make([]Page, 0, len(sig)+2*each)
	out = append(out, sig[:half]...)
	out = appendCopies(out, blank, each)
	out = append(out, sig[half:]...)
	return appendCopies(out, blank, each)
}

func appendCopies(dst []Page, p Page, n int) []Page {
	for i := 0; i < n; i++ {
		dst = append(dst, p)
	}
	return dst
}
