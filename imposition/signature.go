package imposition

import "math"

// signatureCandidates are tried for documents longer than maxSingleSignature.
var signatureCandidates = [...]int{20, 24, 28, 32, 36}

const maxSingleSignature = 36

// ReverseRemainder returns how much must be added to dividend to reach the
// next multiple of divisor. It is zero when dividend is already a multiple.
func ReverseRemainder(dividend, divisor int) (int, error) {
	if divisor == 0 {
		return 0, arithf("reverse remainder", "division by zero")
	}
	m := floorMod(dividend, divisor)
	if m == 0 {
		return 0, nil
	}
	return divisor - m, nil
}

// floorMod is the modulo whose sign follows the divisor.
func floorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// SignatureLength picks the number of pages per signature for a document of
// pageCount pages. Short documents form a single signature rounded up to a
// multiple of four. Longer ones use the candidate length needing the fewest
// blank pages, the larger length winning ties.
func SignatureLength(pageCount int) int {
	if pageCount <= maxSingleSignature {
		if pageCount <= 0 {
			return 0
		}
		pad, _ := ReverseRemainder(pageCount, 4)
		return pageCount + pad
	}
	length, best := pageCount, math.MaxInt
	for _, candidate := range signatureCandidates {
		pad, _ := ReverseRemainder(pageCount, candidate)
		if pad <= best {
			best, length = pad, candidate
		}
	}
	return length
}

// ValidateSignatureLength accepts zero, negative values and positive
// multiples of four.
func ValidateSignatureLength(v int) (int, error) {
	if v > 0 && v%4 != 0 {
		return 0, configf("signature length", "%d is not a multiple of 4", v)
	}
	return v, nil
}

// ValidatePagesPerSheet accepts powers of two from 2 upwards.
func ValidatePagesPerSheet(n int) error {
	if n < 2 {
		return configf("pages per sheet", "must be greater than 1, is %d", n)
	}
	if !isPowerOfTwo(n) {
		return configf("pages per sheet", "must be a power of 2, is %d", n)
	}
	return nil
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// foldLevel returns log2(n) for a power of two.
func foldLevel(n int) int {
	level := 0
	for n > 1 {
		n >>= 1
		level++
	}
	return level
}
