package imposition

import (
	"errors"
	"testing"
)

func TestReverseRemainder(t *testing.T) {
	cases := []struct{ dividend, divisor, want int }{
		{13, 3, 2},
		{12, 3, 0},
		{3, 4, 1},
		{0, 4, 0},
		{-1, 4, 1},
	}
	for _, tc := range cases {
		got, err := ReverseRemainder(tc.dividend, tc.divisor)
		if err != nil {
			t.Fatalf("ReverseRemainder(%d, %d): %v", tc.dividend, tc.divisor, err)
		}
		if got != tc.want {
			t.Fatalf("ReverseRemainder(%d, %d) = %d, want %d", tc.dividend, tc.divisor, got, tc.want)
		}
	}
	if _, err := ReverseRemainder(3, 0); !errors.Is(err, ErrArithmetic) {
		t.Fatalf("divisor 0: got %v, want ErrArithmetic", err)
	}
}

func TestSignatureLength(t *testing.T) {
	cases := map[int]int{
		-1: 0, 0: 0, 3: 4, 32: 32, 34: 36, 36: 36,
		37: 20, 46: 24, 53: 28, 61: 32, 65: 36,
	}
	for n, want := range cases {
		if got := SignatureLength(n); got != want {
			t.Fatalf("SignatureLength(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestSignatureLengthProperties(t *testing.T) {
	for n := 0; n <= 500; n++ {
		got := SignatureLength(n)
		if got%4 != 0 {
			t.Fatalf("SignatureLength(%d) = %d is not a multiple of 4", n, got)
		}
		if n <= 36 && got < n {
			t.Fatalf("SignatureLength(%d) = %d is shorter than the document", n, got)
		}
		if n > 36 && (got < 20 || got > 36) {
			t.Fatalf("SignatureLength(%d) = %d outside the candidates", n, got)
		}
	}
}

func TestValidateSignatureLength(t *testing.T) {
	for _, v := range []int{4, 8, 40, 0, -1} {
		if got, err := ValidateSignatureLength(v); err != nil || got != v {
			t.Fatalf("ValidateSignatureLength(%d) = %d, %v", v, got, err)
		}
	}
	for _, v := range []int{1, 2, 3, 5} {
		if _, err := ValidateSignatureLength(v); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("ValidateSignatureLength(%d): got %v, want ErrConfiguration", v, err)
		}
	}
}

func TestValidatePagesPerSheet(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16} {
		if err := ValidatePagesPerSheet(n); err != nil {
			t.Fatalf("ValidatePagesPerSheet(%d): %v", n, err)
		}
	}
	for _, n := range []int{1, 0, -1, 3, 6, 12} {
		err := ValidatePagesPerSheet(n)
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("ValidatePagesPerSheet(%d): got %v, want ErrConfiguration", n, err)
		}
		var ie *Error
		if !errors.As(err, &ie) || ie.Op != "pages per sheet" {
			t.Fatalf("ValidatePagesPerSheet(%d): error %v lacks the operation", n, err)
		}
	}
}
