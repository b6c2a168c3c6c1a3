package sim

import (
	"math"
	"testing"
)

func TestDigitsOfPiFormatting(t *testing.T) {
	cases := []struct {
		count uint64
		want  string
	}{
		{0, "3"},
		{1, "3"},
		{9, "3"},
		{10, "3.1"},
		{31, "3.1"},
		{99, "3.1"},
		{314, "3.14"},
		{3141, "3.141"},
		{31415, "3.1415"},
	}
	for _, c := range cases {
		if got := DigitsOfPi(c.count); got != c.want {
			t.Errorf("DigitsOfPi(%d) = %q, want %q", c.count, got, c.want)
		}
	}
}

func TestDigitsOfPiCapsAtStoredPrecision(t *testing.T) {
	// MaxUint64 has 20 decimal digits, well under the 51 stored.
	got := DigitsOfPi(math.MaxUint64)
	if len(got) != 21 { // "3." plus 19 fractional digits
		t.Errorf("DigitsOfPi(MaxUint64) length = %d, want 21 (%q)", len(got), got)
	}
	if got[:6] != "3.1415" {
		t.Errorf("DigitsOfPi(MaxUint64) prefix = %q", got[:6])
	}
}
