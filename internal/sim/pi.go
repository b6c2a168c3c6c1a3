package sim

import "strconv"

// piDigits is π with the decimal point removed, 51 significant digits.
const piDigits = "314159265358979323846264338327950288419716939937510"

// DigitsOfPi is a presentation echo, not an estimator: it slices a
// stored constant so that the output's digit count equals the base-10
// length of count, capped at the stored precision. For mass ratios
// that are powers of 100 the collision count's digits coincide with
// these leading digits of π, which is the whole point of the display.
//
//	DigitsOfPi(0)   == "3"
//	DigitsOfPi(31)  == "3.1"
//	DigitsOfPi(314) == "3.14"
func DigitsOfPi(count uint64) string {
	n := len(strconv.FormatUint(count, 10))
	if n > len(piDigits) {
		n = len(piDigits)
	}
	if n == 1 {
		return piDigits[:1]
	}
	return piDigits[:1] + "." + piDigits[1:n]
}
