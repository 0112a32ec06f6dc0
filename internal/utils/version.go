package utils

import (
	"math"
	"strconv"
)

// NextVersion advances a module version string by the registry's
// stepping rule: below 0.9 the version gains exactly 0.1 (kept to at
// most two decimals, so "0.85" becomes "0.95"), while 0.9 and above
// jump to the next whole integer, discarding any fractional progress
// ("0.95" becomes "1.0", "2.3" becomes "3.0"). The 0.9 threshold and
// the discontinuity at the boundary are intentional.
func NextVersion(current string) (string, error) {
	v, err := strconv.ParseFloat(current, 64)
	if err != nil {
		return "", err
	}
	if v < 0.9 {
		next := math.Round((v+0.1)*100) / 100
		return strconv.FormatFloat(next, 'f', -1, 64), nil
	}
	return strconv.FormatFloat(math.Floor(v)+1, 'f', 1, 64), nil
}
