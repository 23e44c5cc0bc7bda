package viz

import (
	"math"
	"strconv"
	"strings"
)

// Grouped formats v with the given decimals and a space between groups of
// thousands: 1234567.891 -> "1 234 567.891".
func Grouped(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

func FormatMass(kg float64) string        { return Grouped(kg/1000, 0) + "t" }
func FormatAmplitude(m float64) string    { return Grouped(math.Abs(m), 5) + "m" }
func FormatFrequency(rad float64) string  { return Grouped(math.Abs(rad), 3) + "rad" }
func FormatDisplacement(m float64) string { return Grouped(m, 4) + "m" }
