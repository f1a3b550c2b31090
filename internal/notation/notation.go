// Package notation parses and renders the numeric text conventions used in
// PWL stimulus files: SI-prefixed magnitudes ("2.5u", "10k"), scientific and
// engineering notation ("1e-6", "2.5e-6"), and plain decimals. All functions
// are pure; rendering never panics and parsing reports malformed input as an
// error.
package notation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// siMultiplier maps an SI prefix to its multiplier. The empty prefix maps
// to 1 so callers can treat "no prefix" uniformly.
var siMultiplier = map[string]float64{
	"f": 1e-15,
	"p": 1e-12,
	"n": 1e-9,
	"u": 1e-6,
	"m": 1e-3,
	"":  1,
	"k": 1e3,
	"M": 1e6,
	"G": 1e9,
}

// siPrefixOrder lists prefixes from smallest to largest multiplier. Prefix
// selection iterates this slice so results are deterministic.
var siPrefixOrder = []string{"f", "p", "n", "u", "m", "", "k", "M", "G"}

const (
	// sciLowerThreshold and sciUpperThreshold bound the magnitude range that
	// engineering formatting renders without an exponent.
	sciLowerThreshold = 1e-4
	sciUpperThreshold = 1e4

	// integerEpsilon decides when a mantissa collapses to its integer form.
	integerEpsilon = 1e-10
)

// Parse converts a numeric token into a float64. It accepts plain decimals,
// e-notation, SI-prefixed magnitudes, and the SPICE shorthand where a bare
// trailing "u" means microseconds ("10u" == 1e-5). A leading "+" is ignored;
// it marks relative timing, not sign.
func Parse(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, fmt.Errorf("notation: empty numeric token")
	}

	// SPICE micro shorthand takes priority over generic prefix handling so
	// "10u" parses as 10e-6 even though "u" is also a regular prefix.
	if strings.HasSuffix(s, "u") {
		if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "u")), 64); err == nil {
			return v * 1e-6, nil
		}
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	if len(s) > 1 {
		prefix := s[len(s)-1:]
		if mult, ok := siMultiplier[prefix]; ok && prefix != "" {
			if v, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64); err == nil {
				return v * mult, nil
			}
		}
	}

	return 0, fmt.Errorf("notation: cannot parse %q", text)
}

// formatG renders v like C's %.<digits>g: at most digits significant digits,
// trailing zeros removed, exponent form outside the %g thresholds.
func formatG(v float64, digits int) string {
	return strconv.FormatFloat(v, 'g', digits, 64)
}

// StripTrailingZeros removes trailing fractional zeros from a plain decimal
// string. Exponent forms are returned unchanged.
func StripTrailingZeros(s string) string {
	if !strings.Contains(s, ".") || strings.ContainsAny(s, "eE") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// formatSignificant renders v with up to digits significant digits and
// trims any trailing fractional zeros left by the conversion.
func formatSignificant(v float64, digits int) string {
	return StripTrailingZeros(formatG(v, digits))
}

// FormatSI renders value with an automatically chosen SI prefix. The chosen
// prefix is the one whose converted magnitude lands in [1, 1000), preferring
// the magnitude closest to 1; if none qualifies a relaxed [0.1, 9999] pass
// runs, and as a last resort the value is rendered unprefixed.
func FormatSI(value float64) string {
	if value == 0 {
		return "0"
	}
	prefix := bestPrefixFor(value)
	return FormatSIAs(value, prefix)
}

// FormatSIAs renders value scaled into the given SI prefix (empty means
// unprefixed). Converted magnitudes within integerEpsilon of an integer render
// as that integer; otherwise the magnitude keeps up to 12 significant digits.
func FormatSIAs(value float64, prefix string) string {
	if value == 0 {
		return "0"
	}
	mult, ok := siMultiplier[prefix]
	if !ok {
		mult = 1
		prefix = ""
	}
	converted := value / mult
	nearest := math.Round(converted)
	if math.Abs(converted-nearest) < integerEpsilon {
		return strconv.FormatFloat(nearest, 'f', -1, 64) + prefix
	}
	return formatSignificant(converted, 12) + prefix
}

func bestPrefixFor(value float64) string {
	abs := math.Abs(value)

	best := ""
	bestScore := math.Inf(1)
	found := false
	for _, p := range siPrefixOrder {
		conv := abs / siMultiplier[p]
		if conv >= 1 && conv < 1000 {
			if score := math.Abs(conv - 1); score < bestScore {
				best, bestScore, found = p, score, true
			}
		}
	}
	if found {
		return best
	}

	bestScore = math.Inf(1)
	for _, p := range siPrefixOrder {
		conv := abs / siMultiplier[p]
		if conv >= 0.1 && conv <= 9999 {
			if score := math.Abs(conv - 1); score < bestScore {
				best, bestScore, found = p, score, true
			}
		}
	}
	if found {
		return best
	}
	return ""
}

// FormatEngineering renders value with an exponent stepped to a multiple of
// three. Magnitudes inside [1e-4, 1e4) render as plain decimals unless force
// is set.
func FormatEngineering(value float64, force bool) string {
	if value == 0 {
		return "0"
	}
	abs := math.Abs(value)
	if force || abs >= sciUpperThreshold || abs < sciLowerThreshold {
		exponent := int(math.Floor(math.Log10(abs)))
		stepped := floorDiv(exponent, 3) * 3
		mantissa := value / math.Pow(10, float64(stepped))

		var mantissaStr string
		if nearest := math.Round(mantissa); math.Abs(mantissa-nearest) < integerEpsilon {
			mantissaStr = strconv.FormatFloat(nearest, 'f', -1, 64)
		} else {
			mantissaStr = formatG(mantissa, 6)
		}
		if stepped == 0 {
			return mantissaStr
		}
		return mantissaStr + "e" + strconv.Itoa(stepped)
	}
	return StripTrailingZeros(formatG(value, 9))
}

// floorDiv is integer division rounding toward negative infinity, so that
// exponent stepping lands on the engineering multiple below the value.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FormatScientific renders value as normalized scientific notation with a
// signed exponent ("2.5e-6", "1e+3"). digits bounds the mantissa's
// significant digits; values that round up to a mantissa of 10 renormalize.
func FormatScientific(value float64, digits int) string {
	if value == 0 {
		return "0"
	}
	if digits < 2 {
		digits = 2
	}

	sign := ""
	abs := value
	if abs < 0 {
		sign = "-"
		abs = -abs
	}

	exponent := int(math.Floor(math.Log10(abs)))
	mantissa := abs / math.Pow(10, float64(exponent))

	scale := math.Pow(10, float64(digits-1))
	mantissa = math.Round(mantissa*scale) / scale
	if mantissa >= 10 {
		mantissa /= 10
		exponent++
	}
	if nearest := math.Round(mantissa); math.Abs(mantissa-nearest) <= math.Pow(10, -float64(digits+1)) {
		mantissa = nearest
	}

	mantissaStr := StripTrailingZeros(formatG(mantissa, digits-1))
	if mantissaStr == "10" {
		mantissaStr = "1"
		exponent++
	}
	if mantissaStr == "" || mantissaStr == "0" {
		return "0"
	}
	return fmt.Sprintf("%s%se%+d", sign, mantissaStr, exponent)
}

// IsAwkward reports whether a rendered token is hard to read: an SI mantissa
// of 10000 or more ("15000u"), or a plain decimal with more than eight
// digits.
func IsAwkward(text string) bool {
	s := strings.TrimSpace(text)
	if m := siTokenRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && math.Abs(v) >= 10000 {
			return true
		}
		return false
	}
	if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits > 8
	}
	return false
}

// SuggestOptimal picks a compact canonical rendering for a value with no
// style reference: sub-nano values in "p", then "n", "u", "m", plain decimals
// up to 1000, and "k" beyond.
func SuggestOptimal(value float64) string {
	if value < 0 {
		return "-" + SuggestOptimal(-value)
	}
	if value == 0 {
		return "0"
	}
	switch {
	case value < 1e-9:
		return formatSignificant(value/1e-12, 9) + "p"
	case value < 1e-6:
		return formatSignificant(value/1e-9, 9) + "n"
	case value < 1e-3:
		return formatSignificant(value/1e-6, 9) + "u"
	case value < 1:
		return formatSignificant(value/1e-3, 9) + "m"
	case value < 1000:
		return formatSignificant(value, 9)
	default:
		return formatSignificant(value/1e3, 9) + "k"
	}
}
