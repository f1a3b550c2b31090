// Package insert computes suggested timestamps for new waveform points. The
// suggestions preserve the notation of the surrounding points, keep stepping
// patterns consistent, and snap to clean round values when a snap fits
// strictly between the neighbors.
package insert

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/notation"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// Defaults for building up a waveform from nothing: the first point sits at
// "0" and the first step after it is one microsecond.
const (
	defaultEmptyStep = 1.0
	defaultEmptyUnit = "u"
)

// stepPrefix maps the prefixes the step heuristics recognize. Smaller than
// the full notation set: femto is too fine to step by and the bare prefix is
// handled by the plain-number fallback.
var stepPrefix = map[string]float64{
	"p": 1e-12,
	"n": 1e-9,
	"u": 1e-6,
	"m": 1e-3,
	"k": 1e3,
	"M": 1e6,
	"G": 1e9,
}

var (
	stepSIRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([numkMG])(?:s)?$`)
	stepSciRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*e\s*([+-]?\d+)`)
	// The rounding fallback accepts the full prefix range of the reference.
	roundSIRe = regexp.MustCompile(`(?:\d+(?:\.\d+)?)\s*([fpnumkMG])(?:s)?$`)
)

// EmptyDefaults returns the (time, value) tokens for the first point of an
// empty list.
func EmptyDefaults() (string, string) { return "0", "0" }

// NextAfter suggests the time token following the last point of a list that
// is being built up from empty. Directly after the literal "0" it proposes
// one default unit; afterwards it falls back to the regular stepping.
func NextAfter(last *pwl.Point) string {
	if strings.TrimSpace(last.TimeText()) == "0" {
		return strconv.FormatFloat(defaultEmptyStep, 'f', -1, 64) + defaultEmptyUnit
	}
	return TimeBelow(last, nil)
}

// TimeBelow suggests a time for a point inserted after current. When next
// exists the suggestion stays strictly between the two, shrinking the step
// to half the gap when a full step would not fit, and snapping to a clean
// round value when possible.
func TimeBelow(current, next *pwl.Point) string {
	curText := current.TimeText()
	curVal := current.TimeValue()

	step := stepSize(curText, curVal)

	if next != nil {
		gap := next.TimeValue() - curVal
		if step >= gap*0.9 {
			step = gap * 0.5
		}
	}

	candidate := curVal + step

	if next != nil {
		lo := math.Min(curVal, next.TimeValue())
		hi := math.Max(curVal, next.TimeValue())
		if snapped, ok := maybeRoundInsert(candidate, lo, hi, curText); ok {
			return snapped
		}
	}

	result := formatLikeReference(candidate, curText)
	if notation.IsAwkward(result) {
		return notation.SuggestOptimal(candidate)
	}
	return result
}

// TimeAbove suggests a time for a point inserted before current. With a
// predecessor the suggestion is the gap midpoint, snapped to a clean value
// when possible; without one it steps back from current, clamped at zero.
func TimeAbove(current, prev *pwl.Point) string {
	curText := current.TimeText()
	curVal := current.TimeValue()

	if prev == nil {
		step := stepSize(curText, curVal)
		return formatLikeReference(math.Max(0, curVal-step), curText)
	}

	prevVal := prev.TimeValue()
	gap := curVal - prevVal

	if gap <= 0 {
		// Degenerate ordering: nudge slightly before current.
		step := stepSize(curText, curVal)
		return formatLikeReference(math.Max(0, curVal-step*0.1), curText)
	}

	prevStep := stepSize(prev.TimeText(), prevVal)
	currStep := stepSize(curText, curVal)
	typicalStep := math.Min(prevStep, currStep)

	mid := prevVal + gap*0.5

	if snapped, ok := maybeRoundInsert(mid, prevVal, curVal, curText); ok {
		return snapped
	}

	if gap < typicalStep*0.5 {
		// Tiny gap: pick the most readable of the neighbor styles.
		options := []string{
			formatLikeReference(mid, prev.TimeText()),
			formatLikeReference(mid, curText),
			notation.SuggestOptimal(mid),
		}
		return pickReadable(options)
	}

	// A gap spanning more than three orders of magnitude matches neither
	// endpoint's notation; render the midpoint on its own terms.
	if ratio := math.Max(curVal, prevVal) / math.Min(curVal, prevVal); ratio > 1000 {
		return notation.SuggestOptimal(mid)
	}

	if math.Abs(mid-curVal) <= math.Abs(mid-prevVal) {
		candidate := formatLikeReference(mid, curText)
		if notation.IsAwkward(candidate) {
			return notation.SuggestOptimal(mid)
		}
		return candidate
	}

	candidate := formatLikeReference(mid, prev.TimeText())
	if notation.IsAwkward(candidate) {
		return notation.SuggestOptimal(mid)
	}
	if idx := strings.Index(candidate, "."); idx >= 0 {
		frac := strings.TrimRight(candidate[idx+1:], "0")
		if len(frac) > 4 {
			return notation.SuggestOptimal(mid)
		}
	}
	return candidate
}

// stepSize derives a step that keeps the progression of the reference token
// predictable: fixed unit steps within an SI prefix, mantissa steps within
// an exponent, and magnitude-banded steps for plain decimals.
func stepSize(timeText string, timeVal float64) float64 {
	s := strings.TrimSpace(timeText)

	if m := stepSIRe.FindStringSubmatch(s); m != nil {
		magnitude, _ := strconv.ParseFloat(m[1], 64)
		mult, ok := stepPrefix[m[2]]
		if !ok {
			mult = 1
		}
		switch {
		case magnitude < 10:
			return 1 * mult
		case magnitude < 100:
			return 10 * mult
		case magnitude < 500:
			return 50 * mult
		default:
			return 100 * mult
		}
	}

	if m := stepSciRe.FindStringSubmatch(s); m != nil {
		mantissa, _ := strconv.ParseFloat(m[1], 64)
		exp, _ := strconv.Atoi(m[2])
		stepMantissa := 1.0
		if mantissa >= 10 {
			stepMantissa = 10
		}
		return stepMantissa * math.Pow(10, float64(exp))
	}

	switch {
	case timeVal == 0:
		return defaultEmptyStep * stepPrefix[defaultEmptyUnit]
	case timeVal < 1e-6:
		return 1e-9
	case timeVal < 1e-3:
		return 1e-6
	case timeVal < 1:
		return 1e-3
	default:
		return 0.1
	}
}

// formatLikeReference renders a suggested time in the style of the reference
// token. Unlike the general notation matcher it steps scientific references
// into engineering form and auto-prefixes awkward SI renderings.
func formatLikeReference(timeVal float64, reference string) string {
	ref := strings.TrimSpace(reference)

	if m := stepSIRe.FindStringSubmatch(ref); m != nil {
		if mult, ok := stepPrefix[m[2]]; ok {
			converted := timeVal / mult
			if math.Abs(converted-math.Round(converted)) < 1e-10 {
				return strconv.FormatFloat(math.Round(converted), 'f', -1, 64) + m[2]
			}
			return strconv.FormatFloat(converted, 'g', 6, 64) + m[2]
		}
	}

	if stepSciRe.MatchString(ref) {
		return notation.FormatEngineering(timeVal, false)
	}

	if ref == "0" && timeVal > 0 {
		return notation.SuggestOptimal(timeVal)
	}

	if ref != "" && timeVal > 0 {
		if tentative := tryFormatLikeReference(timeVal, ref); notation.IsAwkward(tentative) {
			return notation.FormatSI(timeVal)
		}
	}

	return strconv.FormatFloat(timeVal, 'g', 6, 64)
}

// tryFormatLikeReference renders without any awkwardness rescue, so the
// caller can judge the raw result.
func tryFormatLikeReference(timeVal float64, ref string) string {
	if m := stepSIRe.FindStringSubmatch(ref); m != nil {
		if mult, ok := stepPrefix[m[2]]; ok {
			converted := timeVal / mult
			if math.Abs(converted-math.Round(converted)) < 1e-10 {
				return strconv.FormatFloat(math.Round(converted), 'f', -1, 64) + m[2]
			}
			return strconv.FormatFloat(converted, 'g', 6, 64) + m[2]
		}
	}
	return strconv.FormatFloat(timeVal, 'g', 6, 64)
}

// maybeRoundInsert tries to snap a computed insertion time to a clean round
// value strictly between the bounds. Candidates are nice multipliers across
// the neighboring decades; the closest one wins if it keeps at least 1% of
// the span as buffer from both bounds. As a fallback the value is rounded
// within the reference's own SI prefix.
func maybeRoundInsert(candidate, lowerBound, upperBound float64, reference string) (string, bool) {
	lo := math.Min(lowerBound, upperBound)
	hi := math.Max(lowerBound, upperBound)

	var clean []float64
	if candidate > 0 {
		logMag := math.Log10(candidate)
		for _, expOffset := range []int{-1, 0, 1} {
			base := math.Pow(10, math.Floor(logMag)+float64(expOffset))
			for _, mult := range []float64{1, 2, 5, 10, 20, 25, 50, 100, 0.1, 0.2, 0.5} {
				if v := mult * base; lo < v && v < hi {
					clean = append(clean, v)
				}
			}
		}
	}

	if len(clean) > 0 {
		sort.Slice(clean, func(i, j int) bool {
			return math.Abs(clean[i]-candidate) < math.Abs(clean[j]-candidate)
		})
		span := hi - lo
		for _, v := range clean {
			minGap := math.Min(math.Abs(v-lo), math.Abs(v-hi))
			if minGap > span*0.01 {
				return notation.SuggestOptimal(v), true
			}
		}
	}

	if m := roundSIRe.FindStringSubmatch(strings.TrimSpace(reference)); m != nil {
		if mult, err := notation.Parse("1" + m[1]); err == nil && mult != 0 {
			converted := candidate / mult
			rounded := []float64{
				math.Round(converted),
				math.Round(converted*2) / 2,
				math.Round(converted*10) / 10,
			}
			for _, r := range rounded {
				if math.Abs(r-converted) < 1e-12 {
					continue
				}
				if v := r * mult; lo < v && v < hi {
					return formatLikeReference(v, reference), true
				}
			}
		}
	}

	return "", false
}

// pickReadable returns the shortest non-awkward option.
func pickReadable(options []string) string {
	best := options[0]
	bestAwkward := notation.IsAwkward(best)
	for _, o := range options[1:] {
		awkward := notation.IsAwkward(o)
		if (bestAwkward && !awkward) || (awkward == bestAwkward && len(o) < len(best)) {
			best, bestAwkward = o, awkward
		}
	}
	return best
}
