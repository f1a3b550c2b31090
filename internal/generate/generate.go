// Package generate synthesizes square, triangle and saw waveforms as PWL
// documents. Each generator validates its config, emits a monotonic sample
// series with edge handling, and reports non-fatal adjustments as warnings.
package generate

import (
	"math"
	"strconv"
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/notation"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// ValidationError collects every config violation of a generator run.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "generate: " + strings.Join(e.Violations, "; ")
}

// Result bundles a generated document with the warnings derived from
// parameter clamping.
type Result struct {
	Document *pwl.Document
	Warnings []string
}

// sample is one synthesized (absolute time, value) pair.
type sample struct {
	t float64
	v float64
}

// appendSample adds a sample while keeping timestamps monotonic: earlier
// times clamp to the last timestamp, and a near-duplicate of the last sample
// is dropped.
func appendSample(samples []sample, t, v float64) []sample {
	if len(samples) > 0 {
		last := samples[len(samples)-1]
		if t < last.t {
			t = last.t
		}
		if math.Abs(t-last.t) <= 1e-15 {
			t = last.t
			if math.Abs(v-last.v) <= 1e-12 {
				return samples
			}
		}
	}
	return append(samples, sample{t: t, v: v})
}

// buildDocument renders samples into a document. The first point is always
// absolute; in relative mode the remaining points carry deltas clamped to
// zero and rounded to 12 significant digits. Values mirror the notation of
// the previous point's value token.
func buildDocument(samples []sample, preferRelative bool) *pwl.Document {
	doc := pwl.New()
	if preferRelative {
		doc.DefaultFormat = pwl.FormatRelative
	} else {
		doc.DefaultFormat = pwl.FormatAbsolute
	}

	previousTime := 0.0
	var prev *pwl.Point
	for i, s := range samples {
		var timeText string
		relative := false
		if i == 0 || !preferRelative {
			timeText = notation.SuggestOptimal(s.t)
		} else {
			delta := s.t - previousTime
			if delta < 0 {
				delta = 0
			}
			if delta != 0 {
				delta = roundSignificant(delta, 12)
			}
			timeText = notation.SuggestOptimal(delta)
			relative = true
		}

		var valueText string
		if prev == nil {
			valueText = notation.SuggestOptimal(s.v)
		} else {
			valueText = notation.FormatLikeReference(s.v, prev.ValueText())
		}

		p := pwl.NewPoint(timeText, valueText, relative)
		doc.Append(p)
		prev = p
		previousTime = s.t
	}
	return doc
}

// roundSignificant rounds v to the given number of significant digits by
// going through its shortest decimal rendering.
func roundSignificant(v float64, digits int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', digits, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func isClose(a, b, absTol float64) bool {
	return math.Abs(a-b) <= absTol
}
