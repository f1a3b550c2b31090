package generate

import (
	"github.com/dotmjsc/pwl-editor/internal/notation"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// Append merges a generated series onto the end of a base document: the
// addition is shifted so its first point lands on the base's last absolute
// timestamp, and every appended token is rendered to continue the notation
// of the point before it. The result is a new document; neither input is
// mutated.
func Append(base, addition *pwl.Document) *pwl.Document {
	if addition == nil || addition.Len() == 0 {
		if base == nil {
			return pwl.New()
		}
		return base.Clone()
	}
	if base == nil || base.Len() == 0 {
		merged := addition.Clone()
		if base != nil {
			merged.Timestep = base.Timestep
		}
		return merged
	}

	merged := base.Clone()
	baseTimes := base.AbsoluteTimes()
	additionTimes := addition.AbsoluteTimes()
	additionValues := addition.Values()

	baseLast := baseTimes[len(baseTimes)-1]
	firstAddition := additionTimes[0]
	previousAbs := baseLast
	relativeMode := addition.DefaultFormat == pwl.FormatRelative

	reference := merged.Point(merged.Len() - 1)
	for i := 0; i < addition.Len(); i++ {
		shift := additionTimes[i] - firstAddition
		if shift < 0 {
			shift = 0
		}
		adjustedAbs := baseLast + shift

		var next *pwl.Point
		if relativeMode {
			delta := adjustedAbs - previousAbs
			if delta < 0 {
				delta = 0
			}
			if delta != 0 {
				delta = roundSignificant(delta, 12)
			}
			timeText := notation.FormatLikeReference(delta, reference.TimeText())
			valueText := notation.FormatLikeReference(additionValues[i], reference.ValueText())
			next = pwl.NewPoint(timeText, valueText, true)
		} else {
			timeText := notation.SuggestOptimal(adjustedAbs)
			valueText := notation.FormatLikeReference(additionValues[i], reference.ValueText())
			next = pwl.NewPoint(timeText, valueText, false)
		}

		merged.Append(next)
		previousAbs = adjustedAbs
		reference = next
	}
	return merged
}
