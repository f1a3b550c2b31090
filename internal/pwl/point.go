// Package pwl implements the piecewise-linear waveform data model: a Point
// keeps the author's exact time and value text alongside cached numeric
// values, and a Document keeps an ordered point list with a default timing
// format. Textual formatting is preserved through every edit; numbers are
// only re-rendered when an operation has to invent a new token.
package pwl

import (
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/notation"
)

// Point is one waveform sample. The time token either holds an absolute
// timestamp or, when relative, a delta against the previous point's absolute
// time. The stored text never carries the "+" relative marker; Text adds it
// back on rendering.
type Point struct {
	timeText  string
	valueText string
	relative  bool

	timeValue  float64
	valueValue float64
}

// NewPoint builds a point from raw tokens. Unparseable tokens cache a
// numeric value of zero; strict rejection happens at document load, not
// here, so interactive edits never lose the author's text.
func NewPoint(timeText, valueText string, relative bool) *Point {
	p := &Point{relative: relative}
	p.SetTimeText(timeText)
	p.SetValueText(valueText)
	return p
}

// TimeText returns the stored time token without the relative marker.
func (p *Point) TimeText() string { return p.timeText }

// ValueText returns the stored value token.
func (p *Point) ValueText() string { return p.valueText }

// IsRelative reports whether the time token is a delta against the previous
// point.
func (p *Point) IsRelative() bool { return p.relative }

// SetRelative flips the relative flag. The time text is not rewritten;
// callers re-derive tokens when converting between formats.
func (p *Point) SetRelative(relative bool) { p.relative = relative }

// SetTimeText replaces the time token and refreshes the cached numeric.
func (p *Point) SetTimeText(text string) {
	p.timeText = strings.TrimSpace(text)
	p.timeValue = parseOrZero(p.timeText)
}

// SetValueText replaces the value token and refreshes the cached numeric.
func (p *Point) SetValueText(text string) {
	p.valueText = strings.TrimSpace(text)
	p.valueValue = parseOrZero(p.valueText)
}

// TimeValue returns the parsed time token: a delta for relative points, an
// absolute timestamp otherwise.
func (p *Point) TimeValue() float64 { return p.timeValue }

// Value returns the parsed value token.
func (p *Point) Value() float64 { return p.valueValue }

// AbsoluteTime resolves the point's absolute timestamp given the previous
// point's absolute time.
func (p *Point) AbsoluteTime(previous float64) float64 {
	if p.relative {
		return previous + p.timeValue
	}
	return p.timeValue
}

// Text renders the point as a "time value" line, prefixing relative times
// with "+".
func (p *Point) Text() string {
	if p.relative {
		return "+" + p.timeText + " " + p.valueText
	}
	return p.timeText + " " + p.valueText
}

// Clone returns an independent copy.
func (p *Point) Clone() *Point {
	c := *p
	return &c
}

func parseOrZero(text string) float64 {
	v, err := notation.Parse(text)
	if err != nil {
		return 0
	}
	return v
}
