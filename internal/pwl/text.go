package pwl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/notation"
)

// ExportFormat selects how ToText renders timing.
type ExportFormat string

const (
	// ExportPreserveMixed keeps every point's own relativity and text.
	ExportPreserveMixed ExportFormat = "preserve_mixed"
	// ExportForceRelative renders every point after the first as "+delta".
	ExportForceRelative ExportFormat = "force_relative"
	// ExportForceAbsolute renders every point with its absolute timestamp.
	ExportForceAbsolute ExportFormat = "force_absolute"
)

// ParseError reports a malformed line during ParseText, with a 1-based line
// number.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pwl: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("pwl: line %d: %s", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseText reads PWL text into a new document. The load is atomic: any
// malformed line or unparseable numeric token fails the whole parse, so
// callers can swap in the result only on success. Blank lines are skipped;
// a "+" time prefix marks the point relative. Input with no points at all
// is an error.
func ParseText(text string) (*Document, error) {
	doc := New()
	for i, line := range strings.Split(text, "\n") {
		fields := strings.Fields(strings.TrimRight(line, "\r"))
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, &ParseError{Line: i + 1, Text: fmt.Sprintf("expected two fields, got %d", len(fields))}
		}

		timeToken, valueToken := fields[0], fields[1]
		relative := strings.HasPrefix(timeToken, "+")
		timeText := strings.TrimPrefix(timeToken, "+")

		if _, err := notation.Parse(timeText); err != nil {
			return nil, &ParseError{Line: i + 1, Err: fmt.Errorf("bad time token %q: %w", timeToken, err)}
		}
		if _, err := notation.Parse(valueToken); err != nil {
			return nil, &ParseError{Line: i + 1, Err: fmt.Errorf("bad value token %q: %w", valueToken, err)}
		}

		doc.Append(NewPoint(timeText, valueToken, relative))
	}
	if doc.Len() == 0 {
		return nil, fmt.Errorf("pwl: no data points in input")
	}
	doc.DefaultFormat = detectFormat(doc)
	return doc, nil
}

// detectFormat classifies a loaded document by the relativity of its points
// after the first: all relative, all absolute, or mixed.
func detectFormat(d *Document) Format {
	if d.Len() < 2 {
		return FormatRelative
	}
	relative, absolute := 0, 0
	for _, p := range d.points[1:] {
		if p.IsRelative() {
			relative++
		} else {
			absolute++
		}
	}
	switch {
	case absolute == 0:
		return FormatRelative
	case relative == 0:
		return FormatAbsolute
	default:
		return FormatMixed
	}
}

// ToText renders the document. preserveOriginal keeps each point's stored
// text wherever it is compatible with the requested format; otherwise
// numbers are re-rendered at the given precision (scientific outside the
// precision's comfortable range, %g inside it).
func (d *Document) ToText(format ExportFormat, precision int, preserveOriginal bool) string {
	if len(d.points) == 0 {
		return ""
	}
	times := d.AbsoluteTimes()
	lines := make([]string, 0, len(d.points))

	for i, p := range d.points {
		switch format {
		case ExportForceRelative:
			if i == 0 {
				if preserveOriginal {
					lines = append(lines, p.TimeText()+" "+p.ValueText())
				} else {
					lines = append(lines, formatNumber(times[0], precision)+" "+formatNumber(p.Value(), precision))
				}
				continue
			}
			if preserveOriginal && p.IsRelative() {
				lines = append(lines, "+"+p.TimeText()+" "+p.ValueText())
			} else {
				delta := times[i] - times[i-1]
				lines = append(lines, "+"+formatNumber(delta, precision)+" "+formatNumber(p.Value(), precision))
			}
		case ExportForceAbsolute:
			if preserveOriginal && !p.IsRelative() {
				lines = append(lines, p.TimeText()+" "+p.ValueText())
			} else {
				lines = append(lines, formatNumber(times[i], precision)+" "+formatNumber(p.Value(), precision))
			}
		default: // ExportPreserveMixed
			if preserveOriginal {
				lines = append(lines, p.Text())
			} else {
				prefix := ""
				if p.IsRelative() {
					prefix = "+"
				}
				lines = append(lines, prefix+formatNumber(p.TimeValue(), precision)+" "+formatNumber(p.Value(), precision))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// formatNumber renders a re-derived number at the given precision, switching
// to scientific form when the magnitude leaves the range %g renders
// compactly.
func formatNumber(v float64, precision int) string {
	if precision < 2 {
		precision = 9
	}
	abs := math.Abs(v)
	if abs > math.Pow(10, float64(precision)) || (v != 0 && abs < math.Pow(10, float64(1-precision))) {
		return strconv.FormatFloat(v, 'e', precision-1, 64)
	}
	return strconv.FormatFloat(v, 'g', precision, 64)
}
