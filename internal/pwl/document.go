package pwl

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Format is a document's default timing convention. It decides how newly
// added points are timed; it does not constrain what LoadText may read.
type Format string

const (
	FormatRelative Format = "relative"
	FormatAbsolute Format = "absolute"
	FormatMixed    Format = "mixed"
)

// DefaultTimestep is the discretization interval of a fresh document.
const DefaultTimestep = 0.001

// maxDiscretizeSamples caps preview sampling so a huge duration with a tiny
// timestep cannot exhaust memory.
const maxDiscretizeSamples = 1 << 20

// Document is an ordered list of waveform points plus the preferences that
// travel with a file: the default timing format and the preview timestep.
type Document struct {
	points        []*Point
	DefaultFormat Format
	Timestep      float64
}

// New returns an empty document with relative default timing and the
// default timestep.
func New() *Document {
	return &Document{DefaultFormat: FormatRelative, Timestep: DefaultTimestep}
}

// Len returns the number of points.
func (d *Document) Len() int { return len(d.points) }

// Point returns the point at index i, or nil when out of range.
func (d *Document) Point(i int) *Point {
	if i < 0 || i >= len(d.points) {
		return nil
	}
	return d.points[i]
}

// Points returns the live point slice. Callers may mutate individual points
// but must go through AddPoint/RemovePoint/SwapPoints for structural edits.
func (d *Document) Points() []*Point { return d.points }

// Clear removes all points.
func (d *Document) Clear() { d.points = nil }

// AddPoint inserts a point, deciding relativity from the document's default
// format: in a relative document every point after the first is a delta.
// Returns the insertion index.
func (d *Document) AddPoint(timeText, valueText string) int {
	relative := len(d.points) > 0 && d.DefaultFormat == FormatRelative
	return d.insertPoint(NewPoint(timeText, valueText, relative))
}

// AddPointWithMode inserts a point with an explicit relativity flag. The
// first point of a document is always forced absolute.
func (d *Document) AddPointWithMode(timeText, valueText string, relative bool) int {
	return d.insertPoint(NewPoint(timeText, valueText, relative))
}

// insertPoint places p after every existing point with a strictly greater
// absolute time, so equal timestamps keep arrival order.
func (d *Document) insertPoint(p *Point) int {
	if len(d.points) == 0 {
		p.SetRelative(false)
		d.points = append(d.points, p)
		return 0
	}

	abs := p.TimeValue()
	if p.IsRelative() {
		abs = d.AbsoluteTime(len(d.points)-1) + p.TimeValue()
	}

	pos := 0
	for i, t := range d.AbsoluteTimes() {
		if abs > t {
			pos = i + 1
		} else {
			break
		}
	}

	d.points = append(d.points, nil)
	copy(d.points[pos+1:], d.points[pos:])
	d.points[pos] = p
	return pos
}

// InsertAt places a point at an explicit position, shifting later points.
// A point inserted at position zero becomes the document head and is forced
// absolute.
func (d *Document) InsertAt(i int, p *Point) error {
	if i < 0 || i > len(d.points) {
		return fmt.Errorf("pwl: insert index %d out of range", i)
	}
	if i == 0 {
		p.SetRelative(false)
	}
	d.points = append(d.points, nil)
	copy(d.points[i+1:], d.points[i:])
	d.points[i] = p
	return nil
}

// Append adds a point at the end without chronological placement. Used when
// the caller already produces monotonic samples.
func (d *Document) Append(p *Point) {
	if len(d.points) == 0 {
		p.SetRelative(false)
	}
	d.points = append(d.points, p)
}

// RemovePoint deletes the point at index i. Neighboring relative deltas are
// deliberately left untouched: removing a point shifts everything after it
// earlier by the removed delta, matching how a text edit of the same line
// would behave.
func (d *Document) RemovePoint(i int) error {
	if i < 0 || i >= len(d.points) {
		return fmt.Errorf("pwl: point index %d out of range", i)
	}
	d.points = append(d.points[:i], d.points[i+1:]...)
	return nil
}

// SwapPoints exchanges two points in place. Like RemovePoint it does not
// re-derive relative deltas, so swapping reinterprets each delta at its new
// position.
func (d *Document) SwapPoints(i, j int) error {
	if i < 0 || i >= len(d.points) || j < 0 || j >= len(d.points) {
		return fmt.Errorf("pwl: swap indices %d,%d out of range", i, j)
	}
	d.points[i], d.points[j] = d.points[j], d.points[i]
	return nil
}

// AbsoluteTime resolves the absolute timestamp of the point at index i by
// folding relative deltas from the start.
func (d *Document) AbsoluteTime(i int) float64 {
	if i < 0 || i >= len(d.points) {
		return 0
	}
	t := 0.0
	for k := 0; k <= i; k++ {
		t = d.points[k].AbsoluteTime(t)
	}
	return t
}

// AbsoluteTimes returns every point's absolute timestamp in order.
func (d *Document) AbsoluteTimes() []float64 {
	times := make([]float64, len(d.points))
	t := 0.0
	for i, p := range d.points {
		t = p.AbsoluteTime(t)
		times[i] = t
	}
	return times
}

// Values returns every point's numeric value in order.
func (d *Document) Values() []float64 {
	values := make([]float64, len(d.points))
	for i, p := range d.points {
		values[i] = p.Value()
	}
	return values
}

// Validate reports whether absolute timestamps are strictly increasing.
func (d *Document) Validate() bool {
	times := d.AbsoluteTimes()
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return false
		}
	}
	return true
}

// SortByTime stably reorders points by absolute time, then re-derives the
// delta text of every relative point against its new predecessor.
func (d *Document) SortByTime() {
	if len(d.points) < 2 {
		return
	}
	type keyed struct {
		abs float64
		p   *Point
	}
	pairs := make([]keyed, len(d.points))
	for i, t := range d.AbsoluteTimes() {
		pairs[i] = keyed{abs: t, p: d.points[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].abs < pairs[j].abs })

	prev := 0.0
	for i, k := range pairs {
		d.points[i] = k.p
		if i == 0 {
			if k.p.IsRelative() {
				// A formerly relative leader needs an absolute token.
				k.p.SetRelative(false)
				k.p.SetTimeText(formatG9(k.abs))
			}
		} else if k.p.IsRelative() {
			k.p.SetTimeText(formatG9(k.abs - prev))
		}
		prev = k.abs
	}
}

// ConvertToRelative rewrites every point after the first as a "+delta"
// against its predecessor and sets the default format to relative.
func (d *Document) ConvertToRelative() {
	times := d.AbsoluteTimes()
	for i, p := range d.points {
		if i == 0 {
			p.SetRelative(false)
			continue
		}
		p.SetRelative(true)
		p.SetTimeText(formatG9(times[i] - times[i-1]))
	}
	d.DefaultFormat = FormatRelative
}

// ConvertToAbsolute rewrites every point with its absolute timestamp and
// sets the default format to absolute.
func (d *Document) ConvertToAbsolute() {
	times := d.AbsoluteTimes()
	for i, p := range d.points {
		p.SetRelative(false)
		p.SetTimeText(formatG9(times[i]))
	}
	d.DefaultFormat = FormatAbsolute
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := &Document{DefaultFormat: d.DefaultFormat, Timestep: d.Timestep}
	c.points = make([]*Point, len(d.points))
	for i, p := range d.points {
		c.points[i] = p.Clone()
	}
	return c
}

// Discretize samples the waveform at the given timestep with linear
// interpolation, for plotting previews. Samples before the first point hold
// its value; samples after the last hold the last value.
func (d *Document) Discretize(timestep float64) ([]float64, []float64, error) {
	if len(d.points) == 0 {
		return nil, nil, nil
	}
	if timestep <= 0 {
		return nil, nil, fmt.Errorf("pwl: timestep must be positive, got %g", timestep)
	}
	times := d.AbsoluteTimes()
	values := d.Values()
	duration := times[len(times)-1]
	n := int(math.Floor(duration/timestep)) + 1
	if n < 1 {
		n = 1
	}
	if n > maxDiscretizeSamples {
		return nil, nil, fmt.Errorf("pwl: discretization of %g at %g exceeds %d samples", duration, timestep, maxDiscretizeSamples)
	}

	ts := make([]float64, n)
	vs := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) * timestep
		ts[i] = t
		vs[i] = interpolate(t, times, values)
	}
	return ts, vs, nil
}

func interpolate(t float64, times, values []float64) float64 {
	if t <= times[0] {
		return values[0]
	}
	last := len(times) - 1
	if t >= times[last] {
		return values[last]
	}
	i := sort.SearchFloat64s(times, t)
	// Unsorted input (a document with reversals) can confuse the binary
	// search; clamp so the preview degrades instead of panicking.
	if i < 1 {
		i = 1
	}
	if i > last {
		i = last
	}
	if times[i] == t {
		return values[i]
	}
	t0, t1 := times[i-1], times[i]
	if t1 == t0 {
		return values[i]
	}
	frac := (t - t0) / (t1 - t0)
	return values[i-1] + frac*(values[i]-values[i-1])
}

// formatG9 renders a re-derived time token with nine significant digits,
// enough to round-trip the deltas this editor produces.
func formatG9(v float64) string {
	return strconv.FormatFloat(v, 'g', 9, 64)
}
