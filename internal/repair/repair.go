// Package repair detects and fixes structural waveform problems: points that
// share an absolute timestamp and points where time runs backwards. Repairs
// always build a new document; the source is never mutated.
package repair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/notation"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// DefaultTimeEpsilon is the timestamp comparison tolerance used when the
// caller does not supply one.
const DefaultTimeEpsilon = 1e-15

// DefaultTimeTolerance is the minimum spacing repairs enforce between
// spread-out points.
const DefaultTimeTolerance = 1e-12

// DuplicateGroup describes a run of adjacent points sharing an absolute
// timestamp. Indices holds at least two point indices; Timestamp is the
// shared time of the first.
type DuplicateGroup struct {
	Indices   []int
	Timestamp float64
}

// TimeReversal describes an adjacent pair where time goes backwards.
type TimeReversal struct {
	FirstIndex  int
	SecondIndex int
	TimeBefore  float64
	TimeAfter   float64
}

// Issues bundles everything the analyzer can find.
type Issues struct {
	Duplicates []DuplicateGroup `json:"duplicate_timestamps,omitempty"`
	Reversals  []TimeReversal   `json:"time_reversals,omitempty"`
}

// Empty reports whether no issues were found.
func (i Issues) Empty() bool { return len(i.Duplicates) == 0 && len(i.Reversals) == 0 }

// Analyzer scans a document for structural problems.
type Analyzer struct {
	doc     *pwl.Document
	epsilon float64
}

// NewAnalyzer builds an analyzer. A negative epsilon is treated as zero;
// pass DefaultTimeEpsilon for the standard tolerance.
func NewAnalyzer(doc *pwl.Document, epsilon float64) *Analyzer {
	if epsilon < 0 {
		epsilon = 0
	}
	return &Analyzer{doc: doc, epsilon: epsilon}
}

// DuplicateTimestamps finds runs of adjacent points whose absolute
// timestamps are within epsilon of each other.
func (a *Analyzer) DuplicateTimestamps() []DuplicateGroup {
	times := a.doc.AbsoluteTimes()
	if len(times) < 2 {
		return nil
	}

	var groups []DuplicateGroup
	var current []int
	for i := 1; i < len(times); i++ {
		if abs(times[i]-times[i-1]) <= a.epsilon {
			if len(current) == 0 {
				current = []int{i - 1, i}
			} else {
				current = append(current, i)
			}
		} else if len(current) > 0 {
			groups = append(groups, DuplicateGroup{Indices: current, Timestamp: times[current[0]]})
			current = nil
		}
	}
	if len(current) > 0 {
		groups = append(groups, DuplicateGroup{Indices: current, Timestamp: times[current[0]]})
	}
	return groups
}

// TimeReversals finds adjacent pairs where the earlier point's timestamp
// exceeds the later one's by more than epsilon.
func (a *Analyzer) TimeReversals() []TimeReversal {
	times := a.doc.AbsoluteTimes()
	var reversals []TimeReversal
	for i := 0; i+1 < len(times); i++ {
		if times[i] > times[i+1]+a.epsilon {
			reversals = append(reversals, TimeReversal{
				FirstIndex:  i,
				SecondIndex: i + 1,
				TimeBefore:  times[i],
				TimeAfter:   times[i+1],
			})
		}
	}
	return reversals
}

// FindAll runs both scans.
func (a *Analyzer) FindAll() Issues {
	return Issues{Duplicates: a.DuplicateTimestamps(), Reversals: a.TimeReversals()}
}

// Duplicate repair strategies.
const (
	StrategyCenter     = "center"
	StrategyShiftRight = "shift_right"
	StrategyShiftLeft  = "shift_left"
	StrategyRemove     = "remove"
	StrategyNone       = "none"
	StrategySort       = "sort"
)

var duplicateAliases = map[string]string{
	"distribute":   StrategyShiftRight,
	"minimum_slew": StrategyShiftRight,
}

var reversalAliases = map[string]string{
	"leave": StrategyNone,
}

// Repairer applies repair strategies to a source document.
type Repairer struct {
	source   *pwl.Document
	analyzer *Analyzer
}

// NewRepairer builds a repairer with the given timestamp tolerance; pass
// DefaultTimeEpsilon for the standard one.
func NewRepairer(doc *pwl.Document, epsilon float64) *Repairer {
	return &Repairer{source: doc, analyzer: NewAnalyzer(doc, epsilon)}
}

// Analyzer exposes the repairer's analyzer for issue reporting.
func (r *Repairer) Analyzer() *Analyzer { return r.analyzer }

// RepairDuplicates spreads or removes duplicate-timestamp groups. The
// spreading strategies open a window wide enough to honor maxSlewRate over
// the group's value span, at least timeTolerance apart per step, clamped
// between the neighboring points. Returns a new document; with strategy
// "none" or nothing to fix, an untouched copy of the source.
func (r *Repairer) RepairDuplicates(maxSlewRate, timeTolerance float64, strategy string) (*pwl.Document, error) {
	if maxSlewRate <= 0 {
		return nil, fmt.Errorf("%w: max_slew_rate must be positive", apperr.ErrInvalidParameter)
	}
	if timeTolerance <= 0 {
		return nil, fmt.Errorf("%w: time_tolerance must be positive", apperr.ErrInvalidParameter)
	}
	normalized := normalizeStrategy(strategy, duplicateAliases)
	switch normalized {
	case StrategyCenter, StrategyShiftRight, StrategyShiftLeft, StrategyRemove, StrategyNone:
	default:
		return nil, fmt.Errorf("%w: unsupported duplicate strategy %q", apperr.ErrInvalidParameter, strategy)
	}
	if normalized == StrategyNone {
		return r.source.Clone(), nil
	}

	groups := r.analyzer.DuplicateTimestamps()
	if len(groups) == 0 {
		return r.source.Clone(), nil
	}

	times := r.source.AbsoluteTimes()
	values := r.source.Values()
	points := r.source.Points()

	if normalized == StrategyRemove {
		drop := map[int]bool{}
		for _, g := range groups {
			for _, idx := range g.Indices[1:] {
				drop[idx] = true
			}
		}
		var keptPoints []*pwl.Point
		var keptTimes []float64
		for i, p := range points {
			if !drop[i] {
				keptPoints = append(keptPoints, p)
				keptTimes = append(keptTimes, times[i])
			}
		}
		return r.rebuild(keptPoints, keptTimes), nil
	}

	for _, g := range groups {
		spreadGroup(times, values, g, maxSlewRate, timeTolerance, normalized)
	}
	return r.rebuild(points, times), nil
}

// RepairTimeReversals fixes backwards time with strategy "sort" (stable
// reorder by timestamp), "remove" (drop the later point of each reversal),
// or "none".
func (r *Repairer) RepairTimeReversals(strategy string) (*pwl.Document, error) {
	normalized := normalizeStrategy(strategy, reversalAliases)
	switch normalized {
	case StrategySort, StrategyRemove, StrategyNone:
	default:
		return nil, fmt.Errorf("%w: unsupported reversal strategy %q", apperr.ErrInvalidParameter, strategy)
	}
	if normalized == StrategyNone {
		return r.source.Clone(), nil
	}

	reversals := r.analyzer.TimeReversals()
	if len(reversals) == 0 {
		return r.source.Clone(), nil
	}

	times := r.source.AbsoluteTimes()
	points := r.source.Points()

	if normalized == StrategyRemove {
		drop := map[int]bool{}
		for _, rev := range reversals {
			drop[rev.SecondIndex] = true
		}
		var keptPoints []*pwl.Point
		var keptTimes []float64
		for i, p := range points {
			if !drop[i] {
				keptPoints = append(keptPoints, p)
				keptTimes = append(keptTimes, times[i])
			}
		}
		return r.rebuild(keptPoints, keptTimes), nil
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return times[order[i]] < times[order[j]] })

	sortedPoints := make([]*pwl.Point, len(points))
	sortedTimes := make([]float64, len(points))
	for pos, idx := range order {
		sortedPoints[pos] = points[idx]
		sortedTimes[pos] = times[idx]
	}
	return r.rebuild(sortedPoints, sortedTimes), nil
}

// spreadGroup rewrites the timestamps of one duplicate group in place. The
// window is the larger of the slew-limited span and the minimum tolerance
// span, positioned per strategy and clamped between the neighbors.
func spreadGroup(times, values []float64, g DuplicateGroup, maxSlewRate, timeTolerance float64, strategy string) {
	indices := g.Indices
	if len(indices) < 2 {
		return
	}
	startIdx := indices[0]
	endIdx := indices[len(indices)-1]
	originTime := times[startIdx]

	vmin, vmax := values[indices[0]], values[indices[0]]
	for _, i := range indices[1:] {
		if values[i] < vmin {
			vmin = values[i]
		}
		if values[i] > vmax {
			vmax = values[i]
		}
	}
	valueSpan := vmax - vmin
	slewSpan := 0.0
	if valueSpan != 0 {
		slewSpan = valueSpan / maxSlewRate
	}
	minSpan := timeTolerance * float64(len(indices)-1)
	targetSpan := slewSpan
	if minSpan > targetSpan {
		targetSpan = minSpan
	}

	hasMinStart := false
	minStart := 0.0
	if startIdx > 0 {
		hasMinStart = true
		minStart = times[startIdx-1] + timeTolerance
	} else if strategy == StrategyCenter || strategy == StrategyShiftRight {
		hasMinStart = true
		minStart = originTime
	}
	hasMaxEnd := false
	maxEnd := 0.0
	if endIdx+1 < len(times) {
		hasMaxEnd = true
		maxEnd = times[endIdx+1] - timeTolerance
	}

	var windowStart, windowEnd float64
	switch strategy {
	case StrategyShiftLeft:
		windowEnd = originTime
		if hasMaxEnd && maxEnd < windowEnd {
			windowEnd = maxEnd
		}
		windowStart = windowEnd - targetSpan
		if hasMinStart && windowStart < minStart {
			windowStart = minStart
			windowEnd = windowStart + targetSpan
		}
	case StrategyCenter:
		windowStart = originTime - targetSpan/2
		windowEnd = windowStart + targetSpan
		if hasMinStart && windowStart < minStart {
			shift := minStart - windowStart
			windowStart += shift
			windowEnd += shift
		}
		if hasMaxEnd && windowEnd > maxEnd {
			shift := windowEnd - maxEnd
			windowStart -= shift
			windowEnd -= shift
		}
	default: // shift_right and its aliases
		windowStart = originTime
		if hasMinStart && windowStart < minStart {
			windowStart = minStart
		}
		windowEnd = windowStart + targetSpan
		if hasMaxEnd && windowEnd > maxEnd {
			windowEnd = maxEnd
			windowStart = windowEnd - targetSpan
		}
	}

	if windowEnd <= windowStart {
		windowEnd = windowStart + minSpan
	}
	span := windowEnd - windowStart
	if span < minSpan {
		deficit := minSpan - span
		switch strategy {
		case StrategyShiftLeft:
			windowStart -= deficit
		case StrategyShiftRight:
			windowEnd += deficit
		default:
			windowStart -= deficit / 2
			windowEnd += deficit / 2
		}
		span = minSpan
	}

	spacing := span / float64(len(indices)-1)
	for offset, idx := range indices {
		times[idx] = windowStart + spacing*float64(offset)
	}
}

// rebuild materializes repaired timestamps into a new document. Each point
// keeps its value text and its prior relativity; time tokens are re-rendered
// in the style of the point's own previous token, with relative deltas
// clamped to zero.
func (r *Repairer) rebuild(points []*pwl.Point, absoluteTimes []float64) *pwl.Document {
	doc := pwl.New()
	doc.Timestep = r.source.Timestep
	doc.DefaultFormat = r.source.DefaultFormat

	previous := 0.0
	for i, p := range points {
		var timeText string
		relative := false
		if i == 0 || !p.IsRelative() {
			timeText = notation.FormatLikeReference(absoluteTimes[i], p.TimeText())
		} else {
			delta := absoluteTimes[i] - previous
			if delta < 0 {
				delta = 0
			}
			timeText = notation.FormatLikeReference(delta, p.TimeText())
			relative = true
		}
		doc.Append(pwl.NewPoint(timeText, p.ValueText(), relative))
		previous = absoluteTimes[i]
	}
	return doc
}

func normalizeStrategy(strategy string, aliases map[string]string) string {
	s := strings.ToLower(strings.TrimSpace(strategy))
	if mapped, ok := aliases[s]; ok {
		return mapped
	}
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
