// Package editor is the workflow service owning one live waveform document:
// it routes every mutation through the undo history, carries the export
// preferences, and remembers the last generator settings. Transports (CLI,
// HTTP, MCP) call into this package instead of assembling the core packages
// themselves.
package editor

import (
	"fmt"
	"sort"

	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/generate"
	"github.com/dotmjsc/pwl-editor/internal/history"
	"github.com/dotmjsc/pwl-editor/internal/insert"
	"github.com/dotmjsc/pwl-editor/internal/notation"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
	"github.com/dotmjsc/pwl-editor/internal/repair"
)

// DefaultPrecision is the significant-digit count for re-rendered numbers.
const DefaultPrecision = 9

// ApplyMode selects how generated waveforms combine with the current
// document.
type ApplyMode string

const (
	ApplyReplace ApplyMode = "replace"
	ApplyAppend  ApplyMode = "append"
)

// Shape names a generator.
type Shape string

const (
	ShapeSquare   Shape = "square"
	ShapeTriangle Shape = "triangle"
	ShapeSaw      Shape = "saw"
)

// NumberStyle selects a notation family for bulk conversion.
type NumberStyle string

const (
	StyleSI          NumberStyle = "si"
	StyleEngineering NumberStyle = "engineering"
)

// GeneratorSettings remembers the most recent generator invocation so a
// frontend can pre-fill its dialogs.
type GeneratorSettings struct {
	Square    *generate.SquareConfig   `json:"square,omitempty"`
	Triangle  *generate.TriangleConfig `json:"triangle,omitempty"`
	Saw       *generate.SawConfig      `json:"saw,omitempty"`
	LastShape Shape                    `json:"last_shape,omitempty"`
	LastMode  ApplyMode                `json:"last_mode,omitempty"`
}

// RepairParams bundles the knobs of a combined repair run.
type RepairParams struct {
	MaxSlewRate       float64 `json:"max_slew_rate"`
	TimeTolerance     float64 `json:"time_tolerance"`
	DuplicateStrategy string  `json:"duplicate_strategy"`
	ReversalStrategy  string  `json:"reversal_strategy"`
}

// DefaultRepairParams mirrors the defaults a frontend offers: conservative
// slew, picosecond-scale tolerance, centered spreading and sorting.
func DefaultRepairParams() RepairParams {
	return RepairParams{
		MaxSlewRate:       1e8,
		TimeTolerance:     repair.DefaultTimeTolerance,
		DuplicateStrategy: repair.StrategyCenter,
		ReversalStrategy:  repair.StrategySort,
	}
}

// Service owns the live document and its undo history.
type Service struct {
	doc          *pwl.Document
	hist         *history.History
	exportFormat pwl.ExportFormat
	precision    int
	originalText string
	settings     GeneratorSettings
}

// New builds an editor with an empty document. maxHistory and precision
// fall back to their defaults when non-positive.
func New(maxHistory, precision int) *Service {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	s := &Service{
		doc:          pwl.New(),
		hist:         history.New(maxHistory),
		exportFormat: pwl.ExportPreserveMixed,
		precision:    precision,
	}
	s.hist.SaveState(s.doc, "Initial empty state")
	return s
}

// Document exposes the live document for read access.
func (s *Service) Document() *pwl.Document { return s.doc }

// Render serializes the document with the current export preference.
func (s *Service) Render() string {
	return s.doc.ToText(s.exportFormat, s.precision, true)
}

// ExportFormat returns the active export format.
func (s *Service) ExportFormat() pwl.ExportFormat { return s.exportFormat }

// SetExportFormat changes how Render serializes timing.
func (s *Service) SetExportFormat(f pwl.ExportFormat) { s.exportFormat = f }

// Settings returns the remembered generator settings.
func (s *Service) Settings() GeneratorSettings { return s.settings }

func (s *Service) commit(description string) {
	s.hist.SaveState(s.doc, description)
}

// NewDocument discards the current document and history.
func (s *Service) NewDocument() {
	s.doc = pwl.New()
	s.originalText = ""
	s.hist.Clear()
	s.hist.SaveState(s.doc, "Initial empty state")
}

// LoadText replaces the document with parsed text and restarts the history
// from it. The raw text is kept so original formatting can be restored
// after bulk conversions.
func (s *Service) LoadText(text string) error {
	doc, err := pwl.ParseText(text)
	if err != nil {
		return err
	}
	s.doc = doc
	s.originalText = text
	s.hist.Clear()
	s.hist.SaveState(s.doc, "Loaded document")
	return nil
}

// SetText replaces the document content as an undoable edit.
func (s *Service) SetText(text, description string) error {
	doc, err := pwl.ParseText(text)
	if err != nil {
		return err
	}
	s.doc = doc
	s.commit(description)
	return nil
}

// AddPointAbove inserts a new point before index with a suggested time.
// On an empty document it seeds the default first point. Returns the new
// point's index.
func (s *Service) AddPointAbove(index int) (int, error) {
	if s.doc.Len() == 0 {
		timeText, valueText := insert.EmptyDefaults()
		s.doc.AddPointWithMode(timeText, valueText, false)
		s.commit("Add point")
		return 0, nil
	}
	current := s.doc.Point(index)
	if current == nil {
		return 0, fmt.Errorf("%w: point index %d", apperr.ErrNotFound, index)
	}
	prev := s.doc.Point(index - 1)
	timeText := insert.TimeAbove(current, prev)
	p := pwl.NewPoint(timeText, current.ValueText(), current.IsRelative())
	if err := s.doc.InsertAt(index, p); err != nil {
		return 0, err
	}
	s.commit("Add point")
	return index, nil
}

// AddPointBelow inserts a new point after index with a suggested time.
func (s *Service) AddPointBelow(index int) (int, error) {
	if s.doc.Len() == 0 {
		timeText, valueText := insert.EmptyDefaults()
		s.doc.AddPointWithMode(timeText, valueText, false)
		s.commit("Add point")
		return 0, nil
	}
	current := s.doc.Point(index)
	if current == nil {
		return 0, fmt.Errorf("%w: point index %d", apperr.ErrNotFound, index)
	}
	next := s.doc.Point(index + 1)
	var timeText string
	if next != nil {
		timeText = insert.TimeBelow(current, next)
	} else {
		timeText = insert.NextAfter(current)
	}
	// A point inserted below the absolute head of a relative document still
	// joins the relative chain.
	relative := current.IsRelative() || (next != nil && next.IsRelative())
	p := pwl.NewPoint(timeText, current.ValueText(), relative)
	if err := s.doc.InsertAt(index+1, p); err != nil {
		return 0, err
	}
	s.commit("Add point")
	return index + 1, nil
}

// UpdatePoint rewrites the tokens of an existing point.
func (s *Service) UpdatePoint(index int, timeText, valueText string) error {
	p := s.doc.Point(index)
	if p == nil {
		return fmt.Errorf("%w: point index %d", apperr.ErrNotFound, index)
	}
	if timeText != "" {
		if _, err := notation.Parse(timeText); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidParameter, err)
		}
		p.SetTimeText(timeText)
	}
	if valueText != "" {
		if _, err := notation.Parse(valueText); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidParameter, err)
		}
		p.SetValueText(valueText)
	}
	s.commit("Edit point")
	return nil
}

// RemovePoints deletes the given point indices as one undoable step.
func (s *Service) RemovePoints(indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, i := range sorted {
		if err := s.doc.RemovePoint(i); err != nil {
			return err
		}
	}
	s.commit("Remove points")
	return nil
}

// MoveUp swaps a point with its predecessor.
func (s *Service) MoveUp(index int) error {
	if err := s.doc.SwapPoints(index-1, index); err != nil {
		return err
	}
	s.commit("Move point up")
	return nil
}

// MoveDown swaps a point with its successor.
func (s *Service) MoveDown(index int) error {
	if err := s.doc.SwapPoints(index, index+1); err != nil {
		return err
	}
	s.commit("Move point down")
	return nil
}

// Sort reorders the document chronologically.
func (s *Service) Sort() {
	s.doc.SortByTime()
	s.commit("Sort by time")
}

// ConvertToRelative rewrites all timing as deltas.
func (s *Service) ConvertToRelative() {
	s.doc.ConvertToRelative()
	s.commit("Convert to relative timing")
}

// ConvertToAbsolute rewrites all timing as absolute stamps.
func (s *Service) ConvertToAbsolute() {
	s.doc.ConvertToAbsolute()
	s.commit("Convert to absolute timing")
}

// ConvertTimes rewrites every time token into the given notation style,
// keeping each point's relativity.
func (s *Service) ConvertTimes(style NumberStyle) error {
	if err := convertTokens(s.doc, style, true); err != nil {
		return err
	}
	s.commit("Convert time notation")
	return nil
}

// ConvertValues rewrites every value token into the given notation style.
func (s *Service) ConvertValues(style NumberStyle) error {
	if err := convertTokens(s.doc, style, false); err != nil {
		return err
	}
	s.commit("Convert value notation")
	return nil
}

func convertTokens(doc *pwl.Document, style NumberStyle, times bool) error {
	for _, p := range doc.Points() {
		var v float64
		if times {
			v = p.TimeValue()
		} else {
			v = p.Value()
		}
		var text string
		switch style {
		case StyleSI:
			text = notation.FormatSI(v)
		case StyleEngineering:
			text = notation.FormatEngineering(v, false)
		default:
			return fmt.Errorf("%w: unknown notation style %q", apperr.ErrInvalidParameter, style)
		}
		if times {
			p.SetTimeText(text)
		} else {
			p.SetValueText(text)
		}
	}
	return nil
}

// RestoreOriginalFormatting re-parses the text the document was loaded
// from, reverting bulk notation conversions.
func (s *Service) RestoreOriginalFormatting() error {
	if s.originalText == "" {
		return fmt.Errorf("%w: no loaded text to restore", apperr.ErrNotFound)
	}
	doc, err := pwl.ParseText(s.originalText)
	if err != nil {
		return err
	}
	s.doc = doc
	s.commit("Restore original formatting")
	return nil
}

// Analyze scans the current document for structural issues.
func (s *Service) Analyze(epsilon float64) repair.Issues {
	return repair.NewAnalyzer(s.doc, epsilon).FindAll()
}

// Repair runs the duplicate and reversal repairs with the given parameters
// and commits the result as one undoable step.
func (s *Service) Repair(params RepairParams) error {
	fixed, err := repair.NewRepairer(s.doc, repair.DefaultTimeEpsilon).
		RepairDuplicates(params.MaxSlewRate, params.TimeTolerance, params.DuplicateStrategy)
	if err != nil {
		return err
	}
	fixed, err = repair.NewRepairer(fixed, repair.DefaultTimeEpsilon).
		RepairTimeReversals(params.ReversalStrategy)
	if err != nil {
		return err
	}
	s.doc = fixed
	s.commit("Repair waveform")
	return nil
}

// GenerateSquare synthesizes a square wave and applies it per mode.
func (s *Service) GenerateSquare(cfg generate.SquareConfig, mode ApplyMode) ([]string, error) {
	res, err := generate.Square(cfg)
	if err != nil {
		return nil, err
	}
	s.apply(res.Document, mode, "Generate square wave")
	s.settings.Square = &cfg
	s.settings.LastShape = ShapeSquare
	s.settings.LastMode = mode
	return res.Warnings, nil
}

// GenerateTriangle synthesizes a triangle wave and applies it per mode.
func (s *Service) GenerateTriangle(cfg generate.TriangleConfig, mode ApplyMode) ([]string, error) {
	res, err := generate.Triangle(cfg)
	if err != nil {
		return nil, err
	}
	s.apply(res.Document, mode, "Generate triangle wave")
	s.settings.Triangle = &cfg
	s.settings.LastShape = ShapeTriangle
	s.settings.LastMode = mode
	return res.Warnings, nil
}

// GenerateSaw synthesizes a saw wave and applies it per mode.
func (s *Service) GenerateSaw(cfg generate.SawConfig, mode ApplyMode) ([]string, error) {
	res, err := generate.Saw(cfg)
	if err != nil {
		return nil, err
	}
	s.apply(res.Document, mode, "Generate saw wave")
	s.settings.Saw = &cfg
	s.settings.LastShape = ShapeSaw
	s.settings.LastMode = mode
	return res.Warnings, nil
}

func (s *Service) apply(generated *pwl.Document, mode ApplyMode, description string) {
	if mode == ApplyAppend {
		s.doc = generate.Append(s.doc, generated)
	} else {
		generated.Timestep = s.doc.Timestep
		s.doc = generated
	}
	s.commit(description)
}

// Undo reverts the last committed change. Returns the description of the
// reverted change.
func (s *Service) Undo() (string, bool) {
	doc, description, ok := s.hist.Undo()
	if !ok {
		return "", false
	}
	s.doc = doc
	return description, true
}

// Redo re-applies the most recently undone change.
func (s *Service) Redo() (string, bool) {
	doc, description, ok := s.hist.Redo()
	if !ok {
		return "", false
	}
	s.doc = doc
	return description, true
}

// CanUndo reports whether an undo step exists.
func (s *Service) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether a redo step exists.
func (s *Service) CanRedo() bool { return s.hist.CanRedo() }

// UndoDescription names the change an undo would revert.
func (s *Service) UndoDescription() string { return s.hist.UndoDescription() }

// RedoDescription names the change a redo would restore.
func (s *Service) RedoDescription() string { return s.hist.RedoDescription() }

// Discretize samples the document at its own timestep for plotting.
func (s *Service) Discretize() ([]float64, []float64, error) {
	return s.doc.Discretize(s.doc.Timestep)
}
