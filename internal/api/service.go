package api

import (
	"fmt"

	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/editor"
	"github.com/dotmjsc/pwl-editor/internal/geometry"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
	"github.com/dotmjsc/pwl-editor/internal/repair"
)

// Ops runs stateless document operations for the API layer. Every request
// carries the full document text; nothing is persisted between calls.
type Ops struct {
	precision int
}

// NewOps creates an operations engine with the given render precision.
func NewOps(precision int) *Ops {
	return &Ops{precision: precision}
}

// session builds a throwaway editor loaded with text. An empty text yields
// an empty document.
func (o *Ops) session(text string) (*editor.Service, error) {
	ed := editor.New(0, o.precision)
	if text != "" {
		if err := ed.LoadText(text); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

// Analyze scans a document for duplicate timestamps and time reversals.
func (o *Ops) Analyze(text string, epsilon float64) (repair.Issues, error) {
	ed, err := o.session(text)
	if err != nil {
		return repair.Issues{}, err
	}
	if epsilon <= 0 {
		epsilon = repair.DefaultTimeEpsilon
	}
	return ed.Analyze(epsilon), nil
}

// Repair applies the duplicate and reversal repairs and returns the fixed
// document text.
func (o *Ops) Repair(text string, params editor.RepairParams) (string, error) {
	ed, err := o.session(text)
	if err != nil {
		return "", err
	}
	if err := ed.Repair(params); err != nil {
		return "", err
	}
	return ed.Render(), nil
}

// Generate synthesizes a waveform per the request and returns the resulting
// document text plus parameter warnings.
func (o *Ops) Generate(shape string, req GenerateRequest) (string, []string, error) {
	ed, err := o.session(req.BaseText)
	if err != nil {
		return "", nil, err
	}

	mode := editor.ApplyMode(req.Mode)
	if mode == "" {
		mode = editor.ApplyReplace
	}

	var warnings []string
	switch editor.Shape(shape) {
	case editor.ShapeSquare:
		if req.Square == nil {
			return "", nil, fmt.Errorf("square config is required")
		}
		warnings, err = ed.GenerateSquare(*req.Square, mode)
	case editor.ShapeTriangle:
		if req.Triangle == nil {
			return "", nil, fmt.Errorf("triangle config is required")
		}
		warnings, err = ed.GenerateTriangle(*req.Triangle, mode)
	case editor.ShapeSaw:
		if req.Saw == nil {
			return "", nil, fmt.Errorf("saw config is required")
		}
		warnings, err = ed.GenerateSaw(*req.Saw, mode)
	default:
		return "", nil, fmt.Errorf("unknown shape: %s", shape)
	}
	if err != nil {
		return "", nil, err
	}
	return ed.Render(), warnings, nil
}

// Insert adds a suggested point above or below the given index and returns
// the updated text plus the new point's index.
func (o *Ops) Insert(text string, index int, position string) (string, int, error) {
	ed, err := o.session(text)
	if err != nil {
		return "", 0, err
	}

	var newIndex int
	switch position {
	case "above":
		newIndex, err = ed.AddPointAbove(index)
	case "below":
		newIndex, err = ed.AddPointBelow(index)
	default:
		return "", 0, fmt.Errorf("%w: position must be 'above' or 'below'", apperr.ErrInvalidParameter)
	}
	if err != nil {
		return "", 0, err
	}
	return ed.Render(), newIndex, nil
}

// Select runs nearest-point or box selection against a document. A click
// that hits nothing is not an error; it yields an empty selection.
func (o *Ops) Select(req SelectRequest) ([]int, error) {
	doc, err := pwl.ParseText(req.Text)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Nearest != nil && req.Box != nil:
		return nil, fmt.Errorf("%w: nearest and box are mutually exclusive", apperr.ErrInvalidParameter)
	case req.Nearest != nil:
		v := geometry.Viewport{
			XMin: req.Viewport.XMin, XMax: req.Viewport.XMax,
			YMin: req.Viewport.YMin, YMax: req.Viewport.YMax,
			PxLeft: req.Viewport.PxLeft, PxTop: req.Viewport.PxTop,
			PxWidth: req.Viewport.PxWidth, PxHeight: req.Viewport.PxHeight,
		}
		idx, ok := geometry.NearestPoint(doc, v, req.Nearest.PX, req.Nearest.PY, req.Nearest.Tolerance)
		if !ok {
			return []int{}, nil
		}
		return []int{idx}, nil
	case req.Box != nil:
		sel := geometry.PointsInBox(doc, req.Box.X1, req.Box.Y1, req.Box.X2, req.Box.Y2)
		if sel == nil {
			sel = []int{}
		}
		return sel, nil
	default:
		return nil, fmt.Errorf("%w: either nearest or box is required", apperr.ErrInvalidParameter)
	}
}

// Convert runs the requested bulk conversions in order: time mode first,
// then time and value reformatting.
func (o *Ops) Convert(req ConvertRequest) (string, error) {
	ed, err := o.session(req.Text)
	if err != nil {
		return "", err
	}

	switch req.Target {
	case "":
	case "relative":
		ed.ConvertToRelative()
	case "absolute":
		ed.ConvertToAbsolute()
	default:
		return "", fmt.Errorf("%w: target must be 'relative' or 'absolute'", apperr.ErrInvalidParameter)
	}

	if req.Times != "" {
		if err := ed.ConvertTimes(editor.NumberStyle(req.Times)); err != nil {
			return "", err
		}
	}
	if req.Values != "" {
		if err := ed.ConvertValues(editor.NumberStyle(req.Values)); err != nil {
			return "", err
		}
	}
	return ed.Render(), nil
}
