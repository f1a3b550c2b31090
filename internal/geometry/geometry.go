// Package geometry provides the pure coordinate math a plot frontend needs:
// data/pixel transforms over a viewport and point-selection helpers. All
// functions degrade silently: a degenerate viewport yields ok=false or empty
// selections, never an error or a panic.
package geometry

import (
	"math"

	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// DefaultNearestTolerance is the pixel radius within which a click selects a
// point.
const DefaultNearestTolerance = 10.0

// Viewport maps a data window onto a pixel rectangle. Pixel y grows
// downward, so the data maximum renders at the rectangle's top edge.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64

	PxLeft, PxTop    float64
	PxWidth, PxHeight float64
}

func (v Viewport) valid() bool {
	return v.XMax > v.XMin && v.YMax > v.YMin && v.PxWidth > 0 && v.PxHeight > 0 &&
		!math.IsNaN(v.XMin) && !math.IsNaN(v.XMax) && !math.IsNaN(v.YMin) && !math.IsNaN(v.YMax)
}

// DataToPixel transforms a data coordinate into pixel space. ok is false
// when the viewport is degenerate.
func (v Viewport) DataToPixel(x, y float64) (float64, float64, bool) {
	if !v.valid() {
		return 0, 0, false
	}
	px := v.PxLeft + (x-v.XMin)/(v.XMax-v.XMin)*v.PxWidth
	py := v.PxTop + (v.YMax-y)/(v.YMax-v.YMin)*v.PxHeight
	return px, py, true
}

// PixelToData transforms a pixel coordinate back into data space.
func (v Viewport) PixelToData(px, py float64) (float64, float64, bool) {
	if !v.valid() {
		return 0, 0, false
	}
	x := v.XMin + (px-v.PxLeft)/v.PxWidth*(v.XMax-v.XMin)
	y := v.YMax - (py-v.PxTop)/v.PxHeight*(v.YMax-v.YMin)
	return x, y, true
}

// ClampPixelToAxes clamps a pixel coordinate into the viewport rectangle. A
// degenerate viewport returns the input unchanged.
func (v Viewport) ClampPixelToAxes(px, py float64) (float64, float64) {
	if v.PxWidth <= 0 || v.PxHeight <= 0 {
		return px, py
	}
	cx := math.Min(math.Max(px, v.PxLeft), v.PxLeft+v.PxWidth)
	cy := math.Min(math.Max(py, v.PxTop), v.PxTop+v.PxHeight)
	return cx, cy
}

// NearestPoint returns the index of the document point closest to the pixel
// position, if one lies within tolerance pixels. tolerance <= 0 uses
// DefaultNearestTolerance.
func NearestPoint(doc *pwl.Document, v Viewport, px, py, tolerance float64) (int, bool) {
	if doc == nil || doc.Len() == 0 {
		return 0, false
	}
	if tolerance <= 0 {
		tolerance = DefaultNearestTolerance
	}

	times := doc.AbsoluteTimes()
	values := doc.Values()

	nearest := -1
	minDistance := math.Inf(1)
	for i := range times {
		cx, cy, ok := v.DataToPixel(times[i], values[i])
		if !ok {
			continue
		}
		d := math.Hypot(px-cx, py-cy)
		if d < minDistance && d <= tolerance {
			minDistance = d
			nearest = i
		}
	}
	if nearest < 0 {
		return 0, false
	}
	return nearest, true
}

// PointsInBox returns the indices of all points inside the data-space
// rectangle spanned by two corners, bounds inclusive. Corner order does not
// matter.
func PointsInBox(doc *pwl.Document, x1, y1, x2, y2 float64) []int {
	if doc == nil || doc.Len() == 0 {
		return nil
	}
	minX, maxX := math.Min(x1, x2), math.Max(x1, x2)
	minY, maxY := math.Min(y1, y2), math.Max(y1, y2)

	times := doc.AbsoluteTimes()
	values := doc.Values()

	var selected []int
	for i := range times {
		if times[i] >= minX && times[i] <= maxX && values[i] >= minY && values[i] <= maxY {
			selected = append(selected, i)
		}
	}
	return selected
}
