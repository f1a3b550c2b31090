package api

import (
	"github.com/dotmjsc/pwl-editor/internal/editor"
	"github.com/dotmjsc/pwl-editor/internal/generate"
	"github.com/dotmjsc/pwl-editor/internal/repair"
	"github.com/dotmjsc/pwl-editor/internal/waveformservice"
)

// CreateWaveformRequest is the request body for creating a waveform file.
type CreateWaveformRequest struct {
	Path    string `json:"path" example:"clocks/div2.pwl" validate:"required"`
	Content string `json:"content" example:"0 0\n+1u 5\n+1u 0" validate:"required"`
}

// UpdateWaveformRequest is the request body for updating a waveform file.
type UpdateWaveformRequest struct {
	Content string `json:"content" example:"0 0\n+2u 5" validate:"required"`
}

// WaveformDetail is the full waveform response type (aliased from the domain layer).
type WaveformDetail = waveformservice.WaveformDetail

// WaveformListItem is a lightweight item in a list response (aliased from the domain layer).
type WaveformListItem = waveformservice.WaveformListItem

// WaveformListResponse wraps paginated waveform listings.
type WaveformListResponse struct {
	Waveforms []WaveformListItem `json:"waveforms" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"clocks/div2.pwl" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// AnalyzeRequest carries a document to scan for structural issues.
type AnalyzeRequest struct {
	Text        string  `json:"text" validate:"required"`
	TimeEpsilon float64 `json:"time_epsilon,omitempty"`
}

// AnalyzeResponse reports the issues found in a document.
type AnalyzeResponse struct {
	Issues repair.Issues `json:"issues"`
	Clean  bool          `json:"clean"`
}

// RepairRequest carries a document plus the repair knobs. Zero-valued knobs
// fall back to defaults.
type RepairRequest struct {
	Text              string  `json:"text" validate:"required"`
	MaxSlewRate       float64 `json:"max_slew_rate,omitempty"`
	TimeTolerance     float64 `json:"time_tolerance,omitempty"`
	DuplicateStrategy string  `json:"duplicate_strategy,omitempty"`
	ReversalStrategy  string  `json:"reversal_strategy,omitempty"`
}

// RepairResponse returns the repaired document text.
type RepairResponse struct {
	Text string `json:"text" validate:"required"`
}

// GenerateRequest parameterizes a waveform generator run. Exactly one of
// Square, Triangle, or Saw must match the shape in the URL. In append mode
// BaseText is the existing document the generated wave is appended to.
type GenerateRequest struct {
	Mode     string                   `json:"mode,omitempty" example:"replace"`
	BaseText string                   `json:"base_text,omitempty"`
	Square   *generate.SquareConfig   `json:"square,omitempty"`
	Triangle *generate.TriangleConfig `json:"triangle,omitempty"`
	Saw      *generate.SawConfig      `json:"saw,omitempty"`
}

// GenerateResponse returns the generated document and any parameter warnings.
type GenerateResponse struct {
	Text     string   `json:"text" validate:"required"`
	Warnings []string `json:"warnings"`
}

// InsertRequest asks for a suggested point above or below an index.
type InsertRequest struct {
	Text     string `json:"text"`
	Index    int    `json:"index"`
	Position string `json:"position" example:"below" validate:"required"`
}

// InsertResponse returns the updated document and the new point's index.
type InsertResponse struct {
	Text  string `json:"text" validate:"required"`
	Index int    `json:"index"`
}

// ConvertRequest selects one or more bulk conversions to run on a document.
// Target switches time mode ("relative" or "absolute"); Times and Values
// reformat numbers ("si" or "engineering").
type ConvertRequest struct {
	Text   string `json:"text" validate:"required"`
	Target string `json:"target,omitempty" example:"relative"`
	Times  string `json:"times,omitempty" example:"si"`
	Values string `json:"values,omitempty"`
}

// ConvertResponse returns the converted document text.
type ConvertResponse struct {
	Text string `json:"text" validate:"required"`
}

// ViewportSpec maps a data window onto a pixel rectangle for hit-testing.
// Pixel y grows downward.
type ViewportSpec struct {
	XMin     float64 `json:"x_min"`
	XMax     float64 `json:"x_max"`
	YMin     float64 `json:"y_min"`
	YMax     float64 `json:"y_max"`
	PxLeft   float64 `json:"px_left"`
	PxTop    float64 `json:"px_top"`
	PxWidth  float64 `json:"px_width"`
	PxHeight float64 `json:"px_height"`
}

// NearestSpec selects the point closest to a pixel position, if one lies
// within Tolerance pixels (0 uses the default click radius).
type NearestSpec struct {
	PX        float64 `json:"px"`
	PY        float64 `json:"py"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// BoxSpec selects every point inside a data-space rectangle. Corner order
// does not matter.
type BoxSpec struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// SelectRequest runs point selection against a document. Exactly one of
// Nearest or Box must be set; Nearest additionally needs the viewport for
// the data-to-pixel transform.
type SelectRequest struct {
	Text     string       `json:"text" validate:"required"`
	Viewport ViewportSpec `json:"viewport,omitempty"`
	Nearest  *NearestSpec `json:"nearest,omitempty"`
	Box      *BoxSpec     `json:"box,omitempty"`
}

// SelectResponse lists the selected point indices in document order.
type SelectResponse struct {
	Indices []int `json:"indices"`
}

// repairParams translates a RepairRequest into editor parameters,
// substituting defaults for omitted knobs.
func (r RepairRequest) repairParams() editor.RepairParams {
	params := editor.DefaultRepairParams()
	if r.MaxSlewRate > 0 {
		params.MaxSlewRate = r.MaxSlewRate
	}
	if r.TimeTolerance > 0 {
		params.TimeTolerance = r.TimeTolerance
	}
	if r.DuplicateStrategy != "" {
		params.DuplicateStrategy = r.DuplicateStrategy
	}
	if r.ReversalStrategy != "" {
		params.ReversalStrategy = r.ReversalStrategy
	}
	return params
}
