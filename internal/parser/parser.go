// Package parser turns raw waveform file bytes into a document plus the
// summary statistics the catalog stores.
package parser

import (
	"github.com/dotmjsc/pwl-editor/internal/models"
	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// Result holds the output of parsing a waveform file.
type Result struct {
	Document *pwl.Document
	Stats    models.Stats
	Body     string
}

// Parse reads PWL text bytes and derives catalog statistics. Malformed
// input fails the whole parse; the caller decides whether to skip or
// surface the error.
func Parse(data []byte) (*Result, error) {
	text := string(data)
	doc, err := pwl.ParseText(text)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document: doc,
		Stats:    stats(doc),
		Body:     text,
	}, nil
}

// stats derives the summary row for an indexed waveform. Duration is the
// last absolute timestamp; value bounds come from the point values, not
// from interpolated samples.
func stats(doc *pwl.Document) models.Stats {
	s := models.Stats{
		Points: doc.Len(),
		Format: string(doc.DefaultFormat),
	}
	times := doc.AbsoluteTimes()
	if len(times) > 0 {
		s.Duration = times[len(times)-1]
	}
	values := doc.Values()
	for i, v := range values {
		if i == 0 || v < s.MinValue {
			s.MinValue = v
		}
		if i == 0 || v > s.MaxValue {
			s.MaxValue = v
		}
	}
	return s
}
