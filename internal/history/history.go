// Package history keeps bounded undo/redo stacks of serialized waveform
// snapshots. Snapshots are plain PWL text so the history is independent of
// in-memory document identity; the empty string is the canonical "empty
// document" baseline and is never parsed.
package history

import (
	"github.com/dotmjsc/pwl-editor/internal/pwl"
)

// DefaultMaxEntries bounds the undo stack when the caller passes no limit.
const DefaultMaxEntries = 50

type entry struct {
	text        string
	description string
}

// History is a bounded undo/redo stack. The top of the undo stack always
// mirrors the current document state, so undo needs at least two entries.
type History struct {
	undo          []entry
	redo          []entry
	max           int
	baselineSaved bool
}

// New returns a history bounded to max entries; non-positive means
// DefaultMaxEntries.
func New(max int) *History {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &History{max: max}
}

// SaveState pushes the document's serialized state. The first save on an
// empty history first records the empty baseline so the initial state stays
// reachable. Saving a state identical to the top is a no-op; any save
// clears the redo stack; the oldest entry is evicted beyond the bound.
func (h *History) SaveState(doc *pwl.Document, description string) {
	text := snapshot(doc)

	if !h.baselineSaved && len(h.undo) == 0 {
		h.undo = append(h.undo, entry{text: "", description: "Initial empty state"})
		h.baselineSaved = true
		if text == "" {
			return
		}
	}

	if top := h.undo[len(h.undo)-1]; top.text == text {
		return
	}

	h.undo = append(h.undo, entry{text: text, description: description})
	if len(h.undo) > h.max {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// CanUndo reports whether an earlier state exists.
func (h *History) CanUndo() bool { return len(h.undo) > 1 }

// CanRedo reports whether an undone state can be restored.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo moves the current state to the redo stack and returns the previous
// state re-parsed into a document. Returns ok=false when there is nothing
// to undo; an unparseable snapshot degrades to an empty document.
func (h *History) Undo() (*pwl.Document, string, bool) {
	if !h.CanUndo() {
		return nil, "", false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)

	restored := h.undo[len(h.undo)-1]
	return restore(restored.text), top.description, true
}

// Redo re-applies the most recently undone state.
func (h *History) Redo() (*pwl.Document, string, bool) {
	if !h.CanRedo() {
		return nil, "", false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)
	return restore(top.text), top.description, true
}

// UndoDescription names the change an Undo would revert.
func (h *History) UndoDescription() string {
	if !h.CanUndo() {
		return ""
	}
	return h.undo[len(h.undo)-1].description
}

// RedoDescription names the change a Redo would restore.
func (h *History) RedoDescription() string {
	if !h.CanRedo() {
		return ""
	}
	return h.redo[len(h.redo)-1].description
}

// Clear drops all history and the baseline flag.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.baselineSaved = false
}

// Len returns the undo stack depth, baseline included.
func (h *History) Len() int { return len(h.undo) }

// snapshot serializes a document preserving mixed timing and original
// tokens, so undo restores exactly what the user saw.
func snapshot(doc *pwl.Document) string {
	if doc == nil || doc.Len() == 0 {
		return ""
	}
	return doc.ToText(pwl.ExportPreserveMixed, 9, true)
}

func restore(text string) *pwl.Document {
	if text == "" {
		return pwl.New()
	}
	doc, err := pwl.ParseText(text)
	if err != nil {
		return pwl.New()
	}
	return doc
}
