// Package storage defines the workspace file-system abstraction.
package storage

import (
	"strings"

	"github.com/dotmjsc/pwl-editor/internal/models"
)

// Provider is the interface for workspace file operations.
type Provider interface {
	// List returns metadata for every waveform file under dir (relative to the workspace root).
	List(dir string) ([]models.WaveformMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the workspace root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the workspace root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the workspace root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the workspace root).
	Move(oldPath, newPath string) error
}

// waveformExtensions are the file suffixes treated as waveform sources.
var waveformExtensions = []string{".pwl", ".txt"}

// IsWaveformPath reports whether the path names a waveform file by
// extension. The watcher and list operations share this filter.
func IsWaveformPath(path string) bool {
	for _, ext := range waveformExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
