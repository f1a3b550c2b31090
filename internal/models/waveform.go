// Package models defines the domain types shared by the storage, index and
// API layers.
package models

import "time"

// Stats summarizes a parsed waveform for catalog listings.
type Stats struct {
	Points   int     `json:"points"`
	Duration float64 `json:"duration"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`
	Format   string  `json:"format"`
}

// Waveform represents a parsed PWL file in the workspace.
type Waveform struct {
	Path      string    `json:"path"`
	Content   []byte    `json:"-"`
	Stats     Stats     `json:"stats"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WaveformMetadata is a lightweight representation returned by list
// operations.
type WaveformMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
