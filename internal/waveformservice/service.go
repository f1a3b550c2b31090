// Package waveformservice coordinates workspace storage and the catalog
// for waveform files.
package waveformservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/checksum"
	"github.com/dotmjsc/pwl-editor/internal/index"
	"github.com/dotmjsc/pwl-editor/internal/models"
	"github.com/dotmjsc/pwl-editor/internal/parser"
	"github.com/dotmjsc/pwl-editor/internal/storage"
)

// WaveformDetail is the full representation of a waveform file.
type WaveformDetail struct {
	Path      string       `json:"path"`
	Content   string       `json:"content"`
	Checksum  string       `json:"checksum"`
	Stats     models.Stats `json:"stats"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// WaveformListItem is a lightweight item in a list response.
type WaveformListItem struct {
	Path      string       `json:"path"`
	Checksum  string       `json:"checksum"`
	Stats     models.Stats `json:"stats"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Service coordinates storage and catalog operations.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new waveform service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetWaveform reads a waveform from storage and parses it.
func (s *Service) GetWaveform(_ context.Context, path string) (*WaveformDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateWaveform validates, writes, and indexes a new waveform file.
func (s *Service) CreateWaveform(_ context.Context, path string, content []byte) (*WaveformDetail, error) {
	if _, err := parser.Parse(content); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// UpdateWaveform writes updated content with optimistic concurrency.
func (s *Service) UpdateWaveform(_ context.Context, path string, content []byte, ifMatch string) (*WaveformDetail, error) {
	if _, err := parser.Parse(content); err != nil {
		return nil, err
	}
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// DeleteWaveform removes a waveform from storage and catalog.
func (s *Service) DeleteWaveform(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteWaveform(path)
}

// ListWaveforms returns paginated waveforms with optional format filter.
func (s *Service) ListWaveforms(_ context.Context, limit, offset int, format, sort string) ([]WaveformListItem, int, error) {
	rows, total, err := s.db.ListWaveforms(limit, offset, format, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]WaveformListItem, len(rows))
	for i, r := range rows {
		items[i] = WaveformListItem{
			Path:      r.Path,
			Checksum:  r.Checksum,
			Stats:     r.Stats,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// IndexFile parses data and upserts it into the catalog.
// Exported so that sync and watcher can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertWaveform(index.WaveformRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		Stats:     res.Stats,
		UpdatedAt: time.Now(),
	}, res.Body)
}

// buildDetail constructs a WaveformDetail from raw data without re-reading
// the file.
func (s *Service) buildDetail(path string, data []byte) (*WaveformDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &WaveformDetail{
		Path:      path,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Stats:     res.Stats,
		UpdatedAt: time.Now(),
	}, nil
}
