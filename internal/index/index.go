package index

// WaveformIndex defines the interface for catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type WaveformIndex interface {
	UpsertWaveform(w WaveformRow, body string) error
	DeleteWaveform(path string) error
	GetChecksum(path string) (string, error)
	GetWaveform(path string) (*WaveformRow, error)
	ListWaveforms(limit, offset int, format, sort string) ([]WaveformRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies WaveformIndex at compile time.
var _ WaveformIndex = (*DB)(nil)
