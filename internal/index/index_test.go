package index

import (
	"os"
	"testing"
	"time"

	"github.com/dotmjsc/pwl-editor/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "pwled-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func pulseRow(path, checksum string) WaveformRow {
	return WaveformRow{
		Path:     path,
		Checksum: checksum,
		Stats: models.Stats{
			Points:   3,
			Duration: 2e-6,
			MinValue: 0,
			MaxValue: 5,
			Format:   "relative",
		},
		UpdatedAt: time.Now(),
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM waveforms`).Scan(&count); err != nil {
		t.Fatalf("waveforms table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertWaveform(pulseRow("pulse.pwl", "abc123"), "0 0\n+1u 5\n+1u 0"); err != nil {
		t.Fatalf("UpsertWaveform: %v", err)
	}
	cs, err := db.GetChecksum("pulse.pwl")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetWaveformStats(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWaveform(pulseRow("stats.pwl", "s1"), "0 0\n+1u 5\n+1u 0")

	w, err := db.GetWaveform("stats.pwl")
	if err != nil {
		t.Fatalf("GetWaveform: %v", err)
	}
	if w == nil {
		t.Fatal("row not found")
	}
	if w.Stats.Points != 3 || w.Stats.Duration != 2e-6 || w.Stats.MaxValue != 5 {
		t.Errorf("stats = %+v", w.Stats)
	}

	missing, err := db.GetWaveform("nope.pwl")
	if err != nil || missing != nil {
		t.Errorf("missing lookup = %v, %v", missing, err)
	}
}

func TestDeleteWaveform(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWaveform(pulseRow("del.pwl", "x"), "0 0")

	if err := db.DeleteWaveform("del.pwl"); err != nil {
		t.Fatalf("DeleteWaveform: %v", err)
	}
	cs, _ := db.GetChecksum("del.pwl")
	if cs != "" {
		t.Errorf("deleted waveform still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWaveform(pulseRow("up.pwl", "1"), "old body")
	updated := pulseRow("up.pwl", "2")
	updated.Stats.Points = 9
	_ = db.UpsertWaveform(updated, "new body")

	cs, _ := db.GetChecksum("up.pwl")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	w, _ := db.GetWaveform("up.pwl")
	if w == nil || w.Stats.Points != 9 {
		t.Errorf("stats not updated: %+v", w)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.pwl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListWaveforms(t *testing.T) {
	db := testDB(t)
	rel := pulseRow("a.pwl", "1")
	abs := pulseRow("b.pwl", "2")
	abs.Stats.Format = "absolute"
	_ = db.UpsertWaveform(rel, "0 0")
	_ = db.UpsertWaveform(abs, "0 0")

	rows, total, err := db.ListWaveforms(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListWaveforms: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d, rows = %d", total, len(rows))
	}
	// Default sort is by path.
	if rows[0].Path != "a.pwl" || rows[1].Path != "b.pwl" {
		t.Errorf("order = %q, %q", rows[0].Path, rows[1].Path)
	}

	rows, total, err = db.ListWaveforms(10, 0, "absolute", "")
	if err != nil {
		t.Fatalf("ListWaveforms filtered: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "b.pwl" {
		t.Errorf("format filter: total = %d, rows = %+v", total, rows)
	}
}

func TestListWaveformsPagination(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWaveform(pulseRow("p1.pwl", "1"), "0 0")
	_ = db.UpsertWaveform(pulseRow("p2.pwl", "2"), "0 0")
	_ = db.UpsertWaveform(pulseRow("p3.pwl", "3"), "0 0")

	rows, total, err := db.ListWaveforms(2, 2, "", "")
	if err != nil {
		t.Fatalf("ListWaveforms: %v", err)
	}
	if total != 3 || len(rows) != 1 || rows[0].Path != "p3.pwl" {
		t.Errorf("pagination: total = %d, rows = %+v", total, rows)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWaveform(pulseRow("ramp-up.pwl", "1"), "0 0\n+1u 5")

	results, err := db.Search("ramp", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "ramp-up.pwl" {
		t.Errorf("search results = %+v, want 1 hit for ramp-up.pwl", results)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertWaveform(pulseRow("a.pwl", "csa"), "0 0")
	_ = db.UpsertWaveform(pulseRow("b.pwl", "csb"), "0 0")

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 2 || all["a.pwl"] != "csa" || all["b.pwl"] != "csb" {
		t.Errorf("checksums = %v", all)
	}
}
