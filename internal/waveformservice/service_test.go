package waveformservice

import (
	"context"
	"errors"
	"testing"

	"github.com/dotmjsc/pwl-editor/internal/apperr"
	"github.com/dotmjsc/pwl-editor/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	return NewService(store, db)
}

func TestCreateAndGet(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateWaveform(ctx, "pulse.pwl", []byte("0 0\n+1u 5\n+1u 0"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Stats.Points != 3 || created.Stats.Format != "relative" {
		t.Errorf("stats = %+v", created.Stats)
	}

	got, err := svc.GetWaveform(ctx, "pulse.pwl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "0 0\n+1u 5\n+1u 0" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Checksum != created.Checksum {
		t.Errorf("checksum mismatch: %q vs %q", got.Checksum, created.Checksum)
	}
}

func TestCreateInvalidContent(t *testing.T) {
	svc := testService(t)
	if _, err := svc.CreateWaveform(context.Background(), "bad.pwl", []byte("one token")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateWaveform(ctx, "a.pwl", []byte("0 0")); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateWaveform(ctx, "a.pwl", []byte("0 1"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateOptimisticLock(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateWaveform(ctx, "a.pwl", []byte("0 0\n1u 1"))
	if err != nil {
		t.Fatal(err)
	}

	// Matching checksum succeeds.
	updated, err := svc.UpdateWaveform(ctx, "a.pwl", []byte("0 0\n1u 2"), created.Checksum)
	if err != nil {
		t.Fatalf("update with matching checksum: %v", err)
	}

	// The original checksum is now stale.
	_, err = svc.UpdateWaveform(ctx, "a.pwl", []byte("0 0\n1u 3"), created.Checksum)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	// Empty if-match skips the check.
	if _, err := svc.UpdateWaveform(ctx, "a.pwl", []byte("0 0\n1u 3"), ""); err != nil {
		t.Errorf("update without if-match: %v", err)
	}
	_ = updated
}

func TestUpdateMissing(t *testing.T) {
	svc := testService(t)
	_, err := svc.UpdateWaveform(context.Background(), "nope.pwl", []byte("0 0"), "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteWaveform(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateWaveform(ctx, "a.pwl", []byte("0 0")); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteWaveform(ctx, "a.pwl"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetWaveform(ctx, "a.pwl"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteWaveform(ctx, "a.pwl"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestListWithFormatFilter(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateWaveform(ctx, "rel.pwl", []byte("0 0\n+1u 5")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateWaveform(ctx, "abs.pwl", []byte("0 0\n1u 5")); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.ListWaveforms(ctx, 10, 0, "", "path")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(items))
	}
	if items[0].Path != "abs.pwl" {
		t.Errorf("sort by path: first = %q", items[0].Path)
	}

	items, total, err = svc.ListWaveforms(ctx, 10, 0, "relative", "path")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Path != "rel.pwl" {
		t.Errorf("relative filter: total = %d, items = %+v", total, items)
	}
}

func TestSearchFindsIndexedContent(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateWaveform(ctx, "clocks/xorgate.pwl", []byte("0 0\n+1u 5")); err != nil {
		t.Fatal(err)
	}

	results, err := svc.Search(ctx, "xorgate", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "clocks/xorgate.pwl" {
		t.Errorf("results = %+v", results)
	}
}
