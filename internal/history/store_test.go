package history

import (
	"context"
	"testing"
	"time"

	"github.com/nvoss/subdoc/internal/execute"
	"github.com/nvoss/subdoc/internal/pipeline"
	"github.com/nvoss/subdoc/internal/scan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func samplePairs() []pipeline.Pair {
	return []pipeline.Pair{
		{
			File:   scan.SourceFile{RelPath: "a.py", SHA256: "aa11", Language: scan.LangPython, Size: 10},
			Result: execute.Result{ExitCode: 0, Duration: 120 * time.Millisecond},
		},
		{
			File:   scan.SourceFile{RelPath: "b.py", SHA256: "bb22", Language: scan.LangPython, Size: 20},
			Result: execute.Result{ExitCode: 1, Duration: 80 * time.Millisecond},
		},
		{
			File:   scan.SourceFile{RelPath: "c.rb", SHA256: "cc33", Language: "unknown", Size: 5},
			Result: execute.SkippedResult("no runner for language \"unknown\""),
		},
		{
			File:   scan.SourceFile{RelPath: "d.py", SHA256: "dd44", Language: scan.LangPython, Size: 7},
			Result: execute.Result{ExitCode: execute.ExitNotRun, TimedOut: true, Duration: 2 * time.Second},
		},
	}
}

func TestStore_RecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.RecordRun(ctx, "/work/sub", samplePairs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.ID != runID || r.Root != "/work/sub" {
		t.Errorf("unexpected run: %+v", r)
	}
	if r.Files != 4 || r.Failed != 1 || r.TimedOut != 1 || r.Skipped != 1 {
		t.Errorf("unexpected counts: %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}
}

func TestStore_Manifest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.RecordRun(ctx, "/work/sub", samplePairs())
	if err != nil {
		t.Fatal(err)
	}

	records, err := store.Manifest(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	// Ordered by path.
	if records[0].RelPath != "a.py" || records[3].RelPath != "d.py" {
		t.Errorf("manifest not ordered: %v", records)
	}
	if records[0].SHA256 != "aa11" {
		t.Errorf("hash not persisted: %+v", records[0])
	}
	if !records[3].TimedOut {
		t.Error("timed_out flag lost")
	}
	if !records[2].Skipped {
		t.Error("skipped flag lost")
	}
	if records[3].Duration != 2*time.Second {
		t.Errorf("duration = %s", records[3].Duration)
	}
}

func TestStore_LatestRunID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.LatestRunID(ctx, "/nowhere")
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Fatalf("expected empty id for unknown root, got %s", id)
	}

	first, err := store.RecordRun(ctx, "/work/sub", samplePairs())
	if err != nil {
		t.Fatal(err)
	}
	// created_at granularity is nanoseconds but keep the runs apart anyway
	time.Sleep(5 * time.Millisecond)
	second, err := store.RecordRun(ctx, "/work/sub", samplePairs())
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("run ids must differ")
	}

	latest, err := store.LatestRunID(ctx, "/work/sub")
	if err != nil {
		t.Fatal(err)
	}
	if latest != second {
		t.Errorf("latest = %s, want %s", latest, second)
	}
}

func TestStore_ManifestUnknownRun(t *testing.T) {
	store := openTestStore(t)
	records, err := store.Manifest(context.Background(), "no-such-run")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty manifest, got %d", len(records))
	}
}
