package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ChartSentry/internal/domain/models"
)

func TestFileLedgerLoadAbsent(t *testing.T) {
	ledger, err := NewFileLedger(filepath.Join(t.TempDir(), "last.json"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rec, err := ledger.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != nil {
		t.Fatalf("rec = %+v, want nil for a fresh ledger", rec)
	}
}

func TestFileLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "last.json")
	ledger, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	price := 2345.6
	want := models.NewPredictionRecord(models.Decision{Verdict: "buy"}, price, true, time.Unix(1700000000, 0))
	if err := ledger.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ledger.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if got.Timestamp != 1700000000 || got.Decision != "buy" {
		t.Errorf("got %+v", got)
	}
	if got.Price == nil || *got.Price != price {
		t.Errorf("price = %v", got.Price)
	}
}

func TestFileLedgerOverwrites(t *testing.T) {
	ledger, err := NewFileLedger(filepath.Join(t.TempDir(), "last.json"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	first := models.NewPredictionRecord(models.Decision{Verdict: "buy"}, 100, true, time.Unix(1, 0))
	second := models.NewPredictionRecord(models.Decision{Verdict: "sell"}, 0, false, time.Unix(2, 0))

	if err := ledger.Save(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ledger.Save(second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ledger.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Decision != "sell" {
		t.Errorf("decision = %q, want the latest record", got.Decision)
	}
	if got.Price != nil {
		t.Errorf("price = %v, want null when the cycle had no price", *got.Price)
	}
}

func TestFileLedgerLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewFileLedger(filepath.Join(dir, "last.json"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := ledger.Save(models.PredictionRecord{Timestamp: 1, Decision: "buy"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "last.json" {
		t.Errorf("dir entries = %v", entries)
	}
}
