package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager(\"\"): %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// All writes must be safe no-ops on the nil manager.
	if err := om.WriteRun(RunRecord{}); err != nil {
		t.Errorf("WriteRun on nil manager: %v", err)
	}
	if err := om.WriteGrid(2, []uint64{0, 0, 0, 0}); err != nil {
		t.Errorf("WriteGrid on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManagerRunsCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	rec := RunRecord{
		Segment:   0,
		Iteration: 50,
		Particles: 20,
		GridSize:  21,
		Radius:    0.5,
		Seed:      17,
		Events:    900,
		Occupied:  12,
		ElapsedMS: 3,
	}
	if err := om.WriteRun(rec); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	rec.Segment = 1
	if err := om.WriteRun(rec); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "runs.csv"))
	if err != nil {
		t.Fatalf("reading runs.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	// Header once, then one line per record.
	if len(lines) != 3 {
		t.Fatalf("runs.csv has %d lines, want 3:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "events") || !strings.Contains(lines[0], "elapsed_ms") {
		t.Errorf("header missing expected columns: %s", lines[0])
	}
	if strings.Contains(lines[1], "events") {
		t.Error("header repeated in data rows")
	}
	if !strings.Contains(lines[1], "900") {
		t.Errorf("first record missing events value: %s", lines[1])
	}
}

func TestOutputManagerGridCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	counts := []uint64{1, 2, 3, 4}
	if err := om.WriteGrid(2, counts); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "grid.csv"))
	if err != nil {
		t.Fatalf("reading grid.csv: %v", err)
	}
	got := strings.TrimSpace(string(data))
	want := "1,2\n3,4"
	if got != want {
		t.Errorf("grid.csv = %q, want %q", got, want)
	}
}

func TestOutputManagerCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output dir not created: %v", err)
	}
}
