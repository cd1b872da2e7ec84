package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
)

// RunRecord is one row of runs.csv: the outcome of a run or of one
// checkpoint segment within it.
type RunRecord struct {
	Segment   int     `csv:"segment"`
	Iteration int     `csv:"iteration"`
	Particles int     `csv:"particles"`
	GridSize  int     `csv:"grid_size"`
	Radius    float64 `csv:"radius"`
	Seed      int64   `csv:"seed"`
	Events    uint64  `csv:"events"`
	Occupied  int     `csv:"occupied"`
	MeanCount float64 `csv:"mean_count"`
	P90Count  float64 `csv:"p90_count"`
	MaxCount  uint64  `csv:"max_count"`
	MSD       float64 `csv:"msd"`
	ElapsedMS int64   `csv:"elapsed_ms"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir      string
	runsFile *os.File

	runsHeaderWritten bool
}

// NewOutputManager creates an output manager rooted at dir.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	runsPath := filepath.Join(dir, "runs.csv")
	f, err := os.Create(runsPath)
	if err != nil {
		return nil, fmt.Errorf("creating runs.csv: %w", err)
	}
	om.runsFile = f

	return om, nil
}

// Dir returns the output directory.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// WriteRun appends a record to runs.csv. The first write includes the
// header row; subsequent writes skip it.
func (om *OutputManager) WriteRun(rec RunRecord) error {
	if om == nil {
		return nil
	}

	records := []RunRecord{rec}

	if !om.runsHeaderWritten {
		if err := gocsv.Marshal(records, om.runsFile); err != nil {
			return fmt.Errorf("writing runs: %w", err)
		}
		om.runsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.runsFile); err != nil {
			return fmt.Errorf("writing runs: %w", err)
		}
	}

	return nil
}

// WriteGrid dumps the final grid row-major to grid.csv.
func (om *OutputManager) WriteGrid(size int, counts []uint64) error {
	if om == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(om.dir, "grid.csv"))
	if err != nil {
		return fmt.Errorf("creating grid.csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := make([]string, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			row[x] = strconv.FormatUint(counts[y*size+x], 10)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing grid.csv: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Close flushes and closes the open files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return om.runsFile.Close()
}
