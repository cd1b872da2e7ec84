package viz

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/drift/sim"
)

func testGrid(t *testing.T, size int, counts map[[2]int]uint64) *sim.Grid {
	t.Helper()
	g, err := sim.NewGrid(size)
	if err != nil {
		t.Fatalf("NewGrid(%d): %v", size, err)
	}
	cells := g.Counts()
	for yx, c := range counts {
		cells[yx[0]*size+yx[1]] = c
	}
	return g
}

func TestRenderHeatmapDimensions(t *testing.T) {
	g := testGrid(t, 5, map[[2]int]uint64{{2, 2}: 10})
	img := RenderHeatmap(g, 8)

	b := img.Bounds()
	wantW := labelMargin + 5*8
	wantH := 5*8 + labelMargin
	if b.Dx() != wantW || b.Dy() != wantH {
		t.Errorf("image is %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}
}

func TestRenderHeatmapHotCell(t *testing.T) {
	g := testGrid(t, 3, map[[2]int]uint64{{0, 0}: 8})
	img := RenderHeatmap(g, 4)

	// Row 0 at the bottom: cell (0,0) spans the bottom-left block just
	// right of the label margin.
	hot := img.RGBAAt(labelMargin+1, 3*4-1)
	cold := img.RGBAAt(labelMargin+1, 1)
	if hot == cold {
		t.Errorf("hot cell %v matches cold cell %v", hot, cold)
	}
	if hot.R <= cold.R {
		t.Errorf("hot cell red = %d, not above cold %d", hot.R, cold.R)
	}
}

func TestHeatColorRamp(t *testing.T) {
	coldest := heatColor(0, 10)
	if coldest != (color.RGBA{12, 12, 48, 255}) {
		t.Errorf("zero count = %v, want dark blue", coldest)
	}
	if heatColor(5, 0) != coldest {
		t.Errorf("all-zero grid should render cold")
	}
	hottest := heatColor(10, 10)
	if hottest.R != 255 || hottest.G != 255 {
		t.Errorf("max count = %v, want yellow-white", hottest)
	}
	mid := heatColor(5, 10)
	if mid.R != 255 || mid.G != 12 {
		t.Errorf("half count = %v, want red", mid)
	}
}

func TestSavePNG(t *testing.T) {
	g := testGrid(t, 4, map[[2]int]uint64{{1, 1}: 3})
	img := RenderHeatmap(g, 4)

	path := filepath.Join(t.TempDir(), "heatmap.png")
	if err := SavePNG(img, path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("wrote empty PNG")
	}
}

func TestRenderEventChartTooFewPoints(t *testing.T) {
	cps := []sim.Checkpoint{{Iteration: 10, Events: 5}}
	var buf bytes.Buffer
	if err := RenderEventChart(cps, &buf); err == nil {
		t.Error("expected error for a single checkpoint")
	}
}

func TestRenderEventChart(t *testing.T) {
	cps := []sim.Checkpoint{
		{Iteration: 10, Events: 3},
		{Iteration: 20, Events: 9},
		{Iteration: 30, Events: 14},
	}
	var buf bytes.Buffer
	if err := RenderEventChart(cps, &buf); err != nil {
		t.Fatalf("RenderEventChart: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("rendered empty chart")
	}
}

func TestWriteCheckpointVideo(t *testing.T) {
	g1 := testGrid(t, 4, map[[2]int]uint64{{0, 0}: 1})
	g2 := testGrid(t, 4, map[[2]int]uint64{{0, 0}: 1, {2, 2}: 4})
	cps := []sim.Checkpoint{
		{Iteration: 5, Events: 1, Grid: g1},
		{Iteration: 10, Events: 5, Grid: g2},
	}

	path := filepath.Join(t.TempDir(), "diffusion.avi")
	if err := WriteCheckpointVideo(path, cps, 4, 2); err != nil {
		t.Fatalf("WriteCheckpointVideo: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("wrote empty video")
	}
}

func TestWriteCheckpointVideoEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.avi")
	if err := WriteCheckpointVideo(path, nil, 4, 2); err == nil {
		t.Error("expected error for no checkpoints")
	}
}

func TestVideoWriterRejectsMismatchedGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.avi")
	vw, err := NewVideoWriter(path, 4, 4, 2)
	if err != nil {
		t.Fatalf("NewVideoWriter: %v", err)
	}
	defer vw.Close()

	g := testGrid(t, 5, nil)
	if err := vw.AddGrid(g); err == nil {
		t.Error("expected error for mismatched grid size")
	}
}
