package viz

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"github.com/pthm-cable/drift/sim"
)

// VideoWriter streams occupancy grids into an MJPEG AVI, one frame
// per grid. All grids must share the dimension the writer was created
// for.
type VideoWriter struct {
	avi      mjpeg.AviWriter
	gridSize int
	cellSize int
	buf      bytes.Buffer
}

// NewVideoWriter opens an AVI at path sized for gridSize cells at
// cellSize pixels each.
func NewVideoWriter(path string, gridSize, cellSize, fps int) (*VideoWriter, error) {
	if cellSize < 1 {
		cellSize = 1
	}
	if fps < 1 {
		fps = 1
	}
	w := int32(labelMargin + gridSize*cellSize)
	h := int32(gridSize*cellSize + labelMargin)
	avi, err := mjpeg.New(path, w, h, int32(fps))
	if err != nil {
		return nil, fmt.Errorf("creating video %s: %w", path, err)
	}
	return &VideoWriter{avi: avi, gridSize: gridSize, cellSize: cellSize}, nil
}

// AddGrid renders the grid as a heatmap frame and appends it.
func (v *VideoWriter) AddGrid(g *sim.Grid) error {
	if g.Size() != v.gridSize {
		return fmt.Errorf("viz: frame grid is %d, writer expects %d", g.Size(), v.gridSize)
	}
	img := RenderHeatmap(g, v.cellSize)

	v.buf.Reset()
	if err := jpeg.Encode(&v.buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := v.avi.AddFrame(v.buf.Bytes()); err != nil {
		return fmt.Errorf("adding frame: %w", err)
	}
	return nil
}

// Close finalizes the AVI index.
func (v *VideoWriter) Close() error {
	return v.avi.Close()
}

// WriteCheckpointVideo writes one frame per checkpoint grid.
func WriteCheckpointVideo(path string, checkpoints []sim.Checkpoint, cellSize, fps int) error {
	if len(checkpoints) == 0 {
		return fmt.Errorf("viz: no checkpoints to render")
	}
	vw, err := NewVideoWriter(path, checkpoints[0].Grid.Size(), cellSize, fps)
	if err != nil {
		return err
	}
	for _, cp := range checkpoints {
		if err := vw.AddGrid(cp.Grid); err != nil {
			vw.Close()
			return err
		}
	}
	return vw.Close()
}
