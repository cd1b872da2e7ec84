package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GridStats holds aggregate statistics over a reduced occupancy grid.
type GridStats struct {
	Cells    int
	Occupied int
	Events   uint64
	Mean     float64
	Std      float64
	P50      float64
	P90      float64
	P99      float64
	Max      uint64
}

// ComputeGridStats aggregates the flat row-major cell counts of a
// grid. Quantiles are taken over all cells, zeros included.
func ComputeGridStats(counts []uint64) GridStats {
	s := GridStats{Cells: len(counts)}
	if len(counts) == 0 {
		return s
	}

	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
		s.Events += c
		if c > 0 {
			s.Occupied++
		}
		if c > s.Max {
			s.Max = c
		}
	}

	s.Mean = stat.Mean(values, nil)
	s.Std = stat.StdDev(values, nil)

	sort.Float64s(values)
	s.P50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	s.P99 = stat.Quantile(0.99, stat.Empirical, values, nil)
	return s
}

// MeanSquaredDisplacement returns the mean squared distance between
// final and start positions, the standard diffusion spread metric.
// All slices must share a length.
func MeanSquaredDisplacement(posX, posY, startX, startY []float32) float64 {
	if len(posX) == 0 {
		return 0
	}
	sq := make([]float64, len(posX))
	for i := range posX {
		dx := float64(posX[i] - startX[i])
		dy := float64(posY[i] - startY[i])
		sq[i] = dx*dx + dy*dy
	}
	return stat.Mean(sq, nil)
}
