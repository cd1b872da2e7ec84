package sim

// ReduceInto folds the occupancy map into dst, adding every particle's
// plane cell-wise: dst[y][x] += sum over p of m[p][y][x]. dst must be
// zeroed by the caller if a fresh histogram is wanted. The map must be
// fully written (all particle invocations complete) before reducing;
// the driver enforces this with a barrier.
func (m *OccupancyMap) ReduceInto(dst *Grid) {
	stride := m.gridSize * m.gridSize
	for p := 0; p < m.particles; p++ {
		plane := m.counts[p*stride : (p+1)*stride]
		for idx, c := range plane {
			// Zero cells dominate for short runs; skipping them keeps
			// the pass read-mostly.
			if c > 0 {
				dst.cells[idx] += uint64(c)
			}
		}
	}
}

// Reduce allocates a fresh grid and folds the map into it.
func (m *OccupancyMap) Reduce() (*Grid, error) {
	g, err := NewGrid(m.gridSize)
	if err != nil {
		return nil, err
	}
	m.ReduceInto(g)
	return g, nil
}
