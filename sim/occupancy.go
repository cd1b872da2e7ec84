package sim

import "fmt"

// OccupancyMap is the per-particle containment tally: one private
// G x G counter plane per particle, stored flat and particle-major
// (index = particle*G*G + y*G + x). During the kernel phase each
// particle writes only its own plane, so the map needs no
// synchronization; the reducer folds it into a Grid afterward.
type OccupancyMap struct {
	particles int
	gridSize  int
	counts    []uint32
}

// maxMapCells caps the occupancy map at 1 GiB of uint32 counters.
const maxMapCells = 1 << 28

// NewOccupancyMap allocates a zeroed map for the given population and
// grid dimension.
func NewOccupancyMap(particles, gridSize int) (*OccupancyMap, error) {
	if particles <= 0 || gridSize <= 0 {
		return nil, fmt.Errorf("%w: particles=%d grid_size=%d",
			ErrConfiguration, particles, gridSize)
	}
	plane := gridSize * gridSize
	if particles > maxMapCells/plane {
		return nil, fmt.Errorf("%w: occupancy map %d x %d x %d cells",
			ErrResourceExhausted, particles, gridSize, gridSize)
	}
	return &OccupancyMap{
		particles: particles,
		gridSize:  gridSize,
		counts:    make([]uint32, particles*plane),
	}, nil
}

// Particles returns the number of counter planes.
func (m *OccupancyMap) Particles() int { return m.particles }

// GridSize returns the plane dimension.
func (m *OccupancyMap) GridSize() int { return m.gridSize }

// Plane returns particle p's private counter plane. Planes of distinct
// particles never alias.
func (m *OccupancyMap) Plane(p int) []uint32 {
	stride := m.gridSize * m.gridSize
	return m.counts[p*stride : (p+1)*stride : (p+1)*stride]
}

// At returns the counter for (particle, y, x).
func (m *OccupancyMap) At(p, y, x int) uint32 {
	return m.counts[p*m.gridSize*m.gridSize+y*m.gridSize+x]
}

// Grid is the final spatial histogram: a G x G matrix of non-negative
// event counts, produced by reducing an OccupancyMap.
type Grid struct {
	size  int
	cells []uint64
}

// NewGrid allocates a zeroed size x size grid.
func NewGrid(size int) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: grid_size=%d", ErrConfiguration, size)
	}
	return &Grid{size: size, cells: make([]uint64, size*size)}, nil
}

// Size returns the grid dimension.
func (g *Grid) Size() int { return g.size }

// At returns the event count at (y, x).
func (g *Grid) At(y, x int) uint64 {
	return g.cells[y*g.size+x]
}

// Row returns row y as a shared slice.
func (g *Grid) Row(y int) []uint64 {
	return g.cells[y*g.size : (y+1)*g.size]
}

// Counts returns the flat row-major cell counts as a shared slice.
func (g *Grid) Counts() []uint64 { return g.cells }

// Total returns the sum of all cell counts, i.e. the total number of
// (particle, iteration) containment events.
func (g *Grid) Total() uint64 {
	var sum uint64
	for _, c := range g.cells {
		sum += c
	}
	return sum
}

// Occupied returns the number of cells with at least one event.
func (g *Grid) Occupied() int {
	n := 0
	for _, c := range g.cells {
		if c > 0 {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]uint64, len(g.cells))
	copy(cells, g.cells)
	return &Grid{size: g.size, cells: cells}
}
