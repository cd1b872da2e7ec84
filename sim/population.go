package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// Position is a particle's continuous 2D position in fractional grid
// units.
type Position struct {
	X, Y float32
}

// Start is a particle's initial position.
type Start struct {
	X, Y float32
}

// Population holds the simulated particles as ECS entities. Entity
// creation order defines the particle index, which in turn selects the
// particle's displacement-table row and occupancy plane.
//
// The kernel never touches the ECS directly: positions are snapshotted
// into flat arrays before the parallel phase and applied back after,
// so workers only ever read and write disjoint slice elements.
type Population struct {
	world    *ecs.World
	posMap   *ecs.Map1[Position]
	entities []ecs.Entity
}

// NewPopulation creates n particles all sharing the same start
// position, the reference scenario.
func NewPopulation(n int, start Start) (*Population, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: particles=%d", ErrConfiguration, n)
	}
	starts := make([]Start, n)
	for i := range starts {
		starts[i] = start
	}
	return NewPopulationAt(starts)
}

// NewPopulationAt creates one particle per start position. The fixed
// shared start of the reference scenario is a configuration default,
// not a kernel constraint.
func NewPopulationAt(starts []Start) (*Population, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: no start positions", ErrConfiguration)
	}
	world := ecs.NewWorld()
	p := &Population{
		world:    world,
		posMap:   ecs.NewMap1[Position](world),
		entities: make([]ecs.Entity, 0, len(starts)),
	}
	for _, s := range starts {
		pos := Position{X: s.X, Y: s.Y}
		p.entities = append(p.entities, p.posMap.NewEntity(&pos))
	}
	return p, nil
}

// Len returns the particle count.
func (p *Population) Len() int { return len(p.entities) }

// Snapshot copies particle positions into the flat arrays used by the
// kernel phase. Both slices must have length Len().
func (p *Population) Snapshot(posX, posY []float32) {
	for i, e := range p.entities {
		pos := p.posMap.Get(e)
		posX[i] = pos.X
		posY[i] = pos.Y
	}
}

// Apply writes kernel-phase positions back onto the entities. Called
// single-threaded after the kernel barrier.
func (p *Population) Apply(posX, posY []float32) {
	for i, e := range p.entities {
		pos := p.posMap.Get(e)
		pos.X = posX[i]
		pos.Y = posY[i]
	}
}

// PositionOf returns particle i's current position.
func (p *Population) PositionOf(i int) Position {
	return *p.posMap.Get(p.entities[i])
}

// Positions returns a copy of all particle positions in index order.
func (p *Population) Positions() []Position {
	out := make([]Position, len(p.entities))
	for i, e := range p.entities {
		out[i] = *p.posMap.Get(e)
	}
	return out
}
