package sim

import (
	"errors"
	"testing"
)

func TestPopulationSharedStart(t *testing.T) {
	pop, err := NewPopulation(5, Start{X: 10, Y: 10})
	if err != nil {
		t.Fatalf("NewPopulation: %v", err)
	}
	if pop.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", pop.Len())
	}
	for i := 0; i < 5; i++ {
		pos := pop.PositionOf(i)
		if pos.X != 10 || pos.Y != 10 {
			t.Errorf("particle %d at (%v,%v), want (10,10)", i, pos.X, pos.Y)
		}
	}
}

func TestPopulationSnapshotApplyRoundTrip(t *testing.T) {
	starts := []Start{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}
	pop, err := NewPopulationAt(starts)
	if err != nil {
		t.Fatalf("NewPopulationAt: %v", err)
	}

	posX := make([]float32, pop.Len())
	posY := make([]float32, pop.Len())
	pop.Snapshot(posX, posY)

	for i, s := range starts {
		if posX[i] != s.X || posY[i] != s.Y {
			t.Errorf("snapshot %d = (%v,%v), want (%v,%v)", i, posX[i], posY[i], s.X, s.Y)
		}
	}

	// Mutate the flat arrays like a kernel phase would, then apply.
	for i := range posX {
		posX[i] += 0.5
		posY[i] -= 0.25
	}
	pop.Apply(posX, posY)

	for i, s := range starts {
		pos := pop.PositionOf(i)
		if pos.X != s.X+0.5 || pos.Y != s.Y-0.25 {
			t.Errorf("particle %d at (%v,%v) after apply, want (%v,%v)",
				i, pos.X, pos.Y, s.X+0.5, s.Y-0.25)
		}
	}
}

func TestPopulationPositionsCopy(t *testing.T) {
	pop, _ := NewPopulation(2, Start{X: 7, Y: 7})
	positions := pop.Positions()
	positions[0].X = -1

	if got := pop.PositionOf(0); got.X != 7 {
		t.Errorf("Positions() leaked internal state: particle 0 x = %v", got.X)
	}
}

func TestPopulationValidation(t *testing.T) {
	if _, err := NewPopulation(0, Start{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("NewPopulation(0) error = %v, want ErrConfiguration", err)
	}
	if _, err := NewPopulationAt(nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("NewPopulationAt(nil) error = %v, want ErrConfiguration", err)
	}
}
