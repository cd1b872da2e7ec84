package sim

import "math"

// simulateParticle advances one particle through iterations
// [iterStart, iterEnd), applying its displacement sequence and
// tallying containment events into its private occupancy plane.
//
// Per iteration: displace, then if the particle is inside
// [0, gridSize) on both axes and the fractional offset vector within
// its current cell satisfies fx*fx+fy*fy <= radius*radius, increment
// the plane cell at (floor(y), floor(x)). Particles leaving the grid
// are skipped for that iteration but keep being displaced; they are
// never frozen or removed.
//
// Invocations for distinct particle indices share no mutable state, so
// the caller may run them concurrently without locks.
func simulateParticle(
	i int,
	posX, posY []float32,
	table *DisplacementTable,
	iterStart, iterEnd int,
	gridSize int,
	radius float32,
	plane []uint32,
) {
	x := posX[i]
	y := posY[i]
	limit := float32(gridSize)
	radiusSq := radius * radius

	for iter := iterStart; iter < iterEnd; iter++ {
		dx, dy := table.Displacement(iter, i)
		x += dx
		y += dy

		// Fractional offsets use truncation toward zero while grid
		// indices use floor. The two agree for non-negative
		// coordinates and must stay distinct operators: unifying them
		// changes the containment semantics near the origin.
		fx := x - truncf(x)
		fy := y - truncf(y)

		if x >= 0 && y >= 0 && x < limit && y < limit {
			if fx*fx+fy*fy <= radiusSq {
				iX := int(floorf(x))
				iY := int(floorf(y))
				plane[iY*gridSize+iX]++
			}
		}
	}

	posX[i] = x
	posY[i] = y
}

func truncf(v float32) float32 {
	return float32(math.Trunc(float64(v)))
}

func floorf(v float32) float32 {
	return float32(math.Floor(float64(v)))
}
