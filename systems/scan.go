package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
)

// FindInRadius scans the square of radius r around p in raster order and
// returns the first organism of kind accepted by match. There is no distance
// ranking: the first hit wins. A nil match accepts everything.
func (w *WorldGrid) FindInRadius(p components.Position, r int, kind components.Kind, match func(ecs.Entity) bool) (ecs.Entity, bool) {
	for y := max(0, p.Y-r); y <= min(w.height-1, p.Y+r); y++ {
		for x := max(0, p.X-r); x <= min(w.width-1, p.X+r); x++ {
			e := w.cell(x, y).at(kind)
			if e == noEntity {
				continue
			}
			if match == nil || match(e) {
				return e, true
			}
		}
	}
	return noEntity, false
}

// RandomFreeCell tries up to attempts random offsets within radius r of p and
// returns the first in-bounds cell with no organism of kind.
func (w *WorldGrid) RandomFreeCell(rng *rand.Rand, p components.Position, r, attempts int, kind components.Kind) (components.Position, bool) {
	if r < 1 {
		return components.Position{}, false
	}
	span := 2*r + 1
	for range attempts {
		to := p.Add(rng.Intn(span)-r, rng.Intn(span)-r)
		if !w.Occupied(to.X, to.Y, kind) {
			return to, true
		}
	}
	return components.Position{}, false
}

// stepToward returns the cell at most step cells from p in the direction of
// target, clamped to the grid.
func (w *WorldGrid) stepToward(p, target components.Position, step int) components.Position {
	dx := target.X - p.X
	dy := target.Y - p.Y
	return w.clamp(p.Add(
		components.Sign(dx)*min(step, components.Abs(dx)),
		components.Sign(dy)*min(step, components.Abs(dy)),
	))
}

// stepAdjacent returns the cell that brings p within one cell of target.
func (w *WorldGrid) stepAdjacent(p, target components.Position, step int) components.Position {
	dx := target.X - p.X
	dy := target.Y - p.Y
	return w.clamp(p.Add(
		components.Sign(dx)*min(step, max(0, components.Abs(dx)-1)),
		components.Sign(dy)*min(step, max(0, components.Abs(dy)-1)),
	))
}

// stepAway returns the cell step cells from p directly away from threat.
// When the threat shares an axis coordinate, that axis is left unchanged.
func (w *WorldGrid) stepAway(p, threat components.Position, step int) components.Position {
	return w.clamp(p.Add(
		-components.Sign(threat.X-p.X)*step,
		-components.Sign(threat.Y-p.Y)*step,
	))
}

func (w *WorldGrid) clamp(p components.Position) components.Position {
	return components.Position{
		X: min(w.width-1, max(0, p.X)),
		Y: min(w.height-1, max(0, p.Y)),
	}
}
