package systems

import (
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/foodchain/components"
)

type packTally struct {
	sumX, sumY int
	members    int
	alphas     int
	omegas     []ecs.Entity
}

// UpdatePacks recounts pack membership, recentres each territory on its
// members, promotes the oldest omegas until a pack has two alphas, and
// dissolves packs with no members.
func (w *WorldGrid) UpdatePacks() {
	tallies := make(map[uint32]*packTally, len(w.packs))
	for _, e := range w.GetOrganismsByType(components.KindWolf) {
		wolf := w.Wolf(e)
		if wolf.PackID == 0 {
			continue
		}
		if _, ok := w.packs[wolf.PackID]; !ok {
			wolf.PackID = 0
			wolf.Role = components.RoleNone
			continue
		}
		t := tallies[wolf.PackID]
		if t == nil {
			t = &packTally{}
			tallies[wolf.PackID] = t
		}
		pos := w.Position(e)
		t.sumX += pos.X
		t.sumY += pos.Y
		t.members++
		if wolf.Role == components.RoleAlpha {
			t.alphas++
		} else {
			t.omegas = append(t.omegas, e)
		}
	}

	for _, id := range w.packIDs() {
		pack := w.packs[id]
		t := tallies[id]
		if t == nil {
			delete(w.packs, id)
			continue
		}
		pack.Territory.CenterX = int(math.Round(float64(t.sumX) / float64(t.members)))
		pack.Territory.CenterY = int(math.Round(float64(t.sumY) / float64(t.members)))

		slices.SortStableFunc(t.omegas, func(a, b ecs.Entity) int {
			return w.Vitals(b).Age - w.Vitals(a).Age
		})
		for _, e := range t.omegas {
			if t.alphas >= 2 {
				break
			}
			w.Wolf(e).Role = components.RoleAlpha
			t.alphas++
		}
		pack.Members = t.members
		pack.Alphas = t.alphas
	}
}

// InTerritory reports whether p lies within the pack's territory.
func (w *WorldGrid) InTerritory(packID uint32, p components.Position) bool {
	pack, ok := w.packs[packID]
	if !ok {
		return false
	}
	c := components.Position{X: pack.Territory.CenterX, Y: pack.Territory.CenterY}
	return p.Chebyshev(c) <= pack.Territory.Radius
}
