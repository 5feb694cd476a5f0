package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// Inherit draws offspring traits as the parent's value plus uniform noise,
// clamped to the configured range.
func Inherit(rng *rand.Rand, parent components.Traits, ic *config.InheritanceConfig) components.Traits {
	lifespan := parent.MaxLifespan + int(math.Round(vary(rng, float64(ic.LifespanVariation))))
	return components.Traits{
		Efficiency:       clampRange(parent.Efficiency+vary(rng, ic.TraitVariation), ic.MinTrait, ic.MaxTrait),
		EnergyEfficiency: clampRange(parent.EnergyEfficiency+vary(rng, ic.TraitVariation), ic.MinTrait, ic.MaxTrait),
		MaxLifespan:      min(ic.MaxLifespan, max(ic.MinLifespan, lifespan)),
	}
}

// vary returns a uniform sample in [-v, v).
func vary(rng *rand.Rand, v float64) float64 {
	return (rng.Float64()*2 - 1) * v
}

func clampRange(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}
