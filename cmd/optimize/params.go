package main

import (
	"math"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Integer bool    // Rounded before it is applied

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

func floatParam(name, path string, lo, hi float64, field func(*config.Config) *float64) ParamSpec {
	return ParamSpec{
		Name: name, Path: path, Min: lo, Max: hi,
		get: func(c *config.Config) float64 { return *field(c) },
		set: func(c *config.Config, v float64) { *field(c) = v },
	}
}

func intParam(name, path string, lo, hi float64, field func(*config.Config) *int) ParamSpec {
	return ParamSpec{
		Name: name, Path: path, Min: lo, Max: hi, Integer: true,
		get: func(c *config.Config) float64 { return float64(*field(c)) },
		set: func(c *config.Config, v float64) { *field(c) = int(math.Round(v)) },
	}
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Grass
			floatParam("grass_growth_rate", "grass.base_growth_rate", 0.05, 0.6,
				func(c *config.Config) *float64 { return &c.Grass.BaseGrowthRate }),
			floatParam("grass_spread_chance", "grass.spread_chance", 0.02, 0.4,
				func(c *config.Config) *float64 { return &c.Grass.SpreadChance }),
			floatParam("grass_seed_viability", "grass.seed_viability", 0.2, 1.0,
				func(c *config.Config) *float64 { return &c.Grass.SeedViability }),
			floatParam("grass_winter_growth", "grass.seasonal_modifiers[winter]", 0.1, 1.0,
				func(c *config.Config) *float64 { return &c.Grass.SeasonalModifiers[components.SeasonWinter] }),
			// Sheep
			floatParam("sheep_energy_per_step", "sheep.energy_per_step", 0.5, 2.0,
				func(c *config.Config) *float64 { return &c.Sheep.EnergyPerStep }),
			floatParam("sheep_energy_per_grass", "sheep.energy_per_grass", 10, 80,
				func(c *config.Config) *float64 { return &c.Sheep.EnergyPerGrass }),
			floatParam("sheep_grazing_amount", "sheep.grazing_amount", 0.1, 0.6,
				func(c *config.Config) *float64 { return &c.Sheep.GrazingAmount }),
			floatParam("sheep_mating_rate", "sheep.reproduction.base_rate", 0.1, 1.0,
				func(c *config.Config) *float64 { return &c.Sheep.Reproduction.BaseRate }),
			intParam("sheep_cooldown", "sheep.reproduction.cooldown_period", 10, 60,
				func(c *config.Config) *int { return &c.Sheep.Reproduction.CooldownPeriod }),
			intParam("sheep_wolf_detection", "sheep.wolf_detection_radius", 0, 4,
				func(c *config.Config) *int { return &c.Sheep.WolfDetectionRadius }),
			floatParam("sheep_flee_chance", "sheep.flee_chance", 0, 1,
				func(c *config.Config) *float64 { return &c.Sheep.FleeChance }),
			// Wolf
			floatParam("wolf_energy_per_step", "wolf.energy_per_step", 0.5, 3.0,
				func(c *config.Config) *float64 { return &c.Wolf.EnergyPerStep }),
			floatParam("wolf_energy_per_sheep", "wolf.energy_per_sheep", 20, 100,
				func(c *config.Config) *float64 { return &c.Wolf.EnergyPerSheep }),
			intParam("wolf_hunting_radius", "wolf.hunting_radius", 2, 10,
				func(c *config.Config) *int { return &c.Wolf.HuntingRadius }),
			floatParam("wolf_mating_rate", "wolf.reproduction.base_rate", 0.1, 1.0,
				func(c *config.Config) *float64 { return &c.Wolf.Reproduction.BaseRate }),
			intParam("wolf_cooldown", "wolf.reproduction.cooldown_period", 20, 120,
				func(c *config.Config) *int { return &c.Wolf.Reproduction.CooldownPeriod }),
			// Population
			intParam("wolf_initial_count", "wolf.initial_count", 4, 30,
				func(c *config.Config) *int { return &c.Wolf.InitialCount }),
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(spec.Max, max(spec.Min, v[i]))
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.get(cfg)
	}
	return out
}
