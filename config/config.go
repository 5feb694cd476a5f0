// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// NumSeasons is the number of seasons in one climate cycle.
const NumSeasons = 4

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Grass     GrassConfig     `yaml:"grass"`
	Sheep     SheepConfig     `yaml:"sheep"`
	Wolf      WolfConfig      `yaml:"wolf"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and climate parameters.
type WorldConfig struct {
	Width                    int                 `yaml:"width"`
	Height                   int                 `yaml:"height"`
	SeasonLength             int                 `yaml:"season_length"`    // Ticks per season
	BaseTemperature          float64             `yaml:"base_temperature"` // Celsius
	SeasonTemperatureOffsets [NumSeasons]float64 `yaml:"season_temperature_offsets"`
	DeathLogCapacity         int                 `yaml:"death_log_capacity"`   // Ring buffer size for recent deaths
	DeathContextRadius       int                 `yaml:"death_context_radius"` // Radius of the environment snapshot on death
}

// GrassConfig holds producer growth and spreading parameters.
type GrassConfig struct {
	InitialCoverage   float64             `yaml:"initial_coverage"` // Fraction of cells seeded with grass
	InitialDensityMin float64             `yaml:"initial_density_min"`
	InitialDensityMax float64             `yaml:"initial_density_max"`
	BaseGrowthRate    float64             `yaml:"base_growth_rate"` // Growth roll probability before modifiers
	GrowthIncrement   float64             `yaml:"growth_increment"` // Density added per successful roll
	BaseTemperature   float64             `yaml:"base_temperature"`
	TemperatureEffect float64             `yaml:"temperature_effect"` // Growth change per degree from base
	SeasonalModifiers [NumSeasons]float64 `yaml:"seasonal_modifiers"`
	SpreadThreshold   float64             `yaml:"spread_threshold"` // Density at which grass is mature and spreads
	SpreadChance      float64             `yaml:"spread_chance"`
	SpreadRadius      int                 `yaml:"spread_radius"`
	SpreadAttempts    int                 `yaml:"spread_attempts"`
	SeedViability     float64             `yaml:"seed_viability"`
	SeedDensity       float64             `yaml:"seed_density"`
}

// AnimalConfig holds parameters shared by herbivores and predators.
type AnimalConfig struct {
	InitialCount    int                `yaml:"initial_count"`
	InitialEnergy   float64            `yaml:"initial_energy"`
	MaxEnergy       float64            `yaml:"max_energy"`
	EnergyPerStep   float64            `yaml:"energy_per_step"` // Metabolic cost per tick
	Lifespan        int                `yaml:"lifespan"`        // Ticks
	MovementRange   int                `yaml:"movement_range"`
	HungerThreshold int                `yaml:"hunger_threshold"` // Ticks since last meal before foraging
	MoveAttempts    int                `yaml:"move_attempts"`    // Retries for a blocked random move
	Reproduction    ReproductionConfig `yaml:"reproduction"`
	Inheritance     InheritanceConfig  `yaml:"inheritance"`
}

// ReproductionConfig holds mating, gestation and birth parameters.
type ReproductionConfig struct {
	MinAge           int     `yaml:"min_age"`
	MaxAge           int     `yaml:"max_age"`
	MinEnergy        float64 `yaml:"min_energy"`
	CooldownPeriod   int     `yaml:"cooldown_period"`
	GestationPeriod  int     `yaml:"gestation_period"`
	LitterMin        int     `yaml:"litter_min"`
	LitterMax        int     `yaml:"litter_max"`
	BaseRate         float64 `yaml:"base_rate"`         // P = base_rate × (avgEnergy / maxEnergy)²
	EnergyCost       float64 `yaml:"energy_cost"`       // Total energy drained over gestation
	MiscarriageFloor float64 `yaml:"miscarriage_floor"` // Pregnancy aborts at or below this energy
	MateRadius       int     `yaml:"mate_radius"`       // Partner proximity (wolves use pack territory radius)
	BirthRadius      int     `yaml:"birth_radius"`
	BirthAttempts    int     `yaml:"birth_attempts"`
	OffspringEnergy  float64 `yaml:"offspring_energy"`
}

// InheritanceConfig holds trait variation bounds for offspring.
type InheritanceConfig struct {
	TraitVariation    float64 `yaml:"trait_variation"`    // Absolute ± uniform variation of efficiency traits
	LifespanVariation int     `yaml:"lifespan_variation"` // Absolute ± uniform variation in ticks
	MinTrait          float64 `yaml:"min_trait"`
	MaxTrait          float64 `yaml:"max_trait"`
	MinLifespan       int     `yaml:"min_lifespan"`
	MaxLifespan       int     `yaml:"max_lifespan"`
}

// SheepConfig holds herbivore parameters.
type SheepConfig struct {
	AnimalConfig `yaml:",inline"`

	GrazingAmount       float64 `yaml:"grazing_amount"`   // Max density consumed per meal
	EnergyPerGrass      float64 `yaml:"energy_per_grass"` // Energy per unit of density consumed
	GrazingEfficiency   float64 `yaml:"grazing_efficiency"`
	FoodSearchRadius    int     `yaml:"food_search_radius"`
	WolfDetectionRadius int     `yaml:"wolf_detection_radius"`
	FleeChance          float64 `yaml:"flee_chance"` // Probability a sheep bolts from a detected wolf
	FlockSize           int     `yaml:"flock_size"`
}

// WolfConfig holds predator parameters.
type WolfConfig struct {
	AnimalConfig `yaml:",inline"`

	EnergyPerSheep         float64    `yaml:"energy_per_sheep"`
	HuntingRadius          int        `yaml:"hunting_radius"`
	ScoutingRadius         int        `yaml:"scouting_radius"`
	SatiatedScoutingFactor float64    `yaml:"satiated_scouting_factor"` // Scouting radius multiplier when not hungry
	HuntingSkill           float64    `yaml:"hunting_skill"`
	Pack                   PackConfig `yaml:"pack"`
}

// PackConfig holds wolf social structure parameters.
type PackConfig struct {
	Size              int  `yaml:"size"`
	TerritoryRadius   int  `yaml:"territory_radius"`
	AlphaBreedingOnly bool `yaml:"alpha_breeding_only"`
}

// MinViableConfig holds per-species minimum viable population counts.
type MinViableConfig struct {
	Grass int `yaml:"grass"`
	Sheep int `yaml:"sheep"`
	Wolf  int `yaml:"wolf"`
}

// AnalysisConfig holds ecological analyzer thresholds.
type AnalysisConfig struct {
	HistorySize             int             `yaml:"history_size"`
	TrendWindow             int             `yaml:"trend_window"`
	TrendThreshold          float64         `yaml:"trend_threshold"` // Relative change between windows
	MinViable               MinViableConfig `yaml:"min_viable"`
	OscillationMinDuration  int             `yaml:"oscillation_min_duration"`
	OscillationMinAmplitude float64         `yaml:"oscillation_min_amplitude"`
	NearExtinctionFloor     int             `yaml:"near_extinction_floor"`
	ExtinctionLookback      int             `yaml:"extinction_lookback"` // Ticks of death history considered
	RapidDeclineThreshold   float64         `yaml:"rapid_decline_threshold"`
	MaxPredatorPreyRatio    float64         `yaml:"max_predator_prey_ratio"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // Ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellCount   int // Width × Height
	SeasonCycle int // SeasonLength × NumSeasons
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CellCount = c.World.Width * c.World.Height
	c.Derived.SeasonCycle = c.World.SeasonLength * NumSeasons
}

// Refresh recomputes derived values after fields were changed in code.
func (c *Config) Refresh() {
	c.computeDerived()
}

// Validate rejects configurations the engine cannot be constructed from.
// Values that are merely unusual (zero growth, huge radii) are accepted.
func (c *Config) Validate() error {
	var errs []error

	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	if c.World.SeasonLength <= 0 {
		errs = append(errs, fmt.Errorf("world.season_length must be positive, got %d", c.World.SeasonLength))
	}
	if c.World.DeathLogCapacity <= 0 {
		errs = append(errs, fmt.Errorf("world.death_log_capacity must be positive, got %d", c.World.DeathLogCapacity))
	}
	if c.World.DeathContextRadius < 0 {
		errs = append(errs, fmt.Errorf("world.death_context_radius must not be negative"))
	}
	if c.Grass.SpreadRadius < 0 || c.Grass.SpreadAttempts < 0 {
		errs = append(errs, fmt.Errorf("grass spread radius and attempts must not be negative"))
	}

	errs = append(errs, c.Sheep.AnimalConfig.validate("sheep")...)
	errs = append(errs, c.Wolf.AnimalConfig.validate("wolf")...)

	if c.Sheep.FoodSearchRadius < 0 || c.Sheep.WolfDetectionRadius < 0 {
		errs = append(errs, fmt.Errorf("sheep search radii must not be negative"))
	}
	if c.Sheep.FleeChance < 0 || c.Sheep.FleeChance > 1 {
		errs = append(errs, fmt.Errorf("sheep.flee_chance must be in [0, 1], got %v", c.Sheep.FleeChance))
	}
	if c.Wolf.HuntingRadius < 0 || c.Wolf.ScoutingRadius < 0 || c.Wolf.Pack.TerritoryRadius < 0 {
		errs = append(errs, fmt.Errorf("wolf radii must not be negative"))
	}
	if c.Analysis.HistorySize <= 0 || c.Analysis.TrendWindow <= 0 {
		errs = append(errs, fmt.Errorf("analysis history_size and trend_window must be positive"))
	}
	if c.Telemetry.StatsWindow <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.stats_window must be positive, got %d", c.Telemetry.StatsWindow))
	}

	return errors.Join(errs...)
}

func (a *AnimalConfig) validate(name string) []error {
	var errs []error
	r := a.Reproduction
	if a.MovementRange < 0 {
		errs = append(errs, fmt.Errorf("%s.movement_range must not be negative", name))
	}
	if r.GestationPeriod <= 0 {
		errs = append(errs, fmt.Errorf("%s.reproduction.gestation_period must be positive, got %d", name, r.GestationPeriod))
	}
	if r.LitterMin < 1 || r.LitterMax < r.LitterMin {
		errs = append(errs, fmt.Errorf("%s.reproduction litter bounds invalid: [%d, %d]", name, r.LitterMin, r.LitterMax))
	}
	if a.MaxEnergy <= 0 {
		errs = append(errs, fmt.Errorf("%s.max_energy must be positive", name))
	}
	if r.MateRadius < 0 || r.BirthRadius < 0 {
		errs = append(errs, fmt.Errorf("%s.reproduction radii must not be negative", name))
	}
	return errs
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
