package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int    `csv:"-"`
	WindowEndTick   int    `csv:"window_end"`
	Season          string `csv:"season"`

	// Population counts at window end
	Grass  int `csv:"grass"`
	Sheep  int `csv:"sheep"`
	Wolves int `csv:"wolves"`

	// Events during window
	GrassSprouts int `csv:"grass_sprouts"`
	SheepBirths  int `csv:"sheep_births"`
	WolfBirths   int `csv:"wolf_births"`
	GrassDeaths  int `csv:"grass_deaths"`
	SheepDeaths  int `csv:"sheep_deaths"`
	WolfDeaths   int `csv:"wolf_deaths"`

	// Deaths by cause during window
	DeathsAge        int `csv:"deaths_age"`
	DeathsStarvation int `csv:"deaths_starvation"`
	DeathsHunger     int `csv:"deaths_hunger"`
	DeathsGrazing    int `csv:"deaths_grazing"`
	DeathsHunting    int `csv:"deaths_hunting"`

	// Feeding and breeding
	Kills         int     `csv:"kills"`
	GrassConsumed float64 `csv:"grass_consumed"`
	Matings       int     `csv:"matings"`
	Miscarriages  int     `csv:"miscarriages"`
	SheepPregnant int     `csv:"sheep_pregnant"`
	WolfPregnant  int     `csv:"wolf_pregnant"`

	// Energy distribution (sampled at window end)
	SheepEnergyMean float64 `csv:"sheep_energy_mean"`
	SheepEnergyP10  float64 `csv:"sheep_energy_p10"`
	SheepEnergyP50  float64 `csv:"sheep_energy_p50"`
	SheepEnergyP90  float64 `csv:"sheep_energy_p90"`

	WolfEnergyMean float64 `csv:"wolf_energy_mean"`
	WolfEnergyP10  float64 `csv:"wolf_energy_p10"`
	WolfEnergyP50  float64 `csv:"wolf_energy_p50"`
	WolfEnergyP90  float64 `csv:"wolf_energy_p90"`

	// Environment
	MeanGrassDensity float64 `csv:"grass_density"`
	Temperature      float64 `csv:"temperature"`

	// Social structure
	ActiveFlocks int `csv:"active_flocks"`
	ActivePacks  int `csv:"active_packs"`
}

// ComputeEnergyStats returns the mean and the 10th, 50th and 90th
// percentiles of an energy sample. The percentiles interpolate linearly
// between ranks. An empty sample yields zeros.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.String("season", s.Season),
		slog.Int("grass", s.Grass),
		slog.Int("sheep", s.Sheep),
		slog.Int("wolves", s.Wolves),
		slog.Int("grass_sprouts", s.GrassSprouts),
		slog.Int("sheep_births", s.SheepBirths),
		slog.Int("wolf_births", s.WolfBirths),
		slog.Int("grass_deaths", s.GrassDeaths),
		slog.Int("sheep_deaths", s.SheepDeaths),
		slog.Int("wolf_deaths", s.WolfDeaths),
		slog.Int("deaths_age", s.DeathsAge),
		slog.Int("deaths_starvation", s.DeathsStarvation),
		slog.Int("deaths_hunger", s.DeathsHunger),
		slog.Int("deaths_grazing", s.DeathsGrazing),
		slog.Int("deaths_hunting", s.DeathsHunting),
		slog.Int("kills", s.Kills),
		slog.Float64("grass_consumed", s.GrassConsumed),
		slog.Int("matings", s.Matings),
		slog.Int("miscarriages", s.Miscarriages),
		slog.Float64("sheep_energy_mean", s.SheepEnergyMean),
		slog.Float64("sheep_energy_p50", s.SheepEnergyP50),
		slog.Float64("wolf_energy_mean", s.WolfEnergyMean),
		slog.Float64("wolf_energy_p50", s.WolfEnergyP50),
		slog.Float64("grass_density", s.MeanGrassDensity),
		slog.Int("active_flocks", s.ActiveFlocks),
		slog.Int("active_packs", s.ActivePacks),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"season", s.Season,
		"grass", s.Grass,
		"sheep", s.Sheep,
		"wolves", s.Wolves,
		"sheep_births", s.SheepBirths,
		"wolf_births", s.WolfBirths,
		"sheep_deaths", s.SheepDeaths,
		"wolf_deaths", s.WolfDeaths,
		"kills", s.Kills,
		"matings", s.Matings,
		"miscarriages", s.Miscarriages,
		"sheep_energy_mean", s.SheepEnergyMean,
		"wolf_energy_mean", s.WolfEnergyMean,
		"grass_density", s.MeanGrassDensity,
		"temperature", s.Temperature,
	)
}
