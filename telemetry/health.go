package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/foodchain/components"
)

// Trend is the direction of a population series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDeclining  Trend = "declining"
)

// HealthStatus buckets a health score.
type HealthStatus string

const (
	StatusThriving HealthStatus = "thriving"
	StatusHealthy  HealthStatus = "healthy"
	StatusStressed HealthStatus = "stressed"
	StatusCritical HealthStatus = "critical"
	StatusExtinct  HealthStatus = "extinct"
)

// Health score weights.
const (
	stabilityWeight      = 0.4
	sustainabilityWeight = 0.4
	bonusIncreasing      = 20.0
	bonusStable          = 10.0
)

// ClassifyTrend compares the mean of the last window values with the mean of
// the window before it. The window shrinks to half the series when short.
func ClassifyTrend(series []float64, window int, threshold float64) Trend {
	n := len(series)
	w := min(window, n/2)
	if w < 1 {
		return TrendStable
	}
	recent := stat.Mean(series[n-w:], nil)
	prior := stat.Mean(series[n-2*w:n-w], nil)
	if prior == 0 {
		if recent > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	change := (recent - prior) / prior
	switch {
	case change > threshold:
		return TrendIncreasing
	case change < -threshold:
		return TrendDeclining
	}
	return TrendStable
}

// SpeciesHealth is the health breakdown of one species.
type SpeciesHealth struct {
	Kind           components.Kind
	Score          float64
	Status         HealthStatus
	Stability      float64
	Sustainability float64
	Trend          Trend
	Current        int
}

// PopulationHealth is the ecosystem-wide health assessment.
type PopulationHealth struct {
	Tick    int
	Overall float64
	Status  HealthStatus
	Species [components.NumKinds]SpeciesHealth
}

// LogValue implements slog.LogValuer.
func (h PopulationHealth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", h.Tick),
		slog.Float64("overall", h.Overall),
		slog.String("status", string(h.Status)),
		slog.Float64("grass", h.Species[components.KindGrass].Score),
		slog.Float64("sheep", h.Species[components.KindSheep].Score),
		slog.Float64("wolf", h.Species[components.KindWolf].Score),
	)
}

// ScoreSpecies computes the health of one species from its count series.
func ScoreSpecies(kind components.Kind, series []float64, minViable int, trendWindow int, trendThreshold float64) SpeciesHealth {
	h := SpeciesHealth{Kind: kind, Trend: TrendStable}
	if len(series) == 0 {
		h.Status = StatusExtinct
		return h
	}
	h.Current = int(series[len(series)-1])

	mean := stat.Mean(series, nil)
	cv := 0.0
	if len(series) > 1 && mean > 0 {
		cv = stat.StdDev(series, nil) / mean
	}
	h.Stability = 100 / (1 + cv)

	if minViable > 0 {
		h.Sustainability = 100 * math.Min(1, mean/float64(minViable))
	} else {
		h.Sustainability = 100
	}

	h.Trend = ClassifyTrend(series, trendWindow, trendThreshold)
	bonus := 0.0
	switch h.Trend {
	case TrendIncreasing:
		bonus = bonusIncreasing
	case TrendStable:
		bonus = bonusStable
	}

	h.Score = clampScore(stabilityWeight*h.Stability + sustainabilityWeight*h.Sustainability + bonus)
	if h.Current == 0 {
		h.Status = StatusExtinct
	} else {
		h.Status = statusFor(h.Score)
	}
	return h
}

func statusFor(score float64) HealthStatus {
	switch {
	case score >= 80:
		return StatusThriving
	case score >= 60:
		return StatusHealthy
	case score >= 40:
		return StatusStressed
	}
	return StatusCritical
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
