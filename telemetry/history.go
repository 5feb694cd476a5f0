package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/foodchain/components"
)

// PopulationSnapshot is the per-tick population summary fed to the analyzer.
type PopulationSnapshot struct {
	Tick             int     `csv:"tick"`
	Season           string  `csv:"season"`
	Grass            int     `csv:"grass"`
	Sheep            int     `csv:"sheep"`
	Wolves           int     `csv:"wolves"`
	AvgGrassDensity  float64 `csv:"grass_density"`
	AvgSheepEnergy   float64 `csv:"sheep_energy"`
	AvgWolfEnergy    float64 `csv:"wolf_energy"`
	Temperature      float64 `csv:"temperature"`
	PlacementFailure int     `csv:"placement_failures"`
}

// Count returns the population of the given kind.
func (s PopulationSnapshot) Count(kind components.Kind) int {
	switch kind {
	case components.KindGrass:
		return s.Grass
	case components.KindSheep:
		return s.Sheep
	case components.KindWolf:
		return s.Wolves
	}
	return 0
}

// LogValue implements slog.LogValuer.
func (s PopulationSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Int("grass", s.Grass),
		slog.Int("sheep", s.Sheep),
		slog.Int("wolves", s.Wolves),
	)
}

// History is a bounded ring of population snapshots.
type History struct {
	buf  []PopulationSnapshot
	head int
	full bool
}

// NewHistory creates a history holding at most size snapshots.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]PopulationSnapshot, size)}
}

// Add appends a snapshot, evicting the oldest when full.
func (h *History) Add(s PopulationSnapshot) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
	if h.head == 0 {
		h.full = true
	}
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	if h.full {
		return len(h.buf)
	}
	return h.head
}

// Snapshots returns the stored snapshots oldest first.
func (h *History) Snapshots() []PopulationSnapshot {
	if !h.full {
		out := make([]PopulationSnapshot, h.head)
		copy(out, h.buf[:h.head])
		return out
	}
	out := make([]PopulationSnapshot, 0, len(h.buf))
	out = append(out, h.buf[h.head:]...)
	return append(out, h.buf[:h.head]...)
}

// Latest returns the most recent snapshot.
func (h *History) Latest() (PopulationSnapshot, bool) {
	if h.Len() == 0 {
		return PopulationSnapshot{}, false
	}
	idx := (h.head - 1 + len(h.buf)) % len(h.buf)
	return h.buf[idx], true
}

// Series returns the population counts of one kind, oldest first.
func (h *History) Series(kind components.Kind) []float64 {
	snaps := h.Snapshots()
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = float64(s.Count(kind))
	}
	return out
}
