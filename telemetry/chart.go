package telemetry

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// maxChartPoints bounds the samples kept for the population chart.
const maxChartPoints = 2000

// chartBuffer keeps a decimated copy of the population history for plotting.
// When full it drops every other sample and doubles its stride.
type chartBuffer struct {
	stride int
	seen   int
	points []PopulationSnapshot
}

func newChartBuffer() *chartBuffer {
	return &chartBuffer{stride: 1}
}

func (b *chartBuffer) add(s PopulationSnapshot) {
	b.seen++
	if (b.seen-1)%b.stride != 0 {
		return
	}
	b.points = append(b.points, s)
	if len(b.points) < maxChartPoints {
		return
	}
	kept := b.points[:0]
	for i := 0; i < len(b.points); i += 2 {
		kept = append(kept, b.points[i])
	}
	b.points = kept
	b.stride *= 2
}

var (
	grassColor = drawing.Color{R: 76, G: 153, B: 0, A: 255}
	sheepColor = drawing.Color{R: 30, G: 100, B: 220, A: 255}
	wolfColor  = chart.ColorRed
)

// WritePopulationChart renders the grass, sheep and wolf counts over time as a
// PNG. Grass is plotted on the secondary axis since it outnumbers the animals.
func WritePopulationChart(w io.Writer, snaps []PopulationSnapshot) error {
	if len(snaps) < 2 {
		return fmt.Errorf("population chart needs at least 2 samples, got %d", len(snaps))
	}

	ticks := make([]float64, len(snaps))
	grass := make([]float64, len(snaps))
	sheep := make([]float64, len(snaps))
	wolves := make([]float64, len(snaps))
	for i, s := range snaps {
		ticks[i] = float64(s.Tick)
		grass[i] = float64(s.Grass)
		sheep[i] = float64(s.Sheep)
		wolves[i] = float64(s.Wolves)
	}

	graph := chart.Chart{
		Title:  "Population",
		Width:  1200,
		Height: 500,
		XAxis: chart.XAxis{
			Name:  "tick",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "animals",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: maxOf(sheep, wolves) + 1},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "grass",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: maxOf(grass) + 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "grass",
				YAxis:   chart.YAxisSecondary,
				XValues: ticks,
				YValues: grass,
				Style:   chart.Style{StrokeColor: grassColor, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "sheep",
				XValues: ticks,
				YValues: sheep,
				Style:   chart.Style{StrokeColor: sheepColor, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "wolves",
				XValues: ticks,
				YValues: wolves,
				Style:   chart.Style{StrokeColor: wolfColor, StrokeWidth: 2.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering population chart: %w", err)
	}
	return nil
}

func maxOf(series ...[]float64) float64 {
	m := 0.0
	for _, s := range series {
		for _, v := range s {
			m = max(m, v)
		}
	}
	return m
}
