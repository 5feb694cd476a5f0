package inspector

import (
	"fmt"
	"math"
	"strings"
)

// barWidth is the number of cells in a text bar.
const barWidth = 20

// renderField renders one field according to its widget.
func renderField(f Field, limits map[string]float64) string {
	switch f.Widget {
	case WidgetBar:
		if v, ok := GetFloatValue(f.Value); ok {
			return RenderBar(f.Name, v, GetMax(f.Options, limits))
		}
	case WidgetBool:
		if v, ok := f.Value.(bool); ok {
			return RenderBool(f.Name, v)
		}
	}
	return RenderLabel(f.Name, f.Value, f.Options)
}

// RenderLabel renders a text value.
func RenderLabel(name string, value any, options map[string]string) string {
	return fmt.Sprintf("%-24s %s", name, FormatValue(value, options["fmt"]))
}

// RenderBar renders a horizontal progress bar followed by the value.
func RenderBar(name string, value, maxVal float64) string {
	ratio := 0.0
	if maxVal > 0 {
		ratio = min(1, max(0, value/maxVal))
	}
	filled := int(math.Round(ratio * barWidth))
	return fmt.Sprintf("%-24s [%s%s] %.2f/%.2f",
		name, strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), value, maxVal)
}

// RenderBool renders a checkbox.
func RenderBool(name string, value bool) string {
	mark := " "
	if value {
		mark = "x"
	}
	return fmt.Sprintf("%-24s [%s]", name, mark)
}
