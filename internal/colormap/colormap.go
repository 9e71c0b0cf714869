// Package colormap maps scalar field values onto a diverging
// blue-white-red color scale with a deterministic opacity profile. Every
// function here is pure; identical inputs always produce identical outputs.
package colormap

// Color is an 8-bit RGB triple. Opacity travels separately as a float so
// renderers that premultiply can do so themselves.
type Color struct {
	R, G, B uint8
}

// Range is the global [Min, Max] interval used to normalize values.
type Range struct {
	Min, Max float64
}

// Neutral is the color returned for degenerate ranges and for cells without
// a value.
var Neutral = Color{R: 255, G: 255, B: 255}

// Map converts value within r into a color and opacity. The value is clamped
// to the range first. A degenerate range (Min == Max) yields Neutral at full
// opacity.
//
// Colors interpolate blue -> white for the lower half of the range and
// white -> red for the upper half. Opacity follows a tent profile over the
// normalized position t: full opacity plateaus at the extremes (t <= 0.1 and
// t >= 0.9) and a linear taper down to 0.25 at the middle (t = 0.5), so
// mid-range cells let the wireframe and geometry behind them show through.
func Map(value float64, r Range) (Color, float64) {
	if r.Min == r.Max {
		return Neutral, 1.0
	}
	if value < r.Min {
		value = r.Min
	}
	if value > r.Max {
		value = r.Max
	}
	t := (value - r.Min) / (r.Max - r.Min)

	var c Color
	if t < 0.5 {
		factor := 2 * t
		ch := channel(factor)
		c = Color{R: ch, G: ch, B: 255}
	} else {
		factor := 2 * (t - 0.5)
		ch := channel(1 - factor)
		c = Color{R: 255, G: ch, B: ch}
	}
	return c, alphaFor(t)
}

// alphaFor is the tent opacity profile described on Map.
func alphaFor(t float64) float64 {
	const (
		plateau = 0.1
		floor   = 0.25
	)
	switch {
	case t <= plateau || t >= 1-plateau:
		return 1.0
	case t < 0.5:
		return 1.0 - (t-plateau)/(0.5-plateau)*(1.0-floor)
	case t > 0.5:
		return 1.0 - ((1-plateau)-t)/(0.5-plateau)*(1.0-floor)
	default:
		return floor
	}
}

func channel(factor float64) uint8 {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	return uint8(factor*255 + 0.5)
}

// LegendEntry is one tick of a rendered legend: the value and its mapped
// color at full legend opacity.
type LegendEntry struct {
	Value float64
	Color Color
}

// Legend samples r into steps evenly spaced entries from Min to Max
// inclusive. Fewer than two steps yields a single entry at Min.
func Legend(r Range, steps int) []LegendEntry {
	if steps < 2 {
		c, _ := Map(r.Min, r)
		return []LegendEntry{{Value: r.Min, Color: c}}
	}
	out := make([]LegendEntry, 0, steps)
	span := r.Max - r.Min
	for i := 0; i < steps; i++ {
		v := r.Min + span*float64(i)/float64(steps-1)
		c, _ := Map(v, r)
		out = append(out, LegendEntry{Value: v, Color: c})
	}
	return out
}
