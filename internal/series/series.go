// Package series derives bounded plotting windows over growing numeric
// series. Consumers treat nil values as gaps and must not draw a segment
// across them.
package series

// Row is one plotted index: every tracked sub-series' value at that index,
// or nil where the sub-series has no sample yet.
type Row struct {
	Index  int
	Values map[string]*float64
}

// MaxLen returns the longest observed length across all sub-series, which is
// the natural upper bound for a plotting window.
func MaxLen(s map[string][]float64) int {
	max := 0
	for _, vals := range s {
		if len(vals) > max {
			max = len(vals)
		}
	}
	return max
}

// Window produces the rows for indices [start, start+max). Negative starts
// clamp to zero and non-positive max yields no rows. Indices beyond a
// sub-series' length produce nil gaps rather than interpolated values.
func Window(s map[string][]float64, start, max int) []Row {
	if start < 0 {
		start = 0
	}
	if max <= 0 || len(s) == 0 {
		return nil
	}
	end := start + max
	if longest := MaxLen(s); end > longest {
		end = longest
	}
	if end <= start {
		return nil
	}

	rows := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		row := Row{Index: i, Values: make(map[string]*float64, len(s))}
		for name, vals := range s {
			if i < len(vals) {
				v := vals[i]
				row.Values[name] = &v
			} else {
				row.Values[name] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}
