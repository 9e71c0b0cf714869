package field

// Converters from dynamic field payloads into the typed shapes the
// visualization layers consume. All converters are tolerant: entries with a
// shape other than the documented one are dropped, never reported, so a
// partially valid payload still yields a usable result.
//
// Wire shapes:
//
//	mesh:     {"<mesh>": {"cellSize": n, "normal": [x,y,z], "points": [[x,y], ...]}}
//	geometry: {"<outline>": [[[x1,y1],[x2,y2]], ...]}
//	values:   {"<field>": {"<mesh>": [n, ...]}}
//	series:   {"<series>": {"<sub>": [n, ...]}}

// MeshesFrom converts a mesh field payload into a MeshSet.
func MeshesFrom(v any) MeshSet {
	byName, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(MeshSet, len(byName))
	for name, raw := range byName {
		desc, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var m Mesh
		m.CellSize, _ = asFloat(desc["cellSize"])
		if normal, ok := asFloats(desc["normal"]); ok && len(normal) == 3 {
			m.Normal = [3]float64{normal[0], normal[1], normal[2]}
		}
		if points, ok := desc["points"].([]any); ok {
			m.Points = make([]Point, 0, len(points))
			for _, rawPt := range points {
				if pt, ok := asPoint(rawPt); ok {
					m.Points = append(m.Points, pt)
				}
			}
		}
		out[name] = m
	}
	return out
}

// GeometryFrom converts a geometry field payload into named segment lists.
func GeometryFrom(v any) Geometry {
	byName, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(Geometry, len(byName))
	for name, raw := range byName {
		rawSegs, ok := raw.([]any)
		if !ok {
			continue
		}
		segs := make([]Segment, 0, len(rawSegs))
		for _, rawSeg := range rawSegs {
			pair, ok := rawSeg.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			a, okA := asPoint(pair[0])
			b, okB := asPoint(pair[1])
			if okA && okB {
				segs = append(segs, Segment{A: a, B: b})
			}
		}
		out[name] = segs
	}
	return out
}

// ValuesFrom converts a per-point value payload into ValueOnMesh.
func ValuesFrom(v any) ValueOnMesh {
	byField, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(ValueOnMesh, len(byField))
	for name, raw := range byField {
		byMesh, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		inner := make(map[string][]float64, len(byMesh))
		for mesh, rawVals := range byMesh {
			if vals, ok := asFloats(rawVals); ok {
				inner[mesh] = vals
			}
		}
		out[name] = inner
	}
	return out
}

// SeriesFrom converts a time-series payload into TimeSeries.
func SeriesFrom(v any) TimeSeries {
	byName, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(TimeSeries, len(byName))
	for name, raw := range byName {
		bySub, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		inner := make(map[string][]float64, len(bySub))
		for sub, rawVals := range bySub {
			if vals, ok := asFloats(rawVals); ok {
				inner[sub] = vals
			}
		}
		out[name] = inner
	}
	return out
}

// SamplesFrom converts a single series field payload (sub-series key ->
// numeric array) into the shape the series windower consumes.
func SamplesFrom(v any) map[string][]float64 {
	bySub, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]float64, len(bySub))
	for sub, rawVals := range bySub {
		if vals, ok := asFloats(rawVals); ok {
			out[sub] = vals
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asFloats(v any) ([]float64, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		n, ok := asFloat(e)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func asPoint(v any) (Point, bool) {
	coords, ok := asFloats(v)
	if !ok || len(coords) != 2 {
		return Point{}, false
	}
	return Point{X: coords[0], Y: coords[1]}, true
}
