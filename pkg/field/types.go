// Package field defines the data model for a streamed simulation session:
// named fields holding dynamic payloads, plus the typed shapes (meshes,
// geometries, per-point values, time series) that the visualization layers
// derive from them.
package field

import "time"

// Point is a 2D coordinate within a mesh plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight line between two points, used for boundary and
// domain outlines as well as derived wireframes.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Mesh describes one named region of the spatial discretization: fixed-size
// square cells centered on Points, oriented by Normal. Point order is the
// positional identity of a cell and must stay stable for the lifetime of a
// connection; per-point values are addressed by index, not by id.
type Mesh struct {
	CellSize float64    `json:"cellSize"`
	Normal   [3]float64 `json:"normal"`
	Points   []Point    `json:"points"`
}

// MeshSet maps mesh name to its descriptor.
type MeshSet map[string]Mesh

// Geometry maps outline name to its line segments. Geometry has a lifecycle
// independent from meshes.
type Geometry map[string][]Segment

// ValueOnMesh maps field name -> mesh name -> per-point scalars, positionally
// aligned with the corresponding Mesh.Points. Length mismatches are tolerated
// by consumers (extra values ignored, missing values rendered neutral).
type ValueOnMesh map[string]map[string][]float64

// TimeSeries maps series name -> sub-series key -> samples. Series only grow
// within a session.
type TimeSeries map[string]map[string][]float64

// Field is one named unit of streamed data tracked by the store.
type Field struct {
	Name        string
	Value       any
	LastUpdated time.Time
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	cp := f
	cp.Value = CloneValue(f.Value)
	return cp
}

// CloneValue deep-copies a decoded JSON payload (maps, slices, scalars).
// Values of other types are returned as-is; the wire boundary only admits
// JSON shapes.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(val))
		for k, e := range val {
			cp[k] = CloneValue(e)
		}
		return cp
	case []any:
		cp := make([]any, len(val))
		for i, e := range val {
			cp[i] = CloneValue(e)
		}
		return cp
	default:
		return v
	}
}

// Clone returns a deep copy of the mesh.
func (m Mesh) Clone() Mesh {
	cp := m
	cp.Points = append([]Point(nil), m.Points...)
	return cp
}

// Clone returns a deep copy of the mesh set.
func (ms MeshSet) Clone() MeshSet {
	if ms == nil {
		return nil
	}
	cp := make(MeshSet, len(ms))
	for name, m := range ms {
		cp[name] = m.Clone()
	}
	return cp
}

// Clone returns a deep copy of the geometry.
func (g Geometry) Clone() Geometry {
	if g == nil {
		return nil
	}
	cp := make(Geometry, len(g))
	for name, segs := range g {
		cp[name] = append([]Segment(nil), segs...)
	}
	return cp
}

// Clone returns a deep copy of the values.
func (v ValueOnMesh) Clone() ValueOnMesh {
	if v == nil {
		return nil
	}
	cp := make(ValueOnMesh, len(v))
	for name, byMesh := range v {
		inner := make(map[string][]float64, len(byMesh))
		for mesh, vals := range byMesh {
			inner[mesh] = append([]float64(nil), vals...)
		}
		cp[name] = inner
	}
	return cp
}

// Clone returns a deep copy of the time series.
func (ts TimeSeries) Clone() TimeSeries {
	if ts == nil {
		return nil
	}
	cp := make(TimeSeries, len(ts))
	for name, bySub := range ts {
		inner := make(map[string][]float64, len(bySub))
		for sub, vals := range bySub {
			inner[sub] = append([]float64(nil), vals...)
		}
		cp[name] = inner
	}
	return cp
}
