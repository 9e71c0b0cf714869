// Package scene derives a renderer-agnostic visual description from the
// current mesh/geometry/value snapshot. It owns no mutable state: every call
// recomputes the full description from its inputs, which keeps the view
// trivially consistent at the cost of an O(n) pass per frame.
package scene

import (
	"fieldscope/internal/colormap"
	"fieldscope/pkg/field"
)

// Visibility selects which parts of the scene are emitted.
type Visibility struct {
	// Wireframe toggles the per-cell outlines.
	Wireframe bool
	// Geometry maps outline name to whether its segments are emitted.
	Geometry map[string]bool
}

// Cell is one mesh cell with its fill encoding. Alpha zero means
// wireframe-only.
type Cell struct {
	Center field.Point
	Fill   colormap.Color
	Alpha  float64
}

// MeshView is the projected form of one named mesh.
type MeshView struct {
	CellSize  float64
	Normal    [3]float64
	Cells     []Cell
	Wireframe []field.Segment
}

// Scene is the full renderer-agnostic description for one frame.
type Scene struct {
	Meshes map[string]MeshView
	// Lines holds the visible geometry outlines, verbatim.
	Lines map[string][]field.Segment
	// HasField reports whether a selected field resolved to values; when
	// false every cell carries zero fill opacity.
	HasField bool
	Range    colormap.Range
	Legend   []colormap.LegendEntry
}

// LegendSteps is the number of legend ticks emitted per projection.
const LegendSteps = 9

// Project builds the scene for the given snapshot inputs. selected names the
// field whose values drive the fill colors; an empty or unknown name, or one
// missing from values, degrades to wireframe-only rendering. Value arrays
// shorter than a mesh's point list leave the trailing cells neutral; longer
// arrays have their excess ignored.
func Project(meshes field.MeshSet, geometry field.Geometry, values field.ValueOnMesh, selected string, vis Visibility) Scene {
	sc := Scene{
		Meshes: make(map[string]MeshView, len(meshes)),
		Lines:  make(map[string][]field.Segment),
	}

	byMesh, ok := values[selected]
	if selected == "" || !ok {
		byMesh = nil
	}
	if byMesh != nil {
		sc.Range, sc.HasField = globalRange(byMesh, meshes)
	}
	if sc.HasField {
		sc.Legend = colormap.Legend(sc.Range, LegendSteps)
	}

	for name, mesh := range meshes {
		view := MeshView{CellSize: mesh.CellSize, Normal: mesh.Normal}
		vals := byMesh[name]
		view.Cells = make([]Cell, len(mesh.Points))
		for i, pt := range mesh.Points {
			cell := Cell{Center: pt, Fill: colormap.Neutral}
			if sc.HasField && i < len(vals) {
				cell.Fill, cell.Alpha = colormap.Map(vals[i], sc.Range)
			}
			view.Cells[i] = cell
		}
		if vis.Wireframe {
			view.Wireframe = wireframe(mesh)
		}
		sc.Meshes[name] = view
	}

	for name, segs := range geometry {
		if vis.Geometry[name] {
			sc.Lines[name] = append([]field.Segment(nil), segs...)
		}
	}
	return sc
}

// globalRange computes the min/max of the selected field across every mesh
// that exists in the snapshot, so the color scale stays consistent between
// regions. Values for unknown meshes are ignored.
func globalRange(byMesh map[string][]float64, meshes field.MeshSet) (colormap.Range, bool) {
	var r colormap.Range
	found := false
	for name, vals := range byMesh {
		if _, ok := meshes[name]; !ok {
			continue
		}
		for _, v := range vals {
			if !found {
				r.Min, r.Max = v, v
				found = true
				continue
			}
			if v < r.Min {
				r.Min = v
			}
			if v > r.Max {
				r.Max = v
			}
		}
	}
	return r, found
}

// wireframe emits the four outline segments of every square cell.
func wireframe(mesh field.Mesh) []field.Segment {
	half := mesh.CellSize / 2
	segs := make([]field.Segment, 0, len(mesh.Points)*4)
	for _, pt := range mesh.Points {
		tl := field.Point{X: pt.X - half, Y: pt.Y + half}
		tr := field.Point{X: pt.X + half, Y: pt.Y + half}
		br := field.Point{X: pt.X + half, Y: pt.Y - half}
		bl := field.Point{X: pt.X - half, Y: pt.Y - half}
		segs = append(segs,
			field.Segment{A: tl, B: tr},
			field.Segment{A: tr, B: br},
			field.Segment{A: br, B: bl},
			field.Segment{A: bl, B: tl},
		)
	}
	return segs
}
