package field

import (
	"encoding/json"
	"testing"
)

// decode is a test helper producing the dynamic shapes the wire boundary
// yields.
func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return v
}

func TestMeshesFrom(t *testing.T) {
	v := decode(t, `{
		"region1": {"cellSize": 0.1, "normal": [0,0,1], "points": [[0,0],[0.1,0],[0.2,0]]},
		"broken": 42
	}`)
	meshes := MeshesFrom(v)
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh (broken entry dropped), got %d", len(meshes))
	}
	m, ok := meshes["region1"]
	if !ok {
		t.Fatalf("expected region1")
	}
	if m.CellSize != 0.1 {
		t.Fatalf("expected cellSize 0.1, got %v", m.CellSize)
	}
	if m.Normal != [3]float64{0, 0, 1} {
		t.Fatalf("unexpected normal %v", m.Normal)
	}
	if len(m.Points) != 3 || m.Points[1] != (Point{X: 0.1, Y: 0}) {
		t.Fatalf("unexpected points %v", m.Points)
	}
}

func TestMeshesFromDropsBadPoints(t *testing.T) {
	v := decode(t, `{"r": {"cellSize": 1, "normal": [0,0,1], "points": [[0,0],["x",1],[1],[2,2]]}}`)
	meshes := MeshesFrom(v)
	if got := len(meshes["r"].Points); got != 2 {
		t.Fatalf("expected 2 valid points, got %d", got)
	}
}

func TestMeshesFromNonMap(t *testing.T) {
	if meshes := MeshesFrom("nope"); meshes != nil {
		t.Fatalf("expected nil for non-map payload, got %v", meshes)
	}
}

func TestGeometryFrom(t *testing.T) {
	v := decode(t, `{
		"domain": [[[0,0],[1,0]], [[1,0],[1,1]]],
		"bad": "nope"
	}`)
	g := GeometryFrom(v)
	segs, ok := g["domain"]
	if !ok || len(segs) != 2 {
		t.Fatalf("expected 2 domain segments, got %v", g)
	}
	want := Segment{A: Point{X: 1, Y: 0}, B: Point{X: 1, Y: 1}}
	if segs[1] != want {
		t.Fatalf("expected %v, got %v", want, segs[1])
	}
	if _, ok := g["bad"]; ok {
		t.Fatalf("expected bad entry dropped")
	}
}

func TestValuesFrom(t *testing.T) {
	v := decode(t, `{"temp": {"region1": [10, 20, 30], "junk": "x"}, "bad": 1}`)
	values := ValuesFrom(v)
	vals, ok := values["temp"]["region1"]
	if !ok || len(vals) != 3 || vals[1] != 20 {
		t.Fatalf("unexpected values %v", values)
	}
	if _, ok := values["temp"]["junk"]; ok {
		t.Fatalf("expected junk sub-entry dropped")
	}
	if _, ok := values["bad"]; ok {
		t.Fatalf("expected bad entry dropped")
	}
}

func TestSamplesFrom(t *testing.T) {
	v := decode(t, `{"max": [1, 2, 3], "avg": [0.5], "bad": "x"}`)
	samples := SamplesFrom(v)
	if len(samples) != 2 {
		t.Fatalf("expected 2 sub-series, got %d", len(samples))
	}
	if len(samples["max"]) != 3 || samples["max"][2] != 3 {
		t.Fatalf("unexpected max samples %v", samples["max"])
	}
}

func TestCloneValueIsolation(t *testing.T) {
	original := decode(t, `{"a": {"b": [1, 2]}, "c": 3}`)
	cloned := CloneValue(original)

	// Mutate the original through its dynamic shape.
	original.(map[string]any)["a"].(map[string]any)["b"].([]any)[0] = 99.0
	original.(map[string]any)["c"] = 42.0

	got := cloned.(map[string]any)["a"].(map[string]any)["b"].([]any)[0]
	if got != 1.0 {
		t.Fatalf("clone shares nested array with original: got %v", got)
	}
	if cloned.(map[string]any)["c"] != 3.0 {
		t.Fatalf("clone shares top level with original")
	}
}
