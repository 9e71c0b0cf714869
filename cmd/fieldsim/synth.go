package main

import (
	"encoding/json"
	"math"
)

// synth generates a deterministic two-region test case: an 8x8 grid and a
// 4x8 grid sharing one temperature field, a rectangular domain outline, and
// decaying residual series.
type synth struct {
	step int
}

func newSynth() *synth {
	return &synth{}
}

const (
	synthCellSize = 0.1
	synthCols     = 8
	synthRows     = 8
)

func gridPoints(cols, rows int, x0, y0 float64) [][]float64 {
	pts := make([][]float64, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pts = append(pts, []float64{
				x0 + float64(c)*synthCellSize,
				y0 + float64(r)*synthCellSize,
			})
		}
	}
	return pts
}

func mustFrame(frameType, fieldName string, value any, ts float64) []byte {
	payload, err := json.Marshal(map[string]any{
		"type":      frameType,
		"field":     fieldName,
		"value":     value,
		"timestamp": ts,
	})
	if err != nil {
		panic(err)
	}
	return payload
}

// Topology returns the replace frames describing meshes and geometry. These
// are re-sent to every joining client.
func (s *synth) Topology() [][]byte {
	meshes := map[string]any{
		"region1": map[string]any{
			"cellSize": synthCellSize,
			"normal":   []float64{0, 0, 1},
			"points":   gridPoints(synthCols, synthRows, 0, 0),
		},
		"region2": map[string]any{
			"cellSize": synthCellSize,
			"normal":   []float64{0, 0, 1},
			"points":   gridPoints(synthCols/2, synthRows, float64(synthCols)*synthCellSize, 0),
		},
	}
	width := float64(synthCols+synthCols/2) * synthCellSize
	height := float64(synthRows) * synthCellSize
	outline := [][][]float64{
		{{0, 0}, {width, 0}},
		{{width, 0}, {width, height}},
		{{width, height}, {0, height}},
		{{0, height}, {0, 0}},
	}
	geometry := map[string]any{"domain": outline}
	return [][]byte{
		mustFrame("replace", "mesh", meshes, 0),
		mustFrame("replace", "geometry", geometry, 0),
	}
}

// Next produces the frames for one emission step: a full replace of the
// temperature field and an append of the next residual samples.
func (s *synth) Next() [][]byte {
	s.step++
	ts := float64(s.step)

	phase := float64(s.step) * 0.2
	values := map[string]any{
		"temp": map[string]any{
			"region1": waveValues(synthCols*synthRows, phase),
			"region2": waveValues(synthCols/2*synthRows, phase+math.Pi/2),
		},
	}
	res := map[string]any{
		"max": []float64{math.Exp(-phase/4) * (1 + 0.3*math.Sin(phase*3))},
		"avg": []float64{math.Exp(-phase/4) * 0.5},
	}
	return [][]byte{
		mustFrame("replace", "values", values, ts),
		mustFrame("append", "residuals", res, ts),
	}
}

func waveValues(n int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 300 + 50*math.Sin(phase+float64(i)*0.15)
	}
	return out
}
