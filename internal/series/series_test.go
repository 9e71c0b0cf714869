package series

import "testing"

func TestMaxLen(t *testing.T) {
	s := map[string][]float64{
		"max": {1, 2, 3},
		"avg": {1},
	}
	if got := MaxLen(s); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := MaxLen(nil); got != 0 {
		t.Fatalf("expected 0 for nil series, got %d", got)
	}
}

func TestWindowEmitsGapsForShortSeries(t *testing.T) {
	s := map[string][]float64{
		"max": {1, 2, 3},
		"avg": {10},
	}
	rows := Window(s, 0, 3)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if v := rows[0].Values["avg"]; v == nil || *v != 10 {
		t.Fatalf("expected avg 10 at index 0, got %v", v)
	}
	// avg has no samples past index 0: nil gap, never interpolated.
	if rows[1].Values["avg"] != nil || rows[2].Values["avg"] != nil {
		t.Fatalf("expected nil gaps for missing avg samples")
	}
	if v := rows[2].Values["max"]; v == nil || *v != 3 {
		t.Fatalf("expected max 3 at index 2, got %v", v)
	}
}

func TestWindowOffsets(t *testing.T) {
	s := map[string][]float64{"max": {0, 1, 2, 3, 4}}

	rows := Window(s, 2, 2)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Index != 2 || rows[1].Index != 3 {
		t.Fatalf("unexpected indices %d, %d", rows[0].Index, rows[1].Index)
	}

	// Window extending past the data clamps to the longest series.
	rows = Window(s, 3, 10)
	if len(rows) != 2 {
		t.Fatalf("expected window clamped to 2 rows, got %d", len(rows))
	}

	// Negative start clamps to zero.
	rows = Window(s, -5, 2)
	if len(rows) != 2 || rows[0].Index != 0 {
		t.Fatalf("expected negative start clamped, got %v", rows)
	}
}

func TestWindowEmpty(t *testing.T) {
	if rows := Window(nil, 0, 10); rows != nil {
		t.Fatalf("expected nil rows for empty series, got %v", rows)
	}
	if rows := Window(map[string][]float64{"max": {1}}, 0, 0); rows != nil {
		t.Fatalf("expected nil rows for zero-length window, got %v", rows)
	}
	if rows := Window(map[string][]float64{"max": {1}}, 5, 3); rows != nil {
		t.Fatalf("expected nil rows for window past the data, got %v", rows)
	}
}

func TestRowValuesAreIndependentCopies(t *testing.T) {
	s := map[string][]float64{"max": {7}}
	rows := Window(s, 0, 1)
	*rows[0].Values["max"] = 99
	if s["max"][0] != 7 {
		t.Fatalf("window row aliases the backing series")
	}
}
