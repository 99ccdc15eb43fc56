package patient

import "testing"

func TestParseGrid_RoundTrip(t *testing.T) {
	g := Grid{
		{"date", "weight", "notes"},
		{"01/02/2026", "72", "stable"},
	}
	parsed := ParseGrid(g.Encode())
	if len(parsed) != 2 || len(parsed[0]) != 3 {
		t.Fatalf("unexpected shape: %dx%d", len(parsed), len(parsed[0]))
	}
	if parsed[1][2] != "stable" {
		t.Errorf("expected cell to survive round trip, got %q", parsed[1][2])
	}
}

func TestParseGrid_MalformedFallsBack(t *testing.T) {
	for _, input := range []string{"", "not json", "{\"a\":1}", "[]", "null"} {
		g := ParseGrid(input)
		if len(g) != GridRows {
			t.Fatalf("input %q: expected %d rows, got %d", input, GridRows, len(g))
		}
		for _, row := range g {
			if len(row) != GridCols {
				t.Fatalf("input %q: expected %d cols, got %d", input, GridCols, len(row))
			}
			for _, cell := range row {
				if cell != "" {
					t.Errorf("input %q: expected empty cell, got %q", input, cell)
				}
			}
		}
	}
}

func TestUpdate_Empty(t *testing.T) {
	if !(&Update{}).Empty() {
		t.Error("zero update should be empty")
	}
	name := "x"
	if (&Update{Name: &name}).Empty() {
		t.Error("update with a field should not be empty")
	}
}
