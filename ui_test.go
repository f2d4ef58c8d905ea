package main

import (
	"image/color"
	"slices"
	"testing"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/data"
)

func TestColumnsOf(t *testing.T) {
	type testcase struct {
		name     string
		rows     []data.RawDatum
		expected []string
	}
	for _, tc := range []testcase{
		{
			name: "empty",
		},
		{
			name: "union of keys",
			rows: []data.RawDatum{
				{"x": 1.0, "b": 2.0},
				{"x": 2.0, "a": "z"},
			},
			expected: []string{"a", "b", "x"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if cols := columnsOf(tc.rows); !slices.Equal(cols, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, cols)
			}
		})
	}
}

func TestFormatCell(t *testing.T) {
	type testcase struct {
		in       any
		expected string
	}
	for _, tc := range []testcase{
		{in: nil, expected: ""},
		{in: 1.5, expected: "1.5"},
		{in: "host", expected: "host"},
		{in: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), expected: "2024-03-01T12:00:00Z"},
	} {
		if out := formatCell(tc.in); out != tc.expected {
			t.Errorf("expected %q, got %q", tc.expected, out)
		}
	}
}

func TestWithOpacity(t *testing.T) {
	c := color.NRGBA{R: 10, A: 200}
	if out := withOpacity(c, 0.5); out.A != 100 || out.R != 10 {
		t.Errorf("expected alpha 100, got %v", out)
	}
	if out := withOpacity(c, 2); out.A != 200 {
		t.Errorf("expected opacity to be clamped, got %v", out)
	}
	if out := disabled(c); out.A != 100 {
		t.Errorf("expected alpha 100, got %v", out)
	}
}
