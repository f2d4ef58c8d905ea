package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goskema "github.com/reoring/goskema"

	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

const sample = `
width: 800
height: 400
animation: 250ms
x:
  scale: band
  paddingInner: 0.2
data:
  path: power.csv
series:
  - kind: bar
    id: draw
    xKey: host
    yKeys: [cpu, gpu]
    yNames:
      cpu: CPU
    fills: ["#2b7fa8", "#a4633a80"]
    normalizeTo: 100
    labels:
      enabled: true
      placement: outside
      precision: 1
    highlight:
      dimOpacity: 0.3
  - kind: line
    xKey: host
    yKey: total
    pickModes: [nearest-node, exact-shape-match]
`

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if f.Width != 800 || f.Animation != 250*time.Millisecond {
		t.Errorf("unexpected chart settings %v %v", f.Width, f.Animation)
	}
	if len(f.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(f.Series))
	}
	bar := f.Series[0]
	if got := color.NRGBA(bar.Fills[1]); got != (color.NRGBA{R: 0xa4, G: 0x63, B: 0x3a, A: 0x80}) {
		t.Errorf("unexpected fill %v", got)
	}
	if *bar.Highlight.DimOpacity != 0.3 {
		t.Errorf("expected dim opacity 0.3, got %v", *bar.Highlight.DimOpacity)
	}
	line := f.Series[1]
	if len(line.PickModes) != 2 || pick.Mode(line.PickModes[0]) != pick.NearestNode {
		t.Errorf("unexpected pick modes %v", line.PickModes)
	}
	if f.DataFormat() != "csv" {
		t.Errorf("expected csv, got %s", f.DataFormat())
	}
}

func TestLoadErrors(t *testing.T) {
	type testcase struct {
		name     string
		input    string
		expected string
	}
	for _, tc := range []testcase{
		{
			name:     "unknown field",
			input:    "widht: 3\nseries: [{kind: line}]\n",
			expected: "widht",
		},
		{
			name:     "bad color",
			input:    "series: [{kind: line, fill: red}]\n",
			expected: "invalid color",
		},
		{
			name:     "bad pick mode",
			input:    "series: [{kind: line, pickModes: [closest]}]\n",
			expected: "unknown pick mode",
		},
		{
			name:     "unknown kind",
			input:    "series: [{kind: pie}]\n",
			expected: `unknown kind "pie"`,
		},
		{
			name:     "no series",
			input:    "width: 10\n",
			expected: "/series: at least 1 item",
		},
		{
			name:     "bad scale",
			input:    "x: {scale: polar}\nseries: [{kind: line}]\n",
			expected: `/x/scale: unknown scale "polar"`,
		},
		{
			name:     "duplicate ids",
			input:    "series: [{kind: line, id: a}, {kind: bar, id: a}]\n",
			expected: `/series/1/id: duplicate series id "a"`,
		},
		{
			name:     "bad label placement",
			input:    "series: [{kind: bar, labels: {placement: above}}]\n",
			expected: `/series/0/labels/placement: unknown label placement "above"`,
		},
		{
			name:     "bad data format",
			input:    "data: {format: xml}\nseries: [{kind: line}]\n",
			expected: "/data/format",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.input))
			if err == nil || !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestLoadIssues(t *testing.T) {
	_, err := Load(strings.NewReader("width: -1\nanimation: -1s\nx: {paddingInner: 2}\nseries: [{kind: line}]\n"))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected a schema error, got %v", err)
	}
	iss, ok := goskema.AsIssues(err)
	if !ok {
		t.Fatalf("expected issues, got %v", err)
	}
	type testcase struct {
		path string
		code string
	}
	expected := []testcase{
		{path: "/animation", code: goskema.CodeTooSmall},
		{path: "/width", code: goskema.CodeTooSmall},
		{path: "/x/paddingInner", code: goskema.CodeTooBig},
	}
	if len(iss) != len(expected) {
		t.Fatalf("expected %d issues, got %v", len(expected), iss)
	}
	for i, tc := range expected {
		if iss[i].Path != tc.path || iss[i].Code != tc.code {
			t.Errorf("expected %s at %s, got %s at %s", tc.code, tc.path, iss[i].Code, iss[i].Path)
		}
	}
}

func TestBuild(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Build()
	if err != nil {
		t.Fatal(err)
	}
	if w, h := c.Size(); w != 800 || h != 400 {
		t.Errorf("expected 800x400, got %vx%v", w, h)
	}
	band, ok := c.Axis(series.X).Scale.(*scale.Band)
	if !ok || band.PaddingInner != 0.2 {
		t.Errorf("expected a band x scale with inner padding, got %T", c.Axis(series.X).Scale)
	}
	ss := c.Series()
	if len(ss) != 2 || ss[0].ID() != "draw" || ss[0].Kind() != series.KindBar || ss[1].Kind() != series.KindLine {
		t.Fatalf("unexpected series %v", ss)
	}
	if ss[0].Animation() != 250*time.Millisecond {
		t.Errorf("expected the chart animation on series, got %v", ss[0].Animation())
	}
	legend := ss[0].LegendData()
	if len(legend) != 2 || legend[0].Label != "CPU" || legend[0].Color != (color.NRGBA{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff}) {
		t.Errorf("unexpected legend %v", legend)
	}
}

func TestBuildInvalidSeries(t *testing.T) {
	f, err := Load(strings.NewReader("series: [{kind: line, strokeWidth: -2}]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Build(); err == nil || !strings.Contains(err.Error(), "series[0]") {
		t.Errorf("expected a series[0] error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if expected := filepath.Join(dir, "power.csv"); f.DataPath() != expected {
		t.Errorf("expected %s, got %s", expected, f.DataPath())
	}
}

func TestParseColor(t *testing.T) {
	type testcase struct {
		input    string
		expected color.NRGBA
		err      bool
	}
	for _, tc := range []testcase{
		{input: "#000000", expected: color.NRGBA{A: 0xff}},
		{input: "#ff800040", expected: color.NRGBA{R: 0xff, G: 0x80, A: 0x40}},
		{input: "ff8000", err: true},
		{input: "#ff80", err: true},
		{input: "#gg0000", err: true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseColor(tc.input)
			if tc.err {
				if err == nil {
					t.Errorf("expected an error")
				}
				return
			}
			if err != nil || got != tc.expected {
				t.Errorf("expected %v, got %v (%v)", tc.expected, got, err)
			}
		})
	}
}
