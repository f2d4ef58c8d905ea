// Package config reads chart definitions from YAML files and builds the
// charts they describe.
package config

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.sr.ht/~whereswaldon/plotwise/pick"
)

// File is a chart definition.
type File struct {
	Width     float64       `yaml:"width"`
	Height    float64       `yaml:"height"`
	Title     string        `yaml:"title"`
	Animation time.Duration `yaml:"animation"`
	Margin    *Margin       `yaml:"margin"`
	X         Axis          `yaml:"x"`
	Y         Axis          `yaml:"y"`
	Data      Data          `yaml:"data"`
	Series    []Series      `yaml:"series"`

	// dir is the directory relative data paths are resolved against.
	dir string
}

type Margin struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// Axis selects and tunes the scale of one axis.
type Axis struct {
	// Scale is one of linear, log, time and band. It defaults to linear.
	Scale        string  `yaml:"scale"`
	Nice         bool    `yaml:"nice"`
	Ticks        int     `yaml:"ticks"`
	PaddingInner float64 `yaml:"paddingInner"`
	PaddingOuter float64 `yaml:"paddingOuter"`
	// Unit pads single-instant time domains.
	Unit time.Duration `yaml:"unit"`
}

// Data locates the rows of the chart.
type Data struct {
	Path string `yaml:"path"`
	// Format is csv or json, guessed from the path's extension when empty.
	Format string `yaml:"format"`
}

// Series is the definition of one series. Which keys apply depends on
// Kind.
type Series struct {
	Kind        string     `yaml:"kind"`
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Fill        *Color     `yaml:"fill"`
	Stroke      *Color     `yaml:"stroke"`
	StrokeWidth float64    `yaml:"strokeWidth"`
	KeepNodes   bool       `yaml:"keepNodes"`
	PickModes   []PickMode `yaml:"pickModes"`
	Labels      *Labels    `yaml:"labels"`
	Highlight   *Highlight `yaml:"highlight"`

	XKey string `yaml:"xKey"`

	// bar
	YKeys       []string          `yaml:"yKeys"`
	YNames      map[string]string `yaml:"yNames"`
	Fills       []Color           `yaml:"fills"`
	NormalizeTo float64           `yaml:"normalizeTo"`

	// line
	YKey           string  `yaml:"yKey"`
	YName          string  `yaml:"yName"`
	MarkerSize     float64 `yaml:"markerSize"`
	ConnectMissing bool    `yaml:"connectMissing"`

	// box plot
	MinKey     string `yaml:"minKey"`
	Q1Key      string `yaml:"q1Key"`
	MedianKey  string `yaml:"medianKey"`
	Q3Key      string `yaml:"q3Key"`
	MaxKey     string `yaml:"maxKey"`
	SamplesKey string `yaml:"samplesKey"`

	// range bar
	YLowKey  string `yaml:"yLowKey"`
	YHighKey string `yaml:"yHighKey"`
}

type Labels struct {
	Enabled bool `yaml:"enabled"`
	// Placement is insideEnd or outside.
	Placement string `yaml:"placement"`
	Color     *Color `yaml:"color"`
	// Precision fixes the number of decimals of numeric labels.
	Precision *int `yaml:"precision"`
}

type Highlight struct {
	Enabled         *bool    `yaml:"enabled"`
	DimOpacity      *float64 `yaml:"dimOpacity"`
	StrokeWidth     *float64 `yaml:"strokeWidth"`
	ItemFill        *Color   `yaml:"itemFill"`
	ItemStroke      *Color   `yaml:"itemStroke"`
	ItemStrokeWidth *float64 `yaml:"itemStrokeWidth"`
}

// Color is a #rrggbb or #rrggbbaa color.
type Color color.NRGBA

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = Color(parsed)
	return nil
}

// ParseColor parses a #rrggbb or #rrggbbaa hex color.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// PickMode is a pick mode by name, such as exact-shape-match.
type PickMode pick.Mode

func (m *PickMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := pick.ParseMode(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = PickMode(parsed)
	return nil
}

// Load decodes and validates a chart definition. Unknown fields are
// errors.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed decoding chart definition: %w", err)
	}
	if err := check(context.Background(), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile loads the chart definition at path. Relative data paths are
// resolved against the directory of path.
func LoadFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening chart definition: %w", err)
	}
	defer file.Close()
	f, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// DataPath returns the path of the data file, resolved against the
// definition's directory.
func (f *File) DataPath() string {
	if f.Data.Path == "" || filepath.IsAbs(f.Data.Path) || f.dir == "" {
		return f.Data.Path
	}
	return filepath.Join(f.dir, f.Data.Path)
}

// DataFormat returns the configured data format or guesses it from the
// file extension.
func (f *File) DataFormat() string {
	if f.Data.Format != "" {
		return f.Data.Format
	}
	if strings.EqualFold(filepath.Ext(f.Data.Path), ".json") {
		return "json"
	}
	return "csv"
}
