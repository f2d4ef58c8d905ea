package config

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"
	"github.com/reoring/goskema/rules"
)

// The schema checks a JSON view of an already decoded definition, so the
// YAML unmarshalers of colors, pick modes and durations still apply.

type definitionView struct {
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Animation float64      `json:"animation"`
	X         axisView     `json:"x"`
	Y         axisView     `json:"y"`
	Data      dataView     `json:"data"`
	Series    []seriesView `json:"series"`
}

type axisView struct {
	Scale        string  `json:"scale"`
	PaddingInner float64 `json:"paddingInner"`
	PaddingOuter float64 `json:"paddingOuter"`
}

type dataView struct {
	Format string `json:"format"`
}

type seriesView struct {
	Kind   string     `json:"kind"`
	ID     string     `json:"id"`
	Labels labelsView `json:"labels"`
}

type labelsView struct {
	Placement string `json:"placement"`
}

var (
	scaleKinds      = []string{"", "linear", "log", "time", "band"}
	dataFormats     = []string{"", "csv", "json"}
	seriesKinds     = []string{"bar", "line", "box-plot", "range-bar"}
	labelPlacements = []string{"", "insideEnd", "outside"}
)

var definitionSchema = newDefinitionSchema()

func axisSchema() goskema.Schema[axisView] {
	return g.ObjectOf[axisView]().
		Field("scale", g.StringOf[string]()).Required().
		Field("paddingInner", g.FloatOf[float64]().Min(0).Max(1)).Required().
		Field("paddingOuter", g.FloatOf[float64]().Min(0)).Required().
		UnknownStrict().
		MustBind()
}

func newDefinitionSchema() goskema.Schema[definitionView] {
	labels := g.ObjectOf[labelsView]().
		Field("placement", g.StringOf[string]()).Required().
		UnknownStrict().
		MustBind()
	series := g.ObjectOf[seriesView]().
		Field("kind", g.StringOf[string]()).Required().
		Field("id", g.StringOf[string]()).Required().
		Field("labels", g.SchemaOf(labels)).Required().
		UnknownStrict().
		MustBind()
	data := g.ObjectOf[dataView]().
		Field("format", g.StringOf[string]()).Required().
		UnknownStrict().
		MustBind()

	return g.ObjectOf[definitionView]().
		Field("width", g.FloatOf[float64]().Min(0)).Required().
		Field("height", g.FloatOf[float64]().Min(0)).Required().
		Field("animation", g.FloatOf[float64]().Min(0)).Required().
		Field("x", g.SchemaOf(axisSchema())).Required().
		Field("y", g.SchemaOf(axisSchema())).Required().
		Field("data", g.SchemaOf(data)).Required().
		Field("series", g.ArrayOf(series)).Required().
		UnknownStrict().
		RefineT("series_required", rules.AtLeastOne[definitionView]("/series")).
		RefineT("known_values", knownValues).
		RefineT("series_ids_unique", uniqueSeriesIDs).
		MustBind()
}

func knownValues(dc goskema.DomainCtx[definitionView], v definitionView) []goskema.Issue {
	var out []goskema.Issue
	oneOf := func(ref goskema.PathRef, what, got string, allowed []string) {
		if !slices.Contains(allowed, got) {
			out = append(out, ref.Issue(goskema.CodeInvalidEnum, fmt.Sprintf("unknown %s %q", what, got), "got", got))
		}
	}
	oneOf(dc.Ref.At("/x/scale"), "scale", v.X.Scale, scaleKinds)
	oneOf(dc.Ref.At("/y/scale"), "scale", v.Y.Scale, scaleKinds)
	oneOf(dc.Ref.At("/data/format"), "data format", v.Data.Format, dataFormats)
	for i, s := range v.Series {
		at := dc.Ref.At("/series").Index(i)
		oneOf(at.Field("kind"), "kind", s.Kind, seriesKinds)
		oneOf(at.Field("labels").Field("placement"), "label placement", s.Labels.Placement, labelPlacements)
	}
	return out
}

// uniqueSeriesIDs rejects repeated explicit ids. Empty ids are generated
// later and never collide.
func uniqueSeriesIDs(dc goskema.DomainCtx[definitionView], v definitionView) []goskema.Issue {
	seen := map[string]int{}
	var out []goskema.Issue
	for i, s := range v.Series {
		if s.ID == "" {
			continue
		}
		if j, ok := seen[s.ID]; ok {
			out = append(out, dc.Ref.At("/series").Index(i).Field("id").Issue(goskema.CodeUniqueness,
				fmt.Sprintf("duplicate series id %q, first used by series %d", s.ID, j), "first", j, "dup", i))
			continue
		}
		seen[s.ID] = i
	}
	return out
}

func viewOf(f *File) definitionView {
	v := definitionView{
		Width:     f.Width,
		Height:    f.Height,
		Animation: f.Animation.Seconds(),
		X:         axisView{Scale: f.X.Scale, PaddingInner: f.X.PaddingInner, PaddingOuter: f.X.PaddingOuter},
		Y:         axisView{Scale: f.Y.Scale, PaddingInner: f.Y.PaddingInner, PaddingOuter: f.Y.PaddingOuter},
		Data:      dataView{Format: f.Data.Format},
		Series:    make([]seriesView, len(f.Series)),
	}
	for i, s := range f.Series {
		v.Series[i] = seriesView{Kind: s.Kind, ID: s.ID}
		if s.Labels != nil {
			v.Series[i].Labels.Placement = s.Labels.Placement
		}
	}
	return v
}

// SchemaError lists every problem found in a chart definition. Issue
// paths are JSON pointers into the definition, like /series/1/kind.
type SchemaError struct {
	Issues goskema.Issues
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, it := range e.Issues {
		msgs[i] = it.Path + ": " + it.Message
	}
	return "invalid chart definition: " + strings.Join(msgs, "; ")
}

func (e *SchemaError) Unwrap() error { return e.Issues }

// check runs the definition schema over f.
func check(ctx context.Context, f *File) error {
	b, err := json.Marshal(viewOf(f))
	if err != nil {
		return fmt.Errorf("failed encoding chart definition: %w", err)
	}
	if _, err := goskema.ParseFrom(ctx, definitionSchema, goskema.JSONBytes(b)); err != nil {
		if iss, ok := goskema.AsIssues(err); ok {
			return &SchemaError{Issues: iss}
		}
		return fmt.Errorf("failed checking chart definition: %w", err)
	}
	return nil
}
