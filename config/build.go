package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"

	"git.sr.ht/~whereswaldon/plotwise/chart"
	"git.sr.ht/~whereswaldon/plotwise/highlight"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

// Build returns the chart f describes, without data. opts are applied
// after the options of the definition.
func (f *File) Build(opts ...chart.Option) (*chart.Chart, error) {
	var chartOpts []chart.Option
	if f.Width > 0 && f.Height > 0 {
		chartOpts = append(chartOpts, chart.WithSize(f.Width, f.Height))
	}
	if f.Margin != nil {
		chartOpts = append(chartOpts, chart.WithMargin(chart.Margin(*f.Margin)))
	}
	if f.Animation > 0 {
		chartOpts = append(chartOpts, chart.WithAnimation(f.Animation))
	}
	chartOpts = append(chartOpts,
		chart.WithXAxis(f.X.scale()),
		chart.WithYAxis(f.Y.scale()),
	)
	c := chart.New(append(chartOpts, opts...)...)
	c.SetAxisOptions(series.X, f.X.Nice, f.X.Ticks)
	c.SetAxisOptions(series.Y, f.Y.Nice, f.Y.Ticks)

	var errs []error
	for i, sd := range f.Series {
		s, err := sd.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("series[%d]: %w", i, err))
			continue
		}
		c.AddSeries(s)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (a Axis) scale() scale.Scale {
	switch a.Scale {
	case "log":
		return scale.NewLog()
	case "time":
		s := scale.NewTime()
		if a.Unit > 0 {
			s.Unit = a.Unit
		}
		return s
	case "band":
		s := scale.NewBand()
		s.PaddingInner = a.PaddingInner
		s.PaddingOuter = a.PaddingOuter
		return s
	default:
		return scale.NewLinear()
	}
}

func colorOr(c *Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{}
	}
	return color.NRGBA(*c)
}

func nrgbaPtr(c *Color) *color.NRGBA {
	if c == nil {
		return nil
	}
	v := color.NRGBA(*c)
	return &v
}

func (s Series) options() series.Options {
	o := series.Options{
		ID:          s.ID,
		Title:       s.Title,
		Fill:        colorOr(s.Fill),
		Stroke:      colorOr(s.Stroke),
		StrokeWidth: s.StrokeWidth,
		KeepNodes:   s.KeepNodes,
	}
	for _, m := range s.PickModes {
		o.PickModes = append(o.PickModes, pick.Mode(m))
	}
	if l := s.Labels; l != nil {
		o.Label = series.LabelOptions{Enabled: l.Enabled, Color: colorOr(l.Color)}
		if l.Placement == "outside" {
			o.Label.Placement = series.LabelOutside
		}
		if l.Precision != nil {
			prec := *l.Precision
			o.Label.Formatter = func(v any) string {
				if f, ok := scale.ToFiniteFloat(v); ok {
					return strconv.FormatFloat(f, 'f', prec, 64)
				}
				return series.FormatValue(v)
			}
		}
	}
	if h := s.Highlight; h != nil {
		o.Highlight = highlight.Style{
			Enabled: h.Enabled,
			Item: highlight.ItemStyle{
				Fill:        nrgbaPtr(h.ItemFill),
				Stroke:      nrgbaPtr(h.ItemStroke),
				StrokeWidth: h.ItemStrokeWidth,
			},
			Series: highlight.SeriesStyle{
				DimOpacity:  h.DimOpacity,
				StrokeWidth: h.StrokeWidth,
			},
		}
	}
	return o
}

func (s Series) build() (*series.Series, error) {
	opts := s.options()
	switch s.Kind {
	case "bar":
		fills := make([]color.NRGBA, len(s.Fills))
		for i, c := range s.Fills {
			fills[i] = color.NRGBA(c)
		}
		return series.NewBar(series.BarOptions{
			Options:     opts,
			XKey:        s.XKey,
			YKeys:       s.YKeys,
			YNames:      s.YNames,
			Fills:       fills,
			NormalizeTo: s.NormalizeTo,
		})
	case "line":
		return series.NewLine(series.LineOptions{
			Options:        opts,
			XKey:           s.XKey,
			YKey:           s.YKey,
			YName:          s.YName,
			MarkerSize:     s.MarkerSize,
			ConnectMissing: s.ConnectMissing,
		})
	case "box-plot":
		return series.NewBoxPlot(series.BoxPlotOptions{
			Options:    opts,
			XKey:       s.XKey,
			MinKey:     s.MinKey,
			Q1Key:      s.Q1Key,
			MedianKey:  s.MedianKey,
			Q3Key:      s.Q3Key,
			MaxKey:     s.MaxKey,
			SamplesKey: s.SamplesKey,
		})
	case "range-bar":
		return series.NewRangeBar(series.RangeBarOptions{
			Options:  opts,
			XKey:     s.XKey,
			YLowKey:  s.YLowKey,
			YHighKey: s.YHighKey,
		})
	default:
		return nil, fmt.Errorf("unknown series kind %q", s.Kind)
	}
}
