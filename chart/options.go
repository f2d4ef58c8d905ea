package chart

import (
	"log/slog"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/scale"
)

// Margin is the space around the plot area, in chart units.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargin leaves room for axis tick labels on the left and bottom.
var DefaultMargin = Margin{Top: 10, Right: 20, Bottom: 30, Left: 50}

type Option func(*Chart)

// WithSize sets the size of the whole chart, margins included.
func WithSize(width, height float64) Option {
	return func(c *Chart) {
		c.width, c.height = width, height
	}
}

func WithMargin(m Margin) Option {
	return func(c *Chart) {
		c.margin = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Chart) {
		if l != nil {
			c.logger = l.With(slog.String("module", "chart"))
		}
	}
}

// WithAnimation sets the transition length of series added without one.
func WithAnimation(d time.Duration) Option {
	return func(c *Chart) {
		c.animation = d
	}
}

// WithXAxis replaces the default linear x scale.
func WithXAxis(s scale.Scale) Option {
	return func(c *Chart) {
		c.x.Scale = s
	}
}

// WithYAxis replaces the default linear y scale.
func WithYAxis(s scale.Scale) Option {
	return func(c *Chart) {
		c.y.Scale = s
	}
}

// WithNice rounds continuous axis domains out to tick boundaries.
func WithNice(nice bool) Option {
	return func(c *Chart) {
		c.x.Nice, c.y.Nice = nice, nice
	}
}

// WithInvalidate sets the function called when the chart needs an
// Update. It may be called from any goroutine, at most once between two
// updates.
func WithInvalidate(fn func()) Option {
	return func(c *Chart) {
		c.invalidate = fn
	}
}
