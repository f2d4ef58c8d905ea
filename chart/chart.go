// Package chart orchestrates series sharing a pair of axes: it combines
// their domains, drives their update cycles, resolves pointer positions
// to data across series and routes hover highlights.
package chart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/highlight"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

var chartCount atomic.Int64

// Chart holds series bound to one x and one y axis.
type Chart struct {
	lock sync.Mutex

	// id is the highlight caller id of pointer hovering.
	id            string
	width, height float64
	margin        Margin
	logger        *slog.Logger
	animation     time.Duration
	invalidate    func()
	pending       atomic.Bool

	x, y   Axis
	series []*series.Series
	hl     *highlight.Manager
}

// New returns an empty chart, 640x480 unless sized with WithSize.
func New(opts ...Option) *Chart {
	c := &Chart{
		id:     fmt.Sprintf("chart-%d", chartCount.Add(1)),
		width:  640,
		height: 480,
		margin: DefaultMargin,
		logger: slog.Default().With(slog.String("module", "chart")),
		x:      Axis{Direction: series.X, Scale: scale.NewLinear()},
		y:      Axis{Direction: series.Y, Scale: scale.NewLinear()},
		hl:     highlight.NewManager(),
	}
	for _, o := range opts {
		o(c)
	}
	c.hl.SetLogger(c.logger)
	c.hl.AddListener(c.restyle)
	return c
}

// requestUpdate forwards a series' dirty notification once per cycle. It
// takes no lock so series may call it from any goroutine.
func (c *Chart) requestUpdate() {
	if c.invalidate == nil {
		return
	}
	if c.pending.CompareAndSwap(false, true) {
		c.invalidate()
	}
}

// AddSeries binds series to the chart's axes.
func (c *Chart) AddSeries(ss ...*series.Series) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, s := range ss {
		if c.animation > 0 && s.Animation() == 0 {
			s.SetAnimation(c.animation)
		}
		s.SetInvalidate(c.requestUpdate)
		s.SetScales(c.x.Scale, c.y.Scale)
		c.series = append(c.series, s)
	}
}

// Series returns the chart's series in drawing order.
func (c *Chart) Series() []*series.Series {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]*series.Series(nil), c.series...)
}

func (c *Chart) find(id string) (*series.Series, error) {
	for _, s := range c.series {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownSeries, id)
}

// SetData processes rows for every series. One failing series does not
// keep the others from processing.
func (c *Chart) SetData(ctx context.Context, rows []data.RawDatum) error {
	var errs []error
	for _, s := range c.Series() {
		if err := s.ProcessData(ctx, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetSize resizes the chart.
func (c *Chart) SetSize(width, height float64) {
	c.lock.Lock()
	changed := c.width != width || c.height != height
	c.width, c.height = width, height
	c.lock.Unlock()
	if changed {
		c.requestUpdate()
	}
}

// Size returns the size of the chart, margins included.
func (c *Chart) Size() (width, height float64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.width, c.height
}

// PlotArea returns the origin and size of the area series draw in.
// Series coordinates are relative to its origin.
func (c *Chart) PlotArea() (x, y, width, height float64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	x, y, width, height = c.plotAreaLocked()
	return
}

func (c *Chart) plotAreaLocked() (x, y, width, height float64) {
	m := c.margin
	return m.Left, m.Top, max(0, c.width-m.Left-m.Right), max(0, c.height-m.Top-m.Bottom)
}

// Update combines the series domains into the axes, marks the series
// dirty when an axis changed and updates every series. now drives
// animations.
func (c *Chart) Update(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	// Dirty notifications raised by this cycle are handled by it.
	c.pending.Store(true)
	_, _, w, h := c.plotAreaLocked()
	xChanged := c.updateAxis(&c.x, 0, w)
	yChanged := c.updateAxis(&c.y, h, 0)
	ctx := c.hl.Context()
	for _, s := range c.series {
		if xChanged || yChanged {
			s.MarkNodeDataDirty()
		}
		s.RefreshStyles(ctx)
		s.Update(now)
	}
	c.pending.Store(false)
	for _, s := range c.series {
		if s.Dirty() {
			c.requestUpdate()
			break
		}
	}
}

func (c *Chart) updateAxis(a *Axis, start, end float64) bool {
	domains := make([][]any, 0, len(c.series))
	for _, s := range c.series {
		domains = append(domains, s.Domain(a.Direction))
	}
	combined := CombineDomains(a.Scale.Continuous(), domains...)
	changed, err := a.setDomain(combined, start, end)
	if err != nil {
		c.logger.Warn("axis domain unusable, no data will be shown", slog.String("axis", a.Direction.String()), slog.Any("error", err))
	}
	return changed
}

// Tick advances animations and reports whether any are still running.
func (c *Chart) Tick(now time.Time) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	running := false
	for _, s := range c.series {
		if s.Tick(now) {
			running = true
		}
	}
	return running
}

// Axis returns a copy of the axis in direction dir.
func (c *Chart) Axis(dir series.Direction) Axis {
	c.lock.Lock()
	defer c.lock.Unlock()
	if dir == series.X {
		return c.x
	}
	return c.y
}

// SetAxisOptions configures Nice rounding and the tick count of the axis
// in direction dir.
func (c *Chart) SetAxisOptions(dir series.Direction, nice bool, ticks int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	a := &c.y
	if dir == series.X {
		a = &c.x
	}
	a.Nice, a.Ticks = nice, ticks
}

// Groups returns the retained nodes of every series in drawing order, in
// plot area coordinates.
func (c *Chart) Groups() []scene.Group {
	c.lock.Lock()
	defer c.lock.Unlock()
	var out []scene.Group
	for _, s := range c.series {
		if !s.Visible() {
			continue
		}
		out = append(out, s.Groups()...)
	}
	return out
}

// Legend returns the legend entries of every series.
func (c *Chart) Legend() []series.LegendDatum {
	c.lock.Lock()
	defer c.lock.Unlock()
	var out []series.LegendDatum
	for _, s := range c.series {
		out = append(out, s.LegendData()...)
	}
	return out
}

// SetItemVisible shows or hides one legend item.
func (c *Chart) SetItemVisible(ctx context.Context, seriesID, itemID string, visible bool) error {
	c.lock.Lock()
	s, err := c.find(seriesID)
	c.lock.Unlock()
	if err != nil {
		return err
	}
	return s.SetItemVisible(ctx, itemID, visible)
}

// Hit is the datum a chart position resolved to.
type Hit struct {
	Series   *series.Series
	Datum    series.NodeDatum
	Mode     pick.Mode
	Distance float64
}

// Pick resolves a position in plot area coordinates to the best datum
// across all visible series: exact shape matches first, then the smallest
// distance. Later series win ties, as they are drawn on top.
func (c *Chart) Pick(pt f32.Point, allowed ...pick.Mode) (Hit, bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pickLocked(pt, allowed...)
}

func (c *Chart) pickLocked(pt f32.Point, allowed ...pick.Mode) (Hit, bool, error) {
	var (
		best  pick.Result
		hit   Hit
		found bool
	)
	for i := len(c.series) - 1; i >= 0; i-- {
		s := c.series[i]
		r, ok, err := s.PickNode(pt, allowed...)
		if err != nil {
			return Hit{}, false, err
		}
		if !ok {
			continue
		}
		if !found || pick.Better(r, best) {
			best, found = r, true
			d, _ := r.Match.Datum.(series.NodeDatum)
			hit = Hit{Series: s, Datum: d, Mode: r.Mode, Distance: r.Distance}
		}
	}
	return hit, found, nil
}

// Hover highlights the datum under a position in chart coordinates, or
// clears the hover highlight when there is none.
func (c *Chart) Hover(pt f32.Point) (Hit, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	x, y, _, _ := c.plotAreaLocked()
	local := pt.Sub(f32.Pt(float32(x), float32(y)))
	h, ok, err := c.pickLocked(local)
	if err != nil {
		c.logger.Warn("hover pick failed", slog.Any("error", err))
		ok = false
	}
	if !ok {
		c.hl.UpdateHighlight(c.id, nil)
		return Hit{}, false
	}
	c.hl.UpdateHighlight(c.id, &highlight.Target{
		SeriesID:   h.Datum.SeriesID,
		ItemID:     h.Datum.ItemID,
		DatumIndex: h.Datum.Index,
		Datum:      h.Datum.Datum,
	})
	return h, true
}

// Leave clears the highlight, whoever placed it.
func (c *Chart) Leave() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.hl.Clear()
}

// Highlight makes t the active highlight on behalf of callerID, such as a
// legend entry being hovered. A nil target clears the highlight.
func (c *Chart) Highlight(callerID string, t *highlight.Target) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.hl.UpdateHighlight(callerID, t)
}

// Highlighted returns the active highlight, or nil.
func (c *Chart) Highlighted() *highlight.Target {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.hl.Active()
}

// OnHighlight registers fn to run after every highlight change. fn runs
// with the chart locked and must not call back into it.
func (c *Chart) OnHighlight(fn highlight.Listener) (remove func()) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.hl.AddListener(fn)
}

// restyle runs under the chart lock from within a highlight change.
func (c *Chart) restyle(ev highlight.Event) {
	ctx := highlight.Context{Active: ev.Current}
	for _, s := range c.series {
		if highlight.Affects(ev, s.ID(), s.Dims()) {
			s.RefreshStyles(ctx)
		}
	}
	c.requestUpdate()
}
