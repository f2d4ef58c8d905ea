// Package series turns processed data into node data and keeps retained
// visual nodes in sync with it.
//
// A Series runs one update cycle at a time:
//
//	Idle -> ProcessingData -> DataReady -> GeneratingNodeData -> NodeDataReady -> Updating -> Idle
//
// ProcessData is only needed when the rows change. Everything else that
// changes geometry or style marks node data dirty, and the next Update
// regenerates it once no matter how many times it was marked.
package series

import (
	"context"
	"errors"
	"fmt"
	"html"
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/plotwise/anim"
	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/highlight"
	"git.sr.ht/~whereswaldon/plotwise/pick"
	"git.sr.ht/~whereswaldon/plotwise/scale"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/selection"
)

type State uint8

const (
	Idle State = iota
	ProcessingData
	DataReady
	GeneratingNodeData
	NodeDataReady
	Updating
)

func (s State) String() string {
	switch s {
	case ProcessingData:
		return "processing-data"
	case DataReady:
		return "data-ready"
	case GeneratingNodeData:
		return "generating-node-data"
	case NodeDataReady:
		return "node-data-ready"
	case Updating:
		return "updating"
	default:
		return "idle"
	}
}

type Kind uint8

const (
	KindBar Kind = iota
	KindLine
	KindBoxPlot
	KindRangeBar
)

func (k Kind) String() string {
	switch k {
	case KindBar:
		return "bar"
	case KindLine:
		return "line"
	case KindBoxPlot:
		return "box-plot"
	case KindRangeBar:
		return "range-bar"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// variant is implemented by each kind of series.
type variant interface {
	kind() Kind
	// definition returns the data model of the series. ok is false while a
	// required key is unset.
	definition(xContinuous bool, hidden map[string]bool) (def data.Definition, ok bool)
	domain(pd *data.ProcessedData, dir Direction) []any
	nodeData(b *build) NodeDataContext
	// items lists the legend entries of the series.
	items(b *build) []legendItem
	tooltip(d NodeDatum) (title string, lines []string)
	// pickModes returns the implemented modes and the default priority.
	pickModes() (supported, priority []pick.Mode)
	newNode() scene.Node
	// geometry flattens the geometry of d for interpolation, and
	// setGeometry applies such a vector to a node.
	geometry(d NodeDatum) []float64
	setGeometry(n scene.Node, v []float64)
	// nodeGeometry reads back the geometry currently held by a node.
	nodeGeometry(n scene.Node) []float64
}

type legendItem struct {
	id    string
	label string
	fill  color.NRGBA
}

var seriesCount atomic.Int64

// Series is one bar, line, box plot or range bar series.
type Series struct {
	lock sync.Mutex

	id     string
	opts   Options
	v      variant
	logger *slog.Logger
	color  int

	rows      []data.RawDatum
	proc      data.Processor
	processed *data.ProcessedData
	x, y      scale.Scale

	state   State
	dirty   bool
	pending bool
	gen     uint64
	ctx     NodeDataContext

	visible bool
	hidden  map[string]bool
	hl      highlight.Context

	datums *selection.Selection[NodeDatum, scene.Node]
	labels *selection.Selection[LabelDatum, *scene.Text]
	path   *scene.Path
	anim   *anim.Manager
}

func newSeries(opts Options, v variant) *Series {
	n := seriesCount.Add(1)
	if opts.ID == "" {
		opts.ID = fmt.Sprintf("%s-%d", v.kind(), n)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Series{
		id:      opts.ID,
		opts:    opts,
		v:       v,
		color:   int(n - 1),
		logger:  logger.With(slog.String("module", "series"), slog.String("series", opts.ID)),
		visible: true,
		hidden:  map[string]bool{},
		anim:    anim.NewManager(opts.Animation),
		dirty:   true,
	}
	s.datums = selection.New[NodeDatum](v.newNode)
	s.datums.GarbageCollect = !opts.KeepNodes
	s.datums.SetLogger(s.logger)
	s.datums.OnExit = func(key any, _ scene.Node) { s.anim.Stop(key) }
	s.labels = selection.New[LabelDatum](scene.NewText)
	s.labels.GarbageCollect = !opts.KeepNodes
	if v.kind() == KindLine {
		s.path = scene.NewPath()
	}
	return s
}

func (s *Series) ID() string    { return s.id }
func (s *Series) Kind() Kind    { return s.v.kind() }
func (s *Series) Title() string { return s.opts.Title }

// SetInvalidate replaces the function called when node data becomes
// dirty.
func (s *Series) SetInvalidate(fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.opts.Invalidate = fn
	s.pending = false
}

// SetAnimation changes the length of geometry transitions. Zero disables
// them.
func (s *Series) SetAnimation(d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.anim.Duration = d
}

// Animation returns the length of geometry transitions.
func (s *Series) Animation() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.anim.Duration
}

// State returns the current step of the update cycle.
func (s *Series) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// SetScales binds the series to the scales of its x and y axes.
func (s *Series) SetScales(x, y scale.Scale) {
	s.lock.Lock()
	s.x, s.y = x, y
	inv := s.markDirtyLocked()
	s.lock.Unlock()
	inv()
}

func (s *Series) xContinuous() bool {
	if s.x != nil {
		return s.x.Continuous()
	}
	return s.v.kind() == KindLine
}

// ProcessData runs the series' data model over rows. A series whose
// required keys are unset processes to nothing without error. When a
// newer call overtakes this one, this one's result is dropped and nil is
// returned.
func (s *Series) ProcessData(ctx context.Context, rows []data.RawDatum) error {
	s.lock.Lock()
	s.rows = rows
	s.state = ProcessingData
	def, ok := s.v.definition(s.xContinuous(), s.hidden)
	s.lock.Unlock()

	var pd *data.ProcessedData
	var modelErr error
	if ok {
		var m *data.Model
		m, modelErr = data.NewModel(def)
		if modelErr == nil {
			var err error
			pd, err = s.proc.Process(ctx, m, rows)
			if errors.Is(err, data.ErrSuperseded) {
				s.logger.Debug("discarded superseded data")
				return nil
			} else if err != nil {
				s.lock.Lock()
				s.state = DataReady
				s.lock.Unlock()
				return fmt.Errorf("failed processing data for %s: %w", s.id, err)
			}
			if pd.InvalidCount > 0 {
				s.logger.Debug("excluded invalid rows", slog.Int("invalid", pd.InvalidCount), slog.Int("rows", pd.Len()))
			}
		}
	}
	if pd == nil {
		s.proc.Reset()
		if modelErr == nil {
			s.logger.Warn("series configuration incomplete, no data will be shown")
		}
	}

	s.lock.Lock()
	if pd != nil && pd.Seq != s.proc.Seq() {
		s.lock.Unlock()
		s.logger.Debug("discarded superseded data")
		return nil
	}
	s.processed = pd
	s.state = DataReady
	inv := s.markDirtyLocked()
	s.lock.Unlock()
	inv()
	if modelErr != nil {
		return fmt.Errorf("failed building data model for %s: %w", s.id, modelErr)
	}
	return nil
}

// Processed returns the latest processed data, nil when there is none.
func (s *Series) Processed() *data.ProcessedData {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.processed
}

// Domain returns the series' contribution to the domain of the axis in
// direction dir. Hidden and unconfigured series contribute nothing.
func (s *Series) Domain(dir Direction) []any {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.visible || s.processed == nil {
		return nil
	}
	return s.v.domain(s.processed, dir)
}

// MarkNodeDataDirty schedules node data regeneration for the next Update.
func (s *Series) MarkNodeDataDirty() {
	s.lock.Lock()
	inv := s.markDirtyLocked()
	s.lock.Unlock()
	inv()
}

// markDirtyLocked returns the invalidation to run once the lock is
// released.
func (s *Series) markDirtyLocked() func() {
	s.dirty = true
	if s.pending || s.opts.Invalidate == nil {
		return func() {}
	}
	s.pending = true
	return s.opts.Invalidate
}

// Dirty reports whether node data will be regenerated by the next Update.
func (s *Series) Dirty() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.dirty
}

// NodeDataGeneration counts how many times node data was generated.
func (s *Series) NodeDataGeneration() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.gen
}

// CreateNodeData generates node data from the processed data and the
// current scales. It is a pure function of those: calling it twice without
// changes in between yields equal results.
func (s *Series) CreateNodeData() []NodeDataContext {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.createNodeDataLocked()
	return []NodeDataContext{s.ctx}
}

func (s *Series) createNodeDataLocked() {
	s.state = GeneratingNodeData
	s.gen++
	s.dirty, s.pending = false, false
	ctx := NodeDataContext{SeriesID: s.id}
	if s.visible && s.processed != nil && s.x != nil && s.y != nil {
		ctx = s.v.nodeData(s.newBuild())
	}
	s.ctx = ctx
	s.state = NodeDataReady
}

// NodeData returns the node data of the last generation.
func (s *Series) NodeData() NodeDataContext {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ctx
}

// Update regenerates node data if it is dirty, reconciles the retained
// nodes with it and restyles them. now drives animations.
func (s *Series) Update(now time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.dirty {
		s.createNodeDataLocked()
	}
	s.state = Updating
	s.updateDatumSelection(now)
	s.updateLabelSelection()
	s.updateDatumNodes()
	s.state = Idle
}

func (s *Series) updateDatumSelection(now time.Time) {
	previous := map[any][]float64{}
	for d, n := range s.datums.All() {
		previous[d.Key()] = s.v.nodeGeometry(n)
	}
	s.datums.Update(s.ctx.NodeData, func(_ int, d NodeDatum) any { return d.Key() })
	for d, n := range s.datums.All() {
		target := s.v.geometry(d)
		from, existed := previous[d.Key()]
		if !existed || s.anim.Duration <= 0 {
			s.anim.Stop(d.Key())
			s.v.setGeometry(n, target)
			continue
		}
		s.anim.Animate(now, d.Key(), from, target, func(v []float64) { s.v.setGeometry(n, v) })
	}
	if s.path != nil {
		s.path.Segments = s.ctx.Segments
	}
}

func (s *Series) updateLabelSelection() {
	s.labels.Update(s.ctx.Labels, func(_ int, l LabelDatum) any { return l.key() })
	for l, t := range s.labels.All() {
		t.X, t.Y = l.X, l.Y
		t.Text = l.Text
		t.Anchor = l.Anchor
		t.Fill = l.Fill
	}
}

func (s *Series) updateDatumNodes() {
	style := s.opts.Highlight
	for d, n := range s.datums.All() {
		state := highlight.Classify(s.hl, s.id, d.ItemID, d.Index)
		ns := n.NodeStyle()
		ns.Fill, ns.Stroke = highlight.Colors(style, state, d.Fill, d.Stroke)
		ns.StrokeWidth = highlight.StrokeWidth(style, state, d.StrokeWidth)
		ns.Opacity = highlight.Opacity(style, state)
		ns.Visible = true
	}
	for l, t := range s.labels.All() {
		t.Opacity = highlight.Opacity(style, highlight.Classify(s.hl, s.id, l.ItemID, l.Index))
		t.Visible = s.opts.Label.Enabled
	}
	if s.path != nil {
		state := highlight.Classify(s.hl, s.id, "", -1)
		if state == highlight.PeerHighlighted {
			// The line as a whole belongs to the highlighted series.
			state = highlight.Highlighted
		}
		s.path.Stroke = s.fill()
		s.path.StrokeWidth = highlight.StrokeWidth(style, state, s.strokeWidth())
		s.path.Opacity = highlight.Opacity(style, state)
		s.path.Visible = s.visible && len(s.ctx.Segments) > 0
	}
}

// Tick advances running animations and reports whether any remain.
func (s *Series) Tick(now time.Time) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.anim.Tick(now)
}

// RefreshStyles restyles the retained nodes for a new highlight state
// without regenerating node data.
func (s *Series) RefreshStyles(ctx highlight.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.hl = ctx
	s.updateDatumNodes()
}

// Dims reports whether the series dims data when something else is
// highlighted.
func (s *Series) Dims() bool {
	h := s.opts.Highlight
	return h.IsEnabled() && h.Series.DimOpacity != nil && *h.Series.DimOpacity != 1
}

// Groups returns the retained nodes in drawing order.
func (s *Series) Groups() []scene.Group {
	s.lock.Lock()
	defer s.lock.Unlock()
	var groups []scene.Group
	if s.path != nil {
		groups = append(groups, scene.Group{Name: s.id + "/path", Nodes: []scene.Node{s.path}})
	}
	groups = append(groups, scene.Group{Name: s.id + "/data", Nodes: s.datums.Nodes()})
	labels := scene.Group{Name: s.id + "/labels"}
	for _, t := range s.labels.Nodes() {
		labels.Nodes = append(labels.Nodes, t)
	}
	return append(groups, labels)
}

// SetVisible shows or hides the whole series.
func (s *Series) SetVisible(visible bool) {
	s.lock.Lock()
	s.visible = visible
	inv := s.markDirtyLocked()
	s.lock.Unlock()
	inv()
}

// Visible reports whether the series is shown.
func (s *Series) Visible() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.visible
}

// SetItemVisible shows or hides one item. Items of stacked bars are
// reprocessed with their value forced to zero, so the remaining items keep
// stable baselines. For other kinds the only item is the series itself.
func (s *Series) SetItemVisible(ctx context.Context, itemID string, visible bool) error {
	if s.v.kind() != KindBar {
		s.SetVisible(visible)
		return nil
	}
	s.lock.Lock()
	if s.hidden[itemID] == !visible {
		s.lock.Unlock()
		return nil
	}
	if visible {
		delete(s.hidden, itemID)
	} else {
		s.hidden[itemID] = true
	}
	rows := s.rows
	s.lock.Unlock()
	return s.ProcessData(ctx, rows)
}

// PickNode resolves a series-local point to one of the series' data. It
// fails with pick.ErrNotImplemented when asked for a mode the series does
// not implement.
func (s *Series) PickNode(pt f32.Point, allowed ...pick.Mode) (pick.Result, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	supported, priority := s.v.pickModes()
	if len(s.opts.PickModes) > 0 {
		priority = s.opts.PickModes
	}
	pk := pick.Picker{
		Supported:    supported,
		Priority:     priority,
		CategoryAxis: s.x != nil && s.x.Kind() == scale.KindBand,
	}
	if !s.visible {
		return pick.Result{}, false, nil
	}
	cands := make([]pick.Candidate, 0, s.datums.Len())
	for d, n := range s.datums.All() {
		cands = append(cands, pick.Candidate{Datum: d, Node: n, Mid: d.Mid})
	}
	r, ok, err := pk.Pick(pt, cands, allowed...)
	if err != nil {
		return r, false, fmt.Errorf("series %s: %w", s.id, err)
	}
	return r, ok, nil
}

// LegendData returns one entry per item.
func (s *Series) LegendData() []LegendDatum {
	s.lock.Lock()
	defer s.lock.Unlock()
	items := s.v.items(s.newBuild())
	out := make([]LegendDatum, 0, len(items))
	for _, it := range items {
		out = append(out, LegendDatum{
			SeriesID: s.id,
			ItemID:   it.id,
			Label:    it.label,
			Color:    it.fill,
			Enabled:  s.visible && !s.hidden[it.id],
		})
	}
	return out
}

// TooltipLines returns the unformatted title and lines of the tooltip of
// d.
func (s *Series) TooltipLines(d NodeDatum) (title string, lines []string) {
	title, lines = s.v.tooltip(d)
	if s.opts.Title != "" && title == "" {
		title = s.opts.Title
	}
	return title, lines
}

// TooltipHTML renders the tooltip of d. The default content escapes every
// value.
func (s *Series) TooltipHTML(d NodeDatum) string {
	title, lines := s.TooltipLines(d)
	if s.opts.Tooltip != nil {
		return s.opts.Tooltip(TooltipParams{SeriesID: s.id, Title: title, Datum: d, Lines: lines})
	}
	var b strings.Builder
	b.WriteString(`<div class="tooltip">`)
	if title != "" {
		b.WriteString(`<div class="tooltip-title">`)
		b.WriteString(html.EscapeString(title))
		b.WriteString(`</div>`)
	}
	b.WriteString(`<div class="tooltip-content">`)
	for i, l := range lines {
		if i > 0 {
			b.WriteString("<br>")
		}
		b.WriteString(html.EscapeString(l))
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func (s *Series) fill() color.NRGBA {
	if s.opts.Fill != (color.NRGBA{}) {
		return s.opts.Fill
	}
	return PaletteColor(s.color)
}

func (s *Series) stroke() color.NRGBA {
	if s.opts.Stroke != (color.NRGBA{}) {
		return s.opts.Stroke
	}
	return darken(s.fill())
}

func (s *Series) strokeWidth() float64 {
	if s.opts.StrokeWidth > 0 {
		return s.opts.StrokeWidth
	}
	if s.v.kind() == KindLine {
		return 2
	}
	return 1
}
