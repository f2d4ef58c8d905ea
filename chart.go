package main

import (
	"context"
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/plotwise/chart"
	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/scene"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

var checkedIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.ToggleCheckBox)
	return icon
}()

var uncheckedIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.ToggleCheckBoxOutlineBlank)
	return icon
}()

// ChartView draws a chart with its axes, a hover tooltip and a legend
// table whose rows toggle item visibility.
type ChartView struct {
	chart *chart.Chart
	// invalidate requests another frame while animations run.
	invalidate func()

	enabled  map[string]*widget.Bool
	keyTable component.GridState

	// hover gesture state
	pos       f32.Point
	isHovered bool
	hit       chart.Hit
	hasHit    bool
}

func NewChartView(c *chart.Chart, invalidate func()) *ChartView {
	return &ChartView{
		chart:      c,
		invalidate: invalidate,
		enabled:    make(map[string]*widget.Bool),
	}
}

// SetData hands rows to every series of the chart.
func (v *ChartView) SetData(rows []data.RawDatum) error {
	return v.chart.SetData(context.Background(), rows)
}

func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	call := macro.Stop()
	return dims, call
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}

func legendKey(l series.LegendDatum) string {
	return l.SeriesID + "\x00" + l.ItemID
}

func (v *ChartView) Update(gtx C) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: v,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Enter, pointer.Move:
			v.isHovered = true
			v.pos = e.Position
			v.hit, v.hasHit = v.chart.Hover(e.Position)
		case pointer.Leave, pointer.Cancel:
			v.isHovered = false
			v.hasHit = false
			v.chart.Leave()
		}
	}
	for _, l := range v.chart.Legend() {
		b, ok := v.enabled[legendKey(l)]
		if !ok {
			b = &widget.Bool{Value: l.Enabled}
			v.enabled[legendKey(l)] = b
		}
		if b.Update(gtx) {
			if err := v.chart.SetItemVisible(context.Background(), l.SeriesID, l.ItemID, b.Value); err != nil {
				b.Value = !b.Value
			}
		}
	}
}

func (v *ChartView) Layout(gtx C, th *material.Theme) D {
	v.Update(gtx)
	origConstraints := gtx.Constraints

	// Determine the space occupied by the key.
	macro := op.Record(gtx.Ops)
	gtx.Constraints.Min = image.Point{}
	gtx.Constraints.Max.Y /= 3
	keyDims := v.layoutLegend(gtx, th)
	keyCall := macro.Stop()
	gtx.Constraints = origConstraints

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			return v.layoutPlot(gtx, th)
		}),
		layout.Rigid(func(gtx C) D {
			keyCall.Add(gtx.Ops)
			return keyDims
		}),
	)
}

func (v *ChartView) layoutPlot(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	v.chart.SetSize(float64(size.X), float64(size.Y))
	v.chart.Update(gtx.Now)
	if v.chart.Tick(gtx.Now) && v.invalidate != nil {
		v.invalidate()
	}

	area := clip.Rect{Max: size}.Push(gtx.Ops)
	event.Op(gtx.Ops, v)
	x, y, w, h := v.chart.PlotArea()
	origin := image.Pt(int(x), int(y))
	plotSize := image.Pt(int(w), int(h))
	v.layoutGrid(gtx, th, origin, plotSize)

	plot := op.Offset(origin).Push(gtx.Ops)
	plotClip := clip.Rect{Max: plotSize}.Push(gtx.Ops)
	for _, g := range v.chart.Groups() {
		for _, n := range g.Nodes {
			v.drawNode(gtx, th, n)
		}
	}
	plotClip.Pop()
	plot.Pop()

	if v.isHovered && v.hasHit {
		v.layoutTooltip(gtx, th)
	}
	area.Pop()
	return D{Size: size}
}

// layoutGrid draws grid lines, axis lines and tick labels around the plot
// area.
func (v *ChartView) layoutGrid(gtx C, th *material.Theme, origin, size image.Point) {
	oneDp := max(gtx.Dp(1), 1)
	gap := gtx.Dp(4)
	label := material.Body2(th, "")
	label.Color = labelColor
	label.MaxLines = 1
	ltx := gtx
	ltx.Constraints.Min = image.Point{}

	xAxis, yAxis := v.chart.Axis(series.X), v.chart.Axis(series.Y)
	for _, t := range xAxis.TickMarks() {
		px := origin.X + int(t.Position)
		paint.FillShape(gtx.Ops, gridColor, clip.Rect{
			Min: image.Pt(px, origin.Y),
			Max: image.Pt(px+oneDp, origin.Y+size.Y),
		}.Op())
		label.Text = t.Label
		dims, call := rec(ltx, label.Layout)
		stack := op.Offset(image.Pt(px-dims.Size.X/2, origin.Y+size.Y+gap)).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
	for _, t := range yAxis.TickMarks() {
		py := origin.Y + int(t.Position)
		paint.FillShape(gtx.Ops, gridColor, clip.Rect{
			Min: image.Pt(origin.X, py),
			Max: image.Pt(origin.X+size.X, py+oneDp),
		}.Op())
		label.Text = t.Label
		dims, call := rec(ltx, label.Layout)
		stack := op.Offset(image.Pt(origin.X-gap-dims.Size.X, py-dims.Size.Y/2)).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
	paint.FillShape(gtx.Ops, axisColor, clip.Rect{
		Min: image.Pt(origin.X-oneDp, origin.Y),
		Max: image.Pt(origin.X, origin.Y+size.Y),
	}.Op())
	paint.FillShape(gtx.Ops, axisColor, clip.Rect{
		Min: image.Pt(origin.X, origin.Y+size.Y),
		Max: image.Pt(origin.X+size.X, origin.Y+size.Y+oneDp),
	}.Op())
}

func rectOp(x0, y0, x1, y1 float64) clip.Rect {
	return clip.Rect{
		Min: image.Pt(int(floor(min(x0, x1))), int(floor(min(y0, y1)))),
		Max: image.Pt(int(ceil(max(x0, x1))), int(ceil(max(y0, y1)))),
	}
}

func (v *ChartView) drawNode(gtx C, th *material.Theme, n scene.Node) {
	st := n.NodeStyle()
	if !st.Visible || st.Opacity <= 0 {
		return
	}
	fill := withOpacity(st.Fill, st.Opacity)
	stroke := withOpacity(st.Stroke, st.Opacity)
	switch n := n.(type) {
	case *scene.Rect:
		x0, y0, x1, y1 := n.Normalized()
		paint.FillShape(gtx.Ops, fill, rectOp(x0, y0, x1, y1).Op())
	case *scene.Marker:
		r := n.Size / 2
		bounds := rectOp(n.X-r, n.Y-r, n.X+r, n.Y+r)
		if n.Shape == scene.Square {
			paint.FillShape(gtx.Ops, fill, bounds.Op())
			return
		}
		paint.FillShape(gtx.Ops, fill, clip.Ellipse{Min: bounds.Min, Max: bounds.Max}.Op(gtx.Ops))
	case *scene.Path:
		width := float32(max(st.StrokeWidth, 1))
		for _, seg := range n.Segments {
			if len(seg) < 2 {
				continue
			}
			var p clip.Path
			p.Begin(gtx.Ops)
			p.MoveTo(f32.Pt(float32(seg[0].X), float32(seg[0].Y)))
			for _, pt := range seg[1:] {
				p.LineTo(f32.Pt(float32(pt.X), float32(pt.Y)))
			}
			paint.FillShape(gtx.Ops, stroke, clip.Stroke{Path: p.End(), Width: width}.Op())
		}
	case *scene.Box:
		line := stroke
		if line.A == 0 {
			line = fill
		}
		half := max(st.StrokeWidth, 1) / 2
		cx := n.X + n.Width/2
		whisker := n.Width * n.WhiskerWidth / 2
		paint.FillShape(gtx.Ops, line, rectOp(cx-half, n.Min, cx+half, n.Max).Op())
		paint.FillShape(gtx.Ops, line, rectOp(cx-whisker, n.Min-half, cx+whisker, n.Min+half).Op())
		paint.FillShape(gtx.Ops, line, rectOp(cx-whisker, n.Max-half, cx+whisker, n.Max+half).Op())
		paint.FillShape(gtx.Ops, fill, rectOp(n.X, n.Q1, n.X+n.Width, n.Q3).Op())
		paint.FillShape(gtx.Ops, line, rectOp(n.X, n.Median-half, n.X+n.Width, n.Median+half).Op())
	case *scene.Text:
		size := unit.Sp(11)
		if n.Size > 0 {
			size = unit.Sp(n.Size)
		}
		l := material.Label(th, size, n.Text)
		l.MaxLines = 1
		l.Color = labelColor
		if fill.A > 0 {
			l.Color = fill
		}
		ltx := gtx
		ltx.Constraints.Min = image.Point{}
		dims, call := rec(ltx, l.Layout)
		pos := image.Pt(int(n.X), int(n.Y)-(dims.Size.Y-dims.Baseline))
		switch n.Anchor {
		case scene.AnchorMiddle:
			pos.X -= dims.Size.X / 2
		case scene.AnchorEnd:
			pos.X -= dims.Size.X
		}
		stack := op.Offset(pos).Push(gtx.Ops)
		call.Add(gtx.Ops)
		stack.Pop()
	}
}

func (v *ChartView) layoutTooltip(gtx C, th *material.Theme) {
	title, lines := v.hit.Series.TooltipLines(v.hit.Datum)
	children := make([]layout.FlexChild, 0, len(lines)+1)
	if title != "" {
		children = append(children, layout.Rigid(material.Body1(th, title).Layout))
	}
	for _, line := range lines {
		children = append(children, layout.Rigid(material.Body2(th, line).Layout))
	}
	origConstraints := gtx.Constraints
	gtx.Constraints.Min = image.Point{}
	hoverInfoDims, hoverInfoCall := rec(gtx, func(gtx C) D {
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 220}, clip.Rect{Max: gtx.Constraints.Min}.Op())
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(8).Layout(gtx, func(gtx C) D {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
				})
			},
		)
	})
	gtx.Constraints = origConstraints

	gap := gtx.Dp(12)
	pos := image.Pt(int(v.pos.X)+gap, int(v.pos.Y)+gap)
	if pos.X+hoverInfoDims.Size.X > gtx.Constraints.Max.X {
		pos.X = max(int(v.pos.X)-gap-hoverInfoDims.Size.X, 0)
	}
	if offscreenY := gtx.Constraints.Max.Y - (pos.Y + hoverInfoDims.Size.Y); offscreenY < 0 {
		pos.Y = max(pos.Y+offscreenY, 0)
	}
	stack := op.Offset(pos).Push(gtx.Ops)
	hoverInfoCall.Add(gtx.Ops)
	stack.Pop()
}

func (v *ChartView) layoutLegend(gtx C, th *material.Theme) D {
	legend := v.chart.Legend()
	table := component.Table(th, &v.keyTable)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	table.VScrollbarStyle.Indicator.MinorWidth = 0
	table.VScrollbarStyle.Track.MinorPadding = 0
	toggleColWidth := gtx.Dp(50)
	seriesColWidth := gtx.Dp(150)
	nameColWidth := gtx.Constraints.Max.X - toggleColWidth - seriesColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(24)
	const (
		toggleCol = iota
		itemCol
		seriesCol
		numCols
	)
	return table.Layout(gtx, len(legend), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case toggleCol:
				size = toggleColWidth
			case itemCol:
				size = nameColWidth
			case seriesCol:
				size = seriesColWidth
			}
			return min(size, constraint)
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case toggleCol:
				l = material.Body1(th, "Shown")
			case itemCol:
				l = material.Body1(th, "Item")
			case seriesCol:
				l = material.Body1(th, "Series")
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			entry := legend[row]
			toggle := v.enabled[legendKey(entry)]
			swatch := entry.Color
			if !entry.Enabled {
				swatch = disabled(swatch)
			}
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				switch col {
				case toggleCol:
					if toggle == nil {
						return D{Size: gtx.Constraints.Min}
					}
					return toggle.Layout(gtx, func(gtx C) D {
						return layout.Center.Layout(gtx, func(gtx C) D {
							icon := uncheckedIcon
							if toggle.Value {
								icon = checkedIcon
							}
							gtx.Constraints.Max = image.Pt(gtx.Dp(18), gtx.Dp(18))
							return icon.Layout(gtx, swatch)
						})
					})
				case itemCol:
					l := material.Body2(th, entry.Label)
					if !entry.Enabled {
						l.Color = disabled(l.Color)
					}
					return l.Layout(gtx)
				default:
					l := material.Body2(th, entry.SeriesID)
					l.Alignment = text.End
					return l.Layout(gtx)
				}
			})
			if row&1 != 0 {
				bg := entry.Color
				bg.A = 30
				paint.FillShape(gtx.Ops, bg, clip.Rect{Max: gtx.Constraints.Max}.Op())
			}
			return dims
		})
}
