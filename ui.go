package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"slices"
	"time"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"

	"git.sr.ht/~whereswaldon/plotwise/backend"
	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/series"
)

const (
	tabChart = "chart"
	tabRows  = "rows"
)

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws   backend.WindowState
	expl *explorer.Explorer

	chart       *ChartView
	tab         widget.Enum
	explorerBtn widget.Clickable
	rowsTable   component.GridState
	columns     []string
	loadErr     string

	th            *material.Theme
	sessionStream *stream.Stream[backend.Session]
	session       backend.Session
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, chart *ChartView) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	return &UI{
		ws:            ws,
		th:            th,
		expl:          expl,
		chart:         chart,
		tab:           widget.Enum{Value: tabChart},
		sessionStream: stream.New(ws.Controller, ws.Bundle.Datasource.Stream),
	}
}

// Update the state of the UI from user input and new data.
func (ui *UI) Update(gtx C) {
	if s, ok := ui.sessionStream.ReadNew(gtx); ok {
		ui.session = s
		ui.columns = columnsOf(s.Rows)
		ui.loadErr = ""
		if s.Err != nil {
			ui.loadErr = s.Err.Error()
		}
		if err := ui.chart.SetData(s.Rows); err != nil {
			log.Printf("some series could not use the data: %v", err)
		}
	}
	ui.tab.Update(gtx)
	if ui.explorerBtn.Clicked(gtx) {
		go func() {
			if _, err := ui.ws.Bundle.Datasource.LoadFromFile(ui.expl); err != nil {
				log.Printf("%v", err)
			}
		}()
	}
}

// columnsOf lists the keys of the first rows in sorted order.
func columnsOf(rows []data.RawDatum) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, row := range rows[:min(len(rows), 100)] {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return cols
}

type TabStyle struct {
	state  *widget.Enum
	label  material.LabelStyle
	border widget.Border
	inset  layout.Inset
	value  string
	fill   color.NRGBA
}

func Tab(th *material.Theme, state *widget.Enum, value, display string) TabStyle {
	selected := state.Value == value
	ts := TabStyle{
		state: state,
		label: material.Body1(th, display),
		inset: layout.UniformInset(2),
		border: widget.Border{
			Width: 2,
			Color: th.ContrastBg,
		},
		value: value,
	}
	ts.label.Alignment = text.Middle
	if selected {
		ts.label.Color = th.ContrastFg
		ts.fill = th.ContrastBg
	}
	return ts
}

func (t TabStyle) Layout(gtx C) D {
	return t.inset.Layout(gtx, func(gtx C) D {
		return t.border.Layout(gtx, func(gtx C) D {
			return t.inset.Layout(gtx, func(gtx C) D {
				return t.state.Layout(gtx, t.value, func(gtx C) D {
					return layout.Background{}.Layout(gtx, func(gtx C) D {
						paint.FillShape(gtx.Ops, t.fill, clip.Rect{Max: gtx.Constraints.Min}.Op())
						return D{Size: gtx.Constraints.Min}
					}, t.label.Layout)
				})
			})
		})
	})
}

func (ui *UI) status() string {
	s := ui.session
	msg := fmt.Sprintf("%s: %d rows", s.Source, len(s.Rows))
	if s.Loading {
		return msg + ", loading"
	}
	if !s.Loaded.IsZero() {
		msg += ", updated " + s.Loaded.Format(time.TimeOnly)
	}
	return msg
}

func (ui *UI) layoutMainArea(gtx C) D {
	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, Tab(ui.th, &ui.tab, tabChart, "Chart").Layout),
				layout.Flexed(1, Tab(ui.th, &ui.tab, tabRows, "Rows").Layout),
				layout.Rigid(func(gtx C) D {
					return layout.UniformInset(2).Layout(gtx, material.Button(ui.th, &ui.explorerBtn, "Open").Layout)
				}),
			)
		}),
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(4).Layout(gtx, material.Body2(ui.th, ui.status()).Layout)
		}),
		layout.Rigid(func(gtx C) D {
			if len(ui.loadErr) == 0 {
				return D{}
			}
			l := material.Body1(ui.th, ui.loadErr)
			l.Color = color.NRGBA{R: 150, A: 255}
			return l.Layout(gtx)
		}),
		layout.Flexed(1, func(gtx C) D {
			if ui.tab.Value == tabChart {
				return ui.chart.Layout(gtx, ui.th)
			}
			return ui.layoutRows(gtx)
		}),
	)
}

func (ui *UI) layoutRows(gtx C) D {
	rows := ui.session.Rows
	table := component.Table(ui.th, &ui.rowsTable)
	colWidth := gtx.Dp(120)
	rowHeight := gtx.Sp(24)
	return table.Layout(gtx, len(rows), len(ui.columns),
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			return min(constraint, colWidth)
		},
		func(gtx C, col int) D {
			l := material.Body1(ui.th, ui.columns[col])
			l.Color = ui.th.ContrastFg
			l.MaxLines = 1
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, ui.th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) D {
			v, ok := rows[row][ui.columns[col]]
			cell := ""
			if ok {
				cell = formatCell(v)
			}
			l := material.Body2(ui.th, cell)
			l.MaxLines = 1
			return layout.UniformInset(2).Layout(gtx, l.Layout)
		})
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return series.FormatValue(v)
	}
}

func (ui *UI) layoutStartScreen(gtx C) D {
	msg := "No data yet."
	if ui.session.Loading {
		msg = "Waiting for rows from " + ui.session.Source + "."
	}
	return layout.Flex{
		Axis:      layout.Vertical,
		Alignment: layout.Middle,
		Spacing:   layout.SpaceAround,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body1(ui.th, msg).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.explorerBtn, "Open Data File").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Body2(ui.th, ui.loadErr).Layout(gtx)
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if len(ui.session.Rows) > 0 {
		return ui.layoutMainArea(gtx)
	}
	return ui.layoutStartScreen(gtx)
}
