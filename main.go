package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/x/explorer"

	"git.sr.ht/~whereswaldon/plotwise/backend"
	"git.sr.ht/~whereswaldon/plotwise/config"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: show a YAML chart definition in a window
Usage:

 %[1]s -config chart.yaml

OR

 producer | %[1]s -config chart.yaml -data -

The second form draws CSV rows from stdin as they arrive. Without a data
file the window offers to open one.

`, os.Args[0])
	flag.PrintDefaults()
}

type options struct {
	configPath string
	dataPath   string
	formatName string
}

func main() {
	var opts options
	flag.Usage = usage
	flag.StringVar(&opts.configPath, "config", "", "YAML chart definition")
	flag.StringVar(&opts.dataPath, "data", "", "Data file, overriding the definition's data path. - reads stdin")
	flag.StringVar(&opts.formatName, "format", "", "Data format, csv or json. Guessed from the data file extension when empty")
	flag.Parse()
	if opts.configPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	def, err := config.LoadFile(opts.configPath)
	if err != nil {
		log.Fatalf("failed loading chart definition: %v", err)
	}

	go func() {
		title := def.Title
		if title == "" {
			title = "plotwise"
		}
		w := app.NewWindow(app.Title(title), app.Size(unit.Dp(960), unit.Dp(640)))
		if err := loop(w, def, opts); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, def *config.File, opts options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bundle, err := backend.NewBundle(ctx)
	if err != nil {
		return fmt.Errorf("failed starting backend: %w", err)
	}
	ws := backend.NewWindowState(ctx, bundle, w)
	expl := explorer.NewExplorer(w)
	c, err := def.Build()
	if err != nil {
		return fmt.Errorf("failed building chart: %w", err)
	}
	ui := NewUI(ws, expl, NewChartView(c, w.Invalidate))

	if err := loadInitial(bundle.Datasource, def, opts); err != nil {
		log.Printf("%v", err)
	}

	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case system.DestroyEvent:
			return ev.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

// loadInitial starts loading the data named on the command line or in the
// chart definition.
func loadInitial(ds *backend.Datasource, def *config.File, opts options) error {
	path := def.DataPath()
	name := def.Data.Format
	if opts.dataPath != "" {
		path, name = opts.dataPath, ""
	}
	if opts.formatName != "" {
		name = opts.formatName
	}
	if path == "" {
		return nil
	}
	if path == "-" {
		format, err := backend.ParseFormat(name, "")
		if err != nil {
			return err
		}
		ds.LoadFromStream("stdin", format, os.Stdin)
		return nil
	}
	format, err := backend.ParseFormat(name, path)
	if err != nil {
		return err
	}
	if _, err := ds.LoadFile(path, format); err != nil {
		return fmt.Errorf("failed loading %s: %w", path, err)
	}
	return nil
}

type (
	C = layout.Context
	D = layout.Dimensions
)
