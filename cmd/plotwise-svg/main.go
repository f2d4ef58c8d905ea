package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"git.sr.ht/~whereswaldon/plotwise/backend"
	"git.sr.ht/~whereswaldon/plotwise/chart"
	"git.sr.ht/~whereswaldon/plotwise/config"
	"git.sr.ht/~whereswaldon/plotwise/data"
	"git.sr.ht/~whereswaldon/plotwise/svgrender"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: render a YAML chart definition and its data as SVG
Usage:

 %[1]s -config chart.yaml > chart.svg

OR

 %[1]s -config chart.yaml -watch -output chart.svg

The second form renders again every time the data file changes, until interrupted.

`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	configPath := flag.String("config", "", "YAML chart definition")
	dataPath := flag.String("data", "", "Data file, overriding the definition's data path")
	formatName := flag.String("format", "", "Data format, csv or json. Guessed from the data file extension when empty")
	outputName := flag.String("output", "-", "Output file for the SVG document")
	watch := flag.Bool("watch", false, "Render again whenever the data file changes")
	background := flag.String("background", "#ffffff", "Background color of the document")
	flag.Parse()
	if *configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	def, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("failed loading chart definition: %v", err)
	}
	path := def.DataPath()
	name := def.Data.Format
	if *dataPath != "" {
		path, name = *dataPath, ""
	}
	if *formatName != "" {
		name = *formatName
	}
	if path == "" {
		log.Fatalf("no data file: set data.path in %q or pass -data", *configPath)
	}
	format, err := backend.ParseFormat(name, path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	bg, err := config.ParseColor(*background)
	if err != nil {
		log.Fatalf("failed parsing -background: %v", err)
	}
	// A file is a single frame, so transitions are skipped.
	c, err := def.Build(chart.WithAnimation(0))
	if err != nil {
		log.Fatalf("failed building chart: %v", err)
	}
	opts := svgrender.Options{Title: def.Title, Background: bg}

	if !*watch {
		rows, err := backend.ReadFile(path, format)
		var skipped *backend.SkippedError
		if errors.As(err, &skipped) {
			log.Printf("%s: %v", path, err)
		} else if err != nil {
			log.Fatalf("failed reading data: %v", err)
		}
		if err := render(c, rows, *outputName, opts); err != nil {
			log.Fatalf("failed rendering: %v", err)
		}
		return
	}

	if *outputName == "-" {
		log.Fatalf("-watch requires -output")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ds, err := backend.NewDatasource(ctx)
	if err != nil {
		log.Fatalf("failed watching data: %v", err)
	}
	defer ds.Close()
	sessions := ds.Stream(ctx)
	if _, err := ds.LoadFile(path, format); err != nil {
		log.Printf("failed loading data, waiting for changes: %v", err)
	}
	for s := range sessions {
		if s.ID == "" || s.Loading {
			continue
		}
		if s.Err != nil {
			log.Printf("failed reading data: %v", s.Err)
			continue
		}
		if err := render(c, s.Rows, *outputName, opts); err != nil {
			log.Printf("failed rendering: %v", err)
			continue
		}
		log.Printf("rendered %d rows to %s", len(s.Rows), *outputName)
	}
}

func render(c *chart.Chart, rows []data.RawDatum, outputName string, opts svgrender.Options) error {
	if err := c.SetData(context.Background(), rows); err != nil {
		log.Printf("some series could not use the data: %v", err)
	}
	c.Update(time.Now())

	var output io.WriteCloser
	if outputName == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(outputName)
		if err != nil {
			return fmt.Errorf("failed opening output file %q: %w", outputName, err)
		}
		output = f
	}
	err := svgrender.Render(output, c, opts)
	if outputName != "-" {
		err = errors.Join(err, output.Close())
	}
	return err
}
