package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gioui.org/x/explorer"
	"github.com/fsnotify/fsnotify"

	"git.sr.ht/~whereswaldon/plotwise/data"
)

// Session is a snapshot of the rows loaded from one source. Rows must not
// be modified.
type Session struct {
	ID     string
	Source string
	Rows   []data.RawDatum
	// Loading is true while a streamed source may still append rows.
	Loading bool
	Loaded  time.Time
	Err     error
}

type RWBox[T any] struct {
	t    T
	lock sync.RWMutex
}

func (r *RWBox[T]) Read(f func(*T)) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	f(&r.t)
}

func (r *RWBox[T]) Write(f func(*T)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	f(&r.t)
}

// Datasource loads rows from files and streams, reloading files when they
// change on disk. Only the most recently started session is published.
type Datasource struct {
	appCtx  context.Context
	watcher *fsnotify.Watcher

	current RWBox[Session]
	// cancel stops the producer of the current session.
	cancel context.CancelFunc
	// path is the watched file of the current session, if any.
	path   string
	format Format

	subsLock sync.Mutex
	subs     map[chan Session]struct{}
}

// NewDatasource starts watching for file changes until appCtx is done.
func NewDatasource(appCtx context.Context) (*Datasource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed creating file watcher: %w", err)
	}
	d := &Datasource{
		appCtx:  appCtx,
		watcher: watcher,
		cancel:  func() {},
		subs:    make(map[chan Session]struct{}),
	}
	go d.watch()
	go func() {
		<-appCtx.Done()
		watcher.Close()
	}()
	return d, nil
}

func generateSessionID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

// Current returns the latest snapshot.
func (d *Datasource) Current() Session {
	var s Session
	d.current.Read(func(c *Session) { s = *c })
	return s
}

// Stream emits the latest snapshot, then every later one until ctx is
// done. Snapshots a slow reader missed are skipped in favour of the
// newest.
func (d *Datasource) Stream(ctx context.Context) <-chan Session {
	in := make(chan Session, 1)
	d.subsLock.Lock()
	in <- d.Current()
	d.subs[in] = struct{}{}
	d.subsLock.Unlock()
	out := make(chan Session)
	go func() {
		defer close(out)
		defer func() {
			d.subsLock.Lock()
			delete(d.subs, in)
			d.subsLock.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-in:
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// publish replaces the current snapshot if it belongs to id.
func (d *Datasource) publish(id string, update func(*Session)) {
	var snapshot Session
	stale := false
	d.current.Write(func(s *Session) {
		if s.ID != id {
			stale = true
			return
		}
		update(s)
		snapshot = *s
	})
	if stale {
		return
	}
	d.subsLock.Lock()
	defer d.subsLock.Unlock()
	for ch := range d.subs {
		// Drop the unread snapshot, if any, in favour of the new one.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// begin starts a new session from source, superseding the current one.
func (d *Datasource) begin(source, path string, format Format) (string, context.Context) {
	id := generateSessionID()
	ctx, cancel := context.WithCancel(d.appCtx)
	d.current.Write(func(s *Session) {
		d.cancel()
		if d.path != "" && d.path != path {
			if err := d.watcher.Remove(filepath.Dir(d.path)); err != nil {
				log.Printf("failed unwatching %q: %v", d.path, err)
			}
		}
		d.cancel = cancel
		d.path = path
		d.format = format
		*s = Session{ID: id, Source: source, Loading: true}
	})
	return id, ctx
}

// LoadFile loads the rows of the file at path and reloads them whenever
// the file is written or replaced. It returns the new session's id and
// the error of the first load, which the session also carries.
func (d *Datasource) LoadFile(path string, format Format) (string, error) {
	path = filepath.Clean(path)
	id, _ := d.begin(path, path, format)
	// Watching the directory survives editors replacing the file.
	if err := d.watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("failed watching %q, changes will not be reloaded: %v", path, err)
	}
	return id, d.reload(id, path, format)
}

// reload reads path into session id and returns the read error.
func (d *Datasource) reload(id, path string, format Format) error {
	rows, err := ReadFile(path, format)
	var skipped *SkippedError
	if errors.As(err, &skipped) {
		log.Printf("%s: %v", path, err)
		err = nil
	}
	d.publish(id, func(s *Session) {
		if err == nil || rows != nil {
			s.Rows = rows
		}
		s.Err = err
		s.Loading = false
		s.Loaded = time.Now()
	})
	return err
}

// ReadFile reads every row of the file at path.
func ReadFile(path string, format Format) ([]data.RawDatum, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening data file: %w", err)
	}
	defer file.Close()
	return Decode(file, format)
}

func (d *Datasource) watch() {
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			var id, path string
			var format Format
			d.current.Read(func(s *Session) {
				id, path, format = s.ID, d.path, d.format
			})
			if path == "" || filepath.Clean(ev.Name) != path {
				continue
			}
			d.reload(id, path, format)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("file watcher failed: %v", err)
		}
	}
}

// LoadFromFile asks the user for a data file. Files with a name are
// loaded and watched, other readers are consumed once.
func (d *Datasource) LoadFromFile(expl *explorer.Explorer) (string, error) {
	file, err := expl.ChooseFile()
	if err != nil {
		return "", fmt.Errorf("failed choosing data file: %w", err)
	}
	if f, ok := file.(interface{ Name() string }); ok {
		file.Close()
		format, _ := ParseFormat("", f.Name())
		return d.LoadFile(f.Name(), format)
	}
	return d.LoadFromStream("chosen file", FormatCSV, file), nil
}

// LoadFromStream consumes r in the background. CSV rows are published as
// they arrive, so r may be a pipe that is still being written to. JSON is
// published once fully decoded.
func (d *Datasource) LoadFromStream(source string, format Format, r io.ReadCloser) string {
	id, ctx := d.begin(source, "", format)
	go func() {
		<-ctx.Done()
		r.Close()
	}()
	go func() {
		if format == FormatJSON {
			rows, err := DecodeJSON(r)
			d.publish(id, func(s *Session) {
				s.Rows, s.Err, s.Loading, s.Loaded = rows, err, false, time.Now()
			})
			return
		}
		d.readCSV(ctx, id, r)
	}()
	return id
}

func (d *Datasource) readCSV(ctx context.Context, id string, r io.Reader) {
	c := newCSVRows(NewLineReader(r))
	var rows []data.RawDatum
	defer func() {
		if c.skipped > 0 {
			log.Printf("skipped %d malformed records", c.skipped)
		}
	}()
	for {
		row, err := c.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = nil
			}
			d.publish(id, func(s *Session) {
				s.Rows, s.Err, s.Loading, s.Loaded = slices.Clip(rows), err, false, time.Now()
			})
			return
		}
		rows = append(rows, row)
		d.publish(id, func(s *Session) {
			s.Rows, s.Loaded = slices.Clip(rows), time.Now()
		})
	}
}

// Close stops the current session.
func (d *Datasource) Close() error {
	d.current.Read(func(*Session) { d.cancel() })
	return d.watcher.Close()
}
