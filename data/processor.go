package data

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSuperseded is returned for a processing request that was overtaken
// by a newer one before it completed. Its result has been discarded.
var ErrSuperseded = errors.New("processing request superseded")

// Processor runs processing requests where the last request wins.
//
// Every call to Process takes a monotonically increasing sequence number
// and cancels the context of the request before it. When a request
// completes, its result is only kept if no newer request has been issued
// in the meantime.
type Processor struct {
	seq    atomic.Uint64
	lock   sync.Mutex
	cancel context.CancelFunc
	latest *ProcessedData
}

// Process runs m over rows. It returns ErrSuperseded if a newer request
// was started before this one finished.
func (p *Processor) Process(ctx context.Context, m *Model, rows []RawDatum) (*ProcessedData, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.lock.Lock()
	token := p.seq.Add(1)
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.lock.Unlock()

	pd, err := m.Process(ctx, rows)

	p.lock.Lock()
	defer p.lock.Unlock()
	if token != p.seq.Load() {
		return nil, ErrSuperseded
	}
	p.cancel = nil
	if err != nil {
		return nil, err
	}
	pd.Seq = token
	p.latest = pd
	return pd, nil
}

// Latest returns the most recently committed snapshot, or nil.
func (p *Processor) Latest() *ProcessedData {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.latest
}

// Seq returns the sequence number of the newest request issued.
func (p *Processor) Seq() uint64 {
	return p.seq.Load()
}

// Reset discards the committed snapshot and supersedes any request in
// flight.
func (p *Processor) Reset() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.seq.Add(1)
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.latest = nil
}
