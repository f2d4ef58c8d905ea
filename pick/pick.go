// Package pick resolves a pointer position to a node datum.
package pick

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/plotwise/scene"
)

// ErrNotImplemented is returned when a series is asked to pick with a mode
// it does not implement.
var ErrNotImplemented = errors.New("pick mode not implemented")

type Mode uint8

const (
	// ExactShapeMatch matches only a point inside a rendered shape.
	ExactShapeMatch Mode = iota
	// NearestByMainAxisFirst narrows candidates to those nearest on the
	// x axis, then picks the nearest on the y axis.
	NearestByMainAxisFirst
	// NearestByMainCategoryAxisFirst is NearestByMainAxisFirst for series
	// whose x axis is a category axis. It is skipped otherwise.
	NearestByMainCategoryAxisFirst
	// NearestNode picks the globally nearest shape.
	NearestNode
)

var modeNames = [...]string{
	ExactShapeMatch:                "exact-shape-match",
	NearestByMainAxisFirst:         "nearest-by-main-axis-first",
	NearestByMainCategoryAxisFirst: "nearest-by-main-category-axis-first",
	NearestNode:                    "nearest-node",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pick mode %q", s)
}

// Candidate is one pickable node datum.
type Candidate struct {
	Datum any
	// Node is the shape the datum is rendered with. Candidates without a
	// node are measured from Mid.
	Node scene.Node
	Mid  scene.Point
}

// Result is a successful pick.
type Result struct {
	Mode     Mode
	Match    Candidate
	Distance float64
}

// Picker holds the pick configuration of one series.
type Picker struct {
	// Supported lists the modes the series implements.
	Supported []Mode
	// Priority lists the modes to try, first match wins.
	Priority []Mode
	// CategoryAxis is set when the series' x axis is a category axis.
	CategoryAxis bool
}

// Pick tries the picker's modes in priority order, skipping any not in
// allowed when allowed is non-empty. It fails with ErrNotImplemented when
// a mode to try is not supported.
func (pk Picker) Pick(pt f32.Point, cands []Candidate, allowed ...Mode) (Result, bool, error) {
	p := scene.Point{X: float64(pt.X), Y: float64(pt.Y)}
	for _, m := range allowed {
		if !slices.Contains(pk.Supported, m) {
			return Result{}, false, fmt.Errorf("%w: %v", ErrNotImplemented, m)
		}
	}
	for _, m := range pk.Priority {
		if len(allowed) > 0 && !slices.Contains(allowed, m) {
			continue
		}
		if !slices.Contains(pk.Supported, m) {
			return Result{}, false, fmt.Errorf("%w: %v", ErrNotImplemented, m)
		}
		var (
			r  Result
			ok bool
		)
		switch m {
		case ExactShapeMatch:
			r, ok = exact(p, cands)
		case NearestByMainAxisFirst:
			r, ok = mainAxisFirst(p, cands)
		case NearestByMainCategoryAxisFirst:
			if !pk.CategoryAxis {
				continue
			}
			r, ok = mainAxisFirst(p, cands)
		case NearestNode:
			r, ok = nearest(p, cands)
		default:
			return Result{}, false, fmt.Errorf("%w: %v", ErrNotImplemented, m)
		}
		if ok {
			r.Mode = m
			return r, true, nil
		}
	}
	return Result{}, false, nil
}

func exact(p scene.Point, cands []Candidate) (Result, bool) {
	for i := len(cands) - 1; i >= 0; i-- {
		if n := cands[i].Node; n != nil && n.ContainsPoint(p) {
			return Result{Match: cands[i]}, true
		}
	}
	return Result{}, false
}

func mainAxisFirst(p scene.Point, cands []Candidate) (Result, bool) {
	bestX, bestY := math.Inf(1), math.Inf(1)
	found := -1
	for i, c := range cands {
		if c.Node != nil && !c.Node.NodeStyle().Visible {
			continue
		}
		dx := math.Abs(c.Mid.X - p.X)
		dy := math.Abs(c.Mid.Y - p.Y)
		if dx < bestX || (dx == bestX && dy < bestY) {
			bestX, bestY, found = dx, dy, i
		}
	}
	if found < 0 {
		return Result{}, false
	}
	return Result{Match: cands[found], Distance: math.Hypot(bestX, bestY)}, true
}

func nearest(p scene.Point, cands []Candidate) (Result, bool) {
	best := math.Inf(1)
	found := -1
	for i, c := range cands {
		var d2 float64
		if c.Node != nil {
			if !c.Node.NodeStyle().Visible {
				continue
			}
			d2 = c.Node.DistanceSquared(p)
		} else {
			dx, dy := c.Mid.X-p.X, c.Mid.Y-p.Y
			d2 = dx*dx + dy*dy
		}
		if d2 < best {
			best, found = d2, i
		}
	}
	if found < 0 {
		return Result{}, false
	}
	return Result{Match: cands[found], Distance: math.Sqrt(best)}, true
}

// Better reports whether a should be preferred over b when picks from
// several series compete: exact matches first, then the smaller distance.
func Better(a, b Result) bool {
	ae, be := a.Mode == ExactShapeMatch, b.Mode == ExactShapeMatch
	if ae != be {
		return ae
	}
	return a.Distance < b.Distance
}
