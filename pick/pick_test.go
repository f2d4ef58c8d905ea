package pick

import (
	"errors"
	"testing"

	"gioui.org/f32"

	"git.sr.ht/~whereswaldon/plotwise/scene"
)

func rect(name string, x, y, w, h float64) Candidate {
	r := scene.NewRect()
	r.X, r.Y, r.Width, r.Height, r.Visible = x, y, w, h, true
	r.Bind(name)
	return Candidate{Datum: name, Node: r, Mid: scene.Point{X: x + w/2, Y: y + h/2}}
}

func TestPickPriority(t *testing.T) {
	// big contains the point but its center is far away; small is centered
	// right next to it without containing it.
	cands := []Candidate{
		rect("big", 0, 0, 100, 100),
		rect("small", 92, 92, 2, 2),
	}
	pk := Picker{
		Supported: []Mode{ExactShapeMatch, NearestNode},
		Priority:  []Mode{ExactShapeMatch, NearestNode},
	}
	r, ok, err := pk.Pick(f32.Pt(91, 91), cands)
	if err != nil || !ok {
		t.Fatalf("expected a match, got %v %v", ok, err)
	}
	if r.Match.Datum != "big" || r.Distance != 0 || r.Mode != ExactShapeMatch {
		t.Errorf("expected exact match on big at distance 0, got %+v", r)
	}

	r, ok, _ = pk.Pick(f32.Pt(150, 50), cands)
	if !ok || r.Mode != NearestNode || r.Match.Datum != "big" {
		t.Errorf("expected nearest fallback to big, got %+v", r)
	}
	if r.Distance != 50 {
		t.Errorf("expected distance 50, got %v", r.Distance)
	}
}

func TestPickModes(t *testing.T) {
	cands := []Candidate{
		{Datum: "a", Mid: scene.Point{X: 10, Y: 50}},
		{Datum: "b", Mid: scene.Point{X: 20, Y: 0}},
		{Datum: "c", Mid: scene.Point{X: 20, Y: 40}},
	}
	type testcase struct {
		name     string
		picker   Picker
		pt       f32.Point
		expect   any
		expectOk bool
		err      error
	}
	all := []Mode{ExactShapeMatch, NearestByMainAxisFirst, NearestByMainCategoryAxisFirst, NearestNode}
	for _, tc := range []testcase{
		{
			name:     "main axis first prefers x",
			picker:   Picker{Supported: all, Priority: []Mode{NearestByMainAxisFirst}},
			pt:       f32.Pt(18, 50),
			expect:   "c",
			expectOk: true,
		},
		{
			name:     "nearest node ignores axis",
			picker:   Picker{Supported: all, Priority: []Mode{NearestNode}},
			pt:       f32.Pt(14, 50),
			expect:   "a",
			expectOk: true,
		},
		{
			name:   "category mode skipped on continuous axis",
			picker: Picker{Supported: all, Priority: []Mode{NearestByMainCategoryAxisFirst}},
			pt:     f32.Pt(18, 50),
		},
		{
			name:     "category mode on category axis",
			picker:   Picker{Supported: all, Priority: []Mode{NearestByMainCategoryAxisFirst}, CategoryAxis: true},
			pt:       f32.Pt(18, 1),
			expect:   "b",
			expectOk: true,
		},
		{
			name:   "exact without shapes never matches",
			picker: Picker{Supported: all, Priority: []Mode{ExactShapeMatch}},
			pt:     f32.Pt(10, 50),
		},
		{
			name:   "unsupported mode in priority",
			picker: Picker{Supported: []Mode{ExactShapeMatch}, Priority: []Mode{ExactShapeMatch, NearestNode}},
			pt:     f32.Pt(0, 0),
			err:    ErrNotImplemented,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, ok, err := tc.picker.Pick(tc.pt, cands)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if ok != tc.expectOk {
				t.Fatalf("expected ok %v, got %v", tc.expectOk, ok)
			}
			if ok && r.Match.Datum != tc.expect {
				t.Errorf("expected %v, got %v", tc.expect, r.Match.Datum)
			}
		})
	}
}

func TestPickAllowedFilter(t *testing.T) {
	cands := []Candidate{rect("r", 0, 0, 10, 10)}
	pk := Picker{
		Supported: []Mode{ExactShapeMatch, NearestNode},
		Priority:  []Mode{ExactShapeMatch, NearestNode},
	}
	r, ok, err := pk.Pick(f32.Pt(5, 5), cands, NearestNode)
	if err != nil || !ok || r.Mode != NearestNode {
		t.Errorf("expected allowed filter to skip exact match, got %+v %v", r, err)
	}
	if _, _, err := pk.Pick(f32.Pt(5, 5), cands, NearestByMainAxisFirst); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected forcing an unimplemented mode to fail, got %v", err)
	}
}

func TestBetter(t *testing.T) {
	exactFar := Result{Mode: ExactShapeMatch, Distance: 0}
	near := Result{Mode: NearestNode, Distance: 0}
	if !Better(exactFar, near) || Better(near, exactFar) {
		t.Errorf("expected exact matches to win")
	}
	if !Better(Result{Mode: NearestNode, Distance: 1}, Result{Mode: NearestNode, Distance: 2}) {
		t.Errorf("expected smaller distance to win")
	}
}

func TestParseMode(t *testing.T) {
	for m := ExactShapeMatch; m <= NearestNode; m++ {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("expected %v, got %v %v", m, got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}
