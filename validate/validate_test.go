package validate

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type opts struct {
	Name    string
	Width   float64
	Opacity *float64
	Mode    string
	Keys    []string
}

var schema = Schema[opts]{
	Func("name", func(o opts) string {
		if o.Name == "" {
			return "required"
		}
		return ""
	}),
	NonNegative("width", func(o opts) float64 { return o.Width }),
	OptionalBetween("opacity", func(o opts) *float64 { return o.Opacity }, 0, 1),
	OneOf("mode", func(o opts) string { return o.Mode }, true, "a", "b"),
	Distinct("keys", func(o opts) []string { return o.Keys }),
	Each("keys", func(o opts) []string { return o.Keys }, func(k string) string {
		if strings.Contains(k, " ") {
			return "must not contain spaces"
		}
		return ""
	}),
}

func ptr(f float64) *float64 { return &f }

func TestSchema(t *testing.T) {
	type testcase struct {
		name   string
		input  opts
		fields []string
	}
	for _, tc := range []testcase{
		{
			name:  "valid",
			input: opts{Name: "n", Width: 2, Opacity: ptr(0.5), Mode: "a", Keys: []string{"x", "y"}},
		},
		{
			name:  "unset optionals",
			input: opts{Name: "n"},
		},
		{
			name:   "everything wrong",
			input:  opts{Width: -1, Opacity: ptr(2), Mode: "c", Keys: []string{"x", "x"}},
			fields: []string{"name", "width", "opacity", "mode", "keys"},
		},
		{
			name:   "nan width",
			input:  opts{Name: "n", Width: math.NaN()},
			fields: []string{"width"},
		},
		{
			name:   "bad element",
			input:  opts{Name: "n", Keys: []string{"ok", "not ok"}},
			fields: []string{"keys"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			issues := schema.Check(tc.input)
			if len(issues) != len(tc.fields) {
				t.Fatalf("expected %d issues, got %v", len(tc.fields), issues)
			}
			for i, f := range tc.fields {
				if issues[i].Field != f {
					t.Errorf("expected issue %d on %q, got %q", i, f, issues[i].Field)
				}
			}
			err := schema.Validate(tc.input)
			if (err == nil) != (len(tc.fields) == 0) {
				t.Errorf("expected error %v, got %v", len(tc.fields) > 0, err)
			}
			var asIssues Issues
			if err != nil && !errors.As(err, &asIssues) {
				t.Errorf("expected error to be Issues, got %T", err)
			}
		})
	}
}
