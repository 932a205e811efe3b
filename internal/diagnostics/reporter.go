package diagnostics

import (
	"sort"
)

// Reporter accumulates diagnostics during a check, deduplicating repeats
// at the same position with the same code. Inference revisits expressions
// while solving deferred constraints, so repeats are common.
type Reporter struct {
	seen  map[string]*Diagnostic
	order []*Diagnostic
}

func NewReporter() *Reporter {
	return &Reporter{seen: map[string]*Diagnostic{}}
}

// Add records d unless an equivalent diagnostic was already reported.
func (r *Reporter) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	key := d.Key()
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = d
	r.order = append(r.order, d)
}

// AddAll records each diagnostic in ds.
func (r *Reporter) AddAll(ds []*Diagnostic) {
	for _, d := range ds {
		r.Add(d)
	}
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.order {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns the recorded errors sorted by position.
func (r *Reporter) Errors() []*Diagnostic {
	return r.sorted(true)
}

// Warnings returns the recorded warnings sorted by position.
func (r *Reporter) Warnings() []*Diagnostic {
	return r.sorted(false)
}

func (r *Reporter) sorted(errors bool) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range r.order {
		if d.IsError() == errors {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Token, out[j].Token
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Len returns the number of distinct diagnostics recorded.
func (r *Reporter) Len() int {
	return len(r.order)
}
