// Package types defines the core data model shared by every parsekit package.
//
// This package contains:
//   - Results: the structured container produced by every successful match
//   - ParseError / MatchError / FatalError / CutError: the failure taxonomy
//
// Both are dependency-free leaves; the combinator engine and the packrat
// cache build on them.
package types

import (
	"fmt"
	"strings"
)

// WholeMatch is the position recorded for a name that refers to an entire
// token list rather than a single element of it. Whole-match positions are
// never re-offset or repaired, since they do not index into the ordered
// sequence.
const WholeMatch = -1

// namedValue is one entry of the name multimap: the value itself plus the
// index it occupies in the ordered token sequence (or WholeMatch).
type namedValue struct {
	value any
	pos   int
}

// Results is the structured outcome of a successful match: an ordered
// sequence of values (each either a leaf value or a nested *Results) plus
// a name → list-of-(value, position) multimap for named sub-results.
//
// A name is either modal — only the last match under that name is visible —
// or "accumulate all", in which case every match is retained and lookups
// return the full list. The policy is fixed per name at naming time.
//
// Results is not safe for concurrent mutation; each parse produces its own
// instance.
type Results struct {
	toks    []any
	named   map[string][]namedValue
	allList map[string]bool
	name    string
}

// NewResults creates a Results holding the given ordered values.
func NewResults(values ...any) *Results {
	return &Results{toks: values}
}

// Len returns the number of values in the ordered sequence.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.toks)
}

// Get returns the value at position i. Negative indices count from the
// end, as in a slice expression i+Len(). Out-of-range access returns nil.
func (r *Results) Get(i int) any {
	if r == nil {
		return nil
	}
	if i < 0 {
		i += len(r.toks)
	}
	if i < 0 || i >= len(r.toks) {
		return nil
	}
	return r.toks[i]
}

// Slice returns a new Results holding the values in [i, j). Negative
// indices count from the end. The name multimap is not carried over.
func (r *Results) Slice(i, j int) *Results {
	n := r.Len()
	if i < 0 {
		i += n
	}
	if j < 0 {
		j += n
	}
	i = min(max(i, 0), n)
	j = min(max(j, i), n)
	out := make([]any, j-i)
	copy(out, r.toks[i:j])
	return &Results{toks: out}
}

// Values returns a copy of the ordered value sequence.
func (r *Results) Values() []any {
	if r == nil {
		return nil
	}
	out := make([]any, len(r.toks))
	copy(out, r.toks)
	return out
}

// Append adds a value at the end of the ordered sequence.
func (r *Results) Append(v any) {
	r.toks = append(r.toks, v)
}

// Insert places a value at position i, shifting later values right. Every
// recorded multimap position at or beyond i is incremented to keep the
// multimap consistent with the sequence.
func (r *Results) Insert(i int, v any) {
	if i < 0 {
		i += len(r.toks)
	}
	i = min(max(i, 0), len(r.toks))
	r.toks = append(r.toks, nil)
	copy(r.toks[i+1:], r.toks[i:])
	r.toks[i] = v
	for name, entries := range r.named {
		for k, e := range entries {
			if e.pos >= i && e.pos != WholeMatch {
				entries[k].pos++
			}
		}
		r.named[name] = entries
	}
}

// Delete removes the value at position i. Every recorded multimap position
// greater than i is decremented.
func (r *Results) Delete(i int) {
	if i < 0 {
		i += len(r.toks)
	}
	if i < 0 || i >= len(r.toks) {
		return
	}
	r.toks = append(r.toks[:i], r.toks[i+1:]...)
	for name, entries := range r.named {
		for k, e := range entries {
			if e.pos > i {
				entries[k].pos--
			}
		}
		r.named[name] = entries
	}
}

// PutNamed records a named sub-result at position pos (or WholeMatch).
// listAll declares the name as "accumulate all"; once declared, the policy
// sticks for the lifetime of this Results.
func (r *Results) PutNamed(name string, v any, pos int, listAll bool) {
	if r.named == nil {
		r.named = make(map[string][]namedValue)
	}
	r.named[name] = append(r.named[name], namedValue{value: v, pos: pos})
	if listAll {
		if r.allList == nil {
			r.allList = make(map[string]bool)
		}
		r.allList[name] = true
	}
}

// GetByName returns the value recorded under name. For a modal name the
// last match wins; for an "accumulate all" name a nested Results holding
// every match is returned. The second return is false if the name was
// never recorded.
func (r *Results) GetByName(name string) (any, bool) {
	if r == nil || len(r.named[name]) == 0 {
		return nil, false
	}
	entries := r.named[name]
	if r.allList[name] {
		vals := make([]any, len(entries))
		for i, e := range entries {
			vals[i] = e.value
		}
		return NewResults(vals...), true
	}
	return entries[len(entries)-1].value, true
}

// GetAllByName returns every value recorded under name, oldest first,
// regardless of the name's modal policy.
func (r *Results) GetAllByName(name string) []any {
	if r == nil {
		return nil
	}
	entries := r.named[name]
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

// HasNames reports whether any named entries exist at all.
func (r *Results) HasNames() bool {
	return r != nil && len(r.named) > 0
}

// HasName reports whether any value was recorded under name.
func (r *Results) HasName(name string) bool {
	return r != nil && len(r.named[name]) > 0
}

// Positions returns the sequence positions recorded for name, oldest
// first. WholeMatch entries report WholeMatch.
func (r *Results) Positions(name string) []int {
	if r == nil {
		return nil
	}
	entries := r.named[name]
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.pos
	}
	return out
}

// Names returns every recorded name, in unspecified order.
func (r *Results) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.named))
	for name := range r.named {
		out = append(out, name)
	}
	return out
}

// Name returns the results-name this value was matched under, or "".
// It replaces the parent back-pointer of classic designs: the wrapping
// element records its name here at wrap time.
func (r *Results) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// SetName records the results-name this value was matched under.
func (r *Results) SetName(name string) {
	r.name = name
}

// Copy returns a new Results with a copied ordered sequence and a shallow
// copy of the name multimap. Nested Results values are shared, not cloned.
func (r *Results) Copy() *Results {
	if r == nil {
		return nil
	}
	out := &Results{name: r.name}
	out.toks = make([]any, len(r.toks))
	copy(out.toks, r.toks)
	if r.named != nil {
		out.named = make(map[string][]namedValue, len(r.named))
		for name, entries := range r.named {
			cp := make([]namedValue, len(entries))
			copy(cp, entries)
			out.named[name] = cp
		}
	}
	if r.allList != nil {
		out.allList = make(map[string]bool, len(r.allList))
		for name := range r.allList {
			out.allList[name] = true
		}
	}
	return out
}

// Merge appends other's values and names into r and returns r. Positions
// recorded in other's multimap are re-offset by r's length before the
// merge, so they keep indexing the values they were recorded against.
func (r *Results) Merge(other *Results) *Results {
	if other == nil || (other.Len() == 0 && len(other.named) == 0) {
		return r
	}
	offset := len(r.toks)
	r.toks = append(r.toks, other.toks...)
	for name, entries := range other.named {
		if r.named == nil {
			r.named = make(map[string][]namedValue)
		}
		for _, e := range entries {
			pos := e.pos
			if pos != WholeMatch {
				pos += offset
			}
			r.named[name] = append(r.named[name], namedValue{value: e.value, pos: pos})
		}
	}
	for name := range other.allList {
		if r.allList == nil {
			r.allList = make(map[string]bool)
		}
		r.allList[name] = true
	}
	return r
}

// Plus returns a new Results equal to r followed by other. Neither operand
// is modified.
func (r *Results) Plus(other *Results) *Results {
	return r.Copy().Merge(other)
}

// NamesOnly returns a new Results carrying no positional values but every
// named entry of r, re-recorded as whole-match entries. Lookahead and
// combining elements use it to preserve names while discarding positions.
func (r *Results) NamesOnly() *Results {
	out := NewResults()
	if r == nil {
		return out
	}
	out.name = r.name
	for name, entries := range r.named {
		for _, e := range entries {
			out.PutNamed(name, e.value, WholeMatch, r.allList[name])
		}
	}
	return out
}

// Flatten reduces r to a nested plain-slice form: each value appears
// as itself, except nested Results which recurse into nested []any.
// Names are not part of the flattened form.
func (r *Results) Flatten() []any {
	if r == nil {
		return nil
	}
	out := make([]any, len(r.toks))
	for i, v := range r.toks {
		if nested, ok := v.(*Results); ok {
			out[i] = nested.Flatten()
		} else {
			out[i] = v
		}
	}
	return out
}

// FromNested rebuilds a Results from a flattened nested-slice form.
// Round trip: FromNested(r.Flatten()) is structurally equal to r.
func FromNested(nested []any) *Results {
	out := NewResults()
	for _, v := range nested {
		if sub, ok := v.([]any); ok {
			out.Append(FromNested(sub))
		} else {
			out.Append(v)
		}
	}
	return out
}

// Equal reports structural equality of the ordered sequences, comparing
// nested Results recursively. Names do not participate; a nil Results
// compares equal to an empty one.
func (r *Results) Equal(other *Results) bool {
	if r == nil || other == nil {
		return r.Len() == other.Len()
	}
	if r.Len() != other.Len() {
		return false
	}
	for i := range r.toks {
		a, b := r.toks[i], other.toks[i]
		ra, aok := a.(*Results)
		rb, bok := b.(*Results)
		if aok != bok {
			return false
		}
		if aok {
			if !ra.Equal(rb) {
				return false
			}
		} else if a != b {
			return false
		}
	}
	return true
}

// String renders the ordered sequence in a bracketed list form, recursing
// into nested Results.
func (r *Results) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range r.toks {
		if i > 0 {
			b.WriteString(", ")
		}
		switch t := v.(type) {
		case *Results:
			b.WriteString(t.String())
		case string:
			fmt.Fprintf(&b, "%q", t)
		default:
			fmt.Fprintf(&b, "%v", t)
		}
	}
	b.WriteByte(']')
	return b.String()
}
