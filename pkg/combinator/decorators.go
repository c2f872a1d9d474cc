package combinator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/parsekit/pkg/types"
)

// unary is the shared base of every decorator wrapping a single child.
type unary struct {
	Base
	expr Expr
}

func (u *unary) children() []Expr {
	if u.expr == nil {
		return nil
	}
	return []Expr{u.expr}
}

// Opt wraps a child so that its failure becomes a zero-width success,
// optionally contributing a caller-supplied default value.
type Opt struct {
	unary
	def    any
	hasDef bool
}

// NewOpt makes e optional.
func NewOpt(e Expr) *Opt {
	o := &Opt{unary: unary{Base: newBase("[" + e.String() + "]"), expr: e}}
	o.mayMatchEmpty = true
	return o
}

// Default sets the value produced when the child does not match. The
// default is recorded under the child's results-name, if it has one.
func (o *Opt) Default(v any) *Opt {
	o.def = v
	o.hasDef = true
	return o
}

// contributeDefault appends the default value (if any) to toks, honoring
// the child's results-name. Used on the no-match path and by Each for
// optionals that never matched.
func (o *Opt) contributeDefault(toks *types.Results) {
	if !o.hasDef {
		return
	}
	toks.Append(o.def)
	if name := o.expr.base().resultsName; name != "" {
		toks.PutNamed(name, o.def, toks.Len()-1, o.expr.base().listAll)
	}
}

func (o *Opt) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end, toks, err := tryMatch(ctx, o.expr, loc, doActions)
	if err == nil {
		return end, toks, nil
	}
	if types.IsFatal(err) {
		return loc, nil, err
	}
	toks = types.NewResults()
	o.contributeDefault(toks)
	return loc, toks, nil
}

// Repeat matches its child between min and max times (max 0 = unbounded),
// concatenating the results. An optional stop sentinel ends the
// repetition early when it matches at the current offset.
type Repeat struct {
	unary
	min, max int
	stopOn   Expr
}

// NewRepeat creates a bounded repetition of e.
func NewRepeat(e Expr, min, max int) *Repeat {
	name := fmt.Sprintf("%s{%d,%d}", e.String(), min, max)
	r := &Repeat{unary: unary{Base: newBase(name), expr: e}, min: min, max: max}
	r.mayMatchEmpty = min == 0 || e.base().mayMatchEmpty
	return r
}

// NewZeroOrMore creates a repetition of e that also matches zero
// occurrences. It never fails.
func NewZeroOrMore(e Expr) *Repeat {
	r := NewRepeat(e, 0, 0)
	r.name = "[" + e.String() + "]..."
	return r
}

// NewOneOrMore creates a repetition of e requiring at least one
// occurrence.
func NewOneOrMore(e Expr) *Repeat {
	r := NewRepeat(e, 1, 0)
	r.name = e.String() + "..."
	return r
}

// StopOn sets a sentinel expression that terminates the repetition when
// it matches at the current offset.
func (r *Repeat) StopOn(sentinel Expr) *Repeat {
	r.stopOn = sentinel
	return r
}

func (r *Repeat) children() []Expr {
	if r.stopOn != nil {
		return []Expr{r.expr, r.stopOn}
	}
	return r.unary.children()
}

func (r *Repeat) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	toks := types.NewResults()
	count := 0
	for r.max == 0 || count < r.max {
		if r.stopOn != nil {
			if _, _, err := tryMatch(ctx, r.stopOn, loc, false); err == nil {
				break
			} else if types.IsFatal(err) {
				return loc, nil, err
			}
		}
		end, ctoks, err := tryMatch(ctx, r.expr, loc, doActions)
		if err != nil {
			if types.IsFatal(err) {
				return loc, nil, err
			}
			if count < r.min {
				return loc, nil, err
			}
			break
		}
		zeroWidth := end == loc && ctoks.Len() == 0
		if zeroWidth && !ctoks.HasNames() {
			// Zero-width match with no output; repeating it forever
			// would not terminate.
			break
		}
		loc = end
		toks.Merge(ctoks)
		count++
		if zeroWidth {
			// Zero-width match that only contributed names; keep it
			// once and stop.
			break
		}
	}
	if count < r.min {
		return noMatch(ctx, loc, r.errMsg, r.name)
	}
	return loc, toks, nil
}

// NotAny is the negative lookahead: it succeeds, consuming nothing, only
// when its child fails. It does not skip leading whitespace.
type NotAny struct {
	unary
}

// NewNotAny creates a negative lookahead over e.
func NewNotAny(e Expr) *NotAny {
	n := &NotAny{unary{Base: newBase("~{" + e.String() + "}"), expr: e}}
	n.mayMatchEmpty = true
	n.skipWhite = false
	return n
}

func (n *NotAny) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	_, _, err := tryMatch(ctx, n.expr, loc, false)
	if err == nil {
		return loc, nil, types.NewMatchError(ctx.input, loc, "found unwanted token "+n.expr.String(), n.name)
	}
	if types.IsFatal(err) {
		return loc, nil, err
	}
	return loc, nil, nil
}

// FollowedBy is the positive lookahead: it succeeds, consuming nothing,
// only when its child matches ahead. Positional tokens from the child are
// discarded; named results are preserved.
type FollowedBy struct {
	unary
}

// NewFollowedBy creates a positive lookahead over e.
func NewFollowedBy(e Expr) *FollowedBy {
	f := &FollowedBy{unary{Base: newBase("=>{" + e.String() + "}"), expr: e}}
	f.mayMatchEmpty = true
	return f
}

func (f *FollowedBy) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	_, toks, err := tryMatch(ctx, f.expr, loc, doActions)
	if err != nil {
		return loc, nil, err
	}
	return loc, toks.NamesOnly(), nil
}

// PrecededBy is the lookbehind: it succeeds when its child matches ending
// exactly at the current offset, scanning backward up to maxWidth
// characters. It never advances the offset.
type PrecededBy struct {
	unary
	maxWidth int
}

// NewPrecededBy creates a lookbehind over e, scanning back at most
// maxWidth characters. For fixed-width elements such as literals,
// maxWidth <= 0 infers the exact width.
func NewPrecededBy(e Expr, maxWidth int) *PrecededBy {
	p := &PrecededBy{unary: unary{Base: newBase("<={" + e.String() + "}"), expr: e}, maxWidth: maxWidth}
	p.mayMatchEmpty = true
	p.skipWhite = false
	if maxWidth <= 0 {
		if lit, ok := e.(*Literal); ok {
			p.maxWidth = len(lit.match)
		}
	}
	// Lookbehind text is matched as-is; whitespace between the behind
	// match and the current offset would silently widen the window.
	LeaveWhitespace(e)
	return p
}

func (p *PrecededBy) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if p.maxWidth <= 0 {
		return loc, nil, types.NewFatalError(ctx.input, loc, "lookbehind requires a max width for variable-width expressions", p.name)
	}
	limit := min(p.maxWidth, loc)
	for w := 1; w <= limit; w++ {
		end, toks, err := tryMatch(ctx, p.expr, loc-w, doActions)
		if err != nil {
			if types.IsFatal(err) {
				return loc, nil, err
			}
			continue
		}
		if end == loc {
			return loc, toks, nil
		}
	}
	return noMatch(ctx, loc, "preceding text does not match "+p.expr.String(), p.name)
}

// SkipTo advances over arbitrary input until its child matches, producing
// the skipped span as its token. A fail-on expression aborts the skip if
// it matches first; an ignore expression is stepped over without being
// considered a match position.
type SkipTo struct {
	unary
	includeMatch bool
	ignoreExpr   Expr
	failOn       Expr
}

// NewSkipTo creates a skip-to over e.
func NewSkipTo(e Expr) *SkipTo {
	s := &SkipTo{unary: unary{Base: newBase("...{" + e.String() + "}"), expr: e}}
	s.mayMatchEmpty = true
	return s
}

// Include makes the target's own match part of the result, advancing past
// it.
func (s *SkipTo) Include() *SkipTo {
	s.includeMatch = true
	return s
}

// IgnoreExpr sets an expression stepped over transparently while
// skipping (quoted strings, typically, so a target inside one is not
// found).
func (s *SkipTo) IgnoreExpr(e Expr) *SkipTo {
	s.ignoreExpr = e
	return s
}

// FailOn makes the skip fail if e matches before the target is found.
func (s *SkipTo) FailOn(e Expr) *SkipTo {
	s.failOn = e
	return s
}

func (s *SkipTo) children() []Expr {
	out := []Expr{s.expr}
	if s.ignoreExpr != nil {
		out = append(out, s.ignoreExpr)
	}
	if s.failOn != nil {
		out = append(out, s.failOn)
	}
	return out
}

func (s *SkipTo) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	input := ctx.input
	cur := loc
	for cur <= len(input) {
		if s.failOn != nil {
			if _, _, err := tryMatch(ctx, s.failOn, cur, false); err == nil {
				return loc, nil, types.NewMatchError(input, cur, "encountered fail-on expression "+s.failOn.String(), s.name)
			} else if types.IsFatal(err) {
				return loc, nil, err
			}
		}
		if s.ignoreExpr != nil {
			for {
				end, _, err := tryMatch(ctx, s.ignoreExpr, cur, false)
				if err != nil || end == cur {
					break
				}
				cur = end
			}
		}
		end, ctoks, err := tryMatch(ctx, s.expr, cur, doActions)
		if err == nil {
			toks := types.NewResults(input[loc:cur])
			if s.includeMatch {
				toks.Merge(ctoks)
				return end, toks, nil
			}
			return cur, toks, nil
		}
		if types.IsFatal(err) {
			return loc, nil, err
		}
		if cur >= len(input) {
			break
		}
		_, size := utf8.DecodeRuneInString(input[cur:])
		cur += size
	}
	return loc, nil, types.NewMatchError(input, loc, "no match found for skip target "+s.expr.String(), s.name)
}

// Forward is a placeholder element whose child is assigned after
// construction, enabling recursive and mutually recursive grammars. It
// delegates matching entirely to the bound child; with left recursion
// enabled it switches to seed-growing evaluation.
type Forward struct {
	unary
}

// NewForward creates an unbound placeholder.
func NewForward() *Forward {
	f := &Forward{unary{Base: newBase("forward")}}
	f.mayMatchEmpty = true
	f.skipWhite = false
	return f
}

// Bind assigns the placeholder's real expression. Rebinding after the
// first parse of an enclosing grammar is not supported.
func (f *Forward) Bind(e Expr) *Forward {
	f.expr = e
	if !f.customName {
		f.name = "forward: " + e.String()
	}
	return f
}

func (f *Forward) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if f.expr == nil {
		return loc, nil, types.NewFatalError(ctx.input, loc, "forward expression was never bound", f.name)
	}
	if ctx.leftRec {
		return f.matchSeedGrow(ctx, loc, doActions)
	}
	return tryMatch(ctx, f.expr, loc, doActions)
}

// Combine requires its child's sub-matches to be contiguous — whitespace
// skipping is disabled across the wrapped tree — and concatenates all
// matched text into a single string token. Named results are preserved.
type Combine struct {
	unary
	joinSep string
}

// NewCombine creates a combining wrapper around e.
func NewCombine(e Expr) *Combine {
	c := &Combine{unary: unary{Base: newBase("combine{" + e.String() + "}"), expr: e}}
	c.mayMatchEmpty = e.base().mayMatchEmpty
	LeaveWhitespace(e)
	return c
}

// JoinSep sets a separator inserted between the child's tokens (empty by
// default).
func (c *Combine) JoinSep(sep string) *Combine {
	c.joinSep = sep
	return c
}

func (c *Combine) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end, ctoks, err := tryMatch(ctx, c.expr, loc, doActions)
	if err != nil {
		return loc, nil, err
	}
	var b strings.Builder
	writeFlat(&b, ctoks, c.joinSep)
	toks := ctoks.NamesOnly()
	toks.Insert(0, b.String())
	return end, toks, nil
}

func writeFlat(b *strings.Builder, r *types.Results, sep string) {
	for i, v := range r.Values() {
		if i > 0 {
			b.WriteString(sep)
		}
		if nested, ok := v.(*types.Results); ok {
			writeFlat(b, nested, sep)
			continue
		}
		fmt.Fprint(b, v)
	}
}

// Group wraps the child's token list as one nested sub-result instead of
// splicing it into the enclosing sequence.
type Group struct {
	unary
}

// NewGroup creates a grouping wrapper around e.
func NewGroup(e Expr) *Group {
	g := &Group{unary{Base: newBase("group{" + e.String() + "}"), expr: e}}
	g.mayMatchEmpty = e.base().mayMatchEmpty
	return g
}

func (g *Group) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end, ctoks, err := tryMatch(ctx, g.expr, loc, doActions)
	if err != nil {
		return loc, nil, err
	}
	return end, types.NewResults(ctoks), nil
}

// Suppress discards the child's entire output — tokens and names — while
// still requiring it to match. Used to drop punctuation.
type Suppress struct {
	unary
}

// NewSuppress creates a suppressing wrapper around e.
func NewSuppress(e Expr) *Suppress {
	s := &Suppress{unary{Base: newBase("suppress{" + e.String() + "}"), expr: e}}
	s.mayMatchEmpty = e.base().mayMatchEmpty
	return s
}

func (s *Suppress) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end, _, err := tryMatch(ctx, s.expr, loc, doActions)
	if err != nil {
		return loc, nil, err
	}
	return end, types.NewResults(), nil
}

// Dict interprets the child's output — a sequence of grouped (key,
// value...) sub-results — as named entries, in addition to the plain
// ordered sequence.
type Dict struct {
	unary
}

// NewDict creates a dict-izing wrapper around e.
func NewDict(e Expr) *Dict {
	d := &Dict{unary{Base: newBase("dict{" + e.String() + "}"), expr: e}}
	d.mayMatchEmpty = e.base().mayMatchEmpty
	return d
}

func (d *Dict) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end, ctoks, err := tryMatch(ctx, d.expr, loc, doActions)
	if err != nil {
		return loc, nil, err
	}
	for i := 0; i < ctoks.Len(); i++ {
		sub, ok := ctoks.Get(i).(*types.Results)
		if !ok || sub.Len() == 0 {
			continue
		}
		key := fmt.Sprint(sub.Get(0))
		var value any
		switch {
		case sub.Len() == 1:
			value = ""
		case sub.Len() == 2:
			if nested, isNested := sub.Get(1).(*types.Results); isNested {
				value = nested
			} else {
				value = sub.Get(1)
			}
		default:
			value = sub.Slice(1, sub.Len())
		}
		ctoks.PutNamed(key, value, i, false)
	}
	return end, ctoks, nil
}

// DelimitedList builds the canonical helper grammar for "expr, expr,
// expr" style lists: one expr followed by any number of sep-expr pairs,
// with the separator suppressed. A nil sep defaults to a comma. When
// combine is true the whole list is combined into a single token with
// the separators retained.
func DelimitedList(expr, sep Expr, combine bool) Expr {
	if sep == nil {
		sep = NewLiteral(",")
	}
	name := expr.String() + " [" + sep.String() + " " + expr.String() + "]..."
	if combine {
		return SetName(NewCombine(NewAnd(expr, NewZeroOrMore(NewAnd(sep, expr)))), name)
	}
	if _, ok := sep.(*Suppress); !ok {
		sep = NewSuppress(sep)
	}
	return SetName(NewAnd(expr, NewZeroOrMore(NewAnd(sep, expr))), name)
}
