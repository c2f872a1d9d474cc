package combinator

import (
	"errors"
	"slices"
	"strings"

	"github.com/sandrolain/parsekit/pkg/types"
)

// multi is the shared base of every combinator holding a child list.
type multi struct {
	Base
	exprs []Expr
}

func (m *multi) children() []Expr { return m.exprs }

func joinNames(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, sep) + "}"
}

// Cut is the backtracking stop marker. Placed inside a sequence, it
// converts every later recoverable failure of that sequence into a
// CutError, committing the parse to the current alternative.
type Cut struct {
	Base
}

// NewCut creates a cut marker.
func NewCut() *Cut {
	c := &Cut{Base: newBase("-")}
	c.mayMatchEmpty = true
	c.skipWhite = false
	return c
}

func (c *Cut) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	return loc, nil, nil
}

// And matches its children in order at successive offsets and
// concatenates their results. The first failing child fails the whole
// sequence — recoverably before a Cut marker, fatally after one.
type And struct {
	multi
}

// NewAnd creates a sequence of exprs.
func NewAnd(exprs ...Expr) *And {
	a := &And{multi{Base: newBase(joinNames(exprs, " ")), exprs: exprs}}
	a.mayMatchEmpty = true
	for _, e := range exprs {
		if !e.base().mayMatchEmpty {
			a.mayMatchEmpty = false
			break
		}
	}
	return a
}

func (a *And) streamline() {
	var flat []Expr
	for _, child := range a.exprs {
		if inner, ok := child.(*And); ok && mergeable(inner) {
			ensureStreamlined(inner)
			flat = append(flat, inner.exprs...)
			continue
		}
		flat = append(flat, child)
	}
	a.exprs = flat
	if !a.customName {
		a.name = joinNames(flat, " ")
	}
}

func (a *And) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	toks := types.NewResults()
	cut := false
	for _, child := range a.exprs {
		if _, ok := child.(*Cut); ok {
			cut = true
			continue
		}
		end, ctoks, err := tryMatch(ctx, child, loc, doActions)
		if err != nil {
			if cut && !types.IsFatal(err) {
				var me *types.MatchError
				if errors.As(err, &me) {
					return loc, nil, types.NewCutError(me)
				}
			}
			return loc, nil, err
		}
		loc = end
		toks.Merge(ctoks)
	}
	return loc, toks, nil
}

// MatchFirst is the ordered first-match choice: children are tried in
// listed order and the first success wins, even if a later alternative
// would consume more input. When every alternative fails, the recoverable
// failure with the furthest offset is reported.
type MatchFirst struct {
	multi
}

// NewMatchFirst creates a first-match choice over exprs.
func NewMatchFirst(exprs ...Expr) *MatchFirst {
	m := &MatchFirst{multi{Base: newBase(joinNames(exprs, " | ")), exprs: exprs}}
	for _, e := range exprs {
		if e.base().mayMatchEmpty {
			m.mayMatchEmpty = true
			break
		}
	}
	return m
}

func (m *MatchFirst) streamline() {
	var flat []Expr
	for _, child := range m.exprs {
		if inner, ok := child.(*MatchFirst); ok && mergeable(inner) {
			ensureStreamlined(inner)
			flat = append(flat, inner.exprs...)
			continue
		}
		flat = append(flat, child)
	}
	m.exprs = flat
	if !m.customName {
		m.name = joinNames(flat, " | ")
	}
}

func (m *MatchFirst) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	var furthest *types.MatchError
	for _, child := range m.exprs {
		end, toks, err := tryMatch(ctx, child, loc, doActions)
		if err == nil {
			return end, toks, nil
		}
		if types.IsFatal(err) {
			return loc, nil, err
		}
		var me *types.MatchError
		if errors.As(err, &me) && (furthest == nil || me.Offset > furthest.Offset) {
			furthest = me
		}
	}
	if furthest == nil {
		return noMatch(ctx, loc, m.errMsg, m.name)
	}
	return loc, nil, furthest
}

// Or is the longest-match choice: every child is tried and the success
// consuming the most input wins; ties go to the first listed. Candidates
// are ranked on raw matched width with parse actions disabled, then
// re-evaluated with actions enabled in decreasing-width order, so losing
// branches never run their actions. A candidate whose action rejects the
// match recoverably cedes to the next-widest candidate; the choice fails
// only when every candidate has failed or been rejected, reporting the
// furthest recoverable failure.
type Or struct {
	multi
}

// NewOr creates a longest-match choice over exprs.
func NewOr(exprs ...Expr) *Or {
	o := &Or{multi{Base: newBase(joinNames(exprs, " ^ ")), exprs: exprs}}
	for _, e := range exprs {
		if e.base().mayMatchEmpty {
			o.mayMatchEmpty = true
			break
		}
	}
	return o
}

func (o *Or) streamline() {
	var flat []Expr
	for _, child := range o.exprs {
		if inner, ok := child.(*Or); ok && mergeable(inner) {
			ensureStreamlined(inner)
			flat = append(flat, inner.exprs...)
			continue
		}
		flat = append(flat, child)
	}
	o.exprs = flat
	if !o.customName {
		o.name = joinNames(flat, " ^ ")
	}
}

func (o *Or) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	type candidate struct {
		expr Expr
		end  int
		toks *types.Results
	}
	var won []candidate
	var furthest *types.MatchError
	for _, child := range o.exprs {
		end, toks, err := tryMatch(ctx, child, loc, false)
		if err != nil {
			if types.IsFatal(err) {
				return loc, nil, err
			}
			var me *types.MatchError
			if errors.As(err, &me) && (furthest == nil || me.Offset > furthest.Offset) {
				furthest = me
			}
			continue
		}
		won = append(won, candidate{expr: child, end: end, toks: toks})
	}
	slices.SortStableFunc(won, func(a, b candidate) int { return b.end - a.end })

	if len(won) > 0 {
		if !doActions {
			return won[0].end, won[0].toks, nil
		}
		// Re-run candidates widest-first with actions enabled; an action
		// that rejects its match cedes to the next candidate.
		for _, c := range won {
			end, toks, err := tryMatch(ctx, c.expr, loc, true)
			if err == nil {
				return end, toks, nil
			}
			if types.IsFatal(err) {
				return loc, nil, err
			}
			var me *types.MatchError
			if errors.As(err, &me) && (furthest == nil || me.Offset > furthest.Offset) {
				furthest = me
			}
		}
	}
	if furthest == nil {
		return noMatch(ctx, loc, o.errMsg, o.name)
	}
	return loc, nil, furthest
}

// Each is the unordered group: all children must eventually match, in any
// order. It repeatedly scans the remaining children, advancing over
// whichever currently succeeds, until no progress is made; genuinely
// optional children that never matched may contribute their default
// value. A non-optional child that never matched fails the group.
//
// When two remaining children could both match at the same progress
// point, the one listed first at construction wins. That is a stable
// rule, not a compatibility guarantee.
type Each struct {
	multi
}

// NewEach creates an unordered group over exprs.
func NewEach(exprs ...Expr) *Each {
	e := &Each{multi{Base: newBase(joinNames(exprs, " & ")), exprs: exprs}}
	e.mayMatchEmpty = true
	for _, x := range exprs {
		if !x.base().mayMatchEmpty {
			e.mayMatchEmpty = false
			break
		}
	}
	return e
}

func (e *Each) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	// Optional children are probed through their inner expression so an
	// always-succeeding Opt cannot be consumed by a zero-width match
	// before its content appears. Once the probe succeeds, the match is
	// re-run through the Opt wrapper itself so a results-name or parse
	// action attached to the wrapper still applies.
	type slot struct {
		probe Expr
		opt   *Opt
	}
	remaining := make([]slot, len(e.exprs))
	for i, child := range e.exprs {
		if o, ok := child.(*Opt); ok {
			remaining[i] = slot{probe: o.expr, opt: o}
		} else {
			remaining[i] = slot{probe: child}
		}
	}

	toks := types.NewResults()
	for len(remaining) > 0 {
		matched := -1
		for i, s := range remaining {
			var end int
			var ctoks *types.Results
			var err error
			if s.opt != nil {
				if _, _, err = tryMatch(ctx, s.probe, loc, false); err == nil {
					end, ctoks, err = tryMatch(ctx, s.opt, loc, doActions)
				}
			} else {
				end, ctoks, err = tryMatch(ctx, s.probe, loc, doActions)
			}
			if err != nil {
				if types.IsFatal(err) {
					return loc, nil, err
				}
				continue
			}
			loc = end
			toks.Merge(ctoks)
			matched = i
			break
		}
		if matched < 0 {
			break
		}
		remaining = slices.Delete(remaining, matched, matched+1)
	}

	var missing []string
	for _, s := range remaining {
		if s.opt != nil {
			s.opt.contributeDefault(toks)
			continue
		}
		missing = append(missing, s.probe.String())
	}
	if len(missing) > 0 {
		msg := "missing one or more required elements (" + strings.Join(missing, ", ") + ")"
		return loc, nil, types.NewMatchError(ctx.input, loc, msg, e.name)
	}
	return loc, toks, nil
}
