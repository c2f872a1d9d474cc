// Package combinator implements the parsekit matching engine: the element
// protocol, the token leaves, the structural combinators and decorators,
// the packrat-aware parse driver, the operator-precedence grammar builder
// and the left-recursion evaluation strategy.
//
// # Architecture
//
// A grammar is a tree of elements, each satisfying the [Expr] protocol.
// Elements are built once, declaratively, and streamlined (flattened)
// on first use; after that the tree is immutable and safe to share.
// All per-parse mutable state — the packrat memo table, recursion
// bookkeeping, the depth guard — lives on a [Context] created for each
// top-level driver invocation, so one grammar can serve many concurrent
// parses.
//
// # Example
//
//	word := combinator.NewWord(combinator.Alphas)
//	grammar := combinator.NewAnd(word, combinator.NewSuppress(combinator.NewLiteral(",")), word)
//	toks, err := combinator.Parse(grammar, "foo, bar", true)
package combinator

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sandrolain/parsekit/pkg/cache"
	"github.com/sandrolain/parsekit/pkg/types"
)

// Action is a post-match transform attached to an element. It receives
// the full input, the offset the element matched at, and the tokens the
// element produced. Returning a non-nil Results replaces the tokens;
// returning (nil, nil) keeps them. Returning a MatchError rejects the
// match as an ordinary recoverable failure; any other error aborts the
// whole parse.
type Action func(input string, loc int, toks *types.Results) (*types.Results, error)

// Expr is the protocol every grammar element satisfies: leaves,
// combinators and decorators alike. Elements are identity-bearing; the
// packrat cache keys on the element pointer, never on structure.
type Expr interface {
	// base exposes the element's shared attribute bag.
	base() *Base

	// matchImpl runs the element-specific matching logic at loc, after
	// the shared wrapper has skipped ignorables and whitespace. It
	// returns the end offset and raw tokens, or a failure.
	matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error)

	// String returns the element's diagnostic name.
	String() string
}

// container is implemented by elements that hold child elements.
type container interface {
	children() []Expr
}

// streamliner is implemented by elements with a structural flattening
// step (nested homogeneous combinators are merged on first use).
type streamliner interface {
	streamline()
}

const defaultWhiteChars = " \t\n\r"

// Base is the attribute bag embedded by every element: diagnostic name,
// whitespace-skipping configuration, ignorable sub-expressions, parse
// actions, results naming and the may-match-empty flag.
type Base struct {
	name          string
	customName    bool
	errMsg        string
	whiteChars    string
	skipWhite     bool
	ignores       []Expr
	actions       []Action
	resultsName   string
	listAll       bool
	mayMatchEmpty bool
	streamlined   atomic.Bool
}

func newBase(name string) Base {
	return Base{name: name, whiteChars: defaultWhiteChars, skipWhite: true}
}

func (b *Base) base() *Base { return b }

// String returns the element's diagnostic name.
func (b *Base) String() string { return b.name }

// setName is shared by the SetName modifier and constructors.
func (b *Base) setName(name string) {
	b.name = name
	b.customName = true
	b.errMsg = "expected " + name
}

// SetName assigns a diagnostic name used in failure messages, replacing
// the element's auto-generated one.
func SetName(e Expr, name string) Expr {
	e.base().setName(name)
	return e
}

// Named records the element's output under name. The name is modal: when
// the element matches several times into the same results, only the last
// match is visible under the name.
func Named(e Expr, name string) Expr {
	b := e.base()
	b.resultsName = name
	b.listAll = false
	return e
}

// NamedAll records the element's output under name with the "accumulate
// all" policy: every match under the name is retained and lookups return
// the full list.
func NamedAll(e Expr, name string) Expr {
	b := e.base()
	b.resultsName = name
	b.listAll = true
	return e
}

// AddAction appends a parse action, run in order after each successful
// match of e.
func AddAction(e Expr, a Action) Expr {
	b := e.base()
	b.actions = append(b.actions, a)
	return e
}

// Ignore registers an expression (comments, typically) that is skipped
// transparently before e and before every element reachable from it.
func Ignore(e Expr, ignorable Expr) Expr {
	walk(e, func(x Expr) {
		b := x.base()
		b.ignores = append(b.ignores, ignorable)
	})
	return e
}

// LeaveWhitespace disables leading-whitespace skipping on e and every
// element reachable from it.
func LeaveWhitespace(e Expr) Expr {
	walk(e, func(x Expr) {
		x.base().skipWhite = false
	})
	return e
}

// SetWhitespaceChars replaces the set of characters e skips before
// matching.
func SetWhitespaceChars(e Expr, chars string) Expr {
	e.base().whiteChars = chars
	return e
}

// walk visits e and every element reachable from it exactly once.
func walk(e Expr, visit func(Expr)) {
	seen := make(map[Expr]bool)
	var rec func(Expr)
	rec = func(x Expr) {
		if x == nil || seen[x] {
			return
		}
		seen[x] = true
		visit(x)
		if c, ok := x.(container); ok {
			for _, child := range c.children() {
				rec(child)
			}
		}
	}
	rec(e)
}

// ensureStreamlined runs the one-time flattening pass over the grammar
// tree rooted at e. The pass is idempotent and converges to the same
// structure from any interleaving, so a race between two first parses is
// harmless.
func ensureStreamlined(e Expr) {
	if e == nil || !e.base().streamlined.CompareAndSwap(false, true) {
		return
	}
	if s, ok := e.(streamliner); ok {
		s.streamline()
	}
	if c, ok := e.(container); ok {
		for _, child := range c.children() {
			ensureStreamlined(child)
		}
	}
}

// mergeable reports whether a child combinator can be folded into a
// same-typed parent during streamlining without changing semantics.
func mergeable(e Expr) bool {
	b := e.base()
	return b.resultsName == "" && len(b.actions) == 0 && !b.customName && len(b.ignores) == 0
}

// tryMatch is the uniform match wrapper: depth guard, packrat consult,
// pre-match skipping, element-specific matching, results naming and
// parse actions, in that order.
func tryMatch(ctx *Context, e Expr, loc int, doActions bool) (int, *types.Results, error) {
	if ctx.maxDepth > 0 {
		ctx.depth++
		defer func() { ctx.depth-- }()
		if ctx.depth > ctx.maxDepth {
			return loc, nil, types.NewFatalError(ctx.input, loc, "maximum parse depth exceeded", e.String())
		}
	}

	b := e.base()
	key := cache.Key{Elem: e, Loc: loc, PreSkip: b.skipWhite, DoActions: doActions}
	if ctx.memo != nil {
		if o, ok := ctx.memo.Get(key); ok {
			if o.Err != nil {
				return loc, nil, o.Err
			}
			return o.End, o.Tokens.Copy(), nil
		}
	}

	end, toks, err := matchOnce(ctx, e, loc, doActions)
	if ctx.memo != nil {
		if err == nil {
			ctx.memo.Put(key, cache.Outcome{End: end, Tokens: toks.Copy()})
		} else if !types.IsFatal(err) {
			ctx.memo.Put(key, cache.Outcome{Err: err})
		}
	}
	return end, toks, err
}

func matchOnce(ctx *Context, e Expr, loc int, doActions bool) (int, *types.Results, error) {
	b := e.base()
	if b.skipWhite || len(b.ignores) > 0 {
		loc = preSkip(ctx, b, loc)
	}

	end, toks, err := e.matchImpl(ctx, loc, doActions)
	if err != nil {
		var me *types.MatchError
		if errors.As(err, &me) && me.Element == "" {
			me.Element = e.String()
		}
		return loc, nil, err
	}
	if toks == nil {
		toks = types.NewResults()
	}
	wrapName(b, toks)

	if doActions {
		for _, act := range b.actions {
			replaced, aerr := act(ctx.input, loc, toks)
			if aerr != nil {
				return loc, nil, actionError(ctx, loc, aerr)
			}
			if replaced != nil {
				toks = replaced
				wrapName(b, toks)
			}
		}
	}
	return end, toks, nil
}

// actionError normalizes an error returned by a parse action: parse
// failure kinds pass through untouched, anything else becomes fatal.
func actionError(ctx *Context, loc int, err error) error {
	var me *types.MatchError
	if errors.As(err, &me) {
		return err
	}
	if types.IsFatal(err) {
		return err
	}
	return types.NewFatalError(ctx.input, loc, "parse action failed: "+err.Error(), "").WithCause(err)
}

// wrapName tags toks with the element's results-name, if any. A single
// plain token is named directly; anything else is named as a whole list.
func wrapName(b *Base, toks *types.Results) {
	if b.resultsName == "" {
		return
	}
	toks.SetName(b.resultsName)
	if toks.Len() == 1 {
		toks.PutNamed(b.resultsName, toks.Get(0), 0, b.listAll)
		return
	}
	toks.PutNamed(b.resultsName, types.NewResults(toks.Values()...), types.WholeMatch, b.listAll)
}

// preSkip advances loc past ignorable sub-matches and leading whitespace,
// alternating until neither makes progress.
func preSkip(ctx *Context, b *Base, loc int) int {
	for {
		moved := false
		for _, ig := range b.ignores {
			for loc < len(ctx.input) {
				end, _, err := tryMatch(ctx, ig, loc, false)
				if err != nil || end == loc {
					break
				}
				loc = end
				moved = true
			}
		}
		if b.skipWhite {
			for loc < len(ctx.input) && strings.IndexByte(b.whiteChars, ctx.input[loc]) >= 0 {
				loc++
				moved = true
			}
		}
		if !moved {
			return loc
		}
	}
}

// Validate checks the grammar tree rooted at e for infinite recursion: a
// cycle reachable through leftmost positions without consuming input.
// Such cycles are only parseable with WithLeftRecursion; Validate lets
// tooling reject them up front.
func Validate(e Expr) error {
	return validateRec(e, make(map[Expr]bool))
}

func validateRec(e Expr, path map[Expr]bool) error {
	if e == nil {
		return nil
	}
	if path[e] {
		return fmt.Errorf("combinator: infinite left recursion through %q", e.String())
	}
	path[e] = true
	defer delete(path, e)
	for _, child := range leftmostChildren(e) {
		if err := validateRec(child, path); err != nil {
			return err
		}
	}
	return nil
}

// leftmostChildren returns the children reachable at the element's own
// start offset: for a sequence, the prefix of children up to and
// including the first one that must consume input; for everything else,
// all children.
func leftmostChildren(e Expr) []Expr {
	if a, ok := e.(*And); ok {
		var out []Expr
		for _, child := range a.exprs {
			out = append(out, child)
			if !child.base().mayMatchEmpty {
				break
			}
		}
		return out
	}
	if c, ok := e.(container); ok {
		return c.children()
	}
	return nil
}
