package combinator

import (
	"github.com/sandrolain/parsekit/pkg/cache"
	"github.com/sandrolain/parsekit/pkg/types"
)

// DefaultMaxDepth is the recursion guard applied when none is configured.
// Matching is plain recursive descent, so pathological grammars are
// bounded by the goroutine stack; the guard turns that crash into a
// FatalError well before the stack runs out.
const DefaultMaxDepth = 10000

// Options configures a single driver invocation.
type Options struct {
	// Packrat enables memoization of match attempts.
	Packrat bool
	// PackratSize bounds the memo table (0 = unbounded). Implies Packrat.
	PackratSize int
	// LeftRecursion enables seed-growing evaluation of left-recursive
	// Forward elements. Mutually exclusive with Packrat: growing a seed
	// re-evaluates the same (element, offset) pair expecting different
	// results, which memoization would freeze.
	LeftRecursion bool
	// MaxDepth caps match recursion depth (0 = DefaultMaxDepth,
	// negative = unlimited).
	MaxDepth int
}

// Option configures a driver invocation.
type Option func(*Options)

// WithPackrat enables the packrat memo table for this invocation.
func WithPackrat() Option {
	return func(o *Options) { o.Packrat = true }
}

// WithPackratSize enables a bounded packrat memo table holding at most n
// entries.
func WithPackratSize(n int) Option {
	return func(o *Options) {
		o.Packrat = true
		o.PackratSize = n
	}
}

// WithLeftRecursion enables seed-growing evaluation of left-recursive
// Forward elements for this invocation. Disables packrat memoization.
func WithLeftRecursion() Option {
	return func(o *Options) { o.LeftRecursion = true }
}

// WithMaxDepth sets the recursion depth guard. Pass a negative value to
// disable the guard entirely.
func WithMaxDepth(n int) Option {
	return func(o *Options) { o.MaxDepth = n }
}

// recKey identifies a left-recursive expansion in progress.
type recKey struct {
	f   *Forward
	loc int
}

// recState is the current seed for one in-progress expansion.
type recState struct {
	matched bool
	end     int
	toks    *types.Results
}

// Context is the per-parse state threaded through every match call: the
// input text, the packrat memo table, the depth guard and the
// left-recursion bookkeeping. A Context belongs to exactly one top-level
// driver invocation; the grammar tree itself stays read-only.
type Context struct {
	input     string
	memo      cache.Store
	leftRec   bool
	depth     int
	maxDepth  int
	recursion map[recKey]*recState
}

// NewContext creates the parse state for one driver invocation over input.
func NewContext(input string, opts ...Option) *Context {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	ctx := &Context{input: input, maxDepth: o.MaxDepth}
	if ctx.maxDepth == 0 {
		ctx.maxDepth = DefaultMaxDepth
	} else if ctx.maxDepth < 0 {
		ctx.maxDepth = 0
	}
	if o.LeftRecursion {
		ctx.leftRec = true
		ctx.recursion = make(map[recKey]*recState)
	} else if o.Packrat {
		if o.PackratSize > 0 {
			ctx.memo = cache.NewBounded(o.PackratSize)
		} else {
			ctx.memo = cache.NewUnbounded()
		}
	}
	return ctx
}

// Input returns the text being parsed.
func (c *Context) Input() string { return c.input }

// CacheLen returns the number of memoized match attempts, 0 when packrat
// is disabled.
func (c *Context) CacheLen() int {
	if c.memo == nil {
		return 0
	}
	return c.memo.Len()
}
