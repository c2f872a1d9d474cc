package combinator

import (
	"github.com/sandrolain/parsekit/pkg/types"
)

// matchSeedGrow evaluates a Forward with the seed-growing fixed point
// used for left-recursive rules: first match the expression with the
// recursive reference failing (the seed), then repeatedly retry the full
// expression at the same start offset, each time substituting the best
// result found so far for the recursive reference, until the match stops
// growing.
//
// The in-progress set lives on the Context, keyed by (forward, offset),
// so the same grammar tree stays reusable across parses. Packrat
// memoization is disabled in left-recursion mode; each growth round must
// genuinely re-evaluate the tree.
func (f *Forward) matchSeedGrow(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	key := recKey{f: f, loc: loc}
	if st, ok := ctx.recursion[key]; ok {
		// Re-entrant call: stand in for the recursive reference with
		// the current seed, or fail if no seed exists yet.
		if st.matched {
			return st.end, st.toks.Copy(), nil
		}
		return loc, nil, types.NewMatchError(ctx.input, loc, "left-recursive reference before seed", f.name)
	}

	st := &recState{}
	ctx.recursion[key] = st
	defer delete(ctx.recursion, key)

	bestEnd := -1
	var bestToks *types.Results
	var lastErr error
	for {
		end, toks, err := tryMatch(ctx, f.expr, loc, doActions)
		if err != nil {
			if types.IsFatal(err) && bestEnd < 0 {
				return loc, nil, err
			}
			lastErr = err
			break
		}
		if end <= bestEnd {
			// No growth; the previous round's result is the answer.
			break
		}
		bestEnd, bestToks = end, toks
		st.matched, st.end, st.toks = true, end, toks
	}

	if bestEnd < 0 {
		if lastErr == nil {
			lastErr = types.NewMatchError(ctx.input, loc, "", f.name)
		}
		return loc, nil, lastErr
	}
	return bestEnd, bestToks, nil
}
