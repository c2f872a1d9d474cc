package combinator

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/parsekit/pkg/types"
)

// Parse matches e against text starting at offset zero and returns the
// structured results. With parseAll set, trailing unconsumed text (other
// than whitespace and ignorables) is itself a failure. Each call owns a
// fresh Context; options configure packrat caching, left recursion and
// the depth guard for this call only.
func Parse(e Expr, text string, parseAll bool, opts ...Option) (*types.Results, error) {
	ctx := NewContext(text, opts...)
	ensureStreamlined(e)
	end, toks, err := tryMatch(ctx, e, 0, true)
	if err != nil {
		return nil, err
	}
	if parseAll {
		end = preSkip(ctx, e.base(), end)
		if end < len(text) {
			return nil, types.NewMatchError(text, end, "expected end of text", "")
		}
	}
	return toks, nil
}

// ScanMatch is one hit produced by Scan: the match's results plus its
// start and end offsets in the scanned text.
type ScanMatch struct {
	Tokens *types.Results
	Start  int
	End    int
}

// Scan slides e over text and yields every match found, advancing one
// character at a time past positions where e fails. maxMatches caps the
// number of hits (0 = unbounded); with overlap set, scanning resumes one
// character after each match's start rather than at its end.
//
// The sequence is lazy: matching proceeds only as far as the consumer
// iterates. A fatal failure ends the sequence with a non-nil error; the
// single packrat cache spans the entire scan.
func Scan(e Expr, text string, maxMatches int, overlap bool, opts ...Option) iter.Seq2[ScanMatch, error] {
	return func(yield func(ScanMatch, error) bool) {
		ctx := NewContext(text, opts...)
		ensureStreamlined(e)
		loc, found := 0, 0
		for loc <= len(text) && (maxMatches <= 0 || found < maxMatches) {
			start := preSkip(ctx, e.base(), loc)
			end, toks, err := tryMatch(ctx, e, start, true)
			if err != nil {
				if types.IsFatal(err) {
					yield(ScanMatch{}, err)
					return
				}
				if start >= len(text) {
					return
				}
				_, size := utf8.DecodeRuneInString(text[start:])
				loc = start + size
				continue
			}
			found++
			if !yield(ScanMatch{Tokens: toks, Start: start, End: end}, nil) {
				return
			}
			switch {
			case overlap, end <= start:
				if start >= len(text) {
					return
				}
				_, size := utf8.DecodeRuneInString(text[start:])
				loc = start + size
			default:
				loc = end
			}
		}
	}
}

// Search collects the results of every match of e in text, dropping the
// offsets.
func Search(e Expr, text string, opts ...Option) ([]*types.Results, error) {
	var out []*types.Results
	for m, err := range Scan(e, text, 0, false, opts...) {
		if err != nil {
			return nil, err
		}
		out = append(out, m.Tokens)
	}
	return out, nil
}

// Transform rebuilds text with every match of e replaced by the output of
// its parse actions — an action producing no tokens deletes the matched
// span — while every unmatched span is preserved verbatim.
func Transform(e Expr, text string, opts ...Option) (string, error) {
	var b strings.Builder
	last := 0
	for m, err := range Scan(e, text, 0, false, opts...) {
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:m.Start])
		writeFlat(&b, m.Tokens, "")
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Split yields the spans of text between matches of e, lazily. maxSplits
// caps the number of separators honored (0 = unbounded); with
// includeSeparators set, the matched separator text itself is yielded
// between the spans.
func Split(e Expr, text string, maxSplits int, includeSeparators bool, opts ...Option) iter.Seq[string] {
	return func(yield func(string) bool) {
		last, splits := 0, 0
		for m, err := range Scan(e, text, maxSplits, false, opts...) {
			if err != nil {
				break
			}
			if !yield(text[last:m.Start]) {
				return
			}
			if includeSeparators && !yield(text[m.Start:m.End]) {
				return
			}
			last = m.End
			splits++
			if maxSplits > 0 && splits >= maxSplits {
				break
			}
		}
		yield(text[last:])
	}
}

// Explain renders err with the offending input line and a column marker
// when err is a parse failure; other errors render as themselves.
func Explain(err error) string {
	pe, ok := err.(interface {
		Line() int
		Column() int
		LineText() string
		Error() string
	})
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(pe.Error())
	b.WriteByte('\n')
	b.WriteString(pe.LineText())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%*s^", pe.Column()-1, "")
	return b.String()
}
