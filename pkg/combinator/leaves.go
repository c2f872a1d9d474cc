package combinator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/parsekit/pkg/types"
)

// Common character sets for Word elements.
const (
	Alphas    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	Nums      = "0123456789"
	AlphaNums = Alphas + Nums
	HexNums   = Nums + "ABCDEFabcdef"

	// IdentChars / IdentBodyChars describe programming-language
	// identifiers and the default keyword boundary set.
	IdentChars     = Alphas + "_"
	IdentBodyChars = AlphaNums + "_"
)

// Printables holds every printable ASCII character except space.
var Printables = func() string {
	var b strings.Builder
	for c := byte('!'); c <= '~'; c++ {
		b.WriteByte(c)
	}
	return b.String()
}()

func noMatch(ctx *Context, loc int, msg, element string) (int, *types.Results, error) {
	return loc, nil, types.NewMatchError(ctx.input, loc, msg, element)
}

// Literal matches an exact string.
type Literal struct {
	Base
	match string
}

// NewLiteral creates an element matching exactly s.
func NewLiteral(s string) *Literal {
	l := &Literal{Base: newBase(fmt.Sprintf("%q", s)), match: s}
	l.mayMatchEmpty = s == ""
	return l
}

func (l *Literal) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if !strings.HasPrefix(ctx.input[loc:], l.match) {
		return noMatch(ctx, loc, l.errMsg, l.name)
	}
	return loc + len(l.match), types.NewResults(l.match), nil
}

// CaselessLiteral matches a string ignoring case; the token produced is
// the spelling given at construction, not the spelling found.
type CaselessLiteral struct {
	Base
	match string
}

// NewCaselessLiteral creates an element matching s case-insensitively.
func NewCaselessLiteral(s string) *CaselessLiteral {
	l := &CaselessLiteral{Base: newBase(fmt.Sprintf("%q", s)), match: s}
	l.mayMatchEmpty = s == ""
	return l
}

func (l *CaselessLiteral) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end := loc + len(l.match)
	if end > len(ctx.input) || !strings.EqualFold(ctx.input[loc:end], l.match) {
		return noMatch(ctx, loc, l.errMsg, l.name)
	}
	return end, types.NewResults(l.match), nil
}

// Keyword matches an exact string that must not be immediately preceded
// or followed by an identifier character, so "or" never matches inside
// "order".
type Keyword struct {
	Base
	match      string
	identChars string
	caseless   bool
}

// NewKeyword creates a keyword element for s with the default identifier
// boundary set.
func NewKeyword(s string) *Keyword {
	return &Keyword{Base: newBase(fmt.Sprintf("%q", s)), match: s, identChars: IdentBodyChars + "$"}
}

// Caseless makes the keyword match case-insensitively.
func (k *Keyword) Caseless() *Keyword {
	k.caseless = true
	return k
}

// IdentChars replaces the boundary character set.
func (k *Keyword) IdentChars(chars string) *Keyword {
	k.identChars = chars
	return k
}

func (k *Keyword) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	end := loc + len(k.match)
	if end > len(ctx.input) {
		return noMatch(ctx, loc, k.errMsg, k.name)
	}
	body := ctx.input[loc:end]
	if k.caseless {
		if !strings.EqualFold(body, k.match) {
			return noMatch(ctx, loc, k.errMsg, k.name)
		}
	} else if body != k.match {
		return noMatch(ctx, loc, k.errMsg, k.name)
	}
	if loc > 0 && strings.IndexByte(k.identChars, ctx.input[loc-1]) >= 0 {
		return noMatch(ctx, loc, k.errMsg, k.name)
	}
	if end < len(ctx.input) && strings.IndexByte(k.identChars, ctx.input[end]) >= 0 {
		return noMatch(ctx, loc, k.errMsg, k.name)
	}
	return end, types.NewResults(k.match), nil
}

// Word matches a run of characters drawn from a leading set and an
// optional distinct body set, with a length range.
type Word struct {
	Base
	initChars string
	bodyChars string
	min, max  int
}

// NewWord creates an element matching one or more characters from
// initChars.
func NewWord(initChars string) *Word {
	w := &Word{Base: newBase(abbrevSet("W", initChars)), initChars: initChars, bodyChars: initChars, min: 1}
	return w
}

// Body sets a distinct character set for every character after the first.
func (w *Word) Body(chars string) *Word {
	w.bodyChars = chars
	return w
}

// MinLen requires the word to span at least n characters.
func (w *Word) MinLen(n int) *Word {
	w.min = n
	w.mayMatchEmpty = n == 0
	return w
}

// MaxLen caps the word at n characters.
func (w *Word) MaxLen(n int) *Word {
	w.max = n
	return w
}

// Exact pins the word to exactly n characters.
func (w *Word) Exact(n int) *Word {
	return w.MinLen(n).MaxLen(n)
}

func (w *Word) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	input := ctx.input
	cur := loc
	count := 0
	for cur < len(input) {
		r, size := utf8.DecodeRuneInString(input[cur:])
		set := w.bodyChars
		if count == 0 {
			set = w.initChars
		}
		if !strings.ContainsRune(set, r) {
			break
		}
		cur += size
		count++
		if w.max > 0 && count == w.max {
			break
		}
	}
	if count < w.min {
		return noMatch(ctx, loc, w.errMsg, w.name)
	}
	return cur, types.NewResults(input[loc:cur]), nil
}

// abbrevSet renders a character set name the way failure messages show
// them, eliding long sets.
func abbrevSet(prefix, chars string) string {
	if len(chars) > 16 {
		chars = chars[:13] + "..."
	}
	return fmt.Sprintf("%s:(%s)", prefix, chars)
}

// Regexp matches a precompiled regular expression anchored at the current
// offset. Named capture groups become named results.
type Regexp struct {
	Base
	re       *regexp.Regexp
	anchored *regexp.Regexp
}

// NewRegexp creates an element matching re at the current position.
func NewRegexp(re *regexp.Regexp) *Regexp {
	r := &Regexp{
		Base:     newBase(fmt.Sprintf("Re:(%s)", re.String())),
		re:       re,
		anchored: regexp.MustCompile(`\A(?:` + re.String() + `)`),
	}
	r.mayMatchEmpty = true
	return r
}

func (r *Regexp) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	idx := r.anchored.FindStringSubmatchIndex(ctx.input[loc:])
	if idx == nil {
		return noMatch(ctx, loc, r.errMsg, r.name)
	}
	toks := types.NewResults(ctx.input[loc : loc+idx[1]])
	for i, name := range r.anchored.SubexpNames() {
		if name == "" || idx[2*i] < 0 {
			continue
		}
		toks.PutNamed(name, ctx.input[loc+idx[2*i]:loc+idx[2*i+1]], 0, false)
	}
	return loc + idx[1], toks, nil
}

// QuotedString matches a string delimited by a quote character, honoring
// an optional escape character. By default the token keeps its quotes;
// Unquote strips them and resolves escapes.
type QuotedString struct {
	Base
	quote   byte
	esc     byte
	hasEsc  bool
	unquote bool
}

// NewQuotedString creates an element matching a quote-delimited string.
func NewQuotedString(quote byte) *QuotedString {
	return &QuotedString{Base: newBase("quoted string"), quote: quote}
}

// Escape sets the escape character allowed before a quote inside the
// string.
func (q *QuotedString) Escape(esc byte) *QuotedString {
	q.esc = esc
	q.hasEsc = true
	return q
}

// Unquote makes the produced token the string body, with delimiters
// removed and escape sequences resolved.
func (q *QuotedString) Unquote() *QuotedString {
	q.unquote = true
	return q
}

func (q *QuotedString) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	input := ctx.input
	if loc >= len(input) || input[loc] != q.quote {
		return noMatch(ctx, loc, q.errMsg, q.name)
	}
	cur := loc + 1
	for cur < len(input) {
		switch {
		case q.hasEsc && input[cur] == q.esc && cur+1 < len(input):
			cur += 2
		case input[cur] == q.quote:
			tok := input[loc : cur+1]
			if q.unquote {
				tok = input[loc+1 : cur]
				if q.hasEsc {
					tok = strings.ReplaceAll(tok, string([]byte{q.esc, q.quote}), string(q.quote))
					tok = strings.ReplaceAll(tok, string([]byte{q.esc, q.esc}), string(q.esc))
				}
			}
			return cur + 1, types.NewResults(tok), nil
		default:
			cur++
		}
	}
	return loc, nil, types.NewMatchError(ctx.input, loc, "unterminated quoted string", q.name)
}

// CharsNotIn matches a run of characters absent from an exclusion set.
// It does not skip leading whitespace: whitespace characters outside the
// exclusion set are part of the match.
type CharsNotIn struct {
	Base
	notChars string
	min, max int
}

// NewCharsNotIn creates an element matching one or more characters not in
// notChars.
func NewCharsNotIn(notChars string) *CharsNotIn {
	c := &CharsNotIn{Base: newBase(abbrevSet("!W", notChars)), notChars: notChars, min: 1}
	c.skipWhite = false
	return c
}

// MinLen requires at least n characters.
func (c *CharsNotIn) MinLen(n int) *CharsNotIn {
	c.min = n
	c.mayMatchEmpty = n == 0
	return c
}

// MaxLen caps the run at n characters.
func (c *CharsNotIn) MaxLen(n int) *CharsNotIn {
	c.max = n
	return c
}

func (c *CharsNotIn) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	input := ctx.input
	cur := loc
	count := 0
	for cur < len(input) {
		r, size := utf8.DecodeRuneInString(input[cur:])
		if strings.ContainsRune(c.notChars, r) {
			break
		}
		cur += size
		count++
		if c.max > 0 && count == c.max {
			break
		}
	}
	if count < c.min {
		return noMatch(ctx, loc, c.errMsg, c.name)
	}
	return cur, types.NewResults(input[loc:cur]), nil
}

// White matches a run of whitespace characters as a real token, for
// grammars where whitespace is significant.
type White struct {
	Base
	chars string
	min   int
}

// NewWhite creates an element matching one or more characters from chars
// (defaults to space, tab, newline and carriage return when empty).
func NewWhite(chars string) *White {
	if chars == "" {
		chars = defaultWhiteChars
	}
	w := &White{Base: newBase("whitespace"), chars: chars, min: 1}
	w.skipWhite = false
	return w
}

func (w *White) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	input := ctx.input
	cur := loc
	for cur < len(input) && strings.IndexByte(w.chars, input[cur]) >= 0 {
		cur++
	}
	if cur-loc < w.min {
		return noMatch(ctx, loc, w.errMsg, w.name)
	}
	return cur, types.NewResults(input[loc:cur]), nil
}

// Empty always matches, consuming nothing and producing no tokens.
type Empty struct {
	Base
}

// NewEmpty creates the always-matching zero-width element.
func NewEmpty() *Empty {
	e := &Empty{Base: newBase("empty")}
	e.mayMatchEmpty = true
	e.skipWhite = false
	return e
}

func (e *Empty) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	return loc, nil, nil
}

// NoMatch never matches. Useful as a placeholder alternative.
type NoMatch struct {
	Base
}

// NewNoMatch creates the never-matching element.
func NewNoMatch() *NoMatch {
	return &NoMatch{Base: newBase("no match")}
}

func (n *NoMatch) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	return noMatch(ctx, loc, "unmatchable element", n.name)
}

// LineStart asserts that the current offset sits at the beginning of a
// line.
type LineStart struct {
	Base
}

// NewLineStart creates the line-start assertion.
func NewLineStart() *LineStart {
	l := &LineStart{Base: newBase("start of line")}
	l.mayMatchEmpty = true
	l.skipWhite = false
	return l
}

func (l *LineStart) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if loc == 0 || ctx.input[loc-1] == '\n' {
		return loc, nil, nil
	}
	return noMatch(ctx, loc, l.errMsg, l.name)
}

// LineEnd asserts that the current offset sits at the end of a line,
// consuming the newline if one is present.
type LineEnd struct {
	Base
}

// NewLineEnd creates the line-end assertion.
func NewLineEnd() *LineEnd {
	l := &LineEnd{Base: newBase("end of line")}
	l.mayMatchEmpty = true
	l.whiteChars = " \t"
	return l
}

func (l *LineEnd) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if loc == len(ctx.input) {
		return loc, nil, nil
	}
	if ctx.input[loc] == '\n' {
		return loc + 1, types.NewResults("\n"), nil
	}
	return noMatch(ctx, loc, l.errMsg, l.name)
}

// StringStart asserts offset zero.
type StringStart struct {
	Base
}

// NewStringStart creates the input-start assertion.
func NewStringStart() *StringStart {
	s := &StringStart{Base: newBase("start of text")}
	s.mayMatchEmpty = true
	s.skipWhite = false
	return s
}

func (s *StringStart) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if loc != 0 {
		return noMatch(ctx, loc, s.errMsg, s.name)
	}
	return loc, nil, nil
}

// StringEnd asserts the end of the input (after ordinary whitespace
// skipping).
type StringEnd struct {
	Base
}

// NewStringEnd creates the input-end assertion.
func NewStringEnd() *StringEnd {
	s := &StringEnd{Base: newBase("end of text")}
	s.mayMatchEmpty = true
	return s
}

func (s *StringEnd) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if loc != len(ctx.input) {
		return noMatch(ctx, loc, s.errMsg, s.name)
	}
	return loc, nil, nil
}

// WordStart asserts a boundary where a run of word characters begins.
type WordStart struct {
	Base
	wordChars string
}

// NewWordStart creates a word-start assertion over IdentBodyChars.
func NewWordStart() *WordStart {
	w := &WordStart{Base: newBase("start of word"), wordChars: IdentBodyChars}
	w.mayMatchEmpty = true
	w.skipWhite = false
	return w
}

func (w *WordStart) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if loc >= len(ctx.input) || strings.IndexByte(w.wordChars, ctx.input[loc]) < 0 {
		return noMatch(ctx, loc, w.errMsg, w.name)
	}
	if loc > 0 && strings.IndexByte(w.wordChars, ctx.input[loc-1]) >= 0 {
		return noMatch(ctx, loc, w.errMsg, w.name)
	}
	return loc, nil, nil
}

// WordEnd asserts a boundary where a run of word characters ends.
type WordEnd struct {
	Base
	wordChars string
}

// NewWordEnd creates a word-end assertion over IdentBodyChars.
func NewWordEnd() *WordEnd {
	w := &WordEnd{Base: newBase("end of word"), wordChars: IdentBodyChars}
	w.mayMatchEmpty = true
	w.skipWhite = false
	return w
}

func (w *WordEnd) matchImpl(ctx *Context, loc int, doActions bool) (int, *types.Results, error) {
	if loc == 0 || strings.IndexByte(w.wordChars, ctx.input[loc-1]) < 0 {
		return noMatch(ctx, loc, w.errMsg, w.name)
	}
	if loc < len(ctx.input) && strings.IndexByte(w.wordChars, ctx.input[loc]) >= 0 {
		return noMatch(ctx, loc, w.errMsg, w.name)
	}
	return loc, nil, nil
}
