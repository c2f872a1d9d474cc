// Package parsekit is a parser-combinator runtime: grammars are
// assembled from small matching elements and executed directly against
// input text, as an alternative to hand-written recursive-descent
// parsers or regular expressions.
//
// # Quick Start
//
//	word := parsekit.NewWord(parsekit.Alphas)
//	comma := parsekit.NewSuppress(parsekit.NewLiteral(","))
//	grammar := parsekit.NewAnd(word, comma, word)
//
//	toks, err := parsekit.Parse(grammar, "foo, bar", true)
//	// toks: ["foo", "bar"]
//
// # Design
//
// A grammar is a tree of elements built once and reused across many
// parses; every per-parse state — the packrat memo table, recursion
// bookkeeping, the depth guard — lives in a context created per driver
// call, so a single grammar is safe for concurrent use.
//
//	toks, err := parsekit.Parse(grammar, input, true,
//	    parsekit.WithPackrat(),
//	    parsekit.WithMaxDepth(500),
//	)
//
// Failures come in three kinds: recoverable match failures that choice
// combinators backtrack over, fatal failures that abort the parse, and
// cut-converted failures produced when a sequence fails after its Cut
// marker. Line and column information is computed from the failure
// offset on demand.
//
// # More Information
//
// For detailed documentation, see:
//   - Engine: github.com/sandrolain/parsekit/pkg/combinator
//   - Results and errors: github.com/sandrolain/parsekit/pkg/types
//   - Packrat memo table: github.com/sandrolain/parsekit/pkg/cache
package parsekit

import (
	"github.com/sandrolain/parsekit/pkg/combinator"
	"github.com/sandrolain/parsekit/pkg/types"
)

// Version returns the current version of parsekit.
func Version() string {
	return "v0.1.0-dev"
}

// Core protocol and data model.
type (
	Expr       = combinator.Expr
	Action     = combinator.Action
	Context    = combinator.Context
	Option     = combinator.Option
	ScanMatch  = combinator.ScanMatch
	Results    = types.Results
	ParseError = types.ParseError
	MatchError = types.MatchError
	FatalError = types.FatalError
	CutError   = types.CutError
)

// Infix grammar builder.
type (
	Level = combinator.Level
	Assoc = combinator.Assoc
)

const (
	AssocLeft  = combinator.AssocLeft
	AssocRight = combinator.AssocRight
)

// Character sets.
const (
	Alphas         = combinator.Alphas
	Nums           = combinator.Nums
	AlphaNums      = combinator.AlphaNums
	HexNums        = combinator.HexNums
	IdentChars     = combinator.IdentChars
	IdentBodyChars = combinator.IdentBodyChars
)

// Element constructors.
var (
	NewLiteral         = combinator.NewLiteral
	NewCaselessLiteral = combinator.NewCaselessLiteral
	NewKeyword         = combinator.NewKeyword
	NewWord            = combinator.NewWord
	NewRegexp          = combinator.NewRegexp
	NewQuotedString    = combinator.NewQuotedString
	NewCharsNotIn      = combinator.NewCharsNotIn
	NewWhite           = combinator.NewWhite
	NewEmpty           = combinator.NewEmpty
	NewNoMatch         = combinator.NewNoMatch
	NewLineStart       = combinator.NewLineStart
	NewLineEnd         = combinator.NewLineEnd
	NewStringStart     = combinator.NewStringStart
	NewStringEnd       = combinator.NewStringEnd
	NewWordStart       = combinator.NewWordStart
	NewWordEnd         = combinator.NewWordEnd

	NewAnd        = combinator.NewAnd
	NewMatchFirst = combinator.NewMatchFirst
	NewOr         = combinator.NewOr
	NewEach       = combinator.NewEach
	NewCut        = combinator.NewCut

	NewOpt        = combinator.NewOpt
	NewRepeat     = combinator.NewRepeat
	NewZeroOrMore = combinator.NewZeroOrMore
	NewOneOrMore  = combinator.NewOneOrMore
	NewNotAny     = combinator.NewNotAny
	NewFollowedBy = combinator.NewFollowedBy
	NewPrecededBy = combinator.NewPrecededBy
	NewSkipTo     = combinator.NewSkipTo
	NewForward    = combinator.NewForward
	NewCombine    = combinator.NewCombine
	NewGroup      = combinator.NewGroup
	NewSuppress   = combinator.NewSuppress
	NewDict       = combinator.NewDict

	DelimitedList = combinator.DelimitedList
	InfixNotation = combinator.InfixNotation
)

// Element modifiers.
var (
	SetName            = combinator.SetName
	Named              = combinator.Named
	NamedAll           = combinator.NamedAll
	AddAction          = combinator.AddAction
	Ignore             = combinator.Ignore
	LeaveWhitespace    = combinator.LeaveWhitespace
	SetWhitespaceChars = combinator.SetWhitespaceChars
	Validate           = combinator.Validate
)

// Driver entry points and options.
var (
	Parse     = combinator.Parse
	Scan      = combinator.Scan
	Search    = combinator.Search
	Transform = combinator.Transform
	Split     = combinator.Split
	Explain   = combinator.Explain

	WithPackrat       = combinator.WithPackrat
	WithPackratSize   = combinator.WithPackratSize
	WithLeftRecursion = combinator.WithLeftRecursion
	WithMaxDepth      = combinator.WithMaxDepth

	IsFatal = types.IsFatal
)
