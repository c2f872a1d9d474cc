package combinator_test

import (
	"errors"
	"testing"

	"github.com/sandrolain/parsekit/pkg/combinator"
	"github.com/sandrolain/parsekit/pkg/types"
)

func TestOptSucceedsWithoutChild(t *testing.T) {
	grammar := combinator.NewAnd(
		combinator.NewWord(combinator.Alphas),
		combinator.NewOpt(combinator.NewLiteral(";")),
	)
	toks := mustParse(t, grammar, "foo")
	expectFlat(t, toks, []any{"foo"})

	toks = mustParse(t, grammar, "foo;")
	expectFlat(t, toks, []any{"foo", ";"})
}

func TestOptDefault(t *testing.T) {
	port := combinator.Named(combinator.NewWord(combinator.Nums), "port")
	grammar := combinator.NewAnd(
		combinator.NewWord(combinator.Alphas),
		combinator.NewOpt(port).Default("8080"),
	)
	toks := mustParse(t, grammar, "localhost")
	expectFlat(t, toks, []any{"localhost", "8080"})
	if v, _ := toks.GetByName("port"); v != "8080" {
		t.Errorf("port = %v, want default 8080", v)
	}
}

func TestZeroOrMoreNeverFails(t *testing.T) {
	star := combinator.NewZeroOrMore(combinator.NewLiteral("x"))
	for _, input := range []string{"", "yyy", "x", "xxx"} {
		t.Run("input "+input, func(t *testing.T) {
			if _, err := combinator.Parse(star, input, false); err != nil {
				t.Errorf("zero-or-more must match at every offset, got %v", err)
			}
		})
	}
}

func TestOneOrMoreRequiresOne(t *testing.T) {
	plus := combinator.NewOneOrMore(combinator.NewWord(combinator.Nums))
	toks := mustParse(t, plus, "1 22 333")
	expectFlat(t, toks, []any{"1", "22", "333"})

	if _, err := combinator.Parse(plus, "abc", true); err == nil {
		t.Error("one-or-more must fail on zero matches")
	}
}

func TestRepeatBounds(t *testing.T) {
	two3 := combinator.NewRepeat(combinator.NewLiteral("x"), 2, 3)
	if _, err := combinator.Parse(two3, "x", true); err == nil {
		t.Error("below minimum must fail")
	}
	toks := mustParse(t, two3, "x x x")
	expectFlat(t, toks, []any{"x", "x", "x"})
	if _, err := combinator.Parse(two3, "x x x x", true); err == nil {
		t.Error("a fourth occurrence must remain unconsumed")
	}
}

func TestRepeatStopOn(t *testing.T) {
	word := combinator.NewWord(combinator.Alphas)
	body := combinator.NewZeroOrMore(word).StopOn(combinator.NewKeyword("end"))
	grammar := combinator.NewAnd(body, combinator.NewKeyword("end"))
	toks := mustParse(t, grammar, "alpha beta end")
	expectFlat(t, toks, []any{"alpha", "beta", "end"})
}

func TestNotAny(t *testing.T) {
	ident := combinator.NewAnd(
		combinator.NewNotAny(combinator.NewKeyword("return")),
		combinator.NewWord(combinator.Alphas),
	)
	toks := mustParse(t, ident, "value")
	expectFlat(t, toks, []any{"value"})

	if _, err := combinator.Parse(ident, "return", true); err == nil {
		t.Error("negative lookahead must reject the excluded keyword")
	}
}

func TestFollowedByConsumesNothing(t *testing.T) {
	grammar := combinator.NewAnd(
		combinator.NewFollowedBy(combinator.NewLiteral("ab")),
		combinator.NewLiteral("a"),
		combinator.NewLiteral("b"),
	)
	toks := mustParse(t, grammar, "ab")
	expectFlat(t, toks, []any{"a", "b"})
}

func TestFollowedByKeepsNames(t *testing.T) {
	ahead := combinator.NewFollowedBy(combinator.Named(combinator.NewWord(combinator.Nums), "digits"))
	grammar := combinator.NewAnd(ahead, combinator.NewWord(combinator.Nums))
	toks := mustParse(t, grammar, "42")
	expectFlat(t, toks, []any{"42"})
	if v, _ := toks.GetByName("digits"); v != "42" {
		t.Errorf("lookahead should preserve named results, got %v", v)
	}
}

func TestPrecededBy(t *testing.T) {
	amount := combinator.NewAnd(
		combinator.NewPrecededBy(combinator.NewLiteral("$"), 0),
		combinator.NewWord(combinator.Nums),
	)
	m := firstMatch(t, amount, "$100")
	expectFlat(t, m.Tokens, []any{"$", "100"})
	if m.Start != 1 || m.End != 4 {
		t.Errorf("match span = (%d,%d), want (1,4)", m.Start, m.End)
	}

	if _, err := combinator.Parse(combinator.NewAnd(combinator.NewPrecededBy(combinator.NewLiteral("$"), 0), combinator.NewWord(combinator.Nums)), "100", true); err == nil {
		t.Error("lookbehind must fail without the preceding text")
	}
}

func TestSkipTo(t *testing.T) {
	semi := combinator.NewLiteral(";")
	skip := combinator.NewSkipTo(semi)
	toks := mustParse(t, combinator.NewAnd(skip, combinator.NewSuppress(semi)), "drop table;")
	expectFlat(t, toks, []any{"drop table"})
}

func TestSkipToInclude(t *testing.T) {
	skip := combinator.NewSkipTo(combinator.NewLiteral(";")).Include()
	toks := mustParse(t, skip, "drop table;")
	expectFlat(t, toks, []any{"drop table", ";"})
}

func TestSkipToFailOn(t *testing.T) {
	newline := combinator.LeaveWhitespace(combinator.NewLiteral("\n"))
	skip := combinator.NewSkipTo(combinator.NewLiteral(";")).FailOn(newline)
	if _, err := combinator.Parse(skip, "drop\ntable;", false); err == nil {
		t.Error("skip must fail when the fail-on expression appears first")
	}
}

func TestSkipToExhaustion(t *testing.T) {
	skip := combinator.NewSkipTo(combinator.NewLiteral(";"))
	if _, err := combinator.Parse(skip, "no terminator here", false); err == nil {
		t.Error("skip must fail when input runs out before the target")
	}
}

func TestForwardRecursion(t *testing.T) {
	expr := combinator.NewForward()
	expr.Bind(combinator.NewMatchFirst(
		combinator.NewAnd(
			combinator.NewSuppress(combinator.NewLiteral("(")),
			combinator.NewGroup(expr),
			combinator.NewSuppress(combinator.NewLiteral(")")),
		),
		combinator.NewWord(combinator.Alphas),
	))
	toks := mustParse(t, expr, "((x))")
	expectFlat(t, toks, []any{[]any{[]any{"x"}}})
}

func TestForwardUnboundIsFatal(t *testing.T) {
	_, err := combinator.Parse(combinator.NewForward(), "x", true)
	if !types.IsFatal(err) {
		t.Fatalf("unbound forward must fail fatally, got %v", err)
	}
}

func TestCombineJoinsContiguousText(t *testing.T) {
	number := combinator.NewCombine(combinator.NewAnd(
		combinator.NewWord(combinator.Nums),
		combinator.NewLiteral("."),
		combinator.NewWord(combinator.Nums),
	))
	toks := mustParse(t, number, "3.14")
	expectFlat(t, toks, []any{"3.14"})
}

func TestCombineRejectsGaps(t *testing.T) {
	number := combinator.NewCombine(combinator.NewAnd(
		combinator.NewWord(combinator.Nums),
		combinator.NewLiteral("."),
		combinator.NewWord(combinator.Nums),
	))
	if _, err := combinator.Parse(number, "3 . 14", true); err == nil {
		t.Error("combine must require contiguous sub-matches")
	}
}

func TestGroupNestsTokens(t *testing.T) {
	word := combinator.NewWord(combinator.Alphas)
	grammar := combinator.NewAnd(word, combinator.NewGroup(combinator.NewOneOrMore(combinator.NewWord(combinator.Nums))))
	toks := mustParse(t, grammar, "vals 1 2 3")
	expectFlat(t, toks, []any{"vals", []any{"1", "2", "3"}})
}

func TestSuppressAlwaysEmpty(t *testing.T) {
	tests := []struct {
		name  string
		child combinator.Expr
		input string
	}{
		{"literal", combinator.NewLiteral("!"), "!"},
		{"named word", combinator.Named(combinator.NewWord(combinator.Alphas), "w"), "hello"},
		{"group", combinator.NewGroup(combinator.NewWord(combinator.Alphas)), "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := mustParse(t, combinator.NewSuppress(tt.child), tt.input)
			if toks.Len() != 0 || toks.HasNames() {
				t.Errorf("suppress must yield an empty result, got %s", toks)
			}
		})
	}
}

func TestDictNamesPairs(t *testing.T) {
	key := combinator.NewWord(combinator.Alphas)
	value := combinator.NewWord(combinator.Nums)
	pair := combinator.NewGroup(combinator.NewAnd(key, combinator.NewSuppress(combinator.NewLiteral(":")), value))
	grammar := combinator.NewDict(combinator.NewOneOrMore(pair))

	toks := mustParse(t, grammar, "width: 800 height: 600")
	if v, _ := toks.GetByName("width"); v != "800" {
		t.Errorf("width = %v, want 800", v)
	}
	if v, _ := toks.GetByName("height"); v != "600" {
		t.Errorf("height = %v, want 600", v)
	}
	if toks.Len() != 2 {
		t.Errorf("dict must keep the plain ordered sequence, got %s", toks)
	}
}

func TestDelimitedList(t *testing.T) {
	word := combinator.NewWord(combinator.Alphas)
	toks := mustParse(t, combinator.DelimitedList(word, nil, false), "red, green, blue")
	expectFlat(t, toks, []any{"red", "green", "blue"})
}

func TestParseActionReplacesTokens(t *testing.T) {
	num := combinator.AddAction(combinator.NewWord(combinator.Nums), func(_ string, _ int, toks *types.Results) (*types.Results, error) {
		return types.NewResults(len(toks.Get(0).(string))), nil
	})
	toks := mustParse(t, num, "12345")
	expectFlat(t, toks, []any{5})
}

func TestParseActionErrorIsFatal(t *testing.T) {
	num := combinator.AddAction(combinator.NewWord(combinator.Nums), func(string, int, *types.Results) (*types.Results, error) {
		return nil, errors.New("value out of range")
	})
	grammar := combinator.NewMatchFirst(num, combinator.NewWord(combinator.AlphaNums))
	_, err := combinator.Parse(grammar, "42", true)
	if !types.IsFatal(err) {
		t.Fatalf("action errors must abort the parse, got %v", err)
	}
}

func TestParseActionMatchErrorBacktracks(t *testing.T) {
	even := combinator.AddAction(combinator.NewWord(combinator.Nums), func(input string, loc int, toks *types.Results) (*types.Results, error) {
		s := toks.Get(0).(string)
		if (s[len(s)-1]-'0')%2 != 0 {
			return nil, types.NewMatchError(input, loc, "expected an even number", "")
		}
		return nil, nil
	})
	grammar := combinator.NewMatchFirst(even, combinator.NewWord(combinator.AlphaNums))
	toks := mustParse(t, grammar, "43")
	expectFlat(t, toks, []any{"43"})
}

func TestIgnoreSkipsComments(t *testing.T) {
	comment := combinator.NewAnd(combinator.NewLiteral("#"), combinator.NewCharsNotIn("\n"))
	word := combinator.NewWord(combinator.Alphas)
	grammar := combinator.Ignore(combinator.NewOneOrMore(word), comment)

	toks := mustParse(t, grammar, "one # noise\ntwo")
	expectFlat(t, toks, []any{"one", "two"})
}
