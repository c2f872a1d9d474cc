package combinator_test

import (
	"strconv"
	"testing"

	"github.com/sandrolain/parsekit/pkg/combinator"
	"github.com/sandrolain/parsekit/pkg/types"
)

func intOperand() combinator.Expr {
	return combinator.AddAction(combinator.NewWord(combinator.Nums), func(_ string, _ int, toks *types.Results) (*types.Results, error) {
		n, err := strconv.Atoi(toks.Get(0).(string))
		if err != nil {
			return nil, err
		}
		return types.NewResults(n), nil
	})
}

func arith(t *testing.T) combinator.Expr {
	t.Helper()
	grammar, err := combinator.InfixNotation(intOperand(), []combinator.Level{
		{Op: combinator.NewLiteral("*"), Arity: 2, Assoc: combinator.AssocLeft},
		{Op: combinator.NewLiteral("+"), Arity: 2, Assoc: combinator.AssocLeft},
	})
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	return grammar
}

func TestInfixPrecedence(t *testing.T) {
	toks := mustParse(t, arith(t), "1+2*3")
	expectFlat(t, toks, []any{[]any{1, "+", []any{2, "*", 3}}})
}

func TestInfixLeftAssociativity(t *testing.T) {
	toks := mustParse(t, arith(t), "1+2+3")
	expectFlat(t, toks, []any{[]any{1, "+", 2, "+", 3}})
}

func TestInfixBareOperandIsNotWrapped(t *testing.T) {
	toks := mustParse(t, arith(t), "7")
	expectFlat(t, toks, []any{7})
}

func TestInfixParenthesesOverridePrecedence(t *testing.T) {
	toks := mustParse(t, arith(t), "(1+2)*3")
	expectFlat(t, toks, []any{[]any{[]any{1, "+", 2}, "*", 3}})
}

func TestInfixRightAssociativity(t *testing.T) {
	grammar, err := combinator.InfixNotation(combinator.NewWord(combinator.Nums), []combinator.Level{
		{Op: combinator.NewLiteral("^"), Arity: 2, Assoc: combinator.AssocRight},
	})
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	toks := mustParse(t, grammar, "2^3^2")
	expectFlat(t, toks, []any{[]any{"2", "^", []any{"3", "^", "2"}}})
}

func TestInfixPrefixUnary(t *testing.T) {
	grammar, err := combinator.InfixNotation(combinator.NewWord(combinator.Nums), []combinator.Level{
		{Op: combinator.NewLiteral("-"), Arity: 1, Assoc: combinator.AssocRight},
	})
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	toks := mustParse(t, grammar, "--5")
	expectFlat(t, toks, []any{[]any{"-", "-", "5"}})
}

func TestInfixPostfixUnary(t *testing.T) {
	grammar, err := combinator.InfixNotation(combinator.NewWord(combinator.Nums), []combinator.Level{
		{Op: combinator.NewLiteral("!"), Arity: 1, Assoc: combinator.AssocLeft},
	})
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	toks := mustParse(t, grammar, "5!")
	expectFlat(t, toks, []any{[]any{"5", "!"}})
}

func TestInfixTernary(t *testing.T) {
	grammar, err := combinator.InfixNotation(combinator.NewWord(combinator.Alphas), []combinator.Level{
		{Op: combinator.NewLiteral("?"), Op2: combinator.NewLiteral(":"), Arity: 3, Assoc: combinator.AssocRight},
	})
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	toks := mustParse(t, grammar, "cond ? yes : no")
	expectFlat(t, toks, []any{[]any{"cond", "?", "yes", ":", "no"}})
}

func TestInfixLevelActionRunsOnMatch(t *testing.T) {
	var seen []any
	grammar, err := combinator.InfixNotation(intOperand(), []combinator.Level{
		{
			Op:    combinator.NewLiteral("+"),
			Arity: 2,
			Assoc: combinator.AssocLeft,
			Action: func(_ string, _ int, toks *types.Results) (*types.Results, error) {
				seen = toks.Flatten()
				return nil, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	mustParse(t, grammar, "1+2")
	if len(seen) == 0 {
		t.Error("level action should observe the matched term")
	}
}

func TestInfixRejectsBadLevels(t *testing.T) {
	operand := combinator.NewWord(combinator.Nums)
	if _, err := combinator.InfixNotation(operand, []combinator.Level{{Arity: 2}}); err == nil {
		t.Error("a level without an operator must be rejected")
	}
	if _, err := combinator.InfixNotation(operand, []combinator.Level{{Op: combinator.NewLiteral("+"), Arity: 4}}); err == nil {
		t.Error("an unsupported arity must be rejected")
	}
	if _, err := combinator.InfixNotation(operand, []combinator.Level{{Op: combinator.NewLiteral("?"), Arity: 3}}); err == nil {
		t.Error("a ternary level without a second operator must be rejected")
	}
}
