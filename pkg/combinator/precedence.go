package combinator

import "fmt"

// Assoc selects operator associativity in an InfixNotation level.
type Assoc int

const (
	// AssocLeft groups "a op b op c" as "(a op b) op c"; for unary
	// operators it means postfix placement.
	AssocLeft Assoc = iota
	// AssocRight groups "a op b op c" as "a op (b op c)"; for unary
	// operators it means prefix placement.
	AssocRight
)

// Level describes one precedence level of an infix expression grammar.
// Levels are listed tightest-binding first; precedence is encoded purely
// by list order.
type Level struct {
	// Op is the operator expression. For Arity 3 it is the first of the
	// two paired operator tokens and Op2 the second.
	Op  Expr
	Op2 Expr
	// Arity is 1 (unary), 2 (binary) or 3 (ternary).
	Arity int
	// Assoc selects grouping direction (and prefix/postfix placement
	// for unary operators).
	Assoc Assoc
	// Action, when non-nil, is attached to the level's match.
	Action Action
}

// InfixNotation builds an expression grammar over operand from an ordered
// precedence table. Each level recognizes one-or-more repetitions of its
// operator pattern over the next-tighter level and wraps every actual
// operator match as one nested sub-result; when a level's operator is
// absent, matching falls through to the tighter level without extra
// wrapping. Parenthesized sub-expressions recurse into the whole grammar.
//
// The returned element is a Forward bound to the loosest level.
func InfixNotation(operand Expr, levels []Level) (Expr, error) {
	ret := NewForward()
	lpar := NewSuppress(NewLiteral("("))
	rpar := NewSuppress(NewLiteral(")"))
	lastExpr := Expr(NewMatchFirst(operand, NewAnd(lpar, ret, rpar)))

	for i, lvl := range levels {
		if lvl.Op == nil {
			return nil, fmt.Errorf("combinator: infix level %d has no operator expression", i)
		}
		var matchExpr Expr
		thisExpr := NewForward()
		switch {
		case lvl.Arity == 1 && lvl.Assoc == AssocLeft:
			// Postfix: operand followed by one or more operators.
			matchExpr = NewAnd(
				NewFollowedBy(NewAnd(lastExpr, lvl.Op)),
				NewGroup(NewAnd(lastExpr, NewOneOrMore(lvl.Op))),
			)
		case lvl.Arity == 1 && lvl.Assoc == AssocRight:
			// Prefix: one or more operators followed by this level.
			matchExpr = NewAnd(
				NewFollowedBy(NewAnd(lvl.Op, thisExpr)),
				NewGroup(NewAnd(NewOneOrMore(lvl.Op), thisExpr)),
			)
		case lvl.Arity == 2 && lvl.Assoc == AssocLeft:
			matchExpr = NewAnd(
				NewFollowedBy(NewAnd(lastExpr, lvl.Op, lastExpr)),
				NewGroup(NewAnd(lastExpr, NewOneOrMore(NewAnd(lvl.Op, lastExpr)))),
			)
		case lvl.Arity == 2 && lvl.Assoc == AssocRight:
			matchExpr = NewAnd(
				NewFollowedBy(NewAnd(lastExpr, lvl.Op, thisExpr)),
				NewGroup(NewAnd(lastExpr, NewOneOrMore(NewAnd(lvl.Op, thisExpr)))),
			)
		case lvl.Arity == 3:
			if lvl.Op2 == nil {
				return nil, fmt.Errorf("combinator: infix level %d is ternary but has no second operator", i)
			}
			inner := lastExpr
			if lvl.Assoc == AssocRight {
				inner = thisExpr
			}
			matchExpr = NewAnd(
				NewFollowedBy(NewAnd(lastExpr, lvl.Op, lastExpr, lvl.Op2, lastExpr)),
				NewGroup(NewAnd(lastExpr, NewOneOrMore(NewAnd(lvl.Op, inner, lvl.Op2, inner)))),
			)
		default:
			return nil, fmt.Errorf("combinator: infix level %d has unsupported arity %d", i, lvl.Arity)
		}
		if lvl.Action != nil {
			AddAction(matchExpr, lvl.Action)
		}
		termName := lvl.Op.String() + " term"
		if lvl.Arity == 3 {
			termName = lvl.Op.String() + " " + lvl.Op2.String() + " term"
		}
		thisExpr.Bind(SetName(NewMatchFirst(matchExpr, lastExpr), termName))
		lastExpr = thisExpr
	}
	ret.Bind(lastExpr)
	return ret, nil
}
