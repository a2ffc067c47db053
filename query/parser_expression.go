package query

import (
	"strconv"
	"strings"
)

// windowFunctions are the ranking functions accepted before OVER.
var windowFunctions = map[string]bool{
	"ROW_NUMBER": true,
	"RANK":       true,
	"DENSE_RANK": true,
}

// parseExpression parses a full expression.
//
// Precedence, loosest first: OR, AND, NOT, comparison (=, !=, <, >, <=, >=,
// CONTAINS, LIKE, IN, IS NULL), additive (+, -), multiplicative (*, /),
// unary minus, primary.
func (p *Parser) parseExpression() (Expr, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	return p.parseOr()
}

// parseOr parses OR expressions
func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: TokenOr, Left: left, Right: right}
	}

	return left, nil
}

// parseAnd parses AND expressions
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: TokenAnd, Left: left, Right: right}
	}

	return left, nil
}

// parseNot parses a NOT prefix
func (p *Parser) parseNot() (Expr, error) {
	if p.current().Type != TokenNot {
		return p.parseComparison()
	}
	p.advance()

	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{Op: TokenNot, Operand: operand}, nil
}

func isComparison(t TokenType) bool {
	switch t {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater,
		TokenLessEqual, TokenGreaterEqual, TokenContains, TokenLike:
		return true
	}
	return false
}

// parseComparison parses a comparison, IN list or IS [NOT] NULL test.
func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	tok := p.current()
	switch {
	case isComparison(tok.Type):
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: tok.Type, Left: left, Right: right}, nil

	case tok.Type == TokenIn:
		p.advance()
		return p.parseInList(left, false)

	case tok.Type == TokenNot:
		// "x NOT IN (...)", "x NOT LIKE p", "x NOT CONTAINS s"
		switch p.peek().Type {
		case TokenIn:
			p.advance()
			p.advance()
			return p.parseInList(left, true)
		case TokenLike, TokenContains:
			op := p.peek().Type
			p.advance()
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &UnaryOp{Op: TokenNot, Operand: &BinaryOp{Op: op, Left: left, Right: right}}, nil
		}

	case tok.Type == TokenIs:
		p.advance()
		negate := false
		if p.current().Type == TokenNot {
			negate = true
			p.advance()
		}
		if err := p.expect(TokenNull); err != nil {
			return nil, err
		}
		return &IsNull{Operand: left, Negate: negate}, nil
	}

	return left, nil
}

// parseInList parses "(v1, v2, ...)" after IN.
func (p *Parser) parseInList(operand Expr, negate bool) (Expr, error) {
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	list := &InList{Operand: operand, Negate: negate}
	for p.current().Type != TokenRightParen {
		value, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, value)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		if p.current().Type != TokenRightParen {
			return nil, p.errorf("expected ',' or ')' in IN list, got %s", describe(p.current()))
		}
	}
	p.advance()

	if len(list.Values) == 0 {
		return nil, p.errorf("IN list cannot be empty")
	}
	return list, nil
}

// parseAdditive parses + and -
func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		op := p.current().Type
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseMultiplicative parses * and /
func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenStar || p.current().Type == TokenSlash {
		op := p.current().Type
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parseUnary parses a leading minus. Negative numeric literals fold into a
// single Literal.
func (p *Parser) parseUnary() (Expr, error) {
	if p.current().Type != TokenMinus {
		return p.parsePrimary()
	}
	p.advance()

	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if lit, ok := operand.(*Literal); ok {
		switch v := lit.Value.(type) {
		case int64:
			return &Literal{Value: -v}, nil
		case float64:
			return &Literal{Value: -v}, nil
		}
	}
	return &UnaryOp{Op: TokenMinus, Operand: operand}, nil
}

// parsePrimary parses literals, column references, function calls, window
// calls and parenthesised expressions.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return numberLiteral(tok.Value), nil

	case TokenString:
		p.advance()
		return &Literal{Value: tok.Value}, nil

	case TokenBool:
		p.advance()
		return &Literal{Value: strings.EqualFold(tok.Value, "true")}, nil

	case TokenNull:
		p.advance()
		return &Literal{Value: nil}, nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenIdent:
		p.advance()
		if p.current().Type != TokenLeftParen {
			return &ColumnRef{Name: tok.Value}, nil
		}
		name := strings.ToUpper(tok.Value)
		if windowFunctions[name] && p.peek().Type == TokenRightParen {
			p.advance()
			p.advance()
			if p.current().Type == TokenOver {
				return p.parseWindow(name)
			}
			return p.checkArity(&FunctionCall{Name: name})
		}
		return p.parseFunctionCall(name)

	case TokenEOF:
		return nil, p.errorf("unexpected end of query")
	}

	return nil, p.errorf("unexpected %s", describe(tok))
}

func numberLiteral(text string) *Literal {
	if !strings.Contains(text, ".") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return &Literal{Value: n}
		}
	}
	f, _ := strconv.ParseFloat(text, 64)
	return &Literal{Value: f}
}

// parseFunctionCall parses the argument list of name(...). The current
// token is the opening parenthesis.
func (p *Parser) parseFunctionCall(name string) (Expr, error) {
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	call := &FunctionCall{Name: name}
	for p.current().Type != TokenRightParen {
		var arg Expr
		next := p.peek().Type
		if p.current().Type == TokenStar && (next == TokenRightParen || next == TokenComma) {
			p.advance()
			arg = &ColumnRef{Name: "*"}
		} else {
			var err error
			arg, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		call.Args = append(call.Args, arg)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		if p.current().Type != TokenRightParen {
			return nil, p.errorf("expected ',' or ')' in arguments of %s, got %s", name, describe(p.current()))
		}
	}
	p.advance()

	return p.checkArity(call)
}

// checkArity validates the argument count of a registered function. Unknown
// names pass; they are reported when evaluated.
func (p *Parser) checkArity(call *FunctionCall) (Expr, error) {
	fn, ok := p.registry.Get(call.Name)
	if !ok {
		return call, nil
	}
	n := len(call.Args)
	if n < fn.MinArity() || (fn.MaxArity() >= 0 && n > fn.MaxArity()) {
		return nil, p.errorf("%s expects %s, got %d", call.Name, arityText(fn), n)
	}
	return call, nil
}

func arityText(fn Function) string {
	min, max := fn.MinArity(), fn.MaxArity()
	switch {
	case max < 0:
		return "at least " + strconv.Itoa(min) + " argument(s)"
	case min == max:
		return strconv.Itoa(min) + " argument(s)"
	default:
		return strconv.Itoa(min) + " to " + strconv.Itoa(max) + " arguments"
	}
}

// parseWindow parses: OVER ([PARTITION BY col, ...] [ORDER BY item, ...])
func (p *Parser) parseWindow(name string) (Expr, error) {
	if err := p.expect(TokenOver); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	window := &WindowCall{Function: name}

	if p.current().Type == TokenPartition {
		p.advance()
		if err := p.expect(TokenBy); err != nil {
			return nil, err
		}
		for {
			col, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			window.PartitionBy = append(window.PartitionBy, col)
			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if p.current().Type == TokenOrder {
		p.advance()
		if err := p.expect(TokenBy); err != nil {
			return nil, err
		}
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		window.OrderBy = items
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return window, nil
}

// containsWindow reports whether expr has a WindowCall anywhere in its tree.
func containsWindow(expr Expr) bool {
	found := false
	walkExpr(expr, func(e Expr) {
		if _, ok := e.(*WindowCall); ok {
			found = true
		}
	})
	return found
}

// walkExpr calls fn for expr and each of its descendants, parents first.
func walkExpr(expr Expr, fn func(Expr)) {
	if expr == nil {
		return
	}
	fn(expr)
	switch e := expr.(type) {
	case *FunctionCall:
		for _, arg := range e.Args {
			walkExpr(arg, fn)
		}
	case *BinaryOp:
		walkExpr(e.Left, fn)
		walkExpr(e.Right, fn)
	case *UnaryOp:
		walkExpr(e.Operand, fn)
	case *InList:
		walkExpr(e.Operand, fn)
		for _, v := range e.Values {
			walkExpr(v, fn)
		}
	case *IsNull:
		walkExpr(e.Operand, fn)
	}
}
