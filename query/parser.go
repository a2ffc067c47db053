package query

import (
	"sort"
	"strconv"
	"strings"
)

// Parser builds a Plan from a token stream
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *ExpressionDepthCounter
	registry     *Registry

	text         string
	clauseStarts []int // sorted byte offsets of top-level clauses
	clauseStart  int   // offset of the clause being parsed
}

// NewParser creates a new parser over tokens of text.
func NewParser(tokens []Token, text string, registry *Registry) *Parser {
	if registry == nil {
		registry = builtinRegistry
	}
	return &Parser{
		tokens:       tokens,
		depthCounter: NewExpressionDepthCounter(),
		registry:     registry,
		text:         text,
	}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.text)}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.text)}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return p.errorf("expected %v, got %s", tokType, describe(p.current()))
	}
	p.advance()
	return nil
}

// enterClause marks the clause starting at the current token.
func (p *Parser) enterClause() {
	p.clauseStart = p.current().Pos
}

// clauseText returns the text of the clause being parsed.
func (p *Parser) clauseText() string {
	end := len(p.text)
	for _, start := range p.clauseStarts {
		if start > p.clauseStart {
			end = start
			break
		}
	}
	if p.clauseStart > end {
		return ""
	}
	return strings.TrimSpace(p.text[p.clauseStart:end])
}

func (p *Parser) errorf(format string, args ...interface{}) *QueryError {
	return malformed(p.clauseText(), format, args...)
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of query"
	case TokenString:
		return "'" + tok.Value + "'"
	default:
		return strconv.Quote(tok.Value)
	}
}

// Parse parses a query using the default function registry.
func Parse(query string) (*Plan, error) {
	return ParseWith(query, builtinRegistry)
}

// ParseWith parses a query, resolving function names and arities against
// registry. The trailing ";" and the "WITH (...)" hint suffix are removed
// before the clauses are parsed.
func ParseWith(query string, registry *Registry) (*Plan, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(query)
	for strings.HasSuffix(text, ";") {
		text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	}
	if text == "" {
		return nil, malformed("", "empty query")
	}

	clauses, err := LocateClauses(text)
	if err != nil {
		return nil, err
	}

	text, hints, err := extractHints(text, clauses)
	if err != nil {
		return nil, err
	}
	delete(clauses, ClauseWith)

	selectPos, hasSelect := clauses[ClauseSelect]
	if !hasSelect {
		return nil, malformed(text, "missing SELECT clause")
	}
	fromPos, hasFrom := clauses[ClauseFrom]
	if !hasFrom {
		return nil, malformed(text, "missing FROM clause")
	}
	if fromPos < selectPos {
		return nil, malformed(text, "FROM clause before SELECT clause")
	}

	tokens := Tokenize(text)
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}

	parser := NewParser(tokens, text, registry)
	for _, pos := range clauses {
		parser.clauseStarts = append(parser.clauseStarts, pos)
	}
	sort.Ints(parser.clauseStarts)

	plan, err := parser.parseQuery()
	if err != nil {
		return nil, err
	}

	if tok := parser.current(); tok.Type != TokenEOF {
		parser.clauseStart = tok.Pos
		return nil, parser.errorf("unexpected %s", describe(tok))
	}

	plan.Hints = hints
	return plan, nil
}

// parseQuery parses: SELECT [DISTINCT] items FROM base [joins] [WHERE pred]
// [GROUP BY cols] [HAVING pred] [ORDER BY items] [LIMIT n] [OFFSET n]
func (p *Parser) parseQuery() (*Plan, error) {
	p.enterClause()
	if err := p.expect(TokenSelect); err != nil {
		return nil, err
	}

	plan := &Plan{Hints: make(HintSet)}

	if p.current().Type == TokenDistinct {
		plan.Distinct = true
		p.advance()
	}

	selectList, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	plan.Select = selectList

	p.enterClause()
	if err := p.expect(TokenFrom); err != nil {
		return nil, err
	}

	plan.BaseTable, plan.BaseAlias, err = p.parseTableRef()
	if err != nil {
		return nil, err
	}

	for isJoinStart(p.current().Type) {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		plan.Joins = append(plan.Joins, join)
	}

	if p.current().Type == TokenWhere {
		p.enterClause()
		p.advance()
		plan.Where, err = p.parsePredicate()
		if err != nil {
			return nil, err
		}
	}

	if p.current().Type == TokenGroup {
		p.enterClause()
		plan.GroupBy, err = p.parseGroupBy()
		if err != nil {
			return nil, err
		}
	}

	if p.current().Type == TokenHaving {
		p.enterClause()
		if len(plan.GroupBy) == 0 && !HasAggregate(plan.Select) {
			return nil, p.errorf("HAVING clause requires GROUP BY or an aggregate select list")
		}
		p.advance()
		plan.Having, err = p.parsePredicate()
		if err != nil {
			return nil, err
		}
	}

	if p.current().Type == TokenOrder {
		p.enterClause()
		plan.OrderBy, err = p.parseOrderBy()
		if err != nil {
			return nil, err
		}
	}

	for p.current().Type == TokenLimit || p.current().Type == TokenOffset {
		p.enterClause()
		isLimit := p.current().Type == TokenLimit
		p.advance()
		n, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		if isLimit {
			if plan.Limit != nil {
				return nil, p.errorf("duplicate LIMIT clause")
			}
			plan.Limit = &n
		} else {
			plan.Offset = n
		}
	}

	return plan, nil
}

// parseSelectList parses the SELECT list (columns, expressions, aliases)
func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	return items, nil
}

// parseSelectItem parses a single SELECT item with optional alias
func (p *Parser) parseSelectItem() (SelectItem, error) {
	var item SelectItem

	if p.current().Type == TokenStar {
		p.advance()
		item.Expr = &ColumnRef{Name: "*"}
		return item, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return item, err
	}
	if _, top := expr.(*WindowCall); !top && containsWindow(expr) {
		return item, p.errorf("window functions may only appear as a top-level select item")
	}
	item.Expr = expr

	switch p.current().Type {
	case TokenAs:
		p.advance()
		if p.current().Type != TokenIdent && p.current().Type != TokenString {
			return item, p.errorf("expected alias name after AS, got %s", describe(p.current()))
		}
		item.Alias = p.current().Value
		p.advance()
	case TokenIdent:
		// Implicit alias: "SELECT age years FROM ..."
		item.Alias = p.current().Value
		p.advance()
	}

	return item, nil
}

// parseTableRef parses a table path with an optional alias
func (p *Parser) parseTableRef() (string, string, error) {
	tok := p.current()
	if tok.Type != TokenIdent && tok.Type != TokenString {
		return "", "", p.errorf("expected table name, got %s", describe(tok))
	}
	if tok.Value == "" {
		return "", "", p.errorf("table name cannot be empty")
	}
	p.advance()

	alias := ""
	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return "", "", p.errorf("expected alias after AS, got %s", describe(p.current()))
		}
	}
	if p.current().Type == TokenIdent {
		alias = p.current().Value
		p.advance()
	}

	return tok.Value, alias, nil
}

func isJoinStart(t TokenType) bool {
	switch t {
	case TokenJoin, TokenInner, TokenLeft, TokenRight, TokenFull:
		return true
	}
	return false
}

// parseJoin parses: [INNER | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER]]
// JOIN path [alias] ON left = right
func (p *Parser) parseJoin() (JoinSpec, error) {
	p.clauseStart = p.current().Pos
	var join JoinSpec

	switch p.current().Type {
	case TokenJoin:
		join.Kind = JoinInner
	case TokenInner:
		join.Kind = JoinInner
		p.advance()
	case TokenLeft, TokenRight, TokenFull:
		switch p.current().Type {
		case TokenLeft:
			join.Kind = JoinLeft
		case TokenRight:
			join.Kind = JoinRight
		default:
			join.Kind = JoinFull
		}
		p.advance()
		if p.current().Type == TokenOuter {
			p.advance()
		}
	}
	if err := p.expect(TokenJoin); err != nil {
		return join, err
	}

	var err error
	join.TablePath, join.Alias, err = p.parseTableRef()
	if err != nil {
		return join, err
	}

	if p.current().Type != TokenOn {
		return join, p.errorf("missing ON condition for JOIN %s", join.TablePath)
	}
	p.advance()

	parens := 0
	for p.current().Type == TokenLeftParen {
		parens++
		p.advance()
	}

	left, err := p.parseColumnRef()
	if err != nil {
		return join, err
	}
	if p.current().Type != TokenEqual {
		return join, p.errorf("JOIN condition must be an equality, got %s", describe(p.current()))
	}
	p.advance()
	right, err := p.parseColumnRef()
	if err != nil {
		return join, err
	}

	for ; parens > 0; parens-- {
		if err := p.expect(TokenRightParen); err != nil {
			return join, err
		}
	}

	// Normalise "ON joined.key = accumulated.key" so LeftKey always refers
	// to the accumulated side.
	prefix := join.Qualifier() + "."
	if strings.HasPrefix(left.Name, prefix) && !strings.HasPrefix(right.Name, prefix) {
		left, right = right, left
	}
	join.LeftKey = left
	join.RightKey = right

	return join, nil
}

// parseColumnRef parses a single (possibly qualified) column name
func (p *Parser) parseColumnRef() (*ColumnRef, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return nil, p.errorf("expected column name, got %s", describe(tok))
	}
	p.advance()
	return &ColumnRef{Name: tok.Value}, nil
}

// parseGroupBy parses GROUP BY col1, col2, ...
func (p *Parser) parseGroupBy() ([]*ColumnRef, error) {
	if err := p.expect(TokenGroup); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBy); err != nil {
		return nil, err
	}

	var columns []*ColumnRef
	for {
		col, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}

	return columns, nil
}

// parseOrderBy parses ORDER BY expr [ASC|DESC], ...
func (p *Parser) parseOrderBy() ([]OrderItem, error) {
	if err := p.expect(TokenOrder); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBy); err != nil {
		return nil, err
	}
	return p.parseOrderItems()
}

func (p *Parser) parseOrderItems() ([]OrderItem, error) {
	var items []OrderItem
	for {
		expr, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if containsWindow(expr) {
			return nil, p.errorf("window functions are not allowed in ORDER BY")
		}

		item := OrderItem{Expr: expr, Direction: Asc}
		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			item.Direction = Desc
			p.advance()
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	return items, nil
}

// parseCount parses the non-negative integer of LIMIT or OFFSET
func (p *Parser) parseCount() (int64, error) {
	tok := p.current()
	if tok.Type != TokenNumber {
		return 0, p.errorf("expected a non-negative integer, got %s", describe(tok))
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return 0, p.errorf("invalid integer %q", tok.Value)
	}
	p.advance()
	return n, nil
}

// parsePredicate parses a WHERE or HAVING condition.
func (p *Parser) parsePredicate() (Expr, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if containsWindow(expr) {
		return nil, p.errorf("window functions are not allowed in predicates")
	}
	if bare := bareOperand(expr); bare != nil {
		return nil, p.errorf("condition %s is missing a comparison operator", bare)
	}
	return expr, nil
}

// bareOperand returns the first operand of a condition that is combined by
// AND, OR or NOT without being compared to anything. Comparisons, IN and
// IS NULL tests, function calls and boolean literals are conditions.
func bareOperand(expr Expr) Expr {
	switch e := expr.(type) {
	case *BinaryOp:
		switch {
		case e.Op == TokenAnd || e.Op == TokenOr:
			if bare := bareOperand(e.Left); bare != nil {
				return bare
			}
			return bareOperand(e.Right)
		case isComparison(e.Op):
			return nil
		}
	case *UnaryOp:
		if e.Op == TokenNot {
			return bareOperand(e.Operand)
		}
	case *InList, *IsNull, *FunctionCall:
		return nil
	case *Literal:
		if _, ok := e.Value.(bool); ok {
			return nil
		}
	}
	return expr
}
