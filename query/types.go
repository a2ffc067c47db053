package query

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenDistinct
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenAs
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenWith
	TokenJoin
	TokenInner
	TokenLeft
	TokenRight
	TokenFull
	TokenOuter
	TokenOn
	TokenOver
	TokenPartition
	TokenContains
	TokenLike
	TokenIn
	TokenIs
	TokenNull

	// Operators
	TokenEqual        // =
	TokenNotEqual     // != or <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /

	// Literals
	TokenString
	TokenNumber
	TokenIdent
	TokenBool

	// Delimiters
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )
	TokenSemicolon  // ;

	// Special
	TokenEOF
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenGreater:      ">",
	TokenLessEqual:    "<=",
	TokenGreaterEqual: ">=",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenContains:     "CONTAINS",
	TokenLike:         "LIKE",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenIdent:        "identifier",
	TokenBool:         "boolean",
	TokenComma:        ",",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenEOF:          "end of query",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for word, typ := range keywords {
		if typ == t {
			return strings.ToUpper(word)
		}
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a lexical token. Pos is the byte offset of the token in
// the query string.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Direction is the sort direction of an ORDER BY item.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Expr is a node of the expression tree. Expressions are evaluated by the
// Evaluator; String renders the canonical text used as the key of computed
// temporaries (aggregates) and as the default output name.
type Expr interface {
	String() string
}

// Literal is a constant value: nil, bool, float64, int64 or string.
type Literal struct {
	Value interface{}
}

// ColumnRef references a column, qualified ("friends.city") or not ("city").
// Name "*" stands for every column.
type ColumnRef struct {
	Name string
}

// FunctionCall invokes a registered function (or an aggregate while grouping).
type FunctionCall struct {
	Name string
	Args []Expr
}

// BinaryOp applies an arithmetic, comparison or logical operator.
type BinaryOp struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

// UnaryOp applies NOT or numeric negation.
type UnaryOp struct {
	Op      TokenType // TokenNot or TokenMinus
	Operand Expr
}

// InList matches an operand against a literal list.
type InList struct {
	Operand Expr
	Values  []Expr
	Negate  bool
}

// IsNull tests an operand for Null.
type IsNull struct {
	Operand Expr
	Negate  bool
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr      Expr
	Direction Direction
}

// WindowCall is a ranking function with an OVER clause. It may only appear
// as a top-level select item.
type WindowCall struct {
	Function    string // ROW_NUMBER, RANK, DENSE_RANK
	PartitionBy []*ColumnRef
	OrderBy     []OrderItem
}

// SelectItem is one entry of the select list.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// JoinKind is the type of a JOIN.
type JoinKind int

const (
	JoinInner JoinKind = iota // INNER JOIN (default)
	JoinLeft                  // LEFT [OUTER] JOIN
	JoinRight                 // RIGHT [OUTER] JOIN
	JoinFull                  // FULL [OUTER] JOIN
)

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "INNER"
	}
}

// JoinSpec is one JOIN of the FROM clause.
type JoinSpec struct {
	Kind      JoinKind
	TablePath string
	Alias     string
	LeftKey   *ColumnRef
	RightKey  *ColumnRef
}

// Qualifier returns the name used to qualify the joined table's columns.
func (j JoinSpec) Qualifier() string {
	return qualifierFor(j.TablePath, j.Alias)
}

// Hint is an output directive from the WITH (...) suffix.
type Hint string

const (
	HintHeaderColumnUpperCase Hint = "HEADERCOLUMNUPPERCASE"
	HintOutputJSON            Hint = "OUTPUTJSON"
	HintPaginate              Hint = "PAGINATE"
)

// HintSet is the set of recognised hints of a query.
type HintSet map[Hint]bool

// Has reports whether the hint is present.
func (h HintSet) Has(hint Hint) bool {
	return h[hint]
}

// Plan is the parsed form of a query. A Plan is immutable once built.
type Plan struct {
	Select    []SelectItem
	BaseTable string
	BaseAlias string
	Joins     []JoinSpec
	Where     Expr
	GroupBy   []*ColumnRef
	Having    Expr
	OrderBy   []OrderItem
	Limit     *int64
	Offset    int64
	Distinct  bool
	Hints     HintSet
}

// BaseQualifier returns the name used to qualify the base table's columns.
func (p *Plan) BaseQualifier() string {
	return qualifierFor(p.BaseTable, p.BaseAlias)
}

// qualifierFor returns the alias, or the last segment of the table path.
func qualifierFor(path, alias string) string {
	if alias != "" {
		return alias
	}
	return lastSegment(path)
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// OutputName returns the column name a select item is projected under.
func (s SelectItem) OutputName() string {
	if s.Alias != "" {
		return s.Alias
	}
	if col, ok := s.Expr.(*ColumnRef); ok {
		return lastSegment(col.Name)
	}
	return s.Expr.String()
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "\\'") + "'"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *ColumnRef) String() string { return c.Name }

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	return strings.ToLower(f.Name) + "(" + strings.Join(args, ", ") + ")"
}

func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

func (u *UnaryOp) String() string {
	if u.Op == TokenNot {
		return "NOT " + u.Operand.String()
	}
	return "-" + u.Operand.String()
}

func (i *InList) String() string {
	values := make([]string, len(i.Values))
	for n, v := range i.Values {
		values[n] = v.String()
	}
	op := " IN ("
	if i.Negate {
		op = " NOT IN ("
	}
	return i.Operand.String() + op + strings.Join(values, ", ") + ")"
}

func (i *IsNull) String() string {
	if i.Negate {
		return i.Operand.String() + " IS NOT NULL"
	}
	return i.Operand.String() + " IS NULL"
}

func (w *WindowCall) String() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(w.Function))
	b.WriteString("() over (")
	if len(w.PartitionBy) > 0 {
		b.WriteString("partition by ")
		for i, col := range w.PartitionBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col.Name)
		}
	}
	if len(w.OrderBy) > 0 {
		if len(w.PartitionBy) > 0 {
			b.WriteString(" ")
		}
		b.WriteString("order by ")
		for i, item := range w.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(item.Expr.String() + " " + item.Direction.String())
		}
	}
	b.WriteString(")")
	return b.String()
}
