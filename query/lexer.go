package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes SQL query strings
type Lexer struct {
	input string
	pos   int // offset of the next character
	start int // offset of ch
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar decodes the next UTF-8 character
func (l *Lexer) readChar() {
	l.start = l.pos
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	ch, width := utf8.DecodeRuneInString(l.input[l.pos:])
	l.ch = ch
	l.pos += width
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return ch
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted string. The second result is false when the
// closing quote is missing.
func (l *Lexer) readString(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case 0:
				return result.String(), false
			default:
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}

	if l.ch != quote {
		return result.String(), false
	}
	l.readChar() // skip closing quote
	return result.String(), true
}

// readNumber reads an unsigned decimal number. Signs are operators.
func (l *Lexer) readNumber() string {
	var result strings.Builder
	seenDot := false
	for unicode.IsDigit(l.ch) || (l.ch == '.' && !seenDot && unicode.IsDigit(l.peekChar())) {
		if l.ch == '.' {
			seenDot = true
		}
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads an identifier or keyword. Dots join the segments of
// qualified names and table paths ("json.friends", "$.data.users").
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for isIdentChar(l.ch) {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_' || ch == '$'
}

func isIdentChar(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch) || ch == '.'
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.start
	var tok Token

	switch l.ch {
	case 0:
		tok = Token{Type: TokenEOF, Value: ""}
	case '=':
		tok = Token{Type: TokenEqual, Value: "="}
		l.readChar()
		if l.ch == '=' {
			l.readChar()
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "!="}
			l.readChar()
		} else {
			tok = Token{Type: TokenError, Value: "!"}
			l.readChar()
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: TokenLessEqual, Value: "<="}
		case '>':
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "<>"}
		default:
			tok = Token{Type: TokenLess, Value: "<"}
		}
		l.readChar()
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGreaterEqual, Value: ">="}
		} else {
			tok = Token{Type: TokenGreater, Value: ">"}
		}
		l.readChar()
	case '\'', '"', '`':
		quote := l.ch
		value, closed := l.readString(quote)
		if !closed {
			tok = Token{Type: TokenError, Value: "unterminated string"}
		} else if quote == '`' {
			tok = Token{Type: TokenIdent, Value: value}
		} else {
			tok = Token{Type: TokenString, Value: value}
		}
	case '+':
		tok = Token{Type: TokenPlus, Value: "+"}
		l.readChar()
	case '-':
		tok = Token{Type: TokenMinus, Value: "-"}
		l.readChar()
	case '*':
		tok = Token{Type: TokenStar, Value: "*"}
		l.readChar()
	case '/':
		tok = Token{Type: TokenSlash, Value: "/"}
		l.readChar()
	case ',':
		tok = Token{Type: TokenComma, Value: ","}
		l.readChar()
	case '(':
		tok = Token{Type: TokenLeftParen, Value: "("}
		l.readChar()
	case ')':
		tok = Token{Type: TokenRightParen, Value: ")"}
		l.readChar()
	case ';':
		tok = Token{Type: TokenSemicolon, Value: ";"}
		l.readChar()
	default:
		if unicode.IsDigit(l.ch) || (l.ch == '.' && unicode.IsDigit(l.peekChar())) {
			tok = Token{Type: TokenNumber, Value: l.readNumber()}
		} else if isIdentStart(l.ch) {
			value := l.readIdentifier()
			tok = Token{Type: identifierType(value), Value: value}
		} else {
			tok = Token{Type: TokenError, Value: string(l.ch)}
			l.readChar()
		}
	}

	tok.Pos = pos
	return tok
}

var keywords = map[string]TokenType{
	"select":    TokenSelect,
	"distinct":  TokenDistinct,
	"from":      TokenFrom,
	"where":     TokenWhere,
	"and":       TokenAnd,
	"or":        TokenOr,
	"not":       TokenNot,
	"as":        TokenAs,
	"group":     TokenGroup,
	"by":        TokenBy,
	"having":    TokenHaving,
	"order":     TokenOrder,
	"asc":       TokenAsc,
	"desc":      TokenDesc,
	"limit":     TokenLimit,
	"offset":    TokenOffset,
	"with":      TokenWith,
	"join":      TokenJoin,
	"inner":     TokenInner,
	"left":      TokenLeft,
	"right":     TokenRight,
	"full":      TokenFull,
	"outer":     TokenOuter,
	"on":        TokenOn,
	"over":      TokenOver,
	"partition": TokenPartition,
	"contains":  TokenContains,
	"like":      TokenLike,
	"in":        TokenIn,
	"is":        TokenIs,
	"null":      TokenNull,
	"true":      TokenBool,
	"false":     TokenBool,
}

// identifierType determines if an identifier is a keyword. Keywords are
// case-insensitive; a dotted name is never a keyword.
func identifierType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToLower(ident)]; ok {
		return tokType
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input, ending with TokenEOF or the
// first TokenError.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
