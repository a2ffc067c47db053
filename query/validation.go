package query

import (
	"errors"
	"fmt"
)

// Input limits guarding the parser against pathological queries.
const (
	// MaxQueryLength is the maximum allowed query string length (1MB)
	MaxQueryLength = 1024 * 1024

	// MaxTokens is the maximum number of tokens in a query
	MaxTokens = 4096

	// MaxExpressionDepth is the maximum nesting depth for expressions
	MaxExpressionDepth = 100
)

var (
	// ErrQueryTooLong is wrapped when a query exceeds MaxQueryLength
	ErrQueryTooLong = errors.New("query too long")

	// ErrTooManyTokens is wrapped when a query has too many tokens
	ErrTooManyTokens = errors.New("too many tokens in query")

	// ErrExpressionTooDeep is wrapped when expression nesting exceeds the limit
	ErrExpressionTooDeep = errors.New("expression nesting too deep")
)

// limitError is a MalformedQuery that also unwraps to a limit sentinel.
type limitError struct {
	*QueryError
	cause error
}

func (e *limitError) Unwrap() error { return e.cause }

func newLimitError(cause error, format string, args ...interface{}) error {
	return &limitError{
		QueryError: &QueryError{Kind: KindMalformedQuery, Msg: fmt.Sprintf("%v: ", cause) + fmt.Sprintf(format, args...)},
		cause:      cause,
	}
}

// ValidateQuery rejects query strings above MaxQueryLength.
func ValidateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return newLimitError(ErrQueryTooLong, "%d bytes (max %d)", len(query), MaxQueryLength)
	}
	return nil
}

// ValidateTokens rejects token streams above MaxTokens.
func ValidateTokens(tokens []Token) error {
	if len(tokens) > MaxTokens {
		return newLimitError(ErrTooManyTokens, "%d tokens (max %d)", len(tokens), MaxTokens)
	}
	return nil
}

// ExpressionDepthCounter tracks expression nesting depth
type ExpressionDepthCounter struct {
	depth    int
	maxDepth int
}

// NewExpressionDepthCounter creates a new depth counter
func NewExpressionDepthCounter() *ExpressionDepthCounter {
	return &ExpressionDepthCounter{depth: 0, maxDepth: MaxExpressionDepth}
}

// Enter increments depth and returns error if limit exceeded
func (c *ExpressionDepthCounter) Enter() error {
	c.depth++
	if c.depth > c.maxDepth {
		return newLimitError(ErrExpressionTooDeep, "%d (max %d)", c.depth, c.maxDepth)
	}
	return nil
}

// Exit decrements depth
func (c *ExpressionDepthCounter) Exit() {
	c.depth--
}
