package query

import (
	"strings"
)

// Clause names a top-level section of a query.
type Clause string

const (
	ClauseSelect  Clause = "SELECT"
	ClauseFrom    Clause = "FROM"
	ClauseWhere   Clause = "WHERE"
	ClauseGroupBy Clause = "GROUP BY"
	ClauseHaving  Clause = "HAVING"
	ClauseOrderBy Clause = "ORDER BY"
	ClauseLimit   Clause = "LIMIT"
	ClauseOffset  Clause = "OFFSET"
	ClauseWith    Clause = "WITH"
)

// LocateClauses returns the byte offset of the first top-level occurrence
// of each clause keyword. Keywords nested inside parentheses or string
// literals, and keyword substrings of longer identifiers, are ignored.
func LocateClauses(query string) (map[Clause]int, error) {
	tokens := Tokenize(query)
	found := make(map[Clause]int)
	depth := 0

	record := func(c Clause, pos int) {
		if _, ok := found[c]; !ok {
			found[c] = pos
		}
	}

	for i, tok := range tokens {
		switch tok.Type {
		case TokenError:
			return nil, malformed(query, "invalid token %q at offset %d", tok.Value, tok.Pos)
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			if depth > 0 {
				depth--
			}
		}
		if depth != 0 {
			continue
		}

		switch tok.Type {
		case TokenSelect:
			record(ClauseSelect, tok.Pos)
		case TokenFrom:
			record(ClauseFrom, tok.Pos)
		case TokenWhere:
			record(ClauseWhere, tok.Pos)
		case TokenHaving:
			record(ClauseHaving, tok.Pos)
		case TokenLimit:
			record(ClauseLimit, tok.Pos)
		case TokenOffset:
			record(ClauseOffset, tok.Pos)
		case TokenWith:
			record(ClauseWith, tok.Pos)
		case TokenGroup, TokenOrder:
			if i+1 < len(tokens) && tokens[i+1].Type == TokenBy {
				if tok.Type == TokenGroup {
					record(ClauseGroupBy, tok.Pos)
				} else {
					record(ClauseOrderBy, tok.Pos)
				}
			}
		}
	}

	return found, nil
}

// SplitTopLevel splits s on commas at parenthesis depth zero. Commas inside
// parentheses or quoted strings never split. Items are trimmed.
func SplitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote rune
	start := 0

	for i, ch := range s {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}

	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts
}

// extractHints removes a trailing "WITH (opt, ...)" clause and returns the
// remaining query text with the recognised hints. Unknown hints are ignored.
func extractHints(query string, clauses map[Clause]int) (string, HintSet, error) {
	hints := make(HintSet)

	pos, ok := clauses[ClauseWith]
	if !ok {
		return query, hints, nil
	}

	suffix := query[pos:]
	if from, ok := clauses[ClauseFrom]; !ok || pos < from {
		return "", nil, malformed(suffix, "WITH hints must follow the FROM clause")
	}

	body := strings.TrimSpace(suffix[len("WITH"):])
	if !strings.HasPrefix(body, "(") {
		return "", nil, malformed(suffix, "expected '(' after WITH")
	}

	closing := matchingParen(body)
	if closing < 0 {
		return "", nil, malformed(suffix, "unterminated hint list")
	}
	if rest := strings.TrimSpace(body[closing+1:]); rest != "" {
		return "", nil, malformed(suffix, "unexpected text after hint list: %q", rest)
	}

	for _, opt := range SplitTopLevel(body[1:closing]) {
		switch h := Hint(strings.ToUpper(strings.TrimSpace(opt))); h {
		case HintHeaderColumnUpperCase, HintOutputJSON, HintPaginate:
			hints[h] = true
		}
	}

	return strings.TrimSpace(query[:pos]), hints, nil
}

// matchingParen returns the index of the parenthesis closing s[0], or -1.
func matchingParen(s string) int {
	depth := 0
	var quote rune
	for i, ch := range s {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
