package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestLocateClauses(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []Clause
		skip  []Clause
	}{
		{
			name:  "all clauses",
			query: "SELECT a FROM t WHERE b = 1 GROUP BY a HAVING count(*) > 1 ORDER BY a LIMIT 1 OFFSET 2",
			want:  []Clause{ClauseSelect, ClauseFrom, ClauseWhere, ClauseGroupBy, ClauseHaving, ClauseOrderBy, ClauseLimit, ClauseOffset},
		},
		{
			name:  "keywords inside strings are ignored",
			query: "SELECT a FROM t WHERE name = 'where from'",
			want:  []Clause{ClauseSelect, ClauseFrom, ClauseWhere},
		},
		{
			name:  "keywords inside parentheses are ignored",
			query: "SELECT ROW_NUMBER() OVER (ORDER BY a) AS rn FROM t",
			want:  []Clause{ClauseSelect, ClauseFrom},
			skip:  []Clause{ClauseOrderBy},
		},
		{
			name:  "keyword substrings are ignored",
			query: "SELECT fromage, wherever FROM t",
			want:  []Clause{ClauseSelect, ClauseFrom},
			skip:  []Clause{ClauseWhere},
		},
		{
			name:  "hint suffix",
			query: "SELECT a FROM t WITH (PAGINATE)",
			want:  []Clause{ClauseSelect, ClauseFrom, ClauseWith},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocateClauses(tt.query)
			if err != nil {
				t.Fatalf("LocateClauses() error = %v", err)
			}
			for _, c := range tt.want {
				pos, ok := got[c]
				if !ok {
					t.Errorf("clause %s not found", c)
					continue
				}
				keyword := strings.Fields(string(c))[0]
				if !strings.EqualFold(tt.query[pos:pos+len(keyword)], keyword) {
					t.Errorf("clause %s at %d points to %q", c, pos, tt.query[pos:])
				}
			}
			for _, c := range tt.skip {
				if _, ok := got[c]; ok {
					t.Errorf("clause %s should not be found", c)
				}
			}
		})
	}
}

func TestLocateClauses_Order(t *testing.T) {
	query := "SELECT a FROM t WHERE a > 1 ORDER BY a"
	got, err := LocateClauses(query)
	if err != nil {
		t.Fatal(err)
	}
	if got[ClauseSelect] != 0 {
		t.Errorf("SELECT at %d, want 0", got[ClauseSelect])
	}
	if got[ClauseFrom] != strings.Index(query, "FROM") {
		t.Errorf("FROM at %d, want %d", got[ClauseFrom], strings.Index(query, "FROM"))
	}
	if got[ClauseOrderBy] != strings.Index(query, "ORDER") {
		t.Errorf("ORDER BY at %d, want %d", got[ClauseOrderBy], strings.Index(query, "ORDER"))
	}
}

func TestLocateClauses_InvalidToken(t *testing.T) {
	_, err := LocateClauses("SELECT 'open FROM t")
	if !errors.Is(err, ErrMalformedQuery) {
		t.Errorf("LocateClauses() error = %v, want MalformedQuery", err)
	}
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "a, b ,c", []string{"a", "b", "c"}},
		{"nested parentheses", "a, f(b, g(c, d)), e", []string{"a", "f(b, g(c, d))", "e"}},
		{"quoted commas", "'x,y', \"p,q\"", []string{"'x,y'", "\"p,q\""}},
		{"single item", "count(*)", []string{"count(*)"}},
		{"empty", "", nil},
		{"trailing comma", "a,", []string{"a", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitTopLevel(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTopLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractHints(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantText string
		want     HintSet
		wantErr  bool
	}{
		{
			name:     "no hints",
			query:    "SELECT a FROM t",
			wantText: "SELECT a FROM t",
			want:     HintSet{},
		},
		{
			name:     "mixed case and unknown hints",
			query:    "SELECT a FROM t WITH (HeaderColumnUpperCase, paginate, Shiny)",
			wantText: "SELECT a FROM t",
			want:     HintSet{HintHeaderColumnUpperCase: true, HintPaginate: true},
		},
		{
			name:    "unterminated",
			query:   "SELECT a FROM t WITH (OUTPUTJSON",
			wantErr: true,
		},
		{
			name:    "missing parenthesis",
			query:   "SELECT a FROM t WITH OUTPUTJSON",
			wantErr: true,
		},
		{
			name:    "text after hints",
			query:   "SELECT a FROM t WITH (OUTPUTJSON) LIMIT 1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clauses, err := LocateClauses(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			text, hints, err := extractHints(tt.query, clauses)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractHints() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedQuery) {
					t.Errorf("error %v is not MalformedQuery", err)
				}
				return
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if !reflect.DeepEqual(hints, tt.want) {
				t.Errorf("hints = %v, want %v", hints, tt.want)
			}
		})
	}
}
