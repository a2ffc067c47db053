package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Prompter reads one line of user input after showing a prompt.
type Prompter interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

var _ Prompter = (*readline.Instance)(nil)

// Pager shows rows a page at a time, asking the user before each
// following page.
type Pager struct {
	formatter Formatter
	prompter  Prompter
	pageSize  int
}

// NewPager creates a pager. A non-positive pageSize disables paging.
func NewPager(f Formatter, p Prompter, pageSize int) *Pager {
	return &Pager{formatter: f, prompter: p, pageSize: pageSize}
}

// Page renders rows in pages of the pager's size. Entering "q", or
// interrupting the prompt, stops early without an error.
func (p *Pager) Page(columns []string, rows []map[string]interface{}) error {
	if p.pageSize <= 0 || len(rows) <= p.pageSize {
		return p.formatter.Format(columns, rows)
	}

	pages := (len(rows) + p.pageSize - 1) / p.pageSize
	for page := 0; page < pages; page++ {
		start := page * p.pageSize
		end := start + p.pageSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := p.formatter.Format(columns, rows[start:end]); err != nil {
			return err
		}
		if page == pages-1 {
			break
		}

		p.prompter.SetPrompt(fmt.Sprintf("-- page %d/%d, Enter for more, q to quit -- ", page+1, pages))
		line, err := p.prompter.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(line), "q") {
			return nil
		}
	}
	return nil
}
