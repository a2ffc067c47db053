package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/gitsangramdesai/JSON-SQLParser/output"
	"github.com/gitsangramdesai/JSON-SQLParser/reader"
)

const (
	replPrompt         = "jsonsql> "
	continuationPrompt = "      -> "
)

// repl reads statements terminated by ";" and backslash commands.
type repl struct {
	app *app
	rl  output.Prompter
	out io.Writer
}

func newREPL(a *app, rl output.Prompter, out io.Writer) *repl {
	return &repl{app: a, rl: rl, out: out}
}

// Run reads and executes input until \q, exit or end of input. Query
// errors are printed and the loop continues.
func (r *repl) Run() error {
	fmt.Fprintf(r.out, "jsonsql %s. Type \\help for help, \\q to quit.\n", version)

	var buf strings.Builder
	for {
		if buf.Len() > 0 {
			r.rl.SetPrompt(continuationPrompt)
		} else {
			r.rl.SetPrompt(replPrompt)
		}

		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && (strings.HasPrefix(line, "\\") || isExit(line)) {
			if !r.command(line) {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			continue
		}

		sql := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()
		if err := r.app.runQuery(sql, r.out, r.rl); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

// command runs a shell command and reports whether the loop continues.
func (r *repl) command(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "\\q", "exit", "quit":
		return false
	case "\\tables", "\\dt":
		infos, err := reader.Describe(r.app.ds)
		if err == nil {
			err = r.app.describe(infos, r.out)
		}
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	case "\\help", "\\h", "\\?":
		fmt.Fprint(r.out, `Statements end with ";" and may span lines, e.g.
  SELECT name, age FROM friends WHERE age > 20 ORDER BY age DESC;
Append WITH (HEADERCOLUMNUPPERCASE, OUTPUTJSON, PAGINATE) to change the output.

Commands:
  \tables   list tables and columns
  \help     show this help
  \q        quit
`)
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", line)
	}
	return true
}

func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSuffix(line, ";")) {
	case "exit", "quit":
		return true
	}
	return false
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jsonsql_history")
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("FROM"),
		readline.PcItem("WHERE"),
		readline.PcItem("GROUP BY"),
		readline.PcItem("HAVING"),
		readline.PcItem("ORDER BY"),
		readline.PcItem("LIMIT"),
		readline.PcItem("OFFSET"),
		readline.PcItem("WITH",
			readline.PcItem("(HEADERCOLUMNUPPERCASE)"),
			readline.PcItem("(OUTPUTJSON)"),
			readline.PcItem("(PAGINATE)"),
		),
		readline.PcItem("\\tables"),
		readline.PcItem("\\help"),
		readline.PcItem("\\q"),
	)
}
