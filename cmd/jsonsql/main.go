// jsonsql runs SQL-like queries over JSON, YAML and parquet datasets.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/gitsangramdesai/JSON-SQLParser/internal/config"
	"github.com/gitsangramdesai/JSON-SQLParser/internal/logger"
	"github.com/gitsangramdesai/JSON-SQLParser/output"
)

var version = "0.1.0"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "jsonsql",
		Short: "Query JSON datasets with SQL",
		Long: `jsonsql runs SQL-like queries over JSON, YAML and parquet datasets.

Run a query:
  jsonsql query -d friends.json -q "SELECT name FROM friends WHERE age > 20"

Start the interactive shell:
  jsonsql repl -d friends.json -d 'data/*.parquet'`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(
		newQueryCmd(opts),
		newReplCmd(opts),
		newTablesCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "jsonsql %s\n", version)
			},
		},
	)

	return rootCmd
}

// setup loads configuration, applies a format override and builds the app.
// The returned cleanup flushes the logger.
func setup(opts *rootOptions, format string, dataFiles []string) (*app, func(), error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	if format != "" {
		cfg.Output.Format = strings.ToLower(format)
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing logger: %w", err)
	}
	cleanup := func() { _ = log.Sync() }

	a, err := newApp(cfg, log, dataFiles)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		sql       string
		dataFiles []string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run one query and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sql == "" && len(args) == 1 {
				sql = args[0]
			}
			if strings.TrimSpace(sql) == "" {
				return fmt.Errorf("missing query: pass it with -q or as an argument")
			}

			a, cleanup, err := setup(opts, format, dataFiles)
			if err != nil {
				return err
			}
			defer cleanup()

			var prompter output.Prompter
			if readline.IsTerminal(int(os.Stdin.Fd())) {
				rl, err := readline.NewEx(&readline.Config{InterruptPrompt: "^C"})
				if err != nil {
					return fmt.Errorf("failed to initialize readline: %w", err)
				}
				defer rl.Close()
				prompter = rl
			}

			return a.runQuery(sql, cmd.OutOrStdout(), prompter)
		},
	}

	cmd.Flags().StringVarP(&sql, "query", "q", "", "query to run")
	cmd.Flags().StringArrayVarP(&dataFiles, "data", "d", nil, "dataset file or glob (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: "+strings.Join(output.Formats, ", "))

	return cmd
}

func newReplCmd(opts *rootOptions) *cobra.Command {
	var (
		dataFiles []string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setup(opts, format, dataFiles)
			if err != nil {
				return err
			}
			defer cleanup()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				AutoComplete:    newCompleter(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			defer rl.Close()

			return newREPL(a, rl, cmd.OutOrStdout()).Run()
		},
	}

	cmd.Flags().StringArrayVarP(&dataFiles, "data", "d", nil, "dataset file or glob (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: "+strings.Join(output.Formats, ", "))

	return cmd
}

func newTablesCmd(opts *rootOptions) *cobra.Command {
	var (
		dataFiles []string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables and columns of dataset files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(dataFiles) == 0 {
				return fmt.Errorf("missing dataset: pass at least one -d file")
			}

			a, cleanup, err := setup(opts, format, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			infos, err := describeFiles(dataFiles)
			if err != nil {
				return err
			}
			return a.describe(infos, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVarP(&dataFiles, "data", "d", nil, "dataset file or glob (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: "+strings.Join(output.Formats, ", "))

	return cmd
}
