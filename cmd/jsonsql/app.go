package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gitsangramdesai/JSON-SQLParser/internal/config"
	"github.com/gitsangramdesai/JSON-SQLParser/internal/logger"
	"github.com/gitsangramdesai/JSON-SQLParser/output"
	"github.com/gitsangramdesai/JSON-SQLParser/query"
	"github.com/gitsangramdesai/JSON-SQLParser/reader"
)

// app holds what every command needs: configuration, the logger, an
// engine built from the configuration and the loaded dataset.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *query.Engine
	ds     query.Dataset
}

func newApp(cfg *config.Config, log *logger.Logger, dataFiles []string) (*app, error) {
	tag, err := cfg.LocaleTag()
	if err != nil {
		return nil, err
	}

	ds := query.NewDataset()
	if len(dataFiles) > 0 {
		ds, err = reader.LoadFiles(dataFiles)
		if err != nil {
			return nil, err
		}
		log.Debug("dataset loaded", "files", len(dataFiles), "tables", len(ds.Tables()))
	}

	engine := query.NewEngine(
		query.WithLogger(log.Named("engine").Zap()),
		query.WithLocale(tag),
		query.WithRootNamespace(cfg.Engine.RootNamespace),
	)

	return &app{cfg: cfg, log: log, engine: engine, ds: ds}, nil
}

// runQuery executes one query and writes its result to w. The prompter is
// used for PAGINATE results; without one the rows are written at once.
func (a *app) runQuery(sql string, w io.Writer, prompter output.Prompter) error {
	result, err := a.engine.Run(sql, a.ds)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		a.log.Warn("query warning",
			"query_id", result.QueryID,
			"code", string(warning.Code),
			"message", warning.Message,
			"count", warning.Count,
		)
	}

	if result.IsJSON() {
		_, err := fmt.Fprintln(w, result.JSON)
		return err
	}

	formatter, err := output.New(a.cfg.Output.Format, w)
	if err != nil {
		return err
	}
	if result.Paginate && prompter != nil {
		return output.NewPager(formatter, prompter, a.cfg.Output.PageSize).Page(result.Columns, result.Rows)
	}
	return formatter.Format(result.Columns, result.Rows)
}

// describe writes the columns of every table in infos, one row per column.
func (a *app) describe(infos []reader.TableInfo, w io.Writer) error {
	columns := []string{"table", "rows", "column", "type", "optional", "repeated"}
	var rows []map[string]interface{}
	for _, info := range infos {
		for _, col := range info.Columns {
			rows = append(rows, map[string]interface{}{
				"table":    info.Path,
				"rows":     int64(info.Rows),
				"column":   col.Name,
				"type":     col.Type,
				"optional": col.Optional,
				"repeated": col.Repeated,
			})
		}
	}

	formatter, err := output.New(a.cfg.Output.Format, w)
	if err != nil {
		return err
	}
	return formatter.Format(columns, rows)
}

// describeFiles describes the given dataset files, expanding globs. Files
// are described one by one, so parquet files report their declared schema.
func describeFiles(patterns []string) ([]reader.TableInfo, error) {
	var infos []reader.TableInfo
	for _, pattern := range patterns {
		paths, err := expandPattern(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			described, err := reader.DescribeFile(path)
			if err != nil {
				return nil, err
			}
			infos = append(infos, described...)
		}
	}
	return infos, nil
}

func expandPattern(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	return matches, nil
}
