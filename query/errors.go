package query

import (
	"errors"
	"fmt"
	"sort"
)

// ErrorKind classifies fatal query errors.
type ErrorKind int

const (
	KindMalformedQuery ErrorKind = iota + 1
	KindUnknownTable
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedQuery:
		return "MalformedQuery"
	case KindUnknownTable:
		return "UnknownTable"
	default:
		return "QueryError"
	}
}

var (
	// ErrMalformedQuery matches any QueryError of kind KindMalformedQuery.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrUnknownTable matches any QueryError of kind KindUnknownTable.
	ErrUnknownTable = errors.New("unknown table")
)

// QueryError is a fatal parse or table-resolution failure. No rows are
// produced when a QueryError is returned.
type QueryError struct {
	Kind   ErrorKind
	Clause string // offending clause text, if known
	Msg    string
}

func (e *QueryError) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("%s: %s (in %q)", e.Kind, e.Msg, e.Clause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is lets errors.Is match the package sentinels.
func (e *QueryError) Is(target error) bool {
	switch target {
	case ErrMalformedQuery:
		return e.Kind == KindMalformedQuery
	case ErrUnknownTable:
		return e.Kind == KindUnknownTable
	}
	return false
}

func malformed(clause, format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: KindMalformedQuery, Clause: clause, Msg: fmt.Sprintf(format, args...)}
}

// WarningCode identifies a non-fatal evaluation condition.
type WarningCode string

const (
	WarnUnknownFunction WarningCode = "UnknownFunction"
	WarnFunctionError   WarningCode = "FunctionError"
	WarnDivisionByZero  WarningCode = "DivisionByZero"
	WarnTypeCoercion    WarningCode = "TypeCoercion"
)

// Warning is a per-row condition that was resolved by a fallback policy
// instead of failing the query. Identical warnings are merged and counted.
type Warning struct {
	Code    WarningCode
	Message string
	Count   int
}

func (w Warning) String() string {
	if w.Count > 1 {
		return fmt.Sprintf("%s: %s (x%d)", w.Code, w.Message, w.Count)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Diagnostics collects warnings for one execution.
type Diagnostics struct {
	index    map[string]int
	warnings []Warning
}

// NewDiagnostics creates an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{index: make(map[string]int)}
}

// Warn records a warning, merging it with an identical earlier one.
func (d *Diagnostics) Warn(code WarningCode, format string, args ...interface{}) {
	if d == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	key := string(code) + "\x1f" + msg
	if i, ok := d.index[key]; ok {
		d.warnings[i].Count++
		return
	}
	d.index[key] = len(d.warnings)
	d.warnings = append(d.warnings, Warning{Code: code, Message: msg, Count: 1})
}

// Warnings returns the collected warnings in first-seen order.
func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Has reports whether a warning with the given code was recorded.
func (d *Diagnostics) Has(code WarningCode) bool {
	if d == nil {
		return false
	}
	for _, w := range d.warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the distinct warning codes, sorted.
func (d *Diagnostics) Codes() []WarningCode {
	seen := make(map[WarningCode]bool)
	var codes []WarningCode
	for _, w := range d.Warnings() {
		if !seen[w.Code] {
			seen[w.Code] = true
			codes = append(codes, w.Code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
