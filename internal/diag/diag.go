// Package diag carries the diagnostics and run statistics every stage of
// the analysis reports against, instead of aborting: a transient I/O
// failure, a missing declaration, or a malformed AST fragment is recorded
// and skipped, never fatal.
package diag

import (
	"fmt"
	"time"

	"github.com/oxhq/pointa/internal/model"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Status is the overall outcome of a run: success, or success-with-
// diagnostics (partial), never a hard failure for the error classes the
// analysis tolerates.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
)

// Diagnostic is a single warning or error surfaced during extraction,
// storage, or solving.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     model.ErrorCode `json:"code,omitempty"`
	Message  string         `json:"message"`
	File     string         `json:"file,omitempty"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
}

// Bag accumulates diagnostics across a run. It is not safe for concurrent
// writers; callers running parallel extraction workers serialize their
// writes and Merge calls under a mutex of their own.
type Bag struct {
	Diagnostics []Diagnostic
}

// Warn appends a warning-level diagnostic.
func (b *Bag) Warn(code model.ErrorCode, file string, line, col int, format string, args ...any) {
	b.add(SeverityWarning, code, file, line, col, format, args...)
}

// Error appends an error-level diagnostic. This never aborts the caller;
// it only downgrades the run's final Status to StatusPartial.
func (b *Bag) Error(code model.ErrorCode, file string, line, col int, format string, args ...any) {
	b.add(SeverityError, code, file, line, col, format, args...)
}

func (b *Bag) add(sev Severity, code model.ErrorCode, file string, line, col int, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	b.Diagnostics = append(b.Diagnostics, Diagnostic{
		Severity: sev, Code: code, Message: msg, File: file, Line: line, Column: col,
	})
}

// Merge appends other's diagnostics onto b.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.Diagnostics = append(b.Diagnostics, other.Diagnostics...)
}

// Status derives the overall run status: partial as soon as any
// error-severity diagnostic was recorded.
func (b *Bag) Status() Status {
	for _, d := range b.Diagnostics {
		if d.Severity == SeverityError {
			return StatusPartial
		}
	}
	return StatusSuccess
}

// Stats summarizes one extraction or solve run for reporting.
type Stats struct {
	Duration          time.Duration `json:"duration"`
	FilesProcessed    int           `json:"files_processed"`
	ConstraintsFound  int           `json:"constraints_found"`
	ConstraintsStored int           `json:"constraints_stored"`
}
