// Package models holds the gorm row types persisted by the constraint
// store. They mirror the pure internal/model entities with the struct
// tags and indexing gorm needs, keeping storage annotations out of the
// analysis code.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// AstNodeRow is the durable record of one mangled-name declaration or
// location-qualified occurrence referenced by a constraint.
type AstNodeRow struct {
	ID          uint64 `gorm:"primaryKey"`
	MangledName string `gorm:"type:text;index"`
	MangledHash uint64 `gorm:"index"`
	File        string `gorm:"type:varchar(1024);index"`
	Line        int
	Column      int
	SymbolType  string `gorm:"type:varchar(20)"`
}

// TableName customizes the table name for cleaner SQL.
func (AstNodeRow) TableName() string { return "ast_nodes" }

// ConstraintRow is the durable record of one assignment constraint,
// indexed on both sides' hashes so the slicer can efficiently find every
// constraint whose side equals a given mangled-name hash.
type ConstraintRow struct {
	ID uint64 `gorm:"primaryKey"`

	LHSHash      uint64 `gorm:"index:idx_lhs_hash"`
	LHSOperators string `gorm:"type:varchar(32)"`
	LHSOptions   datatypes.JSON

	RHSHash      uint64 `gorm:"index:idx_rhs_hash"`
	RHSOperators string `gorm:"type:varchar(32)"`
	RHSOptions   datatypes.JSON

	RunID     string `gorm:"type:varchar(36);index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName customizes the table name for cleaner SQL.
func (ConstraintRow) TableName() string { return "constraints" }

// AnalysisRun is a queryable record of one solver invocation: which
// solver ran, from which seed, over how many constraints, with what
// diagnostics. Gives operators an audit trail of points-to queries.
type AnalysisRun struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Solver     string `gorm:"type:varchar(20)"` // "andersen" or "steensgaard"
	SeedHash   uint64
	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt *time.Time

	ConstraintCount int
	ResultCount     int
	Diagnostics     datatypes.JSON
}

// TableName customizes the table name for cleaner SQL.
func (AnalysisRun) TableName() string { return "analysis_runs" }
