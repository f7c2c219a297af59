// Package store is the durable constraint store and slicer: an
// append-only persistence layer over internal/model's Constraint/AstNode
// entities, plus the seed-driven reachability slice the solvers consume.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oxhq/pointa/db"
	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/models"
)

// Slicer is the contract both the local store and the optional remote
// (graph-DB) back-end satisfy: both must return the same set of
// constraints for a given seed. Solvers and the CLI depend on this
// interface, never on *Store directly.
type Slicer interface {
	Slice(ctx context.Context, seed uint64) ([]model.Constraint, error)
}

// Store is the local, sqlite-backed constraint store. Inserts are
// serialized through a single writer mutex; reads use a fresh gorm
// session per call.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// Open connects to (and migrates) the sqlite/libsql-backed store at dsn.
func Open(dsn string, debug bool) (*Store, error) {
	gdb, err := db.Connect(dsn, debug)
	if err != nil {
		return nil, err
	}
	return &Store{db: gdb}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Put persists a translation unit's constraints and AST nodes in one
// transaction, deduplicating by primary key (constraint ID / node ID);
// re-extracting the same unit is a no-op.
func (s *Store) Put(ctx context.Context, runID string, constraints []model.Constraint, nodes []model.AstNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range nodes {
			row := toAstNodeRow(n)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("store: persist ast node %d: %w", n.ID, err)
			}
		}
		for _, c := range constraints {
			row, err := toConstraintRow(c, runID)
			if err != nil {
				return fmt.Errorf("store: encode constraint %d: %w", c.ID, err)
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("store: persist constraint %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// AstNode looks up the declaration/occurrence record for a mangled-name
// hash.
func (s *Store) AstNode(ctx context.Context, hash uint64) (model.AstNode, bool, error) {
	var row models.AstNodeRow
	err := s.db.WithContext(ctx).Where("mangled_hash = ?", hash).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return model.AstNode{}, false, nil
	}
	if err != nil {
		return model.AstNode{}, false, err
	}
	return fromAstNodeRow(row), true, nil
}

// constraintsTouching returns every persisted constraint whose LHS or RHS
// hash equals h.
func (s *Store) constraintsTouching(ctx context.Context, h uint64) ([]model.Constraint, error) {
	var rows []models.ConstraintRow
	err := s.db.WithContext(ctx).
		Where("lhs_hash = ? OR rhs_hash = ?", h, h).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Constraint, 0, len(rows))
	for _, r := range rows {
		c, err := fromConstraintRow(r)
		if err != nil {
			return nil, fmt.Errorf("store: decode constraint %d: %w", r.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// RecordRun persists an AnalysisRun row summarizing a single solver
// invocation: which solver, which seed, how many constraints fed it, how
// many results it produced, and the diagnostics the run accumulated.
func (s *Store) RecordRun(ctx context.Context, runID, solver string, seedHash uint64, constraintCount, resultCount int, diagnostics []byte) error {
	now := time.Now()
	row := models.AnalysisRun{
		ID:              runID,
		Solver:          solver,
		SeedHash:        seedHash,
		FinishedAt:      &now,
		ConstraintCount: constraintCount,
		ResultCount:     resultCount,
		Diagnostics:     datatypes.JSON(diagnostics),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Slice collects every constraint reachable from seed: starting there, it
// repeatedly pulls every constraint touching the current side, appends
// constraints that are uses (an RHS hit, or a dereference on either side)
// and prepends direct definitions, then continues from the opposite side
// of each newly found constraint. The two-ended insertion brings direct
// definitions of the seed ahead of uses, which speeds solver convergence.
func (s *Store) Slice(ctx context.Context, seed uint64) ([]model.Constraint, error) {
	return Traverse(ctx, seed, s.constraintsTouching)
}

// LookupFunc fetches every constraint touching a given hash; both the
// local store and the remote back-end (internal/store/remote) implement
// the slice algorithm against this same shape, so the traversal logic
// itself lives in one place (Traverse, below).
type LookupFunc func(ctx context.Context, hash uint64) ([]model.Constraint, error)

// Traverse runs the two-ended queue/dedup slice against any LookupFunc,
// so the local store and the remote back-end share one implementation of
// the traversal.
func Traverse(ctx context.Context, seed uint64, lookup LookupFunc) ([]model.Constraint, error) {
	if seed == 0 {
		return nil, nil // an empty seed yields an empty result, not an error
	}

	type queued struct{ hash uint64 }
	queue := []queued{{hash: seed}}

	var result []model.Constraint
	// Dedup key is the constraint ID (a hash of both sides' hashes):
	// StmtSide equality is hash-only, so two constraints are the same iff
	// their (lhs.hash, rhs.hash) pairs match, which ID already encodes.
	// Deduplicating on the full constraint rather than a single side keeps
	// cyclic reference graphs from enqueueing forever while still letting
	// one side be reached through multiple paths.
	seen := make(map[uint64]struct{})

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		stmts, err := lookup(ctx, current.hash)
		if err != nil {
			return result, fmt.Errorf("store: slice lookup for %d: %w", current.hash, err)
		}

		for _, stmt := range stmts {
			if _, dup := seen[stmt.ID]; dup {
				continue
			}

			var next uint64
			if stmt.LHS.Hash == current.hash {
				next = stmt.RHS.Hash
			} else {
				next = stmt.LHS.Hash
			}
			queue = append(queue, queued{hash: next})

			seen[stmt.ID] = struct{}{}
			defer_ := stmt.RHS.Hash == current.hash ||
				containsStar(stmt.LHS.Operators) ||
				containsStar(stmt.RHS.Operators)
			if defer_ {
				result = append(result, stmt)
			} else {
				result = append([]model.Constraint{stmt}, result...)
			}
		}
	}

	return result, nil
}

func containsStar(operators string) bool {
	return strings.ContainsRune(operators, '*')
}

func toAstNodeRow(n model.AstNode) models.AstNodeRow {
	return models.AstNodeRow{
		ID:          n.ID,
		MangledName: n.MangledName,
		MangledHash: n.MangledHash,
		File:        n.File,
		Line:        n.Line,
		Column:      n.Column,
		SymbolType:  n.SymbolType,
	}
}

func fromAstNodeRow(r models.AstNodeRow) model.AstNode {
	return model.AstNode{
		ID:          r.ID,
		MangledName: r.MangledName,
		MangledHash: r.MangledHash,
		File:        r.File,
		Line:        r.Line,
		Column:      r.Column,
		SymbolType:  r.SymbolType,
	}
}

func toConstraintRow(c model.Constraint, runID string) (models.ConstraintRow, error) {
	lhsOpts, err := json.Marshal(ordinals(c.LHS))
	if err != nil {
		return models.ConstraintRow{}, err
	}
	rhsOpts, err := json.Marshal(ordinals(c.RHS))
	if err != nil {
		return models.ConstraintRow{}, err
	}
	return models.ConstraintRow{
		ID:           c.ID,
		LHSHash:      c.LHS.Hash,
		LHSOperators: c.LHS.Operators,
		LHSOptions:   lhsOpts,
		RHSHash:      c.RHS.Hash,
		RHSOperators: c.RHS.Operators,
		RHSOptions:   rhsOpts,
		RunID:        runID,
	}, nil
}

func fromConstraintRow(r models.ConstraintRow) (model.Constraint, error) {
	lhs, err := sideFromRow(r.LHSHash, r.LHSOperators, r.LHSOptions)
	if err != nil {
		return model.Constraint{}, err
	}
	rhs, err := sideFromRow(r.RHSHash, r.RHSOperators, r.RHSOptions)
	if err != nil {
		return model.Constraint{}, err
	}
	return model.Constraint{ID: r.ID, LHS: lhs, RHS: rhs}, nil
}

func sideFromRow(hash uint64, operators string, raw []byte) (model.StmtSide, error) {
	var nums []int
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &nums); err != nil {
			return model.StmtSide{}, err
		}
	}
	opts := make([]model.Options, 0, len(nums))
	for _, n := range nums {
		opts = append(opts, model.Options(n))
	}
	return model.NewStmtSide(hash, operators, opts...), nil
}

func ordinals(s model.StmtSide) []int {
	sorted := s.SortedOptions()
	out := make([]int, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, int(o))
	}
	return out
}
