// Package andersen implements the inclusion-based (subset)
// flow-insensitive points-to solver: simple address-of constraints seed
// the points-to sets, then a worklist iterates the remaining constraints
// to a fixpoint.
package andersen

import "github.com/oxhq/pointa/internal/model"

// PointsToSet maps a location's hash to the set of location hashes it may
// point to, plus a representative StmtSide per hash so callers (the
// presenter) can recover operators/options. Keyed by hash rather than the
// full StmtSide because side equality is hash-only, and StmtSide's
// Options set makes the struct itself unusable as a map key.
type PointsToSet struct {
	pt  map[uint64]map[uint64]struct{}
	rep map[uint64]model.StmtSide
}

func newPointsToSet() *PointsToSet {
	return &PointsToSet{
		pt:  make(map[uint64]map[uint64]struct{}),
		rep: make(map[uint64]model.StmtSide),
	}
}

func (p *PointsToSet) remember(s model.StmtSide) {
	if _, ok := p.rep[s.Hash]; !ok {
		p.rep[s.Hash] = s
	}
}

// add inserts target into the points-to set of hash and reports whether
// the set grew, matching the worklist's changed-detection.
func (p *PointsToSet) add(hash uint64, target model.StmtSide) bool {
	p.remember(target)
	set, ok := p.pt[hash]
	if !ok {
		set = make(map[uint64]struct{})
		p.pt[hash] = set
	}
	if _, exists := set[target.Hash]; exists {
		return false
	}
	set[target.Hash] = struct{}{}
	return true
}

// Of returns the sides that hash may point to.
func (p *PointsToSet) Of(hash uint64) []model.StmtSide {
	set := p.pt[hash]
	out := make([]model.StmtSide, 0, len(set))
	for h := range set {
		out = append(out, p.rep[h])
	}
	return out
}

// Rep returns the representative StmtSide recorded for hash (whichever
// occurrence first carried that hash as an LHS or RHS) so the presenter
// can recover a side's options/operators for decoration from a bare hash.
func (p *PointsToSet) Rep(hash uint64) (model.StmtSide, bool) {
	s, ok := p.rep[hash]
	return s, ok
}

// Hashes returns every location hash with a non-empty points-to set, in
// no particular order; callers must not depend on iteration order.
func (p *PointsToSet) Hashes() []uint64 {
	out := make([]uint64, 0, len(p.pt))
	for h := range p.pt {
		out = append(out, h)
	}
	return out
}

// Cancelled is checked between worklist iterations so a long-running
// solve can be stopped cooperatively; a cancelled run returns the partial
// points-to set accumulated so far.
type Cancelled func() bool

// Run executes the Andersen fixpoint over statements and returns the
// resulting points-to set. cancel may be nil.
func Run(statements []model.Constraint, cancel Cancelled) *PointsToSet {
	pt := newPointsToSet()

	complex := make([]model.Constraint, 0, len(statements))
	for _, stmt := range statements {
		pt.remember(stmt.LHS)
		pt.remember(stmt.RHS)
		if stmt.IsSimple() {
			// Strip the single leading '&': lhs points-to rhs.hash directly.
			stripped := model.NewStmtSide(stmt.RHS.Hash, stmt.RHS.Operators[1:], stmt.RHS.SortedOptions()...)
			pt.add(stmt.LHS.Hash, stripped)
		} else {
			complex = append(complex, stmt)
		}
	}

	changed := len(complex) > 0
	for changed {
		if cancel != nil && cancel() {
			break
		}
		changed = false
		for _, stmt := range complex {
			direct := stmt.IsDirectPointsTo()
			for _, l := range evalLHS(pt, stmt.LHS) {
				for _, r := range evalRHS(pt, stmt.RHS, direct) {
					if pt.add(l.Hash, r) {
						changed = true
					}
				}
			}
		}
	}

	return pt
}

// evalLHS returns the locations a side denotes as an l-value. A leading
// '*' is stripped exactly once and delegated to evalRHS; deeper
// indirection on the LHS is deliberately not iterated further.
func evalLHS(pt *PointsToSet, lhs model.StmtSide) []model.StmtSide {
	if lhs.Operators == "" {
		return []model.StmtSide{lhs}
	}
	if lhs.Operators[0] == '*' {
		stripped := model.NewStmtSide(lhs.Hash, lhs.Operators[1:], lhs.SortedOptions()...)
		return evalRHS(pt, stripped, false)
	}
	return nil
}

// evalRHS returns the locations a side points to.
func evalRHS(pt *PointsToSet, rhs model.StmtSide, isDirect bool) []model.StmtSide {
	if rhs.Operators == "" {
		if isDirect {
			return []model.StmtSide{rhs}
		}
		return pt.Of(rhs.Hash)
	}

	if rhs.Operators[0] == '&' {
		rest := rhs.Operators[1:]
		if rest == "" {
			stripped := model.NewStmtSide(rhs.Hash, "", rhs.SortedOptions()...)
			return []model.StmtSide{stripped}
		}
		next := model.NewStmtSide(rhs.Hash, rest, rhs.SortedOptions()...)
		return evalRHS(pt, next, true)
	}

	// Leading '*': for each e in PT[rhs], recurse with the tail operators
	// on e's hash, unioning the results.
	rest := rhs.Operators[1:]
	var out []model.StmtSide
	for _, e := range pt.Of(rhs.Hash) {
		next := model.NewStmtSide(e.Hash, rest, e.SortedOptions()...)
		out = append(out, evalRHS(pt, next, isDirect)...)
	}
	return out
}
