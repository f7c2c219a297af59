// Package steensgaard implements the equality-based (union-find)
// flow-insensitive points-to solver: every side maps to one type node,
// each equivalence class carries at most one outgoing points-to edge, and
// conflicting targets merge recursively. The union-find is pointer-based
// with path compression and union-by-rank.
package steensgaard

import "github.com/oxhq/pointa/internal/model"

// typeNode is one equivalence-class member: an identity (value, mutated
// to its class's canonical value once Run returns) and a single outgoing
// points-to edge.
type typeNode struct {
	value    model.StmtSide
	pointsTo *typeNode
	parent   *typeNode
	rank     int
}

// Result is the union-find partition Run produces: every side hash maps to
// the typeNode tracking its class.
type Result struct {
	nodes    map[uint64]*typeNode
	original map[uint64]model.StmtSide // the variable's own side, captured before canonicalization
}

// ClassOf returns the canonical representative StmtSide for hash's
// equivalence class, and whether hash was seen at all. After Run returns,
// every node's value has been rewritten to its class's representative
// value, so two sides in one class compare equal by value.
func (r *Result) ClassOf(hash uint64) (model.StmtSide, bool) {
	n, ok := r.nodes[hash]
	if !ok {
		return model.StmtSide{}, false
	}
	return n.value, true
}

// Original returns the side's own declaration-site StmtSide (operators,
// options) as extracted, before canonicalization overwrote the node's
// value. The presenter uses it to decorate a node with the side's own
// options rather than its class representative's.
func (r *Result) Original(hash uint64) (model.StmtSide, bool) {
	s, ok := r.original[hash]
	return s, ok
}

// SameClass reports whether a and b ended up in the same equivalence
// class.
func (r *Result) SameClass(a, b uint64) bool {
	ca, ok1 := r.ClassOf(a)
	cb, ok2 := r.ClassOf(b)
	return ok1 && ok2 && ca.Hash == cb.Hash
}

// PointsTo returns the canonical StmtSide hash's class points to, via the
// single outgoing pointsTo edge per class.
func (r *Result) PointsTo(hash uint64) (model.StmtSide, bool) {
	n, ok := r.nodes[hash]
	if !ok || n.pointsTo == nil {
		return model.StmtSide{}, false
	}
	return n.pointsTo.value, true
}

// Hashes returns every side hash tracked by the result, in no particular
// order.
func (r *Result) Hashes() []uint64 {
	out := make([]uint64, 0, len(r.nodes))
	for h := range r.nodes {
		out = append(out, h)
	}
	return out
}

// Run builds one typeNode per distinct side hash referenced by
// statements, then processes each constraint: find the node the LHS
// denotes, find the node the RHS denotes, and either set the LHS node's
// pointsTo edge or merge the new target with the existing one.
func Run(statements []model.Constraint) *Result {
	nodes := make(map[uint64]*typeNode)
	ensure := func(s model.StmtSide) *typeNode {
		n, ok := nodes[s.Hash]
		if !ok {
			n = &typeNode{value: s}
			n.parent = n
			nodes[s.Hash] = n
		}
		return n
	}

	for _, stmt := range statements {
		ensure(stmt.LHS)
		ensure(stmt.RHS)
	}

	original := make(map[uint64]model.StmtSide, len(nodes))
	for h, n := range nodes {
		original[h] = n.value
	}

	for _, stmt := range statements {
		n := evalLhs(nodes, stmt.LHS)
		m := evalRhs(nodes, stmt.RHS, stmt.IsDirectPointsTo())
		if n == nil {
			continue
		}
		if n.pointsTo != nil && n.pointsTo != m {
			merge(n.pointsTo, m)
		} else {
			n.pointsTo = m
		}
	}

	canonicalize(nodes)
	return &Result{nodes: nodes, original: original}
}

// evalLhs strips every operator regardless of character (this solver
// ignores indirection depth) and returns the node for the bare variable.
func evalLhs(nodes map[uint64]*typeNode, side model.StmtSide) *typeNode {
	for side.Operators != "" {
		side = model.NewStmtSide(side.Hash, side.Operators[1:], side.SortedOptions()...)
	}
	return nodes[side.Hash]
}

// evalRhs acts on type nodes: an empty operator string returns the node
// itself when direct, or its current target otherwise; a leading '&'
// peels one level and raises isDirect; a leading '*' follows the node's
// current target and re-evaluates the tail.
func evalRhs(nodes map[uint64]*typeNode, side model.StmtSide, isDirect bool) *typeNode {
	if side.Operators == "" {
		t := nodes[side.Hash]
		if t == nil {
			return nil
		}
		if isDirect {
			return t
		}
		return t.pointsTo
	}

	if side.Operators[0] == '&' {
		rest := side.Operators[1:]
		if rest == "" {
			return nodes[side.Hash]
		}
		return evalRhs(nodes, model.NewStmtSide(side.Hash, rest, side.SortedOptions()...), true)
	}

	t := nodes[side.Hash]
	if t == nil || t.pointsTo == nil {
		return nil
	}
	rest := side.Operators[1:]
	return evalRhs(nodes, model.NewStmtSide(t.pointsTo.value.Hash, rest, side.SortedOptions()...), isDirect)
}

func find(n *typeNode) *typeNode {
	for n.parent != n {
		n.parent = n.parent.parent // path compression (halving)
		n = n.parent
	}
	return n
}

func union(a, b *typeNode) *typeNode {
	ra, rb := find(a), find(b)
	if ra == rb {
		return ra
	}
	if ra.rank < rb.rank {
		ra, rb = rb, ra
	}
	rb.parent = ra
	if ra.rank == rb.rank {
		ra.rank++
	}
	return ra
}

// merge unifies t1 and t2's equivalence classes and recursively merges
// their points-to chains. Each merge strictly reduces the number of
// classes, so the recursion terminates.
func merge(t1, t2 *typeNode) *typeNode {
	if t1 == nil && t2 == nil {
		return nil
	}
	if t1 == nil {
		return t2
	}
	if t2 == nil || t1 == t2 {
		return t1
	}

	u := union(t1, t2)
	u.pointsTo = merge(t1.pointsTo, t2.pointsTo)
	return u
}

// canonicalize assigns every node's value to its class representative's
// value. It computes each root's canonical value in one pass first, then
// applies it to every member, so the result doesn't depend on map
// iteration order.
func canonicalize(nodes map[uint64]*typeNode) {
	canonical := make(map[*typeNode]model.StmtSide)
	for _, n := range nodes {
		r := find(n)
		if _, ok := canonical[r]; !ok {
			canonical[r] = r.value
		}
	}
	for _, n := range nodes {
		n.value = canonical[find(n)]
	}
}
