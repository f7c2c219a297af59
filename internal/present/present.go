// Package present turns a solver's output plus an AST-node lookup into a
// renderer-agnostic graph of nodes and edges with styling hints. It does
// no rendering itself; an external diagram renderer consumes the Graph.
package present

import (
	"context"
	"strconv"

	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/internal/solver/andersen"
	"github.com/oxhq/pointa/internal/solver/steensgaard"
)

// Container names the memory subgraph a node is placed into.
type Container string

const (
	ContainerHeap    Container = "heap"
	ContainerStack   Container = "stack"
	ContainerGlobal  Container = "global"
	ContainerDefault Container = ""
)

// Shape is the node decoration hint derived from a side's options.
type Shape string

const (
	ShapeDefault   Shape = ""
	ShapeHexagon   Shape = "hexagon"          // FunctionCall
	ShapeNullRect  Shape = "filled-nullptr"   // NullPtr: filled rectangle
	ShapeUndefRect Shape = "filled-undefined" // Undefined: filled rectangle, distinct color
	ShapeRect      Shape = "rect"             // HeapObj or Literal
)

// Node is one location in the presented graph.
type Node struct {
	ID        string
	Label     string
	Container Container
	Shape     Shape
	Highlight bool // true for the query's seed node
}

// Edge is one points-to relationship.
type Edge struct {
	From   string
	To     string
	Dashed bool // true when From's side carries the Reference option
}

// Graph is the presenter's pure output: renderer-agnostic nodes and edges.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// AstLookup resolves a side's hash to its AST node record; internal/store
// satisfies this via its AstNode method.
type AstLookup func(ctx context.Context, hash uint64) (model.AstNode, bool, error)

// graphBuilder accumulates nodes/edges while resolving AST records
// through lookup, deduplicating nodes by ID.
type graphBuilder struct {
	ctx    context.Context
	lookup AstLookup
	seed   uint64
	seen   map[string]bool
	graph  Graph
}

func newBuilder(ctx context.Context, lookup AstLookup, seed uint64) *graphBuilder {
	return &graphBuilder{ctx: ctx, lookup: lookup, seed: seed, seen: map[string]bool{}}
}

func (b *graphBuilder) node(side model.StmtSide) (string, bool) {
	id := strconv.FormatUint(side.Hash, 10)
	if b.seen[id] {
		return id, true
	}
	astNode, ok, err := b.lookup(b.ctx, side.Hash)
	if err != nil || !ok {
		// No AST record for this hash: omit the node, keep the rest of
		// the result.
		return "", false
	}
	b.seen[id] = true
	b.graph.Nodes = append(b.graph.Nodes, Node{
		ID:        id,
		Label:     astNode.MangledName,
		Container: container(side),
		Shape:     shape(side),
		Highlight: side.Hash == b.seed,
	})
	return id, true
}

func (b *graphBuilder) edge(lhs, rhs model.StmtSide) {
	fromID, ok := b.node(lhs)
	if !ok {
		return
	}
	toID, ok := b.node(rhs)
	if !ok {
		return
	}
	b.graph.Edges = append(b.graph.Edges, Edge{From: fromID, To: toID, Dashed: lhs.IsReference()})
}

// container maps a side's options to its memory-model subgraph,
// first-match: HeapObj, then StackObj, then GlobalObject.
func container(s model.StmtSide) Container {
	if s.Has(model.HeapObj) {
		return ContainerHeap
	}
	if s.Has(model.StackObj) {
		return ContainerStack
	}
	if s.Has(model.GlobalObject) {
		return ContainerGlobal
	}
	return ContainerDefault
}

// shape maps a side's options to its node decoration.
// FunctionCall/NullPtr/Undefined take priority over HeapObj/Literal; the
// extractor never sets more than one of these at once in practice, so
// first-match is safe.
func shape(s model.StmtSide) Shape {
	if s.Has(model.FunctionCall) {
		return ShapeHexagon
	}
	if s.Has(model.NullPtr) {
		return ShapeNullRect
	}
	if s.Has(model.Undefined) {
		return ShapeUndefRect
	}
	if s.Has(model.HeapObj) || s.Has(model.Literal) {
		return ShapeRect
	}
	return ShapeDefault
}

// FromAndersen builds a Graph from an Andersen points-to set: one node
// per distinct location, one edge per (lhs, rhs) pair in the points-to
// set.
func FromAndersen(ctx context.Context, pt *andersen.PointsToSet, seed uint64, lookup AstLookup) Graph {
	b := newBuilder(ctx, lookup, seed)
	for _, h := range pt.Hashes() {
		lhsSide, ok := pt.Rep(h)
		if !ok {
			continue
		}
		for _, rhsSide := range pt.Of(h) {
			b.edge(lhsSide, rhsSide)
		}
	}
	return b.graph
}

// FromSteensgaard builds a Graph from a Steensgaard result: one edge per
// tracked side, from its own declaration-site side (for
// decoration/identity) to its class's single canonicalized points-to
// target.
func FromSteensgaard(ctx context.Context, res *steensgaard.Result, seed uint64, lookup AstLookup) Graph {
	b := newBuilder(ctx, lookup, seed)
	for _, h := range res.Hashes() {
		lhsSide, ok := res.Original(h)
		if !ok {
			continue
		}
		rhsSide, ok := res.PointsTo(h)
		if !ok {
			continue
		}
		b.edge(lhsSide, rhsSide)
	}
	return b.graph
}
