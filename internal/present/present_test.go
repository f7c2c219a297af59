package present

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/pointa/internal/model"
	"github.com/oxhq/pointa/internal/solver/andersen"
	"github.com/oxhq/pointa/internal/solver/steensgaard"
)

func fakeLookup(nodes map[uint64]model.AstNode) AstLookup {
	return func(_ context.Context, hash uint64) (model.AstNode, bool, error) {
		n, ok := nodes[hash]
		return n, ok, nil
	}
}

func TestContainerPriority(t *testing.T) {
	assert.Equal(t, ContainerHeap, container(model.NewStmtSide(1, "", model.HeapObj, model.StackObj)))
	assert.Equal(t, ContainerStack, container(model.NewStmtSide(1, "", model.StackObj, model.GlobalObject)))
	assert.Equal(t, ContainerGlobal, container(model.NewStmtSide(1, "", model.GlobalObject)))
	assert.Equal(t, ContainerDefault, container(model.NewStmtSide(1, "")))
}

func TestShapeMapping(t *testing.T) {
	assert.Equal(t, ShapeHexagon, shape(model.NewStmtSide(1, "", model.FunctionCall)))
	assert.Equal(t, ShapeNullRect, shape(model.NewStmtSide(1, "", model.NullPtr)))
	assert.Equal(t, ShapeUndefRect, shape(model.NewStmtSide(1, "", model.Undefined)))
	assert.Equal(t, ShapeRect, shape(model.NewStmtSide(1, "", model.HeapObj)))
	assert.Equal(t, ShapeDefault, shape(model.NewStmtSide(1, "")))
}

func TestFromAndersenHighlightsSeed(t *testing.T) {
	a := model.NewStmtSide(1, "")
	p := model.NewStmtSide(2, "")

	stmts := []model.Constraint{{ID: 1, LHS: p, RHS: model.NewStmtSide(a.Hash, "&")}}
	pt := andersen.Run(stmts, nil)

	lookup := fakeLookup(map[uint64]model.AstNode{
		p.Hash: {MangledName: "p"},
		a.Hash: {MangledName: "a"},
	})

	g := FromAndersen(context.Background(), pt, p.Hash, lookup)

	require.Len(t, g.Edges, 1)
	var seedHighlighted bool
	for _, n := range g.Nodes {
		if n.Label == "p" {
			seedHighlighted = n.Highlight
		}
	}
	assert.True(t, seedHighlighted)
}

func TestFromAndersenOmitsNodesMissingAstData(t *testing.T) {
	a := model.NewStmtSide(10, "")
	p := model.NewStmtSide(11, "")

	stmts := []model.Constraint{{ID: 1, LHS: p, RHS: model.NewStmtSide(a.Hash, "&")}}
	pt := andersen.Run(stmts, nil)

	// No AST data for either hash: the graph must omit the edge rather
	// than error.
	g := FromAndersen(context.Background(), pt, p.Hash, fakeLookup(nil))
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestFromSteensgaardBuildsOneEdgePerClass(t *testing.T) {
	a := model.NewStmtSide(20, "")
	p := model.NewStmtSide(21, "")

	stmts := []model.Constraint{{ID: 1, LHS: p, RHS: model.NewStmtSide(a.Hash, "&")}}
	res := steensgaard.Run(stmts)

	lookup := fakeLookup(map[uint64]model.AstNode{
		p.Hash: {MangledName: "p"},
		a.Hash: {MangledName: "a"},
	})

	g := FromSteensgaard(context.Background(), res, p.Hash, lookup)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 2, len(g.Nodes))
}
