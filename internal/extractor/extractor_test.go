package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/pointa/internal/ast"
	"github.com/oxhq/pointa/internal/model"
)

func varDecl(name, typeName string) *ast.Node {
	return &ast.Node{Kind: ast.KindVarDecl, Name: name, QualifiedName: name, TypeName: typeName}
}

func declRef(name string) *ast.Node {
	return &ast.Node{Kind: ast.KindDeclRef, Name: name, QualifiedName: name}
}

func unary(op byte, arg *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindUnaryOp, Operator: op, Children: []*ast.Node{arg}}
}

func withInit(decl, init *ast.Node) *ast.Node {
	decl.Children = append(decl.Children, init)
	return decl
}

func tu(children ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindTranslationUnit, Children: children}
}

// int a = 0; int* p = &a; -> one constraint p <- &a.
func TestDirectAssignment(t *testing.T) {
	a := varDecl("a", "int")
	p := withInit(varDecl("p", "int*"), unary('&', declRef("a")))

	ex := New()
	res := ex.Extract(tu(a, p))

	require.Len(t, res.Constraints, 1)
	c := res.Constraints[0]
	assert.Equal(t, "", c.LHS.Operators)
	assert.Equal(t, "&", c.RHS.Operators)
	assert.True(t, c.IsSimple())
}

// int* p = nullptr; -> RHS carries NullPtr.
func TestNullInit(t *testing.T) {
	p := withInit(varDecl("p", "int*"), &ast.Node{Kind: ast.KindNullPtr})

	ex := New()
	res := ex.Extract(tu(p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.NullPtr))
}

// int* p = new int; -> RHS is a per-site HeapObj node.
func TestHeapAllocation(t *testing.T) {
	newExpr := &ast.Node{Kind: ast.KindNewExpr, TypeName: "int"}
	p := withInit(varDecl("p", "int*"), newExpr)

	ex := New()
	res := ex.Extract(tu(p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.HeapObj))
}

// int a; int* p = &a; int** q = &p; -> two chained constraints.
func TestChainedPointers(t *testing.T) {
	a := varDecl("a", "int")
	p := withInit(varDecl("p", "int*"), unary('&', declRef("a")))
	q := withInit(varDecl("q", "int**"), unary('&', declRef("p")))

	ex := New()
	res := ex.Extract(tu(a, p, q))

	require.Len(t, res.Constraints, 2)
}

// Return-flow inlining: int* f(){ static int x; return &x; }
// int* p = f(); -> the call collapses to x's side with Return added.
func TestReturnInlining(t *testing.T) {
	x := varDecl("x", "int")
	x.IsStatic = true
	ret := &ast.Node{Kind: ast.KindReturnStmt, Children: []*ast.Node{unary('&', declRef("x"))}}
	body := &ast.Node{Kind: ast.KindBlock, Children: []*ast.Node{x, ret}}
	f := &ast.Node{Kind: ast.KindFunctionDecl, Name: "f", Children: []*ast.Node{body}}

	call := &ast.Node{Kind: ast.KindCallExpr, Name: "f", Children: []*ast.Node{declRef("f")}}
	p := withInit(varDecl("p", "int*"), call)

	ex := New()
	res := ex.Extract(tu(f, p))

	require.Len(t, res.Constraints, 1)
	c := res.Constraints[0]
	assert.Equal(t, "&", c.RHS.Operators)
	assert.True(t, c.RHS.Has(model.Return))
	assert.True(t, c.RHS.Has(model.GlobalObject)) // x is static -> GlobalObject
}

// Move is transparent: T* p = std::move(q); is identical to p = q.
func TestMoveIsTransparent(t *testing.T) {
	q := varDecl("q", "T*")
	q.IsParam = true // avoid an unrelated undefined-storage constraint for q itself
	moveCall := &ast.Node{
		Kind:       ast.KindCallExpr,
		Name:       "move",
		IsMoveCall: true,
		Children:   []*ast.Node{declRef("move"), declRef("q")},
	}
	p := withInit(varDecl("p", "T*"), moveCall)

	ex := New()
	res := ex.Extract(tu(q, p))

	require.Len(t, res.Constraints, 1)
	c := res.Constraints[0]
	assert.Equal(t, "", c.LHS.Operators)
	assert.Equal(t, "", c.RHS.Operators)
}

// std::shared_ptr<T> s(new T); -> the constructor is unwrapped, RHS is
// the HeapObj per-site node, not the constructor call itself.
func TestSmartPointerConstructionUnwraps(t *testing.T) {
	newExpr := &ast.Node{Kind: ast.KindNewExpr, TypeName: "T"}
	ctor := &ast.Node{
		Kind:               ast.KindConstructExpr,
		TypeName:           "std::shared_ptr<T>",
		IsSmartPointerCtor: true,
		Children:           []*ast.Node{newExpr},
	}
	s := withInit(varDecl("s", "std::shared_ptr<T>"), ctor)

	ex := New()
	res := ex.Extract(tu(s))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.HeapObj))
	assert.False(t, res.Constraints[0].RHS.Has(model.StackObj))
}

// A smart pointer constructed with no arguments degrades to NullPtr.
func TestSmartPointerConstructionNoArgsIsNullPtr(t *testing.T) {
	ctor := &ast.Node{
		Kind:               ast.KindConstructExpr,
		TypeName:           "std::unique_ptr<T>",
		IsSmartPointerCtor: true,
	}
	s := withInit(varDecl("s", "std::unique_ptr<T>"), ctor)

	ex := New()
	res := ex.Extract(tu(s))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.NullPtr))
}

// A plain (non-smart-pointer) constructor expression emits a per-site
// StackObj node, not an unwrap.
func TestPlainConstructorIsStackObj(t *testing.T) {
	ctor := &ast.Node{Kind: ast.KindConstructExpr, TypeName: "Widget"}
	w := withInit(varDecl("w", "Widget&"), ctor)

	ex := New()
	res := ex.Extract(tu(w))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.StackObj))
}

// void f(int* q); int a; f(&a); -> constraint q <- &a via parameter
// binding at the call site.
func TestParameterPassing(t *testing.T) {
	q := varDecl("q", "int*")
	q.IsParam = true
	f := &ast.Node{Kind: ast.KindFunctionDecl, Name: "f", Children: []*ast.Node{q}}

	a := varDecl("a", "int")
	call := &ast.Node{
		Kind:     ast.KindCallExpr,
		Name:     "f",
		Children: []*ast.Node{declRef("f"), unary('&', declRef("a"))},
	}

	ex := New()
	res := ex.Extract(tu(f, a, call))

	require.Len(t, res.Constraints, 1)
	c := res.Constraints[0]
	assert.Equal(t, "", c.LHS.Operators)
	assert.Equal(t, "&", c.RHS.Operators)
}

// A non-pointer assignment is gated out entirely (the extractor's gate:
// only pointer/reference/array/smart-pointer LHS types emit constraints).
func TestNonPointerAssignmentIsGatedOut(t *testing.T) {
	a := varDecl("a", "int")
	b := withInit(varDecl("b", "int"), declRef("a"))

	ex := New()
	res := ex.Extract(tu(a, b))

	assert.Empty(t, res.Constraints)
}

// An uninitialized pointer-typed local declaration (not a parameter) emits
// an undefined-storage constraint.
func TestUninitializedDeclEmitsUndefined(t *testing.T) {
	p := varDecl("p", "int*")

	ex := New()
	res := ex.Extract(tu(p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.Undefined))
}

// An uninitialized pointer-typed parameter emits no constraint here
// (parameters are bound at the call site instead).
func TestUninitializedParamEmitsNoConstraint(t *testing.T) {
	p := varDecl("p", "int*")
	p.IsParam = true
	f := &ast.Node{Kind: ast.KindFunctionDecl, Name: "f", Children: []*ast.Node{p}}

	ex := New()
	res := ex.Extract(tu(f))

	assert.Empty(t, res.Constraints)
}

// A call to a name the extractor cannot resolve to a same-translation-unit
// FunctionDecl (whether a function-pointer call or an extern declaration)
// degrades to an opaque FunctionCall leaf rather than crashing.
func TestUnresolvedCalleeDegradesToFunctionCall(t *testing.T) {
	call := &ast.Node{Kind: ast.KindCallExpr, Name: "fp", Children: []*ast.Node{declRef("fp")}}
	p := withInit(varDecl("p", "int*"), call)

	ex := New()
	res := ex.Extract(tu(p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.FunctionCall))
}

// malloc/calloc/realloc calls are HeapObj sources, matching the C
// allocator whitelist, even though they are "unresolved" (no FunctionDecl
// body to inline returns from).
func TestAllocatorCallIsHeapObj(t *testing.T) {
	call := &ast.Node{Kind: ast.KindCallExpr, Name: "malloc", Children: []*ast.Node{declRef("malloc")}}
	p := withInit(varDecl("p", "int*"), call)

	ex := New()
	res := ex.Extract(tu(p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.HeapObj))
	assert.False(t, res.Constraints[0].RHS.Has(model.FunctionCall))
}

// Beyond maxReturnCount return sites, the call degrades to an opaque
// FunctionCall leaf instead of inlining.
func TestReturnBudgetDegradesToFunctionCall(t *testing.T) {
	var stmts []*ast.Node
	for i := 0; i < maxReturnCount+1; i++ {
		name := string(rune('a' + i))
		stmts = append(stmts, varDecl(name, "int"))
		stmts = append(stmts, &ast.Node{
			Kind:     ast.KindReturnStmt,
			Children: []*ast.Node{unary('&', declRef(name))},
		})
	}
	body := &ast.Node{Kind: ast.KindBlock, Children: stmts}
	f := &ast.Node{Kind: ast.KindFunctionDecl, Name: "f", Children: []*ast.Node{body}}

	call := &ast.Node{Kind: ast.KindCallExpr, Name: "f", Children: []*ast.Node{declRef("f")}}
	p := withInit(varDecl("p", "int*"), call)

	ex := New()
	res := ex.Extract(tu(f, p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.FunctionCall))
}

// A call with zero inlineable returns (e.g. the body never returns a
// nullptr/ctor/new/declref) also degrades to FunctionCall.
func TestCallWithNoInlineableReturnsDegradesToFunctionCall(t *testing.T) {
	body := &ast.Node{Kind: ast.KindBlock}
	f := &ast.Node{Kind: ast.KindFunctionDecl, Name: "f", Children: []*ast.Node{body}}
	call := &ast.Node{Kind: ast.KindCallExpr, Name: "f", Children: []*ast.Node{declRef("f")}}
	p := withInit(varDecl("p", "int*"), call)

	ex := New()
	res := ex.Extract(tu(f, p))

	require.Len(t, res.Constraints, 1)
	assert.True(t, res.Constraints[0].RHS.Has(model.FunctionCall))
}

// Constructor-initializer-list members are related to their init
// expressions as assignment constraints, per the extraction rule for
// "Constructor initializer list": emit(collect(member), collect(init)).
func TestConstructorInitializerListMember(t *testing.T) {
	a := varDecl("a", "int")
	member := &ast.Node{Kind: ast.KindMemberExpr, Name: "ptr_"}
	init := &ast.Node{Kind: ast.KindCtorInit, Children: []*ast.Node{member, unary('&', declRef("a"))}}

	ex := New()
	res := ex.Extract(tu(a, init))

	require.Len(t, res.Constraints, 1)
	c := res.Constraints[0]
	assert.True(t, c.LHS.Has(model.Member))
	assert.Equal(t, "&", c.RHS.Operators)
}

// String literals get fresh per-occurrence nodes with Literal+GlobalObject.
func TestStringLiteralLeaf(t *testing.T) {
	lit := &ast.Node{Kind: ast.KindStringLiteral}
	p := withInit(varDecl("p", "const char*"), lit)

	ex := New()
	res := ex.Extract(tu(p))

	require.Len(t, res.Constraints, 1)
	rhs := res.Constraints[0].RHS
	assert.True(t, rhs.Has(model.Literal))
	assert.True(t, rhs.Has(model.GlobalObject))
}

// Every emitted constraint has non-zero hashes on both sides.
func TestSoundnessByConstructionNonZeroHashes(t *testing.T) {
	a := varDecl("a", "int")
	p := withInit(varDecl("p", "int*"), unary('&', declRef("a")))

	ex := New()
	res := ex.Extract(tu(a, p))

	for _, c := range res.Constraints {
		assert.NotZero(t, c.LHS.Hash)
		assert.NotZero(t, c.RHS.Hash)
	}
}

// Operators are drawn only from {'*', '&'}.
func TestOperatorAlphabet(t *testing.T) {
	a := varDecl("a", "int")
	p := withInit(varDecl("p", "int**"), unary('&', unary('*', declRef("a"))))

	ex := New()
	res := ex.Extract(tu(a, p))

	for _, c := range res.Constraints {
		for _, op := range c.LHS.Operators + c.RHS.Operators {
			assert.Contains(t, "*&", string(op))
		}
	}
}

// Extraction is idempotent: running Extract twice (fresh Extractors,
// same AST) produces the same set of constraint IDs.
func TestIdempotentExtraction(t *testing.T) {
	build := func() *ast.Node {
		a := varDecl("a", "int")
		p := withInit(varDecl("p", "int*"), unary('&', declRef("a")))
		return tu(a, p)
	}

	res1 := New().Extract(build())
	res2 := New().Extract(build())

	ids1 := idSet(res1.Constraints)
	ids2 := idSet(res2.Constraints)
	assert.Equal(t, ids1, ids2)
}

// Duplicate constraints (same lhs/rhs hash pair emitted twice) are
// deduplicated by ID.
func TestDuplicateConstraintsAreDeduped(t *testing.T) {
	a := varDecl("a", "int")
	p1 := withInit(varDecl("p", "int*"), unary('&', declRef("a")))

	ex := New()
	res := ex.Extract(tu(a, p1))
	before := len(res.Constraints)

	// Re-run the same assignment through makeAssignRels directly: same
	// declaration key, same hash, same resulting constraint ID.
	ex.makeAssignRels(varDecl("p", "int*"), unary('&', declRef("a")))
	out := make([]model.Constraint, 0, len(ex.constraints))
	for _, c := range ex.constraints {
		out = append(out, c)
	}
	assert.Len(t, out, before)
}

func idSet(cs []model.Constraint) map[uint64]bool {
	out := make(map[uint64]bool, len(cs))
	for _, c := range cs {
		out[c.ID] = true
	}
	return out
}
