// Package extractor walks a translation unit's ast.Node tree and emits
// assignment constraints between abstract memory locations. It never
// aborts on a malformed or unrecognized node: that subtree is simply
// skipped, keeping every produced result partial but consistent. No
// diagnostic is recorded for a skipped subtree; Result.Diagnostics stays
// empty.
package extractor

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/oxhq/pointa/internal/ast"
	"github.com/oxhq/pointa/internal/cache"
	"github.com/oxhq/pointa/internal/diag"
	"github.com/oxhq/pointa/internal/model"
)

const maxReturnCount = 5

var smartPointerTypes = []string{"shared_ptr", "unique_ptr", "auto_ptr", "weak_ptr"}
var allocatorNames = map[string]bool{"malloc": true, "calloc": true, "realloc": true}

// Extractor owns the per-translation-unit node cache and accumulates the
// constraints and AST node records for one file, matching the one-cache-
// per-unit concurrency rule: callers run one Extractor per worker and
// merge results into the shared store afterwards.
type Extractor struct {
	cache       *cache.NodeCache
	symbols     map[string]*ast.Node // qualified name -> declaration, this TU only
	funcs       map[string]*ast.Node // function name -> FunctionDecl, this TU only
	nodes       []model.AstNode
	constraints map[uint64]model.Constraint
	diags       diag.Bag
}

// New returns an Extractor ready to process one translation unit.
func New() *Extractor {
	return &Extractor{
		cache:       cache.New(),
		symbols:     make(map[string]*ast.Node),
		funcs:       make(map[string]*ast.Node),
		constraints: make(map[uint64]model.Constraint),
	}
}

// Result is everything an Extractor produced for one translation unit.
type Result struct {
	Constraints []model.Constraint
	Nodes       []model.AstNode
	Diagnostics diag.Bag
}

// Extract walks tu (the root of one translation unit) and returns its
// constraints and referenced AST nodes.
func (e *Extractor) Extract(tu *ast.Node) Result {
	if tu == nil {
		return Result{Diagnostics: e.diags}
	}
	e.indexFunctions(tu)
	e.visit(tu)

	out := make([]model.Constraint, 0, len(e.constraints))
	for _, c := range e.constraints {
		out = append(out, c)
	}
	return Result{Constraints: out, Nodes: e.nodes, Diagnostics: e.diags}
}

// indexFunctions records every top-level function declaration so call
// sites can resolve their callee within the same translation unit.
func (e *Extractor) indexFunctions(n *ast.Node) {
	if n == nil {
		return
	}
	if n.Kind == ast.KindFunctionDecl && n.Name != "" {
		e.funcs[n.Name] = n
	}
	for _, c := range n.Children {
		e.indexFunctions(c)
	}
}

// visit is the top-level walk: it looks for assignment sites (binary
// assignments, declarations with initializers, call-site parameter
// binding, constructor member initializers) and recurses into every
// subtree regardless of whether this node produced a constraint.
func (e *Extractor) visit(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindAssign:
		if len(n.Children) == 2 {
			lhs, rhs := n.Children[0], n.Children[1]
			if e.isPointerOrReferenceSide(lhs) {
				e.makeAssignRels(lhs, rhs)
			}
		}
	case ast.KindVarDecl, ast.KindFieldDecl:
		e.symbols[declKey(n)] = n
		if e.isPointerOrReferenceDecl(n) {
			if len(n.Children) == 0 {
				if !n.IsParam {
					e.makeUndefinedRels(n)
				}
			} else {
				e.makeAssignRels(n, n.Children[0])
			}
		}
	case ast.KindCallExpr:
		e.bindCallParams(n)
	case ast.KindCtorInit:
		if len(n.Children) == 2 {
			e.makeAssignRels(n.Children[0], n.Children[1])
		}
	}

	for _, c := range n.Children {
		e.visit(c)
	}
}

func declKey(n *ast.Node) string {
	if n.QualifiedName != "" {
		return n.QualifiedName
	}
	return n.Name
}

// isPointerOrReferenceDecl gates VarDecl/FieldDecl constraint emission on
// the declared type: pointer, reference, array, or a recognized
// smart-pointer template.
func (e *Extractor) isPointerOrReferenceDecl(n *ast.Node) bool {
	return isPointerOrReferenceType(n.TypeName)
}

// isPointerOrReferenceSide resolves an assignment's LHS expression back to
// its declaration, when known, to apply the same type gate. Unresolvable
// sides (e.g. a member expression whose base wasn't seen as a VarDecl) are
// conservatively treated as eligible, since under-approximating here would
// silently drop real aliasing.
func (e *Extractor) isPointerOrReferenceSide(n *ast.Node) bool {
	ref := leftmostDeclRef(n)
	if ref == "" {
		return true
	}
	if decl, ok := e.symbols[ref]; ok {
		return isPointerOrReferenceType(decl.TypeName)
	}
	return true
}

func leftmostDeclRef(n *ast.Node) string {
	for n != nil {
		switch n.Kind {
		case ast.KindDeclRef:
			return n.QualifiedName
		case ast.KindUnaryOp, ast.KindMemberExpr:
			if len(n.Children) == 0 {
				return ""
			}
			n = n.Children[0]
		default:
			return ""
		}
	}
	return ""
}

func isPointerOrReferenceType(typeName string) bool {
	if typeName == "" {
		return false
	}
	if strings.Contains(typeName, "*") || strings.Contains(typeName, "&") || strings.Contains(typeName, "[]") {
		return true
	}
	return isSmartPointerType(typeName)
}

func isSmartPointerType(typeName string) bool {
	for _, sp := range smartPointerTypes {
		if strings.Contains(typeName, sp) {
			return true
		}
	}
	return false
}

// bindCallParams binds call-site arguments: for a resolvable direct call,
// each argument is related to its corresponding parameter declaration as
// an assignment constraint.
func (e *Extractor) bindCallParams(call *ast.Node) {
	if call.Name == "" || len(call.Children) == 0 {
		return
	}
	callee, ok := e.funcs[call.Name]
	if !ok {
		return
	}
	params := funcParams(callee)
	args := call.Children[1:] // Children[0] is the callee expression itself
	for i := 0; i < len(params) && i < len(args); i++ {
		e.makeAssignRels(params[i], args[i])
	}
}

func funcParams(fn *ast.Node) []*ast.Node {
	var out []*ast.Node
	for _, c := range fn.Children {
		if c.Kind == ast.KindVarDecl && c.IsParam {
			out = append(out, c)
		}
	}
	return out
}

// makeUndefinedRels relates an uninitialized declaration to a synthetic
// per-site "undefined" location. The location is per declaration site so
// two uninitialized pointers never appear to alias each other.
func (e *Extractor) makeUndefinedRels(lhsDecl *ast.Node) {
	lhs := e.collect(lhsDecl, "")
	hash := e.internLoc(lhsDecl, "undefined")
	rhs := map[uint64]model.StmtSide{
		hash: model.NewStmtSide(hash, "", model.Undefined),
	}
	e.createConstraints(lhs, rhs)
}

// makeAssignRels collects both sides of an assignment-like relationship
// (declaration+initializer, binary assignment, parameter binding,
// constructor member initializer) and emits the cartesian product of
// non-trivial sides.
func (e *Extractor) makeAssignRels(lhsNode, rhsNode *ast.Node) {
	lhs := e.collect(lhsNode, "")
	rhs := e.collect(rhsNode, "")
	e.createConstraints(lhs, rhs)
}

func (e *Extractor) createConstraints(lhs, rhs map[uint64]model.StmtSide) {
	for _, l := range lhs {
		for _, r := range rhs {
			if l.Hash == 0 || r.Hash == 0 {
				continue
			}
			id := idHash(l.Hash, r.Hash)
			if _, exists := e.constraints[id]; exists {
				continue
			}
			e.constraints[id] = model.Constraint{ID: id, LHS: l, RHS: r}
		}
	}
}

// collect is the side collector: it descends through unary operators
// (accumulating the operator string) and terminates at a leaf that
// determines the StmtSide's mangled-name hash and options. The result is
// keyed by side hash, since side equality is hash-only.
func (e *Extractor) collect(n *ast.Node, operators string) map[uint64]model.StmtSide {
	out := make(map[uint64]model.StmtSide)
	e.collectInto(n, operators, false, out)
	return out
}

func (e *Extractor) collectInto(n *ast.Node, operators string, isReturn bool, out map[uint64]model.StmtSide) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindUnaryOp:
		if len(n.Children) == 0 {
			return
		}
		e.collectInto(n.Children[0], operators+string(n.Operator), isReturn, out)

	case ast.KindStringLiteral:
		hash := e.internLoc(n, "strlit")
		e.add(out, hash, operators, isReturn, model.Literal, model.GlobalObject)

	case ast.KindOtherLiteral:
		hash := e.internLoc(n, "literal")
		e.add(out, hash, operators, isReturn, model.Literal)

	case ast.KindNullPtr:
		hash := e.internLoc(n, "nullptr")
		e.add(out, hash, operators, isReturn, model.NullPtr)

	case ast.KindVarDecl, ast.KindFieldDecl, ast.KindParamDecl:
		hash := e.internDecl(n)
		opts := variableOptions(n)
		e.add(out, hash, operators, isReturn, opts...)

	case ast.KindDeclRef:
		decl, ok := e.symbols[n.QualifiedName]
		hash := e.internString(n.QualifiedName)
		var opts []model.Options
		if ok {
			opts = variableOptions(decl)
		}
		e.add(out, hash, operators, isReturn, opts...)

	case ast.KindMemberExpr:
		hash := e.internLoc(n, "member:"+n.Name)
		e.add(out, hash, operators, isReturn, model.Member)

	case ast.KindConstructExpr:
		if n.IsSmartPointerCtor {
			if len(n.Children) > 0 {
				e.collectInto(n.Children[0], operators, isReturn, out)
				return
			}
			hash := e.internLoc(n, "nullptr")
			e.add(out, hash, operators, isReturn, model.NullPtr)
			return
		}
		hash := e.internLoc(n, "ctor:"+n.TypeName)
		e.add(out, hash, operators, isReturn, model.StackObj)

	case ast.KindNewExpr:
		hash := e.internLoc(n, "new:"+n.TypeName)
		e.add(out, hash, operators, isReturn, model.HeapObj)

	case ast.KindCallExpr:
		e.collectCall(n, operators, isReturn, out)

	case ast.KindBlock:
		// A transparent wrapper (an ExprWithCleanups-style grouping
		// node): exactly one meaningful child, collapse through it
		// rather than treating the wrapper as a leaf.
		if len(n.Children) == 1 {
			e.collectInto(n.Children[0], operators, isReturn, out)
		}
	}
}

// collectCall handles the call-expression leaf: std::move is transparent,
// a resolvable callee with simple return expressions inlines those
// returns (bounded by maxReturnCount), an allocator call becomes a
// per-site HeapObj leaf, and anything else (no resolvable callee, no
// inlineable return, or budget exhaustion) degrades to a FunctionCall
// leaf.
func (e *Extractor) collectCall(n *ast.Node, operators string, isReturn bool, out map[uint64]model.StmtSide) {
	if n.IsMoveCall {
		if len(n.Children) > 1 {
			e.collectInto(n.Children[1], operators, isReturn, out)
		}
		return
	}

	callee, resolved := e.funcs[n.Name]
	returns := returnExprs(callee)

	if !resolved || len(returns) == 0 || len(returns) > maxReturnCount || allocatorNames[n.Name] || n.IsAllocatorCall {
		if n.IsAllocatorCall || allocatorNames[n.Name] {
			hash := e.internLoc(n, "alloc:"+n.Name)
			e.add(out, hash, operators, isReturn, model.HeapObj)
			return
		}
		hash := e.internLoc(n, "call:"+n.Name)
		e.add(out, hash, operators, isReturn, model.FunctionCall)
		return
	}

	for _, ret := range returns {
		e.collectInto(ret, operators, true, out)
	}
}

// returnExprs collects the expressions returned by fn's body that are
// inlineable at a call site: nullptr/NULL, a constructor or new
// expression, or a bare reference to another declaration, looking through
// any leading '*'/'&' unary wrappers (e.g. "return &x;") to classify the
// underlying leaf while still returning the wrapped node so collectInto
// accumulates those operators normally.
func returnExprs(fn *ast.Node) []*ast.Node {
	if fn == nil {
		return nil
	}
	var out []*ast.Node
	var walk func(*ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		if n.Kind == ast.KindReturnStmt {
			if len(n.Children) == 1 {
				expr := n.Children[0]
				switch inlineableLeafKind(expr).Kind {
				case ast.KindNullPtr, ast.KindConstructExpr, ast.KindNewExpr, ast.KindDeclRef:
					out = append(out, expr)
				}
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(fn)
	return out
}

// inlineableLeafKind peels leading UnaryOp ('*'/'&') wrappers off expr to
// find the node whose Kind decides whether a return expression is
// inlineable, so "return &x;" classifies on x's DeclRef, not the wrapping
// UnaryOp.
func inlineableLeafKind(expr *ast.Node) *ast.Node {
	for expr != nil && expr.Kind == ast.KindUnaryOp {
		if len(expr.Children) == 0 {
			return expr
		}
		expr = expr.Children[0]
	}
	return expr
}

func (e *Extractor) add(out map[uint64]model.StmtSide, hash uint64, operators string, isReturn bool, opts ...model.Options) {
	if isReturn {
		opts = append(opts, model.Return)
	}
	side := model.NewStmtSide(hash, operators, opts...)
	out[side.Hash] = side
}

// variableOptions classifies a declaration's storage: reference type,
// parameter, stack-vs-global, and the static-storage override to
// GlobalObject.
func variableOptions(n *ast.Node) []model.Options {
	var opts []model.Options
	if strings.Contains(n.TypeName, "&") {
		opts = append(opts, model.Reference)
	}
	if n.IsParam {
		opts = append(opts, model.Param)
	}
	if n.IsParam || (!n.IsMember && !n.IsGlobal && !n.IsStatic) {
		opts = append(opts, model.StackObj)
	} else {
		opts = append(opts, model.GlobalObject)
	}
	if n.IsStatic {
		opts = append(opts, model.GlobalObject)
	}
	return opts
}

// internDecl assigns (and caches) a mangled-name hash for a declaration;
// the cache guarantees one AstNode record per distinct hash.
func (e *Extractor) internDecl(n *ast.Node) uint64 {
	key := declKey(n)
	hash := fnvHash(key)
	if e.cache.Insert(hash, hash) {
		e.nodes = append(e.nodes, model.AstNode{
			ID: hash, MangledName: key, MangledHash: hash,
			File: n.Loc.File, Line: n.Loc.Line, Column: n.Loc.Column,
			SymbolType: "Decl",
		})
	}
	return hash
}

// internLoc builds a location-qualified mangled name for a node that has
// no stable declaration identity (a literal, a `new`-site, a call, a
// member access): value plus file:line:column, so distinct textual
// occurrences get distinct hashes.
func (e *Extractor) internLoc(n *ast.Node, value string) uint64 {
	key := value + suffixFromLoc(n.Loc)
	hash := fnvHash(key)
	if e.cache.Insert(hash, hash) {
		e.nodes = append(e.nodes, model.AstNode{
			ID: hash, MangledName: key, MangledHash: hash,
			File: n.Loc.File, Line: n.Loc.Line, Column: n.Loc.Column,
			SymbolType: "Other",
		})
	}
	return hash
}

func (e *Extractor) internString(value string) uint64 {
	return fnvHash(value)
}

func suffixFromLoc(loc ast.Location) string {
	return ":" + loc.File + ":" + strconv.Itoa(loc.Line) + ":" + strconv.Itoa(loc.Column)
}

// fnvHash delegates to model.HashString so every caller that derives a
// hash from a name (the extractor, and cmd/pointa's seed lookup) shares
// one implementation.
func fnvHash(s string) uint64 {
	return model.HashString(s)
}

// idHash combines two StmtSide hashes into a Constraint id: the hash of
// the decimal concatenation of both sides' hashes.
func idHash(lhs, rhs uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strconv.FormatUint(lhs, 10)))
	_, _ = h.Write([]byte(strconv.FormatUint(rhs, 10)))
	return h.Sum64()
}
