// Package ast defines the AST source interface consumed by the constraint
// extractor. A node is a flat tagged union: one Kind enum plus
// kind-specific fields, matched with a switch on Kind rather than
// double-dispatch visitor methods.
package ast

// Kind enumerates the constructs the extractor understands. Anything else
// encountered in a real tree is treated as opaque and skipped.
type Kind int

const (
	KindUnknown Kind = iota
	KindTranslationUnit
	KindFunctionDecl
	KindVarDecl
	KindFieldDecl
	KindParamDecl
	KindAssign     // lhs = rhs, or a compound assignment
	KindDeclRef    // reference to a previously declared name
	KindMemberExpr // a.b or a->b
	KindUnaryOp    // *expr or &expr
	KindCallExpr
	KindNewExpr
	KindConstructExpr
	KindReturnStmt
	KindNullPtr
	KindStringLiteral
	KindOtherLiteral
	KindBlock
	KindCtorInit // one member initializer in a constructor's initializer list
)

// Location pins a node to a source position; Line/Column are 1-based.
type Location struct {
	File   string
	Line   int
	Column int
}

// Node is the tagged union consumed by the extractor. Only the fields
// relevant to Kind are populated by a given producer; the rest are left at
// their zero value.
type Node struct {
	Kind Kind
	Loc  Location

	// Identity, for declarations and references.
	Name          string // declared or referenced identifier
	QualifiedName string // best-effort scope-qualified identifier
	TypeName      string // textual spelling of the static type, if known

	// Declaration context flags, used to classify a VarDecl/FieldDecl's
	// storage: static, member, parameter, or file-scope.
	IsStatic bool
	IsParam  bool
	IsMember bool
	IsGlobal bool

	// Unary operator, set only for KindUnaryOp: '*' or '&'.
	Operator byte

	// Children, in source order. Their meaning is Kind-dependent:
	//   Assign:         [0]=lhs, [1]=rhs
	//   UnaryOp:        [0]=operand
	//   MemberExpr:     [0]=base
	//   CallExpr:       [0]=callee, [1:]=args
	//   NewExpr:        [0:]=constructor args, if any
	//   ConstructExpr:  [0:]=constructor args, if any
	//   ReturnStmt:     [0]=returned expression, if any
	//   CtorInit:       [0]=member side, [1]=init expression
	//   Block/TranslationUnit/FunctionDecl: statements/members
	Children []*Node

	// ResolvedCallee points at the FunctionDecl this CallExpr invokes, if
	// the producer resolved it; nil otherwise. The bundled tree-sitter
	// adapter never sets it, and the extractor does not read it: the
	// extractor resolves a callee by name among the translation unit's
	// FunctionDecls.
	ResolvedCallee *Node

	// IsSmartPointerCtor marks a ConstructExpr whose type is one of the
	// recognized smart-pointer templates (shared_ptr, unique_ptr,
	// auto_ptr, weak_ptr), gating the recursive-into-first-argument rule.
	IsSmartPointerCtor bool

	// IsAllocatorCall marks a CallExpr to a whitelisted C allocator
	// (malloc/calloc/realloc), which the extractor treats as a HeapObj
	// source rather than an unresolved FunctionCall.
	IsAllocatorCall bool

	// IsMoveCall marks a CallExpr to std::move, which is transparent: the
	// extractor evaluates straight through to its single argument.
	IsMoveCall bool
}

// Source is implemented by an AST producer: something that can turn a
// translation unit's raw bytes into a Node tree. The constraint extractor
// depends only on this interface, never on a concrete parser.
type Source interface {
	Parse(filename string, content []byte) (*Node, error)
}
