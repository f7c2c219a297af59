// Package treesitter is the default ast.Source implementation: it lowers
// a tree-sitter C/C++ parse tree into the tagged-union internal/ast
// representation the constraint extractor consumes.
//
// This adapter does not attempt real semantic analysis (no type checking,
// no overload resolution, no macro expansion): a node's QualifiedName,
// which the extractor hashes as its mangled name, is the identifier text
// as written in the source, with no scope path or type text added. The
// extractor keeps per-occurrence nodes (literals, new-sites) distinct by
// appending their source location.
package treesitter

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/oxhq/pointa/internal/ast"
)

// smartPointerTypes lists the templates the extractor treats as
// transparent smart-pointer wrappers.
var smartPointerTypes = map[string]bool{
	"shared_ptr": true,
	"unique_ptr": true,
	"auto_ptr":   true,
	"weak_ptr":   true,
}

// allocatorNames lists the C allocation functions treated as HeapObj
// sources.
var allocatorNames = map[string]bool{
	"malloc":  true,
	"calloc":  true,
	"realloc": true,
}

// Source parses C/C++ translation units with tree-sitter and lowers them
// into ast.Node trees.
type Source struct {
	lang *sitter.Language
}

// New returns a Source bound to the cpp grammar.
func New() *Source {
	return &Source{lang: cpp.GetLanguage()}
}

// Parse implements ast.Source.
func (s *Source) Parse(filename string, content []byte) (*ast.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(s.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("treesitter: parse %s: %w", filename, err)
	}

	b := &builder{filename: filename, src: content}
	return b.lower(tree.RootNode()), nil
}

type builder struct {
	filename string
	src      []byte
}

func (b *builder) loc(n *sitter.Node) ast.Location {
	p := n.StartPoint()
	return ast.Location{File: b.filename, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (b *builder) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(b.src)
}

// lower dispatches on the tree-sitter node type.
func (b *builder) lower(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "translation_unit":
		return b.lowerBlock(n, ast.KindTranslationUnit)
	case "function_definition":
		return b.lowerFunctionDefinition(n)
	case "declaration", "field_declaration", "parameter_declaration":
		return b.lowerDeclaration(n)
	case "init_declarator":
		return b.lowerInitDeclarator(n)
	case "assignment_expression":
		return b.lowerAssignment(n)
	case "pointer_expression":
		return b.lowerUnary(n)
	case "identifier", "field_identifier":
		return b.lowerDeclRef(n)
	case "qualified_identifier":
		return b.lowerDeclRef(n)
	case "field_expression":
		return b.lowerMemberExpr(n)
	case "call_expression":
		return b.lowerCallExpr(n)
	case "new_expression":
		return b.lowerNewExpr(n)
	case "return_statement":
		return b.lowerReturn(n)
	case "null", "nullptr":
		return &ast.Node{Kind: ast.KindNullPtr, Loc: b.loc(n)}
	case "string_literal", "raw_string_literal":
		return &ast.Node{Kind: ast.KindStringLiteral, Loc: b.loc(n)}
	case "number_literal", "char_literal", "true", "false":
		return &ast.Node{Kind: ast.KindOtherLiteral, Loc: b.loc(n)}
	case "compound_statement":
		return b.lowerBlock(n, ast.KindBlock)
	default:
		return b.lowerGeneric(n)
	}
}

// lowerGeneric wraps any node type not specifically handled in a Block
// carrying its named children, so extraction can still descend through
// wrapper constructs (the grammar's equivalent of ExprWithCleanups).
func (b *builder) lowerGeneric(n *sitter.Node) *ast.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	if count == 1 {
		return b.lower(n.NamedChild(0))
	}
	return b.lowerBlock(n, ast.KindBlock)
}

func (b *builder) lowerBlock(n *sitter.Node, kind ast.Kind) *ast.Node {
	node := &ast.Node{Kind: kind, Loc: b.loc(n)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := b.lower(n.NamedChild(i)); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func (b *builder) lowerFunctionDefinition(n *sitter.Node) *ast.Node {
	declarator := n.ChildByFieldName("declarator")
	name := ""
	if declarator != nil {
		name = b.functionDeclaratorName(declarator)
	}
	node := &ast.Node{Kind: ast.KindFunctionDecl, Loc: b.loc(n), Name: name, QualifiedName: name}
	node.Children = append(node.Children, b.functionParams(declarator)...)
	node.Children = append(node.Children, b.ctorInitializers(n)...)
	if body := n.ChildByFieldName("body"); body != nil {
		if lowered := b.lower(body); lowered != nil {
			node.Children = append(node.Children, lowered)
		}
	}
	return node
}

// functionParams descends through declarator wrappers to the
// function_declarator and lowers its parameter_list into parameter
// declarations, giving the extractor a list to bind call-site arguments
// against.
func (b *builder) functionParams(n *sitter.Node) []*ast.Node {
	for n != nil {
		if n.Type() == "function_declarator" {
			params := n.ChildByFieldName("parameters")
			if params == nil {
				return nil
			}
			var out []*ast.Node
			for i := 0; i < int(params.NamedChildCount()); i++ {
				p := params.NamedChild(i)
				if p.Type() != "parameter_declaration" {
					continue
				}
				if decl := b.lowerDeclaration(p); decl != nil {
					out = append(out, decl)
				}
			}
			return out
		}
		if d := n.ChildByFieldName("declarator"); d != nil {
			n = d
			continue
		}
		break
	}
	return nil
}

// ctorInitializers lowers a constructor's member-initializer list, if
// present, into one KindCtorInit node per "member(expr)" or
// "member{expr}" entry; the extractor relates each member to its first
// init argument as an assignment.
func (b *builder) ctorInitializers(n *sitter.Node) []*ast.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Type() != "field_initializer_list" {
			continue
		}
		var out []*ast.Node
		for j := 0; j < int(child.NamedChildCount()); j++ {
			fi := child.NamedChild(j)
			if fi.Type() != "field_initializer" {
				continue
			}
			if ctorInit := b.lowerFieldInitializer(fi); ctorInit != nil {
				out = append(out, ctorInit)
			}
		}
		return out
	}
	return nil
}

// lowerFieldInitializer handles one member-initializer entry. Base-class
// initializers (whose target is a type rather than a field) are skipped:
// they don't name a pointer-valued member for the StmtSide model to track.
func (b *builder) lowerFieldInitializer(n *sitter.Node) *ast.Node {
	if n.NamedChildCount() < 2 {
		return nil
	}
	fieldNode := n.NamedChild(0)
	if fieldNode.Type() != "field_identifier" {
		return nil
	}
	member := &ast.Node{Kind: ast.KindMemberExpr, Loc: b.loc(n), Name: b.text(fieldNode)}

	var init *ast.Node
	for i := 1; i < int(n.NamedChildCount()); i++ {
		arg := n.NamedChild(i)
		if arg.Type() == "argument_list" || arg.Type() == "initializer_list" {
			if arg.NamedChildCount() > 0 {
				init = b.lower(arg.NamedChild(0))
			}
			continue
		}
		if init == nil {
			init = b.lower(arg)
		}
	}
	if init == nil {
		return nil
	}
	return &ast.Node{Kind: ast.KindCtorInit, Loc: b.loc(n), Children: []*ast.Node{member, init}}
}

// functionDeclaratorName descends through pointer/reference/function
// declarator wrappers to find the innermost identifier.
func (b *builder) functionDeclaratorName(n *sitter.Node) string {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "qualified_identifier":
			return b.text(n)
		default:
			if d := n.ChildByFieldName("declarator"); d != nil {
				n = d
				continue
			}
			return b.text(n)
		}
	}
	return ""
}

func (b *builder) lowerDeclaration(n *sitter.Node) *ast.Node {
	typeNode := n.ChildByFieldName("type")
	typeName := b.text(typeNode)
	isParam := n.Type() == "parameter_declaration"
	isMember := n.Type() == "field_declaration"
	isStatic := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "storage_class_specifier" && b.text(n.Child(i)) == "static" {
			isStatic = true
		}
	}

	block := &ast.Node{Kind: ast.KindBlock, Loc: b.loc(n)}
	declarator := n.ChildByFieldName("declarator")
	if declarator == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child == typeNode {
			continue
		}
		decl := b.lowerDeclarator(child, typeName, isParam, isMember, isStatic)
		if decl != nil {
			block.Children = append(block.Children, decl)
		}
	}
	if len(block.Children) == 1 {
		return block.Children[0]
	}
	return block
}

func (b *builder) lowerInitDeclarator(n *sitter.Node) *ast.Node {
	return b.lowerDeclarator(n, "", false, false, false)
}

// lowerDeclarator handles both a bare identifier/pointer-declarator and
// an init_declarator (identifier '=' initializer), carrying the storage
// classification flags down to the declared identifier.
func (b *builder) lowerDeclarator(n *sitter.Node, typeName string, isParam, isMember, isStatic bool) *ast.Node {
	switch n.Type() {
	case "init_declarator":
		declarator := n.ChildByFieldName("declarator")
		value := n.ChildByFieldName("value")
		decl := b.lowerDeclarator(declarator, typeName, isParam, isMember, isStatic)
		if decl == nil {
			return nil
		}
		if value != nil {
			if init := b.lower(value); init != nil {
				decl.Children = append(decl.Children, init)
			}
		}
		return decl
	case "pointer_declarator", "reference_declarator":
		inner := n.ChildByFieldName("declarator")
		decl := b.lowerDeclarator(inner, typeName, isParam, isMember, isStatic)
		if decl != nil {
			decl.TypeName = typeName + n.Content(b.src)
		}
		return decl
	case "identifier", "field_identifier":
		name := b.text(n)
		return &ast.Node{
			Kind:     ast.KindVarDecl,
			Loc:      b.loc(n),
			Name:     name,
			QualifiedName: name,
			TypeName: typeName,
			IsParam:  isParam,
			IsMember: isMember,
			IsStatic: isStatic,
		}
	default:
		return b.lowerGeneric(n)
	}
}

func (b *builder) lowerAssignment(n *sitter.Node) *ast.Node {
	left := b.lower(n.ChildByFieldName("left"))
	right := b.lower(n.ChildByFieldName("right"))
	node := &ast.Node{Kind: ast.KindAssign, Loc: b.loc(n)}
	if left != nil {
		node.Children = append(node.Children, left)
	}
	if right != nil {
		node.Children = append(node.Children, right)
	}
	return node
}

func (b *builder) lowerUnary(n *sitter.Node) *ast.Node {
	op := b.text(n.ChildByFieldName("operator"))
	arg := b.lower(n.ChildByFieldName("argument"))
	if op != "*" && op != "&" {
		return arg
	}
	node := &ast.Node{Kind: ast.KindUnaryOp, Loc: b.loc(n), Operator: op[0]}
	if arg != nil {
		node.Children = append(node.Children, arg)
	}
	return node
}

func (b *builder) lowerDeclRef(n *sitter.Node) *ast.Node {
	name := b.text(n)
	return &ast.Node{Kind: ast.KindDeclRef, Loc: b.loc(n), Name: name, QualifiedName: name}
}

func (b *builder) lowerMemberExpr(n *sitter.Node) *ast.Node {
	base := b.lower(n.ChildByFieldName("argument"))
	field := b.text(n.ChildByFieldName("field"))
	node := &ast.Node{Kind: ast.KindMemberExpr, Loc: b.loc(n), Name: field}
	if base != nil {
		node.Children = append(node.Children, base)
	}
	return node
}

func (b *builder) lowerCallExpr(n *sitter.Node) *ast.Node {
	callee := n.ChildByFieldName("function")
	calleeName := b.text(callee)
	node := &ast.Node{Kind: ast.KindCallExpr, Loc: b.loc(n), Name: calleeName}

	node.IsAllocatorCall = allocatorNames[calleeName]
	node.IsMoveCall = calleeName == "std::move" || calleeName == "move"

	if calleeLowered := b.lower(callee); calleeLowered != nil {
		node.Children = append(node.Children, calleeLowered)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			if arg := b.lower(args.NamedChild(i)); arg != nil {
				node.Children = append(node.Children, arg)
			}
		}
	}
	return node
}

func (b *builder) lowerNewExpr(n *sitter.Node) *ast.Node {
	typeName := b.text(n.ChildByFieldName("type"))
	node := &ast.Node{Kind: ast.KindNewExpr, Loc: b.loc(n), TypeName: typeName}
	node.IsSmartPointerCtor = isSmartPointerType(typeName)
	if args := n.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			if arg := b.lower(args.NamedChild(i)); arg != nil {
				node.Children = append(node.Children, arg)
			}
		}
	}
	return node
}

func (b *builder) lowerReturn(n *sitter.Node) *ast.Node {
	node := &ast.Node{Kind: ast.KindReturnStmt, Loc: b.loc(n)}
	if n.NamedChildCount() > 0 {
		if expr := b.lower(n.NamedChild(0)); expr != nil {
			node.Children = append(node.Children, expr)
		}
	}
	return node
}

func isSmartPointerType(typeName string) bool {
	for name := range smartPointerTypes {
		if strings.Contains(typeName, name) {
			return true
		}
	}
	return false
}
