// Package model holds the pure, storage-agnostic entities of the pointer
// analysis: statement sides, constraints, and AST node references. It has
// no dependency on tree-sitter, gorm, or any transport, so the extractor,
// the store, and the solvers can all share it.
package model

import (
	"fmt"
	"hash/fnv"
)

// HashString is the FNV-1a hash every mangled name and declaration site is
// keyed on, shared by the extractor (building the store's keys) and any
// caller that needs to derive a seed hash from a symbol name instead of a
// raw numeric hash.
func HashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Options classifies the abstract memory an operand of a constraint may
// denote. Ordinal values are load-bearing: they are serialized as small
// integers on the wire and in the store, and must stay in this order for
// compatibility with previously stored analysis runs.
type Options int

const (
	HeapObj Options = iota
	StackObj
	GlobalObject
	NullPtr
	Reference
	FunctionCall
	Return
	Param
	Member
	Literal
	Undefined
)

func (o Options) String() string {
	switch o {
	case HeapObj:
		return "HeapObj"
	case StackObj:
		return "StackObj"
	case GlobalObject:
		return "GlobalObject"
	case NullPtr:
		return "NullPtr"
	case Reference:
		return "Reference"
	case FunctionCall:
		return "FunctionCall"
	case Return:
		return "Return"
	case Param:
		return "Param"
	case Member:
		return "Member"
	case Literal:
		return "Literal"
	case Undefined:
		return "Undefined"
	default:
		return fmt.Sprintf("Options(%d)", int(o))
	}
}

// StmtSide is one operand of an assignment constraint: the mangled-name
// hash of the abstract location it ultimately refers to, the sequence of
// unary operators ('*' deref, '&' address-of) applied on the way there, and
// the set of Options describing what kind of storage it denotes.
//
// Equality is defined solely by Hash: two sides that resolve to the same
// declaration are the same side regardless of the operator string that
// produced them. Operators and options are metadata that travel with the
// location, not identity.
type StmtSide struct {
	Hash      uint64
	Operators string
	Options   map[Options]struct{}
}

// NewStmtSide builds a StmtSide from a hash, an operator string, and a set
// of options given as variadic arguments for caller convenience.
func NewStmtSide(hash uint64, operators string, opts ...Options) StmtSide {
	set := make(map[Options]struct{}, len(opts))
	for _, o := range opts {
		set[o] = struct{}{}
	}
	return StmtSide{Hash: hash, Operators: operators, Options: set}
}

// Equal reports whether two sides denote the same abstract location.
func (s StmtSide) Equal(other StmtSide) bool { return s.Hash == other.Hash }

// Less orders sides by hash, giving a total order usable for deterministic
// iteration and set-membership surrogates.
func (s StmtSide) Less(other StmtSide) bool { return s.Hash < other.Hash }

// Has reports whether the side carries the given option.
func (s StmtSide) Has(o Options) bool {
	_, ok := s.Options[o]
	return ok
}

// SortedOptions returns the side's options in ordinal order, for
// deterministic serialization.
func (s StmtSide) SortedOptions() []Options {
	out := make([]Options, 0, len(s.Options))
	for o := range s.Options {
		out = append(out, o)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// IsReference reports whether this side is an alias/reference binding.
func (s StmtSide) IsReference() bool { return s.Has(Reference) }

// Constraint is one assignment constraint `lhs = rhs` extracted from the
// AST. ID is the hash of the concatenation of both sides' hashes and is
// used to deduplicate constraints emitted more than once, e.g. by the
// cartesian-product expansion over multiple options on either side.
type Constraint struct {
	ID  uint64
	LHS StmtSide
	RHS StmtSide
}

// IsDirectPointsTo reports whether the constraint directly establishes a
// points-to fact rather than a copy between two pointer variables.
func (c Constraint) IsDirectPointsTo() bool {
	if c.LHS.IsReference() {
		return true
	}
	for opt := range c.RHS.Options {
		switch opt {
		case NullPtr, HeapObj, Undefined, Literal, FunctionCall:
			return true
		}
	}
	return false
}

// IsSimple reports whether the constraint is a bare address-of assignment
// `p = &x` with no dereference on either side.
func (c Constraint) IsSimple() bool {
	return c.LHS.Operators == "" && c.RHS.Operators == "&"
}

// AstNode is a minimal reference to the source location a StmtSide's hash
// was derived from: enough to resolve a human-readable name and a file
// position for presentation, without carrying the full parse tree.
type AstNode struct {
	ID          uint64
	MangledName string
	MangledHash uint64
	File        string
	Line        int
	Column      int
	SymbolType  string
}
