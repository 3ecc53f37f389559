package core

import (
	"fmt"
	"strings"
)

// Anno carries the source annotation attached to a tree node. Compilers wrap
// any node in `( expr -| [terms] )`; the wrapper is stripped into this
// container during parsing so that structural matching never has to deal
// with it.
type Anno struct {
	Line  int      // first integer annotation term, 0 if absent
	Terms []string // raw annotation terms, printed form
}

// Node is an annotated expression. Every child position in the tree is a
// Node; consumers strip the annotation once at each recursion entry via Expr.
type Node struct {
	Anno Anno
	Expr Expr
}

// Expr is the closed set of expression shapes in the intermediate tree.
// The set is sealed so that consumers can dispatch with a type switch and
// enforce exhaustiveness in tests.
type Expr interface {
	expr()
}

// LitKind discriminates literal values.
type LitKind int

const (
	LitAtom LitKind = iota
	LitInt
	LitFloat
	LitChar
	LitString
	LitNil
)

// Literal is a constant value: atom, number, char, string or the empty list.
type Literal struct {
	Kind  LitKind
	Value string // atom name, digits, or string/char contents
}

// Var is a variable reference.
type Var struct {
	Name string
}

// Cons is a list cell.
type Cons struct {
	Head Node
	Tail Node
}

// Tuple is a fixed-size aggregate.
type Tuple struct {
	Elements []Node
}

// Segment is one element of a Binary: a value expression plus its size,
// unit, type and flags qualifier expressions.
type Segment struct {
	Value Node
	Args  []Node
}

// Binary is a bitstring constructor `#{...}#`.
type Binary struct {
	Segments []Segment
}

// MapPair is a single `K => V` (assoc) or `K := V` (exact) map entry.
type MapPair struct {
	Exact bool
	Key   Node
	Value Node
}

// Map is a map constructor or update `~{...}~`.
type Map struct {
	Arg   *Node // update target, nil for a fresh construction
	Pairs []MapPair
}

// Values is a multi-value group `<E1, ..., En>`.
type Values struct {
	Elements []Node
}

// Fun is a lambda. Parameters are always plain variables.
type Fun struct {
	Params []string
	Body   Node
}

// ExtFun is a reference to a function as a value, `fun 'm':'f'/a`. It is a
// reference, not an invocation, and carries no nested expressions.
type ExtFun struct {
	Module   string
	Function string
	Arity    int
}

// LocalFun is a reference to a function of the same unit by name and arity,
// `'f'/a`, as it appears in apply operators and letrec bodies.
type LocalFun struct {
	Name  string
	Arity int
}

// FunName identifies a function by name and arity.
type FunName struct {
	Name  string
	Arity int
}

// FunDef binds a FunName to a lambda, either at the top of a module or
// inside a letrec.
type FunDef struct {
	Name FunName
	Body Node // always a Fun, possibly annotated
}

// Let binds the result of Arg to one or more variables in Body.
type Let struct {
	Vars []string
	Arg  Node
	Body Node
}

// LetRec introduces mutually recursive local function definitions.
type LetRec struct {
	Defs []FunDef
	Body Node
}

// Apply is a local or variable application; its operator is a FunName-bound
// variable or a lambda, never a cross-module target.
type Apply struct {
	Op   Node
	Args []Node
}

// Call is an explicit cross-module invocation `call M:F (args)`. Module and
// Function are arbitrary expressions; in well-behaved trees they are atom
// literals or variables.
type Call struct {
	Module   Node
	Function Node
	Args     []Node
}

// PrimOp is an internal operator application `primop 'name' (args)`.
type PrimOp struct {
	Name string
	Args []Node
}

// Clause is one branch of a Case or Receive: patterns, a guard and a body.
type Clause struct {
	Anno     Anno
	Patterns []Node
	Guard    Node
	Body     Node
}

// Case scrutinizes Arg against an ordered list of clauses.
type Case struct {
	Arg     Node
	Clauses []Clause
}

// Receive waits for a matching message, with a timeout expression and a
// timeout action.
type Receive struct {
	Clauses []Clause
	Timeout Node
	Action  Node
}

// Try evaluates Arg; on success binds Vars and runs Body, on an exception
// binds EVars and runs Handler.
type Try struct {
	Arg     Node
	Vars    []string
	Body    Node
	EVars   []string
	Handler Node
}

// Catch converts exceptions in Body into values.
type Catch struct {
	Body Node
}

// Seq is sequencing, `do First Rest`.
type Seq struct {
	First Node
	Rest  Node
}

// Alias is a pattern `Var = Pattern`. It only occurs in pattern position.
type Alias struct {
	Var     string
	Pattern Node
}

func (Literal) expr() {}
func (Var) expr() {}
func (Cons) expr() {}
func (Tuple) expr() {}
func (Binary) expr() {}
func (Map) expr() {}
func (Values) expr() {}
func (Fun) expr() {}
func (ExtFun) expr() {}
func (LocalFun) expr() {}
func (Let) expr() {}
func (LetRec) expr() {}
func (Apply) expr() {}
func (Call) expr() {}
func (PrimOp) expr() {}
func (Case) expr() {}
func (Receive) expr() {}
func (Try) expr() {}
func (Catch) expr() {}
func (Seq) expr() {}
func (Alias) expr() {}

// Attribute is a module attribute `'name' = term`.
type Attribute struct {
	Name  string
	Value string // printed form of the attribute term
}

// Module is the root of one compilation unit's tree.
type Module struct {
	Name    string
	Exports []FunName
	Attrs   []Attribute
	Defs    []FunDef
}

// String renders a FunName in name/arity form.
func (f FunName) String() string {
	return fmt.Sprintf("%s/%d", f.Name, f.Arity)
}

// Describe returns a compact printable form of an expression shape, used for
// diagnostics about unhandled structures.
func Describe(n Node) string {
	switch e := n.Expr.(type) {
	case Literal:
		switch e.Kind {
		case LitAtom:
			return "'" + e.Value + "'"
		case LitString:
			return "%q-string"
		case LitNil:
			return "[]"
		default:
			return e.Value
		}
	case Var:
		return e.Name
	case Cons:
		return "[" + Describe(e.Head) + "|" + Describe(e.Tail) + "]"
	case Tuple:
		parts := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			parts[i] = Describe(el)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case Call:
		return fmt.Sprintf("call %s:%s/%d", Describe(e.Module), Describe(e.Function), len(e.Args))
	case Apply:
		return fmt.Sprintf("apply %s/%d", Describe(e.Op), len(e.Args))
	case Fun:
		return fmt.Sprintf("fun/%d", len(e.Params))
	case ExtFun:
		return fmt.Sprintf("fun %s:%s/%d", e.Module, e.Function, e.Arity)
	case LocalFun:
		return fmt.Sprintf("%s/%d", e.Name, e.Arity)
	default:
		return fmt.Sprintf("%T", e)
	}
}
