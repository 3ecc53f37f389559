package xref

import (
	"fmt"

	"github.com/shintakezou/xrefgraph/internal/core"
)

// Extract walks one compilation unit's tree and returns every cross-module
// call site in left-to-right, outer-to-inner source order. It is a pure
// function: same tree in, same calls out.
func Extract(m *core.Module) Result {
	r := Result{Unit: m.Name}
	for _, def := range m.Defs {
		r.Calls = append(r.Calls, walk(def.Body)...)
	}
	return r
}

// walk dispatches on the structural shape of a node, concatenating the
// calls found in each child in natural child order. Every Expr variant has
// a case; shapes that can hold neither a call nor a sub-expression
// contribute nothing, which keeps the traversal total. A variant missing
// here would silently contribute nothing, so the test suite checks each
// compound shape is descended into.
func walk(n core.Node) []Call {
	switch e := n.Expr.(type) {
	case core.Literal, core.Var, core.ExtFun, core.LocalFun:
		return nil
	case core.Cons:
		return concat(walk(e.Head), walk(e.Tail))
	case core.Tuple:
		return walkAll(e.Elements)
	case core.Binary:
		var out []Call
		for _, seg := range e.Segments {
			out = concat(out, walk(seg.Value), walkAll(seg.Args))
		}
		return out
	case core.Map:
		var out []Call
		if e.Arg != nil {
			out = walk(*e.Arg)
		}
		for _, pair := range e.Pairs {
			out = concat(out, walk(pair.Key), walk(pair.Value))
		}
		return out
	case core.Values:
		return walkAll(e.Elements)
	case core.Fun:
		return walk(e.Body)
	case core.Let:
		return concat(walk(e.Arg), walk(e.Body))
	case core.LetRec:
		var out []Call
		for _, def := range e.Defs {
			out = concat(out, walk(def.Body))
		}
		return concat(out, walk(e.Body))
	case core.Apply:
		// local application: the call itself is invisible, its
		// sub-expressions are not
		return concat(walk(e.Op), walkAll(e.Args))
	case core.Call:
		return append([]Call{classify(e)}, walkAll(e.Args)...)
	case core.PrimOp:
		return walkAll(e.Args)
	case core.Case:
		return concat(walk(e.Arg), walkClauses(e.Clauses))
	case core.Receive:
		return concat(walkClauses(e.Clauses), walk(e.Timeout), walk(e.Action))
	case core.Try:
		return concat(walk(e.Arg), walk(e.Body), walk(e.Handler))
	case core.Catch:
		return walk(e.Body)
	case core.Seq:
		return concat(walk(e.First), walk(e.Rest))
	case core.Alias:
		return nil
	}
	return nil
}

// walkClauses walks match bodies only. Guards are assumed side-effect-free
// and are intentionally skipped, as are patterns, which cannot contain
// calls.
func walkClauses(clauses []core.Clause) []Call {
	var out []Call
	for _, cl := range clauses {
		out = concat(out, walk(cl.Body))
	}
	return out
}

// classify matches the two target parts of an explicit cross-module
// invocation. Anything other than an atom or a plain variable on either
// side falls through to Unimplemented rather than failing the run.
func classify(c core.Call) Call {
	arity := len(c.Args)
	mod, modIsAtom := atomValue(c.Module)
	fn, fnIsAtom := atomValue(c.Function)
	modVar, modIsVar := varName(c.Module)
	fnVar, fnIsVar := varName(c.Function)

	switch {
	case modIsAtom && fnIsAtom:
		return StaticCall{Module: mod, Function: fn, Arity: arity}
	case modIsAtom && fnIsVar:
		return DynFunctionCall{Module: mod, FunctionVar: fnVar, Arity: arity}
	case modIsVar && fnIsAtom:
		return DynModuleCall{ModuleVar: modVar, Function: fn, Arity: arity}
	case modIsVar && fnIsVar:
		return DynAllCall{ModuleVar: modVar, FunctionVar: fnVar, Arity: arity}
	default:
		return Unimplemented{Description: fmt.Sprintf("call target %s:%s/%d",
			core.Describe(c.Module), core.Describe(c.Function), arity)}
	}
}

func atomValue(n core.Node) (string, bool) {
	lit, ok := n.Expr.(core.Literal)
	if !ok || lit.Kind != core.LitAtom {
		return "", false
	}
	return lit.Value, true
}

func varName(n core.Node) (string, bool) {
	v, ok := n.Expr.(core.Var)
	if !ok {
		return "", false
	}
	return v.Name, true
}

func walkAll(nodes []core.Node) []Call {
	var out []Call
	for _, n := range nodes {
		out = concat(out, walk(n))
	}
	return out
}

func concat(lists ...[]Call) []Call {
	var out []Call
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
