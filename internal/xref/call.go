// Package xref extracts cross-module call sites from compilation unit trees.
package xref

import "fmt"

// Call is one cross-module reference, classified by how dynamically its
// target is determined. The set is sealed; consumers dispatch with a type
// switch.
type Call interface {
	call()
	// Arity is the literal count of argument expressions at the call site.
	CallArity() int
}

// StaticCall has a literal module and function name.
type StaticCall struct {
	Module   string
	Function string
	Arity    int
}

// DynModuleCall has a literal function name but its module is bound at run
// time; ModuleVar holds the variable's name, not a resolvable value.
type DynModuleCall struct {
	ModuleVar string
	Function  string
	Arity     int
}

// DynFunctionCall has a literal module but its function name is bound at run
// time.
type DynFunctionCall struct {
	Module      string
	FunctionVar string
	Arity       int
}

// DynAllCall has both module and function bound at run time.
type DynAllCall struct {
	ModuleVar   string
	FunctionVar string
	Arity       int
}

// Unimplemented records a call whose target shape matched no recognized
// pattern. It carries a printable dump of what was seen so unhandled
// real-world patterns can be identified from the output, and it never
// aborts a run.
type Unimplemented struct {
	Description string
}

func (StaticCall) call() {}
func (DynModuleCall) call() {}
func (DynFunctionCall) call() {}
func (DynAllCall) call() {}
func (Unimplemented) call() {}

func (c StaticCall) CallArity() int { return c.Arity }
func (c DynModuleCall) CallArity() int { return c.Arity }
func (c DynFunctionCall) CallArity() int { return c.Arity }
func (c DynAllCall) CallArity() int { return c.Arity }
func (Unimplemented) CallArity() int { return 0 }

func (c StaticCall) String() string {
	return fmt.Sprintf("%s:%s/%d", c.Module, c.Function, c.Arity)
}

func (c DynModuleCall) String() string {
	return fmt.Sprintf("%s:%s/%d", c.ModuleVar, c.Function, c.Arity)
}

func (c DynFunctionCall) String() string {
	return fmt.Sprintf("%s:%s/%d", c.Module, c.FunctionVar, c.Arity)
}

func (c DynAllCall) String() string {
	return fmt.Sprintf("%s:%s/%d", c.ModuleVar, c.FunctionVar, c.Arity)
}

func (c Unimplemented) String() string {
	return "unimplemented: " + c.Description
}

// Result is one compilation unit's extraction output: the unit's name and
// its cross-module calls in source order.
type Result struct {
	Unit  string
	Calls []Call
}
