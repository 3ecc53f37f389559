// Package dot renders extraction results as a Graphviz digraph description.
package dot

import (
	"fmt"
	"strings"

	"github.com/shintakezou/xrefgraph/internal/xref"
)

// Placeholder is a module-name literal observed in upstream trees that marks
// "no real target". It is filtered out of node declarations rather than
// rendered; its origin in the source trees has not been diagnosed, so the
// filter is kept explicit instead of being special-cased away.
const Placeholder = "none"

// Renderer converts per-unit call lists into a directed-graph textual
// description. It is pure: configuration is fixed at construction and
// Render has no side effects.
type Renderer struct {
	name   string
	ignore xref.IgnoreSet
}

// NewRenderer returns a Renderer emitting a digraph with the given name,
// filtering edges whose literal target module is in ignore.
func NewRenderer(name string, ignore xref.IgnoreSet) *Renderer {
	return &Renderer{name: name, ignore: ignore}
}

// Render emits the full graph description: analyzed units as ellipse nodes,
// external literal target modules as box nodes, then one line per call in
// original per-unit/per-call order. Ignored and unrecognized calls become
// comment lines so they stay auditable in the output. The result is
// deterministic for a given input ordering.
func (r *Renderer) Render(results []xref.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", r.name)

	units := make(map[string]bool, len(results))
	for _, res := range results {
		units[res.Unit] = true
		fmt.Fprintf(&sb, "  %s [shape=ellipse];\n", quote(res.Unit))
	}

	// external modules referenced by a stable literal name, in first
	// appearance order; dynamic-module targets have no stable name and
	// contribute no declaration
	declared := make(map[string]bool)
	for _, res := range results {
		for _, call := range res.Calls {
			mod, ok := literalModule(call)
			if !ok || units[mod] || declared[mod] {
				continue
			}
			if mod == Placeholder || r.ignore.Contains(mod) {
				continue
			}
			declared[mod] = true
			fmt.Fprintf(&sb, "  %s [shape=box];\n", quote(mod))
		}
	}

	for _, res := range results {
		for _, call := range res.Calls {
			r.renderCall(&sb, res.Unit, call)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (r *Renderer) renderCall(sb *strings.Builder, unit string, call xref.Call) {
	if mod, ok := literalModule(call); ok && r.ignore.Contains(mod) {
		fmt.Fprintf(sb, "  // ignored: %s -> %s\n", unit, call)
		return
	}
	switch c := call.(type) {
	case xref.StaticCall:
		fmt.Fprintf(sb, "  %s -> %s;\n", quote(unit), quote(c.Module))
	case xref.DynModuleCall:
		// the variable name stands in for the unresolvable module; a
		// known approximation, not a resolution
		fmt.Fprintf(sb, "  %s -> %s [arrowhead=odot];\n", quote(unit), quote(c.ModuleVar))
	case xref.DynFunctionCall:
		fmt.Fprintf(sb, "  %s -> %s [arrowhead=odot];\n", quote(unit), quote(c.Module))
	case xref.DynAllCall:
		fmt.Fprintf(sb, "  %s -> %s [arrowhead=odot];\n", quote(unit), quote(c.ModuleVar))
	case xref.Unimplemented:
		fmt.Fprintf(sb, "  // unimplemented: %s\n", c.Description)
	}
}

// literalModule returns the literal target module of calls that have one.
func literalModule(call xref.Call) (string, bool) {
	switch c := call.(type) {
	case xref.StaticCall:
		return c.Module, true
	case xref.DynFunctionCall:
		return c.Module, true
	}
	return "", false
}

// quote renders a name as a quoted DOT identifier. Every name passes
// through here regardless of role so the output parses whatever characters
// source identifiers contain.
func quote(name string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}
