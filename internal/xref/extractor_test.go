package xref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shintakezou/xrefgraph/internal/core"
)

// Test Plan for the extractor:
// - Trees without cross-module call sites extract to an empty list
// - Extracted count equals the number of two-part call sites by construction
// - Extraction is deterministic and ordered left-to-right, outer-to-inner
// - Each target shape classifies to its Call kind; unmatched shapes become
//   exactly one Unimplemented entry and arguments are still walked
// - Every compound expression shape is descended into (a forgotten variant
//   would silently contribute nothing)
// - Guards are skipped, match bodies are not

func nd(e core.Expr) core.Node { return core.Node{Expr: e} }

func atom(s string) core.Node { return nd(core.Literal{Kind: core.LitAtom, Value: s}) }

func cvar(s string) core.Node { return nd(core.Var{Name: s}) }

func scall(m, f string, args ...core.Node) core.Node {
	return nd(core.Call{Module: atom(m), Function: atom(f), Args: args})
}

func unit(name string, bodies ...core.Node) *core.Module {
	m := &core.Module{Name: name}
	for i, body := range bodies {
		m.Defs = append(m.Defs, core.FunDef{
			Name: core.FunName{Name: "f", Arity: i},
			Body: nd(core.Fun{Body: body}),
		})
	}
	return m
}

func TestExtract_NoCallSites(t *testing.T) {
	t.Parallel()

	m := unit("quiet",
		nd(core.Tuple{Elements: []core.Node{atom("a"), cvar("X")}}),
		nd(core.Apply{Op: nd(core.LocalFun{Name: "g", Arity: 1}), Args: []core.Node{cvar("X")}}),
	)
	res := Extract(m)
	assert.Equal(t, "quiet", res.Unit)
	assert.Empty(t, res.Calls)
}

func TestExtract_CountMatchesSites(t *testing.T) {
	t.Parallel()

	// three syntactically distinct sites, one nested in another's argument
	m := unit("counter",
		scall("a", "one"),
		scall("b", "two", scall("c", "three")),
	)
	res := Extract(m)
	assert.Len(t, res.Calls, 3)
}

func TestExtract_OrderIsDeterministic(t *testing.T) {
	t.Parallel()

	m := unit("ordered",
		nd(core.Seq{
			First: scall("first", "f"),
			Rest: nd(core.Let{
				Vars: []string{"X"},
				Arg:  scall("second", "f", scall("third", "f")),
				Body: scall("fourth", "f"),
			}),
		}),
	)

	res1 := Extract(m)
	res2 := Extract(m)
	require.Equal(t, res1, res2)

	var mods []string
	for _, c := range res1.Calls {
		mods = append(mods, c.(StaticCall).Module)
	}
	// outer call sites precede the calls nested in their arguments
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, mods)
}

func TestExtract_Classification(t *testing.T) {
	t.Parallel()

	m := unit("kinds",
		nd(core.Call{Module: atom("m"), Function: atom("f"), Args: []core.Node{cvar("A"), cvar("B")}}),
		nd(core.Call{Module: cvar("Mod"), Function: atom("f"), Args: []core.Node{cvar("A")}}),
		nd(core.Call{Module: atom("m"), Function: cvar("Fun"), Args: nil}),
		nd(core.Call{Module: cvar("Mod"), Function: cvar("Fun"), Args: []core.Node{cvar("A")}}),
	)
	res := Extract(m)
	require.Len(t, res.Calls, 4)

	assert.Equal(t, StaticCall{Module: "m", Function: "f", Arity: 2}, res.Calls[0])
	assert.Equal(t, DynModuleCall{ModuleVar: "Mod", Function: "f", Arity: 1}, res.Calls[1])
	assert.Equal(t, DynFunctionCall{Module: "m", FunctionVar: "Fun", Arity: 0}, res.Calls[2])
	assert.Equal(t, DynAllCall{ModuleVar: "Mod", FunctionVar: "Fun", Arity: 1}, res.Calls[3])
}

func TestExtract_UnimplementedShape(t *testing.T) {
	t.Parallel()

	// module part is a tuple: matches no recognized pattern; the argument
	// is still walked for its own call
	weird := nd(core.Call{
		Module:   nd(core.Tuple{Elements: []core.Node{atom("x")}}),
		Function: atom("f"),
		Args:     []core.Node{scall("real", "target")},
	})
	res := Extract(unit("odd", weird))
	require.Len(t, res.Calls, 2)

	unimpl, ok := res.Calls[0].(Unimplemented)
	require.True(t, ok)
	assert.Contains(t, unimpl.Description, "{'x'}")
	assert.Equal(t, StaticCall{Module: "real", Function: "target", Arity: 0}, res.Calls[1])
}

func TestExtract_StringModuleIsUnimplemented(t *testing.T) {
	t.Parallel()

	res := Extract(unit("odd", nd(core.Call{
		Module:   nd(core.Literal{Kind: core.LitString, Value: "mod"}),
		Function: atom("f"),
	})))
	require.Len(t, res.Calls, 1)
	_, ok := res.Calls[0].(Unimplemented)
	assert.True(t, ok)
}

// TestExtract_EveryCompoundShape plants one static call in each child
// position of each compound expression kind. A case missing from the
// traversal shows up here as a zero count.
func TestExtract_EveryCompoundShape(t *testing.T) {
	t.Parallel()

	hit := scall("hit", "now")
	clause := func(body core.Node) core.Clause {
		return core.Clause{Patterns: []core.Node{cvar("_")}, Guard: atom("true"), Body: body}
	}

	cases := []struct {
		name string
		node core.Node
		want int
	}{
		{"cons", nd(core.Cons{Head: hit, Tail: hit}), 2},
		{"tuple", nd(core.Tuple{Elements: []core.Node{hit, hit}}), 2},
		{"binary", nd(core.Binary{Segments: []core.Segment{{Value: hit, Args: []core.Node{hit}}}}), 2},
		{"map", nd(core.Map{Arg: &hit, Pairs: []core.MapPair{{Key: hit, Value: hit}}}), 3},
		{"values", nd(core.Values{Elements: []core.Node{hit}}), 1},
		{"fun", nd(core.Fun{Params: []string{"X"}, Body: hit}), 1},
		{"let", nd(core.Let{Vars: []string{"X"}, Arg: hit, Body: hit}), 2},
		{"letrec", nd(core.LetRec{
			Defs: []core.FunDef{{Name: core.FunName{Name: "g", Arity: 0}, Body: nd(core.Fun{Body: hit})}},
			Body: hit,
		}), 2},
		{"apply", nd(core.Apply{Op: cvar("F"), Args: []core.Node{hit}}), 1},
		{"call args", scall("m", "f", hit), 2},
		{"primop", nd(core.PrimOp{Name: "raise", Args: []core.Node{hit}}), 1},
		{"case", nd(core.Case{Arg: hit, Clauses: []core.Clause{clause(hit)}}), 2},
		{"receive", nd(core.Receive{Clauses: []core.Clause{clause(hit)}, Timeout: hit, Action: hit}), 3},
		{"try", nd(core.Try{Arg: hit, Vars: []string{"V"}, Body: hit, EVars: []string{"E"}, Handler: hit}), 3},
		{"catch", nd(core.Catch{Body: hit}), 1},
		{"seq", nd(core.Seq{First: hit, Rest: hit}), 2},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Extract(unit("u", tc.node))
			assert.Len(t, res.Calls, tc.want)
		})
	}
}

func TestExtract_GuardsAreSkipped(t *testing.T) {
	t.Parallel()

	m := unit("guarded", nd(core.Case{
		Arg: cvar("X"),
		Clauses: []core.Clause{{
			Patterns: []core.Node{cvar("_")},
			Guard:    scall("guard", "check", cvar("X")),
			Body:     scall("body", "run"),
		}},
	}))
	res := Extract(m)
	require.Len(t, res.Calls, 1)
	assert.Equal(t, StaticCall{Module: "body", Function: "run", Arity: 0}, res.Calls[0])
}

// TestExtract_NestedScopesFromSource is the end-to-end regression for
// recursion coverage: calls inside a lambda body, a try recovery handler
// and a list literal element must all be discovered.
func TestExtract_NestedScopesFromSource(t *testing.T) {
	t.Parallel()

	src := `
module 'nested' ['f'/0, 'g'/0]
    attributes []
'f'/0 =
    fun () ->
        let <F> = fun (X) -> call 'a':'one' (X) in
        try apply F (1) of <V> -> V
        catch <E1,E2> -> call 'b':'two' (E1, E2)
'g'/0 =
    fun () -> [call 'c':'three' (), 'end_marker']
end
`
	m, err := core.ParseModule([]byte(src))
	require.NoError(t, err)

	res := Extract(m)
	require.Len(t, res.Calls, 3)
	assert.Equal(t, StaticCall{Module: "a", Function: "one", Arity: 1}, res.Calls[0])
	assert.Equal(t, StaticCall{Module: "b", Function: "two", Arity: 2}, res.Calls[1])
	assert.Equal(t, StaticCall{Module: "c", Function: "three", Arity: 0}, res.Calls[2])
}
