package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the tree parser:
// - A representative module parses into name, exports, attributes and defs
// - Every compound expression shape round-trips into its variant
// - Annotation wrappers are stripped into the node's Anno at any position
// - Patterns parse including aliases and multi-pattern clause heads
// - Malformed input yields a line-tagged error, never a panic

const sampleModule = `
module 'shop' ['init'/1, 'checkout'/2]
    attributes ['file' = [{"shop.erl", 1}]]
'init'/1 =
    fun (Opts) ->
        call 'inventory':'load' (Opts)
'checkout'/2 =
    fun (Cart, User) ->
        let <Total> = call 'pricing':'total' (Cart) in
        do call 'audit':'record' (User, Total)
            case Total of
                <0> when 'true' -> 'free'
                <_N> when 'true' ->
                    call 'payment':'charge' (User, Total)
            end
end
`

func TestParseModule_Sample(t *testing.T) {
	t.Parallel()

	m, err := ParseModule([]byte(sampleModule))
	require.NoError(t, err)

	assert.Equal(t, "shop", m.Name)
	require.Len(t, m.Exports, 2)
	assert.Equal(t, FunName{Name: "init", Arity: 1}, m.Exports[0])
	require.Len(t, m.Attrs, 1)
	assert.Equal(t, "file", m.Attrs[0].Name)
	require.Len(t, m.Defs, 2)

	initFun, ok := m.Defs[0].Body.Expr.(Fun)
	require.True(t, ok, "def body should be a lambda")
	assert.Equal(t, []string{"Opts"}, initFun.Params)

	call, ok := initFun.Body.Expr.(Call)
	require.True(t, ok, "lambda body should be a call")
	mod, ok := call.Module.Expr.(Literal)
	require.True(t, ok)
	assert.Equal(t, "inventory", mod.Value)

	checkout := m.Defs[1].Body.Expr.(Fun)
	let, ok := checkout.Body.Expr.(Let)
	require.True(t, ok, "checkout body should be a let")
	assert.Equal(t, []string{"Total"}, let.Vars)
	seq, ok := let.Body.Expr.(Seq)
	require.True(t, ok, "let body should be a do-sequence")
	caseExpr, ok := seq.Rest.Expr.(Case)
	require.True(t, ok, "sequence rest should be a case")
	require.Len(t, caseExpr.Clauses, 2)
}

func TestParseModule_DynamicTargets(t *testing.T) {
	t.Parallel()

	src := `
module 'router' ['dispatch'/2]
    attributes []
'dispatch'/2 =
    fun (Mod, Args) ->
        call Mod:'handle' (Args)
end
`
	m, err := ParseModule([]byte(src))
	require.NoError(t, err)

	fn := m.Defs[0].Body.Expr.(Fun)
	call := fn.Body.Expr.(Call)
	v, ok := call.Module.Expr.(Var)
	require.True(t, ok, "module part should be a variable")
	assert.Equal(t, "Mod", v.Name)
	lit := call.Function.Expr.(Literal)
	assert.Equal(t, "handle", lit.Value)
}

func TestParseModule_TryReceiveLetrecCatch(t *testing.T) {
	t.Parallel()

	src := `
module 'm' ['f'/0]
    attributes []
'f'/0 =
    fun () ->
        letrec 'go'/1 = fun (X) ->
            receive
                <M> when 'true' -> M
            after 'infinity' -> 'none'
        in
            try apply 'go'/1 (1) of <V> -> V
            catch <E1,E2> -> catch {E1, E2}
end
`
	m, err := ParseModule([]byte(src))
	require.NoError(t, err)

	fn := m.Defs[0].Body.Expr.(Fun)
	lr, ok := fn.Body.Expr.(LetRec)
	require.True(t, ok)
	require.Len(t, lr.Defs, 1)
	assert.Equal(t, FunName{Name: "go", Arity: 1}, lr.Defs[0].Name)

	inner := lr.Defs[0].Body.Expr.(Fun)
	recv, ok := inner.Body.Expr.(Receive)
	require.True(t, ok)
	require.Len(t, recv.Clauses, 1)

	tryExpr, ok := lr.Body.Expr.(Try)
	require.True(t, ok)
	assert.Equal(t, []string{"V"}, tryExpr.Vars)
	assert.Equal(t, []string{"E1", "E2"}, tryExpr.EVars)
	_, ok = tryExpr.Handler.Expr.(Catch)
	assert.True(t, ok)

	app, ok := tryExpr.Arg.Expr.(Apply)
	require.True(t, ok)
	require.Len(t, app.Args, 1)
}

func TestParseModule_DataShapes(t *testing.T) {
	t.Parallel()

	src := `
module 'data' ['all'/0]
    attributes []
'all'/0 =
    fun () ->
        {[1, 2|'tail'], #{#<104>(8, 1, 'integer', ['unsigned'])}#,
         ~{'k' => 'v'}~, <1, 2>, fun 'erlang':'send'/2, -3}
end
`
	m, err := ParseModule([]byte(src))
	require.NoError(t, err)

	fn := m.Defs[0].Body.Expr.(Fun)
	tup := fn.Body.Expr.(Tuple)
	require.Len(t, tup.Elements, 6)

	cons, ok := tup.Elements[0].Expr.(Cons)
	require.True(t, ok)
	_, ok = cons.Tail.Expr.(Cons)
	require.True(t, ok, "two-element list head should nest a cons")

	bin, ok := tup.Elements[1].Expr.(Binary)
	require.True(t, ok)
	require.Len(t, bin.Segments, 1)
	assert.Len(t, bin.Segments[0].Args, 4)

	mp, ok := tup.Elements[2].Expr.(Map)
	require.True(t, ok)
	require.Len(t, mp.Pairs, 1)
	assert.False(t, mp.Pairs[0].Exact)

	vals, ok := tup.Elements[3].Expr.(Values)
	require.True(t, ok)
	assert.Len(t, vals.Elements, 2)

	ext, ok := tup.Elements[4].Expr.(ExtFun)
	require.True(t, ok)
	assert.Equal(t, "erlang", ext.Module)
	assert.Equal(t, 2, ext.Arity)

	neg, ok := tup.Elements[5].Expr.(Literal)
	require.True(t, ok)
	assert.Equal(t, "-3", neg.Value)
}

func TestParseModule_Annotations(t *testing.T) {
	t.Parallel()

	src := `
module 'anno' ['f'/0]
    attributes []
'f'/0 =
    ( fun () ->
        ( call 'target':'hit' () -| [7] )
      -| [{'function', {'f', 0}}] )
end
`
	m, err := ParseModule([]byte(src))
	require.NoError(t, err)

	fn, ok := m.Defs[0].Body.Expr.(Fun)
	require.True(t, ok, "annotation wrapper should be stripped")
	call, ok := fn.Body.Expr.(Call)
	require.True(t, ok)
	assert.Equal(t, 7, fn.Body.Anno.Line)
	lit := call.Function.Expr.(Literal)
	assert.Equal(t, "hit", lit.Value)
}

func TestParseModule_AliasAndAnnotatedPattern(t *testing.T) {
	t.Parallel()

	src := `
module 'pat' ['f'/1]
    attributes []
'f'/1 =
    fun (X) ->
        case X of
            <( All = {'pair', _A, _B} -| [4] )> when 'true' -> All
            <_Other> when 'true' -> 'nope'
        end
end
`
	m, err := ParseModule([]byte(src))
	require.NoError(t, err)

	fn := m.Defs[0].Body.Expr.(Fun)
	caseExpr := fn.Body.Expr.(Case)
	require.Len(t, caseExpr.Clauses, 2)

	alias, ok := caseExpr.Clauses[0].Patterns[0].Expr.(Alias)
	require.True(t, ok)
	assert.Equal(t, "All", alias.Var)
	assert.Equal(t, 4, caseExpr.Clauses[0].Patterns[0].Anno.Line)
	_, ok = alias.Pattern.Expr.(Tuple)
	assert.True(t, ok)
}

func TestParseModule_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"truncated", "module 'x' ['f'/0]"},
		{"bad call", "module 'x' [] attributes [] 'f'/0 = fun () -> call 'a' () end"},
		{"trailing", "module 'x' [] attributes [] end end"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseModule([]byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line ")
		})
	}
}
