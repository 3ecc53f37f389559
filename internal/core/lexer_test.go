package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []token {
	t.Helper()
	lx := newLexer([]byte(src))
	var toks []token
	for {
		tok, err := lx.next()
		require.NoError(t, err)
		if tok.kind == tokEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexer_QuotedAtoms(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, `'foo' 'with space' 'esc\'aped'`)
	require.Len(t, toks, 3)
	assert.Equal(t, tokAtom, toks[0].kind)
	assert.Equal(t, "foo", toks[0].text)
	assert.Equal(t, "with space", toks[1].text)
	assert.Equal(t, "esc'aped", toks[2].text)
}

func TestLexer_Punctuation(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, `#{ }# #< ~{ }~ -| -> => := < > ( ) [ ] { } , | / : = -`)
	var texts []string
	for _, tok := range toks {
		require.Equal(t, tokPunct, tok.kind)
		texts = append(texts, tok.text)
	}
	assert.Equal(t, []string{
		"#{", "}#", "#<", "~{", "}~", "-|", "->", "=>", ":=",
		"<", ">", "(", ")", "[", "]", "{", "}", ",", "|", "/", ":", "=", "-",
	}, texts)
}

func TestLexer_NumbersAndChars(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, `42 3.14 1.0e-3 16#ff $a $\n`)
	require.Len(t, toks, 6)
	assert.Equal(t, tokInt, toks[0].kind)
	assert.Equal(t, tokFloat, toks[1].kind)
	assert.Equal(t, "1.0e-3", toks[1].text)
	assert.Equal(t, tokFloat, toks[2].kind)
	assert.Equal(t, tokInt, toks[3].kind)
	assert.Equal(t, "16#ff", toks[3].text)
	assert.Equal(t, tokChar, toks[4].kind)
	assert.Equal(t, "a", toks[4].text)
	assert.Equal(t, "\n", toks[5].text)
}

func TestLexer_VarsKeywordsComments(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, "Var _cor0 let % trailing comment\nin")
	require.Len(t, toks, 4)
	assert.Equal(t, tokVar, toks[0].kind)
	assert.Equal(t, "_cor0", toks[1].text)
	assert.Equal(t, tokKeyword, toks[2].kind)
	assert.Equal(t, "let", toks[2].text)
	assert.Equal(t, "in", toks[3].text)
	assert.Equal(t, 2, toks[3].line)
}

func TestLexer_RejectsBareWords(t *testing.T) {
	t.Parallel()

	lx := newLexer([]byte("bogus"))
	_, err := lx.next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLexer_Strings(t *testing.T) {
	t.Parallel()

	toks := lexAll(t, `"plain" "with \"quote\" and \\ slash"`)
	require.Len(t, toks, 2)
	assert.Equal(t, tokString, toks[0].kind)
	assert.Equal(t, "plain", toks[0].text)
	assert.Equal(t, `with "quote" and \ slash`, toks[1].text)
}
