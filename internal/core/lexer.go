package core

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokAtom
	tokVar
	tokInt
	tokFloat
	tokChar
	tokString
	tokKeyword
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokAtom:
		return "'" + t.text + "'"
	case tokString:
		return fmt.Sprintf("%q", t.text)
	default:
		return t.text
	}
}

// keywords are the bare lowercase words of the tree syntax; everything
// atom-like is always quoted, so the two lexical classes never collide.
var keywords = map[string]bool{
	"after": true, "apply": true, "attributes": true, "call": true,
	"case": true, "catch": true, "do": true, "end": true, "fun": true,
	"in": true, "let": true, "letrec": true, "module": true, "of": true,
	"primop": true, "receive": true, "try": true, "when": true,
}

type lexer struct {
	src  []byte
	pos  int
	line int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", l.line, fmt.Sprintf(format, args...))
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
	}
	return c
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '%': // comment to end of line
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// next returns the next token. Multi-byte punctuation is matched longest
// first so that `-|`, `->`, `#{`, `}#`, `#<`, `~{`, `}~`, `=>` and `:=`
// are not split apart.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	line := l.line
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line}, nil
	}
	c := l.peek()

	switch {
	case c == '\'':
		text, err := l.lexQuoted('\'')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokAtom, text: text, line: line}, nil
	case c == '"':
		text, err := l.lexQuoted('"')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text, line: line}, nil
	case c == '$':
		l.advance()
		if l.pos >= len(l.src) {
			return token{}, l.errorf("unterminated character literal")
		}
		ch := l.advance()
		if ch == '\\' {
			esc, err := l.lexEscape()
			if err != nil {
				return token{}, err
			}
			ch = esc
		}
		return token{kind: tokChar, text: string(ch), line: line}, nil
	case isDigit(c):
		return l.lexNumber(line)
	case c == '_' || unicode.IsUpper(rune(c)):
		start := l.pos
		for l.pos < len(l.src) && isNameChar(l.peek()) {
			l.advance()
		}
		return token{kind: tokVar, text: string(l.src[start:l.pos]), line: line}, nil
	case unicode.IsLower(rune(c)):
		start := l.pos
		for l.pos < len(l.src) && isNameChar(l.peek()) {
			l.advance()
		}
		word := string(l.src[start:l.pos])
		if !keywords[word] {
			return token{}, l.errorf("unexpected word %q", word)
		}
		return token{kind: tokKeyword, text: word, line: line}, nil
	}

	for _, p := range []string{"#{", "}#", "#<", "~{", "}~", "-|", "->", "=>", ":="} {
		if l.hasPrefix(p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, line: line}, nil
		}
	}
	switch c {
	case '(', ')', '{', '}', '[', ']', '<', '>', ',', '|', '/', ':', '=', '-':
		l.advance()
		return token{kind: tokPunct, text: string(c), line: line}, nil
	}
	return token{}, l.errorf("unexpected character %q", string(c))
}

func (l *lexer) hasPrefix(p string) bool {
	return l.pos+len(p) <= len(l.src) && string(l.src[l.pos:l.pos+len(p)]) == p
}

func (l *lexer) lexQuoted(quote byte) (string, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf("unterminated %q literal", string(quote))
		}
		c := l.advance()
		switch c {
		case quote:
			return sb.String(), nil
		case '\\':
			esc, err := l.lexEscape()
			if err != nil {
				return "", err
			}
			sb.WriteByte(esc)
		default:
			sb.WriteByte(c)
		}
	}
}

// lexEscape consumes one escape sequence body (the backslash has already
// been consumed).
func (l *lexer) lexEscape() (byte, error) {
	if l.pos >= len(l.src) {
		return 0, l.errorf("unterminated escape sequence")
	}
	c := l.advance()
	switch c {
	case 'b':
		return '\b', nil
	case 'd':
		return 0x7f, nil
	case 'e':
		return 0x1b, nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 's':
		return ' ', nil
	case 't':
		return '\t', nil
	case 'v':
		return '\v', nil
	case '^':
		if l.pos >= len(l.src) {
			return 0, l.errorf("unterminated control escape")
		}
		return l.advance() & 0x1f, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(c - '0')
		for i := 0; i < 2 && l.pos < len(l.src) && l.peek() >= '0' && l.peek() <= '7'; i++ {
			v = v*8 + int(l.advance()-'0')
		}
		return byte(v), nil
	default:
		// \\, \', \" and any other literally-escaped character
		return c, nil
	}
}

func (l *lexer) lexNumber(line int) (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	// based integer like 16#ff; '#' is only taken when a digit follows,
	// so binary punctuation after a number still lexes correctly
	if l.peek() == '#' && isHexDigit(l.peekAt(1)) {
		l.advance()
		for l.pos < len(l.src) && isHexDigit(l.peek()) {
			l.advance()
		}
		return token{kind: tokInt, text: string(l.src[start:l.pos]), line: line}, nil
	}
	kind := tokInt
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		kind = tokFloat
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
		if c := l.peek(); c == 'e' || c == 'E' {
			l.advance()
			if c := l.peek(); c == '+' || c == '-' {
				l.advance()
			}
			for l.pos < len(l.src) && isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	return token{kind: kind, text: string(l.src[start:l.pos]), line: line}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameChar(c byte) bool {
	return c == '_' || c == '@' || isDigit(c) ||
		unicode.IsLetter(rune(c))
}
