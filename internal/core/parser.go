package core

import (
	"fmt"
	"strings"
)

// parser is a recursive-descent parser over a pre-lexed token slice. The
// slice makes the few ambiguous positions (annotated clause vs annotated
// first pattern) cheap to resolve by backtracking.
type parser struct {
	toks []token
	pos  int
}

// ParseModule parses one compilation unit's intermediate tree text into its
// in-memory form. Errors carry the offending line number; the parser never
// panics on malformed input.
func ParseModule(src []byte) (*Module, error) {
	lx := newLexer(src)
	var toks []token
	for {
		t, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	p := &parser{toks: toks}
	m, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind tokenKind, text string) bool {
	t := p.cur()
	return t.kind == kind && t.text == text
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if p.at(kind, text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, text string) error {
	if !p.accept(kind, text) {
		return p.errorf("expected %q, found %s", text, p.cur())
	}
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.cur().line, fmt.Sprintf(format, args...))
}

func (p *parser) parseModule() (*Module, error) {
	// the whole module may itself arrive annotation-wrapped
	wrapped := p.accept(tokPunct, "(")

	if err := p.expect(tokKeyword, "module"); err != nil {
		return nil, err
	}
	name, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	m := &Module{Name: name}

	if err := p.expect(tokPunct, "["); err != nil {
		return nil, err
	}
	for !p.accept(tokPunct, "]") {
		fn, err := p.parseFunName()
		if err != nil {
			return nil, err
		}
		m.Exports = append(m.Exports, fn)
		if !p.accept(tokPunct, ",") && !p.at(tokPunct, "]") {
			return nil, p.errorf("expected \",\" or \"]\" in export list, found %s", p.cur())
		}
	}

	if err := p.expect(tokKeyword, "attributes"); err != nil {
		return nil, err
	}
	if err := p.expect(tokPunct, "["); err != nil {
		return nil, err
	}
	for !p.accept(tokPunct, "]") {
		attrName, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokPunct, "="); err != nil {
			return nil, err
		}
		val, err := p.parseConstTerm()
		if err != nil {
			return nil, err
		}
		m.Attrs = append(m.Attrs, Attribute{Name: attrName, Value: val})
		if !p.accept(tokPunct, ",") && !p.at(tokPunct, "]") {
			return nil, p.errorf("expected \",\" or \"]\" in attribute list, found %s", p.cur())
		}
	}

	for !p.at(tokKeyword, "end") {
		def, err := p.parseFunDef()
		if err != nil {
			return nil, err
		}
		m.Defs = append(m.Defs, def)
	}
	p.advance() // end

	if wrapped {
		if p.accept(tokPunct, "-|") {
			if _, err := p.skipAnnoTerms(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(tokPunct, ")"); err != nil {
			return nil, err
		}
	}
	if p.cur().kind != tokEOF {
		return nil, p.errorf("trailing input after module, found %s", p.cur())
	}
	return m, nil
}

func (p *parser) parseAtom() (string, error) {
	t := p.cur()
	if t.kind != tokAtom {
		return "", p.errorf("expected atom, found %s", t)
	}
	p.advance()
	return t.text, nil
}

// parseFunName parses 'name'/arity, possibly annotation-wrapped.
func (p *parser) parseFunName() (FunName, error) {
	if p.accept(tokPunct, "(") {
		fn, err := p.parseFunName()
		if err != nil {
			return FunName{}, err
		}
		if p.accept(tokPunct, "-|") {
			if _, err := p.skipAnnoTerms(); err != nil {
				return FunName{}, err
			}
		}
		if err := p.expect(tokPunct, ")"); err != nil {
			return FunName{}, err
		}
		return fn, nil
	}
	name, err := p.parseAtom()
	if err != nil {
		return FunName{}, err
	}
	if err := p.expect(tokPunct, "/"); err != nil {
		return FunName{}, err
	}
	t := p.cur()
	if t.kind != tokInt {
		return FunName{}, p.errorf("expected arity, found %s", t)
	}
	p.advance()
	arity := 0
	fmt.Sscanf(t.text, "%d", &arity)
	return FunName{Name: name, Arity: arity}, nil
}

func (p *parser) parseFunDef() (FunDef, error) {
	fn, err := p.parseFunName()
	if err != nil {
		return FunDef{}, err
	}
	if err := p.expect(tokPunct, "="); err != nil {
		return FunDef{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return FunDef{}, err
	}
	return FunDef{Name: fn, Body: body}, nil
}

// parseExpr parses an expression or a `<...>` value group, stripping any
// `( expr -| anno )` wrapper into the Node's annotation.
func (p *parser) parseExpr() (Node, error) {
	if p.accept(tokPunct, "(") {
		n, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if p.accept(tokPunct, "-|") {
			anno, err := p.skipAnnoTerms()
			if err != nil {
				return Node{}, err
			}
			n.Anno = mergeAnno(n.Anno, anno)
		}
		if err := p.expect(tokPunct, ")"); err != nil {
			return Node{}, err
		}
		return n, nil
	}
	if p.at(tokPunct, "<") {
		line := p.cur().line
		p.advance()
		var vs Values
		for !p.accept(tokPunct, ">") {
			el, err := p.parseExpr()
			if err != nil {
				return Node{}, err
			}
			vs.Elements = append(vs.Elements, el)
			if !p.accept(tokPunct, ",") && !p.at(tokPunct, ">") {
				return Node{}, p.errorf("expected \",\" or \">\" in value list, found %s", p.cur())
			}
		}
		return Node{Anno: Anno{Line: line}, Expr: vs}, nil
	}
	return p.parseSingle()
}

func (p *parser) parseSingle() (Node, error) {
	t := p.cur()
	node := func(e Expr) Node { return Node{Anno: Anno{Line: t.line}, Expr: e} }

	switch t.kind {
	case tokAtom:
		p.advance()
		// 'name'/arity in expression position is a local function
		// reference, as in apply operators
		if p.at(tokPunct, "/") && p.toks[p.pos+1].kind == tokInt {
			p.advance()
			arityTok := p.advance()
			arity := 0
			fmt.Sscanf(arityTok.text, "%d", &arity)
			return node(LocalFun{Name: t.text, Arity: arity}), nil
		}
		return node(Literal{Kind: LitAtom, Value: t.text}), nil
	case tokInt:
		p.advance()
		return node(Literal{Kind: LitInt, Value: t.text}), nil
	case tokFloat:
		p.advance()
		return node(Literal{Kind: LitFloat, Value: t.text}), nil
	case tokChar:
		p.advance()
		return node(Literal{Kind: LitChar, Value: t.text}), nil
	case tokString:
		p.advance()
		return node(Literal{Kind: LitString, Value: t.text}), nil
	case tokVar:
		p.advance()
		return node(Var{Name: t.text}), nil
	}

	switch {
	case p.accept(tokPunct, "-"):
		num := p.cur()
		if num.kind != tokInt && num.kind != tokFloat {
			return Node{}, p.errorf("expected number after \"-\", found %s", num)
		}
		p.advance()
		kind := LitInt
		if num.kind == tokFloat {
			kind = LitFloat
		}
		return node(Literal{Kind: kind, Value: "-" + num.text}), nil

	case p.accept(tokPunct, "["):
		return p.parseListTail(t.line)

	case p.accept(tokPunct, "{"):
		var tup Tuple
		for !p.accept(tokPunct, "}") {
			el, err := p.parseExpr()
			if err != nil {
				return Node{}, err
			}
			tup.Elements = append(tup.Elements, el)
			if !p.accept(tokPunct, ",") && !p.at(tokPunct, "}") {
				return Node{}, p.errorf("expected \",\" or \"}\" in tuple, found %s", p.cur())
			}
		}
		return node(tup), nil

	case p.accept(tokPunct, "#{"):
		var bin Binary
		for !p.accept(tokPunct, "}#") {
			seg, err := p.parseSegment()
			if err != nil {
				return Node{}, err
			}
			bin.Segments = append(bin.Segments, seg)
			if !p.accept(tokPunct, ",") && !p.at(tokPunct, "}#") {
				return Node{}, p.errorf("expected \",\" or \"}#\" in binary, found %s", p.cur())
			}
		}
		return node(bin), nil

	case p.accept(tokPunct, "~{"):
		return p.parseMapTail(t.line)

	case p.accept(tokKeyword, "fun"):
		return p.parseFunTail(t.line)

	case p.accept(tokKeyword, "let"):
		vars, err := p.parseVarList()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokPunct, "="); err != nil {
			return Node{}, err
		}
		arg, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokKeyword, "in"); err != nil {
			return Node{}, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		return node(Let{Vars: vars, Arg: arg, Body: body}), nil

	case p.accept(tokKeyword, "letrec"):
		var defs []FunDef
		for !p.accept(tokKeyword, "in") {
			def, err := p.parseFunDef()
			if err != nil {
				return Node{}, err
			}
			defs = append(defs, def)
		}
		body, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		return node(LetRec{Defs: defs, Body: body}), nil

	case p.accept(tokKeyword, "case"):
		arg, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokKeyword, "of"); err != nil {
			return Node{}, err
		}
		var clauses []Clause
		for !p.accept(tokKeyword, "end") {
			cl, err := p.parseClause()
			if err != nil {
				return Node{}, err
			}
			clauses = append(clauses, cl)
		}
		return node(Case{Arg: arg, Clauses: clauses}), nil

	case p.accept(tokKeyword, "receive"):
		var clauses []Clause
		for !p.accept(tokKeyword, "after") {
			cl, err := p.parseClause()
			if err != nil {
				return Node{}, err
			}
			clauses = append(clauses, cl)
		}
		timeout, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokPunct, "->"); err != nil {
			return Node{}, err
		}
		action, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		return node(Receive{Clauses: clauses, Timeout: timeout, Action: action}), nil

	case p.accept(tokKeyword, "try"):
		arg, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokKeyword, "of"); err != nil {
			return Node{}, err
		}
		vars, err := p.parseVarList()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokPunct, "->"); err != nil {
			return Node{}, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokKeyword, "catch"); err != nil {
			return Node{}, err
		}
		evars, err := p.parseVarList()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokPunct, "->"); err != nil {
			return Node{}, err
		}
		handler, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		return node(Try{Arg: arg, Vars: vars, Body: body, EVars: evars, Handler: handler}), nil

	case p.accept(tokKeyword, "do"):
		first, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		rest, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		return node(Seq{First: first, Rest: rest}), nil

	case p.accept(tokKeyword, "catch"):
		body, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		return node(Catch{Body: body}), nil

	case p.accept(tokKeyword, "call"):
		mod, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokPunct, ":"); err != nil {
			return Node{}, err
		}
		fn, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return Node{}, err
		}
		return node(Call{Module: mod, Function: fn, Args: args}), nil

	case p.accept(tokKeyword, "apply"):
		op, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return Node{}, err
		}
		return node(Apply{Op: op, Args: args}), nil

	case p.accept(tokKeyword, "primop"):
		name, err := p.parseAtom()
		if err != nil {
			return Node{}, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return Node{}, err
		}
		return node(PrimOp{Name: name, Args: args}), nil
	}

	return Node{}, p.errorf("unexpected %s in expression", t)
}

// parseListTail parses the remainder of a `[...]` after the opening bracket,
// desugaring to nested cons cells with a nil tail.
func (p *parser) parseListTail(line int) (Node, error) {
	nilNode := Node{Anno: Anno{Line: line}, Expr: Literal{Kind: LitNil}}
	if p.accept(tokPunct, "]") {
		return nilNode, nil
	}
	var elems []Node
	tail := nilNode
	for {
		el, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		elems = append(elems, el)
		if p.accept(tokPunct, ",") {
			continue
		}
		if p.accept(tokPunct, "|") {
			tail, err = p.parseExpr()
			if err != nil {
				return Node{}, err
			}
		}
		if err := p.expect(tokPunct, "]"); err != nil {
			return Node{}, err
		}
		break
	}
	out := tail
	for i := len(elems) - 1; i >= 0; i-- {
		out = Node{Anno: elems[i].Anno, Expr: Cons{Head: elems[i], Tail: out}}
	}
	return out, nil
}

func (p *parser) parseSegment() (Segment, error) {
	if err := p.expect(tokPunct, "#<"); err != nil {
		return Segment{}, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return Segment{}, err
	}
	if err := p.expect(tokPunct, ">"); err != nil {
		return Segment{}, err
	}
	args, err := p.parseArgList()
	if err != nil {
		return Segment{}, err
	}
	return Segment{Value: val, Args: args}, nil
}

func (p *parser) parseMapTail(line int) (Node, error) {
	var m Map
	for !p.at(tokPunct, "}~") && !p.at(tokPunct, "|") {
		key, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		exact := false
		if p.accept(tokPunct, ":=") {
			exact = true
		} else if err := p.expect(tokPunct, "=>"); err != nil {
			return Node{}, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		m.Pairs = append(m.Pairs, MapPair{Exact: exact, Key: key, Value: val})
		if !p.accept(tokPunct, ",") {
			break
		}
	}
	if p.accept(tokPunct, "|") {
		arg, err := p.parseExpr()
		if err != nil {
			return Node{}, err
		}
		m.Arg = &arg
	}
	if err := p.expect(tokPunct, "}~"); err != nil {
		return Node{}, err
	}
	return Node{Anno: Anno{Line: line}, Expr: m}, nil
}

// parseFunTail parses what follows the `fun` keyword: a lambda or an
// external function reference `fun 'm':'f'/a`.
func (p *parser) parseFunTail(line int) (Node, error) {
	if p.cur().kind == tokAtom {
		mod, err := p.parseAtom()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokPunct, ":"); err != nil {
			return Node{}, err
		}
		fn, err := p.parseFunName()
		if err != nil {
			return Node{}, err
		}
		return Node{Anno: Anno{Line: line}, Expr: ExtFun{Module: mod, Function: fn.Name, Arity: fn.Arity}}, nil
	}
	if err := p.expect(tokPunct, "("); err != nil {
		return Node{}, err
	}
	var params []string
	for !p.accept(tokPunct, ")") {
		t := p.cur()
		if t.kind != tokVar {
			return Node{}, p.errorf("expected parameter variable, found %s", t)
		}
		p.advance()
		params = append(params, t.text)
		if !p.accept(tokPunct, ",") && !p.at(tokPunct, ")") {
			return Node{}, p.errorf("expected \",\" or \")\" in parameter list, found %s", p.cur())
		}
	}
	if err := p.expect(tokPunct, "->"); err != nil {
		return Node{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return Node{}, err
	}
	return Node{Anno: Anno{Line: line}, Expr: Fun{Params: params, Body: body}}, nil
}

// parseVarList parses a binding position: one variable or `<V1,...,Vn>`.
func (p *parser) parseVarList() ([]string, error) {
	if p.cur().kind == tokVar {
		t := p.advance()
		return []string{t.text}, nil
	}
	if err := p.expect(tokPunct, "<"); err != nil {
		return nil, err
	}
	var vars []string
	for !p.accept(tokPunct, ">") {
		t := p.cur()
		if t.kind != tokVar {
			return nil, p.errorf("expected variable, found %s", t)
		}
		p.advance()
		vars = append(vars, t.text)
		if !p.accept(tokPunct, ",") && !p.at(tokPunct, ">") {
			return nil, p.errorf("expected \",\" or \">\" in variable list, found %s", p.cur())
		}
	}
	return vars, nil
}

func (p *parser) parseArgList() ([]Node, error) {
	if err := p.expect(tokPunct, "("); err != nil {
		return nil, err
	}
	var args []Node
	for !p.accept(tokPunct, ")") {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.accept(tokPunct, ",") && !p.at(tokPunct, ")") {
			return nil, p.errorf("expected \",\" or \")\" in argument list, found %s", p.cur())
		}
	}
	return args, nil
}

// parseClause parses `patterns when guard -> body`. A clause may be
// annotation-wrapped as a whole, which is only distinguishable from an
// annotated first pattern by parsing ahead, so that case backtracks.
func (p *parser) parseClause() (Clause, error) {
	if p.at(tokPunct, "(") {
		mark := p.pos
		p.advance()
		if cl, err := p.parseClause(); err == nil && p.at(tokPunct, "-|") {
			p.advance()
			anno, err := p.skipAnnoTerms()
			if err != nil {
				return Clause{}, err
			}
			if err := p.expect(tokPunct, ")"); err != nil {
				return Clause{}, err
			}
			cl.Anno = mergeAnno(cl.Anno, anno)
			return cl, nil
		}
		p.pos = mark
	}

	line := p.cur().line
	var pats []Node
	if p.at(tokPunct, "<") {
		mark := p.pos
		p.advance()
		ok := true
		for !p.accept(tokPunct, ">") {
			pat, err := p.parsePattern()
			if err != nil {
				ok = false
				break
			}
			pats = append(pats, pat)
			if !p.accept(tokPunct, ",") && !p.at(tokPunct, ">") {
				ok = false
				break
			}
		}
		if !ok {
			p.pos = mark
			pats = nil
		}
	}
	if pats == nil {
		pat, err := p.parsePattern()
		if err != nil {
			return Clause{}, err
		}
		pats = []Node{pat}
	}

	if err := p.expect(tokKeyword, "when"); err != nil {
		return Clause{}, err
	}
	guard, err := p.parseExpr()
	if err != nil {
		return Clause{}, err
	}
	if err := p.expect(tokPunct, "->"); err != nil {
		return Clause{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return Clause{}, err
	}
	return Clause{Anno: Anno{Line: line}, Patterns: pats, Guard: guard, Body: body}, nil
}

// parsePattern parses a pattern. Patterns share the literal/compound shapes
// of expressions plus variable aliases `V = P`.
func (p *parser) parsePattern() (Node, error) {
	if p.accept(tokPunct, "(") {
		pat, err := p.parsePattern()
		if err != nil {
			return Node{}, err
		}
		if p.accept(tokPunct, "-|") {
			anno, err := p.skipAnnoTerms()
			if err != nil {
				return Node{}, err
			}
			pat.Anno = mergeAnno(pat.Anno, anno)
		}
		if err := p.expect(tokPunct, ")"); err != nil {
			return Node{}, err
		}
		return pat, nil
	}

	t := p.cur()
	if t.kind == tokVar {
		p.advance()
		if p.accept(tokPunct, "=") {
			sub, err := p.parsePattern()
			if err != nil {
				return Node{}, err
			}
			return Node{Anno: Anno{Line: t.line}, Expr: Alias{Var: t.text, Pattern: sub}}, nil
		}
		return Node{Anno: Anno{Line: t.line}, Expr: Var{Name: t.text}}, nil
	}

	switch {
	case p.accept(tokPunct, "["):
		return p.parsePatternListTail(t.line)
	case p.accept(tokPunct, "{"):
		var tup Tuple
		for !p.accept(tokPunct, "}") {
			el, err := p.parsePattern()
			if err != nil {
				return Node{}, err
			}
			tup.Elements = append(tup.Elements, el)
			if !p.accept(tokPunct, ",") && !p.at(tokPunct, "}") {
				return Node{}, p.errorf("expected \",\" or \"}\" in tuple pattern, found %s", p.cur())
			}
		}
		return Node{Anno: Anno{Line: t.line}, Expr: tup}, nil
	case p.accept(tokPunct, "#{"):
		var bin Binary
		for !p.accept(tokPunct, "}#") {
			if err := p.expect(tokPunct, "#<"); err != nil {
				return Node{}, err
			}
			val, err := p.parsePattern()
			if err != nil {
				return Node{}, err
			}
			if err := p.expect(tokPunct, ">"); err != nil {
				return Node{}, err
			}
			args, err := p.parseArgList()
			if err != nil {
				return Node{}, err
			}
			bin.Segments = append(bin.Segments, Segment{Value: val, Args: args})
			if !p.accept(tokPunct, ",") && !p.at(tokPunct, "}#") {
				return Node{}, p.errorf("expected \",\" or \"}#\" in binary pattern, found %s", p.cur())
			}
		}
		return Node{Anno: Anno{Line: t.line}, Expr: bin}, nil
	case p.accept(tokPunct, "~{"):
		return p.parseMapTail(t.line)
	}

	// remaining pattern shapes are the literals
	switch t.kind {
	case tokAtom, tokInt, tokFloat, tokChar, tokString:
		return p.parseSingle()
	}
	if p.at(tokPunct, "-") {
		return p.parseSingle()
	}
	return Node{}, p.errorf("unexpected %s in pattern", t)
}

func (p *parser) parsePatternListTail(line int) (Node, error) {
	nilNode := Node{Anno: Anno{Line: line}, Expr: Literal{Kind: LitNil}}
	if p.accept(tokPunct, "]") {
		return nilNode, nil
	}
	var elems []Node
	tail := nilNode
	for {
		el, err := p.parsePattern()
		if err != nil {
			return Node{}, err
		}
		elems = append(elems, el)
		if p.accept(tokPunct, ",") {
			continue
		}
		if p.accept(tokPunct, "|") {
			tail, err = p.parsePattern()
			if err != nil {
				return Node{}, err
			}
		}
		if err := p.expect(tokPunct, "]"); err != nil {
			return Node{}, err
		}
		break
	}
	out := tail
	for i := len(elems) - 1; i >= 0; i-- {
		out = Node{Anno: elems[i].Anno, Expr: Cons{Head: elems[i], Tail: out}}
	}
	return out, nil
}

// skipAnnoTerms consumes the annotation term list after `-|` and returns it
// in Anno form.
func (p *parser) skipAnnoTerms() (Anno, error) {
	var anno Anno
	if err := p.expect(tokPunct, "["); err != nil {
		return anno, err
	}
	depth := 1
	var sb strings.Builder
	for depth > 0 {
		t := p.cur()
		if t.kind == tokEOF {
			return anno, p.errorf("unterminated annotation")
		}
		p.advance()
		switch {
		case t.kind == tokPunct && (t.text == "[" || t.text == "{"):
			depth++
			sb.WriteString(t.text)
		case t.kind == tokPunct && (t.text == "]" || t.text == "}"):
			depth--
			if depth > 0 {
				sb.WriteString(t.text)
			}
		case t.kind == tokPunct && t.text == ",":
			if depth == 1 {
				anno.Terms = append(anno.Terms, sb.String())
				sb.Reset()
			} else {
				sb.WriteString(t.text)
			}
		default:
			if t.kind == tokInt && depth == 1 && anno.Line == 0 {
				fmt.Sscanf(t.text, "%d", &anno.Line)
			}
			sb.WriteString(t.String())
		}
	}
	if sb.Len() > 0 {
		anno.Terms = append(anno.Terms, sb.String())
	}
	return anno, nil
}

// parseConstTerm parses an attribute value term and returns its printed
// form. Attribute structure is not interpreted by this tool.
func (p *parser) parseConstTerm() (string, error) {
	t := p.cur()
	switch t.kind {
	case tokAtom:
		p.advance()
		return "'" + t.text + "'", nil
	case tokInt, tokFloat, tokVar:
		p.advance()
		return t.text, nil
	case tokString:
		p.advance()
		return fmt.Sprintf("%q", t.text), nil
	case tokChar:
		p.advance()
		return "$" + t.text, nil
	}
	open, closer := "", ""
	switch {
	case p.accept(tokPunct, "["):
		open, closer = "[", "]"
	case p.accept(tokPunct, "{"):
		open, closer = "{", "}"
	case p.accept(tokPunct, "-"):
		rest, err := p.parseConstTerm()
		if err != nil {
			return "", err
		}
		return "-" + rest, nil
	default:
		return "", p.errorf("unexpected %s in attribute term", t)
	}
	var parts []string
	for !p.accept(tokPunct, closer) {
		el, err := p.parseConstTerm()
		if err != nil {
			return "", err
		}
		parts = append(parts, el)
		if p.accept(tokPunct, "|") {
			tail, err := p.parseConstTerm()
			if err != nil {
				return "", err
			}
			parts[len(parts)-1] += "|" + tail
		}
		if !p.accept(tokPunct, ",") && !p.at(tokPunct, closer) {
			return "", p.errorf("expected \",\" or %q in attribute term, found %s", closer, p.cur())
		}
	}
	return open + strings.Join(parts, ",") + closer, nil
}

func mergeAnno(inner, outer Anno) Anno {
	out := inner
	if outer.Line != 0 {
		out.Line = outer.Line
	}
	out.Terms = append(out.Terms, outer.Terms...)
	return out
}
