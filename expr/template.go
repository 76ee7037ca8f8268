// Package expr implements the small expression language used to build log
// messages from a call context.
//
// A template is an expression combining single-quoted string literals,
// integer literals and variable references with '+':
//
//	'[method:' + #method + '][key:' + #args[0] + ']'
//
// Variables are written #name and are resolved against a Vars lookup at
// render time. A variable may be indexed (#args[0], #attrs['id']) or have a
// property read from it (#return.Name, #exception.Error). The literals null,
// true and false are recognised. When either operand of '+' is a string the
// other operand is converted to its string form (nil becomes "null");
// when both are integers they are added.
//
// Parsed templates are immutable and may be rendered concurrently.
package expr

import (
	"fmt"
)

// NullText is the text a nil value contributes to a concatenation.
const NullText = "null"

// Vars resolves variable names to values.
type Vars interface {
	Lookup(name string) (any, bool)
}

// MapVars is a Vars backed by a plain map.
type MapVars map[string]any

// Lookup implements Vars.
func (m MapVars) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Template is a parsed expression.
type Template struct {
	src  string
	root node
}

// Parse parses src into a Template.
func Parse(src string) (*Template, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, newTemplateError(src, 0, ErrEmptyTemplate)
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, newTemplateError(src, tok.pos, fmt.Errorf("%w: %s", ErrUnexpectedToken, tok.kind))
	}
	return &Template{src: src, root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Template {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the source of the template.
func (t *Template) String() string {
	return t.src
}

// Variables returns the names of the variables the template references, in
// order of first appearance.
func (t *Template) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	walk(t.root, func(n node) {
		if v, ok := n.(*varNode); ok && !seen[v.name] {
			seen[v.name] = true
			names = append(names, v.name)
		}
	})
	return names
}

// Evaluate evaluates the template and returns the raw result.
func (t *Template) Evaluate(vars Vars) (any, error) {
	v, err := t.root.eval(vars)
	if err != nil {
		return nil, t.wrap(err)
	}
	return v, nil
}

// Render evaluates the template and requires the result to be a string.
func (t *Template) Render(vars Vars) (string, error) {
	v, err := t.Evaluate(vars)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", newTemplateError(t.src, -1, fmt.Errorf("%w: got %s", ErrNotAString, describe(v)))
	}
	return s, nil
}

// Render parses src and renders it against vars.
func Render(src string, vars Vars) (string, error) {
	t, err := Parse(src)
	if err != nil {
		return "", err
	}
	return t.Render(vars)
}

func (t *Template) wrap(err error) error {
	if ee, ok := err.(*evalError); ok {
		return newTemplateError(t.src, ee.pos, ee.err)
	}
	return newTemplateError(t.src, -1, err)
}

type parser struct {
	src    string
	tokens []token
	i      int
}

func (p *parser) peek() token { return p.tokens[p.i] }

func (p *parser) next() token {
	tok := p.tokens[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, newTemplateError(p.src, tok.pos, fmt.Errorf("%w: expected %s, found %s", ErrUnexpectedToken, kind, tok.kind))
	}
	return tok, nil
}

// expr := term ('+' term)*
func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPlus {
		op := p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &addNode{pos: op.pos, left: left, right: right}
	}
	return left, nil
}

// term := primary ('[' expr ']' | '.' ident)*
func (p *parser) parseTerm() (node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch tok := p.peek(); tok.kind {
		case tokLBracket:
			p.next()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			n = &indexNode{pos: tok.pos, target: n, index: idx}
		case tokDot:
			p.next()
			name, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			n = &propNode{pos: name.pos, target: n, name: name.text}
		default:
			return n, nil
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return &litNode{val: tok.text}, nil
	case tokInt:
		return &litNode{val: tok.num}, nil
	case tokVariable:
		return &varNode{pos: tok.pos, name: tok.text}, nil
	case tokIdent:
		switch tok.text {
		case "null":
			return &litNode{val: nil}, nil
		case "true":
			return &litNode{val: true}, nil
		case "false":
			return &litNode{val: false}, nil
		}
		return nil, newTemplateError(p.src, tok.pos, fmt.Errorf("%w: bare identifier %q (variables start with '#')", ErrSyntax, tok.text))
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, newTemplateError(p.src, tok.pos, fmt.Errorf("%w: %s", ErrUnexpectedToken, tok.kind))
	}
}
