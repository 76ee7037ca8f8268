package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokInt
	tokVariable
	tokIdent
	tokPlus
	tokDot
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of template"
	case tokString:
		return "string literal"
	case tokInt:
		return "integer literal"
	case tokVariable:
		return "variable"
	case tokIdent:
		return "identifier"
	case tokPlus:
		return "'+'"
	case tokDot:
		return "'.'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "unknown token"
	}
}

type token struct {
	kind tokenKind
	pos  int
	text string // unquoted literal, variable or identifier name
	num  int64
}

// lex splits src into tokens. The returned slice always ends with tokEOF.
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'':
			text, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, pos: i, text: text})
			i = next
		case c == '#':
			end := scanIdent(src, i+1)
			if end == i+1 {
				return nil, newTemplateError(src, i, fmt.Errorf("%w: '#' must be followed by a variable name", ErrSyntax))
			}
			tokens = append(tokens, token{kind: tokVariable, pos: i, text: src[i+1 : end]})
			i = end
		case isDigit(c):
			end := i
			for end < len(src) && isDigit(src[end]) {
				end++
			}
			n, err := strconv.ParseInt(src[i:end], 10, 64)
			if err != nil {
				return nil, newTemplateError(src, i, fmt.Errorf("%w: %v", ErrSyntax, err))
			}
			tokens = append(tokens, token{kind: tokInt, pos: i, num: n})
			i = end
		case isIdentStart(c):
			end := scanIdent(src, i)
			tokens = append(tokens, token{kind: tokIdent, pos: i, text: src[i:end]})
			i = end
		default:
			kind, ok := punctuation[c]
			if !ok {
				return nil, newTemplateError(src, i, fmt.Errorf("%w: unexpected character %q", ErrSyntax, c))
			}
			tokens = append(tokens, token{kind: kind, pos: i})
			i++
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(src)}), nil
}

var punctuation = map[byte]tokenKind{
	'+': tokPlus,
	'.': tokDot,
	'[': tokLBracket,
	']': tokRBracket,
	'(': tokLParen,
	')': tokRParen,
}

// lexString reads a single-quoted literal starting at src[start]. A doubled
// quote inside the literal stands for one quote character.
func lexString(src string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		if src[i] == '\'' {
			if i+1 < len(src) && src[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(src[i])
		i++
	}
	return "", 0, newTemplateError(src, start, ErrUnterminatedString)
}

func scanIdent(src string, i int) int {
	if i >= len(src) || !isIdentStart(src[i]) {
		return i
	}
	for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i])) {
		i++
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
