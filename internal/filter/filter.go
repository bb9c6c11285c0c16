// Package filter parses and evaluates newsboat style filter expressions
// such as `tags # "news" and unread = "yes"`.
package filter

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Attributes is anything that can resolve a named attribute. A false
// second return means the attribute is absent, which never matches.
type Attributes interface {
	AttributeValue(name string) (string, bool)
}

// Expr is a parsed filter expression.
type Expr interface {
	Matches(attrs Attributes) (bool, error)
	String() string
}

// Parse compiles a filter expression. The returned error is a [*SyntaxError]
// for malformed input.
func Parse(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, toks: toks}
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", t)
	}
	return expr, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) or() (Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) and() (Expr, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.advance()
	switch t.kind {
	case tokLParen:
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", closing)
		}
		return inner, nil
	case tokIdent:
		return p.comparison(t.text)
	}
	return nil, p.errorf(t, "expected an attribute name or '(' but found %s", t)
}

func (p *parser) comparison(attr string) (Expr, error) {
	opTok := p.advance()
	if opTok.kind != tokOp {
		return nil, p.errorf(opTok, "expected an operator after %q but found %s", attr, opTok)
	}

	valTok := p.advance()
	c := comparison{attr: attr, op: opTok.text, value: valTok.text}
	switch valTok.kind {
	case tokString, tokNumber:
	case tokRange:
		if c.op != "between" {
			return nil, p.errorf(valTok, "range %s is only valid with between", valTok)
		}
		lo, hi, _ := strings.Cut(valTok.text, ":")
		c.lo, _ = strconv.Atoi(lo)
		c.hi, _ = strconv.Atoi(hi)
		return c, nil
	default:
		return nil, p.errorf(valTok, "expected a value after %q but found %s", c.op, valTok)
	}

	switch c.op {
	case "between":
		return nil, p.errorf(valTok, "between needs a range like 1:5")
	case "=~", "!~":
		re, err := regexp.Compile("(?i)" + c.value)
		if err != nil {
			return nil, p.errorf(valTok, "bad regular expression: %s", err)
		}
		c.re = re
	}
	return c, nil
}

type andExpr struct{ left, right Expr }

func (e andExpr) Matches(attrs Attributes) (bool, error) {
	ok, err := e.left.Matches(attrs)
	if err != nil || !ok {
		return false, err
	}
	return e.right.Matches(attrs)
}

func (e andExpr) String() string { return fmt.Sprintf("(%s and %s)", e.left, e.right) }

type orExpr struct{ left, right Expr }

func (e orExpr) Matches(attrs Attributes) (bool, error) {
	ok, err := e.left.Matches(attrs)
	if err != nil || ok {
		return ok, err
	}
	return e.right.Matches(attrs)
}

func (e orExpr) String() string { return fmt.Sprintf("(%s or %s)", e.left, e.right) }

type comparison struct {
	attr  string
	op    string
	value string
	re    *regexp.Regexp
	lo    int
	hi    int
}

func (c comparison) String() string {
	if c.op == "between" {
		return fmt.Sprintf("%s between %d:%d", c.attr, c.lo, c.hi)
	}
	return fmt.Sprintf("%s %s %q", c.attr, c.op, c.value)
}

func (c comparison) Matches(attrs Attributes) (bool, error) {
	actual, ok := attrs.AttributeValue(c.attr)
	if !ok {
		return false, nil
	}

	switch c.op {
	case "=", "==":
		return actual == c.value, nil
	case "!=":
		return actual != c.value, nil
	case "=~":
		return c.re.MatchString(actual), nil
	case "!~":
		return !c.re.MatchString(actual), nil
	case "#":
		return slices.Contains(strings.Fields(actual), c.value), nil
	case "!#":
		return !slices.Contains(strings.Fields(actual), c.value), nil
	}

	n, err := c.number(actual)
	if err != nil {
		return false, err
	}
	if c.op == "between" {
		lo, hi := min(c.lo, c.hi), max(c.lo, c.hi)
		return n >= lo && n <= hi, nil
	}

	want, err := strconv.Atoi(c.value)
	if err != nil {
		return false, fmt.Errorf("%s %s %q: value is not a number", c.attr, c.op, c.value)
	}
	switch c.op {
	case "<":
		return n < want, nil
	case ">":
		return n > want, nil
	case "<=":
		return n <= want, nil
	case ">=":
		return n >= want, nil
	}
	return false, fmt.Errorf("unknown operator %q", c.op)
}

func (c comparison) number(actual string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(actual))
	if err != nil {
		return 0, fmt.Errorf("%s %s: attribute value %q is not a number", c.attr, c.op, actual)
	}
	return n, nil
}
