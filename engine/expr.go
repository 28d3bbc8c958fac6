/*
expr.go - Narrow constant-expression evaluator

PURPOSE:
  Evaluates the formula field of generic catalog rubriques. The grammar is
  deliberately tiny: decimal numbers, + - * /, parentheses, unary minus,
  and whitespace. NO identifiers, NO function calls, NO variable lookup -
  anything that needs employee or parameter data gets its own dispatch
  case instead of a formula string. This is a constant evaluator, not a
  general-purpose expression engine.
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EvalConstExpr evaluates a constant arithmetic expression.
func EvalConstExpr(input string) (decimal.Decimal, error) {
	p := &exprParser{input: input}
	v, err := p.parseExpr()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at offset %d", ErrInvalidFormula, p.input[p.pos:], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// expr := term (('+'|'-') term)*
func (p *exprParser) parseExpr() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpaces()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '+' {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

// term := factor (('*'|'/') factor)*
func (p *exprParser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpaces()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '*' {
			left = left.Mul(right)
		} else {
			if right.IsZero() {
				return decimal.Zero, fmt.Errorf("%w: division by zero", ErrInvalidFormula)
			}
			left = left.Div(right)
		}
	}
}

// factor := number | '(' expr ')' | '-' factor
func (p *exprParser) parseFactor() (decimal.Decimal, error) {
	p.skipSpaces()
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return decimal.Zero, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return decimal.Zero, fmt.Errorf("%w: missing closing parenthesis", ErrInvalidFormula)
		}
		p.pos++
		return v, nil
	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil
	case c >= '0' && c <= '9':
		return p.parseNumber()
	default:
		return decimal.Zero, fmt.Errorf("%w: unexpected character at offset %d", ErrInvalidFormula, p.pos)
	}
}

func (p *exprParser) parseNumber() (decimal.Decimal, error) {
	start := p.pos
	seenDot := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		break
	}
	lit := p.input[start:p.pos]
	if lit == "" || strings.HasSuffix(lit, ".") {
		return decimal.Zero, fmt.Errorf("%w: malformed number %q", ErrInvalidFormula, lit)
	}
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	return v, nil
}
