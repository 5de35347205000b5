package executor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// Calculator evaluates arithmetic expressions.
type Calculator struct{}

func (t *Calculator) Name() string { return "calculator" }

func (t *Calculator) Description() string {
	return "Evaluate a numeric math expression (supports +, -, *, /, parentheses)"
}

func (t *Calculator) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	start := time.Now()

	expr, ok := input["expression"].(string)
	if !ok {
		return TimedResult(NewErrorResult(apperrors.User(apperrors.CodeToolInvalidParams, "expression is required")), start), nil
	}

	value, err := Evaluate(expr)
	if err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}
	return TimedResult(NewSuccessResult(FormatNumber(value)), start), nil
}

// Evaluate parses and evaluates expr.
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = ("+" | "-") factor | number | "(" expr ")"
func Evaluate(expr string) (float64, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.done() {
		return 0, apperrors.User(apperrors.CodeInvalidInput, "empty expression")
	}

	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.done() {
		return 0, p.unexpected()
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, apperrors.User(apperrors.CodeInvalidInput, "result is not a finite number")
	}
	return v, nil
}

// FormatNumber prints integral values without a decimal point. Negative
// zero prints as 0.
func FormatNumber(v float64) string {
	if v == 0 {
		v = 0
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.done() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.done() {
			return left, nil
		}
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.done() {
			return left, nil
		}
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		opPos := p.pos
		p.pos++
		right, err := p.factor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, apperrors.User(apperrors.CodeInvalidInput, fmt.Sprintf("division by zero at position %d", opPos))
		}
		left /= right
	}
}

func (p *parser) factor() (float64, error) {
	p.skipSpace()
	if p.done() {
		return 0, apperrors.User(apperrors.CodeInvalidInput, "unexpected end of expression")
	}

	switch c := p.peek(); {
	case c == '+' || c == '-':
		p.pos++
		v, err := p.factor()
		if err != nil {
			return 0, err
		}
		if c == '-' {
			return -v, nil
		}
		return v, nil

	case c == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.done() {
			return 0, apperrors.User(apperrors.CodeInvalidInput, "missing closing parenthesis")
		}
		if p.peek() != ')' {
			return 0, p.unexpected()
		}
		p.pos++
		return v, nil

	case isDigit(c) || c == '.':
		return p.number()

	default:
		return 0, p.unexpected()
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	dots := 0
	for !p.done() && (isDigit(p.peek()) || p.peek() == '.') {
		if p.peek() == '.' {
			dots++
		}
		p.pos++
	}
	text := p.src[start:p.pos]
	if dots > 1 || text == "." {
		return 0, apperrors.User(apperrors.CodeInvalidInput, fmt.Sprintf("malformed number %q at position %d", text, start))
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, apperrors.User(apperrors.CodeInvalidInput, fmt.Sprintf("malformed number %q at position %d", text, start))
	}
	return v, nil
}

// unexpected reports the character at the current position.
func (p *parser) unexpected() error {
	r := []rune(p.src[p.pos:])[0]
	return apperrors.User(apperrors.CodeInvalidInput, fmt.Sprintf("unexpected character %q at position %d", r, p.pos))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
