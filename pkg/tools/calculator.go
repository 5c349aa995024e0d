package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/andhika/lyra/pkg/tool"
)

// Calculator evaluates arithmetic expressions with a small
// recursive-descent parser. It never shells out and never touches the
// Go runtime's eval-like facilities; the grammar is numbers, + - * /,
// % and ** with parentheses and unary sign.
type Calculator struct{}

// NewCalculator builds the calculator tool.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Descriptor implements tool.Tool.
func (c *Calculator) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "calculator",
		Description: "Perform mathematical calculations. Supports basic arithmetic (+, -, *, /), exponents (**), and modulo (%).",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "Mathematical expression to evaluate (e.g., '2 + 2', '10 * 5 + 3')",
				},
			},
			"required": []interface{}{"expression"},
		},
	}
}

// Run implements tool.Tool. Malformed expressions and arithmetic
// faults are reported in-band with success false; they are not
// transport failures and must not be retried.
func (c *Calculator) Run(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	expression, _ := args["expression"].(string)

	result, err := evaluate(expression)
	if err != nil {
		return map[string]interface{}{
			"expression": expression,
			"result":     nil,
			"success":    false,
			"error":      err.Error(),
			"sources":    calculatorSources(),
		}, nil
	}

	return map[string]interface{}{
		"expression": expression,
		"result":     result,
		"success":    true,
		"sources":    calculatorSources(),
	}, nil
}

// Close implements tool.Tool.
func (c *Calculator) Close() error { return nil }

func calculatorSources() []interface{} {
	return []interface{}{
		map[string]interface{}{"name": "Calculator", "url": "internal://calculator"},
	}
}

// evaluate parses and computes expression.
//
// Grammar, lowest precedence first:
//
//	expr  = term {("+" | "-") term}
//	term  = unary {("*" | "/" | "%") unary}
//	unary = ("+" | "-") unary | power
//	power = atom ["**" unary]
//	atom  = number | "(" expr ")"
//
// Exponentiation is right associative and binds tighter than unary
// sign, so "-2**2" is -4.
func evaluate(expression string) (float64, error) {
	p := &exprParser{input: expression}
	p.skipSpace()
	if p.eof() {
		return 0, fmt.Errorf("empty expression")
	}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.eof() {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) eof() bool { return p.pos >= len(p.input) }

func (p *exprParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
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

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpace()
	switch p.peek() {
	case '+':
		p.pos++
		return p.parseUnary()
	case '-':
		p.pos++
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], "**") {
		p.pos += 2
		exponent, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exponent), nil
	}
	return base, nil
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpace()
	if p.eof() {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if p.peek() == '(' {
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return value, nil
	}

	start := p.pos
	for !p.eof() {
		ch := p.input[p.pos]
		if (ch >= '0' && ch <= '9') || ch == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value, nil
}
