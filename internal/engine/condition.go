package engine

import (
	"fmt"
	"strconv"

	"github.com/praxis-ai/praxis/internal/types"
)

// Condition evaluation for step guard expressions.
//
// Guards are boolean expressions over state variables, evaluated before a
// step dispatches. Supported syntax:
//
//   - Variable references: bare identifiers or $name, with dotted paths
//     into nested maps ("result.exit_code", "$last_file")
//   - Comparison operators: ==, !=, <, >, <=, >=
//   - Boolean operators: &&, ||, !
//   - Literals: true, false, numbers, quoted strings
//   - Parentheses for grouping
//   - Built-in functions: len(), empty(), exists()
//
// Examples:
//
//	$retry_count < 3
//	last_output == "ok" && !empty(last_file)
//	exists(api_key) || fallback_enabled
//
// All expressions must evaluate to a boolean; anything else is a
// CONDITION_INVALID error.

// conditionFunc is a function callable within guard expressions.
type conditionFunc func(args []any) (any, error)

// ConditionEvaluator parses and evaluates step guard expressions against
// the current state variables.
type ConditionEvaluator struct {
	functions map[string]conditionFunc
}

// NewConditionEvaluator creates an evaluator with the built-in functions.
func NewConditionEvaluator() *ConditionEvaluator {
	ce := &ConditionEvaluator{functions: make(map[string]conditionFunc)}

	ce.functions["len"] = func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("len() requires exactly 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case string:
			return float64(len(v)), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		default:
			return nil, fmt.Errorf("len() requires string, array, or map argument")
		}
	}

	ce.functions["empty"] = func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("empty() requires exactly 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case string:
			return len(v) == 0, nil
		case []any:
			return len(v) == 0, nil
		case map[string]any:
			return len(v) == 0, nil
		case nil:
			return true, nil
		default:
			return false, nil
		}
	}

	ce.functions["exists"] = func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("exists() requires exactly 1 argument, got %d", len(args))
		}
		return args[0] != nil, nil
	}

	return ce
}

// Evaluate parses and evaluates a guard expression against the given state
// variables. Unknown variables evaluate to nil rather than erroring, so
// exists() checks work naturally.
func (ce *ConditionEvaluator) Evaluate(expr string, vars map[string]any) (bool, error) {
	tokens, err := tokenizeCondition(expr)
	if err != nil {
		return false, types.WrapError(types.CONDITION_INVALID,
			fmt.Sprintf("failed to tokenize condition %q", expr), err)
	}

	p := &condParser{tokens: tokens, vars: vars, evaluator: ce}
	result, err := p.parseExpression()
	if err != nil {
		return false, types.WrapError(types.CONDITION_INVALID,
			fmt.Sprintf("failed to evaluate condition %q", expr), err)
	}
	if p.peek().typ != tokenEOF {
		return false, types.NewError(types.CONDITION_INVALID,
			fmt.Sprintf("unexpected trailing input in condition %q", expr))
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, types.NewError(types.CONDITION_INVALID,
			fmt.Sprintf("condition %q did not evaluate to boolean, got %T", expr, result))
	}

	return boolResult, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdentifier
	tokenNumber
	tokenString
	tokenBool
	tokenDot
	tokenComma
	tokenLParen
	tokenRParen
	tokenEQ
	tokenNE
	tokenLT
	tokenLE
	tokenGT
	tokenGE
	tokenAnd
	tokenOr
	tokenNot
)

type token struct {
	typ   tokenType
	value string
}

func tokenizeCondition(expr string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(expr) {
		c := expr[i]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		switch c {
		case '.':
			tokens = append(tokens, token{tokenDot, "."})
			i++
			continue
		case ',':
			tokens = append(tokens, token{tokenComma, ","})
			i++
			continue
		case '(':
			tokens = append(tokens, token{tokenLParen, "("})
			i++
			continue
		case ')':
			tokens = append(tokens, token{tokenRParen, ")"})
			i++
			continue
		}

		// Two-character operators first.
		if i+1 < len(expr) {
			switch expr[i : i+2] {
			case "==":
				tokens = append(tokens, token{tokenEQ, "=="})
				i += 2
				continue
			case "!=":
				tokens = append(tokens, token{tokenNE, "!="})
				i += 2
				continue
			case "<=":
				tokens = append(tokens, token{tokenLE, "<="})
				i += 2
				continue
			case ">=":
				tokens = append(tokens, token{tokenGE, ">="})
				i += 2
				continue
			case "&&":
				tokens = append(tokens, token{tokenAnd, "&&"})
				i += 2
				continue
			case "||":
				tokens = append(tokens, token{tokenOr, "||"})
				i += 2
				continue
			}
		}

		switch c {
		case '<':
			tokens = append(tokens, token{tokenLT, "<"})
			i++
			continue
		case '>':
			tokens = append(tokens, token{tokenGT, ">"})
			i++
			continue
		case '!':
			tokens = append(tokens, token{tokenNot, "!"})
			i++
			continue
		}

		// Quoted strings.
		if c == '"' || c == '\'' {
			quote := c
			j := i + 1
			for j < len(expr) && expr[j] != quote {
				j++
			}
			if j >= len(expr) {
				return nil, fmt.Errorf("unterminated string at position %d", i)
			}
			tokens = append(tokens, token{tokenString, expr[i+1 : j]})
			i = j + 1
			continue
		}

		// Numbers.
		if c >= '0' && c <= '9' {
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokenNumber, expr[i:j]})
			i = j
			continue
		}

		// Identifiers, booleans, and $var references.
		if isIdentStart(c) {
			j := i
			if expr[j] == '$' {
				j++
			}
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			word := expr[i:j]
			switch word {
			case "true", "false":
				tokens = append(tokens, token{tokenBool, word})
			default:
				tokens = append(tokens, token{tokenIdentifier, word})
			}
			i = j
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
	}

	tokens = append(tokens, token{tokenEOF, ""})
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c == '$' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type condParser struct {
	tokens    []token
	pos       int
	vars      map[string]any
	evaluator *ConditionEvaluator
}

func (p *condParser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{tokenEOF, ""}
	}
	return p.tokens[p.pos]
}

func (p *condParser) next() token {
	tok := p.peek()
	p.pos++
	return tok
}

// parseExpression handles || (lowest precedence).
func (p *condParser) parseExpression() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.peek().typ == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = truthy(left) || truthy(right)
	}

	return left, nil
}

func (p *condParser) parseAnd() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.peek().typ == tokenAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = truthy(left) && truthy(right)
	}

	return left, nil
}

func (p *condParser) parseUnary() (any, error) {
	if p.peek().typ == tokenNot {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return !truthy(operand), nil
	}
	return p.parseComparison()
}

func (p *condParser) parseComparison() (any, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	op := p.peek().typ
	switch op {
	case tokenEQ, tokenNE, tokenLT, tokenLE, tokenGT, tokenGE:
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return compare(op, left, right)
	default:
		return left, nil
	}
}

func (p *condParser) parsePrimary() (any, error) {
	tok := p.next()

	switch tok.typ {
	case tokenBool:
		return tok.value == "true", nil

	case tokenNumber:
		n, err := strconv.ParseFloat(tok.value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", tok.value)
		}
		return n, nil

	case tokenString:
		return tok.value, nil

	case tokenLParen:
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.next().typ != tokenRParen {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		return inner, nil

	case tokenIdentifier:
		// Function call?
		if p.peek().typ == tokenLParen {
			return p.parseCall(tok.value)
		}
		return p.resolvePath(tok.value)

	default:
		return nil, fmt.Errorf("unexpected token %q", tok.value)
	}
}

func (p *condParser) parseCall(name string) (any, error) {
	fn, ok := p.evaluator.functions[name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}

	p.next() // consume '('

	var args []any
	if p.peek().typ != tokenRParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().typ != tokenComma {
				break
			}
			p.next()
		}
	}

	if p.next().typ != tokenRParen {
		return nil, fmt.Errorf("expected closing parenthesis after %s()", name)
	}

	return fn(args)
}

// resolvePath resolves an identifier, optionally followed by dotted
// segments into nested maps. A $ prefix is stripped. Missing variables
// resolve to nil.
func (p *condParser) resolvePath(first string) (any, error) {
	name := first
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}

	current, _ := p.vars[name]

	for p.peek().typ == tokenDot {
		p.next()
		seg := p.next()
		if seg.typ != tokenIdentifier {
			return nil, fmt.Errorf("expected identifier after '.'")
		}
		m, ok := current.(map[string]any)
		if !ok {
			current = nil
			continue
		}
		current = m[seg.value]
	}

	return current, nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	case nil:
		return false
	default:
		return true
	}
}

func compare(op tokenType, left, right any) (any, error) {
	// Numeric comparison when both sides are numbers.
	ln, lok := toFloat(left)
	rn, rok := toFloat(right)
	if lok && rok {
		switch op {
		case tokenEQ:
			return ln == rn, nil
		case tokenNE:
			return ln != rn, nil
		case tokenLT:
			return ln < rn, nil
		case tokenLE:
			return ln <= rn, nil
		case tokenGT:
			return ln > rn, nil
		case tokenGE:
			return ln >= rn, nil
		}
	}

	switch op {
	case tokenEQ:
		return fmt.Sprint(left) == fmt.Sprint(right), nil
	case tokenNE:
		return fmt.Sprint(left) != fmt.Sprint(right), nil
	default:
		return nil, fmt.Errorf("ordering comparison requires numeric operands, got %T and %T", left, right)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
