package parser

import (
	"fmt"
	"strconv"

	"github.com/jldupont/goprolog/pkg/types"
)

// Parser reads clauses one at a time. Operator priorities are resolved by
// precedence climbing over the operator table.
type Parser struct {
	lexer   *Lexer
	current Token
	opts    Options
	vars    map[string]*types.Var
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...Option) *Parser {
	options := Options{
		MaxDepth: 1000,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.VarGen == nil {
		options.VarGen = types.NewVarGen()
	}
	if options.Ops == nil {
		options.Ops = DefaultOps()
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// AtEOF reports whether all clauses have been read.
func (p *Parser) AtEOF() bool {
	return p.current.Type == TokenEOF
}

// Next reads the next clause and returns it shaped for the compiler.
// Variables with the same name within one clause are the same *types.Var.
func (p *Parser) Next() (types.Term, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrUnexpectedEnd, "Unexpected end of input")
	}

	p.vars = make(map[string]*types.Var)
	t, err := p.parse(1200, 0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenEnd); err != nil {
		return nil, err
	}
	return Shape(t), nil
}

func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

// expect consumes a token of the given type or fails.
func (p *Parser) expect(tt TokenType) error {
	switch p.current.Type {
	case tt:
		p.advance()
		return nil
	case TokenEOF:
		return p.error(types.ErrUnexpectedEnd, fmt.Sprintf("Expected %s before end of input", tt))
	case TokenError:
		return p.lexer.Error()
	}
	return p.error(types.ErrUnexpectedToken, fmt.Sprintf("Expected %s, got %q", tt, p.current.Value))
}

func (p *Parser) error(code types.ErrorCode, message string) error {
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// parse reads a term whose priority does not exceed maxPrec.
func (p *Parser) parse(maxPrec, depth int) (types.Term, error) {
	left, leftPrec, err := p.parsePrimary(maxPrec, depth)
	if err != nil {
		return nil, err
	}

	for {
		sym, ok := p.infixSymbol()
		if !ok {
			return left, nil
		}
		def, _ := p.opts.Ops.Infix(sym)
		if def.Priority > maxPrec {
			return left, nil
		}
		leftMax, rightMax := def.argPriorities()
		if leftPrec > leftMax {
			return nil, p.error(types.ErrPriorityClash, fmt.Sprintf("Operator priority clash at %s", sym))
		}

		pos := p.current.Position
		p.advance()
		right, err := p.parse(rightMax, depth+1)
		if err != nil {
			return nil, err
		}
		left = &types.Functor{Name: sym, Args: []types.Term{left, right}, Position: pos}
		leftPrec = def.Priority
	}
}

// infixSymbol returns the current token as an infix operator symbol.
func (p *Parser) infixSymbol() (string, bool) {
	switch p.current.Type {
	case TokenComma:
		return ",", true
	case TokenName:
		if _, ok := p.opts.Ops.Infix(p.current.Value); ok {
			return p.current.Value, true
		}
	}
	return "", false
}

// parsePrimary reads an operand: a constant, a variable, a compound, a
// list, a parenthesized term or a prefix operator application. It also
// returns the priority of what it read.
func (p *Parser) parsePrimary(maxPrec, depth int) (types.Term, int, error) {
	if depth > p.opts.MaxDepth {
		return nil, 0, p.error(types.ErrUnexpectedToken, "Maximum nesting depth exceeded")
	}

	tok := p.current
	switch tok.Type {
	case TokenEOF:
		return nil, 0, p.error(types.ErrUnexpectedEnd, "Unexpected end of input")
	case TokenError:
		return nil, 0, p.lexer.Error()
	case TokenNumber:
		p.advance()
		n, err := p.number(tok, false)
		return n, 0, err
	case TokenVariable:
		p.advance()
		return p.variable(tok), 0, nil
	case TokenString:
		p.advance()
		return atom(tok), 0, nil
	case TokenParenOpen:
		p.advance()
		t, err := p.parse(1200, depth+1)
		if err != nil {
			return nil, 0, err
		}
		if err := p.expect(TokenParenClose); err != nil {
			return nil, 0, err
		}
		return t, 0, nil
	case TokenBracketOpen:
		p.advance()
		t, err := p.parseList(depth)
		return t, 0, err
	case TokenName:
		p.advance()
		return p.parseName(tok, maxPrec, depth)
	}

	return nil, 0, p.error(types.ErrUnexpectedToken, fmt.Sprintf("Unexpected token %q", tok.Value))
}

// parseName continues after a name token.
func (p *Parser) parseName(tok Token, maxPrec, depth int) (types.Term, int, error) {
	if p.current.Type == TokenParenOpen && !p.current.Layout {
		p.advance()
		args, err := p.parseArgs(depth)
		if err != nil {
			return nil, 0, err
		}
		return &types.Functor{Name: tok.Value, Args: args, Position: tok.Position}, 0, nil
	}
	if tok.Quoted {
		return atom(tok), 0, nil
	}

	// negative numeric literal
	if tok.Value == "-" && p.current.Type == TokenNumber && !p.current.Layout {
		num := p.current
		p.advance()
		n, err := p.number(num, true)
		return n, 0, err
	}

	if def, ok := p.opts.Ops.Prefix(tok.Value); ok && def.Priority <= maxPrec && p.startsTerm() {
		_, rightMax := def.argPriorities()
		arg, err := p.parse(rightMax, depth+1)
		if err != nil {
			return nil, 0, err
		}
		return &types.Functor{Name: tok.Value, Args: []types.Term{arg}, Position: tok.Position}, def.Priority, nil
	}

	return atom(tok), 0, nil
}

// startsTerm reports whether the current token can begin an operand.
func (p *Parser) startsTerm() bool {
	switch p.current.Type {
	case TokenVariable, TokenNumber, TokenString, TokenParenOpen, TokenBracketOpen:
		return true
	case TokenName:
		_, infix := p.opts.Ops.Infix(p.current.Value)
		_, prefix := p.opts.Ops.Prefix(p.current.Value)
		return !infix || prefix
	}
	return false
}

// parseArgs reads comma separated arguments up to the closing parenthesis.
func (p *Parser) parseArgs(depth int) ([]types.Term, error) {
	var args []types.Term
	for {
		arg, err := p.parse(999, depth+1)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return args, nil
}

// parseList reads list elements after '[' and builds the cons chain.
func (p *Parser) parseList(depth int) (types.Term, error) {
	if p.current.Type == TokenBracketClose {
		p.advance()
		return types.NewNil(), nil
	}

	var elems []types.Term
	var tail types.Term = types.NewNil()
	for {
		elem, err := p.parse(999, depth+1)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	if p.current.Type == TokenBar {
		p.advance()
		t, err := p.parse(999, depth+1)
		if err != nil {
			return nil, err
		}
		tail = t
	}
	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	for i := len(elems) - 1; i >= 0; i-- {
		tail = types.Cons(elems[i], tail)
	}
	return tail, nil
}

func (p *Parser) variable(tok Token) *types.Var {
	if tok.Value == "_" {
		return &types.Var{Name: p.opts.VarGen.Anonymous()}
	}
	if v, ok := p.vars[tok.Value]; ok {
		return v
	}
	v := &types.Var{Name: tok.Value}
	p.vars[tok.Value] = v
	return v
}

func (p *Parser) number(tok Token, negate bool) (*types.Token, error) {
	n, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidNumber, "Invalid number literal", tok.Position).
			WithToken(tok.Value).WithCause(err)
	}
	if negate {
		n = -n
	}
	return &types.Token{Kind: types.TokenNumber, Value: n, Position: tok.Position}, nil
}

func atom(tok Token) *types.Token {
	return &types.Token{Kind: types.TokenAtom, Value: tok.Value, Position: tok.Position}
}
