package expression

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrParse is returned for malformed expressions
var ErrParse = errors.New("expression parse error")

// ExpressionType selects the grammar an attribute value is parsed with
type ExpressionType int

const (
	// TypeProperty is a plain binding expression
	TypeProperty ExpressionType = iota
	// TypeInterpolation is text with ${} holes
	TypeInterpolation
	// TypeIterator is a for-of declaration
	TypeIterator
	// TypeFunction is an event handler; it may assign
	TypeFunction
)

func (t ExpressionType) String() string {
	switch t {
	case TypeProperty:
		return "property"
	case TypeInterpolation:
		return "interpolation"
	case TypeIterator:
		return "iterator"
	case TypeFunction:
		return "function"
	}
	return "unknown"
}

type cacheKey struct {
	src string
	typ ExpressionType
}

// Parser parses expressions and caches the results per (source, type)
type Parser struct {
	mu    sync.Mutex
	cache map[cacheKey]AST
}

// NewParser creates a parser with an empty cache
func NewParser() *Parser {
	return &Parser{cache: make(map[cacheKey]AST)}
}

// Parse parses src. For TypeInterpolation a nil AST and nil error mean src has no ${} holes.
func (p *Parser) Parse(src string, typ ExpressionType) (AST, error) {
	key := cacheKey{src, typ}
	p.mu.Lock()
	if ast, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return ast, nil
	}
	p.mu.Unlock()

	var ast AST
	var err error
	if typ == TypeInterpolation {
		interp, perr := ParseInterpolation(src)
		if perr != nil {
			return nil, perr
		}
		if interp == nil {
			return nil, nil
		}
		ast = interp
	} else {
		ast, err = Parse(src, typ)
		if err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.cache[key] = ast
	p.mu.Unlock()
	return ast, nil
}

type parseError struct {
	err error
}

// Parse parses src without caching
func Parse(src string, typ ExpressionType) (ast AST, err error) {
	if strings.TrimSpace(src) == "" && typ != TypeIterator {
		return &PrimitiveLiteral{Value: ""}, nil
	}
	ps := &parser{src: src, tokens: Tokenize(src), typ: typ}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			ast, err = nil, pe.err
		}
	}()
	if typ == TypeIterator {
		ast = ps.parseForOf()
	} else {
		ast = ps.parseBindingBehavior()
	}
	if tok := ps.peek(); tok != nil {
		ps.fail("unconsumed token %q", tok.String())
	}
	return ast, nil
}

// ParseInterpolation splits text into literal parts and ${} expressions.
// It returns nil when text contains no expression.
func ParseInterpolation(text string) (*Interpolation, error) {
	var parts []string
	var exprs []AST
	var current strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '\\' && i+1 < len(text) && text[i+1] == '$' {
			current.WriteByte('$')
			i += 2
			continue
		}
		if text[i] == '$' && i+1 < len(text) && text[i+1] == '{' {
			end, err := interpolationEnd(text, i+2)
			if err != nil {
				return nil, err
			}
			ast, err := Parse(text[i+2:end], TypeProperty)
			if err != nil {
				return nil, err
			}
			parts = append(parts, current.String())
			current.Reset()
			exprs = append(exprs, ast)
			i = end + 1
			continue
		}
		current.WriteByte(text[i])
		i++
	}
	if len(exprs) == 0 {
		return nil, nil
	}
	parts = append(parts, current.String())
	return &Interpolation{Parts: parts, Expressions: exprs}, nil
}

// interpolationEnd finds the } closing an expression that starts at start
func interpolationEnd(text string, start int) (int, error) {
	depth := 0
	var quote byte
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, fmt.Errorf("%w: unterminated interpolation in [%s]", ErrParse, text)
}

type parser struct {
	src    string
	tokens []*Token
	pos    int
	typ    ExpressionType
}

func (p *parser) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(parseError{fmt.Errorf("%w: %s at token %d in [%s]", ErrParse, msg, p.pos, p.src)})
}

func (p *parser) peek() *Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	tok := p.tokens[p.pos]
	if tok.Type == TokenTypeError {
		panic(parseError{fmt.Errorf("%w: %s", ErrParse, tok.StrValue)})
	}
	return tok
}

func (p *parser) peekAt(offset int) *Token {
	if p.pos+offset >= len(p.tokens) {
		return nil
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) next() *Token {
	tok := p.peek()
	if tok == nil {
		p.fail("unexpected end of expression")
	}
	p.pos++
	return tok
}

func (p *parser) optionalCharacter(code int) bool {
	if tok := p.peek(); tok != nil && tok.IsCharacter(code) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) optionalOperator(op string) bool {
	if tok := p.peek(); tok != nil && tok.IsOperator(op) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectCharacter(code int) {
	if !p.optionalCharacter(code) {
		p.fail("missing expected %q", string(rune(code)))
	}
}

func (p *parser) expectIdentifier() string {
	tok := p.next()
	if tok.Type != TokenTypeIdentifier && tok.Type != TokenTypeKeyword {
		p.fail("expected identifier, got %q", tok.String())
	}
	return tok.StrValue
}

func (p *parser) parseForOf() AST {
	var decl AST
	if p.optionalCharacter('[') {
		var names []string
		for !p.optionalCharacter(']') {
			names = append(names, p.expectIdentifier())
			p.optionalCharacter(',')
		}
		decl = &ArrayBindingPattern{Elements: names}
	} else {
		decl = &BindingIdentifier{Name: p.expectIdentifier()}
	}
	if tok := p.next(); !tok.IsKeyword("of") {
		p.fail("expected 'of', got %q", tok.String())
	}
	forOf := &ForOf{Declaration: decl, Iterable: p.parseBindingBehavior()}
	if p.optionalCharacter(';') {
		if name := p.expectIdentifier(); name != "key" {
			p.fail("unknown iterator option %q", name)
		}
		bind := false
		if p.optionalCharacter('.') {
			if p.expectIdentifier() != "bind" {
				p.fail("expected key.bind")
			}
			bind = true
		}
		p.expectCharacter(':')
		if bind {
			forOf.KeyExpr = p.parseBindingBehavior()
		} else {
			forOf.KeyProperty = p.expectIdentifier()
		}
	}
	return forOf
}

func (p *parser) parseBindingBehavior() AST {
	expr := p.parseValueConverter()
	for p.optionalOperator("&") {
		name := p.expectIdentifier()
		var args []AST
		for p.optionalCharacter(':') {
			args = append(args, p.parseAssign())
		}
		expr = &BindingBehaviorExpression{Expr: expr, Name: name, Args: args}
	}
	return expr
}

func (p *parser) parseValueConverter() AST {
	expr := p.parseAssign()
	for p.optionalOperator("|") {
		name := p.expectIdentifier()
		var args []AST
		for p.optionalCharacter(':') {
			args = append(args, p.parseAssign())
		}
		expr = &ValueConverterExpression{Expr: expr, Name: name, Args: args}
	}
	return expr
}

var assignOps = map[string]bool{"=": true, "+=": true, "-=": true, "*=": true, "/=": true}

func (p *parser) parseAssign() AST {
	target := p.parseConditional()
	tok := p.peek()
	if tok == nil || tok.Type != TokenTypeOperator || !assignOps[tok.StrValue] {
		return target
	}
	switch target.(type) {
	case *AccessScope, *AccessMember, *AccessKeyed, *Assign:
	default:
		p.fail("left hand side of %s is not assignable", tok.StrValue)
	}
	p.pos++
	return &Assign{Target: target, Value: p.parseAssign(), Op: tok.StrValue}
}

func (p *parser) parseConditional() AST {
	cond := p.parseBinary(0)
	if !p.optionalOperator("?") {
		return cond
	}
	yes := p.parseAssign()
	p.expectCharacter(':')
	no := p.parseAssign()
	return &Conditional{Cond: cond, Yes: yes, No: no}
}

var binaryPrecedence = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"==": 4, "!=": 4, "===": 4, "!==": 4,
	"<": 5, ">": 5, "<=": 5, ">=": 5, "in": 5, "instanceof": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "%": 7,
	"**": 8,
}

func (p *parser) binaryOperator() (string, int) {
	tok := p.peek()
	if tok == nil {
		return "", 0
	}
	switch {
	case tok.Type == TokenTypeOperator:
	case tok.IsKeyword("in"), tok.IsKeyword("instanceof"):
	default:
		return "", 0
	}
	prec, ok := binaryPrecedence[tok.StrValue]
	if !ok {
		return "", 0
	}
	return tok.StrValue, prec
}

func (p *parser) parseBinary(minPrec int) AST {
	left := p.parseUnary()
	for {
		op, prec := p.binaryOperator()
		if prec == 0 || prec <= minPrec {
			return left
		}
		p.pos++
		var right AST
		if op == "**" {
			right = p.parseBinary(prec - 1)
		} else {
			right = p.parseBinary(prec)
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() AST {
	tok := p.peek()
	if tok == nil {
		p.fail("unexpected end of expression")
	}
	switch {
	case tok.IsOperator("!"), tok.IsOperator("-"), tok.IsOperator("+"):
		p.pos++
		return &Unary{Op: tok.StrValue, Expr: p.parseUnary()}
	case tok.IsKeyword("typeof"), tok.IsKeyword("void"):
		p.pos++
		return &Unary{Op: tok.StrValue, Expr: p.parseUnary()}
	}
	return p.parseMemberChain(p.parsePrimary())
}

func (p *parser) parseArgs() []AST {
	var args []AST
	for !p.optionalCharacter(')') {
		args = append(args, p.parseAssign())
		if !p.optionalCharacter(',') {
			p.expectCharacter(')')
			break
		}
	}
	return args
}

func (p *parser) parsePrimary() AST {
	tok := p.next()
	switch tok.Type {
	case TokenTypeIdentifier:
		return p.parseScopeAccess(tok.StrValue)
	case TokenTypeNumber:
		return &PrimitiveLiteral{Value: tok.NumValue}
	case TokenTypeString:
		if tok.StringKind == StringTokenKindPlain {
			return &PrimitiveLiteral{Value: tok.StrValue}
		}
		return p.parseTemplate(tok)
	case TokenTypeKeyword:
		switch tok.StrValue {
		case "true":
			return &PrimitiveLiteral{Value: true}
		case "false":
			return &PrimitiveLiteral{Value: false}
		case "null", "undefined":
			return &PrimitiveLiteral{Value: nil}
		}
		return p.parseScopeAccess(tok.StrValue)
	case TokenTypeCharacter:
		switch {
		case tok.IsCharacter('('):
			expr := p.parseBindingBehavior()
			p.expectCharacter(')')
			return expr
		case tok.IsCharacter('['):
			var elems []AST
			for !p.optionalCharacter(']') {
				elems = append(elems, p.parseAssign())
				if !p.optionalCharacter(',') {
					p.expectCharacter(']')
					break
				}
			}
			return &ArrayLiteral{Elements: elems}
		case tok.IsCharacter('{'):
			return p.parseObjectLiteral()
		}
	}
	p.fail("unexpected token %q", tok.String())
	return nil
}

// parseScopeAccess handles names, $this, $parent chains and $host
func (p *parser) parseScopeAccess(name string) AST {
	ancestor := 0
	host := false
	switch name {
	case "$this":
		return &AccessThis{}
	case "$host":
		host = true
		if !p.peekMember() {
			return &AccessThis{Host: true}
		}
		p.pos++
		name = p.expectIdentifier()
	case "$parent":
		ancestor = 1
		for p.peekMember() {
			if next := p.peekAt(1); next != nil && next.Type == TokenTypeIdentifier && next.StrValue == "$parent" {
				p.pos += 2
				ancestor++
				continue
			}
			break
		}
		if !p.peekMember() {
			return &AccessThis{Ancestor: ancestor}
		}
		p.pos++
		name = p.expectIdentifier()
	}
	if p.optionalCharacter('(') {
		return &CallScope{Name: name, Args: p.parseArgs(), Ancestor: ancestor, Host: host}
	}
	return &AccessScope{Name: name, Ancestor: ancestor, Host: host}
}

func (p *parser) peekMember() bool {
	tok := p.peek()
	return tok != nil && tok.IsCharacter('.')
}

func (p *parser) parseMemberChain(expr AST) AST {
	for {
		tok := p.peek()
		switch {
		case tok == nil:
			return expr
		case tok.IsCharacter('.'):
			p.pos++
			name := p.expectIdentifier()
			if p.optionalCharacter('(') {
				expr = &CallMember{Object: expr, Name: name, Args: p.parseArgs()}
			} else {
				expr = &AccessMember{Object: expr, Name: name}
			}
		case tok.IsOperator("?."):
			p.pos++
			switch {
			case p.optionalCharacter('['):
				key := p.parseBindingBehavior()
				p.expectCharacter(']')
				expr = &AccessKeyed{Object: expr, Key: key, Optional: true}
			case p.optionalCharacter('('):
				expr = &CallFunction{Func: expr, Args: p.parseArgs(), Optional: true}
			default:
				name := p.expectIdentifier()
				if p.optionalCharacter('(') {
					expr = &CallMember{Object: expr, Name: name, Args: p.parseArgs(), OptionalMember: true}
				} else {
					expr = &AccessMember{Object: expr, Name: name, Optional: true}
				}
			}
		case tok.IsCharacter('['):
			p.pos++
			key := p.parseBindingBehavior()
			p.expectCharacter(']')
			expr = &AccessKeyed{Object: expr, Key: key}
		case tok.IsCharacter('('):
			p.pos++
			expr = &CallFunction{Func: expr, Args: p.parseArgs()}
		default:
			return expr
		}
	}
}

func (p *parser) parseObjectLiteral() AST {
	obj := &ObjectLiteral{}
	for !p.optionalCharacter('}') {
		tok := p.next()
		var key string
		switch tok.Type {
		case TokenTypeIdentifier, TokenTypeKeyword, TokenTypeString:
			key = tok.StrValue
		case TokenTypeNumber:
			key = tok.String()
		default:
			p.fail("invalid object literal key %q", tok.String())
		}
		var value AST
		if p.optionalCharacter(':') {
			value = p.parseAssign()
		} else if tok.Type == TokenTypeIdentifier {
			value = &AccessScope{Name: key}
		} else {
			p.fail("missing value for key %q", key)
		}
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, value)
		if !p.optionalCharacter(',') {
			p.expectCharacter('}')
			break
		}
	}
	return obj
}

func (p *parser) parseTemplate(first *Token) AST {
	t := &Template{Cooked: []string{first.StrValue}}
	if first.IsTemplateLiteralEnd() {
		return t
	}
	for {
		if !p.optionalOperator("${") {
			p.fail("expected ${ in template literal")
		}
		t.Expressions = append(t.Expressions, p.parseBindingBehavior())
		p.expectCharacter('}')
		part := p.next()
		if part.Type != TokenTypeString {
			p.fail("unterminated template literal")
		}
		t.Cooked = append(t.Cooked, part.StrValue)
		if part.IsTemplateLiteralEnd() {
			return t
		}
	}
}
