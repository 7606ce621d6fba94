package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Program is a compiled expression ready for repeated evaluation.
// Compiling once at rule load keeps per-entry evaluation cheap and surfaces
// syntax problems before any document is touched.
type Program struct {
	Source string
	root   Node
}

// Compile parses source into a Program. Syntax problems are returned as
// *EvalError.
func Compile(source string) (*Program, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}

	p := &parser{src: source, tokens: tokens}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, newSyntaxError(source, tok.pos, fmt.Sprintf("unexpected %q after expression", tok.text))
	}
	return &Program{Source: source, root: root}, nil
}

// MustCompile is Compile for expressions known to be valid, such as test
// fixtures. It panics on error.
func MustCompile(source string) *Program {
	prog, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return prog
}

// parser is a recursive-descent parser over the token stream.
type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) match(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.peek()
	if tok.kind != kind {
		found := tok.text
		if tok.kind == tokenEOF {
			found = "end of expression"
		} else {
			found = fmt.Sprintf("%q", found)
		}
		return token{}, newSyntaxError(p.src, tok.pos, fmt.Sprintf("expected %s, found %s", what, found))
	}
	return p.advance(), nil
}

// parseExpression parses the conditional form `A if C else B`. The else
// branch recurses so conditionals chain to the right.
func (p *parser) parseExpression() (Node, error) {
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenIf {
		return then, nil
	}
	at := p.advance().pos

	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenElse, "'else'"); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &CondNode{At: at, Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		at := p.advance().pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{At: at, Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		at := p.advance().pos
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{At: at, Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().kind == tokenNot {
		at := p.advance().pos
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{At: at, Op: OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenKind]Op{
	tokenEq: OpEq,
	tokenNe: OpNe,
	tokenLt: OpLt,
	tokenLe: OpLe,
	tokenGt: OpGt,
	tokenGe: OpGe,
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.peek().kind]
	if !ok {
		return left, nil
	}
	at := p.advance().pos
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, chained := comparisonOps[p.peek().kind]; chained {
		return nil, newSyntaxError(p.src, p.peek().pos, "chained comparisons are not supported, use 'and'")
	}
	return &BinaryNode{At: at, Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.peek().kind {
		case tokenPlus:
			op = OpAdd
		case tokenMinus:
			op = OpSub
		default:
			return left, nil
		}
		at := p.advance().pos
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{At: at, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.peek().kind {
		case tokenStar:
			op = OpMul
		case tokenSlash:
			op = OpDiv
		default:
			return left, nil
		}
		at := p.advance().pos
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{At: at, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	switch p.peek().kind {
	case tokenMinus:
		at := p.advance().pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{At: at, Op: OpNeg, Operand: operand}, nil
	case tokenPlus:
		at := p.advance().pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{At: at, Op: OpPos, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses primary expressions followed by any chain of member
// accesses, calls, indexes and slices.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().kind {
		case tokenDot:
			at := p.advance().pos
			name, err := p.expect(tokenIdent, "identifier after '.'")
			if err != nil {
				return nil, err
			}
			if p.peek().kind == tokenLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				node = &CallNode{At: at, Func: name.text, Recv: node, Args: args}
				continue
			}
			node = &MemberNode{At: at, Recv: node, Name: name.text}

		case tokenLBracket:
			at := p.advance().pos
			node, err = p.parseIndexOrSlice(node, at)
			if err != nil {
				return nil, err
			}

		case tokenLParen:
			ident, ok := node.(*IdentNode)
			if !ok {
				return nil, newSyntaxError(p.src, p.peek().pos, "only registry functions can be called")
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			node = &CallNode{At: ident.At, Func: ident.Name, Args: args}

		default:
			return node, nil
		}
	}
}

// parseIndexOrSlice parses the bracket suffix. The opening bracket is
// already consumed.
func (p *parser) parseIndexOrSlice(recv Node, at int) (Node, error) {
	var low Node
	var err error

	if p.peek().kind != tokenColon {
		low, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.match(tokenRBracket) {
			return &IndexNode{At: at, Recv: recv, Index: low}, nil
		}
	}

	if _, err := p.expect(tokenColon, "':' or ']' in subscript"); err != nil {
		return nil, err
	}

	var high Node
	if p.peek().kind != tokenRBracket {
		high, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return &SliceNode{At: at, Recv: recv, Low: low, High: high}, nil
}

func (p *parser) parseArgs() ([]Node, error) {
	if _, err := p.expect(tokenLParen, "'('"); err != nil {
		return nil, err
	}
	var args []Node
	if p.match(tokenRParen) {
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.match(tokenComma) {
			continue
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenNumber:
		p.advance()
		return parseNumberLiteral(p.src, tok)

	case tokenString:
		p.advance()
		return &LiteralNode{At: tok.pos, Value: tok.text}, nil

	case tokenFString:
		p.advance()
		return p.parseFString(tok)

	case tokenTrue:
		p.advance()
		return &LiteralNode{At: tok.pos, Value: true}, nil

	case tokenFalse:
		p.advance()
		return &LiteralNode{At: tok.pos, Value: false}, nil

	case tokenNone:
		p.advance()
		return &LiteralNode{At: tok.pos, Value: nil}, nil

	case tokenIdent:
		p.advance()
		return &IdentNode{At: tok.pos, Name: tok.text}, nil

	case tokenLParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokenEOF:
		return nil, newSyntaxError(p.src, tok.pos, "unexpected end of expression")
	}
	return nil, newSyntaxError(p.src, tok.pos, fmt.Sprintf("unexpected %q", tok.text))
}

func parseNumberLiteral(src string, tok token) (Node, error) {
	if strings.ContainsAny(tok.text, ".eE") {
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, newSyntaxError(src, tok.pos, fmt.Sprintf("bad number literal %q", tok.text))
		}
		return &LiteralNode{At: tok.pos, Value: f}, nil
	}
	i, err := strconv.ParseInt(tok.text, 10, 64)
	if err != nil {
		// Integer overflow falls back to float the way YAML does.
		f, ferr := strconv.ParseFloat(tok.text, 64)
		if ferr != nil {
			return nil, newSyntaxError(src, tok.pos, fmt.Sprintf("bad number literal %q", tok.text))
		}
		return &LiteralNode{At: tok.pos, Value: f}, nil
	}
	return &LiteralNode{At: tok.pos, Value: i}, nil
}

// parseFString splits the raw f-string body into literal segments and
// embedded expressions. Doubled braces escape literal braces.
func (p *parser) parseFString(tok token) (Node, error) {
	body := tok.text
	node := &FStringNode{At: tok.pos}
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			node.Parts = append(node.Parts, &LiteralNode{At: tok.pos, Value: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '{':
			if i+1 < len(body) && body[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(body[i+1:], '}')
			if end < 0 {
				return nil, newSyntaxError(p.src, tok.pos+i, "unclosed '{' in f-string")
			}
			inner := body[i+1 : i+1+end]
			if strings.TrimSpace(inner) == "" {
				return nil, newSyntaxError(p.src, tok.pos+i, "empty interpolation in f-string")
			}
			sub, err := Compile(inner)
			if err != nil {
				if evalErr, ok := err.(*EvalError); ok {
					return nil, newSyntaxError(p.src, tok.pos+i, fmt.Sprintf("in f-string interpolation: %s", evalErr.Msg))
				}
				return nil, err
			}
			flush()
			node.Parts = append(node.Parts, sub.root)
			i += end + 1
		case '}':
			if i+1 < len(body) && body[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, newSyntaxError(p.src, tok.pos+i, "single '}' in f-string, use '}}'")
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	if len(node.Parts) == 0 {
		return &LiteralNode{At: tok.pos, Value: ""}, nil
	}
	return node, nil
}
