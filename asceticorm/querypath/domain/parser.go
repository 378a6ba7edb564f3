package querypath

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Parser builds query paths from tokens:
//
//	statements := statement (';' statement)* ';'?
//	statement  := fetch | order
//	fetch      := 'this' step+
//	order      := ('pre'|'post') 'order' 'by' orderItem (',' orderItem)*
//	orderItem  := 'this' step* ('asc'|'desc')?
//	step       := ('.'|'..') (ident | ('all'|'partial') '(' ident ')')
//
// A failing statement is skipped up to the next ';' so that every broken
// statement is reported.
type Parser struct {
	tokens  []Token
	current int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

func Parse(text string) ([]QueryPath, error) {
	tokens, err := NewLexer(text).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

func (p *Parser) Parse() ([]QueryPath, error) {
	var (
		result []QueryPath
		errs   *multierror.Error
	)
	for !p.check(TokenEOF) {
		if p.match(TokenSemicolon) {
			continue
		}
		paths, err := p.statement()
		if err != nil {
			errs = multierror.Append(errs, err)
			p.synchronize()
			continue
		}
		result = append(result, paths...)
		if !p.check(TokenEOF) {
			if _, err := p.consume(TokenSemicolon, "';' between statements"); err != nil {
				errs = multierror.Append(errs, err)
				p.synchronize()
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Parser) statement() ([]QueryPath, error) {
	switch p.peek().Type {
	case TokenThis:
		path, err := p.fetch()
		if err != nil {
			return nil, err
		}
		return []QueryPath{path}, nil
	case TokenPre, TokenPost:
		return p.order()
	}
	return nil, p.errorf(p.peek(), "expected 'this', 'pre' or 'post', got %q", p.peek().Value)
}

func (p *Parser) fetch() (QueryPath, error) {
	p.advance()
	nodes, err := p.steps()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, p.errorf(p.peek(), "fetch path without steps")
	}
	return FetchPath{Nodes: nodes}, nil
}

func (p *Parser) order() ([]QueryPath, error) {
	pre := p.advance().Type == TokenPre
	if _, err := p.consume(TokenOrder, "'order'"); err != nil {
		return nil, err
	}
	if _, err := p.consume(TokenBy, "'by'"); err != nil {
		return nil, err
	}
	var result []QueryPath
	for {
		if _, err := p.consume(TokenThis, "'this'"); err != nil {
			return nil, err
		}
		nodes, err := p.steps()
		if err != nil {
			return nil, err
		}
		path := OrderPath{Nodes: nodes, Pre: pre}
		if p.match(TokenDesc) {
			path.Desc = true
		} else {
			p.match(TokenAsc)
		}
		result = append(result, path)
		if !p.match(TokenComma) {
			return result, nil
		}
	}
}

func (p *Parser) steps() ([]Node, error) {
	var nodes []Node
	for p.check(TokenDot) || p.check(TokenDoubleDot) {
		node := Node{}
		if p.advance().Type == TokenDoubleDot {
			node.GetterType = Required
		}
		if (p.check(TokenAll) || p.check(TokenPartial)) && p.checkNext(TokenLParen) {
			if p.advance().Type == TokenPartial {
				node.CollectionFetchType = Partial
			}
			p.advance()
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(TokenRParen, "')'"); err != nil {
				return nil, err
			}
			node.Name = name
		} else {
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			node.Name = name
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// identifier accepts keywords as property names.
func (p *Parser) identifier() (string, error) {
	switch p.peek().Type {
	case TokenIdentifier, TokenAll, TokenPartial, TokenPre, TokenPost,
		TokenOrder, TokenBy, TokenAsc, TokenDesc:
		return p.advance().Value, nil
	}
	return "", p.errorf(p.peek(), "expected property name, got %q", p.peek().Value)
}

func (p *Parser) synchronize() {
	for !p.check(TokenEOF) {
		if p.advance().Type == TokenSemicolon {
			return
		}
	}
}

func (p *Parser) consume(t TokenType, expected string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, p.errorf(p.peek(), "expected %s, got %q", expected, p.peek().Value)
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) checkNext(t TokenType) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return t
}

func (p *Parser) errorf(at Token, format string, args ...any) error {
	return &SyntaxError{Position: at.Position, Message: fmt.Sprintf(format, args...)}
}
