package querypath

import (
	"fmt"
	"regexp"
)

// TokenType represents the type of a token.
type TokenType string

const (
	TokenComment    TokenType = "COMMENT"
	TokenWhitespace TokenType = "WHITESPACE"
	TokenDoubleDot  TokenType = "DOUBLE_DOT"
	TokenDot        TokenType = "DOT"
	TokenLParen     TokenType = "LPAREN"
	TokenRParen     TokenType = "RPAREN"
	TokenComma      TokenType = "COMMA"
	TokenSemicolon  TokenType = "SEMICOLON"
	TokenThis       TokenType = "THIS"
	TokenAll        TokenType = "ALL"
	TokenPartial    TokenType = "PARTIAL"
	TokenPre        TokenType = "PRE"
	TokenPost       TokenType = "POST"
	TokenOrder      TokenType = "ORDER"
	TokenBy         TokenType = "BY"
	TokenAsc        TokenType = "ASC"
	TokenDesc       TokenType = "DESC"
	TokenIdentifier TokenType = "IDENTIFIER"
	TokenEOF        TokenType = "EOF"
)

// Token represents a token of the path language.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Value)
}

type tokenPattern struct {
	Type    TokenType
	Pattern *regexp.Regexp
}

// Patterns are tried in order; the first match wins.
var tokenPatterns = []tokenPattern{
	{TokenComment, regexp.MustCompile(`^/\*(?s:.*?)\*/`)},
	{TokenComment, regexp.MustCompile(`^//[^\n]*`)},
	{TokenWhitespace, regexp.MustCompile(`^\s+`)},
	{TokenDoubleDot, regexp.MustCompile(`^\.\.`)}, // before DOT
	{TokenDot, regexp.MustCompile(`^\.`)},
	{TokenLParen, regexp.MustCompile(`^\(`)},
	{TokenRParen, regexp.MustCompile(`^\)`)},
	{TokenComma, regexp.MustCompile(`^,`)},
	{TokenSemicolon, regexp.MustCompile(`^;`)},
	{TokenThis, regexp.MustCompile(`^this\b`)},
	{TokenAll, regexp.MustCompile(`^all\b`)},
	{TokenPartial, regexp.MustCompile(`^partial\b`)},
	{TokenPre, regexp.MustCompile(`^pre\b`)},
	{TokenPost, regexp.MustCompile(`^post\b`)},
	{TokenOrder, regexp.MustCompile(`^order\b`)},
	{TokenBy, regexp.MustCompile(`^by\b`)},
	{TokenAsc, regexp.MustCompile(`^asc\b`)},
	{TokenDesc, regexp.MustCompile(`^desc\b`)},
	{TokenIdentifier, regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*`)},
}

// Lexer tokenizes path statements. Comments and whitespace are dropped.
type Lexer struct {
	text     string
	position int
	tokens   []Token
}

func NewLexer(text string) *Lexer {
	return &Lexer{text: text}
}

// Tokenize returns the tokens followed by an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.position < len(l.text) {
		matched := false
		remaining := l.text[l.position:]

		for _, pattern := range tokenPatterns {
			loc := pattern.Pattern.FindStringIndex(remaining)
			if loc != nil && loc[0] == 0 {
				value := remaining[loc[0]:loc[1]]
				if pattern.Type != TokenWhitespace && pattern.Type != TokenComment {
					l.tokens = append(l.tokens, Token{
						Type:     pattern.Type,
						Value:    value,
						Position: l.position,
					})
				}
				l.position += loc[1]
				matched = true
				break
			}
		}

		if !matched {
			return nil, &SyntaxError{
				Position: l.position,
				Message:  fmt.Sprintf("unexpected character %q", l.text[l.position]),
			}
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Position: len(l.text)})
	return l.tokens, nil
}
