package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenKind identifies the lexical class of a token.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString
	tokenFString
	tokenIdent

	// Keywords
	tokenAnd
	tokenOr
	tokenNot
	tokenIf
	tokenElse
	tokenTrue
	tokenFalse
	tokenNone

	// Operators and punctuation
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenEq
	tokenNe
	tokenLt
	tokenLe
	tokenGt
	tokenGe
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenDot
	tokenColon
)

// token is a single lexical token with its source offset.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// keywords maps identifier spellings to keyword tokens. Python-style
// capitalized spellings are accepted alongside the lowercase ones since rule
// authors come from both worlds.
var keywords = map[string]tokenKind{
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"if":    tokenIf,
	"else":  tokenElse,
	"true":  tokenTrue,
	"True":  tokenTrue,
	"false": tokenFalse,
	"False": tokenFalse,
	"none":  tokenNone,
	"None":  tokenNone,
	"null":  tokenNone,
}

// lexer scans an expression source string into tokens.
type lexer struct {
	src string
	pos int
}

// lex tokenizes the whole source. It returns an *EvalError on the first
// lexical problem.
func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '\'' || c == '"':
		return l.scanString(start, false)

	case (c == 'f' || c == 'F') && l.pos+1 < len(l.src) &&
		(l.src[l.pos+1] == '\'' || l.src[l.pos+1] == '"'):
		l.pos++
		return l.scanString(start, true)

	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.scanNumber(start), nil

	case isIdentStart(rune(c)):
		return l.scanIdent(start), nil
	}

	l.pos++
	switch c {
	case '+':
		return token{tokenPlus, "+", start}, nil
	case '-':
		return token{tokenMinus, "-", start}, nil
	case '*':
		return token{tokenStar, "*", start}, nil
	case '/':
		return token{tokenSlash, "/", start}, nil
	case '(':
		return token{tokenLParen, "(", start}, nil
	case ')':
		return token{tokenRParen, ")", start}, nil
	case '[':
		return token{tokenLBracket, "[", start}, nil
	case ']':
		return token{tokenRBracket, "]", start}, nil
	case ',':
		return token{tokenComma, ",", start}, nil
	case '.':
		return token{tokenDot, ".", start}, nil
	case ':':
		return token{tokenColon, ":", start}, nil
	case '=':
		if l.consume('=') {
			return token{tokenEq, "==", start}, nil
		}
		return token{}, newSyntaxError(l.src, start, "single '=' is not an operator, use '=='")
	case '!':
		if l.consume('=') {
			return token{tokenNe, "!=", start}, nil
		}
		return token{}, newSyntaxError(l.src, start, "unexpected '!', use 'not' or '!='")
	case '<':
		if l.consume('=') {
			return token{tokenLe, "<=", start}, nil
		}
		return token{tokenLt, "<", start}, nil
	case '>':
		if l.consume('=') {
			return token{tokenGe, ">=", start}, nil
		}
		return token{tokenGt, ">", start}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[start:])
	return token{}, newSyntaxError(l.src, start, fmt.Sprintf("unexpected character %q", r))
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		l.pos++
	}
}

func (l *lexer) consume(c byte) bool {
	if l.pos < len(l.src) && l.src[l.pos] == c {
		l.pos++
		return true
	}
	return false
}

// scanString scans a quoted string literal. The returned token text is the
// decoded content without quotes. For f-strings the content is kept raw so
// the parser can split interpolation segments.
func (l *lexer) scanString(start int, formatted bool) (token, error) {
	quote := l.src[l.pos]
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			kind := tokenString
			if formatted {
				kind = tokenFString
			}
			return token{kind, sb.String(), start}, nil
		}
		if c == '\\' && !formatted {
			l.pos++
			if l.pos >= len(l.src) {
				break
			}
			switch l.src[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '\'':
				sb.WriteByte('\'')
			case '"':
				sb.WriteByte('"')
			default:
				return token{}, newSyntaxError(l.src, l.pos-1,
					fmt.Sprintf("unknown escape sequence \\%c", l.src[l.pos]))
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, newSyntaxError(l.src, start, "unterminated string literal")
}

func (l *lexer) scanNumber(start int) token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		// A trailing dot followed by an identifier is member access on an
		// int literal, which the parser rejects anyway; only consume the
		// dot when digits follow.
		if l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = mark
		}
	}
	return token{tokenNumber, l.src[start:l.pos], start}
}

func (l *lexer) scanIdent(start int) token {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	text := l.src[start:l.pos]
	if kind, ok := keywords[text]; ok {
		return token{kind, text, start}
	}
	return token{tokenIdent, text, start}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
