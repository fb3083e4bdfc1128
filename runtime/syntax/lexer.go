package syntax

import (
	"strconv"
	"strings"
)

// TokenType identifies a lexeme of the expression language.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	NUMBER // 12, 0.5, 1e-3
	IDENT  // x, y', e#, sign2

	PLUS      // +
	MINUS     // -
	PLUSMINUS // +/-
	MULTIPLY  // *
	DIVIDE    // /
	IDIVIDE   // //
	MODULO    // %
	POWER     // ^
	BANG      // !
	EQUALS    // =

	LPAREN // (
	RPAREN // )
)

var tokenNames = [...]string{
	EOF:       "end of input",
	ILLEGAL:   "illegal character",
	NUMBER:    "number",
	IDENT:     "identifier",
	PLUS:      "'+'",
	MINUS:     "'-'",
	PLUSMINUS: "'+/-'",
	MULTIPLY:  "'*'",
	DIVIDE:    "'/'",
	IDIVIDE:   "'//'",
	MODULO:    "'%'",
	POWER:     "'^'",
	BANG:      "'!'",
	EQUALS:    "'='",
	LPAREN:    "'('",
	RPAREN:    "')'",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

// Lexeme is one lexical token with its byte offset.
type Lexeme struct {
	Type  TokenType
	Text  string
	Value float64 // NUMBER only
	Pos   int
}

// Lexer splits expression text into lexemes.
type Lexer struct {
	input string
	pos   int  // offset of ch
	ch    byte // current byte, 0 at end
}

// NewLexer returns a lexer over input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, pos: -1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	l.pos++
	if l.pos >= len(l.input) {
		l.pos = len(l.input)
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
}

func (l *Lexer) peekChar() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// NextToken returns the next lexeme. After EOF it keeps returning EOF.
func (l *Lexer) NextToken() Lexeme {
	l.skipWhitespace()
	start := l.pos

	single := func(t TokenType) Lexeme {
		l.readChar()
		return Lexeme{Type: t, Text: l.input[start:l.pos], Pos: start}
	}

	switch c := l.ch; {
	case c == 0:
		return Lexeme{Type: EOF, Pos: start}
	case c == '+':
		if strings.HasPrefix(l.input[l.pos:], "+/-") {
			l.readChar()
			l.readChar()
			return single(PLUSMINUS)
		}
		return single(PLUS)
	case c == '-':
		return single(MINUS)
	case c == '*':
		if l.peekChar() == '*' {
			l.readChar()
			return single(POWER)
		}
		return single(MULTIPLY)
	case c == '/':
		if l.peekChar() == '/' {
			l.readChar()
			return single(IDIVIDE)
		}
		return single(DIVIDE)
	case c == '%':
		return single(MODULO)
	case c == '^':
		return single(POWER)
	case c == '!':
		return single(BANG)
	case c == '=':
		return single(EQUALS)
	case c == '(':
		return single(LPAREN)
	case c == ')':
		return single(RPAREN)
	case isDigit(c) || (c == '.' && isDigit(l.peekChar())):
		return l.lexNumber(start)
	case isLetter(c):
		return l.lexIdent(start)
	default:
		return single(ILLEGAL)
	}
}

func (l *Lexer) lexNumber(start int) Lexeme {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	// an exponent needs a digit after the optional sign, otherwise the
	// 'e' starts an identifier: 2e means 2*e
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		off := 1
		if next == '+' || next == '-' {
			if l.pos+2 < len(l.input) {
				next = l.input[l.pos+2]
			} else {
				next = 0
			}
			off = 2
		}
		if isDigit(next) {
			for i := 0; i < off; i++ {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	text := l.input[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// out of range literals still parse, as infinities
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return Lexeme{Type: ILLEGAL, Text: text, Pos: start}
		}
	}
	return Lexeme{Type: NUMBER, Text: text, Value: v, Pos: start}
}

func (l *Lexer) lexIdent(start int) Lexeme {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	for l.ch == '\'' {
		l.readChar()
	}
	if l.ch == '#' {
		l.readChar()
	}
	return Lexeme{Type: IDENT, Text: l.input[start:l.pos], Pos: start}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
