package expression

import (
	"strconv"
	"strings"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenTypeCharacter TokenType = iota
	TokenTypeIdentifier
	TokenTypeKeyword
	TokenTypeString
	TokenTypeOperator
	TokenTypeNumber
	TokenTypeError
)

// StringTokenKind represents the kind of a string token
type StringTokenKind int

const (
	StringTokenKindPlain StringTokenKind = iota
	StringTokenKindTemplateLiteralPart
	StringTokenKindTemplateLiteralEnd
)

var keywords = map[string]bool{
	"null":       true,
	"undefined":  true,
	"true":       true,
	"false":      true,
	"typeof":     true,
	"void":       true,
	"in":         true,
	"of":         true,
	"instanceof": true,
}

// Token represents a token in the expression
type Token struct {
	Index    int
	End      int
	Type     TokenType
	NumValue float64
	StrValue string
	// StringKind is only valid for String tokens
	StringKind StringTokenKind
}

func newToken(index, end int, typ TokenType, numValue float64, strValue string) *Token {
	return &Token{Index: index, End: end, Type: typ, NumValue: numValue, StrValue: strValue}
}

// IsCharacter checks if the token is a character with the given code
func (t *Token) IsCharacter(code int) bool {
	return t.Type == TokenTypeCharacter && int(t.NumValue) == code
}

// IsOperator checks if the token is an operator with the given value
func (t *Token) IsOperator(operator string) bool {
	return t.Type == TokenTypeOperator && t.StrValue == operator
}

// IsKeyword checks if the token is the given keyword
func (t *Token) IsKeyword(keyword string) bool {
	return t.Type == TokenTypeKeyword && t.StrValue == keyword
}

// IsTemplateLiteralPart checks if the token is a template literal part
func (t *Token) IsTemplateLiteralPart() bool {
	return t.Type == TokenTypeString && t.StringKind == StringTokenKindTemplateLiteralPart
}

// IsTemplateLiteralEnd checks if the token is a template literal end
func (t *Token) IsTemplateLiteralEnd() bool {
	return t.Type == TokenTypeString && t.StringKind == StringTokenKindTemplateLiteralEnd
}

// String returns the string representation of the token
func (t *Token) String() string {
	if t.Type == TokenTypeNumber {
		return strconv.FormatFloat(t.NumValue, 'f', -1, 64)
	}
	return t.StrValue
}

// Tokenize splits text into tokens. Lexical errors become TokenTypeError tokens.
func Tokenize(text string) []*Token {
	s := &scanner{input: text, length: len(text), index: -1}
	s.advance()
	for token := s.scanToken(); token != nil; token = s.scanToken() {
		s.tokens = append(s.tokens, token)
	}
	return s.tokens
}

type scanner struct {
	input      string
	length     int
	peek       rune
	index      int
	tokens     []*Token
	braceStack []string // 'interpolation' or 'expression'
}

func isDigit(code int) bool {
	return '0' <= code && code <= '9'
}

func isASCIILetter(code int) bool {
	return ('a' <= code && code <= 'z') || ('A' <= code && code <= 'Z')
}

func isWhitespace(code int) bool {
	return ('\t' <= code && code <= ' ') || code == 0xA0
}

func (s *scanner) advance() {
	s.index++
	if s.index >= s.length {
		s.peek = 0
	} else {
		s.peek = rune(s.input[s.index])
	}
}

func (s *scanner) scanToken() *Token {
	for s.index < s.length && int(s.peek) <= ' ' {
		s.advance()
	}
	if s.index >= s.length {
		return nil
	}

	peek := s.peek
	start := s.index
	if isIdentifierStart(peek) {
		return s.scanIdentifier()
	}
	if isDigit(int(peek)) {
		return s.scanNumber(start)
	}

	switch int(peek) {
	case '.':
		s.advance()
		if isDigit(int(s.peek)) {
			return s.scanNumber(start)
		}
		if s.peek == '.' && s.index+1 < s.length && s.input[s.index+1] == '.' {
			s.advance()
			s.advance()
			return newOperatorToken(start, s.index, "...")
		}
		return newCharacterToken(start, s.index, '.')
	case '(', ')', '[', ']', ',', ':', ';':
		s.advance()
		return newCharacterToken(start, s.index, peek)
	case '{':
		s.braceStack = append(s.braceStack, "expression")
		s.advance()
		return newCharacterToken(start, s.index, peek)
	case '}':
		return s.scanCloseBrace(start)
	case '\'', '"':
		return s.scanString()
	case '`':
		s.advance()
		return s.scanTemplateLiteralPart(start)
	case '+':
		return s.scanComplexOperator(start, "+", '=', "=")
	case '-':
		return s.scanComplexOperator(start, "-", '=', "=")
	case '/':
		return s.scanComplexOperator(start, "/", '=', "=")
	case '%':
		return s.scanComplexOperator(start, "%", '=', "=")
	case '*':
		return s.scanStar(start)
	case '?':
		return s.scanQuestion(start)
	case '<', '>':
		return s.scanComplexOperator(start, string(peek), '=', "=")
	case '!', '=':
		return s.scanComplexOperator(start, string(peek), '=', "=", '=')
	case '&':
		return s.scanComplexOperator(start, "&", '&', "&")
	case '|':
		return s.scanComplexOperator(start, "|", '|', "|")
	case 0xA0:
		for isWhitespace(int(s.peek)) {
			s.advance()
		}
		return s.scanToken()
	}

	s.advance()
	return s.error("Unexpected character ["+string(peek)+"]", 0)
}

func (s *scanner) scanCloseBrace(start int) *Token {
	s.advance()
	if n := len(s.braceStack); n > 0 {
		current := s.braceStack[n-1]
		s.braceStack = s.braceStack[:n-1]
		if current == "interpolation" {
			s.tokens = append(s.tokens, newCharacterToken(start, s.index, '}'))
			return s.scanTemplateLiteralPart(s.index)
		}
	}
	return newCharacterToken(start, s.index, '}')
}

func (s *scanner) scanComplexOperator(start int, one string, twoCode int, two string, threeCode ...int) *Token {
	s.advance()
	str := one
	if int(s.peek) == twoCode {
		s.advance()
		str += two
	}
	if len(threeCode) > 0 && int(s.peek) == threeCode[0] {
		s.advance()
		str += string(rune(threeCode[0]))
	}
	return newOperatorToken(start, s.index, str)
}

func (s *scanner) scanIdentifier() *Token {
	start := s.index
	s.advance()
	for isIdentifierPart(s.peek) {
		s.advance()
	}
	str := s.input[start:s.index]
	if keywords[str] {
		return newToken(start, s.index, TokenTypeKeyword, 0, str)
	}
	return newToken(start, s.index, TokenTypeIdentifier, 0, str)
}

func (s *scanner) scanNumber(start int) *Token {
	simple := s.index == start
	hasSeparators := false
	s.advance()
	for {
		if isDigit(int(s.peek)) {
			// digits continue the literal
		} else if s.peek == '_' {
			// Separators are only valid when they're surrounded by digits
			if s.index >= s.length-1 || !isDigit(int(s.input[s.index-1])) || !isDigit(int(s.input[s.index+1])) {
				return s.error("Invalid numeric separator", 0)
			}
			hasSeparators = true
		} else if s.peek == '.' {
			simple = false
		} else if s.peek == 'E' || s.peek == 'e' {
			s.advance()
			if s.peek == '-' || s.peek == '+' {
				s.advance()
			}
			if !isDigit(int(s.peek)) {
				return s.error("Invalid exponent", -1)
			}
			simple = false
		} else {
			break
		}
		s.advance()
	}

	str := s.input[start:s.index]
	if hasSeparators {
		str = strings.ReplaceAll(str, "_", "")
	}
	var value float64
	if simple {
		if v, err := strconv.ParseInt(str, 10, 64); err == nil {
			value = float64(v)
		}
	} else if v, err := strconv.ParseFloat(str, 64); err == nil {
		value = v
	}
	return newToken(start, s.index, TokenTypeNumber, value, "")
}

func (s *scanner) scanString() *Token {
	start := s.index
	quote := s.peek
	s.advance()

	var buffer strings.Builder
	marker := s.index
	for s.peek != quote {
		switch s.peek {
		case '\\':
			buffer.WriteString(s.input[marker:s.index])
			if errToken := s.scanStringBackslash(&buffer); errToken != nil {
				return errToken
			}
			marker = s.index
		case 0:
			return s.error("Unterminated quote", 0)
		default:
			s.advance()
		}
	}
	buffer.WriteString(s.input[marker:s.index])
	s.advance()
	return &Token{Index: start, End: s.index, Type: TokenTypeString, StrValue: buffer.String()}
}

func (s *scanner) scanQuestion(start int) *Token {
	s.advance()
	operator := "?"
	if s.peek == '?' {
		operator += "?"
		s.advance()
	} else if s.peek == '.' {
		operator += "."
		s.advance()
	}
	return newOperatorToken(start, s.index, operator)
}

func (s *scanner) scanStar(start int) *Token {
	s.advance()
	operator := "*"
	if s.peek == '*' {
		operator += "*"
		s.advance()
	} else if s.peek == '=' {
		operator += "="
		s.advance()
	}
	return newOperatorToken(start, s.index, operator)
}

func (s *scanner) scanTemplateLiteralPart(start int) *Token {
	var buffer strings.Builder
	marker := s.index

	for s.peek != '`' {
		switch {
		case s.peek == '\\':
			buffer.WriteString(s.input[marker:s.index])
			if errToken := s.scanStringBackslash(&buffer); errToken != nil {
				return errToken
			}
			marker = s.index
		case s.peek == '$':
			dollar := s.index
			s.advance()
			if s.peek == '{' {
				s.braceStack = append(s.braceStack, "interpolation")
				buffer.WriteString(s.input[marker:dollar])
				s.tokens = append(s.tokens, &Token{
					Index:      start,
					End:        dollar,
					Type:       TokenTypeString,
					StrValue:   buffer.String(),
					StringKind: StringTokenKindTemplateLiteralPart,
				})
				s.advance()
				return newOperatorToken(dollar, s.index, "${")
			}
		case s.peek == 0:
			return s.error("Unterminated template literal", 0)
		default:
			s.advance()
		}
	}

	buffer.WriteString(s.input[marker:s.index])
	s.advance()
	return &Token{
		Index:      start,
		End:        s.index,
		Type:       TokenTypeString,
		StrValue:   buffer.String(),
		StringKind: StringTokenKindTemplateLiteralEnd,
	}
}

func (s *scanner) scanStringBackslash(buffer *strings.Builder) *Token {
	s.advance()
	if s.peek == 'u' {
		// 4 character hex code for unicode character
		if s.index+5 > s.length {
			return s.error("Invalid unicode escape", 0)
		}
		hex := s.input[s.index+1 : s.index+5]
		val, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return s.error("Invalid unicode escape [\\u"+hex+"]", 0)
		}
		buffer.WriteRune(rune(val))
		for i := 0; i < 5; i++ {
			s.advance()
		}
		return nil
	}
	buffer.WriteRune(unescape(s.peek))
	s.advance()
	return nil
}

func (s *scanner) error(message string, offset int) *Token {
	position := s.index + offset
	return newToken(position, s.index, TokenTypeError, 0,
		"Lexer Error: "+message+" at column "+strconv.Itoa(position)+" in expression ["+s.input+"]")
}

func isIdentifierStart(code rune) bool {
	return isASCIILetter(int(code)) || code == '_' || code == '$'
}

func isIdentifierPart(code rune) bool {
	return isASCIILetter(int(code)) || isDigit(int(code)) || code == '_' || code == '$'
}

func unescape(code rune) rune {
	switch code {
	case 'n':
		return '\n'
	case 'f':
		return '\f'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		return code
	}
}

func newCharacterToken(index, end int, code rune) *Token {
	return newToken(index, end, TokenTypeCharacter, float64(code), string(code))
}

func newOperatorToken(index, end int, text string) *Token {
	return newToken(index, end, TokenTypeOperator, 0, text)
}
