// Package scanner turns lumen source text into a flat stream of tokens
// for the single-pass compiler. It follows this codebase's own lexer
// conventions (a byte-offset cursor with a one-token lookahead, read via
// NextToken) rather than lumen's Smalltalk-flavored sibling scanner,
// since lumen's token set is C-like: braces, semicolons, a fixed
// keyword list, no docstrings or symbol literals.
package scanner

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	// Single-character punctuation.
	LeftParen TokenType = iota
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star
	Amp
	Pipe
	Caret
	Tilde

	// One or two character operators.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	GreaterGreater
	Less
	LessEqual
	LessLess

	// Literals.
	Identifier
	String
	Number

	// Keywords.
	And
	Break
	Class
	Continue
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	Error
	EOF
)

var keywords = map[string]TokenType{
	"and": And, "break": Break, "class": Class, "continue": Continue,
	"else": Else, "false": False, "for": For, "fun": Fun, "if": If,
	"nil": Nil, "or": Or, "print": Print, "return": Return, "super": Super,
	"this": This, "true": True, "var": Var, "while": While,
}

// Token is a single lexical unit: its class, the exact source text it
// spans, and the source line it started on (lumen tracks lines only,
// not columns, matching the granularity its Chunk line map records).
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
}
