package token

// Kind enumerates token kinds.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	TypeVar // 't
	IntLit
	FloatLit

	// punctuation / operators
	Plus
	Minus
	Star
	Slash
	EqEq
	Lt
	Gt
	Colon
	Semicolon
	Comma
	Arrow // ->
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	At

	// keywords
	KwFn
	KwReturn
	KwLoop
	KwBreak
	KwContinue
	KwIf
	KwElse
	KwExt
	KwType
	KwMut
	KwSelf
	KwPub
	KwComptime
	KwTrue
	KwFalse
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "EOF",
	Ident:      "identifier",
	TypeVar:    "type variable",
	IntLit:     "integer literal",
	FloatLit:   "float literal",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	EqEq:       "==",
	Lt:         "<",
	Gt:         ">",
	Colon:      ":",
	Semicolon:  ";",
	Comma:      ",",
	Arrow:      "->",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	At:         "@",
	KwFn:       "fn",
	KwReturn:   "return",
	KwLoop:     "loop",
	KwBreak:    "break",
	KwContinue: "continue",
	KwIf:       "if",
	KwElse:     "else",
	KwExt:      "ext",
	KwType:     "type",
	KwMut:      "mut",
	KwSelf:     "self",
	KwPub:      "pub",
	KwComptime: "comptime",
	KwTrue:     "true",
	KwFalse:    "false",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
