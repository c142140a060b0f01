package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"

	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/token"
)

type Lexer struct {
	file *source.File
	off  int
	opts Options
	look []token.Token // lookahead buffer, at most two tokens
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, opts: opts}
}

// Peek returns the next significant token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if len(lx.look) == 0 {
		lx.look = append(lx.look, lx.scan())
	}
	return lx.look[0]
}

// PeekSecond returns the token after Peek without consuming either.
func (lx *Lexer) PeekSecond() token.Token {
	for len(lx.look) < 2 {
		lx.look = append(lx.look, lx.scan())
	}
	return lx.look[1]
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if len(lx.look) > 0 {
		tok := lx.look[0]
		lx.look = lx.look[1:]
		return tok
	}
	return lx.scan()
}

// EmptySpan is a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	p := lx.pos(lx.off)
	return source.Span{File: lx.file.ID, Start: p, End: p}
}

func (lx *Lexer) pos(off int) uint32 {
	p, err := safecast.Conv[uint32](off)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return p
}

func (lx *Lexer) span(start int) source.Span {
	return source.Span{File: lx.file.ID, Start: lx.pos(start), End: lx.pos(lx.off)}
}

func (lx *Lexer) peekByte(n int) byte {
	if lx.off+n >= len(lx.file.Content) {
		return 0
	}
	return lx.file.Content[lx.off+n]
}

func (lx *Lexer) skipTrivia() {
	src := lx.file.Content
	for lx.off < len(src) {
		switch c := src[lx.off]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			lx.off++
		case c == '/' && lx.peekByte(1) == '/':
			for lx.off < len(src) && src[lx.off] != '\n' {
				lx.off++
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scan() token.Token {
	lx.skipTrivia()
	src := lx.file.Content
	if lx.off >= len(src) {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}
	start := lx.off
	c := src[lx.off]

	switch {
	case isDigit(c):
		return lx.scanNumber()
	case c == '\'':
		lx.off++
		if lx.off >= len(src) || !lx.identStartAt(lx.off) {
			lx.report(diag.LexUnknownChar, lx.span(start), "expected type variable name after '")
			return token.Token{Kind: token.Invalid, Span: lx.span(start), Text: "'"}
		}
		lx.scanIdentTail()
		return token.Token{Kind: token.TypeVar, Span: lx.span(start), Text: string(src[start:lx.off])}
	case lx.identStartAt(lx.off):
		lx.scanIdentTail()
		text := string(src[start:lx.off])
		if kw, ok := token.LookupKeyword(text); ok {
			return token.Token{Kind: kw, Span: lx.span(start), Text: text}
		}
		return token.Token{Kind: token.Ident, Span: lx.span(start), Text: text}
	}
	return lx.scanPunct()
}

func (lx *Lexer) identStartAt(off int) bool {
	r, _ := utf8.DecodeRune(lx.file.Content[off:])
	return r == '_' || unicode.IsLetter(r)
}

func (lx *Lexer) scanIdentTail() {
	src := lx.file.Content
	for lx.off < len(src) {
		r, size := utf8.DecodeRune(src[lx.off:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) {
			return
		}
		lx.off += size
	}
}

// scanNumber reads 12, 12.5 and a trailing width suffix such as 7i64 or 1.5f32.
func (lx *Lexer) scanNumber() token.Token {
	src := lx.file.Content
	start := lx.off
	kind := token.IntLit
	for lx.off < len(src) && (isDigit(src[lx.off]) || src[lx.off] == '_') {
		lx.off++
	}
	if lx.off < len(src) && src[lx.off] == '.' && isDigit(lx.peekByte(1)) {
		kind = token.FloatLit
		lx.off++
		for lx.off < len(src) && isDigit(src[lx.off]) {
			lx.off++
		}
	}
	if lx.off < len(src) && (src[lx.off] == 'i' || src[lx.off] == 'u' || src[lx.off] == 'f') {
		suffixStart := lx.off
		lx.off++
		for lx.off < len(src) && isDigit(src[lx.off]) {
			lx.off++
		}
		switch string(src[suffixStart:lx.off]) {
		case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64":
			if kind == token.FloatLit {
				lx.report(diag.LexBadNumber, lx.span(start), "integer suffix on a float literal")
			}
		case "f32", "f64":
			kind = token.FloatLit
		default:
			lx.report(diag.LexBadNumber, lx.span(start), fmt.Sprintf("unknown literal suffix %q", src[suffixStart:lx.off]))
		}
	}
	return token.Token{Kind: kind, Span: lx.span(start), Text: string(src[start:lx.off])}
}

func (lx *Lexer) scanPunct() token.Token {
	start := lx.off
	c := lx.file.Content[lx.off]
	lx.off++
	kind := token.Invalid
	switch c {
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
		if lx.peekByte(0) == '>' {
			lx.off++
			kind = token.Arrow
		}
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '=':
		if lx.peekByte(0) == '=' {
			lx.off++
			kind = token.EqEq
		}
	case '<':
		kind = token.Lt
	case '>':
		kind = token.Gt
	case ':':
		kind = token.Colon
	case ';':
		kind = token.Semicolon
	case ',':
		kind = token.Comma
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case '@':
		kind = token.At
	}
	if kind == token.Invalid {
		if c >= utf8.RuneSelf {
			_, size := utf8.DecodeRune(lx.file.Content[start:])
			lx.off = start + size
		}
		lx.report(diag.LexUnknownChar, lx.span(start), fmt.Sprintf("unknown character %q", lx.file.Content[start:lx.off]))
	}
	return token.Token{Kind: kind, Span: lx.span(start), Text: string(lx.file.Content[start:lx.off])}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
