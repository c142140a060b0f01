package parser

import (
	"fmt"
	"slices"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/lexer"
	"kiln/internal/source"
	"kiln/internal/token"
)

type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser holds the state for one file.
type Parser struct {
	lx       *lexer.Lexer
	file     *source.File
	opts     Options
	errors   uint
	lastSpan source.Span // span of the last consumed token
}

// ParseFile parses one source file into an ast.File. Syntax errors are
// reported and the parser resynchronizes at the next item boundary.
func ParseFile(file *source.File, opts Options) *ast.File {
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	p := &Parser{lx: lx, file: file, opts: opts, lastSpan: lx.EmptySpan()}
	out := &ast.File{Path: file.Path, Span: lx.Peek().Span}
	for !p.at(token.EOF) && !p.enough() {
		item, ok := p.parseItem()
		if !ok {
			p.resyncTop()
			continue
		}
		out.Items = append(out.Items, item)
	}
	out.Span = out.Span.Cover(p.lastSpan)
	return out
}

// ErrorCount reports how many syntax errors the parser emitted.
func (p *Parser) ErrorCount() uint { return p.errors }

func (p *Parser) enough() bool {
	return p.opts.MaxErrors != 0 && p.errors >= p.opts.MaxErrors
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	p.lastSpan = tok.Span
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	got := p.lx.Peek()
	p.errorf(code, got.Span, "expected %s, found %s", k, describe(got))
	return got, false
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errors++
	if p.opts.Reporter != nil {
		diag.ReportError(p.opts.Reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
	}
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.FloatLit, token.TypeVar:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	}
	return fmt.Sprintf("%q", tok.Kind.String())
}

// resyncTop skips to something that can start an item.
func (p *Parser) resyncTop() {
	for !p.atOr(token.EOF, token.KwFn, token.KwExt, token.KwType, token.At, token.KwPub, token.KwComptime) {
		p.advance()
	}
}

func (p *Parser) parseItem() (ast.Item, bool) {
	switch p.lx.Peek().Kind {
	case token.KwType:
		td, ok := p.parseTypeDecl()
		return ast.Item{Kind: ast.ItemType, Type: td}, ok
	case token.KwExt:
		ext, ok := p.parseExt()
		return ast.Item{Kind: ast.ItemExt, Ext: ext}, ok
	case token.KwFn, token.At, token.KwPub, token.KwComptime:
		fn, ok := p.parseFnDecl(true)
		return ast.Item{Kind: ast.ItemFn, Fn: fn}, ok
	}
	tok := p.advance()
	p.errorf(diag.SynUnexpectedToken, tok.Span, "unexpected %s at top level", describe(tok))
	return ast.Item{}, false
}

// type Name<'a, 'b>;
func (p *Parser) parseTypeDecl() (*ast.TypeDecl, bool) {
	start := p.advance().Span
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		return nil, false
	}
	td := &ast.TypeDecl{Name: name.Text}
	if p.eat(token.Lt) {
		for !p.at(token.Gt) {
			tv, ok := p.expect(token.TypeVar, diag.SynExpectType)
			if !ok {
				return nil, false
			}
			td.Params = append(td.Params, tv.Text[1:])
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.Gt, diag.SynUnexpectedToken); !ok {
			return nil, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
		return nil, false
	}
	td.Span = start.Cover(p.lastSpan)
	return td, true
}

// ext Type { fn ... }
func (p *Parser) parseExt() (*ast.ExtBlock, bool) {
	start := p.advance().Span
	target, ok := p.parseType()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	ext := &ast.ExtBlock{Target: target}
	for !p.atOr(token.RBrace, token.EOF) {
		fn, ok := p.parseFnDecl(true)
		if !ok {
			return nil, false
		}
		ext.Fns = append(ext.Fns, fn)
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace); !ok {
		return nil, false
	}
	ext.Span = start.Cover(p.lastSpan)
	return ext, true
}
