package parser

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/token"
)

func (p *Parser) parseType() (*ast.TypeExpr, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwMut:
		p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.TypeExpr{Kind: ast.TypeMut, Elem: elem, Span: tok.Span.Cover(elem.Span)}, true
	case token.Star:
		p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return &ast.TypeExpr{Kind: ast.TypePtr, Elem: elem, Span: tok.Span.Cover(elem.Span)}, true
	case token.LBracket:
		p.advance()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RBracket, diag.SynUnexpectedToken); !ok {
			return nil, false
		}
		return &ast.TypeExpr{Kind: ast.TypeArray, Elem: elem, Span: tok.Span.Cover(p.lastSpan)}, true
	case token.TypeVar:
		p.advance()
		return &ast.TypeExpr{Kind: ast.TypeVar, Name: tok.Text[1:], Span: tok.Span}, true
	case token.KwFn:
		p.advance()
		if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken); !ok {
			return nil, false
		}
		fnType := &ast.TypeExpr{Kind: ast.TypeFn}
		for !p.at(token.RParen) {
			arg, ok := p.parseType()
			if !ok {
				return nil, false
			}
			fnType.Args = append(fnType.Args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Arrow, diag.SynUnexpectedToken); !ok {
			return nil, false
		}
		ret, ok := p.parseType()
		if !ok {
			return nil, false
		}
		fnType.Elem = ret
		fnType.Span = tok.Span.Cover(ret.Span)
		return fnType, true
	case token.Ident:
		p.advance()
		named := &ast.TypeExpr{Kind: ast.TypeNamed, Name: tok.Text, Span: tok.Span}
		if p.eat(token.Lt) {
			for !p.at(token.Gt) {
				arg, ok := p.parseType()
				if !ok {
					return nil, false
				}
				named.Args = append(named.Args, arg)
				if !p.eat(token.Comma) {
					break
				}
			}
			if _, ok := p.expect(token.Gt, diag.SynUnexpectedToken); !ok {
				return nil, false
			}
			named.Span = tok.Span.Cover(p.lastSpan)
		}
		return named, true
	}
	p.errorf(diag.SynExpectType, tok.Span, "expected type, found %s", describe(tok))
	return nil, false
}
