package parser

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/token"
)

func (p *Parser) parseModifiers() []ast.Modifier {
	var mods []ast.Modifier
	for {
		switch p.lx.Peek().Kind {
		case token.At:
			at := p.advance()
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return mods
			}
			mods = append(mods, ast.Modifier{Kind: ast.ModDirective, Name: name.Text, Span: at.Span.Cover(name.Span)})
		case token.KwComptime, token.KwPub:
			tok := p.advance()
			mods = append(mods, ast.Modifier{Kind: ast.ModKeyword, Name: tok.Text, Span: tok.Span})
		default:
			return mods
		}
	}
}

// parseFnDecl parses [modifiers] fn [name](params) [-> T] (block | ;).
// Lambdas omit the name and must have a body.
func (p *Parser) parseFnDecl(named bool) (*ast.FnDecl, bool) {
	start := p.lx.Peek().Span
	mods := p.parseModifiers()
	if _, ok := p.expect(token.KwFn, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	fn := &ast.FnDecl{Modifiers: mods}
	if named {
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return nil, false
		}
		fn.Name = name.Text
		fn.NameSpan = name.Span
	}
	params, ok := p.parseParams()
	if !ok {
		return nil, false
	}
	fn.Params = params
	if p.eat(token.Arrow) {
		ret, ok := p.parseType()
		if !ok {
			return nil, false
		}
		fn.Ret = ret
	}
	switch {
	case p.at(token.LBrace):
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		fn.Body = body
	case named && p.eat(token.Semicolon):
	default:
		tok := p.lx.Peek()
		p.errorf(diag.SynUnexpectedToken, tok.Span, "expected function body, found %s", describe(tok))
		return nil, false
	}
	fn.Span = start.Cover(p.lastSpan)
	return fn, true
}

func (p *Parser) parseParams() ([]ast.Param, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	var params []ast.Param
	for !p.at(token.RParen) {
		if n := len(params); n > 0 && params[n-1].Kind == ast.ParamRegular && params[n-1].Type == nil {
			p.errorf(diag.SynVariadicNotLast, params[n-1].Span, "untyped parameter '%s' must be the last one", params[n-1].Name)
			return nil, false
		}
		if tok := p.lx.Peek(); tok.Kind == token.KwSelf {
			p.advance()
			params = append(params, ast.Param{Name: "self", Kind: ast.ParamReceiver, Span: tok.Span})
		} else {
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return nil, false
			}
			param := ast.Param{Name: name.Text, Span: name.Span}
			if p.eat(token.Colon) {
				ty, ok := p.parseType()
				if !ok {
					return nil, false
				}
				param.Type = ty
				param.Span = name.Span.Cover(ty.Span)
			}
			params = append(params, param)
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		return nil, false
	}
	return params, true
}
