package parser

import (
	"strings"

	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/token"
)

// parseBlock parses `{ item (; item)* [;] }`. The last item is the block's
// value when it is a plain expression not followed by a semicolon.
func (p *Parser) parseBlock() (*ast.Expr, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken)
	if !ok {
		return nil, false
	}
	block := &ast.BlockData{}
	for !p.atOr(token.RBrace, token.EOF) {
		item, ok := p.parseItemExpr()
		if !ok {
			p.resyncBlock()
			if p.at(token.RBrace) || p.at(token.EOF) {
				break
			}
			continue
		}
		block.Items = append(block.Items, item)
		terminated := p.eat(token.Semicolon)
		block.Value = !terminated && producesValue(item)
		if !terminated && !p.at(token.RBrace) && needsSemicolon(item) {
			tok := p.lx.Peek()
			p.errorf(diag.SynExpectSemicolon, tok.Span, "expected ';', found %s", describe(tok))
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace); !ok {
		return nil, false
	}
	return &ast.Expr{Kind: ast.ExprBlock, Span: open.Span.Cover(p.lastSpan), Block: block}, true
}

func (p *Parser) resyncBlock() {
	for !p.atOr(token.Semicolon, token.RBrace, token.EOF) {
		p.advance()
	}
	p.eat(token.Semicolon)
}

func producesValue(e *ast.Expr) bool {
	switch e.Kind {
	case ast.ExprReturn, ast.ExprBreak, ast.ExprContinue, ast.ExprLoop, ast.ExprIf, ast.ExprFn:
		return false
	}
	return true
}

func needsSemicolon(e *ast.Expr) bool {
	switch e.Kind {
	case ast.ExprLoop, ast.ExprIf, ast.ExprFn, ast.ExprBlock:
		return false
	}
	return true
}

func (p *Parser) parseItemExpr() (*ast.Expr, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwReturn:
		p.advance()
		ret := &ast.Expr{Kind: ast.ExprReturn, Span: tok.Span}
		if !p.atOr(token.Semicolon, token.RBrace) {
			v, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			ret.Value = v
			ret.Span = tok.Span.Cover(v.Span)
		}
		return ret, true
	case token.KwBreak:
		p.advance()
		return &ast.Expr{Kind: ast.ExprBreak, Span: tok.Span}, true
	case token.KwContinue:
		p.advance()
		return &ast.Expr{Kind: ast.ExprContinue, Span: tok.Span}, true
	case token.KwLoop:
		p.advance()
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprLoop, Span: tok.Span.Cover(body.Span), Block: body.Block}, true
	case token.KwIf:
		return p.parseIf()
	case token.At, token.KwPub, token.KwComptime:
		fn, ok := p.parseFnDecl(true)
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprFn, Span: fn.Span, Fn: fn}, true
	case token.KwFn:
		// fn name(...) is a nested declaration; fn(...) a lambda value
		fn, ok := p.parseFnDecl(!p.lambdaAhead())
		if !ok {
			return nil, false
		}
		kind := ast.ExprFn
		if fn.IsLambda() {
			kind = ast.ExprLambda
			return p.parsePostfix(&ast.Expr{Kind: kind, Span: fn.Span, Fn: fn})
		}
		return &ast.Expr{Kind: kind, Span: fn.Span, Fn: fn}, true
	}
	return p.parseExpr()
}

// lambdaAhead is called with `fn` as the next token.
func (p *Parser) lambdaAhead() bool {
	return p.lx.PeekSecond().Kind == token.LParen
}

func (p *Parser) parseIf() (*ast.Expr, bool) {
	start := p.advance().Span
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	data := &ast.IfData{Cond: cond, Then: then}
	if p.eat(token.KwElse) {
		if p.at(token.KwIf) {
			data.Else, ok = p.parseIf()
		} else {
			data.Else, ok = p.parseBlock()
		}
		if !ok {
			return nil, false
		}
	}
	return &ast.Expr{Kind: ast.ExprIf, Span: start.Cover(p.lastSpan), If: data}, true
}

var binaryPrec = map[token.Kind]struct {
	prec int
	op   ast.BinaryOp
}{
	token.EqEq:  {1, ast.OpEq},
	token.Lt:    {1, ast.OpLt},
	token.Plus:  {2, ast.OpAdd},
	token.Minus: {2, ast.OpSub},
	token.Star:  {3, ast.OpMul},
	token.Slash: {3, ast.OpDiv},
}

func (p *Parser) parseExpr() (*ast.Expr, bool) {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) (*ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		info, isOp := binaryPrec[p.lx.Peek().Kind]
		if !isOp || info.prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinary(info.prec + 1)
		if !ok {
			return nil, false
		}
		left = &ast.Expr{
			Kind:   ast.ExprBinary,
			Span:   left.Span.Cover(right.Span),
			Binary: &ast.BinaryData{Op: info.op, Left: left, Right: right},
		}
	}
}

func (p *Parser) parseUnary() (*ast.Expr, bool) {
	primary, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	return p.parsePostfix(primary)
}

func (p *Parser) parsePostfix(e *ast.Expr) (*ast.Expr, bool) {
	for p.at(token.LParen) {
		p.advance()
		call := &ast.CallData{Callee: e}
		for !p.at(token.RParen) {
			arg, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			call.Args = append(call.Args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return nil, false
		}
		e = &ast.Expr{Kind: ast.ExprCall, Span: e.Span.Cover(p.lastSpan), Call: call}
	}
	return e, true
}

func (p *Parser) parsePrimary() (*ast.Expr, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit, token.FloatLit:
		p.advance()
		kind := ast.ExprInt
		if tok.Kind == token.FloatLit {
			kind = ast.ExprFloat
		}
		return &ast.Expr{Kind: kind, Span: tok.Span, Lit: splitSuffix(tok.Text)}, true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.Expr{Kind: ast.ExprBool, Span: tok.Span, Lit: &ast.LitData{Text: tok.Text, Bool: tok.Kind == token.KwTrue}}, true
	case token.Ident:
		p.advance()
		return &ast.Expr{Kind: ast.ExprIdent, Span: tok.Span, Name: tok.Text}, true
	case token.LParen:
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return nil, false
		}
		return inner, true
	case token.LBrace:
		return p.parseBlock()
	case token.KwFn:
		fn, ok := p.parseFnDecl(false)
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprLambda, Span: fn.Span, Fn: fn}, true
	}
	p.advance()
	p.errorf(diag.SynExpectExpression, tok.Span, "expected expression, found %s", describe(tok))
	return nil, false
}

// splitSuffix separates "5i64" into digits and suffix.
func splitSuffix(text string) *ast.LitData {
	text = strings.ReplaceAll(text, "_", "")
	if i := strings.IndexAny(text, "iuf"); i > 0 {
		return &ast.LitData{Text: text[:i], Suffix: text[i:]}
	}
	return &ast.LitData{Text: text}
}
