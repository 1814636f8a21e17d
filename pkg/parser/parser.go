// Package parser implements a recursive-descent parser over the token
// stream produced by pkg/lexer, yielding a pkg/ast.Query. It keeps one
// token of lookahead (curTok/peekTok), the same shape the teacher's
// SQL parser uses, adapted to Cypher's grammar.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/lexer"
	"github.com/kgraph-dev/cyphersql/pkg/token"
)

// Parser consumes a token stream and builds an ast.Query. A Parser is
// single-use: construct one per input with New.
type Parser struct {
	l *lexer.Lexer

	curTok  token.Token
	peekTok token.Token
}

// New creates a Parser over input.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.advance()
	p.advance()
	return p
}

// Parse lexes and parses input in one call.
func Parse(input string) (*ast.Query, error) {
	return New(input).ParseQuery()
}

func (p *Parser) advance() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) curIs(k token.Kind) bool  { return p.curTok.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peekTok.Kind == k }

// expectPeek advances past peekTok if it has kind k, otherwise returns
// a ParseError describing what was expected.
func (p *Parser) expectPeek(k token.Kind) error {
	if p.peekIs(k) {
		p.advance()
		return nil
	}
	return p.unexpected(p.peekTok, k.String())
}

func (p *Parser) unexpected(t token.Token, expected string) error {
	got := t.Kind.String()
	if t.Literal != "" {
		got = fmt.Sprintf("%s %q", got, t.Literal)
	}
	return &cerr.ParseError{Pos: t.Pos, Line: t.Line, Column: t.Column, Expected: expected, Got: got}
}

// ParseQuery parses the full token stream into a Query. It stops at
// the first lexical or syntactic error.
func (p *Parser) ParseQuery() (*ast.Query, error) {
	if err := p.l.Err(); err != nil {
		return nil, err
	}
	q := &ast.Query{Base: ast.At(p.curTok.Pos)}

	sawProcedureCall := false
	sawReturn := false
	for !p.curIs(token.EOF) {
		if err := p.l.Err(); err != nil {
			return nil, err
		}
		switch {
		case p.curIs(token.OPTIONAL) || p.curIs(token.MATCH):
			c, err := p.parseMatch()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.CREATE):
			c, err := p.parseCreate()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.MERGE):
			c, err := p.parseMerge()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.CALL):
			if sawProcedureCall {
				return nil, &cerr.UnsupportedError{Pos: p.curTok.Pos, Feature: "more than one procedure call per query"}
			}
			for _, prev := range q.Clauses {
				switch prev.(type) {
				case *ast.MatchClause, *ast.UnwindClause, *ast.WithClause:
					return nil, &cerr.UnsupportedError{Pos: p.curTok.Pos, Feature: "procedure call after a reading clause"}
				}
			}
			sawProcedureCall = true
			c, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.UNWIND):
			c, err := p.parseUnwind()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.WITH):
			c, err := p.parseWith()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.SET):
			c, err := p.parseSet()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.REMOVE):
			c, err := p.parseRemove()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.DETACH) || p.curIs(token.DELETE):
			c, err := p.parseDelete()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		case p.curIs(token.RETURN):
			if sawReturn {
				return nil, p.unexpected(p.curTok, "end of query")
			}
			sawReturn = true
			c, err := p.parseReturn()
			if err != nil {
				return nil, err
			}
			q.Clauses = append(q.Clauses, c)
		default:
			return nil, p.unexpected(p.curTok, "MATCH, OPTIONAL, CREATE, MERGE, CALL, UNWIND, WITH, SET, REMOVE, DELETE, DETACH or RETURN")
		}
		// each clause parser stops on its clause's last token
		p.advance()
	}
	if err := p.l.Err(); err != nil {
		return nil, err
	}
	if len(q.Clauses) == 0 {
		return nil, p.unexpected(p.curTok, "at least one clause")
	}
	return q, nil
}

// ----------------------------------------------------------------------------
// MATCH
// ----------------------------------------------------------------------------

func (p *Parser) parseMatch() (*ast.MatchClause, error) {
	m := &ast.MatchClause{Base: ast.At(p.curTok.Pos)}
	if p.curIs(token.OPTIONAL) {
		m.Optional = true
		if err := p.expectPeek(token.MATCH); err != nil {
			return nil, err
		}
	}
	// curTok == MATCH
	for {
		path, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		m.Paths = append(m.Paths, path)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if p.peekIs(token.WHERE) {
		p.advance()
		p.advance()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Where = where
	}
	return m, nil
}

func (p *Parser) parsePathPattern() (*ast.PathPattern, error) {
	path := &ast.PathPattern{Base: ast.At(p.peekTok.Pos)}

	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	first, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	path.Nodes = append(path.Nodes, first)

	for p.peekIs(token.MINUS) || p.peekIs(token.LT) {
		p.advance()
		rel, err := p.parseRelPattern()
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.LPAREN); err != nil {
			return nil, err
		}
		node, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		path.Rels = append(path.Rels, rel)
		path.Nodes = append(path.Nodes, node)
	}
	return path, nil
}

func (p *Parser) parseNodePattern() (*ast.NodePattern, error) {
	// curTok == LPAREN
	n := &ast.NodePattern{Base: ast.At(p.curTok.Pos)}
	if p.peekIs(token.IDENT) {
		p.advance()
		n.Variable = p.curTok.Literal
	}
	for p.peekIs(token.COLON) {
		p.advance()
		if err := p.expectPeek(token.IDENT); err != nil {
			return nil, err
		}
		n.Labels = append(n.Labels, p.curTok.Literal)
	}
	if p.peekIs(token.LBRACE) {
		p.advance()
		props, err := p.parsePropMap()
		if err != nil {
			return nil, err
		}
		n.Props = props
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return n, nil
}

// parseRelPattern parses one relationship pattern, starting with curTok
// positioned on the leading '-' or '<'.
func (p *Parser) parseRelPattern() (*ast.RelationshipPattern, error) {
	rel := &ast.RelationshipPattern{Base: ast.At(p.curTok.Pos), MinHops: 1, MaxHops: 1}

	leftArrow := false
	if p.curIs(token.LT) {
		leftArrow = true
		if err := p.expectPeek(token.MINUS); err != nil {
			return nil, err
		}
	}
	// curTok == MINUS
	if p.peekIs(token.LBRACKET) {
		p.advance()
		if p.peekIs(token.IDENT) {
			p.advance()
			rel.Variable = p.curTok.Literal
		}
		if p.peekIs(token.COLON) {
			p.advance()
			if err := p.expectPeek(token.IDENT); err != nil {
				return nil, err
			}
			rel.Type = p.curTok.Literal
		}
		if p.peekIs(token.STAR) {
			p.advance()
			if err := p.expectPeek(token.INT); err != nil {
				return nil, err
			}
			minN, err := strconv.Atoi(p.curTok.Literal)
			if err != nil {
				return nil, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "hop count", Got: p.curTok.Literal}
			}
			maxN := minN
			if p.peekIs(token.DOT) {
				p.advance()
				maxN, err = p.parseRangeUpperHops()
				if err != nil {
					return nil, err
				}
			}
			if maxN < minN {
				return nil, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "max hop count >= min hop count", Got: p.curTok.Literal}
			}
			rel.MinHops, rel.MaxHops = minN, maxN
		}
		if p.peekIs(token.LBRACE) {
			p.advance()
			props, err := p.parsePropMap()
			if err != nil {
				return nil, err
			}
			rel.Props = props
		}
		if err := p.expectPeek(token.RBRACKET); err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.MINUS); err != nil {
			return nil, err
		}
	} else {
		if err := p.expectPeek(token.MINUS); err != nil {
			return nil, err
		}
	}
	rightArrow := false
	if p.peekIs(token.GT) {
		p.advance()
		rightArrow = true
	}
	switch {
	case leftArrow && rightArrow:
		return nil, &cerr.ParseError{Pos: rel.Pos(), Line: p.curTok.Line, Column: p.curTok.Column, Expected: "single relationship direction", Got: "both arrows"}
	case leftArrow:
		rel.Direction = ast.Incoming
	case rightArrow:
		rel.Direction = ast.Outgoing
	default:
		rel.Direction = ast.Undirected
	}
	return rel, nil
}

// parseRangeUpperHops reads the upper bound of a `*min..max` hop range,
// called with curTok positioned on the first of the two DOT tokens
// separating min from max. Because the lexer treats a '.' followed by
// a digit as the start of a float literal (so ".5" lexes as a leading-
// dot float), writing the range with no surrounding whitespace ("*1..2")
// leaves the second dot fused to its digits as a single FLOAT token
// ("`.2`") rather than a separate DOT then INT; both token shapes are
// accepted here.
func (p *Parser) parseRangeUpperHops() (int, error) {
	if p.peekIs(token.DOT) {
		p.advance()
		if err := p.expectPeek(token.INT); err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(p.curTok.Literal)
		if err != nil {
			return 0, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "hop count", Got: p.curTok.Literal}
		}
		return n, nil
	}
	if p.peekIs(token.FLOAT) && strings.HasPrefix(p.peekTok.Literal, ".") {
		digits := p.peekTok.Literal[1:]
		if digits != "" && strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			p.advance()
			n, err := strconv.Atoi(digits)
			if err != nil {
				return 0, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "hop count", Got: p.curTok.Literal}
			}
			return n, nil
		}
	}
	if p.peekIs(token.INT) {
		p.advance()
		n, err := strconv.Atoi(p.curTok.Literal)
		if err != nil {
			return 0, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "hop count", Got: p.curTok.Literal}
		}
		return n, nil
	}
	return 0, &cerr.ParseError{Pos: p.peekTok.Pos, Line: p.peekTok.Line, Column: p.peekTok.Column, Expected: "hop count after '..'", Got: p.peekTok.Literal}
}

func (p *Parser) parsePropMap() ([]ast.MapEntry, error) {
	// curTok == LBRACE
	var entries []ast.MapEntry
	if p.peekIs(token.RBRACE) {
		p.advance()
		return entries, nil
	}
	for {
		if err := p.expectPeek(token.IDENT); err != nil {
			return nil, err
		}
		key := p.curTok.Literal
		if err := p.expectPeek(token.COLON); err != nil {
			return nil, err
		}
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.MapEntry{Key: key, Value: val})
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPeek(token.RBRACE); err != nil {
		return nil, err
	}
	return entries, nil
}

// ----------------------------------------------------------------------------
// CREATE / MERGE / SET / REMOVE / DELETE / UNWIND / WITH
// ----------------------------------------------------------------------------

func (p *Parser) parseCreate() (*ast.CreateClause, error) {
	c := &ast.CreateClause{Base: ast.At(p.curTok.Pos)}
	for {
		path, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		c.Paths = append(c.Paths, path)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return c, nil
}

func (p *Parser) parseMerge() (*ast.MergeClause, error) {
	m := &ast.MergeClause{Base: ast.At(p.curTok.Pos)}
	path, err := p.parsePathPattern()
	if err != nil {
		return nil, err
	}
	m.Path = path
	for p.peekIs(token.IDENT) && strings.EqualFold(p.peekTok.Literal, "ON") {
		p.advance() // ON (lexed as IDENT, Cypher treats it contextually)
		onCreate, err := p.parseOnMatchOrCreate()
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.SET); err != nil {
			return nil, err
		}
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		m.Actions = append(m.Actions, ast.MergeAction{OnCreate: onCreate, Set: set})
	}
	return m, nil
}

func (p *Parser) parseOnMatchOrCreate() (bool, error) {
	switch {
	case p.peekIs(token.MATCH):
		p.advance()
		return false, nil
	case p.peekIs(token.CREATE):
		p.advance()
		return true, nil
	default:
		return false, p.unexpected(p.peekTok, "MATCH or CREATE")
	}
}

func (p *Parser) parseSet() (*ast.SetClause, error) {
	s := &ast.SetClause{Base: ast.At(p.curTok.Pos)}
	for {
		if err := p.expectPeek(token.IDENT); err != nil {
			return nil, err
		}
		variable := p.curTok.Literal
		item := ast.SetItem{Variable: variable}
		switch {
		case p.peekIs(token.DOT):
			p.advance()
			if err := p.expectPeek(token.IDENT); err != nil {
				return nil, err
			}
			item.Property = p.curTok.Literal
			if err := p.expectPeek(token.EQ); err != nil {
				return nil, err
			}
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item.Value = val
		case p.peekIs(token.COLON):
			for p.peekIs(token.COLON) {
				p.advance()
				if err := p.expectPeek(token.IDENT); err != nil {
					return nil, err
				}
				item.Labels = append(item.Labels, p.curTok.Literal)
			}
		default:
			return nil, p.unexpected(p.peekTok, "'.' or ':'")
		}
		s.Items = append(s.Items, item)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return s, nil
}

func (p *Parser) parseRemove() (*ast.RemoveClause, error) {
	r := &ast.RemoveClause{Base: ast.At(p.curTok.Pos)}
	for {
		if err := p.expectPeek(token.IDENT); err != nil {
			return nil, err
		}
		variable := p.curTok.Literal
		item := ast.RemoveItem{Variable: variable}
		switch {
		case p.peekIs(token.DOT):
			p.advance()
			if err := p.expectPeek(token.IDENT); err != nil {
				return nil, err
			}
			item.Property = p.curTok.Literal
		case p.peekIs(token.COLON):
			for p.peekIs(token.COLON) {
				p.advance()
				if err := p.expectPeek(token.IDENT); err != nil {
					return nil, err
				}
				item.Labels = append(item.Labels, p.curTok.Literal)
			}
		default:
			return nil, p.unexpected(p.peekTok, "'.' or ':'")
		}
		r.Items = append(r.Items, item)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return r, nil
}

func (p *Parser) parseDelete() (*ast.DeleteClause, error) {
	d := &ast.DeleteClause{Base: ast.At(p.curTok.Pos)}
	if p.curIs(token.DETACH) {
		d.Detach = true
		if err := p.expectPeek(token.DELETE); err != nil {
			return nil, err
		}
	}
	for {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Exprs = append(d.Exprs, e)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return d, nil
}

func (p *Parser) parseUnwind() (*ast.UnwindClause, error) {
	u := &ast.UnwindClause{Base: ast.At(p.curTok.Pos)}
	p.advance()
	src, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	u.Source = src
	if err := p.expectPeek(token.AS); err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	u.Variable = p.curTok.Literal
	return u, nil
}

func (p *Parser) parseWith() (*ast.WithClause, error) {
	w := &ast.WithClause{Base: ast.At(p.curTok.Pos)}
	if p.peekIs(token.DISTINCT) {
		p.advance()
		w.Distinct = true
	}
	for {
		p.advance()
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, err
		}
		w.Items = append(w.Items, item)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if p.peekIs(token.WHERE) {
		p.advance()
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		w.Where = e
	}
	if err := p.parseOrderSkipLimit(&w.OrderBy, &w.Skip, &w.Limit); err != nil {
		return nil, err
	}
	return w, nil
}

// ----------------------------------------------------------------------------
// CALL
// ----------------------------------------------------------------------------

func (p *Parser) parseCall() (*ast.ProcedureCall, error) {
	c := &ast.ProcedureCall{Base: ast.At(p.curTok.Pos)}
	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	name := p.curTok.Literal
	for p.peekIs(token.DOT) {
		p.advance()
		if err := p.expectPeek(token.IDENT); err != nil {
			return nil, err
		}
		name += "." + p.curTok.Literal
	}
	c.Name = name

	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if !p.peekIs(token.RPAREN) {
		for {
			p.advance()
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peekIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	if n := len(args); n > 0 {
		if lit, ok := args[n-1].(*ast.Literal); ok && lit.Kind == ast.MapLit {
			c.Options = lit.Map
			args = args[:n-1]
		}
	}
	c.Args = args

	if p.peekIs(token.YIELD) {
		p.advance()
		for {
			if err := p.expectPeek(token.IDENT); err != nil {
				return nil, err
			}
			c.Yield = append(c.Yield, p.curTok.Literal)
			if p.peekIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	return c, nil
}

// ----------------------------------------------------------------------------
// RETURN
// ----------------------------------------------------------------------------

func (p *Parser) parseReturn() (*ast.ReturnClause, error) {
	r := &ast.ReturnClause{Base: ast.At(p.curTok.Pos)}
	if p.peekIs(token.DISTINCT) {
		p.advance()
		r.Distinct = true
	}
	for {
		p.advance()
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, err
		}
		r.Items = append(r.Items, item)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if err := p.parseOrderSkipLimit(&r.OrderBy, &r.Skip, &r.Limit); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *Parser) parseReturnItem() (ast.ReturnItem, error) {
	e, err := p.parseExpr()
	if err != nil {
		return ast.ReturnItem{}, err
	}
	item := ast.ReturnItem{Expr: e}
	if p.peekIs(token.AS) {
		p.advance()
		if err := p.expectPeek(token.IDENT); err != nil {
			return ast.ReturnItem{}, err
		}
		item.Alias = p.curTok.Literal
	}
	return item, nil
}

// parseOrderSkipLimit parses the common `ORDER BY ... SKIP ... LIMIT ...`
// tail shared by RETURN and WITH.
func (p *Parser) parseOrderSkipLimit(order *[]ast.OrderItem, skip, limit *ast.Expr) error {
	if p.peekIs(token.ORDER) {
		p.advance()
		if err := p.expectPeek(token.BY); err != nil {
			return err
		}
		for {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return err
			}
			oi := ast.OrderItem{Expr: e}
			if p.peekIs(token.DESC) {
				p.advance()
				oi.Descending = true
			} else if p.peekIs(token.ASC) {
				p.advance()
			}
			*order = append(*order, oi)
			if p.peekIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if p.peekIs(token.SKIP) {
		p.advance()
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		*skip = e
	}
	if p.peekIs(token.LIMIT) {
		p.advance()
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		*limit = e
	}
	return nil
}

// ----------------------------------------------------------------------------
// Expressions, lowest to highest precedence: OR, AND, NOT, comparison,
// additive, multiplicative, unary, property access, primary.
// ----------------------------------------------------------------------------

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekIs(token.OR) {
		opPos := p.peekTok.Pos
		p.advance()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Base: ast.At(opPos), Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peekIs(token.AND) {
		opPos := p.peekTok.Pos
		p.advance()
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Base: ast.At(opPos), Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.curIs(token.NOT) {
		pos := p.curTok.Pos
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Base: ast.At(pos), Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.peekIs(token.IS) {
		pos := p.peekTok.Pos
		p.advance()
		negate := false
		if p.peekIs(token.NOT) {
			p.advance()
			negate = true
		}
		if err := p.expectPeek(token.NULL); err != nil {
			return nil, err
		}
		op := ast.OpIsNull
		if negate {
			op = ast.OpIsNotNull
		}
		return &ast.BinaryOp{Base: ast.At(pos), Op: op, Left: left}, nil
	}

	var op ast.BinOp
	switch {
	case p.peekIs(token.EQ):
		op = ast.OpEq
	case p.peekIs(token.NEQ):
		op = ast.OpNeq
	case p.peekIs(token.LT):
		op = ast.OpLt
	case p.peekIs(token.LTE):
		op = ast.OpLte
	case p.peekIs(token.GT):
		op = ast.OpGt
	case p.peekIs(token.GTE):
		op = ast.OpGte
	case p.peekIs(token.IN):
		op = ast.OpIn
	case p.peekIs(token.CONTAINS):
		op = ast.OpContains
	case p.peekIs(token.STARTS):
		p.advance()
		if err := p.expectPeek(token.WITH); err != nil {
			return nil, err
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Base: ast.At(left.Pos()), Op: ast.OpStartsWith, Left: left, Right: right}, nil
	case p.peekIs(token.ENDS):
		p.advance()
		if err := p.expectPeek(token.WITH); err != nil {
			return nil, err
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Base: ast.At(left.Pos()), Op: ast.OpEndsWith, Left: left, Right: right}, nil
	default:
		return left, nil
	}
	pos := p.peekTok.Pos
	p.advance()
	p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryOp{Base: ast.At(pos), Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peekIs(token.PLUS) || p.peekIs(token.MINUS) {
		op := ast.OpAdd
		if p.peekIs(token.MINUS) {
			op = ast.OpSub
		}
		pos := p.peekTok.Pos
		p.advance()
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Base: ast.At(pos), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peekIs(token.STAR) || p.peekIs(token.SLASH) {
		op := ast.OpMul
		if p.peekIs(token.SLASH) {
			op = ast.OpDiv
		}
		pos := p.peekTok.Pos
		p.advance()
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Base: ast.At(pos), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.curIs(token.MINUS) {
		pos := p.curTok.Pos
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Base: ast.At(pos), Op: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePropertyAccess()
}

func (p *Parser) parsePropertyAccess() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peekIs(token.DOT) {
		p.advance()
		if err := p.expectPeek(token.IDENT); err != nil {
			return nil, err
		}
		expr = &ast.PropertyAccess{Base: ast.At(expr.Pos()), Target: expr, Key: p.curTok.Literal}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.curTok.Kind {
	case token.INT:
		n, err := strconv.ParseInt(p.curTok.Literal, 10, 64)
		if err != nil {
			return nil, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "integer literal", Got: p.curTok.Literal}
		}
		return &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.IntLit, Int: n}, nil
	case token.FLOAT:
		lit := p.curTok.Literal
		if strings.HasPrefix(lit, ".") {
			lit = "0" + lit
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, &cerr.ParseError{Pos: p.curTok.Pos, Line: p.curTok.Line, Column: p.curTok.Column, Expected: "float literal", Got: p.curTok.Literal}
		}
		return &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.FloatLit, Flt: f}, nil
	case token.STRING:
		return &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.StringLit, Str: p.curTok.Literal}, nil
	case token.TRUE:
		return &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.BoolLit, Bool: true}, nil
	case token.FALSE:
		return &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.BoolLit, Bool: false}, nil
	case token.NULL:
		return &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.NullLit}, nil
	case token.PARAM:
		return &ast.ParameterRef{Base: ast.At(p.curTok.Pos), Name: p.curTok.Literal}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseMapLiteral()
	case token.IDENT:
		name := p.curTok.Literal
		pos := p.curTok.Pos
		if p.peekIs(token.LPAREN) {
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			return &ast.FunctionCall{Base: ast.At(pos), Name: name, Args: args}, nil
		}
		return &ast.Variable{Base: ast.At(pos), Name: name}, nil
	default:
		return nil, p.unexpected(p.curTok, "an expression")
	}
}

func (p *Parser) parseListLiteral() (ast.Expr, error) {
	lit := &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.ListLit}
	if p.peekIs(token.RBRACKET) {
		p.advance()
		return lit, nil
	}
	for {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.List = append(lit.List, e)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPeek(token.RBRACKET); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseMapLiteral() (ast.Expr, error) {
	lit := &ast.Literal{Base: ast.At(p.curTok.Pos), Kind: ast.MapLit}
	entries, err := p.parsePropMap()
	if err != nil {
		return nil, err
	}
	lit.Map = entries
	return lit, nil
}

// parseArgList parses a parenthesized, comma-separated expression list.
// curTok is positioned on the '(' on entry; on return curTok is ')'.
func (p *Parser) parseArgList() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.peekIs(token.RPAREN) {
		p.advance()
		return args, nil
	}
	for {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.peekIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}
