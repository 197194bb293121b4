// Package parser is a minimal recursive-descent parser over the token
// subset internal/query/lexer produces. It is intentionally thin: its
// only job is turning a statement into the arguments of a
// session.Database/heap.File call, not supporting joins, expressions, or
// a planner/executor pipeline.
package parser

import (
	"strconv"

	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/query/lexer"
)

type parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses a single statement.
func Parse(sql string) (Statement, error) {
	toks, err := lexer.Lex(sql)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	// Allow an optional trailing ';'.
	if p.peek().Kind == lexer.Punct && p.peek().Text == ";" {
		p.pos++
	}
	if p.peek().Kind != lexer.EOF {
		return nil, lilderr.New(lilderr.Validation, "unexpected trailing input after statement")
	}
	return stmt, nil
}

func (p *parser) peek() lexer.Token { return p.toks[p.pos] }

func (p *parser) next() lexer.Token {
	t := p.toks[p.pos]
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if t.Kind != lexer.Keyword || t.Text != kw {
		return lilderr.New(lilderr.Validation, "expected keyword %q, got %q", kw, t.Text)
	}
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.next()
	if t.Kind != lexer.Ident {
		return "", lilderr.New(lilderr.Validation, "expected identifier, got %q", t.Text)
	}
	return t.Text, nil
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if t.Kind != lexer.Punct || t.Text != s {
		return lilderr.New(lilderr.Validation, "expected %q, got %q", s, t.Text)
	}
	return nil
}

func (p *parser) parseStatement() (Statement, error) {
	switch t := p.peek(); {
	case t.Kind == lexer.Keyword && t.Text == "CREATE":
		return p.parseCreateTable()
	case t.Kind == lexer.Keyword && t.Text == "INSERT":
		return p.parseInsert()
	case t.Kind == lexer.Keyword && t.Text == "SELECT":
		return p.parseSelect()
	default:
		return nil, lilderr.New(lilderr.Validation, "unsupported statement starting with %q", t.Text)
	}
}

func (p *parser) parseCreateTable() (Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var cols []ColumnDef
	for {
		colName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		typeTok := p.next()
		if typeTok.Kind != lexer.Ident && typeTok.Kind != lexer.Keyword {
			return nil, lilderr.New(lilderr.Validation, "expected a column type, got %q", typeTok.Text)
		}
		cols = append(cols, ColumnDef{Name: colName, Type: typeTok.Text})

		if p.peek().Kind == lexer.Punct && p.peek().Text == "," {
			p.pos++
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &CreateTableStmt{TableName: name, Columns: cols}, nil
}

func (p *parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var values []any
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		if p.peek().Kind == lexer.Punct && p.peek().Text == "," {
			p.pos++
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &InsertStmt{TableName: name, Values: values}, nil
}

func (p *parser) parseSelect() (Statement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("*"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &SelectStmt{TableName: name}, nil
}

func (p *parser) parseLiteral() (any, error) {
	t := p.next()
	switch {
	case t.Kind == lexer.Keyword && t.Text == "NULL":
		return nil, nil
	case t.Kind == lexer.Keyword && t.Text == "TRUE":
		return true, nil
	case t.Kind == lexer.Keyword && t.Text == "FALSE":
		return false, nil
	case t.Kind == lexer.String:
		return t.Text, nil
	case t.Kind == lexer.Number:
		if i, err := strconv.ParseInt(t.Text, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, lilderr.New(lilderr.Validation, "invalid numeric literal %q", t.Text)
		}
		return f, nil
	default:
		return nil, lilderr.New(lilderr.Validation, "expected a literal, got %q", t.Text)
	}
}
