// parser.go — recursive-descent parser producing an *ast.Program directly
// from a token stream, grounded in the teacher's parser idiom (match/need on
// a flat token slice) but without the teacher's Pratt expression climbing —
// this grammar has no operator precedence to resolve.
package parser

import (
	"fmt"
	"strconv"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
	"github.com/Janji03/Racing-Choreographies-parser/lexer"
)

// ParseError is a single syntax error with its source position.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

type parser struct {
	file string
	toks []lexer.Token
	i    int
}

// Parse lexes and parses src (attributed to file for diagnostics) into a
// *ast.Program.
func Parse(file, src string) (*ast.Program, error) {
	toks, err := lexer.New(src).Scan()
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, &ParseError{Line: le.Line, Col: le.Col, Msg: le.Msg}
		}
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	return p.program()
}

func (p *parser) atEnd() bool { return p.peek().Type == lexer.EOF }

func (p *parser) peek() lexer.Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) prev() lexer.Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...lexer.TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(tt lexer.TokenType) (lexer.Token, error) {
	if p.match(tt) {
		return p.prev(), nil
	}
	g := p.peek()
	return lexer.Token{}, &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("expected %s, got %s %q", tt, g.Type, g.Lexeme)}
}

func (p *parser) rng(startTok int) ast.SourceRange {
	start := p.toks[startTok]
	end := p.toks[p.i-1]
	return ast.SourceRange{
		File:  p.file,
		Start: ast.SourcePos{Line: start.Line, Col: start.Col},
		End:   ast.SourcePos{Line: end.Line, Col: end.Col + len(end.Lexeme)},
	}
}

func (p *parser) here() ast.SourceRange {
	t := p.peek()
	return ast.SourceRange{File: p.file, Start: ast.SourcePos{Line: t.Line, Col: t.Col}, End: ast.SourcePos{Line: t.Line, Col: t.Col}}
}

// program := procDef* mainDef
func (p *parser) program() (*ast.Program, error) {
	start := p.i
	var procs []*ast.ProcDef
	for p.peek().Type == lexer.PROC {
		def, err := p.procDef()
		if err != nil {
			return nil, err
		}
		procs = append(procs, def)
	}

	if _, err := p.need(lexer.MAIN); err != nil {
		return nil, err
	}
	main, err := p.block()
	if err != nil {
		return nil, err
	}

	if !p.atEnd() {
		g := p.peek()
		return nil, &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("unexpected %s %q after main block", g.Type, g.Lexeme)}
	}

	return &ast.Program{Procedures: procs, Main: main, Rng: p.rng(start)}, nil
}

// procDef := "proc" ID "(" (ID ("," ID)*)? ")" block
func (p *parser) procDef() (*ast.ProcDef, error) {
	start := p.i
	if _, err := p.need(lexer.PROC); err != nil {
		return nil, err
	}
	name, err := p.need(lexer.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.LPAREN); err != nil {
		return nil, err
	}

	var params []ast.Process
	if p.peek().Type != lexer.RPAREN {
		for {
			pid, err := p.need(lexer.ID)
			if err != nil {
				return nil, err
			}
			params = append(params, pid.Lexeme)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	if _, err := p.need(lexer.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.ProcDef{Name: name.Lexeme, Params: params, Body: body, Rng: p.rng(start)}, nil
}

// block := "{" (stmt (";" stmt)* ";"?)? "}"
func (p *parser) block() (*ast.Block, error) {
	start := p.i
	if _, err := p.need(lexer.LBRACE); err != nil {
		return nil, err
	}

	var stmts []ast.Stmt
	for p.peek().Type != lexer.RBRACE {
		st, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
		if !p.match(lexer.SEMI) {
			break
		}
	}

	if _, err := p.need(lexer.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Block{Statements: stmts, Rng: p.rng(start)}, nil
}

// stmt := interaction | callStmt | ifLocalStmt | ifRaceStmt
func (p *parser) stmt() (ast.Stmt, error) {
	switch p.peek().Type {
	case lexer.IF:
		return p.ifStmt()
	case lexer.RACE:
		return p.raceStmt()
	case lexer.DISCHARGE:
		return p.dischargeStmt()
	case lexer.ID:
		return p.idLeadingStmt()
	default:
		g := p.peek()
		return nil, &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("unexpected %s %q at start of statement", g.Type, g.Lexeme)}
	}
}

// idLeadingStmt disambiguates comm/assign/select/callStmt, all of which
// start with a bare identifier.
func (p *parser) idLeadingStmt() (ast.Stmt, error) {
	start := p.i
	name1, err := p.need(lexer.ID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.match(lexer.LPAREN):
		return p.callStmtTail(start, name1.Lexeme)

	case p.match(lexer.DOT):
		return p.dotLeadingStmtTail(start, name1)

	case p.match(lexer.ARROW):
		return p.selectTail(start, name1.Lexeme)

	default:
		g := p.peek()
		return nil, &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("expected '(', '.' or '->' after %q, got %s", name1.Lexeme, g.Type)}
	}
}

func (p *parser) callStmtTail(start int, proc string) (ast.Stmt, error) {
	var args []ast.Process
	if p.peek().Type != lexer.RPAREN {
		for {
			a, err := p.need(lexer.ID)
			if err != nil {
				return nil, err
			}
			args = append(args, a.Lexeme)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	if _, err := p.need(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.CallStmt{Proc: proc, Args: args, Rng: p.rng(start)}, nil
}

func (p *parser) selectTail(start int, from string) (ast.Stmt, error) {
	to, err := p.need(lexer.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.LBRACKET); err != nil {
		return nil, err
	}
	label, err := p.need(lexer.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return ast.InteractionStmt{
		Interaction: ast.Select{From: from, To: to.Lexeme, Label: label.Lexeme, Rng: p.rng(start)},
		Rng:         p.rng(start),
	}, nil
}

// dotLeadingStmtTail parses whatever follows "name1 .", after the DOT has
// already been consumed: either "ID . ID" (procVar shape, ambiguous between
// assign and comm) or "ID . <literal>" (only valid as a comm source).
func (p *parser) dotLeadingStmtTail(start int, name1 lexer.Token) (ast.Stmt, error) {
	locProc := ast.SourceRange{File: p.file, Start: ast.SourcePos{Line: name1.Line, Col: name1.Col}}

	if p.peek().Type == lexer.ID {
		name2 := p.peek()
		p.i++

		switch {
		case p.match(lexer.ASSIGN):
			target := ast.ProcVar{Process: name1.Lexeme, Var: name2.Lexeme, Loc: locProc}
			value, err := p.expr()
			if err != nil {
				return nil, err
			}
			return ast.InteractionStmt{
				Interaction: ast.Assign{Target: target, Value: value, Rng: p.rng(start)},
				Rng:         p.rng(start),
			}, nil

		case p.match(lexer.ARROW):
			from := ast.ProcExpr{
				Process: name1.Lexeme,
				Expr:    ast.ExprVar{Name: name2.Lexeme, Rng: p.exprLoc(name2)},
				Loc:     locProc,
			}
			to, err := p.procVar()
			if err != nil {
				return nil, err
			}
			return ast.InteractionStmt{
				Interaction: ast.Comm{From: from, To: to, Rng: p.rng(start)},
				Rng:         p.rng(start),
			}, nil

		default:
			g := p.peek()
			return nil, &ParseError{Line: g.Line, Col: g.Col, Msg: fmt.Sprintf("expected '=' or '->' after %q, got %s", name1.Lexeme+"."+name2.Lexeme, g.Type)}
		}
	}

	// Literal RHS: only a comm source can look like this.
	litExpr, err := p.expr()
	if err != nil {
		return nil, err
	}
	from := ast.ProcExpr{Process: name1.Lexeme, Expr: litExpr, Loc: locProc}
	if _, err := p.need(lexer.ARROW); err != nil {
		return nil, err
	}
	to, err := p.procVar()
	if err != nil {
		return nil, err
	}
	return ast.InteractionStmt{
		Interaction: ast.Comm{From: from, To: to, Rng: p.rng(start)},
		Rng:         p.rng(start),
	}, nil
}

// expr := ID | INT | "true" | "false"
func (p *parser) expr() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.ID:
		p.i++
		return ast.ExprVar{Name: tok.Lexeme, Rng: p.exprLoc(tok)}, nil
	case lexer.INTEGER:
		p.i++
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("invalid integer literal %q", tok.Lexeme)}
		}
		return ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: n, Loc: p.exprLoc(tok)}}, nil
	case lexer.BOOLEAN:
		p.i++
		return ast.ExprValue{Value: ast.Value{Kind: ast.KindBool, BoolVal: tok.Lexeme == "true", Loc: p.exprLoc(tok)}}, nil
	default:
		return nil, &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("expected an expression, got %s %q", tok.Type, tok.Lexeme)}
	}
}

func (p *parser) exprLoc(t lexer.Token) ast.SourceRange {
	return ast.SourceRange{
		File:  p.file,
		Start: ast.SourcePos{Line: t.Line, Col: t.Col},
		End:   ast.SourcePos{Line: t.Line, Col: t.Col + len(t.Lexeme)},
	}
}

// procVar := ID "." ID
func (p *parser) procVar() (ast.ProcVar, error) {
	start := p.i
	proc, err := p.need(lexer.ID)
	if err != nil {
		return ast.ProcVar{}, err
	}
	if _, err := p.need(lexer.DOT); err != nil {
		return ast.ProcVar{}, err
	}
	v, err := p.need(lexer.ID)
	if err != nil {
		return ast.ProcVar{}, err
	}
	return ast.ProcVar{Process: proc.Lexeme, Var: v.Lexeme, Loc: p.rng(start)}, nil
}

// procExpr := ID "." expr
func (p *parser) procExpr() (ast.ProcExpr, error) {
	start := p.i
	proc, err := p.need(lexer.ID)
	if err != nil {
		return ast.ProcExpr{}, err
	}
	if _, err := p.need(lexer.DOT); err != nil {
		return ast.ProcExpr{}, err
	}
	e, err := p.expr()
	if err != nil {
		return ast.ProcExpr{}, err
	}
	return ast.ProcExpr{Process: proc.Lexeme, Expr: e, Loc: p.rng(start)}, nil
}

// raceId := ID "[" ID "]"
func (p *parser) raceId() (ast.RaceId, error) {
	start := p.i
	proc, err := p.need(lexer.ID)
	if err != nil {
		return ast.RaceId{}, err
	}
	if _, err := p.need(lexer.LBRACKET); err != nil {
		return ast.RaceId{}, err
	}
	key, err := p.need(lexer.ID)
	if err != nil {
		return ast.RaceId{}, err
	}
	if _, err := p.need(lexer.RBRACKET); err != nil {
		return ast.RaceId{}, err
	}
	return ast.RaceId{Process: proc.Lexeme, Key: key.Lexeme, Loc: p.rng(start)}, nil
}

// race := "race" raceId ":" procExpr "," procExpr "->" procVar
func (p *parser) raceStmt() (ast.Stmt, error) {
	start := p.i
	if _, err := p.need(lexer.RACE); err != nil {
		return nil, err
	}
	id, err := p.raceId()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.COLON); err != nil {
		return nil, err
	}
	left, err := p.procExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.COMMA); err != nil {
		return nil, err
	}
	right, err := p.procExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.ARROW); err != nil {
		return nil, err
	}
	target, err := p.procVar()
	if err != nil {
		return nil, err
	}
	return ast.InteractionStmt{
		Interaction: ast.Race{Id: id, Left: left, Right: right, Target: target, Rng: p.rng(start)},
		Rng:         p.rng(start),
	}, nil
}

// discharge := "discharge" raceId ":" ID "->" procVar
func (p *parser) dischargeStmt() (ast.Stmt, error) {
	start := p.i
	if _, err := p.need(lexer.DISCHARGE); err != nil {
		return nil, err
	}
	id, err := p.raceId()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.COLON); err != nil {
		return nil, err
	}
	source, err := p.need(lexer.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.ARROW); err != nil {
		return nil, err
	}
	target, err := p.procVar()
	if err != nil {
		return nil, err
	}
	return ast.InteractionStmt{
		Interaction: ast.Discharge{Id: id, Source: source.Lexeme, Target: target, Rng: p.rng(start)},
		Rng:         p.rng(start),
	}, nil
}

// ifLocalStmt := "if" procExpr "then" block "else" block
// ifRaceStmt  := "if" "race" raceId "then" block "else" block
func (p *parser) ifStmt() (ast.Stmt, error) {
	start := p.i
	if _, err := p.need(lexer.IF); err != nil {
		return nil, err
	}

	if p.peek().Type == lexer.RACE {
		p.i++
		id, err := p.raceId()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(lexer.THEN); err != nil {
			return nil, err
		}
		thenB, err := p.block()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(lexer.ELSE); err != nil {
			return nil, err
		}
		elseB, err := p.block()
		if err != nil {
			return nil, err
		}
		return ast.IfRaceStmt{Cond: id, Then: thenB, Else: elseB, Rng: p.rng(start)}, nil
	}

	cond, err := p.procExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.THEN); err != nil {
		return nil, err
	}
	thenB, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.ELSE); err != nil {
		return nil, err
	}
	elseB, err := p.block()
	if err != nil {
		return nil, err
	}
	return ast.IfLocalStmt{Cond: cond, Then: thenB, Else: elseB, Rng: p.rng(start)}, nil
}
