package parse

import (
	"strconv"
	"strings"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
)

// Problem is the result of parsing one CTS-dialect source file: a populated
// Store (with its initial location already set) plus the informational goal
// string from the optional (GOAL ...) header, spec.md §6.
type Problem struct {
	Store *its.Store
	Goal  string
}

// locInfo tracks, for one function symbol, the location it was assigned and
// (once known) the global variable indices bound by its own left-hand side
// occurrence. Params is nil for a symbol that only ever appears as a
// right-hand-side target (a true sink with no outgoing rules of its own),
// in which case its incoming branches carry no update bindings: nothing
// downstream ever reads those variables again, so dropping them is safe.
type locInfo struct {
	Index  int
	Arity  int
	Params []int
}

type ruleCtx struct {
	temps map[string]int
}

type parser struct {
	toks        []token
	pos         int
	s           *its.Store
	locs        map[string]*locInfo
	firstLocSet bool
}

// Parse parses a complete CTS-dialect source file into a Problem.
func Parse(src string) (*Problem, error) {
	toks, err := lexAll(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, s: its.NewStore(), locs: map[string]*locInfo{}}

	goal, startSym, hasStart, err := p.parseHeader()
	if err != nil {
		return nil, err
	}

	rulesStart := p.pos
	if err := p.scanLocations(rulesStart); err != nil {
		return nil, err
	}

	if err := p.parseRuleList(); err != nil {
		return nil, err
	}

	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}

	if hasStart {
		li, ok := p.locs[startSym]
		if !ok {
			return nil, errAt(0, 0, "start term function symbol %q is never used in RULES", startSym)
		}
		p.s.SetInitialLocation(li.Index)
	}

	return &Problem{Store: p.s, Goal: goal}, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind, what string) (token, error) {
	if p.cur().kind != k {
		return token{}, errAt(p.cur().line, p.cur().col, "expected %s, found %q", what, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectIdentText(text string) error {
	t := p.cur()
	if t.kind != tIdent || t.text != text {
		return errAt(t.line, t.col, "expected %q, found %q", text, t.text)
	}
	p.advance()
	return nil
}

// parseHeader consumes every top-level section up to and including the
// "(RULES" opener, returning the (GOAL ...) text (if any) and the
// (STARTTERM (FUNCTIONSYMBOLS ...)) symbol (if any). Variable declarations
// are registered as they are read.
func (p *parser) parseHeader() (goal, startSym string, hasStart bool, err error) {
	for {
		if _, err := p.expect(tLParen, "'('"); err != nil {
			return "", "", false, err
		}
		kw, err := p.expect(tIdent, "a section keyword")
		if err != nil {
			return "", "", false, err
		}

		switch kw.text {
		case "VAR":
			for p.cur().kind == tIdent {
				name := p.advance().text
				esc := escapeName(name)
				if _, ok := p.s.LookupVariable(esc); !ok {
					p.s.DeclareVariable(esc, its.Program)
				}
			}
			if _, err := p.expect(tRParen, "')'"); err != nil {
				return "", "", false, err
			}

		case "GOAL":
			if p.cur().kind == tIdent {
				goal = p.advance().text
			}
			if _, err := p.expect(tRParen, "')'"); err != nil {
				return "", "", false, err
			}

		case "STARTTERM":
			if _, err := p.expect(tLParen, "'('"); err != nil {
				return "", "", false, err
			}
			inner, err := p.expect(tIdent, "FUNCTIONSYMBOLS or CONSTRUCTORBASED")
			if err != nil {
				return "", "", false, err
			}
			if inner.text == "FUNCTIONSYMBOLS" {
				name, err := p.expect(tIdent, "a function symbol")
				if err != nil {
					return "", "", false, err
				}
				startSym, hasStart = name.text, true
			}
			if _, err := p.expect(tRParen, "')'"); err != nil {
				return "", "", false, err
			}
			if _, err := p.expect(tRParen, "')'"); err != nil {
				return "", "", false, err
			}

		case "RULES":
			return goal, startSym, hasStart, nil

		default:
			return "", "", false, errAt(kw.line, kw.col, "unknown section %q", kw.text)
		}
	}
}

// scanLocations is a first pass over the RULES token range (from start up to
// its closing ')') that locates every left-hand-side term "f(x1,...,xn)"
// immediately followed by '->' or '-{', and registers f's location and
// formal parameters. Running this before the real rule-building pass means a
// rule whose right-hand side forward-references a location is never built
// with an incomplete update (see locInfo's doc comment).
func (p *parser) scanLocations(start int) error {
	depth := 0
	for i := start; i < len(p.toks); i++ {
		switch p.toks[i].kind {
		case tLParen:
			depth++
		case tRParen:
			if depth == 0 {
				return nil
			}
			depth--
		}

		if p.toks[i].kind != tIdent || i+1 >= len(p.toks) || p.toks[i+1].kind != tLParen {
			continue
		}

		j := i + 2
		var params []string
		ok := true
		if p.toks[j].kind != tRParen {
			for {
				if p.toks[j].kind != tIdent {
					ok = false
					break
				}
				params = append(params, p.toks[j].text)
				j++
				if p.toks[j].kind == tComma {
					j++
					continue
				}
				break
			}
		}
		if !ok || p.toks[j].kind != tRParen {
			continue
		}
		j++
		if j >= len(p.toks) {
			continue
		}
		if p.toks[j].kind != tArrow && p.toks[j].kind != tCostOpen {
			continue
		}

		if err := p.registerLocationParams(p.toks[i].text, params); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) registerLocationParams(name string, rawParams []string) error {
	li := p.getOrCreateLoc(name, len(rawParams))
	if li.Params != nil {
		if li.Arity != len(rawParams) {
			return errAt(0, 0, "location %q used with inconsistent arity", name)
		}
		return nil
	}
	params := make([]int, len(rawParams))
	for i, raw := range rawParams {
		esc := escapeName(raw)
		v, ok := p.s.LookupVariable(esc)
		if !ok {
			v = p.s.DeclareVariable(esc, its.Program)
		}
		params[i] = v.Index
	}
	li.Params = params
	return nil
}

// getOrCreateLoc returns the locInfo for name, creating it (and, for the
// very first symbol seen anywhere, reusing its.NewStore's pre-made location
// 0) if this is the first time name is mentioned.
func (p *parser) getOrCreateLoc(name string, arity int) *locInfo {
	if li, ok := p.locs[name]; ok {
		return li
	}
	idx := 0
	if p.firstLocSet {
		idx = p.s.AddLocation()
	} else {
		p.firstLocSet = true
	}
	li := &locInfo{Index: idx, Arity: arity}
	p.locs[name] = li
	return li
}

func (p *parser) parseRuleList() error {
	for p.cur().kind != tRParen {
		if err := p.parseRule(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseRule() error {
	ctx := &ruleCtx{temps: map[string]int{}}

	name, err := p.expect(tIdent, "a function symbol")
	if err != nil {
		return err
	}
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return err
	}
	arity := 0
	if p.cur().kind != tRParen {
		for {
			if _, err := p.expect(tIdent, "a parameter name"); err != nil {
				return err
			}
			arity++
			if p.cur().kind == tComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return err
	}
	li := p.getOrCreateLoc(name.text, arity)

	var cost alg.Expr
	appendCostGuard := false
	switch p.cur().kind {
	case tArrow:
		p.advance()
		cost = alg.One()
	case tCostOpen:
		p.advance()
		cost, err = p.parseExpr(ctx)
		if err != nil {
			return err
		}
		if _, err := p.expect(tCostClose, "'}>'"); err != nil {
			return err
		}
		appendCostGuard = true
	default:
		return errAt(p.cur().line, p.cur().col, "expected '->' or '-{', found %q", p.cur().text)
	}

	rhs, err := p.parseRhs(ctx)
	if err != nil {
		return err
	}

	var guard its.Guard
	if p.cur().kind == tLBracket {
		p.advance()
		guard, err = p.parseConj(ctx)
		if err != nil {
			return err
		}
		if _, err := p.expect(tRBracket, "']'"); err != nil {
			return err
		}
	}

	p.s.AddRule(its.NewRule(li.Index, guard, cost, rhs, appendCostGuard))
	return nil
}

func (p *parser) parseRhs(ctx *ruleCtx) (its.Rhs, error) {
	if p.cur().kind == tIdent && isComWrapper(p.cur().text) {
		p.advance()
		if _, err := p.expect(tLParen, "'('"); err != nil {
			return its.Rhs{}, err
		}
		var branches []its.Branch
		for {
			b, err := p.parseTerm(ctx)
			if err != nil {
				return its.Rhs{}, err
			}
			branches = append(branches, b)
			if p.cur().kind == tComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tRParen, "')'"); err != nil {
			return its.Rhs{}, err
		}
		return its.BranchRhs(branches...), nil
	}

	b, err := p.parseTerm(ctx)
	if err != nil {
		return its.Rhs{}, err
	}
	return its.LinearRhs(b.Target, b.Update), nil
}

func isComWrapper(text string) bool {
	if !strings.HasPrefix(text, "Com_") {
		return false
	}
	_, err := strconv.Atoi(text[len("Com_"):])
	return err == nil
}

func (p *parser) parseTerm(ctx *ruleCtx) (its.Branch, error) {
	name, err := p.expect(tIdent, "a function symbol")
	if err != nil {
		return its.Branch{}, err
	}
	if _, err := p.expect(tLParen, "'('"); err != nil {
		return its.Branch{}, err
	}
	var args []alg.Expr
	if p.cur().kind != tRParen {
		for {
			e, err := p.parseExpr(ctx)
			if err != nil {
				return its.Branch{}, err
			}
			args = append(args, e)
			if p.cur().kind == tComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return its.Branch{}, err
	}

	li := p.getOrCreateLoc(name.text, len(args))
	if li.Arity != len(args) {
		return its.Branch{}, errAt(name.line, name.col, "%q used with inconsistent arity", name.text)
	}

	update := its.Update{}
	for i, v := range li.Params {
		update[v] = args[i]
	}
	return its.Branch{Target: li.Index, Update: update}, nil
}

func (p *parser) parseConj(ctx *ruleCtx) (its.Guard, error) {
	if p.cur().kind == tIdent && p.cur().text == "TRUE" {
		p.advance()
		return its.Guard{}, nil
	}

	var guard its.Guard
	for {
		a, err := p.parseAtom(ctx)
		if err != nil {
			return nil, err
		}
		guard = guard.Append(a)
		if p.cur().kind == tAnd {
			p.advance()
			continue
		}
		break
	}
	return guard, nil
}

func (p *parser) parseAtom(ctx *ruleCtx) (its.Atom, error) {
	lhs, err := p.parseExpr(ctx)
	if err != nil {
		return its.Atom{}, err
	}
	var rel its.Rel
	switch p.cur().kind {
	case tEq:
		rel = its.Eq
	case tLe:
		rel = its.Le
	case tLt:
		rel = its.Lt
	case tGe:
		rel = its.Ge
	case tGt:
		rel = its.Gt
	default:
		return its.Atom{}, errAt(p.cur().line, p.cur().col, "expected a relational operator, found %q", p.cur().text)
	}
	p.advance()
	rhs, err := p.parseExpr(ctx)
	if err != nil {
		return its.Atom{}, err
	}
	return its.Atom{Expr: alg.SubOf(lhs, rhs), Rel: rel}, nil
}

// parseExpr implements the dialect's arithmetic grammar: sums and
// differences of products of signed literals, variables and parenthesized
// subexpressions. There is no division operator in this grammar at all — the
// lexer already rejects a bare '/' as a parse error, spec.md §6.
func (p *parser) parseExpr(ctx *ruleCtx) (alg.Expr, error) {
	first, err := p.parseTermExpr(ctx)
	if err != nil {
		return nil, err
	}
	args := []alg.Expr{first}
	for p.cur().kind == tPlus || p.cur().kind == tMinus {
		neg := p.cur().kind == tMinus
		p.advance()
		next, err := p.parseTermExpr(ctx)
		if err != nil {
			return nil, err
		}
		if neg {
			next = alg.NegOf(next)
		}
		args = append(args, next)
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return alg.AddOf(args...), nil
}

func (p *parser) parseTermExpr(ctx *ruleCtx) (alg.Expr, error) {
	first, err := p.parseFactor(ctx)
	if err != nil {
		return nil, err
	}
	args := []alg.Expr{first}
	for p.cur().kind == tStar {
		p.advance()
		next, err := p.parseFactor(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, next)
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return alg.MulOf(args...), nil
}

func (p *parser) parseFactor(ctx *ruleCtx) (alg.Expr, error) {
	switch p.cur().kind {
	case tMinus:
		p.advance()
		inner, err := p.parseFactor(ctx)
		if err != nil {
			return nil, err
		}
		return alg.NegOf(inner), nil
	case tLParen:
		p.advance()
		e, err := p.parseExpr(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tNumber:
		tok := p.advance()
		return alg.NewConstBig(parseBigInt(tok.text)), nil
	case tIdent:
		tok := p.advance()
		return p.resolveVar(tok.text, ctx), nil
	default:
		return nil, errAt(p.cur().line, p.cur().col, "expected a number, variable or '(', found %q", p.cur().text)
	}
}

// resolveVar maps a raw identifier occurrence to a variable expression. A
// name already declared (via (VAR ...) or as some location's formal
// parameter) resolves to that global variable; any other name is a
// nondeterministic temporary, freshly minted the first time it is seen
// within this rule and reused for the rest of the same rule.
func (p *parser) resolveVar(raw string, ctx *ruleCtx) alg.Expr {
	esc := escapeName(raw)
	if idx, ok := ctx.temps[esc]; ok {
		return p.s.VarExpr(idx)
	}
	if v, ok := p.s.LookupVariable(esc); ok && !v.IsTemporary() {
		return p.s.VarExpr(v.Index)
	}
	v := p.s.FreshVariable(esc)
	ctx.temps[esc] = v.Index
	return p.s.VarExpr(v.Index)
}
