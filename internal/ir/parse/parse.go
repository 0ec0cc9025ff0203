// parse.go is the recursive-descent parser over the token stream
// produced by lexer.go. It builds one flat ir.Instruction slice per
// function and hands it to cfgbuild.Build, exactly the hand-off
// spec.md §3 describes between the textual parser and the CFG
// builder. Grammar (documented here since spec.md's own grammar is
// illustrative rather than a literal BNF; spec.md §6 says the textual
// form of each instruction "is its obvious infix rendering", which is
// what every case below parses):
//
//	program  := '(' '@entry' FUNCNAME function* ')'
//	function := '(' '@fn' FUNCNAME INT INT instr* ')'
//	            ;; name, parameter count, initial locals count
//	instr    := one of the spec.md §4.1 textual forms, e.g.
//	              value '<-' value
//	              value '<-' 'mem' memoperand
//	              'mem' memoperand '<-' value
//	              value '<-' 'stack-arg' INT
//	              value arithop value
//	              value shiftop value
//	              value arithop 'mem' memoperand
//	              'mem' memoperand arithop value
//	              value '<-' value cmpop value
//	              'cjump' value cmpop value ':' LABEL
//	              ':' LABEL
//	              'goto' ':' LABEL
//	              'return'
//	              [value '<-'] 'call' value ',' INT
//	              'print' | value '<-' 'input' | value '<-' 'allocate'
//	              'tuple-error' | 'tensor-error' INT
//	              value '++' | value '--'
//	              value '<-' 'lea' value ',' value ',' INT
package parse

import (
	"fmt"

	"rax/internal/cfgbuild"
	"rax/internal/ir"
)

// parser walks a flat token slice with one token of lookahead.
type parser struct {
	toks []token
	pos  int
}

// Parse reads a whole textual IR program (spec.md §6) and constructs
// an ir.Program, with every function's blocks and CFG built by
// cfgbuild.Build.
func Parse(src string) (ir.Program, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return ir.Program{}, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parse error at %s: %s", p.cur(), fmt.Sprintf(format, args...))
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.cur().kind != kind {
		return token{}, p.errorf("expected %s, got %s", what, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectFuncWord(word string) error {
	if p.cur().kind != tokFunc || p.cur().text != word {
		return p.errorf("expected @%s", word)
	}
	p.advance()
	return nil
}

// ParseSpillInput reads the "-s" spill-mode input of spec.md §6: a
// single bare function (no surrounding "@entry" form) followed by a
// variable to spill and a fresh-name prefix.
func ParseSpillInput(src string) (ir.Function, ir.Value, string, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return ir.Function{}, ir.Value{}, "", err
	}
	p := &parser{toks: toks}
	fn, err := p.parseFunction()
	if err != nil {
		return ir.Function{}, ir.Value{}, "", err
	}
	v, err := p.expect(tokVar, "variable to spill")
	if err != nil {
		return ir.Function{}, ir.Value{}, "", err
	}
	prefixTok := p.cur()
	var prefix string
	switch prefixTok.kind {
	case tokVar, tokWord:
		p.advance()
		prefix = prefixTok.text
	default:
		return ir.Function{}, ir.Value{}, "", p.errorf("expected a fresh-name prefix")
	}
	return fn, ir.Variable(v.text), prefix, nil
}

func (p *parser) parseProgram() (ir.Program, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return ir.Program{}, err
	}
	if err := p.expectFuncWord("entry"); err != nil {
		return ir.Program{}, err
	}
	entry, err := p.expect(tokFunc, "entry function name")
	if err != nil {
		return ir.Program{}, err
	}

	prog := ir.Program{Entry: entry.text}
	for p.cur().kind == tokLParen {
		fn, err := p.parseFunction()
		if err != nil {
			return ir.Program{}, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return ir.Program{}, err
	}
	return prog, nil
}

func (p *parser) parseFunction() (ir.Function, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return ir.Function{}, err
	}
	if err := p.expectFuncWord("fn"); err != nil {
		return ir.Function{}, err
	}
	name, err := p.expect(tokFunc, "function name")
	if err != nil {
		return ir.Function{}, err
	}
	nparamsTok, err := p.expect(tokInt, "parameter count")
	if err != nil {
		return ir.Function{}, err
	}
	localsTok, err := p.expect(tokInt, "locals count")
	if err != nil {
		return ir.Function{}, err
	}
	nparams := atoiMust(nparamsTok.text)
	locals := atoiMust(localsTok.text)

	var flat []ir.Instruction
	for p.cur().kind != tokRParen {
		instr, err := p.parseInstruction()
		if err != nil {
			return ir.Function{}, err
		}
		flat = append(flat, instr)
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return ir.Function{}, err
	}

	params := make([]ir.Value, nparams)
	for i1 := 0; i1 < nparams; i1++ {
		params[i1] = ir.Variable(fmt.Sprintf("arg%d", i1))
	}

	return cfgbuild.Build(name.text, nparams, params, locals, flat)
}

func atoiMust(s string) int {
	neg := false
	i1 := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i1 = 1
	}
	n := 0
	for ; i1 < len(s); i1++ {
		n = n*10 + int(s[i1]-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func atoi64Must(s string) int64 { return int64(atoiMust(s)) }

// parseValue parses a single operand: a register name, an immediate, a
// label, a function name or a variable.
func (p *parser) parseValue() (ir.Value, error) {
	t := p.cur()
	switch t.kind {
	case tokVar:
		p.advance()
		return ir.Variable(t.text), nil
	case tokLabel:
		p.advance()
		return ir.Label(t.text), nil
	case tokFunc:
		p.advance()
		return ir.FunctionName(t.text), nil
	case tokInt:
		p.advance()
		return ir.Immediate(atoi64Must(t.text)), nil
	case tokWord:
		if reg, ok := lookupRegister(t.text); ok {
			p.advance()
			return ir.Register(reg), nil
		}
		return ir.Value{}, p.errorf("expected an operand, got word %q", t.text)
	default:
		return ir.Value{}, p.errorf("expected an operand")
	}
}

func lookupRegister(name string) (ir.PhysicalRegister, bool) {
	for _, r := range ir.AllRegisters {
		if r.String() == name {
			return r, true
		}
	}
	return 0, false
}

// parseMemOperand parses "base" or "base+offset", per spec.md §6's
// "memory offset is a signed multiple of 8".
func (p *parser) parseMemOperand() (ir.Value, int64, error) {
	base, err := p.parseValue()
	if err != nil {
		return ir.Value{}, 0, err
	}
	if p.cur().kind != tokPlus {
		return base, 0, nil
	}
	p.advance()
	offTok, err := p.expect(tokInt, "offset")
	if err != nil {
		return ir.Value{}, 0, err
	}
	return base, atoi64Must(offTok.text), nil
}

func (p *parser) parseCompareOp() (ir.CompareOp, error) {
	switch p.cur().kind {
	case tokLt:
		p.advance()
		return ir.CompareLt, nil
	case tokLe:
		p.advance()
		return ir.CompareLe, nil
	case tokEq:
		p.advance()
		return ir.CompareEq, nil
	default:
		return 0, p.errorf("expected a comparison operator")
	}
}

// parseInstruction parses exactly one instruction, dispatching first
// on word keywords that begin a line (cjump, goto, return, mem, print,
// tuple-error, tensor-error, call) and otherwise on an operand followed
// by an arrow, arithmetic, shift or increment token, per spec.md §4.1
// (input and allocate only appear after "dst <-").
func (p *parser) parseInstruction() (ir.Instruction, error) {
	t := p.cur()

	if t.kind == tokLabel {
		p.advance()
		return ir.MakeLabel(t.text), nil
	}

	if t.kind == tokWord {
		switch t.text {
		case "goto":
			p.advance()
			lbl, err := p.expect(tokLabel, "label")
			if err != nil {
				return ir.Instruction{}, err
			}
			return ir.Goto(lbl.text), nil
		case "return":
			p.advance()
			return ir.Return(), nil
		case "print":
			p.advance()
			return ir.Print(), nil
		case "tuple-error":
			p.advance()
			return ir.TupleError(), nil
		case "tensor-error":
			p.advance()
			arityTok, err := p.expect(tokInt, "tensor-error arity")
			if err != nil {
				return ir.Instruction{}, err
			}
			arity := atoiMust(arityTok.text)
			if arity != 1 && arity != 3 && arity != 4 {
				return ir.Instruction{}, p.errorf("invalid tensor-error arity %d", arity)
			}
			return ir.TensorError(arity), nil
		case "cjump":
			p.advance()
			lhs, err := p.parseValue()
			if err != nil {
				return ir.Instruction{}, err
			}
			op, err := p.parseCompareOp()
			if err != nil {
				return ir.Instruction{}, err
			}
			rhs, err := p.parseValue()
			if err != nil {
				return ir.Instruction{}, err
			}
			lbl, err := p.expect(tokLabel, "target label")
			if err != nil {
				return ir.Instruction{}, err
			}
			return ir.CJump(op, lhs, rhs, lbl.text), nil
		case "call":
			p.advance()
			return p.parseCallTail(ir.Value{}, false)
		case "mem":
			p.advance()
			return p.parseMemLed()
		}
	}

	// Everything else begins with a value operand.
	dst, err := p.parseValue()
	if err != nil {
		return ir.Instruction{}, err
	}
	return p.parseValueLed(dst)
}

// parseMemLed parses the two "mem"-led forms: store and store-arith.
func (p *parser) parseMemLed() (ir.Instruction, error) {
	dst, offset, err := p.parseMemOperand()
	if err != nil {
		return ir.Instruction{}, err
	}
	if p.cur().kind == tokArrow {
		p.advance()
		src, err := p.parseValue()
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Store(dst, src, offset), nil
	}
	op, err := p.parseArithOp()
	if err != nil {
		return ir.Instruction{}, err
	}
	src, err := p.parseValue()
	if err != nil {
		return ir.Instruction{}, err
	}
	return ir.StoreArith(op, dst, src, offset), nil
}

func (p *parser) parseArithOp() (ir.ArithOp, error) {
	switch p.cur().kind {
	case tokPlusEq:
		p.advance()
		return ir.ArithAdd, nil
	case tokMinusEq:
		p.advance()
		return ir.ArithSub, nil
	case tokMulEq:
		p.advance()
		return ir.ArithMul, nil
	case tokAndEq:
		p.advance()
		return ir.ArithAnd, nil
	default:
		return 0, p.errorf("expected an arithmetic-assignment operator")
	}
}

// parseValueLed parses every instruction form whose first token has
// already been consumed as a leading operand dst.
func (p *parser) parseValueLed(dst ir.Value) (ir.Instruction, error) {
	switch p.cur().kind {
	case tokArrow:
		p.advance()
		return p.parseArrowTail(dst)
	case tokPlusEq, tokMinusEq, tokMulEq, tokAndEq:
		op, err := p.parseArithOp()
		if err != nil {
			return ir.Instruction{}, err
		}
		if isKeyword(p.cur(), "mem") {
			p.advance()
			src, offset, err := p.parseMemOperand()
			if err != nil {
				return ir.Instruction{}, err
			}
			return ir.LoadArith(op, dst, src, offset), nil
		}
		src, err := p.parseValue()
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Arith(op, dst, src), nil
	case tokShlEq:
		p.advance()
		src, err := p.parseValue()
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Shift(ir.ShiftLeft, dst, src), nil
	case tokShrEq:
		p.advance()
		src, err := p.parseValue()
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Shift(ir.ShiftRight, dst, src), nil
	case tokIncr:
		p.advance()
		return ir.Increment(dst), nil
	case tokDecr:
		p.advance()
		return ir.Decrement(dst), nil
	default:
		return ir.Instruction{}, p.errorf("expected an operator after operand")
	}
}

// parseArrowTail parses every "dst <- ..." form.
func (p *parser) parseArrowTail(dst ir.Value) (ir.Instruction, error) {
	t := p.cur()
	if t.kind == tokWord {
		switch t.text {
		case "mem":
			p.advance()
			src, offset, err := p.parseMemOperand()
			if err != nil {
				return ir.Instruction{}, err
			}
			return ir.Load(dst, src, offset), nil
		case "stack-arg":
			p.advance()
			offTok, err := p.expect(tokInt, "stack-arg offset")
			if err != nil {
				return ir.Instruction{}, err
			}
			return ir.StackArg(dst, atoi64Must(offTok.text)), nil
		case "call":
			p.advance()
			return p.parseCallTail(dst, true)
		case "input":
			p.advance()
			return ir.Input(dst), nil
		case "allocate":
			p.advance()
			return ir.Allocate(dst), nil
		case "lea":
			p.advance()
			base, err := p.parseValue()
			if err != nil {
				return ir.Instruction{}, err
			}
			if _, err := p.expect(tokComma, "','"); err != nil {
				return ir.Instruction{}, err
			}
			index, err := p.parseValue()
			if err != nil {
				return ir.Instruction{}, err
			}
			if _, err := p.expect(tokComma, "','"); err != nil {
				return ir.Instruction{}, err
			}
			scaleTok, err := p.expect(tokInt, "lea scale")
			if err != nil {
				return ir.Instruction{}, err
			}
			scale := atoi64Must(scaleTok.text)
			if scale != 1 && scale != 2 && scale != 4 && scale != 8 {
				return ir.Instruction{}, p.errorf("invalid lea scale %d", scale)
			}
			return ir.LEA(dst, base, index, scale), nil
		}
	}
	lhs, err := p.parseValue()
	if err != nil {
		return ir.Instruction{}, err
	}
	switch p.cur().kind {
	case tokLt, tokLe, tokEq:
		op, err := p.parseCompareOp()
		if err != nil {
			return ir.Instruction{}, err
		}
		rhs, err := p.parseValue()
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Compare(op, dst, lhs, rhs), nil
	default:
		return ir.Assign(dst, lhs), nil
	}
}

// parseCallTail parses "callee, nargs" after either "call" (no result)
// or "dst <- call" (with result) has already been consumed.
func (p *parser) parseCallTail(dst ir.Value, hasResult bool) (ir.Instruction, error) {
	callee, err := p.parseValue()
	if err != nil {
		return ir.Instruction{}, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return ir.Instruction{}, err
	}
	nargsTok, err := p.expect(tokInt, "argument count")
	if err != nil {
		return ir.Instruction{}, err
	}
	return ir.Call(dst, hasResult, callee, atoi64Must(nargsTok.text)), nil
}
