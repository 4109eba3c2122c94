package compiler

import (
	"strconv"

	"github.com/lumenlang/lumen/bytecode"
	"github.com/lumenlang/lumen/scanner"
)

// precedence orders lumen's binary and postfix operators from loosest
// to tightest binding, the standard Pratt-parsing ladder.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precComparison
	precShift
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[scanner.TokenType]parseRule

func init() {
	rules = map[scanner.TokenType]parseRule{
		scanner.LeftParen:      {prefix: (*parser).grouping, infix: (*parser).call, precedence: precCall},
		scanner.LeftBracket:    {prefix: (*parser).arrayLiteral, infix: (*parser).subscript, precedence: precCall},
		scanner.Dot:            {infix: (*parser).dot, precedence: precCall},
		scanner.Minus:          {prefix: (*parser).unary, infix: (*parser).binary, precedence: precTerm},
		scanner.Plus:           {infix: (*parser).binary, precedence: precTerm},
		scanner.Slash:          {infix: (*parser).binary, precedence: precFactor},
		scanner.Star:           {infix: (*parser).binary, precedence: precFactor},
		scanner.Amp:            {infix: (*parser).binary, precedence: precBitAnd},
		scanner.Pipe:           {infix: (*parser).binary, precedence: precBitOr},
		scanner.Caret:          {infix: (*parser).binary, precedence: precBitXor},
		scanner.Tilde:          {prefix: (*parser).unary},
		scanner.LessLess:       {infix: (*parser).binary, precedence: precShift},
		scanner.GreaterGreater: {infix: (*parser).binary, precedence: precShift},
		scanner.Bang:           {prefix: (*parser).unary},
		scanner.BangEqual:      {infix: (*parser).binary, precedence: precEquality},
		scanner.EqualEqual:     {infix: (*parser).binary, precedence: precEquality},
		scanner.Greater:        {infix: (*parser).binary, precedence: precComparison},
		scanner.GreaterEqual:   {infix: (*parser).binary, precedence: precComparison},
		scanner.Less:           {infix: (*parser).binary, precedence: precComparison},
		scanner.LessEqual:      {infix: (*parser).binary, precedence: precComparison},
		scanner.Identifier:     {prefix: (*parser).variable},
		scanner.String:         {prefix: (*parser).stringLiteral},
		scanner.Number:         {prefix: (*parser).number},
		scanner.And:            {infix: (*parser).and_, precedence: precAnd},
		scanner.Or:             {infix: (*parser).or_, precedence: precOr},
		scanner.False:          {prefix: (*parser).literal},
		scanner.Nil:            {prefix: (*parser).literal},
		scanner.True:           {prefix: (*parser).literal},
		scanner.This:           {prefix: (*parser).this},
		scanner.Super:          {prefix: (*parser).super},
		scanner.Fun:            {prefix: (*parser).lambda},
	}
}

func getRule(t scanner.TokenType) parseRule { return rules[t] }

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := getRule(p.previous.Type).prefix
	if prefix == nil {
		p.error("expected an expression")
		return
	}
	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= getRule(p.current.Type).precedence {
		p.advance()
		infix := getRule(p.previous.Type).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(scanner.Equal) {
		p.error("invalid assignment target")
	}
}

func (p *parser) grouping(canAssign bool) {
	p.expression()
	p.consume(scanner.RightParen, "expected ')' after expression")
}

func (p *parser) number(canAssign bool) {
	n, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	if b := uint8(n); float64(b) == n {
		p.emitOp(bytecode.OpByteNum)
		p.emitByte(b)
		return
	}
	p.emitConstant(bytecode.NumberVal(n))
}

func (p *parser) stringLiteral(canAssign bool) {
	raw := p.previous.Lexeme
	s := p.heap.InternString(raw[1 : len(raw)-1])
	p.emitConstant(bytecode.ObjVal(&s.Obj))
}

func (p *parser) literal(canAssign bool) {
	switch p.previous.Type {
	case scanner.False:
		p.emitOp(bytecode.OpFalse)
	case scanner.Nil:
		p.emitOp(bytecode.OpNil)
	case scanner.True:
		p.emitOp(bytecode.OpTrue)
	}
}

func (p *parser) variable(canAssign bool) { p.namedVariable(p.previous, canAssign) }

func (p *parser) this(canAssign bool) {
	if p.cc == nil {
		p.error("cannot use 'this' outside of a class")
		return
	}
	p.namedVariable(scanner.Token{Lexeme: "this"}, false)
}

func (p *parser) super(canAssign bool) {
	if p.cc == nil {
		p.error("cannot use 'super' outside of a class")
	} else if !p.cc.hasSuperclass {
		p.error("cannot use 'super' in a class with no superclass")
	}
	p.consume(scanner.Dot, "expected '.' after 'super'")
	p.consume(scanner.Identifier, "expected a superclass method name")
	nameConst := p.identifierConstant(p.previous.Lexeme)

	p.namedVariable(scanner.Token{Lexeme: "this"}, false)
	if p.match(scanner.LeftParen) {
		argCount := p.argumentList()
		p.namedVariable(scanner.Token{Lexeme: "super"}, false)
		if nameConst <= 0xff {
			p.emitOp(bytecode.OpSuperInvoke)
			p.emitByte(byte(nameConst))
			p.emitByte(byte(argCount))
		} else {
			p.emitOp(bytecode.OpSuperInvokeLong)
			p.emitUint16(uint16(nameConst))
			p.emitByte(byte(argCount))
		}
		return
	}
	p.namedVariable(scanner.Token{Lexeme: "super"}, false)
	p.emitIndexed(bytecode.OpGetSuper, bytecode.OpGetSuperLong, nameConst)
}

func (p *parser) unary(canAssign bool) {
	opType := p.previous.Type
	p.parsePrecedence(precUnary)
	switch opType {
	case scanner.Minus:
		p.emitOp(bytecode.OpNegate)
	case scanner.Bang:
		p.emitOp(bytecode.OpNot)
	case scanner.Tilde:
		p.emitOp(bytecode.OpInvert)
	}
}

func (p *parser) binary(canAssign bool) {
	opType := p.previous.Type
	rule := getRule(opType)
	p.parsePrecedence(rule.precedence + 1)

	switch opType {
	case scanner.Plus:
		p.emitOp(bytecode.OpAdd)
	case scanner.Minus:
		p.emitOp(bytecode.OpSubtract)
	case scanner.Star:
		p.emitOp(bytecode.OpMultiply)
	case scanner.Slash:
		p.emitOp(bytecode.OpDivide)
	case scanner.Amp:
		p.emitOp(bytecode.OpBitAnd)
	case scanner.Pipe:
		p.emitOp(bytecode.OpBitOr)
	case scanner.Caret:
		p.emitOp(bytecode.OpBitXor)
	case scanner.LessLess:
		p.emitOp(bytecode.OpShiftLeft)
	case scanner.GreaterGreater:
		p.emitOp(bytecode.OpShiftRight)
	case scanner.BangEqual:
		p.emitOp(bytecode.OpNotEqual)
	case scanner.EqualEqual:
		p.emitOp(bytecode.OpEqual)
	case scanner.Greater:
		p.emitOp(bytecode.OpGreater)
	case scanner.GreaterEqual:
		p.emitOp(bytecode.OpGreaterEqual)
	case scanner.Less:
		p.emitOp(bytecode.OpLess)
	case scanner.LessEqual:
		p.emitOp(bytecode.OpLessEqual)
	}
}

func (p *parser) and_(canAssign bool) {
	endJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitOp(bytecode.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *parser) or_(canAssign bool) {
	endJump := p.emitJump(bytecode.OpJumpIfTrue)
	p.emitOp(bytecode.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitOp(bytecode.OpCall)
	p.emitByte(byte(argCount))
}

func (p *parser) argumentList() int {
	argCount := 0
	if !p.check(scanner.RightParen) {
		for {
			p.expression()
			if argCount == 255 {
				p.error("cannot pass more than 255 arguments to a call")
			}
			argCount++
			if !p.match(scanner.Comma) {
				break
			}
		}
	}
	p.consume(scanner.RightParen, "expected ')' after arguments")
	return argCount
}

func (p *parser) dot(canAssign bool) {
	p.consume(scanner.Identifier, "expected a property name after '.'")
	nameConst := p.identifierConstant(p.previous.Lexeme)

	switch {
	case canAssign && p.match(scanner.Equal):
		p.expression()
		p.emitIndexed(bytecode.OpSetProperty, bytecode.OpSetPropertyLong, nameConst)
	case p.match(scanner.LeftParen):
		argCount := p.argumentList()
		if nameConst <= 0xff {
			p.emitOp(bytecode.OpInvoke)
			p.emitByte(byte(nameConst))
			p.emitByte(byte(argCount))
		} else {
			p.emitOp(bytecode.OpInvokeLong)
			p.emitUint16(uint16(nameConst))
			p.emitByte(byte(argCount))
		}
	default:
		p.emitIndexed(bytecode.OpGetProperty, bytecode.OpGetPropertyLong, nameConst)
	}
}

func (p *parser) arrayLiteral(canAssign bool) {
	count := 0
	if !p.check(scanner.RightBracket) {
		for {
			p.expression()
			count++
			if !p.match(scanner.Comma) {
				break
			}
		}
	}
	p.consume(scanner.RightBracket, "expected ']' after array elements")
	p.emitOp(bytecode.OpNewArray)
	p.emitUint16(uint16(count))
}

func (p *parser) subscript(canAssign bool) {
	p.expression()
	p.consume(scanner.RightBracket, "expected ']' after index")

	if canAssign && p.match(scanner.Equal) {
		p.expression()
		p.emitOp(bytecode.OpSubscriptAssign)
		return
	}
	p.emitOp(bytecode.OpSubscript)
}
