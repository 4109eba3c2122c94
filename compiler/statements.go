package compiler

import (
	"github.com/lumenlang/lumen/bytecode"
	"github.com/lumenlang/lumen/scanner"
)

func (p *parser) declaration() {
	switch {
	case p.match(scanner.Class):
		p.classDeclaration()
	case p.match(scanner.Fun):
		p.funDeclaration()
	case p.match(scanner.Var):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) classDeclaration() {
	p.consume(scanner.Identifier, "expected a class name")
	nameTok := p.previous
	nameConst := p.identifierConstant(nameTok.Lexeme)
	p.declareLocal(nameTok)

	p.emitIndexed(bytecode.OpClass, bytecode.OpClassLong, nameConst)
	p.defineVariable(nameConst)

	cc := &classCompiler{enclosing: p.cc}
	p.cc = cc

	if p.match(scanner.Less) {
		p.consume(scanner.Identifier, "expected a superclass name")
		p.namedVariable(p.previous, false)
		if p.previous.Lexeme == nameTok.Lexeme {
			p.error("a class cannot inherit from itself")
		}

		p.beginScope()
		p.addLocal(scanner.Token{Lexeme: "super"})
		p.markInitialized()

		p.namedVariable(nameTok, false)
		p.emitOp(bytecode.OpInherit)
		cc.hasSuperclass = true
	}

	p.namedVariable(nameTok, false)
	p.consume(scanner.LeftBrace, "expected '{' before class body")
	for !p.check(scanner.RightBrace) && !p.check(scanner.EOF) {
		p.method()
	}
	p.consume(scanner.RightBrace, "expected '}' after class body")
	p.emitOp(bytecode.OpPop) // pop the class

	if cc.hasSuperclass {
		p.endScope()
	}
	p.cc = cc.enclosing
}

func (p *parser) method() {
	p.consume(scanner.Identifier, "expected a method name")
	nameTok := p.previous
	nameConst := p.identifierConstant(nameTok.Lexeme)

	fnType := TypeMethod
	if nameTok.Lexeme == "init" {
		fnType = TypeInitializer
	}
	p.functionBody(fnType, nameTok.Lexeme)
	p.emitIndexed(bytecode.OpMethod, bytecode.OpMethodLong, nameConst)
}

func (p *parser) funDeclaration() {
	globalIdx := p.parseVariable("expected a function name")
	p.markInitialized()
	p.functionBody(TypeFunction, p.previous.Lexeme)
	p.defineVariable(globalIdx)
}

func (p *parser) functionBody(fnType FunctionType, name string) {
	p.beginFunction(fnType, name)
	p.beginScope()

	p.consume(scanner.LeftParen, "expected '(' after function name")
	if !p.check(scanner.RightParen) {
		for {
			p.fc.function.Arity++
			if p.fc.function.Arity > 255 {
				p.errorAtCurrent("a function cannot have more than 255 parameters")
			}
			paramIdx := p.parseVariable("expected a parameter name")
			p.defineVariable(paramIdx)
			if !p.match(scanner.Comma) {
				break
			}
		}
	}
	p.consume(scanner.RightParen, "expected ')' after parameters")
	p.consume(scanner.LeftBrace, "expected '{' before function body")
	p.block()

	fn, upvalues := p.endFunction()
	p.emitClosure(fn, upvalues)
}

// lambda parses an anonymous `fun (params) { body }` expression, used
// as a PRIMARY prefix parselet on the `fun` token when it appears in
// expression position rather than as a declaration.
func (p *parser) lambda(canAssign bool) {
	p.functionBody(TypeFunction, "")
}

// emitClosure writes OP_CLOSURE/OP_CLOSURE_LONG followed by one
// (isLocal, index) byte pair per upvalue the just-compiled function
// captures, describing where the surrounding function should find each
// one at closure-creation time.
func (p *parser) emitClosure(fn *bytecode.ObjFunction, upvalues []upvalueRef) {
	idx := p.chunk().AddConstant(bytecode.ObjVal(&fn.Obj))
	p.emitIndexed(bytecode.OpClosure, bytecode.OpClosureLong, idx)

	for _, u := range upvalues {
		if u.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(u.index)
	}
}

func (p *parser) varDeclaration() {
	globalIdx := p.parseVariable("expected a variable name")
	if p.match(scanner.Equal) {
		p.expression()
	} else {
		p.emitOp(bytecode.OpNil)
	}
	p.consume(scanner.Semicolon, "expected ';' after variable declaration")
	p.defineVariable(globalIdx)
}

func (p *parser) statement() {
	switch {
	case p.match(scanner.Print):
		p.printStatement()
	case p.match(scanner.If):
		p.ifStatement()
	case p.match(scanner.While):
		p.whileStatement()
	case p.match(scanner.For):
		p.forStatement()
	case p.match(scanner.Return):
		p.returnStatement()
	case p.match(scanner.Break):
		p.breakStatement()
	case p.match(scanner.Continue):
		p.continueStatement()
	case p.match(scanner.LeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(scanner.RightBrace) && !p.check(scanner.EOF) {
		p.declaration()
	}
	p.consume(scanner.RightBrace, "expected '}' after block")
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(scanner.Semicolon, "expected ';' after value")
	p.emitOp(bytecode.OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(scanner.Semicolon, "expected ';' after expression")
	p.emitOp(bytecode.OpPop)
}

func (p *parser) ifStatement() {
	p.consume(scanner.LeftParen, "expected '(' after 'if'")
	p.expression()
	p.consume(scanner.RightParen, "expected ')' after condition")

	thenJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitOp(bytecode.OpPop)
	p.statement()

	elseJump := p.emitJump(bytecode.OpJump)
	p.patchJump(thenJump)
	p.emitOp(bytecode.OpPop)

	if p.match(scanner.Else) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.pushLoop(loopStart)

	p.consume(scanner.LeftParen, "expected '(' after 'while'")
	p.expression()
	p.consume(scanner.RightParen, "expected ')' after condition")

	exitJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitOp(bytecode.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(bytecode.OpPop)
	p.popLoop()
}

func (p *parser) forStatement() {
	p.beginScope()
	p.consume(scanner.LeftParen, "expected '(' after 'for'")

	switch {
	case p.match(scanner.Semicolon):
		// no initializer
	case p.match(scanner.Var):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.check(scanner.Semicolon) {
		p.expression()
		p.consume(scanner.Semicolon, "expected ';' after loop condition")
		exitJump = p.emitJump(bytecode.OpJumpIfFalse)
		p.emitOp(bytecode.OpPop)
	} else {
		p.advance()
	}

	if !p.check(scanner.RightParen) {
		bodyJump := p.emitJump(bytecode.OpJump)
		incrementStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(bytecode.OpPop)
		p.consume(scanner.RightParen, "expected ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	} else {
		p.consume(scanner.RightParen, "expected ')' after for clauses")
	}

	p.pushLoop(loopStart)
	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(bytecode.OpPop)
	}
	p.popLoop()
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.fc.fnType == TypeScript {
		p.error("cannot return from top-level code")
	}
	if p.match(scanner.Semicolon) {
		p.emitReturn()
		return
	}
	if p.fc.fnType == TypeInitializer {
		p.error("cannot return a value from an initializer")
	}
	p.expression()
	p.consume(scanner.Semicolon, "expected ';' after return value")
	p.emitOp(bytecode.OpReturn)
}

func (p *parser) pushLoop(continueTarget int) {
	p.fc.loops = append(p.fc.loops, &loopState{continueTarget: continueTarget, scopeDepth: p.fc.scopeDepth})
}

func (p *parser) popLoop() {
	loop := p.fc.loops[len(p.fc.loops)-1]
	for _, j := range loop.breakJumps {
		p.patchJump(j)
	}
	p.fc.loops = p.fc.loops[:len(p.fc.loops)-1]
}

// discardLoopLocals emits the same per-local OP_POP/OP_CLOSE_UPVALUE
// sequence endScope would for every local declared deeper than the
// loop's own scope, without shrinking locals[]: break and continue jump
// past the block(s) that would normally do this, but the compile-time
// bookkeeping for those blocks' own eventual endScope still needs to see
// those locals.
func (p *parser) discardLoopLocals(loop *loopState) {
	locals := p.fc.locals
	for i := len(locals) - 1; i >= 0 && locals[i].depth > loop.scopeDepth; i-- {
		if locals[i].isCaptured {
			p.emitOp(bytecode.OpCloseUpvalue)
		} else {
			p.emitOp(bytecode.OpPop)
		}
	}
}

// breakStatement records a forward jump on the innermost loop's
// loopState, patched when that loop ends; a loop may contain any number
// of breaks. Nested loops each get their own loopState, and break always
// targets the innermost one (there is no labeled break).
func (p *parser) breakStatement() {
	if len(p.fc.loops) == 0 {
		p.error("cannot use 'break' outside of a loop")
		p.consume(scanner.Semicolon, "expected ';' after 'break'")
		return
	}
	p.consume(scanner.Semicolon, "expected ';' after 'break'")
	loop := p.fc.loops[len(p.fc.loops)-1]
	p.discardLoopLocals(loop)
	loop.breakJumps = append(loop.breakJumps, p.emitJump(bytecode.OpJump))
}

func (p *parser) continueStatement() {
	if len(p.fc.loops) == 0 {
		p.error("cannot use 'continue' outside of a loop")
		p.consume(scanner.Semicolon, "expected ';' after 'continue'")
		return
	}
	p.consume(scanner.Semicolon, "expected ';' after 'continue'")
	loop := p.fc.loops[len(p.fc.loops)-1]
	p.discardLoopLocals(loop)
	p.emitLoop(loop.continueTarget)
}
