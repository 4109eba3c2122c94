// Package compiler implements lumen's single-pass compiler: source text
// goes in, a top-level *bytecode.ObjFunction comes out, with no
// intermediate AST. It is a Pratt parser in the same tradition as this
// codebase's own recursive-descent parser.go, but where that parser
// builds a tree for a later pass to walk, this one emits bytecode
// directly as it recognizes each construct, following the "single-pass
// compiler" component this codebase's own pkg/bytecode/compiler.go uses
// for its emit/patch helper names (emit, emitByte, emitJump, patchJump,
// emitLoop) even though that compiler works from an AST and this one
// does not.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/lumenlang/lumen/bytecode"
	"github.com/lumenlang/lumen/scanner"
)

// FunctionType distinguishes the four contexts a nested compiler can be
// created for, since each has slightly different rules around implicit
// return values and what slot 0 of the local array means.
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeMethod
	TypeInitializer
	TypeScript
)

const maxLocals = 256
const maxUpvalues = 256

type local struct {
	name       scanner.Token
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// loopState tracks the two jump targets a loop body needs: where a
// `continue` should jump to (the loop's re-test, which for a `for` loop
// is its increment clause) and the list of `break` jump placeholders to
// patch once the loop's end address is known. scopeDepth is the scope
// depth the loop itself was opened at; break/continue jump out of any
// nested block scopes the body pushed, so they must discard those
// blocks' locals themselves instead of relying on those blocks' own
// endScope, which the jump skips over.
type loopState struct {
	continueTarget int
	breakJumps     []int
	scopeDepth     int
}

// classCompiler tracks nested class declarations, since `super` is only
// valid inside a subclass's methods.
type classCompiler struct {
	enclosing      *classCompiler
	hasSuperclass  bool
}

// fnCompiler holds the compile-time state for one function body: its
// resolved locals and upvalues, the loop stack for break/continue, and
// the function object bytecode is being emitted into. Nesting mirrors
// lexical function nesting via enclosing.
type fnCompiler struct {
	enclosing *fnCompiler
	function  *bytecode.ObjFunction
	fnType    FunctionType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
	loops      []*loopState

	// strings dedups identifier-name constants (variable, property, method
	// and class names) within this function body only; string literals
	// are not deduplicated. It is
	// keyed by interned identity; it is not observable from lumen source,
	// just compiler bookkeeping, so a plain Go map is the idiomatic
	// realization rather than a further Value tag.
	strings map[*bytecode.ObjString]int
}

// MarkRoots marks this function compiler's in-progress function object
// and every string constant it has interned so far, plus everything the
// same for its enclosing compilers, so a GC triggered by string
// interning mid-compile never reclaims an object only the compiler
// still points at.
func (c *fnCompiler) MarkRoots(h *bytecode.Heap) {
	for fc := c; fc != nil; fc = fc.enclosing {
		h.MarkObject(&fc.function.Obj)
		for s := range fc.strings {
			h.MarkObject(&s.Obj)
		}
	}
}

// parser is the shared, single instance of compile-time state threaded
// through every parse/statement/expression function, playing the role
// this codebase's parser.go gives its Parser struct.
type parser struct {
	scan *scanner.Scanner

	current  scanner.Token
	previous scanner.Token

	hadError  bool
	panicMode bool
	errw      io.Writer

	heap *bytecode.Heap
	fc   *fnCompiler
	cc   *classCompiler
}

// Compile compiles source into a top-level script function, allocating
// through h. It returns (function, true) on success; on a compile error
// it reports every syntax error it can recover from to errw and returns
// (nil, false).
func Compile(source string, h *bytecode.Heap, errw io.Writer) (*bytecode.ObjFunction, bool) {
	p := &parser{scan: scanner.New(source), heap: h, errw: errw}
	p.beginFunction(TypeScript, "")

	p.advance()
	for !p.match(scanner.EOF) {
		p.declaration()
	}
	fn, _ := p.endFunction()

	if p.hadError {
		return nil, false
	}
	return fn, true
}

func (p *parser) chunk() *bytecode.Chunk { return &p.fc.function.Chunk }

func (p *parser) beginFunction(fnType FunctionType, name string) {
	fc := &fnCompiler{
		enclosing: p.fc,
		function:  p.heap.NewFunction(),
		fnType:    fnType,
		strings:   make(map[*bytecode.ObjString]int),
	}
	// Register as a root before interning the name: that allocation can
	// collect, and the new function is reachable only through fc.
	p.fc = fc
	p.heap.AddRoot(fc)
	if name != "" {
		fc.function.Name = p.heap.InternString(name)
	}
	// Slot 0 is reserved: `this` for methods/initializers, unnamed
	// (inaccessible from source) otherwise, matching how a bare function
	// call never lets you name its own call slot.
	reserved := local{depth: 0, isCaptured: false}
	if fnType == TypeMethod || fnType == TypeInitializer {
		reserved.name = scanner.Token{Lexeme: "this"}
	}
	fc.locals = append(fc.locals, reserved)
}

func (p *parser) endFunction() (*bytecode.ObjFunction, []upvalueRef) {
	p.emitReturn()
	fn := p.fc.function
	fn.UpvalueCount = len(p.fc.upvalues)
	upvalues := p.fc.upvalues

	p.heap.RemoveRoot(p.fc)
	p.fc = p.fc.enclosing
	return fn, upvalues
}

// -- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scan.NextToken()
		if p.current.Type != scanner.Error {
			return
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(t scanner.TokenType) bool { return p.current.Type == t }

func (p *parser) match(t scanner.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t scanner.TokenType, msg string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

// -- error reporting ----------------------------------------------------

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(tok scanner.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := ""
	switch tok.Type {
	case scanner.EOF:
		where = " at end"
	case scanner.Error:
		// lexical error, message already describes it
	default:
		where = " at '" + tok.Lexeme + "'"
	}
	fmt.Fprintf(p.errw, "[line %d] Error%s: %s\n", tok.Line, where, msg)
}

// synchronize discards tokens until it reaches a statement boundary,
// recovering from a parse error so the compiler can keep looking for
// further errors in one pass instead of stopping at the first one.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Type != scanner.EOF {
		if p.previous.Type == scanner.Semicolon {
			return
		}
		switch p.current.Type {
		case scanner.Class, scanner.Fun, scanner.Var, scanner.For,
			scanner.If, scanner.While, scanner.Print, scanner.Return:
			return
		}
		p.advance()
	}
}

// -- byte emission ------------------------------------------------------

func (p *parser) emitByte(b byte) { p.chunk().Write(b, p.previous.Line) }

func (p *parser) emitOp(op bytecode.Opcode) { p.chunk().WriteOpcode(op, p.previous.Line) }

func (p *parser) emitOpByte(op bytecode.Opcode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *parser) emitUint16(v uint16) { p.chunk().WriteUint16(v, p.previous.Line) }

func (p *parser) emitReturn() {
	if p.fc.fnType == TypeInitializer {
		p.emitOp(bytecode.OpGetLocal)
		p.emitByte(0) // return `this`
		p.emitOp(bytecode.OpReturn)
		return
	}
	p.emitOp(bytecode.OpReturnNil)
}

func (p *parser) emitConstant(v bytecode.Value) {
	p.chunk().EmitConstant(v, p.previous.Line)
}

// emitIndexed writes shortOp+8-bit-idx or longOp+16-bit-idx, whichever
// fits, the pattern every *_LONG opcode pair shares.
func (p *parser) emitIndexed(shortOp, longOp bytecode.Opcode, idx int) {
	if idx <= 0xff {
		p.emitOpByte(shortOp, byte(idx))
		return
	}
	p.emitOp(longOp)
	p.emitUint16(uint16(idx))
}

func (p *parser) emitJump(op bytecode.Opcode) int { return p.chunk().EmitJump(op, p.previous.Line) }

func (p *parser) patchJump(offset int) { p.chunk().PatchJump(offset) }

func (p *parser) emitLoop(loopStart int) { p.chunk().EmitLoop(loopStart, p.previous.Line) }

// identifierConstant interns name and returns its index in the current
// function's constant pool, deduplicated against constants already
// emitted for identical identifiers within this function body.
func (p *parser) identifierConstant(name string) int {
	s := p.heap.InternString(name)
	if idx, ok := p.fc.strings[s]; ok {
		return idx
	}
	idx := p.chunk().AddConstant(bytecode.ObjVal(&s.Obj))
	p.fc.strings[s] = idx
	return idx
}

// -- scopes and locals ---------------------------------------------------

func (p *parser) beginScope() { p.fc.scopeDepth++ }

func (p *parser) endScope() {
	p.fc.scopeDepth--
	locals := p.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.fc.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(bytecode.OpCloseUpvalue)
		} else {
			p.emitOp(bytecode.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.fc.locals = locals
}

func (p *parser) declareLocal(name scanner.Token) {
	if p.fc.scopeDepth == 0 {
		return
	}
	for i := len(p.fc.locals) - 1; i >= 0; i-- {
		l := p.fc.locals[i]
		if l.depth != -1 && l.depth < p.fc.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			p.error("a variable with this name already exists in this scope")
		}
	}
	p.addLocal(name)
}

func (p *parser) addLocal(name scanner.Token) {
	if len(p.fc.locals) >= maxLocals {
		p.error("too many local variables in one function")
		return
	}
	p.fc.locals = append(p.fc.locals, local{name: name, depth: -1})
}

func (p *parser) markInitialized() {
	if p.fc.scopeDepth == 0 {
		return
	}
	p.fc.locals[len(p.fc.locals)-1].depth = p.fc.scopeDepth
}

func (p *parser) resolveLocal(fc *fnCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name.Lexeme == name {
			if fc.locals[i].depth == -1 {
				p.error("cannot read a local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

func (p *parser) resolveUpvalue(fc *fnCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if idx := p.resolveLocal(fc.enclosing, name); idx != -1 {
		fc.enclosing.locals[idx].isCaptured = true
		return p.addUpvalue(fc, uint8(idx), true)
	}
	if idx := p.resolveUpvalue(fc.enclosing, name); idx != -1 {
		return p.addUpvalue(fc, uint8(idx), false)
	}
	return -1
}

func (p *parser) addUpvalue(fc *fnCompiler, index uint8, isLocal bool) int {
	for i, u := range fc.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		p.error("too many closure variables in one function")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}

// -- variable declaration and access -------------------------------------

func (p *parser) parseVariable(errMsg string) int {
	p.consume(scanner.Identifier, errMsg)
	p.declareLocal(p.previous)
	if p.fc.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous.Lexeme)
}

func (p *parser) defineVariable(globalIdx int) {
	if p.fc.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitIndexed(bytecode.OpDefineGlobal, bytecode.OpDefineGlobalLong, globalIdx)
}

func (p *parser) namedVariable(name scanner.Token, canAssign bool) {
	var getOp, getLongOp, setOp, setLongOp bytecode.Opcode
	var arg int

	if idx := p.resolveLocal(p.fc, name.Lexeme); idx != -1 {
		arg = idx
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
		getLongOp, setLongOp = getOp, setOp
	} else if idx := p.resolveUpvalue(p.fc, name.Lexeme); idx != -1 {
		arg = idx
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
		getLongOp, setLongOp = getOp, setOp
	} else {
		arg = p.identifierConstant(name.Lexeme)
		getOp, getLongOp = bytecode.OpGetGlobal, bytecode.OpGetGlobalLong
		setOp, setLongOp = bytecode.OpSetGlobal, bytecode.OpSetGlobalLong
	}

	if canAssign && p.match(scanner.Equal) {
		p.expression()
		p.emitIndexed(setOp, setLongOp, arg)
	} else {
		p.emitIndexed(getOp, getLongOp, arg)
	}
}

// -- numbers ------------------------------------------------------------

func parseNumberLiteral(lexeme string) float64 {
	n, _ := strconv.ParseFloat(lexeme, 64)
	return n
}
