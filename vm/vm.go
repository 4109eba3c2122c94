// Package vm implements lumen's stack-based virtual machine: call
// frames, closures and upvalues, method dispatch, and the opcode
// dispatch loop that walks a compiled bytecode.Chunk one instruction at
// a time. Execution is single-threaded and non-reentrant -- a VM value
// is only ever driven by one goroutine, and Interpret must not be
// called again on the same VM while an earlier call is still running.
package vm

import (
	"fmt"
	"io"

	"github.com/lumenlang/lumen/bytecode"
	"github.com/lumenlang/lumen/compiler"
)

// InterpretResult classifies how Interpret finished, mirroring the exit
// codes the CLI driver reports (0/65/70).
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// Options configures a VM at construction time; a zero Options is a
// valid, fully-default configuration.
type Options struct {
	Trace     bool // print each instruction before executing it
	FramesMax int  // defaults to 256 if zero
	StressGC  bool // collect before every allocation
	LogGC     bool // print collection stats
}

const defaultFramesMax = 256
const stackSlotsPerFrame = 256 // matches the compiler's maxLocals

type callFrame struct {
	closure   *bytecode.ObjClosure
	ip        int
	slotsBase int
}

// VM is one instance of lumen's runtime: its value stack, call frames,
// globals table, open-upvalue list, and the Heap it allocates through.
type VM struct {
	heap *bytecode.Heap

	stack    []bytecode.Value
	frames   []callFrame
	globals  bytecode.Table
	openUpv  *bytecode.ObjUpvalue
	initName *bytecode.ObjString

	out  io.Writer
	errw io.Writer

	trace     bool
	framesMax int
}

// New constructs a VM backed by h, writing PRINT output to out and
// diagnostics/backtraces to errw.
func New(h *bytecode.Heap, out, errw io.Writer, opts Options) *VM {
	framesMax := opts.FramesMax
	if framesMax == 0 {
		framesMax = defaultFramesMax
	}
	h.StressGC = opts.StressGC
	h.LogGC = opts.LogGC
	if h.Log == nil {
		h.Log = func(format string, args ...any) { fmt.Fprintf(errw, format+"\n", args...) }
	}

	vm := &VM{
		heap:      h,
		out:       out,
		errw:      errw,
		trace:     opts.Trace,
		framesMax: framesMax,
	}
	vm.stack = make([]bytecode.Value, 0, framesMax*stackSlotsPerFrame)
	vm.initName = h.InternString("init")
	h.AddRoot(vm)
	registerNatives(vm)
	return vm
}

// MarkRoots implements bytecode.RootMarker: the value stack, every
// active frame's closure, the open-upvalue chain and the globals table
// are all live for as long as this VM is running.
func (vm *VM) MarkRoots(h *bytecode.Heap) {
	for _, v := range vm.stack {
		h.MarkValue(v)
	}
	for _, f := range vm.frames {
		h.MarkObject(&f.closure.Obj)
	}
	for u := vm.openUpv; u != nil; u = u.NextOpen {
		h.MarkObject(&u.Obj)
	}
	h.MarkTable(&vm.globals)
	if vm.initName != nil {
		h.MarkObject(&vm.initName.Obj)
	}
}

// Interpret compiles and runs source against this VM. Globals defined
// by a previous call remain visible to later calls: the VM's resources
// (stack, globals, frames) are scoped to the VM value, not to a single
// Interpret call, so a runtime error in one call leaves the VM ready to
// run another program.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, ok := compiler.Compile(source, vm.heap, vm.errw)
	if !ok {
		return InterpretCompileError
	}

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpv = nil

	// fn must be rooted on the stack before NewClosure allocates, or a
	// collection triggered by that allocation could sweep it.
	vm.push(bytecode.ObjVal(&fn.Obj))
	closure := vm.heap.NewClosure(fn)
	vm.pop()
	vm.push(bytecode.ObjVal(&closure.Obj))
	vm.callClosure(closure, 0)

	return vm.run()
}

func (vm *VM) push(v bytecode.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() bytecode.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) frame() *callFrame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) runtimeError(format string, args ...any) {
	fmt.Fprintf(vm.errw, format+"\n", args...)
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[f.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		fmt.Fprintf(vm.errw, "[line %d] in %s\n", line, name)
	}
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpv = nil
}
