// Command lumen is the minimal driver that makes the interpreter core
// runnable: no args starts a line-at-a-time REPL, one arg treats it as
// a source file to run. Its job stops at "exercise the core end to
// end"; REPL ergonomics and terminal I/O framing are out of scope.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/lumenlang/lumen/bytecode"
	"github.com/lumenlang/lumen/config"
	"github.com/lumenlang/lumen/vm"
)

const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitIOError)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lumen.toml:", err)
		os.Exit(exitIOError)
	}

	heap := bytecode.NewHeap()
	heap.SetInitialThreshold(cfg.GC.InitialThresholdMB << 20)

	machine := vm.New(heap, os.Stdout, os.Stderr, vm.Options{
		Trace:     cfg.VM.Trace,
		FramesMax: cfg.VM.FramesMax,
		StressGC:  cfg.GC.Stress,
		LogGC:     cfg.GC.Log,
	})

	switch len(os.Args) {
	case 1:
		runREPL(machine)
	case 2:
		os.Exit(runFile(machine, os.Args[1]))
	default:
		fmt.Fprintln(os.Stderr, "usage: lumen [script]")
		os.Exit(exitIOError)
	}
}

func runFile(machine *vm.VM, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOError
	}
	switch machine.Interpret(string(source)) {
	case vm.InterpretCompileError:
		return exitCompileError
	case vm.InterpretRuntimeError:
		return exitRuntimeError
	default:
		return exitOK
	}
}

func runREPL(machine *vm.VM) {
	scan := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scan.Scan() {
		machine.Interpret(scan.Text())
		fmt.Print("> ")
	}
}
