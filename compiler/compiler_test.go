package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lumenlang/lumen/bytecode"
)

func compileOK(t *testing.T, source string) *bytecode.ObjFunction {
	t.Helper()
	h := bytecode.NewHeap()
	var errs bytes.Buffer
	fn, ok := Compile(source, h, &errs)
	if !ok {
		t.Fatalf("Compile(%q) failed:\n%s", source, errs.String())
	}
	return fn
}

func TestCompileSimpleProgram(t *testing.T) {
	fn := compileOK(t, `
		var greeting = "hello";
		print greeting;
	`)
	if fn.Arity != 0 {
		t.Errorf("top-level script Arity = %d, want 0", fn.Arity)
	}
	if len(fn.Chunk.Code) == 0 {
		t.Error("expected some bytecode to be emitted")
	}
}

func TestCompileFunctionsClassesControlFlow(t *testing.T) {
	compileOK(t, `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				return "hi " + this.name;
			}
		}

		class LoudGreeter < Greeter {
			greet() {
				return super.greet() + "!";
			}
		}

		fun makeCounter() {
			var count = 0;
			fun inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}

		var g = LoudGreeter("world");
		print g.greet();

		var counter = makeCounter();
		var total = 0;
		var i = 0;
		while (i < 3) {
			total = total + counter();
			i = i + 1;
		}

		for (var j = 0; j < 5; j = j + 1) {
			if (j == 2) continue;
			if (j == 4) break;
			print j;
		}

		var xs = [1, 2, 3];
		print xs[0];
	`)
}

func TestCompileReportsSyntaxErrors(t *testing.T) {
	h := bytecode.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("var ;", h, &errs)
	if ok {
		t.Fatal("expected compile failure for malformed var declaration")
	}
	if !strings.Contains(errs.String(), "Error") {
		t.Errorf("expected an error message, got %q", errs.String())
	}
}

func TestCompileRecoversAndReportsMultipleErrors(t *testing.T) {
	h := bytecode.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("var ; var ; var ;", h, &errs)
	if ok {
		t.Fatal("expected failure")
	}
	if n := strings.Count(errs.String(), "Error"); n < 2 {
		t.Errorf("expected panic-mode recovery to surface multiple errors, got %d: %s", n, errs.String())
	}
}

func TestCompileBreakOutsideLoopIsAnError(t *testing.T) {
	h := bytecode.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("break;", h, &errs)
	if ok {
		t.Fatal("expected `break` outside a loop to fail to compile")
	}
}

func TestCompileDuplicateLocalIsAnError(t *testing.T) {
	h := bytecode.NewHeap()
	var errs bytes.Buffer
	_, ok := Compile("{ var x = 1; var x = 2; }", h, &errs)
	if ok {
		t.Fatal("expected redeclaring a local in the same scope to fail")
	}
}
