package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lumenlang/lumen/bytecode"
)

func run(t *testing.T, source string) (stdout, stderr string, result InterpretResult) {
	t.Helper()
	var out, errw bytes.Buffer
	machine := New(bytecode.NewHeap(), &out, &errw, Options{})
	result = machine.Interpret(source)
	return out.String(), errw.String(), result
}

func TestArithmeticAndPrint(t *testing.T) {
	out, errw, res := run(t, `print 1 + 2 * 3;`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v, stderr: %s", res, errw)
	}
	if strings.TrimSpace(out) != "7" {
		t.Errorf("got %q, want 7", out)
	}
}

func TestStringConcatenation(t *testing.T) {
	out, _, res := run(t, `print "foo" + "bar";`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if strings.TrimSpace(out) != "foobar" {
		t.Errorf("got %q", out)
	}
}

func TestMixedTypeAddConcatenatesViaStringify(t *testing.T) {
	out, _, res := run(t, `print 1 + "x"; print "y" + 2;`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if got := strings.Fields(out); strings.Join(got, ",") != "1x,y2" {
		t.Errorf("got %v, want [1x y2]", got)
	}
}

func TestAddOnNonNumberNonStringIsRuntimeError(t *testing.T) {
	_, errw, res := run(t, `print nil + true;`)
	if res != InterpretRuntimeError {
		t.Fatalf("expected a runtime error, got %v", res)
	}
	if errw == "" {
		t.Error("expected a diagnostic message on stderr")
	}
}

func TestClosureCounter(t *testing.T) {
	out, _, res := run(t, `
		fun makeCounter() {
			var count = 0;
			fun inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if got := strings.Fields(out); strings.Join(got, ",") != "1,2,3" {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestClassesInheritanceAndSuper(t *testing.T) {
	out, errw, res := run(t, `
		class Animal {
			init(name) {
				this.name = name;
			}
			speak() {
				return this.name + " makes a sound";
			}
		}
		class Dog < Animal {
			speak() {
				return super.speak() + " (bark)";
			}
		}
		var d = Dog("Rex");
		print d.speak();
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v, stderr: %s", res, errw)
	}
	if strings.TrimSpace(out) != "Rex makes a sound (bark)" {
		t.Errorf("got %q", out)
	}
}

func TestBreakAndContinue(t *testing.T) {
	out, _, res := run(t, `
		var sum = 0;
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 5) break;
			if (i == 2) continue;
			sum = sum + i;
		}
		print sum;
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	// 0+1+3+4 = 8 (2 skipped, loop stops before adding 5)
	if strings.TrimSpace(out) != "8" {
		t.Errorf("got %q, want 8", out)
	}
}

func TestBreakDiscardsLoopBodyLocals(t *testing.T) {
	out, _, res := run(t, `
		fun f() {
			for (var i = 0; i < 10; i = i + 1) {
				var x = i;
				if (i == 3) break;
			}
			var y = 42;
			return y;
		}
		print f();
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if strings.TrimSpace(out) != "42" {
		t.Errorf("got %q, want 42", out)
	}
}

func TestContinueDiscardsLoopBodyLocals(t *testing.T) {
	out, _, res := run(t, `
		fun f() {
			var sum = 0;
			for (var i = 0; i < 5; i = i + 1) {
				var x = i * 2;
				if (i == 2) continue;
				sum = sum + x;
			}
			var y = 99;
			return sum + y * 1000;
		}
		print f();
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	// sum = 0+2+6+8 = 16 (i==2 -> x=4 skipped), y = 99
	if strings.TrimSpace(out) != "99016" {
		t.Errorf("got %q, want 99016", out)
	}
}

func TestArraysAndSubscript(t *testing.T) {
	out, _, res := run(t, `
		var xs = [10, 20, 30];
		xs[1] = 99;
		print xs[0];
		print xs[1];
		print size(xs);
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if got := strings.Fields(out); strings.Join(got, ",") != "10,99,3" {
		t.Errorf("got %v", got)
	}
}

func TestArrayPushPop(t *testing.T) {
	out, _, res := run(t, `
		var xs = [];
		arrayPush(xs, 1);
		arrayPush(xs, 2);
		print size(xs);
		print arrayPop(xs);
		print size(xs);
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if got := strings.Fields(out); strings.Join(got, ",") != "2,2,1" {
		t.Errorf("got %v", got)
	}
}

func TestAssertNative(t *testing.T) {
	_, errw, res := run(t, `assert(1 == 2, "one is not two");`)
	if res != InterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", res)
	}
	if !strings.Contains(errw, "one is not two") {
		t.Errorf("expected assert message in stderr, got %q", errw)
	}
}

func TestAssertPassesSilently(t *testing.T) {
	out, _, res := run(t, `assert(1 == 1, "unreachable"); print "ok";`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if strings.TrimSpace(out) != "ok" {
		t.Errorf("got %q", out)
	}
}

func TestGetHasSetNatives(t *testing.T) {
	out, _, res := run(t, `
		class Point {
			init(x, y) {
				this.x = x;
				this.y = y;
			}
		}
		var p = Point(1, 2);
		print has(p, "x");
		print has(p, "z");
		print get(p, "z");
		set(p, "z", 42);
		print get(p, "z");
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if got := strings.Fields(out); strings.Join(got, ",") != "true,false,nil,42" {
		t.Errorf("got %v", got)
	}
}

func TestRuntimeErrorLeavesVMReentrant(t *testing.T) {
	var out, errw bytes.Buffer
	machine := New(bytecode.NewHeap(), &out, &errw, Options{})

	res := machine.Interpret(`print nil + true;`)
	if res != InterpretRuntimeError {
		t.Fatalf("expected first call to runtime-error, got %v", res)
	}

	out.Reset()
	res = machine.Interpret(`print "still working";`)
	if res != InterpretOK {
		t.Fatalf("expected VM to recover for a later Interpret call, got %v", res)
	}
	if strings.TrimSpace(out.String()) != "still working" {
		t.Errorf("got %q", out.String())
	}
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	var out, errw bytes.Buffer
	machine := New(bytecode.NewHeap(), &out, &errw, Options{})

	if res := machine.Interpret(`var x = 41;`); res != InterpretOK {
		t.Fatalf("first Interpret failed: %v, %s", res, errw.String())
	}
	if res := machine.Interpret(`print x + 1;`); res != InterpretOK {
		t.Fatalf("second Interpret failed: %v, %s", res, errw.String())
	}
	if strings.TrimSpace(out.String()) != "42" {
		t.Errorf("got %q", out.String())
	}
}

func TestStressGCDoesNotCorruptExecution(t *testing.T) {
	var out, errw bytes.Buffer
	machine := New(bytecode.NewHeap(), &out, &errw, Options{StressGC: true})
	res := machine.Interpret(`
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v, stderr: %s", res, errw.String())
	}
	if strings.TrimSpace(out.String()) != "55" {
		t.Errorf("got %q, want 55", out.String())
	}
}

func TestUndefinedGlobalAssignmentIsRuntimeError(t *testing.T) {
	_, _, res := run(t, `undefinedVar = 1;`)
	if res != InterpretRuntimeError {
		t.Fatalf("expected runtime error assigning to an undeclared global, got %v", res)
	}
}

func TestOutOfBoundsSubscriptIsRuntimeError(t *testing.T) {
	_, _, res := run(t, `var xs = [1, 2]; print xs[5];`)
	if res != InterpretRuntimeError {
		t.Fatalf("expected runtime error on out-of-bounds subscript, got %v", res)
	}
}

func TestBitwiseOperators(t *testing.T) {
	out, _, res := run(t, `print (6 & 3) | (1 << 4);`)
	if res != InterpretOK {
		t.Fatalf("unexpected result %v", res)
	}
	if strings.TrimSpace(out) != "18" {
		t.Errorf("got %q, want 18", out)
	}
}
