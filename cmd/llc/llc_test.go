package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runLLC resets the package-level flag state (doMain parses against
// flag.CommandLine directly, matching main()'s own invocation) and
// runs one llc invocation with the given positional/flag args.
func runLLC(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet("llc", flag.ContinueOnError)

	oldArgs := os.Args
	os.Args = append([]string{"llc"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })

	var stdOut, stdErr bytes.Buffer
	code := doMain(&stdOut, &stdErr)
	return code, stdOut.String(), stdErr.String()
}

func TestCompileSimpleReturn(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "main.ll")
	require.NoError(t, os.WriteFile(in, []byte("define i32 @main() { ret i32 42 }"), 0o644))

	code, stdOut, stdErr := runLLC(t, []string{"-o", "-", in})
	require.Equal(t, 0, code, stdErr)
	require.Contains(t, stdOut, "mov eax, 42")
	require.Contains(t, stdOut, "ret")
}

func TestCompileWritesDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "main.ll")
	require.NoError(t, os.WriteFile(in, []byte("define i32 @main() { ret i32 42 }"), 0o644))

	code, _, stdErr := runLLC(t, []string{in})
	require.Equal(t, 0, code, stdErr)

	out, err := os.ReadFile(filepath.Join(dir, "main.s"))
	require.NoError(t, err)
	require.Contains(t, string(out), "mov eax, 42")
	require.Contains(t, string(out), "ret")
}

func TestCompileMissingFileReturnsNonZero(t *testing.T) {
	code, _, stdErr := runLLC(t, []string{"/nonexistent/path.ll"})
	require.NotEqual(t, 0, code)
	require.Contains(t, stdErr, "llc:")
}

func TestCompileParseErrorReturnsNonZero(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.ll")
	require.NoError(t, os.WriteFile(in, []byte("this is not valid ir"), 0o644))

	code, _, stdErr := runLLC(t, []string{in})
	require.NotEqual(t, 0, code)
	require.NotEmpty(t, stdErr)
}

func TestDefaultOutputPathSuffix(t *testing.T) {
	require.Equal(t, "/a/b/main.s", defaultOutputPath("/a/b/main.ll"))
	require.Equal(t, "/a/b/main.txt.s", defaultOutputPath("/a/b/main.txt"))
}

func TestNoArgsPrintsUsage(t *testing.T) {
	code, _, stdErr := runLLC(t, nil)
	require.Equal(t, 0, code)
	require.Contains(t, stdErr, "usage:")
}

// TestCompileAddLocal covers spec.md §8 scenario B: an alloca'd local
// threaded through a store/load and fed into two adds. It checks the
// one-slot, 16-byte frame (push rbp / sub rsp, 16 / add rsp, 16 /
// pop rbp / ret) and the store of 2 into the slot at [rbp-4].
func TestCompileAddLocal(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "addlocal.ll")
	src := `define i32 @main() { %a = alloca i32, align 4
                     store i32 2, i32* %a
                     %b = load i32, i32* %a
                     %c = add i32 %b, 1
                     %d = add i32 %b, 2
                     %e = add i32 %c, %d
                     ret i32 %e }`
	require.NoError(t, os.WriteFile(in, []byte(src), 0o644))

	code, stdOut, stdErr := runLLC(t, []string{"-o", "-", in})
	require.Equal(t, 0, code, stdErr)
	require.Contains(t, stdOut, "push rbp")
	require.Contains(t, stdOut, "sub rsp, 16")
	require.Contains(t, stdOut, "mov dword ptr [rbp-4], 2")
	require.Contains(t, stdOut, "add rsp, 16")
	require.Contains(t, stdOut, "pop rbp")
	require.Contains(t, stdOut, "ret")
}

// TestCompileConditionalBranch covers spec.md §8 scenario C: a
// two-block icmp slt + br i1 must lower to a CMP/Jcc pair with a
// fallthrough JMP and labeled blocks, and a join block merging the
// two arms via phi must come out with no Phi surviving (spec.md §8
// invariant 9, φ-elimination soundness).
func TestCompileConditionalBranch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cond.ll")
	src := `define i32 @main(i32 %n) {
entry:
  %c = icmp slt i32 %n, 2
  br i1 %c, label %small, label %big
small:
  br label %join
big:
  br label %join
join:
  %r = phi i32 [0, %small], [1, %big]
  ret i32 %r
}`
	require.NoError(t, os.WriteFile(in, []byte(src), 0o644))

	code, stdOut, stdErr := runLLC(t, []string{"-o", "-", in})
	require.Equal(t, 0, code, stdErr)
	require.Contains(t, stdOut, "cmp ")
	require.Contains(t, stdOut, "jl ")
	require.Contains(t, stdOut, "jmp ")
	require.Contains(t, stdOut, ".LBL")
	require.NotContains(t, stdOut, "phi")
}

// TestCompileCallWithSpill covers spec.md §8 scenario D directly
// against the full pipeline: a value computed before a call and used
// after it must survive the call, which this allocator only
// guarantees by spilling every call-crossing vreg before the main
// scan (spec.md §4.3 step 2). A regression here would mean a
// caller-saved register silently clobbered across @side's call.
func TestCompileCallWithSpill(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "callspill.ll")
	src := `declare i32 @side(i32)
define i32 @main(i32 %n) {
  %kept = add i32 %n, 1
  %ignored = call i32 @side(i32 %n)
  %r = add i32 %kept, %ignored
  ret i32 %r
}`
	require.NoError(t, os.WriteFile(in, []byte(src), 0o644))

	code, stdOut, stdErr := runLLC(t, []string{"-o", "-", in})
	require.Equal(t, 0, code, stdErr)
	require.Contains(t, stdOut, "call side")

	lines := strings.Split(stdOut, "\n")
	callLine := -1
	for i, l := range lines {
		if strings.Contains(l, "call side") {
			callLine = i
			break
		}
	}
	require.NotEqual(t, -1, callLine, "expected a call to side in the output")

	before := strings.Join(lines[:callLine], "\n")
	after := strings.Join(lines[callLine+1:], "\n")
	require.Contains(t, before, "[rbp-", "expected %%kept spilled to the stack before the call:\n%s", stdOut)
	require.Contains(t, after, "[rbp-", "expected %%kept reloaded from the stack after the call:\n%s", stdOut)
}

// TestCompileRecursiveFibonacci covers spec.md §8 scenario E: a
// recursive function with two call sites per activation, the second
// of which keeps the first call's result live across it — the same
// call-crossing-spill path scenario D exercises, but arising
// naturally from recursion rather than being hand-built.
func TestCompileRecursiveFibonacci(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "fib.ll")
	src := `define i32 @fib(i32 %n) {
entry:
  %base = icmp slt i32 %n, 2
  br i1 %base, label %leaf, label %rec
leaf:
  ret i32 %n
rec:
  %n1 = sub i32 %n, 1
  %r1 = call i32 @fib(i32 %n1)
  %n2 = sub i32 %n, 2
  %r2 = call i32 @fib(i32 %n2)
  %s = add i32 %r1, %r2
  ret i32 %s
}`
	require.NoError(t, os.WriteFile(in, []byte(src), 0o644))

	code, stdOut, stdErr := runLLC(t, []string{"-o", "-", in})
	require.Equal(t, 0, code, stdErr)
	require.Equal(t, 2, strings.Count(stdOut, "call fib"))
	require.Contains(t, stdOut, "cmp ")
	require.Contains(t, stdOut, "jl ")
}
