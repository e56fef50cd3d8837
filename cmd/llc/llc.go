// Command llc reads a textual IR file and writes its lowered x86-64
// assembly to the file named with the -o flag (default: the input path
// with .ll replaced by .s), or to stdout when -o is "-".
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocc/llc/internal/ir/parse"
	"github.com/gocc/llc/internal/machine/amd64"
	"github.com/gocc/llc/internal/machine/lower"
	"github.com/gocc/llc/internal/machine/passes"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stdErr, "llc: internal error: %v\n", r)
			code = 2
		}
	}()

	flag.CommandLine.SetOutput(stdErr)

	var out string
	flag.StringVar(&out, "o", "", "output path (default: input path with .ll replaced by .s)")
	var help bool
	flag.BoolVar(&help, "h", false, "prints usage")
	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(stdErr, "llc: expected exactly one input file")
		printUsage(stdErr)
		return 1
	}

	in := flag.Arg(0)
	if out == "" {
		out = defaultOutputPath(in)
	}

	src, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stdErr, "llc: %v\n", err)
		return 1
	}

	asm, err := compile(string(src))
	if err != nil {
		fmt.Fprintf(stdErr, "llc: %v\n", err)
		return 1
	}

	if out == "-" {
		fmt.Fprint(stdOut, asm)
		return 0
	}
	if err := os.WriteFile(out, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(stdErr, "llc: %v\n", err)
		return 1
	}
	return 0
}

// compile runs the full parse -> lower -> regalloc/passes -> print
// pipeline over one translation unit's source text.
func compile(src string) (string, error) {
	mod, err := parse.Parse(src)
	if err != nil {
		return "", err
	}

	mm, err := lower.Module(mod)
	if err != nil {
		return "", err
	}

	if err := passes.RunModule(mm); err != nil {
		return "", err
	}

	logTrace("lowered %d function(s), %d global(s)", len(mm.Functions), len(mm.Globals))

	return amd64.Print(mm), nil
}

// defaultOutputPath replaces a trailing .ll suffix with .s, or appends
// .s if the input has no .ll suffix.
func defaultOutputPath(in string) string {
	ext := filepath.Ext(in)
	if ext == ".ll" {
		return strings.TrimSuffix(in, ext) + ".s"
	}
	return in + ".s"
}

// logTrace writes a verbose trace line to stderr when LLC_LOG is set,
// read once per process since flag parsing and env lookups are cheap
// but repeated os.Getenv calls in a hot loop are not idiomatic.
var traceEnabled = os.Getenv("LLC_LOG") != ""

func logTrace(format string, args ...interface{}) {
	if !traceEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, "llc: "+format+"\n", args...)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: llc [-o output] input.ll")
	flag.PrintDefaults()
}
