// Command tinyjs is the reference host for the tinyjs VM: run a script,
// disassemble its compiled form, or drop into a REPL. Command dispatch
// follows the teacher's cmd/smog/main.go switch-over-os.Args shape; the
// external flag surface itself is the narrower one this language commits
// to: -h, -v, -r PATH, -d PATH, plus a REPL when given no arguments.
package main

import (
	"fmt"
	"os"

	"github.com/kristofer/tinyjs/internal/natives"
	"github.com/kristofer/tinyjs/pkg/bytecode"
	"github.com/kristofer/tinyjs/pkg/compiler"
	"github.com/kristofer/tinyjs/pkg/parser"
	"github.com/kristofer/tinyjs/pkg/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "-h", "--help", "help":
		printUsage()
	case "-v", "--version", "version":
		fmt.Printf("tinyjs version %s\n", version)
	case "-r":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: -r requires a file path")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "-d":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: -d requires a file path")
			printUsage()
			os.Exit(1)
		}
		disassembleAndRun(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("tinyjs - a small ES5-subset scripting language")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tinyjs             Start the interactive REPL")
	fmt.Println("  tinyjs -r PATH     Compile and run a script")
	fmt.Println("  tinyjs -d PATH     Disassemble a script's bytecode, then run it")
	fmt.Println("  tinyjs -v          Show version")
	fmt.Println("  tinyjs -h          Show this help")
	fmt.Println()
	fmt.Println("An optional VM tuning file (heap capacity, GC threshold, stack and")
	fmt.Println("call-depth caps) is read from the path in TINYJS_CONFIG, if set.")
}

// compileFile reads and compiles path, sharing the exact pipeline (lex ->
// parse -> compile) the REPL's evaluator also drives.
func compileFile(path string) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p := parser.New(1, path, string(data))
	prog, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return compiler.Compile(path, prog, natives.GlobalNames())
}

func newVM() *vm.VM {
	opts, err := loadOptions(os.Getenv("TINYJS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring tuning file: %v\n", err)
		opts = vm.DefaultOptions()
	}
	return vm.New(opts)
}

func runFile(path string) {
	bc, err := compileFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	machine := newVM()
	globals := natives.Install(machine)
	_, status, err := machine.Run(bc, globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error [%s]: %v\n", status, err)
		os.Exit(1)
	}
}

func disassembleAndRun(path string) {
	bc, err := compileFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(bytecode.DisassembleProgram(bc))
	machine := newVM()
	globals := natives.Install(machine)
	_, status, err := machine.Run(bc, globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error [%s]: %v\n", status, err)
		os.Exit(1)
	}
}
