package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/kristofer/tinyjs/internal/natives"
	"github.com/kristofer/tinyjs/pkg/compiler"
	"github.com/kristofer/tinyjs/pkg/parser"
	"github.com/kristofer/tinyjs/pkg/value"
	"github.com/kristofer/tinyjs/pkg/vm"
)

const historyFile = ".tinyjs_history"

// runREPL starts an interactive read-eval-print loop, mirroring the
// teacher's runREPL/evalREPL shape: one persistent VM and one persistent
// global environment for the whole session, so a `var` bound at one
// prompt is still visible at the next. Line editing and history come from
// liner rather than a bare bufio.Scanner.
//
// The teacher's source language ends a statement with a trailing period,
// so completeness is a one-line string check. tinyjs is brace-and-semicolon
// C-family syntax instead, so completeness here is tracked by bracket
// depth: keep buffering lines while any ( [ { is still open, and only
// attempt to parse once depth returns to zero.
func runREPL() {
	fmt.Printf("tinyjs REPL v%s\n", version)
	fmt.Println("Type :help for help, :quit or :exit to leave")
	fmt.Println()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	loadREPLHistory(line)
	defer saveREPLHistory(line)

	machine := newVM()
	globals := natives.Install(machine)
	envHandle, err := machine.NewGlobalEnv(globals)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	var buf strings.Builder
	depth := 0

	for {
		prompt := "tinyjs> "
		if buf.Len() > 0 {
			prompt = "   ...> "
		}
		text, err := line.Prompt(prompt)
		if err != nil {
			break
		}

		if buf.Len() == 0 {
			switch strings.TrimSpace(text) {
			case ":quit", ":exit":
				return
			case ":help":
				printREPLHelp()
				continue
			case "":
				continue
			}
		}

		line.AppendHistory(text)
		buf.WriteString(text)
		buf.WriteString("\n")
		depth += bracketDelta(text)

		if depth > 0 {
			continue
		}

		evalREPL(machine, envHandle, buf.String())
		buf.Reset()
		depth = 0
	}
}

// bracketDelta counts the net change in open ( [ { nesting a line
// contributes, ignoring brackets inside string literals so a line like
// `console.log("(")` doesn't leave the REPL waiting forever for a close
// that was already there.
func bracketDelta(s string) int {
	delta := 0
	var quote rune
	for _, r := range s {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return delta
}

// evalREPL compiles and runs one buffered statement against the session's
// persistent VM and global environment. Errors are printed but never stop
// the loop.
func evalREPL(machine *vm.VM, envHandle value.Handle, input string) {
	p := parser.New(1, "<repl>", input)
	prog, err := p.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		for _, e := range p.Errors() {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return
	}

	bc, err := compiler.Compile("<repl>", prog, natives.GlobalNames())
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		return
	}

	result, status, err := machine.RunWithEnv(bc, envHandle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error [%s]: %v\n", status, err)
		return
	}
	if !result.IsUndefined() {
		fmt.Printf("=> %s\n", machine.ToGoString(result))
	}
}

func printREPLHelp() {
	fmt.Println("Enter ES5-subset statements and expressions, ended by newline.")
	fmt.Println("Unclosed ( [ { continue onto the next line.")
	fmt.Println()
	fmt.Println("  :help          show this message")
	fmt.Println("  :quit, :exit   leave the REPL")
}

func loadREPLHistory(line *liner.State) {
	f, err := os.Open(historyFilePath())
	if err != nil {
		return
	}
	defer f.Close()
	line.ReadHistory(f)
}

func saveREPLHistory(line *liner.State) {
	f, err := os.Create(historyFilePath())
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return home + string(os.PathSeparator) + historyFile
}
