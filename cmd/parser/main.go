/*
Parser drives a built LR(k) table against input text and prints the
resulting reduction sequence.

Usage:

	parser --input_table FILE (--text FILE | --repl) [--k N] [--output FILE]

The flags are:

	-t, --input_table FILE
		Read the binary table from FILE. Required.

	-x, --text FILE
		Parse the whitespace-separated tokens in FILE and exit.

	-r, --repl
		Instead of --text, read lines of tokens interactively (or directly,
		if stdin is not a TTY) until EOF, parsing and reporting each line in
		turn.

	-k, --k N
		The lookahead bound the table was built with. Defaults to 1. Must
		match the table file's recorded k, or KMismatch is raised.

	-o, --output FILE
		Write the reduction sequence to FILE instead of stdout. Defaults to
		stdout.

	-d, --direct
		Force reading directly from stdin in --repl mode instead of using
		GNU readline, even when stdin is a TTY.

The reduction sequence is written as space-separated decimal rule ids
followed by a newline. On a syntax error nothing is written for that line,
a single-line message is printed to stderr, and a nonzero exit code is
returned (in --repl mode, processing continues with the next line instead).
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/lrk/internal/input"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
	"github.com/dekarrin/lrk/internal/runtime"
	"github.com/dekarrin/lrk/internal/table"
	"github.com/dekarrin/lrk/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitTableError indicates the table file could not be read, or its k
	// did not match.
	ExitTableError

	// ExitParseError indicates a syntax or unknown-token error while
	// parsing --text input. Not used in --repl mode, which reports errors
	// per line and keeps going.
	ExitParseError

	// ExitIOError indicates any other file open/read/write failure.
	ExitIOError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	tableFile   = pflag.StringP("input_table", "t", "", "The binary table file to load (required)")
	textFile    = pflag.StringP("text", "x", "", "The file of whitespace-separated tokens to parse")
	replMode    = pflag.BoolP("repl", "r", false, "Read and parse token lines interactively until EOF")
	k           = pflag.IntP("k", "k", 1, "The lookahead bound the table was built with")
	outputFile  = pflag.StringP("output", "o", "", "Write the reduction sequence here instead of stdout")
	forceDirect = pflag.BoolP("direct", "d", false, "Force direct stdin reading in --repl mode")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if *tableFile == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --input_table is required")
		returnCode = ExitIOError
		return
	}
	if *textFile == "" && !*replMode {
		fmt.Fprintln(os.Stderr, "ERROR: one of --text or --repl is required")
		returnCode = ExitIOError
		return
	}

	kstring.Configure(*k)
	rt, err := table.ReadFile(*tableFile, *k)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitTableError
		return
	}
	parser := runtime.New(rt)

	out := os.Stdout
	if *outputFile != "" {
		f, ferr := os.Create(*outputFile)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", lrkerrors.Wrap(lrkerrors.IOError, ferr, "create output file %q", *outputFile).Error())
			returnCode = ExitIOError
			return
		}
		defer f.Close()
		out = f
	}

	if *replMode {
		runREPL(parser, out)
		return
	}

	text, err := os.ReadFile(*textFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", lrkerrors.Wrap(lrkerrors.IOError, err, "read text file %q", *textFile).Error())
		returnCode = ExitIOError
		return
	}

	derivation, err := parser.ParseText(string(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitParseError
		return
	}

	writeDerivation(out, derivation)
}

func runREPL(parser *runtime.Parser, out io.Writer) {
	var reader interface {
		ReadLine() (string, error)
		Close() error
	}

	isTTY := !*forceDirect && isTerminal(os.Stdin)
	if isTTY {
		ir, err := input.NewInteractiveReader()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
			return
		}
		reader = ir
	} else {
		reader = input.NewDirectReader(os.Stdin)
	}
	defer reader.Close()

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitIOError
			return
		}

		derivation, perr := parser.ParseText(line)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", perr.Error())
			continue
		}
		writeDerivation(out, derivation)
	}
}

func writeDerivation(out io.Writer, derivation []int) {
	parts := make([]string, len(derivation))
	for i, r := range derivation {
		parts[i] = fmt.Sprintf("%d", r)
	}
	fmt.Fprintln(out, strings.Join(parts, " "))
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
