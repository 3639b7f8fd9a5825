/*
Generator builds an LR(k) parse table from a textual grammar file and writes
it to a binary table file.

Usage:

	generator --input FILE [--output FILE] [--k N] [--manifest FILE] [--dump FILE]

The flags are:

	-i, --input FILE
		Read the grammar from FILE. Required.

	-o, --output FILE
		Write the built table to FILE. Defaults to "table".

	-k, --k N
		The lookahead bound to build the table with. Defaults to 1.

	-m, --manifest FILE
		Also write a build manifest (grammar path, k, counts, timestamp) to
		FILE. If omitted, no manifest is written.

	-d, --dump FILE
		Also write a human-readable dump of the built GOTO/ACTION table to
		FILE. If omitted, no dump is written.

	-V, --verbose
		Print a one-line build summary (state count, production count) to
		stdout on success.

On any error the generator writes nothing to its output file and prints a
single-line message to stderr, exiting nonzero.
*/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dekarrin/lrk/internal/automaton"
	"github.com/dekarrin/lrk/internal/firstk"
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
	"github.com/dekarrin/lrk/internal/table"
	"github.com/dekarrin/lrk/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitGrammarError indicates the grammar file could not be parsed.
	ExitGrammarError

	// ExitBuildError indicates a conflict or other failure during table
	// construction.
	ExitBuildError

	// ExitIOError indicates a file open/read/write failure.
	ExitIOError
)

var (
	returnCode    = ExitSuccess
	flagVersion   = pflag.BoolP("version", "v", false, "Gives the version info")
	inputFile     = pflag.StringP("input", "i", "", "The grammar file to build a table from (required)")
	outputFile    = pflag.StringP("output", "o", "table", "The file to write the built table to")
	k             = pflag.IntP("k", "k", 1, "The lookahead bound to build the table with")
	manifestFile  = pflag.StringP("manifest", "m", "", "If set, also write a build manifest to this file")
	dumpFile      = pflag.StringP("dump", "d", "", "If set, also write a human-readable GOTO/ACTION table dump to this file")
	verboseReport = pflag.BoolP("verbose", "V", false, "Print a build summary on success")
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

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --input is required")
		returnCode = ExitIOError
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = exitCodeFor(err)
	}
}

func run() error {
	kstring.Configure(*k)

	g, err := grammar.LoadFile(*inputFile)
	if err != nil {
		return err
	}

	first := firstk.Build(g)
	built, err := automaton.NewBuilder(g, first).Build()
	if err != nil {
		return err
	}

	if err := table.WriteFile(*outputFile, *k, g, built); err != nil {
		return err
	}

	if *manifestFile != "" {
		if err := table.WriteManifestFile(*manifestFile, *inputFile, *k, len(g.Productions()), built.NumStates(), time.Now()); err != nil {
			return err
		}
	}

	if *dumpFile != "" {
		if err := os.WriteFile(*dumpFile, []byte(built.String(g)), 0o644); err != nil {
			return lrkerrors.Wrap(lrkerrors.IOError, err, "write table dump %q", *dumpFile)
		}
	}

	if *verboseReport {
		fmt.Printf("built %d states, %d productions, k=%d\n", built.NumStates(), len(g.Productions()), *k)
	}

	return nil
}

func exitCodeFor(err error) int {
	code, ok := lrkerrors.GetCode(err)
	if !ok {
		return ExitIOError
	}
	switch code {
	case lrkerrors.GrammarSyntax:
		return ExitGrammarError
	case lrkerrors.BuildConflict, lrkerrors.CorruptTable:
		return ExitBuildError
	default:
		return ExitIOError
	}
}
