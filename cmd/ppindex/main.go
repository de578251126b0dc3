// Command ppindex builds a binary token index from a directory of C/C++
// source files (spec.md §6, "Builder CLI").
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tomazos/ppgrep/internal/ppt/index"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// globList accumulates repeated -exclude flag occurrences into a slice,
// the standard flag.Value pattern for a repeatable string flag.
type globList []string

func (g *globList) String() string { return fmt.Sprint([]string(*g)) }

func (g *globList) Set(pattern string) error {
	*g = append(*g, pattern)
	return nil
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("ppindex", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	workers := flags.Int("workers", 0, "parallelism for the tokenize/encode passes (default: min(NumCPU, GOMAXPROCS))")
	maxFileSize := flags.Int64("max-file-size", 0, "skip source files larger than this many bytes (0 = no limit)")
	seed := flags.Int64("seed", 0, "seed for the deterministic file-shuffle PRNG")
	skippedLog := flags.String("skipped-log", "", "path to write a log of skipped files and reasons (optional)")
	var excludeGlobs globList
	flags.Var(&excludeGlobs, "exclude", "doublestar glob (relative to source-dir) to exclude; repeatable")

	flags.Usage = func() {
		fmt.Fprintf(stdErr, "usage: ppindex [flags] <source-dir> <output-index>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		return exitCodeFor(err)
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return 2
	}

	b := &index.Builder{
		Workers:      *workers,
		MaxFileSize:  *maxFileSize,
		ShuffleSeed:  *seed,
		ExcludeGlobs: excludeGlobs,
	}

	stats, err := b.Build(context.Background(), flags.Arg(0), flags.Arg(1))
	if err != nil {
		fmt.Fprintf(stdErr, "ppindex: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdOut, "indexed %d of %d files (%d tokens, alphabet size %d)\n",
		stats.FilesIndexed, stats.FilesWalked, stats.TokensTotal, stats.AlphabetSize)
	for reason, n := range stats.Skipped {
		fmt.Fprintf(stdOut, "  skipped %d files: %s\n", n, reason)
	}

	if *skippedLog != "" {
		if err := writeSkippedLog(*skippedLog, stats); err != nil {
			fmt.Fprintf(stdErr, "ppindex: writing skipped-files log: %v\n", err)
			return 1
		}
	}
	return 0
}

func writeSkippedLog(path string, stats index.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for reason, n := range stats.Skipped {
		if _, err := fmt.Fprintf(f, "%s\t%d\n", reason, n); err != nil {
			return err
		}
	}
	return nil
}

func exitCodeFor(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	return 2
}
