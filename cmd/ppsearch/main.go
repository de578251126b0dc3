// Command ppsearch answers "does this token sequence occur in the
// corpus" queries against a ppindex-built index (spec.md §6, "Query CLI
// and library").
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tomazos/ppgrep/internal/ppt/index"
	"github.com/tomazos/ppgrep/internal/ppt/search"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

func doMain(stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("ppsearch", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	corpusDir := flags.String("corpus", "", "directory the index was built from (required, for rendering matched source lines)")
	workers := flags.Int("workers", 0, "scanner parallelism (default: min(NumCPU, 20))")
	blockSize := flags.Int("block-size", 0, "bytes of code section scanned per unit of work (default: 100000)")
	sampleCap := flags.Int("samples", 0, "maximum number of matches to render (default: 100)")
	contextLines := flags.Int("context", 2, "lines of context to show around each match")
	maxLineWidth := flags.Int("max-line-width", 120, "truncate rendered lines to this many display columns (0 disables)")

	flags.Usage = func() {
		fmt.Fprintf(stdErr, "usage: ppsearch -corpus <dir> [flags] <index-path> <query>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() != 2 || *corpusDir == "" {
		flags.Usage()
		return 2
	}

	r, err := index.Open(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdErr, "ppsearch: %v\n", err)
		return 1
	}
	defer r.Close()

	res, err := search.Query(context.Background(), r, *corpusDir, flags.Arg(1), search.Options{
		Workers:        *workers,
		BlockSize:      *blockSize,
		SampleCapacity: *sampleCap,
		ContextLines:   *contextLines,
		MaxLineWidth:   *maxLineWidth,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "ppsearch: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdOut, "%d matches across %d files\n\n", res.TotalMatches, res.TotalFiles)
	for _, s := range res.Samples {
		fmt.Fprintf(stdOut, "%s:%d\n", s.FilePath, s.MatchLine)
		for i, line := range s.Lines {
			fmt.Fprintf(stdOut, "%5d: %s\n", s.FirstLine+i, line)
		}
		fmt.Fprintln(stdOut)
	}
	return 0
}
