// Command pp1gram reports, for every token in an index's alphabet, the
// percentage of files it occurs in at least once -- a document-frequency
// unigram table, useful for sanity-checking a build or picking stop
// tokens for downstream tooling.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tomazos/ppgrep/internal/ppt/codec"
	"github.com/tomazos/ppgrep/internal/ppt/index"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

func doMain(stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("pp1gram", flag.ContinueOnError)
	flags.SetOutput(stdErr)
	minPercent := flags.Float64("min-percent", 0.01, "omit tokens occurring in fewer than this percent of files")

	flags.Usage = func() {
		fmt.Fprintf(stdErr, "usage: pp1gram [flags] <index-path>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	r, err := index.Open(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdErr, "pp1gram: %v\n", err)
		return 1
	}
	defer r.Close()

	docCounts := make(map[uint32]int)
	for i := 0; i < r.NumFiles(); i++ {
		fr := r.FileRecord(i)
		code := r.Code()[fr.CodeOffset : fr.CodeOffset+fr.CodeLength]
		seen := map[uint32]bool{}
		for len(code) > 0 {
			id, n, err := codec.Decode(code)
			if err != nil {
				fmt.Fprintf(stdErr, "pp1gram: corrupt code section in file %d: %v\n", i, err)
				return 1
			}
			code = code[n:]
			if id == 0 {
				break
			}
			seen[id] = true
		}
		for id := range seen {
			docCounts[id]++
		}
	}

	type row struct {
		percent float64
		id      uint32
	}
	rows := make([]row, 0, len(docCounts))
	for id, n := range docCounts {
		rows = append(rows, row{percent: 100 * float64(n) / float64(r.NumFiles()), id: id})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].percent != rows[j].percent {
			return rows[i].percent > rows[j].percent
		}
		return rows[i].id < rows[j].id
	})

	for _, row := range rows {
		if row.percent < *minPercent {
			continue
		}
		spelling, err := r.Spelling(row.id)
		if err != nil {
			continue
		}
		fmt.Fprintf(stdOut, "%.4f %d %s\n", row.percent, len(spelling), spelling)
	}
	return 0
}
