// Command ppverify checks a ppindex-built index for internal consistency
// (spec.md §4.7).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tomazos/ppgrep/internal/ppt/index"
	"github.com/tomazos/ppgrep/internal/ppt/verify"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

func doMain(stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("ppverify", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	corpusDir := flags.String("corpus", "", "also check recorded file lengths against files under this directory (optional)")

	flags.Usage = func() {
		fmt.Fprintf(stdErr, "usage: ppverify [flags] <index-path>\n\n")
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
		fmt.Fprintf(stdErr, "ppverify: %v\n", err)
		return 1
	}
	defer r.Close()

	problems := verify.Verify(r, verify.Options{CorpusDir: *corpusDir})
	if len(problems) == 0 {
		fmt.Fprintln(stdOut, "ok")
		return 0
	}
	for _, p := range problems {
		fmt.Fprintln(stdOut, p.String())
	}
	fmt.Fprintf(stdErr, "ppverify: %d problems found\n", len(problems))
	return 1
}
