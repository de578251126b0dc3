// Command ppencode tokenizes and encodes a directory of source files
// against an existing index's alphabet, and writes the results as a flat
// varint-length-prefixed blob -- a lightweight export of per-file
// encoded token streams for external tooling that doesn't want to parse
// the full index format.
package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomazos/ppgrep/internal/ppt/codec"
	"github.com/tomazos/ppgrep/internal/ppt/diag"
	"github.com/tomazos/ppgrep/internal/ppt/index"
	"github.com/tomazos/ppgrep/internal/ppt/tokenizer"
)

func main() {
	os.Exit(doMain(os.Stderr))
}

func doMain(stdErr io.Writer) int {
	flags := flag.NewFlagSet("ppencode", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	flags.Usage = func() {
		fmt.Fprintf(stdErr, "usage: ppencode <index-path> <source-dir> <output-path>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() != 3 {
		flags.Usage()
		return 2
	}

	r, err := index.Open(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdErr, "ppencode: %v\n", err)
		return 1
	}
	defer r.Close()

	out, err := os.Create(flags.Arg(2))
	if err != nil {
		fmt.Fprintf(stdErr, "ppencode: %v\n", err)
		return 1
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	var uvarintBuf [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(uvarintBuf[:], v)
		w.Write(uvarintBuf[:n])
	}

	writeUvarint(uint64(r.NumFiles()))
	for i := 0; i < r.NumFiles(); i++ {
		name := r.FileName(i)
		src, err := os.ReadFile(filepath.Join(flags.Arg(1), name))
		if err != nil {
			fmt.Fprintf(stdErr, "ppencode: %s: %v\n", name, err)
			return 1
		}
		res, err := tokenizer.Tokenize(src)
		if err != nil {
			var tokErr *tokenizer.Error
			if errors.As(err, &tokErr) {
				fmt.Fprintf(stdErr, "ppencode: %s\n", diag.RenderTokenizeError(name, src, tokErr))
			} else {
				fmt.Fprintf(stdErr, "ppencode: %s: %v\n", name, err)
			}
			return 1
		}

		var encoded []byte
		for _, tok := range res.Tokens {
			id, ok := r.TokenID(tok.Spelling)
			if !ok {
				fmt.Fprintf(stdErr, "ppencode: %s: spelling %q not in index alphabet\n", name, tok.Spelling)
				return 1
			}
			encoded, err = codec.Append(encoded, id)
			if err != nil {
				fmt.Fprintf(stdErr, "ppencode: %s: %v\n", name, err)
				return 1
			}
		}

		writeUvarint(uint64(len(encoded)))
		w.Write(encoded)
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(stdErr, "ppencode: %v\n", err)
		return 1
	}
	return 0
}
