// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package diag renders a tokenizer failure as a single,
// file:line:col-anchored message; it has no renderer for verifier
// problems. It is a small, trimmed-down descendant
// of the span-anchoring idea in experimental/report: no multi-span
// layout, no ANSI stylesheet, just "where" plus an excerpt of the
// offending line.
package diag

import (
	"bytes"
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/tomazos/ppgrep/internal/ppt/tokenizer"
)

// Location is a 1-based line/column pair, the editor-coordinate form of a
// byte offset into a source file.
type Location struct {
	Line int
	Col  int
}

// Locate converts a byte offset into src to a 1-based line/column,
// counting columns in display cells (uniseg.StringWidth) rather than
// bytes, so a column number lines up under a terminal cursor even when
// the line contains multi-byte runes before the offset.
func Locate(src []byte, offset int) Location {
	if offset > len(src) {
		offset = len(src)
	}
	head := src[:offset]
	line := 1 + bytes.Count(head, []byte{'\n'})
	col := 1
	if i := bytes.LastIndexByte(head, '\n'); i >= 0 {
		col = 1 + uniseg.StringWidth(string(head[i+1:]))
	} else {
		col = 1 + uniseg.StringWidth(string(head))
	}
	return Location{Line: line, Col: col}
}

// excerpt returns the single source line containing offset, truncated to
// maxWidth display columns with a leading/trailing ellipsis as needed.
func excerpt(src []byte, offset, maxWidth int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := offset + bytes.IndexByte(src[offset:], '\n')
	if end < offset {
		end = len(src)
	}
	line := string(src[start:end])

	if maxWidth <= 0 || uniseg.StringWidth(line) <= maxWidth {
		return line
	}
	const ellipsis = "..."
	budget := maxWidth - uniseg.StringWidth(ellipsis)
	if budget <= 0 {
		return ellipsis
	}
	var width, cut int
	gr := uniseg.NewGraphemes(line)
	for gr.Next() {
		w := uniseg.StringWidth(gr.Str())
		if width+w > budget {
			break
		}
		width += w
		_, cut = gr.Positions()
	}
	return line[:cut] + ellipsis
}

// RenderTokenizeError formats a tokenizer.Error as a one-line,
// file:line:col-anchored message with a truncated excerpt of the
// offending line, in the teacher's terse diagnostic style (no multi-line
// caret underlining).
func RenderTokenizeError(path string, src []byte, err *tokenizer.Error) string {
	loc := Locate(src, err.Offset)
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, loc.Line, loc.Col, err.Reason, excerpt(src, err.Offset, 60))
}
