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

package search

import "github.com/rivo/uniseg"

// truncateLine renders at most maxWidth display columns of line, cutting
// only on grapheme-cluster boundaries so a match that lands inside a
// multi-rune cluster (combining marks, wide CJK punctuation, and the
// like, all of which show up in real C++ string literals) never leaves a
// mangled partial cluster at the edge of a rendered source line. maxWidth
// <= 0 disables truncation.
func truncateLine(line string, maxWidth int) string {
	if maxWidth <= 0 || uniseg.StringWidth(line) <= maxWidth {
		return line
	}

	const ellipsis = "..."
	budget := maxWidth - uniseg.StringWidth(ellipsis)
	if budget <= 0 {
		return ellipsis
	}

	var width int
	var cut int
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
