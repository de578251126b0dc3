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

package tokenizer

import "fmt"

// Error is returned whenever the tokenizer encounters a grammar violation:
// invalid UTF-8, an unterminated literal or comment, an invalid escape, or
// a too-long raw-string delimiter. The builder treats this as "skip this
// file"; the query pipeline treats it as "reject this query" (spec.md §4.1).
type Error struct {
	// Offset is the byte offset into the raw (untransformed) source at
	// which the violation was detected.
	Offset int
	// Reason is a short, human-readable description, e.g. "unterminated
	// string literal".
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tokenizer: byte %d: %s", e.Offset, e.Reason)
}

func errAt(offset int, format string, args ...any) *Error {
	return &Error{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
