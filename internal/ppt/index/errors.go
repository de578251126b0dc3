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

package index

import "fmt"

// IntegrityError reports a structural inconsistency found while reading or
// verifying an index file: a bad magic/version, an out-of-range offset, or
// a broken chaining invariant between sections (spec.md §7).
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string { return "index: integrity: " + e.Reason }

func integrityErrorf(format string, args ...any) *IntegrityError {
	return &IntegrityError{Reason: fmt.Sprintf(format, args...)}
}

// SkipReason names why a corpus file was excluded from the index. It keys
// the per-reason file counts in Stats.Skipped.
type SkipReason string

const (
	SkipTooLarge   SkipReason = "too-large"
	SkipTokenize   SkipReason = "tokenize-error"
	SkipEmpty      SkipReason = "empty-token-sequence"
	SkipDuplicate  SkipReason = "duplicate-content"
	SkipUnreadable SkipReason = "unreadable"
	SkipExcluded   SkipReason = "excluded-by-glob"
)
