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

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
	}
	return dir
}

func TestBuildAndOpenSmallCorpus(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.cc": "int main() { return 0; }\n",
		"b.cc": "int add(int x, int y) { return x + y; }\n",
	})
	outPath := filepath.Join(t.TempDir(), "corpus.idx")

	b := &Builder{ShuffleSeed: 1}
	stats, err := b.Build(context.Background(), dir, outPath)
	require.NoError(t, err)
	assert.Equalf(t, 2, stats.FilesWalked, "stats = %+v", stats)
	assert.Equalf(t, 2, stats.FilesIndexed, "stats = %+v", stats)

	r, err := Open(outPath)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 2, r.NumFiles())
	assert.Equal(t, stats.AlphabetSize, r.NumTokens())

	id, ok := r.TokenID("int")
	require.True(t, ok, `TokenID("int") not found`)
	spelling, err := r.Spelling(id)
	require.NoError(t, err)
	assert.Equal(t, "int", spelling)

	_, ok = r.TokenID("this-spelling-does-not-occur")
	assert.False(t, ok, "TokenID found a spelling that was never indexed")
}

func TestBuildIsDeterministicForFixedSeed(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.cc": "void f() {}\n",
		"b.cc": "void g() {}\n",
		"c.cc": "void h() {}\n",
	})

	build := func() []byte {
		out := filepath.Join(t.TempDir(), "corpus.idx")
		b := &Builder{ShuffleSeed: 42}
		_, err := b.Build(context.Background(), dir, out)
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	first := build()
	second := build()
	assert.Equal(t, first, second)
}

func TestBuildSkipsEmptyAndDuplicateFiles(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"empty.cc":    "// just a comment\n",
		"real.cc":     "int x;\n",
		"real_dup.cc": "int x;\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 7}
	stats, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.Skipped[SkipEmpty])
	assert.Equal(t, 1, stats.Skipped[SkipDuplicate])
}

// Two files whose raw bytes differ only in whitespace and comments — which
// the tokenizer strips — tokenize to the identical id sequence and must be
// deduplicated by their encoded-token hash, not their raw-byte hash.
func TestBuildDeduplicatesFilesThatTokenizeIdentically(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"tight.cc":  "int x;\n",
		"spaced.cc": "int   x  ;  // trailing remark\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 3}
	stats, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	assert.Equalf(t, 1, stats.FilesIndexed, "stats = %+v", stats)
	assert.Equalf(t, 1, stats.Skipped[SkipDuplicate], "stats = %+v", stats)
}

func TestBuildRespectsMaxFileSize(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"small.cc": "int x;\n",
		"big.cc":   "int y; // padding padding padding padding\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 1, MaxFileSize: 10}
	stats, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped[SkipTooLarge])
	assert.Equal(t, 1, stats.FilesIndexed)
}

func TestBuildRespectsExcludeGlobs(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"src/main.cc":       "int x;\n",
		"vendor/third.cc":   "int y;\n",
		"testdata/fixed.cc": "int z;\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 1, ExcludeGlobs: []string{"vendor/**", "**/fixed.cc"}}
	stats, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 2, stats.Skipped[SkipExcluded])

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()
	assert.Contains(t, []string{filepath.Join("src", "main.cc"), "src/main.cc"}, r.FileName(0))
}

func TestBuildRespectsMaxOpenFiles(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.cc": "int a;\n",
		"b.cc": "int b;\n",
		"c.cc": "int c;\n",
		"d.cc": "int d;\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 1, Workers: 4, MaxOpenFiles: 1}
	stats, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FilesIndexed)
}
