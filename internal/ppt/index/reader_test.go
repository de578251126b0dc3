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
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomazos/ppgrep/internal/ppt/codec"
	"github.com/tomazos/ppgrep/internal/ppt/tokenizer"
)

func TestSymbolizeLocatesKnownToken(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"one.cc": "int a;\n",
		"two.cc": "int b;\nint c;\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 3}
	_, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	bID, ok := r.TokenID("b")
	require.True(t, ok, `TokenID("b") not found`)
	needle, err := codec.Append(nil, bID)
	require.NoError(t, err)

	idx := bytes.Index(r.Code(), needle)
	require.GreaterOrEqualf(t, idx, 0, "encoded %q not found in code section", "b")

	m, err := r.Symbolize(uint64(idx), uint32(len(needle)), 0)
	require.NoError(t, err)
	assert.Equal(t, "two.cc", m.FileName)
	assert.Equal(t, 1, m.MatchLine)
}

func TestSymbolizeEachFileBoundary(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"one.cc":   "int a;\n",
		"two.cc":   "int b;\n",
		"three.cc": "int c;\n",
	})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 9}
	_, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < r.NumFiles(); i++ {
		fr := r.FileRecord(i)
		m, err := r.Symbolize(fr.CodeOffset, 1, 0)
		require.NoErrorf(t, err, "Symbolize(file %d start)", i)
		assert.Equalf(t, i, m.FileIndex, "file %d: Symbolize at its own start resolved to file %d", i, m.FileIndex)
	}
}

func TestTokenizeAgreesWithAlphabet(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.cc": "int x = 1 + 2;\n"})
	out := filepath.Join(t.TempDir(), "corpus.idx")
	b := &Builder{ShuffleSeed: 1}
	_, err := b.Build(context.Background(), dir, out)
	require.NoError(t, err)
	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	res, err := tokenizer.Tokenize([]byte("int x = 1 + 2;\n"))
	require.NoError(t, err)
	for _, tok := range res.Tokens {
		_, ok := r.TokenID(tok.Spelling)
		assert.Truef(t, ok, "spelling %q present in source but missing from alphabet", tok.Spelling)
	}
}
