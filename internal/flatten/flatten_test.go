package flatten

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string][]byte{
		"src/A.java":   []byte("class A { B b; }"),
		"src/B.java":   []byte("class B {}\n"),
		"img/logo.png": {0x89, 'P', 'N', 'G'},
		"lib/blob.bin": {0, 1, 2},
	}
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, data, 0o644))
	}
	return fs
}

func TestAggregator_Write(t *testing.T) {
	fs := repoFs(t)
	agg := NewAggregator(fs, Options{CountTokens: true})

	var buf bytes.Buffer
	sum, err := agg.Write(context.Background(), &buf, Paths([]string{
		"src/A.java", "img/logo.png", "lib/blob.bin", "src/Missing.java", "src/B.java",
	}))
	require.NoError(t, err)

	want := "===== FILE: src/A.java =====\nclass A { B b; }\n" +
		"===== FILE: src/B.java =====\nclass B {}\n\n"
	assert.Equal(t, want, buf.String())

	assert.Equal(t, 5, sum.Discovered)
	assert.Equal(t, 2, sum.Written)
	assert.Equal(t, 3, sum.Skipped)
	// "class A { B b; }" is 6 words, "class B {}" 3 words.
	assert.Equal(t, 7+3, sum.Tokens)

	statuses := make([]Status, len(sum.Files))
	for i, f := range sum.Files {
		statuses[i] = f.Status
	}
	assert.Equal(t, []Status{StatusWritten, StatusSkipped, StatusBinary, StatusUnreadable, StatusWritten}, statuses)
}

func TestAggregator_IncludeImages(t *testing.T) {
	agg := NewAggregator(repoFs(t), Options{IncludeImages: true})

	var buf bytes.Buffer
	sum, err := agg.Write(context.Background(), &buf, Paths([]string{"img/logo.png"}))
	require.NoError(t, err)
	assert.Equal(t, "===== FILE: img/logo.png =====\n[Image file skipped]\n\n", buf.String())
	assert.Equal(t, 1, sum.Written)
	assert.Equal(t, 0, sum.Tokens)
}

func TestAggregator_IDHeaderAndDocumentTokens(t *testing.T) {
	agg := NewAggregator(repoFs(t), Options{Header: IDHeader, DocumentTokens: true})

	var buf bytes.Buffer
	sum, err := agg.Write(context.Background(), &buf, []Item{{ID: 7, Path: "src/B.java"}})
	require.NoError(t, err)
	assert.Equal(t, "===== FILE ID 7 : src/B.java =====\nclass B {}\n\n", buf.String())
	// 10 words including the header.
	assert.Equal(t, 12, sum.Document)
	assert.Equal(t, 0, sum.Tokens, "per-file tokens only when CountTokens is set")
}

func TestAggregator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(repoFs(t), Options{}).Write(ctx, io.Discard, Paths([]string{"src/A.java"}))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestAggregator_WriteError(t *testing.T) {
	_, err := NewAggregator(repoFs(t), Options{}).Write(context.Background(), failingWriter{}, Paths([]string{"src/A.java"}))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestAggregator_WriteFileCompressed(t *testing.T) {
	tests := []struct {
		name  string
		magic []byte
	}{
		{"out/flat.txt", []byte("=====")},
		{"out/flat.txt.gz", []byte{0x1f, 0x8b}},
		{"out/flat.txt.zst", []byte{0x28, 0xb5, 0x2f, 0xfd}},
	}
	for _, tt := range tests {
		name := tt.name
		t.Run(name, func(t *testing.T) {
			repo := repoFs(t)
			out := afero.NewMemMapFs()
			agg := NewAggregator(repo, Options{})

			_, err := agg.WriteFile(context.Background(), out, name, Paths([]string{"src/B.java"}))
			require.NoError(t, err)

			r, err := Open(out, name)
			require.NoError(t, err)
			defer r.Close()
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "===== FILE: src/B.java =====\nclass B {}\n\n", string(data))

			raw, err := afero.ReadFile(out, name)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(raw, tt.magic), "unexpected leading bytes % x", raw[:4])
		})
	}
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionGzip, CompressionFor("a.txt.GZ"))
	assert.Equal(t, CompressionZstd, CompressionFor("a.zst"))
	assert.Equal(t, CompressionZstd, CompressionFor("a.zstd"))
	assert.Equal(t, CompressionNone, CompressionFor("a.txt"))
}
