package flatten

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// Compression selects how the flat document is encoded on disk.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// CompressionFor picks the codec from the output file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// output layers buffering and optional compression over a file. Close
// flushes every layer from the outside in.
type output struct {
	*bufio.Writer
	closers []io.Closer
}

func (o *output) Close() error {
	var first error
	if err := o.Writer.Flush(); err != nil {
		first = err
	}
	for _, c := range o.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create opens path on fs for writing, creating parent directories and
// compressing according to the extension.
func Create(fs afero.Fs, path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	switch CompressionFor(path) {
	case CompressionGzip:
		zw := gzip.NewWriter(f)
		return &output{Writer: bufio.NewWriter(zw), closers: []io.Closer{zw, f}}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &output{Writer: bufio.NewWriter(enc), closers: []io.Closer{enc, f}}, nil
	default:
		return &output{Writer: bufio.NewWriter(f), closers: []io.Closer{f}}, nil
	}
}

// Open reads a document written by Create, decompressing by extension.
func Open(fs afero.Fs, path string) (io.ReadCloser, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	switch CompressionFor(path) {
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{Reader: zr, close: func() error { _ = zr.Close(); return f.Close() }}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return f.Close() }}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }
