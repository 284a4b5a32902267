// Package textload reads repository files as text, detecting binaries and
// decoding non-UTF-8 content.
package textload

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Kind classifies a loaded file.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Encoding names reported in Document.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
)

// sniffLen bounds how much of a file is inspected for NUL bytes.
const sniffLen = 8000

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true,
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".jar": true, ".zst": true,
	".ico": true, ".pdf": true, ".doc": true, ".docx": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".pyc": true, ".class": true, ".o": true, ".a": true,
}

// Document is one file's decoded content.
type Document struct {
	Path     string
	Kind     Kind
	Encoding string
	Text     string
}

// Loader reads files from a repo-rooted filesystem.
type Loader struct {
	Fs afero.Fs
}

// New creates a loader over fs.
func New(fs afero.Fs) *Loader {
	return &Loader{Fs: fs}
}

// IsImage reports whether rel has an image extension.
func IsImage(rel string) bool {
	return imageExts[strings.ToLower(filepath.Ext(rel))]
}

// Load reads rel. Images are classified by extension and never read. Other
// files are read in full; binary content yields KindBinary with empty Text.
// Only I/O failures are returned as errors.
func (l *Loader) Load(rel string) (Document, error) {
	doc := Document{Path: rel}
	ext := strings.ToLower(filepath.Ext(rel))
	if imageExts[ext] {
		doc.Kind = KindImage
		return doc, nil
	}
	if binaryExts[ext] {
		doc.Kind = KindBinary
		return doc, nil
	}

	data, err := afero.ReadFile(l.Fs, rel)
	if err != nil {
		return doc, err
	}
	text, enc, ok := Decode(data)
	if !ok {
		doc.Kind = KindBinary
		return doc, nil
	}
	doc.Kind = KindText
	doc.Encoding = enc
	doc.Text = text
	return doc, nil
}

// Decode converts raw bytes to text. It honours UTF-8 and UTF-16 byte order
// marks, accepts valid UTF-8 as is, and otherwise falls back to
// Windows-1252. ok is false for content that looks binary.
func Decode(data []byte) (text, enc string, ok bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		data = data[3:]
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data, EncodingUTF16LE)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data, EncodingUTF16BE)
	}

	if looksBinary(data) {
		return "", "", false
	}
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, true
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", false
	}
	return string(out), EncodingWindows1252, true
}

func decodeWith(enc encoding.Encoding, data []byte, name string) (string, string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", false
	}
	return string(out), name, true
}

// looksBinary reports NUL bytes or a high share of control characters in
// the leading sniffLen bytes.
func looksBinary(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	if len(head) == 0 {
		return false
	}
	control := 0
	for _, b := range head {
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			control++
		}
	}
	return control*10 > len(head)*3
}
