// Package imports extracts symbolic import references from source text.
//
// Extraction is lexical and best-effort: comments and string literals are
// masked before matching, every pattern is anchored to statement syntax, and
// nothing here ever returns an error. Content that cannot be understood simply
// yields no references.
package imports

import (
	"path/filepath"
	"strings"

	"depflat/internal/config"
)

// Reference is one import as written in a source file.
type Reference struct {
	// Name is the dotted name (Java, Kotlin) or module specifier (JS/TS),
	// with whitespace removed and without any trailing ".*".
	Name string `json:"name"`

	// Line is the 1-based line on which the import starts.
	Line int `json:"line"`

	// Wildcard marks "import a.b.*" forms.
	Wildcard bool `json:"wildcard,omitempty"`

	// Static marks "import static" forms. Only the dotted path matters for
	// resolution; the flag is kept for diagnostics.
	Static bool `json:"static,omitempty"`
}

// Extractor turns source text into references in textual order.
// Duplicates are preserved; deduplication happens at the graph level.
type Extractor interface {
	Extract(src []byte) []Reference
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(src []byte) []Reference

// Extract implements Extractor.
func (f ExtractorFunc) Extract(src []byte) []Reference { return f(src) }

// Options tunes extractor construction.
type Options struct {
	// IncludeCSS keeps JS/TS style imports (.css, .scss, .sass).
	IncludeCSS bool

	// TreeSitter selects the syntax-tree Java extractor when the binary was
	// built with cgo. Ignored for other languages.
	TreeSitter bool
}

// LanguagePattern describes the files a language extractor understands.
type LanguagePattern struct {
	// Language name
	Language string

	// Extensions lists file extensions for this language
	Extensions []string
}

var builtinLanguages = []LanguagePattern{
	{Language: config.LanguageJava, Extensions: []string{".java"}},
	{Language: config.LanguageKotlin, Extensions: []string{".kt", ".kts"}},
	{Language: config.LanguageTypeScript, Extensions: []string{".ts", ".tsx"}},
	{Language: config.LanguageJavaScript, Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
}

// LanguageFromPath detects a language from the file extension, or "" when unknown.
func LanguageFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for _, lp := range builtinLanguages {
		for _, e := range lp.Extensions {
			if e == ext {
				return lp.Language
			}
		}
	}
	return ""
}

// New returns the extractor for language. Unknown languages get an extractor
// that never finds anything.
func New(language string, opts Options) Extractor {
	switch language {
	case config.LanguageJava:
		if opts.TreeSitter {
			return NewTreeSitterJava()
		}
		return JavaExtractor{}
	case config.LanguageKotlin:
		return KotlinExtractor{}
	case config.LanguageJavaScript, config.LanguageTypeScript:
		return ScriptExtractor{IncludeCSS: opts.IncludeCSS}
	default:
		return ExtractorFunc(func([]byte) []Reference { return nil })
	}
}

// lineAt returns the 1-based line number of offset in src.
func lineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	line := 1
	for _, b := range src[:offset] {
		if b == '\n' {
			line++
		}
	}
	return line
}
