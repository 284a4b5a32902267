//go:build !cgo

package imports

// NewTreeSitterJava returns the lexical Java extractor when cgo is not
// available.
func NewTreeSitterJava() Extractor {
	return JavaExtractor{}
}

// Available reports whether syntax-tree extraction is compiled in.
func Available() bool {
	return false
}
