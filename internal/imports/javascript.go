package imports

import (
	"regexp"
	"sort"
	"strings"
)

// Each pattern captures the specifier in group 1. The match start is the
// keyword, which must sit in code (not in a comment or string) to count.
var scriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bimport\s+[^'";]*?\bfrom\s*['"]([^'"\n]+)['"]`),
	regexp.MustCompile(`\bexport\s+[^'";]*?\bfrom\s*['"]([^'"\n]+)['"]`),
	regexp.MustCompile(`\bimport\s*['"]([^'"\n]+)['"]`),
	regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`),
	regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`),
}

var styleSuffixes = []string{".module.scss", ".css", ".scss", ".sass"}

// ScriptExtractor recognizes ES module imports and re-exports, CommonJS
// require calls and dynamic import(). Only local specifiers (starting with
// '.' or '/') are returned; bare package names never map to repo files.
type ScriptExtractor struct {
	// IncludeCSS keeps style sheet imports.
	IncludeCSS bool
}

// Extract implements Extractor.
func (s ScriptExtractor) Extract(src []byte) []Reference {
	masked := mask(src, scriptStyle)

	type hit struct {
		offset int
		name   string
	}
	var hits []hit
	seen := make(map[int]bool)
	for _, re := range scriptPatterns {
		for _, loc := range re.FindAllSubmatchIndex(src, -1) {
			start := loc[0]
			if masked[start] != src[start] || seen[start] {
				continue
			}
			seen[start] = true
			hits = append(hits, hit{offset: start, name: string(src[loc[2]:loc[3]])})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	var refs []Reference
	for _, h := range hits {
		if !isLocalSpecifier(h.name) {
			continue
		}
		if !s.IncludeCSS && IsStyleSpecifier(h.name) {
			continue
		}
		refs = append(refs, Reference{Name: h.name, Line: lineAt(src, h.offset)})
	}
	return refs
}

func isLocalSpecifier(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

// IsStyleSpecifier reports whether spec names a style sheet.
func IsStyleSpecifier(spec string) bool {
	lower := strings.ToLower(spec)
	for _, suf := range styleSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}
