package imports

import (
	"bytes"
	"regexp"
	"strings"
)

// javaImportStmt matches one complete import statement with the trailing ';'
// already removed and surrounding whitespace trimmed. Identifiers may use any
// Unicode letter.
var javaImportStmt = regexp.MustCompile(
	`^import\s+(static\s+)?([\p{L}_$][\p{L}\p{N}_$]*(?:\s*\.\s*[\p{L}_$][\p{L}\p{N}_$]*)*)(\s*\.\s*\*)?$`)

// kotlinImportLine matches an import directive occupying a whole line.
var kotlinImportLine = regexp.MustCompile(
	`(?m)^[ \t]*import[ \t]+([\p{L}_][\p{L}\p{N}_]*(?:[ \t]*\.[ \t]*[\p{L}_][\p{L}\p{N}_]*)*)([ \t]*\.[ \t]*\*)?(?:[ \t]+as[ \t]+[\p{L}\p{N}_]+)?[ \t]*;?[ \t]*$`)

var whitespace = regexp.MustCompile(`\s+`)

// JavaExtractor recognizes single-type, on-demand (wildcard) and static
// imports. Source is split into ';'-terminated statements after masking, so
// an import mentioned inside a comment or string never matches.
type JavaExtractor struct{}

// Extract implements Extractor.
func (JavaExtractor) Extract(src []byte) []Reference {
	masked := mask(src, javaStyle)

	var refs []Reference
	start := 0
	for {
		end := bytes.IndexByte(masked[start:], ';')
		if end < 0 {
			break
		}
		stmt := masked[start : start+end]
		body := bytes.TrimSpace(stmt)
		if bytes.HasPrefix(body, []byte("import")) {
			if sub := javaImportStmt.FindSubmatch(body); sub != nil {
				lead := bytes.Index(stmt, body)
				refs = append(refs, Reference{
					Name:     compactName(sub[2]),
					Line:     lineAt(src, start+lead),
					Wildcard: len(sub[3]) > 0,
					Static:   len(sub[1]) > 0,
				})
			}
		}
		start += end + 1
	}
	return refs
}

// KotlinExtractor recognizes Kotlin import directives, which need no ';'
// and may carry an "as" alias.
type KotlinExtractor struct{}

// Extract implements Extractor.
func (KotlinExtractor) Extract(src []byte) []Reference {
	masked := mask(src, javaStyle)

	var refs []Reference
	for _, loc := range kotlinImportLine.FindAllSubmatchIndex(masked, -1) {
		refs = append(refs, Reference{
			Name:     compactName(masked[loc[2]:loc[3]]),
			Line:     lineAt(src, loc[2]),
			Wildcard: loc[4] >= 0,
		})
	}
	return refs
}

func compactName(b []byte) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(string(b)), "")
}
