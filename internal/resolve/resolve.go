// Package resolve maps import references to repo-relative files.
//
// The resolver never fails: a reference that does not correspond to a file
// under the repository (standard library, third-party packages, wildcard
// imports, paths escaping the repo) resolves to nothing.
package resolve

import (
	"path"
	"strings"

	"github.com/spf13/afero"

	"depflat/internal/config"
	"depflat/internal/imports"
	"depflat/internal/paths"
)

// Conventional source roots probed when none is configured.
var defaultSourceRoots = map[string][]string{
	config.LanguageJava:   {"src/main/java"},
	config.LanguageKotlin: {"src/main/kotlin", "src/main/java"},
}

var (
	scriptSuffixes = []string{"", ".js", ".jsx", ".ts", ".tsx",
		"/index.js", "/index.jsx", "/index.ts", "/index.tsx"}
	styleSuffixes = []string{".css", ".scss", ".sass",
		".module.css", ".module.scss", ".module.sass",
		"/index.css", "/index.scss", "/index.sass"}
)

// Resolver resolves references for one language. Fs is rooted at the
// repository, so every name it sees is repo-relative.
type Resolver struct {
	Fs         afero.Fs
	SourceRoot string
	Language   string
	IncludeCSS bool
}

// New creates a resolver over fs.
func New(fs afero.Fs, language, sourceRoot string, includeCSS bool) *Resolver {
	return &Resolver{
		Fs:         fs,
		SourceRoot: paths.Clean(sourceRoot),
		Language:   language,
		IncludeCSS: includeCSS,
	}
}

// DefaultSourceRoot returns the first conventional source root for language
// that exists as a directory in fs, or "" (the repo root).
func DefaultSourceRoot(fs afero.Fs, language string) string {
	for _, dir := range defaultSourceRoots[language] {
		if ok, err := afero.DirExists(fs, dir); err == nil && ok {
			return dir
		}
	}
	return ""
}

// Resolve maps ref, found in the file at repo-relative path from, to an
// existing repo-relative file.
func (r *Resolver) Resolve(ref imports.Reference, from string) (string, bool) {
	switch r.Language {
	case config.LanguageJava, config.LanguageKotlin:
		return r.resolveDotted(ref)
	case config.LanguageJavaScript, config.LanguageTypeScript:
		return r.resolveScript(ref.Name, from)
	default:
		return "", false
	}
}

func (r *Resolver) resolveDotted(ref imports.Reference) (string, bool) {
	if ref.Wildcard || ref.Name == "" {
		return "", false
	}
	segments := strings.Split(ref.Name, ".")
	if p, ok := r.findType(segments); ok {
		return p, true
	}
	// import static a.b.C.m names a member; the file is a/b/C.
	if ref.Static && len(segments) > 1 {
		return r.findType(segments[:len(segments)-1])
	}
	return "", false
}

func (r *Resolver) findType(segments []string) (string, bool) {
	base := path.Join(append([]string{r.SourceRoot}, segments...)...)
	for _, ext := range r.dottedExtensions() {
		if p, ok := r.existing(base + ext); ok {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) dottedExtensions() []string {
	if r.Language == config.LanguageKotlin {
		return []string{".kt", ".java"}
	}
	return []string{".java"}
}

func (r *Resolver) resolveScript(spec, from string) (string, bool) {
	var base string
	if strings.HasPrefix(spec, "/") {
		base = strings.TrimLeft(spec, "/")
	} else {
		base = path.Join(path.Dir(paths.Clean(from)), spec)
	}

	suffixes := scriptSuffixes
	if r.IncludeCSS {
		suffixes = append(append([]string{}, scriptSuffixes...), styleSuffixes...)
	}
	for _, suf := range suffixes {
		if p, ok := r.existing(base + suf); ok {
			return p, true
		}
	}
	return "", false
}

// existing cleans candidate and reports it when it is a regular file inside
// the repository.
func (r *Resolver) existing(candidate string) (string, bool) {
	p := paths.Clean(candidate)
	if p == "" || !paths.IsRelWithinRepo(p) {
		return "", false
	}
	info, err := r.Fs.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
