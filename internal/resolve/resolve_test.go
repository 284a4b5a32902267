package resolve

import (
	"testing"

	"github.com/spf13/afero"

	"depflat/internal/imports"
)

func newFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestResolve_Java(t *testing.T) {
	fs := newFs(t,
		"src/main/java/com/example/util/Strings.java",
		"src/main/java/com/example/util/Math.java",
	)
	r := New(fs, "java", "src/main/java", false)

	tests := []struct {
		name string
		ref  imports.Reference
		want string
		ok   bool
	}{
		{"single type", imports.Reference{Name: "com.example.util.Strings"}, "src/main/java/com/example/util/Strings.java", true},
		{"missing", imports.Reference{Name: "com.example.Missing"}, "", false},
		{"standard library", imports.Reference{Name: "java.util.List"}, "", false},
		{"wildcard never expands", imports.Reference{Name: "com.example.util", Wildcard: true}, "", false},
		{"static member", imports.Reference{Name: "com.example.util.Math.max", Static: true}, "src/main/java/com/example/util/Math.java", true},
		{"static type", imports.Reference{Name: "com.example.util.Math", Static: true}, "src/main/java/com/example/util/Math.java", true},
		{"non-static member does not fall back", imports.Reference{Name: "com.example.util.Math.max"}, "", false},
		{"package directory is not a file", imports.Reference{Name: "com.example.util"}, "", false},
		{"empty name", imports.Reference{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.ref, "src/main/java/com/example/App.java")
			if ok != tt.ok || got != tt.want {
				t.Errorf("Resolve(%+v) = (%q, %v), want (%q, %v)", tt.ref, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve_Kotlin(t *testing.T) {
	fs := newFs(t, "src/a/B.kt", "src/a/C.java")
	r := New(fs, "kotlin", "./src/", false)

	if got, ok := r.Resolve(imports.Reference{Name: "a.B"}, "src/Main.kt"); !ok || got != "src/a/B.kt" {
		t.Errorf("Resolve(a.B) = (%q, %v)", got, ok)
	}
	if got, ok := r.Resolve(imports.Reference{Name: "a.C"}, "src/Main.kt"); !ok || got != "src/a/C.java" {
		t.Errorf("Resolve(a.C) = (%q, %v), want Java interop file", got, ok)
	}
}

func TestResolve_Script(t *testing.T) {
	fs := newFs(t,
		"web/src/App.tsx",
		"web/src/lib/util.js",
		"web/src/components/index.ts",
		"web/src/App.css",
		"web/src/theme.scss",
		"web/logo.png",
		"outside.js",
	)
	r := New(fs, "typescript", "", false)
	from := "web/src/main.ts"

	tests := []struct {
		spec string
		want string
		ok   bool
	}{
		{"./App", "web/src/App.tsx", true},
		{"./lib/util", "web/src/lib/util.js", true},
		{"./lib/util.js", "web/src/lib/util.js", true},
		{"./components", "web/src/components/index.ts", true},
		{"../logo.png", "web/logo.png", true},
		{"/outside", "outside.js", true},
		{"./App.css", "web/src/App.css", true},
		{"./theme", "", false},
		{"./missing", "", false},
		{"../../../etc/passwd", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := r.Resolve(imports.Reference{Name: tt.spec}, from)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.spec, got, ok, tt.want, tt.ok)
			}
		})
	}

	withCSS := New(fs, "typescript", "", true)
	if got, ok := withCSS.Resolve(imports.Reference{Name: "./theme"}, from); !ok || got != "web/src/theme.scss" {
		t.Errorf("Resolve(./theme) with css = (%q, %v)", got, ok)
	}
}

func TestResolve_UnknownLanguage(t *testing.T) {
	r := New(newFs(t, "a.py"), "python", "", false)
	if _, ok := r.Resolve(imports.Reference{Name: "a"}, "b.py"); ok {
		t.Error("unknown language should never resolve")
	}
}

func TestDefaultSourceRoot(t *testing.T) {
	fs := newFs(t, "src/main/java/A.java")
	if got := DefaultSourceRoot(fs, "java"); got != "src/main/java" {
		t.Errorf("DefaultSourceRoot(java) = %q", got)
	}
	if got := DefaultSourceRoot(fs, "kotlin"); got != "src/main/java" {
		t.Errorf("DefaultSourceRoot(kotlin) = %q", got)
	}
	if got := DefaultSourceRoot(afero.NewMemMapFs(), "java"); got != "" {
		t.Errorf("DefaultSourceRoot(empty) = %q", got)
	}
	if got := DefaultSourceRoot(fs, "javascript"); got != "" {
		t.Errorf("DefaultSourceRoot(javascript) = %q", got)
	}
}
