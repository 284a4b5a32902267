package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"depflat/internal/config"
	"depflat/internal/slogutil"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--quiet"))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEngineFlagsApply(t *testing.T) {
	var f engineFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)

	if err := cmd.Flags().Set("depth", "3"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("workers", "4"); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Language = config.LanguageKotlin
	f.apply(cmd, cfg)

	if cfg.Depth != "3" || cfg.Workers != 4 {
		t.Errorf("depth=%q workers=%d, want 3 and 4", cfg.Depth, cfg.Workers)
	}
	if cfg.Language != config.LanguageKotlin {
		t.Errorf("unset flag overwrote language: %q", cfg.Language)
	}
}

func TestWorkspaceEntries(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/A.java": "class A {}\n"})

	cfg := config.DefaultConfig()
	cfg.Repo = root
	ws, err := openWorkspace(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}

	outside := filepath.Join(t.TempDir(), "B.java")
	got := ws.entries([]string{filepath.Join(ws.root, "src", "A.java"), "src/A.java", outside}, slogutil.NewDiscardLogger())
	want := []string{"src/A.java", "src/A.java", outside}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSameSyntax(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{config.LanguageJava, config.LanguageJava, true},
		{config.LanguageJava, config.LanguageKotlin, true},
		{config.LanguageTypeScript, config.LanguageJavaScript, true},
		{config.LanguageJavaScript, config.LanguageJava, false},
	}
	for _, tt := range tests {
		if got := sameSyntax(tt.a, tt.b); got != tt.want {
			t.Errorf("sameSyntax(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEncodeConfig(t *testing.T) {
	cfg := sampleConfig()

	for _, format := range []string{"yaml", "json", "toml"} {
		t.Run(format, func(t *testing.T) {
			data, err := encodeConfig(cfg, format)
			if err != nil {
				t.Fatalf("encodeConfig(%s) error = %v", format, err)
			}
			if !strings.Contains(string(data), "src/main/java/com/example/App.java") {
				t.Errorf("entry missing from %s output:\n%s", format, data)
			}
		})
	}

	data, err := encodeConfig(cfg, "toml")
	if err != nil {
		t.Fatal(err)
	}
	var back config.Config
	if err := toml.Unmarshal(data, &back); err != nil {
		t.Fatalf("toml output does not parse: %v", err)
	}
	if back.Depth != "2" || back.Language != config.LanguageJava {
		t.Errorf("toml round trip = %+v", back)
	}

	if _, err := encodeConfig(cfg, "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestFlattenAndHistory(t *testing.T) {
	repo := t.TempDir()
	writeFiles(t, repo, map[string]string{
		".repoignore": "**/test/**\n",
		"src/main/java/com/acme/App.java": "package com.acme;\n" +
			"import com.acme.util.Util;\n" +
			"import com.acme.test.Fixture;\n" +
			"import java.util.List;\n" +
			"class App {}\n",
		"src/main/java/com/acme/util/Util.java":     "package com.acme.util;\nclass Util {}\n",
		"src/main/java/com/acme/test/Fixture.java": "package com.acme.test;\nclass Fixture {}\n",
	})
	out := filepath.Join(t.TempDir(), "flat.txt")

	stdout, err := execute(t, "flatten", "--repo", repo, "--output", out, "--format", "json",
		"src/main/java/com/acme/App.java")
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	var report flattenReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout)
	}
	if len(report.Targets) != 1 || report.Targets[0].Stats.Discovered != 2 {
		t.Fatalf("report = %+v", report)
	}

	flat, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(flat)
	if !strings.HasPrefix(doc, "===== FILE: src/main/java/com/acme/App.java =====\n") {
		t.Errorf("document does not start with the entry:\n%s", doc)
	}
	if !strings.Contains(doc, "===== FILE: src/main/java/com/acme/util/Util.java =====\n") {
		t.Errorf("imported file missing:\n%s", doc)
	}
	if strings.Contains(doc, "Fixture.java") {
		t.Errorf("ignored file emitted:\n%s", doc)
	}

	stdout, err = execute(t, "history", "--repo", repo, "--format", "json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(stdout, `"discovered": 2`) {
		t.Errorf("history does not show the run:\n%s", stdout)
	}
}

func TestScanAndExtract(t *testing.T) {
	repo := t.TempDir()
	writeFiles(t, repo, map[string]string{
		".repoignore":  "build\n.depflat\n",
		"a.txt":        "alpha beta",
		"b.txt":        "gamma",
		"build/gen.go": "package gen",
	})
	out := filepath.Join(t.TempDir(), "extract.txt")

	stdout, err := execute(t, "scan", "--repo", repo, "--list")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	// .repoignore itself is a text file and gets indexed first.
	if !strings.Contains(stdout, "2\ta.txt\n3\tb.txt\n") {
		t.Errorf("unexpected index listing:\n%s", stdout)
	}
	if strings.Contains(stdout, "build/gen.go") {
		t.Errorf("ignored directory indexed:\n%s", stdout)
	}

	stdout, err = execute(t, "extract", "--repo", repo, "--files", "3,2,99", "--output", out)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "===== FILE ID 3 : b.txt =====\ngamma\n===== FILE ID 2 : a.txt =====\nalpha beta\n"
	if string(data) != want {
		t.Errorf("extract output = %q, want %q", data, want)
	}
	if !strings.Contains(stdout, "has been produced with an estimated") {
		t.Errorf("missing token summary: %s", stdout)
	}
}
