package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"
)

var (
	// updateGolden rewrites golden files instead of comparing.
	// Use: go test ./... -run TestGolden -update
	updateGolden = flag.Bool("update", false, "update golden files")

	// goldenFixture filters which fixtures run.
	// Use: go test ./... -run TestGolden -goldenFixture=java-shop
	goldenFixture = flag.String("goldenFixture", "", "filter fixtures (comma-separated)")
)

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// ShouldTestFixture reports whether the -goldenFixture filter admits name.
func ShouldTestFixture(name string) bool {
	if *goldenFixture == "" {
		return true
	}
	for _, f := range strings.Split(*goldenFixture, ",") {
		if strings.TrimSpace(f) == name {
			return true
		}
	}
	return false
}

// NormalizeText makes output comparable across machines: CRLF becomes LF
// and the fixture's absolute root becomes "<fixture>".
func NormalizeText(fixture *FixtureContext, got []byte) []byte {
	s := strings.ReplaceAll(string(got), "\r\n", "\n")
	if fixture != nil && fixture.Root != "" {
		s = strings.ReplaceAll(s, fixture.Root, "<fixture>")
	}
	return []byte(s)
}

// CompareGolden compares got against the named golden file, failing with a
// diff on mismatch. With -update the golden file is rewritten instead.
func CompareGolden(t *testing.T, fixture *FixtureContext, name string, got []byte) {
	t.Helper()

	normalized := NormalizeText(fixture, got)
	goldenPath := fixture.ExpectedPath(name)

	if *updateGolden {
		UpdateGolden(t, fixture, name, normalized)
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, normalized, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}
	expected = NormalizeText(nil, expected)

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, unifiedDiff(string(expected), string(normalized), goldenPath), t.Name())
	}
}

// UpdateGolden writes data to the golden file, creating the expected
// directory when needed.
func UpdateGolden(t *testing.T, fixture *FixtureContext, name string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(fixture.ExpectedDir, 0o755); err != nil {
		t.Fatalf("Failed to create expected directory: %v", err)
	}
	if err := os.WriteFile(fixture.ExpectedPath(name), data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

// unifiedDiff is a line-by-line diff with three lines of leading context.
// It does not detect moved blocks.
func unifiedDiff(expected, got, path string) string {
	var buf bytes.Buffer

	expectedLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")

	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	n := max(len(expectedLines), len(gotLines))

	inHunk := false
	hunkStart := 0
	var hunkLines []string

	flushHunk := func() {
		if len(hunkLines) == 0 {
			return
		}
		fmt.Fprintf(&buf, "@@ -%d +%d @@\n", hunkStart+1, hunkStart+1)
		for _, line := range hunkLines {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		hunkLines = nil
	}

	for i := 0; i < n; i++ {
		var expLine, gotLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(gotLines) {
			gotLine = gotLines[i]
		}

		if expLine == gotLine {
			if inHunk {
				hunkLines = append(hunkLines, " "+expLine)
				if len(hunkLines) > 6 {
					flushHunk()
					inHunk = false
				}
			}
			continue
		}

		if !inHunk {
			inHunk = true
			hunkStart = i
			for j := max(0, i-3); j < i; j++ {
				hunkLines = append(hunkLines, " "+expectedLines[j])
			}
		}
		if i < len(expectedLines) {
			hunkLines = append(hunkLines, "-"+expLine)
		}
		if i < len(gotLines) {
			hunkLines = append(hunkLines, "+"+gotLine)
		}
	}
	flushHunk()

	return buf.String()
}

// ForEachFixture runs fn for every fixture with golden files. It respects
// the -goldenFixture flag, and -short runs only the first fixture.
func ForEachFixture(t *testing.T, fn func(t *testing.T, fixture *FixtureContext)) {
	t.Helper()

	names := AvailableFixtures(t)
	if len(names) == 0 {
		t.Skip("No fixtures available")
	}
	if testing.Short() && len(names) > 1 {
		names = names[:1]
	}

	for _, name := range names {
		if !ShouldTestFixture(name) {
			continue
		}
		t.Run(name, func(t *testing.T) {
			fn(t, LoadFixture(t, name))
		})
	}
}
