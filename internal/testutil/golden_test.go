package testutil

import (
	"strings"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	fx := &FixtureContext{Root: "/work/testdata/fixtures/java-shop"}
	got := string(NormalizeText(fx, []byte("path=/work/testdata/fixtures/java-shop/src/A.java\r\nnext\n")))
	if got != "path=<fixture>/src/A.java\nnext\n" {
		t.Errorf("NormalizeText() = %q", got)
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff := unifiedDiff("a\nb\nc\n", "a\nB\nc\n", "x.txt")
	for _, want := range []string{"--- x.txt (expected)", "+++ x.txt (got)", "-b", "+B", " a"} {
		if !strings.Contains(diff, want) {
			t.Errorf("diff missing %q:\n%s", want, diff)
		}
	}
	if strings.Contains(unifiedDiff("same\n", "same\n", "x"), "@@") {
		t.Error("identical input should produce no hunks")
	}
}

func TestAvailableFixtures(t *testing.T) {
	names := AvailableFixtures(t)
	found := false
	for _, n := range names {
		if n == "java-shop" {
			found = true
		}
	}
	if !found {
		t.Errorf("AvailableFixtures() = %v, want java-shop", names)
	}
}
