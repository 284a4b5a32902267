// Package testutil provides fixture repositories and golden-file
// comparison for tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
)

// FixtureContext holds information about a loaded fixture repository.
type FixtureContext struct {
	// Name is the fixture directory name, e.g. "java-shop"
	Name string

	// Root is the absolute path to the fixture repository
	Root string

	// ExpectedDir holds the golden files
	ExpectedDir string
}

// LoadFixture loads a fixture from testdata/fixtures, failing the test when
// it does not exist.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	root := filepath.Join(getFixturesRoot(t), name)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", root)
	}

	return &FixtureContext{
		Name:        name,
		Root:        root,
		ExpectedDir: filepath.Join(root, "expected"),
	}
}

// Fs returns a read-only filesystem rooted at the fixture repository.
func (f *FixtureContext) Fs() afero.Fs {
	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), f.Root))
}

// ExpectedPath returns the path to a golden file. The name carries its own
// extension.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name)
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// internal/testutil -> project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}
	return fixturesRoot
}

// AvailableFixtures lists the fixture repositories that have golden files.
func AvailableFixtures(t *testing.T) []string {
	t.Helper()

	root := getFixturesRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || isHiddenDir(entry.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "expected")); err == nil {
			names = append(names, entry.Name())
		}
	}
	return names
}

func isHiddenDir(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
