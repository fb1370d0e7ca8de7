package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestResolveEmptyPathIsWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	got, err := ResolveAbsolutePath("")
	if err != nil {
		t.Fatalf("ResolveAbsolutePath(\"\"): %v", err)
	}
	if got != wd {
		t.Errorf("ResolveAbsolutePath(\"\") = %q, want %q", got, wd)
	}
}

func TestResolveTildeExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got, err := ResolveAbsolutePath("~/fsdrill-does-not-exist")
	if err != nil {
		t.Fatalf("ResolveAbsolutePath: %v", err)
	}
	resolvedHome, err := filepath.EvalSymlinks(home)
	if err != nil {
		resolvedHome = home
	}
	if !strings.HasPrefix(got, resolvedHome) {
		t.Errorf("resolved path %q does not start with home %q", got, resolvedHome)
	}
	if filepath.Base(got) != "fsdrill-does-not-exist" {
		t.Errorf("resolved path %q lost its final component", got)
	}
}

func TestResolveMissingTailKeepsComponents(t *testing.T) {
	base := t.TempDir()

	got, err := ResolveAbsolutePath(filepath.Join(base, "not", "yet", "created"))
	if err != nil {
		t.Fatalf("ResolveAbsolutePath: %v", err)
	}

	resolvedBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		resolvedBase = base
	}
	want := filepath.Join(resolvedBase, "not", "yet", "created")
	if got != want {
		t.Errorf("ResolveAbsolutePath = %q, want %q", got, want)
	}
}

func TestResolveThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}

	base := t.TempDir()
	real := filepath.Join(base, "real")
	if err := os.Mkdir(real, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	got, err := ResolveAbsolutePath(filepath.Join(link, "workspace"))
	if err != nil {
		t.Fatalf("ResolveAbsolutePath: %v", err)
	}

	resolvedReal, err := filepath.EvalSymlinks(real)
	if err != nil {
		resolvedReal = real
	}
	want := filepath.Join(resolvedReal, "workspace")
	if got != want {
		t.Errorf("ResolveAbsolutePath = %q, want %q (symlink not resolved)", got, want)
	}
}
