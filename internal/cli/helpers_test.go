package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/veldtlabs/fsdrill/internal/localfs"
	"github.com/veldtlabs/fsdrill/internal/runner"
)

// TestFSPathContainment tests workspace path resolution
func TestFSPathContainment(t *testing.T) {
	ws := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "relative path joins the workspace",
			path: "notes.txt",
			want: filepath.Join(ws, "notes.txt"),
		},
		{
			name: "nested relative path",
			path: "sub/dir/file.txt",
			want: filepath.Join(ws, "sub", "dir", "file.txt"),
		},
		{
			name: "absolute path inside the workspace",
			path: filepath.Join(ws, "a.txt"),
			want: filepath.Join(ws, "a.txt"),
		},
		{
			name:    "traversal out of the workspace",
			path:    "../escape.txt",
			wantErr: true,
		},
		{
			name:    "absolute path outside the workspace",
			path:    filepath.Join(filepath.Dir(ws), "other", "b.txt"),
			wantErr: true,
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fsPath(ws, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("fsPath(%q, %q) = %q, want error", ws, tt.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("fsPath(%q, %q) error: %v", ws, tt.path, err)
			}
			if got != tt.want {
				t.Errorf("fsPath(%q, %q) = %q, want %q", ws, tt.path, got, tt.want)
			}
		})
	}
}

// TestDisplayName tests directory name decoration
func TestDisplayName(t *testing.T) {
	dir := localfs.FileEntry{Name: "runs", IsDir: true}
	if got := displayName(dir); got != "runs/" {
		t.Errorf("displayName(dir) = %q, want %q", got, "runs/")
	}

	file := localfs.FileEntry{Name: "notes.txt"}
	if got := displayName(file); got != "notes.txt" {
		t.Errorf("displayName(file) = %q, want %q", got, "notes.txt")
	}
}

// TestPlural tests count-based word selection
func TestPlural(t *testing.T) {
	if got := plural(1, "y", "ies"); got != "y" {
		t.Errorf("plural(1) = %q, want %q", got, "y")
	}
	if got := plural(0, "y", "ies"); got != "ies" {
		t.Errorf("plural(0) = %q, want %q", got, "ies")
	}
	if got := plural(3, "", "s"); got != "s" {
		t.Errorf("plural(3) = %q, want %q", got, "s")
	}
}

// TestFirstFailure tests failure reason extraction
func TestFirstFailure(t *testing.T) {
	snaps := []runner.TaskSnapshot{
		{ID: 1, Status: runner.TaskCompleted},
		{ID: 2, Status: runner.TaskFailed, Error: "read input: no such file"},
		{ID: 3, Status: runner.TaskFailed, Error: "later failure"},
	}

	if got := firstFailure(snaps); !strings.Contains(got, "no such file") {
		t.Errorf("firstFailure() = %q, want the first recorded error", got)
	}

	if got := firstFailure(snaps[:1]); got != "" {
		t.Errorf("firstFailure() on clean snapshots = %q, want empty", got)
	}
}

// TestLaunchCmdFlags tests the launch command structure
func TestLaunchCmdFlags(t *testing.T) {
	cmd := newLaunchCmd()
	if cmd == nil {
		t.Fatal("newLaunchCmd() returned nil")
	}

	if cmd.Use != "launch" {
		t.Errorf("Expected Use='launch', got '%s'", cmd.Use)
	}

	for _, name := range []string{"tasks", "script", "json"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

// TestDiskCmdSubcommands tests the disk command group
func TestDiskCmdSubcommands(t *testing.T) {
	cmd := newDiskCmd()
	if cmd == nil {
		t.Fatal("newDiskCmd() returned nil")
	}

	expectedSubs := []string{
		"init", "create", "mkdir", "delete", "move",
		"write", "read", "truncate", "list", "map",
	}

	foundSubs := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		foundSubs[sub.Name()] = true
	}

	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}
}

// TestFSCmdSubcommands tests the fs command group
func TestFSCmdSubcommands(t *testing.T) {
	cmd := newFSCmd()
	if cmd == nil {
		t.Fatal("newFSCmd() returned nil")
	}

	expectedSubs := []string{"list", "create", "mkdir", "delete", "move", "map", "watch"}

	foundSubs := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		foundSubs[sub.Name()] = true
	}

	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}
}
