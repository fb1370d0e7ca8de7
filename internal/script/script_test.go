package script

import (
	"strings"
	"testing"

	"github.com/veldtlabs/fsdrill/internal/vdisk"
)

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	d, err := vdisk.Open(vdisk.Options{Dir: t.TempDir(), Capacity: 65536})
	if err != nil {
		t.Fatalf("Open disk: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewInterpreter(d)
}

func TestRunDefaultScript(t *testing.T) {
	in := newTestInterpreter(t)

	var out strings.Builder
	if err := in.Run(strings.NewReader(DefaultScript(1)), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := strings.Join([]string{
		"Created file: file1.txt",
		"Opened file: file1.txt in w mode",
		"Wrote to file: file1.txt",
		"Current content of file1.txt: Data from Thread 1",
		"Memory map displayed",
		"Closed file: file1.txt",
		"Memory map displayed",
	}, "\n") + "\n"
	if out.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestDefaultScriptNamesFollowTask(t *testing.T) {
	s := DefaultScript(7)
	for _, line := range []string{
		"create file7.txt",
		"open file7.txt w",
		`write_to_file file7.txt "Data from Thread 7"`,
		"close file7.txt",
	} {
		if !strings.Contains(s, line+"\n") {
			t.Errorf("script missing %q:\n%s", line, s)
		}
	}
}

func TestExecuteInvalidArguments(t *testing.T) {
	in := newTestInterpreter(t)

	tests := []struct {
		line string
		want string
	}{
		{"create", "Error: Invalid arguments for create command"},
		{"create a.txt b.txt", "Error: Invalid arguments for create command"},
		{"open a.txt", "Error: Invalid arguments for open command"},
		{"write_to_file a.txt", "Error: Invalid arguments for write_to_file command"},
		{"close", "Error: Invalid arguments for close command"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := in.Execute(tt.line)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Execute(%q) = %v, want [%q]", tt.line, got, tt.want)
			}
		})
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	in := newTestInterpreter(t)

	got := in.Execute("frobnicate a.txt")
	if len(got) != 1 || got[0] != "Error: Unknown command: frobnicate" {
		t.Errorf("Execute = %v", got)
	}
}

func TestExecuteBlankLine(t *testing.T) {
	in := newTestInterpreter(t)

	if got := in.Execute("   "); got != nil {
		t.Errorf("blank line produced %v", got)
	}
}

func TestWriteToUnopenedFile(t *testing.T) {
	in := newTestInterpreter(t)

	got := in.Execute(`write_to_file ghost.txt "data"`)
	if len(got) != 1 || got[0] != "Error: File ghost.txt is not open" {
		t.Errorf("Execute = %v", got)
	}
}

func TestFailedCommandReportsAndContinues(t *testing.T) {
	in := newTestInterpreter(t)

	if got := in.Execute("create a.txt"); got[0] != "Created file: a.txt" {
		t.Fatalf("first create = %v", got)
	}

	got := in.Execute("create a.txt")
	if len(got) != 1 {
		t.Fatalf("second create = %v", got)
	}
	if !strings.HasPrefix(got[0], "Error executing command 'create a.txt':") {
		t.Errorf("error line = %q", got[0])
	}
	if !strings.Contains(got[0], "already exists") {
		t.Errorf("error line missing cause: %q", got[0])
	}

	// The interpreter keeps going after a failure.
	if got := in.Execute("create b.txt"); got[0] != "Created file: b.txt" {
		t.Errorf("create after failure = %v", got)
	}
}

func TestQuotedTextExtraction(t *testing.T) {
	in := newTestInterpreter(t)

	if got := in.Execute("open notes.txt w"); got[0] != "Opened file: notes.txt in w mode" {
		t.Fatalf("open = %v", got)
	}

	tests := []struct {
		name string
		line string
		want string
	}{
		{"quoted span", `write_to_file notes.txt "hello there world"`, "hello there world"},
		{"unquoted words joined", "write_to_file notes.txt alpha beta", "alpha beta"},
		{"unterminated quote runs out", `write_to_file notes.txt "tail end`, "tail end"},
	}
	content := ""
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := in.Execute(tt.line)
			if len(got) != 2 || got[0] != "Wrote to file: notes.txt" {
				t.Fatalf("Execute = %v", got)
			}
			content += tt.want
			if want := "Current content of notes.txt: " + content; got[1] != want {
				t.Errorf("content line = %q, want %q", got[1], want)
			}
		})
	}
}

func TestMapViewerReceivesSnapshots(t *testing.T) {
	in := newTestInterpreter(t)

	var maps []*vdisk.MemoryMap
	in.MapViewer = func(m *vdisk.MemoryMap) { maps = append(maps, m) }

	var out strings.Builder
	if err := in.Run(strings.NewReader(DefaultScript(2)), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(maps) != 2 {
		t.Fatalf("viewer called %d times, want 2", len(maps))
	}
	// First snapshot: file2.txt still open; second: registry empty.
	if len(maps[0].OpenFiles) != 1 || maps[0].OpenFiles[0] != "file2.txt" {
		t.Errorf("first snapshot open files = %v", maps[0].OpenFiles)
	}
	if len(maps[1].OpenFiles) != 0 {
		t.Errorf("second snapshot open files = %v", maps[1].OpenFiles)
	}
}

func TestScriptsShareOneDisk(t *testing.T) {
	in := newTestInterpreter(t)

	var out strings.Builder
	if err := in.Run(strings.NewReader(DefaultScript(1)), &out); err != nil {
		t.Fatal(err)
	}
	if err := in.Run(strings.NewReader(DefaultScript(2)), &out); err != nil {
		t.Fatal(err)
	}

	// Both task files landed on the same disk.
	if !strings.Contains(out.String(), "Current content of file1.txt: Data from Thread 1") {
		t.Error("file1.txt content missing")
	}
	if !strings.Contains(out.String(), "Current content of file2.txt: Data from Thread 2") {
		t.Error("file2.txt content missing")
	}
}

func TestRunNormalizesForeignLineText(t *testing.T) {
	in := newTestInterpreter(t)

	// CRLF endings and a BOM, as a Windows editor would save the script.
	script := "\uFEFFcreate file9.txt\r\nopen file9.txt w\r\nwrite_to_file file9.txt \"Data from Thread 9\"\r\nclose file9.txt\r\n"

	var out strings.Builder
	if err := in.Run(strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{
		"Created file: file9.txt",
		"Opened file: file9.txt in w mode",
		"Current content of file9.txt: Data from Thread 9",
		"Closed file: file9.txt",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
