// Package script runs the line-oriented command language task workloads
// are written in. Each input line is one command; each command appends
// its result lines to the task's output, errors included, so a workload
// never aborts halfway through its script.
package script

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/veldtlabs/fsdrill/internal/util/sanitize"
	"github.com/veldtlabs/fsdrill/internal/vdisk"
)

// Interpreter executes commands against a shared virtual disk.
type Interpreter struct {
	disk *vdisk.Disk

	// MapViewer, when set, receives each snapshot taken by
	// show_memory_map.
	MapViewer func(*vdisk.MemoryMap)
}

// NewInterpreter returns an interpreter bound to disk.
func NewInterpreter(disk *vdisk.Disk) *Interpreter {
	return &Interpreter{disk: disk}
}

// Run executes every line from r, writing result lines to w. Blank
// lines produce no output. The only error returned is a read failure;
// command failures become output lines.
func (in *Interpreter) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		for _, result := range in.Execute(scanner.Text()) {
			if _, err := fmt.Fprintln(w, result); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return nil
}

// Transform adapts the interpreter to the task pipeline: the input
// bytes are a script, the output bytes are its result lines.
func (in *Interpreter) Transform(input []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := in.Run(bytes.NewReader(input), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Execute runs a single command line and returns its result lines.
// Lines are normalized first so CRLF endings and invisible characters
// from foreign editors cannot mangle tokens.
func (in *Interpreter) Execute(line string) []string {
	line = sanitize.Line(line)
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "create":
		if len(args) != 1 {
			return []string{"Error: Invalid arguments for create command"}
		}
		if err := in.disk.Create(args[0]); err != nil {
			return []string{execError(line, err)}
		}
		return []string{"Created file: " + args[0]}

	case "open":
		if len(args) != 2 {
			return []string{"Error: Invalid arguments for open command"}
		}
		if _, err := in.disk.OpenFile(args[0], args[1]); err != nil {
			return []string{execError(line, err)}
		}
		return []string{fmt.Sprintf("Opened file: %s in %s mode", args[0], args[1])}

	case "write_to_file":
		if len(args) < 2 {
			return []string{"Error: Invalid arguments for write_to_file command"}
		}
		name := args[0]
		f, ok := in.disk.Handle(name)
		if !ok {
			return []string{fmt.Sprintf("Error: File %s is not open", name)}
		}
		if err := f.Write(quotedText(line, args)); err != nil {
			return []string{execError(line, err)}
		}
		return []string{
			"Wrote to file: " + name,
			fmt.Sprintf("Current content of %s: %s", name, f.Read()),
		}

	case "close":
		if len(args) != 1 {
			return []string{"Error: Invalid arguments for close command"}
		}
		if err := in.disk.CloseFile(args[0]); err != nil {
			return []string{execError(line, err)}
		}
		return []string{"Closed file: " + args[0]}

	case "show_memory_map":
		m, err := in.disk.MemoryMap()
		if err != nil {
			return []string{execError(line, err)}
		}
		if in.MapViewer != nil {
			in.MapViewer(m)
		}
		return []string{"Memory map displayed"}

	default:
		return []string{"Error: Unknown command: " + cmd}
	}
}

// quotedText extracts the payload of a write command: the first
// double-quoted span when one exists, otherwise everything after the
// file name joined back together. An unterminated quote runs to the end
// of the line.
func quotedText(line string, args []string) string {
	if i := strings.IndexByte(line, '"'); i >= 0 {
		rest := line[i+1:]
		if j := strings.IndexByte(rest, '"'); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return strings.Join(args[1:], " ")
}

func execError(line string, err error) string {
	return fmt.Sprintf("Error executing command '%s': %s", line, err)
}

// DefaultScript returns the stock workload for task n: create a file
// named after the task, write a line identifying it, and snapshot the
// memory map before and after closing.
func DefaultScript(n int) string {
	name := fmt.Sprintf("file%d.txt", n)
	var b strings.Builder
	fmt.Fprintf(&b, "create %s\n", name)
	fmt.Fprintf(&b, "open %s w\n", name)
	fmt.Fprintf(&b, "write_to_file %s \"Data from Thread %d\"\n", name, n)
	b.WriteString("show_memory_map\n")
	fmt.Fprintf(&b, "close %s\n", name)
	b.WriteString("show_memory_map\n")
	return b.String()
}
