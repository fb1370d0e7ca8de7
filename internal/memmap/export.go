package memmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export writes a snapshot to path, choosing the format from the file
// extension: .json, .yaml or .yml.
func Export(snap *Snapshot, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(snap, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(snap)
	default:
		return fmt.Errorf("unsupported export format %q (use .json, .yaml or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
