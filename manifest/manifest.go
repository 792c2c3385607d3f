// Package manifest handles picovm.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a picovm.toml project configuration.
type Manifest struct {
	Project  Project   `toml:"project"`
	Run      Run       `toml:"run"`
	Programs []Program `toml:"programs"`

	// Dir is the directory containing the picovm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Run configures how programs are executed.
type Run struct {
	// Engine selects the dispatch strategy: "table", "switch" or "both".
	Engine string `toml:"engine"`
	// Trace enables per-instruction trace logging.
	Trace bool `toml:"trace"`
	// Record names a SQLite database receiving run results; empty disables
	// recording.
	Record string `toml:"record"`
}

// Program is one entry in the project's program suite.
type Program struct {
	Name string `toml:"name"`
	File string `toml:"file"`

	// Expect optionally pins the result the program must produce.
	Expect *int `toml:"expect"`
}

// Load parses a picovm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "picovm.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir = dir
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// applyDefaults fills in unset fields.
func (m *Manifest) applyDefaults() {
	if m.Run.Engine == "" {
		m.Run.Engine = "table"
	}
}

// Validate checks the manifest for consistency.
func (m *Manifest) Validate() error {
	switch m.Run.Engine {
	case "table", "switch", "both":
	default:
		return fmt.Errorf("unknown engine %q (want table, switch or both)", m.Run.Engine)
	}
	for i, p := range m.Programs {
		if p.Name == "" {
			return fmt.Errorf("programs[%d]: missing name", i)
		}
		if p.File == "" {
			return fmt.Errorf("program %q: missing file", p.Name)
		}
	}
	return nil
}

// ProgramPath resolves a program file relative to the manifest directory.
func (m *Manifest) ProgramPath(p Program) string {
	if filepath.IsAbs(p.File) {
		return p.File
	}
	return filepath.Join(m.Dir, p.File)
}
