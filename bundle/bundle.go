// Package bundle serializes assembled programs for storage and exchange.
// Bundles use canonical CBOR so that the same program always encodes to the
// same bytes.
package bundle

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is the current bundle format version.
const FormatVersion = 1

// Program is the on-disk container for an assembled program.
type Program struct {
	Version int    `cbor:"version"`
	Name    string `cbor:"name"`
	Code    []byte `cbor:"code"`

	// Expect optionally records the result the program is known to
	// produce, letting callers verify an execution.
	Expect *int `cbor:"expect,omitempty"`
}

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bundle: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Program to CBOR bytes. A zero Version is stamped
// with the current format version.
func Marshal(p *Program) ([]byte, error) {
	stamped := *p
	if stamped.Version == 0 {
		stamped.Version = FormatVersion
	}
	return cborEncMode.Marshal(&stamped)
}

// Unmarshal deserializes a Program from CBOR bytes, rejecting unsupported
// format versions.
func Unmarshal(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("bundle: unmarshal program: %w", err)
	}
	if p.Version != FormatVersion {
		return nil, fmt.Errorf("bundle: unsupported format version %d", p.Version)
	}
	return &p, nil
}

// WriteFile marshals a Program and writes it to path.
func WriteFile(path string, p *Program) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bundle: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and unmarshals a Program from path.
func ReadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", path, err)
	}
	return Unmarshal(data)
}
