package bundle

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/chazu/picovm/vm"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	expect := 30
	p := &Program{
		Name: "arith",
		Code: []byte{
			byte(vm.OpPUSH), 10,
			byte(vm.OpPUSH), 20,
			byte(vm.OpADD),
			byte(vm.OpHALT),
		},
		Expect: &expect,
	}

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", got.Version, FormatVersion)
	}
	if got.Name != "arith" {
		t.Errorf("Name = %q, want %q", got.Name, "arith")
	}
	if !bytes.Equal(got.Code, p.Code) {
		t.Errorf("Code = %v, want %v", got.Code, p.Code)
	}
	if got.Expect == nil || *got.Expect != 30 {
		t.Errorf("Expect = %v, want 30", got.Expect)
	}

	if result := vm.RunTable(got.Code, nil); result != 30 {
		t.Errorf("executing decoded program = %d, want 30", result)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	p := &Program{Name: "x", Code: []byte{byte(vm.OpHALT)}}

	a, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding should be deterministic")
	}
}

func TestMarshalDoesNotMutateInput(t *testing.T) {
	p := &Program{Name: "x", Code: []byte{byte(vm.OpHALT)}}
	if _, err := Marshal(p); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if p.Version != 0 {
		t.Errorf("Marshal stamped the caller's struct: Version = %d", p.Version)
	}
}

func TestUnmarshalRejectsUnsupportedVersion(t *testing.T) {
	data, err := cborEncMode.Marshal(&Program{Version: 99, Name: "future"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.pvmb")
	p := &Program{
		Name: "square",
		Code: []byte{byte(vm.OpPUSH), 3, byte(vm.OpDUP), byte(vm.OpMUL), byte(vm.OpHALT)},
	}

	if err := WriteFile(path, p); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Name != "square" {
		t.Errorf("Name = %q, want %q", got.Name, "square")
	}
	if result := vm.RunSwitch(got.Code, nil); result != 9 {
		t.Errorf("executing decoded program = %d, want 9", result)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.pvmb")); err == nil {
		t.Error("expected error for missing file")
	}
}
