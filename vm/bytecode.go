package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// The complete instruction set. PUSH, JMP and JZ consume one inline operand
// byte; every other instruction is a single byte. Executing OpHALT, or any
// byte above OpJZ, terminates the program.
const (
	OpNOP   Opcode = 0x00 // no operation
	OpPUSH  Opcode = 0x01 // push inline operand byte (0-255)
	OpPOP   Opcode = 0x02 // discard top of stack
	OpADD   Opcode = 0x03 // pop two, push sum
	OpSUB   Opcode = 0x04 // pop two, push second - top
	OpMUL   Opcode = 0x05 // pop two, push product
	OpDUP   Opcode = 0x06 // duplicate top of stack
	OpPRINT Opcode = 0x07 // observe top of stack without popping
	OpJMP   Opcode = 0x08 // unconditional forward jump (operand = displacement)
	OpJZ    Opcode = 0x09 // forward jump if top of stack is zero
	OpHALT  Opcode = 0x0A // stop execution
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string // human-readable name
	OperandBytes int    // number of inline operand bytes
	StackEffect  int    // net effect on stack when preconditions hold
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpNOP:   {"NOP", 0, 0},
	OpPUSH:  {"PUSH", 1, 1},
	OpPOP:   {"POP", 0, -1},
	OpADD:   {"ADD", 0, -1},
	OpSUB:   {"SUB", 0, -1},
	OpMUL:   {"MUL", 0, -1},
	OpDUP:   {"DUP", 0, 1},
	OpPRINT: {"PRINT", 0, 0},
	OpJMP:   {"JMP", 1, 0},
	OpJZ:    {"JZ", 1, 0},
	OpHALT:  {"HALT", 0, 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op)), OperandBytes: 0, StackEffect: 0}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// OperandBytes returns the number of inline operand bytes for an opcode.
func (op Opcode) OperandBytes() int {
	return op.Info().OperandBytes
}

// Executable reports whether the opcode dispatches to a handler. OpHALT and
// any byte outside the defined set terminate execution instead.
func (op Opcode) Executable() bool {
	return op <= OpJZ
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// ProgramBuilder: helper for constructing programs
// ---------------------------------------------------------------------------

// ProgramBuilder helps construct bytecode programs.
type ProgramBuilder struct {
	bytes []byte
}

// NewProgramBuilder creates a new program builder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{
		bytes: make([]byte, 0, 32),
	}
}

// Bytes returns the constructed program.
func (b *ProgramBuilder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *ProgramBuilder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode with no operands.
func (b *ProgramBuilder) Emit(op Opcode) {
	b.bytes = append(b.bytes, byte(op))
}

// EmitRaw appends a raw byte to the program.
func (b *ProgramBuilder) EmitRaw(data byte) {
	b.bytes = append(b.bytes, data)
}

// EmitPush appends a PUSH instruction with its operand byte.
func (b *ProgramBuilder) EmitPush(operand byte) {
	b.bytes = append(b.bytes, byte(OpPUSH), operand)
}

// ---------------------------------------------------------------------------
// Label management for jumps
// ---------------------------------------------------------------------------

// Label represents a forward reference in a program. Jump displacements are
// unsigned forward offsets, so a label can only be marked at or after the
// operand bytes that reference it.
type Label struct {
	resolved bool
	position int   // target position once resolved
	refs     []int // operand byte positions that reference this label
}

// NewLabel creates an unresolved label.
func (b *ProgramBuilder) NewLabel() *Label {
	return &Label{resolved: false, refs: make([]int, 0, 2)}
}

// Mark resolves a label to the current position and patches all forward
// references. Panics if a displacement does not fit in an operand byte.
func (b *ProgramBuilder) Mark(label *Label) {
	if label.resolved {
		panic("label already resolved")
	}
	label.resolved = true
	label.position = len(b.bytes)

	for _, ref := range label.refs {
		// The displacement is added to the PC of the operand byte itself.
		offset := label.position - ref
		if offset < 0 || offset > 255 {
			panic(fmt.Sprintf("jump displacement %d not encodable", offset))
		}
		b.bytes[ref] = byte(offset)
	}
	label.refs = nil
}

// EmitJump emits a JMP or JZ instruction targeting a label.
func (b *ProgramBuilder) EmitJump(op Opcode, label *Label) {
	if op != OpJMP && op != OpJZ {
		panic("EmitJump requires JMP or JZ")
	}
	b.bytes = append(b.bytes, byte(op))
	if label.resolved {
		offset := label.position - len(b.bytes)
		if offset < 0 || offset > 255 {
			panic(fmt.Sprintf("jump displacement %d not encodable", offset))
		}
		b.bytes = append(b.bytes, byte(offset))
	} else {
		label.refs = append(label.refs, len(b.bytes))
		b.bytes = append(b.bytes, 0) // placeholder
	}
}

// ---------------------------------------------------------------------------
// Program reader for disassembly
// ---------------------------------------------------------------------------

// ProgramReader reads a program for disassembly.
type ProgramReader struct {
	bytes []byte
	pos   int
}

// NewProgramReader creates a reader for a program.
func NewProgramReader(program []byte) *ProgramReader {
	return &ProgramReader{bytes: program, pos: 0}
}

// Position returns the current read position.
func (r *ProgramReader) Position() int {
	return r.pos
}

// HasMore returns true if there are more bytes to read.
func (r *ProgramReader) HasMore() bool {
	return r.pos < len(r.bytes)
}

// ReadOpcode reads and returns the next opcode.
func (r *ProgramReader) ReadOpcode() Opcode {
	if r.pos >= len(r.bytes) {
		panic("program underflow")
	}
	op := Opcode(r.bytes[r.pos])
	r.pos++
	return op
}

// ReadByte reads a single operand byte.
func (r *ProgramReader) ReadByte() byte {
	if r.pos >= len(r.bytes) {
		panic("program underflow")
	}
	b := r.bytes[r.pos]
	r.pos++
	return b
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction disassembles a single instruction at the reader's
// position. Returns the string representation and advances the reader.
func DisassembleInstruction(r *ProgramReader) string {
	pos := r.Position()
	op := r.ReadOpcode()
	info := op.Info()

	switch op {
	case OpPUSH:
		if !r.HasMore() {
			return fmt.Sprintf("%04d  %s <truncated>", pos, info.Name)
		}
		v := r.ReadByte()
		return fmt.Sprintf("%04d  %s %d", pos, info.Name, v)

	case OpJMP, OpJZ:
		if !r.HasMore() {
			return fmt.Sprintf("%04d  %s <truncated>", pos, info.Name)
		}
		operandPos := r.Position()
		offset := r.ReadByte()
		target := operandPos + int(offset)
		return fmt.Sprintf("%04d  %s %d (-> %04d)", pos, info.Name, offset, target)

	default:
		return fmt.Sprintf("%04d  %s", pos, info.Name)
	}
}

// Disassemble returns a full disassembly of a program.
func Disassemble(program []byte) string {
	r := NewProgramReader(program)
	var result string
	for r.HasMore() {
		if result != "" {
			result += "\n"
		}
		result += DisassembleInstruction(r)
	}
	return result
}
