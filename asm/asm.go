// Package asm assembles the picovm mnemonic format into bytecode.
//
// The format is line-based. Each line holds at most one instruction,
// optionally preceded by a label definition and followed by a comment:
//
//	start:  PUSH 10     ; operands are decimal 0-255
//	        JZ done     ; jump operands may name a label
//	        ADD
//	done:   HALT
//
// Mnemonics are case-insensitive. Jump displacements are unsigned and
// forward-only, so labels may only be referenced by earlier instructions.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/picovm/vm"
)

// mnemonics maps mnemonic names to opcodes, derived from the opcode
// metadata table.
var mnemonics = map[string]vm.Opcode{}

func init() {
	for op := vm.OpNOP; op <= vm.OpHALT; op++ {
		mnemonics[op.Name()] = op
	}
}

// statement is one parsed instruction awaiting encoding.
type statement struct {
	line    int    // 1-based source line
	op      vm.Opcode
	operand string // raw operand text; empty when the opcode takes none
	offset  int    // byte offset of the opcode in the output
}

// Assemble translates source text into a bytecode program.
func Assemble(source string) ([]byte, error) {
	statements, labels, err := parse(source)
	if err != nil {
		return nil, err
	}
	return encode(statements, labels)
}

// parse runs the first pass: split lines into statements, record label
// offsets, and compute instruction offsets.
func parse(source string) ([]statement, map[string]int, error) {
	var statements []statement
	labels := make(map[string]int)
	offset := 0

	for i, raw := range strings.Split(source, "\n") {
		line := i + 1
		text := raw
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		// Optional label definition prefix.
		if idx := strings.IndexByte(text, ':'); idx >= 0 {
			name := strings.TrimSpace(text[:idx])
			if name == "" || strings.ContainsAny(name, " \t") {
				return nil, nil, fmt.Errorf("line %d: malformed label %q", line, text)
			}
			if _, exists := labels[name]; exists {
				return nil, nil, fmt.Errorf("line %d: duplicate label %q", line, name)
			}
			labels[name] = offset
			text = strings.TrimSpace(text[idx+1:])
			if text == "" {
				continue
			}
		}

		fields := strings.Fields(text)
		op, ok := mnemonics[strings.ToUpper(fields[0])]
		if !ok {
			return nil, nil, fmt.Errorf("line %d: unknown mnemonic %q", line, fields[0])
		}

		st := statement{line: line, op: op, offset: offset}
		switch op.OperandBytes() {
		case 0:
			if len(fields) > 1 {
				return nil, nil, fmt.Errorf("line %d: %s takes no operand", line, op)
			}
		case 1:
			if len(fields) != 2 {
				return nil, nil, fmt.Errorf("line %d: %s requires one operand", line, op)
			}
			st.operand = fields[1]
		}

		statements = append(statements, st)
		offset += 1 + op.OperandBytes()
	}

	return statements, labels, nil
}

// encode runs the second pass: emit bytes and resolve label references.
func encode(statements []statement, labels map[string]int) ([]byte, error) {
	b := vm.NewProgramBuilder()

	for _, st := range statements {
		if st.op.OperandBytes() == 0 {
			b.Emit(st.op)
			continue
		}

		operand, err := resolveOperand(st, labels)
		if err != nil {
			return nil, err
		}
		b.Emit(st.op)
		b.EmitRaw(operand)
	}

	return b.Bytes(), nil
}

// resolveOperand turns an operand token into its byte value. PUSH takes a
// decimal constant; JMP and JZ take a constant displacement or a label.
func resolveOperand(st statement, labels map[string]int) (byte, error) {
	if v, err := strconv.Atoi(st.operand); err == nil {
		if v < 0 || v > 255 {
			return 0, fmt.Errorf("line %d: operand %d out of range 0-255", st.line, v)
		}
		return byte(v), nil
	}

	if st.op != vm.OpJMP && st.op != vm.OpJZ {
		return 0, fmt.Errorf("line %d: %s operand must be a decimal constant", st.line, st.op)
	}

	target, ok := labels[st.operand]
	if !ok {
		return 0, fmt.Errorf("line %d: undefined label %q", st.line, st.operand)
	}

	// The displacement is added to the PC of the operand byte itself.
	operandOffset := st.offset + 1
	disp := target - operandOffset
	if disp < 0 {
		return 0, fmt.Errorf("line %d: label %q is behind the jump; displacements are forward-only", st.line, st.operand)
	}
	if disp > 255 {
		return 0, fmt.Errorf("line %d: label %q is %d bytes away, beyond the 255-byte displacement range", st.line, st.operand, disp)
	}
	return byte(disp), nil
}
