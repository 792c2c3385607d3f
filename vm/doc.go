// Package vm implements the picovm bytecode virtual machine.
//
// This package contains:
//   - The eleven-opcode instruction encoding and its metadata table
//   - A bounded, saturating operand stack
//   - Two interchangeable execution engines (table and switch dispatch)
//   - Trace sinks observing per-instruction execution
package vm
