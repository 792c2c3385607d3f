package vm

// EngineFunc executes a bytecode program and returns the final top-of-stack
// value, or 0 when the stack is empty at termination. A nil sink disables
// tracing. Each call owns an independent PC and operand stack, so a single
// EngineFunc may be invoked from multiple goroutines concurrently.
//
// Execution terminates on OpHALT, on any opcode outside the defined set, or
// on the PC leaving [0, len(program)). Jump displacements are unsigned and
// forward-only, so the PC is strictly increasing and every program
// terminates. The empty program returns 0 from both engines.
type EngineFunc func(program []byte, sink TraceSink) int

// Engines maps dispatch strategy names to their entry points. The two
// strategies are observably equivalent; they differ only in how the current
// opcode is mapped to the code that executes it.
var Engines = map[string]EngineFunc{
	"table":  RunTable,
	"switch": RunSwitch,
}
