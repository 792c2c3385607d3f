package vm

// ---------------------------------------------------------------------------
// Table-dispatch engine
// ---------------------------------------------------------------------------
//
// This engine keeps an array of handler functions indexed by opcode and
// jumps straight to the handler for the opcode at PC, rather than re-testing
// the opcode against a chain of comparisons. The dispatch loop validates the
// opcode before the first dispatch and after every handler: OpHALT or any
// byte outside [OpNOP, OpJZ] transfers control to the terminal path.

// tableState is the per-invocation execution state threaded through the
// handler table. A fresh instance per call keeps concurrent invocations
// independent.
type tableState struct {
	program []byte
	pc      int
	stack   OperandStack
	sink    TraceSink
	halted  bool
}

// tableHandlers maps each executable opcode to its handler. Built once at
// init, read-only afterwards.
var tableHandlers = [OpJZ + 1]func(*tableState){
	OpNOP:   (*tableState).nop,
	OpPUSH:  (*tableState).push,
	OpPOP:   (*tableState).pop,
	OpADD:   (*tableState).add,
	OpSUB:   (*tableState).sub,
	OpMUL:   (*tableState).mul,
	OpDUP:   (*tableState).dup,
	OpPRINT: (*tableState).print,
	OpJMP:   (*tableState).jmp,
	OpJZ:    (*tableState).jz,
}

// RunTable executes a program using table dispatch. It returns the final
// top-of-stack value, or 0 when the stack is empty at termination.
func RunTable(program []byte, sink TraceSink) int {
	if sink == nil {
		sink = NullSink{}
	}
	st := &tableState{program: program, sink: sink}

	for !st.halted {
		if st.pc < 0 || st.pc >= len(st.program) {
			break
		}
		op := Opcode(st.program[st.pc])
		if !op.Executable() {
			break
		}
		tableHandlers[op](st)
	}

	st.sink.Instruction(st.pc, OpHALT)
	return st.stack.TopOr(0)
}

// operand advances to the operand byte of the instruction at pc. It returns
// false, halting the engine, when the operand is missing: an instruction
// truncated at the end of the program terminates execution immediately.
func (st *tableState) operand() (byte, bool) {
	st.pc++
	if st.pc >= len(st.program) {
		st.halted = true
		return 0, false
	}
	return st.program[st.pc], true
}

func (st *tableState) nop() {
	st.sink.Instruction(st.pc, OpNOP)
	st.pc++
}

func (st *tableState) push() {
	st.sink.Instruction(st.pc, OpPUSH)
	v, ok := st.operand()
	if !ok {
		return
	}
	st.stack.Push(int(v))
	st.pc++
}

func (st *tableState) pop() {
	st.sink.Instruction(st.pc, OpPOP)
	st.stack.Drop()
	st.pc++
}

func (st *tableState) add() {
	st.sink.Instruction(st.pc, OpADD)
	st.stack.Combine(func(second, top int) int { return second + top })
	st.pc++
}

func (st *tableState) sub() {
	st.sink.Instruction(st.pc, OpSUB)
	st.stack.Combine(func(second, top int) int { return second - top })
	st.pc++
}

func (st *tableState) mul() {
	st.sink.Instruction(st.pc, OpMUL)
	st.stack.Combine(func(second, top int) int { return second * top })
	st.pc++
}

func (st *tableState) dup() {
	st.sink.Instruction(st.pc, OpDUP)
	st.stack.Dup()
	st.pc++
}

func (st *tableState) print() {
	st.sink.Instruction(st.pc, OpPRINT)
	if top, ok := st.stack.Top(); ok {
		st.sink.Observe(st.pc, top)
	}
	st.pc++
}

func (st *tableState) jmp() {
	st.sink.Instruction(st.pc, OpJMP)
	offset, ok := st.operand()
	if !ok {
		return
	}
	// The displacement is relative to the operand byte's own PC. No bounds
	// pre-check: a target outside the program halts at the next fetch.
	st.pc += int(offset)
}

func (st *tableState) jz() {
	st.sink.Instruction(st.pc, OpJZ)
	offset, ok := st.operand()
	if !ok {
		return
	}
	if top, ok := st.stack.Top(); ok && top == 0 {
		st.pc += int(offset)
	} else {
		st.pc++
	}
}
