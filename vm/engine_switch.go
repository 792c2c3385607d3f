package vm

// ---------------------------------------------------------------------------
// Switch-dispatch engine
// ---------------------------------------------------------------------------

// RunSwitch executes a program with a single loop that re-examines the
// opcode at PC on every iteration through an exhaustive switch. It is
// observably equivalent to RunTable: same results, same instruction visit
// order, same trace records.
func RunSwitch(program []byte, sink TraceSink) int {
	if sink == nil {
		sink = NullSink{}
	}
	var stack OperandStack
	pc := 0
	running := true

	for running {
		if pc < 0 || pc >= len(program) {
			break
		}
		op := Opcode(program[pc])

		switch op {
		case OpNOP:
			sink.Instruction(pc, op)
			pc++

		case OpPUSH:
			sink.Instruction(pc, op)
			pc++
			if pc >= len(program) {
				running = false
				break
			}
			stack.Push(int(program[pc]))
			pc++

		case OpPOP:
			sink.Instruction(pc, op)
			stack.Drop()
			pc++

		case OpADD:
			sink.Instruction(pc, op)
			stack.Combine(func(second, top int) int { return second + top })
			pc++

		case OpSUB:
			sink.Instruction(pc, op)
			stack.Combine(func(second, top int) int { return second - top })
			pc++

		case OpMUL:
			sink.Instruction(pc, op)
			stack.Combine(func(second, top int) int { return second * top })
			pc++

		case OpDUP:
			sink.Instruction(pc, op)
			stack.Dup()
			pc++

		case OpPRINT:
			sink.Instruction(pc, op)
			if top, ok := stack.Top(); ok {
				sink.Observe(pc, top)
			}
			pc++

		case OpJMP:
			sink.Instruction(pc, op)
			pc++
			if pc >= len(program) {
				running = false
				break
			}
			pc += int(program[pc])

		case OpJZ:
			sink.Instruction(pc, op)
			pc++
			if pc >= len(program) {
				running = false
				break
			}
			if top, ok := stack.Top(); ok && top == 0 {
				pc += int(program[pc])
			} else {
				pc++
			}

		case OpHALT:
			running = false

		default:
			// Unknown opcodes behave exactly like HALT.
			running = false
		}
	}

	sink.Instruction(pc, OpHALT)
	return stack.TopOr(0)
}
