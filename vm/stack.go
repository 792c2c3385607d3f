package vm

// StackMax is the fixed capacity of the operand stack.
const StackMax = 64

// OperandStack is a bounded LIFO of signed integers. Every operation is a
// total function: a violated precondition degrades to a no-op instead of an
// error, so execution always makes forward progress.
//
// The zero value is an empty stack ready for use. The backing array is
// allocated inline, so each engine invocation gets its own storage with no
// heap growth at steady state.
type OperandStack struct {
	slots [StackMax]int
	sp    int
}

// Depth returns the number of elements on the stack.
func (s *OperandStack) Depth() int {
	return s.sp
}

// Full reports whether the stack is at capacity.
func (s *OperandStack) Full() bool {
	return s.sp >= StackMax
}

// Push appends v to the stack. A push onto a full stack is silently
// dropped; the return value reports whether the value was stored.
func (s *OperandStack) Push(v int) bool {
	if s.sp >= StackMax {
		return false
	}
	s.slots[s.sp] = v
	s.sp++
	return true
}

// Drop removes the top element. No-op on an empty stack.
func (s *OperandStack) Drop() {
	if s.sp > 0 {
		s.sp--
	}
}

// Top returns the top element without removing it.
func (s *OperandStack) Top() (int, bool) {
	if s.sp == 0 {
		return 0, false
	}
	return s.slots[s.sp-1], true
}

// TopOr returns the top element, or sentinel when the stack is empty.
func (s *OperandStack) TopOr(sentinel int) int {
	if s.sp == 0 {
		return sentinel
	}
	return s.slots[s.sp-1]
}

// Dup duplicates the top element. No-op when the stack is empty or full.
func (s *OperandStack) Dup() {
	if s.sp > 0 && s.sp < StackMax {
		s.slots[s.sp] = s.slots[s.sp-1]
		s.sp++
	}
}

// Combine pops the top two elements and pushes f(second, top). When fewer
// than two elements are present it is a no-op: neither element is touched.
func (s *OperandStack) Combine(f func(second, top int) int) {
	if s.sp < 2 {
		return
	}
	top := s.slots[s.sp-1]
	s.sp--
	s.slots[s.sp-1] = f(s.slots[s.sp-1], top)
}
