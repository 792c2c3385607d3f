package vm

import "testing"

func TestOperandStackZeroValue(t *testing.T) {
	var s OperandStack
	if s.Depth() != 0 {
		t.Errorf("Depth = %d, want 0", s.Depth())
	}
	if _, ok := s.Top(); ok {
		t.Error("Top on empty stack should report false")
	}
	if s.TopOr(0) != 0 {
		t.Errorf("TopOr(0) = %d, want 0", s.TopOr(0))
	}
}

func TestOperandStackPushTop(t *testing.T) {
	var s OperandStack
	if !s.Push(7) {
		t.Fatal("Push onto empty stack should succeed")
	}
	if !s.Push(-3) {
		t.Fatal("second Push should succeed")
	}
	top, ok := s.Top()
	if !ok || top != -3 {
		t.Errorf("Top = %d,%v, want -3,true", top, ok)
	}
	if s.Depth() != 2 {
		t.Errorf("Depth = %d, want 2", s.Depth())
	}
}

func TestOperandStackOverflowDropped(t *testing.T) {
	var s OperandStack
	for i := 0; i < StackMax; i++ {
		if !s.Push(i) {
			t.Fatalf("Push %d should succeed", i)
		}
	}
	if !s.Full() {
		t.Fatal("stack should be full")
	}
	if s.Push(999) {
		t.Error("Push onto full stack should be dropped")
	}
	if s.Depth() != StackMax {
		t.Errorf("Depth = %d, want %d", s.Depth(), StackMax)
	}
	if got := s.TopOr(0); got != StackMax-1 {
		t.Errorf("Top = %d, want %d", got, StackMax-1)
	}
}

func TestOperandStackDrop(t *testing.T) {
	var s OperandStack
	s.Drop() // no-op on empty
	if s.Depth() != 0 {
		t.Errorf("Depth after empty Drop = %d, want 0", s.Depth())
	}

	s.Push(1)
	s.Push(2)
	s.Drop()
	if got := s.TopOr(0); got != 1 {
		t.Errorf("Top after Drop = %d, want 1", got)
	}
}

func TestOperandStackDup(t *testing.T) {
	var s OperandStack
	s.Dup() // no-op on empty
	if s.Depth() != 0 {
		t.Error("Dup on empty stack should be a no-op")
	}

	s.Push(9)
	s.Dup()
	if s.Depth() != 2 {
		t.Fatalf("Depth after Dup = %d, want 2", s.Depth())
	}
	if got := s.TopOr(0); got != 9 {
		t.Errorf("Top after Dup = %d, want 9", got)
	}

	// Dup on a full stack is dropped.
	for !s.Full() {
		s.Push(9)
	}
	s.Dup()
	if s.Depth() != StackMax {
		t.Errorf("Depth after full Dup = %d, want %d", s.Depth(), StackMax)
	}
}

func TestOperandStackCombine(t *testing.T) {
	var s OperandStack
	s.Push(20)
	s.Push(6)
	s.Combine(func(second, top int) int { return second - top })
	if s.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", s.Depth())
	}
	if got := s.TopOr(0); got != 14 {
		t.Errorf("20 - 6 = %d, want 14", got)
	}
}

func TestOperandStackCombineUnderflow(t *testing.T) {
	var s OperandStack
	s.Push(5)
	s.Combine(func(second, top int) int { return second + top })
	// With fewer than two elements the operation is a no-op and the
	// remaining element is untouched.
	if s.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", s.Depth())
	}
	if got := s.TopOr(0); got != 5 {
		t.Errorf("Top = %d, want 5", got)
	}
}
