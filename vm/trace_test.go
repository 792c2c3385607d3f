package vm

import "testing"

func TestTraceEntryString(t *testing.T) {
	e := TraceEntry{PC: 4, Op: OpADD}
	if e.String() != "pc=4 ADD" {
		t.Errorf("String() = %q", e.String())
	}

	o := TraceEntry{PC: 5, Op: OpPRINT, Observed: true, Value: 30}
	if o.String() != "pc=5 PRINT: 30" {
		t.Errorf("String() = %q", o.String())
	}
}

func TestCaptureSink(t *testing.T) {
	var c CaptureSink
	c.Instruction(0, OpPUSH)
	c.Instruction(2, OpPRINT)
	c.Observe(2, 7)

	if len(c.Entries) != 3 {
		t.Fatalf("Entries = %d, want 3", len(c.Entries))
	}

	ops := c.Ops()
	if len(ops) != 2 || ops[0] != OpPUSH || ops[1] != OpPRINT {
		t.Errorf("Ops() = %v", ops)
	}

	lines := c.Lines()
	if lines[2] != "pc=2 PRINT: 7" {
		t.Errorf("Lines()[2] = %q", lines[2])
	}

	c.Reset()
	if len(c.Entries) != 0 {
		t.Error("Reset should clear entries")
	}
}

func TestCountingSink(t *testing.T) {
	var inner CaptureSink
	c := CountingSink{Next: &inner}

	c.Instruction(0, OpNOP)
	c.Instruction(1, OpHALT)
	c.Observe(0, 1)

	if c.Instructions != 2 {
		t.Errorf("Instructions = %d, want 2", c.Instructions)
	}
	if len(inner.Entries) != 3 {
		t.Errorf("forwarded entries = %d, want 3", len(inner.Entries))
	}
}

func TestCountingSinkWithoutNext(t *testing.T) {
	var c CountingSink
	c.Instruction(0, OpNOP)
	c.Observe(0, 1)
	if c.Instructions != 1 {
		t.Errorf("Instructions = %d, want 1", c.Instructions)
	}
}

func TestNullSink(t *testing.T) {
	// NullSink must be safe to call and is what engines use for nil sinks.
	var n NullSink
	n.Instruction(0, OpNOP)
	n.Observe(0, 0)
}
