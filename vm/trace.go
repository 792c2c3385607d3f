package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// TraceSink: per-instruction observation channel
// ---------------------------------------------------------------------------

// TraceSink receives one record per executed instruction. Both engines feed
// the same records in the same order, so a captured trace from one engine
// can be compared byte-for-byte against the other. Trace emission never
// affects return values.
type TraceSink interface {
	// Instruction records that the opcode at pc was dispatched. The
	// terminal record is always OpHALT at the PC where execution stopped.
	Instruction(pc int, op Opcode)

	// Observe records the top-of-stack value seen by a PRINT instruction.
	Observe(pc int, value int)
}

// NullSink discards all records.
type NullSink struct{}

func (NullSink) Instruction(int, Opcode) {}
func (NullSink) Observe(int, int)        {}

// ---------------------------------------------------------------------------
// CaptureSink: in-memory trace recorder
// ---------------------------------------------------------------------------

// TraceEntry is a single recorded trace event.
type TraceEntry struct {
	PC       int
	Op       Opcode
	Observed bool // true for PRINT value records
	Value    int
}

// String renders the entry as a single trace line.
func (e TraceEntry) String() string {
	if e.Observed {
		return fmt.Sprintf("pc=%d PRINT: %d", e.PC, e.Value)
	}
	return fmt.Sprintf("pc=%d %s", e.PC, e.Op.Name())
}

// CaptureSink records trace entries in execution order. It is the harness
// used by tests to compare engine trajectories.
type CaptureSink struct {
	Entries []TraceEntry
}

func (c *CaptureSink) Instruction(pc int, op Opcode) {
	c.Entries = append(c.Entries, TraceEntry{PC: pc, Op: op})
}

func (c *CaptureSink) Observe(pc int, value int) {
	c.Entries = append(c.Entries, TraceEntry{PC: pc, Op: OpPRINT, Observed: true, Value: value})
}

// Lines returns the rendered trace, one line per entry.
func (c *CaptureSink) Lines() []string {
	lines := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		lines[i] = e.String()
	}
	return lines
}

// Ops returns the opcode visit order, excluding PRINT value records.
func (c *CaptureSink) Ops() []Opcode {
	ops := make([]Opcode, 0, len(c.Entries))
	for _, e := range c.Entries {
		if !e.Observed {
			ops = append(ops, e.Op)
		}
	}
	return ops
}

// Reset clears the recorded entries.
func (c *CaptureSink) Reset() {
	c.Entries = c.Entries[:0]
}

// ---------------------------------------------------------------------------
// CountingSink: instruction counter
// ---------------------------------------------------------------------------

// CountingSink counts dispatched instructions, forwarding every record to
// Next when set.
type CountingSink struct {
	Next         TraceSink
	Instructions int
}

func (c *CountingSink) Instruction(pc int, op Opcode) {
	c.Instructions++
	if c.Next != nil {
		c.Next.Instruction(pc, op)
	}
}

func (c *CountingSink) Observe(pc int, value int) {
	if c.Next != nil {
		c.Next.Observe(pc, value)
	}
}

// ---------------------------------------------------------------------------
// LogSink: commonlog-backed trace output
// ---------------------------------------------------------------------------

// LogSink emits trace records through commonlog. Instruction records go out
// at debug level; PRINT observations at info level.
type LogSink struct {
	Log commonlog.Logger
}

// NewLogSink creates a sink logging under the "picovm.engine" logger.
func NewLogSink() *LogSink {
	return &LogSink{Log: commonlog.GetLogger("picovm.engine")}
}

func (l *LogSink) Instruction(pc int, op Opcode) {
	l.Log.Debugf("pc=%d %s", pc, op.Name())
}

func (l *LogSink) Observe(pc int, value int) {
	l.Log.Infof("pc=%d PRINT: %d", pc, value)
}
