// picovm CLI - the main entry point for assembling and running picovm programs
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/picovm/asm"
	"github.com/chazu/picovm/bundle"
	"github.com/chazu/picovm/manifest"
	"github.com/chazu/picovm/runlog"
	"github.com/chazu/picovm/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	engineName := flag.String("engine", "table", "Dispatch engine: table, switch or both")
	traceFlag := flag.Bool("trace", false, "Log one line per executed instruction")
	disasmFlag := flag.Bool("disasm", false, "Disassemble the program instead of running it")
	recordPath := flag.String("record", "", "Record results to the given SQLite database")
	suiteFlag := flag.Bool("suite", false, "Run the program suite from picovm.toml in the given directory")
	packPath := flag.String("pack", "", "Assemble into a .pvmb bundle at the given path instead of running")
	verbosity := flag.Int("v", 0, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: picovm [options] <program.pvm|program.pvmb|dir>\n\n")
		fmt.Fprintf(os.Stderr, "Runs picovm bytecode programs from assembly (.pvm) or bundle (.pvmb) files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  picovm examples/arith.pvm                  # Run with table dispatch\n")
		fmt.Fprintf(os.Stderr, "  picovm -engine both -trace prog.pvm        # Run both engines with tracing\n")
		fmt.Fprintf(os.Stderr, "  picovm -disasm prog.pvmb                   # Show the disassembly\n")
		fmt.Fprintf(os.Stderr, "  picovm -pack prog.pvmb prog.pvm            # Bundle an assembled program\n")
		fmt.Fprintf(os.Stderr, "  picovm -suite .                            # Run the picovm.toml suite\n")
		fmt.Fprintf(os.Stderr, "  picovm -record runs.db examples/arith.pvm  # Keep a run history\n")
	}
	flag.Parse()

	// Trace lines go out at debug level.
	level := *verbosity
	if *traceFlag && level < 2 {
		level = 2
	}
	commonlog.Configure(level, nil)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	target := flag.Arg(0)

	if *suiteFlag {
		os.Exit(runSuite(target, *recordPath))
	}

	name, code, expect, err := loadProgram(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *packPath != "" {
		p := &bundle.Program{Name: name, Code: code, Expect: expect}
		if err := bundle.WriteFile(*packPath, p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d bytes of code)\n", *packPath, len(code))
		return
	}

	if *disasmFlag {
		fmt.Println(vm.Disassemble(code))
		return
	}

	engines, err := enginesFor(*engineName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := openStore(*recordPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if store != nil {
		defer store.Close()
	}

	if !execute(name, code, expect, engines, *traceFlag, store) {
		os.Exit(1)
	}
}

// loadProgram reads a .pvm assembly file or a .pvmb bundle.
func loadProgram(path string) (name string, code []byte, expect *int, err error) {
	switch filepath.Ext(path) {
	case ".pvmb":
		p, err := bundle.ReadFile(path)
		if err != nil {
			return "", nil, nil, err
		}
		return p.Name, p.Code, p.Expect, nil
	default:
		source, err := os.ReadFile(path)
		if err != nil {
			return "", nil, nil, err
		}
		code, err := asm.Assemble(string(source))
		if err != nil {
			return "", nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return name, code, nil, nil
	}
}

// enginesFor resolves an engine selector to entry point names.
func enginesFor(selector string) ([]string, error) {
	switch selector {
	case "both":
		return []string{"table", "switch"}, nil
	default:
		if _, ok := vm.Engines[selector]; !ok {
			return nil, fmt.Errorf("unknown engine %q (want table, switch or both)", selector)
		}
		return []string{selector}, nil
	}
}

func openStore(path string) (*runlog.Store, error) {
	if path == "" {
		return nil, nil
	}
	return runlog.Open(path)
}

// execute runs a program on each selected engine, printing results and
// checking the expected value and cross-engine agreement.
func execute(name string, code []byte, expect *int, engines []string, trace bool, store *runlog.Store) bool {
	ok := true
	results := make(map[string]int, len(engines))

	for _, engineName := range engines {
		var sink vm.TraceSink
		if trace {
			sink = vm.NewLogSink()
		}
		counting := &vm.CountingSink{Next: sink}

		result := vm.Engines[engineName](code, counting)
		results[engineName] = result
		fmt.Printf("%s [%s] = %d\n", name, engineName, result)

		if expect != nil && result != *expect {
			fmt.Fprintf(os.Stderr, "FAIL: %s [%s] = %d, expected %d\n", name, engineName, result, *expect)
			ok = false
		}

		if store != nil {
			err := store.Add(runlog.Record{
				Program: name,
				Engine:  engineName,
				Result:  result,
				Steps:   counting.Instructions,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}

	if len(engines) == 2 && results[engines[0]] != results[engines[1]] {
		fmt.Fprintf(os.Stderr, "FAIL: %s: engines disagree: %v\n", name, results)
		ok = false
	}
	return ok
}

// runSuite executes every program in the directory's picovm.toml.
func runSuite(dir string, recordOverride string) int {
	m, err := manifest.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	engines, err := enginesFor(m.Run.Engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Trace lines go out at debug level, so manifest-driven tracing needs
	// the verbosity raised the same way the -trace flag raises it.
	if m.Run.Trace {
		commonlog.Configure(2, nil)
	}

	recordPath := m.Run.Record
	if recordOverride != "" {
		recordPath = recordOverride
	}
	store, err := openStore(recordPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if store != nil {
		defer store.Close()
	}

	failures := 0
	for _, entry := range m.Programs {
		_, code, expect, err := loadProgram(m.ProgramPath(entry))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", entry.Name, err)
			failures++
			continue
		}
		if expect == nil {
			expect = entry.Expect
		}
		if !execute(entry.Name, code, expect, engines, m.Run.Trace, store) {
			failures++
		}
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d programs failed\n", failures, len(m.Programs))
		return 1
	}
	fmt.Printf("%d programs passed\n", len(m.Programs))
	return 0
}
