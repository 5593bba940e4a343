// Command cpurunner runs a test ROM headless and watches the serial port for
// the pass/fail banner that blargg-style test ROMs print.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"
	"github.com/bradleyjkemp/memviz"
)

// writerFunc adapts a function to io.Writer
type writerFunc func(p []byte) (n int, err error)

func (f writerFunc) Write(p []byte) (n int, err error) { return f(p) }

type verdict int

const (
	running verdict = iota
	passed
	failed
)

var (
	failRe  = regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	stageRe = regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
)

// detect inspects the serial output so far. The second result is the failure
// summary, if any.
func detect(serial string) (verdict, string) {
	if strings.Contains(strings.ToLower(serial), "passed") {
		return passed, ""
	}
	if m := failRe.FindStringSubmatch(serial); m != nil {
		return failed, m[0]
	}
	return running, ""
}

// lastStage returns the last "NN:NN" marker printed by a combined test ROM.
func lastStage(serial string) string {
	mm := stageRe.FindAllString(serial, -1)
	if len(mm) == 0 {
		return ""
	}
	return mm[len(mm)-1]
}

type traceEntry struct {
	regs  cpu.Registers
	op    byte
	cyc   int
	ime   bool
	ifreg byte
	ie    byte
}

func (te traceEntry) String() string {
	r := te.regs
	return fmt.Sprintf("PC=%04X OP=%02X cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X",
		r.PC, te.op, te.cyc, r.A, r.F.Byte(), r.B, r.C, r.D, r.E, r.H, r.L, r.SP, te.ime, te.ifreg, te.ie)
}

// ring keeps the last len(buf) values in insertion order.
type ring[T any] struct {
	buf  []T
	next int
	fill int
}

func newRing[T any](n int) *ring[T] { return &ring[T]{buf: make([]T, n)} }

func (r *ring[T]) Add(v T) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.fill < len(r.buf) {
		r.fill++
	}
}

// Items returns the retained values oldest first.
func (r *ring[T]) Items() []T {
	out := make([]T, 0, r.fill)
	start := (r.next - r.fill + len(r.buf)) % max(len(r.buf), 1)
	for j := 0; j < r.fill; j++ {
		out = append(out, r.buf[(start+j)%len(r.buf)])
	}
	return out
}

// snapshot is the object graph written by -memviz.
type snapshot struct {
	ROM          string
	Registers    cpu.Registers
	State        string
	IME          bool
	IE, IF       byte
	Cycles       uint64
	DecodeErrors int
	LastDecode   error
}

func writeMemviz(path string, m *emu.Machine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	c := m.CPU()
	return dumpSnapshot(f, &snapshot{
		ROM:          m.Header().Title,
		Registers:    c.Registers,
		State:        c.State().String(),
		IME:          c.IME,
		IE:           m.Bus().Read(0xFFFF),
		IF:           m.Bus().Read(0xFF0F),
		Cycles:       m.Cycles(),
		DecodeErrors: c.DecodeErrors(),
		LastDecode:   c.LastDecodeError(),
	})
}

// dumpSnapshot writes the dot graph and closes w, reporting a failed flush.
func dumpSnapshot(w io.WriteCloser, s *snapshot) error {
	memviz.Map(w, s)
	return w.Close()
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	steps := flag.Int("steps", 5_000_000, "max instructions to run")
	startPC := flag.Int("pc", 0x0100, "initial PC value when no boot ROM is given")
	trace := flag.Bool("trace", false, "print PC/opcodes")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "when -auto detects failure, print a recent trace window (slows down)")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to include in 'traceOnFail' dump")
	serialWindow := flag.Int("serialWindow", 8192, "number of recent serial bytes to retain for diagnostics on fail")
	memvizPath := flag.String("memviz", "", "write a Graphviz dot graph of the final CPU state to this path")
	stepMode := flag.Bool("step", false, "single-step interactively: space/enter steps, c continues, q quits")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	var boot []byte
	if *bootPath != "" {
		b, err := os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
		boot = b
	}

	var ser bytes.Buffer
	serRing := newRing[byte](max(*serialWindow, 256))
	m := emu.New(emu.Config{})
	m.SetSerialWriter(io.MultiWriter(os.Stdout, &ser, writerFunc(func(p []byte) (int, error) {
		for _, ch := range p {
			serRing.Add(ch)
		}
		return len(p), nil
	})))
	m.SetBootROM(boot)
	if err := m.LoadROMFromFile(*romPath); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	c := m.CPU()
	if !m.HasBootROM() {
		c.PC = uint16(*startPC)
	}

	var stp *stepper
	if *stepMode {
		s, err := openStepper()
		if err != nil {
			log.Fatalf("step mode: %v", err)
		}
		defer s.Close()
		stp = s
	}

	began := time.Now()
	finish := func(code int, n int) {
		fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", n, m.Cycles(), time.Since(began).Truncate(time.Millisecond))
		if *memvizPath != "" {
			if err := writeMemviz(*memvizPath, m); err != nil {
				log.Printf("memviz: %v", err)
			}
		}
		if c.DecodeErrors() > 0 {
			logger.Tail(os.Stderr, 10)
		}
		if stp != nil {
			stp.Close()
		}
		if code != 0 {
			os.Exit(code)
		}
	}

	var deadline time.Time
	if *timeout > 0 {
		deadline = began.Add(*timeout)
	}
	traces := newRing[traceEntry](*traceWindow)
	wantTrace := *trace || *traceOnFail || stp != nil

	for i := 0; i < *steps; i++ {
		var te traceEntry
		if wantTrace {
			te.regs = c.Registers
			te.op = m.Bus().Read(c.PC)
			te.ime = c.IME
		}
		cyc, err := m.StepInstruction()
		if err != nil {
			log.Fatal(err)
		}
		if wantTrace {
			te.cyc = cyc
			te.ifreg = m.Bus().Read(0xFF0F)
			te.ie = m.Bus().Read(0xFFFF)
			if *trace || stp != nil {
				fmt.Println(te)
			}
			if *traceOnFail {
				traces.Add(te)
			}
		}
		if stp != nil && !stp.Next() {
			finish(0, i+1)
			return
		}

		if *auto {
			s := ser.String()
			switch v, summary := detect(s); v {
			case passed:
				fmt.Printf("\nDetected PASS in serial output.\n")
				if st := lastStage(s); st != "" {
					fmt.Printf("Last stage seen: %s\n", st)
				}
				finish(0, i+1)
				return
			case failed:
				fmt.Printf("\nDetected %s in serial output.\n", summary)
				if st := lastStage(s); st != "" {
					fmt.Printf("Last stage seen: %s\n", st)
				}
				if items := traces.Items(); len(items) > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(items))
					for _, te := range items {
						fmt.Println(te)
					}
					fmt.Printf("--- end trace ---\n")
				}
				if items := serRing.Items(); len(items) > 0 {
					fmt.Printf("\n--- recent serial (last %d bytes) ---\n%s\n--- end serial ---\n", len(items), items)
				}
				finish(1, i+1)
				return
			}
		} else if *until != "" {
			if strings.Contains(strings.ToLower(ser.String()), strings.ToLower(*until)) {
				fmt.Printf("\nDetected '%s' in serial output.\n", *until)
				finish(0, i+1)
				return
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(began).Truncate(time.Millisecond))
			finish(2, i+1)
			return
		}
	}
	finish(0, *steps)
}
