package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/statsview"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ui"
)

type CLIFlags struct {
	ROMPath string
	BootROM string
	Scale   int
	Title   string
	Trace   bool
	SaveRAM bool // persist battery RAM next to ROM (.sav)
	Stats   bool
	StatsAt string

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional DMG boot ROM")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "dmgcore", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "log every instruction and print the log tail on exit")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")
	flag.BoolVar(&f.Stats, "statsview", false, "serve runtime statistics over HTTP")
	flag.StringVar(&f.StatsAt, "statsaddr", statsview.Address, "statsview listen address")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

// frameCRC hashes the ARGB frame as little-endian bytes.
func frameCRC(fb []uint32) uint32 {
	buf := make([]byte, 0, len(fb)*4)
	for _, px := range fb {
		buf = append(buf, byte(px), byte(px>>8), byte(px>>16), byte(px>>24))
	}
	return crc32.ChecksumIEEE(buf)
}

func runHeadless(m *emu.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := m.StepFrame(); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	fb := m.Framebuffer()
	crc := frameCRC(fb)
	fps := float64(frames) / dur.Seconds()

	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(fb []uint32, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	ppu.ToRGBA(img.Pix, fb)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func savPath(rom string) string {
	if rom == "" {
		return ""
	}
	return strings.TrimSuffix(rom, filepath.Ext(rom)) + ".sav"
}

func writeBattery(m *emu.Machine, path string) {
	if path == "" || !m.HasBattery() {
		return
	}
	data, ok := m.SaveBattery()
	if !ok {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("write %s: %v", path, err)
		return
	}
	log.Printf("wrote %s", path)
}

func main() {
	f := parseFlags()
	if f.Stats {
		statsview.Launch(os.Stderr, f.StatsAt)
	}
	if f.Trace {
		defer logger.Tail(os.Stderr, 64)
	}

	m := emu.New(emu.Config{Trace: f.Trace, LimitFPS: !f.Headless})
	m.SetBootROM(mustRead(f.BootROM))

	romPath := f.ROMPath
	if romPath != "" {
		if abs, err := filepath.Abs(romPath); err == nil {
			romPath = abs
		}
		if err := m.LoadROMFromFile(romPath); err != nil {
			log.Fatalf("load cart: %v", err)
		}
		h := m.Header()
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	if f.SaveRAM && m.HasBattery() {
		p := savPath(romPath)
		if data, err := os.ReadFile(p); err == nil && m.LoadBattery(data) {
			log.Printf("loaded save RAM: %s (%d bytes)", p, len(data))
		}
	}

	if f.Headless {
		if romPath == "" {
			log.Fatal("headless mode needs -rom")
		}
		err := runHeadless(m, f.Frames, f.PNGOut, f.Expect)
		if f.SaveRAM {
			writeBattery(m, savPath(romPath))
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	app := ui.NewApp(ui.Config{Title: f.Title, Scale: f.Scale}, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	// the ROM may have been switched from the menu
	if f.SaveRAM {
		writeBattery(m, savPath(m.ROMPath()))
	}
}
