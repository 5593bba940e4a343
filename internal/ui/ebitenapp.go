package ui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	screenW = ppu.ScreenWidth
	screenH = ppu.ScreenHeight
	lineH   = 14
)

// App presents the machine in an ebiten window and feeds it keyboard input.
// One ebiten update runs one emulated frame.
type App struct {
	cfg Config
	m   *emu.Machine

	tex *ebiten.Image
	pix []byte

	paused bool
	fast   bool

	showMenu bool
	menu     menuMode
	menuIdx  int
	slot     int

	romList []string
	romSel  int
	romOff  int

	toastMsg   string
	toastUntil time.Time
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	a := &App{cfg: cfg, m: m, pix: make([]byte, screenW*screenH*4)}
	a.applyWindowSize()
	a.updateTitle()
	// one update per emulated frame; without the limit updates follow the display
	if m.Config().LimitFPS {
		ebiten.SetTPS(60)
	} else {
		ebiten.SetTPS(ebiten.SyncWithFPS)
	}
	if m.Header() == nil {
		a.showMenu, a.menu = true, menuROM
		a.romList = a.findROMs()
	}
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(screenW*a.cfg.Scale, screenH*a.cfg.Scale)
}

func (a *App) updateTitle() {
	title := a.cfg.Title
	if h := a.m.Header(); h != nil && h.Title != "" {
		title += " - [" + h.Title + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) buttons() joypad.Button {
	var b joypad.Button
	for k, btn := range a.cfg.KeyMap {
		if ebiten.IsKeyPressed(k) {
			b |= btn
		}
	}
	return b
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.showMenu = !a.showMenu
		a.menu, a.menuIdx = menuMain, 0
	}
	if a.showMenu {
		a.updateMenu()
		return nil
	}

	if a.m.Header() == nil {
		return nil
	}
	a.m.SetButtonMask(a.buttons())

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.m.ResetPostBoot()
		a.toast("Reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) && a.m.HasBootROM() {
		a.m.ResetWithBoot()
		a.toast("Reset with boot ROM")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlotToast()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlotToast()
	}
	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4} {
		if i < a.cfg.Slots && inpututil.IsKeyJustPressed(k) {
			a.slot = i
			a.toast(fmt.Sprintf("Slot %d", i+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		} else {
			a.toast("Saved " + name)
		}
	}

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			return a.m.StepFrame()
		}
		return nil
	}
	frames := 1
	if a.fast {
		frames = 5
	}
	for i := 0; i < frames; i++ {
		if err := a.m.StepFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(screenW, screenH)
	}
	if fb := a.m.Framebuffer(); fb != nil {
		ppu.ToRGBA(a.pix, fb)
		a.tex.WritePixels(a.pix)
	}
	screen.DrawImage(a.tex, nil)

	if a.showMenu {
		a.drawMenu(screen)
	} else if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 2, 2)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxChars(2)), 2, screenH-lineH-2)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return screenW, screenH }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) statePath(slot int) string {
	base := "state"
	if p := a.m.ROMPath(); p != "" {
		base = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	}
	return filepath.Join(a.cfg.StateDir, fmt.Sprintf("%s.slot%d.state", base, slot+1))
}

func (a *App) saveSlotToast() {
	if err := a.m.SaveStateToFile(a.statePath(a.slot)); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", a.slot+1))
}

func (a *App) loadSlotToast() {
	path := a.statePath(a.slot)
	if _, err := os.Stat(path); err != nil {
		a.toast("Slot is empty")
		return
	}
	if err := a.m.LoadStateFromFile(path); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Loaded slot %d", a.slot+1))
}

func savPath(rom string) string { return strings.TrimSuffix(rom, filepath.Ext(rom)) + ".sav" }

// loadROM swaps cartridges. Battery RAM of the outgoing cartridge is written
// next to its ROM and the incoming one is restored the same way.
func (a *App) loadROM(path string) error {
	if old := a.m.ROMPath(); old != "" && a.m.HasBattery() {
		if data, ok := a.m.SaveBattery(); ok {
			if err := os.WriteFile(savPath(old), data, 0644); err != nil {
				a.toast("Battery save failed: " + err.Error())
			}
		}
	}
	if err := a.m.LoadROMFromFile(path); err != nil {
		return err
	}
	if a.m.HasBattery() {
		if data, err := os.ReadFile(savPath(path)); err == nil {
			a.m.LoadBattery(data)
		}
	}
	a.updateTitle()
	return nil
}

func (a *App) saveScreenshot() (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, screenW, screenH))
	ppu.ToRGBA(img.Pix, a.m.Framebuffer())
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, img)
}

// maxChars is how many debug-font glyphs fit between x and the right edge.
func (a *App) maxChars(x int) int {
	n := (screenW - x) / 6
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}
