package ui

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

type menuMode int

const (
	menuMain menuMode = iota
	menuSlot
	menuROM
	menuKeys
)

var mainItems = []string{"Save state", "Load state", "Select slot", "Switch ROM", "Keybindings", "Close"}

func (a *App) updateMenu() {
	switch a.menu {
	case menuMain:
		a.updateMainMenu()
	case menuSlot:
		a.updateSlotMenu()
	case menuROM:
		a.updateROMMenu()
	case menuKeys:
		if back() || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			a.menu = menuMain
		}
	}
}

func back() bool { return inpututil.IsKeyJustPressed(ebiten.KeyBackspace) }

// moveSel applies up/down to *sel within [0, n).
func moveSel(sel *int, n int) {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && *sel > 0 {
		*sel--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && *sel < n-1 {
		*sel++
	}
}

func (a *App) updateMainMenu() {
	moveSel(&a.menuIdx, len(mainItems))
	if back() {
		a.showMenu = false
		return
	}
	if !inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		return
	}
	switch a.menuIdx {
	case 0:
		a.saveSlotToast()
	case 1:
		a.loadSlotToast()
	case 2:
		a.menu, a.menuIdx = menuSlot, a.slot
	case 3:
		a.romList = a.findROMs()
		a.romSel, a.romOff = 0, 0
		a.menu = menuROM
	case 4:
		a.menu = menuKeys
	case 5:
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	moveSel(&a.menuIdx, a.cfg.Slots)
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.slot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.slot+1))
		a.menu, a.menuIdx = menuMain, 2
	}
	if back() {
		a.menu, a.menuIdx = menuMain, 2
	}
}

func (a *App) romRows() int {
	n := (screenH - 40) / lineH
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) updateROMMenu() {
	if back() {
		a.menu = menuMain
		return
	}
	n := len(a.romList)
	if n == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			a.menu = menuMain
		}
		return
	}
	moveSel(&a.romSel, n)
	rows := a.romRows()
	if a.romSel < a.romOff {
		a.romOff = a.romSel
	}
	if a.romSel >= a.romOff+rows {
		a.romOff = a.romSel - rows + 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		path := a.romList[a.romSel]
		if err := a.loadROM(path); err != nil {
			a.toast("ROM load failed: " + err.Error())
		} else {
			a.toast("Loaded " + filepath.Base(path))
			a.showMenu = false
		}
		a.menu = menuMain
	}
}

func (a *App) findROMs() []string {
	var out []string
	filepath.WalkDir(a.cfg.ROMsDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".gb") {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func (a *App) drawMenu(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, screenW, screenH, color.RGBA{0, 0, 0, 160}, false)
	switch a.menu {
	case menuMain:
		lines := make([]string, len(mainItems))
		for i, s := range mainItems {
			if i < 2 {
				s = fmt.Sprintf("%s (%d)", s, a.slot+1)
			}
			lines[i] = s
		}
		a.drawList(screen, "Menu", lines, a.menuIdx, 0)
	case menuSlot:
		lines := make([]string, a.cfg.Slots)
		for i := range lines {
			lines[i] = fmt.Sprintf("%d", i+1)
			if _, err := os.Stat(a.statePath(i)); err != nil {
				lines[i] += " [empty]"
			}
		}
		a.drawList(screen, "Select slot", lines, a.menuIdx, 0)
	case menuROM:
		ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, a.maxChars(10)), 10, 24)
		if len(a.romList) == 0 {
			a.drawList(screen, "Select ROM", []string{"No ROMs found"}, -1, 0)
			return
		}
		names := make([]string, len(a.romList))
		for i, p := range a.romList {
			names[i] = filepath.Base(p)
		}
		a.drawList(screen, "Select ROM", names, a.romSel, a.romOff)
	case menuKeys:
		a.drawList(screen, "Keys", []string{
			"Z/X: A/B", "Enter: Start", "RShift: Select", "Arrows: D-pad",
			"P: Pause  N: Step", "Tab: Fast-forward", "R: Reset  B: Boot",
			"F5/F9: Save/Load", "1-4: Slot  F12: Shot",
		}, -1, 0)
	}
}

// drawList prints a title and the visible window of items starting at off,
// marking sel.
func (a *App) drawList(screen *ebiten.Image, title string, items []string, sel, off int) {
	ebitenutil.DebugPrintAt(screen, title, 10, 6)
	baseY := 6 + lineH
	if a.menu == menuROM {
		baseY = 40
	}
	rows := (screenH - baseY) / lineH
	end := off + rows
	if end > len(items) {
		end = len(items)
	}
	for i := off; i < end; i++ {
		prefix := "  "
		if i == sel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, a.truncateText(prefix+items[i], a.maxChars(10)), 10, baseY+(i-off)*lineH)
	}
	if off > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, baseY)
	}
	if end < len(items) {
		ebitenutil.DebugPrintAt(screen, "v", 2, baseY+(rows-1)*lineH)
	}
}
