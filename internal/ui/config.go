package ui

import (
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/joypad"
	"github.com/hajimehoshi/ebiten/v2"
)

// Config contains window and input settings.
type Config struct {
	Title    string // window title
	Scale    int    // integer upscaling factor
	ROMsDir  string // directory to browse for ROMs
	StateDir string // where save state slots are written
	Slots    int

	// KeyMap binds keyboard keys to joypad buttons. Several keys may share a
	// button.
	KeyMap map[ebiten.Key]joypad.Button
}

// DefaultKeyMap is Z/X for A/B, Enter and right shift for Start/Select and
// the arrow keys for the D-pad.
func DefaultKeyMap() map[ebiten.Key]joypad.Button {
	return map[ebiten.Key]joypad.Button{
		ebiten.KeyArrowRight: joypad.Right,
		ebiten.KeyArrowLeft:  joypad.Left,
		ebiten.KeyArrowUp:    joypad.Up,
		ebiten.KeyArrowDown:  joypad.Down,
		ebiten.KeyZ:          joypad.A,
		ebiten.KeyX:          joypad.B,
		ebiten.KeyEnter:      joypad.Start,
		ebiten.KeyShiftRight: joypad.Select,
	}
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "dmgcore"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.StateDir == "" {
		c.StateDir = "."
	}
	if c.Slots <= 0 {
		c.Slots = 4
	}
	if c.KeyMap == nil {
		c.KeyMap = DefaultKeyMap()
	}
}
