package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace    bool // log every instruction boundary through the logger
	LimitFPS bool // frontends throttle to the DMG refresh rate
}
