package dma

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

const (
	// Length is the number of bytes copied into OAM by one transfer.
	Length = 0xA0

	cyclesPerByte = 4
)

// Source reads the transfer source without any bus-side blocking.
type Source interface {
	ReadDirect(addr uint16) byte
}

// OAMWriter receives the copied bytes, index 0..Length-1.
type OAMWriter interface {
	WriteOAM(index int, v byte)
}

// DMA is the OAM transfer controller behind 0xFF46.
type DMA struct {
	register byte
	source   uint16
	index    int
	cycles   int
	active   bool
}

func New() *DMA { return &DMA{} }

// Start latches source = v<<8 and begins a new transfer, restarting any
// transfer already in progress.
func (d *DMA) Start(v byte) {
	d.register = v
	d.source = uint16(v) << 8
	d.index = 0
	d.cycles = 0
	d.active = true
}

func (d *DMA) Active() bool { return d.active }

// Register returns the last value written to 0xFF46.
func (d *DMA) Register() byte { return d.register }

// Tick meters the transfer: one byte per 4 clock cycles.
func (d *DMA) Tick(cycles int, src Source, dst OAMWriter) {
	if !d.active {
		return
	}
	d.cycles += cycles
	for d.active && d.cycles >= cyclesPerByte {
		d.cycles -= cyclesPerByte
		if d.index >= Length {
			panic(fmt.Sprintf("dma: index %d past end of transfer", d.index))
		}
		dst.WriteOAM(d.index, src.ReadDirect(d.source+uint16(d.index)))
		d.index++
		if d.index == Length {
			d.active = false
			d.cycles = 0
		}
	}
}

type state struct {
	Register byte
	Source   uint16
	Index    int
	Cycles   int
	Active   bool
}

func (d *DMA) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{d.register, d.source, d.index, d.cycles, d.active})
	return buf.Bytes()
}

func (d *DMA) LoadState(data []byte) error {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	d.register, d.source, d.index, d.cycles, d.active = s.Register, s.Source, s.Index, s.Cycles, s.Active
	return nil
}
