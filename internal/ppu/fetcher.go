package ppu

// VRAMReader gives the fetcher read access to VRAM by offset (0x0000–0x1FFF,
// i.e. CPU address minus 0x8000).
type VRAMReader interface {
	ReadVRAM(off uint16) byte
}

// fifo is a ring buffer of 2-bit color ids.
type fifo struct {
	buf  [16]byte
	head int
	tail int
	size int
}

func (q *fifo) Clear()   { q.head, q.tail, q.size = 0, 0, 0 }
func (q *fifo) Len() int { return q.size }

func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[q.tail] = ci & 0x03
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	return true
}

func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// bgFetcher pulls one background tile row (8 pixels) into the FIFO.
type bgFetcher struct {
	mem      VRAMReader
	fifo     *fifo
	unsigned bool   // LCDC bit 4: tile data at 0x0000 with unsigned indices
	mapOff   uint16 // tile map entry to fetch
	fineY    byte   // row within the tile
}

func newBGFetcher(mem VRAMReader, f *fifo) *bgFetcher { return &bgFetcher{mem: mem, fifo: f} }

func (fch *bgFetcher) Configure(mapOff uint16, unsigned bool, fineY byte) {
	fch.mapOff = mapOff
	fch.unsigned = unsigned
	fch.fineY = fineY & 7
}

// tileDataOffset resolves a tile index to the offset of its first byte.
// Signed addressing is based at 0x0800 with the index biased by 128.
func tileDataOffset(tile byte, unsigned bool) uint16 {
	if unsigned {
		return uint16(tile) * 16
	}
	return 0x0800 + uint16(int(int8(tile))+128)*16
}

// Fetch pushes the 8 color ids of the configured tile row.
func (fch *bgFetcher) Fetch() {
	tile := fch.mem.ReadVRAM(fch.mapOff)
	row := tileDataOffset(tile, fch.unsigned) + uint16(fch.fineY)*2
	lo := fch.mem.ReadVRAM(row)
	hi := fch.mem.ReadVRAM(row + 1)
	for px := 0; px < 8; px++ {
		bit := 7 - byte(px)
		_ = fch.fifo.Push(((hi>>bit)&1)<<1 | (lo>>bit)&1)
	}
}
