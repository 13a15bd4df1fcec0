package host

import (
	"fmt"

	"iovm/internal/engine"
)

// Memory target IDs for the reference host. Target is an open uint8 enum: a
// caller may define its own IDs above SRAM for a custom chip, Undefined is
// reserved for "nothing is mapped here".
const (
	WorkRAM      engine.Target = iota // general-purpose scratch RAM
	VideoRAM                          // tile/sprite pixel data
	PaletteRAM                        // colour lookup tables
	OAM                               // object attribute memory (sprite slots)
	AudioRAM                          // sound channel waveform/sequence data
	DedicatedRAM                      // a region reserved for a single fixed purpose
	CartROM                           // cartridge program ROM, read-only
	SRAM                              // battery-backed save RAM

	// Undefined is never a valid chip's own ID. Bus.Lookup does not return
	// it: an unclaimed target is reported as (nil, false).
	Undefined engine.Target = 0x3f
)

// Chip is a single memory-mapped region a Bus can route READ/WRITE/ABORT
// byte accesses to. Implementations need not be safe for concurrent use;
// the engine never calls into a Host concurrently with itself.
type Chip interface {
	// ReadByte returns the byte at addr, or an error if addr is out of
	// range for this chip.
	ReadByte(addr uint32) (byte, error)

	// WriteByte stores b at addr, or returns an error if addr is out of
	// range or the chip is read-only.
	WriteByte(addr uint32, b byte) error

	// Len reports the chip's addressable size in bytes.
	Len() int
}

// RAM is a flat, read/write byte-addressable chip backed by a plain slice.
// It grounds WorkRAM, VideoRAM, PaletteRAM, OAM, AudioRAM, DedicatedRAM and
// SRAM: all of them are just differently-purposed RAM from the engine's
// point of view.
type RAM struct {
	cells []byte
}

// NewRAM allocates a zeroed RAM chip of the given size.
func NewRAM(size int) *RAM {
	return &RAM{cells: make([]byte, size)}
}

func (r *RAM) Len() int { return len(r.cells) }

func (r *RAM) ReadByte(addr uint32) (byte, error) {
	if int(addr) >= len(r.cells) {
		return 0, fmt.Errorf("%w: addr %#x", engine.ErrMemoryChipAddressOutOfRange, addr)
	}

	return r.cells[addr], nil
}

func (r *RAM) WriteByte(addr uint32, b byte) error {
	if int(addr) >= len(r.cells) {
		return fmt.Errorf("%w: addr %#x", engine.ErrMemoryChipAddressOutOfRange, addr)
	}

	r.cells[addr] = b

	return nil
}

// Bytes exposes the chip's backing storage directly, e.g. for a watch
// command that wants to render a live view of video or palette RAM.
func (r *RAM) Bytes() []byte { return r.cells }

// ROM is a read-only chip pre-loaded with fixed content; it grounds CartROM.
type ROM struct {
	cells []byte
}

// NewROM copies data into a new read-only chip.
func NewROM(data []byte) *ROM {
	cells := make([]byte, len(data))
	copy(cells, data)

	return &ROM{cells: cells}
}

func (r *ROM) Len() int { return len(r.cells) }

func (r *ROM) ReadByte(addr uint32) (byte, error) {
	if int(addr) >= len(r.cells) {
		return 0, fmt.Errorf("%w: addr %#x", engine.ErrMemoryChipAddressOutOfRange, addr)
	}

	return r.cells[addr], nil
}

func (r *ROM) WriteByte(addr uint32, _ byte) error {
	if int(addr) >= len(r.cells) {
		return fmt.Errorf("%w: addr %#x", engine.ErrMemoryChipAddressOutOfRange, addr)
	}

	return fmt.Errorf("%w: addr %#x", engine.ErrMemoryChipNotWritable, addr)
}
