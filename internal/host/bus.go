package host

import (
	"fmt"

	"iovm/internal/engine"
	"iovm/internal/log"
)

// Bus is the memory-mapped I/O router: it holds a table indexed by target
// ID and dispatches byte accesses to whichever Chip is mapped there, over
// an open set of memory targets rather than a fixed register layout.
type Bus struct {
	chips map[engine.Target]Chip
	log   *log.Logger
}

// NewBus creates an empty router. Targets are mapped into it with Map.
func NewBus() *Bus {
	return &Bus{
		chips: make(map[engine.Target]Chip),
		log:   log.DefaultLogger(),
	}
}

// Map installs chip as the handler for target, replacing any chip
// previously mapped there.
func (b *Bus) Map(target engine.Target, chip Chip) {
	b.chips[target] = chip
}

// Lookup returns the chip mapped at target, or (nil, false) if nothing
// claims it.
func (b *Bus) Lookup(target engine.Target) (Chip, bool) {
	c, ok := b.chips[target]
	return c, ok
}

// ReadByte routes a single-byte read to the chip mapped at target.
func (b *Bus) ReadByte(target engine.Target, addr uint32) (byte, error) {
	chip, ok := b.chips[target]
	if !ok {
		return 0, fmt.Errorf("%w: target %d", engine.ErrMemoryChipUndefined, target)
	}

	v, err := chip.ReadByte(addr)
	if err != nil {
		return 0, fmt.Errorf("bus: read: target %d: %w", target, err)
	}

	b.log.Debug("bus read", "TARGET", target, "ADDR", addr, "VALUE", v)

	return v, nil
}

// WriteByte routes a single-byte write to the chip mapped at target.
func (b *Bus) WriteByte(target engine.Target, addr uint32, v byte) error {
	chip, ok := b.chips[target]
	if !ok {
		return fmt.Errorf("%w: target %d", engine.ErrMemoryChipUndefined, target)
	}

	if err := chip.WriteByte(addr, v); err != nil {
		return fmt.Errorf("bus: write: target %d: %w", target, err)
	}

	b.log.Debug("bus write", "TARGET", target, "ADDR", addr, "VALUE", v)

	return nil
}
