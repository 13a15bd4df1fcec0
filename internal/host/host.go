package host

import (
	"iovm/internal/engine"
	"iovm/internal/log"
)

// Host is the reference engine.Host implementation: it drives READ, WRITE,
// WAIT and ABORT against a Bus of mapped chips, one byte per Step call, and
// reports termination to an optional Sink. It mirrors the shape of the
// source's Memory type (internal/vm/mem.go) -- an address/data path in
// front of a routed backing store -- generalized to the channel-based
// engine contract.
type Host struct {
	Bus *Bus
	// Sink, if set, is notified when a run reaches a terminal state and
	// (if it implements ReadSink) fed the bytes each completed READ
	// produced.
	Sink Sink

	log *log.Logger

	// readBuf accumulates the bytes of the single in-flight READ.
	readBuf []byte

	// writeOffsets tracks how many payload bytes of an in-flight WRITE
	// have been transferred, keyed by the operation record's identity.
	writeOffsets map[*engine.WriteOp]int

	// ticks counts host-defined timer ticks elapsed per in-flight WAIT,
	// keyed by the operation record's identity. One StepWait call
	// advances one tick.
	ticks map[*engine.WaitOp]uint32
}

// Sink receives end-of-run notifications from a Host.
type Sink interface {
	RunEnded(vm *engine.VM)
}

// ReadSink is a Sink that additionally wants completed READ payloads.
type ReadSink interface {
	Sink
	ReadCompleted(vm *engine.VM, target engine.Target, addr uint32, data []byte)
}

// NewHost creates a Host routed through bus. sink may be nil.
func NewHost(bus *Bus, sink Sink) *Host {
	return &Host{
		Bus:          bus,
		Sink:         sink,
		log:          log.DefaultLogger(),
		writeOffsets: make(map[*engine.WriteOp]int),
		ticks:        make(map[*engine.WaitOp]uint32),
	}
}

// StepRead transfers one byte per call from the target chip into the
// host's own buffer, which it reports through Sink once the READ
// completes.
func (h *Host) StepRead(vm *engine.VM, op *engine.ReadOp) error {
	if op.Initial {
		h.readBuf = make([]byte, 0, op.Length)
	}

	addr := op.Address + uint32(len(h.readBuf))

	b, err := h.Bus.ReadByte(op.Target, addr)
	if err != nil {
		h.readBuf = nil
		return err
	}

	h.readBuf = append(h.readBuf, b)

	if uint32(len(h.readBuf)) < op.Length {
		op.Continue()
		return nil
	}

	op.Complete()

	data := h.readBuf
	h.readBuf = nil

	if rs, ok := h.Sink.(ReadSink); ok {
		rs.ReadCompleted(vm, op.Target, op.Address, data)
	}

	h.log.Debug("read completed", "TARGET", op.Target, "ADDR", op.Address, "LEN", len(data))

	return nil
}

// StepWrite transfers one byte per call from the procedure's payload (via
// vm.WritePayload) to the target chip.
func (h *Host) StepWrite(vm *engine.VM, op *engine.WriteOp) error {
	data := vm.WritePayload(op)

	off := h.writeOffsets[op]

	if off >= len(data) {
		op.Complete()
		delete(h.writeOffsets, op)

		return nil
	}

	if err := h.Bus.WriteByte(op.Target, op.Address+uint32(off), data[off]); err != nil {
		delete(h.writeOffsets, op)
		return err
	}

	off++
	h.writeOffsets[op] = off

	if off >= len(data) {
		op.Complete()
		delete(h.writeOffsets, op)
	} else {
		op.Continue()
	}

	return nil
}

// StepWait polls one byte per call and completes the WAIT once its
// condition clears, or fails it with ErrTimedOut once the channel's
// configured number of ticks elapses first.
func (h *Host) StepWait(vm *engine.VM, op *engine.WaitOp) error {
	if op.Initial {
		h.ticks[op] = 0
	}

	b, err := h.Bus.ReadByte(op.Target, op.Address)
	if err != nil {
		delete(h.ticks, op)
		return err
	}

	if !op.Test(b) {
		op.Complete()
		delete(h.ticks, op)

		return nil
	}

	h.ticks[op]++

	if op.Timeout != 0 && h.ticks[op] >= op.Timeout {
		delete(h.ticks, op)
		return engine.ErrTimedOut
	}

	op.Continue()

	return nil
}

// TryReadByte performs the single synchronous byte read the ABORT
// extension needs to evaluate its condition.
func (h *Host) TryReadByte(vm *engine.VM, target engine.Target, addr uint32) (uint8, error) {
	return h.Bus.ReadByte(target, addr)
}

// SendEnd reports a terminated run to Sink, if set.
func (h *Host) SendEnd(vm *engine.VM) {
	h.log.Debug("run ended", "STATE", vm.GetState())

	if h.Sink != nil {
		h.Sink.RunEnded(vm)
	}
}
