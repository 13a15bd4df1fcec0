package engine

// engine.go assembles the VM from its smaller parts and implements the
// public lifecycle API: Init, Load, ExecReset, Exec, GetState.

import (
	"fmt"

	"iovm/internal/log"
)

// VM is a single IOVM instance: a procedure buffer, a register file, the
// currently active operation (if any), and the host it delegates every
// memory touch to.
//
// A VM is not safe for concurrent use: the caller must not re-enter Exec
// from another goroutine while a call is in flight.
type VM struct {
	state State
	err   *Error

	buf  buffer
	regs registerFile

	// op is the sum type over {nil, *ReadOp, *WriteOp, *WaitOp}: at most
	// one operation is ever in flight.
	op operation

	// instrOffset is the offset of the instruction currently executing, for
	// error reporting.
	instrOffset int

	endSent bool

	host Host
	log  *log.Logger

	userData any
}

// New creates a zeroed VM in state Init, wired to host. host must not be
// nil; every instruction the VM executes eventually calls into it.
func New(host Host, opts ...Option) *VM {
	vm := &VM{host: host, log: log.DefaultLogger()}
	vm.regs.reset()

	for _, opt := range opts {
		opt(vm)
	}

	return vm
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithLogger overrides the VM's logger.
func WithLogger(l *log.Logger) Option {
	return func(vm *VM) { vm.log = l }
}

// GetState observes the VM's current execution state.
func (vm *VM) GetState() State {
	return vm.state
}

// Err returns the latched error, or nil if the VM has not errored.
func (vm *VM) Err() error {
	if vm.err == nil {
		return nil
	}
	return vm.err
}

// UserData returns the opaque pointer the host previously set with
// SetUserData, so callbacks can associate host context with the VM without
// a package-level global.
func (vm *VM) UserData() any {
	return vm.userData
}

// SetUserData stores an opaque pointer for later retrieval via UserData.
func (vm *VM) SetUserData(v any) {
	vm.userData = v
}

// Init re-zeroes a VM's registers and buffer pointer and sets state to Init,
// as if freshly constructed. Unlike New, it does not change the host.
func (vm *VM) Init() {
	vm.state = Init
	vm.err = nil
	vm.buf = buffer{}
	vm.regs.reset()
	vm.op = nil
	vm.instrOffset = 0
	vm.endSent = false
}

// Load accepts a procedure buffer. It is permitted only in state Init.
func (vm *VM) Load(proc []byte) error {
	if vm.state != Init {
		return vm.fail(ErrInvalidOperationForState, "load: state is "+vm.state.String())
	}

	if proc == nil {
		return vm.fail(ErrOutOfRange, "load: nil procedure")
	}

	vm.buf = buffer{proc: proc}
	vm.state = Loaded

	vm.log.Debug("loaded procedure", "LEN", len(proc))

	return nil
}

// ExecReset returns the VM to state Reset, ready for the next Exec call to
// start a fresh run. It is permitted from Loaded or from any terminal state
// (Ended, Errored); it is rejected while an operation is in flight or mid
// dispatch (ExecuteNext, Read, Write, Wait).
func (vm *VM) ExecReset() error {
	switch vm.state {
	case Loaded, Ended, Errored:
		vm.state = Reset
		vm.err = nil
		vm.endSent = false

		return nil
	default:
		return vm.fail(ErrInvalidOperationForState, "exec_reset: state is "+vm.state.String())
	}
}

// fail builds and returns a *Error without latching it (some callers, e.g.
// Load and ExecReset, report it directly to their caller instead of putting
// the VM into Errored).
func (vm *VM) fail(kind error, detail string) *Error {
	return newError(kind, vm.instrOffset, detail)
}

// latch records err as the VM's terminal failure, transitions to Errored,
// and notifies the host exactly once.
func (vm *VM) latch(kind error, detail string) error {
	err := newError(kind, vm.instrOffset, detail)
	vm.err = err
	vm.state = Errored

	vm.log.Error("latched error", "ERR", err, "OFFSET", vm.instrOffset, "OP", vm.suspendedOpInfo())

	vm.notifyEnd()

	return err
}

// latchErr latches an error that a host callback already produced
// (e.g. a memory-chip fault). An *Error is latched as is; any other error
// is wrapped in an *Error carrying the current instruction offset.
func (vm *VM) latchErr(err error) error {
	if ioErr, ok := err.(*Error); ok {
		vm.err = ioErr
	} else {
		vm.err = newError(err, vm.instrOffset, "")
	}

	vm.state = Errored

	vm.log.Error("latched error", "ERR", vm.err, "OFFSET", vm.instrOffset, "OP", vm.suspendedOpInfo())

	vm.notifyEnd()

	return vm.err
}

// suspendedOpInfo describes the operation in flight when an error latches,
// for diagnostics; it reports "none" if nothing was suspended.
func (vm *VM) suspendedOpInfo() string {
	if vm.op == nil {
		return "none"
	}

	return fmt.Sprintf("%s %s (%s)", vm.op.channel(), vm.op.state(), vm.op)
}

func (vm *VM) end() {
	vm.state = Ended
	vm.notifyEnd()
}

func (vm *VM) notifyEnd() {
	if vm.endSent {
		return
	}
	vm.endSent = true
	vm.host.SendEnd(vm)
}

// Exec runs one cooperative step. It returns quickly: either the procedure
// ended, an operation suspended awaiting more host work, or an error
// latched. Exec is idempotent once the VM reaches Ended or Errored: it
// returns the same result without invoking any host callback.
func (vm *VM) Exec() error {
	if vm.state == Errored {
		return vm.err
	}

	if vm.state == Ended {
		return nil
	}

	if vm.state.suspended() {
		return vm.stepOperation()
	}

	if vm.state < Loaded {
		return vm.fail(ErrInvalidOperationForState, "exec: state is "+vm.state.String())
	}

	if vm.state == Loaded {
		vm.state = Reset
	}

	if vm.state == Reset {
		vm.buf.reset()
		vm.regs.reset()
		vm.op = nil
		vm.state = ExecuteNext
	}

	return vm.runExecuteNext()
}

// runExecuteNext decodes and dispatches instructions until a non-instant
// opcode suspends execution, the buffer is exhausted, or an error latches.
func (vm *VM) runExecuteNext() error {
	for {
		if vm.buf.atEnd() {
			vm.end()
			return nil
		}

		vm.instrOffset = vm.buf.off
		raw := vm.buf.fetchByte()
		ins := decodeInstruction(raw)

		if !ins.valid {
			return vm.latch(ErrUnknownOpcode, "reserved instruction bits")
		}

		if ins.abort {
			if err := vm.execAbort(ins); err != nil {
				return err
			}
			continue
		}

		done, err := vm.dispatch(ins)
		if err != nil {
			return err
		}

		if vm.state == Ended {
			// opEND: already notified via vm.end() inside dispatch.
			return nil
		}

		if !done {
			// An I/O opcode put the VM into a suspended state; re-enter its
			// state machine immediately, within this same Exec call.
			return vm.stepOperation()
		}
	}
}

// dispatch executes a decoded, non-ABORT instruction. It returns done=true
// when the instruction completed inline (configuration opcodes, END) and
// the caller should keep decoding; done=false when an I/O opcode has been
// set up and the VM is now in a suspended state.
func (vm *VM) dispatch(ins instruction) (done bool, err error) {
	c := ins.chn
	reg := &vm.regs[c]

	switch ins.op {
	case opEND:
		vm.end()
		return true, nil // caller's loop exits on the Ended state check

	case opSETA8:
		v, ok := vm.buf.fetchN(1)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETA8: truncated operand")
		}
		reg.addr = v

	case opSETA16:
		v, ok := vm.buf.fetchN(2)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETA16: truncated operand")
		}
		reg.addr = v

	case opSETA24:
		v, ok := vm.buf.fetchN(3)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETA24: truncated operand")
		}
		reg.addr = v

	case opSETTV:
		v, ok := vm.buf.fetchN(1)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETTV: truncated operand")
		}
		reg.tv = TargetDescriptor(v)

	case opSETLEN:
		v, ok := vm.buf.fetchN(2)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETLEN: truncated operand")
		}
		reg.length = setLength(v)

	case opSETCMPMSK:
		v, ok := vm.buf.fetchN(2)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETCMPMSK: truncated operand")
		}
		reg.cmp = uint8(v & 0xff)
		reg.mask = uint8(v >> 8)

	case opSETTIM:
		v, ok := vm.buf.fetchN(4)
		if !ok {
			return false, vm.latch(ErrOutOfRange, "SETTIM: truncated operand")
		}
		reg.timeout = v

	case opREAD:
		vm.beginRead(c, reg)
		return false, nil

	case opWRITE:
		if err := vm.beginWrite(c, reg); err != nil {
			return false, err
		}
		return false, nil

	case opWAITBase, opWAITBase + 1, opWAITBase + 2, opWAITBase + 3, opWAITBase + 4, opWAITBase + 5:
		vm.beginWait(c, reg, waitComparators[ins.op-opWAITBase])
		return false, nil

	default:
		return false, vm.latch(ErrUnknownOpcode, "")
	}

	return true, nil
}
