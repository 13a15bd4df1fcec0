package engine

// ops_exec.go contains the three I/O operation state machines (READ, WRITE,
// WAIT) and the synchronous ABORT extension, plus the host-facing helpers
// that expose operation state and procedure bytes to callbacks.

// beginRead sets up a READ using the channel's current registers and enters
// the Read state.
func (vm *VM) beginRead(c Channel, reg *channelRegs) {
	vm.op = &ReadOp{
		Chan:    c,
		Target:  reg.tv.Target(),
		Address: reg.addr,
		Length:  reg.length,
		Advance: reg.tv.Advance(),
		Initial: true,
	}
	vm.state = Read
}

// beginWrite sets up a WRITE. The resume offset is computed before the
// state machine runs, so the payload bytes are reserved up front and the
// engine resumes at the right instruction regardless of how many
// suspensions the transfer takes.
func (vm *VM) beginWrite(c Channel, reg *channelRegs) error {
	dataOffset := vm.buf.off
	length := reg.length

	if _, ok := vm.buf.slice(dataOffset, int(length)); !ok {
		return vm.latch(ErrOutOfRange, "WRITE: payload exceeds procedure buffer")
	}

	vm.op = &WriteOp{
		Chan:       c,
		Target:     reg.tv.Target(),
		Address:    reg.addr,
		Length:     length,
		Advance:    reg.tv.Advance(),
		Initial:    true,
		dataOffset: dataOffset,
		nextOff:    dataOffset + int(length),
	}
	vm.state = Write

	return nil
}

// beginWait sets up a WAIT_WHILE_<cmp> using the channel's current
// registers.
func (vm *VM) beginWait(c Channel, reg *channelRegs, cmp Comparator) {
	vm.op = &WaitOp{
		Chan:     c,
		Target:   reg.tv.Target(),
		Address:  reg.addr,
		Expected: reg.cmp,
		Mask:     reg.mask,
		Cmp:      cmp,
		Timeout:  reg.timeout,
		Initial:  true,
	}
	vm.state = Wait
}

// execAbort evaluates the ABORT extension synchronously: one byte read via
// the host's TryReadByte, masked and compared. It never suspends.
func (vm *VM) execAbort(ins instruction) error {
	reg := &vm.regs[ins.chn]

	b, err := vm.host.TryReadByte(vm, reg.tv.Target(), reg.addr)
	if err != nil {
		return vm.latchErr(err)
	}

	holds := ins.cmp.Eval(b&reg.mask, reg.cmp&reg.mask)
	if ins.unless {
		holds = !holds
	}

	if holds {
		return vm.latch(ErrAborted, "")
	}

	return nil
}

// stepOperation re-enters the currently active operation's state machine
// exactly once. A COMPLETED result advances the VM to ExecuteNext and
// continues decoding within the same Exec call (there is no real suspension
// to return for); a CONTINUE result suspends Exec, to be resumed on the
// caller's next call.
func (vm *VM) stepOperation() error {
	switch op := vm.op.(type) {
	case *ReadOp:
		err := vm.host.StepRead(vm, op)
		op.Initial = false

		if err != nil {
			return vm.latchErr(err)
		}

		if op.st != OpCompleted {
			return nil
		}

		if op.Advance {
			vm.regs[op.Chan].addr += op.Length
		}

		vm.op = nil
		vm.state = ExecuteNext

		return vm.runExecuteNext()

	case *WriteOp:
		err := vm.host.StepWrite(vm, op)
		op.Initial = false

		if err != nil {
			return vm.latchErr(err)
		}

		if op.st != OpCompleted {
			return nil
		}

		if op.Advance {
			vm.regs[op.Chan].addr += op.Length
		}

		vm.buf.off = op.nextOff
		vm.op = nil
		vm.state = ExecuteNext

		return vm.runExecuteNext()

	case *WaitOp:
		err := vm.host.StepWait(vm, op)
		op.Initial = false

		if err != nil {
			return vm.latchErr(err)
		}

		if op.st != OpCompleted {
			return nil
		}

		vm.op = nil
		vm.state = ExecuteNext

		return vm.runExecuteNext()

	default:
		return vm.latch(ErrInvalidOperationForState, "suspended with no active operation")
	}
}

// WritePayload returns the procedure bytes a WRITE is transferring, so a
// host's StepWrite implementation can read them without the engine handing
// out ownership of its buffer generally.
func (vm *VM) WritePayload(op *WriteOp) []byte {
	data, _ := vm.buf.slice(op.dataOffset, int(op.Length))
	return data
}

// CompareByte packages the masked comparison for an in-flight WAIT, as a
// convenience for hosts implementing their own polling loop.
func CompareByte(op *WaitOp, polled uint8) bool {
	return op.Test(polled)
}

// Compare evaluates a standalone comparator application, for hosts that
// want to reuse the engine's comparator table outside of a WaitOp.
func Compare(c Comparator, a, b uint8) bool {
	return c.Eval(a, b)
}
