package engine

import (
	"errors"
	"testing"
)

// fakeHost is a minimal, fully synchronous Host: every StepRead/StepWrite
// call transfers the whole operation in one invocation, StepWait polls once
// per call and completes as soon as the polled byte no longer satisfies the
// WAIT's comparison (or reports ErrTimedOut once told to), and reads are
// served from a flat byte map keyed by address.
type fakeHost struct {
	mem        map[uint32]byte
	timeoutAt  int // StepWait call count at which to report ErrTimedOut; 0 disables
	waitCalls  int
	tryErr     error
	ended      bool
	endedState State
}

func newFakeHost() *fakeHost {
	return &fakeHost{mem: make(map[uint32]byte)}
}

func (h *fakeHost) StepRead(vm *VM, op *ReadOp) error {
	data := make([]byte, op.Length)
	for i := range data {
		data[i] = h.mem[op.Address+uint32(i)]
	}
	op.Complete()
	return nil
}

func (h *fakeHost) StepWrite(vm *VM, op *WriteOp) error {
	data := vm.WritePayload(op)
	for i, b := range data {
		h.mem[op.Address+uint32(i)] = b
	}
	op.Complete()
	return nil
}

func (h *fakeHost) StepWait(vm *VM, op *WaitOp) error {
	h.waitCalls++
	if h.timeoutAt != 0 && h.waitCalls >= h.timeoutAt {
		return ErrTimedOut
	}
	polled := h.mem[op.Address]
	if !op.Test(polled) {
		op.Complete()
	}
	return nil
}

func (h *fakeHost) TryReadByte(vm *VM, target Target, addr uint32) (uint8, error) {
	if h.tryErr != nil {
		return 0, h.tryErr
	}
	return h.mem[addr], nil
}

func (h *fakeHost) SendEnd(vm *VM) {
	h.ended = true
	h.endedState = vm.GetState()
}

func TestLoadThenExecLifecycle(t *testing.T) {
	t.Parallel()

	vm := New(newFakeHost())

	if vm.GetState() != Init {
		t.Fatalf("want Init, got %s", vm.GetState())
	}

	if err := vm.Exec(); !errors.Is(err, ErrInvalidOperationForState) {
		t.Fatalf("want ErrInvalidOperationForState before Load, got %v", err)
	}

	if err := vm.Load([]byte{byte(opEND)}); err != nil {
		t.Fatalf("load: %v", err)
	}

	if vm.GetState() != Loaded {
		t.Fatalf("want Loaded, got %s", vm.GetState())
	}

	if err := vm.Load([]byte{byte(opEND)}); !errors.Is(err, ErrInvalidOperationForState) {
		t.Fatalf("want ErrInvalidOperationForState on double load, got %v", err)
	}

	if err := vm.Exec(); err != nil {
		t.Fatalf("exec: %v", err)
	}

	if vm.GetState() != Ended {
		t.Fatalf("want Ended, got %s", vm.GetState())
	}

	// Exec is idempotent once terminal.
	if err := vm.Exec(); err != nil {
		t.Fatalf("exec after end: %v", err)
	}

	if vm.GetState() != Ended {
		t.Fatalf("want Ended still, got %s", vm.GetState())
	}
}

func TestLoadNilProcedure(t *testing.T) {
	t.Parallel()

	vm := New(newFakeHost())

	if err := vm.Load(nil); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
}

func TestExecResetMatrix(t *testing.T) {
	t.Parallel()

	vm := New(newFakeHost())

	if err := vm.ExecReset(); !errors.Is(err, ErrInvalidOperationForState) {
		t.Fatalf("want rejection from Init, got %v", err)
	}

	if err := vm.Load([]byte{byte(opEND)}); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := vm.ExecReset(); err != nil {
		t.Fatalf("exec_reset from Loaded: %v", err)
	}

	if err := vm.Exec(); err != nil {
		t.Fatalf("exec: %v", err)
	}

	if vm.GetState() != Ended {
		t.Fatalf("want Ended, got %s", vm.GetState())
	}

	if err := vm.ExecReset(); err != nil {
		t.Fatalf("exec_reset from Ended: %v", err)
	}

	if vm.GetState() != Reset {
		t.Fatalf("want Reset, got %s", vm.GetState())
	}

	if err := vm.Exec(); err != nil {
		t.Fatalf("re-exec after reset: %v", err)
	}

	if vm.GetState() != Ended {
		t.Fatalf("want Ended again, got %s", vm.GetState())
	}
}

func TestExecResetRejectedMidRun(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	vm := New(host)

	// A WAIT that will not complete on its first poll puts the VM into
	// Wait; exec_reset must be rejected while suspended there.
	host.mem[0] = 0x01

	// Build: SETCMPMSK c0,$00,$ff ; WAIT_WHILE_NEQ c0 ; END
	program := []byte{
		instrByteFor(0, opSETCMPMSK), 0x00, 0xff,
		instrByteFor(0, opWAITBase), // WAIT_WHILE_NEQ
		instrByteFor(0, opEND),
	}

	if err := vm.Load(program); err != nil {
		t.Fatalf("load: %v", err)
	}

	host.timeoutAt = 1000 // never times out within this test

	if err := vm.Exec(); err != nil {
		t.Fatalf("exec: %v", err)
	}

	if vm.GetState() != Wait {
		t.Fatalf("want Wait, got %s", vm.GetState())
	}

	if err := vm.ExecReset(); !errors.Is(err, ErrInvalidOperationForState) {
		t.Fatalf("want rejection while suspended, got %v", err)
	}
}

// instrByteFor packs the [rr cc oooo] instruction byte for ordinary
// (non-ABORT) opcodes, mirroring internal/asm's encoder for test fixtures.
func instrByteFor(c Channel, op opcode) byte {
	return (byte(c) << 4) | byte(op)
}

func TestWaitWhilePolarityPerComparator(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cmp     Comparator
		cmpByte uint8
		polled  uint8
		holds   bool // Test() result: true means "keep waiting"
	}{
		{"EQ equal keeps waiting", CmpEQ, 0x05, 0x05, true},
		{"EQ unequal completes", CmpEQ, 0x05, 0x09, false},
		{"NEQ unequal keeps waiting", CmpNEQ, 0x05, 0x09, true},
		{"NEQ equal completes", CmpNEQ, 0x05, 0x05, false},
		{"LT less keeps waiting", CmpLT, 0x05, 0x01, true},
		{"LT not-less completes", CmpLT, 0x05, 0x05, false},
		{"GT greater keeps waiting", CmpGT, 0x05, 0x09, true},
		{"GT not-greater completes", CmpGT, 0x05, 0x01, false},
		{"NLT (>=) keeps waiting", CmpNLT, 0x05, 0x05, true},
		{"NLT (>=) not satisfied completes", CmpNLT, 0x05, 0x01, false},
		{"NGT (<=) keeps waiting", CmpNGT, 0x05, 0x01, true},
		{"NGT (<=) not satisfied completes", CmpNGT, 0x05, 0x09, false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			op := &WaitOp{Expected: c.cmpByte, Mask: 0xff, Cmp: c.cmp}

			if got := op.Test(c.polled); got != c.holds {
				t.Errorf("Test(%#02x) = %v, want %v", c.polled, got, c.holds)
			}
		})
	}
}

func TestWritePayloadResumeOffset(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	vm := New(host)

	// SETLEN c0,3 ; WRITE c0, $de,$ad,$be ; END
	program := []byte{
		instrByteFor(0, opSETLEN), 0x03, 0x00,
		instrByteFor(0, opWRITE), 0xde, 0xad, 0xbe,
		instrByteFor(0, opEND),
	}

	if err := vm.Load(program); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := vm.Exec(); err != nil {
		t.Fatalf("exec: %v", err)
	}

	if vm.GetState() != Ended {
		t.Fatalf("want Ended (resumed past the payload into END), got %s", vm.GetState())
	}

	want := []byte{0xde, 0xad, 0xbe}
	for i, b := range want {
		if host.mem[uint32(i)] != b {
			t.Errorf("mem[%d] = %#02x, want %#02x", i, host.mem[uint32(i)], b)
		}
	}
}

func TestAbortShortCircuitsSynchronously(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	host.mem[0] = 0x01

	vm := New(host)

	// SETCMPMSK c0,$01,$ff ; ABORT_IF.EQ c0 ; END
	program := []byte{
		instrByteFor(0, opSETCMPMSK), 0x01, 0xff,
		(1 << 6) | (0 << 4) | (byte(CmpEQ) << 1) | 0, // abortif.eq c0
		instrByteFor(0, opEND),
	}

	if err := vm.Load(program); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := vm.Exec()
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}

	if vm.GetState() != Errored {
		t.Fatalf("want Errored, got %s", vm.GetState())
	}

	if !host.ended || host.endedState != Errored {
		t.Fatalf("want SendEnd called once with Errored, got ended=%v state=%s", host.ended, host.endedState)
	}
}

func TestUnknownOpcode(t *testing.T) {
	t.Parallel()

	vm := New(newFakeHost())

	// rr=10 is reserved and decodes invalid.
	program := []byte{0b10_00_0000}

	if err := vm.Load(program); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := vm.Exec()
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("want ErrUnknownOpcode, got %v", err)
	}
}

func TestTruncatedOperand(t *testing.T) {
	t.Parallel()

	vm := New(newFakeHost())

	// SETA24 with only one operand byte instead of three.
	program := []byte{instrByteFor(0, opSETA24), 0x01}

	if err := vm.Load(program); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := vm.Exec()
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
}

func TestWaitTimesOut(t *testing.T) {
	t.Parallel()

	host := newFakeHost()
	host.mem[0] = 0xff
	host.timeoutAt = 2

	vm := New(host)

	// SETCMPMSK c0,$00,$ff ; WAIT_WHILE_NEQ c0 ; END
	program := []byte{
		instrByteFor(0, opSETCMPMSK), 0x00, 0xff,
		instrByteFor(0, opWAITBase),
		instrByteFor(0, opEND),
	}

	if err := vm.Load(program); err != nil {
		t.Fatalf("load: %v", err)
	}

	var err error
	for i := 0; i < 5 && vm.GetState() != Errored && vm.GetState() != Ended; i++ {
		err = vm.Exec()
	}

	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("want ErrTimedOut, got %v", err)
	}
}

func TestExecIdempotentAfterError(t *testing.T) {
	t.Parallel()

	vm := New(newFakeHost())

	if err := vm.Load([]byte{0b10_00_0000}); err != nil {
		t.Fatalf("load: %v", err)
	}

	first := vm.Exec()
	second := vm.Exec()

	if first == nil || second == nil {
		t.Fatalf("want both Exec calls to return the latched error, got %v, %v", first, second)
	}

	if first.Error() != second.Error() {
		t.Fatalf("want the same error both times, got %q then %q", first, second)
	}
}
