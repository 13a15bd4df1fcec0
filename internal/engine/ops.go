package engine

// ops.go defines the per-operation records. At most one is active at a
// time; the active one is held in VM.op as the `operation` sum type, so
// "no operation in flight" is simply a nil interface value rather than a
// separate opstate-ambiguity to track.

import "fmt"

// operation is the common surface every in-flight I/O operation record
// implements so the engine can drive it generically from Exec without a
// type switch at every call site.
type operation interface {
	// state returns the operation's current progress.
	state() OpState

	// channel returns the channel the operation was issued on, for
	// diagnostics.
	channel() Channel

	fmt.Stringer
}

// ReadOp is the operand record for an in-flight READ. It is exported so host
// callbacks (which receive a *ReadOp) can inspect and advance it.
type ReadOp struct {
	Chan    Channel
	Target  Target
	Address uint32
	Length  uint32 // resolved transfer length (post zero-means-max)
	Advance bool

	// Initial is true only on the first invocation of the host's read state
	// machine for this operation; hosts that must arm a DMA window or reset
	// a timer on entry can key off of it.
	Initial bool

	st OpState
}

func (op *ReadOp) state() OpState    { return op.st }
func (op *ReadOp) channel() Channel  { return op.Chan }
func (op *ReadOp) String() string {
	return fmt.Sprintf("READ(%s target=%d addr=%#06x len=%d state=%s)",
		op.Chan, op.Target, op.Address, op.Length, op.st)
}

// Complete marks the operation finished. Hosts call this from their read
// state machine once the transfer is done.
func (op *ReadOp) Complete() { op.st = OpCompleted }

// Continue marks the operation as not yet finished; Exec will return control
// to the caller and re-enter the state machine on the next call.
func (op *ReadOp) Continue() { op.st = OpContinue }

// WriteOp is the operand record for an in-flight WRITE. The payload bytes
// live in the procedure buffer; hosts read them via (*VM).WritePayload.
type WriteOp struct {
	Chan       Channel
	Target     Target
	Address    uint32
	Length     uint32
	Advance    bool
	Initial    bool
	dataOffset int // offset in the procedure buffer where the payload starts
	nextOff    int // buffer cursor to resume at once the operation completes

	st OpState
}

func (op *WriteOp) state() OpState   { return op.st }
func (op *WriteOp) channel() Channel { return op.Chan }
func (op *WriteOp) String() string {
	return fmt.Sprintf("WRITE(%s target=%d addr=%#06x len=%d state=%s)",
		op.Chan, op.Target, op.Address, op.Length, op.st)
}

func (op *WriteOp) Complete() { op.st = OpCompleted }
func (op *WriteOp) Continue() { op.st = OpContinue }

// WaitOp is the operand record for an in-flight WAIT_WHILE_*.
type WaitOp struct {
	Chan     Channel
	Target   Target
	Address  uint32
	Expected uint8
	Mask     uint8
	Cmp      Comparator
	Timeout  uint32
	Initial  bool

	st OpState
}

func (op *WaitOp) state() OpState   { return op.st }
func (op *WaitOp) channel() Channel { return op.Chan }
func (op *WaitOp) String() string {
	return fmt.Sprintf("WAIT(%s target=%d addr=%#06x cmp=%s expect=%#02x mask=%#02x state=%s)",
		op.Chan, op.Target, op.Address, op.Cmp, op.Expected, op.Mask, op.st)
}

func (op *WaitOp) Complete() { op.st = OpCompleted }
func (op *WaitOp) Continue() { op.st = OpContinue }

// Test evaluates the WAIT's comparator against a polled byte, applying the
// channel's mask first. It reports whether the poll condition still holds,
// i.e. whether WAIT_WHILE_* should keep looping.
func (op *WaitOp) Test(polled uint8) bool {
	return op.Cmp.Eval(polled&op.Mask, op.Expected&op.Mask)
}
