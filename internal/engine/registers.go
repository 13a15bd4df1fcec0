package engine

// registers.go defines the per-channel register file: the operand state set
// by configuration opcodes and consumed by I/O opcodes.

import "fmt"

// channelRegs holds one channel's full register set.
type channelRegs struct {
	addr    uint32           // a[c]: 24-bit address in a 32-bit slot.
	tv      TargetDescriptor // tv[c]: target descriptor.
	length  uint32           // len[c]: transfer length; SETLEN stores an encoded 0 as 65536.
	cmp     uint8            // cmp[c]: comparison value.
	mask    uint8            // msk[c]: comparison mask.
	timeout uint32           // tim[c]: timeout in host-defined ticks.
}

func (r channelRegs) String() string {
	return fmt.Sprintf(
		"a=%#08x tv=%s len=%d cmp=%#02x msk=%#02x tim=%d",
		r.addr, r.tv, r.length, r.cmp, r.mask, r.timeout,
	)
}

// registerFile is the fixed array of per-channel registers.
type registerFile [NumChannels]channelRegs

// reset restores every channel to its power-on values: zeroed address,
// target, length, and timeout, comparison value zero, and mask 0xFF, so an
// unconfigured compare matches whatever byte-equality the program sets up
// without masking anything away by accident.
func (rf *registerFile) reset() {
	for i := range rf {
		rf[i] = channelRegs{mask: 0xff}
	}
}

// setLength applies the SETLEN zero-means-max rule used throughout this
// (16-bit length family) ISA: an encoded zero means 65536.
func setLength(raw uint32) uint32 {
	if raw == 0 {
		return 65536
	}
	return raw
}
