// Package host provides a reference implementation of the engine.Host
// capability set: a set of byte-addressable memory-target chips, an
// MMIO-style router that dispatches a (Target, address) pair to the chip
// that owns it, and a Host that drives engine.VM's READ, WRITE, WAIT and
// ABORT callbacks against that router.
//
// None of this is required by the engine itself -- a caller is free to
// implement engine.Host directly against real hardware -- but it is what
// internal/cli's run and watch commands run procedures against, and it doubles as
// a model for how a Host is supposed to behave.
package host

// doc.go carries the package comment; chip.go, bus.go and host.go hold the
// chip, router and Host implementation respectively.
