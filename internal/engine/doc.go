/*
Package engine implements the IOVM core: a small, resumable bytecode
interpreter whose programs are sequences of memory-access instructions
directed at heterogeneous memory targets on a host device.

A client authors a compact byte-encoded procedure of reads, writes, and
waits. The host buffers the whole procedure and loads it into a [VM]; the VM
walks the procedure one cooperative [VM.Exec] call at a time, delegating
every actual memory touch to a host-supplied [Host]. Execution is
deterministic: the entire procedure is pre-buffered by the caller and never
copied, and control returns to the host between instructions. The VM is not
allocation-free while running: it allocates one operation record for each
READ, WRITE or WAIT it begins, and an error value when an error latches.

# Data Flow

The VM is a single-threaded state machine. It has no goroutines, no timers,
and no I/O of its own; every byte it ever reads or writes outside its own
register file passes through the [Host] interface. This mirrors a real
microcontroller port where the VM's job is purely sequencing: decode an
instruction, route it to a state machine, and let the platform's own driver
code do the actual bus transaction.

	+===========+      +------------------+      +------------------+
	| Procedure |----->|   VM (engine)     |<---->|       Host        |
	|  buffer   |      |                  |      |  (memory targets)  |
	+===========+      | regs[0..3]       |      |  work RAM          |
	                   | state machine    |      |  video RAM         |
	                   | opstate: Read/   |      |  cartridge ROM     |
	                   |   Write/Wait     |      |  ...               |
	                   +------------------+      +------------------+

# Lifecycle

A VM moves through states INIT -> LOADED -> RESET -> EXECUTE_NEXT and then
cycles through per-instruction states (READ, WRITE, WAIT for I/O opcodes;
inline execution for configuration opcodes) back to EXECUTE_NEXT, ending at
ENDED or ERRORED. See [VM.Exec] for the exact step semantics.

# Registers

Four channels (0-3) each carry an independent set of registers: address,
target descriptor, length, comparison value/mask, and timeout. Configuration
opcodes (SETA8/16/24, SETTV, SETLEN, SETCMPMSK, SETTIM) set these; I/O
opcodes (READ, WRITE, WAIT_WHILE_*, and the ABORT extension) consume them.
*/
package engine
