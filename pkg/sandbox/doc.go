/*
Package sandbox runs one script execution per call inside a fresh goja
VM, metered against spec §4.4's five budgets: instructions executed,
memory, wall clock, oracle calls, and store queries.

goja has no opcode-level hook, so instruction counting is done by a
source-to-source instrumentation pass (instrument.go) that inserts a
call to a budget-check hook after every statement and at the top of
every loop body, without needing a full parse tree. Wall clock is a
watchdog goroutine that interrupts the runtime past its deadline, the
same ctx.Done()-driven rt.Interrupt() pattern used in the example pack's
TEE function executor. Memory is sampled off runtime.ReadMemStats on the
same watchdog tick. Oracle-call and store-query budgets are plain
counters incremented at the Host API boundary.

Capabilities are scoped by what's bound into the runtime, not by a
deny-list: Bind (implemented by pkg/hostapi) only ever registers game.*
globals plus goja's own built-in JS library — no filesystem, network,
process, or require().

# Usage

	sb := sandbox.New(sandbox.DefaultLimits)
	result, err := sb.Run(source, hostAPI, sandbox.ExecContext{
		ActorID: actorID, UniverseID: universe, ObjectID: objID, Verb: "attack",
	})

# See Also

  - pkg/hostapi for the game.* surface bound into the runtime
  - pkg/muderrs.ResourceExceeded for the abort error every limit raises
*/
package sandbox
