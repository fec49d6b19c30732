/*
Package vm implements a deterministic, metered, stack-based virtual
machine for smart-contract scripts.

A script is loaded into an Engine as an execution context. Each
context has an instruction pointer, an evaluation stack and optional
static, local and argument slots. CALL and its variants push a new
context that shares the script, evaluation stack and static slots of
the caller; RET pops it. The engine halts when the last context
returns and the items it left behind form the result stack.

The main loop in Engine.step decodes one instruction, charges its
price from the gas budget, and dispatches through a JumpTable indexed
by opcode. Handlers are grouped by category, each in its own file:
  - push
  - control
  - stack
  - slots
  - splice
  - numeric (bitwise, arithmetic and comparison)
  - compound
  - types

Exceptions are raised by THROW, or by any handler returning a runtime
fault while Limits.CatchEngineFaults is set. They unwind through the
try regions opened by TRY in the current and calling contexts. Any
other error, and an exception that no region catches, faults the
engine; Engine.Err then returns a *Fault describing it.

All values live in package stackitem. A RefCounter shared by every
stack and slot of an engine bounds the number of live item references
by Limits.MaxStackSize, collecting unreachable containers, cycles
included, after each instruction.
*/
package vm
