package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// RegionState tells which clause of a try construct is running.
type RegionState byte

const (
	InTry RegionState = iota
	InCatch
	InFinally
)

func (s RegionState) String() string {
	switch s {
	case InTry:
		return "try"
	case InCatch:
		return "catch"
	case InFinally:
		return "finally"
	}
	return "?"
}

// Region is one open try/catch/finally construct. Catch and
// Finally are absolute positions, or -1 when the clause is absent.
type Region struct {
	TryStart int
	TryEnd   int
	Catch    int
	Finally  int

	// End is where execution continues after the finally
	// clause of a normally completed region.
	End int

	State RegionState
}

func (r *Region) hasCatch() bool   { return r.Catch >= 0 }
func (r *Region) hasFinally() bool { return r.Finally >= 0 }

// contains reports whether pos lies inside the clause currently
// running. Clauses after the protected block extend to the next
// clause or to the end of the script.
func (r *Region) contains(pos, scriptLen int) bool {
	switch r.State {
	case InTry:
		return pos >= r.TryStart && pos < r.TryEnd
	case InCatch:
		if r.hasFinally() && r.Finally > r.Catch {
			return pos >= r.Catch && pos < r.Finally
		}
		return pos >= r.Catch && pos <= scriptLen
	}
	return pos >= r.Finally && pos <= scriptLen
}

func newRegion(tryStart, catch, finally, scriptLen int) *Region {
	end := scriptLen
	for _, p := range []int{catch, finally} {
		if p > tryStart && p < end {
			end = p
		}
	}
	return &Region{
		TryStart: tryStart,
		TryEnd:   end,
		Catch:    catch,
		Finally:  finally,
		End:      -1,
	}
}

// shared is the state a context shares with the contexts
// CALL derives from it.
type shared struct {
	script *Script
	estack *Stack
	static *Slot
}

// Context is one activation record on the invocation stack.
type Context struct {
	*shared

	ip      int
	locals  *Slot
	args    *Slot
	regions []*Region
	rvcount int
}

func newContext(s *Script, rc *stackitem.RefCounter, rvcount, ip int) *Context {
	return &Context{
		shared: &shared{
			script: s,
			estack: NewStack(rc),
		},
		ip:      ip,
		rvcount: rvcount,
	}
}

// clone returns a context for CALL: it shares the script,
// evaluation stack and static fields, and starts at ip.
func (c *Context) clone(ip int) *Context {
	return &Context{
		shared:  c.shared,
		ip:      ip,
		rvcount: -1,
	}
}

// Script returns the script being executed.
func (c *Context) Script() *Script { return c.script }

// IP returns the instruction pointer.
func (c *Context) IP() int { return c.ip }

// EvaluationStack returns the operand stack.
func (c *Context) EvaluationStack() *Stack { return c.estack }

// StaticFields returns the static slot, nil until INITSSLOT.
func (c *Context) StaticFields() *Slot { return c.static }

// Locals returns the local slot, nil until INITSLOT.
func (c *Context) Locals() *Slot { return c.locals }

// Arguments returns the argument slot, nil until INITSLOT.
func (c *Context) Arguments() *Slot { return c.args }

// Regions returns the open exception regions, innermost last.
func (c *Context) Regions() []*Region { return c.regions }

// ReturnCount is the number of items the context must leave on
// its stack when it returns to a different stack, or -1 for any.
func (c *Context) ReturnCount() int { return c.rvcount }

// NextInstruction returns the instruction at the instruction pointer.
func (c *Context) NextInstruction() (Instruction, error) {
	return c.script.At(c.ip)
}

func (c *Context) topRegion() *Region {
	if len(c.regions) == 0 {
		return nil
	}
	return c.regions[len(c.regions)-1]
}

func (c *Context) popRegion() {
	c.regions[len(c.regions)-1] = nil
	c.regions = c.regions[:len(c.regions)-1]
}

// checkJump validates a raw jump target: it must start an
// instruction or be the end of the script, and it must stay
// inside the running clause of every open region.
func (c *Context) checkJump(pos int) error {
	n := c.script.Len()
	if pos < 0 || pos > n || !c.script.IsBoundary(pos) {
		return errors.WithDetailf(ErrInvalidJump, "target %d in script of %d bytes", pos, n)
	}
	for _, r := range c.regions {
		if !r.contains(pos, n) {
			return errors.WithDetailf(ErrInvalidOperand, "jump to %d leaves %s clause", pos, r.State)
		}
	}
	return nil
}
