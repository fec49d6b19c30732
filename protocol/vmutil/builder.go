package vmutil

import (
	"encoding/binary"
	"math/big"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
)

var (
	ErrUnresolvedJump = errors.New("unresolved jump target")
	ErrRange          = errors.New("value out of range")
)

// Builder assembles a script. Relative operands always use the
// four-byte forms so targets may be set after they are used.
type Builder struct {
	program     []byte
	jumpCounter int
	err         error

	// Maps a jump target number to its absolute address.
	jumpAddr map[int]int

	// Maps a jump target number to the operands that must be
	// filled in once its address is known.
	jumpPlaceholders map[int][]placeholder
}

type placeholder struct {
	at   int // operand position
	base int // offset of the instruction
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		jumpAddr:         make(map[int]int),
		jumpPlaceholders: make(map[int][]placeholder),
	}
}

// AddInt64 adds the shortest instruction pushing n.
func (b *Builder) AddInt64(n int64) *Builder {
	b.program = append(b.program, vm.PushdataInt64(n)...)
	return b
}

// AddInt adds the shortest instruction pushing v. Values wider
// than 32 bytes make Build fail with ErrRange.
func (b *Builder) AddInt(v *big.Int) *Builder {
	p, ok := vm.PushdataInt(v)
	if !ok {
		b.setErr(errors.WithDetailf(ErrRange, "%s needs more than 32 bytes", v))
		return b
	}
	b.program = append(b.program, p...)
	return b
}

// AddIntWidth adds a PUSHINT instruction of the given operand
// width (1, 2, 4, 8, 16 or 32 bytes).
func (b *Builder) AddIntWidth(v *big.Int, width int) *Builder {
	var o op.Opcode
	switch width {
	case 1:
		o = op.PUSHINT8
	case 2:
		o = op.PUSHINT16
	case 4:
		o = op.PUSHINT32
	case 8:
		o = op.PUSHINT64
	case 16:
		o = op.PUSHINT128
	case 32:
		o = op.PUSHINT256
	default:
		b.setErr(errors.WithDetailf(ErrRange, "width %d", width))
		return b
	}
	operand, ok := vm.IntOperand(v, width)
	if !ok {
		b.setErr(errors.WithDetailf(ErrRange, "%s does not fit %d bytes", v, width))
		return b
	}
	b.program = append(append(b.program, byte(o)), operand...)
	return b
}

// AddData adds a pushdata instruction for a given byte string.
func (b *Builder) AddData(data []byte) *Builder {
	b.program = append(b.program, vm.PushdataBytes(data)...)
	return b
}

// AddRawBytes simply appends the given bytes to the program. (It does
// not introduce a pushdata opcode.)
func (b *Builder) AddRawBytes(data []byte) *Builder {
	b.program = append(b.program, data...)
	return b
}

// AddOp adds the given opcode to the program. Operands, if any,
// follow with AddRawBytes.
func (b *Builder) AddOp(o op.Opcode) *Builder {
	b.program = append(b.program, byte(o))
	return b
}

// AddSyscall adds a SYSCALL of the named interop service.
func (b *Builder) AddSyscall(name string) *Builder {
	b.AddOp(op.SYSCALL)
	b.program = binary.LittleEndian.AppendUint32(b.program, vm.SyscallID(name))
	return b
}

// NewJumpTarget allocates a number that can be used as a target
// in the jump, call and try methods. Call SetJumpTarget to
// associate the number with a program location.
func (b *Builder) NewJumpTarget() int {
	b.jumpCounter++
	return b.jumpCounter
}

// AddJump adds a JMP_L to target.
func (b *Builder) AddJump(target int) *Builder {
	return b.AddJumpOp(op.JMPL, target)
}

// AddJumpIf adds a JMPIF_L to target.
func (b *Builder) AddJumpIf(target int) *Builder {
	return b.AddJumpOp(op.JMPIFL, target)
}

// AddCall adds a CALL_L to target.
func (b *Builder) AddCall(target int) *Builder {
	return b.AddJumpOp(op.CALLL, target)
}

// AddJumpOp adds o with target as its relative operand. The
// opcode must take a four-byte relative operand: a long jump,
// CALL_L, ENDTRY_L or PUSHA.
func (b *Builder) AddJumpOp(o op.Opcode, target int) *Builder {
	if size, _ := o.OperandSize(); !o.IsRelative() || size != 4 || o == op.TRYL {
		b.setErr(errors.WithDetailf(ErrRange, "%s does not take a long relative operand", o))
		return b
	}
	base := len(b.program)
	b.AddOp(o)
	b.addPlaceholder(target, base)
	return b
}

// AddTry adds a TRY_L opening a region with the given catch and
// finally targets. A target of 0 means the clause is absent.
func (b *Builder) AddTry(catch, finally int) *Builder {
	if catch == 0 && finally == 0 {
		b.setErr(errors.WithDetail(ErrRange, "try without catch or finally"))
		return b
	}
	base := len(b.program)
	b.AddOp(op.TRYL)
	for _, target := range []int{catch, finally} {
		if target == 0 {
			b.AddRawBytes([]byte{0, 0, 0, 0})
			continue
		}
		b.addPlaceholder(target, base)
	}
	return b
}

func (b *Builder) addPlaceholder(target, base int) {
	b.jumpPlaceholders[target] = append(b.jumpPlaceholders[target], placeholder{at: len(b.program), base: base})
	b.AddRawBytes([]byte{0, 0, 0, 0})
}

// SetJumpTarget associates the given jump-target number with the
// current position in the program - namely, the program's length,
// such that the first instruction executed by a jump using this
// target will be whatever instruction is added next. It is legal for
// SetJumpTarget to be called at the end of the program, causing jumps
// using that target to return from the script.
func (b *Builder) SetJumpTarget(target int) *Builder {
	b.jumpAddr[target] = len(b.program)
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build produces the bytecode of the program. It first resolves any
// jumps in the program by filling in the offsets of their targets.
// This requires SetJumpTarget to be called prior to Build for each
// jump target used. If any target's address hasn't been set in this
// way, this function produces ErrUnresolvedJump. It also returns the
// first ErrRange recorded by an Add method.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	for target, placeholders := range b.jumpPlaceholders {
		addr, ok := b.jumpAddr[target]
		if !ok {
			return nil, errors.Wrapf(ErrUnresolvedJump, "target %d", target)
		}
		for _, p := range placeholders {
			binary.LittleEndian.PutUint32(b.program[p.at:p.at+4], uint32(int32(addr-p.base)))
		}
	}
	return b.program, nil
}
