package vm

import (
	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
)

// Limits bounds the resources one engine may use.
type Limits struct {
	// MaxShift is the largest shift amount of SHL and SHR and
	// the largest exponent of POW.
	MaxShift int

	// MaxStackSize is the ceiling of the reference counter: the
	// number of items held by stacks, slots and containers.
	MaxStackSize int

	// MaxItemSize bounds the byte size of ByteString and Buffer items.
	MaxItemSize int

	// MaxInvocationStackSize bounds the number of loaded contexts.
	MaxInvocationStackSize int

	// MaxTryNestingDepth bounds the open exception regions per context.
	MaxTryNestingDepth int

	// CatchEngineFaults lets TRY catch runtime faults raised by
	// the engine itself. When false only THROW can be caught.
	CatchEngineFaults bool
}

// DefaultLimits are the limits of the public network.
var DefaultLimits = Limits{
	MaxShift:               256,
	MaxStackSize:           2 * 1024,
	MaxItemSize:            65535 * 2,
	MaxInvocationStackSize: 1024,
	MaxTryNestingDepth:     16,
	CatchEngineFaults:      true,
}

func (l *Limits) checkItemSize(n int) error {
	if n < 0 || n > l.MaxItemSize {
		return errors.WithDetailf(ErrItemTooLarge, "%d bytes, max %d", n, l.MaxItemSize)
	}
	return nil
}

func (l *Limits) checkShift(n int64) error {
	if n < 0 || n > int64(l.MaxShift) {
		return errors.WithDetailf(ErrInvalidOperand, "shift %d outside [0, %d]", n, l.MaxShift)
	}
	return nil
}

// PriceTable holds the gas price of each opcode plus the price
// of each byte allocated by data-producing instructions.
type PriceTable struct {
	Opcode  [256]int64
	PerByte int64
}

// Price returns the base price of o.
func (p *PriceTable) Price(o op.Opcode) int64 {
	return p.Opcode[o]
}

// DefaultPrices returns the standard opcode price table. The
// caller may modify the result.
func DefaultPrices() *PriceTable {
	p := new(PriceTable)
	set := func(price int64, ops ...op.Opcode) {
		for _, o := range ops {
			p.Opcode[o] = price
		}
	}
	rng := func(price int64, from, to op.Opcode) {
		for o := int(from); o <= int(to); o++ {
			p.Opcode[o] = price
		}
	}

	set(1, op.PUSHINT8, op.PUSHINT16, op.PUSHINT32, op.PUSHINT64,
		op.PUSHT, op.PUSHF, op.PUSHNULL, op.PUSHM1, op.NOP, op.ASSERT, op.ASSERTMSG)
	set(4, op.PUSHINT128, op.PUSHINT256, op.PUSHA)
	set(8, op.PUSHDATA1)
	set(512, op.PUSHDATA2)
	set(4096, op.PUSHDATA4)
	rng(1, op.PUSH0, op.PUSH16)

	rng(2, op.JMP, op.JMPLEL)
	set(512, op.CALL, op.CALLL, op.CALLA, op.THROW)
	set(32768, op.CALLT)
	set(4, op.TRY, op.TRYL, op.ENDTRY, op.ENDTRYL, op.ENDFINALLY)
	set(0, op.ABORT, op.ABORTMSG, op.RET, op.SYSCALL)

	set(2, op.DEPTH, op.DROP, op.NIP, op.DUP, op.OVER, op.PICK, op.TUCK,
		op.SWAP, op.ROT, op.REVERSE3, op.REVERSE4)
	set(16, op.XDROP, op.CLEAR, op.ROLL, op.REVERSEN)

	set(16, op.INITSSLOT)
	set(64, op.INITSLOT)
	rng(2, op.LDSFLD0, op.STARG)

	set(256, op.NEWBUFFER)
	set(2048, op.MEMCPY, op.CAT, op.SUBSTR, op.LEFT, op.RIGHT)

	set(4, op.INVERT)
	set(8, op.AND, op.OR, op.XOR)
	set(32, op.EQUAL, op.NOTEQUAL)

	set(4, op.SIGN, op.ABS, op.NEGATE, op.INC, op.DEC, op.NOT, op.NZ)
	set(8, op.ADD, op.SUB, op.MUL, op.DIV, op.MOD, op.SHL, op.SHR,
		op.BOOLAND, op.BOOLOR, op.NUMEQUAL, op.NUMNOTEQUAL,
		op.LT, op.LE, op.GT, op.GE, op.MIN, op.MAX, op.WITHIN)
	set(64, op.POW, op.SQRT)
	set(32, op.MODMUL)
	set(2048, op.MODPOW)

	set(2048, op.PACKMAP, op.PACKSTRUCT, op.PACK, op.UNPACK)
	set(16, op.NEWARRAY0, op.NEWSTRUCT0, op.KEYS, op.REMOVE, op.CLEARITEMS, op.POPITEM)
	set(512, op.NEWARRAY, op.NEWARRAYT, op.NEWSTRUCT)
	set(8, op.NEWMAP)
	set(4, op.SIZE)
	set(64, op.HASKEY, op.PICKITEM)
	set(8192, op.VALUES, op.APPEND, op.SETITEM, op.REVERSEITEMS, op.CONVERT)

	set(2, op.ISNULL, op.ISTYPE)
	return p
}
