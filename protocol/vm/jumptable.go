package vm

import "github.com/neo-project/neo-sub032/protocol/vm/op"

// Handler executes one instruction. A handler that transfers
// control sets the instruction pointer itself through the engine;
// otherwise the engine advances past the instruction. A returned
// runtime fault is raised in-script; any other error faults the
// engine.
type Handler func(e *Engine, instr Instruction) error

// JumpTable maps every opcode to its handler. Entries left nil
// fault when executed.
type JumpTable [256]Handler

var defaultTable JumpTable

// DefaultJumpTable returns a copy of the standard handlers.
func DefaultJumpTable() *JumpTable {
	t := defaultTable
	return &t
}

func init() {
	t := &defaultTable

	for o := op.PUSHINT8; o <= op.PUSHINT256; o++ {
		t[o] = opPushInt
	}
	t[op.PUSHT] = opPushBool
	t[op.PUSHF] = opPushBool
	t[op.PUSHA] = opPushA
	t[op.PUSHNULL] = opPushNull
	t[op.PUSHDATA1] = opPushData
	t[op.PUSHDATA2] = opPushData
	t[op.PUSHDATA4] = opPushData
	for o := op.PUSHM1; o <= op.PUSH16; o++ {
		t[o] = opPushSmall
	}

	t[op.NOP] = opNop
	for o := op.JMP; o <= op.JMPLEL; o++ {
		t[o] = opJump
	}
	t[op.CALL] = opCall
	t[op.CALLL] = opCall
	t[op.CALLA] = opCallA
	t[op.CALLT] = opCallT
	t[op.ABORT] = opAbort
	t[op.ABORTMSG] = opAbortMsg
	t[op.ASSERT] = opAssert
	t[op.ASSERTMSG] = opAssertMsg
	t[op.THROW] = opThrow
	t[op.TRY] = opTry
	t[op.TRYL] = opTry
	t[op.ENDTRY] = opEndTry
	t[op.ENDTRYL] = opEndTry
	t[op.ENDFINALLY] = opEndFinally
	t[op.RET] = opRet
	t[op.SYSCALL] = opSyscall

	t[op.DEPTH] = opDepth
	t[op.DROP] = opDrop
	t[op.NIP] = opNip
	t[op.XDROP] = opXDrop
	t[op.CLEAR] = opClear
	t[op.DUP] = opDup
	t[op.OVER] = opOver
	t[op.PICK] = opPick
	t[op.TUCK] = opTuck
	t[op.SWAP] = opSwap
	t[op.ROT] = opRot
	t[op.ROLL] = opRoll
	t[op.REVERSE3] = opReverse3
	t[op.REVERSE4] = opReverse4
	t[op.REVERSEN] = opReverseN

	t[op.INITSSLOT] = opInitSSlot
	t[op.INITSLOT] = opInitSlot
	for o := op.LDSFLD0; o <= op.STARG; o++ {
		t[o] = opSlot
	}

	t[op.NEWBUFFER] = opNewBuffer
	t[op.MEMCPY] = opMemcpy
	t[op.CAT] = opCat
	t[op.SUBSTR] = opSubstr
	t[op.LEFT] = opLeft
	t[op.RIGHT] = opRight

	t[op.INVERT] = opInvert
	t[op.AND] = opBitwise
	t[op.OR] = opBitwise
	t[op.XOR] = opBitwise
	t[op.EQUAL] = opEqual
	t[op.NOTEQUAL] = opEqual

	for _, o := range []op.Opcode{op.SIGN, op.ABS, op.NEGATE, op.INC, op.DEC, op.SQRT} {
		t[o] = opUnary
	}
	for _, o := range []op.Opcode{op.ADD, op.SUB, op.MUL, op.DIV, op.MOD, op.MIN, op.MAX} {
		t[o] = opBinary
	}
	t[op.POW] = opPow
	t[op.MODMUL] = opModMul
	t[op.MODPOW] = opModPow
	t[op.SHL] = opShift
	t[op.SHR] = opShift
	t[op.NOT] = opNot
	t[op.BOOLAND] = opBoolAnd
	t[op.BOOLOR] = opBoolOr
	t[op.NZ] = opNz
	t[op.NUMEQUAL] = opNumEqual
	t[op.NUMNOTEQUAL] = opNumEqual
	for _, o := range []op.Opcode{op.LT, op.LE, op.GT, op.GE} {
		t[o] = opCompare
	}
	t[op.WITHIN] = opWithin

	t[op.PACKMAP] = opPackMap
	t[op.PACKSTRUCT] = opPack
	t[op.PACK] = opPack
	t[op.UNPACK] = opUnpack
	t[op.NEWARRAY0] = opNewArray0
	t[op.NEWARRAY] = opNewArray
	t[op.NEWARRAYT] = opNewArray
	t[op.NEWSTRUCT0] = opNewArray0
	t[op.NEWSTRUCT] = opNewArray
	t[op.NEWMAP] = opNewMap
	t[op.SIZE] = opSize
	t[op.HASKEY] = opHasKey
	t[op.KEYS] = opKeys
	t[op.VALUES] = opValues
	t[op.PICKITEM] = opPickItem
	t[op.APPEND] = opAppend
	t[op.SETITEM] = opSetItem
	t[op.REVERSEITEMS] = opReverseItems
	t[op.REMOVE] = opRemove
	t[op.CLEARITEMS] = opClearItems
	t[op.POPITEM] = opPopItem

	t[op.ISNULL] = opIsNull
	t[op.ISTYPE] = opIsType
	t[op.CONVERT] = opConvert
}
