package vm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/math/checked"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Opcode op.Opcode

	// Operand holds the immediate bytes. For length-prefixed
	// operands it excludes the prefix. It aliases the script.
	Operand []byte

	// Offset is the position of the opcode byte and Size the
	// number of bytes up to the next instruction.
	Offset int
	Size   int
}

// Next returns the offset of the following instruction.
func (in Instruction) Next() int { return in.Offset + in.Size }

func (in Instruction) u8() int  { return int(in.Operand[0]) }
func (in Instruction) u16() int { return int(binary.LittleEndian.Uint16(in.Operand)) }
func (in Instruction) u32() uint32 {
	return binary.LittleEndian.Uint32(in.Operand)
}

// SyscallID returns the service identifier operand of SYSCALL.
func (in Instruction) SyscallID() uint32 { return in.u32() }

// jumpOffset returns the signed relative operand of a jump,
// call, ENDTRY or PUSHA instruction.
func (in Instruction) jumpOffset() int32 {
	if len(in.Operand) == 1 {
		return int32(int8(in.Operand[0]))
	}
	return int32(in.u32())
}

// tryOffsets returns the catch and finally offsets of TRY and TRY_L.
func (in Instruction) tryOffsets() (catch, finally int32) {
	if in.Opcode == op.TRY {
		return int32(int8(in.Operand[0])), int32(int8(in.Operand[1]))
	}
	return int32(binary.LittleEndian.Uint32(in.Operand)), int32(binary.LittleEndian.Uint32(in.Operand[4:]))
}

// target returns the absolute position a relative operand
// designates. It fails for targets before the script start.
func (in Instruction) target(delta int32) (int, error) {
	pos, ok := checked.Offset(in.Offset, delta)
	if !ok {
		return 0, errors.WithDetailf(ErrInvalidJump, "%s at %d: offset %d", in.Opcode, in.Offset, delta)
	}
	return pos, nil
}

func (in Instruction) String() string {
	s := in.Opcode.String()
	switch {
	case in.Opcode == op.TRY || in.Opcode == op.TRYL:
		c, f := in.tryOffsets()
		return fmt.Sprintf("%s %d %d", s, c, f)
	case in.Opcode.IsRelative():
		return s + " " + strconv.Itoa(int(in.jumpOffset()))
	case in.Opcode >= op.PUSHINT8 && in.Opcode <= op.PUSHINT256:
		return s + " " + stackitem.IntegerFromBytes(in.Operand).String()
	case in.Opcode == op.SYSCALL:
		return fmt.Sprintf("%s 0x%08x", s, in.u32())
	case in.Opcode == op.NEWARRAYT || in.Opcode == op.ISTYPE || in.Opcode == op.CONVERT:
		return s + " " + stackitem.Type(in.Operand[0]).String()
	case in.Opcode == op.INITSLOT:
		return fmt.Sprintf("%s %d %d", s, in.Operand[0], in.Operand[1])
	case len(in.Operand) == 1 && in.Opcode != op.PUSHDATA1:
		return s + " " + strconv.Itoa(in.u8())
	case in.Opcode == op.CALLT:
		return s + " " + strconv.Itoa(in.u16())
	case len(in.Operand) > 0 || in.Opcode == op.PUSHDATA1 || in.Opcode == op.PUSHDATA2 || in.Opcode == op.PUSHDATA4:
		return s + " 0x" + hex.EncodeToString(in.Operand)
	}
	return s
}

// Decode decodes the instruction at offset. The position just past
// the end of the script decodes as an implicit RET. Operand lengths
// are checked against the remaining bytes before anything is read.
func Decode(prog []byte, offset int) (Instruction, error) {
	if offset == len(prog) {
		return Instruction{Opcode: op.RET, Offset: offset, Size: 1}, nil
	}
	if offset < 0 || offset > len(prog) {
		return Instruction{}, errors.WithDetailf(ErrInvalidInstruction, "offset %d outside script of %d bytes", offset, len(prog))
	}
	o := op.Opcode(prog[offset])
	if !o.IsValid() {
		return Instruction{}, errors.WithDetailf(ErrUnknownOpcode, "0x%02x at %d", byte(o), offset)
	}
	size, prefix := o.OperandSize()
	pos := offset + 1
	if prefix > 0 {
		if len(prog)-pos < prefix {
			return Instruction{}, errors.WithDetailf(ErrInvalidInstruction, "%s at %d: truncated length prefix", o, offset)
		}
		var n uint64
		switch prefix {
		case 1:
			n = uint64(prog[pos])
		case 2:
			n = uint64(binary.LittleEndian.Uint16(prog[pos:]))
		case 4:
			n = uint64(binary.LittleEndian.Uint32(prog[pos:]))
		}
		pos += prefix
		if n > uint64(len(prog)-pos) {
			return Instruction{}, errors.WithDetailf(ErrInvalidInstruction, "%s at %d: declared %d bytes, %d remain", o, offset, n, len(prog)-pos)
		}
		size = int(n)
	} else if len(prog)-pos < size {
		return Instruction{}, errors.WithDetailf(ErrInvalidInstruction, "%s at %d: need %d operand bytes, %d remain", o, offset, size, len(prog)-pos)
	}
	end := pos + size
	return Instruction{
		Opcode:  o,
		Operand: prog[pos:end:end],
		Offset:  offset,
		Size:    end - offset,
	}, nil
}

// Script is an immutable program with a lazily built table of
// its decoded instructions. A Script may be shared by engines
// running on different goroutines.
type Script struct {
	prog []byte

	once   sync.Once
	instrs []Instruction
	index  map[int]int
	errAt  int
	err    error
}

// NewScript returns a Script holding a copy of prog. Malformed
// instructions are reported when execution reaches them.
func NewScript(prog []byte) *Script {
	return &Script{prog: append([]byte{}, prog...)}
}

// ParseScript returns a Script for prog after checking that every
// instruction decodes, every relative target lands on an
// instruction boundary, and every type operand names a defined type.
func ParseScript(prog []byte) (*Script, error) {
	s := NewScript(prog)
	s.analyze()
	if s.err != nil {
		return nil, s.err
	}
	for _, in := range s.instrs {
		if err := s.checkStatic(in); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Script) checkStatic(in Instruction) error {
	switch in.Opcode {
	case op.TRY, op.TRYL:
		c, f := in.tryOffsets()
		if c == 0 && f == 0 {
			return errors.WithDetailf(ErrInvalidOperand, "TRY at %d has neither catch nor finally", in.Offset)
		}
		for _, d := range []int32{c, f} {
			if d == 0 {
				continue
			}
			if err := s.checkTarget(in, d); err != nil {
				return err
			}
		}
	case op.NEWARRAYT, op.ISTYPE, op.CONVERT:
		t := stackitem.Type(in.Operand[0])
		if !t.IsValid() || (in.Opcode == op.ISTYPE && t == stackitem.AnyT) {
			return errors.WithDetailf(ErrInvalidOperand, "%s at %d: type 0x%02x", in.Opcode, in.Offset, in.Operand[0])
		}
	case op.INITSSLOT:
		if in.Operand[0] == 0 {
			return errors.WithDetailf(ErrInvalidOperand, "INITSSLOT at %d with no fields", in.Offset)
		}
	case op.INITSLOT:
		if in.Operand[0] == 0 && in.Operand[1] == 0 {
			return errors.WithDetailf(ErrInvalidOperand, "INITSLOT at %d with no slots", in.Offset)
		}
	default:
		if in.Opcode.IsRelative() {
			return s.checkTarget(in, in.jumpOffset())
		}
	}
	return nil
}

func (s *Script) checkTarget(in Instruction, delta int32) error {
	pos, err := in.target(delta)
	if err != nil {
		return err
	}
	if !s.IsBoundary(pos) {
		return errors.WithDetailf(ErrInvalidJump, "%s at %d: target %d is not an instruction", in.Opcode, in.Offset, pos)
	}
	return nil
}

func (s *Script) analyze() {
	s.once.Do(func() {
		s.index = make(map[int]int)
		for ip := 0; ip < len(s.prog); {
			in, err := Decode(s.prog, ip)
			if err != nil {
				s.errAt, s.err = ip, err
				return
			}
			s.index[ip] = len(s.instrs)
			s.instrs = append(s.instrs, in)
			ip = in.Next()
		}
	})
}

// Len returns the script length in bytes.
func (s *Script) Len() int { return len(s.prog) }

// Bytes returns the program. It must not be modified.
func (s *Script) Bytes() []byte { return s.prog }

// At returns the instruction at ip.
func (s *Script) At(ip int) (Instruction, error) {
	s.analyze()
	if i, ok := s.index[ip]; ok {
		return s.instrs[i], nil
	}
	if s.err != nil && ip == s.errAt {
		return Instruction{}, s.err
	}
	return Decode(s.prog, ip)
}

// IsBoundary reports whether ip starts an instruction or is the
// end of the script.
func (s *Script) IsBoundary(ip int) bool {
	if ip == len(s.prog) {
		return true
	}
	s.analyze()
	_, ok := s.index[ip]
	return ok
}

// Instructions returns the instructions that decode from the
// start of the script, and the decode error that ended the walk
// early, if any.
func (s *Script) Instructions() ([]Instruction, error) {
	s.analyze()
	return s.instrs, s.err
}
