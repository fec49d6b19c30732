package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// ErrSyntax is returned by Assemble for malformed source.
var ErrSyntax = errors.New("syntax error")

// SyscallID returns the SYSCALL operand for the service name:
// the first four bytes of its SHA-256 hash, little-endian.
func SyscallID(name string) uint32 {
	h := sha256.Sum256([]byte(name))
	return binary.LittleEndian.Uint32(h[:4])
}

const (
	invalidTok = iota
	wordTok
	labelTok
	refTok
	numberTok
	hexTok
	stringTok
)

type token struct {
	typ int
	lit string
}

// Assemble translates source text into a script.
//
// Notation:
//
//	ADD          mnemonic, operands follow it
//	loop:        label definition
//	@loop        label reference (relative operands)
//	-12          integer; alone it pushes the value
//	0x0a0b       hex bytes; alone it pushes the data
//	"text"       string bytes; alone it pushes the data
//	; comment    to end of line
//
// Relative operands (jumps, calls, TRY, ENDTRY, PUSHA) take a label
// reference or an offset. SYSCALL takes a number or a service name
// string. NEWARRAY_T, ISTYPE and CONVERT take a type name or number.
func Assemble(src string) ([]byte, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	a := &assembler{toks: toks, labels: make(map[string]int)}
	for a.r < len(a.toks) {
		if err := a.statement(); err != nil {
			return nil, err
		}
	}
	return a.resolve()
}

// Disassemble renders prog as space-separated instructions in
// the notation accepted by Assemble, with relative operands shown
// as offsets.
func Disassemble(prog []byte) (string, error) {
	var parts []string
	for ip := 0; ip < len(prog); {
		in, err := Decode(prog, ip)
		if err != nil {
			return strings.Join(parts, " "), err
		}
		s := in.String()
		if d, ok := dataLiteral(in); ok {
			s = in.Opcode.String() + " " + d
		}
		parts = append(parts, s)
		ip = in.Next()
	}
	return strings.Join(parts, " "), nil
}

// dataLiteral renders printable PUSHDATA payloads as strings.
func dataLiteral(in Instruction) (string, bool) {
	switch in.Opcode {
	case op.PUSHDATA1, op.PUSHDATA2, op.PUSHDATA4:
	default:
		return "", false
	}
	if len(in.Operand) == 0 || !utf8.Valid(in.Operand) {
		return "", false
	}
	for _, r := range string(in.Operand) {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return strconv.Quote(string(in.Operand)), true
}

type fixup struct {
	at    int // operand position
	base  int // instruction offset
	width int
	label string
}

type assembler struct {
	toks   []token
	r      int
	prog   []byte
	labels map[string]int
	fixups []fixup
}

func (a *assembler) next() (token, bool) {
	if a.r >= len(a.toks) {
		return token{}, false
	}
	t := a.toks[a.r]
	a.r++
	return t, true
}

func (a *assembler) operand(o op.Opcode, typs ...int) (token, error) {
	t, ok := a.next()
	if !ok {
		return t, errors.WithDetailf(ErrSyntax, "%s: missing operand", o)
	}
	for _, typ := range typs {
		if t.typ == typ {
			return t, nil
		}
	}
	return t, errors.WithDetailf(ErrSyntax, "%s: unexpected operand %q", o, t.lit)
}

func (a *assembler) statement() error {
	t, _ := a.next()
	switch t.typ {
	case labelTok:
		name := t.lit[:len(t.lit)-1]
		if _, dup := a.labels[name]; dup {
			return errors.WithDetailf(ErrSyntax, "label %s defined twice", name)
		}
		a.labels[name] = len(a.prog)
		return nil
	case numberTok:
		v, err := parseInt(t.lit)
		if err != nil {
			return err
		}
		b, ok := PushdataInt(v)
		if !ok {
			return errors.WithDetailf(ErrSyntax, "integer %s too large", v)
		}
		a.prog = append(a.prog, b...)
		return nil
	case hexTok, stringTok:
		b, err := literalBytes(t)
		if err != nil {
			return err
		}
		a.prog = append(a.prog, PushdataBytes(b)...)
		return nil
	case wordTok:
		o, ok := op.ByName(strings.ToUpper(t.lit))
		if !ok {
			return errors.WithDetailf(ErrSyntax, "unknown mnemonic %s", t.lit)
		}
		return a.instruction(o)
	}
	return errors.WithDetailf(ErrSyntax, "unexpected %q", t.lit)
}

func (a *assembler) instruction(o op.Opcode) error {
	base := len(a.prog)
	a.prog = append(a.prog, byte(o))
	size, prefix := o.OperandSize()

	switch {
	case prefix > 0:
		t, err := a.operand(o, hexTok, stringTok)
		if err != nil {
			return err
		}
		b, err := literalBytes(t)
		if err != nil {
			return err
		}
		if uint64(len(b)) >= 1<<(8*uint(prefix)) && prefix < 4 {
			return errors.WithDetailf(ErrSyntax, "%s: %d bytes", o, len(b))
		}
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
		a.prog = append(append(a.prog, n[:prefix]...), b...)

	case o == op.TRY || o == op.TRYL:
		for i := 0; i < 2; i++ {
			if err := a.relative(o, base, size/2); err != nil {
				return err
			}
		}

	case o.IsRelative():
		return a.relative(o, base, size)

	case o >= op.PUSHINT8 && o <= op.PUSHINT256:
		t, err := a.operand(o, numberTok)
		if err != nil {
			return err
		}
		v, err := parseInt(t.lit)
		if err != nil {
			return err
		}
		b, ok := IntOperand(v, size)
		if !ok {
			return errors.WithDetailf(ErrSyntax, "%s: %s does not fit", o, v)
		}
		a.prog = append(a.prog, b...)

	case o == op.SYSCALL:
		t, err := a.operand(o, numberTok, hexTok, stringTok)
		if err != nil {
			return err
		}
		var id uint32
		if t.typ == stringTok {
			s, err := strconv.Unquote(t.lit)
			if err != nil {
				return errors.WithDetailf(ErrSyntax, "bad string %s", t.lit)
			}
			id = SyscallID(s)
		} else {
			n, err := strconv.ParseUint(t.lit, 0, 32)
			if err != nil {
				return errors.WithDetailf(ErrSyntax, "bad syscall id %s", t.lit)
			}
			id = uint32(n)
		}
		a.prog = binary.LittleEndian.AppendUint32(a.prog, id)

	case o == op.NEWARRAYT || o == op.ISTYPE || o == op.CONVERT:
		t, err := a.operand(o, wordTok, numberTok, hexTok)
		if err != nil {
			return err
		}
		typ, ok := typeByName(t.lit)
		if !ok {
			return errors.WithDetailf(ErrSyntax, "%s: unknown type %s", o, t.lit)
		}
		a.prog = append(a.prog, byte(typ))

	default:
		for i := 0; i < size; {
			t, err := a.operand(o, numberTok)
			if err != nil {
				return err
			}
			// INITSLOT takes two bytes; CALLT one 16-bit index
			width := 1
			if o == op.CALLT {
				width = 2
			}
			n, err := strconv.ParseUint(t.lit, 0, 8*width)
			if err != nil {
				return errors.WithDetailf(ErrSyntax, "%s: bad operand %s", o, t.lit)
			}
			if width == 2 {
				a.prog = binary.LittleEndian.AppendUint16(a.prog, uint16(n))
			} else {
				a.prog = append(a.prog, byte(n))
			}
			i += width
		}
	}
	return nil
}

// relative emits a relative operand of the given width: a label
// reference resolved later or a literal offset.
func (a *assembler) relative(o op.Opcode, base, width int) error {
	t, err := a.operand(o, refTok, numberTok)
	if err != nil {
		return err
	}
	if t.typ == refTok {
		a.fixups = append(a.fixups, fixup{at: len(a.prog), base: base, width: width, label: t.lit[1:]})
		a.prog = append(a.prog, make([]byte, width)...)
		return nil
	}
	d, err := strconv.ParseInt(t.lit, 0, 32)
	if err != nil {
		return errors.WithDetailf(ErrSyntax, "%s: bad offset %s", o, t.lit)
	}
	return a.putOffset(len(a.prog), width, d, true)
}

func (a *assembler) putOffset(at, width int, d int64, grow bool) error {
	if width == 1 && (d < math.MinInt8 || d > math.MaxInt8) {
		return errors.WithDetailf(ErrSyntax, "offset %d needs a long form", d)
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(int32(d)))
	if grow {
		a.prog = append(a.prog, b[:width]...)
	} else {
		copy(a.prog[at:at+width], b[:width])
	}
	return nil
}

func (a *assembler) resolve() ([]byte, error) {
	for _, f := range a.fixups {
		pos, ok := a.labels[f.label]
		if !ok {
			return nil, errors.WithDetailf(ErrSyntax, "undefined label %s", f.label)
		}
		if err := a.putOffset(f.at, f.width, int64(pos-f.base), false); err != nil {
			return nil, errors.WithDetailf(ErrSyntax, "label %s: offset %d out of short range", f.label, pos-f.base)
		}
	}
	if a.prog == nil {
		return []byte{}, nil
	}
	return a.prog, nil
}

func parseInt(lit string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(lit, 10)
	if !ok {
		return nil, errors.WithDetailf(ErrSyntax, "bad integer %s", lit)
	}
	return v, nil
}

func literalBytes(t token) ([]byte, error) {
	if t.typ == stringTok {
		s, err := strconv.Unquote(t.lit)
		if err != nil {
			return nil, errors.WithDetailf(ErrSyntax, "bad string %s", t.lit)
		}
		return []byte(s), nil
	}
	b, err := hex.DecodeString(t.lit[2:])
	if err != nil {
		return nil, errors.WithDetailf(ErrSyntax, "bad hex %s", t.lit)
	}
	return b, nil
}

func typeByName(lit string) (stackitem.Type, bool) {
	if n, err := strconv.ParseUint(lit, 0, 8); err == nil {
		return stackitem.Type(n), true
	}
	for _, t := range []stackitem.Type{
		stackitem.AnyT, stackitem.PointerT, stackitem.BooleanT, stackitem.IntegerT,
		stackitem.ByteStringT, stackitem.BufferT, stackitem.ArrayT, stackitem.StructT,
		stackitem.MapT, stackitem.InteropT,
	} {
		if strings.EqualFold(t.String(), lit) {
			return t, true
		}
	}
	return 0, false
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for r := skipSpace(src); r < len(src); r += skipSpace(src[r:]) {
		typ, n := scan(src[r:])
		if typ == invalidTok {
			return nil, errors.WithDetailf(ErrSyntax, "unexpected %q at %d", src[r:r+n], r)
		}
		toks = append(toks, token{typ: typ, lit: src[r : r+n]})
		r += n
	}
	return toks, nil
}

func scan(src string) (typ, n int) {
	switch c := src[0]; {
	case c == '"':
		return stringTok, scanString(src)
	case c == '@':
		if n = 1 + scanFunc(src[1:], isWord); n > 1 {
			return refTok, n
		}
		return invalidTok, 1
	case c == '0' && len(src) > 1 && (src[1] == 'x' || src[1] == 'X'):
		return hexTok, 2 + scanFunc(src[2:], isHex)
	case c == '-' || isDigit(rune(c)):
		n = 1 + scanFunc(src[1:], isDigit)
		if c == '-' && n == 1 {
			return invalidTok, 1
		}
		return numberTok, n
	case isWord(rune(c)):
		n = scanFunc(src, isWord)
		if n < len(src) && src[n] == ':' {
			return labelTok, n + 1
		}
		return wordTok, n
	}
	return invalidTok, 1
}

// skipSpace skips white space and comments.
func skipSpace(s string) (i int) {
	for i < len(s) {
		switch c := s[i]; {
		case c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == ',':
			i++
		case c == ';':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}
	return i
}

func scanString(s string) int {
	for n := 1; n < len(s); n++ {
		switch s[n] {
		case '\\':
			n++
		case '"':
			return n + 1
		}
	}
	return len(s)
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }
func isWord(r rune) bool  { return r == '_' || r == '.' || isDigit(r) || unicode.IsLetter(r) }

func isHex(r rune) bool {
	return isDigit(r) ||
		'a' <= r && r <= 'f' ||
		'A' <= r && r <= 'F'
}

func scanFunc(s string, f func(rune) bool) (n int) {
	for n < len(s) {
		c, r := utf8.DecodeRuneInString(s[n:])
		if !f(c) {
			break
		}
		n += r
	}
	return n
}
