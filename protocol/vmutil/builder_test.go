package vmutil

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/testutil"
)

func TestAddInt64(t *testing.T) {
	cases := []struct {
		num     int64
		wantHex string
	}{
		{0, "10"},
		{1, "11"},
		{15, "1f"},
		{16, "20"},
		{17, "0011"},
		{255, "01ff00"},
		{256, "010001"},
		{65535, "02ffff0000"},
		{-1, "0f"},
		{-2, "00fe"},
		{-65536, "020000ffff"},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("adding %d", c.num), func(t *testing.T) {
			b := NewBuilder()
			b.AddInt64(c.num)
			prog, err := b.Build()
			if err != nil {
				testutil.FatalErr(t, err)
			}
			want, err := hex.DecodeString(c.wantHex)
			if err != nil {
				testutil.FatalErr(t, err)
			}
			if !bytes.Equal(prog, want) {
				t.Errorf("got %x, want %x", prog, want)
			}
		})
	}
}

func TestAddIntWidth(t *testing.T) {
	prog, err := NewBuilder().AddIntWidth(big.NewInt(-2), 4).AddIntWidth(big.NewInt(1), 32).Build()
	if err != nil {
		testutil.FatalErr(t, err)
	}
	want := append([]byte{byte(op.PUSHINT32), 0xfe, 0xff, 0xff, 0xff, byte(op.PUSHINT256), 1}, make([]byte, 31)...)
	if !bytes.Equal(prog, want) {
		t.Errorf("got %x, want %x", prog, want)
	}

	cases := []struct {
		v     *big.Int
		width int
	}{
		{big.NewInt(128), 1},
		{big.NewInt(-129), 1},
		{big.NewInt(1), 3},
		{new(big.Int).Lsh(big.NewInt(1), 255), 32},
	}
	for _, c := range cases {
		_, err := NewBuilder().AddIntWidth(c.v, c.width).AddOp(op.NOP).Build()
		if errors.Root(err) != ErrRange {
			t.Errorf("AddIntWidth(%s, %d): got error %v, want ErrRange", c.v, c.width, err)
		}
	}

	_, err = NewBuilder().AddInt(new(big.Int).Lsh(big.NewInt(1), 256)).Build()
	if errors.Root(err) != ErrRange {
		t.Errorf("AddInt(2^256): got error %v, want ErrRange", err)
	}
}

func TestAddJump(t *testing.T) {
	cases := []struct {
		name    string
		wantSrc string
		fn      func(t *testing.T, b *Builder)
	}{
		{
			"single jump single target not yet defined",
			"JMP_L @t NOP t:",
			func(t *testing.T, b *Builder) {
				target := b.NewJumpTarget()
				b.AddJump(target)
				b.AddOp(op.NOP)
				b.SetJumpTarget(target)
			},
		},
		{
			"single jump single target already defined",
			"t: NOP JMP_L @t",
			func(t *testing.T, b *Builder) {
				target := b.NewJumpTarget()
				b.SetJumpTarget(target)
				b.AddOp(op.NOP)
				b.AddJump(target)
			},
		},
		{
			"two jumps single target, one not yet defined, one already defined",
			"JMPIF_L @t NOP t: NOP JMP_L @t",
			func(t *testing.T, b *Builder) {
				target := b.NewJumpTarget()
				b.AddJumpIf(target)
				b.AddOp(op.NOP)
				b.SetJumpTarget(target)
				b.AddOp(op.NOP)
				b.AddJump(target)
			},
		},
		{
			"call and pusha",
			"CALL_L @f PUSHA @f CALLA RET f: PUSH1",
			func(t *testing.T, b *Builder) {
				f := b.NewJumpTarget()
				b.AddCall(f).AddJumpOp(op.PUSHA, f).AddOp(op.CALLA).AddOp(op.RET)
				b.SetJumpTarget(f)
				b.AddInt64(1)
			},
		},
		{
			"try catch finally",
			"TRY_L @c @f ENDTRY_L @e c: ENDTRY_L @e f: ENDFINALLY e:",
			func(t *testing.T, b *Builder) {
				c, f, e := b.NewJumpTarget(), b.NewJumpTarget(), b.NewJumpTarget()
				b.AddTry(c, f).AddJumpOp(op.ENDTRYL, e)
				b.SetJumpTarget(c).AddJumpOp(op.ENDTRYL, e)
				b.SetJumpTarget(f).AddOp(op.ENDFINALLY)
				b.SetJumpTarget(e)
			},
		},
		{
			"try finally only",
			"TRY_L 0 @f f: ENDFINALLY",
			func(t *testing.T, b *Builder) {
				f := b.NewJumpTarget()
				b.AddTry(0, f)
				b.SetJumpTarget(f).AddOp(op.ENDFINALLY)
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := NewBuilder()
			c.fn(t, b)
			prog, err := b.Build()
			if err != nil {
				testutil.FatalErr(t, err)
			}
			want, err := vm.Assemble(c.wantSrc)
			if err != nil {
				testutil.FatalErr(t, err)
			}
			if !bytes.Equal(prog, want) {
				t.Errorf("got %x, want %x", prog, want)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	b := NewBuilder()
	b.AddJump(b.NewJumpTarget())
	if _, err := b.Build(); errors.Root(err) != ErrUnresolvedJump {
		t.Errorf("got error %v, want ErrUnresolvedJump", err)
	}

	b = NewBuilder()
	b.AddJumpOp(op.JMP, b.NewJumpTarget())
	if _, err := b.Build(); errors.Root(err) != ErrRange {
		t.Errorf("short jump: got error %v, want ErrRange", err)
	}

	if _, err := NewBuilder().AddTry(0, 0).Build(); errors.Root(err) != ErrRange {
		t.Errorf("empty try: got error %v, want ErrRange", err)
	}
}

func TestBuiltScriptRuns(t *testing.T) {
	// sum 1..5 with a loop built from jump targets
	b := NewBuilder()
	loop, done := b.NewJumpTarget(), b.NewJumpTarget()
	b.AddOp(op.INITSLOT).AddRawBytes([]byte{2, 0})
	b.AddInt64(5).AddOp(op.STLOC0)
	b.AddInt64(0).AddOp(op.STLOC1)
	b.SetJumpTarget(loop)
	b.AddOp(op.LDLOC0).AddJumpOp(op.JMPIFNOTL, done)
	b.AddOp(op.LDLOC1).AddOp(op.LDLOC0).AddOp(op.ADD).AddOp(op.STLOC1)
	b.AddOp(op.LDLOC0).AddOp(op.DEC).AddOp(op.STLOC0)
	b.AddJump(loop)
	b.SetJumpTarget(done)
	b.AddOp(op.LDLOC1)
	prog, err := b.Build()
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if _, err := vm.ParseScript(prog); err != nil {
		testutil.FatalErr(t, err)
	}

	e := vm.NewEngine()
	if _, err := e.LoadScript(prog); err != nil {
		testutil.FatalErr(t, err)
	}
	if s := e.Run(context.Background()); s != vm.StateHalt {
		t.Fatalf("state %s: %v", s, e.Err())
	}
	got, err := e.ResultStack()[0].Integer()
	if err != nil || got.Int64() != 15 {
		t.Errorf("got %v, %v want 15", got, err)
	}
}
