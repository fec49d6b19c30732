package op

import "testing"

func TestOperandSizes(t *testing.T) {
	cases := []struct {
		op         Opcode
		size, pref int
	}{
		{PUSHINT8, 1, 0},
		{PUSHINT16, 2, 0},
		{PUSHINT32, 4, 0},
		{PUSHINT64, 8, 0},
		{PUSHINT128, 16, 0},
		{PUSHINT256, 32, 0},
		{PUSHA, 4, 0},
		{PUSHDATA1, 0, 1},
		{PUSHDATA2, 0, 2},
		{PUSHDATA4, 0, 4},
		{JMP, 1, 0},
		{JMPL, 4, 0},
		{CALLT, 2, 0},
		{TRY, 2, 0},
		{TRYL, 8, 0},
		{ENDTRYL, 4, 0},
		{SYSCALL, 4, 0},
		{INITSLOT, 2, 0},
		{LDARG, 1, 0},
		{LDARG6, 0, 0},
		{CONVERT, 1, 0},
		{ADD, 0, 0},
	}
	for _, c := range cases {
		size, pref := c.op.OperandSize()
		if size != c.size || pref != c.pref {
			t.Errorf("%s: operand = (%d, %d) want (%d, %d)", c.op, size, pref, c.size, c.pref)
		}
	}
}

func TestNames(t *testing.T) {
	cases := []struct {
		op   Opcode
		name string
	}{
		{PUSH0, "PUSH0"},
		{PUSH16, "PUSH16"},
		{JMPIFNOTL, "JMPIFNOT_L"},
		{TRYL, "TRY_L"},
		{NEWARRAYT, "NEWARRAY_T"},
		{STSFLD, "STSFLD"},
		{STSFLD3, "STSFLD3"},
		{Opcode(0x42), "OPx42"},
	}
	for _, c := range cases {
		if got := c.op.String(); got != c.name {
			t.Errorf("Opcode(0x%02x).String() = %s want %s", byte(c.op), got, c.name)
		}
	}

	for i := 0; i < 256; i++ {
		o := Opcode(i)
		if !o.IsValid() {
			if _, ok := ByName(o.String()); ok {
				t.Errorf("undefined opcode 0x%02x resolves by name", i)
			}
			continue
		}
		got, ok := ByName(o.String())
		if !ok || got != o {
			t.Errorf("ByName(%s) = 0x%02x, %v want 0x%02x", o, byte(got), ok, i)
		}
	}
}

func TestRelative(t *testing.T) {
	for _, o := range []Opcode{JMP, JMPLEL, CALL, CALLL, PUSHA, TRY, TRYL, ENDTRY, ENDTRYL} {
		if !o.IsRelative() {
			t.Errorf("%s should be relative", o)
		}
	}
	for _, o := range []Opcode{CALLA, CALLT, SYSCALL, PUSHINT32, RET} {
		if o.IsRelative() {
			t.Errorf("%s should not be relative", o)
		}
	}
	if CALL.IsJump() || !JMPGE.IsJump() {
		t.Error("IsJump misclassifies CALL or JMPGE")
	}
}
