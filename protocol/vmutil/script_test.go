package vmutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/interop"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
	"github.com/neo-project/neo-sub032/testutil"
)

func verify(t *testing.T, invocation, verification []byte) bool {
	t.Helper()
	e := vm.NewEngine()
	interop.NewHost(interop.DefaultRegistry()).Attach(e)
	if _, err := e.LoadScript(verification); err != nil {
		testutil.FatalErr(t, err)
	}
	if _, err := e.LoadScript(invocation); err != nil {
		testutil.FatalErr(t, err)
	}
	if s := e.Run(context.Background()); s != vm.StateHalt {
		t.Fatalf("state %s: %v", s, e.Err())
	}
	res := e.ResultStack()
	if len(res) != 1 {
		t.Fatalf("got %d results, want 1", len(res))
	}
	b, ok := res[0].(stackitem.Boolean)
	if !ok {
		t.Fatalf("result %s is not a Boolean", res[0])
	}
	return bool(b)
}

func TestVerifyScriptSecp256k1(t *testing.T) {
	pub := testutil.K1PubKey()
	msg := []byte("transfer 10")
	sig := testutil.SignK1(interop.Sha256(msg))

	prog, err := VerifyScript(pub, int64(interop.Secp256k1SHA256))
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if !verify(t, InvocationScript(sig, msg), prog) {
		t.Error("valid signature rejected")
	}
	if verify(t, InvocationScript(sig, []byte("transfer 11")), prog) {
		t.Error("signature accepted for another message")
	}

	gotKey, gotCurve, err := ParseVerifyScript(prog)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if !bytes.Equal(gotKey, pub) || gotCurve != int64(interop.Secp256k1SHA256) {
		t.Errorf("ParseVerifyScript = %x, %d", gotKey, gotCurve)
	}
}

func TestVerifyScriptSecp256r1(t *testing.T) {
	msg := []byte("hello")
	sig := testutil.SignR1(interop.Keccak256(msg))

	prog, err := VerifyScript(testutil.R1PubKey(), int64(interop.Secp256r1Keccak256))
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if !verify(t, InvocationScript(sig, msg), prog) {
		t.Error("valid signature rejected")
	}
}

func TestVerifyScriptErrors(t *testing.T) {
	if _, err := VerifyScript(make([]byte, 20), 22); errors.Root(err) != ErrBadValue {
		t.Errorf("short key: got error %v, want ErrBadValue", err)
	}
	if _, err := VerifyScript(make([]byte, 33), -1); errors.Root(err) != ErrBadValue {
		t.Errorf("negative curve: got error %v, want ErrBadValue", err)
	}

	prog, err := vm.Assemble(`PUSH1 REVERSE3 SWAP 0x00 SWAP SYSCALL "System.Crypto.VerifyWithECDsa"`)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if _, _, err := ParseVerifyScript(prog); errors.Root(err) != ErrBadValue {
		t.Errorf("one-byte key: got error %v, want ErrBadValue", err)
	}

	prog, err = vm.Assemble(`PUSH1 REVERSE3 SWAP PUSH1 SWAP SYSCALL "System.Crypto.VerifyWithECDsa"`)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	if _, _, err := ParseVerifyScript(prog); errors.Root(err) != ErrVerifyFormat {
		t.Errorf("no key push: got error %v, want ErrVerifyFormat", err)
	}

	if _, _, err := ParseVerifyScript([]byte{0x06}); errors.Root(err) != vm.ErrUnknownOpcode {
		t.Errorf("bad script: got error %v, want ErrUnknownOpcode", err)
	}
}

func TestScriptHash(t *testing.T) {
	a, err := VerifyScript(testutil.K1PubKey(), int64(interop.Secp256k1SHA256))
	require.NoError(t, err)
	b, err := VerifyScript(testutil.R1PubKey(), int64(interop.Secp256r1SHA256))
	require.NoError(t, err)
	require.NotEqual(t, ScriptHash(a), ScriptHash(b))
	require.Equal(t, ScriptHash(a), ScriptHash(append([]byte(nil), a...)))
}
