package interop

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/interop/storage"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
	"github.com/neo-project/neo-sub032/testutil"
)

func run(t *testing.T, src string, opts ...HostOption) (*vm.Engine, *Host) {
	t.Helper()
	prog, err := vm.Assemble(src)
	require.NoError(t, err, src)
	h := NewHost(DefaultRegistry(), opts...)
	e := vm.NewEngine()
	h.Attach(e)
	_, err = e.LoadScript(prog)
	require.NoError(t, err)
	e.Run(context.Background())
	return e, h
}

func resultBytes(t *testing.T, e *vm.Engine, i int) []byte {
	t.Helper()
	b, err := e.ResultStack()[i].Bytes()
	require.NoError(t, err, spew.Sdump(e.ResultStack()[i]))
	return b
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", 1, runtimePlatform))
	err := r.Register("a", 2, runtimePlatform)
	require.Equal(t, ErrDuplicateService, errors.Root(err))

	s, ok := r.Lookup(vm.SyscallID("a"))
	require.True(t, ok)
	require.Equal(t, int64(1), s.Price)

	names := []string{}
	for _, s := range DefaultRegistry().Services() {
		names = append(names, s.Name)
	}
	require.Contains(t, names, "System.Crypto.VerifyWithECDsa")
	require.Contains(t, names, "System.Storage.Put")
	require.IsIncreasing(t, names)
}

func TestUnknownService(t *testing.T) {
	e, _ := run(t, `TRY @c 0 SYSCALL "System.Nope" c:`)
	require.Equal(t, vm.StateHalt, e.State(), "%v", e.Err())
	require.Contains(t, string(resultBytes(t, e, 0)), "unknown syscall")
}

func TestRuntime(t *testing.T) {
	e, h := run(t, `
		SYSCALL "System.Runtime.Platform"
		"hello" SYSCALL "System.Runtime.Log"
		PUSH1 PUSH1 PACK "Transfer" SYSCALL "System.Runtime.Notify"
		SYSCALL "System.Runtime.GetNotifications"
	`)
	require.Equal(t, vm.StateHalt, e.State(), "%v", e.Err())
	require.Equal(t, "NEO", string(resultBytes(t, e, 0)))
	n, err := e.ResultStack()[1].Integer()
	require.NoError(t, err)
	require.Equal(t, int64(1), n.Int64())

	require.Equal(t, []string{"hello"}, h.Logs())
	require.Len(t, h.Notifications(), 1)
	require.Equal(t, "Transfer", h.Notifications()[0].Name)
	require.Equal(t, stackitem.ArrayT, h.Notifications()[0].State.Type())
}

func TestRuntimeBadArguments(t *testing.T) {
	cases := []struct {
		src     string
		wantErr error
	}{
		{`0xff SYSCALL "System.Runtime.Log"`, ErrBadArgument},
		{`PUSH1 "ev" SYSCALL "System.Runtime.Notify"`, ErrBadArgument},
		{`NEWARRAY0 "0123456789012345678901234567890123" SYSCALL "System.Runtime.Notify"`, ErrTooLong},
	}
	for _, c := range cases {
		prog, err := vm.Assemble(c.src)
		require.NoError(t, err)
		l := vm.DefaultLimits
		l.CatchEngineFaults = false
		e := vm.NewEngine(vm.WithLimits(l))
		NewHost(DefaultRegistry()).Attach(e)
		_, err = e.LoadScript(prog)
		require.NoError(t, err)
		require.Equal(t, vm.StateFault, e.Run(context.Background()))
		f := e.Err().(*vm.Fault)
		require.Equal(t, c.wantErr, errors.Root(f.Err), c.src)
		require.Equal(t, vm.RuntimeFault, f.Kind)
	}
}

func TestGasLeftAndPrice(t *testing.T) {
	prog, err := vm.Assemble(`SYSCALL "System.Runtime.GasLeft"`)
	require.NoError(t, err)
	e := vm.NewEngine(vm.WithGasLimit(1000))
	NewHost(DefaultRegistry()).Attach(e)
	_, err = e.LoadScript(prog)
	require.NoError(t, err)
	require.Equal(t, vm.StateHalt, e.Run(context.Background()), "%v", e.Err())

	// SYSCALL opcode price plus the service price were charged first
	want := 1000 - vm.DefaultPrices().Price(0x41) - 1<<4
	left, err := e.ResultStack()[0].Integer()
	require.NoError(t, err)
	require.Equal(t, want, left.Int64())
}

func TestHashes(t *testing.T) {
	e, _ := run(t, `
		"abc" SYSCALL "System.Crypto.Sha256"
		"abc" SYSCALL "System.Crypto.Ripemd160"
		"abc" SYSCALL "System.Crypto.Sha3"
		"abc" SYSCALL "System.Crypto.Keccak256"
	`)
	require.Equal(t, vm.StateHalt, e.State(), "%v", e.Err())
	want := []string{
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"8eb208f7e05d987a9b044a8e98c6b087f15a0bfc",
		"3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532",
		"4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
	}
	for i, w := range want {
		require.Equal(t, w, hex.EncodeToString(resultBytes(t, e, i)))
	}
}

func TestStorage(t *testing.T) {
	store := storage.NewMemStore()
	e, _ := run(t, `
		"v1" "k" SYSCALL "System.Storage.Put"
		"k" SYSCALL "System.Storage.Get"
		"k" SYSCALL "System.Storage.Delete"
		"k" SYSCALL "System.Storage.Get"
	`, WithStore(store))
	require.Equal(t, vm.StateHalt, e.State(), "%v", e.Err())
	require.Equal(t, "v1", string(resultBytes(t, e, 0)))
	require.True(t, stackitem.IsNull(e.ResultStack()[1]))
	require.Empty(t, store.Keys())

	e, _ = run(t, `"v" "k" SYSCALL "System.Storage.Put"`, WithStore(store.ReadOnly()))
	require.Equal(t, vm.StateFault, e.State())
	require.Equal(t, storage.ErrReadOnly, errors.Root(e.Err().(*vm.Fault).Err))

	e, _ = run(t, `"k" SYSCALL "System.Storage.Get"`)
	require.Equal(t, vm.StateFault, e.State())
}

func TestItoaAtoi(t *testing.T) {
	cases := []struct {
		v    int64
		base int
		want string
	}{
		{0, 10, "0"},
		{-42, 10, "-42"},
		{0, 16, "0"},
		{1, 16, "1"},
		{16, 16, "10"},
		{128, 16, "080"},
		{255, 16, "0ff"},
		{-1, 16, "f"},
		{-256, 16, "f00"},
		{-129, 16, "f7f"},
	}
	for _, c := range cases {
		got, err := Itoa(big.NewInt(c.v), c.base)
		require.NoError(t, err)
		require.Equal(t, c.want, got, "Itoa(%d, %d)", c.v, c.base)

		back, err := Atoi(got, c.base)
		require.NoError(t, err)
		require.Equal(t, c.v, back.Int64(), "Atoi(%q, %d)", got, c.base)
	}

	_, err := Itoa(big.NewInt(1), 2)
	require.Equal(t, ErrBadArgument, errors.Root(err))
	_, err = Atoi("12x", 10)
	require.Equal(t, ErrBadArgument, errors.Root(err))
	_, err = Atoi("-1", 16)
	require.Equal(t, ErrBadArgument, errors.Root(err))

	e, _ := run(t, `
		PUSH16 PUSH15 SYSCALL "System.Binary.Itoa"
		PUSH10 "-17" SYSCALL "System.Binary.Atoi"
	`)
	require.Equal(t, vm.StateHalt, e.State(), "%v", e.Err())
	require.Equal(t, "0f", string(resultBytes(t, e, 0)))
	v, err := e.ResultStack()[1].Integer()
	require.NoError(t, err)
	require.Equal(t, int64(-17), v.Int64())
}

func TestVerifyWithECDsa(t *testing.T) {
	msg := []byte("neo")
	k1 := testutil.SignK1(Keccak256(msg))
	r1 := testutil.SignR1(Sha256(msg))
	cases := []struct {
		pub     []byte
		sig     []byte
		curve   NamedCurveHash
		want    bool
		wantErr error
	}{
		{testutil.K1PubKey(), k1, Secp256k1Keccak256, true, nil},
		{testutil.K1PubKey(), k1, Secp256k1SHA256, false, nil},
		{testutil.R1PubKey(), r1, Secp256r1SHA256, true, nil},
		{testutil.R1PubKey(), r1, Secp256r1Keccak256, false, nil},
		{testutil.R1PubKey(), r1[:63], Secp256r1SHA256, false, nil},
		{testutil.K1PubKey(), k1, 7, false, ErrBadCurve},
		{[]byte{2, 1}, k1, Secp256k1SHA256, false, ErrBadArgument},
		{[]byte{2, 1}, r1, Secp256r1SHA256, false, ErrBadArgument},
	}
	for i, c := range cases {
		got, err := VerifyWithECDsa(msg, c.pub, c.sig, c.curve)
		if errors.Root(err) != c.wantErr {
			t.Errorf("case %d: error %v, want %v", i, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("case %d: got %t, want %t", i, got, c.want)
		}
	}
}

func TestVerifyService(t *testing.T) {
	msg := []byte("neo")
	sig := testutil.SignK1(Sha256(msg))
	src := fmt.Sprintf(`PUSHINT8 %d 0x%x 0x%x 0x%x SYSCALL "System.Crypto.VerifyWithECDsa"`,
		Secp256k1SHA256, sig, testutil.K1PubKey(), msg)
	e, _ := run(t, src)
	require.Equal(t, vm.StateHalt, e.State(), "%v", e.Err())
	require.Equal(t, stackitem.Boolean(true), e.ResultStack()[0])
}
