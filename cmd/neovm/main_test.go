package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/log"
	"github.com/neo-project/neo-sub032/metrics"
)

func runMain(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	env := &cmdEnv{stdin: strings.NewReader(stdin), stdout: &out, stderr: &errOut}
	code = env.main(args)
	return out.String(), errOut.String(), code
}

func runJSON(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	out, errOut, code := runMain(t, stdin, append([]string{"run"}, args...)...)
	require.Equal(t, 0, code, errOut)
	var res result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func TestRun(t *testing.T) {
	res := runJSON(t, "", "--input", "asm", "-e", "PUSH1 PUSH2 ADD")
	require.Equal(t, "HALT", res.State)
	require.Len(t, res.Stack, 1)
	require.JSONEq(t, `{"type":"Integer","value":"3"}`, string(res.Stack[0]))
	require.Greater(t, res.GasConsumed, int64(0))

	res = runJSON(t, "11129e", "--input", "hex")
	require.Equal(t, "HALT", res.State)
	require.JSONEq(t, `{"type":"Integer","value":"3"}`, string(res.Stack[0]))
}

func TestRunFault(t *testing.T) {
	res := runJSON(t, "", "--input", "asm", "-e", "PUSH1 PUSH0 DIV")
	require.Equal(t, "FAULT", res.State)
	require.NotEmpty(t, res.Exception)
	require.Empty(t, res.Stack)

	res = runJSON(t, "", "--input", "asm", "--gas", "1", "-e", "PUSH1 PUSH2 ADD")
	require.Equal(t, "FAULT", res.State)
	require.Equal(t, "ResourceExhausted", res.FaultKind)
}

func TestRunServices(t *testing.T) {
	src := `"hello" SYSCALL "System.Runtime.Log" SYSCALL "System.Runtime.Platform"`
	res := runJSON(t, "", "--input", "asm", "-e", src)
	require.Equal(t, "HALT", res.State, res.Exception)
	require.Equal(t, []string{"hello"}, res.Logs)
	require.JSONEq(t, `{"type":"ByteString","value":"TkVP"}`, string(res.Stack[0]))
}

func TestRunStrict(t *testing.T) {
	// JMP past the end of the script.
	_, errOut, code := runMain(t, "", "run", "--strict", "-e", "2205")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "error:")

	res := runJSON(t, "", "-e", "2205")
	require.Equal(t, "FAULT", res.State)
}

func TestAsmDisasm(t *testing.T) {
	out, errOut, code := runMain(t, "PUSH1 PUSH2 ADD\nSYSCALL \"System.Runtime.Platform\"", "asm")
	require.Equal(t, 0, code, errOut)
	hexProg := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(hexProg, "11129e41"), hexProg)

	out, errOut, code = runMain(t, hexProg, "disasm")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "0000  PUSH1")
	require.Contains(t, out, "0002  ADD")
	require.Contains(t, out, "System.Runtime.Platform")
}

func TestUnknownCommand(t *testing.T) {
	_, errOut, code := runMain(t, "", "frob")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown command")

	out, _, code := runMain(t, "")
	require.Equal(t, 0, code)
	require.Contains(t, out, "bench")
}

func TestConfigLayers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "neovm.yaml")
	require.NoError(t, os.WriteFile(file, []byte("gas: 7\nmax-stack-size: 32\ninput: asm\n"), 0600))

	t.Setenv("NEOVM_MAX_TRY_DEPTH", "3")
	fs := buildFlagSet("test")
	v, err := getViper(fs, []string{"--config", file, "--max-shift", "9", "prog.asm"})
	require.NoError(t, err)
	c, err := loadConfig(v)
	require.NoError(t, err)
	require.Equal(t, int64(7), c.Gas)
	require.Equal(t, 32, c.Limits.MaxStackSize)
	require.Equal(t, 3, c.Limits.MaxTryNestingDepth)
	require.Equal(t, 9, c.Limits.MaxShift)
	require.Equal(t, "asm", c.Input)
	require.Equal(t, []string{"prog.asm"}, fs.Args())
}

func TestConfigErrors(t *testing.T) {
	cases := [][]string{
		{"--input", "base64"},
		{"--workers", "0"},
		{"--max-stack-size", "0"},
		{"--per-byte-price", "-1"},
	}
	for _, args := range cases {
		v, err := getViper(buildFlagSet("test"), args)
		require.NoError(t, err)
		_, err = loadConfig(v)
		require.Equal(t, ErrInput, errors.Root(err), args)
	}
}

func TestDecodeProgram(t *testing.T) {
	prog, err := decodeProgram("hex", []byte("0x11 12\n9e\n"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x11, 0x12, 0x9e}, prog)

	_, err = decodeProgram("hex", []byte("zz"))
	require.Equal(t, ErrInput, errors.Root(err))

	prog, err = decodeProgram("raw", []byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, prog)
}

func testConfig(t *testing.T, args ...string) *config {
	t.Helper()
	v, err := getViper(buildFlagSet("test"), args)
	require.NoError(t, err)
	c, err := loadConfig(v)
	require.NoError(t, err)
	return c
}

func TestDebugger(t *testing.T) {
	c := testConfig(t)
	prog, err := decodeProgram("asm", []byte("PUSH1 CALL @f PUSH3 RET f: PUSH2 RET"))
	require.NoError(t, err)
	r, err := newRunner(c, log.Discard(), prog, c.engineOptions(log.Discard(), nil)...)
	require.NoError(t, err)
	e, h, err := r.engine(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	d := &debugger{e: e, h: h, out: &out}
	exec := func(line string) string {
		out.Reset()
		require.False(t, d.exec(line))
		return out.String()
	}

	require.Contains(t, exec("step"), "0001: CALL")
	require.Contains(t, exec("over"), "PUSH3")
	require.Contains(t, exec("stack"), "Integer")
	require.Contains(t, exec("break 4"), "breakpoint at 4")
	require.Contains(t, exec("ops"), "=> 0003")
	require.Contains(t, exec("break 2"), "not an instruction offset")
	require.Contains(t, exec("ctx"), "ip 0003")
	require.Contains(t, exec("dump"), "Integer")
	require.Contains(t, exec("run"), "BREAK at 0004: RET")
	require.Contains(t, exec("run"), "HALT")
	require.Contains(t, exec("frob"), "unknown command")
	require.True(t, d.exec("quit"))
}

func TestBench(t *testing.T) {
	c := testConfig(t, "--workers", "3", "--iterations", "5")
	prog, err := decodeProgram("asm", []byte(`"x" SYSCALL "System.Runtime.Log" PUSH5 PUSH7 MUL`))
	require.NoError(t, err)
	r, err := newRunner(c, log.Discard(), prog, c.engineOptions(log.Discard(), nil)...)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	col := metrics.NewCollector("neovm")
	reg.MustRegister(col)

	rep, err := bench(context.Background(), c, r, col)
	require.NoError(t, err)
	require.Equal(t, int64(15), rep.Runs)
	require.Equal(t, "HALT", rep.State)
	require.Greater(t, rep.Gas, int64(0))

	var out bytes.Buffer
	require.NoError(t, dumpMetrics(&out, reg))
	require.Contains(t, out.String(), "neovm_vm_halts_total 16")
}

func TestRunScriptHash(t *testing.T) {
	res := runJSON(t, "", "-e", "11")
	// ripemd160(sha256(0x11)), byte-reversed.
	require.Len(t, res.ScriptHash, 42)
	require.True(t, strings.HasPrefix(res.ScriptHash, "0x"))
	again := runJSON(t, "11")
	require.Equal(t, res.ScriptHash, again.ScriptHash)
}
