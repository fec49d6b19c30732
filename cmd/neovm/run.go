package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	log15 "github.com/inconshreveable/log15"

	"github.com/neo-project/neo-sub032/protocol/interop"
	"github.com/neo-project/neo-sub032/protocol/interop/storage"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
	"github.com/neo-project/neo-sub032/protocol/vmutil"
)

// result is the JSON summary printed by run.
type result struct {
	ScriptHash    string            `json:"scripthash"`
	State         string            `json:"state"`
	GasConsumed   int64             `json:"gasconsumed"`
	Stack         []json.RawMessage `json:"stack"`
	Exception     string            `json:"exception,omitempty"`
	FaultKind     string            `json:"faultkind,omitempty"`
	Logs          []string          `json:"logs,omitempty"`
	Notifications []notification    `json:"notifications,omitempty"`
}

type notification struct {
	Name  string          `json:"eventname"`
	State json.RawMessage `json:"state"`
}

// runner builds ready-to-run engines for one script. Strict
// runners validate the script once up front; the others decode
// it lazily through a script cache shared by their engines.
type runner struct {
	c      *config
	log    log15.Logger
	opts   []vm.Option
	prog   []byte
	script *vm.Script
	reg    *interop.Registry
}

func newRunner(c *config, l log15.Logger, prog []byte, opts ...vm.Option) (*runner, error) {
	r := &runner{
		c:    c,
		log:  l,
		opts: opts,
		prog: prog,
		reg:  interop.DefaultRegistry(),
	}
	if c.Strict {
		s, err := vm.ParseScript(prog)
		if err != nil {
			return nil, err
		}
		r.script = s
	} else {
		r.opts = append(r.opts, vm.WithScriptCache(vm.NewScriptCache(c.CacheSize)))
	}
	return r, nil
}

// engine returns a fresh engine with the script loaded and a
// host attached. Each engine gets its own store.
func (r *runner) engine(ctx context.Context, extra ...vm.Option) (*vm.Engine, *interop.Host, error) {
	e := vm.NewEngine(append(append([]vm.Option{}, r.opts...), extra...)...)
	hopts := []interop.HostOption{interop.WithContext(ctx), interop.WithLogger(r.log)}
	if r.c.Storage {
		hopts = append(hopts, interop.WithStore(storage.NewMemStore()))
	}
	h := interop.NewHost(r.reg, hopts...)
	h.Attach(e)
	var err error
	if r.script != nil {
		_, err = e.Load(r.script)
	} else {
		_, err = e.LoadScript(r.prog)
	}
	if err != nil {
		return nil, nil, err
	}
	return e, h, nil
}

func (r *runner) summarize(e *vm.Engine, h *interop.Host) (*result, error) {
	res := &result{
		ScriptHash:  vmutil.ScriptHash(r.prog).StringLE(),
		State:       e.State().String(),
		GasConsumed: e.GasConsumed(),
		Stack:       []json.RawMessage{},
		Logs:        h.Logs(),
	}
	for _, it := range e.ResultStack() {
		b, err := stackitem.ToJSON(it)
		if err != nil {
			return nil, err
		}
		res.Stack = append(res.Stack, b)
	}
	if err := e.Err(); err != nil {
		res.Exception = err.Error()
		res.FaultKind = vm.KindOf(err).String()
	}
	for _, n := range h.Notifications() {
		b, err := stackitem.ToJSON(n.State)
		if err != nil {
			return nil, err
		}
		res.Notifications = append(res.Notifications, notification{Name: n.Name, State: b})
	}
	return res, nil
}

func runCmd(env *cmdEnv, args []string) error {
	c, args, err := env.setup("run", args)
	if err != nil {
		return err
	}
	l, closer, err := c.logger(env.stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	prog, err := readProgram(c, args, env.stdin)
	if err != nil {
		return err
	}
	r, err := newRunner(c, l, prog, c.engineOptions(l, env.stderr)...)
	if err != nil {
		return err
	}
	ctx := context.Background()
	e, h, err := r.engine(ctx)
	if err != nil {
		return err
	}
	e.Run(ctx)
	res, err := r.summarize(e, h)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, string(out))
	return nil
}

func asmCmd(env *cmdEnv, args []string) error {
	c, args, err := env.setup("asm", args)
	if err != nil {
		return err
	}
	c.Input = "asm"
	prog, err := readProgram(c, args, env.stdin)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, hex.EncodeToString(prog))
	return nil
}

func disasmCmd(env *cmdEnv, args []string) error {
	c, args, err := env.setup("disasm", args)
	if err != nil {
		return err
	}
	prog, err := readProgram(c, args, env.stdin)
	if err != nil {
		return err
	}
	s, err := vm.ParseScript(prog)
	if err != nil && c.Strict {
		return err
	}
	if s == nil {
		s = vm.NewScript(prog)
	}
	reg := interop.DefaultRegistry()
	instrs, err := s.Instructions()
	for _, in := range instrs {
		fmt.Fprintf(env.stdout, "%04d  %s%s\n", in.Offset, in, serviceName(reg, in))
	}
	return err
}

// serviceName annotates SYSCALL instructions with the name of
// the service they invoke.
func serviceName(reg *interop.Registry, in vm.Instruction) string {
	if in.Opcode != op.SYSCALL {
		return ""
	}
	if svc, ok := reg.Lookup(in.SyscallID()); ok {
		return "  ; " + svc.Name
	}
	return "  ; unknown service"
}
