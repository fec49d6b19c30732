package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"

	"github.com/neo-project/neo-sub032/log"
	"github.com/neo-project/neo-sub032/protocol/interop"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

const historyFile = ".neovm_history"

var debugHelp = `commands:
  break <ip>    set a breakpoint in the current script
  delete <ip>   remove a breakpoint
  step          execute one instruction, entering calls
  over          execute one instruction, running calls to completion
  out           run until the current context returns
  run           run until halt, fault or breakpoint
  stack         print the evaluation stack, top first
  ctx           print the invocation stack
  slots         print static fields, locals and arguments
  ops           disassemble the current script
  dump [n]      dump stack item n in detail
  gas           print gas consumed and left
  events        print runtime logs and notifications
  quit          leave the debugger`

// debugger drives one engine from text commands.
type debugger struct {
	e   *vm.Engine
	h   *interop.Host
	out io.Writer
}

// exec runs one command line and reports whether the session
// should end.
func (d *debugger) exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "q", "exit":
		return true
	case "help", "h", "?":
		fmt.Fprintln(d.out, debugHelp)
	case "break", "b", "delete", "d":
		d.breakpoint(fields)
	case "step", "s":
		d.report(d.e.StepInto())
	case "over", "n":
		d.report(d.e.StepOver())
	case "out", "o":
		d.report(d.e.StepOut())
	case "run", "r", "c":
		d.report(d.e.Run(context.Background()))
	case "stack":
		d.printStack()
	case "ctx":
		d.printContexts()
	case "slots":
		d.printSlots()
	case "ops":
		d.printOps()
	case "dump":
		d.dump(fields)
	case "events":
		for _, msg := range d.h.Logs() {
			fmt.Fprintf(d.out, "log: %s\n", msg)
		}
		for _, n := range d.h.Notifications() {
			fmt.Fprintf(d.out, "notify %s: %s\n", n.Name, n.State)
		}
	case "gas":
		fmt.Fprintf(d.out, "consumed %d, left %d\n", d.e.GasConsumed(), d.e.GasLeft())
	default:
		fmt.Fprintf(d.out, "unknown command %q, try help\n", fields[0])
	}
	return false
}

func (d *debugger) breakpoint(fields []string) {
	ctx := d.e.CurrentContext()
	if ctx == nil {
		fmt.Fprintln(d.out, "no context loaded")
		return
	}
	if len(fields) != 2 {
		fmt.Fprintf(d.out, "usage: %s <ip>\n", fields[0])
		return
	}
	ip, err := strconv.Atoi(fields[1])
	if err != nil || !ctx.Script().IsBoundary(ip) {
		fmt.Fprintf(d.out, "%s is not an instruction offset\n", fields[1])
		return
	}
	if fields[0][0] == 'b' {
		d.e.AddBreakPoint(ctx.Script(), ip)
		fmt.Fprintf(d.out, "breakpoint at %d\n", ip)
		return
	}
	if !d.e.RemoveBreakPoint(ctx.Script(), ip) {
		fmt.Fprintf(d.out, "no breakpoint at %d\n", ip)
	}
}

func (d *debugger) report(s vm.State) {
	switch s {
	case vm.StateHalt:
		fmt.Fprintf(d.out, "HALT, gas %d\n", d.e.GasConsumed())
		for i, it := range d.e.ResultStack() {
			fmt.Fprintf(d.out, "  result %d: %s\n", i, it)
		}
	case vm.StateFault:
		fmt.Fprintf(d.out, "FAULT: %v\n", d.e.Err())
	default:
		d.where()
	}
}

// where prints the next instruction of the current context.
func (d *debugger) where() {
	ctx := d.e.CurrentContext()
	if ctx == nil {
		fmt.Fprintln(d.out, d.e.State())
		return
	}
	in, err := ctx.NextInstruction()
	if err != nil {
		fmt.Fprintf(d.out, "%s at %d: %v\n", d.e.State(), ctx.IP(), err)
		return
	}
	fmt.Fprintf(d.out, "%s at %04d: %s\n", d.e.State(), ctx.IP(), in)
}

func (d *debugger) stackItems() []stackitem.Item {
	if ctx := d.e.CurrentContext(); ctx != nil {
		return ctx.EvaluationStack().Items()
	}
	return d.e.ResultStack()
}

func (d *debugger) printStack() {
	items := d.stackItems()
	if len(items) == 0 {
		fmt.Fprintln(d.out, "(empty)")
	}
	for i := len(items) - 1; i >= 0; i-- {
		fmt.Fprintf(d.out, "%3d  %-10s %s\n", len(items)-1-i, items[i].Type(), items[i])
	}
}

func (d *debugger) printContexts() {
	ctxs := d.e.Contexts()
	for i := len(ctxs) - 1; i >= 0; i-- {
		c := ctxs[i]
		fmt.Fprintf(d.out, "%3d  ip %04d of %d, %d items, %d try regions\n",
			i, c.IP(), c.Script().Len(), c.EvaluationStack().Len(), len(c.Regions()))
	}
}

func (d *debugger) printSlots() {
	ctx := d.e.CurrentContext()
	if ctx == nil {
		fmt.Fprintln(d.out, "no context loaded")
		return
	}
	for _, s := range []struct {
		name string
		slot *vm.Slot
	}{
		{"static", ctx.StaticFields()},
		{"locals", ctx.Locals()},
		{"args", ctx.Arguments()},
	} {
		fmt.Fprintf(d.out, "%s (%d):\n", s.name, s.slot.Len())
		for i, it := range s.slot.Items() {
			fmt.Fprintf(d.out, "  %d: %s\n", i, it)
		}
	}
}

func (d *debugger) printOps() {
	ctx := d.e.CurrentContext()
	if ctx == nil {
		fmt.Fprintln(d.out, "no context loaded")
		return
	}
	instrs, err := ctx.Script().Instructions()
	for _, in := range instrs {
		mark := "  "
		if in.Offset == ctx.IP() {
			mark = "=>"
		}
		fmt.Fprintf(d.out, "%s %04d  %s\n", mark, in.Offset, in)
	}
	if err != nil {
		fmt.Fprintf(d.out, "   decoding stopped: %v\n", err)
	}
}

func (d *debugger) dump(fields []string) {
	n := 0
	if len(fields) > 1 {
		var err error
		if n, err = strconv.Atoi(fields[1]); err != nil {
			fmt.Fprintf(d.out, "bad index %q\n", fields[1])
			return
		}
	}
	items := d.stackItems()
	if n < 0 || n >= len(items) {
		fmt.Fprintf(d.out, "no item %d\n", n)
		return
	}
	spew.Fdump(d.out, items[len(items)-1-n])
}

func debugCmd(env *cmdEnv, args []string) error {
	c, args, err := env.setup("debug", args)
	if err != nil {
		return err
	}
	l, closer, err := c.logger(env.stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	if c.Eval == "" && (len(args) == 0 || args[0] == "-") {
		return fmt.Errorf("debug reads commands from the terminal; give the script as a file or with -e")
	}
	prog, err := readProgram(c, args, env.stdin)
	if err != nil {
		return err
	}
	r, err := newRunner(c, l, prog, c.engineOptions(l, env.stderr)...)
	if err != nil {
		return err
	}
	e, h, err := r.engine(context.Background())
	if err != nil {
		return err
	}
	d := &debugger{e: e, h: h, out: env.stdout}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) (c []string) {
		for _, name := range []string{"break", "delete", "step", "over", "out", "run", "stack", "ctx", "slots", "ops", "dump", "gas", "events", "quit"} {
			if strings.HasPrefix(name, line) {
				c = append(c, name)
			}
		}
		return c
	})
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	d.where()
	for {
		line, err := ln.Prompt("neovm> ")
		if err != nil {
			fmt.Fprintln(env.stdout)
			return nil
		}
		ln.AppendHistory(line)
		var quit bool
		func() {
			defer log.RecoverAndLogError(l)
			quit = d.exec(line)
		}()
		if quit {
			return nil
		}
	}
}
