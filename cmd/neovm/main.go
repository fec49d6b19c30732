// Command neovm assembles, disassembles, runs, debugs and
// benchmarks VM scripts.
//
// Usage:
//
//	neovm <command> [flags] [script-file | - | -e source]
//
// Flags may also be set through NEOVM_* environment variables
// (NEOVM_MAX_STACK_SIZE for --max-stack-size) or a --config file.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
)

type command struct {
	f     func(env *cmdEnv, args []string) error
	usage string
}

var commands = map[string]*command{
	"run":    {runCmd, "execute a script and print the result as JSON"},
	"asm":    {asmCmd, "assemble source text into hex"},
	"disasm": {disasmCmd, "disassemble a script"},
	"debug":  {debugCmd, "step through a script interactively"},
	"bench":  {benchCmd, "run a script repeatedly on concurrent engines"},
}

// cmdEnv holds the process streams so commands can be tested.
type cmdEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	env := &cmdEnv{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(env.main(os.Args[1:]))
}

func (env *cmdEnv) main(args []string) int {
	if len(args) < 1 {
		help(env.stdout)
		return 0
	}
	cmd := commands[args[0]]
	if cmd == nil {
		fmt.Fprintln(env.stderr, "unknown command:", args[0])
		help(env.stderr)
		return 1
	}
	if err := cmd.f(env, args[1:]); err != nil {
		fmt.Fprintln(env.stderr, "error:", err)
		return 2
	}
	return 0
}

func help(w io.Writer) {
	fmt.Fprintln(w, "usage: neovm [command] [flags] [script]")
	fmt.Fprint(w, "\nThe commands are:\n\n")
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "\t%-8s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(w)
}

// setup parses flags and configuration shared by all commands
// and returns the remaining positional arguments.
func (env *cmdEnv) setup(name string, args []string) (*config, []string, error) {
	fs := buildFlagSet(name)
	fs.SetOutput(env.stderr)
	v, err := getViper(fs, args)
	if err != nil {
		return nil, nil, err
	}
	c, err := loadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	return c, fs.Args(), nil
}
