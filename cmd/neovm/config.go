package main

import (
	"encoding/hex"
	"io"
	"io/ioutil"
	"strings"
	"unicode"

	log15 "github.com/inconshreveable/log15"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/log"
	"github.com/neo-project/neo-sub032/log/rotation"
	"github.com/neo-project/neo-sub032/protocol/vm"
)

const (
	configKey        = "config"
	gasKey           = "gas"
	maxStackKey      = "max-stack-size"
	maxItemKey       = "max-item-size"
	maxDepthKey      = "max-invocation-depth"
	maxTryKey        = "max-try-depth"
	maxShiftKey      = "max-shift"
	catchFaultsKey   = "catch-engine-faults"
	strictKey        = "strict"
	traceKey         = "trace"
	logLevelKey      = "log-level"
	logFormatKey     = "log-format"
	logFileKey       = "log-file"
	logFileSizeKey   = "log-file-size"
	inputKey         = "input"
	workersKey       = "workers"
	iterationsKey    = "iterations"
	perBytePriceKey  = "per-byte-price"
	metricsKey       = "metrics"
	storageKey       = "storage"
	cacheSizeKey     = "script-cache"
	evalKey          = "eval"
	envPrefix        = "NEOVM"
	defaultLogSize   = 10 << 20
	defaultLogBackup = 3
)

var ErrInput = errors.New("bad input")

// config is the resolved configuration of one invocation.
type config struct {
	Gas          int64
	Limits       vm.Limits
	Strict       bool
	Trace        bool
	LogLevel     string
	LogFormat    string
	LogFile      string
	LogFileSize  int64
	Input        string
	Workers      int
	Iterations   int
	PerBytePrice int64
	Metrics      bool
	Storage      bool
	CacheSize    int
	Eval         string
}

func buildFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	d := vm.DefaultLimits
	fs.String(configKey, "", "config file (yaml, json or toml)")
	fs.Int64(gasKey, 0, "gas limit in datoshi, 0 for unlimited")
	fs.Int(maxStackKey, d.MaxStackSize, "max referenced items")
	fs.Int(maxItemKey, d.MaxItemSize, "max byte size of a single item")
	fs.Int(maxDepthKey, d.MaxInvocationStackSize, "max loaded contexts")
	fs.Int(maxTryKey, d.MaxTryNestingDepth, "max nested try regions per context")
	fs.Int(maxShiftKey, d.MaxShift, "max shift amount and exponent")
	fs.Bool(catchFaultsKey, d.CatchEngineFaults, "let TRY catch engine runtime faults")
	fs.Bool(strictKey, false, "validate the whole script before running it")
	fs.Bool(traceKey, false, "trace each instruction to stderr")
	fs.String(logLevelKey, "warn", "log level (debug, info, warn, error, crit)")
	fs.String(logFormatKey, log.FormatTerminal, "log format (terminal, logfmt, json)")
	fs.String(logFileKey, "", "write logs to a rotated file instead of stderr")
	fs.Int64(logFileSizeKey, defaultLogSize, "rotate the log file at this size")
	fs.String(inputKey, "hex", "script encoding (hex, asm, raw)")
	fs.Int(workersKey, 4, "bench: concurrent engines")
	fs.Int(iterationsKey, 100, "bench: runs per worker")
	fs.Int64(perBytePriceKey, 0, "price per allocated byte, 0 keeps the default")
	fs.Bool(metricsKey, false, "bench: dump prometheus metrics")
	fs.Bool(storageKey, true, "attach an in-memory store to the interop host")
	fs.Int(cacheSizeKey, 64, "decoded scripts kept by the script cache")
	fs.StringP(evalKey, "e", "", "script given inline instead of a file")
	return fs
}

// getViper parses args into a viper environment layered as
// flags, then NEOVM_* variables, then the config file.
func getViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if file := v.GetString(configKey); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (*config, error) {
	c := &config{
		Gas: v.GetInt64(gasKey),
		Limits: vm.Limits{
			MaxStackSize:           v.GetInt(maxStackKey),
			MaxItemSize:            v.GetInt(maxItemKey),
			MaxInvocationStackSize: v.GetInt(maxDepthKey),
			MaxTryNestingDepth:     v.GetInt(maxTryKey),
			MaxShift:               v.GetInt(maxShiftKey),
			CatchEngineFaults:      v.GetBool(catchFaultsKey),
		},
		Strict:       v.GetBool(strictKey),
		Trace:        v.GetBool(traceKey),
		LogLevel:     v.GetString(logLevelKey),
		LogFormat:    v.GetString(logFormatKey),
		LogFile:      v.GetString(logFileKey),
		LogFileSize:  v.GetInt64(logFileSizeKey),
		Input:        v.GetString(inputKey),
		Workers:      v.GetInt(workersKey),
		Iterations:   v.GetInt(iterationsKey),
		PerBytePrice: v.GetInt64(perBytePriceKey),
		Metrics:      v.GetBool(metricsKey),
		Storage:      v.GetBool(storageKey),
		CacheSize:    v.GetInt(cacheSizeKey),
		Eval:         v.GetString(evalKey),
	}
	switch {
	case c.Limits.MaxStackSize <= 0, c.Limits.MaxItemSize <= 0,
		c.Limits.MaxInvocationStackSize <= 0, c.Limits.MaxTryNestingDepth <= 0,
		c.Limits.MaxShift < 0:
		return nil, errors.WithDetail(ErrInput, "limits must be positive")
	case c.Workers <= 0 || c.Iterations <= 0:
		return nil, errors.WithDetail(ErrInput, "workers and iterations must be positive")
	case c.PerBytePrice < 0:
		return nil, errors.WithDetail(ErrInput, "negative per-byte price")
	}
	switch c.Input {
	case "hex", "asm", "raw":
	default:
		return nil, errors.WithDetailf(ErrInput, "unknown input encoding %q", c.Input)
	}
	return c, nil
}

// logger builds the root logger. The returned closer releases
// the log file, if any.
func (c *config) logger(stderr io.Writer) (log15.Logger, io.Closer, error) {
	var (
		w      = stderr
		closer io.Closer
	)
	if c.LogFile != "" {
		f := rotation.Create(c.LogFile, c.LogFileSize, defaultLogBackup)
		w, closer = f, f
	}
	l, err := log.Configure(c.LogLevel, c.LogFormat, w)
	if err != nil {
		return nil, nil, err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	return l, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (c *config) prices() *vm.PriceTable {
	p := vm.DefaultPrices()
	if c.PerBytePrice > 0 {
		p.PerByte = c.PerBytePrice
	}
	return p
}

// engineOptions returns the options every engine of this
// invocation shares.
func (c *config) engineOptions(l log15.Logger, trace io.Writer) []vm.Option {
	opts := []vm.Option{
		vm.WithLimits(c.Limits),
		vm.WithGasLimit(c.Gas),
		vm.WithPrices(c.prices()),
		vm.WithLogger(l),
	}
	if c.Trace && trace != nil {
		opts = append(opts, vm.WithTrace(trace))
	}
	return opts
}

// readProgram reads the script given by --eval, the file named
// by args[0], or stdin when args is empty or "-".
func readProgram(c *config, args []string, stdin io.Reader) ([]byte, error) {
	var src []byte
	switch {
	case c.Eval != "":
		src = []byte(c.Eval)
	case len(args) == 0 || args[0] == "-":
		b, err := ioutil.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "reading stdin")
		}
		src = b
	default:
		b, err := ioutil.ReadFile(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "reading script")
		}
		src = b
	}
	return decodeProgram(c.Input, src)
}

func decodeProgram(input string, src []byte) ([]byte, error) {
	switch input {
	case "raw":
		return src, nil
	case "asm":
		return vm.Assemble(string(src))
	}
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(src))
	s = strings.TrimPrefix(s, "0x")
	prog, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Sub(ErrInput, err)
	}
	return prog, nil
}
