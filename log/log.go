// Package log configures the process-wide structured logger.
// Entries are K=V pairs written through log15. Libraries take a
// log15.Logger and stay silent unless given one; binaries call
// Configure once at startup.
package log

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	log "github.com/inconshreveable/log15"

	"github.com/neo-project/neo-sub032/errors"
)

// Conventional key names for log entries
const (
	KeyError  = "error"  // produced by Error
	KeyDetail = "detail" // error detail, see errors.WithDetail
	KeyStack  = "stack"  // call stack of the error
)

// Output formats accepted by Configure.
const (
	FormatTerminal = "terminal"
	FormatLogfmt   = "logfmt"
	FormatJSON     = "json"
)

// Configure sets the root handler to write entries at or above
// level to w in the given format, and returns the root logger.
func Configure(level, format string, w io.Writer) (log.Logger, error) {
	lvl, err := log.LvlFromString(strings.ToLower(level))
	if err != nil {
		return nil, errors.WithDetailf(err, "log level %q", level)
	}
	var f log.Format
	switch format {
	case FormatTerminal, "":
		f = log.TerminalFormat()
	case FormatLogfmt:
		f = log.LogfmtFormat()
	case FormatJSON:
		f = log.JsonFormat()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	h := log.LvlFilterHandler(lvl, log.StreamHandler(w, f))
	root := log.Root()
	root.SetHandler(h)
	return root, nil
}

// Discard returns a logger that drops every entry.
func Discard() log.Logger {
	l := log.New()
	l.SetHandler(log.DiscardHandler())
	return l
}

// Error writes an entry at level Error containing err and, when
// present, its detail, data and stack.
func Error(l log.Logger, msg string, err error, keyvals ...interface{}) {
	kv := append([]interface{}{KeyError, err}, keyvals...)
	if d := errors.Detail(err); d != "" && d != err.Error() {
		kv = append(kv, KeyDetail, d)
	}
	for k, v := range errors.Data(err) {
		kv = append(kv, k, v)
	}
	if stack := errors.Stack(err); len(stack) > 0 {
		frames := make([]string, len(stack))
		for i, s := range stack {
			frames[i] = s.String()
		}
		kv = append(kv, KeyStack, strings.Join(frames, "\n"))
	}
	l.Error(msg, kv...)
}

// RecoverAndLogError must be used inside a defer.
func RecoverAndLogError(l log.Logger) {
	if err := recover(); err != nil {
		const size = 64 << 10
		buf := make([]byte, size)
		buf = buf[:runtime.Stack(buf, false)]
		l.Crit("panic", KeyError, err, KeyStack, string(buf))
	}
}
