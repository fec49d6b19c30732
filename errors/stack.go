package errors

import (
	"fmt"
	"runtime"
)

const stackTraceSize = 10

// StackFrame is one call site of a captured stack.
type StackFrame struct {
	Func string
	File string
	Line int
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d - %s", f.File, f.Line, f.Func)
}

// Stack returns the stack captured when err, or the first
// error in its Unwrap chain produced by this package, was wrapped.
func Stack(err error) []StackFrame {
	var w wrapperError
	if As(err, &w) {
		return w.stack
	}
	return nil
}

// getStack captures up to size frames above its caller,
// skipping skip more.
func getStack(skip, size int) []StackFrame {
	pc := make([]uintptr, size)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pc[:n])
	trace := make([]StackFrame, 0, n)
	for {
		f, more := frames.Next()
		trace = append(trace, StackFrame{Func: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return trace
}
