// Package errors annotates errors with context messages, detail text,
// key/value data and the stack trace of the first wrap, while keeping
// the original sentinel reachable through Root.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// wrapperError is the annotated form of root. Values are never
// mutated after creation; each annotation returns a copy.
type wrapperError struct {
	msg    string
	detail []string
	data   map[string]interface{}
	stack  []StackFrame
	root   error
}

func (e wrapperError) Error() string { return e.msg }

// Unwrap exposes the root to the standard errors functions.
func (e wrapperError) Unwrap() error { return e.root }

// Root returns the error that the annotations of e were added to,
// or e itself when it carries none.
func Root(e error) error {
	if w, ok := e.(wrapperError); ok {
		return w.root
	}
	return e
}

// annotate returns err as a wrapperError, capturing the stack
// above the exported caller the first time. skip counts frames
// between annotate and that caller.
func annotate(err error, skip int) wrapperError {
	w, ok := err.(wrapperError)
	if !ok {
		w = wrapperError{
			msg:   err.Error(),
			root:  err,
			stack: getStack(skip+2, stackTraceSize),
		}
	}
	w.detail = append([]string(nil), w.detail...)
	return w
}

func prefix(w wrapperError, msg string) wrapperError {
	if msg != "" {
		w.msg = msg + ": " + w.msg
	}
	return w
}

// Wrap prefixes the message of err with the operands, formatted
// as by fmt.Sprint, and records the stack if err has none yet.
// Root(Wrap(err)) is Root(err). Wrap(nil) is nil.
func Wrap(err error, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return prefix(annotate(err, 1), fmt.Sprint(a...))
}

// Wrapf is Wrap with fmt.Sprintf formatting.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return prefix(annotate(err, 1), fmt.Sprintf(format, a...))
}

// Sub returns an error whose root is new and whose message
// carries the message of err. Detail, data and stack of err
// are kept. Sub returns nil if err is nil.
func Sub(new, err error) error {
	if err == nil {
		return nil
	}
	w := annotate(err, 1)
	w.root = new
	if w.msg != new.Error() {
		w.msg = new.Error() + ": " + w.msg
	}
	return w
}

// WithDetail adds text to the message of err and to the detail
// returned by Detail. Empty text leaves err unchanged.
func WithDetail(err error, text string) error {
	if err == nil {
		return nil
	}
	if text == "" {
		return err
	}
	return withDetail(err, text)
}

// WithDetailf is WithDetail with fmt.Sprintf formatting.
func WithDetailf(err error, format string, v ...interface{}) error {
	if err == nil {
		return nil
	}
	return withDetail(err, fmt.Sprintf(format, v...))
}

func withDetail(err error, text string) error {
	w := prefix(annotate(err, 2), text)
	w.detail = append(w.detail, text)
	return w
}

// Detail returns the detail texts of the first annotated error
// in err's chain, joined by "; ".
func Detail(err error) string {
	var w wrapperError
	if !As(err, &w) {
		return ""
	}
	return strings.Join(w.detail, "; ")
}

// WithData returns err annotated with the key/value pairs in
// keyval, k1, v1, k2, v2 and so on, merged over any data err
// already has. Keys must be strings.
func WithData(err error, keyval ...interface{}) error {
	if err == nil {
		return nil
	}
	data := make(map[string]interface{})
	for k, v := range Data(err) {
		data[k] = v
	}
	for i := 0; i+1 < len(keyval); i += 2 {
		data[keyval[i].(string)] = keyval[i+1]
	}
	w := annotate(err, 1)
	w.data = data
	return w
}

// Data returns the data of the first annotated error in err's
// chain.
func Data(err error) map[string]interface{} {
	var w wrapperError
	if As(err, &w) {
		return w.data
	}
	return nil
}
