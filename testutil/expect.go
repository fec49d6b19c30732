package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/neo-project/neo-sub032/errors"
)

var wd, _ = os.Getwd()

// ExpectEqual fails t, without stopping it, when actual and
// expected differ under DeepEqual.
func ExpectEqual(t testing.TB, actual, expected interface{}, msg string) {
	t.Helper()
	if DeepEqual(actual, expected) {
		return
	}
	t.Errorf("%s:\ngot %swant %s%s", msg, spew.Sdump(actual), spew.Sdump(expected), callers())
}

// ExpectError fails t, without stopping it, when the root of
// the error returned by fn is not expected.
func ExpectError(t testing.TB, expected error, msg string, fn func() error) {
	t.Helper()
	if actual := fn(); errors.Root(actual) != expected {
		t.Errorf("%s: got error %v, want %v\n%s", msg, actual, expected, callers())
	}
}

// FatalErr stops t with err and the stack recorded when it was
// first wrapped. Paths under the working directory are shown
// relative to it.
func FatalErr(t testing.TB, err error) {
	t.Helper()
	var b strings.Builder
	b.WriteString(err.Error())
	if d := errors.Detail(err); d != "" {
		b.WriteString("\ndetail: " + d)
	}
	for _, f := range errors.Stack(err) {
		if rel, err := filepath.Rel(wd, f.File); err == nil && !strings.HasPrefix(rel, "..") {
			f.File = rel
		}
		f.Func = f.Func[strings.LastIndexByte(f.Func, '/')+1:]
		b.WriteString("\n" + f.String())
	}
	t.Fatal(b.String())
}

func callers() string {
	buf := make([]byte, 8192)
	return string(buf[:runtime.Stack(buf, false)])
}
