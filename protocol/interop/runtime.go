package interop

import (
	"unicode/utf8"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// Platform is the value pushed by System.Runtime.Platform.
const Platform = "NEO"

const (
	MaxLogSize       = 1024
	MaxEventNameSize = 32
	MaxNotifications = 512
)

var runtimeServices = []builtin{
	{"System.Runtime.Platform", 1 << 3, runtimePlatform},
	{"System.Runtime.GasLeft", 1 << 4, runtimeGasLeft},
	{"System.Runtime.Log", 1 << 15, runtimeLog},
	{"System.Runtime.Notify", 1 << 15, runtimeNotify},
	{"System.Runtime.GetNotifications", 1 << 12, runtimeGetNotifications},
}

func runtimePlatform(h *Host, e *vm.Engine) error {
	e.Push(stackitem.NewByteString([]byte(Platform)))
	return nil
}

func runtimeGasLeft(h *Host, e *vm.Engine) error {
	e.Push(stackitem.Make(e.GasLeft()))
	return nil
}

func runtimeLog(h *Host, e *vm.Engine) error {
	b, err := popBytes(e, MaxLogSize)
	if err != nil {
		return err
	}
	if !utf8.Valid(b) {
		return errors.WithDetail(ErrBadArgument, "log message is not UTF-8")
	}
	msg := string(b)
	h.logs = append(h.logs, msg)
	h.logger.Info("script log", "msg", msg, "ip", e.CurrentContext().IP())
	return nil
}

func runtimeNotify(h *Host, e *vm.Engine) error {
	name, err := popBytes(e, MaxEventNameSize)
	if err != nil {
		return err
	}
	state, err := e.Pop()
	if err != nil {
		return err
	}
	if _, ok := state.(*stackitem.Array); !ok {
		return errors.WithDetailf(ErrBadArgument, "notification state is %s, want Array", state.Type())
	}
	if len(h.notifications) >= MaxNotifications {
		return errors.WithDetailf(ErrTooLong, "more than %d notifications", MaxNotifications)
	}
	h.notifications = append(h.notifications, Notification{Name: string(name), State: state})
	h.logger.Debug("notify", "name", string(name), "state", state)
	return nil
}

func runtimeGetNotifications(h *Host, e *vm.Engine) error {
	e.Push(stackitem.Make(int64(len(h.notifications))))
	return nil
}
