package vm

import (
	"fmt"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrUnknownOpcode      = errors.New("unknown opcode")

	ErrInvalidOperand     = errors.New("invalid operand")
	ErrInvalidJump        = errors.New("invalid jump")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrDivZero            = errors.New("division by zero")
	ErrIntegerOverflow    = errors.New("integer overflow")
	ErrOutOfRange         = errors.New("value out of range")
	ErrKeyNotFound        = errors.New("key not found")
	ErrUnknownSyscall     = errors.New("unknown syscall")
	ErrUnknownToken       = errors.New("unknown method token")
	ErrSlotInitialized    = errors.New("slot already initialized")
	ErrUnhandledException = errors.New("unhandled exception")

	ErrInsufficientGas = errors.New("insufficient gas")
	ErrInvocationDepth = errors.New("invocation stack too deep")
	ErrTryNesting      = errors.New("try nesting too deep")
	ErrItemTooLarge    = errors.New("item too large")

	ErrAbort        = errors.New("ABORT executed")
	ErrAssertFailed = errors.New("ASSERT failed")
	ErrCanceled     = errors.New("execution canceled")

	ErrReturnCount = errors.New("return value count mismatch")
	ErrNoContext   = errors.New("no context loaded")
	ErrUnexpected  = errors.New("unexpected error")
)

// FaultKind classifies the errors that stop or interrupt execution.
type FaultKind int

const (
	// DecodeError is a malformed instruction. It is never catchable.
	DecodeError FaultKind = iota + 1

	// RuntimeFault is raised in-script and can be caught by TRY.
	RuntimeFault

	// ResourceExhausted is a gas, size or count limit. It is never
	// catchable.
	ResourceExhausted

	// Abort is ABORT, a failed ASSERT or an external cancellation.
	Abort

	// Internal is a broken engine or host invariant.
	Internal
)

func (k FaultKind) String() string {
	switch k {
	case DecodeError:
		return "DecodeError"
	case RuntimeFault:
		return "RuntimeFault"
	case ResourceExhausted:
		return "ResourceExhausted"
	case Abort:
		return "Abort"
	case Internal:
		return "Internal"
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

var faultKinds = map[error]FaultKind{
	ErrInvalidInstruction: DecodeError,
	ErrUnknownOpcode:      DecodeError,

	ErrInvalidOperand:              RuntimeFault,
	ErrInvalidJump:                 RuntimeFault,
	ErrStackUnderflow:              RuntimeFault,
	ErrDivZero:                     RuntimeFault,
	ErrIntegerOverflow:             RuntimeFault,
	ErrOutOfRange:                  RuntimeFault,
	ErrKeyNotFound:                 RuntimeFault,
	ErrUnknownSyscall:              RuntimeFault,
	ErrUnknownToken:                RuntimeFault,
	ErrSlotInitialized:             RuntimeFault,
	ErrUnhandledException:          RuntimeFault,
	stackitem.ErrInvalidCast:       RuntimeFault,
	stackitem.ErrInvalidType:       RuntimeFault,
	stackitem.ErrInvalidKey:        RuntimeFault,
	stackitem.ErrIndexOutOfRange:   RuntimeFault,
	stackitem.ErrTooBig:            ResourceExhausted,
	stackitem.ErrCircularReference: ResourceExhausted,
	stackitem.ErrReferenceLimit:    ResourceExhausted,

	ErrInsufficientGas: ResourceExhausted,
	ErrInvocationDepth: ResourceExhausted,
	ErrTryNesting:      ResourceExhausted,
	ErrItemTooLarge:    ResourceExhausted,

	ErrAbort:        Abort,
	ErrAssertFailed: Abort,
	ErrCanceled:     Abort,

	ErrReturnCount: Internal,
	ErrNoContext:   Internal,
	ErrUnexpected:  Internal,
}

// KindOf classifies err. Errors the VM does not know, such as
// failures reported by host services, are runtime faults.
// KindOf(nil) is zero.
func KindOf(err error) FaultKind {
	if err == nil {
		return 0
	}
	if f, ok := err.(*Fault); ok {
		return f.Kind
	}
	if k, ok := faultKinds[errors.Root(err)]; ok {
		return k
	}
	return RuntimeFault
}

// Fault describes why an engine stopped in the FAULT state.
type Fault struct {
	Kind  FaultKind
	Err   error
	Op    op.Opcode
	IP    int
	Depth int

	// Exception is the uncaught item for faults raised in-script.
	// It is nil for fatal errors that never became an item.
	Exception stackitem.Item

	// Prog is the script of the context that faulted.
	Prog []byte
}

func (f *Fault) Error() string {
	dis, err := Disassemble(f.Prog)
	if err != nil {
		dis += " ???"
	}
	msg := fmt.Sprintf("%s [%s at ip %d depth %d", f.Err.Error(), f.Op, f.IP, f.Depth)
	if f.Exception != nil {
		msg += "; exception " + f.Exception.String()
	}
	return msg + "; prog " + dis + "]"
}

func (f *Fault) Unwrap() error { return f.Err }
