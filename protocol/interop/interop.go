// Package interop implements SYSCALL services for the vm.
//
// A Registry maps service identifiers to functions. A Host binds a
// registry to the state one execution may touch (storage, emitted
// logs and notifications) and installs itself as the SYSCALL
// handler of an engine.
package interop

import (
	"context"
	"sort"

	log "github.com/inconshreveable/log15"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/interop/storage"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

var (
	ErrDuplicateService = errors.New("duplicate service")
	ErrNoStorage        = errors.New("no storage attached")
	ErrTooLong          = errors.New("argument too long")
	ErrBadArgument      = errors.New("bad argument")
)

// Func implements a service. Arguments are popped from the
// evaluation stack of the calling context; the first parameter is
// on top.
type Func func(h *Host, e *vm.Engine) error

// Service describes one interop service.
type Service struct {
	Name  string
	ID    uint32
	Price int64
	Func  Func
}

// Registry is a set of services keyed by ID. It is not modified
// after setup and may be shared by many hosts.
type Registry struct {
	services map[uint32]*Service
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[uint32]*Service)}
}

// Register adds a service. The ID is derived from the name.
func (r *Registry) Register(name string, price int64, f Func) error {
	id := vm.SyscallID(name)
	if s, ok := r.services[id]; ok {
		return errors.WithDetailf(ErrDuplicateService, "%s collides with %s", name, s.Name)
	}
	r.services[id] = &Service{Name: name, ID: id, Price: price, Func: f}
	return nil
}

// Lookup returns the service with the given ID.
func (r *Registry) Lookup(id uint32) (*Service, bool) {
	s, ok := r.services[id]
	return s, ok
}

// Services returns the registered services sorted by name.
func (r *Registry) Services() []*Service {
	list := make([]*Service, 0, len(r.services))
	for _, s := range r.services {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// DefaultRegistry returns a registry with every built-in service.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, group := range [][]builtin{runtimeServices, cryptoServices, storageServices, binaryServices} {
		for _, b := range group {
			if err := r.Register(b.name, b.price, b.f); err != nil {
				panic(err)
			}
		}
	}
	return r
}

type builtin struct {
	name  string
	price int64
	f     Func
}

// Notification is an event emitted by System.Runtime.Notify.
type Notification struct {
	Name  string
	State stackitem.Item
}

// Host is the per-execution state reached through services. A
// Host serves one engine at a time.
type Host struct {
	registry *Registry
	store    storage.Store
	ctx      context.Context
	logger   log.Logger

	logs          []string
	notifications []Notification
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithStore attaches the store behind System.Storage.
func WithStore(s storage.Store) HostOption {
	return func(h *Host) { h.store = s }
}

// WithContext sets the context passed to the store.
func WithContext(ctx context.Context) HostOption {
	return func(h *Host) { h.ctx = ctx }
}

// WithLogger sets the logger that receives script log messages.
func WithLogger(l log.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// NewHost returns a host dispatching to r.
func NewHost(r *Registry, opts ...HostOption) *Host {
	h := &Host{registry: r, ctx: context.Background()}
	for _, o := range opts {
		o(h)
	}
	if h.logger == nil {
		h.logger = log.New()
		h.logger.SetHandler(log.DiscardHandler())
	}
	return h
}

// Attach installs h as the SYSCALL handler of e.
func (h *Host) Attach(e *vm.Engine) {
	e.SetHandler(op.SYSCALL, h.syscall)
}

func (h *Host) syscall(e *vm.Engine, instr vm.Instruction) error {
	id := instr.SyscallID()
	s, ok := h.registry.Lookup(id)
	if !ok {
		return errors.WithDetailf(vm.ErrUnknownSyscall, "0x%08x", id)
	}
	if err := e.AddGas(s.Price); err != nil {
		return err
	}
	err := s.Func(h, e)
	if _, fault := err.(*vm.Fault); err != nil && !fault {
		err = errors.WithData(err, "service", s.Name)
	}
	return err
}

// Logs returns the messages logged by scripts.
func (h *Host) Logs() []string { return h.logs }

// Notifications returns the events emitted by scripts.
func (h *Host) Notifications() []Notification { return h.notifications }

func popBytes(e *vm.Engine, max int) ([]byte, error) {
	it, err := e.Pop()
	if err != nil {
		return nil, err
	}
	b, err := it.Bytes()
	if err != nil {
		return nil, err
	}
	if max >= 0 && len(b) > max {
		return nil, errors.WithDetailf(ErrTooLong, "%d bytes, max %d", len(b), max)
	}
	return b, nil
}

func popInt64(e *vm.Engine) (int64, error) {
	it, err := e.Pop()
	if err != nil {
		return 0, err
	}
	v, err := it.Integer()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, errors.WithDetailf(ErrBadArgument, "%s out of range", v)
	}
	return v.Int64(), nil
}
