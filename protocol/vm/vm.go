package vm

import (
	"context"
	"fmt"
	"io"

	log "github.com/inconshreveable/log15"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/math/checked"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// State is the execution state of an engine.
type State byte

const (
	StateNone  State = 0
	StateHalt  State = 1
	StateFault State = 2
	StateBreak State = 4
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateHalt:
		return "HALT"
	case StateFault:
		return "FAULT"
	case StateBreak:
		return "BREAK"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// Observer receives engine events. Calls are made synchronously
// from the goroutine driving the engine.
type Observer interface {
	OnStep(o op.Opcode, price int64)
	OnContext(depth int, loaded bool)
	OnHalt(gasConsumed int64)
	OnFault(kind FaultKind, gasConsumed int64)
}

// TokenLoader resolves the method token of a CALLT instruction
// into a script to invoke. It returns ErrUnknownToken for tokens
// it does not know.
type TokenLoader func(e *Engine, token int) (*Script, []LoadOption, error)

// Engine executes scripts. An engine is used by one goroutine at
// a time; independent engines share nothing but immutable Scripts.
type Engine struct {
	limits   Limits
	prices   *PriceTable
	table    JumpTable
	rc       *stackitem.RefCounter
	istack   []*Context
	results  *Stack
	state    State
	jumping  bool
	uncaught stackitem.Item
	cause    error
	fault    *Fault

	gasLimit    int64
	gasConsumed int64

	trace    io.Writer
	log      log.Logger
	observer Observer
	cache    *ScriptCache
	tokens   TokenLoader

	breakpoints map[*Script]map[int]bool
	breakDepth  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits replaces DefaultLimits.
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithGasLimit bounds the gas the engine may consume. Zero or
// less means no bound.
func WithGasLimit(gas int64) Option {
	return func(e *Engine) { e.gasLimit = gas }
}

// WithPrices replaces the default price table.
func WithPrices(p *PriceTable) Option {
	return func(e *Engine) { e.prices = p }
}

// WithJumpTable replaces the default handlers. The table is copied.
func WithJumpTable(t *JumpTable) Option {
	return func(e *Engine) { e.table = *t }
}

// WithTrace writes one line per executed instruction to w.
func WithTrace(w io.Writer) Option {
	return func(e *Engine) { e.trace = w }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithScriptCache makes LoadScript reuse decoded scripts from c.
func WithScriptCache(c *ScriptCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithTokenLoader sets the resolver used by CALLT.
func WithTokenLoader(f TokenLoader) Option {
	return func(e *Engine) { e.tokens = f }
}

var discard = func() log.Logger {
	l := log.New()
	l.SetHandler(log.DiscardHandler())
	return l
}()

// NewEngine returns an engine with no script loaded.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		limits: DefaultLimits,
		table:  defaultTable,
		log:    discard,
	}
	for _, o := range opts {
		o(e)
	}
	if e.prices == nil {
		e.prices = DefaultPrices()
	}
	e.rc = stackitem.NewRefCounter(e.limits.MaxStackSize)
	e.results = NewStack(e.rc)
	return e
}

// LoadOption configures a context loaded by Load or LoadScript.
type LoadOption func(*loadConfig)

type loadConfig struct {
	rvcount  int
	position int
	static   []stackitem.Item
	args     []stackitem.Item
}

// WithReturnCount requires the context to leave exactly n items
// on its stack when it returns.
func WithReturnCount(n int) LoadOption {
	return func(c *loadConfig) { c.rvcount = n }
}

// WithPosition starts execution at ip instead of 0.
func WithPosition(ip int) LoadOption {
	return func(c *loadConfig) { c.position = ip }
}

// WithStaticSlots preinitializes the static fields.
func WithStaticSlots(items ...stackitem.Item) LoadOption {
	return func(c *loadConfig) { c.static = items }
}

// WithArgs pushes items so that the first one is on top, ready
// for INITSLOT to store it into argument 0.
func WithArgs(items ...stackitem.Item) LoadOption {
	return func(c *loadConfig) { c.args = items }
}

// LoadScript loads prog as a new context on top of the
// invocation stack.
func (e *Engine) LoadScript(prog []byte, opts ...LoadOption) (*Context, error) {
	var s *Script
	if e.cache != nil {
		s = e.cache.Get(prog)
	} else {
		s = NewScript(prog)
	}
	return e.Load(s, opts...)
}

// Load loads s as a new context on top of the invocation stack.
func (e *Engine) Load(s *Script, opts ...LoadOption) (*Context, error) {
	cfg := loadConfig{rvcount: -1}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.position < 0 || cfg.position > s.Len() || !s.IsBoundary(cfg.position) {
		return nil, errors.WithDetailf(ErrInvalidJump, "start position %d", cfg.position)
	}
	ctx := newContext(s, e.rc, cfg.rvcount, cfg.position)
	if cfg.static != nil {
		ctx.static = newSlotFrom(cfg.static, e.rc)
	}
	if err := e.loadContext(ctx); err != nil {
		ctx.static.release()
		return nil, err
	}
	for i := len(cfg.args) - 1; i >= 0; i-- {
		ctx.estack.Push(cfg.args[i])
	}
	return ctx, nil
}

func (e *Engine) loadContext(ctx *Context) error {
	if len(e.istack) >= e.limits.MaxInvocationStackSize {
		return errors.WithDetailf(ErrInvocationDepth, "%d contexts", len(e.istack))
	}
	e.istack = append(e.istack, ctx)
	e.log.Debug("context loaded", "depth", len(e.istack), "ip", ctx.ip, "size", ctx.script.Len())
	if e.observer != nil {
		e.observer.OnContext(len(e.istack), true)
	}
	return nil
}

// unloadContext pops the current context and releases the
// references it holds that no remaining context shares.
func (e *Engine) unloadContext() *Context {
	ctx := e.istack[len(e.istack)-1]
	e.istack[len(e.istack)-1] = nil
	e.istack = e.istack[:len(e.istack)-1]

	next := e.CurrentContext()
	if next == nil || next.shared != ctx.shared {
		ctx.static.release()
		ctx.estack.Clear()
	}
	ctx.locals.release()
	ctx.args.release()

	e.log.Debug("context unloaded", "depth", len(e.istack))
	if e.observer != nil {
		e.observer.OnContext(len(e.istack), false)
	}
	return ctx
}

// CurrentContext returns the top of the invocation stack, or nil.
func (e *Engine) CurrentContext() *Context {
	if len(e.istack) == 0 {
		return nil
	}
	return e.istack[len(e.istack)-1]
}

// Contexts returns the invocation stack, entry context first.
func (e *Engine) Contexts() []*Context {
	return append([]*Context(nil), e.istack...)
}

// State returns the execution state.
func (e *Engine) State() State { return e.state }

// ResultStack returns the items returned by the entry context.
// It is complete once the engine halts.
func (e *Engine) ResultStack() []stackitem.Item { return e.results.Items() }

// FaultException returns the exception item that ended execution,
// or nil when the engine did not fault on an uncaught exception.
func (e *Engine) FaultException() stackitem.Item {
	if e.fault == nil {
		return nil
	}
	return e.fault.Exception
}

// Err returns the *Fault describing why the engine faulted,
// or nil.
func (e *Engine) Err() error {
	if e.fault == nil {
		return nil
	}
	return e.fault
}

// Limits returns the engine limits.
func (e *Engine) Limits() Limits { return e.limits }

// RefCounter returns the reference counter of the engine.
func (e *Engine) RefCounter() *stackitem.RefCounter { return e.rc }

// SetHandler replaces the handler of o. It must not be called
// while the engine is executing o.
func (e *Engine) SetHandler(o op.Opcode, h Handler) {
	e.table[o] = h
}

// GasConsumed returns the gas charged so far.
func (e *Engine) GasConsumed() int64 { return e.gasConsumed }

// GasLeft returns the remaining gas, or -1 when unbounded.
func (e *Engine) GasLeft() int64 {
	if e.gasLimit <= 0 {
		return -1
	}
	return e.gasLimit - e.gasConsumed
}

// AddGas charges gas. Nothing is charged when the limit would be
// exceeded.
func (e *Engine) AddGas(gas int64) error {
	if gas < 0 {
		return errors.WithDetailf(ErrInvalidOperand, "negative gas %d", gas)
	}
	total, ok := checked.AddInt64(e.gasConsumed, gas)
	if !ok || (e.gasLimit > 0 && total > e.gasLimit) {
		return errors.WithDetailf(ErrInsufficientGas, "need %d, have %d", gas, e.GasLeft())
	}
	e.gasConsumed = total
	return nil
}

// chargeBytes charges the per-byte price for n allocated bytes.
func (e *Engine) chargeBytes(n int) error {
	if e.prices.PerByte == 0 || n <= 0 {
		return nil
	}
	gas, ok := checked.MulInt64(int64(n), e.prices.PerByte)
	if !ok {
		return errors.WithDetailf(ErrInsufficientGas, "%d bytes", n)
	}
	return e.AddGas(gas)
}

// Step executes one instruction and returns the new state.
// A BREAK state is resumed.
func (e *Engine) Step() State {
	if e.state == StateBreak {
		e.state = StateNone
	}
	if e.state == StateNone {
		e.step()
		e.checkBreakPoint()
	}
	return e.state
}

// Run executes until the engine halts, faults or reaches a
// breakpoint. Cancellation of ctx faults the engine before the
// next instruction.
func (e *Engine) Run(ctx context.Context) State {
	if e.state == StateBreak {
		e.state = StateNone
	}
	for e.state == StateNone {
		if err := ctx.Err(); err != nil {
			e.setFault(errors.Sub(ErrCanceled, err), nil)
			break
		}
		e.step()
		e.checkBreakPoint()
	}
	return e.state
}

func (e *Engine) step() {
	ctx := e.CurrentContext()
	if ctx == nil {
		e.halt()
		return
	}
	var instr Instruction
	defer func() {
		if r := recover(); r != nil {
			e.setFault(errors.Wrap(ErrUnexpected, fmt.Sprint(r)), &instr)
		}
	}()

	instr, err := ctx.script.At(ctx.ip)
	if err != nil {
		e.setFault(err, &Instruction{Offset: ctx.ip})
		return
	}
	e.traceInstr(ctx, instr)
	price := e.prices.Price(instr.Opcode)
	if err := e.AddGas(price); err != nil {
		e.setFault(err, &instr)
		return
	}
	if e.observer != nil {
		e.observer.OnStep(instr.Opcode, price)
	}

	err = e.execute(instr)
	if _, unhandled := err.(*Fault); err != nil && !unhandled &&
		KindOf(err) == RuntimeFault && e.limits.CatchEngineFaults {
		err = e.throwFault(err)
	}
	if err != nil {
		e.setFault(err, &instr)
		return
	}
	if e.state == StateFault {
		return
	}
	if n := e.rc.CheckZeroReferred(); n > e.limits.MaxStackSize {
		e.setFault(errors.WithDetailf(stackitem.ErrReferenceLimit, "%d references, max %d", n, e.limits.MaxStackSize), &instr)
		return
	}
	if e.jumping {
		e.jumping = false
	} else {
		ctx.ip = instr.Next()
	}
	if len(e.istack) == 0 && e.state == StateNone {
		e.halt()
	}
}

func (e *Engine) execute(instr Instruction) error {
	h := e.table[instr.Opcode]
	if h == nil {
		return errors.WithDetailf(ErrUnknownOpcode, "%s has no handler", instr.Opcode)
	}
	return h(e, instr)
}

// Throw raises it as an in-script exception from a handler.
// The handler should return the result.
func (e *Engine) Throw(it stackitem.Item) error {
	return e.throw(it)
}

func (e *Engine) throw(it stackitem.Item) error {
	e.uncaught = it
	e.cause = nil
	return e.handleException()
}

// throwFault raises a handler error as a ByteString exception. The
// error is kept as the fault cause if nothing catches it.
func (e *Engine) throwFault(err error) error {
	e.uncaught = stackitem.NewByteString([]byte(err.Error()))
	e.cause = err
	return e.handleException()
}

// handleException unwinds to the innermost region that can take
// the pending exception. Regions whose handling is complete or in
// progress without a finally clause are discarded; contexts without
// a usable region are unloaded. When nothing catches the exception
// the engine faults with it, reporting the handler error that raised
// it if there was one.
func (e *Engine) handleException() error {
	for pop := 0; pop < len(e.istack); pop++ {
		ctx := e.istack[len(e.istack)-1-pop]
		for r := ctx.topRegion(); r != nil; r = ctx.topRegion() {
			if r.State == InFinally || (r.State == InCatch && !r.hasFinally()) {
				ctx.popRegion()
				continue
			}
			for i := 0; i < pop; i++ {
				e.unloadContext()
			}
			if r.State == InTry && r.hasCatch() {
				r.State = InCatch
				ctx.estack.Push(e.uncaught)
				ctx.ip = r.Catch
				e.uncaught = nil
				e.cause = nil
			} else {
				r.State = InFinally
				ctx.ip = r.Finally
			}
			e.jumping = true
			return nil
		}
	}
	err := e.cause
	if err == nil {
		err = ErrUnhandledException
	}
	return &Fault{
		Kind:      RuntimeFault,
		Err:       err,
		Exception: e.uncaught,
	}
}

func (e *Engine) halt() {
	e.state = StateHalt
	e.log.Debug("halt", "gas", e.gasConsumed, "results", e.results.Len())
	if e.observer != nil {
		e.observer.OnHalt(e.gasConsumed)
	}
}

func (e *Engine) setFault(err error, instr *Instruction) {
	f, ok := err.(*Fault)
	if !ok {
		f = &Fault{Kind: KindOf(err), Err: err}
	}
	if ctx := e.CurrentContext(); ctx != nil {
		f.Prog = ctx.script.Bytes()
		f.IP = ctx.ip
	}
	if instr != nil {
		f.Op = instr.Opcode
		if f.Prog == nil {
			f.IP = instr.Offset
		}
	}
	f.Depth = len(e.istack)
	e.fault = f
	e.state = StateFault
	e.log.Info("fault", "kind", f.Kind, "err", f.Err, "ip", f.IP, "op", f.Op, "depth", f.Depth)
	if e.observer != nil {
		e.observer.OnFault(f.Kind, e.gasConsumed)
	}
}

func (e *Engine) traceInstr(ctx *Context, instr Instruction) {
	if e.trace == nil {
		return
	}
	fmt.Fprintf(e.trace, "vm %d pc %d gas %d %s\n", len(e.istack), ctx.ip, e.gasConsumed, instr)
}

// Push pushes it onto the evaluation stack of the current context.
func (e *Engine) Push(it stackitem.Item) {
	e.CurrentContext().estack.Push(it)
}

// Pop pops the top item of the current evaluation stack.
func (e *Engine) Pop() (stackitem.Item, error) {
	return e.CurrentContext().estack.Pop()
}

// Peek returns the n'th item of the current evaluation stack.
func (e *Engine) Peek(n int) (stackitem.Item, error) {
	return e.CurrentContext().estack.Peek(n)
}

func (e *Engine) estack() *Stack {
	return e.CurrentContext().estack
}
