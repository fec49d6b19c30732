package vm

// AddBreakPoint stops Run and the step helpers before the
// instruction at ip of s executes.
func (e *Engine) AddBreakPoint(s *Script, ip int) {
	if e.breakpoints == nil {
		e.breakpoints = make(map[*Script]map[int]bool)
	}
	if e.breakpoints[s] == nil {
		e.breakpoints[s] = make(map[int]bool)
	}
	e.breakpoints[s][ip] = true
}

// RemoveBreakPoint removes a breakpoint added by AddBreakPoint and
// reports whether it existed.
func (e *Engine) RemoveBreakPoint(s *Script, ip int) bool {
	bp := e.breakpoints[s]
	if !bp[ip] {
		return false
	}
	delete(bp, ip)
	if len(bp) == 0 {
		delete(e.breakpoints, s)
	}
	return true
}

// Break requests a stop. A running Run returns BREAK before the
// next instruction, once the current one completes.
func (e *Engine) Break() {
	if e.state == StateNone {
		e.state = StateBreak
	}
}

func (e *Engine) checkBreakPoint() {
	if e.state != StateNone || len(e.breakpoints) == 0 {
		return
	}
	ctx := e.CurrentContext()
	if ctx != nil && e.breakpoints[ctx.script][ctx.ip] {
		e.state = StateBreak
	}
}

// StepInto executes one instruction, entering calls.
func (e *Engine) StepInto() State {
	if e.state == StateHalt || e.state == StateFault {
		return e.state
	}
	e.state = StateNone
	e.step()
	if e.state == StateNone {
		e.state = StateBreak
	}
	return e.state
}

// StepOver executes one instruction, running any call it makes
// to completion. Breakpoints inside the call still stop it.
func (e *Engine) StepOver() State {
	return e.stepWhile(func(depth, start int) bool { return depth > start })
}

// StepOut runs until the current context returns.
func (e *Engine) StepOut() State {
	return e.stepWhile(func(depth, start int) bool { return depth >= start })
}

func (e *Engine) stepWhile(more func(depth, start int) bool) State {
	if e.state == StateHalt || e.state == StateFault {
		return e.state
	}
	e.state = StateNone
	start := len(e.istack)
	for {
		e.step()
		e.checkBreakPoint()
		if e.state != StateNone || !more(len(e.istack), start) {
			break
		}
	}
	if e.state == StateNone {
		e.state = StateBreak
	}
	return e.state
}
