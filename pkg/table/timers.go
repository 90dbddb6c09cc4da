package table

import (
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/pokertable/pkg/clock"
	"github.com/vctt94/pokertable/pkg/statemachine"
)

// Named timers of a table.
const (
	TimerDeal          = "dealTimeout"
	TimerPlayerWarning = "playerWarningTimer"
	TimerPlayerTimeout = "playerTimeoutTimer"
	TimerMuck          = "muckTimeout"
)

type slotInput int

const (
	inputSchedule slotInput = iota
	inputCancel
	inputFire
	inputSettle
)

// timerSlot is the single schedule of one timer name. Its lifecycle is
// idle -> scheduled -> fired|canceled -> idle.
type timerSlot struct {
	name     string
	svc      *TimerService
	gen      uint64
	timer    clock.Timer
	callback func()

	input   slotInput
	delay   time.Duration
	nextCb  func()
	machine *statemachine.StateMachine[timerSlot]
}

type slotStateFn = statemachine.StateFn[timerSlot]

func slotIdle(s *timerSlot) slotStateFn {
	if s.input == inputSchedule {
		s.arm()
		return slotScheduled
	}
	return slotIdle
}

func slotScheduled(s *timerSlot) slotStateFn {
	switch s.input {
	case inputSchedule:
		s.disarm()
		s.arm()
		return slotScheduled
	case inputCancel:
		s.disarm()
		return slotCanceled
	case inputFire:
		s.timer = nil
		return slotFired
	}
	return slotScheduled
}

func slotFired(s *timerSlot) slotStateFn {
	if s.input == inputSchedule {
		s.arm()
		return slotScheduled
	}
	return slotIdle
}

func slotCanceled(s *timerSlot) slotStateFn {
	if s.input == inputSchedule {
		s.arm()
		return slotScheduled
	}
	return slotIdle
}

func (s *timerSlot) arm() {
	s.gen++
	gen := s.gen
	s.callback = s.nextCb
	s.timer = s.svc.clock.AfterFunc(s.delay, func() {
		s.svc.post(func() { s.svc.fire(s, gen) })
	})
}

func (s *timerSlot) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.callback = nil
}

func (s *timerSlot) dispatch(in slotInput) {
	s.input = in
	s.machine.Dispatch(nil)
}

// TimerService holds the named single-slot timers of one table plus its
// liveness watchdog. Callbacks run through post on the goroutine that
// owns the table.
type TimerService struct {
	clock  clock.Clock
	post   func(func())
	log    slog.Logger
	slots  map[string]*timerSlot
	closed bool

	watchdog      clock.Timer
	watchdogState int
	watchdogGen   uint64
}

const (
	watchdogIdle = iota
	watchdogRunning
	watchdogStopped
)

func NewTimerService(clk clock.Clock, post func(func()), log slog.Logger) *TimerService {
	if post == nil {
		post = func(f func()) { f() }
	}
	if log == nil {
		log = slog.Disabled
	}
	return &TimerService{
		clock: clk,
		post:  post,
		log:   log,
		slots: make(map[string]*timerSlot),
	}
}

func (ts *TimerService) slot(name string) *timerSlot {
	s, ok := ts.slots[name]
	if !ok {
		s = &timerSlot{name: name, svc: ts}
		s.machine = statemachine.NewStateMachine(s, slotIdle)
		ts.slots[name] = s
	}
	return s
}

// Schedule arms name to run cb after delay, superseding any pending
// schedule under the same name.
func (ts *TimerService) Schedule(name string, delay time.Duration, cb func()) {
	if ts.closed {
		ts.log.Debugf("Ignoring schedule of %s on closed timers", name)
		return
	}
	s := ts.slot(name)
	s.delay, s.nextCb = delay, cb
	s.dispatch(inputSchedule)
	s.nextCb = nil
}

// Cancel drops the pending schedule of name, if any.
func (ts *TimerService) Cancel(name string) {
	s, ok := ts.slots[name]
	if !ok || !s.machine.Is(slotScheduled) {
		return
	}
	s.dispatch(inputCancel)
	s.dispatch(inputSettle)
}

// Active reports whether name has a pending schedule.
func (ts *TimerService) Active(name string) bool {
	s, ok := ts.slots[name]
	return ok && s.machine.Is(slotScheduled)
}

// State returns the lifecycle state name of the timer.
func (ts *TimerService) State(name string) string {
	s, ok := ts.slots[name]
	if !ok {
		return statemachine.StateName[timerSlot](slotIdle)
	}
	return statemachine.StateName(s.machine.GetCurrentState())
}

func (ts *TimerService) fire(s *timerSlot, gen uint64) {
	if ts.closed || gen != s.gen || !s.machine.Is(slotScheduled) {
		ts.log.Tracef("Ignoring stale fire of %s", s.name)
		return
	}
	cb := s.callback
	s.dispatch(inputFire)
	if cb != nil {
		cb()
	}
	if s.machine.Is(slotFired) {
		s.dispatch(inputSettle)
	}
}

// CancelAll cancels every named timer.
func (ts *TimerService) CancelAll() {
	for name := range ts.slots {
		ts.Cancel(name)
	}
}

// StartWatchdog runs check every interval until StopWatchdog. Only the
// first call has an effect.
func (ts *TimerService) StartWatchdog(interval time.Duration, check func()) {
	if ts.watchdogState != watchdogIdle {
		ts.log.Warnf("Watchdog already started")
		return
	}
	ts.watchdogState = watchdogRunning
	var tick func()
	tick = func() {
		gen := ts.watchdogGen
		ts.watchdog = ts.clock.AfterFunc(interval, func() {
			ts.post(func() {
				if ts.watchdogState != watchdogRunning || gen != ts.watchdogGen {
					return
				}
				check()
				ts.watchdogGen++
				tick()
			})
		})
	}
	tick()
}

// StopWatchdog stops the watchdog for good.
func (ts *TimerService) StopWatchdog() {
	if ts.watchdogState != watchdogRunning {
		return
	}
	ts.watchdogState = watchdogStopped
	ts.watchdogGen++
	if ts.watchdog != nil {
		ts.watchdog.Stop()
		ts.watchdog = nil
	}
}

func (ts *TimerService) WatchdogRunning() bool {
	return ts.watchdogState == watchdogRunning
}

// Close cancels everything and ignores later schedules and fires.
func (ts *TimerService) Close() {
	ts.CancelAll()
	ts.StopWatchdog()
	ts.closed = true
}
