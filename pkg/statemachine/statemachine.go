package statemachine

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// StateFn represents a state function following Rob Pike's pattern
type StateFn[T any] func(*T) StateFn[T]

// StateMachine drives an entity through state functions. Each Dispatch
// runs the current state once and moves to the state it returns.
type StateMachine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	steps   uint64
	mutex   sync.RWMutex
}

// NewStateMachine creates a new state machine for the given entity
func NewStateMachine[T any](entity *T, initialStateFn StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initialStateFn,
	}
}

// Dispatch runs one transition. When stateFn is non-nil it replaces the
// current state before running. Dispatching a terminated machine (nil
// state) is a no-op.
func (sm *StateMachine[T]) Dispatch(stateFn StateFn[T]) {
	sm.mutex.Lock()
	if stateFn != nil {
		sm.stateFn = stateFn
	}
	current := sm.stateFn
	sm.mutex.Unlock()

	if current == nil {
		return
	}

	next := current(sm.entity)

	sm.mutex.Lock()
	sm.stateFn = next
	sm.steps++
	sm.mutex.Unlock()
}

// GetCurrentState returns the current state function (thread-safe)
func (sm *StateMachine[T]) GetCurrentState() StateFn[T] {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.stateFn
}

// SetState sets the state function without running it
func (sm *StateMachine[T]) SetState(stateFn StateFn[T]) {
	sm.mutex.Lock()
	sm.stateFn = stateFn
	sm.mutex.Unlock()
}

// Is reports whether the machine currently sits in state.
func (sm *StateMachine[T]) Is(state StateFn[T]) bool {
	return SameState(sm.GetCurrentState(), state)
}

// Steps returns how many transitions ran.
func (sm *StateMachine[T]) Steps() uint64 {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.steps
}

// SameState compares two state functions by code pointer.
func SameState[T any](a, b StateFn[T]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// StateName returns the unqualified function name of state, or
// "TERMINATED" for nil.
func StateName[T any](state StateFn[T]) string {
	if state == nil {
		return "TERMINATED"
	}
	fn := runtime.FuncForPC(reflect.ValueOf(state).Pointer())
	if fn == nil {
		return "UNKNOWN"
	}
	name := fn.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
