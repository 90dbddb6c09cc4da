package table

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vctt94/pokertable/pkg/game"
)

// SeatRegistry tracks the avatars attached to each identity. Avatars of
// an identity are kept in insertion order without duplicates.
type SeatRegistry struct {
	avatars map[game.Serial][]Avatar
	order   []game.Serial
}

func NewSeatRegistry() *SeatRegistry {
	return &SeatRegistry{avatars: make(map[game.Serial][]Avatar)}
}

// Add attaches a. It reports false when a was already attached.
func (r *SeatRegistry) Add(a Avatar) bool {
	serial := a.Serial()
	list, ok := r.avatars[serial]
	if slices.Contains(list, a) {
		return false
	}
	if !ok {
		r.order = append(r.order, serial)
	}
	r.avatars[serial] = append(list, a)
	return true
}

// Remove detaches a. Removing an avatar that is not attached is a
// programming error.
func (r *SeatRegistry) Remove(a Avatar) {
	serial := a.Serial()
	list := r.avatars[serial]
	i := slices.Index(list, a)
	if i < 0 {
		panic(fmt.Sprintf("table: avatar of %d is not in the registry", serial))
	}
	list = slices.Delete(list, i, i+1)
	if len(list) > 0 {
		r.avatars[serial] = list
		return
	}
	delete(r.avatars, serial)
	r.order = slices.DeleteFunc(r.order, func(s game.Serial) bool { return s == serial })
}

// Get returns the avatars of serial in insertion order.
func (r *SeatRegistry) Get(serial game.Serial) []Avatar {
	return slices.Clone(r.avatars[serial])
}

func (r *SeatRegistry) Has(a Avatar) bool {
	return slices.Contains(r.avatars[a.Serial()], a)
}

func (r *SeatRegistry) HasSerial(serial game.Serial) bool {
	return len(r.avatars[serial]) > 0
}

func (r *SeatRegistry) IsEmpty() bool {
	return len(r.avatars) == 0
}

// Serials returns the identities in the order they first attached.
func (r *SeatRegistry) Serials() []game.Serial {
	return slices.Clone(r.order)
}

// All returns every avatar, grouped by identity.
func (r *SeatRegistry) All() []Avatar {
	var out []Avatar
	for _, serial := range r.order {
		out = append(out, r.avatars[serial]...)
	}
	return out
}

// JoinedCounter counts the identities joined to any table of a server.
// It is safe for concurrent use.
type JoinedCounter struct {
	mtx   sync.Mutex
	count int
	max   int
}

func NewJoinedCounter(max int) *JoinedCounter {
	return &JoinedCounter{max: max}
}

func (c *JoinedCounter) JoinedCountReachedMax() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.max > 0 && c.count >= c.max
}

func (c *JoinedCounter) JoinedCountIncrease() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.count++
	return c.count
}

func (c *JoinedCounter) JoinedCountDecrease() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.count > 0 {
		c.count--
	}
	return c.count
}

func (c *JoinedCounter) JoinedCount() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.count
}

func (c *JoinedCounter) SetJoinedMax(max int) {
	c.mtx.Lock()
	c.max = max
	c.mtx.Unlock()
}
