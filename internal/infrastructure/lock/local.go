package lock

import (
	"context"
	"sort"
	"sync"

	"github.com/99minutos/bank-teller/internal/core/ports"
)

// slot is the mutex of one account id. refs counts holders and waiters; the
// slot is dropped from the table when it reaches zero.
type slot struct {
	ch   chan struct{}
	refs int
}

// Local hands out one mutex per account id within a single process. Each
// mutex is a one-slot channel so waiting can be abandoned when ctx is done.
// Only ids that are held or awaited occupy memory.
type Local struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

func NewLocal() *Local {
	return &Local{slots: make(map[int64]*slot)}
}

var _ ports.AccountLocker = (*Local)(nil)

// Lock acquires ids in ascending order. If ctx ends while waiting, the ids
// already held are released and ctx.Err() is returned.
func (l *Local) Lock(ctx context.Context, ids ...int64) (func(), error) {
	ordered := Order(ids)
	held := make([]int64, 0, len(ordered))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.leave(held[i], true)
		}
	}

	for _, id := range ordered {
		s := l.enter(id)
		select {
		case s.ch <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.leave(id, false)
			release()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *Local) enter(id int64) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	return s
}

// leave gives up a reference to id, unlocking it first when it was held.
func (l *Local) leave(id int64, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	if held {
		<-s.ch
	}
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

// size reports how many ids currently have a slot.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// Order returns ids sorted ascending without duplicates. Every locker takes
// accounts in this order so two transfers in opposite directions cannot
// deadlock.
func Order(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
