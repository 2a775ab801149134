package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type timerKind int

const (
	timerNone timerKind = iota
	timerTicker
	timerTransition
)

// roomActor serializes every operation on one room. Everything below inbox is
// touched only from the actor goroutine.
type roomActor struct {
	id    string
	inbox chan func()

	// queued is guarded by registry.mu
	queued int

	retiring  bool
	timerGen  uint64
	timerKind timerKind
	stopTimer func()
	fire      func()
}

func (a *roomActor) loop(reg *registry, log zerolog.Logger) {
	for task := range a.inbox {
		a.run(task, log)
		if reg.finish(a) {
			return
		}
	}
}

func (a *roomActor) run(task func(), log zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("room", a.id).Interface("panic", r).Msg("room task panicked")
		}
	}()
	task()
}

// cancelTimer stops whatever occupies the schedule slot. Bumping the
// generation makes ticks already sitting in the inbox no-ops.
func (a *roomActor) cancelTimer() {
	a.timerGen++
	if a.stopTimer != nil {
		a.stopTimer()
	}
	a.stopTimer = nil
	a.fire = nil
	a.timerKind = timerNone
}

// registry maps live room ids to their actors. An actor leaves the map once
// its room is gone and no submitted task is left for it.
type registry struct {
	mu     sync.Mutex
	actors map[string]*roomActor
	log    zerolog.Logger
}

func newRegistry(log zerolog.Logger) *registry {
	return &registry{actors: make(map[string]*roomActor), log: log}
}

// acquire returns the actor of roomID, starting one if needed, and reserves a
// slot for one task. The caller must send exactly one task to its inbox.
func (r *registry) acquire(roomID string) *roomActor {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.actors[roomID]
	if !ok {
		a = &roomActor{id: roomID, inbox: make(chan func(), 64)}
		r.actors[roomID] = a
		go a.loop(r, r.log)
	}
	a.queued++
	return a
}

// acquireExisting reserves a slot on a only if it is still the live actor of
// its room. Timers use it so they never resurrect a retired room.
func (r *registry) acquireExisting(a *roomActor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.actors[a.id] != a {
		return false
	}
	a.queued++
	return true
}

func (r *registry) finish(a *roomActor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.queued--
	if a.retiring && a.queued == 0 {
		delete(r.actors, a.id)
		return true
	}
	return false
}

func (r *registry) live() []*roomActor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*roomActor, 0, len(r.actors))
	for _, a := range r.actors {
		out = append(out, a)
	}
	return out
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

func (e *Engine) armTicker(a *roomActor, fire func()) {
	a.cancelTimer()
	gen := a.timerGen
	t := e.clock.NewTicker(time.Second)
	quit := make(chan struct{})

	a.timerKind = timerTicker
	a.fire = fire
	a.stopTimer = func() { close(quit) }

	go func() {
		defer t.Stop()
		for {
			select {
			case <-quit:
				return
			case <-t.C():
				if !e.post(a, gen, fire) {
					return
				}
			}
		}
	}()
}

func (e *Engine) armTransition(a *roomActor, fire func()) {
	a.cancelTimer()
	gen := a.timerGen

	s := e.clock.AfterFunc(e.cfg.TransitionDelay, func() {
		e.post(a, gen, fire)
	})

	a.timerKind = timerTransition
	a.fire = fire
	a.stopTimer = func() { s.Stop() }
}

// post queues fire on the actor unless the actor retired. fire is skipped when
// the slot was re-armed or cancelled after gen was taken.
func (e *Engine) post(a *roomActor, gen uint64, fire func()) bool {
	if !e.rooms.acquireExisting(a) {
		return false
	}
	a.inbox <- func() {
		if a.timerGen == gen {
			fire()
		}
	}
	return true
}
