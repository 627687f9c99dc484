// Package state holds the application-wide values the UI tree reads and
// writes: the theme flag, the modal flag and the selected reciter. Changes
// are announced to subscribers.
package state

import (
	"sort"
	"sync"
)

// Observable is a value cell that notifies subscribers when it changes.
// Subscribers run synchronously on the goroutine that called Set.
type Observable[T comparable] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]func(T)
	next  int
}

func NewObservable[T comparable](initial T) *Observable[T] {
	return &Observable[T]{value: initial, subs: make(map[int]func(T))}
}

func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set stores v and notifies subscribers in subscription order. Setting the
// current value is a no-op.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	if o.value == v {
		o.mu.Unlock()
		return
	}
	o.value = v
	fns := o.snapshotLocked()
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Update applies fn to the current value and stores the result.
func (o *Observable[T]) Update(fn func(T) T) {
	o.mu.Lock()
	v := fn(o.value)
	if v == o.value {
		o.mu.Unlock()
		return
	}
	o.value = v
	fns := o.snapshotLocked()
	o.mu.Unlock()

	for _, f := range fns {
		f(v)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observable[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.next
	o.next++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *Observable[T]) snapshotLocked() []func(T) {
	ids := make([]int, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = o.subs[id]
	}
	return fns
}

// App is created once at startup and handed to the UI root.
type App struct {
	Dark    *Observable[bool]
	Modal   *Observable[bool]
	Reciter *Observable[string]
}

func NewApp(dark bool, reciter string) *App {
	return &App{
		Dark:    NewObservable(dark),
		Modal:   NewObservable(false),
		Reciter: NewObservable(reciter),
	}
}

func (a *App) ToggleTheme() {
	a.Dark.Update(func(d bool) bool { return !d })
}

func (a *App) OpenModal()  { a.Modal.Set(true) }
func (a *App) CloseModal() { a.Modal.Set(false) }
