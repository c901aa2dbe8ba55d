package revision

import (
	"sync"
	"time"
)

// DefaultAutoSaveDelay is the debounce delay when none is configured.
const DefaultAutoSaveDelay = 2 * time.Second

// SaveFunc receives the last-saved text and the text being saved.
type SaveFunc func(old, new string)

// AutoSaver debounces document mutations. At most one timer is armed at a
// time; every Touch replaces it. When the timer fires and the pending text
// differs from the last-saved text, onSave runs on the timer goroutine.
type AutoSaver struct {
	mu      sync.Mutex
	delay   time.Duration
	saved   string
	pending string
	dirty   bool
	gen     uint64
	timer   *time.Timer
	stopped bool
	onSave  SaveFunc
}

// NewAutoSaver starts from saved as the last-saved text.
func NewAutoSaver(saved string, delay time.Duration, onSave SaveFunc) *AutoSaver {
	if delay <= 0 {
		delay = DefaultAutoSaveDelay
	}
	return &AutoSaver{delay: delay, saved: saved, onSave: onSave}
}

// Touch records text as the latest content and re-arms the timer.
func (a *AutoSaver) Touch(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = text
	a.dirty = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	// A timer superseded by a later Touch may still run if Stop lost the race.
	if gen != a.gen || !a.dirty || a.stopped {
		a.mu.Unlock()
		return
	}
	old, text, changed := a.take()
	a.mu.Unlock()

	if changed && a.onSave != nil {
		a.onSave(old, text)
	}
}

// Flush disarms the timer and returns the pending save without invoking
// onSave. ok is false when nothing differs from the last-saved text.
func (a *AutoSaver) Flush() (old, text string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarm()
	if !a.dirty {
		return "", "", false
	}
	return a.take()
}

// take consumes the pending text. Callers hold mu.
func (a *AutoSaver) take() (old, text string, changed bool) {
	a.dirty = false
	a.timer = nil
	if a.pending == a.saved {
		return "", "", false
	}
	old = a.saved
	a.saved = a.pending
	return old, a.pending, true
}

// MarkSaved replaces the last-saved text and drops any pending mutation.
func (a *AutoSaver) MarkSaved(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarm()
	a.saved = text
	a.pending = text
	a.dirty = false
}

// Pending reports whether a timer is armed.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Stop disarms the timer. Later Touch calls are ignored.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarm()
	a.dirty = false
	a.stopped = true
}

func (a *AutoSaver) disarm() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
