// Package autosave coalesces rapid writes per key into one trailing
// save: every Schedule restarts the key's timer and only the latest
// value is written once the key has been quiet for the delay.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SaveFunc persists one value.
type SaveFunc[K comparable, V any] func(ctx context.Context, key K, value V) error

type Debouncer[K comparable, V any] struct {
	delay       time.Duration
	saveTimeout time.Duration
	save        SaveFunc[K, V]
	logger      *zap.Logger

	mu       sync.Mutex
	pending  map[K]*entry[V]
	running  map[K]*flight
	stopped  bool
	inFlight sync.WaitGroup
}

// flight counts the saves currently running for one key.
type flight struct {
	n    int
	done sync.WaitGroup
}

type entry[V any] struct {
	value V
	timer *time.Timer
}

func New[K comparable, V any](delay time.Duration, save SaveFunc[K, V], logger *zap.Logger) *Debouncer[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer[K, V]{
		delay:       delay,
		saveTimeout: 5 * time.Second,
		save:        save,
		logger:      logger,
		pending:     make(map[K]*entry[V]),
		running:     make(map[K]*flight),
	}
}

// Schedule replaces key's pending value and restarts its timer. It
// returns false once the debouncer has been stopped.
func (d *Debouncer[K, V]) Schedule(key K, value V) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	if e, ok := d.pending[key]; ok && e.timer.Stop() {
		e.value = value
		e.timer.Reset(d.delay)
		return true
	}

	// Either nothing is pending or the old timer already fired; in the
	// latter case the firing callback sees it was replaced and backs off.
	e := &entry[V]{value: value}
	e.timer = time.AfterFunc(d.delay, func() { d.fire(key, e) })
	d.pending[key] = e
	return true
}

func (d *Debouncer[K, V]) fire(key K, e *entry[V]) {
	d.mu.Lock()
	if d.pending[key] != e {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	value := e.value
	f := d.running[key]
	if f == nil {
		f = &flight{}
		d.running[key] = f
	}
	f.n++
	f.done.Add(1)
	d.inFlight.Add(1)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if f.n--; f.n == 0 {
			delete(d.running, key)
		}
		d.mu.Unlock()
		f.done.Done()
		d.inFlight.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.saveTimeout)
	defer cancel()
	if err := d.save(ctx, key, value); err != nil {
		d.logger.Warn("autosave failed", zap.Any("key", key), zap.Error(err))
	}
}

// Pending reports how many keys are waiting for their timer.
func (d *Debouncer[K, V]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Cancel drops key's pending value without saving it and waits for
// any save of key that is already running. Once it returns, no earlier
// value of key can still be written.
func (d *Debouncer[K, V]) Cancel(key K) {
	d.mu.Lock()
	if e, ok := d.pending[key]; ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
	f := d.running[key]
	d.mu.Unlock()

	if f != nil {
		f.done.Wait()
	}
}

// Flush saves every pending value now, in the caller's goroutine.
func (d *Debouncer[K, V]) Flush(ctx context.Context) error {
	d.mu.Lock()
	batch := d.pending
	d.pending = make(map[K]*entry[V])
	for _, e := range batch {
		e.timer.Stop()
	}
	d.mu.Unlock()

	var errs []error
	for key, e := range batch {
		if err := d.save(ctx, key, e.value); err != nil {
			errs = append(errs, fmt.Errorf("flush %v: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Stop refuses new values, flushes what is pending and waits for saves
// already running.
func (d *Debouncer[K, V]) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	err := d.Flush(ctx)
	d.inFlight.Wait()
	return err
}
