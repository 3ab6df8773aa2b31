// Package tick runs systems once per frame in a fixed order.
package tick

import (
	"sort"
	"time"
)

// System updates once per step. dt is the step length in seconds.
type System interface {
	Update(dt float64)
}

// SystemFunc adapts a function to System.
type SystemFunc func(dt float64)

func (f SystemFunc) Update(dt float64) { f(dt) }

type entry struct {
	system System
	order  int
	seq    int
}

// Dispatcher steps systems in ascending order; systems with equal order run
// in the order they were added.
type Dispatcher struct {
	entries []entry
	seq     int
	frame   uint64

	step     time.Duration
	maxSteps int
	acc      time.Duration
}

// NewDispatcher creates a dispatcher whose Advance uses a fixed step. At
// most maxSteps steps run per Advance; leftover time is dropped.
func NewDispatcher(step time.Duration, maxSteps int) *Dispatcher {
	if step <= 0 {
		step = time.Second / 60
	}
	if maxSteps <= 0 {
		maxSteps = 5
	}
	return &Dispatcher{step: step, maxSteps: maxSteps}
}

// Handle identifies an added system.
type Handle int

// Add registers system at order and returns a handle for Remove. A nil
// system is ignored and gets the zero Handle.
func (d *Dispatcher) Add(system System, order int) Handle {
	if system == nil {
		return 0
	}
	d.seq++
	n := len(d.entries)
	d.entries = append(d.entries[:n:n], entry{system: system, order: order, seq: d.seq})
	sort.SliceStable(d.entries, func(i, j int) bool {
		if d.entries[i].order != d.entries[j].order {
			return d.entries[i].order < d.entries[j].order
		}
		return d.entries[i].seq < d.entries[j].seq
	})
	return Handle(d.seq)
}

// Remove drops the system added under h and reports whether it was still
// registered.
func (d *Dispatcher) Remove(h Handle) bool {
	for i, e := range d.entries {
		if e.seq == int(h) {
			d.entries = append(d.entries[:i:i], d.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Step runs every system once with dt. Systems added or removed during the
// step take effect on the next one.
func (d *Dispatcher) Step(dt float64) {
	entries := d.entries
	for _, e := range entries {
		e.system.Update(dt)
	}
	d.frame++
}

// Advance accumulates elapsed time and runs as many fixed steps as fit. It
// returns the number of steps run.
func (d *Dispatcher) Advance(elapsed time.Duration) int {
	d.acc += elapsed
	n := 0
	for d.acc >= d.step && n < d.maxSteps {
		d.Step(d.step.Seconds())
		d.acc -= d.step
		n++
	}
	if n == d.maxSteps && d.acc >= d.step {
		d.acc = 0
	}
	return n
}

func (d *Dispatcher) Frame() uint64           { return d.frame }
func (d *Dispatcher) Len() int                { return len(d.entries) }
func (d *Dispatcher) StepSize() time.Duration { return d.step }
