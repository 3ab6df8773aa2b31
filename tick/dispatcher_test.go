package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherOrder(t *testing.T) {
	d := NewDispatcher(0, 0)
	var ran []string
	record := func(name string) System {
		return SystemFunc(func(float64) { ran = append(ran, name) })
	}

	late := d.Add(record("late"), 10)
	d.Add(record("early"), -1)
	d.Add(record("mid_a"), 0)
	d.Add(record("mid_b"), 0)
	assert.Equal(t, Handle(0), d.Add(nil, 0))

	d.Step(0.1)
	assert.Equal(t, []string{"early", "mid_a", "mid_b", "late"}, ran)
	assert.Equal(t, uint64(1), d.Frame())

	assert.True(t, d.Remove(late))
	assert.False(t, d.Remove(late))
	ran = nil
	d.Step(0.1)
	assert.Equal(t, []string{"early", "mid_a", "mid_b"}, ran)
}

func TestDispatcherAdvance(t *testing.T) {
	cases := []struct {
		name    string
		elapsed []time.Duration
		steps   []int
	}{
		{"exact", []time.Duration{10 * time.Millisecond}, []int{1}},
		{"accumulates", []time.Duration{6 * time.Millisecond, 6 * time.Millisecond}, []int{0, 1}},
		{"capped", []time.Duration{100 * time.Millisecond, 10 * time.Millisecond}, []int{3, 1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := NewDispatcher(10*time.Millisecond, 3)
			var dts []float64
			d.Add(SystemFunc(func(dt float64) { dts = append(dts, dt) }), 0)
			for i, e := range c.elapsed {
				assert.Equal(t, c.steps[i], d.Advance(e))
			}
			for _, dt := range dts {
				assert.InDelta(t, 0.01, dt, 1e-9)
			}
		})
	}
}

func TestDispatcherRemoveDuringStep(t *testing.T) {
	d := NewDispatcher(0, 0)
	count := 0
	var self Handle
	self = d.Add(SystemFunc(func(float64) {
		count++
		d.Remove(self)
	}), 0)
	d.Step(0)
	d.Step(0)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, d.Len())
}
