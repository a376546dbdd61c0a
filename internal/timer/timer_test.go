package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresWhenDue(t *testing.T) {
	m := NewManual()
	fired := 0
	m.AfterFunc(time.Second, func() { fired++ })

	assert.Equal(t, 0, m.Advance(999*time.Millisecond))
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, m.Pending())

	assert.Equal(t, 1, m.Advance(time.Millisecond))
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_Stop(t *testing.T) {
	m := NewManual()
	fired := false
	task := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, task.Stop())
	assert.False(t, task.Stop(), "second stop reports already stopped")
	m.Advance(time.Hour)
	assert.False(t, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_StopAfterFire(t *testing.T) {
	m := NewManual()
	task := m.AfterFunc(time.Second, func() {})
	m.Advance(time.Second)
	assert.False(t, task.Stop())
}

func TestManual_ChainedTasks(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			m.AfterFunc(time.Second, tick)
		}
	}
	m.AfterFunc(time.Second, tick)

	assert.Equal(t, 3, m.Advance(3*time.Second))
	assert.Equal(t, 3, count)
	assert.Equal(t, 3*time.Second, m.Now())

	assert.Equal(t, 2, m.Advance(10*time.Second))
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_OrderByDueThenSchedule(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "late") })
	m.AfterFunc(time.Second, func() { order = append(order, "first") })
	m.AfterFunc(time.Second, func() { order = append(order, "second") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"first", "second", "late"}, order)
}

func TestReal_FiresAndStops(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
	assert.Equal(t, int32(1), fired.Load())

	stopped := Real{}.AfterFunc(time.Hour, func() { fired.Add(1) })
	require.True(t, stopped.Stop())
}
