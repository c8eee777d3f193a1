package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestLastTriggerWins(t *testing.T) {
	rec := &recorder{}
	d := New(30*time.Millisecond, rec.record)

	d.Trigger("y")
	d.Trigger("yo")
	d.Trigger("yoga")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"yoga"}, rec.snapshot())
	assert.False(t, d.Pending())
}

func TestSeparateQuietPeriodsFireSeparately(t *testing.T) {
	rec := &recorder{}
	d := New(10*time.Millisecond, rec.record)

	d.Trigger("a")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 2*time.Millisecond)
	d.Trigger("b")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, rec.snapshot())
}

func TestFlushDeliversImmediately(t *testing.T) {
	rec := &recorder{}
	d := New(time.Hour, rec.record)

	assert.False(t, d.Flush())
	d.Trigger("now")
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"now"}, rec.snapshot())
	assert.False(t, d.Pending())
}

func TestCancelAndStop(t *testing.T) {
	rec := &recorder{}
	d := New(10*time.Millisecond, rec.record)

	d.Trigger("dropped")
	d.Cancel()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	d.Trigger("pending")
	d.Stop()
	d.Trigger("ignored")
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
	assert.False(t, d.Pending())
	assert.False(t, d.Flush())
}
