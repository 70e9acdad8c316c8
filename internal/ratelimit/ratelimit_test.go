package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowReset(t *testing.T) {
	l := New(3, time.Minute)
	t0 := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res := l.Check("1.2.3.4", t0)
		assert.True(t, res.Allowed)
	}
	res := l.Check("1.2.3.4", t0)
	assert.False(t, res.Allowed)

	// just past the window boundary the budget is fully restored
	res = l.Check("1.2.3.4", t0.Add(time.Minute+time.Millisecond))
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestMonotonicDecrement(t *testing.T) {
	const max = 10
	l := New(max, time.Minute)
	t0 := time.Now()

	for i := 1; i <= max; i++ {
		res := l.Check("client-a", t0)
		require.True(t, res.Allowed, "call %d should be allowed", i)
		assert.Equal(t, max-i, res.Remaining, "remaining after call %d", i)
	}
}

func TestSaturation(t *testing.T) {
	l := New(2, time.Minute)
	t0 := time.Now()

	l.Check("k", t0)
	l.Check("k", t0)

	// every call past the limit is denied until the window resets
	for i := 0; i < 5; i++ {
		res := l.Check("k", t0.Add(time.Duration(i)*time.Second))
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
	}
}

func TestOverLimitCallsKeepCounting(t *testing.T) {
	l := New(1, time.Minute)
	t0 := time.Now()

	l.Check("k", t0)
	denied := l.Check("k", t0)
	assert.False(t, denied.Allowed)

	// retrying while denied must not move the reset forward
	assert.Equal(t, denied.ResetAt, l.Check("k", t0.Add(30*time.Second)).ResetAt)
}

func TestKeyIsolation(t *testing.T) {
	l := New(1, time.Minute)
	t0 := time.Now()

	resA := l.Check("a", t0)
	resB := l.Check("b", t0)
	assert.True(t, resA.Allowed)
	assert.True(t, resB.Allowed)

	assert.False(t, l.Check("a", t0).Allowed)
	assert.False(t, l.Check("b", t0).Allowed)
}

func TestResetAtStableWithinWindow(t *testing.T) {
	l := New(5, 15*time.Minute)
	t0 := time.Now()

	first := l.Check("k", t0)
	second := l.Check("k", t0.Add(time.Minute))
	assert.Equal(t, first.ResetAt, second.ResetAt)
	assert.Equal(t, t0.Add(15*time.Minute), first.ResetAt)
}

func TestSweep(t *testing.T) {
	l := New(5, time.Minute)
	t0 := time.Now()

	for i := 0; i < 10; i++ {
		l.Check(fmt.Sprintf("key-%d", i), t0)
	}
	require.Equal(t, 10, l.Len())

	removed := l.Sweep(t0.Add(2 * time.Minute))
	assert.Equal(t, 10, removed)
	assert.Equal(t, 0, l.Len())
}

func TestSweepKeepsLiveRecords(t *testing.T) {
	l := New(5, time.Minute)
	t0 := time.Now()

	l.Check("old", t0)
	l.Check("fresh", t0.Add(50*time.Second))

	l.Sweep(t0.Add(70 * time.Second))
	assert.Equal(t, 1, l.Len())

	// the surviving record still carries its count
	res := l.Check("fresh", t0.Add(55*time.Second))
	assert.Equal(t, 3, res.Remaining)
}

func TestConcurrentChecksSameKey(t *testing.T) {
	const max = 100
	l := New(max, time.Minute)
	t0 := time.Now()

	var wg sync.WaitGroup
	allowed := make(chan bool, 500)

	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				allowed <- l.Check("shared", t0).Allowed
			}
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	// exactly max calls get through regardless of interleaving
	assert.Equal(t, max, count)
}
