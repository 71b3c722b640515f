package id

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIDs(t *testing.T) {
	for prefix, got := range map[string]string{
		SessionPrefix:   NewSessionID().String(),
		RequestPrefix:   NewRequestID().String(),
		ExecutionPrefix: NewExecutionID().String(),
	} {
		require.True(t, strings.HasPrefix(got, prefix+"_"), got)
		assert.Len(t, got, len(prefix)+1+26)

		p, _, err := Split(got)
		require.NoError(t, err)
		assert.Equal(t, prefix, p)
	}
}

func TestSplit(t *testing.T) {
	p, u, err := Split("sess_01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	assert.Equal(t, "sess", p)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", u.String())

	p, _, err = Split("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	assert.Empty(t, p)

	for _, bad := range []string{"", "plain", "sess_", "sess_not-a-ulid", "_01ARZ3NDEKTSV4RRFFQ69G5FAV"} {
		assert.False(t, Valid(bad), bad)
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Time(NewSessionID().String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Time("nope")
	assert.Error(t, err)
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	gen := NewGenerator(nil)
	fixed := time.UnixMilli(1_700_000_000_000)
	gen.now = func() time.Time { return fixed }

	ids := make([]string, 200)
	for i := range ids {
		ids[i] = gen.Prefixed(SessionPrefix)
	}
	assert.True(t, sort.StringsAreSorted(ids))

	ts, err := Time(ids[0])
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixed))
}

func TestDeterministicEntropy(t *testing.T) {
	gen := NewGenerator(bytes.NewReader(make([]byte, 1024)))
	assert.True(t, Valid(gen.ULID().String()))
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator(nil)
	const workers, perWorker = 10, 100

	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := gen.Prefixed(ExecutionPrefix)
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestDefaultGenerator(t *testing.T) {
	assert.Same(t, Default(), Default())
}
