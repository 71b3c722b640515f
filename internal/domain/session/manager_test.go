package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

func TestCreateSession(t *testing.T) {
	m := NewManager()

	sid, err := m.CreateSession("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sid, "sess_"), sid)

	fs, ok := m.GetFilesystem(sid)
	require.True(t, ok)
	assert.Equal(t, "/workspace", fs.RootPath())
	assert.True(t, fs.IsDir("/workspace"))
}

func TestCreateSessionWithID(t *testing.T) {
	m := NewManager()

	sid, err := m.CreateSession("custom-id")
	require.NoError(t, err)
	assert.Equal(t, "custom-id", sid)

	_, err = m.CreateSession("custom-id")
	assert.ErrorIs(t, err, ErrSessionExists)
}

func TestCustomRoot(t *testing.T) {
	m := NewManager(WithRoot("/custom"))
	sid, err := m.CreateSession("")
	require.NoError(t, err)

	fs, ok := m.GetFilesystem(sid)
	require.True(t, ok)
	assert.Equal(t, "/custom", fs.RootPath())
	assert.Equal(t, "/custom", m.Root())
}

func TestGetFilesystemMissing(t *testing.T) {
	m := NewManager()
	fs, ok := m.GetFilesystem("nope")
	assert.False(t, ok)
	assert.Nil(t, fs)
}

func TestSessionIsolation(t *testing.T) {
	m := NewManager()
	a, err := m.CreateSession("a")
	require.NoError(t, err)
	b, err := m.CreateSession("b")
	require.NoError(t, err)

	fsA, _ := m.GetFilesystem(a)
	fsB, _ := m.GetFilesystem(b)

	require.NoError(t, fsA.WriteText("/workspace/test.txt", "only in a"))
	assert.True(t, fsA.Exists("/workspace/test.txt"))
	assert.False(t, fsB.Exists("/workspace/test.txt"))
}

func TestGetSessionTouches(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(WithClock(clock.Now))

	sid, err := m.CreateSession("")
	require.NoError(t, err)
	created := clock.Now()

	clock.Advance(time.Minute)
	info, ok := m.GetSession(sid)
	require.True(t, ok)
	assert.Equal(t, sid, info.ID)
	assert.Equal(t, created, info.CreatedAt)
	assert.Equal(t, created.Add(time.Minute), info.LastAccessed)

	// A clock step backward never rewinds LastAccessed.
	clock.Set(created)
	info, ok = m.GetSession(sid)
	require.True(t, ok)
	assert.Equal(t, created.Add(time.Minute), info.LastAccessed)

	_, ok = m.GetSession("missing")
	assert.False(t, ok)
}

func TestGetOrCreateSession(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(WithClock(clock.Now))

	assert.Equal(t, "abc", m.GetOrCreateSession("abc"))
	assert.Equal(t, 1, m.Count())
	fs1, _ := m.GetFilesystem("abc")

	clock.Advance(time.Second)
	assert.Equal(t, "abc", m.GetOrCreateSession("abc"))
	assert.Equal(t, 1, m.Count())
	fs2, _ := m.GetFilesystem("abc")
	assert.Same(t, fs1, fs2)

	info, _ := m.GetSession("abc")
	assert.Equal(t, clock.Now(), info.LastAccessed)

	generated := m.GetOrCreateSession("")
	assert.True(t, strings.HasPrefix(generated, "sess_"))
	assert.Equal(t, 2, m.Count())
}

func TestDeleteSession(t *testing.T) {
	m := NewManager()
	sid, err := m.CreateSession("")
	require.NoError(t, err)

	var released []string
	m.OnDelete(func(id string) { released = append(released, id) })

	m.DeleteSession(sid)
	_, ok := m.GetFilesystem(sid)
	assert.False(t, ok)
	assert.Equal(t, []string{sid}, released)

	// Absent sessions are a no-op and do not fire hooks.
	m.DeleteSession(sid)
	assert.Len(t, released, 1)

	stats := m.Stats()
	assert.EqualValues(t, 1, stats.Created)
	assert.EqualValues(t, 1, stats.Deleted)
	assert.Zero(t, stats.Active)
}

func TestGetThreadID(t *testing.T) {
	m := NewManager()
	a, _ := m.CreateSession("a")
	b, _ := m.CreateSession("b")

	ta, ok := m.GetThreadID(a)
	require.True(t, ok)
	assert.NotEmpty(t, ta)

	tb, _ := m.GetThreadID(b)
	assert.NotEqual(t, ta, tb)

	_, ok = m.GetThreadID("missing")
	assert.False(t, ok)
}

func TestListOrderedByCreation(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(WithClock(clock.Now))

	for _, sid := range []string{"z", "y", "x"} {
		_, err := m.CreateSession(sid)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, "z", list[0].ID)
	assert.Equal(t, "y", list[1].ID)
	assert.Equal(t, "x", list[2].ID)
	assert.True(t, m.Exists("y"))
	assert.False(t, m.Exists("w"))
}

func TestConcurrentSessionCreation(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for _, prefix := range []string{"thread-a", "thread-b"} {
		wg.Add(1)
		go func(prefix string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := m.CreateSession(fmt.Sprintf("%s-%d", prefix, i))
				assert.NoError(t, err)
			}
		}(prefix)
	}
	wg.Wait()

	assert.Equal(t, 20, m.Count())
	for _, prefix := range []string{"thread-a", "thread-b"} {
		for i := 0; i < 10; i++ {
			_, ok := m.GetFilesystem(fmt.Sprintf("%s-%d", prefix, i))
			assert.True(t, ok)
		}
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				sid := m.GetOrCreateSession(fmt.Sprintf("w%d-%d", w, i))
				m.GetSession(sid)
				if i%2 == 0 {
					m.DeleteSession(sid)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 25, m.Count())
}

func TestReapIdle(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(WithClock(clock.Now))

	var released []string
	var mu sync.Mutex
	m.OnDelete(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		released = append(released, id)
	})

	_, _ = m.CreateSession("old")
	clock.Advance(10 * time.Minute)
	_, _ = m.CreateSession("fresh")

	assert.Nil(t, m.ReapIdle(0))

	reaped := m.ReapIdle(5 * time.Minute)
	assert.Equal(t, []string{"old"}, reaped)
	assert.False(t, m.Exists("old"))
	assert.True(t, m.Exists("fresh"))
	assert.Equal(t, []string{"old"}, released)
	assert.EqualValues(t, 1, m.Stats().Reaped)
}

func TestRunReaperStopsOnCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.RunReaper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}

	// Disabled reaper returns immediately.
	m.RunReaper(context.Background(), 0, time.Hour)
}

func TestDefaultManager(t *testing.T) {
	assert.Same(t, Default(), Default())
}
