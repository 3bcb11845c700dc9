package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/euicc/internal/store"
)

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.MemStore, *testClock) {
	t.Helper()
	st := store.NewMemStore()
	clock := newTestClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(st, opts...), st, clock
}

func mustCreateProfile(t *testing.T, svc *Service, name, iccid string) *Profile {
	t.Helper()
	p, err := svc.CreateProfile(context.Background(), ProfileInput{Name: name, ICCID: iccid})
	require.NoError(t, err)
	return p
}

func ptr(s string) *string { return &s }

func iccidN(n int) string { return fmt.Sprintf("89911012000032%05d", n) }
