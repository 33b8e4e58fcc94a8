package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	l := newClientLimiter(60)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.limiterFor("10.0.0.1")
	l.limiterFor("10.0.0.2")
	require.Len(t, l.clients, 2)

	// Both go idle past the TTL; the next new client sweeps them out.
	now = now.Add(limiterTTL + time.Minute)
	l.limiterFor("10.0.0.3")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.clients, 1)
	_, ok := l.clients["10.0.0.3"]
	assert.True(t, ok)
}

func TestClientLimiterKeepsActiveClients(t *testing.T) {
	l := newClientLimiter(60)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.limiterFor("10.0.0.1")

	// Activity refreshes the idle timer.
	now = now.Add(limiterTTL / 2)
	l.limiterFor("10.0.0.1")
	now = now.Add(limiterTTL/2 + time.Minute)
	l.limiterFor("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.clients, 2)
}

func TestClientLimiterSameLimiterPerClient(t *testing.T) {
	l := newClientLimiter(60)
	assert.Same(t, l.limiterFor("10.0.0.1"), l.limiterFor("10.0.0.1"))
	assert.NotSame(t, l.limiterFor("10.0.0.1"), l.limiterFor("10.0.0.2"))
}
