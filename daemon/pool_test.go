package daemon

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	log "gopkg.in/src-d/go-log.v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPoolRunsEachConnectionOnce(t *testing.T) {
	var handled int32
	pool := NewSessionPool(func(logger log.Logger, conn net.Conn) error {
		atomic.AddInt32(&handled, 1)
		return conn.Close()
	})
	pool.SetWorkerCount(2)
	require.Equal(t, 2, pool.Len())

	for i := 0; i < 5; i++ {
		client, server := net.Pipe()
		pool.Do(server)
		client.Close()
	}

	require.NoError(t, pool.Close())
	assert.EqualValues(t, 5, atomic.LoadInt32(&handled))
}

func TestSessionPoolSetWorkerCountShrinks(t *testing.T) {
	pool := NewSessionPool(func(logger log.Logger, conn net.Conn) error {
		return conn.Close()
	})
	pool.SetWorkerCount(4)
	require.Equal(t, 4, pool.Len())

	pool.SetWorkerCount(1)
	assert.Equal(t, 1, pool.Len())

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.Len())
}

func TestSessionPoolHandlerErrorDoesNotBlockFurtherSessions(t *testing.T) {
	pool := NewSessionPool(func(logger log.Logger, conn net.Conn) error {
		conn.Close()
		return assert.AnError
	})
	pool.SetWorkerCount(1)

	for i := 0; i < 3; i++ {
		client, server := net.Pipe()
		pool.Do(server)
		client.Close()
	}

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool.Close did not return; a failed session blocked the worker")
	}
}
