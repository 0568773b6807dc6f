package daemon

import (
	"errors"
	"net"

	log "gopkg.in/src-d/go-log.v1"
)

// Listener accepts connections from a net.Listener and distributes them
// across a SessionPool, acting as a producer feeding a fixed consumer
// pool. Grounded on executor.go's Executor (queueJobs/consumeJobs driving
// a *WorkerPool), generalized from "enqueue then dequeue jobs through a
// broker" to "accept then dispatch connections directly", since a
// connection has no queue.Acknowledger to round-trip.
type Listener struct {
	log logger
	ln  net.Listener
	wp  *SessionPool
}

type logger = log.Logger

// NewListener returns a Listener that dispatches every connection accepted
// from ln to wp.
func NewListener(l log.Logger, ln net.Listener, wp *SessionPool) *Listener {
	return &Listener{log: l, ln: ln, wp: wp}
}

// Serve accepts connections until ln is closed or Close is called,
// handing each one to the session pool. It blocks until the listener is
// closed and returns the listener's terminal error, or nil if Close was
// called.
func (s *Listener) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.log.Debugf("accepted connection from %s", conn.RemoteAddr())
		s.wp.Do(conn)
	}
}

// Close stops accepting new connections and closes the session pool,
// waiting for in-flight sessions to finish.
func (s *Listener) Close() error {
	if err := s.ln.Close(); err != nil {
		return err
	}
	return s.wp.Close()
}
