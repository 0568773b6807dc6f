// Package daemon runs the transport-facing half of a server: accepting
// connections and handing each one to an independent upload-pack session,
// bounded to a configurable number of concurrent sessions.
package daemon

import (
	"net"
	"sync"

	log "gopkg.in/src-d/go-log.v1"
)

// Handler processes one accepted connection end to end. It owns closing
// conn when it returns.
type Handler func(logger log.Logger, conn net.Conn) error

// sessionJob carries one accepted connection to a worker; the worker
// builds the session's logger itself.
type sessionJob struct {
	conn net.Conn
}

// SessionPool is a pool of goroutines that each run one upload-pack
// session per accepted connection at a time. Grounded on worker_pool.go's
// NewWorkerPool/SetWorkerCount/jobChannel shape, repurposed from "one
// worker per archiving job pulled off a queue" to "one worker per accepted
// connection"; the AMQP-backed queue.Acknowledger the teacher passed
// alongside each job has no counterpart here, since a session's unit of
// work is a live socket, not a requeueable message (see DESIGN.md).
type SessionPool struct {
	do      Handler
	jobs    chan sessionJob
	workers []*sessionWorker
	wg      *sync.WaitGroup
	m       *sync.Mutex
}

// NewSessionPool creates an empty pool that will run do for every
// connection handed to it. The pool starts with no workers; call
// SetWorkerCount to start some.
func NewSessionPool(do Handler) *SessionPool {
	return &SessionPool{
		do:   do,
		jobs: make(chan sessionJob),
		wg:   &sync.WaitGroup{},
		m:    &sync.Mutex{},
	}
}

// Do hands conn to the pool. It blocks until a worker accepts it, bounding
// the number of sessions in flight to the current worker count.
func (p *SessionPool) Do(conn net.Conn) {
	p.jobs <- sessionJob{conn: conn}
}

// SetWorkerCount changes the number of running workers, starting or
// stopping workers as needed. It blocks until every change has taken
// effect. A worker that is mid-session finishes it before stopping.
func (p *SessionPool) SetWorkerCount(n int) {
	p.m.Lock()
	defer p.m.Unlock()

	delta := n - len(p.workers)
	if delta > 0 {
		p.add(delta)
	} else if delta < 0 {
		p.del(-delta)
	}
}

// Len returns the number of workers currently in the pool.
func (p *SessionPool) Len() int {
	p.m.Lock()
	defer p.m.Unlock()
	return len(p.workers)
}

func (p *SessionPool) add(n int) {
	for i := 0; i < n; i++ {
		id := len(p.workers)
		w := newSessionWorker(id, p.do, p.jobs)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.start()
		}()
		p.workers = append(p.workers, w)
	}
}

func (p *SessionPool) del(n int) {
	prev := len(p.workers)
	var wg sync.WaitGroup
	for i := prev - 1; i >= prev-n; i-- {
		w := p.workers[i]
		p.workers = p.workers[:len(p.workers)-1]
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.stop()
		}()
	}
	wg.Wait()
}

// Close stops every worker and releases the pool. It blocks until all
// in-flight sessions finish.
func (p *SessionPool) Close() error {
	p.SetWorkerCount(0)
	p.wg.Wait()
	close(p.jobs)
	return nil
}

// sessionWorker runs sessions pulled from a shared channel until stopped.
// Grounded on worker.go's Worker, generalized from *WorkerJob/Ack/Reject
// to a plain net.Conn and a returned error.
type sessionWorker struct {
	id   int
	do   Handler
	jobs chan sessionJob
	quit chan struct{}
}

func newSessionWorker(id int, do Handler, jobs chan sessionJob) *sessionWorker {
	return &sessionWorker{
		id:   id,
		do:   do,
		jobs: jobs,
		quit: make(chan struct{}),
	}
}

func (w *sessionWorker) start() {
	logger := log.New(log.Fields{"worker": w.id})
	logger.Debugf("starting")
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			sessionLogger := logger.With(log.Fields{"remote": job.conn.RemoteAddr()})
			if err := w.do(sessionLogger, job.conn); err != nil {
				sessionLogger.Errorf(err, "session failed")
			}
		case <-w.quit:
			return
		}
	}
}

func (w *sessionWorker) stop() {
	w.quit <- struct{}{}
}
