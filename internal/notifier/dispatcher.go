// Package notifier delivers outbound email off the request path. Every
// message goes through one bounded queue drained by a fixed worker pool; each
// attempt has its own timeout and failures are logged, never returned.
package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/mailer"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type job struct {
	id         string
	msg        mailer.Message
	timeout    time.Duration
	maxRetries int
}

type Dispatcher struct {
	sender     Sender
	retryable  func(error) bool
	retryDelay time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup

	// inflight tracks sends still talking to the server, including ones whose
	// attempt already timed out. abort cancels them when Shutdown gives up.
	inflight sync.WaitGroup
	abort    context.Context
	cancel   context.CancelFunc
}

type Option func(*Dispatcher)

func WithRetryDelay(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.retryDelay = d
		}
	}
}

// WithRetryable overrides the error classification, mailer.IsRetryable by default.
func WithRetryable(fn func(error) bool) Option {
	return func(disp *Dispatcher) {
		disp.retryable = fn
	}
}

// NewDispatcher starts workers goroutines. Call Shutdown to stop them.
func NewDispatcher(sender Sender, workers, queueSize int, opts ...Option) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender:     sender,
		retryable:  mailer.IsRetryable,
		retryDelay: defaultRetryDelay,
		jobs:       make(chan job, queueSize),
	}
	d.abort, d.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}

	return d
}

// Send queues a message and returns immediately. A full queue or a stopped
// dispatcher drops the message with a warning.
func (d *Dispatcher) Send(to, subject, body string, timeoutSeconds, maxRetries int) {
	j := job{
		id:         ulid.Make().String(),
		msg:        mailer.Message{To: to, Subject: subject, Body: body},
		timeout:    time.Duration(timeoutSeconds) * time.Second,
		maxRetries: maxRetries,
	}
	if j.timeout <= 0 {
		j.timeout = defaultTimeout
	}
	if j.maxRetries < 0 {
		j.maxRetries = 0
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Warn().Str("component", "Dispatcher").Str("job_id", j.id).Str("to", to).Msg("dispatcher stopped; dropping email")
		return
	}

	select {
	case d.jobs <- j:
		log.Debug().Str("component", "Dispatcher").Str("job_id", j.id).Str("to", to).Msg("email queued")
	default:
		log.Warn().Str("component", "Dispatcher").Str("job_id", j.id).Str("to", to).Msg("queue full; dropping email")
	}
}

// Shutdown stops accepting messages and waits for queued and in-flight sends
// to finish. When ctx expires first, in-flight sends are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		// Workers are the only ones starting sends, so they must be gone
		// before waiting on inflight.
		d.wg.Wait()
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.deliver(j)
	}
}

// send starts one SMTP delivery in the background. gomail cannot interrupt a
// conversation once dialed, so a timed-out attempt is left running and its
// result is still collected.
func (d *Dispatcher) send(msg mailer.Message) <-chan error {
	result := make(chan error, 1)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		result <- d.sender.Send(d.abort, msg)
	}()
	return result
}

func (d *Dispatcher) deliver(j job) {
	attempt := 0
	var pending <-chan error
	backoff := retry.WithMaxRetries(uint64(j.maxRetries), retry.NewConstant(d.retryDelay))

	err := retry.Do(d.abort, backoff, func(ctx context.Context) error {
		attempt++

		// A send still in flight from a timed-out attempt may yet succeed;
		// dialing again could deliver the message twice.
		if pending == nil {
			pending = d.send(j.msg)
		}

		timer := time.NewTimer(j.timeout)
		defer timer.Stop()

		var err error
		select {
		case err = <-pending:
			pending = nil
		case <-timer.C:
			err = context.DeadlineExceeded
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err == nil {
			return nil
		}

		logEvt := log.Error().Err(err).Str("component", "Dispatcher").Str("job_id", j.id).Str("to", j.msg.To).Int("attempt", attempt)
		if errors.Is(err, context.DeadlineExceeded) {
			logEvt.Msg("timeout sending email")
		} else {
			logEvt.Msg("failed sending email")
		}

		if d.retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		log.Info().Str("component", "Dispatcher").Str("job_id", j.id).Str("to", j.msg.To).Int("attempts", attempt).Msg("email sent")
	case pending != nil:
		d.reportLate(j, pending)
	default:
		log.Warn().Str("component", "Dispatcher").Str("job_id", j.id).Str("to", j.msg.To).Int("attempts", attempt).Msg("giving up sending email")
	}
}

// reportLate logs the outcome of a send that outlived every attempt.
func (d *Dispatcher) reportLate(j job, pending <-chan error) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := <-pending; err != nil {
			log.Warn().Err(err).Str("component", "Dispatcher").Str("job_id", j.id).Str("to", j.msg.To).Msg("giving up sending email")
			return
		}
		log.Info().Str("component", "Dispatcher").Str("job_id", j.id).Str("to", j.msg.To).Msg("email sent after attempt timeout")
	}()
}
