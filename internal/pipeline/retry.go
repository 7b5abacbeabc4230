package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/nao1215/mirrorsync/internal/snapshot"
)

// RetryPolicy bounds the attempts made for one entry.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// BaseDelay is scaled by the failed attempt index and Multiplier.
	BaseDelay time.Duration

	// Multiplier scales the delay between attempts.
	Multiplier float64
}

// Attempts returns the maximum number of attempts.
func (p RetryPolicy) Attempts() int {
	return max(p.MaxRetries, 0) + 1
}

// Delay returns the pause after failed attempt i, counted from zero.
// The first retry is therefore immediate.
func (p RetryPolicy) Delay(i int) time.Duration {
	return time.Duration(float64(p.BaseDelay) * float64(i) * p.Multiplier)
}

// Runner executes one attempt of an entry update.
type Runner interface {
	Execute(ctx context.Context, e model.Entry) (*EntryRun, error)
}

// Retrier runs entry updates with bounded retries. A terminal failure is
// logged once and reported in the result; it is never returned as an error.
type Retrier struct {
	runner      Runner
	policy      RetryPolicy
	traceErrors bool
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithTraceErrors logs the whole chain of wrapped errors.
func WithTraceErrors(enabled bool) RetrierOption {
	return func(r *Retrier) {
		r.traceErrors = enabled
	}
}

// WithRetrierLogger sets the logger.
func WithRetrierLogger(logger *slog.Logger) RetrierOption {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// NewRetrier returns a Retrier running attempts through runner.
func NewRetrier(runner Runner, policy RetryPolicy, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		runner: runner,
		policy: policy,
		sleep:  sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run updates e, retrying failed attempts.
func (r *Retrier) Run(ctx context.Context, e model.Entry) model.SyncResult {
	start := r.now()
	result := model.SyncResult{
		EntryID: e.ID(),
		Group:   e.Group,
		Network: e.Network,
		Started: start,
	}

	var lastErr error
	attempts := r.policy.Attempts()
	for i := range attempts {
		result.Attempts = i + 1

		// An attempt in flight runs to completion; cancellation is
		// observed between attempts so snapshots are never half written.
		run, err := r.runner.Execute(context.WithoutCancel(ctx), e)
		if err == nil {
			result.Changed = run.Changed
			result.Domains = len(run.Domains)
			result.Duration = r.now().Sub(start)
			return result
		}
		lastErr = err

		if errors.Is(err, snapshot.ErrPersist) || ctx.Err() != nil || i == attempts-1 {
			break
		}

		r.logger.Warn("entry update failed, retrying",
			r.errorAttrs(e, i+1, err)...,
		)
		if err := r.sleep(ctx, r.policy.Delay(i)); err != nil {
			break
		}
	}

	r.logger.Error("entry update failed",
		r.errorAttrs(e, result.Attempts, lastErr)...,
	)
	result.Err = lastErr
	result.Duration = r.now().Sub(start)
	return result
}

func (r *Retrier) errorAttrs(e model.Entry, attempt int, err error) []any {
	attrs := []any{
		"entry", e.ID(),
		"attempt", attempt,
		"error", err,
	}
	if r.traceErrors {
		attrs = append(attrs, "trace", ErrorChain(err))
	}
	return attrs
}

// ErrorChain returns the message of err and of every error it wraps,
// outermost first.
func ErrorChain(err error) []string {
	var chain []string
	queue := []error{err}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil {
			continue
		}
		chain = append(chain, cur.Error())
		switch u := cur.(type) {
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		}
	}
	return chain
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
