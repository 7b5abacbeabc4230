package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Prober checks mirror liveness, pacing probes so that a long domain
// list does not hammer the network.
type Prober struct {
	client  *Client
	limiter *rate.Limiter
}

// NewProber returns a Prober allowing one probe per interval.
// A non-positive interval disables pacing.
func NewProber(client *Client, interval time.Duration) *Prober {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Prober{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Alive reports whether domain answers a HEAD request. A cancelled
// context counts as unreachable.
func (p *Prober) Alive(ctx context.Context, domain string) bool {
	if err := p.limiter.Wait(ctx); err != nil {
		return false
	}
	return p.client.Head(ctx, domain)
}
