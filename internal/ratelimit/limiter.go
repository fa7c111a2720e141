package ratelimit

import "context"

// RateLimiter bounds outbound push gateway throughput. Wait blocks until a
// slot is available or the context ends.
type RateLimiter interface {
	Allow(ctx context.Context, channel string) (bool, error)
	Wait(ctx context.Context, channel string) error
}
