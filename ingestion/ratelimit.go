/*
Copyright 2025 Poiesic Systems

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ingestion

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds outbound embedding calls to a fixed quota per
// rolling time window. Check and increment happen under one lock so
// two concurrent callers can never both take the last slot.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// NewRateLimiter creates a limiter allowing at most limit acquisitions
// per window.
func NewRateLimiter(limit int, window time.Duration) (*RateLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, ErrInvalidRateLimit
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
	}, nil
}

// Acquire takes one slot from the current window, sleeping for the
// remainder of the window when the quota is exhausted. It returns
// early with the context error if ctx is cancelled while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		if rl.windowStart.IsZero() || now.Sub(rl.windowStart) >= rl.window {
			rl.windowStart = now
			rl.count = 0
		}
		if rl.count < rl.limit {
			rl.count++
			rl.mu.Unlock()
			return nil
		}
		wait := rl.window - now.Sub(rl.windowStart)
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
