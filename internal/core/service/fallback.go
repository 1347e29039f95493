package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

// Attempt is one strategy of a fallback chain.
type Attempt[T any] struct {
	Name string
	// Fetch performs the call. A non-nil error marks the attempt failed.
	Fetch func(ctx context.Context) (domain.Envelope[T], error)
	// Accept decides whether a successful result ends the chain.
	Accept func(env domain.Envelope[T]) bool
	// Skip excludes the attempt, e.g. when its parameters are unknown.
	Skip bool
}

// RunChain evaluates attempts strictly in order and returns the first
// accepted envelope. Failures and rejections are logged and counted but
// never returned; ok is false when no attempt was accepted.
func RunChain[T any](ctx context.Context, chain string, attempts []Attempt[T], log zerolog.Logger) (env domain.Envelope[T], ok bool) {
	for _, a := range attempts {
		if a.Skip {
			metrics.FallbackAttemptsTotal.WithLabelValues(chain, a.Name, "skipped").Inc()
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Debug().Err(err).Str("chain", chain).Str("step", a.Name).Msg("fallback chain cancelled")
			break
		}

		res, err := a.Fetch(ctx)
		if err != nil {
			metrics.FallbackAttemptsTotal.WithLabelValues(chain, a.Name, "failed").Inc()
			log.Warn().Err(err).Str("chain", chain).Str("step", a.Name).Msg("fallback attempt failed")
			continue
		}
		if a.Accept != nil && !a.Accept(res) {
			metrics.FallbackAttemptsTotal.WithLabelValues(chain, a.Name, "rejected").Inc()
			log.Debug().Str("chain", chain).Str("step", a.Name).Msg("fallback attempt rejected")
			continue
		}

		metrics.FallbackAttemptsTotal.WithLabelValues(chain, a.Name, "accepted").Inc()
		return res, true
	}

	metrics.FallbackExhaustedTotal.WithLabelValues(chain).Inc()
	log.Warn().Str("chain", chain).Msg("fallback chain exhausted")
	return env, false
}
