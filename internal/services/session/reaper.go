package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper closes idle sessions in the background
type Reaper struct {
	service   *Service
	idleTTL   time.Duration
	pollEvery time.Duration
}

// NewReaper creates a new idle-session reaper
func NewReaper(service *Service, idleTTL, pollEvery time.Duration) *Reaper {
	if idleTTL == 0 {
		idleTTL = 30 * time.Minute
	}
	if pollEvery == 0 {
		pollEvery = time.Minute
	}
	return &Reaper{
		service:   service,
		idleTTL:   idleTTL,
		pollEvery: pollEvery,
	}
}

// Run reaps until ctx is cancelled
func (r *Reaper) Run(ctx context.Context) {
	log.Info().
		Dur("idle_ttl", r.idleTTL).
		Dur("poll_every", r.pollEvery).
		Msg("session reaper started")

	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session reaper stopping")
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *Reaper) reapOnce() int {
	expired := r.service.Expire(r.idleTTL)
	if len(expired) > 0 {
		log.Info().
			Int("count", len(expired)).
			Strs("session_ids", expired).
			Msg("idle sessions reaped")
	}
	return len(expired)
}
