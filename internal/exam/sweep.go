package exam

import (
	"context"
	"time"
)

// Nothing ends an attempt when its exam window closes; a student who walks
// away leaves a Started attempt with no score. The sweeper finalizes those,
// computing the score from whatever answers exist.

// FinalizeExpired submits every started, uncompleted attempt whose exam has
// ended. Returns how many attempts were finalized. Individual failures are
// logged and skipped so one bad row cannot stall the sweep.
func (s *Service) FinalizeExpired(ctx context.Context) (int, error) {
	stale, err := s.store.ListExpiredAttempts(ctx, s.now().Unix())
	if err != nil {
		return 0, err
	}
	done := 0
	for _, a := range stale {
		score, err := s.computeScore(ctx, a)
		if err != nil {
			s.log.WithField("attempt_id", a.ID).WithError(err).Warn("sweep: score computation failed")
			continue
		}
		if err := s.store.FinishAttempt(ctx, a.ID, s.now().Unix(), score); err != nil {
			s.log.WithField("attempt_id", a.ID).WithError(err).Warn("sweep: finalize failed")
			continue
		}
		done++
	}
	if done > 0 {
		s.log.WithField("finalized", done).Info("sweep: stale attempts finalized")
	}
	return done, nil
}

// RunSweeper loops FinalizeExpired on the given interval until ctx is done.
// onFinalized, when non-nil, receives the count of each non-empty sweep.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, onFinalized func(int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.FinalizeExpired(ctx)
			if err != nil {
				s.log.WithError(err).Error("sweep failed")
				continue
			}
			if n > 0 && onFinalized != nil {
				onFinalized(n)
			}
		}
	}
}
