package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const purgeResetTokensSpec = "0 0 * * * *" // hourly

// ResetTokenPurger clears reset-token fields whose expiry is at or before now.
type ResetTokenPurger interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	purger ResetTokenPurger
	now    func() time.Time
	log    zerolog.Logger
}

func NewScheduler(purger ResetTokenPurger, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		purger: purger,
		now:    time.Now,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.purger == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(purgeResetTokensSpec, s.purgeResetTokens); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish, up to five seconds.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleared, err := s.purger.ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired reset tokens failed")
		return
	}
	if cleared > 0 {
		s.log.Info().Int64("cleared", cleared).Msg("expired reset tokens purged")
	}
}
