package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"healthcare-portal-server/internal/logger"
)

const purgeTimeout = time.Minute

// OtpPurger deletes expired one-time codes.
type OtpPurger interface {
	PurgeOtps(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// NewScheduler registers the OTP purge on spec, a standard cron expression
// or a descriptor such as "@hourly".
func NewScheduler(spec string, purger OtpPurger, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, func() { RunOtpPurge(context.Background(), purger, log) }); err != nil {
		return nil, fmt.Errorf("invalid OTP purge schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithComponent("jobs").WithField("entries", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.WithComponent("jobs").Info("Scheduler stopped")
}

// RunOtpPurge deletes expired codes once and logs the outcome.
func RunOtpPurge(ctx context.Context, purger OtpPurger, log *logger.Logger) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	entry := log.WithComponent("jobs").WithField("job", "otp_purge")
	deleted, err := purger.PurgeOtps(ctx)
	if err != nil {
		entry.WithError(err).Error("OTP purge failed")
		return 0, err
	}
	entry.WithField("deleted", deleted).Info("OTP purge finished")
	return deleted, nil
}
