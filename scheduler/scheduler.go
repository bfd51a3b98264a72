// Package scheduler runs the background maintenance jobs.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrInvalidInterval = errors.New("job interval must be positive")

// Repairer creates the missing match of accepted challenges.
type Repairer interface {
	RepairAcceptedWithoutMatch(ctx context.Context) (int, error)
}

// Service wraps a gocron scheduler.
type Service struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
	stopOnce  sync.Once
	stopErr   error
}

func New(logger zerolog.Logger, options ...gocron.SchedulerOption) (*Service, error) {
	opts := append([]gocron.SchedulerOption{
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					logger.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("scheduler job panicked")
				}),
			),
		),
	}, options...)

	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	return &Service{scheduler: sched, logger: logger}, nil
}

func (s *Service) Start() {
	s.logger.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("scheduler starting")
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down. It is safe to call twice.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// AddRepairJob runs the repair sweep every interval, first right after Start.
// Runs never overlap; a run that is due while one is still going is skipped.
func (s *Service) AddRepairJob(ctx context.Context, repairer Repairer, interval time.Duration) (gocron.Job, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	jobLogger := s.logger.With().Str("job_name", repairJobName).Dur("interval", interval).Logger()

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { runRepair(ctx, repairer, jobLogger) }),
		gocron.WithName(repairJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("failed to register scheduler job")
		return nil, err
	}
	jobLogger.Info().Msg("scheduler job registered")
	return job, nil
}

const repairJobName = "repair-accepted-challenges"

func runRepair(ctx context.Context, repairer Repairer, logger zerolog.Logger) {
	if ctx.Err() != nil {
		return
	}
	repaired, err := repairer.RepairAcceptedWithoutMatch(ctx)
	switch {
	case err != nil:
		logger.Error().Err(err).Int("repaired", repaired).Msg("repair sweep failed")
	case repaired > 0:
		logger.Info().Int("repaired", repaired).Msg("repair sweep created missing matches")
	default:
		logger.Debug().Msg("repair sweep found nothing to do")
	}
}
