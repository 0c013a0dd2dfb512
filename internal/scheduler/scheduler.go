package scheduler

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled run
type Job func(ctx context.Context) error

// Scheduler runs a job immediately and then on a cron schedule.
// A run still in progress when the next one is due is skipped.
type Scheduler struct {
	log  zerolog.Logger
	spec string
	job  Job
	cron *cron.Cron
}

// New validates spec (standard 5-field cron or a @descriptor such as @every 6h)
func New(log zerolog.Logger, spec string, job Job) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q", spec)
	}

	l := log.With().Str("module", "scheduler").Logger()
	return &Scheduler{
		log:  l,
		spec: spec,
		job:  job,
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{l}))),
	}, nil
}

// Run blocks until ctx is cancelled, then waits for a running job to finish
func (s *Scheduler) Run(ctx context.Context) error {
	wrapped := cron.NewChain(
		cron.Recover(cronLogger{s.log}),
		cron.SkipIfStillRunning(cronLogger{s.log}),
	).Then(cron.FuncJob(func() {
		s.run(ctx)
	}))

	if _, err := s.cron.AddJob(s.spec, wrapped); err != nil {
		return errors.Wrap(err, "failed to add scheduled job")
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.spec).Msg("scheduler started")

	var initial sync.WaitGroup
	initial.Add(1)
	go func() {
		defer initial.Done()
		wrapped.Run()
	}()

	<-ctx.Done()

	s.log.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
	initial.Wait()

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.log.Info().Msg("running scheduled sync")
	if err := s.job(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled sync failed")
		return
	}
	s.log.Info().Msg("scheduled sync completed")
}

type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
