// Package scheduler runs the recurring-invoice generation job on a cron
// schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/agencyhub/crm-api/internal/api/metrics"
	"github.com/agencyhub/crm-api/internal/core/service"
)

type Scheduler struct {
	cron      *cron.Cron
	recurring *service.RecurringInvoiceService
	log       zerolog.Logger
}

func New(recurring *service.RecurringInvoiceService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		recurring: recurring,
		log:       log,
	}
}

// Start registers the generation job under the given cron expression and
// launches the scheduler. The job runs with a bounded context so a stuck
// database call cannot pile up overlapping runs forever.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.runGeneration)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", spec).Msg("recurring invoice scheduler started")
	return nil
}

// Stop halts the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runGeneration() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := s.recurring.GenerateDue(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("recurring invoice generation failed")
		return
	}

	metrics.RecurringInvoicesGeneratedTotal.Add(float64(count))
	s.log.Info().Int("generated", count).Msg("recurring invoice generation finished")
}
