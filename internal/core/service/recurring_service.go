package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agencyhub/crm-api/internal/core/domain"
	"github.com/agencyhub/crm-api/internal/core/ports"
)

// RecurringInvoiceService generates invoices for due recurring schedules.
// Generation is idempotent within a billing period: the repository rejects a
// second invoice for the same schedule and period start.
type RecurringInvoiceService struct {
	repo ports.RecurringInvoiceRepository
	log  zerolog.Logger
}

func NewRecurringInvoiceService(repo ports.RecurringInvoiceRepository, log zerolog.Logger) *RecurringInvoiceService {
	return &RecurringInvoiceService{repo: repo, log: log}
}

// GenerateDue processes every active schedule whose next invoice date has
// passed: it issues the invoice, advances the schedule by one period, and
// completes schedules that have run past their end date. Failures on one
// schedule do not stop the rest of the batch; the count of generated invoices
// is returned.
func (s *RecurringInvoiceService) GenerateDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.FindDue(ctx, now)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, ri := range due {
		if ri.Status != domain.RecurringActive {
			continue
		}

		inv := &domain.Invoice{
			ID:                 uuid.NewString(),
			AgencyID:           ri.AgencyID,
			ClientID:           ri.ClientID,
			RecurringInvoiceID: ri.ID,
			Title:              ri.Title,
			Amount:             ri.Amount,
			Currency:           ri.Currency,
			PeriodStart:        ri.NextInvoiceDate,
			IssuedAt:           now,
		}

		if _, err := s.repo.InsertInvoice(ctx, inv); err != nil {
			if errors.Is(err, domain.ErrInvoiceExists) {
				s.log.Debug().Str("recurring_id", ri.ID).Time("period", ri.NextInvoiceDate).Msg("invoice already generated for period")
			} else {
				s.log.Error().Err(err).Str("recurring_id", ri.ID).Msg("failed to generate invoice")
				continue
			}
		} else {
			generated++
			s.log.Info().
				Str("recurring_id", ri.ID).
				Str("client_id", ri.ClientID).
				Float64("amount", ri.Amount).
				Msg("invoice generated")
		}

		ri.NextInvoiceDate = domain.NextInvoiceDate(ri.Frequency, ri.NextInvoiceDate)
		if ri.EndDate != nil && ri.NextInvoiceDate.After(*ri.EndDate) {
			ri.Status = domain.RecurringCompleted
		}
		ri.UpdatedAt = now
		if err := s.repo.Update(ctx, ri); err != nil {
			s.log.Error().Err(err).Str("recurring_id", ri.ID).Msg("failed to advance schedule")
		}
	}

	return generated, nil
}
