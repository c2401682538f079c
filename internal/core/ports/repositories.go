package ports

import (
	"context"
	"time"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

// ClientRepository persists client records and their user assignments.
type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id string) error
	// AssignUser creates (or reactivates) an assignment between a user and
	// the client; UnassignUser deactivates it.
	AssignUser(ctx context.Context, userID, clientID string) error
	UnassignUser(ctx context.Context, userID, clientID string) error
}

// DealRepository persists deals.
type DealRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Deal, error)
	Create(ctx context.Context, deal *domain.Deal) (*domain.Deal, error)
	Update(ctx context.Context, deal *domain.Deal) error
	Delete(ctx context.Context, id string) error
}

// PipelineRepository persists pipelines.
type PipelineRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Pipeline, error)
	Create(ctx context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error)
	Update(ctx context.Context, pipeline *domain.Pipeline) error
	Delete(ctx context.Context, id string) error
}

// ProposalRepository persists proposals.
type ProposalRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Proposal, error)
	Create(ctx context.Context, proposal *domain.Proposal) (*domain.Proposal, error)
	Update(ctx context.Context, proposal *domain.Proposal) error
	Delete(ctx context.Context, id string) error
}

// RecurringInvoiceRepository persists recurring invoice schedules and the
// invoices they generate.
type RecurringInvoiceRepository interface {
	FindByID(ctx context.Context, id string) (*domain.RecurringInvoice, error)
	// FindDue returns active schedules whose next invoice date is at or
	// before now.
	FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringInvoice, error)
	Create(ctx context.Context, ri *domain.RecurringInvoice) (*domain.RecurringInvoice, error)
	Update(ctx context.Context, ri *domain.RecurringInvoice) error
	Delete(ctx context.Context, id string) error
	// InsertInvoice persists a generated invoice. It returns
	// domain.ErrInvoiceExists when an invoice for the same schedule and
	// period already exists, keeping generation idempotent.
	InsertInvoice(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
}

// CsvImportRepository records uploaded imports.
type CsvImportRepository interface {
	FindByID(ctx context.Context, id string) (*domain.CsvImport, error)
	Create(ctx context.Context, imp *domain.CsvImport) (*domain.CsvImport, error)
	Delete(ctx context.Context, id string) error
}
