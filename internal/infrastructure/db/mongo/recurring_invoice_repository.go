package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agencyhub/crm-api/internal/core/domain"
)

const (
	recurringCollection = "recurring_invoices"
	invoicesCollection  = "invoices"
)

// RecurringInvoiceRepository persists recurring schedules and the invoices
// they generate. The invoices collection carries a unique
// (recurring_invoice_id, period_start) index so generation replays are
// absorbed as duplicate-key errors.
type RecurringInvoiceRepository struct {
	schedules *mongo.Collection
	invoices  *mongo.Collection
}

func NewRecurringInvoiceRepository(db *mongo.Database) *RecurringInvoiceRepository {
	return &RecurringInvoiceRepository{
		schedules: db.Collection(recurringCollection),
		invoices:  db.Collection(invoicesCollection),
	}
}

func (r *RecurringInvoiceRepository) FindByID(ctx context.Context, id string) (*domain.RecurringInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ri domain.RecurringInvoice
	if err := r.schedules.FindOne(ctx, bson.M{"_id": id}).Decode(&ri); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecurringInvoiceNotFound
		}
		return nil, fmt.Errorf("find recurring invoice: %w", err)
	}
	return &ri, nil
}

func (r *RecurringInvoiceRepository) FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":            domain.RecurringActive,
		"next_invoice_date": bson.M{"$lte": now},
	}
	cur, err := r.schedules.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find due schedules: %w", err)
	}
	defer cur.Close(ctx)

	var due []*domain.RecurringInvoice
	for cur.Next(ctx) {
		var ri domain.RecurringInvoice
		if err := cur.Decode(&ri); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
		due = append(due, &ri)
	}
	return due, cur.Err()
}

func (r *RecurringInvoiceRepository) Create(ctx context.Context, ri *domain.RecurringInvoice) (*domain.RecurringInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if ri.ID == "" {
		ri.ID = uuid.NewString()
	}
	if ri.Status == "" {
		ri.Status = domain.RecurringActive
	}
	now := time.Now().UTC()
	ri.CreatedAt = now
	ri.UpdatedAt = now

	if _, err := r.schedules.InsertOne(ctx, ri); err != nil {
		return nil, fmt.Errorf("insert recurring invoice: %w", err)
	}
	return ri, nil
}

func (r *RecurringInvoiceRepository) Update(ctx context.Context, ri *domain.RecurringInvoice) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.schedules.ReplaceOne(ctx, bson.M{"_id": ri.ID}, ri)
	if err != nil {
		return fmt.Errorf("update recurring invoice: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecurringInvoiceNotFound
	}
	return nil
}

func (r *RecurringInvoiceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.schedules.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete recurring invoice: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecurringInvoiceNotFound
	}
	return nil
}

func (r *RecurringInvoiceRepository) InsertInvoice(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if _, err := r.invoices.InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrInvoiceExists
		}
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

// EnsureIndexes creates the due-schedule index and the per-period uniqueness
// constraint that keeps generation idempotent.
func (r *RecurringInvoiceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.schedules.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_invoice_date", Value: 1}},
	}); err != nil {
		return err
	}

	_, err := r.invoices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "recurring_invoice_id", Value: 1}, {Key: "period_start", Value: 1}},
		Options: indexUnique(),
	})
	return err
}
