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
	dealsCollection     = "deals"
	pipelinesCollection = "pipelines"
)

type DealRepository struct {
	coll *mongo.Collection
}

func NewDealRepository(db *mongo.Database) *DealRepository {
	return &DealRepository{coll: db.Collection(dealsCollection)}
}

func (r *DealRepository) FindByID(ctx context.Context, id string) (*domain.Deal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Deal
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDealNotFound
		}
		return nil, fmt.Errorf("find deal: %w", err)
	}
	return &d, nil
}

func (r *DealRepository) Create(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return nil, fmt.Errorf("insert deal: %w", err)
	}
	return d, nil
}

func (r *DealRepository) Update(ctx context.Context, d *domain.Deal) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	d.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDealNotFound
	}
	return nil
}

func (r *DealRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDealNotFound
	}
	return nil
}

type PipelineRepository struct {
	coll *mongo.Collection
}

func NewPipelineRepository(db *mongo.Database) *PipelineRepository {
	return &PipelineRepository{coll: db.Collection(pipelinesCollection)}
}

func (r *PipelineRepository) FindByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Pipeline
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPipelineNotFound
		}
		return nil, fmt.Errorf("find pipeline: %w", err)
	}
	return &p, nil
}

func (r *PipelineRepository) Create(ctx context.Context, p *domain.Pipeline) (*domain.Pipeline, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("insert pipeline: %w", err)
	}
	return p, nil
}

func (r *PipelineRepository) Update(ctx context.Context, p *domain.Pipeline) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("update pipeline: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPipelineNotFound
	}
	return nil
}

func (r *PipelineRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPipelineNotFound
	}
	return nil
}
