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

const portalAccessCollection = "portal_accesses"

// PortalAccessRepository persists portal credentials. Raw tokens never reach
// this layer; lookups run on the SHA-256 token hash.
type PortalAccessRepository struct {
	coll *mongo.Collection
}

func NewPortalAccessRepository(db *mongo.Database) *PortalAccessRepository {
	return &PortalAccessRepository{coll: db.Collection(portalAccessCollection)}
}

func (r *PortalAccessRepository) FindByID(ctx context.Context, id string) (*domain.PortalAccess, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var access domain.PortalAccess
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&access); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find portal access: %w", err)
	}
	return &access, nil
}

// FindByTokenHash resolves a live credential: matching hash and type, not
// revoked, not expired. Nil result means no such credential, with no further
// distinction.
func (r *PortalAccessRepository) FindByTokenHash(ctx context.Context, hash string, typ domain.PortalAccessType, now time.Time) (*domain.PortalAccess, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"token_hash": hash,
		"type":       typ,
		"revoked":    false,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": time.Time{}},
			bson.M{"expires_at": bson.M{"$gt": now}},
		},
	}

	var access domain.PortalAccess
	if err := r.coll.FindOne(ctx, filter).Decode(&access); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find portal token: %w", err)
	}
	return &access, nil
}

// ConsumeMagicLink validates and invalidates a magic link as one conditional
// write. The used:false predicate and the $set run atomically in a single
// FindOneAndUpdate, so concurrent redemptions of the same token resolve to
// exactly one winner.
func (r *PortalAccessRepository) ConsumeMagicLink(ctx context.Context, hash string, now time.Time) (*domain.PortalAccess, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"token_hash": hash,
		"type":       domain.PortalAccessMagicLink,
		"used":       false,
		"revoked":    false,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": time.Time{}},
			bson.M{"expires_at": bson.M{"$gt": now}},
		},
	}
	update := bson.M{"$set": bson.M{"used": true, "used_at": now}}

	var access domain.PortalAccess
	err := r.coll.FindOneAndUpdate(ctx, filter, update).Decode(&access)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume magic link: %w", err)
	}
	return &access, nil
}

func (r *PortalAccessRepository) Create(ctx context.Context, access *domain.PortalAccess) (*domain.PortalAccess, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if access.ID == "" {
		access.ID = uuid.NewString()
	}
	if access.CreatedAt.IsZero() {
		access.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, access); err != nil {
		return nil, fmt.Errorf("insert portal access: %w", err)
	}
	return access, nil
}

// EnsureIndexes creates the unique token-hash index.
func (r *PortalAccessRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token_hash", Value: 1}},
		Options: indexUnique(),
	})
	return err
}
