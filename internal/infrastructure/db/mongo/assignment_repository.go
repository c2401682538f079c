package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentsCollection = "client_assignments"

// AssignmentRepository backs the guards' shared client-assignment lookup.
type AssignmentRepository struct {
	coll *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{coll: db.Collection(assignmentsCollection)}
}

// ActiveAssignmentExists is the read every client-linked guard performs: a
// single indexed lookup filtered on is_active.
func (r *AssignmentRepository) ActiveAssignmentExists(ctx context.Context, userID, clientID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "client_id": clientID, "is_active": true}
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("assignment lookup: %w", err)
	}
	return true, nil
}

// Assign creates or reactivates the assignment between a user and a client.
func (r *AssignmentRepository) Assign(ctx context.Context, userID, clientID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "client_id": clientID}
	update := bson.M{
		"$set":         bson.M{"is_active": true},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "user_id": userID, "client_id": clientID, "created_at": time.Now().UTC()},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("assign user: %w", err)
	}
	return nil
}

// Unassign deactivates the assignment; the row is kept for history.
func (r *AssignmentRepository) Unassign(ctx context.Context, userID, clientID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "client_id": clientID}
	_, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return fmt.Errorf("unassign user: %w", err)
	}
	return nil
}

// EnsureIndexes creates the compound lookup index.
func (r *AssignmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "client_id", Value: 1}},
		Options: indexUnique(),
	})
	return err
}
