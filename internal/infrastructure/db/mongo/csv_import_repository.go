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

const csvImportsCollection = "csv_imports"

type CsvImportRepository struct {
	coll *mongo.Collection
}

func NewCsvImportRepository(db *mongo.Database) *CsvImportRepository {
	return &CsvImportRepository{coll: db.Collection(csvImportsCollection)}
}

func (r *CsvImportRepository) FindByID(ctx context.Context, id string) (*domain.CsvImport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var imp domain.CsvImport
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&imp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCsvImportNotFound
		}
		return nil, fmt.Errorf("find csv import: %w", err)
	}
	return &imp, nil
}

func (r *CsvImportRepository) Create(ctx context.Context, imp *domain.CsvImport) (*domain.CsvImport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}
	imp.CreatedAt = time.Now().UTC()

	if _, err := r.coll.InsertOne(ctx, imp); err != nil {
		return nil, fmt.Errorf("insert csv import: %w", err)
	}
	return imp, nil
}

func (r *CsvImportRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete csv import: %w", err)
	}
	return nil
}
