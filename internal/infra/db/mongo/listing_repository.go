package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayengine/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainlistings.ErrNotFound, id)
		}
		return nil, err
	}
	return doc.toListing(), nil
}

// Save upserts a listing. Used to seed fixtures into Mongo.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	copied := *l
	copied.Normalize()
	if err := copied.Validate(); err != nil {
		return err
	}
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = time.Now().UTC()
	}
	doc := newListingDocument(&copied)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

var _ domainlistings.Source = (*ListingRepository)(nil)
