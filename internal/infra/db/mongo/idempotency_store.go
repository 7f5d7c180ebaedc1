package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayengine/internal/app/middleware"
)

// IdempotencyStore persists replayable command results. Mongo's TTL monitor
// removes expired records; Get also ignores them until it does.
type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database) (*IdempotencyStore, error) {
	col := db.Collection("command_idempotency")
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	if doc.ExpiresAt != nil && !time.Now().Before(*doc.ExpiresAt) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		ID:          rec.Key,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		OccurredAt:  rec.OccurredAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if !rec.ExpiresAt.IsZero() {
		at := rec.ExpiresAt.UTC()
		doc.ExpiresAt = &at
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	ID          string     `bson:"_id"`
	Fingerprint string     `bson:"fingerprint,omitempty"`
	Payload     []byte     `bson:"payload"`
	OccurredAt  time.Time  `bson:"occurred_at"`
	CreatedAt   time.Time  `bson:"created_at"`
	ExpiresAt   *time.Time `bson:"expires_at,omitempty"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	rec := middleware.IdempotencyRecord{Key: d.ID, Fingerprint: d.Fingerprint, Payload: d.Payload, OccurredAt: d.OccurredAt}
	if d.ExpiresAt != nil {
		rec.ExpiresAt = *d.ExpiresAt
	}
	return rec
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
