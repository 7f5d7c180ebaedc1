package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"stayengine/internal/app/policies"
)

// GuestDirectory reads display names from the guests collection.
type GuestDirectory struct {
	col *mongo.Collection
}

func NewGuestDirectory(db *mongo.Database) *GuestDirectory {
	return &GuestDirectory{col: db.Collection("guests")}
}

type guestDocument struct {
	ID        string `bson:"_id"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
}

func (d *GuestDirectory) FullNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := d.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc guestDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.ID] = strings.TrimSpace(doc.FirstName + " " + doc.LastName)
	}
	return out, cur.Err()
}

var _ policies.GuestDirectory = (*GuestDirectory)(nil)
