package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayengine/internal/domain/booking"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(ctx context.Context, db *mongo.Database) (*BookingRepository, error) {
	col := db.Collection("bookings")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "confirmation_code", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return nil, err
	}
	return &BookingRepository{col: col}, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: booking %s already exists", domainbooking.ErrConcurrentUpdate, b.ID)
		}
		return err
	}
	b.Version = 1
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrNotFound, id)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// UpdateStatus writes only when the stored version matches; the first
// writer wins and later ones see ErrConcurrentUpdate.
func (r *BookingRepository) UpdateStatus(ctx context.Context, u domainbooking.StatusUpdate) (*domainbooking.Booking, error) {
	set := bson.M{"status": string(u.Status), "updated_at": u.UpdatedAt.UTC()}
	if u.Cancellation != nil {
		c := *u.Cancellation
		if u.RefundAmount != nil {
			c.RefundAmount = *u.RefundAmount
		}
		set["cancellation"] = newCancellationDocument(&c)
	}
	if u.RefundAmount != nil {
		set["payment.refund_amount"] = *u.RefundAmount
	}
	filter := bson.M{"_id": string(u.BookingID), "version": u.ExpectedVersion}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toAggregate(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, lookupErr := r.ByID(ctx, u.BookingID); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, fmt.Errorf("%w: booking %s moved past version %d", domainbooking.ErrConcurrentUpdate, u.BookingID, u.ExpectedVersion)
}

func (r *BookingRepository) UpdatePayment(ctx context.Context, u domainbooking.PaymentUpdate) (*domainbooking.Booking, error) {
	set := bson.M{}
	if u.Status != "" {
		set["payment.status"] = string(u.Status)
	}
	if u.Method != "" {
		set["payment.method"] = string(u.Method)
	}
	if u.TransactionID != "" {
		set["payment.transaction_id"] = u.TransactionID
	}
	if u.RefundAmount != nil {
		set["payment.refund_amount"] = *u.RefundAmount
	}
	if u.PaidAt != nil {
		set["payment.paid_at"] = u.PaidAt.UTC()
	}
	if !u.UpdatedAt.IsZero() {
		set["updated_at"] = u.UpdatedAt.UTC()
	}
	update := bson.M{"$inc": bson.M{"version": 1}}
	if len(set) > 0 {
		update["$set"] = set
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bookingDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(u.BookingID)}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrNotFound, u.BookingID)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) List(ctx context.Context, p domainbooking.ListParams) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, listFilter(p), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := make([]*domainbooking.Booking, 0)
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func listFilter(p domainbooking.ListParams) bson.M {
	filter := bson.M{}
	if p.ListingID != "" {
		filter["listing_id"] = string(p.ListingID)
	}
	if p.HostID != "" {
		filter["host_id"] = string(p.HostID)
	}
	if p.GuestID != "" {
		filter["guest_id"] = p.GuestID
	}
	if len(p.Statuses) > 0 {
		statuses := make(bson.A, 0, len(p.Statuses))
		for _, s := range p.Statuses {
			statuses = append(statuses, string(s))
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	return filter
}

var _ domainbooking.Store = (*BookingRepository)(nil)
