package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook/db"
	"medibook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore backs the booking stores with the shared collections in db.
type MongoStore struct{}

func NewMongoStore() *MongoStore {
	return &MongoStore{}
}

func providerCollection(kind models.ProviderKind) *mongo.Collection {
	if kind == models.KindPharmacist {
		return db.PharmacistCollection
	}
	return db.DoctorCollection
}

func (m *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (m *MongoStore) GetProvider(ctx context.Context, kind models.ProviderKind, id string) (*models.Provider, error) {
	var p models.Provider
	err := providerCollection(kind).FindOne(ctx, bson.M{"providerid": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &p, nil
}

// ReserveSlot appends the time label to the provider's date key in one
// guarded update: the filter only matches while the provider is available
// and the label is absent, so a concurrent duplicate booking cannot match.
// Same shape as an oversell guard on ticket stock.
func (m *MongoStore) ReserveSlot(ctx context.Context, kind models.ProviderKind, id, dateKey, timeLabel string) error {
	field := "slots_booked." + dateKey
	res, err := providerCollection(kind).UpdateOne(ctx,
		bson.M{
			"providerid": id,
			"available":  true,
			field:        bson.M{"$ne": timeLabel},
		},
		bson.M{
			"$push": bson.M{field: timeLabel},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// The guard rejected; read the record to report which precondition
	// actually failed.
	p, err := m.GetProvider(ctx, kind, id)
	if err != nil {
		return err
	}
	if !p.Available {
		return ErrProviderUnavailable
	}
	return ErrSlotTaken
}

func (m *MongoStore) ToggleAvailable(ctx context.Context, kind models.ProviderKind, id string) (*models.Provider, error) {
	res := providerCollection(kind).FindOneAndUpdate(ctx,
		bson.M{"providerid": id},
		bson.A{bson.M{"$set": bson.M{
			"available":  bson.M{"$not": "$available"},
			"updated_at": "$$NOW",
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var p models.Provider
	if err := res.Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("toggle availability: %w", err)
	}
	return &p, nil
}

func (m *MongoStore) InsertAppointment(ctx context.Context, a *models.Appointment) error {
	if _, err := db.AppointmentsCollection.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (m *MongoStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	err := db.AppointmentsCollection.FindOne(ctx, bson.M{"appointmentid": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &a, nil
}

// SetFlags performs the transition as a single guarded FindOneAndUpdate:
// the filter pins all four flags to the values the service read, so a
// racing transition makes this a no-match instead of a lost update.
func (m *MongoStore) SetFlags(ctx context.Context, id string, expect, set Flags) (*models.Appointment, error) {
	res := db.AppointmentsCollection.FindOneAndUpdate(ctx,
		bson.M{
			"appointmentid": id,
			"accepted":      expect.Accepted,
			"cancelled":     expect.Cancelled,
			"payment":       expect.Payment,
			"is_completed":  expect.Completed,
		},
		bson.M{"$set": bson.M{
			"accepted":     set.Accepted,
			"cancelled":    set.Cancelled,
			"payment":      set.Payment,
			"is_completed": set.Completed,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var a models.Appointment
	if err := res.Decode(&a); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("set flags: %w", err)
		}
		// Distinguish a vanished record from a lost race.
		if _, err := m.GetAppointment(ctx, id); err != nil {
			return nil, err
		}
		return nil, errConflict
	}
	return &a, nil
}

func (m *MongoStore) ListByRequester(ctx context.Context, userID string) ([]models.Appointment, error) {
	return m.findAppointments(ctx, bson.M{"userid": userID})
}

func (m *MongoStore) ListByCounterparty(ctx context.Context, c models.Counterparty) ([]models.Appointment, error) {
	if c.Kind == models.KindPharmacist {
		return m.findAppointments(ctx, bson.M{"pharmacistid": c.ID})
	}
	return m.findAppointments(ctx, bson.M{"docid": c.ID})
}

func (m *MongoStore) ListAllAppointments(ctx context.Context) ([]models.Appointment, error) {
	return m.findAppointments(ctx, bson.M{})
}

func (m *MongoStore) findAppointments(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	cur, err := db.AppointmentsCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return out, nil
}
