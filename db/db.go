package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection         *mongo.Collection
	DoctorCollection       *mongo.Collection
	PharmacistCollection   *mongo.Collection
	AppointmentsCollection *mongo.Collection
	Client                 *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("medibook")
	UserCollection = database.Collection("users")
	DoctorCollection = database.Collection("doctors")
	PharmacistCollection = database.Collection("pharmacists")
	AppointmentsCollection = database.Collection("appointments")
}

// CreateIndexes sets up the lookups the appointment views depend on.
func CreateIndexes(ctx context.Context) error {
	_, err := AppointmentsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"appointmentid": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"userid": 1}},
		{Keys: bson.M{"docid": 1}},
		{Keys: bson.M{"pharmacistid": 1}},
	})
	if err != nil {
		return err
	}
	for _, coll := range []*mongo.Collection{DoctorCollection, PharmacistCollection} {
		if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.M{"providerid": 1}, Options: options.Index().SetUnique(true)},
			{Keys: bson.M{"email": 1}, Options: options.Index().SetUnique(true)},
		}); err != nil {
			return err
		}
	}
	_, err = UserCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"userid": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"email": 1}, Options: options.Index().SetUnique(true)},
	})
	return err
}
