package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"specflow/internal/domain"
)

type MongoSubscriberRepository struct {
	coll *mongo.Collection
}

func NewMongoSubscriberRepository(database *mongo.Database) *MongoSubscriberRepository {
	return &MongoSubscriberRepository{coll: database.Collection("subscribers")}
}

func (r *MongoSubscriberRepository) Create(ctx context.Context, sub domain.Subscriber) error {
	_, err := r.coll.InsertOne(ctx, sub)
	return translate(err)
}

func (r *MongoSubscriberRepository) GetByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	var s domain.Subscriber
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&s); err != nil {
		return domain.Subscriber{}, translate(err)
	}
	return s, nil
}
