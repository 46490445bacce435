package repositories

import (
	"context"
	"time"

	"github.com/baaten/partner_console/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transitionHistoryLimit = 50

type TransitionRepository struct {
	collection *mongo.Collection
}

func NewTransitionRepository(db *mongo.Client, dbName, collection string) *TransitionRepository {
	return &TransitionRepository{
		collection: db.Database(dbName).Collection(collection),
	}
}

// Record inserts one finished transition
func (r *TransitionRepository) Record(ctx context.Context, t *models.Transition) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, t)
	return err
}

// ListByPartner returns the latest transitions for a partner, newest first
func (r *TransitionRepository) ListByPartner(ctx context.Context, partnerID string) ([]models.Transition, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(transitionHistoryLimit)

	cursor, err := r.collection.Find(ctx, bson.M{"partnerId": partnerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	transitions := []models.Transition{}
	if err := cursor.All(ctx, &transitions); err != nil {
		return nil, err
	}
	return transitions, nil
}
