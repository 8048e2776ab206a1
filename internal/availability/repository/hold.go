package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "carebook/internal/availability/errors"
	"carebook/pkg/config"
	mongotx "carebook/pkg/db/mongo"
	"carebook/pkg/interval"
	"carebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	HoldCollectionName = "Reservation_holds"
)

// HoldRepository stores the held-interval set. A hold document lives from a
// successful Reserve until its appointment reaches a terminal state.
type HoldRepository interface {
	Create(ctx context.Context, hold *model.ReservationHold) error
	FindByID(ctx context.Context, id string) (*model.ReservationHold, error)
	FindOverlapping(ctx context.Context, caregiverID string, iv interval.Interval) ([]*model.ReservationHold, error)
	Delete(ctx context.Context, id string) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoHoldRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoHoldRepository(cfg *config.Config) HoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHoldRepository{
		cfg:        cfg,
		collection: db.Collection(HoldCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoHoldRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoHoldRepository) Create(ctx context.Context, hold *model.ReservationHold) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	hold.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, hold); err != nil {
		return fmt.Errorf("failed to create reservation hold: %w", err)
	}
	return nil
}

func (r *mongoHoldRepository) FindByID(ctx context.Context, id string) (*model.ReservationHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hold model.ReservationHold
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to find reservation hold: %w", err)
	}

	return &hold, nil
}

func (r *mongoHoldRepository) FindOverlapping(ctx context.Context, caregiverID string, iv interval.Interval) ([]*model.ReservationHold, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"caregiver_id": caregiverID,
		"start_time":   bson.M{"$lt": iv.End},
		"end_time":     bson.M{"$gt": iv.Start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*model.ReservationHold
	if err = cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping holds: %w", err)
	}

	return holds, nil
}

// Delete removes a hold. Returns false when the hold was already gone, which
// callers treat as success (release is idempotent).
func (r *mongoHoldRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete reservation hold: %w", err)
	}

	return result.DeletedCount > 0, nil
}
