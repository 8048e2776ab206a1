package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "carebook/internal/availability/errors"
	"carebook/pkg/config"
	"carebook/pkg/interval"
	"carebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	WindowCollectionName = "Availability_windows"
)

type WindowRepository interface {
	Create(ctx context.Context, window *model.AvailabilityWindow) error
	FindByID(ctx context.Context, id string) (*model.AvailabilityWindow, error)
	FindByCaregiver(ctx context.Context, caregiverID string, from, to *time.Time) ([]*model.AvailabilityWindow, error)
	FindOverlapping(ctx context.Context, caregiverID string, iv interval.Interval) ([]*model.AvailabilityWindow, error)
	FindCovering(ctx context.Context, caregiverID string, iv interval.Interval) (*model.AvailabilityWindow, error)
	Delete(ctx context.Context, id string) error
}

type mongoWindowRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoWindowRepository(cfg *config.Config) WindowRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWindowRepository{
		cfg:        cfg,
		collection: db.Collection(WindowCollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoWindowRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	window.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, window); err != nil {
		return fmt.Errorf("failed to create availability window: %w", err)
	}
	return nil
}

func (r *mongoWindowRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityWindow, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var window model.AvailabilityWindow
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&window)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrWindowNotFound
		}
		return nil, fmt.Errorf("failed to find availability window: %w", err)
	}

	return &window, nil
}

func (r *mongoWindowRepository) FindByCaregiver(ctx context.Context, caregiverID string, from, to *time.Time) ([]*model.AvailabilityWindow, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"caregiver_id": caregiverID}
	if from != nil {
		filter["end_time"] = bson.M{"$gt": *from}
	}
	if to != nil {
		filter["start_time"] = bson.M{"$lt": *to}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability windows: %w", err)
	}
	defer cursor.Close(ctx)

	var windows []*model.AvailabilityWindow
	if err = cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode availability windows: %w", err)
	}

	return windows, nil
}

func (r *mongoWindowRepository) FindOverlapping(ctx context.Context, caregiverID string, iv interval.Interval) ([]*model.AvailabilityWindow, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Half-open overlap: window.start < iv.end && iv.start < window.end.
	filter := bson.M{
		"caregiver_id": caregiverID,
		"start_time":   bson.M{"$lt": iv.End},
		"end_time":     bson.M{"$gt": iv.Start},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping windows: %w", err)
	}
	defer cursor.Close(ctx)

	var windows []*model.AvailabilityWindow
	if err = cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping windows: %w", err)
	}

	return windows, nil
}

func (r *mongoWindowRepository) FindCovering(ctx context.Context, caregiverID string, iv interval.Interval) (*model.AvailabilityWindow, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"caregiver_id": caregiverID,
		"start_time":   bson.M{"$lte": iv.Start},
		"end_time":     bson.M{"$gte": iv.End},
	}

	var window model.AvailabilityWindow
	err := r.collection.FindOne(ctx, filter).Decode(&window)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrOutsideAvailability
		}
		return nil, fmt.Errorf("failed to find covering window: %w", err)
	}

	return &window, nil
}

func (r *mongoWindowRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}

	if result.DeletedCount == 0 {
		return availabilityerrors.ErrWindowNotFound
	}

	return nil
}
