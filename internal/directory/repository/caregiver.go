package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	directoryerrors "carebook/internal/directory/errors"
	"carebook/pkg/config"
	"carebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Caregivers"
)

type CaregiverRepository interface {
	Create(ctx context.Context, caregiver *model.Caregiver) error
	FindByID(ctx context.Context, id string) (*model.Caregiver, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Caregiver, error)
	Update(ctx context.Context, id string, caregiver *model.Caregiver) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type mongoCaregiverRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCaregiverRepository(cfg *config.Config) CaregiverRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCaregiverRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

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

func (r *mongoCaregiverRepository) Create(ctx context.Context, caregiver *model.Caregiver) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	caregiver.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, caregiver); err != nil {
		return fmt.Errorf("failed to create caregiver: %w", err)
	}
	return nil
}

func (r *mongoCaregiverRepository) FindByID(ctx context.Context, id string) (*model.Caregiver, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var caregiver model.Caregiver
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&caregiver)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, directoryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find caregiver: %w", err)
	}

	return &caregiver, nil
}

func (r *mongoCaregiverRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Caregiver, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "display_name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find caregivers: %w", err)
	}
	defer cursor.Close(ctx)

	var caregivers []*model.Caregiver
	if err = cursor.All(ctx, &caregivers); err != nil {
		return nil, fmt.Errorf("failed to decode caregivers: %w", err)
	}

	return caregivers, nil
}

func (r *mongoCaregiverRepository) Update(ctx context.Context, id string, caregiver *model.Caregiver) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"display_name":      caregiver.DisplayName,
			"specialties":       caregiver.Specialties,
			"hourly_rate_cents": caregiver.HourlyRateCents,
			"currency":          caregiver.Currency,
			"time_zone":         caregiver.TimeZone,
			"policy":            caregiver.Policy,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update caregiver: %w", err)
	}

	if result.MatchedCount == 0 {
		return directoryerrors.ErrNotFound
	}

	return nil
}

func (r *mongoCaregiverRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete caregiver: %w", err)
	}

	if result.DeletedCount == 0 {
		return directoryerrors.ErrNotFound
	}

	return nil
}

func (r *mongoCaregiverRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count caregivers: %w", err)
	}

	return count, nil
}
