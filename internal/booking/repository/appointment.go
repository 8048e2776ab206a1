package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingerrors "carebook/internal/booking/errors"
	"carebook/pkg/config"
	"carebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AppointmentCollectionName = "Appointments"
)

// AppointmentRepository persists appointments. Appointments are append-plus-
// transition: documents are never deleted, and every status change goes
// through the version-conditional UpdateStatus.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindByCaregiver(ctx context.Context, caregiverID string, limit int, offset int64) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, appt *model.Appointment, next model.Status, set bson.M) (*model.Appointment, error)
	FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error)
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(AppointmentCollectionName),
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

func (r *mongoAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1

	if _, err := r.collection.InsertOne(ctx, appt); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var appt model.Appointment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appt, nil
}

func (r *mongoAppointmentRepository) FindByCaregiver(ctx context.Context, caregiverID string, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"caregiver_id": caregiverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []*model.Appointment
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appts, nil
}

// UpdateStatus moves appt to next if and only if the stored document still
// carries appt's status and version. Extra fields to set ride along in set.
// A zero-match result is disambiguated with a follow-up read: a missing
// document is not-found, an existing one is a version miss.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, appt *model.Appointment, next model.Status, set bson.M) (*model.Appointment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":     appt.ID,
		"status":  appt.Status,
		"version": appt.Version,
	}

	if set == nil {
		set = bson.M{}
	}
	set["status"] = next
	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Appointment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.FindByID(ctx, appt.ID); findErr != nil {
				return nil, findErr
			}
			return nil, bookingerrors.ErrVersionMismatch
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	return &updated, nil
}

// FindConfirmedEndedBefore feeds the completion sweeper.
func (r *mongoAppointmentRepository) FindConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Appointment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":   model.StatusConfirmed,
		"end_time": bson.M{"$lte": cutoff},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "end_time", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ended appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []*model.Appointment
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode ended appointments: %w", err)
	}

	return appts, nil
}
