package repositories

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teplatform/internal/database"
	"teplatform/internal/models"
	"teplatform/internal/utils"
)

// MaxAttempts is the hard ceiling of failed code submissions per record.
const MaxAttempts = 5

// VerificationRepository persists verification records. The mutating
// operations are all single-document conditional updates, so the
// lifecycle invariants hold even under concurrent submissions.
type VerificationRepository interface {
	Create(ctx context.Context, record *models.VerificationRecord) (*models.VerificationRecord, error)
	FindRequested(ctx context.Context, email string, purpose models.VerificationPurpose, newEmail string) (*models.VerificationRecord, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationRecord, error)
	HasActiveSince(ctx context.Context, email string, purpose models.VerificationPurpose, since time.Time) (bool, error)
	DeleteUnused(ctx context.Context, email string, purpose models.VerificationPurpose, newEmail string) error
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) (*models.VerificationRecord, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from models.VerificationStatus, set bson.M) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type verificationRepository struct {
	collection *mongo.Collection
}

func NewVerificationRepository(db database.Service) VerificationRepository {
	return &verificationRepository{collection: db.Database().Collection("verifications")}
}

func (r *verificationRepository) observe(queryType string, status *string) *prometheus.Timer {
	return prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, "verification", *status).Observe(v)
	}))
}

func (r *verificationRepository) Create(ctx context.Context, record *models.VerificationRecord) (*models.VerificationRecord, error) {
	status := "success"
	timer := r.observe("create", &status)
	defer timer.ObserveDuration()

	record.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("create", "verification").Inc()
		log.Error().Err(err).Str("email", record.Email).Msg("Failed to insert verification record")
		return nil, err
	}
	return record, nil
}

func activeKey(email string, purpose models.VerificationPurpose, newEmail string) bson.M {
	filter := bson.M{"email": email, "purpose": purpose}
	if newEmail != "" {
		filter["new_email"] = newEmail
	}
	return filter
}

// FindRequested returns the record still awaiting its code for the given
// key, or nil if none exists.
func (r *verificationRepository) FindRequested(ctx context.Context, email string, purpose models.VerificationPurpose, newEmail string) (*models.VerificationRecord, error) {
	status := "success"
	timer := r.observe("findRequested", &status)
	defer timer.ObserveDuration()

	filter := activeKey(email, purpose, newEmail)
	filter["status"] = models.StatusRequested

	var record models.VerificationRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("findRequested", "verification").Inc()
		return nil, err
	}
	return &record, nil
}

func (r *verificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationRecord, error) {
	status := "success"
	timer := r.observe("findById", &status)
	defer timer.ObserveDuration()

	var record models.VerificationRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("findById", "verification").Inc()
		return nil, err
	}
	return &record, nil
}

// HasActiveSince reports whether a live (requested or verified) record
// for the key was created after the given instant. Used for the resend
// cooldown.
func (r *verificationRepository) HasActiveSince(ctx context.Context, email string, purpose models.VerificationPurpose, since time.Time) (bool, error) {
	status := "success"
	timer := r.observe("hasActiveSince", &status)
	defer timer.ObserveDuration()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"email":      email,
		"purpose":    purpose,
		"status":     bson.M{"$in": bson.A{models.StatusRequested, models.StatusVerified}},
		"created_at": bson.M{"$gt": since},
	})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("hasActiveSince", "verification").Inc()
		return false, err
	}
	return count > 0, nil
}

// DeleteUnused removes every not-yet-accepted record for the key,
// enforcing the single-active-record invariant before a new issuance.
func (r *verificationRepository) DeleteUnused(ctx context.Context, email string, purpose models.VerificationPurpose, newEmail string) error {
	status := "success"
	timer := r.observe("deleteUnused", &status)
	defer timer.ObserveDuration()

	filter := activeKey(email, purpose, newEmail)
	filter["status"] = models.StatusRequested

	_, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("deleteUnused", "verification").Inc()
	}
	return err
}

// IncrementAttempts bumps the attempt counter in a single conditional
// update and returns the post-increment document. The filter requires
// status=requested and attempts below the ceiling, so two concurrent
// mismatches can never push a record past MaxAttempts. Returns nil when
// the condition no longer holds.
func (r *verificationRepository) IncrementAttempts(ctx context.Context, id primitive.ObjectID) (*models.VerificationRecord, error) {
	status := "success"
	timer := r.observe("incrementAttempts", &status)
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":      id,
		"status":   models.StatusRequested,
		"attempts": bson.M{"$lt": MaxAttempts},
	}
	update := bson.M{"$inc": bson.M{"attempts": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record models.VerificationRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("incrementAttempts", "verification").Inc()
		return nil, err
	}
	return &record, nil
}

// TransitionStatus applies set only if the record is still in the from
// status. The guard keeps status transitions forward-only; a false
// return means another request moved the record first.
func (r *verificationRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from models.VerificationStatus, set bson.M) (bool, error) {
	status := "success"
	timer := r.observe("transitionStatus", &status)
	defer timer.ObserveDuration()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("transitionStatus", "verification").Inc()
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// DeleteExpired sweeps every record past its code expiry. Best-effort
// maintenance; correctness does not depend on it because expiry is also
// checked lazily on access.
func (r *verificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	status := "success"
	timer := r.observe("deleteExpired", &status)
	defer timer.ObserveDuration()

	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues("deleteExpired", "verification").Inc()
		return 0, err
	}
	return result.DeletedCount, nil
}
