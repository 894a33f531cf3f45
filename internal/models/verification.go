package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationPurpose selects which flow a verification record serves.
type VerificationPurpose string

const (
	PurposeRegistration  VerificationPurpose = "registration"
	PurposeEmailChange   VerificationPurpose = "email_change"
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// VerificationStatus is the lifecycle state of a record. Transitions only
// move forward: requested -> verified -> completed, or requested|verified
// -> expired|locked. The terminal states are never left.
type VerificationStatus string

const (
	StatusRequested VerificationStatus = "requested"
	StatusVerified  VerificationStatus = "verified"
	StatusCompleted VerificationStatus = "completed"
	StatusExpired   VerificationStatus = "expired"
	StatusLocked    VerificationStatus = "locked"
)

// Terminal reports whether no further mutation of a record in this
// status is allowed.
func (s VerificationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusLocked
}

// VerificationRecord is one code issuance, stored in "verifications".
// At most one record with status requested or verified exists per
// (email, purpose[, new_email]) key.
type VerificationRecord struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email            string              `json:"email" bson:"email"`
	UserID           primitive.ObjectID  `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Purpose          VerificationPurpose `json:"purpose" bson:"purpose"`
	NewEmail         string              `json:"new_email,omitempty" bson:"new_email,omitempty"`
	Code             string              `json:"-" bson:"code"`
	Status           VerificationStatus  `json:"status" bson:"status"`
	Attempts         int                 `json:"attempts" bson:"attempts"`
	CreatedAt        time.Time           `json:"created_at" bson:"created_at"`
	ExpiresAt        time.Time           `json:"expires_at" bson:"expires_at"`
	VerifiedAt       *time.Time          `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	SessionExpiresAt *time.Time          `json:"session_expires_at,omitempty" bson:"session_expires_at,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}
