package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"teplatform/internal/metrics"
	"teplatform/internal/models"
	"teplatform/internal/repositories"
	"teplatform/internal/utils"
)

const (
	// CodeTTL is how long an issued code stays valid.
	CodeTTL = 15 * time.Minute
	// SessionTTL is how long the second-stage reset window stays open
	// after a code is accepted.
	SessionTTL = 15 * time.Minute
	// DefaultCooldown is the minimum gap between two code requests for
	// the same subject and purpose.
	DefaultCooldown = 90 * time.Second
)

// VerificationService owns the verification-code lifecycle for
// registration, email changes and password resets.
type VerificationService interface {
	SendRegistrationCode(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	RequestEmailChange(ctx context.Context, userID primitive.ObjectID, newEmail, password string) error
	VerifyEmailChange(ctx context.Context, userID primitive.ObjectID, newEmail, code string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code, token string) (string, error)
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type verificationService struct {
	verificationRepo repositories.VerificationRepository
	userRepo         repositories.UserRepository
	emailService     EmailService
	secret           []byte

	// Cooldown per purpose. The source applied the cooldown only to
	// password resets; keeping this per-purpose lets deployments match
	// either behavior.
	cooldowns map[models.VerificationPurpose]time.Duration

	// Serializes delete-then-insert per (email, purpose) so two
	// concurrent resends cannot create two live records.
	mu           sync.Mutex
	subjectLocks map[string]*sync.Mutex
}

func NewVerificationService(verificationRepo repositories.VerificationRepository, userRepo repositories.UserRepository, emailService EmailService, secret []byte) VerificationService {
	s := &verificationService{
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		emailService:     emailService,
		secret:           secret,
		cooldowns: map[models.VerificationPurpose]time.Duration{
			models.PurposeRegistration:  DefaultCooldown,
			models.PurposeEmailChange:   DefaultCooldown,
			models.PurposePasswordReset: DefaultCooldown,
		},
		subjectLocks: make(map[string]*sync.Mutex),
	}
	go s.sweepExpiredPeriodically()
	return s
}

func (s *verificationService) subjectLock(email string, purpose models.VerificationPurpose) *sync.Mutex {
	key := email + "|" + string(purpose)

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.subjectLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.subjectLocks[key] = l
	}
	return l
}

// createCode issues a fresh record for the key, replacing any unused
// predecessor. Runs under the per-subject lock.
func (s *verificationService) createCode(ctx context.Context, email string, purpose models.VerificationPurpose, userID primitive.ObjectID, newEmail string) (*models.VerificationRecord, error) {
	l := s.subjectLock(email, purpose)
	l.Lock()
	defer l.Unlock()

	now := time.Now()

	if cooldown := s.cooldowns[purpose]; cooldown > 0 {
		active, err := s.verificationRepo.HasActiveSince(ctx, email, purpose, now.Add(-cooldown))
		if err != nil {
			return nil, fmt.Errorf("failed to check cooldown: %w", err)
		}
		if active {
			return nil, ErrTooManyRequests
		}
	}

	if err := s.verificationRepo.DeleteUnused(ctx, email, purpose, newEmail); err != nil {
		return nil, fmt.Errorf("failed to clear previous codes: %w", err)
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate verification code")
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	record := &models.VerificationRecord{
		Email:     email,
		UserID:    userID,
		Purpose:   purpose,
		NewEmail:  newEmail,
		Code:      code,
		Status:    models.StatusRequested,
		Attempts:  0,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
	}

	record, err = s.verificationRepo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	metrics.VerificationCodesIssuedTotal.WithLabelValues(string(purpose)).Inc()
	log.Info().Str("email", email).Str("purpose", string(purpose)).Msg("Verification code issued")
	return record, nil
}

// checkCode runs the shared validation for a submitted code. The order
// is a hard contract: expiry, then attempt ceiling, then equality. On a
// match the record is moved requested -> verified with the given extra
// fields set.
func (s *verificationService) checkCode(ctx context.Context, record *models.VerificationRecord, code string, verifiedSet bson.M) error {
	now := time.Now()
	purpose := string(record.Purpose)

	if now.After(record.ExpiresAt) {
		_, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusRequested, bson.M{
			"status":       models.StatusExpired,
			"completed_at": now,
		})
		if err != nil {
			return fmt.Errorf("failed to expire verification record: %w", err)
		}
		metrics.VerificationAttemptsTotal.WithLabelValues(purpose, "expired").Inc()
		return ErrExpired
	}

	if record.Attempts >= repositories.MaxAttempts {
		_, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusRequested, bson.M{
			"status":       models.StatusLocked,
			"completed_at": now,
		})
		if err != nil {
			return fmt.Errorf("failed to lock verification record: %w", err)
		}
		metrics.VerificationAttemptsTotal.WithLabelValues(purpose, "locked").Inc()
		return ErrTooManyAttempts
	}

	if code != record.Code {
		updated, err := s.verificationRepo.IncrementAttempts(ctx, record.ID)
		if err != nil {
			return fmt.Errorf("failed to count attempt: %w", err)
		}
		if updated == nil {
			// Another submission consumed, locked or expired the record
			// between our read and the increment.
			return ErrNotFound
		}
		remaining := repositories.MaxAttempts - updated.Attempts
		if remaining <= 0 {
			_, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusRequested, bson.M{
				"status":       models.StatusLocked,
				"completed_at": time.Now(),
			})
			if err != nil {
				return fmt.Errorf("failed to lock verification record: %w", err)
			}
			metrics.VerificationAttemptsTotal.WithLabelValues(purpose, "locked").Inc()
			return &InvalidCodeError{RemainingAttempts: 0}
		}
		metrics.VerificationAttemptsTotal.WithLabelValues(purpose, "mismatch").Inc()
		return &InvalidCodeError{RemainingAttempts: remaining}
	}

	set := bson.M{
		"status":      models.StatusVerified,
		"verified_at": now,
	}
	for k, v := range verifiedSet {
		set[k] = v
	}
	moved, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusRequested, set)
	if err != nil {
		return fmt.Errorf("failed to accept verification code: %w", err)
	}
	if !moved {
		// A concurrent submission won; the code is single-use.
		return ErrNotFound
	}
	metrics.VerificationAttemptsTotal.WithLabelValues(purpose, "accepted").Inc()
	return nil
}

func (s *verificationService) SendRegistrationCode(ctx context.Context, email string) error {
	user, err := s.userRepo.FindMemberByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user.EmailVerified {
		return fmt.Errorf("email is already verified")
	}

	record, err := s.createCode(ctx, email, models.PurposeRegistration, user.ID, "")
	if err != nil {
		return err
	}

	if err := s.emailService.SendVerificationCode(email, record.Code); err != nil {
		metrics.VerificationEmailFailuresTotal.Inc()
		log.Error().Err(err).Str("email", email).Msg("Failed to send verification email")
		return ErrDeliveryFailed
	}
	return nil
}

func (s *verificationService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.userRepo.FindMemberByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	record, err := s.verificationRepo.FindRequested(ctx, email, models.PurposeRegistration, "")
	if err != nil {
		return fmt.Errorf("failed to look up verification code: %w", err)
	}
	if record == nil {
		return ErrNotFound
	}

	if err := s.checkCode(ctx, record, code, nil); err != nil {
		return err
	}

	if _, err := s.userRepo.UpdateMember(ctx, user.ID, bson.M{"email_verified": true, "updated_at": time.Now()}); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	// The email flow has no second stage; close the record in the same step.
	if _, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusVerified, bson.M{
		"status":       models.StatusCompleted,
		"completed_at": time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to close verification record: %w", err)
	}

	log.Info().Str("email", email).Msg("Email verified")
	return nil
}

func (s *verificationService) RequestEmailChange(ctx context.Context, userID primitive.ObjectID, newEmail, password string) error {
	user, err := s.userRepo.FindMemberByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return fmt.Errorf("incorrect password")
	}

	if strings.EqualFold(newEmail, user.Email) {
		return fmt.Errorf("new email must be different from current email")
	}

	existing, err := s.userRepo.FindMemberByEmail(ctx, newEmail)
	if err != nil && err != mongo.ErrNoDocuments {
		return fmt.Errorf("failed to check email availability: %w", err)
	}
	if existing != nil && existing.ID != user.ID {
		return fmt.Errorf("this email address is already in use")
	}

	record, err := s.createCode(ctx, user.Email, models.PurposeEmailChange, user.ID, newEmail)
	if err != nil {
		return err
	}

	// The code goes to the address being claimed, not the current one.
	if err := s.emailService.SendEmailChangeCode(newEmail, record.Code); err != nil {
		metrics.VerificationEmailFailuresTotal.Inc()
		log.Error().Err(err).Str("email", newEmail).Msg("Failed to send email-change code")
		return ErrDeliveryFailed
	}
	return nil
}

func (s *verificationService) VerifyEmailChange(ctx context.Context, userID primitive.ObjectID, newEmail, code string) error {
	user, err := s.userRepo.FindMemberByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	record, err := s.verificationRepo.FindRequested(ctx, user.Email, models.PurposeEmailChange, newEmail)
	if err != nil {
		return fmt.Errorf("failed to look up verification code: %w", err)
	}
	if record == nil {
		return ErrNotFound
	}

	if err := s.checkCode(ctx, record, code, nil); err != nil {
		return err
	}

	if _, err := s.userRepo.UpdateMember(ctx, user.ID, bson.M{
		"email":          strings.ToLower(newEmail),
		"email_verified": true,
		"updated_at":     time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}

	if _, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusVerified, bson.M{
		"status":       models.StatusCompleted,
		"completed_at": time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to close verification record: %w", err)
	}

	log.Info().Str("user_id", user.ID.Hex()).Str("new_email", newEmail).Msg("Email address changed")
	return nil
}

func (s *verificationService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindMemberByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	record, err := s.createCode(ctx, email, models.PurposePasswordReset, user.ID, "")
	if err != nil {
		return err
	}

	// The request-stage token travels only inside the email link, never
	// in an HTTP response body.
	token, err := utils.GenerateResetToken(s.secret, email, record.ID, utils.StageRequest, CodeTTL)
	if err != nil {
		return fmt.Errorf("failed to mint reset token: %w", err)
	}

	if err := s.emailService.SendPasswordResetCode(email, record.Code, token); err != nil {
		metrics.VerificationEmailFailuresTotal.Inc()
		log.Error().Err(err).Str("email", email).Msg("Failed to send password reset email")
		return ErrDeliveryFailed
	}
	return nil
}

func (s *verificationService) VerifyResetCode(ctx context.Context, email, code, token string) (string, error) {
	claims, err := utils.ParseResetToken(s.secret, token)
	if err != nil || claims.Stage != utils.StageRequest || !strings.EqualFold(claims.Subject, email) {
		return "", ErrInvalidToken
	}

	recordID, err := primitive.ObjectIDFromHex(claims.RecordID)
	if err != nil {
		return "", ErrInvalidToken
	}

	record, err := s.verificationRepo.FindByID(ctx, recordID)
	if err != nil {
		return "", fmt.Errorf("failed to look up verification record: %w", err)
	}
	if record == nil || record.Status != models.StatusRequested {
		return "", ErrNotFound
	}

	now := time.Now()
	if err := s.checkCode(ctx, record, code, bson.M{"session_expires_at": now.Add(SessionTTL)}); err != nil {
		return "", err
	}

	sessionToken, err := utils.GenerateResetToken(s.secret, email, record.ID, utils.StageVerified, SessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to mint session token: %w", err)
	}

	log.Info().Str("email", email).Msg("Password reset code accepted")
	return sessionToken, nil
}

func (s *verificationService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := utils.ParseResetToken(s.secret, token)
	if err != nil || claims.Stage != utils.StageVerified {
		return ErrInvalidToken
	}

	recordID, err := primitive.ObjectIDFromHex(claims.RecordID)
	if err != nil {
		return ErrInvalidToken
	}

	record, err := s.verificationRepo.FindByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("failed to look up verification record: %w", err)
	}
	if record == nil || record.Status != models.StatusVerified {
		return ErrInvalidState
	}

	now := time.Now()
	if record.SessionExpiresAt == nil || now.After(*record.SessionExpiresAt) {
		if _, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusVerified, bson.M{
			"status":       models.StatusExpired,
			"completed_at": now,
		}); err != nil {
			return fmt.Errorf("failed to expire reset session: %w", err)
		}
		return ErrSessionExpired
	}

	user, err := s.userRepo.FindMemberByID(ctx, record.UserID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), 8)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Completing a reset proves ownership of the inbox, so the email is
	// treated as verified as well.
	if _, err := s.userRepo.UpdateMember(ctx, user.ID, bson.M{
		"password":       string(hashedPassword),
		"email_verified": true,
		"updated_at":     now,
	}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	moved, err := s.verificationRepo.TransitionStatus(ctx, record.ID, models.StatusVerified, bson.M{
		"status":       models.StatusCompleted,
		"completed_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to close verification record: %w", err)
	}
	if !moved {
		return ErrInvalidState
	}

	metrics.PasswordResetsCompletedTotal.Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("Password reset completed")
	return nil
}

func (s *verificationService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.verificationRepo.DeleteExpired(ctx)
}

func (s *verificationService) sweepExpiredPeriodically() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		deleted, err := s.CleanupExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to sweep expired verification records")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("Swept expired verification records")
		}
		cancel()
	}
}
