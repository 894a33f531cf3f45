package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"teplatform/internal/models"
	"teplatform/internal/repositories"
)

// fakeVerificationRepo mirrors the conditional-update semantics of the
// Mongo repository on an in-memory map.
type fakeVerificationRepo struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]*models.VerificationRecord
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{records: make(map[primitive.ObjectID]*models.VerificationRecord)}
}

func (f *fakeVerificationRepo) Create(ctx context.Context, record *models.VerificationRecord) (*models.VerificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record.ID = primitive.NewObjectID()
	stored := *record
	f.records[record.ID] = &stored
	return record, nil
}

func (f *fakeVerificationRepo) matchesKey(r *models.VerificationRecord, email string, purpose models.VerificationPurpose, newEmail string) bool {
	if r.Email != email || r.Purpose != purpose {
		return false
	}
	if newEmail != "" && r.NewEmail != newEmail {
		return false
	}
	return true
}

func (f *fakeVerificationRepo) FindRequested(ctx context.Context, email string, purpose models.VerificationPurpose, newEmail string) (*models.VerificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if f.matchesKey(r, email, purpose, newEmail) && r.Status == models.StatusRequested {
			rec := *r
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeVerificationRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.VerificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	rec := *r
	return &rec, nil
}

func (f *fakeVerificationRepo) HasActiveSince(ctx context.Context, email string, purpose models.VerificationPurpose, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if r.Email == email && r.Purpose == purpose &&
			(r.Status == models.StatusRequested || r.Status == models.StatusVerified) &&
			r.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVerificationRepo) DeleteUnused(ctx context.Context, email string, purpose models.VerificationPurpose, newEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, r := range f.records {
		if f.matchesKey(r, email, purpose, newEmail) && r.Status == models.StatusRequested {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakeVerificationRepo) IncrementAttempts(ctx context.Context, id primitive.ObjectID) (*models.VerificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.records[id]
	if !ok || r.Status != models.StatusRequested || r.Attempts >= repositories.MaxAttempts {
		return nil, nil
	}
	r.Attempts++
	rec := *r
	return &rec, nil
}

func (f *fakeVerificationRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from models.VerificationStatus, set bson.M) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.records[id]
	if !ok || r.Status != from {
		return false, nil
	}
	for k, v := range set {
		switch k {
		case "status":
			r.Status = v.(models.VerificationStatus)
		case "verified_at":
			t := v.(time.Time)
			r.VerifiedAt = &t
		case "completed_at":
			t := v.(time.Time)
			r.CompletedAt = &t
		case "session_expires_at":
			t := v.(time.Time)
			r.SessionExpiresAt = &t
		}
	}
	return true, nil
}

func (f *fakeVerificationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	now := time.Now()
	for id, r := range f.records {
		if r.ExpiresAt.Before(now) {
			delete(f.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// mutate edits a stored record in place, for aging timestamps in tests.
func (f *fakeVerificationRepo) mutate(id primitive.ObjectID, fn func(*models.VerificationRecord)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		fn(r)
	}
}

func (f *fakeVerificationRepo) only(t *testing.T) *models.VerificationRecord {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.records, 1, "expected exactly one verification record")
	for _, r := range f.records {
		rec := *r
		return &rec
	}
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	members map[primitive.ObjectID]*models.MemberUser
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{members: make(map[primitive.ObjectID]*models.MemberUser)}
}

func (f *fakeUserRepo) CreateMember(ctx context.Context, user *models.MemberUser) (*models.MemberUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	stored := *user
	f.members[user.ID] = &stored
	return user, nil
}

func (f *fakeUserRepo) FindMemberByEmail(ctx context.Context, email string) (*models.MemberUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.members {
		if u.Email == email {
			member := *u
			return &member, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) FindMemberByID(ctx context.Context, userID primitive.ObjectID) (*models.MemberUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.members[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	member := *u
	return &member, nil
}

func (f *fakeUserRepo) UpdateMember(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.members[userID]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	for k, v := range updateFields {
		switch k {
		case "email":
			u.Email = v.(string)
		case "email_verified":
			u.EmailVerified = v.(bool)
		case "password":
			u.Password = v.(string)
		case "updated_at":
			u.UpdatedAt = v.(time.Time)
		}
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeUserRepo) FindPrivilegedByUsername(ctx context.Context, username string) (*models.PrivilegedUser, error) {
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) CountMembers(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.members)), nil
}

type fakeEmailService struct {
	mu        sync.Mutex
	failNext  bool
	lastTo    string
	lastCode  string
	lastToken string
	sent      int
}

func (f *fakeEmailService) record(to, code, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("smtp: connection refused")
	}
	f.lastTo = to
	f.lastCode = code
	f.lastToken = token
	f.sent++
	return nil
}

func (f *fakeEmailService) SendVerificationCode(to, code string) error {
	return f.record(to, code, "")
}

func (f *fakeEmailService) SendEmailChangeCode(to, code string) error {
	return f.record(to, code, "")
}

func (f *fakeEmailService) SendPasswordResetCode(to, code, token string) error {
	return f.record(to, code, token)
}

var testSecret = []byte("test-secret-key")

func newTestService(t *testing.T) (*verificationService, *fakeVerificationRepo, *fakeUserRepo, *fakeEmailService) {
	t.Helper()
	vrepo := newFakeVerificationRepo()
	urepo := newFakeUserRepo()
	mail := &fakeEmailService{}
	svc := NewVerificationService(vrepo, urepo, mail, testSecret).(*verificationService)
	return svc, vrepo, urepo, mail
}

func addMember(t *testing.T, urepo *fakeUserRepo, email string, verified bool) *models.MemberUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), 8)
	require.NoError(t, err)
	user := &models.MemberUser{
		ID:            primitive.NewObjectID(),
		Email:         email,
		FirstName:     "Alice",
		Password:      string(hash),
		IsActive:      true,
		EmailVerified: verified,
		Role:          models.RoleMember,
	}
	_, err = urepo.CreateMember(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestEmailVerificationFlow(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.SendRegistrationCode(ctx, "alice@example.com"))
	require.Len(t, mail.lastCode, 6)

	record := vrepo.only(t)
	assert.Equal(t, models.StatusRequested, record.Status)
	assert.Equal(t, 0, record.Attempts)
	assert.WithinDuration(t, time.Now().Add(CodeTTL), record.ExpiresAt, 2*time.Second)

	// Wrong code first: attempt counted, remaining reported.
	err := svc.VerifyEmail(ctx, "alice@example.com", "000000")
	var invalidCode *InvalidCodeError
	require.ErrorAs(t, err, &invalidCode)
	assert.Equal(t, 4, invalidCode.RemainingAttempts)

	require.NoError(t, svc.VerifyEmail(ctx, "alice@example.com", mail.lastCode))

	user, err := urepo.FindMemberByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)

	record = vrepo.only(t)
	assert.Equal(t, models.StatusCompleted, record.Status)
	assert.NotNil(t, record.VerifiedAt)
	assert.NotNil(t, record.CompletedAt)

	// The record is consumed; nothing is left in requested state.
	remaining, err := vrepo.FindRequested(ctx, "alice@example.com", models.PurposeRegistration, "")
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestVerifyEmailUnknownAccount(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.VerifyEmail(context.Background(), "ghost@example.com", "123456")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	err = svc.SendRegistrationCode(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVerifyEmailNoActiveCode(t *testing.T) {
	svc, _, urepo, _ := newTestService(t)
	addMember(t, urepo, "alice@example.com", false)

	err := svc.VerifyEmail(context.Background(), "alice@example.com", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiredCodeRejectedEvenIfCorrect(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	record := vrepo.only(t)
	vrepo.mutate(record.ID, func(r *models.VerificationRecord) {
		r.ExpiresAt = time.Now().Add(-time.Minute)
	})

	_, err := svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, mail.lastToken)
	assert.ErrorIs(t, err, ErrExpired)

	record = vrepo.only(t)
	assert.Equal(t, models.StatusExpired, record.Status)
	assert.NotNil(t, record.CompletedAt)
	// Expiry is checked before the equality branch, so no attempt was counted.
	assert.Equal(t, 0, record.Attempts)
}

func TestAttemptCeilingLocksRecord(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))

	for i := 1; i <= 4; i++ {
		_, err := svc.VerifyResetCode(ctx, "alice@example.com", "000000", mail.lastToken)
		var invalidCode *InvalidCodeError
		require.ErrorAs(t, err, &invalidCode)
		assert.Equal(t, repositories.MaxAttempts-i, invalidCode.RemainingAttempts)
	}

	// Fifth miss locks the record.
	_, err := svc.VerifyResetCode(ctx, "alice@example.com", "000000", mail.lastToken)
	var invalidCode *InvalidCodeError
	require.ErrorAs(t, err, &invalidCode)
	assert.Equal(t, 0, invalidCode.RemainingAttempts)

	record := vrepo.only(t)
	assert.Equal(t, models.StatusLocked, record.Status)
	assert.Equal(t, repositories.MaxAttempts, record.Attempts)

	// Even the correct code is refused now.
	_, err = svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, mail.lastToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResendCooldown(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.SendRegistrationCode(ctx, "alice@example.com"))
	firstCode := mail.lastCode

	err := svc.SendRegistrationCode(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrTooManyRequests)

	// The first code is untouched and still the only one.
	record := vrepo.only(t)
	assert.Equal(t, firstCode, record.Code)
	assert.Equal(t, models.StatusRequested, record.Status)
}

func TestResendReplacesPreviousCode(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	firstCode := mail.lastCode
	firstToken := mail.lastToken
	firstRecord := vrepo.only(t)

	// Age the first record past the cooldown, then resend.
	vrepo.mutate(firstRecord.ID, func(r *models.VerificationRecord) {
		r.CreatedAt = time.Now().Add(-2 * time.Minute)
	})
	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	require.Equal(t, 2, mail.sent)

	// The first record was deleted on resend, so its token dead-ends.
	_, err := svc.VerifyResetCode(ctx, "alice@example.com", firstCode, firstToken)
	assert.ErrorIs(t, err, ErrNotFound)

	// The first code is useless against the fresh record too.
	_, err = svc.VerifyResetCode(ctx, "alice@example.com", firstCode, mail.lastToken)
	if firstCode != mail.lastCode {
		var invalidCode *InvalidCodeError
		assert.ErrorAs(t, err, &invalidCode)
	}

	// The fresh code succeeds.
	sessionToken, err := svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, mail.lastToken)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionToken)
}

func TestPasswordResetFullFlow(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	user := addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	assert.Equal(t, "alice@example.com", mail.lastTo)
	require.Len(t, mail.lastCode, 6)
	require.NotEmpty(t, mail.lastToken)

	sessionToken, err := svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, mail.lastToken)
	require.NoError(t, err)

	record := vrepo.only(t)
	assert.Equal(t, models.StatusVerified, record.Status)
	require.NotNil(t, record.SessionExpiresAt)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), *record.SessionExpiresAt, 2*time.Second)

	// The code is single-use: resubmitting it fails.
	_, err = svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, mail.lastToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.CompletePasswordReset(ctx, sessionToken, "longenough1"))

	updated, err := urepo.FindMemberByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("longenough1")))
	assert.True(t, updated.EmailVerified)

	record = vrepo.only(t)
	assert.Equal(t, models.StatusCompleted, record.Status)

	// Replaying the session token is terminal.
	err = svc.CompletePasswordReset(ctx, sessionToken, "longenough2")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteResetRejectsRequestStageToken(t *testing.T) {
	svc, _, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))

	// The stage-1 token is well-formed and unexpired, but the wrong stage.
	err := svc.CompletePasswordReset(ctx, mail.lastToken, "longenough1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyResetCodeTokenChecks(t *testing.T) {
	svc, _, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)
	addMember(t, urepo, "bob@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))

	_, err := svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Token bound to alice cannot be replayed for bob.
	_, err = svc.VerifyResetCode(ctx, "bob@example.com", mail.lastCode, mail.lastToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetSessionExpiry(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	sessionToken, err := svc.VerifyResetCode(ctx, "alice@example.com", mail.lastCode, mail.lastToken)
	require.NoError(t, err)

	record := vrepo.only(t)
	vrepo.mutate(record.ID, func(r *models.VerificationRecord) {
		past := time.Now().Add(-time.Minute)
		r.SessionExpiresAt = &past
	})

	err = svc.CompletePasswordReset(ctx, sessionToken, "longenough1")
	assert.ErrorIs(t, err, ErrSessionExpired)

	record = vrepo.only(t)
	assert.Equal(t, models.StatusExpired, record.Status)
}

func TestEmailChangeFlow(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	user := addMember(t, urepo, "alice@example.com", true)

	err := svc.RequestEmailChange(ctx, user.ID, "New.Alice@Example.com", "wrongpassword")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect password")

	err = svc.RequestEmailChange(ctx, user.ID, "alice@example.com", "oldpassword")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")

	require.NoError(t, svc.RequestEmailChange(ctx, user.ID, "New.Alice@Example.com", "oldpassword"))
	assert.Equal(t, "New.Alice@Example.com", mail.lastTo)

	record := vrepo.only(t)
	assert.Equal(t, models.PurposeEmailChange, record.Purpose)
	assert.Equal(t, "alice@example.com", record.Email)
	assert.Equal(t, "New.Alice@Example.com", record.NewEmail)

	require.NoError(t, svc.VerifyEmailChange(ctx, user.ID, "New.Alice@Example.com", mail.lastCode))

	updated, err := urepo.FindMemberByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.alice@example.com", updated.Email)
	assert.True(t, updated.EmailVerified)
}

func TestDeliveryFailureKeepsRecordValid(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	mail.failNext = true
	err := svc.RequestPasswordReset(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	// The record outlives the failed send and can be retried after the
	// cooldown via a fresh request.
	record := vrepo.only(t)
	assert.Equal(t, models.StatusRequested, record.Status)
}

func TestCleanupExpiredSweep(t *testing.T) {
	svc, vrepo, urepo, _ := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)
	addMember(t, urepo, "bob@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "bob@example.com"))

	var aliceRecord primitive.ObjectID
	vrepo.mu.Lock()
	for id, r := range vrepo.records {
		if r.Email == "alice@example.com" {
			aliceRecord = id
		}
	}
	vrepo.mu.Unlock()
	vrepo.mutate(aliceRecord, func(r *models.VerificationRecord) {
		r.ExpiresAt = time.Now().Add(-time.Hour)
	})

	deleted, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestConcurrentMismatchesNeverExceedCeiling(t *testing.T) {
	svc, vrepo, urepo, mail := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.VerifyResetCode(ctx, "alice@example.com", "000000", mail.lastToken)
		}()
	}
	wg.Wait()

	record := vrepo.only(t)
	assert.LessOrEqual(t, record.Attempts, repositories.MaxAttempts)
	assert.Equal(t, models.StatusLocked, record.Status)
}

func TestConcurrentResendsKeepSingleActiveRecord(t *testing.T) {
	svc, vrepo, urepo, _ := newTestService(t)
	ctx := context.Background()
	addMember(t, urepo, "alice@example.com", false)

	// Disable the cooldown so every request reaches the create path.
	svc.cooldowns[models.PurposePasswordReset] = 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.RequestPasswordReset(ctx, "alice@example.com")
		}()
	}
	wg.Wait()

	vrepo.mu.Lock()
	active := 0
	for _, r := range vrepo.records {
		if r.Status == models.StatusRequested {
			active++
		}
	}
	vrepo.mu.Unlock()
	assert.Equal(t, 1, active)
}

func TestCompleteResetUnknownToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.CompletePasswordReset(context.Background(), "garbage", "longenough1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInvalidCodeErrorMessage(t *testing.T) {
	e := &InvalidCodeError{RemainingAttempts: 3}
	assert.Contains(t, e.Error(), "3 attempts remaining")

	e = &InvalidCodeError{RemainingAttempts: 0}
	assert.Contains(t, e.Error(), "maximum attempts exceeded")

	assert.False(t, errors.Is(e, ErrTooManyAttempts))
}
