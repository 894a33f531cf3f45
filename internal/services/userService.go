package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"teplatform/internal/metrics"
	"teplatform/internal/models"
	"teplatform/internal/repositories"
	"teplatform/internal/utils"
)

// UserService defines the interface for account-related business logic.
type UserService interface {
	RegisterMember(ctx context.Context, user *models.MemberUser) (*models.MemberUser, error)
	LoginMember(ctx context.Context, creds *models.Login) (string, error)
	LoginLead(ctx context.Context, creds *models.LeadLogin) (string, *models.PrivilegedUser, error)
	GetMemberProfile(ctx context.Context, userID primitive.ObjectID) (*models.MemberUser, error)
}

type userService struct {
	userRepo            repositories.UserRepository
	verificationService VerificationService
	secret              []byte
	totalMembersGauge   prometheus.Gauge
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, verificationService VerificationService, secret []byte) UserService {
	s := &userService{
		userRepo:            userRepo,
		verificationService: verificationService,
		secret:              secret,
		totalMembersGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "app_total_members",
			Help: "Total number of registered members.",
		}),
	}
	go s.updateTotalMembersPeriodically()
	return s
}

func (s *userService) updateTotalMembersPeriodically() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		count, err := s.userRepo.CountMembers(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error updating total members gauge")
		} else {
			s.totalMembersGauge.Set(float64(count))
		}
		cancel()
	}
}

// RegisterMember creates an unverified member account and emails it a
// registration code. The account cannot log in until the code is
// accepted.
func (s *userService) RegisterMember(ctx context.Context, user *models.MemberUser) (*models.MemberUser, error) {
	log.Debug().Str("email", user.Email).Msg("Attempting to register member")
	if user.Email == "" || user.Password == "" || user.FirstName == "" {
		log.Warn().Msg("Email, password and first name are required for registration")
		return nil, fmt.Errorf("email, password, and first name are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), 8)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password")
	}

	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(user.Email)
	user.Password = string(hashedPassword)
	user.Role = models.RoleMember
	user.IsActive = true
	user.EmailVerified = false
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if existing, err := s.userRepo.FindMemberByEmail(ctx, user.Email); err == nil && existing != nil {
		log.Warn().Str("email", user.Email).Msg("Email already registered")
		return nil, fmt.Errorf("email already exists")
	} else if err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}

	createdUser, err := s.userRepo.CreateMember(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("email", user.Email).Msg("Email already exists during member insertion")
			return nil, fmt.Errorf("email already exists")
		}
		return nil, err
	}

	// Delivery failure is not fatal to registration; the member can ask
	// for a resend.
	if err := s.verificationService.SendRegistrationCode(ctx, createdUser.Email); err != nil {
		log.Error().Err(err).Str("email", createdUser.Email).Msg("Failed to send registration code")
	}

	createdUser.Password = "" // Clear password before returning
	metrics.NewUsersTotal.Inc()
	log.Info().Str("user_id", createdUser.ID.Hex()).Str("email", createdUser.Email).Msg("Member registered successfully")
	return createdUser, nil
}

// LoginMember authenticates a member with email and password. Members
// must verify their email before they can log in.
func (s *userService) LoginMember(ctx context.Context, creds *models.Login) (string, error) {
	log.Debug().Str("email", creds.Email).Msg("Attempting member login")
	user, err := s.userRepo.FindMemberByEmail(ctx, strings.ToLower(creds.Email))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			return "", fmt.Errorf("invalid credentials")
		}
		log.Error().Err(err).Str("email", creds.Email).Msg("Error finding member for login")
		return "", fmt.Errorf("internal server error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("email", creds.Email).Msg("Invalid credentials (password mismatch) during login attempt")
		return "", fmt.Errorf("invalid credentials")
	}

	if !user.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("inactive user")
	}

	if !user.EmailVerified {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("email not verified")
	}

	token, err := utils.GenerateAccessToken(s.secret, user.ID, int(user.RoleLevel()))
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Could not generate token for member")
		return "", fmt.Errorf("could not generate token")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("Member logged in successfully")
	return token, nil
}

// LoginLead authenticates a lead or admin with username and lead token.
func (s *userService) LoginLead(ctx context.Context, creds *models.LeadLogin) (string, *models.PrivilegedUser, error) {
	log.Debug().Str("username", creds.Username).Msg("Attempting lead login")
	user, err := s.userRepo.FindPrivilegedByUsername(ctx, creds.Username)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			return "", nil, fmt.Errorf("invalid username or token")
		}
		return "", nil, fmt.Errorf("internal server error")
	}

	if user.RoleLevel() < models.RoleLead {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return "", nil, fmt.Errorf("lead access required")
	}

	if user.LeadToken == "" || user.LeadToken != creds.Token {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return "", nil, fmt.Errorf("invalid username or token")
	}

	if !user.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return "", nil, fmt.Errorf("inactive user")
	}

	token, err := utils.GenerateAccessToken(s.secret, user.ID, int(user.RoleLevel()))
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Could not generate token for lead")
		return "", nil, fmt.Errorf("could not generate token")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Str("role", user.RoleLevel().String()).Msg("Privileged user logged in successfully")
	return token, user, nil
}

func (s *userService) GetMemberProfile(ctx context.Context, userID primitive.ObjectID) (*models.MemberUser, error) {
	user, err := s.userRepo.FindMemberByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user not found")
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to fetch member profile")
		return nil, fmt.Errorf("failed to fetch user profile")
	}

	user.Password = "" // Clear password before returning
	return user, nil
}
