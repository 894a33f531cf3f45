package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"teplatform/internal/models"
	"teplatform/internal/repositories"
	"teplatform/internal/utils"
)

const (
	MaxAge = 86400 * 30
	IsProd = false
)

type AuthService interface {
	HandleOAuthLogin(ctx context.Context, u goth.User) (string, error)
}

type authService struct {
	userRepo repositories.UserRepository
	secret   []byte
}

func NewAuthService(userRepo repositories.UserRepository, secret []byte) AuthService {
	return &authService{userRepo: userRepo, secret: secret}
}

func InitializeGoth() {
	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	callbackURL := os.Getenv("OAUTH_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = "http://localhost:8080/api/auth/google/callback"
	}

	sessionKey := os.Getenv("SESSION_KEY")

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.MaxAge(MaxAge)

	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = IsProd
	store.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = store

	goth.UseProviders(
		google.New(googleClientID, googleClientSecret, callbackURL),
	)
	log.Info().Msg("Goth providers initialized")
}

// HandleOAuthLogin finds or creates the member behind an OAuth identity
// and returns an access token. OAuth members are created pre-verified;
// the provider already proved inbox ownership.
func (a *authService) HandleOAuthLogin(ctx context.Context, u goth.User) (string, error) {
	log.Info().Str("email", u.Email).Str("provider", u.Provider).Msg("Attempting to handle OAuth login")
	if u.Email == "" {
		log.Error().Msg("Missing email in OAuth user data")
		return "", errors.New("missing email")
	}

	email := strings.ToLower(u.Email)
	user, err := a.userRepo.FindMemberByEmail(ctx, email)
	if err != nil && err != mongo.ErrNoDocuments {
		log.Error().Err(err).Str("email", email).Msg("Error finding member by email")
		return "", errors.New("error finding user by email")
	}

	if user == nil {
		now := time.Now()
		newUser := &models.MemberUser{
			ID:            primitive.NewObjectID(),
			Email:         email,
			FirstName:     u.FirstName,
			LastName:      u.LastName,
			IsActive:      true,
			EmailVerified: true,
			Role:          models.RoleMember,
			GoogleID:      u.UserID,
			OAuthProvider: u.Provider,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := a.userRepo.CreateMember(ctx, newUser); err != nil {
			log.Error().Err(err).Str("email", email).Msg("Error creating member from OAuth login")
			return "", errors.New("error creating user")
		}
		user = newUser
		log.Info().Str("email", email).Str("user_id", user.ID.Hex()).Msg("New member created from OAuth login")
	}

	token, err := utils.GenerateAccessToken(a.secret, user.ID, int(user.RoleLevel()))
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Error generating access token")
		return "", errors.New("error generating token")
	}

	return token, nil
}
