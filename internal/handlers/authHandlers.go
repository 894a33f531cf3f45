package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"

	"teplatform/internal/models"
	"teplatform/internal/services"
	"teplatform/internal/utils"
)

type AuthHandler struct {
	authService         services.AuthService
	userService         services.UserService
	verificationService services.VerificationService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService, verificationService services.VerificationService) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		userService:         userService,
		verificationService: verificationService,
	}
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetVerify struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Token string `json:"token"`
}

type passwordResetComplete struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.MemberUser

	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Error().Err(err).Msg("Invalid user data input for Register")
		utils.SendJSONError(w, "Invalid user data input: "+err.Error(), http.StatusBadRequest)
		return
	}

	registeredUser, err := a.userService.RegisterMember(r.Context(), &user)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if strings.Contains(err.Error(), "required") {
			statusCode = http.StatusBadRequest
		} else if strings.Contains(err.Error(), "already exists") {
			statusCode = http.StatusConflict
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, registeredUser)
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Login

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Login")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, err := a.userService.LoginMember(r.Context(), &creds)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if strings.Contains(err.Error(), "invalid credentials") || strings.Contains(err.Error(), "inactive") {
			statusCode = http.StatusUnauthorized
		} else if strings.Contains(err.Error(), "not verified") {
			statusCode = http.StatusForbidden
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *AuthHandler) LeadLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.LeadLogin

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Error().Err(err).Msg("Invalid request body for LeadLogin")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, user, err := a.userService.LoginLead(r.Context(), &creds)
	if err != nil {
		statusCode := http.StatusUnauthorized
		if strings.Contains(err.Error(), "access required") {
			statusCode = http.StatusForbidden
		} else if strings.Contains(err.Error(), "internal") {
			statusCode = http.StatusInternalServerError
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID.Hex(),
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// ForgotPassword starts the reset flow. The continuation token travels
// only via the emailed link, so the response never carries it.
func (a *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.verificationService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password reset code sent to your email. Please check your inbox.",
	})
}

func (a *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req passwordResetVerify

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sessionToken, err := a.verificationService.VerifyResetCode(r.Context(), req.Email, req.Code, req.Token)
	if err != nil {
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   sessionToken,
	})
}

func (a *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordResetComplete

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < 8 {
		utils.SendJSONError(w, "Password must be at least 8 characters long", http.StatusBadRequest)
		return
	}

	if err := a.verificationService.CompletePasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated successfully. You can now log in.",
	})
}

func (a *AuthHandler) ProviderAuth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	provider := vars["provider"]

	if provider == "" {
		log.Error().Msg("Provider not specified in URL")
		http.Error(w, "Provider not specified", http.StatusBadRequest)
		return
	}

	log.Info().Str("provider", provider).Msg("Initiating authentication with provider")

	gothic.BeginAuthHandler(w, r)
}

func (a *AuthHandler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Provider callback initiated")

	oauthUser, err := gothic.CompleteUserAuth(w, r)

	if err != nil {
		log.Error().Err(err).Msg("Error completing user authentication")
		http.Redirect(w, r, "/api/auth/error", http.StatusTemporaryRedirect)
		return
	}

	token, err := a.authService.HandleOAuthLogin(r.Context(), oauthUser)

	if err != nil {
		log.Error().Err(err).Msg("Error handling login after provider authentication")
		http.Redirect(w, r, "/api/auth/error", http.StatusTemporaryRedirect)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	log.Info().Str("email", oauthUser.Email).Msg("JWT cookie set successfully")

	http.Redirect(w, r, "/api/auth/success", http.StatusTemporaryRedirect)
}

func (a *AuthHandler) AuthSuccess(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Authentication successful! Redirecting..."))
}

func (a *AuthHandler) AuthError(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Authentication failed. Please try again.", http.StatusBadRequest)
}
