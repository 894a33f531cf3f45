package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"teplatform/internal/services"
	"teplatform/internal/utils"
)

type VerificationHandler struct {
	verificationService services.VerificationService
}

func NewVerificationHandler(verificationService services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

type verificationCodeRequest struct {
	Email string `json:"email"`
}

type verificationCodeVerify struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email"`
	Password string `json:"password"`
}

type emailChangeVerify struct {
	NewEmail string `json:"new_email"`
	Code     string `json:"code"`
}

// respondVerificationError maps verification lifecycle failures onto
// client-facing status codes. Everything here is user-actionable, not a
// system failure.
func respondVerificationError(w http.ResponseWriter, err error) {
	var invalidCode *services.InvalidCodeError
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrAccountNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrTooManyRequests), errors.Is(err, services.ErrTooManyAttempts):
		utils.SendJSONError(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, services.ErrExpired), errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrInvalidState):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &invalidCode):
		utils.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":              invalidCode.Error(),
			"remaining_attempts": invalidCode.RemainingAttempts,
		})
	case errors.Is(err, services.ErrDeliveryFailed):
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
	default:
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func validCode(code string) bool {
	if len(code) != utils.VerificationCodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SendCode sends or resends a registration verification code.
func (h *VerificationHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req verificationCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verificationService.SendRegistrationCode(r.Context(), req.Email); err != nil {
		if strings.Contains(err.Error(), "already verified") {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Verification code sent to your email. Please check your inbox.",
	})
}

// VerifyEmail validates the 6-digit code and marks the member's email as
// verified.
func (h *VerificationHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verificationCodeVerify

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !validCode(req.Code) {
		utils.SendJSONError(w, "Code must be 6 digits", http.StatusBadRequest)
		return
	}

	if err := h.verificationService.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        "Email verified successfully! You can now log in.",
		"email_verified": true,
	})
}

func userIDFromContext(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	userIDStr, ok := r.Context().Value("userID").(string)
	if !ok {
		log.Error().Msg("User ID not found in context")
		utils.SendJSONError(w, "User ID not found in context", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		log.Error().Err(err).Str("user_id_str", userIDStr).Msg("Invalid user ID format in context")
		utils.SendJSONError(w, "Invalid user ID format", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return userID, true
}

// RequestEmailChange sends a confirmation code to the address the member
// wants to switch to.
func (h *VerificationHandler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}

	var req emailChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verificationService.RequestEmailChange(r.Context(), userID, req.NewEmail, req.Password); err != nil {
		if strings.Contains(err.Error(), "incorrect password") ||
			strings.Contains(err.Error(), "already in use") ||
			strings.Contains(err.Error(), "must be different") {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Verification code sent to " + req.NewEmail + ". Please check your inbox.",
	})
}

// VerifyEmailChange confirms the code sent to the new address and
// applies the change.
func (h *VerificationHandler) VerifyEmailChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(w, r)
	if !ok {
		return
	}

	var req emailChangeVerify
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !validCode(req.Code) {
		utils.SendJSONError(w, "Code must be 6 digits", http.StatusBadRequest)
		return
	}

	if err := h.verificationService.VerifyEmailChange(r.Context(), userID, req.NewEmail, req.Code); err != nil {
		respondVerificationError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        "Email updated successfully!",
		"email_verified": true,
	})
}
