package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/service"
)

// codePattern: submitted OTP codes must be exactly six digits; this is
// a format check, not a verification, so it fails with 400 not 401.
var codePattern = regexp.MustCompile(`^\d{6}$`)

type AuthHandlers struct {
	authService         *service.AuthService
	jwtService          *service.JWTService
	refreshTokenService *service.RefreshTokenService
	logger              *logrus.Logger
}

func NewAuthHandlers(
	authService *service.AuthService,
	jwtService *service.JWTService,
	refreshTokenService *service.RefreshTokenService,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		authService:         authService,
		jwtService:          jwtService,
		refreshTokenService: refreshTokenService,
		logger:              logger,
	}
}

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type SendOTPResponse struct {
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type RegisterRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Name        string `json:"name"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Debug   *models.SMSDebug `json:"debug,omitempty"`
}

func (h *AuthHandlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	message, err := h.authService.SendOTP(r.Context(), req.PhoneNumber)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, SendOTPResponse{Message: message})
}

func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	otp := strings.TrimSpace(req.OTP)
	if !codePattern.MatchString(otp) {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_OTP_FORMAT", "OTP must be exactly 6 digits")
		return
	}

	result, err := h.authService.VerifyOTP(r.Context(), req.PhoneNumber, otp)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithAuthResult(w, result)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.Password == "" {
		h.respondWithError(w, http.StatusBadRequest, "MISSING_PASSWORD", "Password is required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithAuthResult(w, result)
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if len(req.Password) < 8 {
		h.respondWithError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
		return
	}

	result, err := h.authService.Register(r.Context(), req.PhoneNumber, req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.respondWithAuthResult(w, result)
}

func (h *AuthHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		h.respondWithError(w, http.StatusBadRequest, "MISSING_TOKEN", "Refresh token is required")
		return
	}

	claims, err := h.jwtService.VerifyToken(req.RefreshToken)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid refresh token")
		return
	}

	if claims.Type != "refresh" {
		h.respondWithError(w, http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "Token is not a refresh token")
		return
	}

	revoked, err := h.refreshTokenService.IsRevoked(r.Context(), claims.JTI)
	if err == nil && revoked {
		// A revoked token being replayed means it leaked somewhere, so
		// every descendant in its family is burned too.
		if data, getErr := h.refreshTokenService.Get(r.Context(), claims.JTI); getErr == nil && data != nil && data.FamilyID != "" {
			if famErr := h.refreshTokenService.RevokeFamily(r.Context(), data.FamilyID); famErr != nil {
				h.logger.WithError(famErr).Error("Failed to revoke token family after reuse")
			}
		}
		h.respondWithError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Refresh token has been revoked")
		return
	}

	tokenData, err := h.refreshTokenService.Get(r.Context(), claims.JTI)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to get refresh token data, will generate new family ID")
	}

	familyID := ""
	if tokenData != nil {
		familyID = tokenData.FamilyID
		h.refreshTokenService.Revoke(r.Context(), claims.JTI)
	}

	newTokenPair, newFamilyID, err := h.jwtService.RefreshTokens(req.RefreshToken, familyID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate new tokens")
		h.respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	newClaims, err := h.jwtService.VerifyToken(newTokenPair.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("Failed to verify new refresh token")
		h.respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	if err := h.refreshTokenService.Store(
		r.Context(),
		newClaims.JTI,
		claims.UserID,
		claims.Phone,
		newFamilyID,
		newClaims.RegisteredClaims.ExpiresAt.Time,
	); err != nil {
		h.logger.WithError(err).Error("Failed to store new refresh token")
	}

	h.respondWithJSON(w, http.StatusOK, RefreshTokenResponse{
		AccessToken:  newTokenPair.AccessToken,
		RefreshToken: newTokenPair.RefreshToken,
		TokenType:    newTokenPair.TokenType,
		ExpiresIn:    newTokenPair.ExpiresIn,
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		refreshClaims, err := h.jwtService.VerifyToken(req.RefreshToken)
		if err == nil && refreshClaims.Type == "refresh" {
			h.refreshTokenService.Revoke(r.Context(), refreshClaims.JTI)
		}
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandlers) respondWithAuthResult(w http.ResponseWriter, result *service.AuthResult) {
	h.respondWithJSON(w, http.StatusOK, AuthResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    result.Tokens.TokenType,
		ExpiresIn:    result.Tokens.ExpiresIn,
		User: UserResponse{
			ID:          result.User.ID,
			PhoneNumber: result.User.PhoneNumber,
			Name:        result.User.Name,
			Role:        result.User.Role,
		},
	})
}

// respondWithServiceError is the single place where service errors
// become HTTP statuses.
func (h *AuthHandlers) respondWithServiceError(w http.ResponseWriter, err error) {
	var deliveryErr *service.SMSDeliveryError

	switch {
	case errors.Is(err, service.ErrInvalidPhone):
		h.respondWithError(w, http.StatusBadRequest, "INVALID_PHONE", "Invalid phone number format")
	case errors.Is(err, service.ErrRateLimited):
		h.respondWithError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many OTP requests, try again later")
	case errors.Is(err, service.ErrOTPInvalid):
		h.respondWithError(w, http.StatusUnauthorized, "INVALID_OTP", "Invalid or expired OTP")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid phone number or password")
	case errors.Is(err, service.ErrUserExists):
		h.respondWithError(w, http.StatusConflict, "USER_EXISTS", "A user with this phone number already exists")
	case errors.As(err, &deliveryErr):
		h.respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "SMS_DELIVERY_FAILED",
				Message: "Failed to send OTP, try again",
				Debug:   &deliveryErr.Debug,
			},
		})
	default:
		h.logger.WithError(err).Error("Unhandled auth service error")
		h.respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (h *AuthHandlers) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *AuthHandlers) respondWithError(w http.ResponseWriter, status int, code, message string) {
	h.respondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
