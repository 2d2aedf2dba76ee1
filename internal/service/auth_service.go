package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/hamiRasekh/ftsmotors-sub000/internal/models"
	"github.com/hamiRasekh/ftsmotors-sub000/internal/phone"
)

// UserStore is the persistent user collaborator. Implemented by
// repository.UserRepository; faked in tests.
type UserStore interface {
	FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	GetOrCreate(ctx context.Context, phoneNumber string) (*models.User, error)
}

// SMSGateway delivers an OTP code. Implementations report failure
// through the result, never through a panic or a dropped error.
type SMSGateway interface {
	SendOTP(ctx context.Context, number, code string) *models.SMSResult
}

// AuthService composes phone validation, OTP issuance/verification,
// SMS delivery, the user store and token issuance. It returns the
// sentinel errors from errors.go; handlers map those to statuses.
type AuthService struct {
	issuer        *OTPIssuer
	verifier      *OTPVerifier
	jwtService    *JWTService
	refreshTokens *RefreshTokenService
	users         UserStore
	gateway       SMSGateway
	logger        *logrus.Logger
}

func NewAuthService(
	issuer *OTPIssuer,
	verifier *OTPVerifier,
	jwtService *JWTService,
	refreshTokens *RefreshTokenService,
	users UserStore,
	gateway SMSGateway,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		issuer:        issuer,
		verifier:      verifier,
		jwtService:    jwtService,
		refreshTokens: refreshTokens,
		users:         users,
		gateway:       gateway,
		logger:        logger,
	}
}

// AuthResult is returned by every flow that ends in a signed-in user.
type AuthResult struct {
	Tokens *models.TokenPair
	User   *models.User
}

// SendOTP validates the phone, applies the rate limit, issues a code
// and hands it to the gateway. The confirmation message is user
// facing; delivery failures come back as *SMSDeliveryError.
func (s *AuthService) SendOTP(ctx context.Context, rawPhone string) (string, error) {
	phoneNumber, err := phone.Validate(rawPhone)
	if err != nil {
		return "", ErrInvalidPhone
	}

	if !s.issuer.CanProceed(phoneNumber) {
		return "", ErrRateLimited
	}

	code, err := s.issuer.Issue(phoneNumber)
	if err != nil {
		return "", fmt.Errorf("issue OTP: %w", err)
	}

	result := s.gateway.SendOTP(ctx, phoneNumber, code)
	if !result.Success {
		return "", &SMSDeliveryError{Debug: result.Debug}
	}

	return "کد تایید برای شما پیامک شد", nil
}

// VerifyOTP checks the submitted code and, on success, signs the user
// in, creating the account on first verification.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, code string) (*AuthResult, error) {
	phoneNumber, err := phone.Validate(rawPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	if !s.verifier.Verify(phoneNumber, code) {
		return nil, ErrOTPInvalid
	}

	user, err := s.users.GetOrCreate(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}

	return s.signIn(ctx, user)
}

// Login is the password path. It never touches OTP state.
func (s *AuthService) Login(ctx context.Context, rawPhone, password string) (*AuthResult, error) {
	phoneNumber, err := phone.Validate(rawPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	user, err := s.users.FindByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

// Register creates a password-capable account for a phone that has
// none yet.
func (s *AuthService) Register(ctx context.Context, rawPhone, password, name string) (*AuthResult, error) {
	phoneNumber, err := phone.Validate(rawPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	existing, err := s.users.FindByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		PhoneNumber:  phoneNumber,
		Name:         name,
		Role:         models.DefaultUserRole,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.signIn(ctx, user)
}

func (s *AuthService) signIn(ctx context.Context, user *models.User) (*AuthResult, error) {
	tokenPair, familyID, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	claims, err := s.jwtService.VerifyToken(tokenPair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("verify refresh token: %w", err)
	}

	if err := s.refreshTokens.Store(
		ctx,
		claims.JTI,
		user.ID,
		user.PhoneNumber,
		familyID,
		claims.RegisteredClaims.ExpiresAt.Time,
	); err != nil {
		// The signed token stays valid; losing the record only costs
		// early revocation.
		s.logger.WithError(err).Error("Failed to store refresh token")
	}

	return &AuthResult{Tokens: tokenPair, User: user}, nil
}
