package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
)

type UserService struct {
	userRepo models.UserRepo
	logger   *slog.Logger
}

func NewUserService(userRepo models.UserRepo, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (us *UserService) SignUp(ctx context.Context, input *models.SignUpInput) (*models.AuthSession, error) {
	input.Name = helpers.StringTrim(input.Name)
	input.Email = strings.ToLower(helpers.StringTrim(input.Email))
	if err := models.Validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if !helpers.IsPasswordStrong(input.Password) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrAuth, helpers.MinPasswordLength)
	}

	session, err := us.userRepo.SignUp(ctx, input)
	if err != nil {
		return nil, err
	}
	us.logger.Info("User signed up", "user_id", session.User.ID, "confirmed", session.Active())
	return session, nil
}

func (us *UserService) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	email = strings.ToLower(helpers.StringTrim(email))
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, fmt.Errorf("%w: password is required", models.ErrInvalidInput)
	}
	return us.userRepo.SignIn(ctx, email, password)
}

func (us *UserService) SignOut(ctx context.Context, accessToken string) error {
	return us.userRepo.SignOut(ctx, accessToken)
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", models.ErrAuth)
	}
	return us.userRepo.RefreshToken(ctx, refreshToken)
}

func (us *UserService) GetProfile(ctx context.Context, id uuid.UUID, accessToken string) (*models.Profile, error) {
	return us.userRepo.GetProfile(ctx, id, accessToken)
}

// VerifyToken asks the auth server for the token's owner. It backs
// helpers.TokenValidator when the JWKS cannot verify a token locally.
func (us *UserService) VerifyToken(ctx context.Context, accessToken string) (*helpers.CustomClaims, error) {
	user, err := us.userRepo.GetAuthUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	claims := &helpers.CustomClaims{
		Role:  "authenticated",
		Email: user.Email,
		UserMetadata: map[string]interface{}{
			"name": user.Name,
		},
	}
	claims.Subject = user.ID.String()
	return claims, nil
}
