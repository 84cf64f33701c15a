package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
	"github.com/talentpivot/talentpivot/pkg/workflow"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RegisterRequest contains the profile of a new account.
type RegisterRequest struct {
	FullName   string `json:"full_name"  validate:"required,max=255"`
	Email      string `json:"email"      validate:"required,max=255"`
	Phone      string `json:"phone"      validate:"required"`
	Password   string `json:"password"   validate:"required,max=72"`
	Role       string `json:"role"       validate:"required"`
	Experience *int   `json:"experience" validate:"omitempty,min=0,max=70"`
	Band       string `json:"band"       validate:"max=50"`
	Skill      string `json:"skill"      validate:"max=255"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token of a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

// Accounts registers users and exchanges credentials for bearer tokens.
type Accounts struct {
	users     persistence.UserRepository
	hasher    *identity.Hasher
	issuer    *identity.TokenIssuer
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAccounts creates a new account service.
func NewAccounts(
	users persistence.UserRepository,
	hasher *identity.Hasher,
	issuer *identity.TokenIssuer,
	validator *validator.Validate,
	logger *slog.Logger,
) *Accounts {
	return &Accounts{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		validator: validator,
		logger:    logger,
	}
}

// Register creates an account. Reviewer roles (L1, L2, L3) carry a professional profile.
func (a *Accounts) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	const op = "Register"

	if err := a.validator.Struct(req); err != nil {
		return nil, fromValidator(op, err)
	}

	if !workflow.ValidEmail(req.Email) {
		return nil, NewValidationError(op, "invalid_email", "invalid email", ErrInvalidEmail)
	}

	if !workflow.ValidPhone(req.Phone) {
		return nil, NewValidationError(op, "invalid_phone", "phone must be exactly 10 digits", ErrInvalidPhone)
	}

	if len(req.Password) < MinPasswordLength {
		return nil, NewValidationError(op, "weak_password", ErrWeakPassword.Error(), ErrWeakPassword)
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, NewValidationError(op, "invalid_role", fmt.Sprintf("unknown role %q", req.Role), ErrInvalidRole)
	}

	if role != models.RoleHR && (req.Experience == nil || strings.TrimSpace(req.Band) == "" || strings.TrimSpace(req.Skill) == "") {
		return nil, NewValidationError(op, "reviewer_profile", ErrReviewerProfile.Error(), ErrReviewerProfile)
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:        models.NormalizeEmail(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		PasswordHash: hash,
		Experience:   req.Experience,
		Band:         strings.TrimSpace(req.Band),
		Skill:        strings.TrimSpace(req.Skill),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.users.Create(ctx, user); err != nil {
		if persistence.IsAlreadyExists(err) {
			return nil, &ServiceError{Op: op, Code: "account_exists", Message: "an account with this email already exists", Err: ErrAccountExists}
		}

		return nil, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	a.logger.InfoContext(ctx, "account registered", "email", user.Email, "role", user.Role)

	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and wrong
// passwords fail the same way.
func (a *Accounts) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	const op = "Login"

	if err := a.validator.Struct(req); err != nil {
		return nil, fromValidator(op, err)
	}

	invalid := &ServiceError{Op: op, Code: "invalid_credentials", Message: ErrInvalidCredentials.Error(), Err: ErrInvalidCredentials}

	user, err := a.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if persistence.IsUserNotFound(err) {
			a.logger.InfoContext(ctx, "login rejected", "reason", "unknown email")

			return nil, invalid
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			a.logger.InfoContext(ctx, "login rejected", "email", user.Email, "reason", "password mismatch")

			return nil, invalid
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, expiresAt, err := a.issuer.Issue(identity.Identity{Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ChangePassword replaces the password of the authenticated caller.
func (a *Accounts) ChangePassword(ctx context.Context, caller identity.Identity, req ChangePasswordRequest) error {
	const op = "ChangePassword"

	if err := a.validator.Struct(req); err != nil {
		return fromValidator(op, err)
	}

	if len(req.NewPassword) < MinPasswordLength {
		return NewValidationError(op, "weak_password", ErrWeakPassword.Error(), ErrWeakPassword)
	}

	hash, err := a.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.users.UpdatePassword(ctx, caller.Email, hash); err != nil {
		if persistence.IsUserNotFound(err) {
			return &ServiceError{Op: op, Code: "invalid_credentials", Message: "account no longer exists", Err: ErrInvalidCredentials}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	a.logger.InfoContext(ctx, "password changed", "email", models.NormalizeEmail(caller.Email))

	return nil
}
