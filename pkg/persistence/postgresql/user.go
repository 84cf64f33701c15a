package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
)

// UserRepository handles account database operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new account repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an account keyed by its normalized email.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	user.UpdatedAt = now

	var experience sql.NullInt64
	if user.Experience != nil {
		experience = sql.NullInt64{Int64: int64(*user.Experience), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, full_name, phone, role, password_hash, experience, band, skill, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		models.NormalizeEmail(user.Email), user.FullName, user.Phone, user.Role, user.PasswordHash,
		experience, user.Band, user.Skill, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewUserError("Create", user.Email, persistence.ErrUserAlreadyExists)
		}

		return persistence.NewUserError("Create", user.Email, err)
	}

	return nil
}

// GetByEmail looks an account up by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		user       models.User
		role       string
		experience sql.NullInt64
		band       sql.NullString
		skill      sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT email, full_name, phone, role, password_hash, experience, band, skill, created_at, updated_at
		FROM users
		WHERE email = $1`,
		models.NormalizeEmail(email),
	).Scan(
		&user.Email, &user.FullName, &user.Phone, &role, &user.PasswordHash,
		&experience, &band, &skill, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewUserError("GetByEmail", email, persistence.ErrUserNotFound)
		}

		return nil, persistence.NewUserError("GetByEmail", email, err)
	}

	user.Role = models.Role(role)
	user.Band = band.String
	user.Skill = skill.String

	if experience.Valid {
		years := int(experience.Int64)
		user.Experience = &years
	}

	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $2, updated_at = $3 WHERE email = $1",
		models.NormalizeEmail(email), passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return persistence.NewUserError("UpdatePassword", email, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewUserError("UpdatePassword", email, persistence.ErrUserNotFound)
	}

	return nil
}
