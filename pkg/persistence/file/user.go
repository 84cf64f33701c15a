package file

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
)

// userRecord is the on-disk shape of an account; models.User hides the hash from JSON.
type userRecord struct {
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Phone        string      `json:"phone"`
	Role         models.Role `json:"role"`
	PasswordHash string      `json:"password_hash"`
	Experience   *int        `json:"experience,omitempty"`
	Band         string      `json:"band,omitempty"`
	Skill        string      `json:"skill,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func newUserRecord(user *models.User) *userRecord {
	return &userRecord{
		Email:        user.Email,
		FullName:     user.FullName,
		Phone:        user.Phone,
		Role:         user.Role,
		PasswordHash: user.PasswordHash,
		Experience:   user.Experience,
		Band:         user.Band,
		Skill:        user.Skill,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func (r *userRecord) toModel() *models.User {
	return &models.User{
		Email:        r.Email,
		FullName:     r.FullName,
		Phone:        r.Phone,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		Experience:   r.Experience,
		Band:         r.Band,
		Skill:        r.Skill,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// UserRepository handles account file operations.
type UserRepository struct {
	store *Persistence
}

// file names accounts by the hex of their normalized email so no address can escape the directory.
func (ur *UserRepository) file(email string) string {
	return ur.store.path("users", hex.EncodeToString([]byte(models.NormalizeEmail(email)))+".json")
}

// Create stores a new account. Emails are unique case-insensitively.
func (ur *UserRepository) Create(_ context.Context, user *models.User) error {
	ur.store.mu.Lock()
	defer ur.store.mu.Unlock()

	path := ur.file(user.Email)

	found, err := exists(path)
	if err != nil {
		return persistence.NewUserError("Create", user.Email, err)
	}

	if found {
		return persistence.NewUserError("Create", user.Email, persistence.ErrUserAlreadyExists)
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	user.UpdatedAt = now

	return writeJSON(path, newUserRecord(user))
}

// GetByEmail looks an account up by email.
func (ur *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	ur.store.mu.RLock()
	defer ur.store.mu.RUnlock()

	return ur.load(email)
}

func (ur *UserRepository) load(email string) (*models.User, error) {
	var record userRecord

	found, err := readJSON(ur.file(email), &record)
	if err != nil {
		return nil, persistence.NewUserError("GetByEmail", email, err)
	}

	if !found {
		return nil, persistence.NewUserError("GetByEmail", email, persistence.ErrUserNotFound)
	}

	return record.toModel(), nil
}

// UpdatePassword replaces the stored password hash.
func (ur *UserRepository) UpdatePassword(_ context.Context, email, passwordHash string) error {
	ur.store.mu.Lock()
	defer ur.store.mu.Unlock()

	user, err := ur.load(email)
	if err != nil {
		return err
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()

	if err := writeJSON(ur.file(email), newUserRecord(user)); err != nil {
		return persistence.NewUserError("UpdatePassword", email, err)
	}

	return nil
}
