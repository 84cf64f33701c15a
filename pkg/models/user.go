package models

import "time"

// User is a registered account able to authenticate against the API.
type User struct {
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Experience   *int      `json:"experience,omitempty"`
	Band         string    `json:"band,omitempty"`
	Skill        string    `json:"skill,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
