package domain

import (
	"errors"
	"strings"
)

// MaxAge is the largest age accepted for a user.
const MaxAge = 150

// User is the core user entity. ID is assigned by the store on insert and never changes.
type User struct {
	ID    int64  `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
	Age   int    `json:"age" db:"age"`
}

// Validate checks that the user is fully populated for persistence. Returns an error describing the first failure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if u.Age < 0 || u.Age > MaxAge {
		return errors.New("age out of range")
	}
	return nil
}
