package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password []byte) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// ComparePassword checks password against hash. A mismatch is
// common.ErrInvalidCredentials.
func ComparePassword(hash, password []byte) error {
	err := bcrypt.CompareHashAndPassword(hash, password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return common.ErrInvalidCredentials
	default:
		return fmt.Errorf("compare password: %w", err)
	}
}
