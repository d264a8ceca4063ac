package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials проверяет общий пароль входа. В памяти хранится только bcrypt-хеш.
type Credentials struct {
	hash []byte
}

func NewCredentials(password string) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &Credentials{hash: hash}, nil
}

func (c *Credentials) Check(password string) bool {
	return bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
}
