// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account able to log on. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials is what a visitor submits to register or log on.
type Credentials struct {
	UserName string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
