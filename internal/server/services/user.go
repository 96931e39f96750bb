// Package services contains server-side business logic. This file implements
// UserService, which handles registration and credential checks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/auth"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/server/validation"
)

// UserService is the credential store seen by the HTTP layer.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	// dummyHash is compared against when the user does not exist, so that
	// unknown names cost as much as wrong passwords.
	dummyHash []byte
}

// NewUserService constructs a UserService using repositories.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager) (*UserService, error) {
	dummy, err := auth.HashPassword(common.GenerateRandByteArray(16))
	if err != nil {
		return nil, err
	}
	return &UserService{db: db, repomanager: m, dummyHash: dummy}, nil
}

// Register creates a user. Invalid input yields validation.Errors, a taken
// name common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	creds.UserName = strings.TrimSpace(creds.UserName)
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	password := []byte(creds.Password)
	defer common.WipeByteArray(password)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: creds.UserName, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Logon checks a user name and password. Unknown names and wrong passwords
// both yield common.ErrInvalidCredentials.
func (s *UserService) Logon(ctx context.Context, userName, password string) (*models.User, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = auth.ComparePassword(s.dummyHash, pw)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := auth.ComparePassword(user.PasswordHash, pw); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns the user bound to a session.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}
