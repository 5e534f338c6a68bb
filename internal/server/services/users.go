// Package services contains server-side business logic. This file implements
// UserService, which handles registration and credential verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abalakin-dev/quizkeeper/internal/common"
	"github.com/abalakin-dev/quizkeeper/internal/server/auth"
	"github.com/abalakin-dev/quizkeeper/internal/server/models"
	"github.com/abalakin-dev/quizkeeper/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create users with the default test records
// - Verify: prove a (login, password) pair against the stored hash
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewUserService constructs a UserService bound to the given pool.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// Register hashes the password and inserts a new user seeded with the default
// test records, no admin rights, and a zero aggregate score. A taken login
// yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, login, password string) (*models.User, error) {
	if login == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Login:        login,
		PasswordHash: hash,
		TestRecords:  models.DefaultTestRecords(),
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Verify checks the asserted credentials and returns the matching user.
// Unknown login and wrong password both map to common.ErrorUnauthorized so
// callers cannot tell them apart.
func (s *UserService) Verify(ctx context.Context, login, password string) (*models.User, error) {
	if login == "" || password == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}
