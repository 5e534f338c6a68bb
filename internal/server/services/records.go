package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abalakin-dev/quizkeeper/internal/common"
	"github.com/abalakin-dev/quizkeeper/internal/dbx"
	"github.com/abalakin-dev/quizkeeper/internal/server/auth"
	"github.com/abalakin-dev/quizkeeper/internal/server/models"
	"github.com/abalakin-dev/quizkeeper/internal/server/repositories/repomanager"
)

// CredentialVerifier proves a (login, password) pair. Satisfied by UserService.
type CredentialVerifier interface {
	Verify(ctx context.Context, login, password string) (*models.User, error)
}

// RecordService applies all authorized state changes to users other than
// registration: score updates, test results, and admin operations.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	verifier    CredentialVerifier
}

// NewRecordService constructs a RecordService.
func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, verifier CredentialVerifier) *RecordService {
	return &RecordService{db: db, repomanager: m, verifier: verifier}
}

// AddScore verifies the caller's credentials and atomically increments the
// aggregate score by delta, returning the new total. Negative deltas are
// accepted as-is.
func (s *RecordService) AddScore(ctx context.Context, login, password string, delta int64) (int64, error) {
	if _, err := s.verifier.Verify(ctx, login, password); err != nil {
		return 0, err
	}

	repo := s.repomanager.Users(s.db)
	total, err := repo.AddScore(ctx, login, delta)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("error updating score: %w", err)
	}

	return total, nil
}

// RecordTestResult marks the test record with the given id as passed and
// stores its score. An unknown test id for an existing login succeeds without
// changing anything; an unknown login yields common.ErrorNotFound.
func (s *RecordService) RecordTestResult(ctx context.Context, login string, testID int, score int64) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.SetTestResult(ctx, login, testID, score); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error recording test result: %w", err)
	}
	return nil
}

// SubmitTestResult verifies the caller's credentials, appends a dated
// submission entry, and bumps the aggregate score. Entry and aggregate are
// written together so they cannot diverge.
func (s *RecordService) SubmitTestResult(ctx context.Context, login, password, testDate string, testID int, score int64) (int64, []models.Submission, error) {
	if login == "" || password == "" || testDate == "" || testID == 0 || score == 0 {
		return 0, nil, common.ErrorValidation
	}

	if _, err := s.verifier.Verify(ctx, login, password); err != nil {
		return 0, nil, err
	}

	repo := s.repomanager.Users(s.db)
	sub := models.Submission{TestID: testID, Date: testDate, Score: score}
	total, history, err := repo.AppendSubmission(ctx, login, sub)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, nil, common.ErrorNotFound
		}
		return 0, nil, fmt.Errorf("error appending submission: %w", err)
	}

	return total, history, nil
}

// AdminResetPassword overwrites the target's password hash after proving the
// caller is an admin. A missing target yields common.ErrorNotFound instead of
// silently succeeding.
func (s *RecordService) AdminResetPassword(ctx context.Context, adminLogin, adminPassword, targetLogin, newPassword string) error {
	if err := s.requireAdmin(ctx, adminLogin, adminPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdatePassword(ctx, targetLogin, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error updating password: %w", err)
	}

	return nil
}

// AdminDeleteUser removes a non-admin target after proving the caller is an
// admin. Checks run in a fixed order: admin rights, admin password,
// self-delete, target existence, target admin flag. The target check and the
// delete run in one transaction so the target cannot change under us.
func (s *RecordService) AdminDeleteUser(ctx context.Context, adminLogin, adminPassword, targetLogin string) error {
	if err := s.requireAdmin(ctx, adminLogin, adminPassword); err != nil {
		return err
	}

	if adminLogin == targetLogin {
		return common.ErrorSelfDelete
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		target, err := repo.GetByLogin(ctx, targetLogin)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("error loading target user: %w", err)
		}
		if target.Admin {
			return common.ErrorTargetIsAdmin
		}

		if err := repo.Delete(ctx, targetLogin); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
}

// ListUsers returns all users ordered by login ascending, passwords excluded.
func (s *RecordService) ListUsers(ctx context.Context) ([]models.User, error) {
	repo := s.repomanager.Users(s.db)
	list, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// requireAdmin resolves adminLogin, requires the admin flag, then checks the
// password. A missing or non-admin account yields ErrorAccessDenied before
// the password is ever compared.
func (s *RecordService) requireAdmin(ctx context.Context, adminLogin, adminPassword string) error {
	repo := s.repomanager.Users(s.db)

	admin, err := repo.GetByLogin(ctx, adminLogin)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorAccessDenied
		}
		return fmt.Errorf("error loading admin user: %w", err)
	}
	if !admin.Admin {
		return common.ErrorAccessDenied
	}

	if !auth.CheckPassword(admin.PasswordHash, adminPassword) {
		return common.ErrorUnauthorized
	}

	return nil
}
