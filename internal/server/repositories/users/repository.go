package users

import (
	"context"

	"github.com/abalakin-dev/quizkeeper/internal/server/models"
)

// Repository is the credential store: durable User records keyed by login.
// Every method issues a single statement; write methods report
// common.ErrorNotFound when no row matched.
type Repository interface {
	// Create inserts a new user. Returns common.ErrorAlreadyExists if the
	// login is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByLogin loads a full user record, password hash included.
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	// AddScore atomically increments the aggregate score by delta and
	// returns the new total.
	AddScore(ctx context.Context, login string, delta int64) (int64, error)

	// UpdatePassword overwrites the stored password hash.
	UpdatePassword(ctx context.Context, login string, hash []byte) error

	// Delete removes the user record.
	Delete(ctx context.Context, login string) error

	// List returns all users ordered by login ascending, password hashes
	// excluded.
	List(ctx context.Context) ([]models.User, error)

	// SetTestResult marks the test record with the given id as passed and
	// stores its score, in a single statement. Records with other ids are
	// untouched; an unknown test id for an existing login is a no-op that
	// still succeeds.
	SetTestResult(ctx context.Context, login string, testID int, score int64) error

	// AppendSubmission appends one dated submission and bumps the aggregate
	// score in the same statement, returning the new total and the full
	// submission history.
	AppendSubmission(ctx context.Context, login string, sub models.Submission) (int64, []models.Submission, error)
}
