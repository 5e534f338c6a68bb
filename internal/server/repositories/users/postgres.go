package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abalakin-dev/quizkeeper/internal/common"
	"github.com/abalakin-dev/quizkeeper/internal/dbx"
	"github.com/abalakin-dev/quizkeeper/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {

	records, err := json.Marshal(user.TestRecords)
	if err != nil {
		return fmt.Errorf("marshal test records: %w", err)
	}

	query :=
		`INSERT INTO users (login, password, admin, test_info, score)
		 VALUES ($1, $2, $3, $4::jsonb, $5)
		 `

	_, err = r.db.ExecContext(ctx, query,
		user.Login, string(user.PasswordHash), user.Admin, string(records), user.TotalScore)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query :=
		`SELECT login, password, admin, test_info, score FROM users
		 WHERE login = $1
		 `

	user := &models.User{}
	var hash string
	var records []byte

	err := r.db.QueryRowContext(ctx, query, login).
		Scan(&user.Login, &hash, &user.Admin, &records, &user.TotalScore)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.PasswordHash = []byte(hash)
	if err := json.Unmarshal(records, &user.TestRecords); err != nil {
		return nil, fmt.Errorf("unmarshal test records: %w", err)
	}

	return user, nil
}

// AddScore is expressed as "score = score + delta" so concurrent increments
// compose at the storage layer without application-level locking.
func (r *PostgresRepository) AddScore(ctx context.Context, login string, delta int64) (int64, error) {
	query :=
		`UPDATE users SET score = score + $2
		 WHERE login = $1
		 RETURNING score
		 `

	var newTotal int64
	err := r.db.QueryRowContext(ctx, query, login, delta).Scan(&newTotal)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return newTotal, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, login string, hash []byte) error {
	query :=
		`UPDATE users SET password = $2
		 WHERE login = $1
		 `

	res, err := r.db.ExecContext(ctx, query, login, string(hash))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return requireRowsAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, login string) error {
	query :=
		`DELETE FROM users
		 WHERE login = $1
		 `

	res, err := r.db.ExecContext(ctx, query, login)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return requireRowsAffected(res)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	query :=
		`SELECT login, admin, test_info FROM users
		 ORDER BY login ASC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		var records []byte
		if err := rows.Scan(&user.Login, &user.Admin, &records); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(records, &user.TestRecords); err != nil {
			return nil, fmt.Errorf("unmarshal test records: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// SetTestResult rewrites test_info in one statement, targeting only the
// matching element, so two concurrent submissions for different tests cannot
// lose each other's update.
func (r *PostgresRepository) SetTestResult(ctx context.Context, login string, testID int, score int64) error {
	query :=
		`UPDATE users
		 SET test_info = (
		     SELECT COALESCE(jsonb_agg(
		         CASE WHEN (rec->>'testid')::int = $2
		              THEN rec || jsonb_build_object('score', $3::bigint, 'passed', true)
		              ELSE rec
		         END
		     ), '[]'::jsonb)
		     FROM jsonb_array_elements(test_info) AS rec
		 )
		 WHERE login = $1
		 `

	res, err := r.db.ExecContext(ctx, query, login, testID, score)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return requireRowsAffected(res)
}

func (r *PostgresRepository) AppendSubmission(ctx context.Context, login string, sub models.Submission) (int64, []models.Submission, error) {

	entry, err := json.Marshal([]models.Submission{sub})
	if err != nil {
		return 0, nil, fmt.Errorf("marshal submission: %w", err)
	}

	// Appending the entry and bumping the aggregate in the same statement
	// keeps score and submission history consistent without a transaction.
	query :=
		`UPDATE users
		 SET submissions = submissions || $2::jsonb,
		     score = score + $3
		 WHERE login = $1
		 RETURNING score, submissions
		 `

	var newTotal int64
	var history []byte
	err = r.db.QueryRowContext(ctx, query, login, string(entry), sub.Score).Scan(&newTotal, &history)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, common.ErrorNotFound
		}
		return 0, nil, fmt.Errorf("db error: %w", err)
	}

	var submissions []models.Submission
	if err := json.Unmarshal(history, &submissions); err != nil {
		return 0, nil, fmt.Errorf("unmarshal submissions: %w", err)
	}

	return newTotal, submissions, nil
}

// requireRowsAffected turns a zero-row write into common.ErrorNotFound so
// mutations on a non-existent login are observable by the caller.
func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
