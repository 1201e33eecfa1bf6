package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/verdantlab/floraid/internal/common"
	"github.com/verdantlab/floraid/internal/dbx"
	"github.com/verdantlab/floraid/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// isUniqueViolation reports whether err is a unique-constraint violation.
// The duplicate guards are an optimization; this is the enforcement.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, email, username, passwordHash string) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	account := &models.Account{Email: email, Username: username, PasswordHash: passwordHash}
	if err := r.db.QueryRowContext(ctx, query, email, username, passwordHash).Scan(&account.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) CreateExternal(ctx context.Context, email, username string) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, username, external_login)
		 VALUES ($1, $2, TRUE)
		 RETURNING id
		 `

	account := &models.Account{Email: email, Username: username, ExternalLogin: true}
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&account.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, username, password_hash, external_login, otp_hash, otp_requested_at, global_points, created_at
		 FROM accounts
		 WHERE email = $1
		 `

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&account.ID, &account.Email, &account.Username, &account.PasswordHash,
		&account.ExternalLogin, &account.OTPHash, &account.OTPRequestedAt,
		&account.GlobalPoints, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) SetExternalLogin(ctx context.Context, accountID int64) error {
	query :=
		`UPDATE accounts SET external_login = TRUE
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ReplacePassword(ctx context.Context, email, passwordHash string) error {
	query :=
		`UPDATE accounts SET password_hash = $1
		 WHERE email = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, passwordHash, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetOTP(ctx context.Context, email, otpHash string) (SetOTPOutcome, error) {
	// The external-login check runs again here so the rule holds even if
	// the caller skipped its own guard. Run inside a transaction.
	var external bool
	query :=
		`SELECT external_login FROM accounts
		 WHERE email = $1
		 `
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&external); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	if external {
		return SetOTPRejectedExternal, nil
	}

	update :=
		`UPDATE accounts SET otp_hash = $1, otp_requested_at = now()
		 WHERE email = $2
		 `
	if _, err := r.db.ExecContext(ctx, update, otpHash, email); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return SetOTPApplied, nil
}

func (r *PostgresRepository) VerifyOTP(ctx context.Context, email string, maxAge time.Duration) (string, OTPStatus, error) {
	query :=
		`SELECT otp_hash, otp_requested_at FROM accounts
		 WHERE email = $1
		 `

	var otpHash sql.NullString
	var requestedAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&otpHash, &requestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", OTPNoMatch, common.ErrorNotFound
		}
		return "", OTPNoMatch, fmt.Errorf("db error: %w", err)
	}

	if !otpHash.Valid || !requestedAt.Valid {
		return "", OTPNoMatch, nil
	}
	if time.Since(requestedAt.Time) > maxAge {
		return otpHash.String, OTPExpired, nil
	}
	return otpHash.String, OTPValid, nil
}

func (r *PostgresRepository) LeaderboardTop(ctx context.Context, n int) ([]*models.LeaderboardRow, error) {
	query :=
		`SELECT id, username, global_points FROM accounts
		 ORDER BY global_points DESC, id ASC
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LeaderboardRow
	for rows.Next() {
		row := &models.LeaderboardRow{}
		if err := rows.Scan(&row.AccountID, &row.Username, &row.Points); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) LeaderboardInfo(ctx context.Context, accountID int64) (*models.LeaderboardRow, error) {
	query :=
		`SELECT id, username, global_points FROM accounts
		 WHERE id = $1
		 `

	row := &models.LeaderboardRow{}
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&row.AccountID, &row.Username, &row.Points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return row, nil
}

func (r *PostgresRepository) CountAccounts(ctx context.Context) (int64, error) {
	query :=
		`SELECT count(*) FROM accounts
		 `

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) AddGlobalPoints(ctx context.Context, accountID int64, points int64) error {
	query :=
		`UPDATE accounts SET global_points = global_points + $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, points, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
