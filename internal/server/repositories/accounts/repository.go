// Package accounts is the account store adapter: every credential and
// profile mutation the auth flows need, expressed as single-purpose
// operations over a transactional handle.
package accounts

import (
	"context"
	"time"

	"github.com/verdantlab/floraid/internal/server/models"
)

// OTPStatus is the tri-state outcome of an OTP lookup. The wire format
// keeps the numeric values, so they are fixed.
type OTPStatus int

const (
	// OTPNoMatch means no OTP is on record for the account.
	OTPNoMatch OTPStatus = -1
	// OTPExpired means an OTP is on record but its window has elapsed.
	OTPExpired OTPStatus = 0
	// OTPValid means an OTP is on record and still inside its window.
	OTPValid OTPStatus = 1
)

// SetOTPOutcome reports whether an OTP write was applied or rejected
// because the account authenticates through an external provider.
type SetOTPOutcome int

const (
	SetOTPApplied SetOTPOutcome = iota
	SetOTPRejectedExternal
)

type Repository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Create inserts a local account. A uniqueness race lost between the
	// guard check and the insert surfaces as common.ErrorAlreadyExists.
	Create(ctx context.Context, email, username, passwordHash string) (*models.Account, error)

	// CreateExternal inserts an account whose authentication is delegated
	// to a third-party provider; it has no usable local password.
	CreateExternal(ctx context.Context, email, username string) (*models.Account, error)

	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// SetExternalLogin idempotently flags an account as externally linked.
	SetExternalLogin(ctx context.Context, accountID int64) error

	// ReplacePassword overwrites the stored credential hash for email.
	ReplacePassword(ctx context.Context, email, passwordHash string) error

	// SetOTP stores a new OTP hash for email, overwriting any prior one,
	// unless the account is external-login-only.
	SetOTP(ctx context.Context, email, otpHash string) (SetOTPOutcome, error)

	// VerifyOTP returns the stored OTP hash for email together with its
	// status against maxAge. The caller still has to compare the hash; the
	// store only knows whether an OTP exists and whether it is stale.
	VerifyOTP(ctx context.Context, email string, maxAge time.Duration) (string, OTPStatus, error)

	LeaderboardTop(ctx context.Context, n int) ([]*models.LeaderboardRow, error)
	LeaderboardInfo(ctx context.Context, accountID int64) (*models.LeaderboardRow, error)
	CountAccounts(ctx context.Context) (int64, error)
	AddGlobalPoints(ctx context.Context, accountID int64, points int64) error
}
