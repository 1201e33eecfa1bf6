// Package services contains server-side business logic. This file implements
// UserService: registration, login, Google sign-in, OTP password reset, and
// the global points operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/verdantlab/floraid/internal/common"
	"github.com/verdantlab/floraid/internal/dbx"
	"github.com/verdantlab/floraid/internal/logging"
	"github.com/verdantlab/floraid/internal/server/auth"
	"github.com/verdantlab/floraid/internal/server/config"
	"github.com/verdantlab/floraid/internal/server/hashing"
	"github.com/verdantlab/floraid/internal/server/mail"
	"github.com/verdantlab/floraid/internal/server/models"
	"github.com/verdantlab/floraid/internal/server/oauth"
	"github.com/verdantlab/floraid/internal/server/repositories/accounts"
	"github.com/verdantlab/floraid/internal/server/repositories/repomanager"
)

// minOTPLength is the shortest OTP a reset request may ask for.
const minOTPLength = 6

// TokenEnvelope is the bearer-token response body shared by every flow that
// issues a token. Register is set only on the intermediate Google token that
// authorizes completing a registration.
type TokenEnvelope struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	// ExpiresIn is in minutes; the mobile client counts down from it.
	ExpiresIn int64 `json:"expires_in"`
	Register    bool   `json:"register,omitempty"`
}

// UserService provides account and authentication operations.
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	hasher        *hashing.Hasher
	mailer        mail.Mailer
	verifier      oauth.IDTokenVerifier
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	otpValidity   time.Duration
}

// NewUserService constructs a UserService from repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *hashing.Hasher,
	mailer mail.Mailer, verifier oauth.IDTokenVerifier, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		hasher:        hasher,
		mailer:        mailer,
		verifier:      verifier,
		logger:        logger,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		otpValidity:   cfg.OTPValidityDuration,
	}
}

func (s *UserService) issueToken(accountID int64) (*TokenEnvelope, error) {
	token, err := auth.GenerateToken(strconv.FormatInt(accountID, 10), false, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %v", err)
	}
	return &TokenEnvelope{
		TokenType:   "Bearer",
		AccessToken: token,
		ExpiresIn:   int64(s.tokenValidity.Minutes()),
	}, nil
}

// Authenticate parses a bearer token and returns the account ID it names.
// Registration-pending tokens are not valid for authenticated calls.
func (s *UserService) Authenticate(token string) (int64, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return 0, err
	}
	if claims.Register {
		return 0, common.ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

// Register creates a local account and signs it straight in. The client
// sends a pre-hashed credential; the server hashes it again so the stored
// value is never a direct login secret.
func (s *UserService) Register(ctx context.Context, email, username, passwordHash string) (*TokenEnvelope, error) {
	serverHash, err := s.hasher.Hash(passwordHash)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("error checking email: %v", err)
		}
		if exists {
			return common.ErrorEmailExists
		}

		exists, err = repo.UsernameExists(ctx, username)
		if err != nil {
			return fmt.Errorf("error checking username: %v", err)
		}
		if exists {
			return common.ErrorUsernameExists
		}

		account, err = repo.Create(ctx, email, username, serverHash)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// insert lost a race the guard checks missed
			return nil, common.ErrorEmailExists
		}
		return nil, err
	}

	return s.issueToken(account.ID)
}

// Login verifies email/credential and mints a token. When hasOTP is set the
// caller has just completed an OTP reset: the submitted credential becomes
// the new stored one instead of being verified against it.
func (s *UserService) Login(ctx context.Context, email, passwordHash string, hasOTP bool) (*TokenEnvelope, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if hasOTP {
		serverHash, err := s.hasher.Hash(passwordHash)
		if err != nil {
			return nil, err
		}
		if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return s.repomanager.Accounts(tx).ReplacePassword(ctx, email, serverHash)
		}); err != nil {
			return nil, fmt.Errorf("error replacing password: %v", err)
		}
		return s.issueToken(account.ID)
	}

	if !s.hasher.Verify(passwordHash, account.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	return s.issueToken(account.ID)
}

// GoogleAuth validates a Google ID token. A known email signs in and is
// flagged as externally linked; an unknown one gets a short-lived
// registration token whose subject is the verified email.
func (s *UserService) GoogleAuth(ctx context.Context, idToken string) (*TokenEnvelope, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, oauth.ErrMalformedToken) {
			return nil, common.ErrorValidation
		}
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.FindByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			token, err := auth.GenerateToken(identity.Email, true, s.jwtSecret, s.tokenValidity)
			if err != nil {
				return nil, fmt.Errorf("error generating token: %v", err)
			}
			return &TokenEnvelope{
				TokenType:   "Bearer",
				AccessToken: token,
				ExpiresIn:   int64(s.tokenValidity.Minutes()),
				Register:    true,
			}, nil
		}
		return nil, common.ErrorInternal
	}

	if !account.ExternalLogin {
		if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return s.repomanager.Accounts(tx).SetExternalLogin(ctx, account.ID)
		}); err != nil {
			return nil, fmt.Errorf("error linking external login: %v", err)
		}
	}

	return s.issueToken(account.ID)
}

// GoogleRegister finishes a Google sign-up: it requires the registration
// token minted by GoogleAuth and creates the external account under the
// email that token was issued for.
func (s *UserService) GoogleRegister(ctx context.Context, registerToken, username string) (*TokenEnvelope, error) {
	claims, err := auth.ParseToken(registerToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if !claims.Register {
		return nil, common.ErrorUnauthorized
	}
	email := claims.Subject

	var account *models.Account
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("error checking email: %v", err)
		}
		if exists {
			return common.ErrorEmailExists
		}

		exists, err = repo.UsernameExists(ctx, username)
		if err != nil {
			return fmt.Errorf("error checking username: %v", err)
		}
		if exists {
			return common.ErrorUsernameExists
		}

		account, err = repo.CreateExternal(ctx, email, username)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorEmailExists
		}
		return nil, err
	}

	return s.issueToken(account.ID)
}

// RequestPasswordReset stores a fresh OTP for the account and mails it.
// Delivery runs in the background; the caller only learns whether the OTP
// was recorded.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string, otpLength int) error {
	if otpLength < minOTPLength {
		return fmt.Errorf("%w: otp length must be at least %d", common.ErrorValidation, minOTPLength)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	if account.ExternalLogin {
		return common.ErrorForbidden
	}

	otp, err := common.MakeRandOTP(otpLength)
	if err != nil {
		return fmt.Errorf("error generating otp: %v", err)
	}
	otpHash, err := s.hasher.Hash(otp)
	if err != nil {
		return err
	}

	var outcome accounts.SetOTPOutcome
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		outcome, err = s.repomanager.Accounts(tx).SetOTP(ctx, email, otpHash)
		return err
	}); err != nil {
		return fmt.Errorf("error storing otp: %v", err)
	}
	if outcome == accounts.SetOTPRejectedExternal {
		return common.ErrorForbidden
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, email, mail.OTPSubject, mail.OTPBody(otp, s.otpValidity)); err != nil {
			s.logger.Error(ctx, "failed to send otp email", "email", email, "error", err)
		}
	}()

	return nil
}

// VerifyOTP checks a submitted OTP. It returns OTPExpired or OTPValid for
// a recognized challenge; a missing account, absent challenge, or wrong
// code all collapse into ErrorUnauthorized.
func (s *UserService) VerifyOTP(ctx context.Context, email, otp string) (accounts.OTPStatus, error) {
	repo := s.repomanager.Accounts(s.db)

	hash, status, err := repo.VerifyOTP(ctx, email, s.otpValidity)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorUnauthorized
		}
		return 0, common.ErrorInternal
	}
	if status == accounts.OTPNoMatch {
		return 0, common.ErrorUnauthorized
	}
	if !s.hasher.Verify(otp, hash) {
		return 0, common.ErrorUnauthorized
	}
	return status, nil
}

// Leaderboard returns the top n accounts by global points.
func (s *UserService) Leaderboard(ctx context.Context, n int) ([]*models.LeaderboardRow, error) {
	return s.repomanager.Accounts(s.db).LeaderboardTop(ctx, n)
}

// LeaderboardInfo returns the username and points of one account.
func (s *UserService) LeaderboardInfo(ctx context.Context, accountID int64) (*models.LeaderboardRow, error) {
	return s.repomanager.Accounts(s.db).LeaderboardInfo(ctx, accountID)
}

// CountAccounts returns the total number of registered accounts.
func (s *UserService) CountAccounts(ctx context.Context) (int64, error) {
	return s.repomanager.Accounts(s.db).CountAccounts(ctx)
}

// AddGlobalPoints credits points to the account named by the bearer token.
func (s *UserService) AddGlobalPoints(ctx context.Context, token string, points int64) error {
	accountID, err := s.Authenticate(token)
	if err != nil {
		return err
	}
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Accounts(tx).AddGlobalPoints(ctx, accountID, points)
	}); err != nil {
		return err
	}
	return nil
}
