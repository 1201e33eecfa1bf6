// Package models holds the persisted entities of the floraid server.
package models

import (
	"database/sql"
	"time"
)

// Account is the identity record. Email and username are globally unique.
// PasswordHash always holds a one-way argon2id hash, never plaintext; an
// account with ExternalLogin=true may have no usable local password. The
// OTP columns describe the single in-flight password-reset challenge, if
// any: each new request overwrites them.
type Account struct {
	ID             int64
	Email          string
	Username       string
	PasswordHash   string
	ExternalLogin  bool
	OTPHash        sql.NullString
	OTPRequestedAt sql.NullTime
	GlobalPoints   int64
	CreatedAt      time.Time
}

// LeaderboardRow is one entry of the global points leaderboard.
type LeaderboardRow struct {
	AccountID int64
	Username  string
	Points    int64
}
