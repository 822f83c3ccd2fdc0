package domain

import (
	"errors"

	"github.com/iho/networth/internal/money"
)

var (
	// Validation errors: checked before any state change, never retried.
	ErrNotFound      = errors.New("account not found")
	ErrInvalidTarget = errors.New("cannot transfer to the same account")
	ErrUnknownType   = errors.New("unknown account type")
	ErrInvalidAmount = money.ErrInvalidAmount

	// Operation log errors.
	ErrOperationNotFound = errors.New("operation not found")

	// Backup document errors: fatal to a single import/restore call.
	ErrSchemaMismatch = errors.New("backup document schema mismatch")

	// Sync errors: synchronous rejection, the caller decides whether to retry.
	ErrSyncDisabled = errors.New("sync is disabled")
	ErrSyncBusy     = errors.New("a backup or restore is already in flight")

	// Server-side auth errors.
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrRevokedToken       = errors.New("token revoked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrBackupNotFound     = errors.New("no backup stored")
)
