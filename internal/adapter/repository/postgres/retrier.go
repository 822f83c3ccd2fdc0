package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Transient failure codes worth retrying.
const (
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

// Retrier wraps write operations in exponential backoff when Postgres
// reports a transient conflict.
type Retrier struct {
	initialInterval time.Duration
	maxElapsedTime  time.Duration
}

func NewRetrier() *Retrier {
	return &Retrier{
		initialInterval: 50 * time.Millisecond,
		maxElapsedTime:  5 * time.Second,
	}
}

// Retry runs op, backing off and re-running it on transient errors until
// maxElapsedTime is exhausted. Non-transient errors return immediately.
func (r *Retrier) Retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxElapsedTime = r.maxElapsedTime

	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("backoff", wait).Msg("transient database error")
	}

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil || isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx), notify)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeDeadlockDetected || pgErr.Code == codeSerializationFailure
}
