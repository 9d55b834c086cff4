package pgutils

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrLockTimeout is returned when a row lock could not be taken within
	// the transaction's lock_timeout.
	ErrLockTimeout = errors.New("lock timeout")
	// ErrUnavailable marks failures of the database itself (connection
	// loss, shutdown, serialization conflicts). Such calls may be retried.
	ErrUnavailable = errors.New("database unavailable")
)

const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeLockNotAvailable = "55P03"
	codeSerialization    = "40001"
	codeDeadlock         = "40P01"
	codeAdminShutdown    = "57P01"
	codeCannotConnectNow = "57P03"
)

// Classify tags err with ErrLockTimeout or ErrUnavailable when it matches
// one of those failure kinds. Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrUnavailable) {
		return err
	}

	// Caller cancellation is not a store failure.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeLockNotAvailable:
			return fmt.Errorf("%w: %w", ErrLockTimeout, err)
		case pgErr.Code == codeSerialization,
			pgErr.Code == codeDeadlock,
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeCannotConnectNow,
			strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a unique_violation on the named
// constraint. An empty constraint matches any.
func IsUniqueViolation(err error, constraint string) bool {
	return hasCode(err, codeUniqueViolation, constraint)
}

// IsCheckViolation reports whether err is a check_violation on the named
// constraint. An empty constraint matches any.
func IsCheckViolation(err error, constraint string) bool {
	return hasCode(err, codeCheckViolation, constraint)
}

func hasCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
