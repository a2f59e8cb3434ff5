package pgvector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// PostgreSQL error codes this package reacts to.
const (
	codeUndefinedTable  = "42P01"
	codeDuplicateTable  = "42P07"
	codeUniqueViolation = "23505"
	codeDataException   = "22000"
	codeInvalidText     = "22P02"
	codeAdminShutdown   = "57P01"
	codeCannotConnect   = "57P03"
)

// translateError maps gorm, pgconn and network failures onto the vectordb
// error kinds. The original error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", vectordb.ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", vectordb.ErrAlreadyExists, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUndefinedTable:
			return fmt.Errorf("%w: %w", vectordb.ErrNotFound, err)
		case pgErr.Code == codeDuplicateTable, pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%w: %w", vectordb.ErrAlreadyExists, err)
		case pgErr.Code == codeDataException, pgErr.Code == codeInvalidText:
			return fmt.Errorf("%w: %w", vectordb.ErrInvalidRequest, err)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == codeAdminShutdown, pgErr.Code == codeCannotConnect:
			return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", vectordb.ErrStoreUnavailable, err)
	}
	return err
}
