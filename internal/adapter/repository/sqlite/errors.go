package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/iho/fundledger/internal/domain"
)

// mapError translates constraint violations into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return domain.ErrDuplicateTransaction
	case sqlite3.ErrConstraintForeignKey:
		return &domain.UnknownAccountError{}
	}
	return err
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
