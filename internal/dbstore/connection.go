// Package dbstore is the optional verify-load path: when
// --database-name names a DSN and --verify-load is set, it dials the
// target database and executes the SQL emitter's generated script as a
// smoke check, adapted from the teacher's database.NewConnection
// (which dials Postgres for the live game-state store).
package dbstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// errRollbackOnly forces Transaction to roll back a successful
// verify-load run instead of committing it.
var errRollbackOnly = errors.New("verify-load: rolling back smoke-check transaction")

// Connect opens a Postgres connection for dsn. Not used unless a run
// passes --verify-load; the pipeline's normal output is the rendered
// script, not a live write.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to verify-load database: %w", err)
	}
	return db, nil
}

// VerifyLoad executes script against db inside one transaction, rolling
// back afterward — it proves the script runs cleanly without leaving
// verification data behind in a shared database.
func VerifyLoad(ctx context.Context, db *gorm.DB, script string) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(script).Error; err != nil {
			return fmt.Errorf("verify-load script failed: %w", err)
		}
		return errRollbackOnly
	})
	if errors.Is(err, errRollbackOnly) {
		return nil
	}
	return err
}
