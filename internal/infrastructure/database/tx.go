package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RunInTx runs fn inside one transaction. A transient failure (deadlock,
// serialization failure, busy database) is retried exactly once; fn must not
// perform external I/O because it may run twice.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return err
	}
	log.Warn().Err(err).Msg("transaction failed with transient error, retrying once")
	return db.WithContext(ctx).Transaction(fn)
}
