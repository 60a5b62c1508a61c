package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

const pruneRevisions = `DELETE FROM settings_revisions WHERE created_at < $1`

// StartRevisionPruner removes settings revisions older than retention every interval
// until ctx is done.
func StartRevisionPruner(
	ctx context.Context,
	db *sql.DB,
	dialect Dialect,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	query := dialect.Rebind(pruneRevisions)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention).Unix()
				res, err := db.ExecContext(ctx, query, cutoff)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error("failed to prune settings revisions", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("pruned settings revisions", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
