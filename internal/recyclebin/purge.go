package recyclebin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGPurger permanently removes soft-deleted rows past the retention
// window. Used by the scheduled purge job; restore is impossible after.
type PGPurger struct {
	pool *pgxpool.Pool
}

func NewPGPurger(pool *pgxpool.Pool) *PGPurger {
	return &PGPurger{pool: pool}
}

// PurgeDeletedBefore deletes soft-deleted records last touched before
// cutoff across all binned tables and reports the row count.
func (p *PGPurger) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	for _, table := range []string{"purchase_orders", "purchases", "sales"} {
		tag, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE is_deleted AND updated_at < $1`, table), cutoff)
		if err != nil {
			return purged, fmt.Errorf("purge %s: %w", table, err)
		}
		purged += tag.RowsAffected()
	}
	return purged, nil
}
