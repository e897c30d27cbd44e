package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procuredesk/procuredesk/internal/purchasing"
)

// PGRepository persists sales in Postgres. Items are stored as a JSONB
// document on the row, mirroring the purchasing tables.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const saleColumns = `id, ref_num, customer, site_address, delivered_by, remarks, delivery_date, items, subtotal, cancelled_total, return_total, grand_total, is_deleted, created_at, updated_at`

func (r *PGRepository) Get(ctx context.Context, id int64) (Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	return scanSale(row)
}

func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Sale, int, error) {
	clauses := []string{fmt.Sprintf("is_deleted = %t", filters.Deleted)}
	var args []any
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(ref_num ILIKE $%d OR customer ILIKE $%d)", len(args), len(args)))
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	query := `SELECT ` + saleColumns + ` FROM sales` + where + ` ORDER BY delivery_date DESC, id DESC`
	if filters.Limit > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, (page-1)*filters.Limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
	}
	return sales, total, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, sale Sale) (int64, error) {
	items, err := json.Marshal(purchasing.ToDTOs(sale.Items))
	if err != nil {
		return 0, fmt.Errorf("marshal sale items: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO sales (ref_num, customer, site_address, delivered_by, remarks, delivery_date, items, subtotal, cancelled_total, return_total, grand_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		sale.RefNum, sale.Customer, sale.SiteAddress, sale.DeliveredBy, sale.Remarks, sale.DeliveryDate,
		items, sale.Totals.Subtotal, sale.Totals.CancelledTotal, sale.Totals.ReturnTotal, sale.Totals.GrandTotal,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateRef
		}
		return 0, err
	}
	return id, nil
}

func (r *PGRepository) Update(ctx context.Context, sale Sale) error {
	items, err := json.Marshal(purchasing.ToDTOs(sale.Items))
	if err != nil {
		return fmt.Errorf("marshal sale items: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE sales
		SET customer = $2, site_address = $3, delivered_by = $4, remarks = $5, delivery_date = $6, items = $7,
		    subtotal = $8, cancelled_total = $9, return_total = $10, grand_total = $11, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		sale.ID, sale.Customer, sale.SiteAddress, sale.DeliveredBy, sale.Remarks, sale.DeliveryDate,
		items, sale.Totals.Subtotal, sale.Totals.CancelledTotal, sale.Totals.ReturnTotal, sale.Totals.GrandTotal,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sales SET is_deleted = $2, updated_at = NOW() WHERE id = $1`, id, deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSale(row pgx.Row) (Sale, error) {
	var sale Sale
	var items []byte
	err := row.Scan(&sale.ID, &sale.RefNum, &sale.Customer, &sale.SiteAddress, &sale.DeliveredBy, &sale.Remarks, &sale.DeliveryDate,
		&items, &sale.Totals.Subtotal, &sale.Totals.CancelledTotal, &sale.Totals.ReturnTotal, &sale.Totals.GrandTotal,
		&sale.IsDeleted, &sale.CreatedAt, &sale.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrNotFound
	}
	if err != nil {
		return Sale{}, fmt.Errorf("scan sale: %w", err)
	}
	if len(items) > 0 {
		var dtos []purchasing.LineItemDTO
		if err := json.Unmarshal(items, &dtos); err != nil {
			return Sale{}, fmt.Errorf("unmarshal sale items: %w", err)
		}
		sale.Items = purchasing.FromDTOs(dtos)
	}
	return sale, nil
}
