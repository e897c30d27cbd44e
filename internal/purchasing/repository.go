package purchasing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procuredesk/procuredesk/internal/platform/db"
)

// PGRepository persists orders and purchases in Postgres. Line items are
// stored as a JSONB document on the parent row; the item list is always
// read and written as a whole.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository returns a Postgres-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type pgTxRepository struct {
	tx pgx.Tx
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

const orderColumns = `id, ref_num, vendor, attachment, is_purchase_created, is_deleted, items, created_at, updated_at`

// GetOrder fetches one order by id, soft-deleted rows included.
func (r *PGRepository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderByRef fetches the non-deleted order carrying refNum.
func (r *PGRepository) GetOrderByRef(ctx context.Context, refNum string) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE ref_num = $1 AND NOT is_deleted`, refNum)
	return scanOrder(row)
}

// ListOrders returns a page of orders plus the unpaged count.
func (r *PGRepository) ListOrders(ctx context.Context, filters ListFilters) ([]PurchaseOrder, int, error) {
	where, args := orderListWhere(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchase orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM purchase_orders` + where + ` ORDER BY created_at DESC, id DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, pageOffset(filters))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

const purchaseColumns = `id, ref_num, vendor, invoice_file, received_by, remarks, purchase_date, items, subtotal, cancelled_total, return_total, grand_total, is_deleted, created_at, updated_at`

// GetPurchase fetches one purchase by id, soft-deleted rows included.
func (r *PGRepository) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
	return scanPurchase(row)
}

// ListPurchases returns a page of purchases plus the unpaged count.
func (r *PGRepository) ListPurchases(ctx context.Context, filters ListFilters) ([]Purchase, int, error) {
	where, args := purchaseListWhere(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	query := `SELECT ` + purchaseColumns + ` FROM purchases` + where + ` ORDER BY purchase_date DESC, id DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, pageOffset(filters))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, total, rows.Err()
}

func (t *pgTxRepository) CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error) {
	items, err := marshalItems(order.Items)
	if err != nil {
		return 0, err
	}
	var id int64
	err = t.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (ref_num, vendor, attachment, items)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		order.RefNum, order.Vendor, order.Attachment, items,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return id, nil
}

func (t *pgTxRepository) UpdateOrder(ctx context.Context, order PurchaseOrder) error {
	items, err := marshalItems(order.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE purchase_orders
		SET vendor = $2, attachment = $3, items = $4, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		order.ID, order.Vendor, order.Attachment, items,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTxRepository) SetOrderDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET is_deleted = $2, updated_at = NOW() WHERE id = $1`, id, deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTxRepository) SetOrderPurchaseCreated(ctx context.Context, id int64, created bool) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET is_purchase_created = $2, updated_at = NOW() WHERE id = $1`, id, created)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTxRepository) CreatePurchase(ctx context.Context, purchase Purchase) (int64, error) {
	items, err := marshalItems(purchase.Items)
	if err != nil {
		return 0, err
	}
	var id int64
	err = t.tx.QueryRow(ctx, `
		INSERT INTO purchases (ref_num, vendor, invoice_file, received_by, remarks, purchase_date, items, subtotal, cancelled_total, return_total, grand_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		purchase.RefNum, purchase.Vendor, purchase.InvoiceFile, purchase.ReceivedBy, purchase.Remarks, purchase.PurchaseDate,
		items, purchase.Totals.Subtotal, purchase.Totals.CancelledTotal, purchase.Totals.ReturnTotal, purchase.Totals.GrandTotal,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return id, nil
}

func (t *pgTxRepository) UpdatePurchase(ctx context.Context, purchase Purchase) error {
	items, err := marshalItems(purchase.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE purchases
		SET invoice_file = $2, received_by = $3, remarks = $4, purchase_date = $5, items = $6,
		    subtotal = $7, cancelled_total = $8, return_total = $9, grand_total = $10, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		purchase.ID, purchase.InvoiceFile, purchase.ReceivedBy, purchase.Remarks, purchase.PurchaseDate,
		items, purchase.Totals.Subtotal, purchase.Totals.CancelledTotal, purchase.Totals.ReturnTotal, purchase.Totals.GrandTotal,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTxRepository) SetPurchaseDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchases SET is_deleted = $2, updated_at = NOW() WHERE id = $1`, id, deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (PurchaseOrder, error) {
	var order PurchaseOrder
	var items []byte
	err := row.Scan(&order.ID, &order.RefNum, &order.Vendor, &order.Attachment, &order.IsPurchaseCreated, &order.IsDeleted, &items, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrNotFound
	}
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("scan purchase order: %w", err)
	}
	order.Items, err = unmarshalItems(items)
	if err != nil {
		return PurchaseOrder{}, err
	}
	return order, nil
}

func scanPurchase(row rowScanner) (Purchase, error) {
	var purchase Purchase
	var items []byte
	err := row.Scan(&purchase.ID, &purchase.RefNum, &purchase.Vendor, &purchase.InvoiceFile, &purchase.ReceivedBy, &purchase.Remarks, &purchase.PurchaseDate,
		&items, &purchase.Totals.Subtotal, &purchase.Totals.CancelledTotal, &purchase.Totals.ReturnTotal, &purchase.Totals.GrandTotal,
		&purchase.IsDeleted, &purchase.CreatedAt, &purchase.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, ErrNotFound
	}
	if err != nil {
		return Purchase{}, fmt.Errorf("scan purchase: %w", err)
	}
	purchase.Items, err = unmarshalItems(items)
	if err != nil {
		return Purchase{}, err
	}
	return purchase, nil
}

func marshalItems(items []LineItem) ([]byte, error) {
	payload, err := json.Marshal(ToDTOs(items))
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}
	return payload, nil
}

func unmarshalItems(payload []byte) ([]LineItem, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var dtos []LineItemDTO
	if err := json.Unmarshal(payload, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	return FromDTOs(dtos), nil
}

func orderListWhere(filters ListFilters) (string, []any) {
	clauses := []string{fmt.Sprintf("is_deleted = %t", filters.Deleted)}
	var args []any
	if filters.AvailableOnly {
		clauses = append(clauses, "NOT is_purchase_created")
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(ref_num ILIKE $%d OR vendor ILIKE $%d)", len(args), len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func purchaseListWhere(filters ListFilters) (string, []any) {
	clauses := []string{fmt.Sprintf("is_deleted = %t", filters.Deleted)}
	var args []any
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(ref_num ILIKE $%d OR vendor ILIKE $%d)", len(args), len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func pageOffset(filters ListFilters) int {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * filters.Limit
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateRef
	}
	return err
}
