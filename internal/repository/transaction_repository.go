// internal/repository/transaction_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos-service/internal/database"
	"pos-service/internal/model"
)

const transactionColumns = `id, transaction_no, total, shipping_cost, grand_total, paid, change, created_at`

// transactionRepository implements TransactionRepository on postgres
type transactionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new postgres transaction repository
func NewTransactionRepository(db *database.DB, logger *zap.Logger) TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores the transaction header and its items in one database transaction
func (r *transactionRepository) Create(ctx context.Context, trx *model.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		trx.ID, trx.TransactionNumber, trx.Subtotal, trx.ShippingCost,
		trx.GrandTotal, trx.PaidAmount, trx.ChangeAmount, trx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", ErrDuplicate, trx.TransactionNumber)
		}
		r.logger.Error("Failed to create transaction", zap.Error(err))
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	for position, item := range trx.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transaction_items (
				id, transaction_id, product_id, product_name, price, quantity, subtotal, position
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			item.ID, trx.ID, item.ProductID, item.ProductName, item.Price,
			item.Quantity, item.Subtotal, position,
		)
		if err != nil {
			return fmt.Errorf("failed to create transaction item %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction with its items
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByNumber retrieves a transaction by its transaction number
func (r *transactionRepository) GetByNumber(ctx context.Context, transactionNumber string) (*model.Transaction, error) {
	return r.getOne(ctx, "transaction_no = $1", transactionNumber)
}

func (r *transactionRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where

	trx, err := scanTransaction(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if err := r.attachItems(ctx, []*model.Transaction{trx}); err != nil {
		return nil, err
	}
	return trx, nil
}

// List retrieves transactions newest first with their items
func (r *transactionRepository) List(ctx context.Context, filter *TransactionFilter) ([]*model.Transaction, error) {
	whereClause := ""
	args := []interface{}{}
	if filter.Since != nil {
		whereClause = "WHERE created_at >= $1"
		args = append(args, *filter.Since)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, normalizeLimit(filter.Limit), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*model.Transaction{}
	for rows.Next() {
		trx, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction row", zap.Error(err))
			continue
		}
		transactions = append(transactions, trx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	if err := r.attachItems(ctx, transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// Stats counts and sums grand totals since the given time
func (r *transactionRepository) Stats(ctx context.Context, since *time.Time) (*TransactionTotals, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(grand_total), 0) FROM transactions`
	args := []interface{}{}
	if since != nil {
		query += ` WHERE created_at >= $1`
		args = append(args, *since)
	}

	totals := &TransactionTotals{}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&totals.Count, &totals.Total); err != nil {
		return nil, fmt.Errorf("failed to get transaction stats: %w", err)
	}
	return totals, nil
}

// attachItems loads the items of all given transactions in one query
func (r *transactionRepository) attachItems(ctx context.Context, transactions []*model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(transactions))
	byID := make(map[uuid.UUID]*model.Transaction, len(transactions))
	for _, trx := range transactions {
		ids = append(ids, trx.ID.String())
		byID[trx.ID] = trx
		trx.Items = []model.TransactionItem{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, product_name, price, quantity, subtotal
		FROM transaction_items
		WHERE transaction_id = ANY($1::uuid[])
		ORDER BY transaction_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list transaction items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.TransactionItem
		var productID uuid.NullUUID
		if err := rows.Scan(
			&item.ID, &item.TransactionID, &productID, &item.ProductName,
			&item.Price, &item.Quantity, &item.Subtotal,
		); err != nil {
			return fmt.Errorf("failed to scan transaction item: %w", err)
		}
		if productID.Valid {
			id := productID.UUID
			item.ProductID = &id
		}
		if trx, ok := byID[item.TransactionID]; ok {
			trx.Items = append(trx.Items, item)
		}
	}

	return rows.Err()
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	trx := &model.Transaction{}
	err := row.Scan(
		&trx.ID, &trx.TransactionNumber, &trx.Subtotal, &trx.ShippingCost,
		&trx.GrandTotal, &trx.PaidAmount, &trx.ChangeAmount, &trx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return trx, nil
}

// Average divides the total by the count, zero when empty
func (t *TransactionTotals) Average() decimal.Decimal {
	if t.Count == 0 {
		return decimal.Zero
	}
	return t.Total.DivRound(decimal.NewFromInt(int64(t.Count)), 2)
}

// isUniqueViolation reports a postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
