// Package postgres backs the ledger with postgres. Each mutating operation is
// one serializable transaction with row locks taken up front, so it commits or
// fails as a single step, matching the memory backend's semantics.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dstorelabs/store-backend/internal/ledger"
	"github.com/dstorelabs/store-backend/internal/models"
)

type Ledger struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Ledger { return &Ledger{pool: pool} }

var _ ledger.Ledger = (*Ledger)(nil)

func (l *Ledger) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("tx begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (l *Ledger) AddProduct(ctx context.Context, seller, name, link string, price uint64) (uint64, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(link) == "" || price == 0 {
		return 0, ledger.ErrInvalidInput
	}

	var id uint64
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		// next sequential id; serializable isolation keeps this race-free
		return tx.QueryRow(ctx,
			`INSERT INTO products(id, name, download_link, price, seller, is_active)
			 SELECT COALESCE(MAX(id)+1, 0), $1, $2, $3, $4, TRUE FROM products
			 RETURNING id`,
			name, link, price, seller,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (l *Ledger) GetProduct(ctx context.Context, caller string, id uint64) (models.Product, error) {
	var p models.Product
	err := l.pool.QueryRow(ctx,
		`SELECT p.id, p.name,
		        CASE WHEN p.seller = $2 OR EXISTS(
		            SELECT 1 FROM receipts r WHERE r.product_id = p.id AND r.buyer = $2
		        ) THEN p.download_link ELSE '' END,
		        p.price, p.seller, p.is_active, p.created_at
		   FROM products p
		  WHERE p.id = $1`,
		id, caller,
	).Scan(&p.ID, &p.Name, &p.DownloadLink, &p.Price, &p.Seller, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, ledger.ErrNotFound
	}
	return p, err
}

func (l *Ledger) ListProducts(ctx context.Context, caller string) ([]models.Product, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT p.id, p.name,
		        CASE WHEN p.seller = $1 OR EXISTS(
		            SELECT 1 FROM receipts r WHERE r.product_id = p.id AND r.buyer = $1
		        ) THEN p.download_link ELSE '' END,
		        p.price, p.seller, p.is_active, p.created_at
		   FROM products p
		  ORDER BY p.id`,
		caller,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.DownloadLink, &p.Price, &p.Seller, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (l *Ledger) ProductCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (l *Ledger) HasPurchased(ctx context.Context, buyer string, id uint64) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM receipts WHERE product_id=$1 AND buyer=$2)`,
		id, buyer,
	).Scan(&exists)
	return exists, err
}

func (l *Ledger) Purchase(ctx context.Context, buyer string, id uint64, amount uint64) error {
	return l.withTx(ctx, func(tx pgx.Tx) error {
		var price uint64
		var seller string
		var active bool
		err := tx.QueryRow(ctx,
			`SELECT price, seller, is_active FROM products WHERE id=$1 FOR UPDATE`,
			id,
		).Scan(&price, &seller, &active)
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		if !active {
			return ledger.ErrProductInactive
		}

		var purchased bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM receipts WHERE product_id=$1 AND buyer=$2)`,
			id, buyer,
		).Scan(&purchased); err != nil {
			return err
		}
		if purchased {
			return ledger.ErrAlreadyPurchased
		}
		if amount != price {
			return ledger.ErrPaymentMismatch
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO receipts(product_id, buyer) VALUES($1, $2)`,
			id, buyer,
		); err != nil {
			return fmt.Errorf("record receipt: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO balances(seller, amount, last_updated_at)
			 VALUES($1, $2, now())
			 ON CONFLICT (seller) DO UPDATE
			    SET amount = balances.amount + EXCLUDED.amount,
			        last_updated_at = now()`,
			seller, amount,
		)
		if err != nil {
			return fmt.Errorf("credit seller: %w", err)
		}
		return nil
	})
}

func (l *Ledger) Withdraw(ctx context.Context, seller string) (uint64, error) {
	var amount uint64
	err := l.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT amount FROM balances WHERE seller=$1 FOR UPDATE`,
			seller,
		).Scan(&amount)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && amount == 0) {
			return ledger.ErrNoFunds
		}
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}
		// zeroed in the same transaction the amount is read in
		_, err = tx.Exec(ctx,
			`UPDATE balances SET amount = 0, last_updated_at = now() WHERE seller=$1`,
			seller,
		)
		return err
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (l *Ledger) Balance(ctx context.Context, seller string) (uint64, error) {
	var amount uint64
	err := l.pool.QueryRow(ctx,
		`SELECT amount FROM balances WHERE seller=$1`,
		seller,
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (l *Ledger) Deactivate(ctx context.Context, caller string, id uint64) error {
	return l.withTx(ctx, func(tx pgx.Tx) error {
		var seller string
		err := tx.QueryRow(ctx,
			`SELECT seller FROM products WHERE id=$1 FOR UPDATE`,
			id,
		).Scan(&seller)
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return err
		}
		if seller != caller {
			return ledger.ErrForbidden
		}
		_, err = tx.Exec(ctx, `UPDATE products SET is_active = FALSE WHERE id=$1`, id)
		return err
	})
}
