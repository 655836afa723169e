package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dstorelabs/store-backend/internal/models"
)

type withdrawalsRepo struct{ pool *pgxpool.Pool }

func (r *withdrawalsRepo) Create(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO withdrawals(id, seller, amount, status, reason)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, seller, amount, status, reason, created_at`,
		w.ID, w.Seller, w.Amount, w.Status, w.Reason,
	).Scan(&w.ID, &w.Seller, &w.Amount, &w.Status, &w.Reason, &w.CreatedAt)
	return w, err
}

func (r *withdrawalsRepo) GetByID(ctx context.Context, id string) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.pool.QueryRow(ctx,
		`SELECT id, seller, amount, status, reason, created_at
		   FROM withdrawals
		  WHERE id=$1`,
		id,
	).Scan(&w.ID, &w.Seller, &w.Amount, &w.Status, &w.Reason, &w.CreatedAt)
	return w, err
}

func (r *withdrawalsRepo) ListBySeller(ctx context.Context, seller string, limit, offset int) ([]models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, seller, amount, status, reason, created_at
		   FROM withdrawals
		  WHERE seller=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		seller, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.Seller, &w.Amount, &w.Status, &w.Reason, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *withdrawalsRepo) Complete(ctx context.Context, id string, amount uint64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE withdrawals SET status=$2, amount=$3 WHERE id=$1`,
		id, models.PurchaseCompleted, amount,
	)
	return err
}

func (r *withdrawalsRepo) MarkReverted(ctx context.Context, id, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE withdrawals SET status=$2, reason=$3 WHERE id=$1`,
		id, models.PurchaseReverted, reason,
	)
	return err
}
