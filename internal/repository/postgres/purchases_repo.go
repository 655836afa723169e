package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dstorelabs/store-backend/internal/models"
)

type purchasesRepo struct{ pool *pgxpool.Pool }

func (r *purchasesRepo) Create(ctx context.Context, p models.Purchase) (models.Purchase, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO purchases(id, product_id, buyer, amount, status, reason)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING id, product_id, buyer, amount, status, reason, created_at`,
		p.ID, p.ProductID, p.Buyer, p.Amount, p.Status, p.Reason,
	).Scan(&p.ID, &p.ProductID, &p.Buyer, &p.Amount, &p.Status, &p.Reason, &p.CreatedAt)
	return p, err
}

func (r *purchasesRepo) GetByID(ctx context.Context, id string) (models.Purchase, error) {
	var p models.Purchase
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, buyer, amount, status, reason, created_at
		   FROM purchases
		  WHERE id=$1`,
		id,
	).Scan(&p.ID, &p.ProductID, &p.Buyer, &p.Amount, &p.Status, &p.Reason, &p.CreatedAt)
	return p, err
}

func (r *purchasesRepo) ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]models.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, buyer, amount, status, reason, created_at
		   FROM purchases
		  WHERE buyer=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		buyer, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Buyer, &p.Amount, &p.Status, &p.Reason, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *purchasesRepo) UpdateStatus(ctx context.Context, id string, status models.PurchaseStatus, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE purchases SET status=$2, reason=$3 WHERE id=$1`,
		id, status, reason,
	)
	return err
}
