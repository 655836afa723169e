package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/dstorelabs/store-backend/internal/repository"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Users:       &usersRepo{pool},
		Purchases:   &purchasesRepo{pool},
		Withdrawals: &withdrawalsRepo{pool},
		AuditLogs:   &auditLogsRepo{pool},
	}
}
