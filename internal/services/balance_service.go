package services

import (
	"context"

	"github.com/dstorelabs/store-backend/internal/ledger"
)

type BalanceService struct { l ledger.Ledger }

func NewBalanceService(l ledger.Ledger) *BalanceService { return &BalanceService{l: l} }

func (s *BalanceService) Current(ctx context.Context, seller string) (uint64, error) { return s.l.Balance(ctx, seller) }
