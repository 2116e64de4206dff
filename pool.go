package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// ErrNilPoolWallet rejects pool construction without an owning wallet.
var ErrNilPoolWallet = errors.New("pool requires an owning wallet")

// Pool is an asset-issuance capability scoped to exactly one wallet. It is
// bound at construction and never rebound; several pools may share the
// same wallet. A Pool carries no state of its own beyond that binding.
type Pool struct {
	wallet *Wallet
}

// NewPool wraps an existing wallet into an issuance capability.
func NewPool(w *Wallet) (*Pool, error) {
	if w == nil {
		return nil, ErrNilPoolWallet
	}
	return &Pool{wallet: w}, nil
}

// Wallet returns the owning wallet.
func (p *Pool) Wallet() *Wallet {
	return p.wallet
}

// IssueAsset issues a new asset through the owning wallet: initial units of
// the asset itself and reissuance reissuance tokens. Amounts must be
// non-negative; insufficient funds for the issuance fee surface as the
// node's own rejection.
func (p *Pool) IssueAsset(ctx context.Context, initial, reissuance Amount) (rpcclient.Metadata, error) {
	if initial.Decimal().IsNegative() || reissuance.Decimal().IsNegative() {
		return nil, fmt.Errorf("%w: issuance amounts must be non-negative", ErrInvalidAmount)
	}
	return p.wallet.Conn().IssueAsset(ctx, initial, reissuance)
}
