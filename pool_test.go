package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

func TestNewPoolRequiresWallet(t *testing.T) {
	_, err := NewPool(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNilPoolWallet))
}

func TestPoolIssueAsset(t *testing.T) {
	node := newTestNode(t)
	node.respond("issueasset", map[string]any{
		"asset": "assetid",
		"token": "tokenid",
		"txid":  "txid-issue",
	})
	conn := newTestConnection(t, node)

	wallet, err := NewWallet(context.Background(), conn, WalletOptions{}, nil)
	require.NoError(t, err)
	pool, err := NewPool(wallet)
	require.NoError(t, err)
	assert.Same(t, wallet, pool.Wallet())

	initial, err := NewAmountFromString("10")
	require.NoError(t, err)
	reissuance, err := NewAmountFromFloat(1)
	require.NoError(t, err)

	meta, err := pool.IssueAsset(context.Background(), initial, reissuance)
	require.NoError(t, err)
	assert.Equal(t, "assetid", meta["asset"])
	assert.Equal(t, "tokenid", meta["token"])

	calls := node.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "issueasset", calls[0].Method)
	assert.Equal(t, []any{float64(10), float64(1)}, calls[0].Params)
}

func TestPoolIssueAssetZeroReissuance(t *testing.T) {
	node := newTestNode(t)
	node.respond("issueasset", map[string]any{"asset": "assetid"})
	conn := newTestConnection(t, node)

	wallet, err := NewWallet(context.Background(), conn, WalletOptions{}, nil)
	require.NoError(t, err)
	pool, err := NewPool(wallet)
	require.NoError(t, err)

	initial, err := NewAmountFromString("5")
	require.NoError(t, err)

	// Zero reissuance tokens is a valid issuance.
	_, err = pool.IssueAsset(context.Background(), initial, Amount{})
	require.NoError(t, err)

	calls := node.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{float64(5), float64(0)}, calls[0].Params)
}

func TestPoolIssueAssetNodeRejection(t *testing.T) {
	node := newTestNode(t)
	node.reject("issueasset", rpcclient.CodeWalletInsufficient, "Insufficient funds")
	conn := newTestConnection(t, node)

	wallet, err := NewWallet(context.Background(), conn, WalletOptions{}, nil)
	require.NoError(t, err)
	pool, err := NewPool(wallet)
	require.NoError(t, err)

	initial, err := NewAmountFromString("10")
	require.NoError(t, err)

	_, err = pool.IssueAsset(context.Background(), initial, Amount{})
	require.Error(t, err)

	nodeErr, ok := rpcclient.IsNodeError(err)
	require.True(t, ok)
	assert.Equal(t, rpcclient.CodeWalletInsufficient, nodeErr.Code)
}
