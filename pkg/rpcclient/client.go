package rpcclient

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Typed wrappers over Call for every verb this layer uses. Each one fixes
// the operation name and the positional argument order, so the rest of the
// codebase never assembles raw parameter lists.

// WalletDescriptor is one entry of the node's wallet directory listing.
type WalletDescriptor struct {
	Name string `json:"name"`
}

// Metadata is the open-ended key/value record the node returns for wallet
// creation, loading and info calls.
type Metadata map[string]any

// CreateWallet asks the node to create a wallet with the given name.
// The disablePrivateKeys and blank flags map to createwallet's second and
// third positional parameters.
func (c *Connection) CreateWallet(ctx context.Context, name string, disablePrivateKeys, blank bool) (Metadata, error) {
	var out Metadata
	err := c.CallInto(ctx, &out, "createwallet", name, disablePrivateKeys, blank)
	return out, err
}

// GetNewAddress requests a fresh receiving address.
func (c *Connection) GetNewAddress(ctx context.Context) (string, error) {
	var out string
	err := c.CallInto(ctx, &out, "getnewaddress")
	return out, err
}

// ListWalletDir lists the wallets present in the node's wallet directory,
// loaded or not.
func (c *Connection) ListWalletDir(ctx context.Context) ([]WalletDescriptor, error) {
	var out struct {
		Wallets []WalletDescriptor `json:"wallets"`
	}
	err := c.CallInto(ctx, &out, "listwalletdir")
	return out.Wallets, err
}

// LoadWallet attaches an existing wallet file by name.
func (c *Connection) LoadWallet(ctx context.Context, name string) (Metadata, error) {
	var out Metadata
	err := c.CallInto(ctx, &out, "loadwallet", name)
	return out, err
}

// GetBalance returns the loaded wallet's confirmed balances per asset.
// Elements reports balances as an asset-label keyed object even when only
// the policy asset is present.
func (c *Connection) GetBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var out map[string]decimal.Decimal
	err := c.CallInto(ctx, &out, "getbalance")
	return out, err
}

// GetAddress returns the wallet's current receiving address.
func (c *Connection) GetAddress(ctx context.Context) (string, error) {
	var out string
	err := c.CallInto(ctx, &out, "getaddress")
	return out, err
}

// DumpPrivKey returns the private key of the wallet's current address.
// Fails on watch-only and locked wallets.
func (c *Connection) DumpPrivKey(ctx context.Context) (string, error) {
	var out string
	err := c.CallInto(ctx, &out, "dumpprivkey")
	return out, err
}

// GetPubKey returns the public key of the wallet's current address.
func (c *Connection) GetPubKey(ctx context.Context) (string, error) {
	var out string
	err := c.CallInto(ctx, &out, "getpubkey")
	return out, err
}

// GetWalletInfo returns the loaded wallet's metadata record.
func (c *Connection) GetWalletInfo(ctx context.Context) (Metadata, error) {
	var out Metadata
	err := c.CallInto(ctx, &out, "getwalletinfo")
	return out, err
}

// SendToAddress sends amount to the destination address and returns the
// transaction id. The amount is forwarded as-is so callers control its
// exact JSON representation.
func (c *Connection) SendToAddress(ctx context.Context, address string, amount json.Marshaler) (string, error) {
	var out string
	err := c.CallInto(ctx, &out, "sendtoaddress", address, amount)
	return out, err
}

// IssueAsset issues a new asset from the loaded wallet: assetAmount units
// of the asset and tokenAmount reissuance tokens. Returns the node's
// issuance metadata (asset and token identifiers, entropy, funding txid).
func (c *Connection) IssueAsset(ctx context.Context, assetAmount, tokenAmount json.Marshaler) (Metadata, error) {
	var out Metadata
	err := c.CallInto(ctx, &out, "issueasset", assetAmount, tokenAmount)
	return out, err
}
