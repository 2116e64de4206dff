package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// WalletMode selects how a Wallet is constructed. The modes are mutually
// exclusive and fixed at creation time.
type WalletMode string

const (
	// ModeCreate asks the node to allocate a brand new wallet.
	ModeCreate WalletMode = "create"
	// ModeLoad attaches to an existing wallet file by name.
	ModeLoad WalletMode = "load"
	// ModeReference builds a handle with no node interaction; metadata is
	// populated later or the wallet is used purely to issue calls.
	ModeReference WalletMode = "reference"
)

var (
	// ErrUnsupportedMode is a construction-time configuration error. It is
	// fatal for the construction; there is no fallback mode.
	ErrUnsupportedMode = errors.New("unsupported wallet mode")
	// ErrEmptyWalletName rejects load requests without a wallet name.
	ErrEmptyWalletName = errors.New("wallet name must not be empty")
	// ErrNonPositiveAmount rejects sends of zero or negative amounts
	// before they reach the node.
	ErrNonPositiveAmount = errors.New("send amount must be positive")
	// ErrEmptyAddress rejects sends without a destination address.
	ErrEmptyAddress = errors.New("destination address must not be empty")
)

// metadataLabelKey is the metadata field used for label lookups within a
// session.
const metadataLabelKey = "label"

// WalletOptions configures wallet construction.
type WalletOptions struct {
	// Mode is one of ModeCreate, ModeLoad, ModeReference. Empty defaults
	// to ModeReference, mirroring "give me a handle, ask nothing of the
	// node".
	Mode WalletMode
	// Label names the wallet. In create mode an empty label is replaced
	// with a fresh UUID; in load mode it is required.
	Label string
	// WithAddress provisions a receiving address right after creation.
	// Only meaningful in create mode.
	WithAddress bool
}

// Wallet represents one wallet known to the node. It borrows the
// Connection it was built with and never closes it; many wallets may share
// one Connection.
type Wallet struct {
	conn     *rpcclient.Connection
	label    string
	metadata rpcclient.Metadata
	lg       log.Logger
}

// NewWallet constructs a Wallet against conn in the requested mode.
// An unrecognized mode fails immediately with ErrUnsupportedMode.
func NewWallet(ctx context.Context, conn *rpcclient.Connection, opts WalletOptions, lg log.Logger) (*Wallet, error) {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	w := &Wallet{
		conn: conn,
		lg:   lg.WithName("wallet"),
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeReference
	}

	switch mode {
	case ModeCreate:
		if err := w.create(ctx, opts.Label, opts.WithAddress); err != nil {
			return nil, err
		}
	case ModeLoad:
		if opts.Label == "" {
			return nil, ErrEmptyWalletName
		}
		if _, err := w.Load(ctx, opts.Label); err != nil {
			return nil, err
		}
	case ModeReference:
		w.metadata = rpcclient.Metadata{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, opts.Mode)
	}

	return w, nil
}

func (w *Wallet) create(ctx context.Context, label string, withAddress bool) error {
	if label == "" {
		label = uuid.NewString()
	}

	meta, err := w.conn.CreateWallet(ctx, label, false, false)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = rpcclient.Metadata{}
	}
	meta[metadataLabelKey] = label

	if withAddress {
		addr, err := w.conn.GetNewAddress(ctx)
		if err != nil {
			return err
		}
		meta["address"] = addr
	}

	w.label = label
	w.metadata = meta
	w.lg.Info("wallet created", "label", label, "withAddress", withAddress)
	return nil
}

// Label returns the wallet's label, empty for an unloaded reference wallet.
func (w *Wallet) Label() string {
	return w.label
}

// Metadata returns the node-supplied metadata record. Empty (not nil) for
// a reference wallet that has not been loaded yet.
func (w *Wallet) Metadata() rpcclient.Metadata {
	return w.metadata
}

// Conn exposes the borrowed connection so pools can issue calls through
// their owning wallet.
func (w *Wallet) Conn() *rpcclient.Connection {
	return w.conn
}

// ListWallets lists every wallet present in the node's wallet directory.
func (w *Wallet) ListWallets(ctx context.Context) ([]rpcclient.WalletDescriptor, error) {
	return w.conn.ListWalletDir(ctx)
}

// Load attaches to the named wallet file and adopts the node's load result
// as this wallet's metadata.
func (w *Wallet) Load(ctx context.Context, name string) (rpcclient.Metadata, error) {
	if name == "" {
		return nil, ErrEmptyWalletName
	}
	meta, err := w.conn.LoadWallet(ctx, name)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		meta = rpcclient.Metadata{}
	}
	meta[metadataLabelKey] = name

	w.label = name
	w.metadata = meta
	w.lg.Info("wallet loaded", "label", name)
	return meta, nil
}

// Balance returns the wallet's confirmed balances keyed by asset label.
func (w *Wallet) Balance(ctx context.Context) (map[string]decimal.Decimal, error) {
	return w.conn.GetBalance(ctx)
}

// Address returns the wallet's current receiving address.
func (w *Wallet) Address(ctx context.Context) (string, error) {
	return w.conn.GetAddress(ctx)
}

// PrivateKey returns the private key behind the current address. The node
// rejects this for watch-only and locked wallets.
func (w *Wallet) PrivateKey(ctx context.Context) (string, error) {
	return w.conn.DumpPrivKey(ctx)
}

// PublicKey returns the public key behind the current address.
func (w *Wallet) PublicKey(ctx context.Context) (string, error) {
	return w.conn.GetPubKey(ctx)
}

// Info returns the node's wallet info record.
func (w *Wallet) Info(ctx context.Context) (rpcclient.Metadata, error) {
	return w.conn.GetWalletInfo(ctx)
}

// SendToAddress sends amount to the destination address and returns the
// transaction id. The amount must be strictly positive; everything else
// (address validity, balance) is the node's call.
func (w *Wallet) SendToAddress(ctx context.Context, address string, amount Amount) (string, error) {
	if address == "" {
		return "", ErrEmptyAddress
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: got %s", ErrNonPositiveAmount, amount)
	}
	return w.conn.SendToAddress(ctx, address, amount)
}
