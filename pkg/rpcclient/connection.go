package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/apilatam/liquidnode/pkg/log"
)

// defaultCallTimeout bounds a single RPC round trip when the caller's
// context carries no deadline of its own. Node-side wallet operations
// (rescans aside) answer well within this window.
const defaultCallTimeout = 30 * time.Second

// Config describes how to reach and authenticate against one node.
type Config struct {
	// Host and Port locate the node's RPC listener.
	Host string
	Port int
	// User and Pass are the rpcuser/rpcpassword pair. When both are empty
	// the client falls back to the .cookie file inside DataDir, which is
	// how a freshly started daemon publishes its credentials.
	User string
	Pass string
	// DataDir is the node's working directory, consulted only for the
	// cookie fallback.
	DataDir string
	// Timeout overrides defaultCallTimeout when positive.
	Timeout time.Duration
}

// CallObserver is notified after every RPC call completes, successfully or
// not. Implementations must not block; they observe, they do not intervene.
type CallObserver interface {
	ObserveCall(method string, params []any, result json.RawMessage, err error, elapsed time.Duration)
}

// Connection is an authenticated handle to a single node's JSON-RPC
// endpoint. It is safe for concurrent use; a Connection is owned by the
// Service that opened it, and borrowed (never closed) by wallets and pools.
type Connection struct {
	endpoint string
	user     string
	pass     string
	client   *http.Client
	lg       log.Logger

	nextID   atomic.Uint64
	observer CallObserver
}

// NewConnection opens an authenticated handle to the node described by cfg.
// Credential resolution happens here, once: explicit rpcuser/rpcpassword
// wins, otherwise the daemon's cookie file is read. No request is sent yet;
// the first Call will surface an unreachable node.
func NewConnection(cfg Config, lg log.Logger) (*Connection, error) {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	user, pass := cfg.User, cfg.Pass
	if user == "" && pass == "" {
		var err error
		user, pass, err = readCookie(cfg.DataDir)
		if err != nil {
			return nil, err
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &Connection{
		endpoint: fmt.Sprintf("http://%s:%d/", cfg.Host, cfg.Port),
		user:     user,
		pass:     pass,
		client:   &http.Client{Timeout: timeout},
		lg:       lg.WithName("rpcclient"),
	}, nil
}

// SetObserver installs the call observer. Must be called before the
// Connection is shared; there is no locking around the field.
func (c *Connection) SetObserver(obs CallObserver) {
	c.observer = obs
}

// Endpoint returns the URL this connection talks to.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// Call invokes a single RPC operation with the given positional parameters
// and returns the node's raw result. Params are forwarded in order and
// untyped; validating them is the node's job, not this layer's.
//
// Failure shapes: a *NodeError when the node answered with an error object,
// otherwise an error wrapping ErrConnectionFailed or ErrInvalidResponse.
// Calls are never retried here.
func (c *Connection) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	if c.observer != nil {
		c.observer.ObserveCall(method, params, result, err, time.Since(start))
	}
	return result, err
}

func (c *Connection) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	body, err := json.Marshal(newRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling %s request: %v", ErrInvalidResponse, method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	httpReq.SetBasicAuth(c.user, c.pass)
	httpReq.Header.Set("Content-Type", "application/json")

	c.lg.Debug("calling node", "method", method, "id", id)

	httpRes, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer httpRes.Body.Close()

	resBody, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrConnectionFailed, err)
	}

	// The node answers 500 with a regular JSON-RPC error body, so decode
	// first and only fall back to the HTTP status when the body is opaque.
	var res response
	if err := json.Unmarshal(resBody, &res); err != nil {
		if httpRes.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: HTTP %d", ErrConnectionFailed, httpRes.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if res.Error != nil {
		c.lg.Debug("node rejected call", "method", method, "code", res.Error.Code)
		return nil, res.Error
	}
	return res.Result, nil
}

// CallInto runs Call and decodes the result into out.
func (c *Connection) CallInto(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s result: %v", ErrInvalidResponse, method, err)
	}
	return nil
}

// readCookie parses the "<user>:<pass>" cookie the daemon drops in its
// working directory on startup.
func readCookie(dataDir string) (user, pass string, err error) {
	if dataDir == "" {
		return "", "", ErrMissingCredentials
	}
	raw, err := os.ReadFile(filepath.Join(dataDir, ".cookie"))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}
	parts := strings.SplitN(strings.TrimSpace(string(raw)), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: malformed cookie file", ErrMissingCredentials)
	}
	return parts[0], parts[1], nil
}
