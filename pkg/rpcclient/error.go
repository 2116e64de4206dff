package rpcclient

import (
	"errors"
	"fmt"
)

// Transport-level error values. Failures that never reached the node (or
// reached it but produced no decodable JSON-RPC answer) wrap one of these,
// so callers can tell "no node reachable" apart from "node rejected it".
var (
	// ErrConnectionFailed marks any failure to deliver the request or read
	// the response over HTTP.
	ErrConnectionFailed = errors.New("rpcclient: connection failed")
	// ErrInvalidResponse marks a reply that was not valid JSON-RPC.
	ErrInvalidResponse = errors.New("rpcclient: invalid response from node")
	// ErrMissingCredentials is returned when neither rpcuser/rpcpassword nor
	// a readable cookie file is available at connection time.
	ErrMissingCredentials = errors.New("rpcclient: no RPC credentials available")
)

// Well-known node error codes, as emitted by elementsd. Only the ones this
// layer's callers branch on are listed; any other code still round-trips
// inside a NodeError.
const (
	CodeWalletError         = -4
	CodeWalletInsufficient  = -6
	CodeInvalidParameter    = -8
	CodeWalletNotFound      = -18
	CodeWalletNotSpecified  = -19
	CodeInvalidAddressOrKey = -5
)

// NodeError is an error the node itself returned inside a JSON-RPC error
// object. Code and Message are passed through verbatim; this layer never
// rewrites or retries them.
type NodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error %d: %s", e.Code, e.Message)
}

// IsNodeError reports whether err (anywhere in its chain) is a rejection
// from the node, and returns it if so.
func IsNodeError(err error) (*NodeError, bool) {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
