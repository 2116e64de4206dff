// Package rpcclient provides an authenticated JSON-RPC client for an
// Elements/Liquid node.
//
// The central type is Connection, a handle to one node's RPC endpoint.
// Every call goes through Connection.Call, which forwards positional
// parameters verbatim and normalizes every failure into one of two shapes:
//
//   - *NodeError: the node accepted the request but rejected the operation.
//     It carries the node's numeric error code and message untouched.
//   - a transport error wrapping ErrConnectionFailed (or a decode error):
//     the node could not be reached or did not answer with valid JSON-RPC.
//
// Typed helpers (CreateWallet, GetBalance, SendToAddress, ...) cover the
// wallet and asset verbs the node exposes, so callers never assemble
// positional argument lists by hand.
//
// The client performs no retries and owns no policy beyond the HTTP
// transport's timeout. Observability is opt-in through the CallObserver
// hook, which sees every call after it completes and cannot alter it.
package rpcclient
