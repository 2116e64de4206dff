package rpcclient

import "encoding/json"

// request is the wire form of a single JSON-RPC 1.0 call.
// Elements speaks JSON-RPC 1.0 over HTTP POST: one request object per body,
// positional parameters only.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// response is the wire form of the node's answer. Exactly one of Result and
// Error is meaningful; the node sets the other to null.
type response struct {
	Result json.RawMessage `json:"result"`
	Error  *NodeError      `json:"error"`
	ID     uint64          `json:"id"`
}

func newRequest(id uint64, method string, params []any) request {
	if params == nil {
		params = []any{}
	}
	return request{
		JSONRPC: "1.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
}
