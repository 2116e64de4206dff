package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// testCall is one request as seen by the fake node.
type testCall struct {
	Method string
	Params []any
}

// testNode speaks just enough JSON-RPC 1.0 to stand in for elementsd.
type testNode struct {
	srv      *httptest.Server
	mu       sync.Mutex
	calls    []testCall
	handlers map[string]func(params []any) (any, *rpcclient.NodeError)
}

func newTestNode(t testing.TB) *testNode {
	t.Helper()
	n := &testNode{handlers: make(map[string]func(params []any) (any, *rpcclient.NodeError))}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *testNode) respond(method string, result any) {
	n.handle(method, func([]any) (any, *rpcclient.NodeError) { return result, nil })
}

func (n *testNode) reject(method string, code int, message string) {
	n.handle(method, func([]any) (any, *rpcclient.NodeError) {
		return nil, &rpcclient.NodeError{Code: code, Message: message}
	})
}

func (n *testNode) handle(method string, fn func(params []any) (any, *rpcclient.NodeError)) {
	n.mu.Lock()
	n.handlers[method] = fn
	n.mu.Unlock()
}

func (n *testNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64 `json:"id"`
		Method string `json:"method"`
		Params []any  `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls = append(n.calls, testCall{Method: req.Method, Params: req.Params})
	handler := n.handlers[req.Method]
	n.mu.Unlock()

	type errBody struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	out := map[string]any{"id": req.ID, "result": nil, "error": nil}

	status := http.StatusOK
	if handler == nil {
		out["error"] = errBody{Code: -32601, Message: "Method not found"}
		status = http.StatusInternalServerError
	} else if result, nodeErr := handler(req.Params); nodeErr != nil {
		out["error"] = errBody{Code: nodeErr.Code, Message: nodeErr.Message}
		status = http.StatusInternalServerError
	} else {
		out["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func (n *testNode) recorded() []testCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]testCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// callsTo returns only the requests for the given method.
func (n *testNode) callsTo(method string) []testCall {
	var out []testCall
	for _, c := range n.recorded() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (n *testNode) rpcConfig() rpcclient.Config {
	u, _ := url.Parse(n.srv.URL)
	port, _ := strconv.Atoi(u.Port())
	return rpcclient.Config{
		Host: u.Hostname(),
		Port: port,
		User: "testuser",
		Pass: "testpass",
	}
}

func newTestConnection(t testing.TB, n *testNode) *rpcclient.Connection {
	t.Helper()
	conn, err := rpcclient.NewConnection(n.rpcConfig(), nil)
	require.NoError(t, err)
	return conn
}

// captureCallObserver counts call observations.
type captureCallObserver struct {
	mu sync.Mutex
	n  int
}

func (c *captureCallObserver) ObserveCall(method string, params []any, result json.RawMessage, err error, elapsed time.Duration) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *captureCallObserver) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// newTestService wraps the fake node in a Service whose tracked process is
// the test binary itself, so IsRunning reports true.
func newTestService(t testing.TB, n *testNode) *Service {
	t.Helper()
	return &Service{
		cfg: NodeConfig{
			WorkingDir: t.TempDir(),
			Binary:     "elementsd",
			RPC:        n.rpcConfig(),
		},
		proc: &nodeProcess{pid: os.Getpid()},
		conn: newTestConnection(t, n),
	}
}
