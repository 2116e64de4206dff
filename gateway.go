package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// Gateway is the HTTP request boundary. Each route maps 1:1 onto a core
// operation; the gateway itself holds no state beyond its collaborators.
type Gateway struct {
	session     *Session
	defaultNode NodeConfig
	store       *CallStore
	metrics     *Metrics
	hub         *EventHub
	validate    *validator.Validate
	lg          log.Logger
}

func NewGateway(session *Session, defaultNode NodeConfig, store *CallStore, metrics *Metrics, hub *EventHub, lg log.Logger) *Gateway {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	return &Gateway{
		session:     session,
		defaultNode: defaultNode,
		store:       store,
		metrics:     metrics,
		hub:         hub,
		validate:    validator.New(),
		lg:          lg.WithName("gateway"),
	}
}

// Router assembles the route table.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(g.instrument)

	r.HandleFunc("/", g.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", g.handleHealth).Methods(http.MethodGet)

	internal := r.PathPrefix("/internal").Subrouter()
	internal.HandleFunc("/wallet", g.handleListWallets).Methods(http.MethodGet)
	internal.HandleFunc("/wallet/mnemonic", g.handleMnemonic).Methods(http.MethodGet)
	internal.HandleFunc("/wallet/create", g.handleCreateWallet).Methods(http.MethodPost)
	internal.HandleFunc("/wallet/{label}", g.handleWalletByLabel).Methods(http.MethodGet)
	internal.HandleFunc("/asset/issue", g.handleIssueAsset).Methods(http.MethodPost)
	internal.HandleFunc("/node/status", g.handleNodeStatus).Methods(http.MethodGet)
	internal.HandleFunc("/node/start", g.handleStartNode).Methods(http.MethodPost)
	internal.HandleFunc("/calls", g.handleListCalls).Methods(http.MethodGet)
	if g.hub != nil {
		internal.HandleFunc("/events", g.hub.HandleWS).Methods(http.MethodGet)
	}

	return r
}

func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "This is a Liquid service built by API Latam.",
	})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListWallets lists the wallets present in the node's wallet
// directory. It reuses the most recent session wallet as the caller, or a
// reference wallet on the active connection when the session is empty.
func (g *Gateway) handleListWallets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wallet, err := g.callerWallet(r)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	wallets, err := wallet.ListWallets(ctx)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallets": wallets})
}

func (g *Gateway) callerWallet(r *http.Request) (*Wallet, error) {
	if wallets := g.session.Wallets(); len(wallets) > 0 {
		return wallets[len(wallets)-1], nil
	}
	conn, err := g.session.ActiveConnection()
	if err != nil {
		return nil, err
	}
	return NewWallet(r.Context(), conn, WalletOptions{Mode: ModeReference}, g.lg)
}

// handleMnemonic hands out a fresh recovery phrase for wallet provisioning.
// The phrase is generated and returned, never stored.
func (g *Gateway) handleMnemonic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	strength := 0
	if v := q.Get("strength"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "strength must be an integer")
			return
		}
		strength = parsed
	}

	mnemonic, err := GenerateMnemonic(strength, q.Get("language"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mnemonic": mnemonic})
}

func (g *Gateway) handleWalletByLabel(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]

	wallet, err := g.session.WalletByLabel(label)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet.Metadata())
}

// CreateWalletRequest is the body of POST /internal/wallet/create.
type CreateWalletRequest struct {
	Label       string `json:"label" validate:"omitempty,max=64"`
	WithAddress *bool  `json:"with_address"`
}

func (g *Gateway) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if !g.decodeBody(w, r, &req) {
		return
	}

	conn, err := g.session.ActiveConnection()
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	withAddress := true
	if req.WithAddress != nil {
		withAddress = *req.WithAddress
	}

	wallet, err := NewWallet(r.Context(), conn, WalletOptions{
		Mode:        ModeCreate,
		Label:       req.Label,
		WithAddress: withAddress,
	}, g.lg)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.session.AddWallet(wallet)

	writeJSON(w, http.StatusCreated, wallet.Metadata())
}

// IssueAssetRequest is the body of POST /internal/asset/issue. The amounts
// accept both string and number forms.
type IssueAssetRequest struct {
	WalletLabel string `json:"wallet_label" validate:"required"`
	Initial     any    `json:"initial" validate:"required"`
	Reissuance  any    `json:"reissuance" validate:"required"`
}

func (g *Gateway) handleIssueAsset(w http.ResponseWriter, r *http.Request) {
	var req IssueAssetRequest
	if !g.decodeBody(w, r, &req) {
		return
	}

	wallet, err := g.session.WalletByLabel(req.WalletLabel)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	pool, err := NewPool(wallet)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	initial, err := amountFromValue(req.Initial)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	reissuance, err := amountFromValue(req.Reissuance)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	meta, err := pool.IssueAsset(r.Context(), initial, reissuance)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	if g.hub != nil {
		g.hub.Publish(AssetIssuedEventType, map[string]any{
			"wallet_label": req.WalletLabel,
			"initial":      initial.String(),
			"reissuance":   reissuance.String(),
		})
	}
	writeJSON(w, http.StatusCreated, meta)
}

func (g *Gateway) handleNodeStatus(w http.ResponseWriter, r *http.Request) {
	running := false
	if svc, ok := g.session.ActiveService(); ok {
		running = svc.IsRunning()
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": running})
}

// StartNodeRequest is the body of POST /internal/node/start. Absent fields
// fall back to the configured defaults.
type StartNodeRequest struct {
	NewNode    *bool  `json:"new_node"`
	WorkingDir string `json:"working_dir" validate:"omitempty,max=4096"`
}

func (g *Gateway) handleStartNode(w http.ResponseWriter, r *http.Request) {
	var req StartNodeRequest
	if !g.decodeBody(w, r, &req) {
		return
	}

	cfg := g.defaultNode
	if req.NewNode != nil {
		cfg.NewNode = *req.NewNode
	}
	if req.WorkingDir != "" {
		cfg.WorkingDir = req.WorkingDir
		cfg.RPC.DataDir = req.WorkingDir
	}

	svc, err := NewService(cfg, g.lg)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.session.RegisterService(svc)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "service successfully created"})
}

func (g *Gateway) handleListCalls(w http.ResponseWriter, r *http.Request) {
	if g.store == nil {
		writeError(w, http.StatusNotFound, "call journal disabled")
		return
	}

	options := &ListOptions{}
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 32); err == nil {
			options.Offset = uint32(parsed)
		}
	}
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 32); err == nil {
			options.Limit = uint32(parsed)
		}
	}
	var method *string
	if v := q.Get("method"); v != "" {
		method = &v
	}

	records, err := g.store.List(r.Context(), method, options)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": records})
}

// decodeBody decodes and validates a JSON request body, answering 400 on
// failure. Numbers are decoded as json.Number so amount representations
// survive intact.
func (g *Gateway) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := g.validate.Struct(out); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

// amountFromValue coerces a decoded JSON value (string or number) into an
// Amount.
func amountFromValue(v any) (Amount, error) {
	switch val := v.(type) {
	case string:
		return NewAmountFromString(val)
	case json.Number:
		return NewAmountFromString(val.String())
	case float64:
		return NewAmountFromFloat(val)
	default:
		return Amount{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

// writeDomainError maps core error conditions onto distinct HTTP answers,
// so "no node reachable", "no wallets loaded", "label not found" and
// "node rejected it" never collapse into one generic failure.
func (g *Gateway) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoWalletsLoaded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrWalletNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnsupportedMode),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrNonPositiveAmount),
		errors.Is(err, ErrEmptyAddress),
		errors.Is(err, ErrEmptyWalletName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rpcclient.ErrConnectionFailed),
		errors.Is(err, rpcclient.ErrInvalidResponse),
		errors.Is(err, rpcclient.ErrMissingCredentials):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		if ne, ok := rpcclient.IsNodeError(err); ok {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":      ne.Message,
				"node_error": ne.Code,
			})
			return
		}
		g.lg.Error("unhandled gateway error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// instrument counts requests per route template and status code.
func (g *Gateway) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if g.metrics == nil {
			return
		}
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		g.metrics.GatewayRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
