package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

var (
	// ErrNoActiveService means the bounded resolve-or-create loop ended
	// with no registered Service. Only reachable when implicit creation
	// itself failed to register.
	ErrNoActiveService = errors.New("no active service registered")
	// ErrNoWalletsLoaded means the session holds no wallets at all.
	// Distinct from ErrWalletNotFound so callers can prompt differently.
	ErrNoWalletsLoaded = errors.New("no wallets loaded in this session")
	// ErrWalletNotFound means the session holds wallets, but none with the
	// requested label.
	ErrWalletNotFound = errors.New("wallet label not found in this session")
)

// SessionObserver is notified when the session's state grows. Used by the
// event feed; a nil observer is fine.
type SessionObserver interface {
	ServiceRegistered(svc *Service)
	WalletAdded(w *Wallet)
}

// Session is the registry of everything created during one process
// session: the registered Service/Connection pairs (most recent wins) and
// the ordered list of wallets. It is an explicit, injectable object (the
// request layer owns one and passes it around) and the single piece of
// shared mutable state in this system, so every access goes through its
// mutex.
type Session struct {
	mu       sync.Mutex
	services []*Service
	wallets  []*Wallet

	defaultCfg    NodeConfig
	createService func() (*Service, error)
	observer      SessionObserver
	callObs       rpcclient.CallObserver
	lg            log.Logger
}

// NewSession returns an empty session. defaultCfg configures the Service
// that ActiveConnection creates implicitly when none is registered.
func NewSession(defaultCfg NodeConfig, lg log.Logger) *Session {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	s := &Session{
		defaultCfg: defaultCfg,
		lg:         lg.WithName("session"),
	}
	s.createService = func() (*Service, error) {
		return NewService(s.defaultCfg, s.lg)
	}
	return s
}

// SetObserver installs the session observer. Call before the session is
// shared.
func (s *Session) SetObserver(obs SessionObserver) {
	s.observer = obs
}

// SetCallObserver installs the RPC call observer that every Connection
// registered through this session inherits (journal, metrics). Call
// before the session is shared.
func (s *Session) SetCallObserver(obs rpcclient.CallObserver) {
	s.callObs = obs
}

// RegisterService records an explicitly created Service as the most
// recent one.
func (s *Session) RegisterService(svc *Service) {
	if s.callObs != nil {
		svc.Conn().SetObserver(s.callObs)
	}

	s.mu.Lock()
	s.services = append(s.services, svc)
	s.mu.Unlock()

	s.lg.Info("service registered", "workingDir", svc.WorkingDir())
	if s.observer != nil {
		s.observer.ServiceRegistered(svc)
	}
}

// ActiveService returns the most recently registered Service, if any.
func (s *Session) ActiveService() (*Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.services) == 0 {
		return nil, false
	}
	return s.services[len(s.services)-1], true
}

// ActiveConnection resolves the Connection new wallets should use: the
// most recently registered Service's Connection, creating and registering
// a default Service first when the registry is empty.
//
// The resolve-or-create sequence is a bounded loop (look up, register
// once if absent, look up again, fail otherwise), not a recursion, and it
// runs under the session lock so two concurrent calls on an empty
// registry observe exactly one winner.
func (s *Session) ActiveConnection() (*rpcclient.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created *Service
	for attempt := 0; attempt < 2; attempt++ {
		if n := len(s.services); n > 0 {
			if created != nil && s.observer != nil {
				// Observers must tolerate being called under the session
				// lock; the event hub only queues, so this is safe.
				s.observer.ServiceRegistered(created)
			}
			return s.services[n-1].Conn(), nil
		}

		svc, err := s.createService()
		if err != nil {
			return nil, err
		}
		if s.callObs != nil {
			svc.Conn().SetObserver(s.callObs)
		}
		s.services = append(s.services, svc)
		s.lg.Info("default service created", "workingDir", svc.WorkingDir())
		created = svc
	}

	return nil, ErrNoActiveService
}

// ServiceCount returns how many services the session has registered.
func (s *Session) ServiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.services)
}

// AddWallet appends a wallet to the session, making it the most recent.
func (s *Session) AddWallet(w *Wallet) {
	s.mu.Lock()
	s.wallets = append(s.wallets, w)
	s.mu.Unlock()

	s.lg.Info("wallet added to session", "label", w.Label())
	if s.observer != nil {
		s.observer.WalletAdded(w)
	}
}

// Wallets returns a snapshot of the session's wallets in creation order.
func (s *Session) Wallets() []*Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Wallet, len(s.wallets))
	copy(out, s.wallets)
	return out
}

// WalletByLabel resolves "the wallet labeled X" among session wallets.
// The match is an exact string comparison on the metadata label; when
// several match, the most recently added one wins. An empty session and a
// missing label are reported as distinct conditions.
func (s *Session) WalletByLabel(label string) (*Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.wallets) == 0 {
		return nil, ErrNoWalletsLoaded
	}
	for i := len(s.wallets) - 1; i >= 0; i-- {
		w := s.wallets[i]
		if stored, ok := w.Metadata()[metadataLabelKey].(string); ok && stored == label {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, label)
}
