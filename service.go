package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// NodeConfig describes one node a Service may start or attach to.
type NodeConfig struct {
	// NewNode starts a fresh daemon in WorkingDir when true; otherwise the
	// Service attaches to the daemon already running there.
	NewNode bool
	// WorkingDir is the daemon's data directory.
	WorkingDir string
	// Binary is the daemon executable, "elementsd" by default.
	Binary string
	// RPC locates and authenticates the node's RPC listener. DataDir is
	// filled from WorkingDir so cookie-based auth works out of the box.
	RPC rpcclient.Config
}

// Service owns one node: the process it started (or attached to) and the
// single authenticated Connection every wallet and pool of the session
// borrows. A Service has no teardown; it lives until the process exits.
type Service struct {
	cfg  NodeConfig
	proc *nodeProcess
	conn *rpcclient.Connection
	lg   log.Logger
}

// NewService starts or attaches to the node described by cfg and opens its
// Connection. Both are stored; the Connection is lazily exercised on first
// call, so an unreachable RPC listener surfaces there, not here.
func NewService(cfg NodeConfig, lg log.Logger) (*Service, error) {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	lg = lg.WithName("service")

	if cfg.Binary == "" {
		cfg.Binary = "elementsd"
	}
	if cfg.RPC.DataDir == "" {
		cfg.RPC.DataDir = cfg.WorkingDir
	}

	var proc *nodeProcess
	var err error
	if cfg.NewNode {
		proc, err = startNode(cfg.Binary, cfg.WorkingDir)
		if err != nil {
			return nil, errors.Wrap(err, "starting node")
		}
		lg.Info("node started", "binary", cfg.Binary, "workingDir", cfg.WorkingDir, "pid", proc.pid)
	} else {
		proc, err = attachNode(cfg.WorkingDir)
		if err != nil {
			return nil, errors.Wrap(err, "attaching to node")
		}
		lg.Info("attached to running node", "workingDir", cfg.WorkingDir, "pid", proc.pid)
	}

	conn, err := rpcclient.NewConnection(cfg.RPC, lg)
	if err != nil {
		return nil, errors.Wrap(err, "opening node connection")
	}

	return &Service{cfg: cfg, proc: proc, conn: conn, lg: lg}, nil
}

// Conn returns the Service's Connection. Callers borrow it; only the
// Service owns it.
func (s *Service) Conn() *rpcclient.Connection {
	return s.conn
}

// WorkingDir returns the node's data directory.
func (s *Service) WorkingDir() string {
	return s.cfg.WorkingDir
}

// IsRunning reports whether the tracked node process is alive. It checks
// the process, not the RPC listener, so it works before a Connection ever
// carried a call.
func (s *Service) IsRunning() bool {
	return s.proc.alive()
}

// nodeProcess tracks the daemon behind a Service, whether this process
// spawned it or found it already running.
type nodeProcess struct {
	cmd *exec.Cmd
	pid int
}

func startNode(binary, workingDir string) (*nodeProcess, error) {
	if err := os.MkdirAll(workingDir, 0700); err != nil {
		return nil, err
	}

	cmd := exec.Command(binary, "-datadir="+workingDir, "-daemon=0")
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// Reap the child when it exits so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()

	return &nodeProcess{cmd: cmd, pid: cmd.Process.Pid}, nil
}

// attachNode locates an already-running daemon through the pidfile it
// drops in its data directory.
func attachNode(workingDir string) (*nodeProcess, error) {
	raw, err := os.ReadFile(filepath.Join(workingDir, "elementsd.pid"))
	if err != nil {
		return nil, errors.Wrap(err, "reading pidfile")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrap(err, "parsing pidfile")
	}

	proc := &nodeProcess{pid: pid}
	if !proc.alive() {
		return nil, errors.Errorf("no running node with pid %d", pid)
	}
	return proc, nil
}

func (p *nodeProcess) alive() bool {
	if p == nil || p.pid <= 0 {
		return false
	}
	osProc, err := os.FindProcess(p.pid)
	if err != nil {
		return false
	}
	// Signal 0 probes existence without touching the process.
	return osProc.Signal(syscall.Signal(0)) == nil
}
