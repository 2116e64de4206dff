package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

type Mode string

const (
	ModeProduction Mode = "production"
	ModeTest       Mode = "test"
)

const (
	configDirPathEnv     = "LIQUIDNODE_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// NodeSettings are the env-configurable knobs for reaching the node.
type NodeSettings struct {
	Host       string `env:"LIQUIDNODE_RPC_HOST" env-default:"127.0.0.1"`
	Port       int    `env:"LIQUIDNODE_RPC_PORT" env-default:"7041"`
	User       string `env:"LIQUIDNODE_RPC_USER" env-default:""`
	Pass       string `env:"LIQUIDNODE_RPC_PASSWORD" env-default:""`
	WorkingDir string `env:"LIQUIDNODE_WORKING_DIR" env-default:""`
	Binary     string `env:"LIQUIDNODE_BINARY" env-default:"elementsd"`
	NewNode    bool   `env:"LIQUIDNODE_NEW_NODE" env-default:"true"`
}

// Config is the overall application configuration.
type Config struct {
	mode        Mode
	node        NodeConfig
	dbConf      DatabaseConfig
	listenAddr  string
	metricsAddr string
}

// LoadConfig builds configuration from the environment, with an optional
// .env file next to the binary (or wherever LIQUIDNODE_CONFIG_DIR_PATH
// points).
func LoadConfig(logger log.Logger) (*Config, error) {
	logger = logger.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	configDotEnvPath := filepath.Join(configDirPath, ".env")
	if err := godotenv.Load(configDotEnvPath); err != nil {
		logger.Warn(".env file not found", "path", configDotEnvPath)
	}

	mode := Mode(os.Getenv("LIQUIDNODE_MODE"))
	if mode == "" {
		mode = ModeProduction
	} else if mode != ModeProduction && mode != ModeTest {
		logger.Fatal("invalid LIQUIDNODE_MODE value", "value", mode)
	}
	logger.Info("set mode", "value", mode)

	var dbConf DatabaseConfig
	dbURL := os.Getenv("LIQUIDNODE_DATABASE_URL")
	if dbURL != "" {
		var err error
		dbConf, err = ParseConnectionString(dbURL)
		if err != nil {
			logger.Error("failed to parse connection string", "err", err)
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(&dbConf); err != nil {
			logger.Error("failed to read database env", "err", err)
			return nil, err
		}
	}

	var node NodeSettings
	if err := cleanenv.ReadEnv(&node); err != nil {
		logger.Error("failed to read node env", "err", err)
		return nil, err
	}
	if node.WorkingDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default working dir: %w", err)
		}
		node.WorkingDir = filepath.Join(home, ".elements")
	}
	logger.Info("node settings", "host", node.Host, "port", node.Port, "workingDir", node.WorkingDir)

	listenAddr := os.Getenv("LIQUIDNODE_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8000"
	}
	metricsAddr := os.Getenv("LIQUIDNODE_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":4242"
	}

	config := Config{
		mode: mode,
		node: NodeConfig{
			NewNode:    node.NewNode,
			WorkingDir: node.WorkingDir,
			Binary:     node.Binary,
			RPC: rpcclient.Config{
				Host:    node.Host,
				Port:    node.Port,
				User:    node.User,
				Pass:    node.Pass,
				DataDir: node.WorkingDir,
			},
		},
		dbConf:      dbConf,
		listenAddr:  listenAddr,
		metricsAddr: metricsAddr,
	}

	return &config, nil
}

// ParseConnectionString parses a database URI into a DatabaseConfig.
// "file:" prefixed strings select sqlite; postgres:// URIs select
// postgres.
func ParseConnectionString(connStr string) (DatabaseConfig, error) {
	if strings.HasPrefix(connStr, "file:") {
		parts := strings.SplitN(connStr[5:], "?", 2)
		return DatabaseConfig{
			Name:    parts[0],
			Driver:  "sqlite",
			Retries: 1,
		}, nil
	}

	parsedURL, err := url.Parse(connStr)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid connection string: %w", err)
	}
	if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
	}

	username := ""
	password := ""
	if user := parsedURL.User; user != nil {
		username = user.Username()
		password, _ = user.Password()
	}

	port := parsedURL.Port()
	if port == "" {
		port = "5432"
	}

	schema := ""
	retries := 5
	query := parsedURL.Query()
	if s := query.Get("search_path"); s != "" {
		schema = s
	}
	if r := query.Get("retries"); r != "" {
		if retryVal, err := strconv.Atoi(r); err == nil {
			retries = retryVal
		}
	}

	return DatabaseConfig{
		Name:     strings.TrimPrefix(parsedURL.Path, "/"),
		Schema:   schema,
		Driver:   "postgres",
		Username: username,
		Password: password,
		Host:     parsedURL.Hostname(),
		Port:     port,
		Retries:  retries,
	}, nil
}
