package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paularlott/cli"
)

// Config holds the application configuration
type Config struct {
	DataDir           string
	ListenAddr        string
	BearerToken       string // plain bearer token for API/MCP auth
	TokenHash         string // bcrypt hash, takes precedence over BearerToken
	StorageBackend    string // "file" or "sqlite" (default: "sqlite")
	Provisioner       string // provisioner backend name (default: "local")
	ProvisionerPlugin string // optional path to a provisioner plugin
	ProvisionWorkers  int    // worker pool size for provisioning fan-out
	RepublishEnabled  bool   // re-export placements on a schedule
	RepublishSchedule string // cron spec for the republish scheduler
	ConfigFile        string // Path to .env file (if loaded)
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Command-line parameters (passed as opts)
// 2. .env file (if exists)
// 3. Environment variables
// 4. Default values
func Load(opts *Config) *Config {
	cfg := &Config{
		DataDir:           "./data",
		ListenAddr:        ":8080",
		StorageBackend:    "sqlite",
		Provisioner:       "local",
		ProvisionWorkers:  4,
		RepublishSchedule: "@hourly",
	}

	// First, try to load from .env file
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := loadFromEnvFile(cfg, envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
		} else {
			cfg.ConfigFile = envFile
		}
	}

	// Then load environment variables (only if not already set by .env)
	cfg.DataDir = coalesce(cfg.DataDir, os.Getenv("SUBNETD_DATA_DIR"), "./data")
	cfg.ListenAddr = coalesce(cfg.ListenAddr, os.Getenv("SUBNETD_LISTEN_ADDR"), ":8080")
	cfg.BearerToken = coalesce(cfg.BearerToken, os.Getenv("SUBNETD_BEARER_TOKEN"), "")
	cfg.TokenHash = coalesce(cfg.TokenHash, os.Getenv("SUBNETD_TOKEN_HASH"), "")
	cfg.StorageBackend = coalesce(cfg.StorageBackend, os.Getenv("SUBNETD_STORAGE_BACKEND"), "sqlite")
	cfg.Provisioner = coalesce(cfg.Provisioner, os.Getenv("SUBNETD_PROVISIONER"), "local")
	cfg.ProvisionerPlugin = coalesce(cfg.ProvisionerPlugin, os.Getenv("SUBNETD_PROVISIONER_PLUGIN"), "")
	cfg.RepublishSchedule = coalesce(cfg.RepublishSchedule, os.Getenv("SUBNETD_REPUBLISH_SCHEDULE"), "@hourly")
	if v := os.Getenv("SUBNETD_REPUBLISH"); v != "" {
		cfg.RepublishEnabled = parseBool(v)
	}
	if v := os.Getenv("SUBNETD_PROVISION_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ProvisionWorkers = n
		}
	}

	// Finally, apply CLI opts if provided (highest priority)
	if opts != nil {
		if opts.DataDir != "" {
			cfg.DataDir = opts.DataDir
		}
		if opts.ListenAddr != "" {
			cfg.ListenAddr = opts.ListenAddr
		}
		if opts.BearerToken != "" {
			cfg.BearerToken = opts.BearerToken
		}
		if opts.TokenHash != "" {
			cfg.TokenHash = opts.TokenHash
		}
		if opts.StorageBackend != "" {
			cfg.StorageBackend = opts.StorageBackend
		}
		if opts.Provisioner != "" {
			cfg.Provisioner = opts.Provisioner
		}
		if opts.ProvisionerPlugin != "" {
			cfg.ProvisionerPlugin = opts.ProvisionerPlugin
		}
		if opts.ProvisionWorkers > 0 {
			cfg.ProvisionWorkers = opts.ProvisionWorkers
		}
		if opts.RepublishEnabled {
			cfg.RepublishEnabled = true
		}
		if opts.RepublishSchedule != "" {
			cfg.RepublishSchedule = opts.RepublishSchedule
		}
	}

	// Validate storage backend
	if cfg.StorageBackend != "file" && cfg.StorageBackend != "sqlite" {
		cfg.StorageBackend = "sqlite"
	}

	return cfg
}

// FromCommand builds the CLI override config from the server command flags
func FromCommand(cmd *cli.Command) *Config {
	return &Config{
		DataDir:           cmd.GetString("data-dir"),
		ListenAddr:        cmd.GetString("listen-addr"),
		BearerToken:       cmd.GetString("token"),
		TokenHash:         cmd.GetString("token-hash"),
		StorageBackend:    cmd.GetString("storage-backend"),
		Provisioner:       cmd.GetString("provisioner"),
		ProvisionerPlugin: cmd.GetString("provisioner-plugin"),
		ProvisionWorkers:  cmd.GetInt("provision-workers"),
		RepublishEnabled:  cmd.GetBool("republish"),
		RepublishSchedule: cmd.GetString("republish-schedule"),
	}
}

// GetFlags returns the server command flags backing the config fields
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "Directory for persistent data",
			EnvVars: []string{"SUBNETD_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "listen-addr",
			Usage:   "Address for the HTTP server to listen on",
			EnvVars: []string{"SUBNETD_LISTEN_ADDR"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Bearer token required for API and MCP access",
			EnvVars: []string{"SUBNETD_BEARER_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "token-hash",
			Usage:   "Bcrypt hash of the bearer token (overrides --token)",
			EnvVars: []string{"SUBNETD_TOKEN_HASH"},
		},
		&cli.StringFlag{
			Name:    "storage-backend",
			Usage:   "Storage backend: sqlite or file",
			EnvVars: []string{"SUBNETD_STORAGE_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "provisioner",
			Usage:   "Provisioner backend used when materializing subnets",
			EnvVars: []string{"SUBNETD_PROVISIONER"},
		},
		&cli.StringFlag{
			Name:    "provisioner-plugin",
			Usage:   "Path to a provisioner plugin to load at startup",
			EnvVars: []string{"SUBNETD_PROVISIONER_PLUGIN"},
		},
		&cli.IntFlag{
			Name:    "provision-workers",
			Usage:   "Number of concurrent provisioning workers",
			EnvVars: []string{"SUBNETD_PROVISION_WORKERS"},
		},
		&cli.BoolFlag{
			Name:    "republish",
			Usage:   "Periodically re-export all placements to the export store",
			EnvVars: []string{"SUBNETD_REPUBLISH"},
		},
		&cli.StringFlag{
			Name:    "republish-schedule",
			Usage:   "Cron schedule for the republish job (e.g. @hourly)",
			EnvVars: []string{"SUBNETD_REPUBLISH_SCHEDULE"},
		},
	}
}

// loadFromEnvFile loads configuration from a .env file
func loadFromEnvFile(cfg *Config, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE or KEY="VALUE"
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"")

		switch key {
		case "SUBNETD_DATA_DIR":
			cfg.DataDir = value
		case "SUBNETD_LISTEN_ADDR":
			cfg.ListenAddr = value
		case "SUBNETD_BEARER_TOKEN":
			cfg.BearerToken = value
		case "SUBNETD_TOKEN_HASH":
			cfg.TokenHash = value
		case "SUBNETD_STORAGE_BACKEND":
			cfg.StorageBackend = value
		case "SUBNETD_PROVISIONER":
			cfg.Provisioner = value
		case "SUBNETD_PROVISIONER_PLUGIN":
			cfg.ProvisionerPlugin = value
		case "SUBNETD_REPUBLISH":
			cfg.RepublishEnabled = parseBool(value)
		case "SUBNETD_REPUBLISH_SCHEDULE":
			cfg.RepublishSchedule = value
		case "SUBNETD_PROVISION_WORKERS":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.ProvisionWorkers = n
			}
		}
	}

	return scanner.Err()
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.BearerToken != "" || c.TokenHash != ""
}

// String returns a string representation of the config source
func (c *Config) String() string {
	if c.ConfigFile != "" {
		return fmt.Sprintf(".env file (%s)", c.ConfigFile)
	}
	return "environment variables"
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
