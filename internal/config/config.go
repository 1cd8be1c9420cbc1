package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
	Scanner    ScannerConfig    `yaml:"scanner"`
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// Sessions
	MaxSessions    int           `yaml:"max_sessions"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
	// Per-client limit on command endpoints, in requests per second.
	CommandRate  float64 `yaml:"command_rate"`
	CommandBurst int     `yaml:"command_burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SimulationConfig struct {
	debugsim.Tunables `yaml:",inline"`

	Catalog []string `yaml:"catalog"`
	// Seed fixes the random source; 0 picks a random seed per process.
	Seed uint64 `yaml:"seed"`
}

type ScannerConfig struct {
	Delay              time.Duration `yaml:"delay"`
	MaxVulnerabilities int           `yaml:"max_vulnerabilities"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxSessions:    256,
			SessionIdleTTL: 30 * time.Minute,
			CommandRate:    10,
			CommandBurst:   20,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Simulation: SimulationConfig{
			Tunables: debugsim.DefaultTunables(),
			Catalog:  debugsim.DefaultCatalog(),
		},
		Scanner: ScannerConfig{
			Delay:              vulnscan.DefaultDelay,
			MaxVulnerabilities: 5,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then BUGSU_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envInt("BUGSU_PORT", c.Server.Port)
	c.Server.MaxSessions = envInt("BUGSU_MAX_SESSIONS", c.Server.MaxSessions)
	c.Server.SessionIdleTTL = envDuration("BUGSU_SESSION_IDLE_TTL", c.Server.SessionIdleTTL)
	c.Logging.Level = envStr("BUGSU_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envStr("BUGSU_LOG_FORMAT", c.Logging.Format)

	scan := &c.Simulation.Scanning
	scan.Interval = envDuration("BUGSU_SCAN_INTERVAL", scan.Interval)
	scan.Step = envInt("BUGSU_SCAN_STEP", scan.Step)
	scan.FaultProbability = envFloat("BUGSU_SCAN_FAULT_PROBABILITY", scan.FaultProbability)
	scan.DiscoveryProbability = envFloat("BUGSU_SCAN_DISCOVERY_PROBABILITY", scan.DiscoveryProbability)

	fix := &c.Simulation.Fixing
	fix.Interval = envDuration("BUGSU_FIX_INTERVAL", fix.Interval)
	fix.Step = envInt("BUGSU_FIX_STEP", fix.Step)
	fix.FaultProbability = envFloat("BUGSU_FIX_FAULT_PROBABILITY", fix.FaultProbability)
	fix.RepairProbability = envFloat("BUGSU_FIX_REPAIR_PROBABILITY", fix.RepairProbability)

	c.Simulation.Catalog = envList("BUGSU_CATALOG", c.Simulation.Catalog)
	c.Simulation.Seed = envUint("BUGSU_SEED", c.Simulation.Seed)
	c.Scanner.Delay = envDuration("BUGSU_SCANNER_DELAY", c.Scanner.Delay)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must not be negative, got %d", c.Server.MaxSessions)
	}
	if c.Server.CommandRate < 0 {
		return fmt.Errorf("server.command_rate must not be negative, got %g", c.Server.CommandRate)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if err := c.Simulation.Tunables.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if len(c.Simulation.Catalog) == 0 {
		return fmt.Errorf("simulation.catalog must not be empty")
	}
	if c.Scanner.Delay < 0 {
		return fmt.Errorf("scanner.delay must not be negative, got %s", c.Scanner.Delay)
	}
	if c.Scanner.MaxVulnerabilities < 0 {
		return fmt.Errorf("scanner.max_vulnerabilities must not be negative, got %d", c.Scanner.MaxVulnerabilities)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		var items []string
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				items = append(items, p)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return fallback
}
