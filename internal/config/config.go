// Package config handles configuration loading and validation. Values come
// from a .env file if present, then environment variables, then command-line
// flags, with flags taking precedence.
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/storm-tools/storm/pkg/types"
)

// Mode selects the subcommand.
type Mode string

const (
	ModeEthereum   Mode = "eth"
	ModeTendermint Mode = "abci"
	ModeDiscover   Mode = "fuzz"
	ModeServe      Mode = "serve"
)

// Defaults
const (
	DefaultEthereumURL   = "http://localhost:8545"
	DefaultTendermintURL = "http://localhost:26657"
	DefaultRate          = 10
	DefaultDuration      = 60 * time.Second
	DefaultTimeout       = 10 * time.Second
	DefaultLogDir        = "logs"
	DefaultMaxAttempts   = 1000
	DefaultListenAddr    = ":3001"
	MaxRate              = 10000
)

// Config holds the resolved settings for one invocation.
type Config struct {
	Mode      Mode
	TargetURL string
	Rate      int
	Duration  time.Duration
	Timeout   time.Duration
	Methods   []string // allow-list, empty = all known
	LogDir    string
	Verbose   bool

	// CorpusPath points at an optional YAML file overriding the built-in
	// sample pools.
	CorpusPath string

	// Discovery settings.
	MaxAttempts    int
	KnownAddress   string
	AttemptsPerSec float64

	// Server settings.
	ListenAddr string
}

type envLookup func(string) string

// Load parses the subcommand and its flags from args (without the program
// name). getenv defaults to os.Getenv; tests inject their own.
func Load(args []string, getenv envLookup) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if len(args) < 1 {
		return nil, fmt.Errorf("missing subcommand: expected one of eth, abci, fuzz, serve")
	}

	cfg := &Config{
		Mode:        Mode(args[0]),
		Rate:        DefaultRate,
		Duration:    DefaultDuration,
		Timeout:     DefaultTimeout,
		LogDir:      DefaultLogDir,
		MaxAttempts: DefaultMaxAttempts,
		ListenAddr:  DefaultListenAddr,
	}

	switch cfg.Mode {
	case ModeEthereum:
		cfg.TargetURL = DefaultEthereumURL
	case ModeTendermint, ModeDiscover:
		cfg.TargetURL = DefaultTendermintURL
	case ModeServe:
	default:
		return nil, fmt.Errorf("unknown subcommand: %s (expected eth, abci, fuzz or serve)", args[0])
	}

	applyEnv(cfg, getenv)

	fs := flag.NewFlagSet(string(cfg.Mode), flag.ContinueOnError)

	var methodsFlag string
	switch cfg.Mode {
	case ModeEthereum, ModeTendermint:
		fs.StringVar(&cfg.TargetURL, "url", cfg.TargetURL, "Target RPC endpoint URL")
		fs.IntVar(&cfg.Rate, "rate", cfg.Rate, "Requests per second")
		fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Run duration")
		fs.StringVar(&methodsFlag, "methods", "", "Comma-separated method allow-list (default: all known)")
	case ModeDiscover:
		fs.StringVar(&cfg.TargetURL, "url", cfg.TargetURL, "Target RPC endpoint URL")
		fs.IntVar(&cfg.MaxAttempts, "attempts", cfg.MaxAttempts, "Maximum query attempts")
		fs.StringVar(&cfg.KnownAddress, "address", "", "Known-good address to seed queries")
		fs.Float64Var(&cfg.AttemptsPerSec, "pace", 0, "Maximum attempts per second (0 = unpaced)")
	case ModeServe:
		fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	}
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	fs.StringVar(&cfg.LogDir, "logdir", cfg.LogDir, "Failure log directory")
	fs.StringVar(&cfg.CorpusPath, "corpus", cfg.CorpusPath, "YAML file overriding the sample value pools")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if methodsFlag != "" {
		for _, name := range strings.Split(methodsFlag, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				cfg.Methods = append(cfg.Methods, trimmed)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv envLookup) {
	if getenv == nil {
		return
	}
	if v := getenv("STORM_TARGET_URL"); v != "" {
		cfg.TargetURL = v
	}
	if v := getenv("STORM_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			cfg.Rate = rate
		}
	}
	if v := getenv("STORM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Duration = d
		}
	}
	if v := getenv("STORM_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := getenv("STORM_CORPUS"); v != "" {
		cfg.CorpusPath = v
	}
	if v := getenv("STORM_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
}

// Protocol maps the flood subcommand to its wire dialect.
func (c *Config) Protocol() types.Protocol {
	if c.Mode == ModeTendermint {
		return types.ProtocolTendermint
	}
	return types.ProtocolEthereum
}

// Validate checks the configuration for the selected mode.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeEthereum, ModeTendermint:
		if c.TargetURL == "" {
			return fmt.Errorf("target URL is required")
		}
		if c.Rate <= 0 || c.Rate > MaxRate {
			return fmt.Errorf("rate must be between 1 and %d", MaxRate)
		}
		if c.Duration <= 0 {
			return fmt.Errorf("duration must be positive")
		}
	case ModeDiscover:
		if c.TargetURL == "" {
			return fmt.Errorf("target URL is required")
		}
		if c.MaxAttempts <= 0 {
			return fmt.Errorf("attempts must be positive")
		}
		if c.AttemptsPerSec < 0 {
			return fmt.Errorf("pace cannot be negative")
		}
	case ModeServe:
		if c.ListenAddr == "" {
			return fmt.Errorf("listen address is required")
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
