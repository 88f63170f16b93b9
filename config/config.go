package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

// Config is the resolved service configuration.
type Config struct {
	// Platform is the kline source, "binance" or "bybit".
	Platform string
	// Pairs are the trading pairs to ingest and analyze.
	Pairs []domain.Pair
	// Interval is the kline interval, e.g. "1d".
	Interval string
	// LookbackPeriods is how many klines to fetch per refresh.
	LookbackPeriods int
	// RefreshInterval is how often history is re-fetched.
	RefreshInterval time.Duration
	// ListenAddr is the HTTP listen address.
	ListenAddr string
	// SeriesDir and UsersDir are the WAL directories.
	SeriesDir string
	UsersDir  string
	// APIKey/APISecret are exchange credentials, loaded from the environment.
	APIKey    string
	APISecret string
}

// ConfigTmp mirrors the yaml file layout before validation.
type ConfigTmp struct {
	Platform        string        `yaml:"platform"`
	Pairs           []string      `yaml:"pairs"`
	Interval        string        `yaml:"interval,omitempty"`
	LookbackPeriods int           `yaml:"lookback_periods,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	ListenAddr      string        `yaml:"listen_addr,omitempty"`
	SeriesDir       string        `yaml:"series_dir,omitempty"`
	UsersDir        string        `yaml:"users_dir,omitempty"`
}

// Get resolves the configuration from the --config yaml file, or from CLI
// flags when no file is given. Exchange credentials always come from the
// environment (.env is loaded when present).
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairsFlag := flag.String("pairs", "BTC_USDT,ETH_USDT", "comma-separated trade pairs, example: BTC_USDT,ETH_USDT")
	platform := flag.String("platform", "binance", "kline source: binance or bybit")
	interval := flag.String("interval", "1d", "kline interval, example: 1d")
	lookback := flag.Int("lookback", 90, "number of klines to fetch per refresh")
	refresh := flag.Duration("refreshinterval", time.Hour, "history refresh interval")
	listen := flag.String("listen", ":8080", "http listen address")
	flag.Parse()

	// ignore a missing .env, real env vars still apply
	_ = godotenv.Load()

	var cfg Config
	var err error
	if *configPath != "" {
		cfg, err = getYaml(*configPath)
	} else {
		cfg, err = fromFlags(*platform, *pairsFlag, *interval, *lookback, *refresh, *listen)
	}
	if err != nil {
		return Config{}, err
	}

	cfg.APIKey = os.Getenv("EXCHANGE_API_KEY")
	cfg.APISecret = os.Getenv("EXCHANGE_API_SECRET")

	applyDefaults(&cfg)
	return cfg, validate(cfg)
}

func fromFlags(platform, pairs, interval string, lookback int, refresh time.Duration, listen string) (Config, error) {
	parsed, err := parsePairs(strings.Split(pairs, ","))
	if err != nil {
		return Config{}, fmt.Errorf("invalid --pairs provided, --pairs=%s: %w", pairs, err)
	}

	return Config{
		Platform:        platform,
		Pairs:           parsed,
		Interval:        interval,
		LookbackPeriods: lookback,
		RefreshInterval: refresh,
		ListenAddr:      listen,
	}, nil
}

func getYaml(path string) (Config, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	pairs, err := parsePairs(tmp.Pairs)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'pairs' param in yaml config: %w", err)
	}

	return Config{
		Platform:        tmp.Platform,
		Pairs:           pairs,
		Interval:        tmp.Interval,
		LookbackPeriods: tmp.LookbackPeriods,
		RefreshInterval: tmp.RefreshInterval,
		ListenAddr:      tmp.ListenAddr,
		SeriesDir:       tmp.SeriesDir,
		UsersDir:        tmp.UsersDir,
	}, nil
}

func parsePairs(raw []string) ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pair, err := getPairFromString(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one pair is required")
	}
	return pairs, nil
}

func getPairFromString(s string) (domain.Pair, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.Pair{}, fmt.Errorf("pair must look like BTC_USDT, got %q", s)
	}
	return domain.Pair{From: strings.ToUpper(parts[0]), To: strings.ToUpper(parts[1])}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Platform == "" {
		cfg.Platform = "binance"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	if cfg.LookbackPeriods == 0 {
		cfg.LookbackPeriods = 90
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.SeriesDir == "" {
		cfg.SeriesDir = "./wal/series"
	}
	if cfg.UsersDir == "" {
		cfg.UsersDir = "./wal/users"
	}
}

func validate(cfg Config) error {
	switch cfg.Platform {
	case "binance", "bybit":
	default:
		return fmt.Errorf("unsupported platform %q, expected binance or bybit", cfg.Platform)
	}
	if cfg.LookbackPeriods < 2 {
		return fmt.Errorf("lookback_periods must be at least 2, got %d", cfg.LookbackPeriods)
	}
	return nil
}
