package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Ledger struct {
		Endpoint        string `yaml:"endpoint"`
		WSEndpoint      string `yaml:"ws_endpoint"`
		AddressPrefix   string `yaml:"address_prefix"`
		PlatformAccount string `yaml:"platform_account"`
	} `yaml:"ledger"`
	Orders struct {
		Fee        uint64 `yaml:"fee"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"orders"`
	Worker struct {
		IntervalSeconds  int64 `yaml:"interval_seconds"`
		StartBlock       int64 `yaml:"start_block"`
		MaxBlocksPerTick int64 `yaml:"max_blocks_per_tick"`
	} `yaml:"worker"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if cfg.Ledger.Endpoint == "" || cfg.Ledger.AddressPrefix == "" {
		return nil, errors.New("ledger config is incomplete")
	}
	if cfg.Ledger.PlatformAccount == "" {
		return nil, errors.New("ledger.platform_account is required")
	}
	if cfg.Orders.TTLMinutes <= 0 {
		cfg.Orders.TTLMinutes = 30
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("LEDGER_ENDPOINT"); v != "" {
		cfg.Ledger.Endpoint = v
	}
	if v := os.Getenv("LEDGER_WS_ENDPOINT"); v != "" {
		cfg.Ledger.WSEndpoint = v
	}
	if v := os.Getenv("LEDGER_ADDRESS_PREFIX"); v != "" {
		cfg.Ledger.AddressPrefix = v
	}
	if v := os.Getenv("PLATFORM_ACCOUNT"); v != "" {
		cfg.Ledger.PlatformAccount = v
	}
	if v := os.Getenv("ORDER_FEE"); v != "" {
		cfg.Orders.Fee = atou64Or(cfg.Orders.Fee, v)
	}
	if v := os.Getenv("ORDER_TTL_MINUTES"); v != "" {
		cfg.Orders.TTLMinutes = atoiOr(cfg.Orders.TTLMinutes, v)
	}
	if v := os.Getenv("WORKER_INTERVAL_SECONDS"); v != "" {
		cfg.Worker.IntervalSeconds = atoi64Or(cfg.Worker.IntervalSeconds, v)
	}
	if v := os.Getenv("WORKER_START_BLOCK"); v != "" {
		cfg.Worker.StartBlock = atoi64Or(cfg.Worker.StartBlock, v)
	}
	if v := os.Getenv("WORKER_MAX_BLOCKS_PER_TICK"); v != "" {
		cfg.Worker.MaxBlocksPerTick = atoi64Or(cfg.Worker.MaxBlocksPerTick, v)
	}
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func atou64Or(fallback uint64, v string) uint64 {
	i, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
