package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RetryConfig controls RPC retries.
type RetryConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// FetchConfig holds settings for the fetch command.
type FetchConfig struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []string
	Topic0            []string
	BatchSize         uint64
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	Retry             RetryConfig
	LogLevel          string
	MetricsAddr       string
}

// ProcessConfig holds settings for the process command.
type ProcessConfig struct {
	RPCURL      string
	In          string
	FromBlock   uint64
	ToBlock     uint64
	BatchSize   uint64
	Factory     string
	TickOnChain bool
	Retry       RetryConfig
	LogLevel    string
	MetricsAddr string

	DeltasOut   string
	Snapshot    string
	PGDSN       string
	PGStateName string
	KafkaServer string
	KafkaTopic  string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisStream string
	RedisPrefix string
}

// LoadFetch merges .env, config file, environment variables and flags into FetchConfig.
func LoadFetch(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"batch-size":         uint64(2000),
		"out":                "./data/blocks.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"log-level":          "info",
	})
	if err != nil {
		return FetchConfig{}, err
	}

	return FetchConfig{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Addresses:         getStringSlice(v, "address"),
		Topic0:            getStringSlice(v, "topic0"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		Retry:             retry(v),
		LogLevel:          v.GetString("log-level"),
		MetricsAddr:       v.GetString("metrics-addr"),
	}, nil
}

// LoadProcess merges .env, config file, environment variables and flags into ProcessConfig.
func LoadProcess(cfgFile string, flags *pflag.FlagSet) (ProcessConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"batch-size":    uint64(500),
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
		"snapshot":      "./data/state.db",
		"pg-state-name": "pricescope",
		"redis-stream":  "pricescope:deltas",
		"redis-prefix":  "pricescope",
	})
	if err != nil {
		return ProcessConfig{}, err
	}

	cfg := ProcessConfig{
		RPCURL:      v.GetString("rpc"),
		In:          v.GetString("in"),
		FromBlock:   v.GetUint64("from"),
		ToBlock:     v.GetUint64("to"),
		BatchSize:   v.GetUint64("batch-size"),
		Factory:     v.GetString("factory"),
		TickOnChain: v.GetBool("tick-on-chain"),
		Retry:       retry(v),
		LogLevel:    v.GetString("log-level"),
		MetricsAddr: v.GetString("metrics-addr"),
		DeltasOut:   v.GetString("deltas-out"),
		Snapshot:    v.GetString("snapshot"),
		PGDSN:       v.GetString("pg-dsn"),
		PGStateName: v.GetString("pg-state-name"),
		KafkaServer: v.GetString("kafka-server"),
		KafkaTopic:  v.GetString("kafka-topic"),
		RedisAddr:   v.GetString("redis-addr"),
		RedisPass:   v.GetString("redis-password"),
		RedisDB:     v.GetInt("redis-db"),
		RedisStream: v.GetString("redis-stream"),
		RedisPrefix: v.GetString("redis-prefix"),
	}
	return cfg, cfg.Validate()
}

// Validate checks the combinations the process command cannot run without.
func (c ProcessConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required for token metadata")
	}
	if c.In == "" && c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if (c.KafkaServer == "") != (c.KafkaTopic == "") {
		return fmt.Errorf("kafka server and topic must be set together")
	}
	return nil
}

func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func retry(v *viper.Viper) RetryConfig {
	return RetryConfig{
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
