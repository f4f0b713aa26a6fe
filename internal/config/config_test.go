package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadProcessFromEnvAndFlags(t *testing.T) {
	t.Setenv("INDEXER_RPC", "http://localhost:8545")
	t.Setenv("INDEXER_KAFKA_SERVER", "localhost:9092")
	t.Setenv("INDEXER_KAFKA_TOPIC", "deltas")

	flags := pflag.NewFlagSet("process", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.Uint64("from", 0, "")
	require.NoError(t, flags.Parse([]string{"--in", "blocks.jsonl", "--from", "12369621"}))

	cfg, err := LoadProcess("", flags)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", cfg.RPCURL)
	require.Equal(t, "blocks.jsonl", cfg.In)
	require.Equal(t, uint64(12369621), cfg.FromBlock)
	require.Equal(t, "deltas", cfg.KafkaTopic)
	require.Equal(t, "./data/state.db", cfg.Snapshot)
	require.Equal(t, 500*time.Millisecond, cfg.Retry.RetryBackoff)
}

func TestLoadProcessRejectsHalfKafka(t *testing.T) {
	t.Setenv("INDEXER_RPC", "http://localhost:8545")
	t.Setenv("INDEXER_KAFKA_SERVER", "localhost:9092")

	_, err := LoadProcess("", nil)
	require.Error(t, err)
}

func TestLoadFetchSplitsAddresses(t *testing.T) {
	t.Setenv("INDEXER_ADDRESS", "0x1f98431c8ad98523631ae4a59f267346ea31f984, ,0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8")

	cfg, err := LoadFetch("", nil)
	require.NoError(t, err)
	require.Len(t, cfg.Addresses, 2)
	require.Equal(t, uint64(2000), cfg.BatchSize)
	require.True(t, cfg.CheckpointEnabled)
}
