package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ParsesNestedSettingsAndEnvSubstitution(t *testing.T) {
	t.Setenv("E_CHAIN_NODE_URL", "https://eth.example/rpc")

	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	contents := `
listen_address: "127.0.0.1:9000"
keys_path: "/var/lib/relay/keys.json"
storage_path: "/var/lib/relay/data"
metrics_settings:
  enabled: true
  address: "127.0.0.1:9100"
eth_settings:
  node_address: "${E_CHAIN_NODE_URL}"
  tcp_connection_count: 8
  eth_poll_interval: "3s"
  eth_poll_attempts: 5
  suspicious_blocks_offset: 12
  bridge_address: "0xabc"
ton_settings:
  relay_contract_address: "0:relay"
  bridge_contract_address: "0:bridge"
  transport: "graphql"
  ton_events_verification_interval: "1500ms"
  ton_events_verification_queue_lt_offset: 7
  ton_events_allowed_time_diff: "30m"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddress != "127.0.0.1:9000" {
		t.Fatalf("ListenAddress = %q", cfg.ListenAddress)
	}
	if cfg.EthSettings.NodeAddress != "https://eth.example/rpc" {
		t.Fatalf("NodeAddress env substitution failed: %q", cfg.EthSettings.NodeAddress)
	}
	if cfg.EthSettings.EthPollInterval.Duration() != 3*time.Second {
		t.Fatalf("EthPollInterval = %v", cfg.EthSettings.EthPollInterval.Duration())
	}
	if cfg.EthSettings.SuspiciousBlocksOffset != 12 {
		t.Fatalf("SuspiciousBlocksOffset = %d", cfg.EthSettings.SuspiciousBlocksOffset)
	}
	if cfg.TonSettings.TonEventsVerificationInterval.Duration() != 1500*time.Millisecond {
		t.Fatalf("TonEventsVerificationInterval = %v", cfg.TonSettings.TonEventsVerificationInterval.Duration())
	}
	if cfg.TonSettings.TonEventsAllowedTimeDiff.Duration() != 30*time.Minute {
		t.Fatalf("TonEventsAllowedTimeDiff = %v", cfg.TonSettings.TonEventsAllowedTimeDiff.Duration())
	}
	// Fields absent from the file fall back to Default()'s values.
	if cfg.TonSettings.MessageRetryCount != 10 {
		t.Fatalf("MessageRetryCount default not applied: %d", cfg.TonSettings.MessageRetryCount)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSubstituteEnvVars_LeavesUnsetReferencesLiteral(t *testing.T) {
	os.Unsetenv("RELAY_DEFINITELY_UNSET")
	out := substituteEnvVars("node: ${RELAY_DEFINITELY_UNSET}")
	if out != "node: ${RELAY_DEFINITELY_UNSET}" {
		t.Fatalf("expected literal passthrough, got %q", out)
	}
}
