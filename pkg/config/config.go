// Package config loads the relay's configuration file (spec section 6),
// grounded on the teacher's YAML-plus-env-substitution loader
// (anchor_config.go's LoadAnchorConfig/substituteEnvVars) generalized from
// a flat anchor-service config to the relay's nested
// listen_address/eth_settings/ton_settings shape.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the relay's on-disk configuration file (spec section 6).
type Config struct {
	ListenAddress   string          `yaml:"listen_address"`
	KeysPath        string          `yaml:"keys_path"`
	StoragePath     string          `yaml:"storage_path"`
	MetricsSettings MetricsSettings `yaml:"metrics_settings"`
	EthSettings     EthSettings     `yaml:"eth_settings"`
	TonSettings     TonSettings     `yaml:"ton_settings"`
}

// MetricsSettings switches the Prometheus exporter on. When Enabled, /metrics
// is served on ListenAddress next to the control API; Address is read from
// the file but not used.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// EthSettings configures the E-chain side (spec section 6).
type EthSettings struct {
	NodeAddress            string   `yaml:"node_address"`
	TCPConnectionCount     int      `yaml:"tcp_connection_count"`
	GetEthDataTimeout      Duration `yaml:"get_eth_data_timeout"`
	GetEthDataAttempts     int      `yaml:"get_eth_data_attempts"`
	EthPollInterval        Duration `yaml:"eth_poll_interval"`
	EthPollAttempts        int      `yaml:"eth_poll_attempts"`
	SuspiciousBlocksOffset uint64   `yaml:"suspicious_blocks_offset"`
	BridgeAddress          string   `yaml:"bridge_address"`
}

// TonSettings configures the T-chain side (spec section 6).
type TonSettings struct {
	RelayContractAddress               string   `yaml:"relay_contract_address"`
	BridgeContractAddress              string   `yaml:"bridge_contract_address"`
	Transport                          string   `yaml:"transport"`
	MessageRetryInterval               Duration `yaml:"message_retry_interval"`
	MessageRetryCount                  int      `yaml:"message_retry_count"`
	MessageRetryIntervalMultiplier     float64  `yaml:"message_retry_interval_multiplier"`
	ParallelSpawnedContractsLimit      int      `yaml:"parallel_spawned_contracts_limit"`
	TonEventsVerificationInterval      Duration `yaml:"ton_events_verification_interval"`
	TonEventsVerificationQueueLtOffset uint64   `yaml:"ton_events_verification_queue_lt_offset"`
	TonEventsAllowedTimeDiff           Duration `yaml:"ton_events_allowed_time_diff"`
	EventsHandlerRetryCount            int      `yaml:"events_handler_retry_count"`
	EventsHandlerInterval              Duration `yaml:"events_handler_interval"`
}

// Duration wraps time.Duration for YAML unmarshaling of "30s"-style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars replaces ${VAR_NAME} references with the environment's
// value, leaving the literal text in place when the variable is unset.
func substituteEnvVars(raw string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// Load reads and parses the configuration file at path, expanding
// ${VAR_NAME} environment references before YAML-unmarshaling. Secret
// material (the vault passphrase) is never part of this file; it is
// supplied out of band via the HTTP control surface's /init and /unlock
// routes (spec section 6).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a configuration with the teacher-style safe defaults
// applied before the file's own values are layered on top.
func Default() *Config {
	return &Config{
		ListenAddress: "0.0.0.0:8080",
		KeysPath:      "./keys.json",
		StoragePath:   "./data",
		MetricsSettings: MetricsSettings{
			Enabled: true,
			Address: "0.0.0.0:9090",
		},
		EthSettings: EthSettings{
			TCPConnectionCount:     4,
			GetEthDataTimeout:      Duration(10 * time.Second),
			GetEthDataAttempts:     3,
			EthPollInterval:        Duration(5 * time.Second),
			EthPollAttempts:        3,
			SuspiciousBlocksOffset: 3,
		},
		TonSettings: TonSettings{
			MessageRetryInterval:               Duration(10 * time.Second),
			MessageRetryCount:                  10,
			MessageRetryIntervalMultiplier:     1.5,
			ParallelSpawnedContractsLimit:      100,
			TonEventsVerificationInterval:      Duration(2 * time.Second),
			TonEventsVerificationQueueLtOffset: 5,
			TonEventsAllowedTimeDiff:           Duration(time.Hour),
			EventsHandlerRetryCount:            3,
			EventsHandlerInterval:              Duration(5 * time.Second),
		},
	}
}
