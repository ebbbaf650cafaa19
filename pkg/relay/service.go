// Package relay is the composition root: it wires the store, vault,
// codec-backed handlers, registry, and submitters into one running relay,
// and backs the HTTP control surface (pkg/httpapi) with the operations
// spec section 6 names. Grounded on the teacher's main.go, which performs
// the same role (flag parsing aside) for the Certen validator: construct
// every component once at startup, hold them in package-level/struct state,
// and expose thin accessor methods for the HTTP layer.
package relay

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/tonbridge/relay/pkg/config"
	"github.com/tonbridge/relay/pkg/ethsigner"
	"github.com/tonbridge/relay/pkg/ethtransport"
	"github.com/tonbridge/relay/pkg/metrics"
	"github.com/tonbridge/relay/pkg/registry"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/submitter"
	"github.com/tonbridge/relay/pkg/tontransport"
	"github.com/tonbridge/relay/pkg/tsigner"
	"github.com/tonbridge/relay/pkg/vault"
)

// Status is the /status route's response shape (spec section 6):
// "password_needed, init_data_needed, is_working, and the relay's T and E
// addresses once unlocked."
type Status struct {
	PasswordNeeded bool   `json:"password_needed"`
	InitDataNeeded bool   `json:"init_data_needed"`
	IsWorking      bool   `json:"is_working"`
	EthAddress     string `json:"eth_address,omitempty"`
	TonAddress     string `json:"ton_address,omitempty"`
}

// Service is the running relay: every component spec section 4 names,
// wired together and ready to accept the HTTP control surface's commands.
type Service struct {
	cfg        *config.Config
	vaultPath  string
	iterations int

	kv    store.KV
	votes struct {
		eth *store.EthVotes
		ton *store.TonVotes
	}
	stats struct {
		eth *store.Stats
		ton *store.Stats
	}
	meta        *store.Meta
	queue       *store.VerificationQueue
	configVotes *store.ConfigVotes

	ethTransport ethtransport.Transport
	tonTransport tontransport.Transport

	metrics *metrics.Metrics
	logger  *log.Logger

	mu         sync.RWMutex
	keys       *vault.Keys
	ethSigner  *ethsigner.Signer
	tonSigner  *tsigner.Signer
	working    bool
	ctx        context.Context
	cancelRun  context.CancelFunc
	registry   *registry.Registry
	handlers   map[uint64]runningHandler
	addrToID   map[tontransport.Address]uint64
}

type runningHandler interface {
	Stop()
}

// New constructs a Service from its ambient dependencies. ethTransport is
// the E→T handler's read-only E-chain client. tonTransport is the injected
// T-chain driver both submitters and the registry write through (spec
// section 1 scopes the wire-level client itself out of this module).
func New(cfg *config.Config, vaultPath string, iterations int, kv store.KV, ethTransport ethtransport.Transport, tonTransport tontransport.Transport, m *metrics.Metrics) *Service {
	s := &Service{
		cfg:          cfg,
		vaultPath:    vaultPath,
		iterations:   iterations,
		kv:           kv,
		ethTransport: ethTransport,
		tonTransport: tonTransport,
		metrics:      m,
		logger:       log.New(log.Writer(), "[Relay] ", log.LstdFlags),
		handlers:     make(map[uint64]runningHandler),
		addrToID:     make(map[tontransport.Address]uint64),
	}
	s.votes.eth = store.NewEthVotes(kv)
	s.votes.ton = store.NewTonVotes(kv)
	s.stats.eth = store.NewEthStats(kv)
	s.stats.ton = store.NewTonStats(kv)
	s.meta = store.NewMeta(kv)
	s.queue = store.NewVerificationQueue(kv)
	s.configVotes = store.NewConfigVotes(kv)
	return s
}

// Status reports the relay's lifecycle state (spec section 6).
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{IsWorking: s.working}
	if !vaultExists(s.vaultPath) {
		st.InitDataNeeded = true
	}
	if s.keys == nil {
		st.PasswordNeeded = !st.InitDataNeeded
	} else {
		st.EthAddress = s.ethSigner.Address().Hex()
		st.TonAddress = s.tonAddress()
	}
	return st
}

func vaultExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Init generates fresh E-chain and T-chain signing keys and seals them into
// a new vault file at the configured keys_path (spec section 6 "/init").
func (s *Service) Init(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vaultExists(s.vaultPath) {
		return fmt.Errorf("relay: vault already initialized at %s", s.vaultPath)
	}

	ethKey, err := gethcrypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("relay: generate eth key: %w", err)
	}
	_, tonKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("relay: generate ton key: %w", err)
	}
	return vault.Create(s.vaultPath, passphrase, ethKey, tonKey, s.iterations)
}

// Unlock opens the vault and, on success, starts every submitter and the
// registry's discovery loop (spec section 6 "/unlock").
func (s *Service) Unlock(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	if s.working {
		s.mu.Unlock()
		return fmt.Errorf("relay: already unlocked")
	}
	keys, err := vault.Open(s.vaultPath, passphrase, s.iterations)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.keys = keys
	s.ethSigner = ethsigner.New(keys.EthPrivateKey)
	s.tonSigner = tsigner.New(keys.TonPrivateKey)
	s.mu.Unlock()

	return s.start(ctx)
}

func (s *Service) ethAddress() common.Address {
	return s.ethSigner.Address()
}

func (s *Service) tonAddress() string {
	return fmt.Sprintf("%x", s.tonSigner.PublicKey())
}

func submitterConfig(cfg *config.Config) submitter.Config {
	return submitter.Config{
		RetryInterval:   cfg.TonSettings.MessageRetryInterval.Duration(),
		RetryMultiplier: cfg.TonSettings.MessageRetryIntervalMultiplier,
		RetryCount:      cfg.TonSettings.MessageRetryCount,
		TimeoutSec:      60,
	}
}

// start wires the registry, submitters, and bridge-discovery loop and runs
// them against ctx until Stop cancels it.
func (s *Service) start(parent context.Context) error {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	sc := submitterConfig(s.cfg)

	reg := registry.New(
		s.tonTransport,
		registry.FetchConfig{RetryCount: 5, RetryInterval: time.Second},
		defaultValidator,
		&handlerController{svc: s},
		&voteCaster{svc: s},
	)
	s.mu.Lock()
	s.registry = reg
	s.mu.Unlock()
	resolver := &configResolver{registry: reg}

	ethSub := submitter.NewEthSubmitter(sc, s.votes.eth, s.stats.eth, s.tonTransport, s.tonSigner, resolver)
	tonSub := submitter.NewTonSubmitter(sc, s.votes.ton, s.stats.ton, s.tonTransport, s.tonSigner, resolver)
	cfgSub := submitter.NewConfigSubmitter(sc, s.configVotes, s.tonTransport, s.tonSigner, resolver)

	if s.metrics != nil {
		ethSub.SetOnLanded(func(id uint64) { s.metrics.IncEthSuccessfulVote(strconv.FormatUint(id, 10)) })
		tonSub.SetOnLanded(func(id uint64) { s.metrics.IncTonSuccessfulVote(strconv.FormatUint(id, 10)) })
	}

	go ethSub.Run(ctx, s.cfg.EthSettings.EthPollInterval.Duration())
	go tonSub.Run(ctx, s.cfg.TonSettings.MessageRetryInterval.Duration())
	go cfgSub.Run(ctx, s.cfg.TonSettings.MessageRetryInterval.Duration())

	if s.cfg.MetricsSettings.Enabled {
		go s.reportMetrics(ctx, s.cfg.EthSettings.EthPollInterval.Duration())
	}

	if s.cfg.TonSettings.BridgeContractAddress != "" {
		bridgeAddr, err := parseTonAddress(s.cfg.TonSettings.BridgeContractAddress)
		if err == nil {
			go s.runDiscovery(ctx, bridgeAddr)
		} else {
			s.logger.Printf("bridge_contract_address unparsable, discovery disabled: %v", err)
		}
	}

	s.mu.Lock()
	s.working = true
	s.ctx = ctx
	s.cancelRun = cancel
	s.mu.Unlock()
	return nil
}

// runCtx returns the context every spawned handler runs under. Callers must
// hold s.mu (read or write) and have already confirmed the service is
// running, since it is only set by start.
func (s *Service) runCtx() context.Context {
	return s.ctx
}

// Stop cancels every running component. It does not re-seal the vault;
// the process holds the decrypted keys in memory until it exits, matching
// the teacher's own daemon shutdown (cancel contexts, let goroutines drain).
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	for id, h := range s.handlers {
		h.Stop()
		delete(s.handlers, id)
	}
	s.working = false
	s.ctx = nil
	s.cancelRun = nil
}

func defaultValidator(details tontransport.ConfigurationDetails) error {
	if details.Kind != "eth_to_ton" && details.Kind != "ton_to_eth" {
		return fmt.Errorf("registry: unknown configuration kind %q", details.Kind)
	}
	if len(details.EventABI) == 0 {
		return fmt.Errorf("registry: empty event_abi")
	}
	return nil
}

// RegistryAddr records address -> configuration id once a configuration
// has been admitted, so /event-configurations/vote can resolve the address
// an external bootstrap-vote observer reports back to a tracked id.
func (s *Service) RegistryAddr(addr tontransport.Address, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addrToID[addr] = id
}

func (s *Service) lookupByAddr(addr tontransport.Address) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.addrToID[addr]
	return id, ok
}
