// Command relay runs the cross-chain vote relay: it watches for events on
// the E-chain and T-chain, casts signed votes on the opposite chain, and
// exposes the HTTP control surface spec section 6 describes. Grounded on
// the teacher's main.go: load config, dial every chain client, wire the
// composition root, register HTTP routes, and wait on a signal for
// graceful shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonbridge/relay/pkg/config"
	"github.com/tonbridge/relay/pkg/ethtransport"
	"github.com/tonbridge/relay/pkg/httpapi"
	"github.com/tonbridge/relay/pkg/metrics"
	"github.com/tonbridge/relay/pkg/relay"
	"github.com/tonbridge/relay/pkg/store"
	"github.com/tonbridge/relay/pkg/tontransport"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		configPath = flag.String("config", "./config.yaml", "path to the relay configuration file")
		iterations = flag.Int("vault-iterations", 5_000_000, "PBKDF2 iteration count for vault unlock/init")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := dbm.NewGoLevelDB("relay", cfg.StoragePath)
	if err != nil {
		log.Fatalf("open storage at %s: %v", cfg.StoragePath, err)
	}
	kv := store.NewCometKV(db)

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDial()
	ethClient, err := ethtransport.Dial(dialCtx, cfg.EthSettings.NodeAddress)
	if err != nil {
		log.Fatalf("dial eth node at %s: %v", cfg.EthSettings.NodeAddress, err)
	}

	var tonClient tontransport.Transport = tontransport.NewHTTPClient(cfg.TonSettings.Transport, os.Getenv("TON_API_KEY"))

	var reg *prometheus.Registry
	var m *metrics.Metrics
	if cfg.MetricsSettings.Enabled {
		reg = prometheus.NewRegistry()
		m = metrics.New(reg)
	}

	svc := relay.New(cfg, cfg.KeysPath, *iterations, kv, ethClient, tonClient, m)

	mux := http.NewServeMux()
	httpapi.New(svc).Register(mux)
	if reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: mux,
	}

	go func() {
		log.Printf("relay control surface listening on %s", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	svc.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("close storage: %v", err)
	}
}
