// Package httpapi is the relay's HTTP control surface (spec section 6): a
// thin JSON layer over pkg/relay.Service, used by operators to unlock the
// vault, admit configurations, cast bootstrap votes, and inspect pending,
// failed, and queued work in both directions. Grounded on the teacher's
// pkg/server/proof_handlers.go: one struct holding the dependency plus a
// *log.Logger, one method per route, and writeJSON/writeError helpers.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/tonbridge/relay/pkg/relay"
)

// Handlers backs every spec section 6 route with pkg/relay.Service.
type Handlers struct {
	svc    *relay.Service
	logger *log.Logger
}

// New constructs the HTTP control surface over svc.
func New(svc *relay.Service) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: log.New(log.Writer(), "[HTTPAPI] ", log.LstdFlags),
	}
}

// Register wires every route onto mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/status", h.handleStatus)
	mux.HandleFunc("/init", h.handleInit)
	mux.HandleFunc("/unlock", h.handleUnlock)
	mux.HandleFunc("/rescan-eth", h.handleRescanEth)
	mux.HandleFunc("/retry-failed", h.handleRetryFailed)
	mux.HandleFunc("/event-configurations", h.handleEventConfigurations)
	mux.HandleFunc("/event-configurations/vote", h.handleVoteEventConfiguration)
	mux.HandleFunc("/update-bridge-configuration", h.handleUpdateBridgeConfiguration)
	mux.HandleFunc("/eth-to-ton/pending", h.handleEthToTonPending)
	mux.HandleFunc("/eth-to-ton/failed", h.handleEthToTonFailed)
	mux.HandleFunc("/eth-to-ton/queued", h.handleEthToTonQueued)
	mux.HandleFunc("/eth-to-ton/stats", h.handleEthToTonStats)
	mux.HandleFunc("/ton-to-eth/pending", h.handleTonToEthPending)
	mux.HandleFunc("/ton-to-eth/failed", h.handleTonToEthFailed)
	mux.HandleFunc("/ton-to-eth/queued", h.handleTonToEthQueued)
	mux.HandleFunc("/ton-to-eth/stats", h.handleTonToEthStats)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}
