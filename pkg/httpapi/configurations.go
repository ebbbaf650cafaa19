package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tonbridge/relay/pkg/registry"
	"github.com/tonbridge/relay/pkg/tontransport"
)

type configurationView struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
}

func newConfigurationView(cfg *registry.Configuration) configurationView {
	kind := "ton_to_eth"
	if cfg.IsEthToTon() {
		kind = "eth_to_ton"
	}
	return configurationView{
		ID:      cfg.ID,
		Address: cfg.Address.String(),
		Kind:    kind,
		Status:  cfg.Status.String(),
	}
}

type newConfigurationRequest struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

// handleEventConfigurations serves GET and POST /event-configurations.
func (h *Handlers) handleEventConfigurations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listEventConfigurations(w, r)
	case http.MethodPost:
		h.addEventConfiguration(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET or POST required")
	}
}

func (h *Handlers) listEventConfigurations(w http.ResponseWriter, r *http.Request) {
	cfgs := h.svc.ListEventConfigurations()
	views := make([]configurationView, 0, len(cfgs))
	for _, cfg := range cfgs {
		views = append(views, newConfigurationView(cfg))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) addEventConfiguration(w http.ResponseWriter, r *http.Request) {
	var req newConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	addr, err := tontransport.ParseAddress(req.Address)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_address", err.Error())
		return
	}
	if err := h.svc.AddEventConfiguration(r.Context(), req.ID, addr); err != nil {
		h.writeError(w, http.StatusInternalServerError, "add_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "admitting"})
}

type voteEventConfigurationRequest struct {
	Vote    string `json:"vote"`
	Address string `json:"address"`
}

// handleVoteEventConfiguration serves POST /event-configurations/vote.
func (h *Handlers) handleVoteEventConfiguration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	var req voteEventConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	addr, err := tontransport.ParseAddress(req.Address)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_address", err.Error())
		return
	}
	if err := h.svc.VoteEventConfiguration(req.Vote, addr); err != nil {
		h.writeError(w, http.StatusBadRequest, "vote_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type updateBridgeConfigurationRequest struct {
	ConfigurationID       uint64 `json:"configuration_id"`
	Nonce                 uint64 `json:"nonce"`
	RequiredConfirmations uint16 `json:"required_confirmations"`
	RequiredRejects       uint16 `json:"required_rejects"`
	Active                bool   `json:"active"`
}

// handleUpdateBridgeConfiguration serves POST /update-bridge-configuration.
func (h *Handlers) handleUpdateBridgeConfiguration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	var req updateBridgeConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	update := registry.BridgeConfigurationUpdate{
		ConfigurationID:       req.ConfigurationID,
		Nonce:                 req.Nonce,
		RequiredConfirmations: req.RequiredConfirmations,
		RequiredRejects:       req.RequiredRejects,
		Active:                req.Active,
	}
	if err := h.svc.UpdateBridgeConfiguration(update); err != nil {
		h.writeError(w, http.StatusBadRequest, "update_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
