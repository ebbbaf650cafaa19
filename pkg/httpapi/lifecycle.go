package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// handleStatus serves GET /status.
func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Status())
}

type passphraseRequest struct {
	Password string `json:"password"`
}

// handleInit serves POST /init.
func (h *Handlers) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	var req passphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.svc.Init(req.Password); err != nil {
		h.writeError(w, http.StatusConflict, "init_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

// handleUnlock serves POST /unlock.
func (h *Handlers) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	var req passphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.svc.Unlock(r.Context(), req.Password); err != nil {
		switch {
		case err == relayerr.ErrInvalidPassword:
			h.writeError(w, http.StatusUnauthorized, "invalid_password", err.Error())
		default:
			h.writeError(w, http.StatusInternalServerError, "unlock_failed", err.Error())
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

type rescanEthRequest struct {
	Block uint64 `json:"block"`
}

// handleRescanEth serves POST /rescan-eth.
func (h *Handlers) handleRescanEth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	var req rescanEthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := h.svc.RescanEth(req.Block); err != nil {
		h.writeError(w, http.StatusInternalServerError, "rescan_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rescanning"})
}

// handleRetryFailed serves POST /retry-failed.
func (h *Handlers) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	if err := h.svc.RetryFailed(); err != nil {
		h.writeError(w, http.StatusInternalServerError, "retry_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "retrying"})
}
