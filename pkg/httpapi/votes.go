package httpapi

import "net/http"

func (h *Handlers) handleEthToTonPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	votes, err := h.svc.EthToTonPending()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newEthVoteViews(votes))
}

func (h *Handlers) handleEthToTonFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	votes, err := h.svc.EthToTonFailed()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newEthVoteViews(votes))
}

func (h *Handlers) handleEthToTonQueued(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	votes, err := h.svc.EthToTonQueued()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newEthVoteViews(votes))
}

func (h *Handlers) handleEthToTonStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	stats, err := h.svc.EthToTonStats()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newStatViews(stats))
}

func (h *Handlers) handleTonToEthPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	votes, err := h.svc.TonToEthPending()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newTonVoteViews(votes))
}

func (h *Handlers) handleTonToEthFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	votes, err := h.svc.TonToEthFailed()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newTonVoteViews(votes))
}

func (h *Handlers) handleTonToEthQueued(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	items, err := h.svc.TonToEthQueued()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newTonQueuedViews(items))
}

func (h *Handlers) handleTonToEthStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}
	stats, err := h.svc.TonToEthStats()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, newStatViews(stats))
}
