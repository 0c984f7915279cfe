package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"afkbot/internal/bot"
	"afkbot/internal/store"
)

type stopRequest struct {
	Forced bool `json:"forced"`
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// controlStatus maps orchestrator errors to HTTP status codes.
func controlStatus(err error) int {
	switch {
	case errors.Is(err, bot.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, bot.ErrStopBlocked), errors.Is(err, bot.ErrNotRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListConfigs())
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var params store.ConfigParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if params.ServerIP == "" || params.Username == "" {
		http.Error(w, `{"error":"serverIP and username are required"}`, http.StatusBadRequest)
		return
	}

	cfg := s.store.CreateConfig(params)

	if cfg.AutoStart {
		go func() {
			_ = s.bots.Start(cfg.ID)
		}()
	}

	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	cfg, err := s.store.GetConfig(id)
	if err != nil {
		http.Error(w, `{"error":"config not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	var update store.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	cfg, err := s.store.UpdateConfig(id, update)
	if err != nil {
		http.Error(w, `{"error":"config not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	// A running session must not outlive its config.
	if err := s.bots.Stop(id, true); err != nil && !errors.Is(err, bot.ErrNotRunning) {
		http.Error(w, `{"error":"failed to stop bot before deletion"}`, http.StatusConflict)
		return
	}

	if err := s.store.DeleteConfig(id); err != nil {
		http.Error(w, `{"error":"config not found"}`, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartBot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	if err := s.bots.Start(id); err != nil {
		writeJSON(w, controlStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bot started successfully"})
}

func (s *Server) handleStopBot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	var req stopRequest
	if r.Body != nil {
		// An empty body means a normal (non-forced) stop.
		json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.bots.Stop(id, req.Forced); err != nil {
		writeJSON(w, controlStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bot stopped successfully"})
}

func (s *Server) handleRestartBot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	if err := s.bots.Restart(id); err != nil {
		writeJSON(w, controlStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bot restart initiated"})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	if _, err := s.store.GetConfig(id); err != nil {
		http.Error(w, `{"error":"config not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.bots.Status(id))
}

func (s *Server) handleAllStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bots.AllStatuses())
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	writeJSON(w, http.StatusOK, s.store.ListLogs(id, limit))
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	s.store.ClearLogs(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, `{"error":"invalid config id"}`, http.StatusBadRequest)
		return
	}

	stats, ok := s.store.GetStats(id)
	if !ok {
		http.Error(w, `{"error":"bot stats not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
