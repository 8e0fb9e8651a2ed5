package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/voidhouse/decay/internal/decay"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Status(time.Now())

	resp := map[string]any{
		"level":  st.Level,
		"stage":  st.Stage.String(),
		"trend":  st.Trend.Direction.String(),
		"report": st.Report,
	}
	if st.Trend.ProjectedStageChangeIn != nil {
		resp["projected_stage_change_in"] = st.Trend.ProjectedStageChangeIn.String()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecentMessages int `json:"recent_messages"`
	}
	// The body is optional; a bare POST ticks with an idle channel.
	json.NewDecoder(r.Body).Decode(&req)

	res := s.engine.Tick(time.Now(), decay.Context{RecentMessages: req.RecentMessages})

	resp := map[string]any{
		"day":           res.Day,
		"in_window":     res.InWindow,
		"drift_applied": res.DriftApplied,
		"level":         res.Level,
		"stage":         res.Stage.String(),
	}
	if res.Event != nil {
		resp["event"] = map[string]any{
			"id":   res.Event.ID,
			"tier": res.Event.Tier.String(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleIssueChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	inst := s.engine.RequestChallenge(req.Kind, time.Now())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":         inst.ID,
		"kind":       inst.Kind.String(),
		"difficulty": inst.Difficulty,
		"prompt":     inst.Prompt,
		"issued_at":  inst.IssuedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleSubmitChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")

	var req struct {
		Source string `json:"source"`
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Answer == "" {
		http.Error(w, `{"error":"answer required"}`, http.StatusBadRequest)
		return
	}

	outcome, level, stage, err := s.engine.SubmitChallenge(challengeID, req.Source, req.Answer, time.Now())
	if errors.Is(err, decay.ErrInvalidSubmission) {
		http.Error(w, `{"error":"challenge not found or already resolved"}`, http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"result": outcome.Result.String(),
		"delta":  outcome.Delta,
		"level":  level,
		"stage":  stage.String(),
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	events, err := s.db.RecentEvents(limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		out = append(out, map[string]any{
			"event_id": e.EventID,
			"tier":     e.Tier,
			"payload":  e.Payload,
			"at":       e.At.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"events": out})
}
