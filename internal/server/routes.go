package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stratamem/strata/internal/engine"
	"github.com/stratamem/strata/internal/model"
)

// StoreRequest is the JSON body for POST /api/memories.
type StoreRequest struct {
	Content  map[string]any    `json:"content"`
	Tier     string            `json:"tier,omitempty"`
	Category string            `json:"category"`
	Priority string            `json:"priority,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// QueryRequest is the JSON body for POST /api/query.
type QueryRequest struct {
	Text         string   `json:"text,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Tiers        []string `json:"tiers,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	MinRelevance float64  `json:"min_relevance,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	spec := engine.ItemSpec{
		Content:  req.Content,
		Tags:     req.Tags,
		Metadata: req.Metadata,
	}
	var err error
	if req.Tier != "" {
		if spec.Tier, err = model.ParseTier(req.Tier); err != nil {
			writeError(w, err)
			return
		}
	}
	if spec.Category, err = model.ParseCategory(req.Category); err != nil {
		writeError(w, err)
		return
	}
	if req.Priority != "" {
		if spec.Priority, err = model.ParsePriority(req.Priority); err != nil {
			writeError(w, err)
			return
		}
	}

	id, err := s.eng.Store(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	it, err := s.eng.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.eng.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleUpdateContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]string
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := s.eng.UpdateContext(r.Context(), id, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	opts := engine.QueryOptions{
		MinRelevance: req.MinRelevance,
		Limit:        req.Limit,
	}
	for _, t := range req.Tiers {
		tier, err := model.ParseTier(t)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Tiers = append(opts.Tiers, tier)
	}
	for _, c := range req.Categories {
		cat, err := model.ParseCategory(c)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Categories = append(opts.Categories, cat)
	}

	res, err := s.eng.Query(r.Context(), req.Text, req.Tags, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.eng.Statistics()
	writeJSON(w, http.StatusOK, map[string]any{
		"tiers":                 st.Tiers,
		"total_items":           st.TotalItems,
		"queries_processed":     st.QueriesProcessed,
		"average_response_time": st.AverageResponseTime.String(),
		"cache_hit_rate":        st.CacheHitRate,
		"db_path":               s.db.Path,
		"db_size_bytes":         s.db.SizeBytes(),
		"uptime_seconds":        time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Export())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snap engine.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	n, err := s.eng.Import(snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
