package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/livesync"
)

// LiveHandler serves the live-document store contract: conditional GET
// with a version validator header, and conditional POST that either
// accepts a save or answers 409 with the authoritative document.
type LiveHandler struct {
	service *app.ShowService
}

func NewLiveHandler(service *app.ShowService) *LiveHandler {
	return &LiveHandler{service: service}
}

// ServeLive routes /live/{showId} by method.
func (h *LiveHandler) ServeLive(w http.ResponseWriter, r *http.Request) {
	showID := strings.TrimPrefix(r.URL.Path, "/live/")
	if showID == "" || strings.Contains(showID, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getLive(w, r, showID)
	case http.MethodPost:
		h.saveLive(w, r, showID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LiveHandler) getLive(w http.ResponseWriter, r *http.Request, showID string) {
	since := int64(-1)
	if raw := r.Header.Get(livesync.VersionHeader); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid version header", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	doc, changed, err := h.service.GetLive(r.Context(), showID, since)
	if err != nil {
		log.Printf("live get %s: %v", showID, err)
		http.Error(w, "live store unavailable", http.StatusInternalServerError)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(livesync.VersionHeader, strconv.FormatInt(doc.Version, 10))
	_ = json.NewEncoder(w).Encode(doc)
}

func (h *LiveHandler) saveLive(w http.ResponseWriter, r *http.Request, showID string) {
	var req livesync.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid save payload", http.StatusBadRequest)
		return
	}
	if req.ShowID != "" && req.ShowID != showID {
		http.Error(w, "show id mismatch", http.StatusBadRequest)
		return
	}

	result, err := h.service.SaveLive(r.Context(), showID, req.Version, req.State, req.By)
	if errors.Is(err, domain.ErrBadVersion) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("live save %s: %v", showID, err)
		http.Error(w, "live store unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !result.OK {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(livesync.SaveConflict{
			Error:  "version conflict",
			Latest: *result.Latest,
		})
		return
	}
	_ = json.NewEncoder(w).Encode(livesync.SaveAccepted{OK: true, Version: result.Version})
}
