package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexroom/statext/internal/interpolate"
	"github.com/lexroom/statext/internal/render"
	"github.com/lexroom/statext/internal/store"
)

// handleGetSection returns a stored section reassembled from its
// fragments. ?format=html renders it through the Markdown pipeline;
// the default is the plain normalized text as JSON.
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	lawID := chi.URLParam(r, "lawID")
	locationID := chi.URLParam(r, "locationID")

	st := s.orchestrator.SectionStore()
	rec, elements, err := st.LoadSection(r.Context(), lawID, locationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "section not found", http.StatusNotFound)
			return
		}
		s.log.Error("get section", "law_id", lawID, "location_id", locationID, "error", err)
		jsonError(w, "failed to load section", http.StatusInternalServerError)
		return
	}

	text, err := interpolate.ExpandFully(rec.TokenizedText, elements)
	if err != nil {
		s.log.Error("reassemble section", "law_id", lawID, "location_id", locationID, "error", err)
		jsonError(w, "failed to reassemble section", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		page, err := render.SectionHTML(rec.Heading, text)
		if err != nil {
			jsonError(w, "failed to render section", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
		return
	}

	writeJSON(w, map[string]string{
		"law_id":      lawID,
		"location_id": locationID,
		"heading":     rec.Heading,
		"text":        text,
	})
}

// handleListFragments returns a section's fragment rows in document order.
func (s *Server) handleListFragments(w http.ResponseWriter, r *http.Request) {
	lawID := chi.URLParam(r, "lawID")
	locationID := chi.URLParam(r, "locationID")

	rows, err := s.orchestrator.SectionStore().ListFragments(r.Context(), lawID, locationID)
	if err != nil {
		s.log.Error("list fragments", "law_id", lawID, "location_id", locationID, "error", err)
		jsonError(w, "failed to list fragments", http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		jsonError(w, "section not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"law_id":      lawID,
		"location_id": locationID,
		"fragments":   rows,
	})
}
