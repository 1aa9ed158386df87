package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lexroom/statext/internal/hierarchy"
	"github.com/lexroom/statext/internal/interpolate"
	"github.com/lexroom/statext/internal/tokenizer"
)

const maxBodyBytes = 4 << 20

type tokenizeRequest struct {
	Text  string `json:"text"`
	Scope string `json:"scope,omitempty"`
}

// handleTokenize tokenizes posted text without touching the store.
func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	res := tokenizer.New(s.log).TokenizeScoped(req.Text, req.Scope)
	writeJSON(w, res)
}

type expandRequest struct {
	TokenizedText string               `json:"tokenized_text"`
	Elements      []*hierarchy.Element `json:"elements"`
}

// handleExpand reassembles posted tokenized text. A dangling token means
// the caller's element set is incomplete and maps to 422.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	text, err := interpolate.ExpandFully(req.TokenizedText, req.Elements)
	if err != nil {
		var dangling *interpolate.DanglingTokenError
		if errors.As(err, &dangling) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(out)
}
