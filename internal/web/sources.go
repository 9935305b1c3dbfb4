package web

import (
	"errors"
	"net/http"
)

var errImportDisabled = errors.New("importing is not configured")

type addSourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sources, err := s.db.ListSources(r.Context(), deck.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sources)
	}
}

// handleAddSource registers a directory or git URL with the deck and imports it.
func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.importer == nil {
			s.fail(w, r, errImportDisabled)
			return
		}
		var req addSourceRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		res, err := s.importer.Import(r.Context(), deck.ID, req.Path)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleSyncDeck re-reads every source of the deck in the foreground.
func (s *Server) handleSyncDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.importer == nil {
			s.fail(w, r, errImportDisabled)
			return
		}
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		results, err := s.importer.SyncDeck(r.Context(), deck.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
