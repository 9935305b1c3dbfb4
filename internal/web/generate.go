package web

import (
	"net/http"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/generate"
)

// generateRequest asks for generate.DefaultCount cards when NumQuestions is 0.
type generateRequest struct {
	Text         string `json:"text"`
	NumQuestions int    `json:"num_questions" validate:"gte=0,lte=10"`
}

// handleGenerate asks the generator for cards and adds them to the deck.
func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req generateRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		deck, err := s.deckFor(r.Context(), user, r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeJSON(w, http.StatusOK, []domain.Flashcard{})
			return
		}
		if req.NumQuestions == 0 {
			req.NumQuestions = generate.DefaultCount
		}
		if !s.limiter.Allow(user.ID) {
			s.fail(w, r, errRateLimited)
			return
		}

		cards, err := s.generator.Generate(r.Context(), req.Text, req.NumQuestions)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if len(cards) == 0 {
			writeJSON(w, http.StatusOK, []domain.Flashcard{})
			return
		}
		created, err := s.db.CreateFlashcards(r.Context(), deck.ID, cards)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.log.Info("generated flashcards", "deck_id", deck.ID, "requested", req.NumQuestions, "created", len(created))
		writeJSON(w, http.StatusCreated, created)
	}
}

type previewRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req previewRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		html, err := generate.RenderPreview(req.Text)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"html": html})
	}
}
