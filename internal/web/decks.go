package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/samber/lo"
)

// deckFor returns a deck the user may see. Other users' private decks are
// reported as missing; writes need ownership.
func (s *Server) deckFor(ctx context.Context, user *domain.User, deckID string, write bool) (*domain.Deck, error) {
	deck, err := s.db.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID == user.ID || (!write && deck.IsPublic) {
		return deck, nil
	}
	return nil, fmt.Errorf("deck %s: %w", deckID, domain.ErrDeckNotFound)
}

func (s *Server) handleSyncUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	}
}

func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.db.ListDecks(r.Context(), currentUser(r).ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, decks)
	}
}

type createDeckRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDeckRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		deck, err := s.db.CreateDeck(r.Context(), currentUser(r).ID, strings.TrimSpace(req.Name), req.Description)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, deck)
	}
}

func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), false)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, deck)
	}
}

type updateDeckRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPublic    *bool   `json:"is_public"`
}

func (s *Server) handleUpdateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateDeckRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		deck.Name = lo.FromPtrOr(req.Name, deck.Name)
		deck.Description = lo.FromPtrOr(req.Description, deck.Description)
		deck.IsPublic = lo.FromPtrOr(req.IsPublic, deck.IsPublic)
		if err := s.db.UpdateDeck(r.Context(), deck); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.db.DeleteDeck(r.Context(), deck.ID); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type sharedDeck struct {
	*domain.Deck
	Flashcards []domain.Flashcard `json:"flashcards"`
}

func (s *Server) sharedDeck(ctx context.Context, slug string) (*sharedDeck, error) {
	deck, err := s.db.GetDeckBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	cards, err := s.db.ListFlashcards(ctx, deck.ID)
	if err != nil {
		return nil, err
	}
	return &sharedDeck{Deck: deck, Flashcards: cards}, nil
}

func (s *Server) handleGetSharedDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared, err := s.sharedDeck(r.Context(), r.PathValue("slug"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, shared)
	}
}

func (s *Server) handleListFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), false)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		cards, err := s.db.ListFlashcards(r.Context(), deck.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

type flashcardRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
	Answer   string `json:"answer" validate:"required,max=5000"`
}

func (s *Server) handleCreateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		cards, err := s.db.CreateFlashcards(r.Context(), deck.ID, []domain.Flashcard{{
			Question: strings.TrimSpace(req.Question),
			Answer:   strings.TrimSpace(req.Answer),
		}})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, cards[0])
	}
}

func (s *Server) handleUpdateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		card, err := s.db.GetFlashcard(r.Context(), deck.ID, r.PathValue("cid"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		card.Question = strings.TrimSpace(req.Question)
		card.Answer = strings.TrimSpace(req.Answer)
		if err := s.db.UpdateFlashcard(r.Context(), card); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.deckFor(r.Context(), currentUser(r), r.PathValue("id"), true)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.db.DeleteFlashcard(r.Context(), deck.ID, r.PathValue("cid")); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
