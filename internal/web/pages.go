package web

import (
	"fmt"
	"html/template"
	"net/http"
)

var templateFuncs = template.FuncMap{
	// clock formats seconds as m:ss.
	"clock": func(seconds int) string {
		return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	},
	"inc": func(i int) int { return i + 1 },
}

// handleIndex renders the deck list of the current user.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		decks, err := s.db.ListDecks(r.Context(), user.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		stats, err := s.db.GetUserStats(r.Context(), user.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "index", map[string]any{
			"Decks": decks,
			"Stats": stats,
		})
	}
}

// handleDeckPage renders a deck with its cards and the study button.
func (s *Server) handleDeckPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		deck, err := s.deckFor(r.Context(), user, r.PathValue("id"), false)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		cards, err := s.db.ListFlashcards(r.Context(), deck.ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "deck", map[string]any{
			"Deck":    deck,
			"Cards":   cards,
			"IsOwner": deck.UserID == user.ID,
		})
	}
}

// handleSharePage renders a public deck read-only. No login is needed.
func (s *Server) handleSharePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared, err := s.sharedDeck(r.Context(), r.PathValue("slug"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "share", shared)
	}
}

func (s *Server) handleLeaderboardPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.db.Leaderboard(r.Context(), 0)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "leaderboard", map[string]any{
			"Entries": entries,
			"UserID":  currentUser(r).ID,
		})
	}
}
