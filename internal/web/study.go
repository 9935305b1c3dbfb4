package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/study"
)

// startStudy opens a session over a deck the user can see, honouring the
// user's per-card countdown setting.
func (s *Server) startStudy(ctx context.Context, user *domain.User, deckID string) (*study.Runner, *domain.Deck, error) {
	deck, err := s.deckFor(ctx, user, deckID, false)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.db.GetSettings(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	runner, err := s.studies.Start(ctx, user.ID, deck.ID, study.Options{CardSeconds: settings.CardSeconds})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("study session opened", "session_id", runner.ID(), "deck_id", deck.ID, "user_id", user.ID)
	return runner, deck, nil
}

// runnerFor returns a live session owned by the user.
func (s *Server) runnerFor(r *http.Request) (*study.Runner, error) {
	runner, err := s.studies.Get(r.PathValue("sid"))
	if err != nil {
		return nil, err
	}
	if runner.UserID() != currentUser(r).ID {
		return nil, study.ErrSessionNotFound
	}
	return runner, nil
}

type studyView struct {
	Deck *domain.Deck
	study.Snapshot
}

func (s *Server) handleStartStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner, deck, err := s.startStudy(r.Context(), currentUser(r), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		snap, err := runner.Snapshot(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("HX-Push-Url", "/study/"+runner.ID())
		s.render(w, "study", studyView{Deck: deck, Snapshot: snap})
	}
}

// handleStudyView renders the full study page, or only the session state
// for HTMX polling.
func (s *Server) handleStudyView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner, err := s.runnerFor(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		snap, err := runner.Snapshot(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if r.Header.Get("HX-Request") == "true" {
			s.render(w, "study_state", snap)
			return
		}
		deck, err := s.db.GetDeck(r.Context(), snap.DeckID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "study", studyView{Deck: deck, Snapshot: snap})
	}
}

func (s *Server) handleStudyIntent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intent, err := study.ParseIntent(r.PathValue("intent"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.dispatchHTML(w, r, intent)
	}
}

// handleStudyKey feeds a key press through the keyboard mapping. Unmapped
// keys leave the session alone.
func (s *Server) handleStudyKey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intent, _ := study.KeyIntent(r.URL.Query().Get("key"))
		s.dispatchHTML(w, r, intent)
	}
}

func (s *Server) dispatchHTML(w http.ResponseWriter, r *http.Request, intent study.Intent) {
	runner, err := s.runnerFor(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if intent == study.IntentExit {
		s.exitHTML(w, r, runner)
		return
	}
	snap, err := runner.Dispatch(r.Context(), intent)
	switch {
	case errors.Is(err, study.ErrRestart):
		// The running session is untouched; show it again.
		s.log.Warn("study intent failed", "session_id", runner.ID(), "intent", intent, "error", err)
	case err != nil:
		s.fail(w, r, err)
		return
	}
	s.render(w, "study_state", snap)
}

func (s *Server) exitHTML(w http.ResponseWriter, r *http.Request, runner *study.Runner) {
	snap, err := s.studies.Exit(r.Context(), runner.ID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("HX-Redirect", "/decks/"+snap.DeckID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStudyExit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner, err := s.runnerFor(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.exitHTML(w, r, runner)
	}
}

func (s *Server) handleAPIStartStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner, _, err := s.startStudy(r.Context(), currentUser(r), r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		snap, err := runner.Snapshot(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func (s *Server) handleAPIStudySnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner, err := s.runnerFor(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		snap, err := runner.Snapshot(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleAPIStudyIntent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intent, err := study.ParseIntent(r.PathValue("intent"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		runner, err := s.runnerFor(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		var snap study.Snapshot
		if intent == study.IntentExit {
			snap, err = s.studies.Exit(r.Context(), runner.ID())
		} else {
			snap, err = runner.Dispatch(r.Context(), intent)
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleAPIStudyExit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner, err := s.runnerFor(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		snap, err := s.studies.Exit(r.Context(), runner.ID())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
