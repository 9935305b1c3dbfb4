package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

func (s *Server) handleListStudySessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		records, err := s.db.ListStudySessions(r.Context(), currentUser(r).ID, limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.db.GetUserStats(r.Context(), currentUser(r).ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) handleLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := s.db.Leaderboard(r.Context(), limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) handleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.db.GetProfile(r.Context(), currentUser(r).ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

type profileRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	FullName string `json:"full_name" validate:"max=100"`
	Bio      string `json:"bio" validate:"max=500"`
	Location string `json:"location" validate:"max=100"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

func (s *Server) handleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		profile := &domain.Profile{
			UserID:   currentUser(r).ID,
			Username: strings.ToLower(req.Username),
			FullName: req.FullName,
			Bio:      req.Bio,
			Location: req.Location,
			ImageURL: req.ImageURL,
		}
		if err := s.db.UpsertProfile(r.Context(), profile); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func (s *Server) handleCheckUsername() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("username")))
		if username == "" {
			s.fail(w, r, domain.ErrInvalidInput)
			return
		}
		free, err := s.db.UsernameAvailable(r.Context(), username, currentUser(r).ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"available": free})
	}
}

func (s *Server) handleGetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.db.GetSettings(r.Context(), currentUser(r).ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

type settingsRequest struct {
	DarkMode         bool `json:"dark_mode"`
	DailyGoal        int  `json:"daily_goal" validate:"gte=1,lte=1000"`
	CardSeconds      int  `json:"card_seconds" validate:"gte=5,lte=300"`
	SpacedRepetition bool `json:"spaced_repetition"`
}

func (s *Server) handleUpdateSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		settings := &domain.Settings{
			UserID:           currentUser(r).ID,
			DarkMode:         req.DarkMode,
			DailyGoal:        req.DailyGoal,
			CardSeconds:      req.CardSeconds,
			SpacedRepetition: req.SpacedRepetition,
		}
		if err := s.db.UpdateSettings(r.Context(), settings); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}
