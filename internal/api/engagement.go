package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
)

// ─── Goals ──────────────────────────────────────────────────────────────────

type createGoalRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	WeeklyTarget float64 `json:"weekly_target"`
}

// goalView adds level progress to a stored goal.
type goalView struct {
	domain.Goal
	PointsToNextLevel int64   `json:"points_to_next_level"`
	LevelProgressPct  float64 `json:"level_progress_pct"`
}

func newGoalView(g domain.Goal) goalView {
	return goalView{
		Goal:              g,
		PointsToNextLevel: engagement.PointsToNextLevel(g.LevelPoints),
		LevelProgressPct:  engagement.LevelProgressPct(g.LevelPoints),
	}
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	goal, err := s.recorder.CreateGoal(r.Context(), chi.URLParam(r, "player"), domain.Goal{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		WeeklyTarget: req.WeeklyTarget,
	}, s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to create goal")
		return
	}
	writeJSON(w, http.StatusCreated, newGoalView(*goal))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.recorder.ListGoals(r.Context(), chi.URLParam(r, "player"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list goals")
		return
	}

	out := make([]goalView, len(goals))
	for i, g := range goals {
		out[i] = newGoalView(g)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"goals": out,
	})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.recorder.Goal(r.Context(), chi.URLParam(r, "player"), chi.URLParam(r, "goal"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load goal")
		return
	}
	writeJSON(w, http.StatusOK, newGoalView(*goal))
}

func (s *Server) handleActivateGoal(w http.ResponseWriter, r *http.Request) {
	player, goalID := chi.URLParam(r, "player"), chi.URLParam(r, "goal")
	if err := s.recorder.SetActiveGoal(r.Context(), player, goalID, s.clock.Now()); err != nil {
		s.writeServiceError(w, r, err, "failed to set active goal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"active_goal_id": goalID,
	})
}

// ─── Activity ───────────────────────────────────────────────────────────────

func (s *Server) handleActivity(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.recorder.RecordGoalActivity(r.Context(),
			chi.URLParam(r, "player"), chi.URLParam(r, "goal"), s.clock.Now(), delta)
		if err != nil {
			s.writeServiceError(w, r, err, "failed to record activity")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleThreshold(w http.ResponseWriter, r *http.Request) {
	report, err := s.sweeper.Threshold(r.Context(), chi.URLParam(r, "player"), chi.URLParam(r, "goal"), s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to compute threshold")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ─── Profile ────────────────────────────────────────────────────────────────

type profileResponse struct {
	Profile         domain.PlayerProfile         `json:"profile"`
	Level           domain.ProgressionLevel      `json:"level"`
	ClicksToNext    int64                        `json:"clicks_to_next_level"`
	LiveStreak      int                          `json:"live_streak"`
	Unlocked        []domain.UnlockedAchievement `json:"unlocked_achievements"`
	AchievementsMax int                          `json:"achievements_total"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	player := chi.URLParam(r, "player")

	p, err := s.recorder.Profile(ctx, player)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load profile")
		return
	}
	unlocked, err := s.achievements.ListUnlocked(ctx, player)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load achievements")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Profile:         *p,
		Level:           engagement.ProgressionLevel(p.CurrentLevel),
		ClicksToNext:    engagement.ClicksToNextProfileLevel(p.TotalClicks),
		LiveStreak:      engagement.LiveStreak(*p, s.recorder.DateKey(s.clock.Now())),
		Unlocked:        unlocked,
		AchievementsMax: s.achievements.TotalCount(),
	})
}

// ─── Daily Challenge ────────────────────────────────────────────────────────

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.challenges.Today(r.Context(), chi.URLParam(r, "player"), s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load daily challenge")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleEvaluateChallenge(w http.ResponseWriter, r *http.Request) {
	progress, err := s.challenges.Evaluate(r.Context(), chi.URLParam(r, "player"), s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to evaluate daily challenge")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": progress,
		"pct":      progress.Pct(),
	})
}

// ─── Catalog & Decay ────────────────────────────────────────────────────────

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"levels":       engagement.ProgressionLevels,
		"skins":        engagement.Skins,
		"achievements": s.achievements.Definitions(),
	})
}

func (s *Server) handleDecaySweep(w http.ResponseWriter, r *http.Request) {
	reports, err := s.sweeper.Sweep(r.Context(), s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err, "decay sweep failed")
		return
	}
	if reports == nil {
		reports = []domain.DecayReport{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}
