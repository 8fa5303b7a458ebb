package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clickquest/clickquest/internal/domain"
	"github.com/clickquest/clickquest/internal/infra/metrics"
	"github.com/clickquest/clickquest/internal/infra/sqlite"
)

// Recorder applies activity events to goals, counters and profiles.
// Every event for a player runs under that player's lock and inside one
// transaction, so an event is either fully applied or not at all.
type Recorder struct {
	db           *sqlite.DB
	achievements *AchievementService
	locks        *PlayerLocks
	settings     Settings
	validate     *validator.Validate
	log          *zap.Logger
}

// NewRecorder creates a recorder. locks must be shared with every other
// service that mutates the same players.
func NewRecorder(db *sqlite.DB, achievements *AchievementService, locks *PlayerLocks, settings Settings, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		db:           db,
		achievements: achievements,
		locks:        locks,
		settings:     settings,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          log.Named("recorder"),
	}
}

// ─── Profiles & Goals ───────────────────────────────────────────────────────

// EnsureProfile creates the player's profile on first use.
func (r *Recorder) EnsureProfile(ctx context.Context, playerID string, at time.Time) error {
	if strings.TrimSpace(playerID) == "" {
		return domain.ErrInvalidPlayer
	}
	if err := r.db.EnsureProfile(ctx, playerID, DefaultSkin, at); err != nil {
		return fmt.Errorf("ensure profile %s: %w", playerID, err)
	}
	return nil
}

// Profile returns the player's profile.
func (r *Recorder) Profile(ctx context.Context, playerID string) (*domain.PlayerProfile, error) {
	return r.db.Profile(ctx, playerID)
}

// DateKey returns the calendar date of t in the recorder's location.
func (r *Recorder) DateKey(t time.Time) string {
	return r.settings.DateKey(t)
}

// CreateGoal validates and stores a new goal for playerID. The player's
// first goal, or any goal created while none is active, becomes active.
func (r *Recorder) CreateGoal(ctx context.Context, playerID string, in domain.Goal, at time.Time) (*domain.Goal, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, domain.ErrInvalidPlayer
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := r.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGoal, err)
	}

	goal := domain.Goal{
		ID:           uuid.NewString(),
		OwnerID:      playerID,
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		CurrentLevel: LevelFromPoints(0),
		WeeklyTarget: in.WeeklyTarget,
		CreatedAt:    at,
		UpdatedAt:    at,
	}

	unlock := r.locks.Lock(playerID)
	defer unlock()

	err := r.db.InTx(ctx, func(tx *sqlite.Tx) error {
		if err := tx.EnsureProfile(ctx, playerID, DefaultSkin, at); err != nil {
			return err
		}
		active, err := tx.ActiveGoal(ctx, playerID)
		if err != nil {
			return err
		}
		goal.IsActive = active == nil
		return tx.InsertGoal(ctx, goal)
	})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	r.log.Info("goal created",
		zap.String("player", playerID),
		zap.String("goal", goal.ID),
		zap.Bool("active", goal.IsActive))
	return &goal, nil
}

// Goal returns one of the player's goals.
func (r *Recorder) Goal(ctx context.Context, playerID, goalID string) (*domain.Goal, error) {
	return r.db.Goal(ctx, playerID, goalID)
}

// ListGoals returns the player's goals, active first.
func (r *Recorder) ListGoals(ctx context.Context, playerID string) ([]domain.Goal, error) {
	return r.db.ListGoals(ctx, playerID)
}

// SetActiveGoal makes goalID the player's only active goal. Deactivation and
// activation commit together; an unknown goal leaves the previous active
// goal untouched.
func (r *Recorder) SetActiveGoal(ctx context.Context, playerID, goalID string, at time.Time) error {
	unlock := r.locks.Lock(playerID)
	defer unlock()

	err := r.db.InTx(ctx, func(tx *sqlite.Tx) error {
		if _, err := tx.Goal(ctx, playerID, goalID); err != nil {
			return err
		}
		if err := tx.DeactivateGoals(ctx, playerID); err != nil {
			return err
		}
		return tx.ActivateGoal(ctx, playerID, goalID, at)
	})
	if err != nil {
		if domain.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("set active goal: %w", err)
	}

	r.log.Debug("goal activated", zap.String("player", playerID), zap.String("goal", goalID))
	return nil
}

// ─── Activity ───────────────────────────────────────────────────────────────

// RecordGoalActivity applies one click (delta +1) or unclick (delta -1) to
// goalID at the given instant. The calendar date of at in the configured
// location selects the day counters.
//
// An unclick on a day whose goal counter is already 0 changes nothing and
// still reports success. Achievements are evaluated after the event commits.
func (r *Recorder) RecordGoalActivity(ctx context.Context, playerID, goalID string, at time.Time, delta int) (*domain.ActivityResult, error) {
	if delta != 1 && delta != -1 {
		return nil, domain.ErrInvalidDelta
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, domain.ErrInvalidPlayer
	}

	start := time.Now()
	unlock := r.locks.Lock(playerID)
	defer unlock()

	date := r.settings.DateKey(at)
	var (
		res     domain.ActivityResult
		snap    domain.AchievementSnapshot
		changed bool
	)

	err := r.db.InTx(ctx, func(tx *sqlite.Tx) error {
		// Reset on every attempt; a retried transaction starts over.
		res = domain.ActivityResult{GoalID: goalID, Date: date}
		changed = false

		goal, err := tx.Goal(ctx, playerID, goalID)
		if err != nil {
			return err
		}
		profile, err := tx.Profile(ctx, playerID)
		if err != nil {
			return err
		}
		res.PreviousLevel = goal.CurrentLevel

		if delta > 0 {
			err = r.increment(ctx, tx, goal, profile, date, &res)
			changed = err == nil
		} else {
			changed, err = r.decrement(ctx, tx, goal, profile, date, &res)
		}
		if err != nil || !changed {
			return err
		}

		if err := tx.SaveGoalProgress(ctx, *goal, at); err != nil {
			return fmt.Errorf("save goal: %w", err)
		}
		if err := tx.SaveProfile(ctx, *profile, at); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		if _, err := tx.AppendEvent(ctx, domain.ActivityEvent{
			PlayerID: playerID, GoalID: goalID, Delta: delta, OccurredAt: at,
		}); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		todayClicks, err := tx.Clicks(ctx, playerID, domain.OverallScope, date)
		if err != nil {
			return err
		}
		snap = r.settings.snapshot(profile, todayClicks, at)
		return nil
	})
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, err
		}
		r.log.Error("record activity failed",
			zap.String("player", playerID),
			zap.String("goal", goalID),
			zap.Int("delta", delta),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrActivityNotRecorded, err)
	}

	res.Success = true
	if !changed {
		return &res, nil
	}

	r.observe(delta, &res, start)

	if r.achievements != nil {
		unlocked, err := r.achievements.CheckAndUnlock(ctx, playerID, snap, at)
		if err != nil {
			// The event is committed; the next event re-evaluates.
			r.log.Warn("achievement check failed", zap.String("player", playerID), zap.Error(err))
		}
		res.Achievements = unlocked
	}
	return &res, nil
}

// increment adds one click to the overall and goal day counters, the goal
// totals and the profile totals.
func (r *Recorder) increment(ctx context.Context, tx *sqlite.Tx, goal *domain.Goal, profile *domain.PlayerProfile, date string, res *domain.ActivityResult) error {
	if _, err := tx.AddClicks(ctx, goal.OwnerID, domain.OverallScope, date, 1); err != nil {
		return fmt.Errorf("overall counter: %w", err)
	}
	n, err := tx.AddClicks(ctx, goal.OwnerID, goal.ID, date, 1)
	if err != nil {
		return fmt.Errorf("goal counter: %w", err)
	}

	goal.TotalClicks++
	goal.LevelPoints++
	goal.CurrentLevel = LevelFromPoints(goal.LevelPoints)

	profile.TotalClicks++
	profile.CurrentLevel = LevelFromCumulativeClicks(profile.TotalClicks)
	res.NewSkins = unlockSkins(profile)
	AdvanceStreak(profile, date)

	res.NewGoalClicks = n
	res.NewLevel = goal.CurrentLevel
	res.LeveledUp = goal.CurrentLevel > res.PreviousLevel
	res.ProfileLevel = profile.CurrentLevel
	return nil
}

// decrement removes one click. Reports false when the goal's counter for
// date is already 0, in which case nothing is written. A day left with no
// clicks no longer counts toward the streak.
func (r *Recorder) decrement(ctx context.Context, tx *sqlite.Tx, goal *domain.Goal, profile *domain.PlayerProfile, date string, res *domain.ActivityResult) (bool, error) {
	current, err := tx.Clicks(ctx, goal.OwnerID, goal.ID, date)
	if err != nil {
		return false, fmt.Errorf("goal counter: %w", err)
	}
	res.NewLevel = goal.CurrentLevel
	res.ProfileLevel = profile.CurrentLevel
	if current == 0 {
		return false, nil
	}

	n, err := tx.AddClicks(ctx, goal.OwnerID, goal.ID, date, -1)
	if err != nil {
		return false, fmt.Errorf("goal counter: %w", err)
	}
	overall, err := tx.AddClicks(ctx, goal.OwnerID, domain.OverallScope, date, -1)
	if err != nil {
		return false, fmt.Errorf("overall counter: %w", err)
	}
	if overall == 0 {
		dates, err := tx.ActiveDates(ctx, goal.OwnerID, domain.OverallScope)
		if err != nil {
			return false, fmt.Errorf("active dates: %w", err)
		}
		RebuildStreak(profile, dates)
	}

	goal.TotalClicks = floorZero(goal.TotalClicks - 1)
	goal.LevelPoints = floorZero(goal.LevelPoints - 1)
	goal.CurrentLevel = LevelFromPoints(goal.LevelPoints)

	profile.TotalClicks = floorZero(profile.TotalClicks - 1)
	profile.CurrentLevel = LevelFromCumulativeClicks(profile.TotalClicks)

	res.NewGoalClicks = n
	res.NewLevel = goal.CurrentLevel
	res.LeveledDown = goal.CurrentLevel < res.PreviousLevel
	res.ProfileLevel = profile.CurrentLevel
	return true, nil
}

func (r *Recorder) observe(delta int, res *domain.ActivityResult, start time.Time) {
	direction := "increment"
	if delta < 0 {
		direction = "decrement"
	}
	metrics.ClicksRecorded.WithLabelValues(direction).Inc()
	metrics.RecordLatency.Observe(time.Since(start).Seconds())
	if res.LeveledUp {
		metrics.LevelUps.Inc()
	}
	if res.LeveledDown {
		metrics.LevelDowns.WithLabelValues("unclick").Inc()
	}
}

func floorZero(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// IsInputError reports whether err was caused by invalid caller input.
func IsInputError(err error) bool {
	return errors.Is(err, domain.ErrInvalidDelta) ||
		errors.Is(err, domain.ErrInvalidGoal) ||
		errors.Is(err, domain.ErrInvalidPlayer)
}
