package engagement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clickquest/clickquest/internal/domain"
	"github.com/clickquest/clickquest/internal/infra/metrics"
	"github.com/clickquest/clickquest/internal/infra/sqlite"
)

// EvaluateAchievements returns the catalog keys whose rule holds for snap and
// that are not already in current, in catalog order. Callers should treat
// the result as a set. Pure.
func EvaluateAchievements(snap domain.AchievementSnapshot, current []string) []string {
	return evaluate(AllAchievements(), snap, current)
}

func evaluate(defs []domain.AchievementDef, snap domain.AchievementSnapshot, current []string) []string {
	have := make(map[string]struct{}, len(current))
	for _, k := range current {
		have[k] = struct{}{}
	}

	var qualified []string
	for _, def := range defs {
		if _, ok := have[def.Key]; ok {
			continue
		}
		if def.Predicate != nil && def.Predicate(snap) {
			qualified = append(qualified, def.Key)
		}
	}
	return qualified
}

// AchievementService persists achievement unlocks.
type AchievementService struct {
	db          *sqlite.DB
	log         *zap.Logger
	definitions []domain.AchievementDef
}

// NewAchievementService creates an achievement service with all definitions.
func NewAchievementService(db *sqlite.DB, log *zap.Logger) *AchievementService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AchievementService{
		db:          db,
		log:         log.Named("achievements"),
		definitions: AllAchievements(),
	}
}

// CheckAndUnlock evaluates snap for playerID and stores any newly earned
// achievements. Returns the keys this call unlocked. Unlocks are
// insert-if-absent, so racing evaluations never report a key twice.
func (a *AchievementService) CheckAndUnlock(ctx context.Context, playerID string, snap domain.AchievementSnapshot, at time.Time) ([]string, error) {
	current, err := a.db.AchievementKeys(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	var unlocked []string
	for _, key := range evaluate(a.definitions, snap, current) {
		isNew, err := a.db.UnlockAchievement(ctx, playerID, key, at)
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s: %w", key, err)
		}
		if !isNew {
			continue
		}
		unlocked = append(unlocked, key)
		metrics.AchievementsUnlocked.WithLabelValues(key).Inc()
		a.log.Info("achievement unlocked", zap.String("player", playerID), zap.String("key", key))
	}
	return unlocked, nil
}

// ListUnlocked returns every achievement the player has earned.
func (a *AchievementService) ListUnlocked(ctx context.Context, playerID string) ([]domain.UnlockedAchievement, error) {
	return a.db.ListUnlockedAchievements(ctx, playerID)
}

// Definitions returns all achievement definitions (for display).
func (a *AchievementService) Definitions() []domain.AchievementDef {
	return a.definitions
}

// TotalCount returns the number of defined achievements.
func (a *AchievementService) TotalCount() int {
	return len(a.definitions)
}
