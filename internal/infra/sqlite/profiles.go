package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clickquest/clickquest/internal/domain"
)

// ─── Profile Repository ─────────────────────────────────────────────────────

type profileRow struct {
	PlayerID                 string `db:"player_id"`
	TotalClicks              int64  `db:"total_clicks"`
	CurrentLevel             int    `db:"current_level"`
	CurrentSkin              string `db:"current_skin"`
	UnlockedSkins            string `db:"unlocked_skins"`
	StreakCount              int    `db:"streak_count"`
	LongestStreak            int    `db:"longest_streak"`
	LastActiveDate           string `db:"last_active_date"`
	LastChallengeDate        string `db:"last_challenge_date"`
	DailyChallengeCompleted  bool   `db:"daily_challenge_completed"`
	DailyChallengesCompleted int    `db:"daily_challenges_completed"`
	CreatedAt                int64  `db:"created_at"`
	UpdatedAt                int64  `db:"updated_at"`
}

const profileColumns = `player_id, total_clicks, current_level, current_skin, unlocked_skins,
	streak_count, longest_streak, last_active_date, last_challenge_date,
	daily_challenge_completed, daily_challenges_completed, created_at, updated_at`

// EnsureProfile creates a level-1 profile for playerID if none exists.
func (s *store) EnsureProfile(ctx context.Context, playerID, defaultSkin string, at time.Time) error {
	skins, err := json.Marshal([]string{defaultSkin})
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO profiles (player_id, current_level, current_skin, unlocked_skins, created_at, updated_at)
		 VALUES (?, 1, ?, ?, ?, ?)`,
		playerID, defaultSkin, string(skins), at.Unix(), at.Unix())
	return err
}

// Profile loads a profile together with its unlocked achievement keys.
func (s *store) Profile(ctx context.Context, playerID string) (*domain.PlayerProfile, error) {
	var row profileRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT `+profileColumns+` FROM profiles WHERE player_id = ?`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	p := &domain.PlayerProfile{
		PlayerID:                 row.PlayerID,
		TotalClicks:              row.TotalClicks,
		CurrentLevel:             row.CurrentLevel,
		CurrentSkin:              row.CurrentSkin,
		StreakCount:              row.StreakCount,
		LongestStreak:            row.LongestStreak,
		LastActiveDate:           row.LastActiveDate,
		LastChallengeDate:        row.LastChallengeDate,
		DailyChallengeCompleted:  row.DailyChallengeCompleted,
		DailyChallengesCompleted: row.DailyChallengesCompleted,
		CreatedAt:                unixOrZero(row.CreatedAt),
		UpdatedAt:                unixOrZero(row.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(row.UnlockedSkins), &p.UnlockedSkins); err != nil {
		return nil, fmt.Errorf("decode unlocked skins for %s: %w", playerID, err)
	}
	if p.Achievements, err = s.AchievementKeys(ctx, playerID); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProfile writes every mutable profile column. Achievements are stored
// separately through UnlockAchievement.
func (s *store) SaveProfile(ctx context.Context, p domain.PlayerProfile, at time.Time) error {
	skins, err := json.Marshal(p.UnlockedSkins)
	if err != nil {
		return err
	}
	result, err := s.q.ExecContext(ctx,
		`UPDATE profiles SET total_clicks = ?, current_level = ?, current_skin = ?, unlocked_skins = ?,
			streak_count = ?, longest_streak = ?, last_active_date = ?, last_challenge_date = ?,
			daily_challenge_completed = ?, daily_challenges_completed = ?, updated_at = ?
		 WHERE player_id = ?`,
		p.TotalClicks, p.CurrentLevel, p.CurrentSkin, string(skins),
		p.StreakCount, p.LongestStreak, p.LastActiveDate, p.LastChallengeDate,
		p.DailyChallengeCompleted, p.DailyChallengesCompleted, at.Unix(),
		p.PlayerID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// ─── Achievements ───────────────────────────────────────────────────────────

// UnlockAchievement records an unlock. Returns false if it already existed.
func (s *store) UnlockAchievement(ctx context.Context, playerID, key string, at time.Time) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO achievements (player_id, key, unlocked_at) VALUES (?, ?, ?)`,
		playerID, key, at.Unix())
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// AchievementKeys returns the keys a player has unlocked, oldest first.
func (s *store) AchievementKeys(ctx context.Context, playerID string) ([]string, error) {
	keys := []string{}
	err := sqlx.SelectContext(ctx, s.q, &keys,
		`SELECT key FROM achievements WHERE player_id = ? ORDER BY unlocked_at ASC, rowid ASC`, playerID)
	return keys, err
}

// ListUnlockedAchievements returns unlocks with their timestamps.
func (s *store) ListUnlockedAchievements(ctx context.Context, playerID string) ([]domain.UnlockedAchievement, error) {
	var rows []struct {
		Key        string `db:"key"`
		UnlockedAt int64  `db:"unlocked_at"`
	}
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT key, unlocked_at FROM achievements WHERE player_id = ? ORDER BY unlocked_at ASC, rowid ASC`, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UnlockedAchievement, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.UnlockedAchievement{Key: r.Key, UnlockedAt: unixOrZero(r.UnlockedAt)})
	}
	return out, nil
}
