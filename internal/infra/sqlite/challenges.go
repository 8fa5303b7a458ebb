package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/clickquest/clickquest/internal/domain"
)

// ─── Daily Challenges ───────────────────────────────────────────────────────

type challengeRow struct {
	PlayerID    string `db:"player_id"`
	Date        string `db:"date"`
	Type        string `db:"challenge_type"`
	TargetValue int    `db:"target_value"`
	Description string `db:"description"`
	Reward      string `db:"reward"`
	BonusPoints int64  `db:"bonus_points"`
	Completed   bool   `db:"completed"`
	CreatedAt   int64  `db:"created_at"`
}

// InsertChallengeIfAbsent stores c unless the player already has a challenge
// for c.Date. Returns whether c was the one stored.
func (s *store) InsertChallengeIfAbsent(ctx context.Context, c domain.DailyChallenge) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO daily_challenges
			(player_id, date, challenge_type, target_value, description, reward, bonus_points, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id, date) DO NOTHING`,
		c.PlayerID, c.Date, string(c.Type), c.TargetValue, c.Description, c.Reward,
		c.BonusPoints, c.Completed, c.CreatedAt.Unix())
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// Challenge returns the player's challenge for date.
func (s *store) Challenge(ctx context.Context, playerID, date string) (*domain.DailyChallenge, error) {
	var row challengeRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT player_id, date, challenge_type, target_value, description, reward,
			bonus_points, completed, created_at
		 FROM daily_challenges WHERE player_id = ? AND date = ?`, playerID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.DailyChallenge{
		PlayerID:    row.PlayerID,
		Date:        row.Date,
		Type:        domain.ChallengeType(row.Type),
		TargetValue: row.TargetValue,
		Description: row.Description,
		Reward:      row.Reward,
		BonusPoints: row.BonusPoints,
		Completed:   row.Completed,
		CreatedAt:   unixOrZero(row.CreatedAt),
	}, nil
}

// CompleteChallenge marks a challenge completed. Returns false if it was
// already completed, so the reward is granted at most once.
func (s *store) CompleteChallenge(ctx context.Context, playerID, date string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE daily_challenges SET completed = 1
		 WHERE player_id = ? AND date = ? AND completed = 0`, playerID, date)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
