package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clickquest/clickquest/internal/domain"
)

// ─── Goal Repository ────────────────────────────────────────────────────────

type goalRow struct {
	ID           string  `db:"id"`
	OwnerID      string  `db:"owner_id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	Category     string  `db:"category"`
	IsActive     bool    `db:"is_active"`
	TotalClicks  int64   `db:"total_clicks"`
	CurrentLevel int     `db:"current_level"`
	LevelPoints  int64   `db:"level_points"`
	WeeklyTarget float64 `db:"weekly_target"`
	CreatedAt    int64   `db:"created_at"`
	UpdatedAt    int64   `db:"updated_at"`

	DecayChargedThrough string `db:"decay_charged_through"`
}

func (r goalRow) toDomain() domain.Goal {
	return domain.Goal{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		IsActive:     r.IsActive,
		TotalClicks:  r.TotalClicks,
		CurrentLevel: r.CurrentLevel,
		LevelPoints:  r.LevelPoints,
		WeeklyTarget: r.WeeklyTarget,
		CreatedAt:    unixOrZero(r.CreatedAt),
		UpdatedAt:    unixOrZero(r.UpdatedAt),

		DecayChargedThrough: r.DecayChargedThrough,
	}
}

const goalColumns = `id, owner_id, name, description, category, is_active, total_clicks,
	current_level, level_points, weekly_target, decay_charged_through, created_at, updated_at`

// InsertGoal creates a new goal record.
func (s *store) InsertGoal(ctx context.Context, g domain.Goal) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.Description, g.Category, g.IsActive,
		g.TotalClicks, g.CurrentLevel, g.LevelPoints, g.WeeklyTarget, g.DecayChargedThrough,
		g.CreatedAt.Unix(), g.UpdatedAt.Unix(),
	)
	return err
}

// Goal retrieves one goal owned by ownerID.
func (s *store) Goal(ctx context.Context, ownerID, goalID string) (*domain.Goal, error) {
	var row goalRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND owner_id = ?`, goalID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	g := row.toDomain()
	return &g, nil
}

// ActiveGoal returns the owner's active goal, or nil if none is active.
func (s *store) ActiveGoal(ctx context.Context, ownerID string) (*domain.Goal, error) {
	var row goalRow
	err := sqlx.GetContext(ctx, s.q, &row,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ? AND is_active = 1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g := row.toDomain()
	return &g, nil
}

// ListGoals returns the owner's goals, active first then most recently updated.
func (s *store) ListGoals(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	var rows []goalRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ?
		 ORDER BY is_active DESC, updated_at DESC, name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return goalsFromRows(rows), nil
}

// AllGoals returns every goal of every owner, for decay sweeps.
func (s *store) AllGoals(ctx context.Context) ([]domain.Goal, error) {
	var rows []goalRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT `+goalColumns+` FROM goals ORDER BY owner_id, id`)
	if err != nil {
		return nil, err
	}
	return goalsFromRows(rows), nil
}

// SaveGoalProgress writes the mutable progress fields of a goal.
// LevelPoints and CurrentLevel are always written together.
func (s *store) SaveGoalProgress(ctx context.Context, g domain.Goal, at time.Time) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE goals SET total_clicks = ?, level_points = ?, current_level = ?,
			weekly_target = ?, decay_charged_through = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		g.TotalClicks, g.LevelPoints, g.CurrentLevel, g.WeeklyTarget, g.DecayChargedThrough,
		at.Unix(), g.ID, g.OwnerID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

// DeactivateGoals clears the active flag on all of the owner's goals.
func (s *store) DeactivateGoals(ctx context.Context, ownerID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE goals SET is_active = 0 WHERE owner_id = ? AND is_active = 1`, ownerID)
	return err
}

// ActivateGoal sets the active flag on one goal. Callers deactivate the
// owner's other goals first in the same transaction.
func (s *store) ActivateGoal(ctx context.Context, ownerID, goalID string, at time.Time) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE goals SET is_active = 1, updated_at = ? WHERE id = ? AND owner_id = ?`,
		at.Unix(), goalID, ownerID)
	if err != nil {
		return fmt.Errorf("activate goal: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

// OwnersWithMultipleActiveGoals lists owners violating the single-active rule.
func (s *store) OwnersWithMultipleActiveGoals(ctx context.Context) ([]string, error) {
	var owners []string
	err := sqlx.SelectContext(ctx, s.q, &owners,
		`SELECT owner_id FROM goals WHERE is_active = 1
		 GROUP BY owner_id HAVING COUNT(*) > 1`)
	return owners, err
}

func goalsFromRows(rows []goalRow) []domain.Goal {
	goals := make([]domain.Goal, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, r.toDomain())
	}
	return goals
}
