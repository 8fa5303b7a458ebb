package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clickquest/clickquest/internal/domain"
)

// ─── Daily Counters ─────────────────────────────────────────────────────────
// Dates are YYYY-MM-DD strings, so lexical range comparisons are date ranges.

// AddClicks applies delta to the (player, goal, date) counter and returns
// the new value. Positive deltas create the row lazily; negative deltas are
// clamped at zero and never create a row.
func (s *store) AddClicks(ctx context.Context, playerID, goalID, date string, delta int64) (int64, error) {
	var err error
	if delta > 0 {
		_, err = s.q.ExecContext(ctx,
			`INSERT INTO daily_counters (player_id, goal_id, date, clicks) VALUES (?, ?, ?, ?)
			 ON CONFLICT(player_id, goal_id, date) DO UPDATE SET clicks = clicks + excluded.clicks`,
			playerID, goalID, date, delta)
	} else if delta < 0 {
		_, err = s.q.ExecContext(ctx,
			`UPDATE daily_counters SET clicks = MAX(clicks + ?, 0)
			 WHERE player_id = ? AND goal_id = ? AND date = ?`,
			delta, playerID, goalID, date)
	}
	if err != nil {
		return 0, err
	}
	return s.Clicks(ctx, playerID, goalID, date)
}

// Clicks returns one counter's value, 0 if the row does not exist.
func (s *store) Clicks(ctx context.Context, playerID, goalID, date string) (int64, error) {
	var clicks int64
	err := sqlx.GetContext(ctx, s.q, &clicks,
		`SELECT clicks FROM daily_counters WHERE player_id = ? AND goal_id = ? AND date = ?`,
		playerID, goalID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return clicks, err
}

// ClicksBetween sums a goal's counters over the inclusive date range.
func (s *store) ClicksBetween(ctx context.Context, playerID, goalID, from, to string) (int64, error) {
	var total int64
	err := sqlx.GetContext(ctx, s.q, &total,
		`SELECT COALESCE(SUM(clicks), 0) FROM daily_counters
		 WHERE player_id = ? AND goal_id = ? AND date >= ? AND date <= ?`,
		playerID, goalID, from, to)
	return total, err
}

// ActiveDaysBetween counts dates in the inclusive range with clicks > 0.
func (s *store) ActiveDaysBetween(ctx context.Context, playerID, goalID, from, to string) (int, error) {
	var days int
	err := sqlx.GetContext(ctx, s.q, &days,
		`SELECT COUNT(*) FROM daily_counters
		 WHERE player_id = ? AND goal_id = ? AND date >= ? AND date <= ? AND clicks > 0`,
		playerID, goalID, from, to)
	return days, err
}

// LastActiveDate returns the latest date with clicks > 0, or "" if none.
func (s *store) LastActiveDate(ctx context.Context, playerID, goalID string) (string, error) {
	var date sql.NullString
	err := sqlx.GetContext(ctx, s.q, &date,
		`SELECT MAX(date) FROM daily_counters WHERE player_id = ? AND goal_id = ? AND clicks > 0`,
		playerID, goalID)
	if err != nil {
		return "", err
	}
	return date.String, nil
}

// ActiveDates lists the dates with clicks > 0, newest first.
func (s *store) ActiveDates(ctx context.Context, playerID, goalID string) ([]string, error) {
	var dates []string
	err := sqlx.SelectContext(ctx, s.q, &dates,
		`SELECT date FROM daily_counters WHERE player_id = ? AND goal_id = ? AND clicks > 0 ORDER BY date DESC`,
		playerID, goalID)
	return dates, err
}

// Counters lists a goal's counters over the inclusive range, oldest first.
func (s *store) Counters(ctx context.Context, playerID, goalID, from, to string) ([]domain.DailyCounter, error) {
	var counters []domain.DailyCounter
	rows, err := s.q.QueryxContext(ctx,
		`SELECT player_id, goal_id, date, clicks FROM daily_counters
		 WHERE player_id = ? AND goal_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		playerID, goalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.DailyCounter
		if err := rows.Scan(&c.PlayerID, &c.GoalID, &c.Date, &c.Clicks); err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

// ─── Activity Events ────────────────────────────────────────────────────────

// AppendEvent adds an entry to the activity log.
func (s *store) AppendEvent(ctx context.Context, e domain.ActivityEvent) (int64, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO activity_events (player_id, goal_id, delta, occurred_at) VALUES (?, ?, ?, ?)`,
		e.PlayerID, e.GoalID, e.Delta, e.OccurredAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NetClicksBetween sums event deltas with from <= occurred_at < to.
// The result is floored at zero.
func (s *store) NetClicksBetween(ctx context.Context, playerID string, from, to time.Time) (int64, error) {
	var total int64
	err := sqlx.GetContext(ctx, s.q, &total,
		`SELECT COALESCE(SUM(delta), 0) FROM activity_events
		 WHERE player_id = ? AND occurred_at >= ? AND occurred_at < ?`,
		playerID, from.Unix(), to.Unix())
	if err != nil {
		return 0, err
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}

// RecentEvents returns the newest events of a player.
func (s *store) RecentEvents(ctx context.Context, playerID string, limit int) ([]domain.ActivityEvent, error) {
	rows, err := s.q.QueryxContext(ctx,
		`SELECT id, player_id, goal_id, delta, occurred_at FROM activity_events
		 WHERE player_id = ? ORDER BY id DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.ActivityEvent
	for rows.Next() {
		var e domain.ActivityEvent
		var at int64
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.GoalID, &e.Delta, &at); err != nil {
			return nil, err
		}
		e.OccurredAt = time.Unix(at, 0)
		events = append(events, e)
	}
	return events, rows.Err()
}
