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

// averageWindowDays is the history used for weekly and daily averages.
const averageWindowDays = 28

// Sweeper applies inactivity decay to every goal.
//
// Decay is charged proactively. Each sweep deducts only the inactive days
// after Goal.DecayChargedThrough and then advances it to the sweep's date,
// so every calendar day is charged at most once however often sweeps run
// and however the activity history changes in between.
type Sweeper struct {
	db       *sqlite.DB
	locks    *PlayerLocks
	settings Settings
	log      *zap.Logger
}

// NewSweeper creates a decay sweeper.
func NewSweeper(db *sqlite.DB, locks *PlayerLocks, settings Settings, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{db: db, locks: locks, settings: settings, log: log.Named("decay")}
}

// Run sweeps once immediately and then every interval until ctx is done.
// Call in a goroutine.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration, clock domain.Clock) {
	s.runOnce(ctx, clock.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, clock.Now())
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context, now time.Time) {
	reports, err := s.Sweep(ctx, now)
	if err != nil {
		s.log.Error("decay sweep failed", zap.Error(err))
		return
	}
	if len(reports) > 0 {
		s.log.Info("decay sweep applied", zap.Int("goals", len(reports)))
	}
}

// Sweep charges decay to every goal as of now and returns a report for each
// goal that lost points or changed level.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) ([]domain.DecayReport, error) {
	start := time.Now()
	defer func() { metrics.DecaySweepDuration.Observe(time.Since(start).Seconds()) }()

	goals, err := s.db.AllGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var reports []domain.DecayReport
	for _, g := range goals {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.sweepGoal(ctx, g.OwnerID, g.ID, now)
		if err != nil {
			return reports, fmt.Errorf("decay goal %s: %w", g.ID, err)
		}
		if report != nil {
			reports = append(reports, *report)
		}
	}
	return reports, nil
}

func (s *Sweeper) sweepGoal(ctx context.Context, ownerID, goalID string, now time.Time) (*domain.DecayReport, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	now = now.In(s.settings.loc())
	var report *domain.DecayReport
	err := s.db.InTx(ctx, func(tx *sqlite.Tx) error {
		report = nil
		goal, err := tx.Goal(ctx, ownerID, goalID)
		if err != nil {
			return err
		}
		w, d, err := s.averages(ctx, tx, ownerID, goalID, now)
		if err != nil {
			return err
		}
		target := CalculateWeeklyTarget(w, d)

		res, err := s.pending(ctx, tx, goal, w, d, now)
		if err != nil {
			return err
		}
		if res.DaysInactive == 0 && target == goal.WeeklyTarget {
			return nil
		}

		prev := goal.CurrentLevel
		prevPoints := goal.LevelPoints
		goal.LevelPoints = res.NewPoints
		goal.CurrentLevel = LevelFromPoints(goal.LevelPoints)
		if res.DaysInactive > 0 {
			goal.DecayChargedThrough = s.settings.DateKey(now)
		}
		goal.WeeklyTarget = target
		if err := tx.SaveGoalProgress(ctx, *goal, now); err != nil {
			return err
		}

		if res.DaysInactive > 0 {
			report = &domain.DecayReport{
				GoalID:        goal.ID,
				OwnerID:       ownerID,
				DecayResult:   res,
				PreviousLevel: prev,
				NewLevel:      goal.CurrentLevel,
				LeveledDown:   goal.CurrentLevel < prev,
				WeeklyTarget:  target,
				PointsRemoved: prevPoints - res.NewPoints,
			}
		}
		return nil
	})
	if err != nil || report == nil {
		return nil, err
	}

	metrics.DecayPointsLost.Add(float64(report.PointsRemoved))
	if report.LeveledDown {
		metrics.LevelDowns.WithLabelValues("decay").Inc()
	}
	s.log.Info("goal decayed",
		zap.String("player", ownerID),
		zap.String("goal", goalID),
		zap.Int("days_inactive", report.DaysInactive),
		zap.Int64("points_removed", report.PointsRemoved),
		zap.Int("level", report.NewLevel))
	return report, nil
}

// pending returns the decay not yet charged to goal as of now. Only days
// after both the grace period and DecayChargedThrough are counted.
func (s *Sweeper) pending(ctx context.Context, tx *sqlite.Tx, goal *domain.Goal, w, d float64, now time.Time) (domain.DecayResult, error) {
	last, err := tx.LastActiveDate(ctx, goal.OwnerID, goal.ID)
	if err != nil {
		return domain.DecayResult{}, err
	}
	if last == "" {
		return s.settings.Decay.Calculate(nil, goal.LevelPoints, w, d, now), nil
	}
	lastT, err := ParseDate(last, s.settings.loc())
	if err != nil {
		return domain.DecayResult{}, fmt.Errorf("parse last active date: %w", err)
	}
	var charged time.Time
	if goal.DecayChargedThrough != "" {
		if charged, err = ParseDate(goal.DecayChargedThrough, s.settings.loc()); err != nil {
			return domain.DecayResult{}, fmt.Errorf("parse decay charged date: %w", err)
		}
	}
	return s.settings.Decay.Uncharged(lastT, charged, goal.LevelPoints, now), nil
}

// averages returns the goal's weekly and per-active-day click averages over
// the trailing window ending on now's date.
func (s *Sweeper) averages(ctx context.Context, tx *sqlite.Tx, ownerID, goalID string, now time.Time) (weekly, daily float64, err error) {
	to := s.settings.DateKey(now)
	from := addDays(to, -(averageWindowDays - 1))

	sum, err := tx.ClicksBetween(ctx, ownerID, goalID, from, to)
	if err != nil {
		return 0, 0, err
	}
	active, err := tx.ActiveDaysBetween(ctx, ownerID, goalID, from, to)
	if err != nil {
		return 0, 0, err
	}
	weekly = float64(sum) / float64(averageWindowDays/7)
	if active > 0 {
		daily = float64(sum) / float64(active)
	}
	return weekly, daily, nil
}

// Threshold reports a goal's clicks over the last 7 days against its weekly
// target, with a preview of the decay a sweep at now would charge.
func (s *Sweeper) Threshold(ctx context.Context, playerID, goalID string, now time.Time) (*domain.ThresholdReport, error) {
	now = now.In(s.settings.loc())
	var report *domain.ThresholdReport
	err := s.db.InTx(ctx, func(tx *sqlite.Tx) error {
		goal, err := tx.Goal(ctx, playerID, goalID)
		if err != nil {
			return err
		}
		to := s.settings.DateKey(now)
		weekClicks, err := tx.ClicksBetween(ctx, playerID, goalID, addDays(to, -6), to)
		if err != nil {
			return err
		}
		w, d, err := s.averages(ctx, tx, playerID, goalID, now)
		if err != nil {
			return err
		}
		preview, err := s.pending(ctx, tx, goal, w, d, now)
		if err != nil {
			return err
		}
		target := CalculateWeeklyTarget(w, d)
		report = &domain.ThresholdReport{
			GoalID:          goalID,
			WeeklyClicks:    weekClicks,
			WeeklyTarget:    target,
			WeeklyAverage:   w,
			DailyAverage:    d,
			ThresholdResult: CheckActivityThreshold(weekClicks, target),
			Decay:           preview,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
