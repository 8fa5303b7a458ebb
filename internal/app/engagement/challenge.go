package engagement

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/clickquest/clickquest/internal/domain"
	"github.com/clickquest/clickquest/internal/infra/metrics"
	"github.com/clickquest/clickquest/internal/infra/sqlite"
)

// ─── Templates ──────────────────────────────────────────────────────────────

// challengeTemplate builds a challenge for a profile level.
type challengeTemplate struct {
	Type  domain.ChallengeType
	Build func(level int) (target int, description string)
}

// challengeTemplates is the pool daily challenges are drawn from.
var challengeTemplates = []challengeTemplate{
	{
		Type: domain.ChallengeClicks,
		Build: func(level int) (int, string) {
			t := max(10, level*5)
			return t, fmt.Sprintf("Log %d clicks today", t)
		},
	},
	{
		Type: domain.ChallengeStreak,
		Build: func(level int) (int, string) {
			t := max(3, level/2+1)
			return t, fmt.Sprintf("Keep a %d-day streak going", t)
		},
	},
	{
		Type: domain.ChallengeMorning,
		Build: func(level int) (int, string) {
			t := max(5, level*2)
			return t, fmt.Sprintf("Log %d clicks before the morning is over", t)
		},
	},
	{
		Type: domain.ChallengeConsistency,
		Build: func(level int) (int, string) {
			t := min(7, max(3, level/2))
			return t, fmt.Sprintf("Be active on %d of the last 7 days", t)
		},
	},
}

// BonusPoints returns the goal points a challenge with target awards.
func BonusPoints(target int) int64 {
	return int64(target) * 2
}

// GenerateDailyChallenge picks a template uniformly at random and sizes it
// for level. rng may be nil to use the global source. The choice is not
// derived from date; callers persist one challenge per date.
func GenerateDailyChallenge(date string, level int, rng *rand.Rand) domain.DailyChallenge {
	if level < 1 {
		level = 1
	}
	var i int
	if rng != nil {
		i = rng.IntN(len(challengeTemplates))
	} else {
		i = rand.IntN(len(challengeTemplates))
	}
	return challengeFromTemplate(challengeTemplates[i], date, level)
}

func challengeFromTemplate(t challengeTemplate, date string, level int) domain.DailyChallenge {
	target, desc := t.Build(level)
	bonus := BonusPoints(target)
	return domain.DailyChallenge{
		Date:        date,
		Type:        t.Type,
		TargetValue: target,
		Description: desc,
		Reward:      fmt.Sprintf("%d bonus points for your active goal", bonus),
		BonusPoints: bonus,
	}
}

// ─── Service ────────────────────────────────────────────────────────────────

// ChallengeService issues and completes daily challenges.
type ChallengeService struct {
	db           *sqlite.DB
	achievements *AchievementService
	locks        *PlayerLocks
	settings     Settings
	log          *zap.Logger
	group        singleflight.Group

	// pick chooses a template; nil uses GenerateDailyChallenge's global source.
	pick func(date string, level int) domain.DailyChallenge
}

// NewChallengeService creates a challenge service.
func NewChallengeService(db *sqlite.DB, achievements *AchievementService, locks *PlayerLocks, settings Settings, log *zap.Logger) *ChallengeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChallengeService{
		db:           db,
		achievements: achievements,
		locks:        locks,
		settings:     settings,
		log:          log.Named("challenges"),
	}
}

// WithRand makes template selection draw from rng.
func (s *ChallengeService) WithRand(rng *rand.Rand) *ChallengeService {
	src := &lockedRand{r: rng}
	s.pick = func(date string, level int) domain.DailyChallenge {
		return challengeFromTemplate(challengeTemplates[src.IntN(len(challengeTemplates))], date, level)
	}
	return s
}

// Today returns the player's challenge for now's date, creating it if the
// player has none. Concurrent callers for the same player and date all get
// the single stored challenge. A new date clears the profile's completed flag.
func (s *ChallengeService) Today(ctx context.Context, playerID string, now time.Time) (*domain.DailyChallenge, error) {
	date := s.settings.DateKey(now)
	v, err, _ := s.group.Do(playerID+"|"+date, func() (any, error) {
		return s.fetchOrCreate(ctx, playerID, date, now)
	})
	if err != nil {
		return nil, err
	}
	c := *v.(*domain.DailyChallenge)
	return &c, nil
}

func (s *ChallengeService) fetchOrCreate(ctx context.Context, playerID, date string, now time.Time) (*domain.DailyChallenge, error) {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	var (
		out     *domain.DailyChallenge
		created bool
	)
	err := s.db.InTx(ctx, func(tx *sqlite.Tx) error {
		created = false
		profile, err := tx.Profile(ctx, playerID)
		if err != nil {
			return err
		}

		out, err = tx.Challenge(ctx, playerID, date)
		if errors.Is(err, domain.ErrChallengeNotFound) {
			c := s.generate(date, profile.CurrentLevel)
			c.PlayerID = playerID
			c.CreatedAt = now
			if created, err = tx.InsertChallengeIfAbsent(ctx, c); err != nil {
				return fmt.Errorf("insert challenge: %w", err)
			}
			out, err = tx.Challenge(ctx, playerID, date)
		}
		if err != nil {
			return err
		}

		if profile.LastChallengeDate != date {
			profile.LastChallengeDate = date
			profile.DailyChallengeCompleted = out.Completed
			return tx.SaveProfile(ctx, *profile, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.ChallengesGenerated.WithLabelValues(string(out.Type)).Inc()
		s.log.Info("daily challenge issued",
			zap.String("player", playerID),
			zap.String("date", date),
			zap.String("type", string(out.Type)),
			zap.Int("target", out.TargetValue))
	}
	return out, nil
}

func (s *ChallengeService) generate(date string, level int) domain.DailyChallenge {
	if s.pick != nil {
		return s.pick(date, level)
	}
	return GenerateDailyChallenge(date, level, nil)
}

// Evaluate measures progress on today's challenge and completes it once the
// target is reached. Completion is recorded once: the profile counters move,
// and the bonus points go to the active goal with its level recomputed, all
// in one transaction. Without an active goal the bonus is forfeited.
func (s *ChallengeService) Evaluate(ctx context.Context, playerID string, now time.Time) (*domain.ChallengeProgress, error) {
	if _, err := s.Today(ctx, playerID, now); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(playerID)
	defer unlock()

	date := s.settings.DateKey(now)
	var (
		out  domain.ChallengeProgress
		snap domain.AchievementSnapshot
	)
	err := s.db.InTx(ctx, func(tx *sqlite.Tx) error {
		c, err := tx.Challenge(ctx, playerID, date)
		if err != nil {
			return err
		}
		profile, err := tx.Profile(ctx, playerID)
		if err != nil {
			return err
		}
		progress, err := s.progress(ctx, tx, profile, c, now)
		if err != nil {
			return fmt.Errorf("challenge progress: %w", err)
		}
		out = domain.ChallengeProgress{Challenge: *c, Progress: progress}

		if c.Completed || progress < c.TargetValue {
			return nil
		}
		ok, err := tx.CompleteChallenge(ctx, playerID, date)
		if err != nil || !ok {
			return err
		}
		out.JustCompleted = true
		out.Challenge.Completed = true

		profile.LastChallengeDate = date
		profile.DailyChallengeCompleted = true
		profile.DailyChallengesCompleted++
		if err := tx.SaveProfile(ctx, *profile, now); err != nil {
			return err
		}

		goal, err := tx.ActiveGoal(ctx, playerID)
		if err != nil {
			return err
		}
		if goal != nil {
			prev := goal.CurrentLevel
			goal.LevelPoints += c.BonusPoints
			goal.CurrentLevel = LevelFromPoints(goal.LevelPoints)
			if err := tx.SaveGoalProgress(ctx, *goal, now); err != nil {
				return err
			}
			out.BonusGoalID = goal.ID
			out.NewGoalLevel = goal.CurrentLevel
			out.LeveledUp = goal.CurrentLevel > prev
		}

		todayClicks, err := tx.Clicks(ctx, playerID, domain.OverallScope, date)
		if err != nil {
			return err
		}
		snap = s.settings.snapshot(profile, todayClicks, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.JustCompleted {
		metrics.ChallengesCompleted.WithLabelValues(string(out.Challenge.Type)).Inc()
		if out.LeveledUp {
			metrics.LevelUps.Inc()
		}
		s.log.Info("daily challenge completed",
			zap.String("player", playerID),
			zap.String("type", string(out.Challenge.Type)),
			zap.Int64("bonus", out.Challenge.BonusPoints))

		if s.achievements != nil {
			unlocked, err := s.achievements.CheckAndUnlock(ctx, playerID, snap, now)
			if err != nil {
				s.log.Warn("achievement check failed", zap.String("player", playerID), zap.Error(err))
			}
			out.Achievements = unlocked
		}
	}
	return &out, nil
}

// progress measures the player's standing on challenge c as of now.
func (s *ChallengeService) progress(ctx context.Context, tx *sqlite.Tx, p *domain.PlayerProfile, c *domain.DailyChallenge, now time.Time) (int, error) {
	switch c.Type {
	case domain.ChallengeClicks:
		n, err := tx.Clicks(ctx, p.PlayerID, domain.OverallScope, c.Date)
		return int(n), err

	case domain.ChallengeStreak:
		// Only a streak that includes today counts.
		if p.LastActiveDate != c.Date {
			return 0, nil
		}
		return p.StreakCount, nil

	case domain.ChallengeMorning:
		loc := s.settings.loc()
		day, err := ParseDate(c.Date, loc)
		if err != nil {
			return 0, err
		}
		y, m, d := day.Date()
		cutoff := time.Date(y, m, d, s.settings.MorningCutoffHour, 0, 0, 0, loc)
		n, err := tx.NetClicksBetween(ctx, p.PlayerID, day, cutoff)
		return int(n), err

	case domain.ChallengeConsistency:
		return tx.ActiveDaysBetween(ctx, p.PlayerID, domain.OverallScope, addDays(c.Date, -6), c.Date)
	}
	return 0, fmt.Errorf("unknown challenge type %q", c.Type)
}

// lockedRand makes a *rand.Rand safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
