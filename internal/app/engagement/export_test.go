package engagement

import "github.com/clickquest/clickquest/internal/domain"

// ForceTemplate makes the service always issue challenges of type t.
func (s *ChallengeService) ForceTemplate(t domain.ChallengeType) {
	s.pick = func(date string, level int) domain.DailyChallenge {
		for _, tmpl := range challengeTemplates {
			if tmpl.Type == t {
				return challengeFromTemplate(tmpl, date, level)
			}
		}
		panic("unknown challenge template " + string(t))
	}
}

// CalendarDays exposes calendarDays to the external tests.
var CalendarDays = calendarDays
