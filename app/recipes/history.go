package recipes

import (
	"time"
)

// Recency buckets for how long ago a recipe was last cooked.
const (
	RecencyNever   = "never"
	RecencyFresh   = "fresh"
	RecencyAging   = "aging"
	RecencyOverdue = "overdue"
)

const (
	freshMaxDays = 7
	agingMaxDays = 21
)

// CookHistory summarizes a recipe's past schedule entries. Only days
// strictly before today count as cooked; today's plan is still a plan.
type CookHistory struct {
	LastCookedDate  string `json:"lastCookedDate,omitempty"`
	DaysSince       *int   `json:"daysSince,omitempty"`
	Recency         string `json:"recency"`
	CookedLastMonth int    `json:"cookedLastMonth"`
	CookedLastYear  int    `json:"cookedLastYear"`
	CookedAllTime   int    `json:"cookedAllTime"`
}

// History derives a recipe's cook history from its schedule entries.
func (s *Service) History(recipeID string) (*CookHistory, error) {
	if _, err := s.GetRecipe(recipeID); err != nil {
		return nil, err
	}

	now := s.now()
	today := now.Format(dateLayout)

	lastCooked, err := s.scheduleRepo.LatestCookedDate(recipeID, today)
	if err != nil {
		return nil, err
	}

	history := &CookHistory{Recency: RecencyNever}

	if lastCooked != "" {
		days := daysBetween(lastCooked, today)
		history.LastCookedDate = lastCooked
		history.DaysSince = &days
		history.Recency = classifyRecency(days)
	}

	monthAgo := now.AddDate(0, -1, 0).Format(dateLayout)
	yearAgo := now.AddDate(-1, 0, 0).Format(dateLayout)

	if history.CookedLastMonth, err = s.scheduleRepo.CountCookedSince(recipeID, monthAgo, today); err != nil {
		return nil, err
	}
	if history.CookedLastYear, err = s.scheduleRepo.CountCookedSince(recipeID, yearAgo, today); err != nil {
		return nil, err
	}
	if history.CookedAllTime, err = s.scheduleRepo.CountCookedSince(recipeID, "0001-01-01", today); err != nil {
		return nil, err
	}

	return history, nil
}

func classifyRecency(daysSince int) string {
	switch {
	case daysSince <= freshMaxDays:
		return RecencyFresh
	case daysSince <= agingMaxDays:
		return RecencyAging
	default:
		return RecencyOverdue
	}
}

// daysBetween counts whole calendar days from one date to a later one,
// clamped at zero against entries dated in the future.
func daysBetween(from, to string) int {
	fromDay, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0
	}
	toDay, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0
	}

	days := int(toDay.Sub(fromDay) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
