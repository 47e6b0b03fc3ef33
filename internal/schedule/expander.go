// Package schedule holds the pure plan-generation and adherence logic:
// expanding a schedule template into dated scheduled items and computing
// statistics over them. It performs no I/O; persistence and permission
// checks live in the service layer.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"prehab/prehab-app/internal/domain"
)

const daysPerWeek = 7

// Expand materializes a template into one scheduled-item draft per
// (week, day, item) occurrence, anchored at initDate.
//
// Day distribution: an item with times_per_week = k is placed on the k
// distinct days floor(i*7/k)+1 for i in 0..k-1, spreading occurrences
// evenly across the week (k=2 -> days 1 and 4; k=5 -> days 1,2,3,5,6).
// The policy is user-visible in the resulting calendar, so changing it
// changes what patients see.
//
// The result is fully materialized and ordered by (week, item entry, day);
// Seq is assigned in that order so listings can sort on it. Drafts carry no
// ID; the repository assigns ids on bulk insert.
func Expand(t *domain.ScheduleTemplate, initDate time.Time) ([]domain.ScheduledItem, error) {
	if err := ValidateTemplate(t); err != nil {
		return nil, err
	}

	weeks := make([]domain.TemplateWeek, len(t.Weeks))
	copy(weeks, t.Weeks)
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekNumber < weeks[j].WeekNumber })

	var drafts []domain.ScheduledItem
	seq := 0
	for _, w := range weeks {
		for _, item := range w.Items {
			for _, day := range spreadDays(item.TimesPerWeek) {
				drafts = append(drafts, domain.ScheduledItem{
					WeekNumber:          w.WeekNumber,
					DayNumber:           day,
					ItemID:              item.ItemID,
					ItemType:            item.ItemType,
					ExpectedRepetitions: item.RepetitionCount,
					Status:              domain.ItemPending,
					ScheduledDate:       occurrenceDate(initDate, w.WeekNumber, day),
					Seq:                 seq,
				})
				seq++
			}
		}
	}
	return drafts, nil
}

// ValidateTemplate checks the structural invariants a template must satisfy
// before it can be stored or expanded: at least one week, week numbers in
// range and unique, per-item frequency in 1..7 and a known item type. All
// failures wrap domain.ErrValidation.
func ValidateTemplate(t *domain.ScheduleTemplate) error {
	if t.NumberOfWeeks < 1 {
		return fmt.Errorf("%w: template must span at least one week", domain.ErrValidation)
	}

	seen := make(map[int]bool, len(t.Weeks))
	for _, w := range t.Weeks {
		if w.WeekNumber < 1 || w.WeekNumber > t.NumberOfWeeks {
			return fmt.Errorf("%w: week_number %d outside 1..%d", domain.ErrValidation, w.WeekNumber, t.NumberOfWeeks)
		}
		if seen[w.WeekNumber] {
			return fmt.Errorf("%w: duplicate week_number %d", domain.ErrValidation, w.WeekNumber)
		}
		seen[w.WeekNumber] = true
		for _, item := range w.Items {
			if item.TimesPerWeek < 1 || item.TimesPerWeek > daysPerWeek {
				return fmt.Errorf("%w: times_per_week %d outside 1..7", domain.ErrValidation, item.TimesPerWeek)
			}
			if !item.ItemType.Valid() {
				return fmt.Errorf("%w: unknown item type %q", domain.ErrValidation, item.ItemType)
			}
			if item.RepetitionCount != nil && *item.RepetitionCount < 1 {
				return fmt.Errorf("%w: repetition_count must be positive", domain.ErrValidation)
			}
		}
	}
	return nil
}

// spreadDays returns k distinct day numbers in 1..7, spread evenly.
func spreadDays(k int) []int {
	days := make([]int, 0, k)
	for i := 0; i < k; i++ {
		days = append(days, (i*daysPerWeek)/k+1)
	}
	return days
}

// occurrenceDate places a (week, day) occurrence on the calendar:
// initDate + 7*(week-1) + (day-1) days.
func occurrenceDate(initDate time.Time, week, day int) time.Time {
	return initDate.AddDate(0, 0, daysPerWeek*(week-1)+(day-1))
}
