package schedule

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
)

// Report is the adherence summary for one prehab, computed against a
// reference date.
type Report struct {
	PatientID             primitive.ObjectID  `json:"patientId"`
	PrehabID              primitive.ObjectID  `json:"prehabId"`
	PrehabWeekNumber      int                 `json:"prehabWeekNumber"`
	PrehabStartDate       time.Time           `json:"prehabStartDate"`
	PrehabExpectedEndDate time.Time           `json:"prehabExpectedEndDate"`
	SurgeryDay            time.Time           `json:"surgeryDay"`
	DaysUntilSurgery      *int                `json:"daysUntilSurgery"` // nil while the countdown is non-positive
	TotalActivities       int                 `json:"totalActivities"`
	TotalUntilNow         int                 `json:"totalActivitiesUntilNow"`
	ActivitiesDone        int                 `json:"activitiesDone"`
	ActivitiesDifficult   int                 `json:"activitiesWithDifficulty"`
	ActivitiesNotDone     int                 `json:"activitiesNotDone"`
	PrehabStatus          domain.PrehabStatus `json:"prehabStatus"`
}

// BuildReport computes the adherence report for a prehab from its scheduled
// items as of today.
//
// days_to_surgery is the signed day count from the surgery date to today, so
// it is negative while the surgery is still ahead. The current week/day are
// derived from it with floor division, and an item counts as elapsed when
// its week_number and day_number are both at or before that point. The
// comparison is on week/day numbers, not calendar dates; with a negative
// current week no item qualifies. Clients depend on that behavior and on
// DaysUntilSurgery being nil until the countdown turns positive; both are
// pinned by tests. Changing either needs a product decision first.
func BuildReport(p *domain.Prehab, items []domain.ScheduledItem, today time.Time) Report {
	daysToSurgery := daysBetween(p.SurgeryDate, today)
	currentWeek := int(math.Floor(float64(daysToSurgery) / daysPerWeek))
	currentDay := daysToSurgery - daysPerWeek*currentWeek

	r := Report{
		PatientID:             p.PatientID,
		PrehabID:              p.ID,
		PrehabWeekNumber:      p.NumberOfWeeks,
		PrehabStartDate:       p.InitDate,
		PrehabExpectedEndDate: p.ExpectedEndDate,
		SurgeryDay:            p.SurgeryDate,
		TotalActivities:       len(items),
		PrehabStatus:          p.Status,
	}
	if daysToSurgery > 0 {
		d := daysToSurgery
		r.DaysUntilSurgery = &d
	}

	for _, item := range items {
		if item.WeekNumber > currentWeek || item.DayNumber > currentDay {
			continue
		}
		r.TotalUntilNow++
		switch item.Status {
		case domain.ItemCompleted:
			r.ActivitiesDone++
		case domain.ItemNotCompleted:
			r.ActivitiesNotDone++
		}
		if item.WasDifficult {
			r.ActivitiesDifficult++
		}
	}
	return r
}

// daysBetween returns the signed number of civil days from a to b,
// ignoring the time-of-day component.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
