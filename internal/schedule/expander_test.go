package schedule

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func twoWeekTemplate() *domain.ScheduleTemplate {
	taskA := primitive.NewObjectID()
	taskB := primitive.NewObjectID()
	mealC := primitive.NewObjectID()
	return &domain.ScheduleTemplate{
		Title:         "Knee replacement prep",
		NumberOfWeeks: 2,
		Weeks: []domain.TemplateWeek{
			{
				WeekNumber: 1,
				Items: []domain.TemplateItem{
					{ItemID: taskA, ItemType: domain.ItemTask, TimesPerWeek: 5},
					{ItemID: taskB, ItemType: domain.ItemTask, TimesPerWeek: 3, RepetitionCount: intPtr(10)},
					{ItemID: mealC, ItemType: domain.ItemMeal, TimesPerWeek: 2},
				},
			},
			{
				WeekNumber: 2,
				Items: []domain.TemplateItem{
					{ItemID: taskA, ItemType: domain.ItemTask, TimesPerWeek: 1},
					{ItemID: taskB, ItemType: domain.ItemTask, TimesPerWeek: 7, RepetitionCount: intPtr(20)},
				},
			},
		},
	}
}

func TestExpandProducesOneItemPerFrequencyUnit(t *testing.T) {
	drafts, err := Expand(twoWeekTemplate(), date(2018, time.May, 22))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 5+3+2 in week 1, 1+7 in week 2.
	if len(drafts) != 18 {
		t.Fatalf("expected 18 drafts, got %d", len(drafts))
	}
	for i, d := range drafts {
		if d.Status != domain.ItemPending {
			t.Errorf("draft %d: expected pending status, got %q", i, d.Status)
		}
		if d.Seq != i {
			t.Errorf("draft %d: expected seq %d, got %d", i, i, d.Seq)
		}
	}
}

func TestExpandFiveTimesWeekOne(t *testing.T) {
	init := date(2018, time.May, 22)
	taskA := primitive.NewObjectID()
	tmpl := &domain.ScheduleTemplate{
		NumberOfWeeks: 1,
		Weeks: []domain.TemplateWeek{
			{WeekNumber: 1, Items: []domain.TemplateItem{
				{ItemID: taskA, ItemType: domain.ItemTask, TimesPerWeek: 5},
			}},
		},
	}

	drafts, err := Expand(tmpl, init)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 5 {
		t.Fatalf("expected 5 drafts, got %d", len(drafts))
	}

	lastDay := date(2018, time.May, 28)
	days := map[int]bool{}
	for _, d := range drafts {
		if d.DayNumber < 1 || d.DayNumber > 7 {
			t.Errorf("day number %d outside 1..7", d.DayNumber)
		}
		if days[d.DayNumber] {
			t.Errorf("duplicate day number %d", d.DayNumber)
		}
		days[d.DayNumber] = true
		if d.ScheduledDate.Before(init) || d.ScheduledDate.After(lastDay) {
			t.Errorf("scheduled date %s outside %s..%s", d.ScheduledDate, init, lastDay)
		}
	}
}

func TestExpandScheduledDatesFollowWeekDayOrder(t *testing.T) {
	drafts, err := Expand(twoWeekTemplate(), date(2018, time.May, 22))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, d := range drafts {
		want := date(2018, time.May, 22).AddDate(0, 0, 7*(d.WeekNumber-1)+(d.DayNumber-1))
		if !d.ScheduledDate.Equal(want) {
			t.Errorf("draft %d: scheduled date %s, want %s", i, d.ScheduledDate, want)
		}
	}

	// Non-decreasing along lexicographic (week, day) order.
	for i := 1; i < len(drafts); i++ {
		a, b := drafts[i-1], drafts[i]
		if b.WeekNumber > a.WeekNumber || (b.WeekNumber == a.WeekNumber && b.DayNumber >= a.DayNumber) {
			if b.ScheduledDate.Before(a.ScheduledDate) {
				t.Errorf("scheduled date decreased from %s to %s at draft %d", a.ScheduledDate, b.ScheduledDate, i)
			}
		}
	}
}

func TestExpandCarriesRepetitionCount(t *testing.T) {
	drafts, err := Expand(twoWeekTemplate(), date(2018, time.May, 22))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withReps := 0
	for _, d := range drafts {
		if d.ExpectedRepetitions != nil {
			withReps++
		}
	}
	// 3 occurrences of task B in week 1 and 7 in week 2.
	if withReps != 10 {
		t.Errorf("expected 10 drafts with repetition targets, got %d", withReps)
	}
}

func TestExpandSpreadsDaysEvenly(t *testing.T) {
	cases := []struct {
		k    int
		days []int
	}{
		{1, []int{1}},
		{2, []int{1, 4}},
		{3, []int{1, 3, 5}},
		{5, []int{1, 2, 3, 5, 6}},
		{7, []int{1, 2, 3, 4, 5, 6, 7}},
	}
	for _, c := range cases {
		got := spreadDays(c.k)
		if len(got) != len(c.days) {
			t.Fatalf("k=%d: expected %d days, got %v", c.k, len(c.days), got)
		}
		for i := range got {
			if got[i] != c.days[i] {
				t.Errorf("k=%d: expected days %v, got %v", c.k, c.days, got)
				break
			}
		}
	}
}

func TestExpandRejectsMalformedTemplates(t *testing.T) {
	id := primitive.NewObjectID()
	cases := []struct {
		name string
		tmpl domain.ScheduleTemplate
	}{
		{
			"frequency above seven",
			domain.ScheduleTemplate{NumberOfWeeks: 1, Weeks: []domain.TemplateWeek{
				{WeekNumber: 1, Items: []domain.TemplateItem{{ItemID: id, ItemType: domain.ItemTask, TimesPerWeek: 8}}},
			}},
		},
		{
			"frequency of zero",
			domain.ScheduleTemplate{NumberOfWeeks: 1, Weeks: []domain.TemplateWeek{
				{WeekNumber: 1, Items: []domain.TemplateItem{{ItemID: id, ItemType: domain.ItemTask, TimesPerWeek: 0}}},
			}},
		},
		{
			"week number beyond plan length",
			domain.ScheduleTemplate{NumberOfWeeks: 1, Weeks: []domain.TemplateWeek{
				{WeekNumber: 2, Items: []domain.TemplateItem{{ItemID: id, ItemType: domain.ItemTask, TimesPerWeek: 1}}},
			}},
		},
		{
			"duplicate week number",
			domain.ScheduleTemplate{NumberOfWeeks: 2, Weeks: []domain.TemplateWeek{
				{WeekNumber: 1, Items: []domain.TemplateItem{{ItemID: id, ItemType: domain.ItemTask, TimesPerWeek: 1}}},
				{WeekNumber: 1, Items: []domain.TemplateItem{{ItemID: id, ItemType: domain.ItemTask, TimesPerWeek: 2}}},
			}},
		},
		{
			"unknown item type",
			domain.ScheduleTemplate{NumberOfWeeks: 1, Weeks: []domain.TemplateWeek{
				{WeekNumber: 1, Items: []domain.TemplateItem{{ItemID: id, ItemType: "snackz", TimesPerWeek: 1}}},
			}},
		},
		{
			"zero weeks",
			domain.ScheduleTemplate{NumberOfWeeks: 0},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Expand(&c.tmpl, date(2018, time.May, 22))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
